// Package models holds the persistent entities of the task tracker. Relations
// are expressed as explicit foreign-key ids; callers load related entities
// with explicit follow-up queries.
package models

import "time"

// User is a registered account. PasswordHash is never serialized.
type User struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Status is a named workflow state
type Status struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Label is a named tag attached to tasks
type Label struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Task is a unit of work. ExecutorID is nil when unassigned.
type Task struct {
	ID          int64
	Name        string
	Description string
	StatusID    int64
	AuthorID    int64
	ExecutorID  *int64
	LabelIDs    []int64
	CreatedAt   time.Time
}

// TaskDetails is a task with its related entities resolved
type TaskDetails struct {
	Task     *Task
	Status   *Status
	Author   *User
	Executor *User
	Labels   []*Label
}

// TaskFilter narrows a task listing. Nil fields do not constrain; set
// fields are combined with logical AND.
type TaskFilter struct {
	StatusID   *int64
	ExecutorID *int64
	LabelID    *int64
	AuthorID   *int64
}

// IsEmpty reports whether the filter has no constraints
func (f TaskFilter) IsEmpty() bool {
	return f.StatusID == nil && f.ExecutorID == nil && f.LabelID == nil && f.AuthorID == nil
}
