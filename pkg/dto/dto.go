// Package dto defines the JSON request and response bodies of the REST API
// and the plain functions converting them to service inputs and from models.
package dto

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/platinummonkey/taskboard/pkg/models"
	"github.com/platinummonkey/taskboard/pkg/service"
)

// UserRequest is the body of user registration and update. Every field is
// required on registration; on update absent fields are left untouched.
type UserRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
}

// NameRequest is the body of status and label create/update
type NameRequest struct {
	Name *string `json:"name"`
}

// TaskRequest is the body of task create and update. AuthorID is accepted
// for compatibility and ignored: the author is always the caller.
type TaskRequest struct {
	Name         *string    `json:"name"`
	Description  *string    `json:"description"`
	TaskStatusID *int64     `json:"taskStatusId"`
	AuthorID     *int64     `json:"authorId,omitempty"`
	ExecutorID   OptionalID `json:"executorId"`
	LabelIDs     []int64    `json:"labelIds"`
}

// OptionalID is a nullable id that remembers whether it was present in the
// body at all, so that "executorId": null unassigns while omission keeps.
type OptionalID struct {
	Set   bool
	Value *int64
}

// UnmarshalJSON implements json.Unmarshaler
func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var id int64
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	o.Value = &id
	return nil
}

// MarshalJSON implements json.Marshaler
func (o OptionalID) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

// UserDTO is the public view of a user; it never carries the password
type UserDTO struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// StatusDTO is the public view of a status
type StatusDTO struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// LabelDTO is the public view of a label
type LabelDTO struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// TaskDTO is a task with its relations embedded
type TaskDTO struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	TaskStatus  StatusDTO  `json:"taskStatus"`
	Author      UserDTO    `json:"author"`
	Executor    *UserDTO   `json:"executor"`
	Labels      []LabelDTO `json:"labels"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ToUserInput converts a validated registration body
func ToUserInput(req UserRequest) service.UserInput {
	return service.UserInput{
		FirstName: deref(req.FirstName),
		LastName:  deref(req.LastName),
		Email:     deref(req.Email),
		Password:  deref(req.Password),
	}
}

// ToUserPatch converts a validated update body
func ToUserPatch(req UserRequest) service.UserPatch {
	return service.UserPatch{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	}
}

// ToTaskInput converts a validated create body
func ToTaskInput(req TaskRequest) service.TaskInput {
	in := service.TaskInput{
		Name:        deref(req.Name),
		Description: deref(req.Description),
		ExecutorID:  req.ExecutorID.Value,
		LabelIDs:    req.LabelIDs,
	}
	if req.TaskStatusID != nil {
		in.StatusID = *req.TaskStatusID
	}
	return in
}

// ToTaskPatch converts a validated update body
func ToTaskPatch(req TaskRequest) service.TaskPatch {
	return service.TaskPatch{
		Name:        req.Name,
		Description: req.Description,
		StatusID:    req.TaskStatusID,
		ExecutorSet: req.ExecutorID.Set,
		ExecutorID:  req.ExecutorID.Value,
		LabelIDs:    req.LabelIDs,
	}
}

// FromUser converts a user model
func FromUser(u *models.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// FromUsers converts a list of users
func FromUsers(users []*models.User) []UserDTO {
	out := make([]UserDTO, 0, len(users))
	for _, u := range users {
		out = append(out, FromUser(u))
	}
	return out
}

// FromStatus converts a status model
func FromStatus(s *models.Status) StatusDTO {
	return StatusDTO{ID: s.ID, Name: s.Name, CreatedAt: s.CreatedAt}
}

// FromStatuses converts a list of statuses
func FromStatuses(statuses []*models.Status) []StatusDTO {
	out := make([]StatusDTO, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, FromStatus(s))
	}
	return out
}

// FromLabel converts a label model
func FromLabel(l *models.Label) LabelDTO {
	return LabelDTO{ID: l.ID, Name: l.Name, CreatedAt: l.CreatedAt}
}

// FromLabels converts a list of labels
func FromLabels(labels []*models.Label) []LabelDTO {
	out := make([]LabelDTO, 0, len(labels))
	for _, l := range labels {
		out = append(out, FromLabel(l))
	}
	return out
}

// FromTaskDetails converts a task with resolved relations
func FromTaskDetails(d *models.TaskDetails) TaskDTO {
	out := TaskDTO{
		ID:          d.Task.ID,
		Name:        d.Task.Name,
		Description: d.Task.Description,
		Labels:      FromLabels(d.Labels),
		CreatedAt:   d.Task.CreatedAt,
	}
	if d.Status != nil {
		out.TaskStatus = FromStatus(d.Status)
	}
	if d.Author != nil {
		out.Author = FromUser(d.Author)
	}
	if d.Executor != nil {
		executor := FromUser(d.Executor)
		out.Executor = &executor
	}
	return out
}

// FromTaskDetailsList converts a task listing
func FromTaskDetailsList(list []*models.TaskDetails) []TaskDTO {
	out := make([]TaskDTO, 0, len(list))
	for _, d := range list {
		out = append(out, FromTaskDetails(d))
	}
	return out
}
