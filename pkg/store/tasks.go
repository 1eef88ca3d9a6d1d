package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/platinummonkey/taskboard/pkg/apperrors"
	"github.com/platinummonkey/taskboard/pkg/models"
)

// TaskStore persists tasks and their label assignments
type TaskStore struct {
	q Querier
}

const taskColumns = "t.id, t.name, t.description, t.status_id, t.author_id, t.executor_id, t.created_at"

func scanTask(row rowScanner) (*models.Task, error) {
	t := &models.Task{}
	var executorID sql.NullInt64
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &t.StatusID, &t.AuthorID, &executorID, &t.CreatedAt); err != nil {
		return nil, err
	}
	if executorID.Valid {
		id := executorID.Int64
		t.ExecutorID = &id
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.LabelIDs = []int64{}
	return t, nil
}

func nullableID(id *int64) interface{} {
	if id == nil {
		return nil
	}
	return *id
}

// translateWriteError maps constraint failures on insert/update
func translateWriteError(err error, task *models.Task, op string) error {
	switch {
	case isUniqueViolation(err):
		return apperrors.NewDuplicateError("task", "name", task.Name)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%w: task references a missing status, user or label", apperrors.ErrNotFound)
	default:
		return fmt.Errorf("failed to %s task: %w", op, err)
	}
}

// Create inserts the task and its label rows. Callers wanting atomicity run
// it inside Store.InTx.
func (s *TaskStore) Create(ctx context.Context, task *models.Task) error {
	task.CreatedAt = now()
	err := s.q.QueryRowContext(ctx, `
		INSERT INTO tasks (name, description, status_id, author_id, executor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		task.Name, task.Description, task.StatusID, task.AuthorID, nullableID(task.ExecutorID), task.CreatedAt,
	).Scan(&task.ID)
	if err != nil {
		return translateWriteError(err, task, "create")
	}

	task.LabelIDs = dedupeIDs(task.LabelIDs)
	return s.insertLabels(ctx, task)
}

// GetByID returns the task with its label ids or a not found error
func (s *TaskStore) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	task, err := scanTask(s.q.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM tasks t WHERE t.id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("task", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task %d: %w", id, err)
	}

	if err := s.loadLabelIDs(ctx, []*models.Task{task}); err != nil {
		return nil, err
	}
	return task, nil
}

// List returns the tasks matching every set filter field, ordered by id.
// Label ids are loaded with one extra query for the whole page.
func (s *TaskStore) List(ctx context.Context, filter models.TaskFilter) ([]*models.Task, error) {
	var (
		conditions []string
		args       []interface{}
	)
	addCondition := func(clause string, value int64) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if filter.StatusID != nil {
		addCondition("t.status_id = $%d", *filter.StatusID)
	}
	if filter.ExecutorID != nil {
		addCondition("t.executor_id = $%d", *filter.ExecutorID)
	}
	if filter.LabelID != nil {
		addCondition("EXISTS (SELECT 1 FROM task_labels tl WHERE tl.task_id = t.id AND tl.label_id = $%d)", *filter.LabelID)
	}
	if filter.AuthorID != nil {
		addCondition("t.author_id = $%d", *filter.AuthorID)
	}

	query := "SELECT " + taskColumns + " FROM tasks t"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY t.id"

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks := make([]*models.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	rows.Close()

	if err := s.loadLabelIDs(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// NameTaken reports whether another task (not exceptID) already uses name
func (s *TaskStore) NameTaken(ctx context.Context, name string, exceptID int64) (bool, error) {
	var exists bool
	err := s.q.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM tasks WHERE name = $1 AND id <> $2)",
		name, exceptID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check task name: %w", err)
	}
	return exists, nil
}

// Update saves the task columns and replaces its label set with task.LabelIDs
func (s *TaskStore) Update(ctx context.Context, task *models.Task) error {
	result, err := s.q.ExecContext(ctx, `
		UPDATE tasks
		SET name = $1, description = $2, status_id = $3, executor_id = $4
		WHERE id = $5`,
		task.Name, task.Description, task.StatusID, nullableID(task.ExecutorID), task.ID,
	)
	if err != nil {
		return translateWriteError(err, task, "update")
	}
	if err := expectAffected(result, "task", task.ID); err != nil {
		return err
	}

	if _, err := s.q.ExecContext(ctx, "DELETE FROM task_labels WHERE task_id = $1", task.ID); err != nil {
		return fmt.Errorf("failed to clear labels of task %d: %w", task.ID, err)
	}

	task.LabelIDs = dedupeIDs(task.LabelIDs)
	return s.insertLabels(ctx, task)
}

// Delete removes the task; its label rows cascade
func (s *TaskStore) Delete(ctx context.Context, id int64) error {
	// label rows first so removal does not depend on ON DELETE CASCADE
	if _, err := s.q.ExecContext(ctx, "DELETE FROM task_labels WHERE task_id = $1", id); err != nil {
		return fmt.Errorf("failed to delete labels of task %d: %w", id, err)
	}

	result, err := s.q.ExecContext(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete task %d: %w", id, err)
	}
	return expectAffected(result, "task", id)
}

func (s *TaskStore) insertLabels(ctx context.Context, task *models.Task) error {
	for _, labelID := range task.LabelIDs {
		if _, err := s.q.ExecContext(ctx,
			"INSERT INTO task_labels (task_id, label_id) VALUES ($1, $2)",
			task.ID, labelID,
		); err != nil {
			if isForeignKeyViolation(err) {
				return apperrors.NewNotFoundError("label", labelID)
			}
			return fmt.Errorf("failed to attach label %d to task %d: %w", labelID, task.ID, err)
		}
	}
	return nil
}

// loadLabelIDs fills LabelIDs for all tasks with a single IN query
func (s *TaskStore) loadLabelIDs(ctx context.Context, tasks []*models.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	byID := make(map[int64]*models.Task, len(tasks))
	ids := make([]int64, 0, len(tasks))
	for _, task := range tasks {
		byID[task.ID] = task
		ids = append(ids, task.ID)
	}

	rows, err := s.q.QueryContext(ctx,
		"SELECT task_id, label_id FROM task_labels WHERE task_id IN ("+placeholders(1, len(ids))+") ORDER BY task_id, label_id",
		int64Args(ids)...)
	if err != nil {
		return fmt.Errorf("failed to load task labels: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var taskID, labelID int64
		if err := rows.Scan(&taskID, &labelID); err != nil {
			return fmt.Errorf("failed to scan task label: %w", err)
		}
		if task, ok := byID[taskID]; ok {
			task.LabelIDs = append(task.LabelIDs, labelID)
		}
	}
	return rows.Err()
}

// dedupeIDs returns the ids sorted with duplicates removed
func dedupeIDs(ids []int64) []int64 {
	if len(ids) == 0 {
		return []int64{}
	}
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
