package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/platinummonkey/taskboard/pkg/apperrors"
	"github.com/platinummonkey/taskboard/pkg/auth"
	"github.com/platinummonkey/taskboard/pkg/models"
	"github.com/platinummonkey/taskboard/pkg/observability"
	"github.com/platinummonkey/taskboard/pkg/store"
)

// TaskInput is a validated task creation. The author is always the caller.
type TaskInput struct {
	Name        string
	Description string
	StatusID    int64
	ExecutorID  *int64
	LabelIDs    []int64
}

// TaskPatch is a validated partial update. ExecutorSet distinguishes
// "unassign" (set, nil id) from "leave as is"; a nil LabelIDs keeps the
// current labels while an empty slice clears them.
type TaskPatch struct {
	Name        *string
	Description *string
	StatusID    *int64
	ExecutorSet bool
	ExecutorID  *int64
	LabelIDs    []int64
}

// TaskService manages tasks and resolves their related entities
type TaskService struct {
	store   *store.Store
	metrics *observability.Metrics
	logger  *logrus.Logger
}

// NewTaskService creates the task service
func NewTaskService(st *store.Store, metrics *observability.Metrics, logger *logrus.Logger) *TaskService {
	return &TaskService{store: st, metrics: metrics, logger: logger}
}

// List returns the tasks matching filter with status, users and labels
// resolved in one batch per entity type
func (s *TaskService) List(ctx context.Context, filter models.TaskFilter) ([]*models.TaskDetails, error) {
	ctx, span := observability.Tracer().Start(ctx, "TaskService.List")
	defer span.End()

	tasks, err := s.store.Tasks().List(ctx, filter)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("task.count", len(tasks)))
	return resolveDetails(ctx, s.store, tasks)
}

// Get returns one task with its relations
func (s *TaskService) Get(ctx context.Context, id int64) (*models.TaskDetails, error) {
	task, err := s.store.Tasks().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	details, err := resolveDetails(ctx, s.store, []*models.Task{task})
	if err != nil {
		return nil, err
	}
	return details[0], nil
}

// AuthorOf returns the author id of a task
func (s *TaskService) AuthorOf(ctx context.Context, id int64) (int64, error) {
	task, err := s.store.Tasks().GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return task.AuthorID, nil
}

// Create inserts a task authored by caller. Status, executor and labels must
// exist; the whole write is one transaction.
func (s *TaskService) Create(ctx context.Context, caller *auth.Identity, in TaskInput) (details *models.TaskDetails, err error) {
	ctx, span := observability.Tracer().Start(ctx, "TaskService.Create")
	defer span.End()
	defer func() { s.metrics.RecordOperation("task", "create", err) }()

	if caller == nil {
		return nil, fmt.Errorf("%w: task creation requires a caller", apperrors.ErrUnauthenticated)
	}

	task := &models.Task{
		Name:        in.Name,
		Description: in.Description,
		StatusID:    in.StatusID,
		AuthorID:    caller.UserID,
		ExecutorID:  in.ExecutorID,
		LabelIDs:    in.LabelIDs,
	}

	err = s.store.InTx(ctx, func(tx *store.Store) error {
		taken, err := tx.Tasks().NameTaken(ctx, task.Name, 0)
		if err != nil {
			return err
		}
		if taken {
			return apperrors.NewDuplicateError("task", "name", task.Name)
		}
		if err := checkReferences(ctx, tx, task); err != nil {
			return err
		}
		if err := tx.Tasks().Create(ctx, task); err != nil {
			return err
		}

		resolved, err := resolveDetails(ctx, tx, []*models.Task{task})
		if err != nil {
			return err
		}
		details = resolved[0]
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.FromContext(ctx, s.logger).WithFields(logrus.Fields{
		"task_id":   task.ID,
		"author_id": task.AuthorID,
	}).Info("Task created")
	return details, nil
}

// Update applies a partial update inside one transaction
func (s *TaskService) Update(ctx context.Context, id int64, patch TaskPatch) (details *models.TaskDetails, err error) {
	ctx, span := observability.Tracer().Start(ctx, "TaskService.Update")
	defer span.End()
	defer func() { s.metrics.RecordOperation("task", "update", err) }()

	err = s.store.InTx(ctx, func(tx *store.Store) error {
		task, err := tx.Tasks().GetByID(ctx, id)
		if err != nil {
			return err
		}

		if patch.Name != nil && *patch.Name != task.Name {
			taken, err := tx.Tasks().NameTaken(ctx, *patch.Name, id)
			if err != nil {
				return err
			}
			if taken {
				return apperrors.NewDuplicateError("task", "name", *patch.Name)
			}
			task.Name = *patch.Name
		}
		if patch.Description != nil {
			task.Description = *patch.Description
		}
		if patch.StatusID != nil {
			task.StatusID = *patch.StatusID
		}
		if patch.ExecutorSet {
			task.ExecutorID = patch.ExecutorID
		}
		if patch.LabelIDs != nil {
			task.LabelIDs = patch.LabelIDs
		}

		if err := checkReferences(ctx, tx, task); err != nil {
			return err
		}
		if err := tx.Tasks().Update(ctx, task); err != nil {
			return err
		}

		resolved, err := resolveDetails(ctx, tx, []*models.Task{task})
		if err != nil {
			return err
		}
		details = resolved[0]
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.FromContext(ctx, s.logger).WithField("task_id", id).Info("Task updated")
	return details, nil
}

// Delete removes a task and its label assignments
func (s *TaskService) Delete(ctx context.Context, id int64) (err error) {
	defer func() { s.metrics.RecordOperation("task", "delete", err) }()

	if err = s.store.Tasks().Delete(ctx, id); err != nil {
		return err
	}

	observability.FromContext(ctx, s.logger).WithField("task_id", id).Info("Task deleted")
	return nil
}

// checkReferences reports the first missing status, executor or label
func checkReferences(ctx context.Context, tx *store.Store, task *models.Task) error {
	if _, err := tx.Statuses().GetByID(ctx, task.StatusID); err != nil {
		return err
	}
	if task.ExecutorID != nil {
		if _, err := tx.Users().GetByID(ctx, *task.ExecutorID); err != nil {
			return err
		}
	}
	if len(task.LabelIDs) == 0 {
		return nil
	}

	labels, err := tx.Labels().GetByIDs(ctx, task.LabelIDs)
	if err != nil {
		return err
	}
	for _, id := range task.LabelIDs {
		if _, ok := labels[id]; !ok {
			return apperrors.NewNotFoundError("label", id)
		}
	}
	return nil
}

// resolveDetails loads statuses, users and labels for tasks with one query
// per entity type
func resolveDetails(ctx context.Context, st *store.Store, tasks []*models.Task) ([]*models.TaskDetails, error) {
	var statusIDs, userIDs, labelIDs []int64
	for _, task := range tasks {
		statusIDs = append(statusIDs, task.StatusID)
		userIDs = append(userIDs, task.AuthorID)
		if task.ExecutorID != nil {
			userIDs = append(userIDs, *task.ExecutorID)
		}
		labelIDs = append(labelIDs, task.LabelIDs...)
	}

	statuses, err := st.Statuses().GetByIDs(ctx, statusIDs)
	if err != nil {
		return nil, err
	}
	users, err := st.Users().GetByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	labels, err := st.Labels().GetByIDs(ctx, labelIDs)
	if err != nil {
		return nil, err
	}

	out := make([]*models.TaskDetails, 0, len(tasks))
	for _, task := range tasks {
		d := &models.TaskDetails{
			Task:   task,
			Status: statuses[task.StatusID],
			Author: users[task.AuthorID],
			Labels: make([]*models.Label, 0, len(task.LabelIDs)),
		}
		if task.ExecutorID != nil {
			d.Executor = users[*task.ExecutorID]
		}
		for _, id := range task.LabelIDs {
			if label, ok := labels[id]; ok {
				d.Labels = append(d.Labels, label)
			}
		}
		out = append(out, d)
	}
	return out, nil
}
