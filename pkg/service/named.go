package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/taskboard/pkg/apperrors"
	"github.com/platinummonkey/taskboard/pkg/models"
	"github.com/platinummonkey/taskboard/pkg/observability"
	"github.com/platinummonkey/taskboard/pkg/store"
)

// namedRepo is the store surface shared by statuses and labels
type namedRepo[T any] interface {
	Create(ctx context.Context, name string) (T, error)
	GetByID(ctx context.Context, id int64) (T, error)
	List(ctx context.Context) ([]T, error)
	NameTaken(ctx context.Context, name string, exceptID int64) (bool, error)
	Rename(ctx context.Context, id int64, name string) error
	IsReferenced(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) error
}

// NamedService manages an entity identified by a unique name
type NamedService[T any] struct {
	store   *store.Store
	repo    func(*store.Store) namedRepo[T]
	entity  string
	metrics *observability.Metrics
	logger  *logrus.Logger
}

// StatusService manages task statuses
type StatusService = NamedService[*models.Status]

// LabelService manages task labels
type LabelService = NamedService[*models.Label]

// NewStatusService creates the status service
func NewStatusService(st *store.Store, metrics *observability.Metrics, logger *logrus.Logger) *StatusService {
	return &StatusService{
		store:   st,
		repo:    func(s *store.Store) namedRepo[*models.Status] { return s.Statuses() },
		entity:  "status",
		metrics: metrics,
		logger:  logger,
	}
}

// NewLabelService creates the label service
func NewLabelService(st *store.Store, metrics *observability.Metrics, logger *logrus.Logger) *LabelService {
	return &LabelService{
		store:   st,
		repo:    func(s *store.Store) namedRepo[*models.Label] { return s.Labels() },
		entity:  "label",
		metrics: metrics,
		logger:  logger,
	}
}

// List returns every entity ordered by id
func (s *NamedService[T]) List(ctx context.Context) ([]T, error) {
	return s.repo(s.store).List(ctx)
}

// Get returns the entity or a not found error
func (s *NamedService[T]) Get(ctx context.Context, id int64) (T, error) {
	return s.repo(s.store).GetByID(ctx, id)
}

// Create inserts an entity; a taken name is a duplicate
func (s *NamedService[T]) Create(ctx context.Context, name string) (created T, err error) {
	defer func() { s.metrics.RecordOperation(s.entity, "create", err) }()

	err = s.store.InTx(ctx, func(tx *store.Store) error {
		repo := s.repo(tx)
		taken, err := repo.NameTaken(ctx, name, 0)
		if err != nil {
			return err
		}
		if taken {
			return apperrors.NewDuplicateError(s.entity, "name", name)
		}
		created, err = repo.Create(ctx, name)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}

	observability.FromContext(ctx, s.logger).WithField("entity", s.entity).Info("Created")
	return created, nil
}

// Update renames an entity
func (s *NamedService[T]) Update(ctx context.Context, id int64, name string) (updated T, err error) {
	defer func() { s.metrics.RecordOperation(s.entity, "update", err) }()

	err = s.store.InTx(ctx, func(tx *store.Store) error {
		repo := s.repo(tx)
		if _, err := repo.GetByID(ctx, id); err != nil {
			return err
		}
		taken, err := repo.NameTaken(ctx, name, id)
		if err != nil {
			return err
		}
		if taken {
			return apperrors.NewDuplicateError(s.entity, "name", name)
		}
		if err := repo.Rename(ctx, id, name); err != nil {
			return err
		}
		updated, err = repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}

	observability.FromContext(ctx, s.logger).WithFields(logrus.Fields{
		"entity": s.entity,
		"id":     id,
	}).Info("Updated")
	return updated, nil
}

// Delete removes an entity unless a task still references it
func (s *NamedService[T]) Delete(ctx context.Context, id int64) (err error) {
	defer func() { s.metrics.RecordOperation(s.entity, "delete", err) }()

	err = s.store.InTx(ctx, func(tx *store.Store) error {
		repo := s.repo(tx)
		if _, err := repo.GetByID(ctx, id); err != nil {
			return err
		}
		referenced, err := repo.IsReferenced(ctx, id)
		if err != nil {
			return err
		}
		if referenced {
			return apperrors.NewConflictError(s.entity, id)
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	observability.FromContext(ctx, s.logger).WithFields(logrus.Fields{
		"entity": s.entity,
		"id":     id,
	}).Info("Deleted")
	return nil
}
