package store

import (
	"context"

	"github.com/platinummonkey/taskboard/pkg/models"
)

// StatusStore persists task statuses
type StatusStore struct {
	q Querier
}

func (s *StatusStore) table() *namedTable {
	return &namedTable{
		q:        s.q,
		table:    "statuses",
		entity:   "status",
		refQuery: "SELECT EXISTS (SELECT 1 FROM tasks WHERE status_id = $1)",
	}
}

func toStatus(n *namedRow) *models.Status {
	return &models.Status{ID: n.ID, Name: n.Name, CreatedAt: n.CreatedAt}
}

// Create inserts a status
func (s *StatusStore) Create(ctx context.Context, name string) (*models.Status, error) {
	n, err := s.table().create(ctx, name)
	if err != nil {
		return nil, err
	}
	return toStatus(n), nil
}

// GetByID returns the status or a not found error
func (s *StatusStore) GetByID(ctx context.Context, id int64) (*models.Status, error) {
	n, err := s.table().get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toStatus(n), nil
}

// GetByIDs returns statuses keyed by id; absent ids are omitted
func (s *StatusStore) GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.Status, error) {
	rows, err := s.table().getByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	statuses := make(map[int64]*models.Status, len(rows))
	for id, n := range rows {
		statuses[id] = toStatus(n)
	}
	return statuses, nil
}

// List returns all statuses ordered by id
func (s *StatusStore) List(ctx context.Context) ([]*models.Status, error) {
	rows, err := s.table().list(ctx)
	if err != nil {
		return nil, err
	}
	statuses := make([]*models.Status, len(rows))
	for i, n := range rows {
		statuses[i] = toStatus(n)
	}
	return statuses, nil
}

// NameTaken reports whether another status (not exceptID) already uses name
func (s *StatusStore) NameTaken(ctx context.Context, name string, exceptID int64) (bool, error) {
	return s.table().nameTaken(ctx, name, exceptID)
}

// Rename changes the status name
func (s *StatusStore) Rename(ctx context.Context, id int64, name string) error {
	return s.table().rename(ctx, id, name)
}

// IsReferenced reports whether any task uses the status
func (s *StatusStore) IsReferenced(ctx context.Context, id int64) (bool, error) {
	return s.table().isReferenced(ctx, id)
}

// Delete removes the status
func (s *StatusStore) Delete(ctx context.Context, id int64) error {
	return s.table().delete(ctx, id)
}
