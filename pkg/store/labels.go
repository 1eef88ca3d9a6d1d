package store

import (
	"context"

	"github.com/platinummonkey/taskboard/pkg/models"
)

// LabelStore persists task labels
type LabelStore struct {
	q Querier
}

func (s *LabelStore) table() *namedTable {
	return &namedTable{
		q:        s.q,
		table:    "labels",
		entity:   "label",
		refQuery: "SELECT EXISTS (SELECT 1 FROM task_labels WHERE label_id = $1)",
	}
}

func toLabel(n *namedRow) *models.Label {
	return &models.Label{ID: n.ID, Name: n.Name, CreatedAt: n.CreatedAt}
}

// Create inserts a label
func (s *LabelStore) Create(ctx context.Context, name string) (*models.Label, error) {
	n, err := s.table().create(ctx, name)
	if err != nil {
		return nil, err
	}
	return toLabel(n), nil
}

// GetByID returns the label or a not found error
func (s *LabelStore) GetByID(ctx context.Context, id int64) (*models.Label, error) {
	n, err := s.table().get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toLabel(n), nil
}

// GetByIDs returns labels keyed by id; absent ids are omitted
func (s *LabelStore) GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.Label, error) {
	rows, err := s.table().getByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	labels := make(map[int64]*models.Label, len(rows))
	for id, n := range rows {
		labels[id] = toLabel(n)
	}
	return labels, nil
}

// List returns all labels ordered by id
func (s *LabelStore) List(ctx context.Context) ([]*models.Label, error) {
	rows, err := s.table().list(ctx)
	if err != nil {
		return nil, err
	}
	labels := make([]*models.Label, len(rows))
	for i, n := range rows {
		labels[i] = toLabel(n)
	}
	return labels, nil
}

// NameTaken reports whether another label (not exceptID) already uses name
func (s *LabelStore) NameTaken(ctx context.Context, name string, exceptID int64) (bool, error) {
	return s.table().nameTaken(ctx, name, exceptID)
}

// Rename changes the label name
func (s *LabelStore) Rename(ctx context.Context, id int64, name string) error {
	return s.table().rename(ctx, id, name)
}

// IsReferenced reports whether any task carries the label
func (s *LabelStore) IsReferenced(ctx context.Context, id int64) (bool, error) {
	return s.table().isReferenced(ctx, id)
}

// Delete removes the label
func (s *LabelStore) Delete(ctx context.Context, id int64) error {
	return s.table().delete(ctx, id)
}
