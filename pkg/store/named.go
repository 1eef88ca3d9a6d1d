package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/platinummonkey/taskboard/pkg/apperrors"
)

// namedRow is the shape shared by statuses and labels
type namedRow struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// namedTable implements CRUD for tables of (id, name UNIQUE, created_at).
// refQuery must select EXISTS over the rows referencing $1.
type namedTable struct {
	q        Querier
	table    string
	entity   string
	refQuery string
}

func scanNamed(row rowScanner) (*namedRow, error) {
	n := &namedRow{}
	if err := row.Scan(&n.ID, &n.Name, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.CreatedAt = n.CreatedAt.UTC()
	return n, nil
}

func (t *namedTable) create(ctx context.Context, name string) (*namedRow, error) {
	n := &namedRow{Name: name, CreatedAt: now()}
	err := t.q.QueryRowContext(ctx,
		"INSERT INTO "+t.table+" (name, created_at) VALUES ($1, $2) RETURNING id",
		n.Name, n.CreatedAt,
	).Scan(&n.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.NewDuplicateError(t.entity, "name", name)
		}
		return nil, fmt.Errorf("failed to create %s: %w", t.entity, err)
	}
	return n, nil
}

func (t *namedTable) get(ctx context.Context, id int64) (*namedRow, error) {
	n, err := scanNamed(t.q.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM "+t.table+" WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(t.entity, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %d: %w", t.entity, id, err)
	}
	return n, nil
}

func (t *namedTable) getByIDs(ctx context.Context, ids []int64) (map[int64]*namedRow, error) {
	found := make(map[int64]*namedRow, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	rows, err := t.q.QueryContext(ctx,
		"SELECT id, name, created_at FROM "+t.table+" WHERE id IN ("+placeholders(1, len(ids))+")",
		int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s rows: %w", t.entity, err)
	}
	defer rows.Close()

	for rows.Next() {
		n, err := scanNamed(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", t.entity, err)
		}
		found[n.ID] = n
	}
	return found, rows.Err()
}

func (t *namedTable) list(ctx context.Context) ([]*namedRow, error) {
	rows, err := t.q.QueryContext(ctx, "SELECT id, name, created_at FROM "+t.table+" ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s rows: %w", t.entity, err)
	}
	defer rows.Close()

	result := make([]*namedRow, 0)
	for rows.Next() {
		n, err := scanNamed(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", t.entity, err)
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

func (t *namedTable) nameTaken(ctx context.Context, name string, exceptID int64) (bool, error) {
	var exists bool
	err := t.q.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM "+t.table+" WHERE name = $1 AND id <> $2)",
		name, exceptID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check %s name: %w", t.entity, err)
	}
	return exists, nil
}

func (t *namedTable) rename(ctx context.Context, id int64, name string) error {
	result, err := t.q.ExecContext(ctx,
		"UPDATE "+t.table+" SET name = $1 WHERE id = $2", name, id)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewDuplicateError(t.entity, "name", name)
		}
		return fmt.Errorf("failed to update %s %d: %w", t.entity, id, err)
	}
	return expectAffected(result, t.entity, id)
}

func (t *namedTable) isReferenced(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := t.q.QueryRowContext(ctx, t.refQuery, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check %s references: %w", t.entity, err)
	}
	return exists, nil
}

func (t *namedTable) delete(ctx context.Context, id int64) error {
	result, err := t.q.ExecContext(ctx, "DELETE FROM "+t.table+" WHERE id = $1", id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.NewConflictError(t.entity, id)
		}
		return fmt.Errorf("failed to delete %s %d: %w", t.entity, id, err)
	}
	return expectAffected(result, t.entity, id)
}
