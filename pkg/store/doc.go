// Package store persists users, statuses, labels and tasks with database/sql.
//
// Two dialects are supported: PostgreSQL (lib/pq) for deployments and SQLite
// (mattn/go-sqlite3) for local runs and tests. Queries use $n placeholders,
// numbered in order of appearance, which both drivers accept.
//
// Relations are plain foreign-key columns. Label assignments live in the
// task_labels join table and are loaded for a whole listing with a single
// IN query.
//
// Constraint failures are translated at this boundary:
//
//	unique violation on insert/update  -> apperrors.ErrDuplicate
//	foreign key violation on delete    -> apperrors.ErrConflict
//	foreign key violation on insert    -> apperrors.ErrNotFound
//	no row for an id                   -> apperrors.ErrNotFound
//
// Multi-step writes run inside Store.InTx:
//
//	err := s.InTx(ctx, func(tx *store.Store) error {
//		if _, err := tx.Statuses().GetByID(ctx, task.StatusID); err != nil {
//			return err
//		}
//		return tx.Tasks().Create(ctx, task)
//	})
package store
