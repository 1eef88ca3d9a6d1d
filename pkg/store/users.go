package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/platinummonkey/taskboard/pkg/apperrors"
	"github.com/platinummonkey/taskboard/pkg/models"
)

// UserStore persists users
type UserStore struct {
	q Querier
}

const userColumns = "id, first_name, last_name, email, password_hash, created_at"

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

// Create inserts a user and fills in its id and creation time
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	user.CreatedAt = now()
	err := s.q.QueryRowContext(ctx, `
		INSERT INTO users (first_name, last_name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		user.FirstName, user.LastName, user.Email, user.PasswordHash, user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewDuplicateError("user", "email", user.Email)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID returns the user or a not found error
func (s *UserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := scanUser(s.q.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return user, nil
}

// GetByEmail returns the user with the given email or a not found error
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := scanUser(s.q.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = $1", email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user with email '%s'", apperrors.ErrNotFound, email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// GetByIDs returns the users with the given ids keyed by id; absent ids are omitted
func (s *UserStore) GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.User, error) {
	users := make(map[int64]*models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	rows, err := s.q.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id IN ("+placeholders(1, len(ids))+")",
		int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users[user.ID] = user
	}
	return users, rows.Err()
}

// List returns all users ordered by id
func (s *UserStore) List(ctx context.Context) ([]*models.User, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// EmailTaken reports whether another user (not exceptID) already uses email
func (s *UserStore) EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error) {
	var exists bool
	err := s.q.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id <> $2)",
		email, exceptID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user email: %w", err)
	}
	return exists, nil
}

// Update saves every mutable column of the user
func (s *UserStore) Update(ctx context.Context, user *models.User) error {
	result, err := s.q.ExecContext(ctx, `
		UPDATE users
		SET first_name = $1, last_name = $2, email = $3, password_hash = $4
		WHERE id = $5`,
		user.FirstName, user.LastName, user.Email, user.PasswordHash, user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewDuplicateError("user", "email", user.Email)
		}
		return fmt.Errorf("failed to update user %d: %w", user.ID, err)
	}
	return expectAffected(result, "user", user.ID)
}

// IsReferenced reports whether any task names the user as author or executor
func (s *UserStore) IsReferenced(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.q.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM tasks WHERE author_id = $1 OR executor_id = $1)",
		id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user references: %w", err)
	}
	return exists, nil
}

// Delete removes the user; a remaining task reference yields a conflict error
func (s *UserStore) Delete(ctx context.Context, id int64) error {
	result, err := s.q.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.NewConflictError("user", id)
		}
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	return expectAffected(result, "user", id)
}

// expectAffected turns a zero-row update or delete into a not found error
func expectAffected(result sql.Result, entity string, id int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return apperrors.NewNotFoundError(entity, id)
	}
	return nil
}
