package service

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/taskboard/pkg/apperrors"
	"github.com/platinummonkey/taskboard/pkg/auth"
	"github.com/platinummonkey/taskboard/pkg/models"
	"github.com/platinummonkey/taskboard/pkg/observability"
	"github.com/platinummonkey/taskboard/pkg/store"
)

// UserInput is a validated registration
type UserInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// UserPatch is a validated partial update; nil fields are left untouched
type UserPatch struct {
	FirstName *string
	LastName  *string
	Email     *string
	Password  *string
}

// CacheConfig sizes the email -> user cache
type CacheConfig struct {
	Size int
	TTL  time.Duration
}

// UserService manages accounts and serves identity lookups by email
type UserService struct {
	store   *store.Store
	hasher  *auth.PasswordHasher
	cache   *lru.LRU[string, *models.User]
	metrics *observability.Metrics
	logger  *logrus.Logger
}

// NewUserService creates a user service. metrics may be nil.
func NewUserService(st *store.Store, hasher *auth.PasswordHasher, cacheConfig CacheConfig, metrics *observability.Metrics, logger *logrus.Logger) *UserService {
	size := cacheConfig.Size
	if size <= 0 {
		size = 1024
	}
	return &UserService{
		store:   st,
		hasher:  hasher,
		cache:   lru.NewLRU[string, *models.User](size, nil, cacheConfig.TTL),
		metrics: metrics,
		logger:  logger,
	}
}

// List returns every user ordered by id
func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	return s.store.Users().List(ctx)
}

// Get returns a user by id
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	return s.store.Users().GetByID(ctx, id)
}

// Create registers a user; the password is stored only as a digest
func (s *UserService) Create(ctx context.Context, in UserInput) (user *models.User, err error) {
	defer func() { s.metrics.RecordOperation("user", "create", err) }()

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user = &models.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: digest,
	}

	err = s.store.InTx(ctx, func(tx *store.Store) error {
		taken, err := tx.Users().EmailTaken(ctx, in.Email, 0)
		if err != nil {
			return err
		}
		if taken {
			return apperrors.NewDuplicateError("user", "email", in.Email)
		}
		return tx.Users().Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	observability.FromContext(ctx, s.logger).WithField("user_id", user.ID).Info("User registered")
	return user, nil
}

// Update applies a partial update. Changing the email onto another account's
// address is a duplicate; a new password is re-hashed.
func (s *UserService) Update(ctx context.Context, id int64, patch UserPatch) (user *models.User, err error) {
	defer func() { s.metrics.RecordOperation("user", "update", err) }()

	var digest string
	if patch.Password != nil {
		if digest, err = s.hasher.Hash(*patch.Password); err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
	}

	var previousEmail string
	err = s.store.InTx(ctx, func(tx *store.Store) error {
		current, err := tx.Users().GetByID(ctx, id)
		if err != nil {
			return err
		}
		previousEmail = current.Email

		if patch.Email != nil && *patch.Email != current.Email {
			taken, err := tx.Users().EmailTaken(ctx, *patch.Email, id)
			if err != nil {
				return err
			}
			if taken {
				return apperrors.NewDuplicateError("user", "email", *patch.Email)
			}
			current.Email = *patch.Email
		}
		if patch.FirstName != nil {
			current.FirstName = *patch.FirstName
		}
		if patch.LastName != nil {
			current.LastName = *patch.LastName
		}
		if patch.Password != nil {
			current.PasswordHash = digest
		}

		if err := tx.Users().Update(ctx, current); err != nil {
			return err
		}
		user = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Remove(previousEmail)
	s.cache.Remove(user.Email)

	observability.FromContext(ctx, s.logger).WithField("user_id", id).Info("User updated")
	return user, nil
}

// Delete removes a user unless a task still names them as author or executor
func (s *UserService) Delete(ctx context.Context, id int64) (err error) {
	defer func() { s.metrics.RecordOperation("user", "delete", err) }()

	var email string
	err = s.store.InTx(ctx, func(tx *store.Store) error {
		user, err := tx.Users().GetByID(ctx, id)
		if err != nil {
			return err
		}
		email = user.Email

		referenced, err := tx.Users().IsReferenced(ctx, id)
		if err != nil {
			return err
		}
		if referenced {
			return apperrors.NewConflictError("user", id)
		}
		return tx.Users().Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.cache.Remove(email)

	observability.FromContext(ctx, s.logger).WithField("user_id", id).Info("User deleted")
	return nil
}

// FindByEmail returns the user with the given email, served from the cache
// when possible. The returned value is a copy.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if cached, ok := s.cache.Get(email); ok {
		s.metrics.RecordCacheLookup(true)
		u := *cached
		return &u, nil
	}
	s.metrics.RecordCacheLookup(false)

	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	cached := *user
	s.cache.Add(email, &cached)
	return user, nil
}
