package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/taskboard/pkg/apperrors"
	"github.com/platinummonkey/taskboard/pkg/auth"
	"github.com/platinummonkey/taskboard/pkg/models"
	"github.com/platinummonkey/taskboard/pkg/observability"
)

const badCredentials = "invalid email or password"

// Authenticator exchanges credentials for bearer tokens and resolves tokens
// back to identities
type Authenticator struct {
	users   *UserService
	hasher  *auth.PasswordHasher
	tokens  *auth.TokenManager
	metrics *observability.Metrics
	logger  *logrus.Logger

	dummyOnce   sync.Once
	dummyDigest string
}

// NewAuthenticator creates an authenticator. metrics may be nil.
func NewAuthenticator(users *UserService, hasher *auth.PasswordHasher, tokens *auth.TokenManager, metrics *observability.Metrics, logger *logrus.Logger) *Authenticator {
	return &Authenticator{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		metrics: metrics,
		logger:  logger,
	}
}

// Login verifies email and password and issues a token whose subject is the
// email. Unknown email and wrong password fail identically.
func (a *Authenticator) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	ctx, span := observability.Tracer().Start(ctx, "Authenticator.Login")
	defer span.End()

	log := observability.FromContext(ctx, a.logger)

	user, err := a.users.FindByEmail(ctx, email)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			a.metrics.RecordLogin("error")
			return "", nil, err
		}
		// keep the unknown-email path as slow as a real verification
		_, _ = a.hasher.Verify(password, a.dummy())
		a.metrics.RecordLogin("rejected")
		log.Info("Login rejected")
		return "", nil, fmt.Errorf("%w: %s", apperrors.ErrUnauthenticated, badCredentials)
	}

	ok, err := a.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		a.metrics.RecordLogin("error")
		return "", nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		a.metrics.RecordLogin("rejected")
		log.WithField("user_id", user.ID).Info("Login rejected")
		return "", nil, fmt.Errorf("%w: %s", apperrors.ErrUnauthenticated, badCredentials)
	}

	token, err := a.tokens.Issue(user.Email)
	if err != nil {
		a.metrics.RecordLogin("error")
		return "", nil, err
	}

	a.metrics.RecordLogin("success")
	log.WithField("user_id", user.ID).Info("Login succeeded")
	return token, user, nil
}

// Authenticate verifies a bearer token and resolves its subject to a current
// user. A token for a deleted account is rejected.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*auth.Identity, error) {
	claims, err := a.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnauthenticated, err)
	}

	user, err := a.users.FindByEmail(ctx, claims.Subject)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, fmt.Errorf("%w: unknown subject", apperrors.ErrUnauthenticated)
		}
		return nil, err
	}

	return &auth.Identity{UserID: user.ID, Email: user.Email}, nil
}

func (a *Authenticator) dummy() string {
	a.dummyOnce.Do(func() {
		digest, err := a.hasher.Hash("not-a-real-password")
		if err == nil {
			a.dummyDigest = digest
		}
	})
	return a.dummyDigest
}
