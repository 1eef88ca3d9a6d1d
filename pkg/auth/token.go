package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// BearerPrefix is the Authorization header scheme prefix
	BearerPrefix = "Bearer "
	// MinSecretLength is the minimum HS512 secret length in bytes
	MinSecretLength = 32
)

var (
	// ErrTokenExpired is returned when the token is past its expiry
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenMalformed is returned when the token cannot be decoded
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenSignature is returned when the signature does not match
	ErrTokenSignature = errors.New("token signature invalid")
	// ErrTokenInvalid covers every other verification failure
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims are the JWT claims issued at login. Subject is the user's email.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenManager issues and verifies signed, time-limited bearer tokens
type TokenManager struct {
	secret     []byte
	expiration time.Duration
	now        func() time.Time
}

// NewTokenManager creates a token manager signing with secret
func NewTokenManager(secret string, expiration time.Duration) (*TokenManager, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLength)
	}
	if expiration <= 0 {
		return nil, fmt.Errorf("jwt expiration must be positive")
	}
	return &TokenManager{
		secret:     []byte(secret),
		expiration: expiration,
		now:        time.Now,
	}, nil
}

// Expiration returns the token lifetime
func (tm *TokenManager) Expiration() time.Duration {
	return tm.expiration
}

// Issue creates a token for subject valid for the configured expiration
func (tm *TokenManager) Issue(subject string) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("%w: empty subject", ErrTokenInvalid)
	}

	now := tm.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.expiration)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the claims.
// An optional "Bearer " prefix is stripped.
func (tm *TokenManager) Verify(token string) (*Claims, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, BearerPrefix))
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrTokenMalformed)
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return nil, classifyTokenError(err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	return claims, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrTokenSignature, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
}

// ExtractBearer returns the token from an Authorization header value and
// whether the header used the Bearer scheme
func ExtractBearer(header string) (string, bool) {
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix)), true
}
