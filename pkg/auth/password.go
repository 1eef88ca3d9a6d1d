package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrInvalidDigest is returned when a stored password digest cannot be parsed
var ErrInvalidDigest = errors.New("invalid password digest")

// Argon2Params configures the argon2id password hash
type Argon2Params struct {
	SaltLength  uint32
	KeyLength   uint32
	Parallelism uint8
	// Memory is expressed in KiB
	Memory     uint32
	Iterations uint32
}

// DefaultArgon2Params returns salt 16 bytes, hash 32 bytes, parallelism 1,
// memory 1<<14 KiB and 2 iterations.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		SaltLength:  16,
		KeyLength:   32,
		Parallelism: 1,
		Memory:      1 << 14,
		Iterations:  2,
	}
}

// PasswordHasher hashes and verifies passwords with argon2id.
//
// Digests use the PHC string format so verification reads its parameters
// from the digest rather than from the hasher:
//
//	$argon2id$v=19$m=16384,t=2,p=1$<base64 salt>$<base64 hash>
type PasswordHasher struct {
	params Argon2Params
}

// NewPasswordHasher creates a hasher with the given parameters
func NewPasswordHasher(params Argon2Params) *PasswordHasher {
	return &PasswordHasher{params: params}
}

// Hash returns a self-describing digest of plaintext using a fresh random salt
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Iterations,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether plaintext matches digest
func (h *PasswordHasher) Verify(plaintext, digest string) (bool, error) {
	params, salt, key, err := decodeDigest(digest)
	if err != nil {
		return false, err
	}

	other := argon2.IDKey([]byte(plaintext), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	return subtle.ConstantTimeCompare(key, other) == 1, nil
}

func decodeDigest(digest string) (Argon2Params, []byte, []byte, error) {
	var params Argon2Params

	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return params, nil, nil, fmt.Errorf("%w: unsupported format", ErrInvalidDigest)
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return params, nil, nil, fmt.Errorf("%w: %v", ErrInvalidDigest, err)
	}
	if version != argon2.Version {
		return params, nil, nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidDigest, version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return params, nil, nil, fmt.Errorf("%w: %v", ErrInvalidDigest, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return params, nil, nil, fmt.Errorf("%w: bad salt encoding", ErrInvalidDigest)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return params, nil, nil, fmt.Errorf("%w: bad hash encoding", ErrInvalidDigest)
	}
	if len(key) == 0 {
		return params, nil, nil, fmt.Errorf("%w: empty hash", ErrInvalidDigest)
	}

	params.SaltLength = uint32(len(salt))
	params.KeyLength = uint32(len(key))
	return params, salt, key, nil
}
