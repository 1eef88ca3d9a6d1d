// Package auth provides password hashing and bearer token management for the
// taskboard API.
//
// # Overview
//
// Two primitives back the login flow and every authenticated request:
//
//   - PasswordHasher: argon2id digests with a random salt per call
//   - TokenManager: HS512 JWTs binding a user's email as the subject
//
// # Password Hashing
//
//	hasher := auth.NewPasswordHasher(auth.DefaultArgon2Params())
//	digest, err := hasher.Hash("secret123")
//	// digest: $argon2id$v=19$m=16384,t=2,p=1$<salt>$<hash>
//	ok, err := hasher.Verify("secret123", digest)
//
// The digest carries its own parameters, so changing DefaultArgon2Params does
// not invalidate stored passwords.
//
// # Tokens
//
//	tm, err := auth.NewTokenManager(secret, 24*time.Hour)
//	token, err := tm.Issue("alice@example.com")
//	claims, err := tm.Verify("Bearer " + token)
//	// claims.Subject == "alice@example.com"
//
// Verification failures are classified for diagnostics:
//
//	ErrTokenExpired   - past exp
//	ErrTokenMalformed - not a JWT
//	ErrTokenSignature - signed with a different secret
//	ErrTokenInvalid   - anything else (wrong alg, missing subject)
//
// Clients see the same 401 for all of them.
//
// # Related Packages
//
//   - pkg/middleware: binds an Identity to the request context
//   - pkg/service: Authenticator checks credentials against the user store
package auth
