package ports

import "time"

// TokenKind distinguishes access tokens from refresh tokens.
type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

// TokenClaims is the verified payload of a signed token.
type TokenClaims struct {
	UserID    string
	Kind      TokenKind
	ID        string
	ExpiresAt time.Time
}

// PasswordHasher is a one-way salted hash.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	// Verify never errors: a malformed digest simply does not match.
	Verify(plaintext, digest string) bool
}

// TokenIssuer mints and verifies signed tokens. It performs no I/O.
type TokenIssuer interface {
	IssueAccessToken(userID string) (string, error)
	IssueRefreshToken(userID string) (string, error)
	// Verify checks signature, expiry and kind. Any failure is
	// domain.ErrInvalidToken.
	Verify(token string, kind TokenKind) (*TokenClaims, error)
	RefreshTTL() time.Duration
}
