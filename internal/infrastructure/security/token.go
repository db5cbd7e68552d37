package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/storefront/commerce-api/internal/core/domain"
	"github.com/storefront/commerce-api/internal/core/ports"
)

const (
	defaultAccessTTL  = time.Hour
	defaultRefreshTTL = 72 * time.Hour
)

var ErrMissingSecret = errors.New("security: missing JWT secret")

// claims is the JWT payload for both token kinds. Subject carries the user ID.
type claims struct {
	Kind ports.TokenKind `json:"typ"`
	jwt.RegisteredClaims
}

// JWTIssuer signs HS256 tokens with a single shared secret.
type JWTIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewJWTIssuer returns an issuer. Non-positive TTLs fall back to one hour for
// access tokens and 72 hours for refresh tokens.
func NewJWTIssuer(secret string, accessTTL, refreshTTL time.Duration) (*JWTIssuer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	return &JWTIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

func (i *JWTIssuer) IssueAccessToken(userID string) (string, error) {
	return i.issue(userID, ports.AccessToken, i.accessTTL)
}

func (i *JWTIssuer) IssueRefreshToken(userID string) (string, error) {
	return i.issue(userID, ports.RefreshToken, i.refreshTTL)
}

func (i *JWTIssuer) RefreshTTL() time.Duration {
	return i.refreshTTL
}

func (i *JWTIssuer) issue(userID string, kind ports.TokenKind, ttl time.Duration) (string, error) {
	now := i.now().UTC()
	c := claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
}

func (i *JWTIssuer) Verify(token string, kind ports.TokenKind) (*ports.TokenClaims, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return i.secret, nil
	}, jwt.WithExpirationRequired(), jwt.WithTimeFunc(i.now))
	if err != nil || !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}
	if c.Kind != kind || c.Subject == "" {
		return nil, domain.ErrInvalidToken
	}

	return &ports.TokenClaims{
		UserID:    c.Subject,
		Kind:      c.Kind,
		ID:        c.ID,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}
