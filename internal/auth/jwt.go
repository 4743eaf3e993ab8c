// Package auth issues and validates the signed session tokens that
// authenticate API requests. Tokens are stateless HS256 JWTs.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/starford/vocanote/internal/apperr"
)

// DefaultTTL is the lifetime of an issued token.
const DefaultTTL = 24 * time.Hour

// Identity is the authenticated principal carried by a token.
type Identity struct {
	UserID   int64  `json:"id"`
	Username string `json:"username"`
}

// Claims are the JWT claims written into every token.
type Claims struct {
	jwt.RegisteredClaims
	UserID   int64  `json:"id"`
	Username string `json:"username"`
}

// Validator checks a raw token and returns the identity it encodes.
type Validator interface {
	Validate(token string) (*Identity, error)
}

// Issuer signs and validates tokens with a shared secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// IssuerOption configures an Issuer.
type IssuerOption func(*Issuer)

// WithClock overrides the time source used for issuing and expiry checks.
func WithClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.now = now
	}
}

// NewIssuer creates an Issuer. A non-positive ttl selects DefaultTTL.
func NewIssuer(secret []byte, ttl time.Duration, opts ...IssuerOption) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	i := &Issuer{secret: secret, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Issue returns a signed token for the user that expires ttl from now.
func (i *Issuer) Issue(userID int64, username string) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		UserID:   userID,
		Username: username,
	})
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Validate parses token and checks its signature and expiry. Any failure is
// reported as apperr.ErrUnauthorized with the reason attached.
func (i *Issuer) Validate(token string) (*Identity, error) {
	if token == "" {
		return nil, apperr.New(apperr.ErrUnauthorized, "no token provided")
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) {
			return i.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, apperr.New(apperr.ErrUnauthorized, err.Error())
	}
	if !parsed.Valid || claims.UserID == 0 {
		return nil, apperr.New(apperr.ErrUnauthorized, "invalid token")
	}
	return &Identity{UserID: claims.UserID, Username: claims.Username}, nil
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity stored by WithIdentity, if any.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}
