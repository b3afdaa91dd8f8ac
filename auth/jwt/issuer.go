package jwt

import (
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Subject is what a token is issued for.
type Subject interface {
	SubjectID() string
	RoleNames() []string
}

// Token is a signed access token and the values it was built from.
type Token struct {
	Value     string
	ID        string
	KeyID     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Issuer signs access tokens.
type Issuer struct {
	keys     *Keyring
	issuer   string
	audience string
	lifetime time.Duration
}

// NewIssuer creates an issuer. cfg is expected to have passed Validate.
func NewIssuer(keys *Keyring, cfg Config) *Issuer {
	return &Issuer{
		keys:     keys,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		lifetime: cfg.Lifetime,
	}
}

// Lifetime returns how long issued tokens stay valid.
func (i *Issuer) Lifetime() time.Duration {
	return i.lifetime
}

// Issue signs a token for s that validates over [now, now+lifetime).
// Timestamps carry millisecond precision: iat is now rounded down and exp is
// now+lifetime rounded up, so the encoded window always covers the requested
// one.
func (i *Issuer) Issue(s Subject, now time.Time) (*Token, error) {
	key, err := i.keys.SigningKey(now)
	if err != nil {
		return nil, err
	}

	iat := now.Truncate(TimePrecision)
	exp := ceil(now.Add(i.lifetime))
	id := uuid.NewString()

	roles := s.RoleNames()
	if roles == nil {
		roles = []string{}
	}

	claims := Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   s.SubjectID(),
			Issuer:    i.issuer,
			Audience:  gojwt.ClaimStrings{i.audience},
			IssuedAt:  gojwt.NewNumericDate(iat),
			NotBefore: gojwt.NewNumericDate(iat),
			ExpiresAt: gojwt.NewNumericDate(exp),
			ID:        id,
		},
		Roles: roles,
	}

	tok := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims)
	tok.Header["kid"] = key.ID
	signed, err := tok.SignedString(key.Secret)
	if err != nil {
		return nil, fmt.Errorf("jwt: sign token: %w", err)
	}

	return &Token{Value: signed, ID: id, KeyID: key.ID, IssuedAt: iat, ExpiresAt: exp}, nil
}
