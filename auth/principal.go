package auth

import (
	"slices"
	"time"
)

// Principal is the identity carried by a validated token. It is derived from
// the token alone; no store lookup backs it, so a principal stays valid until
// its token expires even if the user changes in the meantime.
type Principal struct {
	Subject   string    `json:"sub"`
	Roles     []string  `json:"roles"`
	TokenID   string    `json:"jti,omitempty"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// HasRole reports whether the principal carries role.
func (p *Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}

// HasAnyRole reports whether the principal's roles intersect required.
// An empty requirement is always satisfied.
func (p *Principal) HasAnyRole(required ...string) bool {
	if len(required) == 0 {
		return true
	}
	for _, r := range required {
		if p.HasRole(r) {
			return true
		}
	}
	return false
}
