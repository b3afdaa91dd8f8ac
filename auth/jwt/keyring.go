package jwt

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrNoSigningKey means no key in the keyring is valid at the requested time.
var ErrNoSigningKey = errors.New("jwt: no signing key valid at this time")

// Key is an HMAC secret with an optional validity window [NotBefore, NotAfter).
type Key struct {
	ID        string
	Secret    []byte
	NotBefore time.Time
	NotAfter  time.Time
}

// ActiveAt reports whether t falls inside the key's window.
func (k Key) ActiveAt(t time.Time) bool {
	if !k.NotBefore.IsZero() && t.Before(k.NotBefore) {
		return false
	}
	if !k.NotAfter.IsZero() && !t.Before(k.NotAfter) {
		return false
	}
	return true
}

// Keyring is an ordered, read-only set of keys, newest first. Rotation is a
// new Keyring with the incoming key added while the outgoing key's window
// still covers tokens in flight; a Keyring is never mutated.
type Keyring struct {
	keys []Key
}

// NewKeyring validates keys and orders them newest first by NotBefore. Ties
// keep declaration order.
func NewKeyring(keys ...Key) (*Keyring, error) {
	if len(keys) == 0 {
		return nil, errors.New("at least one signing key is required")
	}

	seen := make(map[string]bool, len(keys))
	ordered := make([]Key, 0, len(keys))
	for _, k := range keys {
		if k.ID == "" {
			return nil, errors.New("signing key id is required")
		}
		if seen[k.ID] {
			return nil, fmt.Errorf("duplicate signing key id %q", k.ID)
		}
		seen[k.ID] = true
		if len(k.Secret) < MinKeyLength {
			return nil, fmt.Errorf("signing key %q is %d bytes, minimum is %d", k.ID, len(k.Secret), MinKeyLength)
		}
		if !k.NotAfter.IsZero() && !k.NotAfter.After(k.NotBefore) {
			return nil, fmt.Errorf("signing key %q: not_after must be after not_before", k.ID)
		}

		secret := make([]byte, len(k.Secret))
		copy(secret, k.Secret)
		k.Secret = secret
		ordered = append(ordered, k)
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].NotBefore.After(ordered[j].NotBefore)
	})
	return &Keyring{keys: ordered}, nil
}

// SigningKey returns the newest key active at now.
func (r *Keyring) SigningKey(now time.Time) (Key, error) {
	for _, k := range r.keys {
		if k.ActiveAt(now) {
			return k, nil
		}
	}
	return Key{}, ErrNoSigningKey
}

// VerificationKeys returns the keys to try for a token, newest first. With a
// kid only that key is eligible.
func (r *Keyring) VerificationKeys(kid string, now time.Time) []Key {
	var out []Key
	for _, k := range r.keys {
		if kid != "" && k.ID != kid {
			continue
		}
		if k.ActiveAt(now) {
			out = append(out, k)
		}
	}
	return out
}

// IDs lists key ids in keyring order.
func (r *Keyring) IDs() []string {
	ids := make([]string, len(r.keys))
	for i, k := range r.keys {
		ids[i] = k.ID
	}
	return ids
}
