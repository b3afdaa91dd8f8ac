package jwt

import (
	"encoding/base64"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/kbukum/authgate/auth"
)

// Reason classifies why a token was rejected.
type Reason string

const (
	ReasonMalformed    Reason = "malformed"
	ReasonBadSignature Reason = "bad_signature"
	ReasonBadIssuer    Reason = "bad_issuer"
	ReasonBadAudience  Reason = "bad_audience"
	ReasonExpired      Reason = "expired"
	ReasonNotYetValid  Reason = "not_yet_valid"
)

// ValidationError reports the first check a token failed.
type ValidationError struct {
	Reason Reason
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("jwt: invalid token (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("jwt: invalid token (%s)", e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ReasonOf extracts the rejection reason from err, or "" if err is not a
// ValidationError.
func ReasonOf(err error) Reason {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	return ""
}

func invalid(reason Reason, err error) *ValidationError {
	return &ValidationError{Reason: reason, Err: err}
}

var signatureEncoding = base64.RawURLEncoding.Strict()

// Validator checks tokens against the keyring and the expected issuer and
// audience. It holds no mutable state and is safe for concurrent use.
type Validator struct {
	keys     *Keyring
	issuer   string
	audience string
	parser   *gojwt.Parser
}

var _ auth.TokenValidator = (*Validator)(nil)

// NewValidator creates a validator. cfg is expected to have passed Validate.
func NewValidator(keys *Keyring, cfg Config) *Validator {
	return &Validator{
		keys:     keys,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		parser:   gojwt.NewParser(gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()})),
	}
}

// Validate runs structure, signature, issuer, audience and time checks in that
// order and returns the first failure as a *ValidationError.
func (v *Validator) Validate(token string, now time.Time) (*auth.Principal, error) {
	claims := &Claims{}
	parsed, parts, err := v.parser.ParseUnverified(token, claims)
	if err != nil {
		return nil, invalid(ReasonMalformed, err)
	}
	if parsed.Method.Alg() != gojwt.SigningMethodHS256.Alg() {
		return nil, invalid(ReasonMalformed, fmt.Errorf("unexpected signing method %v", parsed.Header["alg"]))
	}
	if claims.Subject == "" || claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return nil, invalid(ReasonMalformed, errors.New("sub, iat and exp are required"))
	}

	if err := v.verifySignature(parsed, parts, now); err != nil {
		return nil, err
	}

	if claims.Issuer != v.issuer {
		return nil, invalid(ReasonBadIssuer, fmt.Errorf("issuer %q", claims.Issuer))
	}
	if !slices.Contains(claims.Audience, v.audience) {
		return nil, invalid(ReasonBadAudience, fmt.Errorf("audience %v", []string(claims.Audience)))
	}

	iat := claimTime(claims.IssuedAt)
	if now.Before(iat) || (claims.NotBefore != nil && now.Before(claimTime(claims.NotBefore))) {
		return nil, invalid(ReasonNotYetValid, nil)
	}
	exp := claimTime(claims.ExpiresAt)
	if !now.Before(exp) {
		return nil, invalid(ReasonExpired, nil)
	}

	roles := claims.Roles
	if roles == nil {
		roles = []string{}
	}
	return &auth.Principal{
		Subject:   claims.Subject,
		Roles:     roles,
		TokenID:   claims.ID,
		IssuedAt:  iat,
		ExpiresAt: exp,
	}, nil
}

func (v *Validator) verifySignature(parsed *gojwt.Token, parts []string, now time.Time) error {
	sig, err := signatureEncoding.DecodeString(parts[2])
	if err != nil {
		return invalid(ReasonBadSignature, err)
	}

	kid, _ := parsed.Header["kid"].(string)
	candidates := v.keys.VerificationKeys(kid, now)
	if len(candidates) == 0 {
		return invalid(ReasonBadSignature, fmt.Errorf("no active key for kid %q", kid))
	}

	signingString := strings.Join(parts[:2], ".")
	for _, k := range candidates {
		if gojwt.SigningMethodHS256.Verify(signingString, sig, k.Secret) == nil {
			return nil
		}
	}
	return invalid(ReasonBadSignature, gojwt.ErrSignatureInvalid)
}
