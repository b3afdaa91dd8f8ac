// Package jwt issues and validates HS256 bearer tokens signed with keys from
// an immutable Keyring.
//
//	kr, err := cfg.Keyring()            // fatal at startup on a weak key
//	issuer := jwt.NewIssuer(kr, cfg)
//	tok, err := issuer.Issue(user, now)
//	principal, err := jwt.NewValidator(kr, cfg).Validate(tok.Value, now)
package jwt
