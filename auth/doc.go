// Package auth holds the contracts shared by token issuance, validation and
// enforcement: the authenticated Principal, the TokenValidator interface and
// the Clock. It imports none of its subpackages.
//
// Subpackages:
//
//   - auth/jwt       signing keyring, token issuer and token validator
//   - auth/password  password hashing and password policy
//   - auth/authctx   principal propagation through request contexts
package auth
