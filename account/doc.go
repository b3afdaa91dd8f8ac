// Package account implements registration, login, password changes and role
// administration on top of the credential store and the token issuer.
//
// Routes, mounted under /api/v1:
//
//	POST /auth/register             public, rate limited
//	POST /auth/login                public, rate limited
//	GET  /auth/me                   authenticated
//	POST /auth/password             authenticated
//	POST /users                     admin
//	PUT  /users/:username/roles     admin
//
// Login attempts are throttled per normalized username. An unknown username
// and a wrong password produce the same response and cost the same time.
package account
