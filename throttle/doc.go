// Package throttle limits repeated login attempts per account.
//
// A Limiter counts attempts for a key, normally the normalized username.
// Once MaxAttempts attempts land inside Window the key is locked out until
// the window passes. A successful login calls Reset.
//
//	lim := throttle.NewMemoryLimiter(cfg)
//	ok, err := lim.Allow(ctx, "ALICE")
package throttle
