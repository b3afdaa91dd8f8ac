// Package credential persists user identities: usernames, password hashes,
// role memberships and the security stamp that versions them.
//
// Lookups by username are case-insensitive through NormalizedUsername, which
// carries a unique index. Password and role changes are compare-and-swap on
// the security stamp: a writer holding a stale User gets ErrStampMismatch and
// must re-read before retrying.
//
//	store := credential.NewGormStore(db, hasher, policy, log)
//	u, err := store.CreateUser(ctx, "alice", "Secret123!", []string{"user"})
//	u, err = store.ChangePassword(ctx, u, "N3w-Secret!")
package credential
