// Package resilience retries operations that lose optimistic-concurrency
// races or hit transient failures.
//
//	user, err := resilience.Retry(ctx, resilience.RetryConfig{
//	    MaxAttempts: 5,
//	    RetryIf:     resilience.RetryOn(credential.ErrStampMismatch),
//	}, func() (*credential.User, error) {
//	    fresh, err := store.FindByID(ctx, id)
//	    if err != nil {
//	        return nil, err
//	    }
//	    return store.ChangePassword(ctx, fresh, next)
//	})
package resilience
