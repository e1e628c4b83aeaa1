// Package retry runs an operation a bounded number of times.
//
// The credential login uses it with a zero-delay constant backoff and a
// predicate that only accepts proxy failures and timeouts:
//
//	err := retry.Do(func(attempt int) error {
//	    return attemptLogin(ctx)
//	}, &retry.Config{
//	    MaxAttempts: 10,
//	    Backoff:     retry.ConstantBackoff{},
//	    RetryIf:     isTransient,
//	    Context:     ctx,
//	})
//	if errors.Is(err, retry.ErrMaxAttempts) {
//	    // every attempt was transient
//	}
package retry
