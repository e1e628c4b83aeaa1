// Package ratelimit throttles outbound API calls.
//
// Throttling is off unless rate_limit.requests_per_minute is positive, in
// which case every request made by the graph API client first waits on a
// sliding one-minute window:
//
//	limiter := ratelimit.PerMinute(cfg.RateLimit.RequestsPerMinute)
//	if limiter != nil {
//	    if err := limiter.Wait(ctx); err != nil {
//	        return err
//	    }
//	}
package ratelimit
