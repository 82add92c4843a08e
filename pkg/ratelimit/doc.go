// Package ratelimit provides rate limiting for the pipeline's outbound traffic.
//
// This package implements the two pacing shapes the pipeline needs so it does
// not hammer the feed host, the scraped venue pages, or the Foursquare API.
//
// Available Implementations:
//
// Token Bucket:
//   - Fixed capacity bucket that refills after a specified period
//   - Suitable for burst traffic followed by quiet periods
//   - Used for Foursquare API calls
//
// Interval Limiter:
//   - Enforces a minimum gap between consecutive requests, with jitter
//   - Models polite page scraping (roughly one request every few seconds,
//     never exactly on the beat)
//   - Used for Untappd page fetches
//
// Interface:
//
// All rate limiters implement the Limiter interface:
//   - Allow() bool - Check if a request is allowed
//   - Wait() - Block until a request is allowed
//   - Reset() - Reset the limiter state
//
// Usage:
//
//	// Token bucket: 50 requests per hour
//	limiter := ratelimit.NewTokenBucket(50, time.Hour)
//
//	if limiter.Allow() {
//	    // Proceed with request
//	} else {
//	    // Wait for rate limit to reset
//	    limiter.Wait()
//	}
//
//	// Interval limiter: one request every 4s, varied by up to 1s
//	limiter := ratelimit.NewIntervalLimiter(4*time.Second, time.Second)
//
//	// Block until allowed
//	limiter.Wait()
//	// Proceed with request
package ratelimit
