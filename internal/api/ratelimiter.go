package api

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

type rateLimiter interface {
	Allow() bool
}

// retryHinter is implemented by limiters that can estimate when the next
// request would be admitted.
type retryHinter interface {
	RetryAfter() time.Duration
}

type tokenBucket struct {
	limiter *rate.Limiter
}

func newTokenBucketLimiter(ratePerSecond float64, burst int) rateLimiter {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}

	return &tokenBucket{
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

func (b *tokenBucket) Allow() bool {
	if b == nil || b.limiter == nil {
		return true
	}
	return b.limiter.Allow()
}

// RetryAfter is the time until one token is available again.
func (b *tokenBucket) RetryAfter() time.Duration {
	if b == nil || b.limiter == nil {
		return 0
	}
	missing := 1 - b.limiter.Tokens()
	if missing <= 0 {
		return 0
	}
	return time.Duration(missing / float64(b.limiter.Limit()) * float64(time.Second))
}

func rateLimitMiddleware(limiter rateLimiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limiter.Allow() {
			next.ServeHTTP(w, r)
			return
		}
		if hinter, ok := limiter.(retryHinter); ok {
			seconds := int(math.Ceil(hinter.RetryAfter().Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(max(seconds, 1)))
		}
		writeError(w, http.StatusTooManyRequests, "Too many requests", "rate limit exceeded, please retry shortly")
	})
}
