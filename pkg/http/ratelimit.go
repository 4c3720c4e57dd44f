package http

import (
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimitedTransport makes every request wait for a token before reaching
// next. Place it beneath a caching transport so cache hits are free.
type RateLimitedTransport struct {
	limiter *rate.Limiter
	next    http.RoundTripper
}

// NewRateLimitedTransport shares limiter across all requests through next.
// A nil next uses http.DefaultTransport.
func NewRateLimitedTransport(limiter *rate.Limiter, next http.RoundTripper) *RateLimitedTransport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &RateLimitedTransport{limiter: limiter, next: next}
}

func (t *RateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}
	return t.next.RoundTrip(req)
}
