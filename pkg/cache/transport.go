package cache

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"time"

	applogger "FinSimples/pkg/logger"

	"golang.org/x/sync/singleflight"
)

// HeaderCache is set on every response passing through Transport.
const HeaderCache = "X-Cache"

// Transport is an http.RoundTripper that serves GET requests from a Store,
// keyed by the full request URL. Only 2xx responses are stored. Concurrent
// misses for the same URL share a single upstream request, which outlives a
// caller that gives up on it.
type Transport struct {
	store        Store
	next         http.RoundTripper
	ttl          time.Duration
	fetchTimeout time.Duration
	group        singleflight.Group
	logger       *applogger.Logger
	onLook       func(hit bool)
}

// TransportOption configures Transport.
type TransportOption func(*Transport)

// WithNext sets the upstream round tripper. Defaults to http.DefaultTransport.
func WithNext(rt http.RoundTripper) TransportOption {
	return func(t *Transport) {
		t.next = rt
	}
}

// WithTransportLogger sets the logger used for cache backend failures.
func WithTransportLogger(l *applogger.Logger) TransportOption {
	return func(t *Transport) {
		t.logger = l
	}
}

// WithLookupHook registers a callback invoked on every cache lookup.
func WithLookupHook(fn func(hit bool)) TransportOption {
	return func(t *Transport) {
		t.onLook = fn
	}
}

// WithFetchTimeout bounds a shared upstream request whose first caller set no
// deadline. Defaults to 30s.
func WithFetchTimeout(d time.Duration) TransportOption {
	return func(t *Transport) {
		t.fetchTimeout = d
	}
}

// NewTransport wraps store as a caching round tripper.
func NewTransport(store Store, ttl time.Duration, opts ...TransportOption) *Transport {
	t := &Transport{
		store:        store,
		next:         http.DefaultTransport,
		ttl:          ttl,
		fetchTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Key returns the cache key used for a URL.
func Key(url string) string {
	return GenerateKey("http", HashKey(url))
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.store == nil || req.Method != http.MethodGet {
		return t.next.RoundTrip(req)
	}

	ctx := req.Context()
	key := Key(req.URL.String())

	raw, err := t.store.Get(ctx, key)
	switch {
	case err == nil:
		if resp, perr := readResponse(raw, req, "HIT"); perr == nil {
			t.lookup(true)
			return resp, nil
		}
		t.logger.Warn("discarding unreadable cache entry", applogger.String("url", req.URL.Redacted()))
		_ = t.store.Delete(ctx, key)
	case !errors.Is(err, ErrCacheMiss):
		t.logger.Warn("cache lookup failed", applogger.Error(err))
	}
	t.lookup(false)

	ch := t.group.DoChan(key, func() (interface{}, error) {
		return t.fetch(ctx, key, req)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return readResponse(r.Val.([]byte), req, "MISS")
	}
}

// fetch runs detached from the caller's cancellation; the caller's deadline,
// or fetchTimeout when there is none, still applies.
func (t *Transport) fetch(ctx context.Context, key string, req *http.Request) ([]byte, error) {
	shared := context.WithoutCancel(ctx)
	var cancel context.CancelFunc
	if dl, ok := ctx.Deadline(); ok {
		shared, cancel = context.WithDeadline(shared, dl)
	} else {
		shared, cancel = context.WithTimeout(shared, t.fetchTimeout)
	}
	defer cancel()

	resp, err := t.next.RoundTrip(req.WithContext(shared))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := t.store.Set(shared, key, raw, t.ttl); err != nil {
			t.logger.Warn("cache store failed", applogger.Error(err))
		}
	}
	return raw, nil
}

func (t *Transport) lookup(hit bool) {
	if t.onLook != nil {
		t.onLook(hit)
	}
}

func readResponse(raw []byte, req *http.Request, state string) (*http.Response, error) {
	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(raw)), req)
	if err != nil {
		return nil, err
	}
	resp.Header.Set(HeaderCache, state)
	return resp, nil
}
