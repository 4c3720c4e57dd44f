package cache

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransportServesRepeatedGetFromCache(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	store := NewMemoryCache()
	defer store.Close()

	var hits, misses int32
	client := &http.Client{Transport: NewTransport(store, time.Hour, WithLookupHook(func(hit bool) {
		if hit {
			atomic.AddInt32(&hits, 1)
		} else {
			atomic.AddInt32(&misses, 1)
		}
	}))}

	for i := 0; i < 3; i++ {
		resp, err := client.Get(srv.URL + "/quote?range=1y")
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		assert.Equal(t, `{"ok":true}`, string(body))
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		if i == 0 {
			assert.Equal(t, "MISS", resp.Header.Get(HeaderCache))
		} else {
			assert.Equal(t, "HIT", resp.Header.Get(HeaderCache))
		}
	}

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	assert.EqualValues(t, 2, hits)
	assert.EqualValues(t, 1, misses)
}

func TestTransportDoesNotCacheErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	store := NewMemoryCache()
	defer store.Close()
	client := &http.Client{Transport: NewTransport(store, time.Hour)}

	for i := 0; i < 2; i++ {
		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	}
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
	assert.Zero(t, store.Len())
}

func TestTransportKeysByFullURL(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = io.WriteString(w, r.URL.Query().Get("t"))
	}))
	defer srv.Close()

	store := NewMemoryCache()
	defer store.Close()
	client := &http.Client{Transport: NewTransport(store, time.Hour)}

	for _, q := range []string{"A", "B", "A"} {
		resp, err := client.Get(srv.URL + "?t=" + q)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		assert.Equal(t, q, string(body))
	}
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestTransportBypassesNonGet(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	store := NewMemoryCache()
	defer store.Close()
	client := &http.Client{Transport: NewTransport(store, time.Hour)}

	for i := 0; i < 2; i++ {
		resp, err := client.Post(srv.URL, "text/plain", nil)
		require.NoError(t, err)
		resp.Body.Close()
	}
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestTransportCollapsesConcurrentMisses(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		<-release
		_, _ = io.WriteString(w, "done")
	}))
	defer srv.Close()

	store := NewMemoryCache()
	defer store.Close()
	client := &http.Client{Transport: NewTransport(store, time.Hour)}

	var wg sync.WaitGroup
	bodies := make([]string, 5)
	for i := range bodies {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := client.Get(srv.URL)
			if err != nil {
				return
			}
			b, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			bodies[i] = string(b)
		}(i)
	}
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, b := range bodies {
		assert.Equal(t, "done", b)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(5))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(1))
}

func TestTransportSharedFetchSurvivesCallerCancel(t *testing.T) {
	var calls int32
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		_, _ = io.WriteString(w, "done")
	}))
	defer srv.Close()

	store := NewMemoryCache()
	defer store.Close()
	tr := NewTransport(store, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
		_, err := tr.RoundTrip(req)
		firstErr <- err
	}()
	<-started

	second := make(chan string, 1)
	go func() {
		req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
		resp, err := tr.RoundTrip(req)
		if err != nil {
			second <- "error: " + err.Error()
			return
		}
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		second <- string(b)
	}()
	// let the second caller join the in-flight request
	time.Sleep(100 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	assert.Equal(t, "done", <-second)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	_, err := store.Get(context.Background(), Key(srv.URL))
	assert.NoError(t, err)
}
