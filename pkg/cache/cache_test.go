package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "absent")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, s.Set(ctx, "k", []byte("v1"), time.Minute))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	require.NoError(t, s.Set(ctx, "k", []byte("v2"), time.Minute))
	got, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCache(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	exerciseStore(t, mc)
}

func TestMemoryCacheExpires(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, mc.Set(ctx, "k", []byte("v"), time.Minute))

	now = now.Add(59 * time.Second)
	_, err := mc.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	_, err = mc.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Zero(t, mc.Len())
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { now = now.Add(time.Second); return now }

	ctx := context.Background()
	require.NoError(t, mc.Set(ctx, "a", []byte("1"), time.Hour))
	require.NoError(t, mc.Set(ctx, "b", []byte("2"), time.Hour))
	_, err := mc.Get(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, mc.Set(ctx, "c", []byte("3"), time.Hour))

	_, err = mc.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = mc.Get(ctx, "a")
	assert.NoError(t, err)
}

func TestMemoryCacheReturnsCopies(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	v := []byte("abc")
	require.NoError(t, mc.Set(ctx, "k", v, time.Hour))
	v[0] = 'z'
	got, _ := mc.Get(ctx, "k")
	assert.Equal(t, "abc", string(got))
}

func TestBadgerCacheInMemory(t *testing.T) {
	bc, err := NewBadgerCache(nil, WithBadgerInMemory())
	require.NoError(t, err)
	defer bc.Close()
	exerciseStore(t, bc)
}

func TestBadgerCachePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	bc, err := NewBadgerCache(nil, WithBadgerDir(dir), WithBadgerGC(0, 0))
	require.NoError(t, err)
	require.NoError(t, bc.Set(ctx, "url", []byte("payload"), time.Hour))
	require.NoError(t, bc.Close())

	reopened, err := NewBadgerCache(nil, WithBadgerDir(dir), WithBadgerGC(0, 0))
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "url")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
}

func TestBadgerCacheRequiresDir(t *testing.T) {
	_, err := NewBadgerCache(nil)
	require.Error(t, err)
}

func TestLayeredCache(t *testing.T) {
	backing := NewMemoryCache()
	lc := NewLayeredCache(backing, WithLayeredMemoryTTL(time.Minute))
	defer lc.Close()
	exerciseStore(t, lc)

	ctx := context.Background()
	require.NoError(t, backing.Set(ctx, "only-l2", []byte("x"), time.Hour))
	got, err := lc.Get(ctx, "only-l2")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), got)

	// promoted to L1: still served after L2 loses it
	require.NoError(t, backing.Delete(ctx, "only-l2"))
	got, err = lc.Get(ctx, "only-l2")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), got)
}

func TestNewSelectsBackend(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, nil, Options{Backend: BackendMemory})
	require.NoError(t, err)
	_, ok := s.(*MemoryCache)
	assert.True(t, ok)
	require.NoError(t, s.Close())

	s, err = New(ctx, nil, Options{Backend: BackendBadger, Dir: t.TempDir(), Layered: true})
	require.NoError(t, err)
	_, ok = s.(*LayeredCache)
	assert.True(t, ok)
	require.NoError(t, s.Close())

	_, err = New(ctx, nil, Options{Backend: "etcd"})
	require.Error(t, err)
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rc, err := NewRedisCache(context.Background(), WithRedisAddr(addr), WithRedisPrefix("finsimples:test"))
	require.NoError(t, err)
	defer rc.Close()
	exerciseStore(t, rc)
}

func TestKeyIsStablePerURL(t *testing.T) {
	a := Key("https://example.com/a?x=1")
	assert.Equal(t, a, Key("https://example.com/a?x=1"))
	assert.NotEqual(t, a, Key("https://example.com/a?x=2"))
}
