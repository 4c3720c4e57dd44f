package cache

import (
	"context"
	"fmt"
	"time"

	applogger "FinSimples/pkg/logger"
)

// Options selects and configures a backend for New.
type Options struct {
	Backend string
	Dir     string
	Redis   []RedisOption
	// Front the backend with a small memory cache. Ignored for the memory backend.
	Layered bool
}

// New builds the Store named by opts.Backend.
func New(ctx context.Context, l *applogger.Logger, opts Options) (Store, error) {
	var (
		store Store
		err   error
	)
	switch opts.Backend {
	case BackendBadger, "":
		store, err = NewBadgerCache(l, WithBadgerDir(opts.Dir))
	case BackendRedis:
		store, err = NewRedisCache(ctx, opts.Redis...)
	case BackendMemory:
		return NewMemoryCache(WithMemoryCleanup(time.Minute)), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	if opts.Layered {
		return NewLayeredCache(store), nil
	}
	return store, nil
}
