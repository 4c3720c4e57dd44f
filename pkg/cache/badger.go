package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	applogger "FinSimples/pkg/logger"

	"github.com/dgraph-io/badger/v4"
)

// BadgerCache implements Store on an embedded BadgerDB, persisting entries
// across process restarts. Expiry uses Badger's native per-entry TTL.
type BadgerCache struct {
	db        *badger.DB
	logger    *applogger.Logger
	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// badgerLogger adapts the application logger to Badger's Logger interface.
type badgerLogger struct {
	l *applogger.Logger
}

func (b badgerLogger) Errorf(format string, args ...interface{}) {
	b.l.Error(fmt.Sprintf(format, args...), applogger.String("component", "badger"))
}

func (b badgerLogger) Warningf(format string, args ...interface{}) {
	b.l.Warn(fmt.Sprintf(format, args...), applogger.String("component", "badger"))
}

func (b badgerLogger) Infof(format string, args ...interface{}) {
	b.l.Debug(fmt.Sprintf(format, args...), applogger.String("component", "badger"))
}

func (b badgerLogger) Debugf(format string, args ...interface{}) {
	b.l.Debug(fmt.Sprintf(format, args...), applogger.String("component", "badger"))
}

// NewBadgerCache opens (creating if needed) a Badger store.
func NewBadgerCache(l *applogger.Logger, opts ...BadgerOption) (*BadgerCache, error) {
	cfg := &BadgerConfig{
		SyncWrites:     false,
		GCInterval:     10 * time.Minute,
		GCDiscardRatio: 0.5,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var bopts badger.Options
	if cfg.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Dir == "" {
			return nil, errors.New("badger cache: directory is required")
		}
		if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
			return nil, fmt.Errorf("create cache directory %s: %w", cfg.Dir, err)
		}
		bopts = badger.DefaultOptions(cfg.Dir)
	}

	bopts = bopts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if l != nil {
		bopts = bopts.WithLogger(badgerLogger{l: l})
	} else {
		bopts = bopts.WithLogger(nil)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger cache: %w", err)
	}

	bc := &BadgerCache{db: db, logger: l, stop: make(chan struct{})}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		bc.wg.Add(1)
		go bc.runGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}
	return bc, nil
}

func (c *BadgerCache) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("badger get: %w", err)
	}
	return out, nil
}

func (c *BadgerCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("badger set: %w", err)
	}
	return nil
}

func (c *BadgerCache) Delete(_ context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	err := c.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("badger delete: %w", err)
	}
	return nil
}

// Close stops GC and closes the database.
func (c *BadgerCache) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.stop)
		c.wg.Wait()
		err = c.db.Close()
	})
	return err
}

func (c *BadgerCache) runGC(interval time.Duration, ratio float64) {
	defer c.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			// one rewrite per call; loop until nothing is left to reclaim
			for {
				if err := c.db.RunValueLogGC(ratio); err != nil {
					if !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrRejected) {
						c.logger.Warn("badger value log gc failed", applogger.Error(err))
					}
					break
				}
			}
		}
	}
}
