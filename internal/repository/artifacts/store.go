package artifacts

import (
	"context"
	"os"
	"sync"
	"time"

	drepo "FinSimples/internal/domain/repository"
	applogger "FinSimples/pkg/logger"
)

// Bundle is a loaded, mutually consistent booster and feature spec.
type Bundle = drepo.Artifacts

type fingerprint struct {
	size    int64
	modTime time.Time
}

func statFingerprint(path string) (fingerprint, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return fingerprint{}, err
	}
	if fi.IsDir() {
		return fingerprint{}, os.ErrInvalid
	}
	return fingerprint{size: fi.Size(), modTime: fi.ModTime()}, nil
}

func (f fingerprint) equal(o fingerprint) bool {
	return f.size == o.size && f.modTime.Equal(o.modTime)
}

// Store loads the booster and feature spec from disk. A loaded bundle is
// reused while both files keep their size and modification time.
type Store struct {
	boosterPath string
	specPath    string
	pipeline    []string
	logger      *applogger.Logger

	mu       sync.Mutex
	bundle   *Bundle
	boosterF fingerprint
	specF    fingerprint
}

// Option configures Store.
type Option func(*Store)

// WithPipelineFeatures requires the feature spec to list exactly names.
func WithPipelineFeatures(names []string) Option {
	return func(s *Store) {
		s.pipeline = append([]string{}, names...)
	}
}

// WithLogger sets the store logger.
func WithLogger(l *applogger.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

func NewStore(boosterPath, specPath string, opts ...Option) *Store {
	s := &Store{boosterPath: boosterPath, specPath: specPath}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the current bundle. Every failure is a *LoadError.
func (s *Store) Load(ctx context.Context) (*Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, &LoadError{Err: err}
	}

	bf, err := statFingerprint(s.boosterPath)
	if err != nil {
		return nil, &LoadError{Path: s.boosterPath, Err: err}
	}
	sf, err := statFingerprint(s.specPath)
	if err != nil {
		return nil, &LoadError{Path: s.specPath, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bundle != nil && bf.equal(s.boosterF) && sf.equal(s.specF) {
		return s.bundle, nil
	}

	bundle, err := s.read()
	if err != nil {
		s.bundle = nil
		return nil, err
	}

	s.bundle, s.boosterF, s.specF = bundle, bf, sf
	s.logger.Info("model artifacts loaded",
		applogger.String("booster", s.boosterPath),
		applogger.String("spec_version", bundle.Spec.Version),
		applogger.Int("features", len(bundle.Spec.Features)),
	)
	return bundle, nil
}

func (s *Store) read() (*Bundle, error) {
	raw, err := os.ReadFile(s.boosterPath)
	if err != nil {
		return nil, &LoadError{Path: s.boosterPath, Err: err}
	}
	booster, err := ParseBooster(raw)
	if err != nil {
		return nil, &LoadError{Path: s.boosterPath, Err: err}
	}

	spec, err := ReadFeatureSpec(s.specPath)
	if err != nil {
		return nil, &LoadError{Path: s.specPath, Err: err}
	}

	if err := checkCompatible(spec, booster, SHA256Hex(raw), s.pipeline); err != nil {
		return nil, &LoadError{Path: s.specPath, Err: err}
	}

	return &Bundle{Regressor: booster, Spec: spec}, nil
}
