package di

import (
	"context"
	"fmt"
	"time"

	"FinSimples/internal/domain/repository"
	"FinSimples/internal/domain/service"
	"FinSimples/internal/handler/api"
	"FinSimples/internal/repository/artifacts"
	"FinSimples/internal/service/pricesource"
	"FinSimples/internal/service/ratelimit"
	"FinSimples/internal/services/features"
	"FinSimples/internal/services/insights"
	"FinSimples/internal/usecase"
	"FinSimples/pkg/cache"
	"FinSimples/pkg/config"
	xhttp "FinSimples/pkg/http"
	applogger "FinSimples/pkg/logger"
	"FinSimples/pkg/metrics"
	"FinSimples/pkg/server"

	"golang.org/x/time/rate"
)

// Runtime bundles what the one-shot CLI commands need.
type Runtime struct {
	Logger    *applogger.Logger
	Predictor *usecase.Predictor
	Insights  service.InsightGenerator
}

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCacheStore opens the response cache backend.
func ProvideCacheStore(cfg *config.Config, l *applogger.Logger) (cache.Store, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := cache.New(ctx, l, cache.Options{
		Backend: cfg.Cache.Backend,
		Dir:     cfg.Cache.Dir,
		Layered: cfg.Cache.Backend != cache.BackendMemory,
		Redis: []cache.RedisOption{
			cache.WithRedisAddr(cfg.Cache.Redis.Addr),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("cache %s: %w", cfg.Cache.Backend, err)
	}
	l.Info("response cache ready", applogger.String("backend", cfg.Cache.Backend), applogger.Duration("ttl", cfg.Cache.TTL))

	cleanup := func() {
		if err := store.Close(); err != nil {
			l.Warn("cache close error", applogger.Error(err))
		}
	}
	return store, cleanup, nil
}

// ProvideHTTPClient creates the outbound client shared by the providers.
// Requests go through the response cache, then the rate limiter.
func ProvideHTTPClient(cfg *config.Config, store cache.Store, m repository.Metrics, l *applogger.Logger) *xhttp.Client {
	limiter := rate.NewLimiter(rate.Limit(cfg.Providers.RateLimit.RPS), cfg.Providers.RateLimit.Burst)
	transport := cache.NewTransport(store, cfg.Cache.TTL,
		cache.WithNext(xhttp.NewRateLimitedTransport(limiter, nil)),
		cache.WithTransportLogger(l),
		cache.WithLookupHook(m.RecordCacheLookup),
	)
	return xhttp.NewClient(
		xhttp.WithTransport(transport),
		xhttp.WithTimeout(cfg.Providers.Timeout),
		xhttp.WithHeader("User-Agent", cfg.Providers.UserAgent),
		xhttp.WithHeader("Accept", "application/json"),
	)
}

// ProvideBrapi creates the secondary price and fundamentals provider.
func ProvideBrapi(cfg *config.Config, client *xhttp.Client) *pricesource.Brapi {
	return pricesource.NewBrapi(client, cfg.Providers.Secondary.BaseURL, cfg.Providers.Secondary.Token,
		pricesource.WithBrapiWindow(repository.HistoryWindow(cfg.Providers.Secondary.Range)),
		pricesource.WithBrapiInterval(cfg.Providers.Secondary.Interval),
	)
}

// ProvideFundamentals exposes the secondary provider's fundamentals.
func ProvideFundamentals(b *pricesource.Brapi) repository.FundamentalsSource {
	return b
}

// ProvidePriceSource creates the primary-then-secondary history source.
func ProvidePriceSource(cfg *config.Config, client *xhttp.Client, brapi *pricesource.Brapi, m repository.Metrics, l *applogger.Logger) repository.PriceSource {
	yahoo := pricesource.NewYahoo(client, cfg.Providers.Primary.BaseURL,
		pricesource.WithMarketSuffix(cfg.Providers.Primary.MarketSuffix),
		pricesource.WithYahooWindow(repository.HistoryWindow(cfg.Providers.Primary.Range)),
		pricesource.WithYahooInterval(cfg.Providers.Primary.Interval),
	)
	if cfg.Providers.Secondary.Token == "" {
		l.Warn("secondary price provider disabled: no token configured")
	}
	return pricesource.NewFallback(l, m, yahoo, brapi)
}

// ProvideFeaturePipeline creates the feature extractor.
func ProvideFeaturePipeline() service.FeaturePipeline {
	return features.NewExtractor()
}

// ProvideArtifactStore creates the model artifact store.
func ProvideArtifactStore(cfg *config.Config, pipeline service.FeaturePipeline, l *applogger.Logger) repository.ArtifactStore {
	opts := []artifacts.Option{artifacts.WithLogger(l)}
	if cfg.Artifacts.MatchPipeline {
		opts = append(opts, artifacts.WithPipelineFeatures(pipeline.FeatureNames()))
	}
	return artifacts.NewStore(cfg.Artifacts.BoosterPath, cfg.Artifacts.FeatureSpecPath, opts...)
}

// ProvidePredictor creates the prediction use case.
func ProvidePredictor(
	store repository.ArtifactStore,
	prices repository.PriceSource,
	pipeline service.FeaturePipeline,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Predictor {
	return usecase.NewPredictor(store, prices, pipeline, m, l)
}

// ProvideInsights creates the narrative generator, or the unavailable
// variant when no OpenAI key is configured.
func ProvideInsights(cfg *config.Config, fundamentals repository.FundamentalsSource, l *applogger.Logger) service.InsightGenerator {
	if cfg.Insights.OpenAIAPIKey == "" {
		l.Warn("insights disabled: OpenAI API key not configured")
		return insights.Unavailable{}
	}
	return insights.NewOpenAI(
		insights.NewClient(cfg.Insights.OpenAIAPIKey, "", nil),
		fundamentals,
		insights.WithModel(cfg.Insights.Model),
		insights.WithTemperature(cfg.Insights.Temperature),
		insights.WithTimeout(cfg.Insights.Timeout),
		insights.WithLogger(l),
	)
}

// ProvideRateLimiter creates the per-client API limiter. It returns nil when
// API rate limiting is disabled.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if cfg.Server.RateLimit.RPS <= 0 {
		return nil
	}
	return ratelimit.New(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst, cfg.Server.RateLimit.Idle)
}

// ProvideHandler creates the HTTP handler.
func ProvideHandler(l *applogger.Logger, p *usecase.Predictor, gen service.InsightGenerator) xhttp.Handler {
	return api.NewPredictEchoHandler(l, p, gen)
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, limiter *ratelimit.Limiter, l *applogger.Logger) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetricsPath(cfg.Metrics.Path))
	} else {
		opts = append(opts, xhttp.WithMetricsPath(""))
	}
	if limiter != nil {
		opts = append(opts, xhttp.WithRateLimit(limiter.Allow))
	}
	return xhttp.NewServer(h, l, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(srv *xhttp.Server, limiter *ratelimit.Limiter, l *applogger.Logger) *server.App {
	app := server.New(srv, l)
	if limiter != nil {
		app.OnStart(func(stop <-chan struct{}) {
			limiter.StartPruning(time.Minute, stop)
		})
	}
	return app
}
