package pricesource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"FinSimples/internal/domain/models"
	drepo "FinSimples/internal/domain/repository"
	applogger "FinSimples/pkg/logger"
	xutil "FinSimples/pkg/util"
)

// Provider fetch outcomes reported to metrics.
const (
	OutcomeOK    = "ok"
	OutcomeEmpty = "empty"
	OutcomeError = "error"
)

// Fallback tries each source in order and returns the first non-empty
// series. When every source fails it returns a *NotFoundError.
type Fallback struct {
	sources []drepo.PriceSource
	logger  *applogger.Logger
	metrics drepo.Metrics
}

func NewFallback(l *applogger.Logger, m drepo.Metrics, sources ...drepo.PriceSource) *Fallback {
	return &Fallback{sources: sources, logger: l, metrics: m}
}

func (f *Fallback) Name() string { return "fallback" }

func (f *Fallback) Fetch(ctx context.Context, ticker string) (models.PriceSeries, error) {
	ticker = models.NormalizeTicker(ticker)
	nf := &NotFoundError{Ticker: ticker}

	for _, src := range f.sources {
		if err := ctx.Err(); err != nil {
			nf.Reasons = append(nf.Reasons, err.Error())
			break
		}

		start := time.Now()
		series, err := src.Fetch(ctx, ticker)
		if f.metrics != nil {
			f.metrics.RecordLatency("fetch_"+src.Name(), time.Since(start).Seconds())
		}

		if err == nil && series.Empty() {
			err = ErrEmptySeries
		}
		if err == nil {
			f.record(src.Name(), OutcomeOK)
			f.logger.Debug("price history fetched",
				applogger.String("ticker", ticker),
				applogger.String("source", src.Name()),
				applogger.Int("bars", series.Len()),
			)
			return series, nil
		}

		outcome := OutcomeError
		if errors.Is(err, ErrEmptySeries) {
			outcome = OutcomeEmpty
		}
		f.record(src.Name(), outcome)
		f.logger.Warn("price source failed",
			applogger.String("ticker", ticker),
			applogger.String("source", src.Name()),
			applogger.Error(err),
		)
		nf.Reasons = append(nf.Reasons, fmt.Sprintf("%s: %s", src.Name(), xutil.Truncate(err.Error(), 160)))
	}

	return models.PriceSeries{}, nf
}

func (f *Fallback) record(source, outcome string) {
	if f.metrics != nil {
		f.metrics.RecordProviderFetch(source, outcome)
	}
}
