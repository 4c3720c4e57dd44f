package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"FinSimples/internal/domain/models"
	domrepo "FinSimples/internal/domain/repository"
	domsvc "FinSimples/internal/domain/service"
	applogger "FinSimples/pkg/logger"
)

// Prediction stages, in execution order.
const (
	StageLoadArtifacts    = "load_artifacts"
	StageAcquireData      = "acquire_data"
	StageEngineerFeatures = "engineer_features"
	StageSelectLatestRow  = "select_latest_row"
	StageInfer            = "infer"
)

var stageStatus = map[string]models.Status{
	StageLoadArtifacts:    models.StatusLoadError,
	StageAcquireData:      models.StatusNoData,
	StageEngineerFeatures: models.StatusFeatureError,
	StageSelectLatestRow:  models.StatusInferenceError,
	StageInfer:            models.StatusInferenceError,
}

const successMessage = "prediction completed"

// Predictor produces the expected annual return of a ticker. It keeps no
// per-call state; concurrent calls share only the artifact store.
type Predictor struct {
	artifacts domrepo.ArtifactStore
	prices    domrepo.PriceSource
	pipeline  domsvc.FeaturePipeline
	metrics   domrepo.Metrics
	logger    *applogger.Logger
}

func NewPredictor(artifacts domrepo.ArtifactStore, prices domrepo.PriceSource, pipeline domsvc.FeaturePipeline, metrics domrepo.Metrics, l *applogger.Logger) *Predictor {
	return &Predictor{artifacts: artifacts, prices: prices, pipeline: pipeline, metrics: metrics, logger: l}
}

// Predict never returns an error; failures are reported through the
// result's status and message.
func (p *Predictor) Predict(ctx context.Context, ticker string) (res models.PredictionResult) {
	start := time.Now()
	ticker = models.NormalizeTicker(ticker)
	res = models.PredictionResult{Ticker: ticker}

	defer func() {
		if p.metrics != nil {
			p.metrics.RecordPrediction(res.Status)
			p.metrics.RecordLatency("predict", time.Since(start).Seconds())
		}
		fields := []applogger.Field{
			applogger.String("ticker", ticker),
			applogger.String("status", res.Status.String()),
			applogger.Duration("elapsed", time.Since(start)),
		}
		if res.OK() {
			p.logger.Info("prediction finished", append(fields, applogger.Float64("value", *res.Value))...)
		} else {
			p.logger.Warn("prediction failed", append(fields, applogger.String("reason", res.Message))...)
		}
	}()

	if !models.ValidTicker(ticker) {
		return fail(res, models.StatusNoData, fmt.Sprintf("invalid ticker code %q", ticker))
	}

	var bundle *domrepo.Artifacts
	if err := p.stage(StageLoadArtifacts, func() (err error) {
		bundle, err = p.artifacts.Load(ctx)
		return err
	}); err != nil {
		return fail(res, stageStatus[StageLoadArtifacts], fmt.Sprintf("model artifacts unavailable: %v", err))
	}

	var series models.PriceSeries
	if err := p.stage(StageAcquireData, func() (err error) {
		series, err = p.prices.Fetch(ctx, ticker)
		if err == nil && series.Empty() {
			err = errors.New("empty price history")
		}
		return err
	}); err != nil {
		return fail(res, stageStatus[StageAcquireData], fmt.Sprintf("no data for %s: %v", ticker, err))
	}
	res.Series = &series

	var table *models.FeatureTable
	if err := p.stage(StageEngineerFeatures, func() (err error) {
		table, err = p.pipeline.Transform(series.Bars)
		return err
	}); err != nil {
		return fail(res, stageStatus[StageEngineerFeatures], fmt.Sprintf("feature engineering failed: %v", err))
	}

	var row []float64
	if err := p.stage(StageSelectLatestRow, func() (err error) {
		row, err = latestRow(table, ticker, bundle.Spec.Features)
		return err
	}); err != nil {
		status := stageStatus[StageSelectLatestRow]
		if errors.Is(err, errNoRow) {
			status = models.StatusFeatureError
		}
		return fail(res, status, err.Error())
	}

	var value float64
	if err := p.stage(StageInfer, func() (err error) {
		value, err = bundle.Regressor.Predict(row)
		if err == nil && (math.IsNaN(value) || math.IsInf(value, 0)) {
			err = fmt.Errorf("model produced a non-finite value")
		}
		return err
	}); err != nil {
		return fail(res, stageStatus[StageInfer], fmt.Sprintf("inference failed: %v", err))
	}

	res.Value = &value
	res.Status = models.StatusSuccess
	res.Message = successMessage
	return res
}

// stage runs fn, converting a panic into an error and timing the call.
func (p *Predictor) stage(name string, fn func() error) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", name, r)
		}
		if p.metrics != nil {
			p.metrics.RecordLatency(name, time.Since(start).Seconds())
			if err != nil {
				p.metrics.RecordError(name)
			}
		}
	}()
	return fn()
}

var errNoRow = errors.New("no feature row for ticker")

// latestRow returns the final row for ticker restricted to columns, in order.
func latestRow(table *models.FeatureTable, ticker string, columns []string) ([]float64, error) {
	if table == nil {
		return nil, errNoRow
	}
	last, ok := table.LatestFor(ticker)
	if !ok {
		return nil, fmt.Errorf("%w %s", errNoRow, ticker)
	}
	out := make([]float64, len(columns))
	for i, c := range columns {
		v, ok := last.Value(c)
		if !ok {
			return nil, fmt.Errorf("latest row on %s has no %s column", last.TradeDate.Format(time.DateOnly), c)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("latest row on %s has undefined %s (history too short?)", last.TradeDate.Format(time.DateOnly), c)
		}
		out[i] = v
	}
	return out, nil
}

func fail(res models.PredictionResult, status models.Status, msg string) models.PredictionResult {
	res.Status = status
	res.Message = msg
	res.Value = nil
	return res
}
