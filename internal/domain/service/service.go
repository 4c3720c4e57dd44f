package service

import (
	"context"

	"FinSimples/internal/domain/models"
)

// Regressor maps an ordered feature vector to a scalar.
type Regressor interface {
	Predict(features []float64) (float64, error)
	NumFeatures() int
	// FeatureNames returns the column names embedded in the model, if any.
	FeatureNames() []string
}

// FeaturePipeline derives model inputs from raw price bars.
type FeaturePipeline interface {
	Transform(bars []models.PriceBar) (*models.FeatureTable, error)
	FeatureNames() []string
}

// InsightGenerator produces a narrative for a prediction. Implementations
// never fail; problems are reported through the returned text.
type InsightGenerator interface {
	Generate(ctx context.Context, ticker string, predictedReturn float64, horizonYears int) models.Insight
}
