package repository

import (
	"context"

	"FinSimples/internal/domain/models"
	"FinSimples/internal/domain/service"
)

// PriceSource fetches the daily history of a ticker.
type PriceSource interface {
	Name() string
	Fetch(ctx context.Context, ticker string) (models.PriceSeries, error)
}

// FundamentalsSource fetches valuation indicators of a ticker.
type FundamentalsSource interface {
	Fundamentals(ctx context.Context, ticker string) (models.Fundamentals, error)
}

// Artifacts is a loaded, mutually consistent regressor and feature spec.
// Instances are immutable and shared between concurrent calls.
type Artifacts struct {
	Regressor service.Regressor
	Spec      models.FeatureSpec
}

// ArtifactStore loads the model artifacts.
type ArtifactStore interface {
	Load(ctx context.Context) (*Artifacts, error)
}

type Metrics interface {
	RecordPrediction(status models.Status)
	RecordProviderFetch(provider, outcome string)
	RecordCacheLookup(hit bool)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
