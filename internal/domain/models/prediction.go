package models

import (
	"fmt"
	"time"
)

// Status is the terminal state of a prediction call.
type Status string

const (
	StatusSuccess        Status = "success"
	StatusNoData         Status = "no_data"
	StatusLoadError      Status = "load_error"
	StatusFeatureError   Status = "feature_error"
	StatusInferenceError Status = "inference_error"
)

func (s Status) String() string { return string(s) }

// PredictionResult is produced once per call and never mutated afterwards.
// Value is set only on success; Series is set whenever data was acquired.
type PredictionResult struct {
	Ticker  string       `json:"ticker"`
	Value   *float64     `json:"value,omitempty"`
	Status  Status       `json:"status"`
	Message string       `json:"message"`
	Series  *PriceSeries `json:"-"`
}

// OK reports whether the call produced a value.
func (r PredictionResult) OK() bool {
	return r.Status == StatusSuccess && r.Value != nil
}

// Err returns nil for a successful call, otherwise a *PredictionError.
func (r PredictionResult) Err() error {
	if r.OK() {
		return nil
	}
	return &PredictionError{Ticker: r.Ticker, Status: r.Status, Message: r.Message}
}

// PredictionError is a failed prediction seen as an error.
type PredictionError struct {
	Ticker  string
	Status  Status
	Message string
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("predict %s: %s: %s", e.Ticker, e.Status, e.Message)
}

// FeatureSpec names, in order, the columns the regressor was fit on.
type FeatureSpec struct {
	Version       string    `yaml:"version"`
	Features      []string  `yaml:"features"`
	BoosterSHA256 string    `yaml:"booster_sha256,omitempty"`
	CreatedAt     time.Time `yaml:"created_at,omitempty"`
}

// Insight is the narrative produced for a prediction. Both fields are
// optional; a nil outlook means no long-term estimate was obtained.
type Insight struct {
	Analysis               *string  `json:"analysis"`
	LongTermOutlookPercent *float64 `json:"long_term_outlook"`
}

// Fundamentals are the valuation indicators fed to the narrative generator.
// Missing indicators are nil.
type Fundamentals struct {
	Ticker          string   `json:"ticker"`
	PriceEarnings   *float64 `json:"p_l"`
	PriceToBook     *float64 `json:"p_vp"`
	DividendYield   *float64 `json:"dividend_yield"`
	ROE             *float64 `json:"roe"`
	CurrentRatio    *float64 `json:"liquidez_corrente"`
	NetDebtToEquity *float64 `json:"divida_liquida_patrimonio"`
	NetMargin       *float64 `json:"margem_liquida"`
}

// Empty reports whether no indicator is available.
func (f Fundamentals) Empty() bool {
	return f.PriceEarnings == nil && f.PriceToBook == nil && f.DividendYield == nil &&
		f.ROE == nil && f.CurrentRatio == nil && f.NetDebtToEquity == nil && f.NetMargin == nil
}
