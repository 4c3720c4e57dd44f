package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickerNormalization(t *testing.T) {
	assert.Equal(t, "PETR4", NormalizeTicker("  petr4 "))
	assert.True(t, ValidTicker("PETR4"))
	assert.True(t, ValidTicker("BRK-B"))
	assert.False(t, ValidTicker(""))
	assert.False(t, ValidTicker("PETR4/../X"))
	assert.False(t, ValidTicker("ABCDEFGHIJKL"))
}

func TestSeriesHasVolume(t *testing.T) {
	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	s := PriceSeries{Bars: []PriceBar{{TradeDate: d, TickerCode: "X", ClosePrice: 1, Volume: math.NaN()}}}
	assert.False(t, s.HasVolume())

	s.Bars = append(s.Bars, PriceBar{TradeDate: d.AddDate(0, 0, 1), TickerCode: "X", ClosePrice: 1, Volume: 10})
	assert.True(t, s.HasVolume())

	last, ok := s.Last()
	assert.True(t, ok)
	assert.Equal(t, 10.0, last.Volume)
}

func TestFeatureRowComplete(t *testing.T) {
	row := FeatureRow{Values: map[string]float64{"a": 1, "b": math.NaN()}}
	assert.True(t, row.Complete([]string{"a"}))
	assert.False(t, row.Complete([]string{"a", "b"}))
	assert.False(t, row.Complete([]string{"c"}))
}

func TestFeatureTableLatestFor(t *testing.T) {
	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	tbl := &FeatureTable{
		Columns: []string{"a"},
		Rows: []FeatureRow{
			{PriceBar: PriceBar{TickerCode: "AAA", TradeDate: d}},
			{PriceBar: PriceBar{TickerCode: "AAA", TradeDate: d.AddDate(0, 0, 1)}},
			{PriceBar: PriceBar{TickerCode: "BBB", TradeDate: d}},
		},
	}
	row, ok := tbl.LatestFor("AAA")
	assert.True(t, ok)
	assert.Equal(t, d.AddDate(0, 0, 1), row.TradeDate)

	_, ok = tbl.LatestFor("CCC")
	assert.False(t, ok)
	assert.True(t, tbl.HasColumn("a"))
	assert.False(t, tbl.HasColumn("z"))
}

func TestFundamentalsEmpty(t *testing.T) {
	assert.True(t, Fundamentals{}.Empty())
	v := 1.5
	assert.False(t, Fundamentals{ROE: &v}.Empty())
}

func TestPredictionResultErr(t *testing.T) {
	v := 0.1
	assert.NoError(t, PredictionResult{Ticker: "X", Value: &v, Status: StatusSuccess}.Err())

	err := PredictionResult{Ticker: "X", Status: StatusNoData, Message: "no data"}.Err()
	var perr *PredictionError
	assert.ErrorAs(t, err, &perr)
	assert.Equal(t, StatusNoData, perr.Status)
	assert.Equal(t, "predict X: no_data: no data", err.Error())
}
