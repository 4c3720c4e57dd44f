package models

import "math"

// FeatureRow is one transformed observation: the source bar plus every
// derived column. NaN marks a column that is undefined for this row.
type FeatureRow struct {
	PriceBar
	Values map[string]float64
}

// Value returns the named column and whether it exists on the row.
func (r FeatureRow) Value(name string) (float64, bool) {
	v, ok := r.Values[name]
	return v, ok
}

// Complete reports whether every named column exists and is finite.
func (r FeatureRow) Complete(names []string) bool {
	for _, n := range names {
		v, ok := r.Values[n]
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// FeatureTable holds transformed rows sorted by (TickerCode, TradeDate).
// Columns lists every derived column in computation order.
type FeatureTable struct {
	Columns []string
	Rows    []FeatureRow
}

// HasColumn reports whether the table defines the named column.
func (t *FeatureTable) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// LatestFor returns the most recent row of the given ticker.
func (t *FeatureTable) LatestFor(ticker string) (FeatureRow, bool) {
	for i := len(t.Rows) - 1; i >= 0; i-- {
		if t.Rows[i].TickerCode == ticker {
			return t.Rows[i], true
		}
	}
	return FeatureRow{}, false
}
