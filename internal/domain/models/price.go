package models

import (
	"math"
	"regexp"
	"strings"
	"time"
)

// PriceBar is one daily observation. TradeDate is a calendar date stored as
// UTC midnight. Volume is NaN when the provider did not report it.
type PriceBar struct {
	TradeDate  time.Time `json:"trade_date"`
	TickerCode string    `json:"ticker_code"`
	ClosePrice float64   `json:"close_price"`
	Volume     float64   `json:"volume"`
}

// PriceSeries is the ordered daily history of a single ticker.
// Bars are strictly increasing by TradeDate.
type PriceSeries struct {
	Ticker string     `json:"ticker"`
	Source string     `json:"source"`
	Bars   []PriceBar `json:"bars"`
}

// Len returns the number of bars.
func (s PriceSeries) Len() int { return len(s.Bars) }

// Empty reports whether the series carries no bars.
func (s PriceSeries) Empty() bool { return len(s.Bars) == 0 }

// HasVolume reports whether any bar carries a finite volume.
func (s PriceSeries) HasVolume() bool {
	return BarsHaveVolume(s.Bars)
}

// Last returns the most recent bar.
func (s PriceSeries) Last() (PriceBar, bool) {
	if len(s.Bars) == 0 {
		return PriceBar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// BarsHaveVolume reports whether any bar carries a finite volume.
func BarsHaveVolume(bars []PriceBar) bool {
	for _, b := range bars {
		if !math.IsNaN(b.Volume) && !math.IsInf(b.Volume, 0) {
			return true
		}
	}
	return false
}

var tickerPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-]{0,9}$`)

// NormalizeTicker upper-cases and trims a user supplied ticker code.
func NormalizeTicker(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidTicker reports whether an already normalized ticker is acceptable for
// the upstream providers.
func ValidTicker(s string) bool {
	return tickerPattern.MatchString(s)
}
