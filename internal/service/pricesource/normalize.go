package pricesource

import (
	"math"
	"sort"

	"FinSimples/internal/domain/models"
)

// normalize sorts bars by date, keeps the last bar seen for a repeated date
// and drops bars without a usable close.
func normalize(ticker, source string, bars []models.PriceBar) models.PriceSeries {
	kept := make([]models.PriceBar, 0, len(bars))
	for _, b := range bars {
		if math.IsNaN(b.ClosePrice) || math.IsInf(b.ClosePrice, 0) || b.TradeDate.IsZero() {
			continue
		}
		b.TickerCode = ticker
		kept = append(kept, b)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].TradeDate.Before(kept[j].TradeDate)
	})

	out := kept[:0]
	for _, b := range kept {
		if n := len(out); n > 0 && out[n-1].TradeDate.Equal(b.TradeDate) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}

	return models.PriceSeries{Ticker: ticker, Source: source, Bars: out}
}

// number returns v when the JSON value is numeric and finite, else NaN.
func number(ok bool, v float64) float64 {
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}
