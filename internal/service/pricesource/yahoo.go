package pricesource

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"FinSimples/internal/domain/models"
	drepo "FinSimples/internal/domain/repository"
	xhttp "FinSimples/pkg/http"
	xutil "FinSimples/pkg/util"

	"github.com/tidwall/gjson"
)

const yahooName = "yahoo"

// B3 trades in São Paulo; used when the payload carries no zone.
const defaultMarketOffset = -3 * time.Hour

// Yahoo fetches daily history from the Yahoo Finance chart endpoint. Closes
// are split and dividend adjusted when the payload carries adjclose.
type Yahoo struct {
	client   *xhttp.Client
	baseURL  string
	suffix   string
	window   drepo.HistoryWindow
	interval string
}

// YahooOption configures Yahoo.
type YahooOption func(*Yahoo)

func NewYahoo(client *xhttp.Client, baseURL string, opts ...YahooOption) *Yahoo {
	y := &Yahoo{
		client:   client,
		baseURL:  strings.TrimRight(baseURL, "/"),
		suffix:   ".SA",
		window:   drepo.Window1y,
		interval: "1d",
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

// WithMarketSuffix sets the exchange suffix appended to ticker codes.
func WithMarketSuffix(suffix string) YahooOption {
	return func(y *Yahoo) { y.suffix = suffix }
}

// WithYahooWindow sets the lookback range.
func WithYahooWindow(w drepo.HistoryWindow) YahooOption {
	return func(y *Yahoo) { y.window = drepo.NormalizeWindow(string(w), drepo.Window1y) }
}

// WithYahooInterval sets the bar interval. Empty keeps daily bars.
func WithYahooInterval(interval string) YahooOption {
	return func(y *Yahoo) {
		if interval != "" {
			y.interval = interval
		}
	}
}

func (y *Yahoo) Name() string { return yahooName }

// URL returns the chart URL for ticker. It is stable for identical inputs so
// it can serve as a response cache key.
func (y *Yahoo) URL(ticker string) string {
	q := url.Values{}
	q.Set("range", string(y.window))
	q.Set("interval", y.interval)
	q.Set("events", "history")
	return fmt.Sprintf("%s/v8/finance/chart/%s?%s", y.baseURL, url.PathEscape(ticker+y.suffix), q.Encode())
}

func (y *Yahoo) Fetch(ctx context.Context, ticker string) (models.PriceSeries, error) {
	if !models.ValidTicker(ticker) {
		return models.PriceSeries{}, fmt.Errorf("%w: %q", ErrInvalidTicker, ticker)
	}

	var body []byte
	if err := y.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    y.URL(ticker),
	}, &body); err != nil {
		return models.PriceSeries{}, fmt.Errorf("yahoo chart: %w", err)
	}

	series, err := parseYahooChart(ticker, body)
	if err != nil {
		return models.PriceSeries{}, err
	}
	if series.Empty() {
		return series, ErrEmptySeries
	}
	return series, nil
}

func parseYahooChart(ticker string, body []byte) (models.PriceSeries, error) {
	if !gjson.ValidBytes(body) {
		return models.PriceSeries{}, fmt.Errorf("%w: not json", ErrMalformedPayload)
	}
	doc := gjson.ParseBytes(body)

	if e := doc.Get("chart.error"); e.Exists() && e.Type != gjson.Null {
		msg := e.Get("description").String()
		if msg == "" {
			msg = e.Raw
		}
		return models.PriceSeries{}, fmt.Errorf("yahoo chart error: %s", xutil.Truncate(msg, 200))
	}

	result := doc.Get("chart.result.0")
	if !result.Exists() {
		return models.PriceSeries{}, fmt.Errorf("%w: missing chart.result", ErrMalformedPayload)
	}

	loc := xutil.MarketLocation(
		result.Get("meta.exchangeTimezoneName").String(),
		offsetOr(result.Get("meta.gmtoffset"), defaultMarketOffset),
	)

	stamps := result.Get("timestamp").Array()
	closes := result.Get("indicators.adjclose.0.adjclose").Array()
	if len(closes) == 0 {
		closes = result.Get("indicators.quote.0.close").Array()
	}
	volumes := result.Get("indicators.quote.0.volume").Array()

	bars := make([]models.PriceBar, 0, len(stamps))
	for i, ts := range stamps {
		if i >= len(closes) {
			break
		}
		c := closes[i]
		bar := models.PriceBar{
			TradeDate:  xutil.TradeDate(time.Unix(ts.Int(), 0), loc),
			ClosePrice: number(c.Type == gjson.Number, c.Float()),
			Volume:     number(false, 0),
		}
		if i < len(volumes) {
			v := volumes[i]
			bar.Volume = number(v.Type == gjson.Number, v.Float())
		}
		bars = append(bars, bar)
	}

	return normalize(ticker, yahooName, bars), nil
}

func offsetOr(v gjson.Result, def time.Duration) time.Duration {
	if v.Type != gjson.Number {
		return def
	}
	return time.Duration(v.Int()) * time.Second
}
