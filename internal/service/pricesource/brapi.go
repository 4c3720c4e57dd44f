package pricesource

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"FinSimples/internal/domain/models"
	drepo "FinSimples/internal/domain/repository"
	xhttp "FinSimples/pkg/http"
	xutil "FinSimples/pkg/util"

	"github.com/tidwall/gjson"
)

const brapiName = "brapi"

// Brapi fetches daily history and fundamentals from brapi.dev. The token is
// sent as a bearer header so it never becomes part of a cache key.
type Brapi struct {
	client   *xhttp.Client
	baseURL  string
	token    string
	window   drepo.HistoryWindow
	interval string
}

// BrapiOption configures Brapi.
type BrapiOption func(*Brapi)

func NewBrapi(client *xhttp.Client, baseURL, token string, opts ...BrapiOption) *Brapi {
	b := &Brapi{
		client:   client,
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		window:   drepo.Window3mo,
		interval: "1d",
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// WithBrapiWindow sets the lookback range.
func WithBrapiWindow(w drepo.HistoryWindow) BrapiOption {
	return func(b *Brapi) { b.window = drepo.NormalizeWindow(string(w), drepo.Window3mo) }
}

// WithBrapiInterval sets the bar interval. Empty keeps daily bars.
func WithBrapiInterval(interval string) BrapiOption {
	return func(b *Brapi) {
		if interval != "" {
			b.interval = interval
		}
	}
}

func (b *Brapi) Name() string { return brapiName }

// URL returns the quote URL for ticker.
func (b *Brapi) URL(ticker string) string {
	q := url.Values{}
	q.Set("range", string(b.window))
	q.Set("interval", b.interval)
	return fmt.Sprintf("%s/api/quote/%s?%s", b.baseURL, url.PathEscape(ticker), q.Encode())
}

func (b *Brapi) fundamentalsURL(ticker string) string {
	return fmt.Sprintf("%s/api/quote/%s?fundamental=true", b.baseURL, url.PathEscape(ticker))
}

func (b *Brapi) Fetch(ctx context.Context, ticker string) (models.PriceSeries, error) {
	if !models.ValidTicker(ticker) {
		return models.PriceSeries{}, fmt.Errorf("%w: %q", ErrInvalidTicker, ticker)
	}
	body, err := b.get(ctx, b.URL(ticker))
	if err != nil {
		return models.PriceSeries{}, err
	}

	series, err := parseBrapiHistory(ticker, body)
	if err != nil {
		return models.PriceSeries{}, err
	}
	if series.Empty() {
		return series, ErrEmptySeries
	}
	return series, nil
}

// Fundamentals returns valuation indicators. Indicators the provider omits
// stay nil.
func (b *Brapi) Fundamentals(ctx context.Context, ticker string) (models.Fundamentals, error) {
	if !models.ValidTicker(ticker) {
		return models.Fundamentals{}, fmt.Errorf("%w: %q", ErrInvalidTicker, ticker)
	}
	body, err := b.get(ctx, b.fundamentalsURL(ticker))
	if err != nil {
		return models.Fundamentals{}, err
	}
	result, err := brapiResult(body)
	if err != nil {
		return models.Fundamentals{}, err
	}

	return models.Fundamentals{
		Ticker:          ticker,
		PriceEarnings:   optional(result, "pL", "priceEarnings"),
		PriceToBook:     optional(result, "pVp"),
		DividendYield:   optional(result, "dividendYield"),
		ROE:             optional(result, "roe"),
		CurrentRatio:    optional(result, "liquidezCorrente"),
		NetDebtToEquity: optional(result, "dividaLiquidaPatrimonio"),
		NetMargin:       optional(result, "margemLiquida"),
	}, nil
}

func (b *Brapi) get(ctx context.Context, u string) ([]byte, error) {
	if b.token == "" {
		return nil, ErrNoToken
	}
	var body []byte
	if err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     u,
		Headers: map[string]string{"Authorization": "Bearer " + b.token},
	}, &body); err != nil {
		return nil, fmt.Errorf("brapi quote: %w", err)
	}
	return body, nil
}

func brapiResult(body []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%w: not json", ErrMalformedPayload)
	}
	doc := gjson.ParseBytes(body)
	if doc.Get("error").Bool() {
		return gjson.Result{}, fmt.Errorf("brapi error: %s", xutil.Truncate(doc.Get("message").String(), 200))
	}
	result := doc.Get("results.0")
	if !result.Exists() {
		return gjson.Result{}, fmt.Errorf("%w: missing results", ErrMalformedPayload)
	}
	return result, nil
}

func parseBrapiHistory(ticker string, body []byte) (models.PriceSeries, error) {
	result, err := brapiResult(body)
	if err != nil {
		return models.PriceSeries{}, err
	}

	loc := xutil.MarketLocation("America/Sao_Paulo", defaultMarketOffset)
	items := result.Get("historicalDataPrice").Array()
	bars := make([]models.PriceBar, 0, len(items))
	for _, it := range items {
		c := it.Get("adjustedClose")
		if c.Type != gjson.Number {
			c = it.Get("close")
		}
		v := it.Get("volume")
		bars = append(bars, models.PriceBar{
			TradeDate:  xutil.TradeDate(time.Unix(it.Get("date").Int(), 0), loc),
			ClosePrice: number(c.Type == gjson.Number, c.Float()),
			Volume:     number(v.Type == gjson.Number, v.Float()),
		})
	}

	return normalize(ticker, brapiName, bars), nil
}

// optional returns the first numeric value among keys.
func optional(r gjson.Result, keys ...string) *float64 {
	for _, k := range keys {
		v := r.Get(k)
		if v.Type != gjson.Number {
			continue
		}
		f := number(true, v.Float())
		if math.IsNaN(f) {
			continue
		}
		return &f
	}
	return nil
}
