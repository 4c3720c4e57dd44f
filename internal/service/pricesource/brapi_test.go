package pricesource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	xhttp "FinSimples/pkg/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const brapiHistory = `{"results":[{"symbol":"PETR4","historicalDataPrice":[
  {"date":1704286800,"close":31.0,"adjustedClose":30.0,"volume":1000},
  {"date":1704200400,"close":30.0,"volume":900},
  {"date":1704373200,"close":null,"volume":1}
]}]}`

func TestBrapiFetchSendsBearerAndParses(t *testing.T) {
	var auth, path, query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		query = r.URL.RawQuery
		_, _ = w.Write([]byte(brapiHistory))
	}))
	defer srv.Close()

	b := NewBrapi(xhttp.NewClient(), srv.URL, "tok")
	series, err := b.Fetch(context.Background(), "PETR4")
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok", auth)
	assert.Equal(t, "/api/quote/PETR4", path)
	assert.Equal(t, "interval=1d&range=3mo", query)
	assert.NotContains(t, b.URL("PETR4"), "tok")

	require.Len(t, series.Bars, 2)
	assert.Equal(t, "brapi", series.Source)
	assert.Equal(t, 30.0, series.Bars[0].ClosePrice)
	// adjusted close preferred over raw close
	assert.Equal(t, 30.0, series.Bars[1].ClosePrice)
	assert.True(t, series.Bars[0].TradeDate.Before(series.Bars[1].TradeDate))
}

func TestBrapiWithoutTokenFailsFast(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	_, err := NewBrapi(xhttp.NewClient(), srv.URL, "").Fetch(context.Background(), "PETR4")
	assert.True(t, errors.Is(err, ErrNoToken))
	assert.False(t, called)
}

func TestBrapiErrorPayload(t *testing.T) {
	_, err := parseBrapiHistory("ZZZZ3", []byte(`{"error":true,"message":"Não encontramos a ação ZZZZ3"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ZZZZ3")
}

func TestBrapiFundamentals(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "fundamental=true", r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"results":[{"symbol":"ITUB4","priceEarnings":8.5,"pVp":1.7,"roe":"n/a","margemLiquida":21.3}]}`))
	}))
	defer srv.Close()

	f, err := NewBrapi(xhttp.NewClient(), srv.URL, "tok").Fundamentals(context.Background(), "ITUB4")
	require.NoError(t, err)

	assert.Equal(t, "ITUB4", f.Ticker)
	require.NotNil(t, f.PriceEarnings)
	assert.Equal(t, 8.5, *f.PriceEarnings)
	require.NotNil(t, f.PriceToBook)
	assert.Equal(t, 1.7, *f.PriceToBook)
	assert.Nil(t, f.ROE)
	assert.Nil(t, f.DividendYield)
	require.NotNil(t, f.NetMargin)
	assert.False(t, f.Empty())
}
