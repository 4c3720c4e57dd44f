package api

import (
	"context"
	"errors"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"FinSimples/internal/domain/models"
	xhttp "FinSimples/pkg/http"
	xlogger "FinSimples/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPredictor struct {
	res    models.PredictionResult
	ticker string
}

func (s *stubPredictor) Predict(_ context.Context, ticker string) models.PredictionResult {
	s.ticker = ticker
	r := s.res
	r.Ticker = models.NormalizeTicker(ticker)
	return r
}

type stubInsights struct {
	years int
}

func (s *stubInsights) Generate(_ context.Context, _ string, _ float64, years int) models.Insight {
	s.years = years
	text := "análise"
	pct := 42.0
	return models.Insight{Analysis: &text, LongTermOutlookPercent: &pct}
}

func serve(t *testing.T, p *stubPredictor, in *stubInsights, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	srv := xhttp.NewServer(NewPredictEchoHandler(xlogger.Nop(), p, in), xlogger.Nop(), xhttp.WithMetricsPath(""))
	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	return rec, envelope
}

func TestPredictSuccessEnvelope(t *testing.T) {
	v := 0.12
	p := &stubPredictor{res: models.PredictionResult{Value: &v, Status: models.StatusSuccess, Message: "prediction completed"}}
	in := &stubInsights{}

	rec, env := serve(t, p, in, `{"ticker":"petr4"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	data := env["data"].(map[string]any)
	assert.Equal(t, "PETR4", data["ticker"])
	assert.InDelta(t, 0.12, data["predicted_return"], 1e-12)
	assert.Equal(t, "success", data["status"])
	assert.Equal(t, "análise", data["analysis"])
	assert.InDelta(t, 42.0, data["long_term_outlook"], 1e-12)
	assert.EqualValues(t, 5, data["horizon_years"])
	assert.Equal(t, 5, in.years)
	assert.Equal(t, "petr4", p.ticker)
}

func TestPredictStatusMapping(t *testing.T) {
	cases := map[models.Status]int{
		models.StatusNoData:         http.StatusNotFound,
		models.StatusLoadError:      http.StatusServiceUnavailable,
		models.StatusFeatureError:   http.StatusUnprocessableEntity,
		models.StatusInferenceError: http.StatusUnprocessableEntity,
	}
	for status, code := range cases {
		t.Run(string(status), func(t *testing.T) {
			p := &stubPredictor{res: models.PredictionResult{Status: status, Message: "boom"}}
			in := &stubInsights{}
			rec, env := serve(t, p, in, `{"ticker":"VALE3","years":10}`)
			assert.Equal(t, code, rec.Code)
			errs := env["data"].([]any)
			require.Len(t, errs, 1)
			first := errs[0].(map[string]any)
			assert.Equal(t, "boom", first["message"])
			assert.Equal(t, string(status), first["params"].(map[string]any)["status"])
			assert.Zero(t, in.years)
		})
	}
}

func TestPredictValidation(t *testing.T) {
	for name, body := range map[string]string{
		"missing ticker": `{}`,
		"bad ticker":     `{"ticker":"??"}`,
		"years range":    `{"ticker":"PETR4","years":99}`,
		"not json":       `ticker=PETR4`,
	} {
		t.Run(name, func(t *testing.T) {
			p := &stubPredictor{}
			rec, _ := serve(t, p, &stubInsights{}, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, p.ticker)
		})
	}
}

func TestStatusErrorKeepsPredictionCause(t *testing.T) {
	res := models.PredictionResult{Ticker: "ITUB4", Status: models.StatusLoadError, Message: "booster missing"}
	appErr := statusError(res)

	assert.Equal(t, http.StatusServiceUnavailable, appErr.Status)
	var perr *models.PredictionError
	require.True(t, errors.As(appErr, &perr))
	assert.Equal(t, models.StatusLoadError, perr.Status)
	assert.Equal(t, "ITUB4", perr.Ticker)
	assert.Contains(t, appErr.Error(), "booster missing")
}
