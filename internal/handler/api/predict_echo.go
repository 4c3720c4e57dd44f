package api

import (
	"context"
	"fmt"

	"FinSimples/internal/domain/models"
	domsvc "FinSimples/internal/domain/service"
	xhttp "FinSimples/pkg/http"
	xlogger "FinSimples/pkg/logger"

	"github.com/labstack/echo/v4"
)

func init() {
	if err := xhttp.RegisterValidation("ticker", func(v string) bool {
		return models.ValidTicker(models.NormalizeTicker(v))
	}); err != nil {
		panic(fmt.Sprintf("register ticker validation: %v", err))
	}
}

// Predictor is the prediction use case consumed by the handler.
type Predictor interface {
	Predict(ctx context.Context, ticker string) models.PredictionResult
}

// PredictEchoHandler serves the expected-return endpoint.
type PredictEchoHandler struct {
	logger    *xlogger.Logger
	predictor Predictor
	insights  domsvc.InsightGenerator
}

func NewPredictEchoHandler(logger *xlogger.Logger, predictor Predictor, insights domsvc.InsightGenerator) *PredictEchoHandler {
	return &PredictEchoHandler{logger: logger, predictor: predictor, insights: insights}
}

func (h *PredictEchoHandler) RegisterRoutes(g *echo.Group) {
	api := g.Group("/api")
	api.POST("/predict", h.Predict)
}

func (h *PredictEchoHandler) Predict(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx := c.Request().Context()

	res := h.predictor.Predict(ctx, req.Ticker)
	if !res.OK() {
		h.logger.Warn("predict request failed",
			xlogger.String("ticker", res.Ticker),
			xlogger.String("status", res.Status.String()),
			xlogger.Error(res.Err()),
		)
		return xhttp.AppErrorResponse(c, statusError(res))
	}

	out := models.PredictResponse{
		Ticker:          res.Ticker,
		PredictedReturn: res.Value,
		Status:          res.Status,
		Message:         res.Message,
		HorizonYears:    req.Years,
	}
	if h.insights != nil {
		in := h.insights.Generate(ctx, res.Ticker, *res.Value, req.Years)
		out.Analysis = in.Analysis
		out.LongTermOutlook = in.LongTermOutlookPercent
	}
	return xhttp.SuccessResponse(c, out)
}

// statusError maps a failed prediction onto the HTTP error taxonomy.
func statusError(res models.PredictionResult) *xhttp.AppError {
	var e *xhttp.AppError
	switch res.Status {
	case models.StatusNoData:
		e = xhttp.NotFoundError(res.Message)
	case models.StatusLoadError:
		e = xhttp.UnavailableError(res.Message)
	case models.StatusFeatureError, models.StatusInferenceError:
		e = xhttp.UnprocessableError(res.Message)
	default:
		e = xhttp.InternalError(res.Message)
	}
	return e.WithError(res.Err()).
		WithParam("status", res.Status.String()).
		WithParam("ticker", res.Ticker)
}
