package models

// Request and response bodies of the prediction HTTP endpoint.

type PredictRequest struct {
	Ticker string `json:"ticker" validate:"required,max=16,ticker"`
	Years  int    `json:"years" default:"5" validate:"gte=1,lte=30"`
}

type PredictResponse struct {
	Ticker          string   `json:"ticker"`
	PredictedReturn *float64 `json:"predicted_return"`
	Status          Status   `json:"status"`
	Message         string   `json:"message"`
	Analysis        *string  `json:"analysis"`
	LongTermOutlook *float64 `json:"long_term_outlook"`
	HorizonYears    int      `json:"horizon_years"`
}
