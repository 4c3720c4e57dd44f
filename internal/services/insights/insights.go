package insights

import (
	"context"

	"FinSimples/internal/domain/models"
)

// UnavailableText is the analysis returned when no OpenAI key is configured.
const UnavailableText = "analysis unavailable: OpenAI API key not configured"

// Unavailable is the generator used when narratives are disabled.
type Unavailable struct{}

func (Unavailable) Generate(context.Context, string, float64, int) models.Insight {
	text := UnavailableText
	return models.Insight{Analysis: &text}
}

func textInsight(s string) models.Insight {
	return models.Insight{Analysis: &s}
}
