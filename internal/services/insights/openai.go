package insights

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"FinSimples/internal/domain/models"
	domrepo "FinSimples/internal/domain/repository"
	applogger "FinSimples/pkg/logger"
	xutil "FinSimples/pkg/util"

	"github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"
)

const systemPrompt = "Você é um analista financeiro que escreve para investidores iniciantes. " +
	"Responda sempre com um único objeto JSON válido, sem texto fora dele."

// OpenAI writes a beginner-friendly analysis of a prediction using a chat
// completion, grounded on the ticker's fundamentals.
type OpenAI struct {
	client       *openai.Client
	fundamentals domrepo.FundamentalsSource
	model        string
	temperature  float32
	timeout      time.Duration
	logger       *applogger.Logger
}

// Option configures OpenAI.
type Option func(*OpenAI)

func WithModel(model string) Option {
	return func(o *OpenAI) { o.model = model }
}

func WithTemperature(t float32) Option {
	return func(o *OpenAI) { o.temperature = t }
}

// WithTimeout bounds a whole Generate call, fundamentals included.
func WithTimeout(d time.Duration) Option {
	return func(o *OpenAI) { o.timeout = d }
}

func WithLogger(l *applogger.Logger) Option {
	return func(o *OpenAI) { o.logger = l }
}

// NewClient builds a go-openai client. An empty baseURL keeps the public API.
func NewClient(apiKey, baseURL string, httpClient *http.Client) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return openai.NewClientWithConfig(cfg)
}

func NewOpenAI(client *openai.Client, fundamentals domrepo.FundamentalsSource, opts ...Option) *OpenAI {
	o := &OpenAI{
		client:       client,
		fundamentals: fundamentals,
		model:        openai.GPT4o,
		temperature:  0.5,
		timeout:      45 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Generate never fails; problems are reported through the analysis text and
// a nil outlook.
func (o *OpenAI) Generate(ctx context.Context, ticker string, predictedReturn float64, horizonYears int) models.Insight {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	if horizonYears < 1 {
		horizonYears = 1
	}

	f, err := o.fundamentals.Fundamentals(ctx, ticker)
	if err != nil {
		o.logger.Warn("fundamentals unavailable", applogger.String("ticker", ticker), applogger.Error(err))
		return textInsight(fmt.Sprintf("analysis unavailable: fundamentals for %s could not be fetched", ticker))
	}
	if f.Empty() {
		return textInsight(fmt.Sprintf("analysis unavailable: no fundamentals reported for %s", ticker))
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: o.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(ticker, predictedReturn, horizonYears, f)},
		},
	})
	if err != nil {
		o.logger.Error("chat completion failed", applogger.String("ticker", ticker), applogger.Error(err))
		return textInsight(fmt.Sprintf("analysis failed: %s", xutil.Truncate(err.Error(), 200)))
	}
	if len(resp.Choices) == 0 {
		return textInsight("analysis failed: model returned no choices")
	}

	insight, err := parseReply(resp.Choices[0].Message.Content)
	if err != nil {
		o.logger.Warn("unusable model reply", applogger.String("ticker", ticker), applogger.Error(err))
		return textInsight(fmt.Sprintf("analysis failed: %v", err))
	}
	return insight
}

func parseReply(content string) (models.Insight, error) {
	if !gjson.Valid(content) {
		return models.Insight{}, errors.New("reply is not valid JSON")
	}
	doc := gjson.Parse(content)

	analysis := strings.TrimSpace(doc.Get("analysis").String())
	if analysis == "" {
		return models.Insight{}, errors.New("reply has no analysis")
	}
	out := models.Insight{Analysis: &analysis}

	switch v := doc.Get("long_term_return_percentage"); v.Type {
	case gjson.Number:
		p := v.Float()
		out.LongTermOutlookPercent = &p
	case gjson.String:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v.String()), "%"))
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			out.LongTermOutlookPercent = &f
		}
	}
	return out, nil
}

func buildPrompt(ticker string, predictedReturn float64, years int, f models.Fundamentals) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ação: %s\n", ticker)
	fmt.Fprintf(&b, "Retorno anual esperado pelo modelo: %.2f%%\n", predictedReturn*100)
	fmt.Fprintf(&b, "Horizonte do investidor: %d anos\n\n", years)
	b.WriteString("Indicadores fundamentalistas:\n")
	indicator(&b, "P/L", f.PriceEarnings, false)
	indicator(&b, "P/VP", f.PriceToBook, false)
	indicator(&b, "Dividend Yield", f.DividendYield, true)
	indicator(&b, "ROE", f.ROE, true)
	indicator(&b, "Liquidez Corrente", f.CurrentRatio, false)
	indicator(&b, "Dívida Líquida/Patrimônio", f.NetDebtToEquity, false)
	indicator(&b, "Margem Líquida", f.NetMargin, true)
	b.WriteString("\nEscreva em português, com linguagem simples, um texto com as seções ")
	b.WriteString("\"Análise da Ação\", \"Contexto\", \"Explicação do Resultado\", \"Prós\" e \"Contras\". ")
	fmt.Fprintf(&b, "Estime também o retorno acumulado em %d anos, em porcentagem. ", years)
	b.WriteString("Responda no formato {\"analysis\": string, \"long_term_return_percentage\": number}.")
	return b.String()
}

func indicator(b *strings.Builder, label string, v *float64, percent bool) {
	switch {
	case v == nil:
		fmt.Fprintf(b, "- %s: N/D\n", label)
	case percent:
		fmt.Fprintf(b, "- %s: %.2f%%\n", label, *v)
	default:
		fmt.Fprintf(b, "- %s: %.2f\n", label, *v)
	}
}
