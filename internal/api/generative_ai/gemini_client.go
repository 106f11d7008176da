package generativeAI

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-food-course-suggestions/app/observability/metrics"
	"github.com/FACorreiaa/go-food-course-suggestions/config"
	"github.com/FACorreiaa/go-food-course-suggestions/internal/types"
)

const providerGemini = "gemini"

// GeminiClient completes prompts with the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
	logger *slog.Logger
}

// NewGeminiClient builds a client on httpClient so that calls share the
// instrumented transport and timeouts of the other upstream clients.
func NewGeminiClient(ctx context.Context, cfg config.AIConfig, httpClient *http.Client, logger *slog.Logger) (*GeminiClient, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "NewGeminiClient")
	defer span.End()

	if cfg.GeminiKey == "" {
		err := errors.New("gemini api key is not configured")
		span.RecordError(err)
		span.SetStatus(codes.Error, "API key not set")
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.GeminiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create Gemini client")
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	span.SetStatus(codes.Ok, "Gemini client created")
	return &GeminiClient{
		client: client,
		model:  cfg.GeminiModel,
		config: &genai.GenerateContentConfig{
			Temperature:      genai.Ptr(cfg.Temperature),
			MaxOutputTokens:  int32(cfg.MaxTokens),
			ResponseMIMEType: "application/json",
		},
		logger: logger.With(slog.String("component", "GeminiClient")),
	}, nil
}

func (g *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, span := otel.Tracer("AiRecommendationClient").Start(ctx, "Complete", trace.WithAttributes(
		attribute.String("ai.provider", providerGemini),
		attribute.String("ai.model", g.model),
		attribute.Int("prompt.length", len(prompt)),
	))
	defer span.End()

	start := time.Now()
	outcome := "error"
	defer func() {
		metrics.Get().AIRequestDurationSeconds.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
			attribute.String("provider", providerGemini),
			attribute.String("outcome", outcome),
		))
	}()

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), g.config)
	if err != nil {
		appErr := classifyGeminiError(err)
		g.logger.ErrorContext(ctx, "Gemini request failed", slog.Any("error", err), slog.String("code", appErr.Code))
		span.RecordError(err)
		span.SetStatus(codes.Error, appErr.Code)
		return "", appErr
	}

	text := result.Text()
	if text == "" {
		span.SetStatus(codes.Error, "empty answer")
		return "", emptyAnswer(providerGemini)
	}

	outcome = "ok"
	span.SetStatus(codes.Ok, "")
	return text, nil
}

func classifyGeminiError(err error) *types.AppError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(providerGemini, apiErr.Code, apiErr.Message)
	}
	return connectionFailed(err)
}
