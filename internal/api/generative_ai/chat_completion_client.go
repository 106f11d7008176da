package generativeAI

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-food-course-suggestions/app/observability/metrics"
	"github.com/FACorreiaa/go-food-course-suggestions/config"
)

const providerChatCompletion = "openai"

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// ChatCompletionClient talks to an OpenAI compatible chat completions endpoint.
type ChatCompletionClient struct {
	client *resty.Client
	cfg    config.AIConfig
	logger *slog.Logger
}

func NewChatCompletionClient(client *resty.Client, cfg config.AIConfig, logger *slog.Logger) *ChatCompletionClient {
	client.SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json")
	return &ChatCompletionClient{
		client: client,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "ChatCompletionClient")),
	}
}

// Complete sends prompt as a single user message and returns the first choice.
func (c *ChatCompletionClient) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, span := otel.Tracer("AiRecommendationClient").Start(ctx, "Complete", trace.WithAttributes(
		attribute.String("ai.provider", providerChatCompletion),
		attribute.String("ai.model", c.cfg.Model),
		attribute.Int("prompt.length", len(prompt)),
	))
	defer span.End()
	l := c.logger.With(slog.String("method", "Complete"))

	start := time.Now()
	outcome := "error"
	defer func() {
		metrics.Get().AIRequestDurationSeconds.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
			attribute.String("provider", providerChatCompletion),
			attribute.String("outcome", outcome),
		))
	}()

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(chatCompletionRequest{
			Model:       c.cfg.Model,
			Messages:    []chatMessage{{Role: "user", Content: prompt}},
			Temperature: c.cfg.Temperature,
			MaxTokens:   c.cfg.MaxTokens,
		}).
		Post("/chat/completions")
	if err != nil {
		l.ErrorContext(ctx, "AI request failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "connection failed")
		return "", connectionFailed(err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode()))

	if resp.IsError() {
		appErr := classifyStatus(providerChatCompletion, resp.StatusCode(), resp.String())
		l.ErrorContext(ctx, "AI service returned an error", slog.Int("status", resp.StatusCode()), slog.Any("error", appErr))
		span.RecordError(appErr)
		span.SetStatus(codes.Error, appErr.Code)
		return "", appErr
	}

	var body chatCompletionResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		l.ErrorContext(ctx, "AI response envelope is not JSON", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "bad envelope")
		return "", emptyAnswer(providerChatCompletion)
	}
	if len(body.Choices) == 0 || body.Choices[0].Message.Content == "" {
		span.SetStatus(codes.Error, "no choices")
		return "", emptyAnswer(providerChatCompletion)
	}

	outcome = "ok"
	l.DebugContext(ctx, "AI answered", slog.Duration("took", time.Since(start)))
	span.SetStatus(codes.Ok, "")
	return body.Choices[0].Message.Content, nil
}
