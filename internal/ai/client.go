package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"

	"onboarding-copilot/internal/config"
	"onboarding-copilot/internal/logger"
	"onboarding-copilot/internal/telemetry"
)

// Sentinel errors surfaced to the API boundary. Callers match with
// errors.Is and must not substitute degraded output on either one.
var (
	ErrEmbeddingUnavailable = errors.New("embedding backend unavailable")
	ErrGenerationFailed     = errors.New("generation backend failed")
)

// Client wraps the Gemini API for embeddings and text generation with
// a circuit breaker and an upstream rate limiter shared by both paths.
type Client struct {
	client      *genai.Client
	breaker     *gobreaker.CircuitBreaker
	rateLimiter *rate.Limiter
	genModel    string
	embedModel  string
}

type RateLimits struct {
	RPM int // Requests per minute
	RPD int // Requests per day
}

func NewClient(cfg *config.Config) (*Client, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, err
	}

	limits := getRateLimits(cfg.GeminiTier)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	// RPM limit with some buffer
	rateLimiter := rate.NewLimiter(rate.Limit(float64(limits.RPM)*0.9/60.0), limits.RPM/10+1)

	return &Client{
		client:      client,
		breaker:     breaker,
		rateLimiter: rateLimiter,
		genModel:    cfg.GeminiModel,
		embedModel:  cfg.GoogleEmbeddingsModel,
	}, nil
}

func getRateLimits(tier string) RateLimits {
	switch tier {
	case "free":
		return RateLimits{RPM: 10, RPD: 250}
	case "tier1":
		return RateLimits{RPM: 1000, RPD: 10000}
	case "tier2":
		return RateLimits{RPM: 2000, RPD: 50000}
	default:
		return RateLimits{RPM: 10, RPD: 250}
	}
}

// Embed returns the embedding vector for the given text. The result
// is deterministic for identical input.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	tracer := otel.Tracer("gemini-client")
	ctx, span := tracer.Start(ctx, "gemini.embed_content")
	defer span.End()
	span.SetAttributes(
		attribute.Int("gemini.text_chars", len(text)),
		attribute.String("gemini.model", c.embedModel),
	)

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", ErrEmbeddingUnavailable, err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		model := c.client.EmbeddingModel(c.embedModel)
		resp, err := model.EmbedContent(ctx, genai.Text(text))
		if err != nil {
			return nil, err
		}
		if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
			return nil, fmt.Errorf("no embedding returned")
		}
		return resp.Embedding.Values, nil
	})
	telemetry.RecordGeminiCall(ctx, "embed_content", err == nil)
	if err != nil {
		span.SetAttributes(attribute.Bool("gemini.failed", true))
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}

	return result.([]float32), nil
}

// Generate produces text for the given prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	tracer := otel.Tracer("gemini-client")
	ctx, span := tracer.Start(ctx, "gemini.generate_content")
	defer span.End()
	span.SetAttributes(
		attribute.Int("gemini.prompt_chars", len(prompt)),
		attribute.String("gemini.model", c.genModel),
	)

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limiter: %v", ErrGenerationFailed, err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		model := c.client.GenerativeModel(c.genModel)
		model.SetTemperature(0.1)
		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return nil, err
		}
		return extractResponseText(resp)
	})
	telemetry.RecordGeminiCall(ctx, "generate_content", err == nil)
	if err != nil {
		span.SetAttributes(attribute.Bool("gemini.failed", true))
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	return result.(string), nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func extractResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from model")
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", fmt.Errorf("no text parts in response")
	}
	return out, nil
}
