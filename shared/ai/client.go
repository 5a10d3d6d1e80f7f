package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// Generator is the upstream model boundary: one multimodal content-generation
// operation. Tests substitute deterministic stubs.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// GenerateRequest describes one call to the upstream model. Video is nil for
// text-only calls (formatting, multi-pass refinement).
type GenerateRequest struct {
	Model       string
	Instruction string
	Video       *VideoSource
	Temperature float64
	ForceJSON   bool
	Timeout     time.Duration
}

// GeminiClient implements Generator against the Gemini API.
type GeminiClient struct {
	client *genai.Client
}

func NewGeminiClient(apiKey string) (*GeminiClient, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{client: client}, nil
}

func (g *GeminiClient) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	parts := []*genai.Part{
		genai.NewPartFromText(req.Instruction),
	}
	if req.Video != nil {
		if req.Video.URL != "" {
			parts = append(parts, genai.NewPartFromURI(req.Video.URL, req.Video.MIMEType))
		} else {
			parts = append(parts, genai.NewPartFromBytes(req.Video.Data, req.Video.MIMEType))
		}
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	var cfg *genai.GenerateContentConfig
	if req.ForceJSON || req.Temperature > 0 {
		cfg = &genai.GenerateContentConfig{}
		if req.ForceJSON {
			cfg.ResponseMIMEType = "application/json"
		}
		if req.Temperature > 0 {
			cfg.Temperature = genai.Ptr(float32(req.Temperature))
		}
	}

	result, err := g.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return "", classifyUpstreamError(err)
	}

	return result.Text(), nil
}

// classifyUpstreamError maps a Gemini call failure onto the pipeline's
// taxonomy. The API surfaces bad video references as INVALID_ARGUMENT;
// everything else (network, timeout, rate limit) is retryable.
func classifyUpstreamError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("model call timed out: %w", ErrUpstreamUnavailable)
	}
	msg := err.Error()
	if strings.Contains(msg, "INVALID_ARGUMENT") || strings.Contains(msg, "unsupported file") {
		return fmt.Errorf("model rejected video reference: %v: %w", err, ErrInvalidInput)
	}
	return fmt.Errorf("model call failed: %v: %w", err, ErrUpstreamUnavailable)
}
