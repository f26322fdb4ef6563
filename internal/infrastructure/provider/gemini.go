// Package provider implements the Gemini-backed image renderer behind the
// generate-slide-image endpoint.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"presentation-server/internal/domain/pipeline"
	"presentation-server/internal/domain/retry"
	"presentation-server/internal/domain/slideimage"
)

// GeminiProvider renders images through the Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
	policy retry.Policy
	log    zerolog.Logger
}

// NewGeminiProvider creates a Gemini client for the given model.
func NewGeminiProvider(ctx context.Context, apiKey, model string, log zerolog.Logger) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiProvider{
		client: client,
		model:  model,
		policy: retry.DefaultPolicy(),
		log:    log.With().Str("component", "gemini-provider").Logger(),
	}, nil
}

// Generate renders one image from one prompt. Transient provider failures
// are retried with backoff; rate limits and safety blocks surface directly.
func (p *GeminiProvider) Generate(ctx context.Context, prompt string) (*pipeline.GenerationResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, &slideimage.PipelineError{
			Code:    slideimage.ErrCodeMalformedInput,
			Message: "image prompt is empty",
		}
	}

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}

	return retry.ExecuteWithResult(ctx, p.policy, func(ctx context.Context, attempt int) (*pipeline.GenerationResult, error) {
		if attempt > 0 {
			p.log.Warn().Int("attempt", attempt).Msg("retrying image generation")
		}
		resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), config)
		if err != nil {
			perr := classifyGeminiError(err)
			if !perr.Retryable || slideimage.IsRateLimited(perr) {
				return nil, retry.Permanent(perr)
			}
			return nil, perr
		}
		result, err := extractImage(resp)
		if err != nil {
			return nil, retry.Permanent(err)
		}
		return result, nil
	})
}

func extractImage(resp *genai.GenerateContentResponse) (*pipeline.GenerationResult, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, slideimage.NewProviderError("provider returned no candidates")
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == "SAFETY" {
		return nil, slideimage.NewProviderError("image generation was blocked by the provider's safety filter")
	}
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, slideimage.NewProviderError("provider response contained no content")
	}

	for _, part := range candidate.Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		width, height := imageDimensions(part.InlineData.Data)
		metadata, _ := json.Marshal(map[string]string{
			"finishReason": string(candidate.FinishReason),
		})
		return &pipeline.GenerationResult{
			Data:     part.InlineData.Data,
			MimeType: part.InlineData.MIMEType,
			Width:    width,
			Height:   height,
			Provider: "gemini",
			Metadata: metadata,
		}, nil
	}

	return nil, slideimage.NewProviderError("provider response contained no image data")
}

func imageDimensions(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

func classifyGeminiError(err error) *slideimage.PipelineError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return slideimage.NewRateLimited("image provider is rate limited, please wait before retrying").WithCause(err)
		case apiErr.Code >= 500:
			return slideimage.NewProviderError("image provider is temporarily unavailable").WithCause(err)
		default:
			perr := slideimage.NewProviderError(apiErr.Message).WithCause(err)
			perr.Retryable = false
			return perr
		}
	}

	msg := err.Error()
	if strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED") {
		return slideimage.NewRateLimited("image provider is rate limited, please wait before retrying").WithCause(err)
	}
	return slideimage.NewProviderError("image generation failed").WithCause(err)
}

// Ensure interface compliance.
var _ pipeline.Generator = (*GeminiProvider)(nil)
