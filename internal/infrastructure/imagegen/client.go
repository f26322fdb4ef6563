// Package imagegen is the HTTP client for the image generation endpoint.
package imagegen

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"presentation-server/internal/domain/pipeline"
	"presentation-server/internal/domain/slideimage"
)

// Client implements the pipeline.Generator interface.
type Client struct {
	httpClient *resty.Client
}

// NewClient creates a Resty-backed client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 75 * time.Second
	}
	return &Client{
		httpClient: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json").
			SetTimeout(timeout),
	}
}

type generateRequest struct {
	ImagePrompt string `json:"imagePrompt"`
}

type generateResponse struct {
	Image struct {
		Base64   string `json:"base64"`
		MimeType string `json:"mimeType"`
		Width    int    `json:"width"`
		Height   int    `json:"height"`
	} `json:"image"`
	Provider string `json:"provider"`
	Error    string `json:"error"`
}

// Generate calls POST /presentations/generate-slide-image. A 429 surfaces as
// a rate-limit error whose message is preserved for user display; any other
// non-2xx surfaces the endpoint's error field.
func (c *Client) Generate(ctx context.Context, prompt string) (*pipeline.GenerationResult, error) {
	var result generateResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(generateRequest{ImagePrompt: prompt}).
		SetResult(&result).
		SetError(&result).
		Post("/presentations/generate-slide-image")
	if err != nil {
		return nil, slideimage.NewProviderError("image service unreachable").WithCause(err)
	}

	if resp.StatusCode() == http.StatusTooManyRequests {
		message := result.Error
		if message == "" {
			message = "image service is rate limited, please wait a moment before retrying"
		}
		return nil, slideimage.NewRateLimited(message)
	}
	if resp.IsError() {
		message := result.Error
		if message == "" {
			message = fmt.Sprintf("image service returned status %d", resp.StatusCode())
		}
		return nil, slideimage.NewProviderError(message)
	}

	data, err := base64.StdEncoding.DecodeString(result.Image.Base64)
	if err != nil {
		return nil, slideimage.NewProviderError("image service returned malformed image data").WithCause(err)
	}
	if len(data) == 0 {
		return nil, slideimage.NewProviderError("image service returned an empty image")
	}

	mime := result.Image.MimeType
	if mime == "" {
		mime = "image/png"
	}

	return &pipeline.GenerationResult{
		Data:     data,
		MimeType: mime,
		Width:    result.Image.Width,
		Height:   result.Image.Height,
		Provider: result.Provider,
	}, nil
}

// Ensure interface compliance.
var _ pipeline.Generator = (*Client)(nil)
