// Package imagestore is the HTTP client for the persistent image store.
package imagestore

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"presentation-server/internal/domain/pipeline"
	"presentation-server/internal/domain/slideimage"
)

// Client implements the pipeline.Store interface.
type Client struct {
	httpClient *resty.Client
}

// NewClient creates a Resty-backed client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json").
			SetTimeout(timeout),
	}
}

type queryResponse struct {
	SlideImages []*slideimage.GeneratedImage `json:"slideImages"`
	Error       string                       `json:"error"`
}

type saveResponse struct {
	SlideImage *slideimage.GeneratedImage `json:"slideImage"`
	Error      string                     `json:"error"`
}

// Query calls GET /presentations/save-slide-image with the filter as query
// parameters. Used both for per-prompt hit checks and bulk session loads.
func (c *Client) Query(ctx context.Context, filter slideimage.Filter) ([]*slideimage.GeneratedImage, error) {
	params := map[string]string{}
	if filter.Prompt != "" {
		params["imagePrompt"] = filter.Prompt
	}
	if filter.SessionID != "" {
		params["sessionId"] = filter.SessionID
	}
	if filter.UserID != "" {
		params["userId"] = filter.UserID
	}
	if filter.SlideID != "" {
		params["slideId"] = filter.SlideID
	}

	var result queryResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&result).
		SetError(&result).
		Get("/presentations/save-slide-image")
	if err != nil {
		return nil, fmt.Errorf("query image store: %w", err)
	}
	if resp.IsError() {
		if result.Error != "" {
			return nil, fmt.Errorf("image store error: %s", result.Error)
		}
		return nil, fmt.Errorf("image store returned status %d", resp.StatusCode())
	}

	return result.SlideImages, nil
}

// Save calls POST /presentations/save-slide-image to persist one row.
func (c *Client) Save(ctx context.Context, params slideimage.SaveParams) (*slideimage.GeneratedImage, error) {
	var result saveResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(params).
		SetResult(&result).
		SetError(&result).
		Post("/presentations/save-slide-image")
	if err != nil {
		return nil, fmt.Errorf("save to image store: %w", err)
	}
	if resp.IsError() {
		if result.Error != "" {
			return nil, fmt.Errorf("image store error: %s", result.Error)
		}
		return nil, fmt.Errorf("image store returned status %d", resp.StatusCode())
	}

	return result.SlideImage, nil
}

// Ensure interface compliance.
var _ pipeline.Store = (*Client)(nil)
