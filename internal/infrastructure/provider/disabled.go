package provider

import (
	"context"

	"presentation-server/internal/domain/pipeline"
	"presentation-server/internal/domain/slideimage"
)

// Disabled stands in when no provider credentials are configured. Every call
// fails with a provider error so the pipeline reports the slide as failed
// instead of hanging.
type Disabled struct{}

func NewDisabled() *Disabled {
	return &Disabled{}
}

func (d *Disabled) Generate(ctx context.Context, prompt string) (*pipeline.GenerationResult, error) {
	perr := slideimage.NewProviderError("image provider is not configured")
	perr.Retryable = false
	return nil, perr
}

var _ pipeline.Generator = (*Disabled)(nil)
