// Package pipeline implements the slide-image generation pipeline: the
// dedup cache, in-flight tracker, rate-staggered generation queue, version
// manager and the coordinator that owns them.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"

	"presentation-server/internal/domain/slideimage"
)

// Sentinel errors returned by coordinator operations.
var (
	ErrUnknownSlide   = errors.New("unknown slide")
	ErrNoPrompt       = errors.New("slide has no image prompt")
	ErrAlreadyRunning = errors.New("generation already in flight for this slide")
	ErrNoSuchVersion  = errors.New("no such version")
)

// Generator renders one image from one prompt. Implementations call the
// image generation endpoint; rate limiting and transient failures surface
// as slideimage.PipelineError values.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*GenerationResult, error)
}

// Store is the persistent image store boundary. Both reads and writes go
// through the HTTP contract; the pipeline never sees the backing database.
type Store interface {
	// Query returns rows matching the filter, newest first.
	Query(ctx context.Context, filter slideimage.Filter) ([]*slideimage.GeneratedImage, error)

	// Save persists one generated image row.
	Save(ctx context.Context, params slideimage.SaveParams) (*slideimage.GeneratedImage, error)
}

// GenerationResult is the provider's answer for one prompt.
type GenerationResult struct {
	Data     []byte
	MimeType string
	Width    int
	Height   int
	Provider string
	Metadata json.RawMessage
}
