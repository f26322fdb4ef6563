// Package slideimage defines the slide-image domain entities and the
// persistence service backing the slide-image store endpoints.
package slideimage

import (
	"encoding/json"
	"strconv"
	"time"
)

// Slide is one deck entry. It is owned by the upstream agent/editor; the
// pipeline only reads it.
type Slide struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	BackgroundColor string `json:"backgroundColor"`
	Style           string `json:"style"`
	ImagePrompt     string `json:"imagePrompt"`
}

// Key returns the slide identity, falling back to the positional index when
// the upstream deck omits an ID.
func (s Slide) Key(position int) string {
	if s.ID != "" {
		return s.ID
	}
	return "slide-" + strconv.Itoa(position)
}

// Fingerprint captures the fields whose change invalidates a rendered image.
// Two renders of the same slide compare equal iff none of them moved.
func (s Slide) Fingerprint() string {
	return s.ID + "\x1f" + s.ImagePrompt + "\x1f" + s.Title + "\x1f" + s.BackgroundColor + "\x1f" + s.Style
}

// GeneratedImage is one rendered image plus its metadata. Rows are immutable
// once created; a changed prompt produces a new row, never an overwrite.
type GeneratedImage struct {
	ID               string          `json:"id"`
	SlideID          string          `json:"slideId"`
	Prompt           string          `json:"imagePrompt"`
	MimeType         string          `json:"mimeType"`
	Data             []byte          `json:"bytes"`
	Width            int             `json:"width"`
	Height           int             `json:"height"`
	SessionID        string          `json:"sessionId"`
	UserID           string          `json:"userId"`
	Provider         string          `json:"provider,omitempty"`
	ProviderMetadata json.RawMessage `json:"providerMetadata,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// SlideImageState is the transient per-slide coordination state consumed by
// the UI layer. It is never persisted. The pipeline exposes raw bytes plus
// mime type; data-URI encoding is left to the consumer.
type SlideImageState struct {
	Status    SlideStatus     `json:"status"`
	Loading   bool            `json:"loading"`
	Image     *GeneratedImage `json:"image,omitempty"`
	Error     string          `json:"error,omitempty"`
	ErrorCode string          `json:"errorCode,omitempty"`
}

// QueueItem is one pending generation, consumed exactly once by the queue.
type QueueItem struct {
	SlideID  string
	Slide    Slide
	Position int
	Delay    time.Duration
}

// SaveParams is the payload accepted by the store when persisting a row.
type SaveParams struct {
	SlideID          string          `json:"slideId"`
	Prompt           string          `json:"imagePrompt" binding:"required"`
	MimeType         string          `json:"mimeType"`
	Data             []byte          `json:"bytes" binding:"required"`
	Width            int             `json:"width"`
	Height           int             `json:"height"`
	SessionID        string          `json:"sessionId" binding:"required"`
	UserID           string          `json:"userId"`
	Provider         string          `json:"provider"`
	ProviderMetadata json.RawMessage `json:"providerMetadata"`
}

// Filter narrows store queries. Zero-valued fields are not applied.
type Filter struct {
	SessionID string
	UserID    string
	Prompt    string
	SlideID   string
}
