package slideimage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"presentation-server/utils/imageid"
)

var allowedMIMEs = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
}

// Service implements the slide-image store behind the persistence endpoints.
type Service struct {
	repo          Repository
	maxImageBytes int64
	log           zerolog.Logger
}

func NewService(repo Repository, maxImageBytes int64, log zerolog.Logger) *Service {
	return &Service{
		repo:          repo,
		maxImageBytes: maxImageBytes,
		log:           log.With().Str("component", "slide-image-store").Logger(),
	}
}

// Save validates and persists one generated image row.
func (s *Service) Save(ctx context.Context, params SaveParams) (*GeneratedImage, error) {
	if strings.TrimSpace(params.Prompt) == "" {
		return nil, malformed("imagePrompt is required")
	}
	if strings.TrimSpace(params.SessionID) == "" {
		return nil, malformed("sessionId is required")
	}
	if len(params.Data) == 0 {
		return nil, malformed("image bytes are empty")
	}
	if s.maxImageBytes > 0 && int64(len(params.Data)) > s.maxImageBytes {
		return nil, malformed(fmt.Sprintf("image exceeds max size of %d bytes", s.maxImageBytes))
	}

	detected := mimetype.Detect(params.Data).String()
	if _, ok := allowedMIMEs[detected]; !ok {
		return nil, malformed(fmt.Sprintf("unsupported mime type %s", detected))
	}
	// Trust the detector over the caller when they disagree.
	mime := params.MimeType
	if mime == "" || mime != detected {
		mime = detected
	}

	img := &GeneratedImage{
		ID:               imageid.New(),
		SlideID:          params.SlideID,
		Prompt:           params.Prompt,
		MimeType:         mime,
		Data:             params.Data,
		Width:            params.Width,
		Height:           params.Height,
		SessionID:        params.SessionID,
		UserID:           params.UserID,
		Provider:         params.Provider,
		ProviderMetadata: params.ProviderMetadata,
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, img); err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("image_id", img.ID).
		Str("session_id", img.SessionID).
		Str("slide_id", img.SlideID).
		Int("bytes", len(img.Data)).
		Msg("persisted slide image")

	return img, nil
}

// Query returns stored rows matching the filter, newest first.
func (s *Service) Query(ctx context.Context, filter Filter) ([]*GeneratedImage, error) {
	if filter.SessionID == "" && filter.UserID == "" && filter.Prompt == "" {
		return nil, malformed("at least one of sessionId, userId or imagePrompt is required")
	}
	return s.repo.Find(ctx, filter)
}

func malformed(message string) *PipelineError {
	return &PipelineError{Code: ErrCodeMalformedInput, Message: message}
}
