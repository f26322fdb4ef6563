package handlers

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"presentation-server/internal/domain/pipeline"
	"presentation-server/internal/domain/slideimage"
	"presentation-server/internal/interfaces/httpserver/responses"
)

// DeckPipeline is the coordinator surface consumed by the deck endpoints.
type DeckPipeline interface {
	SetSession(ctx context.Context, sessionID, userID string) error
	UpdateDeck(ctx context.Context, slides []slideimage.Slide)
	Retry(ctx context.Context, slideID string) error
	SelectVersion(ctx context.Context, slideID string, index int) (slideimage.SlideImageState, error)
	NextVersion(ctx context.Context, slideID string) (slideimage.SlideImageState, int, error)
	PreviousVersion(ctx context.Context, slideID string) (slideimage.SlideImageState, int, error)
	Snapshot() []pipeline.SlideView
	Document() pipeline.Document
	QueueDepth() int
}

// DeckHandler exposes the deck lifecycle endpoints.
type DeckHandler struct {
	pipeline DeckPipeline
	log      zerolog.Logger
}

func NewDeckHandler(p DeckPipeline, log zerolog.Logger) *DeckHandler {
	return &DeckHandler{
		pipeline: p,
		log:      log.With().Str("component", "deck-handler").Logger(),
	}
}

type updateDeckRequest struct {
	UserID string             `json:"userId"`
	Slides []slideimage.Slide `json:"slides" binding:"required"`
}

type deckResponse struct {
	SessionID  string               `json:"sessionId"`
	QueueDepth int                  `json:"queueDepth"`
	Slides     []pipeline.SlideView `json:"slides"`
}

type versionResponse struct {
	SlideID string                     `json:"slideId"`
	Index   int                        `json:"index"`
	State   slideimage.SlideImageState `json:"state"`
}

// UpdateDeck replaces the session's deck. Changed slides are re-checked and
// queued for generation; unchanged slides keep their current images.
func (h *DeckHandler) UpdateDeck(c *gin.Context) {
	sessionID := c.Param("session_id")
	var req updateDeckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleBadRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := h.pipeline.SetSession(ctx, sessionID, req.UserID); err != nil {
		h.log.Error().Err(err).Str("session_id", sessionID).Msg("session load failed")
		responses.HandleError(c, err, "failed to load session")
		return
	}
	h.pipeline.UpdateDeck(ctx, req.Slides)

	c.JSON(http.StatusOK, deckResponse{
		SessionID:  sessionID,
		QueueDepth: h.pipeline.QueueDepth(),
		Slides:     h.pipeline.Snapshot(),
	})
}

// ListSlides returns the per-slide image states for a session.
func (h *DeckHandler) ListSlides(c *gin.Context) {
	sessionID := c.Param("session_id")
	if err := h.pipeline.SetSession(c.Request.Context(), sessionID, ""); err != nil {
		responses.HandleError(c, err, "failed to load session")
		return
	}

	c.JSON(http.StatusOK, deckResponse{
		SessionID:  sessionID,
		QueueDepth: h.pipeline.QueueDepth(),
		Slides:     h.pipeline.Snapshot(),
	})
}

// Retry re-runs generation for one slide, skipping the queue delay and the
// upfront cache check.
func (h *DeckHandler) Retry(c *gin.Context) {
	sessionID := c.Param("session_id")
	slideID := c.Param("slide_id")

	ctx := c.Request.Context()
	if err := h.pipeline.SetSession(ctx, sessionID, ""); err != nil {
		responses.HandleError(c, err, "failed to load session")
		return
	}
	if err := h.pipeline.Retry(ctx, slideID); err != nil {
		responses.HandleError(c, err, "retry failed")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"slideId": slideID, "status": "generating"})
}

// SelectVersion switches a slide to another stored prompt version. The
// :index segment is either a zero-based index or one of the keywords
// "next" and "previous".
func (h *DeckHandler) SelectVersion(c *gin.Context) {
	sessionID := c.Param("session_id")
	slideID := c.Param("slide_id")

	ctx := c.Request.Context()
	if err := h.pipeline.SetSession(ctx, sessionID, ""); err != nil {
		responses.HandleError(c, err, "failed to load session")
		return
	}

	var (
		state slideimage.SlideImageState
		index int
		err   error
	)
	switch raw := c.Param("index"); raw {
	case "next":
		state, index, err = h.pipeline.NextVersion(ctx, slideID)
	case "previous":
		state, index, err = h.pipeline.PreviousVersion(ctx, slideID)
	default:
		index, err = strconv.Atoi(raw)
		if err != nil {
			responses.HandleBadRequest(c, fmt.Errorf("version must be an index, %q or %q: %w", "next", "previous", err))
			return
		}
		state, err = h.pipeline.SelectVersion(ctx, slideID, index)
	}
	if err != nil {
		responses.HandleError(c, err, "version selection failed")
		return
	}

	c.JSON(http.StatusOK, versionResponse{SlideID: slideID, Index: index, State: state})
}

type documentSlide struct {
	SlideID string           `json:"slideId"`
	Slide   slideimage.Slide `json:"slide"`
	Image   string           `json:"image,omitempty"`
}

type documentResponse struct {
	SessionID   string          `json:"sessionId"`
	GeneratedAt string          `json:"generatedAt"`
	Slides      []documentSlide `json:"slides"`
	Warning     string          `json:"warning,omitempty"`
}

// Document exports the deck with every resolved image inlined as a data URI.
// Slides whose images are still pending are included without one, and the
// response carries a warning instead of failing.
func (h *DeckHandler) Document(c *gin.Context) {
	sessionID := c.Param("session_id")
	if err := h.pipeline.SetSession(c.Request.Context(), sessionID, ""); err != nil {
		responses.HandleError(c, err, "failed to load session")
		return
	}

	doc := h.pipeline.Document()
	out := documentResponse{
		SessionID:   doc.SessionID,
		GeneratedAt: doc.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"),
		Warning:     doc.Warning,
	}
	for _, slide := range doc.Slides {
		entry := documentSlide{SlideID: slide.SlideID, Slide: slide.Slide}
		if len(slide.Data) > 0 {
			entry.Image = fmt.Sprintf("data:%s;base64,%s", slide.MimeType, base64.StdEncoding.EncodeToString(slide.Data))
		}
		out.Slides = append(out.Slides, entry)
	}

	c.JSON(http.StatusOK, out)
}
