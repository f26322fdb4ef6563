package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"presentation-server/internal/domain/slideimage"
	"presentation-server/internal/interfaces/httpserver/responses"
)

// ImageStore is the persistence surface consumed by the store endpoints.
type ImageStore interface {
	Save(ctx context.Context, params slideimage.SaveParams) (*slideimage.GeneratedImage, error)
	Query(ctx context.Context, filter slideimage.Filter) ([]*slideimage.GeneratedImage, error)
}

// StoreHandler exposes the persistent image store over HTTP.
type StoreHandler struct {
	store ImageStore
	log   zerolog.Logger
}

func NewStoreHandler(store ImageStore, log zerolog.Logger) *StoreHandler {
	return &StoreHandler{
		store: store,
		log:   log.With().Str("component", "store-handler").Logger(),
	}
}

type queryResponse struct {
	SlideImages []*slideimage.GeneratedImage `json:"slideImages"`
}

type saveResponse struct {
	SlideImage *slideimage.GeneratedImage `json:"slideImage"`
}

// Query returns stored images matching the query parameters, newest first.
// At least one of imagePrompt, sessionId, userId or slideId must be set.
func (h *StoreHandler) Query(c *gin.Context) {
	filter := slideimage.Filter{
		Prompt:    c.Query("imagePrompt"),
		SessionID: c.Query("sessionId"),
		UserID:    c.Query("userId"),
		SlideID:   c.Query("slideId"),
	}

	rows, err := h.store.Query(c.Request.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("image query failed")
		responses.HandleError(c, err, "image query failed")
		return
	}
	if rows == nil {
		rows = []*slideimage.GeneratedImage{}
	}

	c.JSON(http.StatusOK, queryResponse{SlideImages: rows})
}

// Save persists one generated image. Rows are immutable; saving the same
// prompt again creates a new row.
func (h *StoreHandler) Save(c *gin.Context) {
	var params slideimage.SaveParams
	if err := c.ShouldBindJSON(&params); err != nil {
		responses.HandleBadRequest(c, err)
		return
	}

	img, err := h.store.Save(c.Request.Context(), params)
	if err != nil {
		h.log.Error().Err(err).Str("session_id", params.SessionID).Msg("image save failed")
		responses.HandleError(c, err, "image save failed")
		return
	}

	c.JSON(http.StatusOK, saveResponse{SlideImage: img})
}
