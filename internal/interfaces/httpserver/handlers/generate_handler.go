package handlers

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"presentation-server/internal/domain/pipeline"
	"presentation-server/internal/interfaces/httpserver/responses"
)

// GenerateHandler exposes the image generation endpoint backed by the
// configured provider.
type GenerateHandler struct {
	generator pipeline.Generator
	log       zerolog.Logger
}

func NewGenerateHandler(generator pipeline.Generator, log zerolog.Logger) *GenerateHandler {
	return &GenerateHandler{
		generator: generator,
		log:       log.With().Str("component", "generate-handler").Logger(),
	}
}

type generateRequest struct {
	ImagePrompt string `json:"imagePrompt" binding:"required"`
}

type generatedImage struct {
	Base64   string `json:"base64"`
	MimeType string `json:"mimeType"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

type generateResponse struct {
	Image    generatedImage `json:"image"`
	Provider string         `json:"provider"`
}

// Generate renders one image from one prompt. Provider rate limits surface
// as 429 with a user-facing message; other provider failures as 502.
func (h *GenerateHandler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleBadRequest(c, err)
		return
	}
	if strings.TrimSpace(req.ImagePrompt) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "imagePrompt must not be empty"})
		return
	}

	result, err := h.generator.Generate(c.Request.Context(), req.ImagePrompt)
	if err != nil {
		h.log.Error().Err(err).Msg("image generation failed")
		responses.HandleError(c, err, "image generation failed")
		return
	}

	c.JSON(http.StatusOK, generateResponse{
		Image: generatedImage{
			Base64:   base64.StdEncoding.EncodeToString(result.Data),
			MimeType: result.MimeType,
			Width:    result.Width,
			Height:   result.Height,
		},
		Provider: result.Provider,
	})
}
