package v1

import (
	"github.com/gin-gonic/gin"

	"presentation-server/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers *handlers.Provider
}

func NewRoutes(provider *handlers.Provider) *Routes {
	return &Routes{handlers: provider}
}

// Register attaches the deck routes under /v1 and the store/generation
// boundary endpoints under /presentations.
func (r *Routes) Register(router gin.IRouter) {
	group := router.Group("/v1")
	group.PUT("/decks/:session_id", r.handlers.Deck.UpdateDeck)
	group.GET("/decks/:session_id/slides", r.handlers.Deck.ListSlides)
	group.GET("/decks/:session_id/document", r.handlers.Deck.Document)
	group.POST("/decks/:session_id/slides/:slide_id/retry", r.handlers.Deck.Retry)
	// :index also accepts the keywords "next" and "previous".
	group.POST("/decks/:session_id/slides/:slide_id/versions/:index", r.handlers.Deck.SelectVersion)

	presentations := router.Group("/presentations")
	presentations.GET("/save-slide-image", r.handlers.Store.Query)
	presentations.POST("/save-slide-image", r.handlers.Store.Save)
	presentations.POST("/generate-slide-image", r.handlers.Generate.Generate)
}
