package handlers

import (
	"github.com/rs/zerolog"

	"presentation-server/internal/domain/pipeline"
)

// Provider wires HTTP handlers.
type Provider struct {
	Deck     *DeckHandler
	Store    *StoreHandler
	Generate *GenerateHandler
}

func NewProvider(deckPipeline DeckPipeline, store ImageStore, generator pipeline.Generator, log zerolog.Logger) *Provider {
	return &Provider{
		Deck:     NewDeckHandler(deckPipeline, log),
		Store:    NewStoreHandler(store, log),
		Generate: NewGenerateHandler(generator, log),
	}
}
