package slideimage

import "context"

// Repository defines persistence operations needed by the store service.
type Repository interface {
	// Create persists one immutable image row.
	Create(ctx context.Context, img *GeneratedImage) error

	// Find returns rows matching the filter, newest first.
	Find(ctx context.Context, filter Filter) ([]*GeneratedImage, error)
}
