// Package slideimage provides the GORM-backed repository for persisted
// slide images.
package slideimage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	domain "presentation-server/internal/domain/slideimage"
	"presentation-server/internal/infrastructure/database/entities"
)

// PostgresRepository handles slide image persistence.
type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists one immutable image row.
func (r *PostgresRepository) Create(ctx context.Context, img *domain.GeneratedImage) error {
	entity := toEntity(img)
	if err := r.db.WithContext(ctx).Create(&entity).Error; err != nil {
		return fmt.Errorf("create slide image: %w", err)
	}
	return nil
}

// Find returns rows matching the filter, newest first.
func (r *PostgresRepository) Find(ctx context.Context, filter domain.Filter) ([]*domain.GeneratedImage, error) {
	query := r.db.WithContext(ctx).Model(&entities.SlideImage{})

	if filter.SessionID != "" {
		query = query.Where("session_id = ?", filter.SessionID)
	}
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Prompt != "" {
		query = query.Where("prompt = ?", filter.Prompt)
	}
	if filter.SlideID != "" {
		query = query.Where("slide_id = ?", filter.SlideID)
	}

	var rows []entities.SlideImage
	if err := query.Order("created_at DESC").Find(&rows).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find slide images: %w", err)
	}

	images := make([]*domain.GeneratedImage, 0, len(rows))
	for i := range rows {
		images = append(images, fromEntity(&rows[i]))
	}
	return images, nil
}

func toEntity(img *domain.GeneratedImage) entities.SlideImage {
	return entities.SlideImage{
		ID:               img.ID,
		SlideID:          img.SlideID,
		Prompt:           img.Prompt,
		MimeType:         img.MimeType,
		Data:             img.Data,
		Width:            img.Width,
		Height:           img.Height,
		SessionID:        img.SessionID,
		UserID:           img.UserID,
		Provider:         img.Provider,
		ProviderMetadata: datatypes.JSON(img.ProviderMetadata),
		CreatedAt:        img.CreatedAt,
	}
}

func fromEntity(e *entities.SlideImage) *domain.GeneratedImage {
	return &domain.GeneratedImage{
		ID:               e.ID,
		SlideID:          e.SlideID,
		Prompt:           e.Prompt,
		MimeType:         e.MimeType,
		Data:             e.Data,
		Width:            e.Width,
		Height:           e.Height,
		SessionID:        e.SessionID,
		UserID:           e.UserID,
		Provider:         e.Provider,
		ProviderMetadata: []byte(e.ProviderMetadata),
		CreatedAt:        e.CreatedAt,
	}
}

// Ensure interface compliance.
var _ domain.Repository = (*PostgresRepository)(nil)
