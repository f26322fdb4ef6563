package entities

import (
	"time"

	"gorm.io/datatypes"
)

// SlideImage represents one persisted generated image. Rows are append only;
// a changed prompt always creates a new row.
type SlideImage struct {
	ID               string `gorm:"type:varchar(40);primaryKey"`
	SlideID          string `gorm:"type:varchar(64);index"`
	Prompt           string `gorm:"type:text;not null;index:idx_slide_image_session_prompt,priority:2"`
	MimeType         string `gorm:"type:varchar(64);not null"`
	Data             []byte `gorm:"type:bytea;not null"`
	Width            int
	Height           int
	SessionID        string `gorm:"type:varchar(64);not null;index:idx_slide_image_session_prompt,priority:1"`
	UserID           string `gorm:"type:varchar(64);index"`
	Provider         string `gorm:"type:varchar(64)"`
	ProviderMetadata datatypes.JSON
	CreatedAt        time.Time `gorm:"autoCreateTime;index"`
}

func (SlideImage) TableName() string {
	return "slide_images"
}
