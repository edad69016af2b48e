package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UploadSession is a file staged under the temporary namespace, waiting for
// the metadata that turns it into a Music or Video record.
type UploadSession struct {
	ID           string         `gorm:"primaryKey;size:36" json:"id"`
	UserID       uint           `gorm:"not null;index:idx_upload_dup" json:"user_id"`
	Kind         MediaKind      `gorm:"size:16;not null;index:idx_upload_dup" json:"kind"`
	Title        string         `gorm:"size:255;not null;index:idx_upload_dup" json:"title"`
	OriginalName string         `gorm:"size:255;not null" json:"original_name"`
	TempPath     string         `gorm:"not null" json:"temp_path"`
	MimeType     string         `gorm:"size:100" json:"mime_type"`
	Size         int64          `json:"size"`
	Metadata     datatypes.JSON `json:"metadata"`
	Status       UploadStatus   `gorm:"size:16;not null;index" json:"status"`
	ExpiresAt    time.Time      `gorm:"index" json:"expires_at"`
	MediaID      *uint          `json:"media_id,omitempty"`
	CreatedAt    time.Time      `gorm:"index:idx_upload_dup" json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func (UploadSession) TableName() string { return "upload_sessions" }

func (s *UploadSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Status == "" {
		s.Status = UploadStatusStaged
	}
	return nil
}

// ProbeMetadata is what the stager learned about the file, stored as JSON.
type ProbeMetadata struct {
	Title       string  `json:"title,omitempty"`
	Artist      string  `json:"artist,omitempty"`
	Album       string  `json:"album,omitempty"`
	Genre       string  `json:"genre,omitempty"`
	Year        int     `json:"year,omitempty"`
	HasCoverArt bool    `json:"has_cover_art,omitempty"`
	Duration    float64 `json:"duration,omitempty"` // seconds
	Width       int     `json:"width,omitempty"`
	Height      int     `json:"height,omitempty"`
	Sniffed     string  `json:"sniffed,omitempty"`
}
