package dto

import (
	"mime/multipart"
	"time"

	"twobeats/internal/models"
)

// ============================================
// REQUEST STRUCTURES
// ============================================

// StageRequest - first step of an upload: the raw file
type StageRequest struct {
	UserID uint                  `form:"-" json:"-"`
	Kind   models.MediaKind      `form:"-" json:"-"`
	File   *multipart.FileHeader `form:"-" json:"-"`
}

// MediaForm - the user-editable metadata of a music or video record.
// Detail and Duration only apply to video.
type MediaForm struct {
	Title    string `form:"title" json:"title" validate:"notblank,max=200"`
	Singer   string `form:"singer" json:"singer" validate:"max=200"`
	Type     string `form:"type" json:"type" validate:"max=64"`
	Detail   string `form:"detail" json:"detail" validate:"max=5000"`
	Duration *int   `form:"duration" json:"duration" validate:"omitempty,min=0,max=86400"`
	TagIDs   []uint `form:"tag_ids" json:"tag_ids" validate:"max=20"`

	Thumbnail *multipart.FileHeader `form:"-" json:"-"`
}

// FinalizeRequest - second step: attach metadata to a staged session
type FinalizeRequest struct {
	MediaForm
	UserID    uint             `form:"-" json:"-"`
	Kind      models.MediaKind `form:"-" json:"-"`
	SessionID string           `form:"-" json:"-"`
}

// ============================================
// RESPONSE STRUCTURES
// ============================================

// SuggestedFields are pre-filled form values derived from the file
type SuggestedFields struct {
	Title    string `json:"title"`
	Singer   string `json:"singer,omitempty"`
	Type     string `json:"type,omitempty"`
	Duration int    `json:"duration,omitempty"`
}

type UploadSessionResponse struct {
	ID           string               `json:"id"`
	Kind         models.MediaKind     `json:"kind"`
	Title        string               `json:"title"`
	OriginalName string               `json:"original_name"`
	MimeType     string               `json:"mime_type"`
	Size         int64                `json:"size"`
	Status       models.UploadStatus  `json:"status"`
	Metadata     models.ProbeMetadata `json:"metadata"`
	Suggested    SuggestedFields      `json:"suggested"`
	ExpiresAt    time.Time            `json:"expires_at"`
	CreatedAt    time.Time            `json:"created_at"`
}

// CleanupResult - outcome of a janitor run
type CleanupResult struct {
	Expired      int `json:"expired"`
	FilesRemoved int `json:"files_removed"`
	Failed       int `json:"failed"`
}
