package dto

import (
	"mime/multipart"
	"time"
)

// MediaListQuery - list filters
type MediaListQuery struct {
	Tag      string `form:"tag" validate:"max=64"`
	Q        string `form:"q" validate:"max=200"`
	OwnerID  uint   `form:"owner_id"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"page_size" validate:"omitempty,min=1,max=100"`
}

// CreateMediaRequest - one-shot create, file and metadata together
type CreateMediaRequest struct {
	MediaForm
	UserID uint                  `form:"-" json:"-"`
	File   *multipart.FileHeader `form:"-" json:"-"`
}

// UpdateMediaRequest - partial update; nil fields are left unchanged
type UpdateMediaRequest struct {
	Title    *string `form:"title" json:"title" validate:"omitempty,notblank,max=200"`
	Singer   *string `form:"singer" json:"singer" validate:"omitempty,max=200"`
	Type     *string `form:"type" json:"type" validate:"omitempty,max=64"`
	Detail   *string `form:"detail" json:"detail" validate:"omitempty,max=5000"`
	Duration *int    `form:"duration" json:"duration" validate:"omitempty,min=0,max=86400"`
	TagIDs   []uint  `form:"tag_ids" json:"tag_ids" validate:"max=20"`

	// ReplaceTags is set when tag_ids was sent at all, even empty.
	ReplaceTags bool                  `form:"-" json:"-"`
	File        *multipart.FileHeader `form:"-" json:"-"`
	Thumbnail   *multipart.FileHeader `form:"-" json:"-"`
}

type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

type TagResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type MusicResponse struct {
	ID           uint          `json:"id"`
	Title        string        `json:"title"`
	Singer       string        `json:"singer"`
	Type         string        `json:"type"`
	FileURL      string        `json:"file_url"`
	ThumbnailURL string        `json:"thumbnail_url,omitempty"`
	Owner        UserSummary   `json:"owner"`
	PlayCount    int64         `json:"play_count"`
	LikeCount    int64         `json:"like_count"`
	CommentCount *int64        `json:"comment_count,omitempty"`
	IsLiked      *bool         `json:"is_liked,omitempty"`
	Tags         []TagResponse `json:"tags"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

type VideoResponse struct {
	ID           uint          `json:"id"`
	Title        string        `json:"title"`
	Singer       string        `json:"singer"`
	Type         string        `json:"type"`
	Detail       string        `json:"detail"`
	Duration     int           `json:"duration"`
	FileURL      string        `json:"file_url"`
	ThumbnailURL string        `json:"thumbnail_url,omitempty"`
	Owner        UserSummary   `json:"owner"`
	ViewCount    int64         `json:"view_count"`
	LikeCount    int64         `json:"like_count"`
	CommentCount *int64        `json:"comment_count,omitempty"`
	IsLiked      *bool         `json:"is_liked,omitempty"`
	Tags         []TagResponse `json:"tags"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

type MusicListResponse struct {
	Items    []*MusicResponse `json:"items"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

type VideoListResponse struct {
	Items    []*VideoResponse `json:"items"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// CreateTagRequest - create a tag by name
type CreateTagRequest struct {
	Name string `json:"name" validate:"notblank,max=64,tag-name"`
}
