package dto

import (
	"twobeats/internal/models"
)

type CommentRequest struct {
	Content string `form:"content" json:"content" validate:"notblank,max=1000"`
}

type LikeResponse struct {
	Success   bool  `json:"success"`
	IsLiked   bool  `json:"is_liked"`
	LikeCount int64 `json:"like_count"`
}

type CommentResponse struct {
	Success      bool            `json:"success"`
	Comment      *models.Comment `json:"comment,omitempty"`
	CommentCount int64           `json:"comment_count"`
}

type CommentListResponse struct {
	Items    []models.Comment `json:"items"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}
