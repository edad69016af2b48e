package services

import (
	"context"
	"strings"

	"twobeats/internal/logger"
	"twobeats/internal/models"
	"twobeats/internal/repositories"
	"twobeats/internal/services/dto"
	"twobeats/pkg/apperrors"

	"gorm.io/gorm"
)

type InteractionService interface {
	// Play counts one play (music) or view (video) and returns the new count
	Play(ctx context.Context, db *gorm.DB, kind models.MediaKind, id uint) (int64, error)

	// ToggleLike likes the item, or removes the like when it exists
	ToggleLike(ctx context.Context, db *gorm.DB, kind models.MediaKind, userID, id uint) (*dto.LikeResponse, error)
	LikeStatus(ctx context.Context, db *gorm.DB, kind models.MediaKind, userID, id uint) (*dto.LikeResponse, error)

	// Comments
	ListComments(ctx context.Context, db *gorm.DB, kind models.MediaKind, id uint, page, pageSize int) (*dto.CommentListResponse, error)
	AddComment(ctx context.Context, db *gorm.DB, kind models.MediaKind, userID, id uint, req *dto.CommentRequest) (*dto.CommentResponse, error)
	DeleteComment(ctx context.Context, db *gorm.DB, kind models.MediaKind, userID, commentID uint) (*dto.CommentResponse, error)
}

type InteractionServiceImpl struct {
	mediaRepo   repositories.MediaRepository
	likeRepo    repositories.LikeRepository
	commentRepo repositories.CommentRepository
	publisher   CounterPublisher
}

func NewInteractionService(
	mediaRepo repositories.MediaRepository,
	likeRepo repositories.LikeRepository,
	commentRepo repositories.CommentRepository,
	publisher CounterPublisher,
) InteractionService {
	if publisher == nil {
		publisher = NoopPublisher
	}
	return &InteractionServiceImpl{
		mediaRepo:   mediaRepo,
		likeRepo:    likeRepo,
		commentRepo: commentRepo,
		publisher:   publisher,
	}
}

// ============================================
// PLAYS
// ============================================

func (s *InteractionServiceImpl) Play(ctx context.Context, db *gorm.DB, kind models.MediaKind, id uint) (int64, error) {
	var counters *repositories.Counters
	err := inTransaction(db, func(tx *gorm.DB) error {
		if err := s.mediaRepo.IncrementPlays(tx, kind, id); err != nil {
			return err
		}
		var err error
		counters, err = s.mediaRepo.GetCounters(tx, kind, id)
		return err
	})
	if err != nil {
		return 0, handleRepoError(kind, err)
	}

	s.publisher.PublishCounters(counters)
	return counters.PlayCount, nil
}

// ============================================
// LIKES
// ============================================

func (s *InteractionServiceImpl) ToggleLike(ctx context.Context, db *gorm.DB, kind models.MediaKind, userID, id uint) (*dto.LikeResponse, error) {
	var counters *repositories.Counters
	var liked bool

	err := inTransaction(db, func(tx *gorm.DB) error {
		exists, err := s.mediaRepo.Exists(tx, kind, id)
		if err != nil {
			return err
		}
		if !exists {
			return repositories.ErrMediaNotFound
		}

		removed, err := s.likeRepo.Delete(tx, kind, userID, id)
		if err != nil {
			return err
		}
		if removed {
			if err := s.mediaRepo.AdjustLikes(tx, kind, id, -1); err != nil {
				return err
			}
		} else {
			added, err := s.likeRepo.Create(tx, kind, userID, id)
			if err != nil {
				return err
			}
			if added {
				if err := s.mediaRepo.AdjustLikes(tx, kind, id, 1); err != nil {
					return err
				}
			}
			liked = true
		}

		counters, err = s.mediaRepo.GetCounters(tx, kind, id)
		return err
	})
	if err != nil {
		return nil, handleRepoError(kind, err)
	}

	s.publisher.PublishCounters(counters)
	logger.CtxDebug(ctx, "like toggled", "kind", kind, "id", id, "liked", liked, "like_count", counters.LikeCount)
	return &dto.LikeResponse{Success: true, IsLiked: liked, LikeCount: counters.LikeCount}, nil
}

func (s *InteractionServiceImpl) LikeStatus(ctx context.Context, db *gorm.DB, kind models.MediaKind, userID, id uint) (*dto.LikeResponse, error) {
	counters, err := s.mediaRepo.GetCounters(db, kind, id)
	if err != nil {
		return nil, handleRepoError(kind, err)
	}
	liked, err := s.likeRepo.Exists(db, kind, userID, id)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return &dto.LikeResponse{Success: true, IsLiked: liked, LikeCount: counters.LikeCount}, nil
}

// ============================================
// COMMENTS
// ============================================

func (s *InteractionServiceImpl) ListComments(ctx context.Context, db *gorm.DB, kind models.MediaKind, id uint, page, pageSize int) (*dto.CommentListResponse, error) {
	exists, err := s.mediaRepo.Exists(db, kind, id)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if !exists {
		return nil, mediaNotFound(kind)
	}

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	items, total, err := s.commentRepo.List(db, kind, id, page, pageSize)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return &dto.CommentListResponse{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *InteractionServiceImpl) AddComment(ctx context.Context, db *gorm.DB, kind models.MediaKind, userID, id uint, req *dto.CommentRequest) (*dto.CommentResponse, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apperrors.ValidationError(map[string]string{"content": "must not be blank"})
	}

	var comment *models.Comment
	var counters *repositories.Counters
	err := inTransaction(db, func(tx *gorm.DB) error {
		exists, err := s.mediaRepo.Exists(tx, kind, id)
		if err != nil {
			return err
		}
		if !exists {
			return repositories.ErrMediaNotFound
		}
		if comment, err = s.commentRepo.Create(tx, kind, userID, id, content); err != nil {
			return err
		}
		counters, err = s.mediaRepo.GetCounters(tx, kind, id)
		return err
	})
	if err != nil {
		return nil, handleRepoError(kind, err)
	}

	s.publisher.PublishCounters(counters)
	logger.CtxInfo(ctx, "comment added", "kind", kind, "id", id, "comment_id", comment.ID)
	return &dto.CommentResponse{Success: true, Comment: comment, CommentCount: counters.CommentCount}, nil
}

// DeleteComment removes a comment of the caller. Other users get 403.
func (s *InteractionServiceImpl) DeleteComment(ctx context.Context, db *gorm.DB, kind models.MediaKind, userID, commentID uint) (*dto.CommentResponse, error) {
	var counters *repositories.Counters
	err := inTransaction(db, func(tx *gorm.DB) error {
		comment, err := s.commentRepo.FindByID(tx, kind, commentID)
		if err != nil {
			return err
		}
		if comment.UserID != userID {
			return apperrors.ErrCommentNotOwned
		}
		if err := s.commentRepo.Delete(tx, kind, commentID); err != nil {
			return err
		}
		counters, err = s.mediaRepo.GetCounters(tx, kind, comment.ItemID)
		return err
	})
	if err != nil {
		return nil, handleRepoError(kind, err)
	}

	s.publisher.PublishCounters(counters)
	logger.CtxInfo(ctx, "comment deleted", "kind", kind, "comment_id", commentID)
	return &dto.CommentResponse{Success: true, CommentCount: counters.CommentCount}, nil
}
