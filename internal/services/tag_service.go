package services

import (
	"context"
	"strings"

	"twobeats/internal/logger"
	"twobeats/internal/repositories"
	"twobeats/internal/services/dto"
	"twobeats/pkg/apperrors"

	"gorm.io/gorm"
)

type TagService interface {
	List(ctx context.Context, db *gorm.DB) ([]dto.TagResponse, error)
	// Create returns the existing tag when the name is taken
	Create(ctx context.Context, db *gorm.DB, req *dto.CreateTagRequest) (*dto.TagResponse, bool, error)
}

type TagServiceImpl struct {
	tagRepo repositories.TagRepository
}

func NewTagService(tagRepo repositories.TagRepository) TagService {
	return &TagServiceImpl{tagRepo: tagRepo}
}

func (s *TagServiceImpl) List(ctx context.Context, db *gorm.DB) ([]dto.TagResponse, error) {
	tags, err := s.tagRepo.List(db)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return tagResponses(tags), nil
}

func (s *TagServiceImpl) Create(ctx context.Context, db *gorm.DB, req *dto.CreateTagRequest) (*dto.TagResponse, bool, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, false, apperrors.ValidationError(map[string]string{"name": "must not be blank"})
	}

	tag, created, err := s.tagRepo.FirstOrCreate(db, name)
	if err != nil {
		return nil, false, apperrors.DatabaseError(err)
	}
	if created {
		logger.CtxInfo(ctx, "tag created", "tag_id", tag.ID, "name", tag.Name)
	}
	return &dto.TagResponse{ID: tag.ID, Name: tag.Name}, created, nil
}
