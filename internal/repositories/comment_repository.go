package repositories

import (
	"errors"

	"twobeats/internal/models"

	"gorm.io/gorm"
)

type CommentRepository interface {
	List(db *gorm.DB, kind models.MediaKind, itemID uint, page, pageSize int) ([]models.Comment, int64, error)
	Create(db *gorm.DB, kind models.MediaKind, userID, itemID uint, content string) (*models.Comment, error)
	FindByID(db *gorm.DB, kind models.MediaKind, id uint) (*models.Comment, error)
	Delete(db *gorm.DB, kind models.MediaKind, id uint) error
	Count(db *gorm.DB, kind models.MediaKind, itemID uint) (int64, error)
}

type CommentRepositoryImpl struct{}

func NewCommentRepository() CommentRepository {
	return &CommentRepositoryImpl{}
}

// List returns comments newest first.
func (r *CommentRepositoryImpl) List(db *gorm.DB, kind models.MediaKind, itemID uint, page, pageSize int) ([]models.Comment, int64, error) {
	total, err := r.Count(db, kind, itemID)
	if err != nil {
		return nil, 0, err
	}

	q := paginate(db.Preload("User").Where(kind.ItemColumn()+" = ?", itemID), page, pageSize).
		Order("created_at DESC").Order("id DESC")

	out := make([]models.Comment, 0)
	switch kind {
	case models.KindMusic:
		var rows []models.MusicComment
		if err := q.Find(&rows).Error; err != nil {
			return nil, 0, err
		}
		for _, c := range rows {
			out = append(out, c.View())
		}
	case models.KindVideo:
		var rows []models.VideoComment
		if err := q.Find(&rows).Error; err != nil {
			return nil, 0, err
		}
		for _, c := range rows {
			out = append(out, c.View())
		}
	default:
		return nil, 0, ErrUnknownKind
	}
	return out, total, nil
}

func (r *CommentRepositoryImpl) Create(db *gorm.DB, kind models.MediaKind, userID, itemID uint, content string) (*models.Comment, error) {
	switch kind {
	case models.KindMusic:
		c := models.MusicComment{UserID: userID, MusicID: itemID, Content: content}
		if err := db.Create(&c).Error; err != nil {
			return nil, err
		}
		return r.FindByID(db, kind, c.ID)
	case models.KindVideo:
		c := models.VideoComment{UserID: userID, VideoID: itemID, Content: content}
		if err := db.Create(&c).Error; err != nil {
			return nil, err
		}
		return r.FindByID(db, kind, c.ID)
	}
	return nil, ErrUnknownKind
}

func (r *CommentRepositoryImpl) FindByID(db *gorm.DB, kind models.MediaKind, id uint) (*models.Comment, error) {
	var view models.Comment
	var err error
	switch kind {
	case models.KindMusic:
		var c models.MusicComment
		if err = db.Preload("User").First(&c, id).Error; err == nil {
			view = c.View()
		}
	case models.KindVideo:
		var c models.VideoComment
		if err = db.Preload("User").First(&c, id).Error; err == nil {
			view = c.View()
		}
	default:
		return nil, ErrUnknownKind
	}

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return &view, nil
}

func (r *CommentRepositoryImpl) Delete(db *gorm.DB, kind models.MediaKind, id uint) error {
	res := db.Where("id = ?", id).Delete(kind.NewComment())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCommentNotFound
	}
	return nil
}

// Count counts the comments attached to one item.
func (r *CommentRepositoryImpl) Count(db *gorm.DB, kind models.MediaKind, itemID uint) (int64, error) {
	var count int64
	err := db.Table(kind.CommentTable()).Where(kind.ItemColumn()+" = ?", itemID).Count(&count).Error
	return count, err
}
