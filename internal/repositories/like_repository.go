package repositories

import (
	"twobeats/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LikeRepository interface {
	Exists(db *gorm.DB, kind models.MediaKind, userID, itemID uint) (bool, error)
	// Create inserts the like and reports whether a row was actually added.
	Create(db *gorm.DB, kind models.MediaKind, userID, itemID uint) (bool, error)
	// Delete removes the like and reports whether a row was actually removed.
	Delete(db *gorm.DB, kind models.MediaKind, userID, itemID uint) (bool, error)
}

type LikeRepositoryImpl struct{}

func NewLikeRepository() LikeRepository {
	return &LikeRepositoryImpl{}
}

func (r *LikeRepositoryImpl) Exists(db *gorm.DB, kind models.MediaKind, userID, itemID uint) (bool, error) {
	var count int64
	err := db.Table(kind.LikeTable()).
		Where("user_id = ? AND "+kind.ItemColumn()+" = ?", userID, itemID).
		Count(&count).Error
	return count > 0, err
}

func (r *LikeRepositoryImpl) Create(db *gorm.DB, kind models.MediaKind, userID, itemID uint) (bool, error) {
	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(kind.NewLike(userID, itemID))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *LikeRepositoryImpl) Delete(db *gorm.DB, kind models.MediaKind, userID, itemID uint) (bool, error) {
	res := db.Where("user_id = ? AND "+kind.ItemColumn()+" = ?", userID, itemID).
		Delete(kind.NewLike(0, 0))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
