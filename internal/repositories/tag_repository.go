package repositories

import (
	"twobeats/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TagRepository interface {
	List(db *gorm.DB) ([]models.Tag, error)
	FindByIDs(db *gorm.DB, ids []uint) ([]models.Tag, error)
	// FirstOrCreate returns the tag with this name, creating it if needed.
	FirstOrCreate(db *gorm.DB, name string) (*models.Tag, bool, error)
}

type TagRepositoryImpl struct{}

func NewTagRepository() TagRepository {
	return &TagRepositoryImpl{}
}

func (r *TagRepositoryImpl) List(db *gorm.DB) ([]models.Tag, error) {
	var tags []models.Tag
	err := db.Order("name ASC").Find(&tags).Error
	return tags, err
}

func (r *TagRepositoryImpl) FindByIDs(db *gorm.DB, ids []uint) ([]models.Tag, error) {
	var tags []models.Tag
	if len(ids) == 0 {
		return tags, nil
	}
	err := db.Where("id IN ?", ids).Order("name ASC").Find(&tags).Error
	return tags, err
}

func (r *TagRepositoryImpl) FirstOrCreate(db *gorm.DB, name string) (*models.Tag, bool, error) {
	tag := models.Tag{Name: name}
	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&tag)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return &tag, true, nil
	}

	var existing models.Tag
	if err := db.Where("name = ?", name).First(&existing).Error; err != nil {
		return nil, false, err
	}
	return &existing, false, nil
}
