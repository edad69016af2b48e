package repositories

import (
	"errors"
	"time"

	"twobeats/internal/models"

	"gorm.io/gorm"
)

type UploadSessionRepository interface {
	Create(db *gorm.DB, s *models.UploadSession) error
	FindByID(db *gorm.DB, id string) (*models.UploadSession, error)
	FindForUser(db *gorm.DB, id string, userID uint, kind models.MediaKind) (*models.UploadSession, error)
	ExistsRecentDuplicate(db *gorm.DB, userID uint, kind models.MediaKind, title string, since time.Time) (bool, error)
	// Transition moves a staged session to status. It reports false when the
	// session had already left the staged state.
	Transition(db *gorm.DB, id string, status models.UploadStatus, mediaID *uint) (bool, error)
	FindExpired(db *gorm.DB, now time.Time, limit int) ([]models.UploadSession, error)
}

type UploadSessionRepositoryImpl struct{}

func NewUploadSessionRepository() UploadSessionRepository {
	return &UploadSessionRepositoryImpl{}
}

func (r *UploadSessionRepositoryImpl) Create(db *gorm.DB, s *models.UploadSession) error {
	return db.Create(s).Error
}

func (r *UploadSessionRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.UploadSession, error) {
	var s models.UploadSession
	if err := db.Where("id = ?", id).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *UploadSessionRepositoryImpl) FindForUser(db *gorm.DB, id string, userID uint, kind models.MediaKind) (*models.UploadSession, error) {
	var s models.UploadSession
	err := db.Where("id = ? AND user_id = ? AND kind = ?", id, userID, kind).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ExistsRecentDuplicate looks for a live or finished session for the same
// title. Cancelled sessions do not count.
func (r *UploadSessionRepositoryImpl) ExistsRecentDuplicate(db *gorm.DB, userID uint, kind models.MediaKind, title string, since time.Time) (bool, error) {
	var count int64
	err := db.Model(&models.UploadSession{}).
		Where("user_id = ? AND kind = ? AND title = ? AND created_at >= ?", userID, kind, title, since).
		Where("status <> ?", models.UploadStatusCancelled).
		Count(&count).Error
	return count > 0, err
}

func (r *UploadSessionRepositoryImpl) Transition(db *gorm.DB, id string, status models.UploadStatus, mediaID *uint) (bool, error) {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if mediaID != nil {
		updates["media_id"] = *mediaID
	}
	res := db.Model(&models.UploadSession{}).
		Where("id = ? AND status = ?", id, models.UploadStatusStaged).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *UploadSessionRepositoryImpl) FindExpired(db *gorm.DB, now time.Time, limit int) ([]models.UploadSession, error) {
	var out []models.UploadSession
	q := db.Where("status = ? AND expires_at < ?", models.UploadStatusStaged, now).Order("expires_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}
