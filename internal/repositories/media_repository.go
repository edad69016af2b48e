package repositories

import (
	"errors"
	"strings"
	"time"

	"twobeats/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MediaFilter narrows a list query. Zero values mean "no filter".
type MediaFilter struct {
	Tag      string
	Query    string
	OwnerID  uint
	Page     int
	PageSize int
}

// Counters are the denormalized counters of one media item plus the live
// comment count.
type Counters struct {
	Kind         models.MediaKind `json:"kind"`
	ID           uint             `json:"id"`
	PlayCount    int64            `json:"-"`
	LikeCount    int64            `json:"like_count"`
	CommentCount int64            `json:"comment_count"`
}

type MediaRepository interface {
	// Music
	ListMusic(db *gorm.DB, f MediaFilter) ([]models.Music, int64, error)
	FindMusicByID(db *gorm.DB, id uint) (*models.Music, error)
	FindMusicByOwner(db *gorm.DB, id, ownerID uint) (*models.Music, error)
	CreateMusic(db *gorm.DB, music *models.Music) error
	UpdateMusic(db *gorm.DB, music *models.Music, tags []models.Tag, replaceTags bool) error
	DeleteMusic(db *gorm.DB, music *models.Music) error

	// Video
	ListVideos(db *gorm.DB, f MediaFilter) ([]models.Video, int64, error)
	FindVideoByID(db *gorm.DB, id uint) (*models.Video, error)
	FindVideoByOwner(db *gorm.DB, id, ownerID uint) (*models.Video, error)
	CreateVideo(db *gorm.DB, video *models.Video) error
	UpdateVideo(db *gorm.DB, video *models.Video, tags []models.Tag, replaceTags bool) error
	DeleteVideo(db *gorm.DB, video *models.Video) error

	// Shared
	Exists(db *gorm.DB, kind models.MediaKind, id uint) (bool, error)
	IncrementPlays(db *gorm.DB, kind models.MediaKind, id uint) error
	AdjustLikes(db *gorm.DB, kind models.MediaKind, id uint, delta int) error
	GetCounters(db *gorm.DB, kind models.MediaKind, id uint) (*Counters, error)
	ExistsRecentByOwnerTitle(db *gorm.DB, kind models.MediaKind, ownerID uint, title string, since time.Time) (bool, error)
	ReferencesFile(db *gorm.DB, key string) (bool, error)
}

type MediaRepositoryImpl struct{}

func NewMediaRepository() MediaRepository {
	return &MediaRepositoryImpl{}
}

// ============================================================================
// Music
// ============================================================================

func (r *MediaRepositoryImpl) ListMusic(db *gorm.DB, f MediaFilter) ([]models.Music, int64, error) {
	var items []models.Music
	var total int64

	q := r.applyFilter(db.Model(&models.Music{}), models.KindMusic, f).Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := paginate(q, f.Page, f.PageSize).
		Preload("Owner").Preload("Tags").
		Order("created_at DESC").Order("id DESC").
		Find(&items).Error
	return items, total, err
}

func (r *MediaRepositoryImpl) FindMusicByID(db *gorm.DB, id uint) (*models.Music, error) {
	var m models.Music
	if err := db.Preload("Owner").Preload("Tags").First(&m, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (r *MediaRepositoryImpl) FindMusicByOwner(db *gorm.DB, id, ownerID uint) (*models.Music, error) {
	var m models.Music
	err := db.Preload("Owner").Preload("Tags").
		Where("id = ? AND owner_id = ?", id, ownerID).First(&m).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (r *MediaRepositoryImpl) CreateMusic(db *gorm.DB, music *models.Music) error {
	return db.Create(music).Error
}

func (r *MediaRepositoryImpl) UpdateMusic(db *gorm.DB, music *models.Music, tags []models.Tag, replaceTags bool) error {
	err := db.Model(music).Select("title", "singer", "type", "file_path", "thumbnail_path", "updated_at").
		Updates(music).Error
	if err != nil {
		return err
	}
	if replaceTags {
		if err := db.Model(music).Association("Tags").Replace(tags); err != nil {
			return err
		}
		music.Tags = tags
	}
	return nil
}

func (r *MediaRepositoryImpl) DeleteMusic(db *gorm.DB, music *models.Music) error {
	if err := r.deleteDependents(db, models.KindMusic, music.ID); err != nil {
		return err
	}
	if err := db.Model(music).Association("Tags").Clear(); err != nil {
		return err
	}
	return db.Delete(&models.Music{}, music.ID).Error
}

// ============================================================================
// Video
// ============================================================================

func (r *MediaRepositoryImpl) ListVideos(db *gorm.DB, f MediaFilter) ([]models.Video, int64, error) {
	var items []models.Video
	var total int64

	q := r.applyFilter(db.Model(&models.Video{}), models.KindVideo, f).Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := paginate(q, f.Page, f.PageSize).
		Preload("Owner").Preload("Tags").
		Order("created_at DESC").Order("id DESC").
		Find(&items).Error
	return items, total, err
}

func (r *MediaRepositoryImpl) FindVideoByID(db *gorm.DB, id uint) (*models.Video, error) {
	var v models.Video
	if err := db.Preload("Owner").Preload("Tags").First(&v, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

func (r *MediaRepositoryImpl) FindVideoByOwner(db *gorm.DB, id, ownerID uint) (*models.Video, error) {
	var v models.Video
	err := db.Preload("Owner").Preload("Tags").
		Where("id = ? AND owner_id = ?", id, ownerID).First(&v).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

func (r *MediaRepositoryImpl) CreateVideo(db *gorm.DB, video *models.Video) error {
	return db.Create(video).Error
}

func (r *MediaRepositoryImpl) UpdateVideo(db *gorm.DB, video *models.Video, tags []models.Tag, replaceTags bool) error {
	err := db.Model(video).
		Select("title", "singer", "type", "file_path", "thumbnail_path", "detail", "duration", "updated_at").
		Updates(video).Error
	if err != nil {
		return err
	}
	if replaceTags {
		if err := db.Model(video).Association("Tags").Replace(tags); err != nil {
			return err
		}
		video.Tags = tags
	}
	return nil
}

func (r *MediaRepositoryImpl) DeleteVideo(db *gorm.DB, video *models.Video) error {
	if err := r.deleteDependents(db, models.KindVideo, video.ID); err != nil {
		return err
	}
	if err := db.Model(video).Association("Tags").Clear(); err != nil {
		return err
	}
	return db.Delete(&models.Video{}, video.ID).Error
}

// ============================================================================
// Counters
// ============================================================================

func (r *MediaRepositoryImpl) Exists(db *gorm.DB, kind models.MediaKind, id uint) (bool, error) {
	var count int64
	err := db.Table(kind.MediaTable()).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// ReferencesFile reports whether any music or video row points at key.
func (r *MediaRepositoryImpl) ReferencesFile(db *gorm.DB, key string) (bool, error) {
	for _, kind := range []models.MediaKind{models.KindMusic, models.KindVideo} {
		var count int64
		err := db.Table(kind.MediaTable()).
			Where("file_path = ? OR thumbnail_path = ?", key, key).
			Count(&count).Error
		if err != nil {
			return false, err
		}
		if count > 0 {
			return true, nil
		}
	}
	return false, nil
}

// IncrementPlays bumps the play (music) or view (video) counter in SQL.
func (r *MediaRepositoryImpl) IncrementPlays(db *gorm.DB, kind models.MediaKind, id uint) error {
	col := kind.CounterColumn()
	res := db.Table(kind.MediaTable()).Where("id = ?", id).
		UpdateColumn(col, gorm.Expr(col+" + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrMediaNotFound
	}
	return nil
}

// AdjustLikes moves like_count by delta, never below zero.
func (r *MediaRepositoryImpl) AdjustLikes(db *gorm.DB, kind models.MediaKind, id uint, delta int) error {
	var expr clause.Expr
	switch {
	case delta > 0:
		expr = gorm.Expr("like_count + ?", delta)
	case delta < 0:
		expr = gorm.Expr("CASE WHEN like_count >= ? THEN like_count - ? ELSE 0 END", -delta, -delta)
	default:
		return nil
	}

	res := db.Table(kind.MediaTable()).Where("id = ?", id).UpdateColumn("like_count", expr)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrMediaNotFound
	}
	return nil
}

func (r *MediaRepositoryImpl) GetCounters(db *gorm.DB, kind models.MediaKind, id uint) (*Counters, error) {
	var row struct {
		Plays int64
		Likes int64
	}
	err := db.Table(kind.MediaTable()).
		Select(kind.CounterColumn()+" AS plays, like_count AS likes").
		Where("id = ?", id).Take(&row).Error
	if err != nil {
		return nil, notFound(err)
	}

	var comments int64
	if err := db.Table(kind.CommentTable()).Where(kind.ItemColumn()+" = ?", id).Count(&comments).Error; err != nil {
		return nil, err
	}

	return &Counters{
		Kind:         kind,
		ID:           id,
		PlayCount:    row.Plays,
		LikeCount:    row.Likes,
		CommentCount: comments,
	}, nil
}

func (r *MediaRepositoryImpl) ExistsRecentByOwnerTitle(db *gorm.DB, kind models.MediaKind, ownerID uint, title string, since time.Time) (bool, error) {
	var count int64
	err := db.Table(kind.MediaTable()).
		Where("owner_id = ? AND title = ? AND created_at >= ?", ownerID, title, since).
		Count(&count).Error
	return count > 0, err
}

// ============================================================================
// Helpers
// ============================================================================

func (r *MediaRepositoryImpl) applyFilter(q *gorm.DB, kind models.MediaKind, f MediaFilter) *gorm.DB {
	if f.OwnerID != 0 {
		q = q.Where("owner_id = ?", f.OwnerID)
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(singer) LIKE ?", like, like)
	}
	if t := strings.TrimSpace(f.Tag); t != "" {
		join := kind.TagJoinTable()
		q = q.Where("id IN (?)",
			q.Session(&gorm.Session{NewDB: true}).
				Table(join).
				Select(join+"."+kind.ItemColumn()).
				Joins("JOIN tags ON tags.id = "+join+".tag_id").
				Where("tags.name = ?", t),
		)
	}
	return q
}

func (r *MediaRepositoryImpl) deleteDependents(db *gorm.DB, kind models.MediaKind, id uint) error {
	if err := db.Where(kind.ItemColumn()+" = ?", id).Delete(kind.NewLike(0, 0)).Error; err != nil {
		return err
	}
	return db.Where(kind.ItemColumn()+" = ?", id).Delete(kind.NewComment()).Error
}

func paginate(q *gorm.DB, page, pageSize int) *gorm.DB {
	if pageSize <= 0 {
		return q
	}
	if page <= 0 {
		page = 1
	}
	return q.Offset((page - 1) * pageSize).Limit(pageSize)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrMediaNotFound
	}
	return err
}
