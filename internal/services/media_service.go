package services

import (
	"context"
	"mime/multipart"

	"twobeats/internal/logger"
	"twobeats/internal/models"
	"twobeats/internal/repositories"
	"twobeats/internal/services/dto"
	"twobeats/internal/storage"
	"twobeats/internal/thumbnail"
	"twobeats/pkg/apperrors"

	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type MediaService interface {
	// Music
	ListMusic(ctx context.Context, db *gorm.DB, q *dto.MediaListQuery) (*dto.MusicListResponse, error)
	GetMusic(ctx context.Context, db *gorm.DB, id, viewerID uint) (*dto.MusicResponse, error)
	CreateMusic(ctx context.Context, db *gorm.DB, req *dto.CreateMediaRequest) (*dto.MusicResponse, error)
	UpdateMusic(ctx context.Context, db *gorm.DB, userID, id uint, req *dto.UpdateMediaRequest) (*dto.MusicResponse, error)
	DeleteMusic(ctx context.Context, db *gorm.DB, userID, id uint) error

	// Video
	ListVideos(ctx context.Context, db *gorm.DB, q *dto.MediaListQuery) (*dto.VideoListResponse, error)
	GetVideo(ctx context.Context, db *gorm.DB, id, viewerID uint) (*dto.VideoResponse, error)
	CreateVideo(ctx context.Context, db *gorm.DB, req *dto.CreateMediaRequest) (*dto.VideoResponse, error)
	UpdateVideo(ctx context.Context, db *gorm.DB, userID, id uint, req *dto.UpdateMediaRequest) (*dto.VideoResponse, error)
	DeleteVideo(ctx context.Context, db *gorm.DB, userID, id uint) error

	// Files
	IsPublished(ctx context.Context, db *gorm.DB, key string) (bool, error)
}

type MediaServiceImpl struct {
	mediaRepo   repositories.MediaRepository
	tagRepo     repositories.TagRepository
	likeRepo    repositories.LikeRepository
	commentRepo repositories.CommentRepository
	uploads     UploadService
	storage     storage.Storage
	files       *mediaFiles
	present     presenter
	publisher   CounterPublisher
	cfg         UploadConfig
}

func NewMediaService(
	mediaRepo repositories.MediaRepository,
	tagRepo repositories.TagRepository,
	likeRepo repositories.LikeRepository,
	commentRepo repositories.CommentRepository,
	uploads UploadService,
	st storage.Storage,
	prober MetadataProber,
	thumbs thumbnail.Generator,
	publisher CounterPublisher,
	cfg UploadConfig,
) MediaService {
	if publisher == nil {
		publisher = NoopPublisher
	}
	return &MediaServiceImpl{
		mediaRepo:   mediaRepo,
		tagRepo:     tagRepo,
		likeRepo:    likeRepo,
		commentRepo: commentRepo,
		uploads:     uploads,
		storage:     st,
		files:       newMediaFiles(st, thumbs, prober, cfg),
		present:     presenter{storage: st},
		publisher:   publisher,
		cfg:         cfg,
	}
}

// ============================================
// MUSIC
// ============================================

func (s *MediaServiceImpl) ListMusic(ctx context.Context, db *gorm.DB, q *dto.MediaListQuery) (*dto.MusicListResponse, error) {
	f := toFilter(q)
	items, total, err := s.mediaRepo.ListMusic(db, f)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	out := make([]*dto.MusicResponse, 0, len(items))
	for i := range items {
		out = append(out, s.present.music(ctx, &items[i]))
	}
	return &dto.MusicListResponse{Items: out, Total: total, Page: f.Page, PageSize: f.PageSize}, nil
}

// GetMusic returns the detail view; every call counts as a play.
func (s *MediaServiceImpl) GetMusic(ctx context.Context, db *gorm.DB, id, viewerID uint) (*dto.MusicResponse, error) {
	if err := s.countView(ctx, db, models.KindMusic, id); err != nil {
		return nil, err
	}

	music, err := s.mediaRepo.FindMusicByID(db, id)
	if err != nil {
		return nil, handleRepoError(models.KindMusic, err)
	}

	resp := s.present.music(ctx, music)
	resp.CommentCount, resp.IsLiked, err = s.extras(db, models.KindMusic, id, viewerID)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// CreateMusic stages and finalizes in one request.
func (s *MediaServiceImpl) CreateMusic(ctx context.Context, db *gorm.DB, req *dto.CreateMediaRequest) (*dto.MusicResponse, error) {
	finalize, err := s.stageForCreate(ctx, db, models.KindMusic, req)
	if err != nil {
		return nil, err
	}
	resp, err := s.uploads.FinalizeMusic(ctx, db, finalize)
	if err != nil {
		s.abandon(ctx, db, finalize)
		return nil, err
	}
	return resp, nil
}

func (s *MediaServiceImpl) UpdateMusic(ctx context.Context, db *gorm.DB, userID, id uint, req *dto.UpdateMediaRequest) (*dto.MusicResponse, error) {
	music, err := s.mediaRepo.FindMusicByOwner(db, id, userID)
	if err != nil {
		return nil, handleRepoError(models.KindMusic, err)
	}

	if req.Title != nil {
		music.Title = *req.Title
	}
	if req.Singer != nil {
		music.Singer = *req.Singer
	}
	if req.Type != nil {
		music.Type = *req.Type
	}

	change, err := s.prepareChange(ctx, db, models.KindMusic, req, music.FilePath, music.ThumbnailPath, 0)
	if err != nil {
		return nil, err
	}
	music.FilePath, music.ThumbnailPath = change.filePath, change.thumbPath

	err = inTransaction(db, func(tx *gorm.DB) error {
		return s.mediaRepo.UpdateMusic(tx, music, change.tags, req.ReplaceTags)
	})
	if err != nil {
		change.discard(ctx, s.storage)
		return nil, apperrors.DatabaseError(err)
	}
	change.commit(ctx, s.storage)

	logger.CtxInfo(ctx, "music updated", "music_id", music.ID, "file_replaced", change.newFile != "")
	return s.reloadMusic(ctx, db, music.ID)
}

func (s *MediaServiceImpl) DeleteMusic(ctx context.Context, db *gorm.DB, userID, id uint) error {
	music, err := s.mediaRepo.FindMusicByOwner(db, id, userID)
	if err != nil {
		return handleRepoError(models.KindMusic, err)
	}

	if err := inTransaction(db, func(tx *gorm.DB) error {
		return s.mediaRepo.DeleteMusic(tx, music)
	}); err != nil {
		return apperrors.DatabaseError(err)
	}

	removeQuietly(ctx, s.storage, music.FilePath)
	removeQuietly(ctx, s.storage, music.ThumbnailPath)
	logger.CtxInfo(ctx, "music deleted", "music_id", music.ID)
	return nil
}

func (s *MediaServiceImpl) reloadMusic(ctx context.Context, db *gorm.DB, id uint) (*dto.MusicResponse, error) {
	music, err := s.mediaRepo.FindMusicByID(db, id)
	if err != nil {
		return nil, handleRepoError(models.KindMusic, err)
	}
	return s.present.music(ctx, music), nil
}

// ============================================
// VIDEO
// ============================================

func (s *MediaServiceImpl) ListVideos(ctx context.Context, db *gorm.DB, q *dto.MediaListQuery) (*dto.VideoListResponse, error) {
	f := toFilter(q)
	items, total, err := s.mediaRepo.ListVideos(db, f)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	out := make([]*dto.VideoResponse, 0, len(items))
	for i := range items {
		out = append(out, s.present.video(ctx, &items[i]))
	}
	return &dto.VideoListResponse{Items: out, Total: total, Page: f.Page, PageSize: f.PageSize}, nil
}

// GetVideo returns the detail view; every call counts as a view.
func (s *MediaServiceImpl) GetVideo(ctx context.Context, db *gorm.DB, id, viewerID uint) (*dto.VideoResponse, error) {
	if err := s.countView(ctx, db, models.KindVideo, id); err != nil {
		return nil, err
	}

	video, err := s.mediaRepo.FindVideoByID(db, id)
	if err != nil {
		return nil, handleRepoError(models.KindVideo, err)
	}

	resp := s.present.video(ctx, video)
	resp.CommentCount, resp.IsLiked, err = s.extras(db, models.KindVideo, id, viewerID)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *MediaServiceImpl) CreateVideo(ctx context.Context, db *gorm.DB, req *dto.CreateMediaRequest) (*dto.VideoResponse, error) {
	finalize, err := s.stageForCreate(ctx, db, models.KindVideo, req)
	if err != nil {
		return nil, err
	}
	resp, err := s.uploads.FinalizeVideo(ctx, db, finalize)
	if err != nil {
		s.abandon(ctx, db, finalize)
		return nil, err
	}
	return resp, nil
}

func (s *MediaServiceImpl) UpdateVideo(ctx context.Context, db *gorm.DB, userID, id uint, req *dto.UpdateMediaRequest) (*dto.VideoResponse, error) {
	video, err := s.mediaRepo.FindVideoByOwner(db, id, userID)
	if err != nil {
		return nil, handleRepoError(models.KindVideo, err)
	}

	if req.Title != nil {
		video.Title = *req.Title
	}
	if req.Singer != nil {
		video.Singer = *req.Singer
	}
	if req.Type != nil {
		video.Type = *req.Type
	}
	if req.Detail != nil {
		video.Detail = *req.Detail
	}
	if req.Duration != nil {
		video.Duration = *req.Duration
	}

	change, err := s.prepareChange(ctx, db, models.KindVideo, req, video.FilePath, video.ThumbnailPath, float64(video.Duration))
	if err != nil {
		return nil, err
	}
	video.FilePath, video.ThumbnailPath = change.filePath, change.thumbPath
	if req.Duration == nil && change.probedDuration > 0 {
		video.Duration = roundSeconds(change.probedDuration)
	}

	err = inTransaction(db, func(tx *gorm.DB) error {
		return s.mediaRepo.UpdateVideo(tx, video, change.tags, req.ReplaceTags)
	})
	if err != nil {
		change.discard(ctx, s.storage)
		return nil, apperrors.DatabaseError(err)
	}
	change.commit(ctx, s.storage)

	logger.CtxInfo(ctx, "video updated", "video_id", video.ID, "file_replaced", change.newFile != "")
	return s.reloadVideo(ctx, db, video.ID)
}

func (s *MediaServiceImpl) DeleteVideo(ctx context.Context, db *gorm.DB, userID, id uint) error {
	video, err := s.mediaRepo.FindVideoByOwner(db, id, userID)
	if err != nil {
		return handleRepoError(models.KindVideo, err)
	}

	if err := inTransaction(db, func(tx *gorm.DB) error {
		return s.mediaRepo.DeleteVideo(tx, video)
	}); err != nil {
		return apperrors.DatabaseError(err)
	}

	removeQuietly(ctx, s.storage, video.FilePath)
	removeQuietly(ctx, s.storage, video.ThumbnailPath)
	logger.CtxInfo(ctx, "video deleted", "video_id", video.ID)
	return nil
}

func (s *MediaServiceImpl) reloadVideo(ctx context.Context, db *gorm.DB, id uint) (*dto.VideoResponse, error) {
	video, err := s.mediaRepo.FindVideoByID(db, id)
	if err != nil {
		return nil, handleRepoError(models.KindVideo, err)
	}
	return s.present.video(ctx, video), nil
}

// ============================================
// SHARED
// ============================================

func toFilter(q *dto.MediaListQuery) repositories.MediaFilter {
	f := repositories.MediaFilter{Page: 1, PageSize: defaultPageSize}
	if q == nil {
		return f
	}
	f.Tag, f.Query, f.OwnerID = q.Tag, q.Q, q.OwnerID
	if q.Page > 0 {
		f.Page = q.Page
	}
	if q.PageSize > 0 {
		f.PageSize = q.PageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
	return f
}

func (s *MediaServiceImpl) countView(ctx context.Context, db *gorm.DB, kind models.MediaKind, id uint) error {
	if err := s.mediaRepo.IncrementPlays(db, kind, id); err != nil {
		return handleRepoError(kind, err)
	}
	if counters, err := s.mediaRepo.GetCounters(db, kind, id); err == nil {
		s.publisher.PublishCounters(counters)
	} else {
		logger.CtxWarn(ctx, "failed to read counters", "kind", kind, "id", id, "error", err.Error())
	}
	return nil
}

// extras are the detail-only fields: comment count and, for a signed-in viewer, the like state.
func (s *MediaServiceImpl) extras(db *gorm.DB, kind models.MediaKind, id, viewerID uint) (*int64, *bool, error) {
	count, err := s.commentRepo.Count(db, kind, id)
	if err != nil {
		return nil, nil, apperrors.DatabaseError(err)
	}
	if viewerID == 0 {
		return &count, nil, nil
	}
	liked, err := s.likeRepo.Exists(db, kind, viewerID, id)
	if err != nil {
		return nil, nil, apperrors.DatabaseError(err)
	}
	return &count, &liked, nil
}

func (s *MediaServiceImpl) stageForCreate(ctx context.Context, db *gorm.DB, kind models.MediaKind, req *dto.CreateMediaRequest) (*dto.FinalizeRequest, error) {
	staged, err := s.uploads.Stage(ctx, db, &dto.StageRequest{UserID: req.UserID, Kind: kind, File: req.File})
	if err != nil {
		return nil, err
	}
	return &dto.FinalizeRequest{
		MediaForm: req.MediaForm,
		UserID:    req.UserID,
		Kind:      kind,
		SessionID: staged.ID,
	}, nil
}

// abandon cancels the session a failed one-shot create left behind.
func (s *MediaServiceImpl) abandon(ctx context.Context, db *gorm.DB, req *dto.FinalizeRequest) {
	if err := s.uploads.Cancel(ctx, db, req.UserID, req.Kind, req.SessionID); err != nil {
		logger.CtxWithError(ctx, "failed to cancel upload session", err, "session_id", req.SessionID)
	}
}

// fileChange tracks files written for an update until the row is saved.
type fileChange struct {
	tags      []models.Tag
	filePath  string
	thumbPath string
	newFile   string
	newThumb  string
	obsolete  []string

	// probedDuration is the length read from a replacement file, 0 when unknown
	probedDuration float64
}

// discard removes the files written for a failed update.
func (c *fileChange) discard(ctx context.Context, st storage.Storage) {
	removeQuietly(ctx, st, c.newFile)
	removeQuietly(ctx, st, c.newThumb)
}

// commit removes the files the update replaced.
func (c *fileChange) commit(ctx context.Context, st storage.Storage) {
	for _, p := range c.obsolete {
		removeQuietly(ctx, st, p)
	}
}

func (s *MediaServiceImpl) prepareChange(ctx context.Context, db *gorm.DB, kind models.MediaKind, req *dto.UpdateMediaRequest, filePath, thumbPath string, duration float64) (*fileChange, error) {
	change := &fileChange{filePath: filePath, thumbPath: thumbPath}

	var err error
	if req.ReplaceTags {
		if change.tags, err = resolveTags(db, s.tagRepo, req.TagIDs); err != nil {
			return nil, err
		}
	}

	var mimeType string
	if req.File != nil {
		rules, err := s.cfg.rulesFor(kind)
		if err != nil {
			return nil, err
		}
		if mimeType, err = inspectFile(req.File, rules); err != nil {
			return nil, err
		}
	}
	userThumb, err := s.files.prepareThumbnail(req.Thumbnail)
	if err != nil {
		return nil, err
	}

	if req.File != nil {
		if change.newFile, err = s.storeReplacement(ctx, kind, req.File, mimeType); err != nil {
			return nil, err
		}
		change.obsolete = append(change.obsolete, filePath)
		change.filePath = change.newFile

		meta := s.files.probe(ctx, kind, change.newFile, mimeType)
		change.probedDuration = meta.Duration
		if meta.Duration > 0 && req.Duration == nil {
			duration = meta.Duration
		}
	}

	if userThumb != nil || req.File != nil {
		if key := s.files.attachThumbnail(ctx, kind, change.filePath, userThumb, duration); key != "" {
			change.newThumb = key
			if thumbPath != "" {
				change.obsolete = append(change.obsolete, thumbPath)
			}
			change.thumbPath = key
		}
	}
	return change, nil
}

func (s *MediaServiceImpl) storeReplacement(ctx context.Context, kind models.MediaKind, fh *multipart.FileHeader, mimeType string) (string, error) {
	key, err := storage.AvailablePath(ctx, s.storage, string(kind)+"/"+SafeFilename(fh.Filename))
	if err != nil {
		return "", apperrors.StorageError(err)
	}
	if err := s.files.save(ctx, key, fh, mimeType); err != nil {
		return "", apperrors.StorageError(err)
	}
	return key, nil
}

// IsPublished reports whether a stored key belongs to a finalized media row.
// Files that failed promotion stay under the staging root but are still served.
func (s *MediaServiceImpl) IsPublished(ctx context.Context, db *gorm.DB, key string) (bool, error) {
	ok, err := s.mediaRepo.ReferencesFile(db.WithContext(ctx), key)
	if err != nil {
		return false, apperrors.DatabaseError(err)
	}
	return ok, nil
}
