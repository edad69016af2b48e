package services

import (
	"context"
	"encoding/json"
	"time"

	"twobeats/internal/logger"
	"twobeats/internal/models"
	"twobeats/internal/repositories"
	"twobeats/internal/services/dto"
	"twobeats/internal/storage"
	"twobeats/internal/thumbnail"
	"twobeats/pkg/apperrors"

	"gorm.io/gorm"
)

// MetadataProber reads what it can from a file on disk.
type MetadataProber interface {
	Probe(ctx context.Context, kind models.MediaKind, path, mimeType string) models.ProbeMetadata
}

// ============================================
// UPLOAD SERVICE
// ============================================

type UploadService interface {
	// Stage stores the file under the temp namespace and opens a session
	Stage(ctx context.Context, db *gorm.DB, req *dto.StageRequest) (*dto.UploadSessionResponse, error)

	// Get returns a staged session of the caller
	Get(ctx context.Context, db *gorm.DB, userID uint, kind models.MediaKind, sessionID string) (*dto.UploadSessionResponse, error)

	// FinalizeMusic promotes a staged audio file into a Music record
	FinalizeMusic(ctx context.Context, db *gorm.DB, req *dto.FinalizeRequest) (*dto.MusicResponse, error)

	// FinalizeVideo promotes a staged video file into a Video record
	FinalizeVideo(ctx context.Context, db *gorm.DB, req *dto.FinalizeRequest) (*dto.VideoResponse, error)

	// Cancel deletes the temp file and closes the session
	Cancel(ctx context.Context, db *gorm.DB, userID uint, kind models.MediaKind, sessionID string) error

	// PurgeExpired expires sessions past their deadline and removes their files
	PurgeExpired(ctx context.Context, db *gorm.DB, limit int) (*dto.CleanupResult, error)
}

type UploadServiceImpl struct {
	sessionRepo repositories.UploadSessionRepository
	mediaRepo   repositories.MediaRepository
	tagRepo     repositories.TagRepository
	storage     storage.Storage
	files       *mediaFiles
	present     presenter
	cfg         UploadConfig

	// Now is replaced in tests
	Now func() time.Time
}

func NewUploadService(
	sessionRepo repositories.UploadSessionRepository,
	mediaRepo repositories.MediaRepository,
	tagRepo repositories.TagRepository,
	st storage.Storage,
	prober MetadataProber,
	thumbs thumbnail.Generator,
	cfg UploadConfig,
) *UploadServiceImpl {
	return &UploadServiceImpl{
		sessionRepo: sessionRepo,
		mediaRepo:   mediaRepo,
		tagRepo:     tagRepo,
		storage:     st,
		files:       newMediaFiles(st, thumbs, prober, cfg),
		present:     presenter{storage: st},
		cfg:         cfg,
		Now:         time.Now,
	}
}

// ============================================
// STAGE
// ============================================

func (s *UploadServiceImpl) Stage(ctx context.Context, db *gorm.DB, req *dto.StageRequest) (*dto.UploadSessionResponse, error) {
	rules, err := s.cfg.rulesFor(req.Kind)
	if err != nil {
		return nil, err
	}
	mimeType, err := inspectFile(req.File, rules)
	if err != nil {
		return nil, err
	}

	now := s.Now().UTC()
	title := DeriveTitle(req.File.Filename)
	if err := s.checkDuplicate(db, req.UserID, req.Kind, title, now); err != nil {
		return nil, err
	}

	tempPath := StagingPath(req.Kind, req.UserID, now, req.File.Filename)
	if err := s.files.save(ctx, tempPath, req.File, mimeType); err != nil {
		return nil, apperrors.StorageError(err)
	}

	meta := s.files.probe(ctx, req.Kind, tempPath, mimeType)
	raw, err := json.Marshal(meta)
	if err != nil {
		removeQuietly(ctx, s.storage, tempPath)
		return nil, apperrors.InternalError(err)
	}

	session := &models.UploadSession{
		UserID:       req.UserID,
		Kind:         req.Kind,
		Title:        title,
		OriginalName: req.File.Filename,
		TempPath:     tempPath,
		MimeType:     mimeType,
		Size:         req.File.Size,
		Metadata:     raw,
		Status:       models.UploadStatusStaged,
		ExpiresAt:    now.Add(s.cfg.StagingTTL),
		CreatedAt:    now,
	}
	if err := s.sessionRepo.Create(db, session); err != nil {
		removeQuietly(ctx, s.storage, tempPath)
		return nil, apperrors.DatabaseError(err)
	}

	logger.CtxInfo(ctx, "upload staged",
		"session_id", session.ID,
		"kind", req.Kind,
		"title", title,
		"size", req.File.Size,
		"mime_type", mimeType,
	)
	return sessionResponse(session, meta), nil
}

// checkDuplicate rejects a second submission of the same title inside the window.
func (s *UploadServiceImpl) checkDuplicate(db *gorm.DB, userID uint, kind models.MediaKind, title string, now time.Time) error {
	if s.cfg.DuplicateWindow <= 0 {
		return nil
	}
	since := now.Add(-s.cfg.DuplicateWindow)

	staged, err := s.sessionRepo.ExistsRecentDuplicate(db, userID, kind, title, since)
	if err != nil {
		return apperrors.DatabaseError(err)
	}
	if !staged {
		staged, err = s.mediaRepo.ExistsRecentByOwnerTitle(db, kind, userID, title, since)
		if err != nil {
			return apperrors.DatabaseError(err)
		}
	}
	if staged {
		return apperrors.ErrDuplicateUpload.WithDetails(map[string]interface{}{
			"title":          title,
			"window_seconds": int(s.cfg.DuplicateWindow.Seconds()),
		})
	}
	return nil
}

// ============================================
// READ / CANCEL
// ============================================

func (s *UploadServiceImpl) Get(ctx context.Context, db *gorm.DB, userID uint, kind models.MediaKind, sessionID string) (*dto.UploadSessionResponse, error) {
	session, err := s.sessionRepo.FindForUser(db, sessionID, userID, kind)
	if err != nil {
		return nil, handleRepoError(kind, err)
	}
	return sessionResponse(session, decodeMetadata(ctx, session)), nil
}

func (s *UploadServiceImpl) Cancel(ctx context.Context, db *gorm.DB, userID uint, kind models.MediaKind, sessionID string) error {
	session, err := s.sessionRepo.FindForUser(db, sessionID, userID, kind)
	if err != nil {
		return handleRepoError(kind, err)
	}
	if session.Status != models.UploadStatusStaged {
		return sessionClosed(session)
	}

	ok, err := s.sessionRepo.Transition(db, session.ID, models.UploadStatusCancelled, nil)
	if err != nil {
		return apperrors.DatabaseError(err)
	}
	if !ok {
		return apperrors.ErrUploadSessionClosed
	}

	removeQuietly(ctx, s.storage, session.TempPath)
	logger.CtxInfo(ctx, "upload cancelled", "session_id", session.ID, "kind", kind)
	return nil
}

func (s *UploadServiceImpl) PurgeExpired(ctx context.Context, db *gorm.DB, limit int) (*dto.CleanupResult, error) {
	expired, err := s.sessionRepo.FindExpired(db, s.Now().UTC(), limit)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	result := &dto.CleanupResult{}
	for _, session := range expired {
		ok, err := s.sessionRepo.Transition(db, session.ID, models.UploadStatusExpired, nil)
		if err != nil {
			logger.CtxWithError(ctx, "failed to expire upload session", err, "session_id", session.ID)
			result.Failed++
			continue
		}
		if !ok {
			// finalized or cancelled meanwhile
			continue
		}
		result.Expired++

		if err := s.storage.Delete(ctx, session.TempPath); err != nil {
			logger.CtxWithError(ctx, "failed to delete expired upload", err, "path", session.TempPath)
			result.Failed++
			continue
		}
		result.FilesRemoved++
	}

	if result.Expired > 0 || result.Failed > 0 {
		logger.CtxInfo(ctx, "expired uploads purged",
			"expired", result.Expired,
			"files_removed", result.FilesRemoved,
			"failed", result.Failed,
		)
	}
	return result, nil
}

// ============================================
// FINALIZE
// ============================================

// promotion is a staged session ready to become a record.
type promotion struct {
	session  *models.UploadSession
	meta     models.ProbeMetadata
	tags     []models.Tag
	mediaKey string
	moved    bool
	thumbKey string
}

func (s *UploadServiceImpl) FinalizeMusic(ctx context.Context, db *gorm.DB, req *dto.FinalizeRequest) (*dto.MusicResponse, error) {
	req.Kind = models.KindMusic

	var music *models.Music
	err := s.finalize(ctx, db, req, func(tx *gorm.DB, p *promotion) (uint, error) {
		music = &models.Music{
			Title:         req.Title,
			Singer:        req.Singer,
			Type:          req.Type,
			FilePath:      p.mediaKey,
			ThumbnailPath: p.thumbKey,
			OwnerID:       req.UserID,
			Tags:          p.tags,
		}
		if err := s.mediaRepo.CreateMusic(tx, music); err != nil {
			return 0, err
		}
		return music.ID, nil
	})
	if err != nil {
		return nil, err
	}

	loaded, err := s.mediaRepo.FindMusicByID(db, music.ID)
	if err != nil {
		return nil, handleRepoError(models.KindMusic, err)
	}
	return s.present.music(ctx, loaded), nil
}

func (s *UploadServiceImpl) FinalizeVideo(ctx context.Context, db *gorm.DB, req *dto.FinalizeRequest) (*dto.VideoResponse, error) {
	req.Kind = models.KindVideo

	var video *models.Video
	err := s.finalize(ctx, db, req, func(tx *gorm.DB, p *promotion) (uint, error) {
		duration := roundSeconds(p.meta.Duration)
		if req.Duration != nil {
			duration = *req.Duration
		}
		video = &models.Video{
			Title:         req.Title,
			Singer:        req.Singer,
			Type:          req.Type,
			Detail:        req.Detail,
			Duration:      duration,
			FilePath:      p.mediaKey,
			ThumbnailPath: p.thumbKey,
			OwnerID:       req.UserID,
			Tags:          p.tags,
		}
		if err := s.mediaRepo.CreateVideo(tx, video); err != nil {
			return 0, err
		}
		return video.ID, nil
	})
	if err != nil {
		return nil, err
	}

	loaded, err := s.mediaRepo.FindVideoByID(db, video.ID)
	if err != nil {
		return nil, handleRepoError(models.KindVideo, err)
	}
	return s.present.video(ctx, loaded), nil
}

// finalize runs the shared steps; create inserts the record inside the
// transaction that also claims the session.
func (s *UploadServiceImpl) finalize(ctx context.Context, db *gorm.DB, req *dto.FinalizeRequest, create func(tx *gorm.DB, p *promotion) (uint, error)) error {
	session, err := s.sessionRepo.FindForUser(db, req.SessionID, req.UserID, req.Kind)
	if err != nil {
		return handleRepoError(req.Kind, err)
	}
	if session.Status != models.UploadStatusStaged || !s.Now().Before(session.ExpiresAt) {
		return sessionClosed(session)
	}

	p := &promotion{session: session, meta: decodeMetadata(ctx, session)}
	if p.tags, err = resolveTags(db, s.tagRepo, req.TagIDs); err != nil {
		return err
	}
	userThumb, err := s.files.prepareThumbnail(req.Thumbnail)
	if err != nil {
		return err
	}

	p.mediaKey, p.moved = s.files.promote(ctx, req.Kind, session.TempPath)
	p.thumbKey = s.files.attachThumbnail(ctx, req.Kind, p.mediaKey, userThumb, p.meta.Duration)

	err = inTransaction(db, func(tx *gorm.DB) error {
		id, err := create(tx, p)
		if err != nil {
			return apperrors.DatabaseError(err)
		}
		claimed, err := s.sessionRepo.Transition(tx, session.ID, models.UploadStatusFinalized, &id)
		if err != nil {
			return apperrors.DatabaseError(err)
		}
		if !claimed {
			// finalized or cancelled concurrently; drop the record
			return apperrors.ErrUploadSessionClosed
		}
		return nil
	})
	if err != nil {
		s.rollbackFiles(ctx, p)
		return err
	}

	logger.CtxInfo(ctx, "upload finalized",
		"session_id", session.ID,
		"kind", req.Kind,
		"path", p.mediaKey,
		"thumbnail", p.thumbKey,
		"tags", len(p.tags),
	)
	return nil
}

// rollbackFiles restores the staged file and drops the thumbnail after a failed commit.
func (s *UploadServiceImpl) rollbackFiles(ctx context.Context, p *promotion) {
	if p.moved {
		s.files.demote(ctx, p.mediaKey, p.session.TempPath)
	}
	removeQuietly(ctx, s.storage, p.thumbKey)
}

// ============================================
// HELPERS
// ============================================

func sessionClosed(session *models.UploadSession) *apperrors.AppError {
	return apperrors.ErrUploadSessionClosed.WithDetails(map[string]interface{}{
		"session_id": session.ID,
		"status":     session.Status,
		"expires_at": session.ExpiresAt,
	})
}

func decodeMetadata(ctx context.Context, session *models.UploadSession) models.ProbeMetadata {
	var meta models.ProbeMetadata
	if len(session.Metadata) == 0 {
		return meta
	}
	if err := json.Unmarshal(session.Metadata, &meta); err != nil {
		logger.CtxWarn(ctx, "unreadable upload metadata", "session_id", session.ID, "error", err.Error())
	}
	return meta
}

func sessionResponse(session *models.UploadSession, meta models.ProbeMetadata) *dto.UploadSessionResponse {
	suggested := dto.SuggestedFields{
		Title:    session.Title,
		Singer:   meta.Artist,
		Type:     meta.Genre,
		Duration: roundSeconds(meta.Duration),
	}
	if meta.Title != "" {
		suggested.Title = meta.Title
	}
	return &dto.UploadSessionResponse{
		ID:           session.ID,
		Kind:         session.Kind,
		Title:        session.Title,
		OriginalName: session.OriginalName,
		MimeType:     session.MimeType,
		Size:         session.Size,
		Status:       session.Status,
		Metadata:     meta,
		Suggested:    suggested,
		ExpiresAt:    session.ExpiresAt,
		CreatedAt:    session.CreatedAt,
	}
}
