package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"time"

	"twobeats/internal/config"
	"twobeats/internal/imageprocessor"
	"twobeats/internal/logger"
	"twobeats/internal/mediaprobe"
	"twobeats/internal/models"
	"twobeats/internal/storage"
	"twobeats/internal/thumbnail"
	"twobeats/pkg/apperrors"
)

// ============================================
// CONFIG
// ============================================

// UploadConfig holds the per-kind limits and the staging timings.
type UploadConfig struct {
	Music           config.KindRules
	Video           config.KindRules
	Thumbnail       config.KindRules
	DuplicateWindow time.Duration
	StagingTTL      time.Duration
	ThumbnailSize   imageprocessor.ImageSize
	ThumbnailJPEG   int
}

// UploadConfigFrom maps the application config.
func UploadConfigFrom(cfg *config.Config) UploadConfig {
	size := imageprocessor.SizeThumbnail
	if cfg.Thumbnail.Width > 0 && cfg.Thumbnail.Height > 0 {
		size.Width, size.Height = cfg.Thumbnail.Width, cfg.Thumbnail.Height
	}
	return UploadConfig{
		Music:           cfg.Upload.Music,
		Video:           cfg.Upload.Video,
		Thumbnail:       cfg.Upload.Thumbnail,
		DuplicateWindow: cfg.DuplicateWindow(),
		StagingTTL:      cfg.StagingTTL(),
		ThumbnailSize:   size,
		ThumbnailJPEG:   cfg.Thumbnail.Quality,
	}
}

// DefaultUploadConfig is used when no config is given.
func DefaultUploadConfig() UploadConfig {
	return UploadConfigFrom(config.Default())
}

func (c UploadConfig) rulesFor(kind models.MediaKind) (config.KindRules, error) {
	switch kind {
	case models.KindMusic:
		return c.Music, nil
	case models.KindVideo:
		return c.Video, nil
	}
	return config.KindRules{}, apperrors.ErrUnknownMediaKind
}

// ============================================
// FILE CHECKS
// ============================================

// inspectFile checks the part against the rules and returns its sniffed MIME type.
func inspectFile(fh *multipart.FileHeader, rules config.KindRules) (string, error) {
	if fh == nil || fh.Size == 0 {
		return "", apperrors.ErrEmptyFile
	}
	if rules.MaxSize > 0 && fh.Size > rules.MaxSize {
		return "", apperrors.ErrFileTooLarge.WithDetails(map[string]interface{}{
			"size":     fh.Size,
			"max_size": rules.MaxSize,
		})
	}

	src, err := fh.Open()
	if err != nil {
		return "", apperrors.InternalError(err)
	}
	defer src.Close()

	head := make([]byte, mediaprobe.SniffLen)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", apperrors.InternalError(err)
	}
	if n == 0 {
		return "", apperrors.ErrEmptyFile
	}

	mimeType := mediaprobe.Sniff(head[:n], fh.Header.Get("Content-Type"), fh.Filename)
	if !rules.Allows(mimeType) {
		return "", apperrors.ErrInvalidFileType.WithDetails(map[string]interface{}{
			"mime_type":     mimeType,
			"allowed_types": rules.AllowedTypes,
		})
	}
	return mimeType, nil
}

// ============================================
// MEDIA FILES
// ============================================

// mediaFiles moves media between namespaces and attaches thumbnails.
type mediaFiles struct {
	storage    storage.Storage
	thumbnails thumbnail.Generator
	prober     MetadataProber
	processor  *imageprocessor.Processor
	cfg        UploadConfig
}

func newMediaFiles(st storage.Storage, thumbs thumbnail.Generator, prober MetadataProber, cfg UploadConfig) *mediaFiles {
	return &mediaFiles{
		storage:    st,
		thumbnails: thumbs,
		prober:     prober,
		processor:  imageprocessor.NewProcessor(cfg.ThumbnailJPEG),
		cfg:        cfg,
	}
}

// probe reads the metadata of a stored file; failures leave only the sniffed type.
func (f *mediaFiles) probe(ctx context.Context, kind models.MediaKind, key, mimeType string) models.ProbeMetadata {
	if f.prober == nil {
		return models.ProbeMetadata{Sniffed: mimeType}
	}
	local, release, err := storage.LocalFile(ctx, f.storage, key)
	defer release()
	if err != nil {
		logger.CtxWithError(ctx, "probe: stored file unavailable", err, "path", key)
		return models.ProbeMetadata{Sniffed: mimeType}
	}
	return f.prober.Probe(ctx, kind, local, mimeType)
}

func (f *mediaFiles) save(ctx context.Context, key string, fh *multipart.FileHeader, mimeType string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	return f.storage.Save(ctx, key, src, mimeType)
}

// promote moves a staged file to <kind>/<name>. When the move fails the
// staged path is kept and moved is false.
func (f *mediaFiles) promote(ctx context.Context, kind models.MediaKind, staged string) (key string, moved bool) {
	dst, err := storage.AvailablePath(ctx, f.storage, PermanentPath(kind, staged))
	if err == nil {
		err = f.storage.Move(ctx, staged, dst)
	}
	if err != nil {
		logger.CtxWithError(ctx, "failed to promote staged file, keeping temp path", err,
			"kind", kind, "path", staged)
		return staged, false
	}
	return dst, true
}

// demote undoes promote after a failed commit.
func (f *mediaFiles) demote(ctx context.Context, key, staged string) {
	if err := f.storage.Move(ctx, key, staged); err != nil {
		logger.CtxWithError(ctx, "failed to move file back to staging", err, "path", key, "staged", staged)
	}
}

// prepareThumbnail validates a user thumbnail and fits it into the box as JPEG.
func (f *mediaFiles) prepareThumbnail(fh *multipart.FileHeader) ([]byte, error) {
	if fh == nil {
		return nil, nil
	}
	if _, err := inspectFile(fh, f.cfg.Thumbnail); err != nil {
		return nil, err
	}

	src, err := fh.Open()
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	defer src.Close()

	buf, err := f.processor.ProcessImage(src, f.cfg.ThumbnailSize, "jpeg")
	if err != nil {
		return nil, apperrors.ErrInvalidFileType.WithError(err)
	}
	return buf.Bytes(), nil
}

// attachThumbnail stores the user thumbnail when given, otherwise generates
// one from the media file. It returns the stored key, "" when none could be made.
func (f *mediaFiles) attachThumbnail(ctx context.Context, kind models.MediaKind, mediaKey string, userThumb []byte, duration float64) string {
	data := userThumb
	if data == nil {
		data = f.generateThumbnail(ctx, kind, mediaKey, duration)
		if data == nil {
			return ""
		}
	}

	name := mediaKey
	if isStaged(mediaKey) {
		name = PermanentPath(kind, mediaKey)
	}
	key, err := storage.AvailablePath(ctx, f.storage, thumbnailPath(kind, name, ".jpg"))
	if err == nil {
		err = f.storage.Save(ctx, key, bytes.NewReader(data), "image/jpeg")
	}
	if err != nil {
		logger.CtxWithError(ctx, "failed to store thumbnail", err, "kind", kind, "path", mediaKey)
		return ""
	}
	return key
}

func (f *mediaFiles) generateThumbnail(ctx context.Context, kind models.MediaKind, mediaKey string, duration float64) []byte {
	if f.thumbnails == nil {
		return nil
	}

	local, release, err := storage.LocalFile(ctx, f.storage, mediaKey)
	defer release()
	if err != nil {
		logger.CtxWithError(ctx, "thumbnail: media file unavailable", err, "path", mediaKey)
		return nil
	}

	data, err := f.thumbnails.Generate(ctx, kind, local, duration)
	switch {
	case errors.Is(err, thumbnail.ErrDisabled), errors.Is(err, thumbnail.ErrUnsupported):
		logger.CtxDebug(ctx, "thumbnail skipped", "kind", kind, "path", mediaKey, "reason", err.Error())
		return nil
	case err != nil:
		logger.CtxWarn(ctx, "thumbnail generation failed", "kind", kind, "path", mediaKey, "error", err.Error())
		return nil
	}
	return data
}
