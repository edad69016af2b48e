package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path"
	"sort"
	"strings"
	"time"
	"unicode"

	"twobeats/internal/logger"
	"twobeats/internal/models"
	"twobeats/internal/repositories"
	"twobeats/internal/services/dto"
	"twobeats/internal/storage"
	"twobeats/pkg/apperrors"

	"gorm.io/gorm"
)

// CounterPublisher receives the counters of an item after each change.
type CounterPublisher interface {
	PublishCounters(c *repositories.Counters)
}

type noopPublisher struct{}

func (noopPublisher) PublishCounters(*repositories.Counters) {}

// NoopPublisher discards counter updates.
var NoopPublisher CounterPublisher = noopPublisher{}

// ============================================
// Transactions
// ============================================

// inTransaction runs fn inside a transaction; nested calls use savepoints.
func inTransaction(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.Transaction(fn)
}

// ============================================
// Error mapping
// ============================================

func mediaNotFound(kind models.MediaKind) *apperrors.AppError {
	if kind == models.KindVideo {
		return apperrors.ErrVideoNotFound
	}
	return apperrors.ErrMusicNotFound
}

// handleRepoError converts repository errors into AppErrors
func handleRepoError(kind models.MediaKind, err error) error {
	var appErr *apperrors.AppError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, repositories.ErrMediaNotFound):
		return mediaNotFound(kind)
	case errors.Is(err, repositories.ErrCommentNotFound):
		return apperrors.ErrCommentNotFound
	case errors.Is(err, repositories.ErrSessionNotFound):
		return apperrors.ErrUploadSessionNotFound
	case errors.Is(err, repositories.ErrUserNotFound):
		return apperrors.NewNotFoundError("user", "User not found")
	case errors.Is(err, repositories.ErrUnknownKind):
		return apperrors.ErrUnknownMediaKind
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.ErrNotFound(err)
	default:
		return apperrors.DatabaseError(err)
	}
}

// ============================================
// Naming
// ============================================

// DeriveTitle is the file's base name without extension.
func DeriveTitle(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	title := strings.TrimSpace(strings.TrimSuffix(base, path.Ext(base)))
	if title == "" || title == "." || title == "/" {
		return "untitled"
	}
	return title
}

// SafeFilename keeps a client-supplied name usable as a single path element.
func SafeFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':' || unicode.IsControl(r):
			return '_'
		case unicode.IsSpace(r):
			return '_'
		}
		return r
	}, base)
	cleaned = strings.Trim(cleaned, ". ")
	if cleaned == "" {
		cleaned = "file"
	}

	const maxLen = 150
	if len(cleaned) > maxLen {
		ext := path.Ext(cleaned)
		if len(ext) > 16 {
			ext = ""
		}
		cleaned = truncateUTF8(strings.TrimSuffix(cleaned, ext), maxLen-len(ext)) + ext
	}
	return cleaned
}

func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func utf8RuneStart(b byte) bool { return b&0xC0 != 0x80 }

const stagingRoot = "tmp"

// StagingPath is tmp/<kind>/<user id>/<unix-nano>_<name>.
func StagingPath(kind models.MediaKind, userID uint, at time.Time, filename string) string {
	return fmt.Sprintf("%s/%s/%d/%d_%s", stagingRoot, kind, userID, at.UnixNano(), SafeFilename(filename))
}

// StripStagingPrefix removes the "<unix-nano>_" prefix a staged file carries.
func StripStagingPrefix(name string) string {
	i := strings.IndexByte(name, '_')
	if i <= 0 {
		return name
	}
	for _, r := range name[:i] {
		if r < '0' || r > '9' {
			return name
		}
	}
	if rest := name[i+1:]; rest != "" {
		return rest
	}
	return name
}

// PermanentPath maps a staged path to <kind>/<name>.
func PermanentPath(kind models.MediaKind, stagedPath string) string {
	return fmt.Sprintf("%s/%s", kind, StripStagingPrefix(path.Base(stagedPath)))
}

// isStaged reports whether key lives under the staging root.
func isStaged(key string) bool {
	return key == stagingRoot || strings.HasPrefix(key, stagingRoot+"/")
}

func thumbnailPath(kind models.MediaKind, mediaPath, ext string) string {
	stem := strings.TrimSuffix(path.Base(mediaPath), path.Ext(mediaPath))
	return fmt.Sprintf("thumbnails/%s/%s%s", kind, stem, ext)
}

// ============================================
// Tags
// ============================================

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// resolveTags loads the tags by id and fails when any id is unknown.
func resolveTags(db *gorm.DB, repo repositories.TagRepository, ids []uint) ([]models.Tag, error) {
	ids = uniqueIDs(ids)
	tags, err := repo.FindByIDs(db, ids)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if len(tags) == len(ids) {
		return tags, nil
	}

	found := make(map[uint]bool, len(tags))
	for _, t := range tags {
		found[t.ID] = true
	}
	var missing []uint
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return nil, apperrors.ErrTagNotFound.WithDetails(map[string]interface{}{"missing_tag_ids": missing})
}

// ============================================
// Presenters
// ============================================

type presenter struct {
	storage storage.Storage
}

func (p presenter) url(ctx context.Context, key string) string {
	if key == "" {
		return ""
	}
	u, err := p.storage.GetURL(ctx, key)
	if err != nil {
		logger.CtxWarn(ctx, "failed to build file url", "path", key, "error", err.Error())
		return ""
	}
	return u
}

func tagResponses(tags []models.Tag) []dto.TagResponse {
	out := make([]dto.TagResponse, 0, len(tags))
	for _, t := range tags {
		out = append(out, dto.TagResponse{ID: t.ID, Name: t.Name})
	}
	return out
}

func (p presenter) music(ctx context.Context, m *models.Music) *dto.MusicResponse {
	return &dto.MusicResponse{
		ID:           m.ID,
		Title:        m.Title,
		Singer:       m.Singer,
		Type:         m.Type,
		FileURL:      p.url(ctx, m.FilePath),
		ThumbnailURL: p.url(ctx, m.ThumbnailPath),
		Owner:        dto.UserSummary{ID: m.OwnerID, Username: m.Owner.Username},
		PlayCount:    m.PlayCount,
		LikeCount:    m.LikeCount,
		Tags:         tagResponses(m.Tags),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func (p presenter) video(ctx context.Context, v *models.Video) *dto.VideoResponse {
	return &dto.VideoResponse{
		ID:           v.ID,
		Title:        v.Title,
		Singer:       v.Singer,
		Type:         v.Type,
		Detail:       v.Detail,
		Duration:     v.Duration,
		FileURL:      p.url(ctx, v.FilePath),
		ThumbnailURL: p.url(ctx, v.ThumbnailPath),
		Owner:        dto.UserSummary{ID: v.OwnerID, Username: v.Owner.Username},
		ViewCount:    v.ViewCount,
		LikeCount:    v.LikeCount,
		Tags:         tagResponses(v.Tags),
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
}

func roundSeconds(d float64) int {
	if d <= 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return 0
	}
	return int(math.Round(d))
}

// removeQuietly deletes a stored file and only logs failures.
func removeQuietly(ctx context.Context, st storage.Storage, key string) {
	if key == "" {
		return
	}
	if err := st.Delete(ctx, key); err != nil {
		logger.CtxWithError(ctx, "failed to delete file", err, "path", key)
	}
}
