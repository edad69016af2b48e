package services_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"twobeats/internal/auth"
	"twobeats/internal/models"
	"twobeats/internal/repositories"
	"twobeats/internal/services"
	"twobeats/internal/services/dto"
	"twobeats/internal/storage"
	"twobeats/internal/testutil"
	"twobeats/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu   sync.Mutex
	last *repositories.Counters
	n    int
}

func (p *recordingPublisher) PublishCounters(c *repositories.Counters) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = c
	p.n++
}

type fixture struct {
	ctx       context.Context
	db        *gorm.DB
	st        *storage.LocalStorage
	thumbs    *testutil.FakeThumbnailer
	publisher *recordingPublisher
	now       time.Time

	uploads      *services.UploadServiceImpl
	media        services.MediaService
	interactions services.InteractionService
	auth         services.AuthService
	tags         services.TagService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:       context.Background(),
		db:        testutil.NewDB(t),
		st:        testutil.NewStorage(t),
		thumbs:    &testutil.FakeThumbnailer{Data: testutil.JPEGBytes(t)},
		publisher: &recordingPublisher{},
		now:       time.Now().UTC(),
	}

	cfg := services.DefaultUploadConfig()
	mediaRepo := repositories.NewMediaRepository()
	tagRepo := repositories.NewTagRepository()
	likeRepo := repositories.NewLikeRepository()
	commentRepo := repositories.NewCommentRepository()

	prober := &testutil.FakeProber{Meta: models.ProbeMetadata{Artist: "Probe Artist", Duration: 12.6}}
	f.uploads = services.NewUploadService(repositories.NewUploadSessionRepository(), mediaRepo, tagRepo, f.st, prober, f.thumbs, cfg)
	f.uploads.Now = func() time.Time { return f.now }

	f.media = services.NewMediaService(mediaRepo, tagRepo, likeRepo, commentRepo, f.uploads, f.st, prober, f.thumbs, f.publisher, cfg)
	f.interactions = services.NewInteractionService(mediaRepo, likeRepo, commentRepo, f.publisher)
	f.auth = services.NewAuthService(repositories.NewUserRepository(), auth.NewTokenManager("test-secret", time.Hour))
	f.tags = services.NewTagService(tagRepo)
	return f
}

func (f *fixture) exists(t *testing.T, key string) bool {
	t.Helper()
	ok, err := f.st.Exists(f.ctx, key)
	require.NoError(t, err)
	return ok
}

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok, "expected an AppError, got %v", err)
	assert.Equal(t, status, appErr.HTTPCode, appErr.Message)
}

func (f *fixture) stageMusic(t *testing.T, user *models.User, filename string) *dto.UploadSessionResponse {
	t.Helper()
	resp, err := f.uploads.Stage(f.ctx, f.db, &dto.StageRequest{
		UserID: user.ID,
		Kind:   models.KindMusic,
		File:   testutil.FileHeader(t, filename, "audio/mpeg", testutil.MP3Bytes()),
	})
	require.NoError(t, err)
	return resp
}

// ============================================
// UPLOADS
// ============================================

func TestStage_SuggestsFieldsFromMetadata(t *testing.T) {
	f := newFixture(t)
	user := testutil.CreateUser(t, f.db, "alice", "password123")

	resp := f.stageMusic(t, user, "My Song.mp3")

	assert.Equal(t, models.UploadStatusStaged, resp.Status)
	assert.Equal(t, "My Song", resp.Title)
	assert.Equal(t, "audio/mpeg", resp.MimeType)
	assert.Equal(t, "Probe Artist", resp.Suggested.Singer)
	assert.Equal(t, 13, resp.Suggested.Duration)
	assert.WithinDuration(t, f.now.Add(time.Hour), resp.ExpiresAt, time.Second)

	got, err := f.uploads.Get(f.ctx, f.db, user.ID, models.KindMusic, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, got.ID)

	_, err = f.uploads.Get(f.ctx, f.db, user.ID+1, models.KindMusic, resp.ID)
	requireStatus(t, err, 404)
}

func TestStage_RejectsWrongType(t *testing.T) {
	f := newFixture(t)
	user := testutil.CreateUser(t, f.db, "alice", "password123")

	_, err := f.uploads.Stage(f.ctx, f.db, &dto.StageRequest{
		UserID: user.ID,
		Kind:   models.KindMusic,
		File:   testutil.FileHeader(t, "cover.png", "image/png", testutil.PNGBytes(t, 8, 8)),
	})
	requireStatus(t, err, 415)
}

func TestStage_DuplicateWindow(t *testing.T) {
	f := newFixture(t)
	user := testutil.CreateUser(t, f.db, "alice", "password123")

	f.stageMusic(t, user, "song.mp3")

	f.now = f.now.Add(30 * time.Second)
	_, err := f.uploads.Stage(f.ctx, f.db, &dto.StageRequest{
		UserID: user.ID,
		Kind:   models.KindMusic,
		File:   testutil.FileHeader(t, "song.mp3", "audio/mpeg", testutil.MP3Bytes()),
	})
	requireStatus(t, err, 409)

	// another user is not a duplicate
	bob := testutil.CreateUser(t, f.db, "bob", "password123")
	f.stageMusic(t, bob, "song.mp3")

	f.now = f.now.Add(31 * time.Second)
	f.stageMusic(t, user, "song.mp3")
}

func TestFinalizeMusic_PromotesFileAndGeneratesThumbnail(t *testing.T) {
	f := newFixture(t)
	user := testutil.CreateUser(t, f.db, "alice", "password123")
	tag := testutil.CreateTag(t, f.db, "rock")

	staged := f.stageMusic(t, user, "song.mp3")

	music, err := f.uploads.FinalizeMusic(f.ctx, f.db, &dto.FinalizeRequest{
		MediaForm: dto.MediaForm{Title: "Song", Singer: "Alice", TagIDs: []uint{tag.ID}},
		UserID:    user.ID,
		SessionID: staged.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, "Song", music.Title)
	assert.Equal(t, "/api/v1/files/music/song.mp3", music.FileURL)
	assert.Equal(t, "/api/v1/files/thumbnails/music/song.jpg", music.ThumbnailURL)
	require.Len(t, music.Tags, 1)
	assert.Equal(t, "rock", music.Tags[0].Name)
	assert.Equal(t, 1, f.thumbs.Calls())

	assert.True(t, f.exists(t, "music/song.mp3"))
	assert.True(t, f.exists(t, "thumbnails/music/song.jpg"))

	var session models.UploadSession
	require.NoError(t, f.db.First(&session, "id = ?", staged.ID).Error)
	assert.Equal(t, models.UploadStatusFinalized, session.Status)
	require.NotNil(t, session.MediaID)
	assert.Equal(t, music.ID, *session.MediaID)
	assert.False(t, f.exists(t, session.TempPath))

	// a finalized session cannot be finalized again
	_, err = f.uploads.FinalizeMusic(f.ctx, f.db, &dto.FinalizeRequest{
		MediaForm: dto.MediaForm{Title: "Again"},
		UserID:    user.ID,
		SessionID: staged.ID,
	})
	requireStatus(t, err, 409)
}

func TestFinalizeMusic_KeepsStagedFileWhenMoveFails(t *testing.T) {
	f := newFixture(t)
	user := testutil.CreateUser(t, f.db, "alice", "password123")
	staged := f.stageMusic(t, user, "track.mp3")

	// a plain file where the music directory belongs makes the move fail
	musicDir, err := f.st.FullPath("music")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(musicDir, []byte("x"), 0644))

	music, err := f.uploads.FinalizeMusic(f.ctx, f.db, &dto.FinalizeRequest{
		MediaForm: dto.MediaForm{Title: "Track"}, UserID: user.ID, SessionID: staged.ID,
	})
	require.NoError(t, err)

	var session models.UploadSession
	require.NoError(t, f.db.First(&session, "id = ?", staged.ID).Error)
	assert.Equal(t, models.UploadStatusFinalized, session.Status)
	assert.Equal(t, "/api/v1/files/"+session.TempPath, music.FileURL)
	assert.True(t, f.exists(t, session.TempPath))

	assert.Equal(t, "/api/v1/files/thumbnails/music/track.jpg", music.ThumbnailURL)
	assert.True(t, f.exists(t, "thumbnails/music/track.jpg"))

	published, err := f.media.IsPublished(f.ctx, f.db, session.TempPath)
	require.NoError(t, err)
	assert.True(t, published)
}

func TestIsPublished_StagedFilesAreNot(t *testing.T) {
	f := newFixture(t)
	user := testutil.CreateUser(t, f.db, "alice", "password123")
	f.stageMusic(t, user, "track.mp3")

	var session models.UploadSession
	require.NoError(t, f.db.First(&session).Error)

	published, err := f.media.IsPublished(f.ctx, f.db, session.TempPath)
	require.NoError(t, err)
	assert.False(t, published)
}

func TestFinalizeMusic_NameCollisionGetsSuffix(t *testing.T) {
	f := newFixture(t)
	user := testutil.CreateUser(t, f.db, "alice", "password123")

	first := f.stageMusic(t, user, "song.mp3")
	_, err := f.uploads.FinalizeMusic(f.ctx, f.db, &dto.FinalizeRequest{
		MediaForm: dto.MediaForm{Title: "One"}, UserID: user.ID, SessionID: first.ID,
	})
	require.NoError(t, err)

	f.now = f.now.Add(2 * time.Minute)
	second := f.stageMusic(t, user, "song.mp3")
	music, err := f.uploads.FinalizeMusic(f.ctx, f.db, &dto.FinalizeRequest{
		MediaForm: dto.MediaForm{Title: "Two"}, UserID: user.ID, SessionID: second.ID,
	})
	require.NoError(t, err)
	assert.NotEqual(t, "/api/v1/files/music/song.mp3", music.FileURL)
	assert.Contains(t, music.FileURL, "/api/v1/files/music/song_")
}

func TestFinalizeVideo_UsesUserThumbnailAndProbedDuration(t *testing.T) {
	f := newFixture(t)
	user := testutil.CreateUser(t, f.db, "alice", "password123")

	staged, err := f.uploads.Stage(f.ctx, f.db, &dto.StageRequest{
		UserID: user.ID,
		Kind:   models.KindVideo,
		File:   testutil.FileHeader(t, "clip.mp4", "video/mp4", testutil.MP4Bytes()),
	})
	require.NoError(t, err)

	video, err := f.uploads.FinalizeVideo(f.ctx, f.db, &dto.FinalizeRequest{
		MediaForm: dto.MediaForm{
			Title:     "Clip",
			Detail:    "behind the scenes",
			Thumbnail: testutil.FileHeader(t, "cover.png", "image/png", testutil.PNGBytes(t, 1280, 720)),
		},
		UserID:    user.ID,
		SessionID: staged.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, 13, video.Duration)
	assert.Equal(t, "behind the scenes", video.Detail)
	assert.Equal(t, "/api/v1/files/thumbnails/video/clip.jpg", video.ThumbnailURL)
	assert.Zero(t, f.thumbs.Calls(), "a user thumbnail skips generation")
}

func TestFinalize_UnknownTagKeepsSessionStaged(t *testing.T) {
	f := newFixture(t)
	user := testutil.CreateUser(t, f.db, "alice", "password123")
	staged := f.stageMusic(t, user, "song.mp3")

	_, err := f.uploads.FinalizeMusic(f.ctx, f.db, &dto.FinalizeRequest{
		MediaForm: dto.MediaForm{Title: "Song", TagIDs: []uint{999}},
		UserID:    user.ID,
		SessionID: staged.ID,
	})
	requireStatus(t, err, 400)

	got, err := f.uploads.Get(f.ctx, f.db, user.ID, models.KindMusic, staged.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UploadStatusStaged, got.Status)
}

func TestFinalize_ExpiredSession(t *testing.T) {
	f := newFixture(t)
	user := testutil.CreateUser(t, f.db, "alice", "password123")
	staged := f.stageMusic(t, user, "song.mp3")

	f.now = f.now.Add(2 * time.Hour)
	_, err := f.uploads.FinalizeMusic(f.ctx, f.db, &dto.FinalizeRequest{
		MediaForm: dto.MediaForm{Title: "Song"},
		UserID:    user.ID,
		SessionID: staged.ID,
	})
	requireStatus(t, err, 409)
}

func TestCancelAndPurge(t *testing.T) {
	f := newFixture(t)
	user := testutil.CreateUser(t, f.db, "alice", "password123")

	cancelled := f.stageMusic(t, user, "one.mp3")
	require.NoError(t, f.uploads.Cancel(f.ctx, f.db, user.ID, models.KindMusic, cancelled.ID))
	requireStatus(t, f.uploads.Cancel(f.ctx, f.db, user.ID, models.KindMusic, cancelled.ID), 409)

	stale := f.stageMusic(t, user, "two.mp3")
	var session models.UploadSession
	require.NoError(t, f.db.First(&session, "id = ?", stale.ID).Error)
	require.True(t, f.exists(t, session.TempPath))

	result, err := f.uploads.PurgeExpired(f.ctx, f.db, 10)
	require.NoError(t, err)
	assert.Zero(t, result.Expired, "nothing is past its deadline yet")

	f.now = f.now.Add(2 * time.Hour)
	result, err = f.uploads.PurgeExpired(f.ctx, f.db, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Expired)
	assert.Equal(t, 1, result.FilesRemoved)
	assert.False(t, f.exists(t, session.TempPath))

	require.NoError(t, f.db.First(&session, "id = ?", stale.ID).Error)
	assert.Equal(t, models.UploadStatusExpired, session.Status)
}

// ============================================
// MEDIA
// ============================================

func TestCreateMusic_OneShot(t *testing.T) {
	f := newFixture(t)
	user := testutil.CreateUser(t, f.db, "alice", "password123")

	music, err := f.media.CreateMusic(f.ctx, f.db, &dto.CreateMediaRequest{
		MediaForm: dto.MediaForm{Title: "Direct"},
		UserID:    user.ID,
		File:      testutil.FileHeader(t, "direct.mp3", "audio/mpeg", testutil.MP3Bytes()),
	})
	require.NoError(t, err)
	assert.Equal(t, "Direct", music.Title)
	assert.Equal(t, user.ID, music.Owner.ID)

	// a failed finalize leaves no staged session behind
	_, err = f.media.CreateMusic(f.ctx, f.db, &dto.CreateMediaRequest{
		MediaForm: dto.MediaForm{Title: "Broken", TagIDs: []uint{404}},
		UserID:    user.ID,
		File:      testutil.FileHeader(t, "broken.mp3", "audio/mpeg", testutil.MP3Bytes()),
	})
	requireStatus(t, err, 400)

	var staged int64
	require.NoError(t, f.db.Model(&models.UploadSession{}).Where("status = ?", models.UploadStatusStaged).Count(&staged).Error)
	assert.Zero(t, staged)
}

func TestGetMusic_CountsPlayAndReportsViewerState(t *testing.T) {
	f := newFixture(t)
	user := testutil.CreateUser(t, f.db, "alice", "password123")
	music := testutil.CreateMusic(t, f.db, user, "song")

	_, err := f.interactions.ToggleLike(f.ctx, f.db, models.KindMusic, user.ID, music.ID)
	require.NoError(t, err)

	anon, err := f.media.GetMusic(f.ctx, f.db, music.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), anon.PlayCount)
	assert.Nil(t, anon.IsLiked)
	require.NotNil(t, anon.CommentCount)

	mine, err := f.media.GetMusic(f.ctx, f.db, music.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), mine.PlayCount)
	require.NotNil(t, mine.IsLiked)
	assert.True(t, *mine.IsLiked)
	assert.Equal(t, int64(2), f.publisher.last.PlayCount)

	_, err = f.media.GetMusic(f.ctx, f.db, music.ID+100, 0)
	requireStatus(t, err, 404)
}

func TestUpdateAndDelete_OnlyOwner(t *testing.T) {
	f := newFixture(t)
	alice := testutil.CreateUser(t, f.db, "alice", "password123")
	bob := testutil.CreateUser(t, f.db, "bob", "password123")
	video := testutil.CreateVideo(t, f.db, alice, "clip")

	title := "Hacked"
	_, err := f.media.UpdateVideo(f.ctx, f.db, bob.ID, video.ID, &dto.UpdateMediaRequest{Title: &title})
	requireStatus(t, err, 404)
	requireStatus(t, f.media.DeleteVideo(f.ctx, f.db, bob.ID, video.ID), 404)

	title = "Renamed"
	updated, err := f.media.UpdateVideo(f.ctx, f.db, alice.ID, video.ID, &dto.UpdateMediaRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, 42, updated.Duration, "untouched fields keep their value")

	require.NoError(t, f.media.DeleteVideo(f.ctx, f.db, alice.ID, video.ID))
	_, err = f.media.GetVideo(f.ctx, f.db, video.ID, 0)
	requireStatus(t, err, 404)
}

func TestUpdateMusic_ReplacesFileAndTags(t *testing.T) {
	f := newFixture(t)
	user := testutil.CreateUser(t, f.db, "alice", "password123")
	rock := testutil.CreateTag(t, f.db, "rock")

	created, err := f.media.CreateMusic(f.ctx, f.db, &dto.CreateMediaRequest{
		MediaForm: dto.MediaForm{Title: "Old", TagIDs: []uint{rock.ID}},
		UserID:    user.ID,
		File:      testutil.FileHeader(t, "old.mp3", "audio/mpeg", testutil.MP3Bytes()),
	})
	require.NoError(t, err)
	require.True(t, f.exists(t, "music/old.mp3"))

	updated, err := f.media.UpdateMusic(f.ctx, f.db, user.ID, created.ID, &dto.UpdateMediaRequest{
		ReplaceTags: true,
		File:        testutil.FileHeader(t, "new.mp3", "audio/mpeg", testutil.MP3Bytes()),
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/files/music/new.mp3", updated.FileURL)
	assert.Empty(t, updated.Tags)
	assert.True(t, f.exists(t, "music/new.mp3"))
	assert.False(t, f.exists(t, "music/old.mp3"), "the replaced file is removed")
	assert.False(t, f.exists(t, "thumbnails/music/old.jpg"))
	assert.True(t, f.exists(t, "thumbnails/music/new.jpg"))
}

func TestUpdateVideo_NewFileTakesItsDuration(t *testing.T) {
	f := newFixture(t)
	user := testutil.CreateUser(t, f.db, "alice", "password123")
	video := testutil.CreateVideo(t, f.db, user, "clip")

	updated, err := f.media.UpdateVideo(f.ctx, f.db, user.ID, video.ID, &dto.UpdateMediaRequest{
		File: testutil.FileHeader(t, "longer.mp4", "video/mp4", testutil.MP4Bytes()),
	})
	require.NoError(t, err)
	assert.Equal(t, 13, updated.Duration, "duration comes from the replacement")
	assert.Equal(t, 12.6, f.thumbs.LastDuration(), "the frame is sampled against the new length")
	assert.True(t, f.exists(t, "thumbnails/video/longer.jpg"))

	// an explicit duration wins over the file
	seconds := 30
	updated, err = f.media.UpdateVideo(f.ctx, f.db, user.ID, video.ID, &dto.UpdateMediaRequest{
		Duration: &seconds,
		File:     testutil.FileHeader(t, "again.mp4", "video/mp4", testutil.MP4Bytes()),
	})
	require.NoError(t, err)
	assert.Equal(t, 30, updated.Duration)
	assert.Equal(t, 30.0, f.thumbs.LastDuration())
}

func TestListMusic_Paging(t *testing.T) {
	f := newFixture(t)
	user := testutil.CreateUser(t, f.db, "alice", "password123")
	for _, title := range []string{"a", "b", "c"} {
		testutil.CreateMusic(t, f.db, user, title)
	}

	list, err := f.media.ListMusic(f.ctx, f.db, &dto.MediaListQuery{PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), list.Total)
	assert.Len(t, list.Items, 2)
	assert.Equal(t, 1, list.Page)

	list, err = f.media.ListMusic(f.ctx, f.db, &dto.MediaListQuery{PageSize: 1000})
	require.NoError(t, err)
	assert.Equal(t, 100, list.PageSize)
}

// ============================================
// INTERACTIONS
// ============================================

func TestToggleLike_CancelsOut(t *testing.T) {
	f := newFixture(t)
	alice := testutil.CreateUser(t, f.db, "alice", "password123")
	bob := testutil.CreateUser(t, f.db, "bob", "password123")
	music := testutil.CreateMusic(t, f.db, alice, "song")

	resp, err := f.interactions.ToggleLike(f.ctx, f.db, models.KindMusic, bob.ID, music.ID)
	require.NoError(t, err)
	assert.Equal(t, &dto.LikeResponse{Success: true, IsLiked: true, LikeCount: 1}, resp)

	resp, err = f.interactions.ToggleLike(f.ctx, f.db, models.KindMusic, alice.ID, music.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.LikeCount)

	resp, err = f.interactions.ToggleLike(f.ctx, f.db, models.KindMusic, bob.ID, music.ID)
	require.NoError(t, err)
	assert.Equal(t, &dto.LikeResponse{Success: true, IsLiked: false, LikeCount: 1}, resp)

	status, err := f.interactions.LikeStatus(f.ctx, f.db, models.KindMusic, bob.ID, music.ID)
	require.NoError(t, err)
	assert.False(t, status.IsLiked)
	assert.Equal(t, int64(1), status.LikeCount)
	assert.Equal(t, 3, f.publisher.n)

	_, err = f.interactions.ToggleLike(f.ctx, f.db, models.KindVideo, bob.ID, music.ID+100)
	requireStatus(t, err, 404)
}

func TestPlay_IncrementsCounter(t *testing.T) {
	f := newFixture(t)
	user := testutil.CreateUser(t, f.db, "alice", "password123")
	video := testutil.CreateVideo(t, f.db, user, "clip")

	for i := 1; i <= 3; i++ {
		count, err := f.interactions.Play(f.ctx, f.db, models.KindVideo, video.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(i), count)
	}
	assert.Equal(t, models.KindVideo, f.publisher.last.Kind)
}

func TestComments_OnlyAuthorDeletes(t *testing.T) {
	f := newFixture(t)
	alice := testutil.CreateUser(t, f.db, "alice", "password123")
	bob := testutil.CreateUser(t, f.db, "bob", "password123")
	music := testutil.CreateMusic(t, f.db, alice, "song")

	_, err := f.interactions.AddComment(f.ctx, f.db, models.KindMusic, bob.ID, music.ID, &dto.CommentRequest{Content: "   "})
	requireStatus(t, err, 400)

	added, err := f.interactions.AddComment(f.ctx, f.db, models.KindMusic, bob.ID, music.ID, &dto.CommentRequest{Content: "  great track "})
	require.NoError(t, err)
	assert.Equal(t, "great track", added.Comment.Content)
	assert.Equal(t, int64(1), added.CommentCount)

	_, err = f.interactions.DeleteComment(f.ctx, f.db, models.KindMusic, alice.ID, added.Comment.ID)
	requireStatus(t, err, 403)

	list, err := f.interactions.ListComments(f.ctx, f.db, models.KindMusic, music.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total, "the comment survives a foreign delete")

	deleted, err := f.interactions.DeleteComment(f.ctx, f.db, models.KindMusic, bob.ID, added.Comment.ID)
	require.NoError(t, err)
	assert.Zero(t, deleted.CommentCount)

	_, err = f.interactions.DeleteComment(f.ctx, f.db, models.KindMusic, bob.ID, added.Comment.ID)
	requireStatus(t, err, 404)
}

// ============================================
// AUTH / TAGS
// ============================================

func TestAuth_RegisterLoginMe(t *testing.T) {
	f := newFixture(t)

	reg, err := f.auth.Register(f.ctx, f.db, &dto.RegisterRequest{Username: "alice", Email: " Alice@Example.com ", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", reg.TokenType)
	assert.Equal(t, "alice@example.com", reg.User.Email)

	_, err = f.auth.Register(f.ctx, f.db, &dto.RegisterRequest{Username: "other", Email: "alice@example.com", Password: "password123"})
	requireStatus(t, err, 409)
	_, err = f.auth.Register(f.ctx, f.db, &dto.RegisterRequest{Username: "alice", Email: "new@example.com", Password: "password123"})
	requireStatus(t, err, 409)

	login, err := f.auth.Login(f.ctx, f.db, &dto.LoginRequest{Email: "ALICE@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, login.AccessToken)

	_, err = f.auth.Login(f.ctx, f.db, &dto.LoginRequest{Email: "alice@example.com", Password: "wrong-password"})
	requireStatus(t, err, 401)

	me, err := f.auth.Me(f.ctx, f.db, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)
}

func TestTags_CreateIsIdempotent(t *testing.T) {
	f := newFixture(t)

	tag, created, err := f.tags.Create(f.ctx, f.db, &dto.CreateTagRequest{Name: " chill "})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "chill", tag.Name)

	again, created, err := f.tags.Create(f.ctx, f.db, &dto.CreateTagRequest{Name: "chill"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, tag.ID, again.ID)

	all, err := f.tags.List(f.ctx, f.db)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestNaming(t *testing.T) {
	at := time.Unix(0, 1700000000000000000)
	staged := services.StagingPath(models.KindMusic, 7, at, "../My Song.mp3")
	assert.Equal(t, "tmp/music/7/1700000000000000000_My_Song.mp3", staged)
	assert.Equal(t, "music/My_Song.mp3", services.PermanentPath(models.KindMusic, staged))
	assert.Equal(t, "My Song", services.DeriveTitle("My Song.mp3"))
	assert.Equal(t, "untitled", services.DeriveTitle(".mp3"))
}
