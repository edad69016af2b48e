package repositories_test

import (
	"testing"
	"time"

	"twobeats/internal/models"
	"twobeats/internal/repositories"
	"twobeats/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikeRepository_CreateDeleteIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewLikeRepository()
	user := testutil.CreateUser(t, db, "alice", "password123")
	music := testutil.CreateMusic(t, db, user, "song")

	added, err := repo.Create(db, models.KindMusic, user.ID, music.ID)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = repo.Create(db, models.KindMusic, user.ID, music.ID)
	require.NoError(t, err)
	assert.False(t, added, "second like by the same user is a no-op")

	exists, err := repo.Exists(db, models.KindMusic, user.ID, music.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	removed, err := repo.Delete(db, models.KindMusic, user.ID, music.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Delete(db, models.KindMusic, user.ID, music.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestMediaRepository_AdjustLikesNeverNegative(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewMediaRepository()
	user := testutil.CreateUser(t, db, "alice", "password123")
	video := testutil.CreateVideo(t, db, user, "clip")

	require.NoError(t, repo.AdjustLikes(db, models.KindVideo, video.ID, 1))
	require.NoError(t, repo.AdjustLikes(db, models.KindVideo, video.ID, -1))
	require.NoError(t, repo.AdjustLikes(db, models.KindVideo, video.ID, -1))

	counters, err := repo.GetCounters(db, models.KindVideo, video.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), counters.LikeCount)
}

func TestMediaRepository_IncrementPlays(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewMediaRepository()
	user := testutil.CreateUser(t, db, "alice", "password123")
	music := testutil.CreateMusic(t, db, user, "song")

	require.NoError(t, repo.IncrementPlays(db, models.KindMusic, music.ID))
	require.NoError(t, repo.IncrementPlays(db, models.KindMusic, music.ID))

	counters, err := repo.GetCounters(db, models.KindMusic, music.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counters.PlayCount)

	err = repo.IncrementPlays(db, models.KindMusic, music.ID+100)
	assert.ErrorIs(t, err, repositories.ErrMediaNotFound)
}

func TestMediaRepository_ReferencesFile(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewMediaRepository()
	user := testutil.CreateUser(t, db, "alice", "password123")
	video := testutil.CreateVideo(t, db, user, "clip")

	ok, err := repo.ReferencesFile(db, video.FilePath)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ReferencesFile(db, "tmp/video/1/1_clip.mp4")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMediaRepository_ListFilters(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewMediaRepository()
	alice := testutil.CreateUser(t, db, "alice", "password123")
	bob := testutil.CreateUser(t, db, "bob", "password123")

	rock := testutil.CreateTag(t, db, "rock")
	first := testutil.CreateMusic(t, db, alice, "Morning Song")
	testutil.CreateMusic(t, db, alice, "Evening")
	testutil.CreateMusic(t, db, bob, "Night Song")
	require.NoError(t, repo.UpdateMusic(db, first, []models.Tag{*rock}, true))

	tests := []struct {
		name   string
		filter repositories.MediaFilter
		want   int64
	}{
		{name: "all", filter: repositories.MediaFilter{}, want: 3},
		{name: "by owner", filter: repositories.MediaFilter{OwnerID: bob.ID}, want: 1},
		{name: "by query", filter: repositories.MediaFilter{Query: "song"}, want: 2},
		{name: "by tag", filter: repositories.MediaFilter{Tag: "rock"}, want: 1},
		{name: "unknown tag", filter: repositories.MediaFilter{Tag: "jazz"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, total, err := repo.ListMusic(db, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, total)
			assert.Len(t, items, int(tt.want))
		})
	}

	items, total, err := repo.ListMusic(db, repositories.MediaFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, items, 1)
}

func TestMediaRepository_DeleteRemovesDependents(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewMediaRepository()
	likes := repositories.NewLikeRepository()
	comments := repositories.NewCommentRepository()
	user := testutil.CreateUser(t, db, "alice", "password123")
	music := testutil.CreateMusic(t, db, user, "song")

	_, err := likes.Create(db, models.KindMusic, user.ID, music.ID)
	require.NoError(t, err)
	_, err = comments.Create(db, models.KindMusic, user.ID, music.ID, "nice")
	require.NoError(t, err)

	require.NoError(t, repo.DeleteMusic(db, music))

	_, err = repo.FindMusicByID(db, music.ID)
	assert.ErrorIs(t, err, repositories.ErrMediaNotFound)

	count, err := comments.Count(db, models.KindMusic, music.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
	exists, err := likes.Exists(db, models.KindMusic, user.ID, music.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCommentRepository_ListNewestFirst(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewCommentRepository()
	user := testutil.CreateUser(t, db, "alice", "password123")
	video := testutil.CreateVideo(t, db, user, "clip")

	for _, content := range []string{"first", "second", "third"} {
		_, err := repo.Create(db, models.KindVideo, user.ID, video.ID, content)
		require.NoError(t, err)
	}

	items, total, err := repo.List(db, models.KindVideo, video.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 2)
	assert.Equal(t, "third", items[0].Content)
	assert.Equal(t, "alice", items[0].Username)
	assert.Equal(t, models.KindVideo, items[0].Kind)

	found, err := repo.FindByID(db, models.KindVideo, items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, video.ID, found.ItemID)

	_, err = repo.FindByID(db, models.KindMusic, items[0].ID+100)
	assert.ErrorIs(t, err, repositories.ErrCommentNotFound)
}

func TestTagRepository_FirstOrCreate(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewTagRepository()

	tag, created, err := repo.FirstOrCreate(db, "lofi")
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := repo.FirstOrCreate(db, "lofi")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, tag.ID, again.ID)

	found, err := repo.FindByIDs(db, []uint{tag.ID, tag.ID + 50})
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestUploadSessionRepository_Transition(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewUploadSessionRepository()
	user := testutil.CreateUser(t, db, "alice", "password123")

	now := time.Now().UTC()
	session := &models.UploadSession{
		UserID:       user.ID,
		Kind:         models.KindMusic,
		Title:        "song",
		OriginalName: "song.mp3",
		TempPath:     "tmp/music/1/1_song.mp3",
		Status:       models.UploadStatusStaged,
		ExpiresAt:    now.Add(-time.Minute),
		CreatedAt:    now,
	}
	require.NoError(t, repo.Create(db, session))
	require.NotEmpty(t, session.ID)

	expired, err := repo.FindExpired(db, now, 10)
	require.NoError(t, err)
	require.Len(t, expired, 1)

	dup, err := repo.ExistsRecentDuplicate(db, user.ID, models.KindMusic, "song", now.Add(-time.Minute))
	require.NoError(t, err)
	assert.True(t, dup)

	ok, err := repo.Transition(db, session.ID, models.UploadStatusCancelled, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Transition(db, session.ID, models.UploadStatusFinalized, nil)
	require.NoError(t, err)
	assert.False(t, ok, "terminal sessions do not transition again")

	dup, err = repo.ExistsRecentDuplicate(db, user.ID, models.KindMusic, "song", now.Add(-time.Minute))
	require.NoError(t, err)
	assert.False(t, dup, "cancelled sessions do not count as duplicates")

	_, err = repo.FindForUser(db, session.ID, user.ID+1, models.KindMusic)
	assert.ErrorIs(t, err, repositories.ErrSessionNotFound)
}
