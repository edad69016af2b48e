package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"twobeats/internal/services/dto"
	"twobeats/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakePurger struct {
	mu      sync.Mutex
	batches []dto.CleanupResult
	err     error
	calls   int
}

func (f *fakePurger) PurgeExpired(ctx context.Context, db *gorm.DB, limit int) (*dto.CleanupResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.batches) == 0 {
		return &dto.CleanupResult{}, nil
	}
	next := f.batches[0]
	f.batches = f.batches[1:]
	return &next, nil
}

func (f *fakePurger) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestStagingJanitor_RunOnceDrainsBatches(t *testing.T) {
	purger := &fakePurger{batches: []dto.CleanupResult{
		{Expired: defaultBatchSize, FilesRemoved: 90, Failed: 0},
		{Expired: 7, FilesRemoved: 7, Failed: 1},
		{Expired: 50},
	}}
	janitor := NewStagingJanitor(testutil.NewDB(t), purger, time.Minute)

	res, err := janitor.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, purger.Calls(), "a short batch ends the run")
	assert.Equal(t, defaultBatchSize+7, res.Expired)
	assert.Equal(t, 97, res.FilesRemoved)
	assert.Equal(t, 1, res.Failed)
}

func TestStagingJanitor_RunOnceError(t *testing.T) {
	purger := &fakePurger{err: errors.New("db down")}
	janitor := NewStagingJanitor(testutil.NewDB(t), purger, time.Minute)

	res, err := janitor.RunOnce(context.Background())
	assert.EqualError(t, err, "db down")
	require.NotNil(t, res)
	assert.Zero(t, res.Expired)
}

func TestStagingJanitor_StartStop(t *testing.T) {
	purger := &fakePurger{}
	janitor := NewStagingJanitor(testutil.NewDB(t), purger, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	janitor.Start(ctx)

	require.Eventually(t, func() bool { return purger.Calls() >= 2 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	done := make(chan struct{})
	go func() {
		janitor.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not stop after cancel")
	}
}

func TestNewStagingJanitor_DefaultInterval(t *testing.T) {
	janitor := NewStagingJanitor(testutil.NewDB(t), &fakePurger{}, 0)
	assert.Equal(t, 5*time.Minute, janitor.interval)
	assert.Equal(t, defaultBatchSize, janitor.batch)
}
