package workers

import (
	"context"
	"sync"
	"time"

	"twobeats/internal/logger"
	"twobeats/internal/services/dto"

	"gorm.io/gorm"
)

const defaultBatchSize = 100

// Purger is the part of the upload service the janitor drives.
type Purger interface {
	PurgeExpired(ctx context.Context, db *gorm.DB, limit int) (*dto.CleanupResult, error)
}

// StagingJanitor expires staged uploads past their deadline and removes their temp files.
type StagingJanitor struct {
	db       *gorm.DB
	uploads  Purger
	interval time.Duration
	batch    int
	wg       sync.WaitGroup
}

func NewStagingJanitor(db *gorm.DB, uploads Purger, interval time.Duration) *StagingJanitor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &StagingJanitor{db: db, uploads: uploads, interval: interval, batch: defaultBatchSize}
}

// Start runs the janitor in the background until ctx is cancelled.
func (w *StagingJanitor) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.loop(ctx)
}

// Wait blocks until the background loop has returned.
func (w *StagingJanitor) Wait() {
	w.wg.Wait()
}

func (w *StagingJanitor) loop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.WorkerLog("staging_janitor", "started", nil)
	for {
		select {
		case <-ctx.Done():
			logger.WorkerLog("staging_janitor", "stopped", nil)
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				logger.WorkerLog("staging_janitor", "purge", err)
			}
		}
	}
}

// RunOnce purges in batches until no expired session is left.
func (w *StagingJanitor) RunOnce(ctx context.Context) (*dto.CleanupResult, error) {
	total := &dto.CleanupResult{}
	for {
		res, err := w.uploads.PurgeExpired(ctx, w.db.WithContext(ctx), w.batch)
		if err != nil {
			return total, err
		}
		total.Expired += res.Expired
		total.FilesRemoved += res.FilesRemoved
		total.Failed += res.Failed

		// stop on a short batch or one without progress
		if res.Expired+res.Failed < w.batch || res.Expired == 0 {
			return total, nil
		}
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
	}
}
