package service

import (
	"context"
	"sync"
	"time"

	"github.com/dishcraft/menusync/internal/connectivity"
	"github.com/dishcraft/menusync/internal/logger"
)

type syncJob struct {
	syncService SyncService
	monitor     *connectivity.Monitor
	logger      *logger.Logger
	interval    time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSyncJob creates a [SyncJob] that calls SyncNow on a ticker and
// immediately whenever the connectivity monitor reports the remote store
// became reachable again. The job is idle until Start is called.
func NewSyncJob(syncService SyncService, monitor *connectivity.Monitor, interval time.Duration, logger *logger.Logger) SyncJob {
	return &syncJob{
		syncService: syncService,
		monitor:     monitor,
		logger:      logger,
		interval:    interval,
	}
}

// Start implements [SyncJob]. It stops any previously running job, then
// launches a background goroutine that triggers a sync pass every interval and
// on every offline-to-online transition. The goroutine exits when ctx is
// cancelled or Stop is called.
func (j *syncJob) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				j.pass(jobCtx)
			case status := <-j.monitor.Events():
				if status == connectivity.StatusOnline {
					j.logger.Info().Msg("connectivity regained, triggering sync pass")
					j.pass(jobCtx)
				}
			}
		}
	}()
}

// Stop implements [SyncJob]. It cancels the background goroutine's context and
// blocks until the goroutine has fully exited. Safe to call when the job is
// not running.
func (j *syncJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}

// Run implements [SyncJob] and the background worker contract.
func (j *syncJob) Run() {
	j.Start(context.Background(), j.interval)
}

func (j *syncJob) pass(ctx context.Context) {
	if err := j.syncService.SyncNow(j.logger.WithContext(ctx)); err != nil {
		j.logger.Warn().Err(err).Msg("periodic sync pass failed")
	}
}
