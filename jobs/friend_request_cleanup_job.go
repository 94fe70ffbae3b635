// File: /jobs/friend_request_cleanup_job.go
package jobs

import (
	"context"
	"time"

	"sushicount-api/logger"
	"sushicount-api/repositories"
)

// FriendRequestCleanupJob periodically removes answered friend requests past their retention
type FriendRequestCleanupJob struct {
	friends   *repositories.FriendRepository
	retention time.Duration
	ticker    *time.Ticker
	done      chan struct{}
	now       func() time.Time
}

// NewFriendRequestCleanupJob creates a new cleanup job
func NewFriendRequestCleanupJob(friends *repositories.FriendRepository, interval, retention time.Duration) *FriendRequestCleanupJob {
	return &FriendRequestCleanupJob{
		friends:   friends,
		retention: retention,
		ticker:    time.NewTicker(interval),
		done:      make(chan struct{}),
		now:       time.Now,
	}
}

// Start begins the cleanup job
func (j *FriendRequestCleanupJob) Start() {
	logger.Info("Friend request cleanup job started", "retention", j.retention.String())

	go func() {
		// Run immediately on start
		j.Cleanup(context.Background())

		for {
			select {
			case <-j.ticker.C:
				j.Cleanup(context.Background())
			case <-j.done:
				logger.Info("Friend request cleanup job stopped")
				return
			}
		}
	}()
}

// Stop stops the cleanup job
func (j *FriendRequestCleanupJob) Stop() {
	j.ticker.Stop()
	close(j.done)
}

// Cleanup runs one purge pass and returns the number of removed requests.
func (j *FriendRequestCleanupJob) Cleanup(ctx context.Context) int64 {
	purged, err := j.friends.PurgeAnswered(ctx, j.now().Add(-j.retention))
	if err != nil {
		logger.Error("Friend request cleanup failed", "error", err)
		return 0
	}

	if purged > 0 {
		logger.Info("Friend request cleanup completed", "purged", purged)
	}
	return purged
}
