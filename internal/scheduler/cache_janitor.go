package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/komiku/internal/logger"
)

// Pruner is a cache that can drop entries too old to be served.
type Pruner interface {
	Prune(now time.Time) int
	Len() int
}

// CacheJanitor periodically removes response cache entries that expired
// past their stale grace window. Only the in-process cache needs it; Redis
// expires keys on its own.
type CacheJanitor struct {
	cache    Pruner
	logger   logger.Logger
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewCacheJanitor creates a new cache janitor
func NewCacheJanitor(cache Pruner, log logger.Logger, interval time.Duration) *CacheJanitor {
	return &CacheJanitor{
		cache:    cache,
		logger:   log,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic pruning
func (j *CacheJanitor) Start(ctx context.Context) error {
	if j.interval <= 0 {
		j.logger.Info("cache janitor disabled")
		return nil
	}

	ticker := time.NewTicker(j.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				j.Collect()
			case <-j.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the janitor. Safe to call more than once.
func (j *CacheJanitor) Stop() {
	j.stopOnce.Do(func() { close(j.stopCh) })
}

// Collect prunes once and returns the number of removed entries.
func (j *CacheJanitor) Collect() int {
	removed := j.cache.Prune(j.now())

	if removed > 0 {
		j.logger.Info("cache janitor pruned expired responses",
			logger.Int("removed", removed),
			logger.Int("remaining", j.cache.Len()))
	} else {
		j.logger.Debug("no cached responses to prune")
	}

	return removed
}
