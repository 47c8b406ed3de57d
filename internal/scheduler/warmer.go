package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/komiku/internal/domain"
	"github.com/MrSnakeDoc/komiku/internal/logger"
)

// HomepageSource loads the landing page feeds.
type HomepageSource interface {
	Homepage(ctx context.Context) domain.Homepage
}

// Warmer prefetches the homepage feeds so the shortest cache tiers are
// refreshed ahead of user traffic. It runs on a ticker and whenever
// something is sent on the manual trigger channel.
type Warmer struct {
	source        HomepageSource
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}
	done          chan struct{}
	started       atomic.Bool
}

// NewWarmer creates a new homepage warmer. A zero interval disables the
// ticker; the manual trigger still works.
func NewWarmer(
	source HomepageSource,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *Warmer {
	return &Warmer{
		source:        source,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
		done:          make(chan struct{}),
	}
}

// Start warms once in the background, then keeps warming until stopped.
func (w *Warmer) Start(ctx context.Context) error {
	w.started.Store(true)

	var tick <-chan time.Time
	if w.interval > 0 {
		ticker := time.NewTicker(w.interval)
		tick = ticker.C
		go func() {
			<-w.done
			ticker.Stop()
		}()
	}

	go func() {
		defer close(w.done)

		w.Warm(ctx)
		for {
			select {
			case <-tick:
				w.Warm(ctx)
			case <-w.manualTrigger:
				w.logger.Info("manual warm triggered")
				w.Warm(ctx)
			case <-w.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the warmer and waits for an in-flight warm to finish.
func (w *Warmer) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	if w.started.Load() {
		<-w.done
	}
}

// Warm loads every homepage feed once.
func (w *Warmer) Warm(ctx context.Context) domain.Homepage {
	start := time.Now()
	home := w.source.Homepage(ctx)

	w.logger.Info("homepage warmed",
		logger.Int("komik_latest", len(home.KomikLatest)),
		logger.Int("komik_popular", len(home.KomikPopular)),
		logger.Int("anime_latest", len(home.AnimeLatest)),
		logger.Int("anime_recommended", len(home.AnimeRecommended)),
		logger.Duration("took", time.Since(start)))

	return home
}
