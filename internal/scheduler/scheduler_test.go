package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrSnakeDoc/komiku/internal/cache"
	"github.com/MrSnakeDoc/komiku/internal/domain"
	"github.com/MrSnakeDoc/komiku/internal/logger"
)

func TestCacheJanitor_Collect(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	mem := cache.NewMemory(10 * time.Minute)

	entries := map[string]cache.Entry{
		"fresh":        {StoredAt: now, TTL: time.Hour},
		"stale-usable": {StoredAt: now.Add(-20 * time.Minute), TTL: 15 * time.Minute},
		"dead":         {StoredAt: now.Add(-2 * time.Hour), TTL: time.Minute},
	}
	for k, e := range entries {
		if err := mem.Set(ctx, k, e); err != nil {
			t.Fatalf("Set(%s) failed: %v", k, err)
		}
	}

	janitor := NewCacheJanitor(mem, logger.Nop(), time.Hour)
	janitor.now = func() time.Time { return now }

	if removed := janitor.Collect(); removed != 1 {
		t.Errorf("Collect() removed %d entries, want 1", removed)
	}
	if mem.Len() != 2 {
		t.Errorf("Expected 2 entries after collect, got %d", mem.Len())
	}
	if _, ok, _ := mem.Get(ctx, "stale-usable"); !ok {
		t.Error("Entry within grace window was incorrectly removed")
	}
}

func TestCacheJanitor_DisabledInterval(t *testing.T) {
	janitor := NewCacheJanitor(cache.NewMemory(time.Minute), logger.Nop(), 0)

	if err := janitor.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	janitor.Stop()
	janitor.Stop()
}

type countingSource struct {
	calls atomic.Int32
	warms chan struct{}
}

func (s *countingSource) Homepage(context.Context) domain.Homepage {
	s.calls.Add(1)
	s.warms <- struct{}{}
	return domain.Homepage{KomikLatest: []domain.Komik{{MangaID: "1"}}}
}

func waitWarm(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for warm")
	}
}

func TestWarmer_InitialAndManualWarm(t *testing.T) {
	src := &countingSource{warms: make(chan struct{}, 4)}
	trigger := make(chan struct{}, 1)

	w := NewWarmer(src, logger.Nop(), 0, trigger)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	waitWarm(t, src.warms)

	trigger <- struct{}{}
	waitWarm(t, src.warms)

	w.Stop()

	if got := src.calls.Load(); got != 2 {
		t.Errorf("Expected 2 warms, got %d", got)
	}
}

func TestWarmer_Ticker(t *testing.T) {
	src := &countingSource{warms: make(chan struct{}, 8)}

	w := NewWarmer(src, logger.Nop(), 10*time.Millisecond, make(chan struct{}))
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	waitWarm(t, src.warms) // initial
	waitWarm(t, src.warms) // first tick

	w.Stop()
}

func TestWarmer_StopWithoutStart(t *testing.T) {
	w := NewWarmer(&countingSource{warms: make(chan struct{}, 1)}, logger.Nop(), time.Minute, nil)
	w.Stop()
}

func TestWarmer_Warm(t *testing.T) {
	src := &countingSource{warms: make(chan struct{}, 1)}
	w := NewWarmer(src, logger.Nop(), 0, nil)

	home := w.Warm(context.Background())
	if len(home.KomikLatest) != 1 {
		t.Errorf("Warm() returned %d komik, want 1", len(home.KomikLatest))
	}
}
