package jobs

import (
	"context"
	"log"
	"time"

	"github.com/film-bet/blockend/internal/repository"
)

// SettlementWatcher periodically flags pools whose deadline has passed but
// that nobody has resolved. It never resolves a pool itself: resolution
// needs an outcome, which only a caller can supply.
type SettlementWatcher struct {
	repo     *repository.Repository
	interval time.Duration
	stopChan chan struct{}
}

// NewSettlementWatcher creates a new settlement watcher job
func NewSettlementWatcher(repo *repository.Repository, interval time.Duration) *SettlementWatcher {
	return &SettlementWatcher{
		repo:     repo,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the watch loop
func (w *SettlementWatcher) Start() {
	log.Printf("[SettlementWatcher] Starting settlement watch job (interval: %v)", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.flagUnresolvedPools()
		case <-w.stopChan:
			log.Println("[SettlementWatcher] Stopping settlement watch job")
			return
		}
	}
}

// Stop stops the watch loop
func (w *SettlementWatcher) Stop() {
	close(w.stopChan)
}

func (w *SettlementWatcher) flagUnresolvedPools() {
	ctx := context.Background()

	pools, err := w.repo.ListUnresolvedPastDeadline(ctx, time.Now(), 100)
	if err != nil {
		log.Printf("[SettlementWatcher] Error fetching unresolved pools: %v", err)
		return
	}

	for _, pool := range pools {
		overdue := time.Since(pool.EndTime).Round(time.Second)
		log.Printf("[SettlementWatcher] Pool %d (film %s) awaiting resolution, overdue by %v",
			pool.PoolID, pool.FilmID, overdue)
	}
}
