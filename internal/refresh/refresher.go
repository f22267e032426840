// Package refresh drives the ranking snapshot: a fixed-interval background
// loop and the manual refresh action share one code path.
package refresh

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/dmbarbosa/market-radar/internal/models"
	"github.com/dmbarbosa/market-radar/internal/view"
)

// Fetcher is the slice of the upstream client the refresher needs.
type Fetcher interface {
	Ranking(ctx context.Context, limit int) ([]models.Opportunity, error)
	Stats(ctx context.Context) (*models.StatsSummary, error)
}

// Refresher re-fetches the full ranking and installs it in the store.
type Refresher struct {
	fetcher  Fetcher
	store    *view.Store
	limit    int
	interval time.Duration
}

func NewRefresher(fetcher Fetcher, store *view.Store, limit int, interval time.Duration) *Refresher {
	return &Refresher{
		fetcher:  fetcher,
		store:    store,
		limit:    limit,
		interval: interval,
	}
}

// RefreshNow performs one full fetch-and-apply cycle. The sequence number
// is reserved before the fetch is issued, so a slow response can never
// overwrite a newer one. Stats are best-effort and never fail the cycle.
func (r *Refresher) RefreshNow(ctx context.Context) error {
	runID := uuid.New().String()[:8]
	seq := r.store.NextSeq()

	opps, err := r.fetcher.Ranking(ctx, r.limit)
	if err != nil {
		if r.store.ApplyError(seq, err) {
			log.Printf("[refresh %s] ranking fetch failed: %v", runID, err)
		}
		return err
	}

	if !r.store.ApplyResult(seq, opps) {
		log.Printf("[refresh %s] discarded stale result (seq %d)", runID, seq)
		return nil
	}

	if stats, err := r.fetcher.Stats(ctx); err != nil {
		log.Printf("[refresh %s] stats fetch failed, keeping previous: %v", runID, err)
	} else {
		r.store.SetStats(stats)
	}

	return nil
}

// Run refreshes immediately, then on every tick until the context ends.
// Failed cycles are not retried; the next tick is the retry.
func (r *Refresher) Run(ctx context.Context) {
	if err := r.RefreshNow(ctx); err != nil {
		log.Printf("initial refresh failed: %v", err)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.RefreshNow(ctx); err != nil {
				log.Printf("periodic refresh failed: %v", err)
			}
		}
	}
}
