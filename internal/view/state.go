package view

import (
	"sort"
	"sync"
	"time"

	"github.com/dmbarbosa/market-radar/internal/models"
)

// Snapshot is the last full fetch result plus its derived category set.
// It is replaced wholesale, never patched.
type Snapshot struct {
	Opportunities []models.Opportunity
	Categories    []string
	Stats         *models.StatsSummary
	FetchedAt     time.Time

	// Err is the most recent fetch failure. A failed fetch records its
	// error but keeps the previous list, so the UI can show the error
	// panel without discarding data it already rendered.
	Err error
}

// Store owns the shared view state. Every fetch obtains a sequence number
// before it is issued; a result carrying a sequence older than the
// last-applied one is discarded, so overlapping fetches cannot apply
// out of order.
type Store struct {
	mu      sync.RWMutex
	snap    Snapshot
	issued  uint64
	applied uint64
}

func NewStore() *Store {
	return &Store{}
}

// NextSeq reserves a sequence number for a fetch about to be issued.
func (s *Store) NextSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// ApplyResult installs a successful fetch. The list is replaced and the
// category set fully rebuilt before the write is visible to any reader.
// Returns false when the result is stale and was discarded.
func (s *Store) ApplyResult(seq uint64, opps []models.Opportunity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq <= s.applied {
		return false
	}
	s.applied = seq

	s.snap.Opportunities = opps
	s.snap.Categories = distinctCategories(opps)
	s.snap.FetchedAt = time.Now()
	s.snap.Err = nil
	return true
}

// ApplyError records a failed fetch without touching the current list.
// Returns false when a newer result has already been applied.
func (s *Store) ApplyError(seq uint64, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq <= s.applied {
		return false
	}
	s.applied = seq

	s.snap.Err = err
	return true
}

// SetStats installs the best-effort stats summary. Stats are unsequenced:
// they never gate or block the main list.
func (s *Store) SetStats(stats *models.StatsSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Stats = stats
}

// Snapshot returns the current view state. The contained slices are shared
// and treated as immutable by all readers.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Empty reports whether no fetch has populated the store yet. The loading
// skeleton is only shown in this state, so background refreshes do not
// flash the UI.
func (s *Store) Empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.FetchedAt.IsZero()
}

func distinctCategories(opps []models.Opportunity) []string {
	seen := make(map[string]struct{})
	var cats []string
	for i := range opps {
		c := opps[i].Category()
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}
