package view

import (
	"errors"
	"testing"

	"github.com/dmbarbosa/market-radar/internal/models"
)

func TestStoreApplyResultRebuildsCategories(t *testing.T) {
	s := NewStore()

	seq := s.NextSeq()
	if !s.ApplyResult(seq, []models.Opportunity{
		opp("a", 90, "Casa"),
		opp("b", 50, "Esporte"),
		opp("c", 30, "Casa"),
		opp("d", 20, ""),
	}) {
		t.Fatal("first apply should succeed")
	}

	snap := s.Snapshot()
	if len(snap.Opportunities) != 4 {
		t.Errorf("expected 4 opportunities, got %d", len(snap.Opportunities))
	}
	want := []string{"Casa", "Esporte"}
	if len(snap.Categories) != 2 || snap.Categories[0] != want[0] || snap.Categories[1] != want[1] {
		t.Errorf("expected categories %v, got %v", want, snap.Categories)
	}

	// A later fetch replaces the set wholesale.
	seq = s.NextSeq()
	s.ApplyResult(seq, []models.Opportunity{opp("x", 10, "Novo")})
	snap = s.Snapshot()
	if len(snap.Categories) != 1 || snap.Categories[0] != "Novo" {
		t.Errorf("categories not rebuilt: %v", snap.Categories)
	}
}

func TestStoreDiscardsStaleResult(t *testing.T) {
	s := NewStore()

	first := s.NextSeq()
	second := s.NextSeq()

	// The later-issued fetch resolves first.
	if !s.ApplyResult(second, []models.Opportunity{opp("new", 90, "A")}) {
		t.Fatal("newer result should apply")
	}
	if s.ApplyResult(first, []models.Opportunity{opp("old", 10, "B")}) {
		t.Error("stale result should be discarded")
	}

	snap := s.Snapshot()
	if len(snap.Opportunities) != 1 || snap.Opportunities[0].Keyword != "new" {
		t.Errorf("stale result overwrote newer one: %v", snap.Opportunities)
	}
}

func TestStoreApplyErrorKeepsList(t *testing.T) {
	s := NewStore()

	s.ApplyResult(s.NextSeq(), []models.Opportunity{opp("kept", 90, "A")})

	fetchErr := errors.New("upstream down")
	if !s.ApplyError(s.NextSeq(), fetchErr) {
		t.Fatal("error apply should succeed")
	}

	snap := s.Snapshot()
	if snap.Err == nil {
		t.Error("expected snapshot error to be set")
	}
	if len(snap.Opportunities) != 1 || snap.Opportunities[0].Keyword != "kept" {
		t.Error("failed fetch must not clear the previous list")
	}

	// A following success clears the error.
	s.ApplyResult(s.NextSeq(), []models.Opportunity{opp("fresh", 50, "A")})
	if snap = s.Snapshot(); snap.Err != nil {
		t.Error("successful fetch should clear the error")
	}
}

func TestStoreStaleErrorDiscarded(t *testing.T) {
	s := NewStore()

	first := s.NextSeq()
	second := s.NextSeq()

	s.ApplyResult(second, []models.Opportunity{opp("ok", 90, "A")})
	if s.ApplyError(first, errors.New("late failure")) {
		t.Error("stale error should be discarded")
	}
	if snap := s.Snapshot(); snap.Err != nil {
		t.Error("stale error must not mark a newer snapshot failed")
	}
}

func TestStoreEmpty(t *testing.T) {
	s := NewStore()
	if !s.Empty() {
		t.Error("new store should be empty")
	}

	s.ApplyResult(s.NextSeq(), nil)
	if s.Empty() {
		t.Error("store with an applied fetch should not be empty, even with zero items")
	}
}

func TestStoreStatsBestEffort(t *testing.T) {
	s := NewStore()
	s.SetStats(&models.StatsSummary{TotalOpportunities: 12, AvgScore: 61.5})

	snap := s.Snapshot()
	if snap.Stats == nil || snap.Stats.TotalOpportunities != 12 {
		t.Errorf("stats not installed: %+v", snap.Stats)
	}
}
