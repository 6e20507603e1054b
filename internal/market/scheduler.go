package market

import (
	"context"
	"log"
	"sync"

	"github.com/auctiondesk/lotsense/internal/query"
	"github.com/auctiondesk/lotsense/internal/terms"
)

type LookupState string

const (
	LookupPending   LookupState = "pending"
	LookupExecuting LookupState = "executing"
	LookupDone      LookupState = "done"
)

// DeferredLookup is a market request whose execution is postponed until its
// result would actually be displayed.
type DeferredLookup struct {
	SearchContext        query.SearchContext
	CandidateSearchTerms []terms.CandidateTerm
	Source               string
	State                LookupState
}

// VisibilityFn reports whether the market dashboard is currently visible.
// The flag is owned and persisted outside this package.
type VisibilityFn func() bool

// Scheduler is the single-flight, visibility-gated lazy-evaluation policy
// around the Market Data Service: the expensive call happens at most once
// per distinct trigger, and never while its result would be invisible.
type Scheduler struct {
	mu         sync.Mutex
	svc        Service
	visible    VisibilityFn
	pending    *DeferredLookup
	lastSnap   *Snapshot
	lastSource string
}

func NewScheduler(svc Service, visible VisibilityFn) *Scheduler {
	if visible == nil {
		visible = func() bool { return false }
	}
	return &Scheduler{svc: svc, visible: visible}
}

// RunOrDefer executes the lookup now when the dashboard is visible and
// returns its snapshot. When hidden, it stores exactly one deferred lookup
// (overwriting any unexecuted prior one, last request wins) and returns nil;
// the UI shows PlaceholderSnapshot until ExecuteDeferredAnalysis runs.
func (s *Scheduler) RunOrDefer(ctx context.Context, sc query.SearchContext, candidates []terms.CandidateTerm, source string) *Snapshot {
	if !s.visible() {
		cp := make([]terms.CandidateTerm, len(candidates))
		copy(cp, candidates)
		s.mu.Lock()
		s.pending = &DeferredLookup{
			SearchContext:        sc,
			CandidateSearchTerms: cp,
			Source:               source,
			State:                LookupPending,
		}
		s.mu.Unlock()
		return nil
	}
	snap := s.execute(ctx, sc, source)
	return &snap
}

// ExecuteDeferredAnalysis runs the stored deferred lookup, if any. The slot
// is cleared before execution, so a second call in a row is a no-op
// returning nil. A lookup that finds nothing yields an explicit no-data
// snapshot, not nil.
func (s *Scheduler) ExecuteDeferredAnalysis(ctx context.Context) *Snapshot {
	s.mu.Lock()
	dl := s.pending
	s.pending = nil
	s.mu.Unlock()
	if dl == nil {
		return nil
	}
	dl.State = LookupExecuting
	snap := s.execute(ctx, dl.SearchContext, dl.Source)
	dl.State = LookupDone
	return &snap
}

// PendingLookup returns a copy of the stored deferred lookup, or nil.
func (s *Scheduler) PendingLookup() *DeferredLookup {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil
	}
	cp := *s.pending
	return &cp
}

func (s *Scheduler) execute(ctx context.Context, sc query.SearchContext, source string) Snapshot {
	if !sc.Valid {
		return NoDataSnapshot(source)
	}
	snap, err := s.svc.AnalyzeSales(ctx, sc)
	if err != nil {
		log.Printf("market-data lookup failed source=%s query=%q err=%v", source, sc.Query, err)
		return NoDataSnapshot(source)
	}
	if snap.DataSource == "" {
		snap.DataSource = source
	}
	if !snap.HasComparableData {
		s.remember(snap, source)
		return snap
	}

	s.mu.Lock()
	prev := s.lastSnap
	prevSource := s.lastSource
	s.mu.Unlock()
	if source == LookupArtist && prev != nil && prevSource != LookupArtist && prev.HasComparableData {
		snap = MergeSnapshots(snap, *prev)
	}
	s.remember(snap, source)
	return snap
}

func (s *Scheduler) remember(snap Snapshot, source string) {
	s.mu.Lock()
	s.lastSnap = &snap
	s.lastSource = source
	s.mu.Unlock()
}

// MergeSnapshots folds a broader/freetext result into an artist-scoped one.
// The artist result is authoritative for the price range and counts;
// exceptional sales and non-duplicate insights from the broader result are
// carried over, with folded insight text annotated with its origin.
func MergeSnapshots(primary, broader Snapshot) Snapshot {
	out := primary

	seenSales := map[string]struct{}{}
	for _, sale := range out.ExceptionalSales {
		seenSales[saleKey(sale)] = struct{}{}
	}
	for _, sale := range broader.ExceptionalSales {
		if _, dup := seenSales[saleKey(sale)]; dup {
			continue
		}
		seenSales[saleKey(sale)] = struct{}{}
		out.ExceptionalSales = append(out.ExceptionalSales, sale)
	}

	seenInsights := map[string]struct{}{}
	for _, in := range out.Insights {
		seenInsights[insightKey(in)] = struct{}{}
	}
	for _, in := range broader.Insights {
		if _, dup := seenInsights[insightKey(in)]; dup {
			continue
		}
		seenInsights[insightKey(in)] = struct{}{}
		in.Message = in.Message + " (from broader market context)"
		out.Insights = append(out.Insights, in)
	}
	return out
}

func saleKey(s ExceptionalSale) string {
	return s.Title + "|" + s.SoldAt
}

func insightKey(i Insight) string {
	return i.Type + "|" + i.Message
}
