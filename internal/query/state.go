// Package query holds the single source of truth for the canonical market
// search query of one item-analysis session. All consumers read from the one
// State instance; Initialize is its only mutator and fully replaces prior
// state, so no partial update is ever visible.
package query

import (
	"strings"
	"sync"

	"github.com/auctiondesk/lotsense/internal/terms"
)

type AnalysisType string

const (
	AnalysisArtistField          AnalysisType = "artist_field"
	AnalysisAIOnly               AnalysisType = "ai_only"
	AnalysisExistingArtistField  AnalysisType = "existing_artist_field"
	AnalysisNonArtItem           AnalysisType = "non_art_item"
	AnalysisSystemWithExtensions AnalysisType = "system_with_extensions"
)

// Metadata describes how the current query was derived.
type Metadata struct {
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
	Reasoning  string  `json:"reasoning"`
}

// SearchContext is the read model handed to the market scheduler. Valid is
// false when no query has ever been initialized; callers short-circuit on it
// instead of handling an error.
type SearchContext struct {
	Query        string                `json:"query"`
	Terms        []terms.CandidateTerm `json:"terms"`
	AnalysisType AnalysisType          `json:"analysis_type"`
	Valid        bool                  `json:"valid"`
}

// Snapshot is the plain data record exposed to the UI layer.
type Snapshot struct {
	Query        string                `json:"query"`
	Candidates   []terms.CandidateTerm `json:"candidates"`
	AnalysisType AnalysisType          `json:"analysis_type"`
	Metadata     Metadata              `json:"metadata"`
}

type State struct {
	mu           sync.Mutex
	query        string
	candidates   []terms.CandidateTerm
	analysisType AnalysisType
	meta         Metadata
	initialized  bool
}

func NewState() *State { return &State{} }

// Initialize atomically replaces the whole state. Re-initialization is the
// expected way richer information (an AI-detected artist, extended
// candidates) supersedes an earlier pass; no merging happens at this layer.
func (s *State) Initialize(q string, candidates []terms.CandidateTerm, at AnalysisType, meta Metadata) {
	cp := make([]terms.CandidateTerm, len(candidates))
	copy(cp, candidates)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = strings.TrimSpace(q)
	s.candidates = cp
	s.analysisType = at
	s.meta = meta
	s.initialized = true
}

func (s *State) CurrentQuery() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

func (s *State) CurrentMetadata() Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta
}

func (s *State) AnalysisType() AnalysisType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analysisType
}

func (s *State) Candidates() []terms.CandidateTerm {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]terms.CandidateTerm, len(s.candidates))
	copy(cp, s.candidates)
	return cp
}

// BuildSearchContext returns the context for a market lookup. The context is
// marked invalid when the state was never initialized or holds an empty
// query; it never panics and never returns an error.
func (s *State) BuildSearchContext() SearchContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized || s.query == "" {
		return SearchContext{}
	}
	cp := make([]terms.CandidateTerm, len(s.candidates))
	copy(cp, s.candidates)
	return SearchContext{
		Query:        s.query,
		Terms:        cp,
		AnalysisType: s.analysisType,
		Valid:        true,
	}
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]terms.CandidateTerm, len(s.candidates))
	copy(cp, s.candidates)
	return Snapshot{
		Query:        s.query,
		Candidates:   cp,
		AnalysisType: s.analysisType,
		Metadata:     s.meta,
	}
}
