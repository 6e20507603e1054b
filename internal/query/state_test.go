package query

import (
	"testing"

	"github.com/auctiondesk/lotsense/internal/terms"
)

func TestBuildSearchContextBeforeInitialize(t *testing.T) {
	s := NewState()
	sc := s.BuildSearchContext()
	if sc.Valid {
		t.Fatal("context must be invalid before any Initialize")
	}
	if sc.Query != "" || len(sc.Terms) != 0 {
		t.Fatalf("invalid context must be empty, got %+v", sc)
	}
}

func TestInitializeReplaceSemantics(t *testing.T) {
	s := NewState()
	c1 := []terms.CandidateTerm{{Term: "Anna Ehrner", Type: terms.TypeArtist}}
	c2 := []terms.CandidateTerm{
		{Term: "Anna Ehrner", Type: terms.TypeArtist},
		{Term: "Kosta Boda", Type: terms.TypeBrand},
	}

	s.Initialize("Anna Ehrner", c1, AnalysisArtistField, Metadata{Confidence: 0.6, Source: "artist_field"})
	s.Initialize("Anna Ehrner Kosta Boda", c2, AnalysisSystemWithExtensions, Metadata{Confidence: 0.9, Source: "ai_extended"})

	if got := s.CurrentQuery(); got != "Anna Ehrner Kosta Boda" {
		t.Fatalf("CurrentQuery = %q", got)
	}
	if got := s.Candidates(); len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if md := s.CurrentMetadata(); md.Source != "ai_extended" || md.Confidence != 0.9 {
		t.Fatalf("metadata not replaced: %+v", md)
	}
	if at := s.AnalysisType(); at != AnalysisSystemWithExtensions {
		t.Fatalf("analysis type not replaced: %s", at)
	}
}

func TestInitializeCopiesCandidates(t *testing.T) {
	s := NewState()
	in := []terms.CandidateTerm{{Term: "vas"}}
	s.Initialize("vas", in, AnalysisAIOnly, Metadata{})
	in[0].Term = "mutated"
	if got := s.Candidates()[0].Term; got != "vas" {
		t.Fatalf("state aliased caller slice, got %q", got)
	}
	out := s.Candidates()
	out[0].Term = "mutated"
	if got := s.Candidates()[0].Term; got != "vas" {
		t.Fatalf("reader mutated state, got %q", got)
	}
}

func TestSearchContextValidRequiresQuery(t *testing.T) {
	s := NewState()
	s.Initialize("  ", nil, AnalysisNonArtItem, Metadata{})
	if sc := s.BuildSearchContext(); sc.Valid {
		t.Fatal("blank query must yield invalid context")
	}
}
