package terms

import (
	"reflect"
	"testing"
)

func TestKey(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`"Anna Ehrner"`, "anna ehrner"},
		{"Anna  Ehrner ", "anna ehrner"},
		{"ORREFORS", "orrefors"},
		{"“Kosta Boda”", "kosta boda"},
		{"  ", ""},
	}
	for _, tc := range cases {
		if got := Key(tc.in); got != tc.want {
			t.Errorf("Key(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestResolveOneSurvivorPerKey(t *testing.T) {
	in := []CandidateTerm{
		{Term: "Anna Ehrner", Type: TypeKeyword, Source: SourceCandidateProcessing},
		{Term: `"Anna Ehrner"`, Type: TypeArtist, Source: SourceAIDetected},
		{Term: "glass", Type: TypeMaterial, Source: SourceTaxonomy},
		{Term: "Glass", Type: TypeMaterial, Source: SourceTaxonomy},
	}
	out := Resolve(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 survivors, got %d: %+v", len(out), out)
	}
	seen := map[string]bool{}
	for _, c := range out {
		key := Key(c.Term)
		if seen[key] {
			t.Fatalf("duplicate key %q in output", key)
		}
		seen[key] = true
	}
}

func TestResolveSurvivorPreference(t *testing.T) {
	plain := CandidateTerm{Term: "Anna Ehrner", Type: TypeKeyword, Source: SourceCandidateProcessing}
	quoted := CandidateTerm{Term: `"Anna Ehrner"`, Type: TypeArtist, Source: SourceAIDetected}

	for name, in := range map[string][]CandidateTerm{
		"quoted_second": {plain, quoted},
		"quoted_first":  {quoted, plain},
	} {
		t.Run(name, func(t *testing.T) {
			out := Resolve(in)
			if len(out) != 1 {
				t.Fatalf("expected 1 survivor, got %d", len(out))
			}
			if out[0].Term != quoted.Term || out[0].Type != TypeArtist {
				t.Fatalf("expected quoted ai_detected artist to win, got %+v", out[0])
			}
		})
	}
}

func TestResolveDeterministic(t *testing.T) {
	in := []CandidateTerm{
		{Term: "vas", Type: TypeObjectType, Source: SourceAIRules, Priority: 5},
		{Term: "Vas", Type: TypeObjectType, Source: SourceAIRules, Priority: 5},
		{Term: "Orrefors", Type: TypeBrand, Source: SourceAIDetected},
	}
	first := Resolve(in)
	for i := 0; i < 10; i++ {
		if got := Resolve(in); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %+v vs %+v", i, got, first)
		}
	}
	// Equal scores break toward earlier input.
	if first[0].Term != "vas" {
		t.Fatalf("tie should keep first input, got %q", first[0].Term)
	}
}

func TestSelectForDisplay(t *testing.T) {
	t.Run("keeps selected and fills by priority", func(t *testing.T) {
		in := []CandidateTerm{
			{Term: "Orrefors", Type: TypeBrand, Selected: true},
			{Term: "vas", Type: TypeObjectType, Priority: 10},
			{Term: "glas", Type: TypeMaterial, Priority: 30},
			{Term: "1960-tal", Type: TypePeriod, Priority: 20},
			{Term: "   ", Type: TypeKeyword, Priority: 99},
		}
		out := SelectForDisplay(in, 3)
		if len(out) != 3 {
			t.Fatalf("expected 3 terms, got %d: %+v", len(out), out)
		}
		if !out[0].Selected || out[0].Term != "Orrefors" {
			t.Fatalf("selected term must come first, got %+v", out[0])
		}
		if out[1].Term != "glas" || out[2].Term != "1960-tal" {
			t.Fatalf("fill order should follow priority desc, got %+v", out[1:])
		}
	})

	t.Run("selected terms never dropped", func(t *testing.T) {
		in := []CandidateTerm{
			{Term: "a", Selected: true},
			{Term: "b", Selected: true},
			{Term: "c", Selected: true},
			{Term: "d", Priority: 100},
		}
		out := SelectForDisplay(in, 2)
		if len(out) != 3 {
			t.Fatalf("expected all 3 selected terms kept, got %d", len(out))
		}
		for _, c := range out {
			if !c.Selected {
				t.Fatalf("unexpected unselected term %q", c.Term)
			}
		}
	})

	t.Run("default cap", func(t *testing.T) {
		in := make([]CandidateTerm, 0, 20)
		for _, s := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l", "m", "n"} {
			in = append(in, CandidateTerm{Term: s, Type: TypeKeyword})
		}
		if got := len(SelectForDisplay(in, 0)); got != DefaultMaxDisplayTerms {
			t.Fatalf("expected %d terms, got %d", DefaultMaxDisplayTerms, got)
		}
	})
}
