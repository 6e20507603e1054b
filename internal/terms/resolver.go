package terms

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Conflict resolution keeps exactly one survivor per uniqueness key. Each
// scoring rule is independent; the total is their sum, so rules can be
// tested and tuned in isolation.
type scoreRule func(CandidateTerm) int

var scoreRules = []scoreRule{
	quotedArtistRule,
	specificityRule,
	typeWeightRule,
	selectedRule,
	declaredPriorityRule,
	provenanceRule,
}

// quotedArtistRule rewards the strongest precision signal available: an
// AI-detected, artist-typed term that arrived wrapped in quotation marks.
func quotedArtistRule(t CandidateTerm) int {
	if t.Source == SourceAIDetected && t.Type == TypeArtist && t.Quoted() {
		return 1000
	}
	return 0
}

// specificityRule prefers longer strings, e.g. a full name over a bare
// first name competing for the same entity.
func specificityRule(t CandidateTerm) int {
	return utf8.RuneCountInString(t.Text()) * 10
}

func typeWeightRule(t CandidateTerm) int {
	switch t.Type {
	case TypeArtist:
		return 500
	case TypeBrand:
		return 400
	case TypeKeyword:
		return 100
	default:
		return 200
	}
}

func selectedRule(t CandidateTerm) int {
	if t.Selected {
		return 300
	}
	return 0
}

func declaredPriorityRule(t CandidateTerm) int {
	return t.Priority
}

func provenanceRule(t CandidateTerm) int {
	switch t.Source {
	case SourceAIDetected:
		return 200
	case SourceAIRules:
		return 150
	default:
		return 50
	}
}

func score(t CandidateTerm) int {
	total := 0
	for _, rule := range scoreRules {
		total += rule(t)
	}
	return total
}

// Resolve deduplicates candidates by uniqueness key, keeping the highest
// scoring member of each group. Ties break toward earlier input, so the
// result is deterministic for a given input order. Surviving terms appear
// in the order their key first occurred.
func Resolve(in []CandidateTerm) []CandidateTerm {
	type survivor struct {
		term  CandidateTerm
		score int
		pos   int
	}
	best := map[string]*survivor{}
	order := []string{}
	for i, t := range in {
		key := Key(t.Term)
		if key == "" {
			continue
		}
		s := score(t)
		cur, ok := best[key]
		if !ok {
			best[key] = &survivor{term: t, score: s, pos: i}
			order = append(order, key)
			continue
		}
		if s > cur.score {
			cur.term = t
			cur.score = s
		}
	}
	out := make([]CandidateTerm, 0, len(order))
	for _, key := range order {
		out = append(out, best[key].term)
	}
	return out
}

// SelectForDisplay resolves conflicts, drops structurally invalid entries,
// keeps every user-selected term, and fills the remaining slots up to
// maxTotal with the highest-priority unselected terms in priority order.
// maxTotal <= 0 means DefaultMaxDisplayTerms.
func SelectForDisplay(in []CandidateTerm, maxTotal int) []CandidateTerm {
	if maxTotal <= 0 {
		maxTotal = DefaultMaxDisplayTerms
	}
	resolved := Resolve(in)

	selected := make([]CandidateTerm, 0, len(resolved))
	unselected := make([]CandidateTerm, 0, len(resolved))
	for _, t := range resolved {
		if strings.TrimSpace(t.Text()) == "" {
			continue
		}
		if t.Selected {
			selected = append(selected, t)
		} else {
			unselected = append(unselected, t)
		}
	}

	sort.SliceStable(unselected, func(i, j int) bool {
		return unselected[i].Priority > unselected[j].Priority
	})

	out := selected
	for _, t := range unselected {
		if len(out) >= maxTotal {
			break
		}
		out = append(out, t)
	}
	return out
}
