package terms

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// DefaultMaxDisplayTerms caps how many candidates the display selection keeps.
const DefaultMaxDisplayTerms = 12

type Type string

const (
	TypeArtist     Type = "artist"
	TypeBrand      Type = "brand"
	TypeObjectType Type = "object_type"
	TypePeriod     Type = "period"
	TypeMaterial   Type = "material"
	TypeKeyword    Type = "keyword"
)

type Source string

const (
	SourceAIDetected          Source = "ai_detected"
	SourceAIRules             Source = "ai_rules"
	SourceCandidateProcessing Source = "candidate_processing"
	SourceArtistField         Source = "artist_field"
	SourceTaxonomy            Source = "taxonomy"
	SourceKeywordField        Source = "keyword_field"
)

// CandidateTerm is a unit of text extracted from the item record, competing
// with other candidates for inclusion in the canonical search query.
type CandidateTerm struct {
	Term     string `json:"term"`
	Type     Type   `json:"type"`
	Source   Source `json:"source"`
	Priority int    `json:"priority"`
	Selected bool   `json:"is_selected"`
	Core     bool   `json:"is_core"`
}

// Quoted reports whether the raw term text is wrapped in quotation marks,
// the highest-trust precision signal for AI-detected artist names.
func (t CandidateTerm) Quoted() bool {
	s := strings.TrimSpace(t.Term)
	if len(s) < 2 {
		return false
	}
	return (strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`)) ||
		(strings.HasPrefix(s, "“") && strings.HasSuffix(s, "”"))
}

// Text returns the term text with surrounding quotation marks removed.
func (t CandidateTerm) Text() string {
	return stripQuotes(t.Term)
}

var foldCaser = cases.Fold()

// Key returns the uniqueness key for a term: NFKC-normalized, quote-stripped,
// case-folded, with internal whitespace collapsed. Two candidates with the
// same key describe the same entity and must not both survive resolution.
func Key(term string) string {
	s := norm.NFKC.String(stripQuotes(term))
	s = foldCaser.String(s)
	return strings.Join(strings.Fields(s), " ")
}

func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	for _, pair := range [][2]string{{`"`, `"`}, {"“", "”"}, {"'", "'"}} {
		if len(s) >= 2 && strings.HasPrefix(s, pair[0]) && strings.HasSuffix(s, pair[1]) {
			return strings.TrimSpace(s[len(pair[0]) : len(s)-len(pair[1])])
		}
	}
	return s
}
