// Package brands flags probable brand-name misspellings in lot text. Two
// passes feed one result set: a fuzzy pass over a reference catalog of
// brands and their known misspellings, and an optional AI pass that can
// catch variants the catalog has never seen. Results from both passes are
// merged with per-brand dedup before they reach the cataloger.
package brands

type Source string

const (
	SourceFuzzyMatching Source = "fuzzy_matching"
	SourceAIDetection   Source = "ai_detection"
)

// BrandIssue is one suspected misspelling, pointing at the text as entered
// and the catalog name it likely meant.
type BrandIssue struct {
	OriginalBrand  string  `json:"original_brand"`
	SuggestedBrand string  `json:"suggested_brand"`
	Confidence     float64 `json:"confidence"`
	Category       string  `json:"category,omitempty"`
	Source         Source  `json:"source"`
	Similarity     float64 `json:"similarity,omitempty"`
}

// Entry is one canonical brand in the reference catalog together with the
// misspellings and variants it is commonly entered as.
type Entry struct {
	ID       int64    `db:"id"`
	Name     string   `db:"name"`
	Category string   `db:"category"`
	Variants []string `db:"-"`
}
