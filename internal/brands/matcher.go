package brands

import (
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
)

const (
	// A phrase must be this close to a known misspelling to be suspected.
	variantThreshold = 0.8
	// A phrase this close to the correct name is treated as correctly
	// spelled, keeping minor inflections (plural, genitive) unflagged.
	correctThreshold = 0.9
)

// Matcher runs the fuzzy pass: candidate phrases from lot text are scored
// against the catalog's known misspellings, and a phrase is flagged only
// when it resembles a misspelling without already resembling the correct
// name.
type Matcher struct {
	entries []Entry
	fold    cases.Caser
}

func NewMatcher(catalog Catalog) *Matcher {
	return &Matcher{
		entries: catalog.All(),
		fold:    cases.Fold(),
	}
}

// Scan inspects title and description and returns one issue per suspect
// phrase, confidence set to the variant similarity.
func (m *Matcher) Scan(title, description string) []BrandIssue {
	phrases := candidatePhrases(title + " " + description)

	var issues []BrandIssue
	for _, phrase := range phrases {
		folded := m.fold.String(phrase)
		for _, entry := range m.entries {
			simCorrect := similarity(folded, m.fold.String(entry.Name))
			if simCorrect > correctThreshold {
				continue
			}
			best := 0.0
			for _, variant := range entry.Variants {
				if sim := similarity(folded, m.fold.String(variant)); sim > best {
					best = sim
				}
			}
			if best > variantThreshold {
				issues = append(issues, BrandIssue{
					OriginalBrand:  phrase,
					SuggestedBrand: entry.Name,
					Confidence:     best,
					Category:       entry.Category,
					Source:         SourceFuzzyMatching,
					Similarity:     best,
				})
			}
		}
	}
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Confidence > issues[j].Confidence
	})
	return issues
}

// similarity is normalized Levenshtein: 1 at identical, 0 at fully distinct.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

var phraseStopWords = map[string]bool{
	// Swedish
	"och": true, "med": true, "samt": true, "för": true, "från": true,
	"till": true, "den": true, "det": true, "ett": true, "en": true,
	"signerad": true, "märkt": true, "daterad": true, "höjd": true,
	"längd": true, "bredd": true, "diameter": true, "skador": true,
	// English
	"and": true, "with": true, "the": true, "for": true, "from": true,
	"signed": true, "marked": true, "dated": true, "height": true,
	"length": true, "width": true,
	// Measurement units
	"cm": true, "mm": true, "kg": true, "gram": true, "ca": true,
	"st": true, "nr": true, "no": true,
}

// candidatePhrases builds 1-3 word windows over the text, dropping windows
// that start or end on a stop word and windows with no letters.
func candidatePhrases(text string) []string {
	words := splitWords(text)

	var phrases []string
	seen := map[string]bool{}
	for i := range words {
		for n := 1; n <= 3 && i+n <= len(words); n++ {
			window := words[i : i+n]
			if isStopToken(window[0]) || isStopToken(window[n-1]) {
				continue
			}
			phrase := strings.Join(window, " ")
			if !hasLetter(phrase) || seen[phrase] {
				continue
			}
			seen[phrase] = true
			phrases = append(phrases, phrase)
		}
	}
	return phrases
}

func splitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func isStopToken(word string) bool {
	lower := strings.ToLower(word)
	if phraseStopWords[lower] {
		return true
	}
	return !hasLetter(word)
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
