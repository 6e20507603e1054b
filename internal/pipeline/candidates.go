package pipeline

import (
	"strings"
	"unicode"

	"github.com/auctiondesk/lotsense/internal/query"
	"github.com/auctiondesk/lotsense/internal/taxonomy"
	"github.com/auctiondesk/lotsense/internal/terms"
)

// Candidate priorities by extraction source. The artist field outranks
// everything the system derives; AI-detected artists outrank the field
// because they arrive quoted and validated.
const (
	priorityAIArtist    = 150
	priorityArtistField = 100
	priorityObjectType  = 60
	priorityKeywordBase = 50
	priorityMaterial    = 40
	priorityPeriod      = 30
	priorityStyle       = 20
	priorityColor       = 10
)

// buildCandidates extracts the initial candidate set from the item record
// and its taxonomy classification.
func buildCandidates(item ItemRecord, cls taxonomy.Classification) []terms.CandidateTerm {
	var out []terms.CandidateTerm

	if artist := strings.TrimSpace(item.Artist); artist != "" {
		out = append(out, terms.CandidateTerm{
			Term:     artist,
			Type:     terms.TypeArtist,
			Source:   terms.SourceArtistField,
			Priority: priorityArtistField,
			Selected: true,
			Core:     true,
		})
	}

	if obj := leadingObjectType(item.Title); obj != "" {
		out = append(out, terms.CandidateTerm{
			Term:     obj,
			Type:     terms.TypeObjectType,
			Source:   terms.SourceCandidateProcessing,
			Priority: priorityObjectType,
			Core:     true,
		})
	}

	for i, kw := range item.Keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		priority := priorityKeywordBase - i
		if priority < 1 {
			priority = 1
		}
		out = append(out, terms.CandidateTerm{
			Term:     kw,
			Type:     terms.TypeKeyword,
			Source:   terms.SourceKeywordField,
			Priority: priority,
		})
	}

	out = append(out, taxonomyCandidates(cls.Materials, terms.TypeMaterial, priorityMaterial)...)
	out = append(out, taxonomyCandidates(cls.Periods, terms.TypePeriod, priorityPeriod)...)
	out = append(out, taxonomyCandidates(cls.Styles, terms.TypeKeyword, priorityStyle)...)
	out = append(out, taxonomyCandidates(cls.Colors, terms.TypeKeyword, priorityColor)...)
	return out
}

func taxonomyCandidates(words []string, termType terms.Type, priority int) []terms.CandidateTerm {
	var out []terms.CandidateTerm
	for _, w := range words {
		out = append(out, terms.CandidateTerm{
			Term:     w,
			Type:     termType,
			Source:   terms.SourceTaxonomy,
			Priority: priority,
		})
	}
	return out
}

// leadingObjectType takes the first word of the title as the object noun
// ("Vas, Orrefors" gives "Vas") when it is a plain word.
func leadingObjectType(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}
	end := strings.IndexFunc(title, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if end == -1 {
		end = len(title)
	}
	word := title[:end]
	if len([]rune(word)) < 3 {
		return ""
	}
	return word
}

// buildQuery derives the canonical search string from resolved candidates:
// the artist anchors the query, extended with the object noun and the
// strongest material and period signals. Without an artist the query falls
// back to object noun plus descriptive terms.
func buildQuery(resolved []terms.CandidateTerm) string {
	artist := strongestOfType(resolved, terms.TypeArtist)
	object := firstOfType(resolved, terms.TypeObjectType)
	material := firstOfType(resolved, terms.TypeMaterial)
	period := firstOfType(resolved, terms.TypePeriod)

	var parts []string
	appendPart := func(s string) {
		if s != "" {
			parts = append(parts, s)
		}
	}

	if artist != "" {
		appendPart(artist)
		appendPart(object)
		appendPart(material)
		return strings.Join(parts, " ")
	}

	appendPart(object)
	appendPart(material)
	appendPart(period)
	for _, t := range resolved {
		if len(parts) >= 4 {
			break
		}
		if t.Type == terms.TypeKeyword && t.Source == terms.SourceKeywordField {
			appendPart(t.Text())
		}
	}
	return strings.Join(parts, " ")
}

func firstOfType(list []terms.CandidateTerm, termType terms.Type) string {
	for _, t := range list {
		if t.Type == termType {
			return t.Text()
		}
	}
	return ""
}

// strongestOfType returns the highest-priority term of the given type.
// Resolution keeps candidates in first-occurrence order, so when an
// AI-detected full artist name coexists with a shorter field value the
// priority decides which one anchors the query.
func strongestOfType(list []terms.CandidateTerm, termType terms.Type) string {
	best := ""
	bestPriority := 0
	for _, t := range list {
		if t.Type != termType {
			continue
		}
		if best == "" || t.Priority > bestPriority {
			best = t.Text()
			bestPriority = t.Priority
		}
	}
	return best
}

// determineAnalysisType maps the available signals to the analysis type.
// An artist field takes precedence; an AI-detected artist without a field
// makes the analysis AI-driven; when the AI confirms an already-filled
// field the type records that the field existed. Items with no artist and
// no period or style signal are treated as non-art.
func determineAnalysisType(item ItemRecord, cls taxonomy.Classification, detected *ArtistDetection) query.AnalysisType {
	hasField := strings.TrimSpace(item.Artist) != ""
	switch {
	case hasField && detected != nil:
		return query.AnalysisExistingArtistField
	case hasField:
		return query.AnalysisArtistField
	case detected != nil:
		return query.AnalysisAIOnly
	case len(cls.Periods) == 0 && len(cls.Styles) == 0:
		return query.AnalysisNonArtItem
	default:
		return query.AnalysisSystemWithExtensions
	}
}
