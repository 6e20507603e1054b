package brands

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/auctiondesk/lotsense/internal/ai"
)

const (
	// Minimum model confidence when the suggested brand exists in the catalog.
	aiKnownBrandConfidence = 0.85
	// Minimum model confidence for brands the catalog has never seen.
	aiUnknownBrandConfidence = 0.90
)

// Detector combines the fuzzy pass with an optional AI pass. With a nil
// executor only the fuzzy pass runs; an AI failure degrades to fuzzy-only
// instead of failing the item.
type Detector struct {
	matcher  *Matcher
	executor *ai.Executor
	known    map[string]bool
	logger   *log.Logger
}

func NewDetector(catalog Catalog, executor *ai.Executor, logger *log.Logger) *Detector {
	fold := cases.Fold()
	known := map[string]bool{}
	for _, e := range catalog.All() {
		known[fold.String(e.Name)] = true
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Detector{
		matcher:  NewMatcher(catalog),
		executor: executor,
		known:    known,
		logger:   logger,
	}
}

// Detect runs both passes over the lot text and returns the merged issue
// set, highest confidence first.
func (d *Detector) Detect(ctx context.Context, title, description string) []BrandIssue {
	issues := d.matcher.Scan(title, description)

	if d.executor != nil {
		aiIssues, err := d.detectWithAI(ctx, title, description)
		if err != nil {
			d.logger.Printf("[brands] AI pass failed, keeping fuzzy results: %v", err)
		} else {
			issues = append(issues, aiIssues...)
		}
	}

	return mergeIssues(issues)
}

type aiBrandResponse struct {
	Issues []struct {
		OriginalBrand  string  `json:"original_brand"`
		SuggestedBrand string  `json:"suggested_brand"`
		Confidence     float64 `json:"confidence"`
		Category       string  `json:"category"`
	} `json:"issues"`
}

const brandDetectionSystemPrompt = `You review auction lot text for misspelled brand, maker, and manufacturer names. You only flag commercial brands. Personal names (artists, designers as people) and place names are never brand issues. When unsure, do not flag.`

func (d *Detector) detectWithAI(ctx context.Context, title, description string) ([]BrandIssue, error) {
	prompt := fmt.Sprintf(`Review this auction lot text for misspelled brand names.

TITLE: %s
DESCRIPTION: %s

Return JSON:
{
  "issues": [
    {"original_brand": "text as written", "suggested_brand": "correct spelling", "confidence": 0.0-1.0, "category": "glass|ceramics|silver|watches|furniture|other"}
  ]
}

Return {"issues": []} when nothing is misspelled. Confidence reflects how certain you are that the text is a misspelling of that specific brand.`, title, description)

	var resp aiBrandResponse
	_, err := d.executor.RunJSON(ctx, "brand detection", ai.Request{
		Prompt:       prompt,
		SystemPrompt: brandDetectionSystemPrompt,
		MaxTokens:    1024,
	}, &resp, nil)
	if err != nil {
		return nil, err
	}

	fold := cases.Fold()
	var issues []BrandIssue
	for _, item := range resp.Issues {
		original := strings.TrimSpace(item.OriginalBrand)
		suggested := strings.TrimSpace(item.SuggestedBrand)
		if original == "" || suggested == "" {
			continue
		}
		threshold := aiUnknownBrandConfidence
		if d.known[fold.String(suggested)] {
			threshold = aiKnownBrandConfidence
		}
		if item.Confidence < threshold {
			continue
		}
		issues = append(issues, BrandIssue{
			OriginalBrand:  original,
			SuggestedBrand: suggested,
			Confidence:     item.Confidence,
			Category:       item.Category,
			Source:         SourceAIDetection,
		})
	}
	return issues, nil
}

// mergeIssues dedups across both passes. Two issues refer to the same brand
// when they share either the original text or the suggested name under case
// folding; the higher-confidence one survives. The key is deliberately
// coarse: distinct misspellings of one brand in the same lot collapse to
// the strongest finding, which is the right granularity for a cataloger
// fixing the field once.
func mergeIssues(issues []BrandIssue) []BrandIssue {
	fold := cases.Fold()

	var kept []BrandIssue
	index := map[string]int{}
	for _, issue := range issues {
		origKey := "o:" + fold.String(issue.OriginalBrand)
		suggKey := "s:" + fold.String(issue.SuggestedBrand)

		pos, exists := index[origKey]
		if !exists {
			pos, exists = index[suggKey]
		}
		if exists {
			if issue.Confidence > kept[pos].Confidence {
				kept[pos] = issue
			}
			index[origKey] = pos
			index[suggKey] = pos
			continue
		}
		kept = append(kept, issue)
		index[origKey] = len(kept) - 1
		index[suggKey] = len(kept) - 1
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Confidence > kept[j].Confidence
	})
	return kept
}
