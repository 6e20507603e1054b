// Package report renders an analysis result into cataloger-facing markdown
// and, through Chromium, into PDF.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/auctiondesk/lotsense/internal/pipeline"
	"github.com/auctiondesk/lotsense/internal/valuation"
)

// BuildMarkdown renders the full analysis report.
func BuildMarkdown(result *pipeline.AnalysisResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Lot Analysis Report\n\n")
	fmt.Fprintf(&b, "- Session: %s\n", result.SessionID)
	fmt.Fprintf(&b, "- Title: %s\n", sanitize(result.Item.Title))
	if result.Item.Artist != "" {
		fmt.Fprintf(&b, "- Artist: %s\n", sanitize(result.Item.Artist))
	} else if result.DetectedArtist != nil {
		fmt.Fprintf(&b, "- Artist (AI-detected): %s\n", sanitize(result.DetectedArtist.Name))
	}
	fmt.Fprintf(&b, "- Date: %s\n", result.CompletedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Analysis type: `%s`\n\n", result.Query.AnalysisType)

	if degraded := degradedNotes(result); len(degraded) > 0 {
		fmt.Fprintf(&b, "> PARTIAL: %s\n\n", strings.Join(degraded, "; "))
	}

	fmt.Fprintf(&b, "## Search Query\n\n")
	fmt.Fprintf(&b, "`%s`\n\n", sanitize(result.Query.Query))
	if result.Query.Metadata.Reasoning != "" {
		fmt.Fprintf(&b, "%s (source: %s, confidence %.2f)\n\n",
			sanitize(result.Query.Metadata.Reasoning),
			result.Query.Metadata.Source,
			result.Query.Metadata.Confidence)
	}

	if len(result.DisplayTerms) > 0 {
		fmt.Fprintf(&b, "## Search Terms\n\n")
		fmt.Fprintf(&b, "| Term | Type | Source | Priority |\n")
		fmt.Fprintf(&b, "|------|------|--------|----------|\n")
		for _, t := range result.DisplayTerms {
			fmt.Fprintf(&b, "| %s | %s | %s | %d |\n", sanitizeCell(t.Text()), t.Type, t.Source, t.Priority)
		}
		fmt.Fprintf(&b, "\n")
	}

	writeMarketSection(&b, result)
	writeValuationSection(&b, result.Valuations)
	writeBrandSection(&b, result)
	return b.String()
}

func writeMarketSection(b *strings.Builder, result *pipeline.AnalysisResult) {
	fmt.Fprintf(b, "## Market Comparison\n\n")
	snap := result.Market
	switch {
	case result.MarketDeferred:
		fmt.Fprintf(b, "Market data has not been fetched yet. Open the market dashboard to run the comparison.\n\n")
		return
	case !snap.HasComparableData || snap.PriceRange == nil:
		fmt.Fprintf(b, "No comparable sales were found for this item (source: %s).\n\n", snap.DataSource)
	default:
		fmt.Fprintf(b, "- Price range: %s - %s\n", fmtAmount(snap.PriceRange.Low), fmtAmount(snap.PriceRange.High))
		fmt.Fprintf(b, "- Confidence: %.2f\n", snap.Confidence)
		fmt.Fprintf(b, "- Analyzed sales: %d of %d matches\n", snap.Historical.AnalyzedSales, snap.Historical.TotalMatches)
		if snap.Live.AnalyzedLiveItems > 0 {
			fmt.Fprintf(b, "- Live items analyzed: %d (reserves met: %.1f%%)\n",
				snap.Live.AnalyzedLiveItems, snap.Live.MarketActivity.ReservesMetPercentage)
		}
		fmt.Fprintf(b, "- Data source: `%s`\n\n", snap.DataSource)
	}

	for _, insight := range snap.Insights {
		fmt.Fprintf(b, "- [%s] %s\n", insight.Type, sanitize(insight.Message))
	}
	if len(snap.Insights) > 0 {
		fmt.Fprintf(b, "\n")
	}

	if len(snap.ExceptionalSales) > 0 {
		fmt.Fprintf(b, "### Exceptional Sales\n\n")
		fmt.Fprintf(b, "| Title | Price | Sold |\n")
		fmt.Fprintf(b, "|-------|-------|------|\n")
		for _, sale := range snap.ExceptionalSales {
			fmt.Fprintf(b, "| %s | %s %s | %s |\n",
				sanitizeCell(sale.Title), fmtAmount(sale.Price), sale.Currency, sanitizeCell(sale.SoldAt))
		}
		fmt.Fprintf(b, "\n")
	}
}

func writeValuationSection(b *strings.Builder, suggestions []valuation.Suggestion) {
	if len(suggestions) == 0 {
		return
	}
	fmt.Fprintf(b, "## Valuation Review\n\n")
	fmt.Fprintf(b, "| Field | Severity | Suggested Range | Note |\n")
	fmt.Fprintf(b, "|-------|----------|-----------------|------|\n")
	for _, s := range suggestions {
		rng := s.SuggestedRange
		if rng == "" {
			rng = "-"
		}
		fmt.Fprintf(b, "| %s | %s | %s | %s |\n", s.Field, severityMark(s.Severity), rng, sanitizeCell(s.Message))
	}
	fmt.Fprintf(b, "\n")
}

func writeBrandSection(b *strings.Builder, result *pipeline.AnalysisResult) {
	if len(result.BrandIssues) == 0 {
		return
	}
	fmt.Fprintf(b, "## Possible Brand Misspellings\n\n")
	fmt.Fprintf(b, "| As written | Suggested | Confidence | Source |\n")
	fmt.Fprintf(b, "|------------|-----------|------------|--------|\n")
	for _, issue := range result.BrandIssues {
		fmt.Fprintf(b, "| %s | %s | %.2f | %s |\n",
			sanitizeCell(issue.OriginalBrand), sanitizeCell(issue.SuggestedBrand), issue.Confidence, issue.Source)
	}
	fmt.Fprintf(b, "\n")
}

func degradedNotes(result *pipeline.AnalysisResult) []string {
	var notes []string
	if result.Degraded.ArtistDetection {
		notes = append(notes, "AI artist detection unavailable")
	}
	if result.Degraded.MarketData && !result.MarketDeferred {
		notes = append(notes, "market comparison has insufficient data")
	}
	if result.Degraded.ArtistImage {
		notes = append(notes, "no artist image found")
	}
	return notes
}

func severityMark(s valuation.Severity) string {
	switch s {
	case valuation.SeverityPositive:
		return "OK"
	case valuation.SeverityLow:
		return "note"
	case valuation.SeverityMedium:
		return "review"
	case valuation.SeverityHigh:
		return "REVIEW"
	default:
		return string(s)
	}
}

// fmtAmount formats a price with comma separators; fractions are dropped
// since auction amounts are whole currency units.
func fmtAmount(v float64) string {
	n := int64(v)
	if n < 0 {
		return "-" + fmtAmount(-v)
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return strings.Join(parts, ",")
}

func sanitize(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}

func sanitizeCell(s string) string {
	return strings.ReplaceAll(sanitize(s), "|", "\\|")
}
