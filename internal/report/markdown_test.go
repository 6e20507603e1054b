package report

import (
	"strings"
	"testing"
	"time"

	"github.com/auctiondesk/lotsense/internal/brands"
	"github.com/auctiondesk/lotsense/internal/market"
	"github.com/auctiondesk/lotsense/internal/pipeline"
	"github.com/auctiondesk/lotsense/internal/query"
	"github.com/auctiondesk/lotsense/internal/terms"
	"github.com/auctiondesk/lotsense/internal/valuation"
)

func sampleResult() *pipeline.AnalysisResult {
	return &pipeline.AnalysisResult{
		SessionID: "f53b7e1c-0000-0000-0000-000000000000",
		Item: pipeline.ItemRecord{
			Title:    "Vas, Orrefors, 1960-tal",
			Artist:   "Simon Gate",
			Estimate: 6000,
		},
		Query: query.Snapshot{
			Query:        "Simon Gate Vas glass",
			AnalysisType: query.AnalysisArtistField,
			Metadata:     query.Metadata{Confidence: 0.8, Source: "candidate_processing", Reasoning: "query derived from item fields"},
		},
		DisplayTerms: []terms.CandidateTerm{
			{Term: "Simon Gate", Type: terms.TypeArtist, Source: terms.SourceArtistField, Priority: 100},
			{Term: "Vas", Type: terms.TypeObjectType, Source: terms.SourceCandidateProcessing, Priority: 60},
		},
		Market: market.Snapshot{
			HasComparableData: true,
			PriceRange:        &market.PriceRange{Low: 5000, High: 7000},
			Confidence:        0.8,
			Historical:        market.Historical{AnalyzedSales: 24, TotalMatches: 61},
			Insights:          []market.Insight{{Type: "trend", Message: "Prices rising for this maker"}},
			ExceptionalSales:  []market.ExceptionalSale{{Title: "Rare vase", Price: 21000, Currency: "SEK", SoldAt: "2025-11-02"}},
			DataSource:        market.LookupArtist,
		},
		Valuations: []valuation.Suggestion{
			{Field: valuation.FieldEstimate, Message: "The estimate is well aligned with the market.", SuggestedRange: "5000-7000", Severity: valuation.SeverityPositive},
		},
		BrandIssues: []brands.BrandIssue{
			{OriginalBrand: "Orrefross", SuggestedBrand: "Orrefors", Confidence: 1.0, Source: brands.SourceFuzzyMatching},
		},
		CompletedAt: time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC),
	}
}

func TestBuildMarkdownSections(t *testing.T) {
	md := BuildMarkdown(sampleResult())

	for _, want := range []string{
		"# Lot Analysis Report",
		"- Artist: Simon Gate",
		"`Simon Gate Vas glass`",
		"## Search Terms",
		"| Simon Gate | artist | artist_field | 100 |",
		"## Market Comparison",
		"- Price range: 5,000 - 7,000",
		"- Analyzed sales: 24 of 61 matches",
		"| Rare vase | 21,000 SEK | 2025-11-02 |",
		"## Valuation Review",
		"| estimate | OK | 5000-7000 |",
		"## Possible Brand Misspellings",
		"| Orrefross | Orrefors | 1.00 | fuzzy_matching |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
	if strings.Contains(md, "PARTIAL") {
		t.Error("clean result rendered a degraded banner")
	}
}

func TestBuildMarkdownDeferredMarket(t *testing.T) {
	result := sampleResult()
	result.MarketDeferred = true
	result.Market = market.PlaceholderSnapshot()
	result.Valuations = nil

	md := BuildMarkdown(result)
	if !strings.Contains(md, "has not been fetched yet") {
		t.Error("deferred market not explained")
	}
	if strings.Contains(md, "## Valuation Review") {
		t.Error("valuation section rendered without suggestions")
	}
}

func TestBuildMarkdownMissingPriceRange(t *testing.T) {
	result := sampleResult()
	result.Market = market.Snapshot{
		HasComparableData: true,
		PriceRange:        nil,
		DataSource:        market.LookupArtist,
	}

	md := BuildMarkdown(result)
	if !strings.Contains(md, "No comparable sales were found") {
		t.Error("snapshot without a price range not rendered as no-data")
	}
	if strings.Contains(md, "- Price range:") {
		t.Error("price range rendered without data")
	}
}

func TestBuildMarkdownDegradedBanner(t *testing.T) {
	result := sampleResult()
	result.Degraded.ArtistDetection = true

	md := BuildMarkdown(result)
	if !strings.Contains(md, "> PARTIAL: AI artist detection unavailable") {
		t.Error("degraded banner missing")
	}
}

func TestFmtAmount(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{950, "950"},
		{5000, "5,000"},
		{1250000, "1,250,000"},
		{-7500, "-7,500"},
	}
	for _, tt := range tests {
		if got := fmtAmount(tt.in); got != tt.want {
			t.Errorf("fmtAmount(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildHTMLEscapesImageURL(t *testing.T) {
	result := sampleResult()
	result.ArtistImageURL = `https://cdn.example.com/x.jpg'><script>`

	htmlDoc, err := buildHTML(result, BuildMarkdown(result))
	if err != nil {
		t.Fatalf("build html: %v", err)
	}
	if strings.Contains(htmlDoc, "<script>") {
		t.Error("image URL not escaped")
	}
	if !strings.Contains(htmlDoc, "data-page-break-before") {
		t.Error("print layout hooks not applied")
	}
}
