// Package pipeline orchestrates one item analysis: candidate extraction,
// AI artist detection, conflict resolution, the canonical query state,
// market scheduling, valuation grading, and brand checking. Every feature
// degrades independently; a failed external call marks its flag on the
// result and never blocks the other features.
package pipeline

import (
	"time"

	"github.com/auctiondesk/lotsense/internal/brands"
	"github.com/auctiondesk/lotsense/internal/market"
	"github.com/auctiondesk/lotsense/internal/query"
	"github.com/auctiondesk/lotsense/internal/taxonomy"
	"github.com/auctiondesk/lotsense/internal/terms"
	"github.com/auctiondesk/lotsense/internal/valuation"
)

// ItemRecord is the raw lot data as entered by the cataloger.
type ItemRecord struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Condition       string   `json:"condition"`
	Artist          string   `json:"artist"`
	Estimate        float64  `json:"estimate"`
	UpperEstimate   float64  `json:"upper_estimate"`
	AcceptedReserve float64  `json:"accepted_reserve"`
	Keywords        []string `json:"keywords"`
}

// ArtistDetection is the accepted output of the AI artist pass.
type ArtistDetection struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// DegradedFlags records which features fell back to reduced results.
type DegradedFlags struct {
	ArtistDetection bool `json:"artist_detection"`
	MarketData      bool `json:"market_data"`
	ArtistImage     bool `json:"artist_image"`
}

// AnalysisResult is the full plain-data output of one analysis session.
type AnalysisResult struct {
	SessionID      string                  `json:"session_id"`
	Item           ItemRecord              `json:"item"`
	Classification taxonomy.Classification `json:"classification"`
	Query          query.Snapshot          `json:"query"`
	DisplayTerms   []terms.CandidateTerm   `json:"display_terms"`
	DetectedArtist *ArtistDetection        `json:"detected_artist,omitempty"`
	Market         market.Snapshot         `json:"market"`
	MarketDeferred bool                    `json:"market_deferred"`
	Valuations     []valuation.Suggestion  `json:"valuations"`
	BrandIssues    []brands.BrandIssue     `json:"brand_issues"`
	ArtistImageURL string                  `json:"artist_image_url,omitempty"`
	Degraded       DegradedFlags           `json:"degraded"`
	StartedAt      time.Time               `json:"started_at"`
	CompletedAt    time.Time               `json:"completed_at"`
}

// ProgressFn receives stage names as the analysis advances. Optional.
// The later stages run in parallel, so implementations must tolerate
// concurrent calls.
type ProgressFn func(stage string)
