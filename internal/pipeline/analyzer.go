package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/auctiondesk/lotsense/internal/ai"
	"github.com/auctiondesk/lotsense/internal/brands"
	"github.com/auctiondesk/lotsense/internal/images"
	"github.com/auctiondesk/lotsense/internal/market"
	"github.com/auctiondesk/lotsense/internal/query"
	"github.com/auctiondesk/lotsense/internal/taxonomy"
	"github.com/auctiondesk/lotsense/internal/terms"
	"github.com/auctiondesk/lotsense/internal/valuation"
)

// Minimum model confidence for accepting a detected artist.
const artistDetectionConfidence = 0.8

type Config struct {
	Classifier taxonomy.Classifier
	Executor   *ai.Executor // nil disables the AI artist pass
	Market     *market.Scheduler
	Comparator *valuation.Comparator
	Brands     *brands.Detector
	Images     *images.Client // nil disables artist image lookup
	Logger     *log.Logger
	Progress   ProgressFn
	MaxTerms   int
}

type Analyzer struct {
	classifier taxonomy.Classifier
	executor   *ai.Executor
	market     *market.Scheduler
	comparator *valuation.Comparator
	brands     *brands.Detector
	images     *images.Client
	logger     *log.Logger
	progress   ProgressFn
	maxTerms   int
}

func NewAnalyzer(cfg Config) *Analyzer {
	a := &Analyzer{
		classifier: cfg.Classifier,
		executor:   cfg.Executor,
		market:     cfg.Market,
		comparator: cfg.Comparator,
		brands:     cfg.Brands,
		images:     cfg.Images,
		logger:     cfg.Logger,
		progress:   cfg.Progress,
		maxTerms:   cfg.MaxTerms,
	}
	if a.classifier == nil {
		a.classifier = taxonomy.NewTableClassifier()
	}
	if a.market == nil {
		a.market = market.NewScheduler(market.Disabled{}, func() bool { return true })
	}
	if a.comparator == nil {
		a.comparator = valuation.NewComparator()
	}
	if a.logger == nil {
		a.logger = log.Default()
	}
	if a.progress == nil {
		a.progress = func(string) {}
	}
	if a.maxTerms <= 0 {
		a.maxTerms = terms.DefaultMaxDisplayTerms
	}
	return a
}

// Analyze runs the full pipeline over one item record. The returned error
// covers only invalid input; external failures degrade into the result's
// flags and never fail the analysis.
func (a *Analyzer) Analyze(ctx context.Context, item ItemRecord) (*AnalysisResult, error) {
	if strings.TrimSpace(item.Title) == "" && strings.TrimSpace(item.Description) == "" {
		return nil, errors.New("item has no title or description")
	}

	result := &AnalysisResult{
		SessionID: uuid.NewString(),
		Item:      item,
		StartedAt: time.Now(),
	}

	a.progress("classify")
	result.Classification = a.classifier.Classify(item.Title + " " + item.Description)

	a.progress("resolve")
	candidates := buildCandidates(item, result.Classification)
	resolved := terms.Resolve(candidates)

	state := query.NewState()
	analysisType := determineAnalysisType(item, result.Classification, nil)
	state.Initialize(buildQuery(resolved), resolved, analysisType, query.Metadata{
		Confidence: 0.5,
		Source:     "candidate_processing",
		Reasoning:  "query derived from item fields and taxonomy",
	})

	a.progress("artist-detection")
	if a.executor != nil {
		detected, err := a.detectArtist(ctx, item)
		if err != nil {
			result.Degraded.ArtistDetection = true
			a.logger.Printf("[pipeline] artist detection failed id=%s: %v", result.SessionID, err)
		} else if detected != nil {
			result.DetectedArtist = detected

			// The detected name joins the candidate set quoted, re-resolution
			// picks survivors, and the query state is fully re-initialized
			// with the richer set.
			candidates = append(candidates, terms.CandidateTerm{
				Term:     fmt.Sprintf("%q", detected.Name),
				Type:     terms.TypeArtist,
				Source:   terms.SourceAIDetected,
				Priority: priorityAIArtist,
				Core:     true,
			})
			resolved = terms.Resolve(candidates)
			analysisType = determineAnalysisType(item, result.Classification, detected)
			state.Initialize(buildQuery(resolved), resolved, analysisType, query.Metadata{
				Confidence: detected.Confidence,
				Source:     "ai_detected",
				Reasoning:  detected.Reasoning,
			})
		}
	}

	result.Query = state.Snapshot()
	result.DisplayTerms = terms.SelectForDisplay(resolved, a.maxTerms)

	a.progress("market")
	source := market.LookupFreetext
	if artistName(item, result.DetectedArtist) != "" {
		source = market.LookupArtist
	}
	snap := a.market.RunOrDefer(ctx, state.BuildSearchContext(), state.Candidates(), source)
	if snap == nil {
		result.MarketDeferred = true
		result.Market = market.PlaceholderSnapshot()
	} else {
		result.Market = *snap
		if !snap.HasComparableData {
			result.Degraded.MarketData = true
		}
	}

	// Valuation, brand checking, and the image lookup are independent; each
	// branch degrades internally, so the group never carries an error.
	var g errgroup.Group

	g.Go(func() error {
		a.progress("valuation")
		result.Valuations = a.comparator.Analyze(item.Estimate, item.UpperEstimate, item.AcceptedReserve, result.Market)
		return nil
	})

	if a.brands != nil {
		g.Go(func() error {
			a.progress("brands")
			result.BrandIssues = a.brands.Detect(ctx, item.Title, item.Description)
			return nil
		})
	}

	if name := artistName(item, result.DetectedArtist); name != "" && a.images != nil {
		g.Go(func() error {
			a.progress("artist-image")
			result.ArtistImageURL = a.images.Lookup(ctx, name)
			if result.ArtistImageURL == "" {
				result.Degraded.ArtistImage = true
			}
			return nil
		})
	}

	_ = g.Wait()

	result.CompletedAt = time.Now()
	return result, nil
}

// ExecuteDeferredMarketAnalysis runs the pending market lookup, if any, and
// updates the result in place. It reports whether a lookup actually ran.
func (a *Analyzer) ExecuteDeferredMarketAnalysis(ctx context.Context, result *AnalysisResult) bool {
	snap := a.market.ExecuteDeferredAnalysis(ctx)
	if snap == nil {
		return false
	}
	result.Market = *snap
	result.MarketDeferred = false
	result.Degraded.MarketData = !snap.HasComparableData
	result.Valuations = a.comparator.Analyze(result.Item.Estimate, result.Item.UpperEstimate, result.Item.AcceptedReserve, result.Market)
	return true
}

func artistName(item ItemRecord, detected *ArtistDetection) string {
	if name := strings.TrimSpace(item.Artist); name != "" {
		return name
	}
	if detected != nil {
		return detected.Name
	}
	return ""
}

type artistResponse struct {
	ArtistName string  `json:"artist_name"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

const artistDetectionSystemPrompt = `You identify the artist or designer of auction lots from catalog text. You name a person only when the text itself supports it. Brands, manufacturers, and place names are not artists.`

func (a *Analyzer) detectArtist(ctx context.Context, item ItemRecord) (*ArtistDetection, error) {
	prompt := fmt.Sprintf(`Identify the artist or designer of this auction lot, if one is named or strongly implied.

TITLE: %s
DESCRIPTION: %s
ARTIST FIELD: %s

Return JSON:
{"artist_name": "full name or empty string", "confidence": 0.0-1.0, "reasoning": "one sentence"}`,
		item.Title, item.Description, item.Artist)

	var resp artistResponse
	_, err := a.executor.RunJSON(ctx, "artist detection", ai.Request{
		Prompt:       prompt,
		SystemPrompt: artistDetectionSystemPrompt,
		MaxTokens:    512,
	}, &resp, nil)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(resp.ArtistName)
	if name == "" || resp.Confidence < artistDetectionConfidence {
		return nil, nil
	}
	return &ArtistDetection{
		Name:       name,
		Confidence: resp.Confidence,
		Reasoning:  strings.TrimSpace(resp.Reasoning),
	}, nil
}
