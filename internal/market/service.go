package market

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/auctiondesk/lotsense/internal/query"
)

const (
	DefaultBaseURL            = "https://api.auctiondesk.io"
	comparablesPath           = "/v1/comparables/analyze"
	DefaultRateLimitPerMinute = 30
)

// Service is the Market Data Service capability. Implementations return an
// explicit no-data snapshot rather than partial results; transport errors
// surface to the scheduler, which downgrades them.
type Service interface {
	AnalyzeSales(ctx context.Context, sc query.SearchContext) (Snapshot, error)
}

type HTTPConfig struct {
	APIKey             string
	BaseURL            string
	RateLimitPerMinute int
	HTTPClient         *http.Client
}

type HTTPService struct {
	cfg      HTTPConfig
	interval time.Duration

	mu          sync.Mutex
	nextAllowed time.Time
}

func NewHTTPService(cfg HTTPConfig) (*HTTPService, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, errors.New("MARKET_DATA_API_KEY not configured")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RateLimitPerMinute <= 0 {
		cfg.RateLimitPerMinute = DefaultRateLimitPerMinute
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	interval := time.Minute / time.Duration(cfg.RateLimitPerMinute)
	return &HTTPService{cfg: cfg, interval: interval}, nil
}

type analyzeRequest struct {
	Query        string   `json:"query"`
	Terms        []string `json:"terms,omitempty"`
	AnalysisType string   `json:"analysis_type,omitempty"`
}

func (s *HTTPService) AnalyzeSales(ctx context.Context, sc query.SearchContext) (Snapshot, error) {
	if !sc.Valid {
		return NoDataSnapshot("invalid_context"), nil
	}
	if err := s.waitRateLimit(ctx); err != nil {
		return Snapshot{}, err
	}

	body := analyzeRequest{Query: sc.Query, AnalysisType: string(sc.AnalysisType)}
	for _, t := range sc.Terms {
		body.Terms = append(body.Terms, t.Text())
	}

	snap, err := s.executeWithRetry(ctx, body)
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// waitRateLimit reserves the next request slot. The first call proceeds
// immediately; later calls sleep until one interval after the previous
// reservation.
func (s *HTTPService) waitRateLimit(ctx context.Context) error {
	s.mu.Lock()
	now := time.Now()
	start := now
	if s.nextAllowed.After(now) {
		start = s.nextAllowed
	}
	s.nextAllowed = start.Add(s.interval)
	s.mu.Unlock()

	if wait := start.Sub(now); wait > 0 {
		return sleepCtx(ctx, wait)
	}
	return nil
}

func (s *HTTPService) executeWithRetry(ctx context.Context, body analyzeRequest) (Snapshot, error) {
	var lastErr error
	for attempt := 1; attempt <= 4; attempt++ {
		snap, code, retryAfter, err := s.executeOnce(ctx, body)
		if err == nil {
			return snap, nil
		}
		lastErr = err

		if code == http.StatusBadRequest || code == http.StatusForbidden || code == http.StatusUnauthorized {
			return Snapshot{}, err
		}
		if attempt == 4 {
			break
		}
		sleep := backoffDelay(attempt)
		if code == http.StatusTooManyRequests && retryAfter > 0 {
			sleep = retryAfter
		}
		if serr := sleepCtx(ctx, sleep); serr != nil {
			return Snapshot{}, serr
		}
	}
	return Snapshot{}, lastErr
}

func (s *HTTPService) executeOnce(ctx context.Context, body analyzeRequest) (Snapshot, int, time.Duration, error) {
	payload, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(s.cfg.BaseURL, "/")+comparablesPath, bytes.NewReader(payload))
	if err != nil {
		return Snapshot{}, 0, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", s.cfg.APIKey)

	res, err := s.cfg.HTTPClient.Do(req)
	if err != nil {
		return Snapshot{}, 0, 0, err
	}
	defer res.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(res.Body, 2<<20))

	retryAfter := parseRetryAfter(res.Header.Get("Retry-After"))
	if res.StatusCode >= 400 {
		return Snapshot{}, res.StatusCode, retryAfter, fmt.Errorf("status code: %d body=%s", res.StatusCode, truncateBody(b))
	}

	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return Snapshot{}, res.StatusCode, retryAfter, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.HasComparableData && snap.PriceRange == nil {
		// The flag promises a price range the payload did not carry.
		// Treat the response as no-data instead of passing the
		// inconsistency downstream.
		snap.HasComparableData = false
	}
	return snap, res.StatusCode, retryAfter, nil
}

func truncateBody(b []byte) string {
	const max = 512
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}

func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return 0
}

func backoffDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 1 * time.Second
	}
	return 2 * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Disabled is the no-op service used when no market credentials are
// configured. Every call reports "no comparable data".
type Disabled struct{}

func (Disabled) AnalyzeSales(_ context.Context, _ query.SearchContext) (Snapshot, error) {
	return NoDataSnapshot("disabled"), nil
}

var (
	_ Service = (*HTTPService)(nil)
	_ Service = Disabled{}
)
