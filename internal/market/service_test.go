package market

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/auctiondesk/lotsense/internal/query"
	"github.com/auctiondesk/lotsense/internal/terms"
)

func TestNewHTTPServiceRequiresAPIKey(t *testing.T) {
	if _, err := NewHTTPService(HTTPConfig{}); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestAnalyzeSalesHappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "k" {
			t.Errorf("missing api key header")
		}
		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Query != "Anna Ehrner vas" || len(req.Terms) != 1 || req.Terms[0] != "Anna Ehrner" {
			t.Errorf("unexpected request: %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"has_comparable_data":true,"price_range":{"low":4000,"high":6500},"confidence":0.82,"historical":{"analyzed_sales":18,"total_matches":54},"live":{"analyzed_live_items":3,"market_activity":{"reserves_met_percentage":71.4}},"insights":[{"type":"trend","message":"steady"}],"data_source":"comparables"}`))
	}))
	defer srv.Close()

	s, err := NewHTTPService(HTTPConfig{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client(), RateLimitPerMinute: 60000})
	if err != nil {
		t.Fatal(err)
	}
	sc := query.SearchContext{
		Query: "Anna Ehrner vas",
		Terms: []terms.CandidateTerm{{Term: `"Anna Ehrner"`, Type: terms.TypeArtist}},
		Valid: true,
	}
	snap, err := s.AnalyzeSales(context.Background(), sc)
	if err != nil {
		t.Fatal(err)
	}
	if !snap.HasComparableData || snap.PriceRange == nil || snap.PriceRange.High != 6500 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.Live.MarketActivity.ReservesMetPercentage != 71.4 {
		t.Fatalf("live data not decoded: %+v", snap.Live)
	}
}

func TestAnalyzeSalesDowngradesMissingPriceRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"has_comparable_data":true,"confidence":0.5,"data_source":"comparables"}`))
	}))
	defer srv.Close()

	s, err := NewHTTPService(HTTPConfig{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client(), RateLimitPerMinute: 60000})
	if err != nil {
		t.Fatal(err)
	}
	snap, err := s.AnalyzeSales(context.Background(), query.SearchContext{Query: "x", Valid: true})
	if err != nil {
		t.Fatal(err)
	}
	if snap.HasComparableData {
		t.Fatalf("snapshot without a price range must not claim comparable data: %+v", snap)
	}
}

func TestFirstRequestNotRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"has_comparable_data":false,"data_source":"comparables"}`))
	}))
	defer srv.Close()

	// 2 per minute means a 30s slot; the first call must not wait for one.
	s, err := NewHTTPService(HTTPConfig{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client(), RateLimitPerMinute: 2})
	if err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	if _, err := s.AnalyzeSales(context.Background(), query.SearchContext{Query: "x", Valid: true}); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("first call waited %v for a rate limit slot", elapsed)
	}
	if got := s.nextAllowed; got.Before(start.Add(s.interval)) {
		t.Fatalf("second slot not reserved: next=%v interval=%v", got, s.interval)
	}
}

func TestAnalyzeSalesRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"has_comparable_data":false,"insights":[],"data_source":"comparables"}`))
	}))
	defer srv.Close()

	s, err := NewHTTPService(HTTPConfig{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client(), RateLimitPerMinute: 60000})
	if err != nil {
		t.Fatal(err)
	}
	snap, err := s.AnalyzeSales(context.Background(), query.SearchContext{Query: "x", Valid: true})
	if err != nil {
		t.Fatal(err)
	}
	if snap.HasComparableData {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestAnalyzeSalesClientErrorDoesNotRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	s, err := NewHTTPService(HTTPConfig{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client(), RateLimitPerMinute: 60000})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.AnalyzeSales(context.Background(), query.SearchContext{Query: "x", Valid: true}); err == nil {
		t.Fatal("expected error")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("403 must not retry, got %d calls", calls)
	}
}

func TestDisabledService(t *testing.T) {
	snap, err := Disabled{}.AnalyzeSales(context.Background(), query.SearchContext{Query: "x", Valid: true})
	if err != nil {
		t.Fatal(err)
	}
	if snap.HasComparableData || snap.DataSource != "disabled" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}
