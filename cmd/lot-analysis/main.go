package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/auctiondesk/lotsense/internal/ai"
	"github.com/auctiondesk/lotsense/internal/brands"
	"github.com/auctiondesk/lotsense/internal/images"
	"github.com/auctiondesk/lotsense/internal/market"
	"github.com/auctiondesk/lotsense/internal/pipeline"
	"github.com/auctiondesk/lotsense/internal/report"
)

func main() {
	inputPath := flag.String("input", "", "Path to item record JSON (defaults to stdin)")
	jsonOutputPath := flag.String("json-output", "", "Path to write the analysis result JSON")
	markdownPath := flag.String("markdown-output", "", "Path to write the report markdown (defaults to stdout)")
	brandDBPath := flag.String("brand-db", defaultEnv("BRAND_DB_PATH", "brands.db"), "Path to the brand catalog SQLite file")
	visible := flag.Bool("dashboard-visible", true, "Whether the market dashboard is visible (deferred lookup when false)")
	runDeferred := flag.Bool("run-deferred", false, "Execute a deferred market lookup immediately after analysis")
	flag.Parse()

	item, err := readItem(*inputPath)
	if err != nil {
		log.Fatalf("read item: %v", err)
	}

	executor := buildExecutor()
	svc := buildMarketService()
	catalog, closeCatalog := buildCatalog(*brandDBPath)
	defer closeCatalog()

	analyzer := pipeline.NewAnalyzer(pipeline.Config{
		Executor: executor,
		Market:   market.NewScheduler(svc, func() bool { return *visible }),
		Brands:   brands.NewDetector(catalog, executor, log.Default()),
		Images:   buildImagesClient(),
		Progress: func(stage string) { log.Printf("stage: %s", stage) },
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	result, err := analyzer.Analyze(ctx, item)
	if err != nil {
		log.Fatalf("analyze: %v", err)
	}
	if result.MarketDeferred && *runDeferred {
		analyzer.ExecuteDeferredMarketAnalysis(ctx, result)
	}

	if *jsonOutputPath != "" {
		b, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			log.Fatalf("encode result: %v", err)
		}
		if err := os.WriteFile(*jsonOutputPath, b, 0o644); err != nil {
			log.Fatalf("write json output: %v", err)
		}
	}

	markdown := report.BuildMarkdown(result)
	if *markdownPath == "" {
		fmt.Print(markdown)
		return
	}
	if err := os.WriteFile(*markdownPath, []byte(markdown), 0o644); err != nil {
		log.Fatalf("write markdown: %v", err)
	}
}

func readItem(path string) (pipeline.ItemRecord, error) {
	var item pipeline.ItemRecord
	var data []byte
	var err error
	if path == "" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return item, err
	}
	if err := json.Unmarshal(data, &item); err != nil {
		return item, fmt.Errorf("decode item JSON: %w", err)
	}
	return item, nil
}

// buildExecutor returns nil when no API key is configured, which disables
// both AI passes.
func buildExecutor() *ai.Executor {
	caller, err := ai.NewAnthropicCallerFromEnv()
	if err != nil {
		log.Printf("AI passes disabled: %v", err)
		return nil
	}
	return ai.NewExecutor(caller)
}

func buildMarketService() market.Service {
	svc, err := market.NewHTTPService(market.HTTPConfig{
		APIKey:  os.Getenv("MARKET_DATA_API_KEY"),
		BaseURL: os.Getenv("MARKET_DATA_BASE_URL"),
	})
	if err != nil {
		log.Printf("market data disabled: %v", err)
		return market.Disabled{}
	}
	return svc
}

func buildCatalog(path string) (brands.Catalog, func()) {
	catalog, err := brands.OpenSQLiteCatalog(path)
	if err != nil {
		log.Printf("brand catalog unavailable (%v), using built-in seed", err)
		return brands.NewStaticCatalog(brands.SeedEntries()), func() {}
	}
	return catalog, func() { catalog.Close() }
}

func buildImagesClient() *images.Client {
	apiKey := strings.TrimSpace(os.Getenv("IMAGE_LOOKUP_API_KEY"))
	if apiKey == "" {
		return nil
	}
	return images.NewClient(images.Config{
		APIKey:  apiKey,
		BaseURL: os.Getenv("IMAGE_LOOKUP_BASE_URL"),
	})
}

func defaultEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
