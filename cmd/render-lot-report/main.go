package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/auctiondesk/lotsense/internal/pipeline"
	"github.com/auctiondesk/lotsense/internal/report"
)

func main() {
	inputPath := flag.String("input", "", "Path to saved analysis result JSON")
	outputPath := flag.String("output", "lot-report.pdf", "Path to write the PDF")
	markdownPath := flag.String("markdown-output", "", "Optional path to write the rebuilt markdown")
	flag.Parse()

	if *inputPath == "" {
		log.Fatal("missing required -input")
	}

	in, err := os.ReadFile(*inputPath)
	if err != nil {
		log.Fatalf("read input: %v", err)
	}

	var result pipeline.AnalysisResult
	if err := json.Unmarshal(in, &result); err != nil {
		log.Fatalf("decode input JSON: %v", err)
	}

	markdown := report.BuildMarkdown(&result)
	if *markdownPath != "" {
		if err := os.WriteFile(*markdownPath, []byte(markdown), 0o644); err != nil {
			log.Fatalf("write markdown: %v", err)
		}
	}

	renderer := report.NewChromiumPDFRenderer()
	pdf, err := renderer.Render(context.Background(), &result, markdown)
	if err != nil {
		log.Fatalf("render pdf: %v", err)
	}
	if err := os.WriteFile(*outputPath, pdf, 0o644); err != nil {
		log.Fatalf("write pdf: %v", err)
	}
	log.Printf("wrote %s (%d bytes)", *outputPath, len(pdf))
}
