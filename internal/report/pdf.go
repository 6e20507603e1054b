package report

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/auctiondesk/lotsense/internal/pipeline"
)

// ChromiumPDFRenderer turns report markdown into a printable PDF via a
// headless Chromium instance.
type ChromiumPDFRenderer struct {
	chromePath string
}

func NewChromiumPDFRenderer() *ChromiumPDFRenderer {
	return &ChromiumPDFRenderer{chromePath: detectChromePath()}
}

func (r *ChromiumPDFRenderer) Render(ctx context.Context, result *pipeline.AnalysisResult, markdown string) ([]byte, error) {
	htmlDoc, err := buildHTML(result, markdown)
	if err != nil {
		return nil, err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	}
	if r.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(timeoutCtx, append(chromedp.DefaultExecAllocatorOptions[:], opts...)...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	var pdf []byte
	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(htmlDoc))
	if err := chromedp.Run(taskCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			footer := `<div style="width:100%;text-align:center;font-size:9px;color:#666;">` +
				`Page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`
			out, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithDisplayHeaderFooter(true).
				WithHeaderTemplate(`<div></div>`).
				WithFooterTemplate(footer).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithMarginTop(0.5).
				WithMarginBottom(0.75).
				WithMarginLeft(0.45).
				WithMarginRight(0.45).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = out
			return nil
		}),
	); err != nil {
		return nil, err
	}
	return pdf, nil
}

const reportCSS = `
body{font-family:Georgia,serif;color:#1c1917;background:#fff;max-width:960px;margin:0 auto;padding:0.6rem;}
h1{font-size:1.6rem;border-bottom:2px solid #1c1917;padding-bottom:0.3rem;}
h2{font-size:1.15rem;margin-top:1.4rem;}
code{background:#f5f5f4;padding:0.1rem 0.3rem;font-size:0.85em;}
blockquote{border-left:3px solid #b45309;background:#fffbeb;margin:0;padding:0.4rem 0.8rem;color:#78350f;}
table{width:100%;border-collapse:collapse;font-size:0.8rem;margin:0.5rem 0;}
th,td{border:1px solid #a8a29e;padding:0.35rem 0.45rem;text-align:left;vertical-align:top;}
thead th{background:#f1f5f9;font-weight:700;}
.report-meta{font-size:0.85rem;color:#44403c;margin-bottom:0.8rem;}
.report-meta strong{color:#1c1917;}
.artist-image{max-height:160px;float:right;margin:0 0 0.5rem 0.8rem;border:1px solid #a8a29e;}
html,body,*{-webkit-print-color-adjust:exact !important;print-color-adjust:exact !important;}
@media print{ @page{size:auto;margin:12mm;} h2[data-page-break-before="true"]{break-before:page;page-break-before:always;} }
`

func buildHTML(result *pipeline.AnalysisResult, markdown string) (string, error) {
	var content strings.Builder
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(markdown), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	contentHTML := applyPrintLayoutHooks(content.String())

	metaHTML := buildMetaHTML(result)
	imageHTML := ""
	if result != nil && result.ArtistImageURL != "" {
		imageHTML = "<img class='artist-image' src='" + html.EscapeString(result.ArtistImageURL) + "' alt='artist work'>"
	}

	return "<!doctype html><html><head><meta charset='utf-8'><title>Lot Analysis</title>" +
		"<style>" + reportCSS + "</style></head><body>" +
		imageHTML +
		"<div class='report-meta'>" + metaHTML + "</div>" +
		contentHTML +
		"</body></html>", nil
}

var reSectionHeading = regexp.MustCompile(`(?i)<h2([^>]*)>\s*(Market Comparison|Valuation Review)\s*</h2>`)

// applyPrintLayoutHooks starts the heavier sections on a fresh page.
func applyPrintLayoutHooks(contentHTML string) string {
	return reSectionHeading.ReplaceAllString(contentHTML, `<h2$1 data-page-break-before="true">$2</h2>`)
}

func buildMetaHTML(result *pipeline.AnalysisResult) string {
	if result == nil {
		return ""
	}
	var out strings.Builder
	out.WriteString("<div><strong>Session:</strong> " + html.EscapeString(result.SessionID) + "</div>")
	if result.Item.Title != "" {
		out.WriteString("<div><strong>Lot:</strong> " + html.EscapeString(result.Item.Title) + "</div>")
	}
	if !result.CompletedAt.IsZero() {
		out.WriteString("<div><strong>Date:</strong> " + html.EscapeString(result.CompletedAt.In(time.Local).Format("January 2, 2006 at 3:04 PM MST")) + "</div>")
	}
	return out.String()
}

func detectChromePath() string {
	candidates := []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
