// Package images resolves a representative artwork image for a detected
// artist. The lookup is decorative: any failure degrades to an empty URL
// and never blocks or fails the analysis that requested it.
package images

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultBaseURL = "https://images.auctiondesk.io"

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *log.Logger
}

type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *log.Logger
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		http:    httpClient,
		logger:  logger,
	}
}

type lookupResponse struct {
	ImageURL string `json:"image_url"`
}

// Lookup returns an image URL for the named artist, or "" when the artist
// is unknown or the lookup fails for any reason.
func (c *Client) Lookup(ctx context.Context, artistName string) string {
	artistName = strings.TrimSpace(artistName)
	if artistName == "" {
		return ""
	}

	endpoint := fmt.Sprintf("%s/v1/artists/image?name=%s", c.baseURL, url.QueryEscape(artistName))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ""
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Printf("[images] lookup for %q failed: %v", artistName, err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode != http.StatusNotFound {
			c.logger.Printf("[images] lookup for %q returned status %d", artistName, resp.StatusCode)
		}
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return ""
	}
	var out lookupResponse
	if err := json.Unmarshal(body, &out); err != nil {
		c.logger.Printf("[images] lookup for %q returned unparseable body: %v", artistName, err)
		return ""
	}
	return strings.TrimSpace(out.ImageURL)
}
