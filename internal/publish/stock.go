package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// StockPhotoClient searches a stock photo provider by keyword.
type StockPhotoClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewStockPhotoClient builds a client. baseURL points at the
// provider's search API root.
func NewStockPhotoClient(baseURL, apiKey string) (*StockPhotoClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("publish: stock photo base URL required")
	}

	return &StockPhotoClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}, nil
}

type stockSearchResponse struct {
	Photos []struct {
		URL string `json:"url"`
		Alt string `json:"alt"`
	} `json:"photos"`
}

// Search returns the first photo matching the keywords.
func (c *StockPhotoClient) Search(ctx context.Context, keywords string) (*FeaturedImage, error) {
	keywords = strings.TrimSpace(keywords)
	if keywords == "" {
		return nil, errors.New("publish: stock photo keywords required")
	}

	u := fmt.Sprintf("%s/search?query=%s&per_page=1", c.baseURL, url.QueryEscape(keywords))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("publish: failed to build search request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("publish: stock photo search failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("publish: failed to read search response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("publish: stock photo provider returned %d: %s", resp.StatusCode, raw)
	}

	var out stockSearchResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("publish: failed to decode search response: %w", err)
	}
	if len(out.Photos) == 0 {
		return nil, fmt.Errorf("publish: no stock photos found for %q", keywords)
	}

	return &FeaturedImage{URL: out.Photos[0].URL, AltText: out.Photos[0].Alt}, nil
}
