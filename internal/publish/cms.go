package publish

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// CMSClient publishes artifacts to a headless CMS over its REST API.
type CMSClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewCMSClient builds a client for the CMS at baseURL.
func NewCMSClient(baseURL, token string) (*CMSClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("publish: CMS base URL required")
	}

	return &CMSClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type cmsPostRequest struct {
	Title           string `json:"title"`
	Content         string `json:"content"`
	Excerpt         string `json:"excerpt,omitempty"`
	Status          string `json:"status"`
	Category        string `json:"category,omitempty"`
	Author          string `json:"author,omitempty"`
	MetaTitle       string `json:"meta_title,omitempty"`
	MetaDescription string `json:"meta_description,omitempty"`
	FocusKeyword    string `json:"focus_keyword,omitempty"`
	FeaturedMediaID string `json:"featured_media_id,omitempty"`
	FeaturedImage   string `json:"featured_image,omitempty"` // base64 upload
	FeaturedMime    string `json:"featured_image_mime,omitempty"`
	FeaturedURL     string `json:"featured_image_url,omitempty"`
	FeaturedAlt     string `json:"featured_image_alt,omitempty"`
}

type cmsPostResponse struct {
	ID string `json:"id"`
}

// CreateArtifact posts the artifact and returns the CMS post ID.
func (c *CMSClient) CreateArtifact(ctx context.Context, a *Artifact) (string, error) {
	status := a.Status
	if status == "" {
		status = "draft"
	}

	req := cmsPostRequest{
		Title:           a.Title,
		Content:         a.Body,
		Excerpt:         a.Excerpt,
		Status:          status,
		Category:        a.Category,
		Author:          a.Author,
		MetaTitle:       a.MetaTitle,
		MetaDescription: a.MetaDescription,
		FocusKeyword:    a.FocusKeyword,
	}
	if img := a.FeaturedImage; img != nil {
		req.FeaturedMediaID = img.MediaID
		req.FeaturedURL = img.URL
		req.FeaturedAlt = img.AltText
		if len(img.Bytes) > 0 {
			req.FeaturedImage = base64.StdEncoding.EncodeToString(img.Bytes)
			req.FeaturedMime = img.MimeType
		}
	}

	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(req); err != nil {
		return "", fmt.Errorf("publish: failed to encode post: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/posts", &body)
	if err != nil {
		return "", fmt.Errorf("publish: failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("publish: CMS request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("publish: failed to read CMS response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("publish: CMS returned %d: %s", resp.StatusCode, raw)
	}

	var out cmsPostResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("publish: failed to decode CMS response: %w", err)
	}
	if out.ID == "" {
		return "", errors.New("publish: CMS response missing post ID")
	}
	return out.ID, nil
}
