// Package itunes resolves cover art through the iTunes Search API. It is a
// search-only source: matches are gated on artist and title similarity before
// any artwork is downloaded.
package itunes

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

	"platter/internal/album"
	"platter/internal/providers"
)

const maxCoverBytes = 32 << 20

// Result is a single iTunes album search match.
type Result struct {
	CollectionID   int64  `json:"collectionId"`
	ArtistName     string `json:"artistName"`
	CollectionName string `json:"collectionName"`
	ArtworkURL100  string `json:"artworkUrl100"`
}

// Response models the iTunes search envelope.
type Response struct {
	ResultCount int      `json:"resultCount"`
	Results     []Result `json:"results"`
}

// Client provides access to the iTunes Search API.
type Client struct {
	baseURL    string
	threshold  float64
	httpClient *http.Client
}

var _ providers.Provider = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates an iTunes client. The threshold gates search matches.
func New(baseURL string, threshold float64, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("itunes base url required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		threshold:  threshold,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Name identifies the provider in logs and metrics.
func (c *Client) Name() string { return "itunes" }

// Fetch searches for the record's album and downloads its artwork. A search
// with no result clearing the similarity gate yields a nil payload.
func (c *Client) Fetch(ctx context.Context, rec *album.Album) (*providers.Payload, error) {
	match, err := c.SearchAlbum(ctx, rec)
	if err != nil {
		return nil, err
	}
	if match == nil || match.ArtworkURL100 == "" {
		return nil, nil
	}

	cover, err := c.downloadArtwork(ctx, upscaleArtworkURL(match.ArtworkURL100))
	if err != nil {
		return nil, err
	}
	if cover == nil {
		return nil, nil
	}
	return &providers.Payload{Cover: cover}, nil
}

// SearchAlbum returns the first search result that clears the similarity
// gate, or nil when none does.
func (c *Client) SearchAlbum(ctx context.Context, rec *album.Album) (*Result, error) {
	endpoint, err := url.Parse(c.baseURL + "/search")
	if err != nil {
		return nil, fmt.Errorf("parse itunes url: %w", err)
	}
	params := url.Values{}
	params.Set("term", strings.TrimSpace(rec.Artist+" "+rec.Title))
	params.Set("entity", "album")
	params.Set("media", "music")
	params.Set("limit", "5")
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("itunes search returned %d (latency=%v)", resp.StatusCode, latency)
	}

	var payload Response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode itunes response: %w", err)
	}

	for i := range payload.Results {
		result := &payload.Results[i]
		if providers.Acceptable(c.threshold, rec, result.ArtistName, result.CollectionName) {
			return result, nil
		}
	}
	return nil, nil
}

func (c *Client) downloadArtwork(ctx context.Context, artworkURL string) (*album.CoverImage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, artworkURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build artwork request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("fetch artwork (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("artwork fetch returned %d (latency=%v)", resp.StatusCode, latency)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCoverBytes))
	if err != nil {
		return nil, fmt.Errorf("read artwork body: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	format := "jpeg"
	if strings.Contains(resp.Header.Get("Content-Type"), "png") {
		format = "png"
	}
	return &album.CoverImage{Data: data, Format: format}, nil
}

// upscaleArtworkURL rewrites the thumbnail URL the search API returns into
// the largest rendition the CDN serves.
func upscaleArtworkURL(artworkURL string) string {
	return strings.Replace(artworkURL, "100x100bb", "1200x1200bb", 1)
}
