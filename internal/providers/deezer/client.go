// Package deezer resolves cover art and track lists through the public
// Deezer API. It serves both enrichment chains, so a single confident search
// match is reused for the cover download and the track listing.
package deezer

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

// SearchResult is a single Deezer album search match.
type SearchResult struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	CoverXL string `json:"cover_xl"`
	Artist  struct {
		Name string `json:"name"`
	} `json:"artist"`
}

type searchResponse struct {
	Data []SearchResult `json:"data"`
}

type trackEntry struct {
	Title    string `json:"title"`
	Duration int    `json:"duration"`
}

type trackResponse struct {
	Data []trackEntry `json:"data"`
}

// Client provides access to the Deezer API.
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

// New creates a Deezer client. The threshold gates search matches.
func New(baseURL string, threshold float64, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("deezer base url required")
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
func (c *Client) Name() string { return "deezer" }

// Fetch searches for the record's album and returns whatever the match
// offers: cover art, the track list, or both. Failure to download the cover
// does not discard the tracks.
func (c *Client) Fetch(ctx context.Context, rec *album.Album) (*providers.Payload, error) {
	match, err := c.SearchAlbum(ctx, rec)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, nil
	}

	payload := &providers.Payload{}
	if match.CoverXL != "" {
		cover, err := c.downloadCover(ctx, match.CoverXL)
		if err == nil {
			payload.Cover = cover
		}
	}

	tracks, err := c.AlbumTracks(ctx, match.ID)
	if err != nil {
		if payload.Cover == nil {
			return nil, err
		}
	} else {
		payload.Tracks = tracks
	}

	if payload.Empty() {
		return nil, nil
	}
	return payload, nil
}

// SearchAlbum returns the first search result that clears the similarity
// gate, or nil when none does.
func (c *Client) SearchAlbum(ctx context.Context, rec *album.Album) (*SearchResult, error) {
	endpoint, err := url.Parse(c.baseURL + "/search/album")
	if err != nil {
		return nil, fmt.Errorf("parse deezer url: %w", err)
	}
	params := url.Values{}
	params.Set("q", fmt.Sprintf("artist:%q album:%q", rec.Artist, rec.Title))
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
		return nil, fmt.Errorf("deezer search returned %d (latency=%v)", resp.StatusCode, latency)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode deezer response: %w", err)
	}

	for i := range payload.Data {
		result := &payload.Data[i]
		if providers.Acceptable(c.threshold, rec, result.Artist.Name, result.Title) {
			return result, nil
		}
	}
	return nil, nil
}

// AlbumTracks fetches the track listing for a Deezer album ID.
func (c *Client) AlbumTracks(ctx context.Context, albumID int64) ([]album.Track, error) {
	if albumID <= 0 {
		return nil, errors.New("album id must be positive")
	}
	endpoint := fmt.Sprintf("%s/album/%d/tracks", c.baseURL, albumID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
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
		return nil, fmt.Errorf("deezer tracks returned %d (latency=%v)", resp.StatusCode, latency)
	}

	var payload trackResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode deezer tracks: %w", err)
	}

	tracks := make([]album.Track, 0, len(payload.Data))
	for _, entry := range payload.Data {
		name := album.Sanitize(entry.Title)
		if name == "" {
			continue
		}
		tracks = append(tracks, album.Track{
			Name:   name,
			Length: album.FormatTrackLength(time.Duration(entry.Duration) * time.Second),
		})
	}
	if len(tracks) == 0 {
		return nil, nil
	}
	return tracks, nil
}

func (c *Client) downloadCover(ctx context.Context, coverURL string) (*album.CoverImage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, coverURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build cover request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("fetch cover (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cover fetch returned %d (latency=%v)", resp.StatusCode, latency)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCoverBytes))
	if err != nil {
		return nil, fmt.Errorf("read cover body: %w", err)
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
