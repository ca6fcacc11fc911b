// Package caa fetches front cover art from the Cover Art Archive. The archive
// is keyed by MusicBrainz release ID, so records without a catalog-shaped ID
// are skipped without a network call.
package caa

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"platter/internal/album"
	"platter/internal/providers"
)

// maxCoverBytes caps how much image data one response may carry.
const maxCoverBytes = 32 << 20

// Client provides access to the Cover Art Archive.
type Client struct {
	baseURL    string
	userAgent  string
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

// New creates a Cover Art Archive client.
func New(baseURL, userAgent string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("coverartarchive base url required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  strings.TrimSpace(userAgent),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Name identifies the provider in logs and metrics.
func (c *Client) Name() string { return "coverartarchive" }

// Fetch returns the front cover for the record's release ID. Records whose
// ID is not MusicBrainz-shaped, and releases the archive has no art for,
// yield a nil payload.
func (c *Client) Fetch(ctx context.Context, rec *album.Album) (*providers.Payload, error) {
	if !providers.IsMBID(rec.AlbumID) {
		return nil, nil
	}
	cover, err := c.FrontCover(ctx, rec.AlbumID)
	if err != nil {
		return nil, err
	}
	if cover == nil {
		return nil, nil
	}
	return &providers.Payload{Cover: cover}, nil
}

// FrontCover downloads the front image for a release. A 404 means the archive
// holds no art for the release and returns nil without an error.
func (c *Client) FrontCover(ctx context.Context, releaseID string) (*album.CoverImage, error) {
	endpoint := fmt.Sprintf("%s/release/%s/front", c.baseURL, releaseID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("cover fetch returned %d (latency=%v)", resp.StatusCode, latency)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCoverBytes))
	if err != nil {
		return nil, fmt.Errorf("read cover body: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &album.CoverImage{Data: data, Format: imageFormat(resp.Header.Get("Content-Type"), data)}, nil
}

func imageFormat(contentType string, data []byte) string {
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	switch {
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "gif"):
		return "gif"
	default:
		return "jpeg"
	}
}
