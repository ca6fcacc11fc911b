// Package musicbrainz resolves track lists through the MusicBrainz web
// service. MusicBrainz enforces one request per second per client, so every
// HTTP call is routed through the shared sequencer when one is supplied.
package musicbrainz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"platter/internal/album"
	"platter/internal/providers"
	"platter/internal/sequencer"
)

// Release is one MusicBrainz release, optionally with its recordings.
type Release struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Date         string `json:"date"`
	Country      string `json:"country"`
	ArtistCredit []struct {
		Name string `json:"name"`
	} `json:"artist-credit"`
	Media []struct {
		Tracks []struct {
			Position int    `json:"position"`
			Title    string `json:"title"`
			Length   int    `json:"length"`
		} `json:"tracks"`
	} `json:"media"`
}

type searchResponse struct {
	Releases []Release `json:"releases"`
}

// Client provides access to the MusicBrainz web service.
type Client struct {
	baseURL    string
	userAgent  string
	threshold  float64
	httpClient *http.Client
	seq        *sequencer.Sequencer
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

// WithSequencer routes every request through the shared rate-limited lane.
func WithSequencer(seq *sequencer.Sequencer) Option {
	return func(c *Client) {
		c.seq = seq
	}
}

// New creates a MusicBrainz client. MusicBrainz rejects requests without an
// identifying User-Agent, so one is required.
func New(baseURL, userAgent string, threshold float64, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("musicbrainz base url required")
	}
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return nil, errors.New("musicbrainz user agent required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		threshold:  threshold,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Name identifies the provider in logs and metrics.
func (c *Client) Name() string { return "musicbrainz" }

// Fetch returns the track list for the record. A catalog-shaped album ID is
// looked up directly; otherwise the release is searched and gated on artist
// and title similarity.
func (c *Client) Fetch(ctx context.Context, rec *album.Album) (*providers.Payload, error) {
	releaseID := strings.TrimSpace(rec.AlbumID)
	if !providers.IsMBID(releaseID) {
		match, err := c.SearchRelease(ctx, rec)
		if err != nil {
			return nil, err
		}
		if match == nil {
			return nil, nil
		}
		releaseID = match.ID
	}

	release, err := c.LookupRelease(ctx, releaseID)
	if err != nil {
		return nil, err
	}
	if release == nil {
		return nil, nil
	}

	tracks := release.TrackList()
	if len(tracks) == 0 {
		return nil, nil
	}
	return &providers.Payload{Tracks: tracks}, nil
}

// SearchRelease returns the first release that clears the similarity gate,
// or nil when none does.
func (c *Client) SearchRelease(ctx context.Context, rec *album.Album) (*Release, error) {
	endpoint, err := url.Parse(c.baseURL + "/release")
	if err != nil {
		return nil, fmt.Errorf("parse musicbrainz url: %w", err)
	}
	params := url.Values{}
	params.Set("query", fmt.Sprintf("artist:%q AND release:%q", rec.Artist, rec.Title))
	params.Set("fmt", "json")
	params.Set("limit", "5")
	endpoint.RawQuery = params.Encode()

	var payload searchResponse
	if err := c.getJSON(ctx, "musicbrainz.search", endpoint.String(), &payload); err != nil {
		return nil, err
	}

	for i := range payload.Releases {
		release := &payload.Releases[i]
		if providers.Acceptable(c.threshold, rec, release.ArtistName(), release.Title) {
			return release, nil
		}
	}
	return nil, nil
}

// LookupRelease fetches one release with its recordings. An unknown release
// ID returns nil without an error.
func (c *Client) LookupRelease(ctx context.Context, releaseID string) (*Release, error) {
	releaseID = strings.TrimSpace(releaseID)
	if releaseID == "" {
		return nil, errors.New("release id required")
	}
	endpoint, err := url.Parse(fmt.Sprintf("%s/release/%s", c.baseURL, releaseID))
	if err != nil {
		return nil, fmt.Errorf("parse musicbrainz url: %w", err)
	}
	params := url.Values{}
	params.Set("inc", "recordings")
	params.Set("fmt", "json")
	endpoint.RawQuery = params.Encode()

	var payload Release
	err = c.getJSON(ctx, "musicbrainz.lookup", endpoint.String(), &payload)
	if err != nil {
		var statusErr *sequencer.StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &payload, nil
}

// ArtistName joins the release's artist credits into one display string.
func (r *Release) ArtistName() string {
	names := make([]string, 0, len(r.ArtistCredit))
	for _, credit := range r.ArtistCredit {
		if credit.Name != "" {
			names = append(names, credit.Name)
		}
	}
	return strings.Join(names, " ")
}

// TrackList flattens the release media into the canonical track form.
func (r *Release) TrackList() []album.Track {
	var tracks []album.Track
	for _, medium := range r.Media {
		for _, entry := range medium.Tracks {
			name := album.Sanitize(entry.Title)
			if name == "" {
				continue
			}
			tracks = append(tracks, album.Track{
				Name:   name,
				Length: album.FormatTrackLength(time.Duration(entry.Length) * time.Millisecond),
			})
		}
	}
	return tracks
}

// getJSON performs one GET, routed through the sequencer when configured,
// and decodes the body into out. Non-200 statuses surface as StatusError so
// the sequencer can classify them for retry.
func (c *Client) getJSON(ctx context.Context, name, endpoint string, out any) error {
	call := func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		requestStart := time.Now()
		resp, err := c.httpClient.Do(req)
		latency := time.Since(requestStart)
		if err != nil {
			return fmt.Errorf("execute request (latency=%v): %w", latency, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("musicbrainz returned error (latency=%v): %w",
				latency, &sequencer.StatusError{Code: resp.StatusCode})
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode musicbrainz response: %w", err)
		}
		return nil
	}

	if c.seq == nil {
		return call(ctx)
	}
	_, err := c.seq.Do(ctx, sequencer.PriorityNormal, name, call)
	return err
}
