package lrclib

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"lyrics-resolver-go/circuitbreaker"
	"lyrics-resolver-go/logcolors"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultBaseURL   = "https://lrclib.net/api"
	DefaultTimeout   = 4 * time.Second
	DefaultUserAgent = "lyrics-resolver-go/1.0"

	// search bodies above this are rejected rather than buffered
	maxBodyBytes = 4 << 20
)

// ErrNotFound is returned by Get when LRCLIB has no record for the exact metadata
var ErrNotFound = errors.New("lrclib: track not found")

// StatusError reports a non-2xx response other than the endpoint's "not found"
type StatusError struct {
	Endpoint string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("lrclib %s returned status %d", e.Endpoint, e.Code)
}

// GetParams are the exact-match parameters for /get
type GetParams struct {
	TrackName  string
	ArtistName string
	AlbumName  string
	Duration   int // rounded seconds, omitted when <= 0
}

func (p GetParams) values() url.Values {
	v := url.Values{}
	v.Set("track_name", p.TrackName)
	v.Set("artist_name", p.ArtistName)
	if p.AlbumName != "" {
		v.Set("album_name", p.AlbumName)
	}
	if p.Duration > 0 {
		v.Set("duration", strconv.Itoa(p.Duration))
	}
	return v
}

// SearchQuery holds /search parameters; Q is free text and is used instead of the fields when set
type SearchQuery struct {
	Q          string
	TrackName  string
	ArtistName string
}

func (q SearchQuery) values() url.Values {
	v := url.Values{}
	if q.Q != "" {
		v.Set("q", q.Q)
		return v
	}
	v.Set("track_name", q.TrackName)
	if q.ArtistName != "" {
		v.Set("artist_name", q.ArtistName)
	}
	return v
}

func (q SearchQuery) String() string {
	if q.Q != "" {
		return "q=" + q.Q
	}
	return q.TrackName + " - " + q.ArtistName
}

// ClientConfig configures a Client; zero fields fall back to defaults
type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
	Breaker    *circuitbreaker.CircuitBreaker
}

// Client talks to the LRCLIB HTTP API
type Client struct {
	baseURL    string
	timeout    time.Duration
	userAgent  string
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
}

// NewClient creates a client
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		timeout:    cfg.Timeout,
		userAgent:  cfg.UserAgent,
		httpClient: cfg.HTTPClient,
		breaker:    cfg.Breaker,
	}
}

// Breaker returns the circuit breaker guarding this client, possibly nil
func (c *Client) Breaker() *circuitbreaker.CircuitBreaker {
	return c.breaker
}

// Get looks up a record by exact metadata. A 404 yields ErrNotFound.
func (c *Client) Get(ctx context.Context, params GetParams) (*Record, error) {
	log.Debugf("%s %s - %s (album: %q, duration: %d)",
		logcolors.LogGet, params.TrackName, params.ArtistName, params.AlbumName, params.Duration)

	var record *Record
	err := c.guard(func() error {
		body, status, err := c.do(ctx, "/get", params.values())
		if err != nil {
			return err
		}
		switch {
		case status == http.StatusNotFound:
			return ErrNotFound
		case status < 200 || status > 299:
			return &StatusError{Endpoint: "/get", Code: status}
		}

		record, err = decodeRecord(body)
		if err != nil {
			return fmt.Errorf("decode /get: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Search returns candidate records for approximate metadata. A 404 yields an empty list.
func (c *Client) Search(ctx context.Context, query SearchQuery) ([]Record, error) {
	log.Debugf("%s %s", logcolors.LogSearch, query)

	var records []Record
	err := c.guard(func() error {
		body, status, err := c.do(ctx, "/search", query.values())
		if err != nil {
			return err
		}
		switch {
		case status == http.StatusNotFound:
			records = nil
			return nil
		case status < 200 || status > 299:
			return &StatusError{Endpoint: "/search", Code: status}
		}

		records, err = decodeRecords(body)
		if err != nil {
			return fmt.Errorf("decode /search: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// guard runs fn through the breaker when one is configured
func (c *Client) guard(fn func() error) error {
	if c.breaker == nil {
		return fn()
	}
	err := c.breaker.Execute(fn, countsAsFailure)
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		log.Warnf("%s Circuit open, skipping request (retry in %v)",
			logcolors.LogHTTP, c.breaker.TimeUntilRetry().Round(time.Second))
	}
	return err
}

// countsAsFailure separates upstream health problems from routine answers.
// Not-found, client errors and undecodable bodies mean the service is up.
func countsAsFailure(err error) bool {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrMalformedResponse) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500
	}
	return true
}

// do performs one GET with its own timeout and returns the body and status code
func (c *Client) do(ctx context.Context, path string, params url.Values) ([]byte, int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	requestURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s request failed: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read %s response: %w", path, err)
	}

	log.Debugf("%s GET %s -> %d (%v)", logcolors.LogHTTP, path, resp.StatusCode, time.Since(start).Round(time.Millisecond))
	return body, resp.StatusCode, nil
}
