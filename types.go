package main

import (
	"lyrics-resolver-go/services/providers"
)

// LyricsResponse is the body of a successful lyrics lookup
type LyricsResponse struct {
	Status   providers.Status `json:"status"`
	Source   providers.Source `json:"source"`
	Provider string           `json:"provider"`
	Timed    bool             `json:"timed"`
	Lines    []providers.Line `json:"lines"`
	Raw      string           `json:"raw"`
}

// ErrorResponse is the body of a lookup that produced no lyrics
type ErrorResponse struct {
	Status string `json:"status,omitempty"`
	Error  string `json:"error"`
}

// CachePerformance summarizes how the coordinator answered so far
type CachePerformance struct {
	Hits        int64   `json:"hits"`
	Joins       int64   `json:"joins"`
	Resolutions int64   `json:"resolutions"`
	HitRate     float64 `json:"hit_rate_percent"`
}

// CacheDumpResponse is the response format for the /cache endpoint
type CacheDumpResponse struct {
	NumberOfKeys int                         `json:"number_of_keys"`
	InFlight     int                         `json:"in_flight"`
	Performance  CachePerformance            `json:"performance"`
	Entries      map[string]providers.Status `json:"entries"`
}
