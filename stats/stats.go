// Package stats keeps process-lifetime counters for the service and the resolver.
package stats

import (
	"math"
	"strings"
	"sync/atomic"
	"time"
)

// Stats holds all counters; every field is safe for concurrent use
type Stats struct {
	StartTime time.Time

	// Requests by endpoint
	TotalRequests    atomic.Int64
	LyricsRequests   atomic.Int64
	ProviderRequests atomic.Int64
	CacheRequests    atomic.Int64
	OtherRequests    atomic.Int64

	// How the coordinator produced each answer
	CacheHits   atomic.Int64
	Joins       atomic.Int64
	Resolutions atomic.Int64
	Rejections  atomic.Int64

	// Resolution results
	OutcomeAvailable   atomic.Int64
	OutcomeUnavailable atomic.Int64
	OutcomeFailed      atomic.Int64
	RemoteHits         atomic.Int64
	NativeHits         atomic.Int64
	NativeFallbacks    atomic.Int64

	// Inbound rate limiting
	RateLimitAllowed  atomic.Int64
	RateLimitExceeded atomic.Int64

	// Response status classes
	Status2xx atomic.Int64
	Status4xx atomic.Int64
	Status5xx atomic.Int64

	// Response times in microseconds
	totalResponseTime   atomic.Int64
	responseCount       atomic.Int64
	minResponseTime     atomic.Int64
	maxResponseTime     atomic.Int64
	lyricsResponseTime  atomic.Int64
	lyricsResponseCount atomic.Int64
}

// New returns zeroed stats starting now
func New() *Stats {
	s := &Stats{StartTime: time.Now()}
	s.minResponseTime.Store(math.MaxInt64)
	return s
}

var global = New()

// Get returns the global stats instance
func Get() *Stats {
	return global
}

// underPath reports whether endpoint is root or one of its subpaths
func underPath(endpoint, root string) bool {
	return endpoint == root || strings.HasPrefix(endpoint, root+"/")
}

// RecordRequest counts a request to an endpoint; subpaths count toward their root
func (s *Stats) RecordRequest(endpoint string) {
	s.TotalRequests.Add(1)
	switch {
	case endpoint == "/lyrics":
		s.LyricsRequests.Add(1)
	case underPath(endpoint, "/providers"):
		s.ProviderRequests.Add(1)
	case underPath(endpoint, "/cache"):
		s.CacheRequests.Add(1)
	default:
		s.OtherRequests.Add(1)
	}
}

// RecordTrace counts how the coordinator answered: "hit", "joined", "resolved" or "rejected"
func (s *Stats) RecordTrace(trace string) {
	switch trace {
	case "hit":
		s.CacheHits.Add(1)
	case "joined":
		s.Joins.Add(1)
	case "resolved":
		s.Resolutions.Add(1)
	case "rejected":
		s.Rejections.Add(1)
	}
}

// RecordOutcome counts a finished resolution by status and, when available, by source
func (s *Stats) RecordOutcome(status, source string) {
	switch status {
	case "available":
		s.OutcomeAvailable.Add(1)
		switch source {
		case "remote":
			s.RemoteHits.Add(1)
		case "native":
			s.NativeHits.Add(1)
		}
	case "unavailable":
		s.OutcomeUnavailable.Add(1)
	case "failed":
		s.OutcomeFailed.Add(1)
	}
}

// RecordNativeFallback counts a resolution that had to ask the player
func (s *Stats) RecordNativeFallback() {
	s.NativeFallbacks.Add(1)
}

// RecordRateLimit counts an inbound request as allowed or exceeded
func (s *Stats) RecordRateLimit(allowed bool) {
	if allowed {
		s.RateLimitAllowed.Add(1)
		return
	}
	s.RateLimitExceeded.Add(1)
}

// RecordStatusCode counts a response by status class
func (s *Stats) RecordStatusCode(code int) {
	switch {
	case code >= 200 && code < 300:
		s.Status2xx.Add(1)
	case code >= 400 && code < 500:
		s.Status4xx.Add(1)
	case code >= 500:
		s.Status5xx.Add(1)
	}
}

// RecordResponseTime records a response time for an endpoint
func (s *Stats) RecordResponseTime(duration time.Duration, endpoint string) {
	us := duration.Microseconds()

	s.totalResponseTime.Add(us)
	s.responseCount.Add(1)

	for {
		current := s.minResponseTime.Load()
		if us >= current || s.minResponseTime.CompareAndSwap(current, us) {
			break
		}
	}
	for {
		current := s.maxResponseTime.Load()
		if us <= current || s.maxResponseTime.CompareAndSwap(current, us) {
			break
		}
	}

	if endpoint == "/lyrics" {
		s.lyricsResponseTime.Add(us)
		s.lyricsResponseCount.Add(1)
	}
}

// Uptime returns the time since start
func (s *Stats) Uptime() time.Duration {
	return time.Since(s.StartTime)
}

// CacheHitRate returns the share of coordinator answers served from cache or a join, as a percentage
func (s *Stats) CacheHitRate() float64 {
	served := s.CacheHits.Load() + s.Joins.Load()
	total := served + s.Resolutions.Load()
	if total == 0 {
		return 0
	}
	return float64(served) / float64(total) * 100
}

// AvgResponseTime returns the mean response time
func (s *Stats) AvgResponseTime() time.Duration {
	count := s.responseCount.Load()
	if count == 0 {
		return 0
	}
	return time.Duration(s.totalResponseTime.Load()/count) * time.Microsecond
}

// MinResponseTime returns the fastest response time, 0 before any response
func (s *Stats) MinResponseTime() time.Duration {
	min := s.minResponseTime.Load()
	if min == math.MaxInt64 {
		return 0
	}
	return time.Duration(min) * time.Microsecond
}

// MaxResponseTime returns the slowest response time
func (s *Stats) MaxResponseTime() time.Duration {
	return time.Duration(s.maxResponseTime.Load()) * time.Microsecond
}

// AvgLyricsResponseTime returns the mean response time of /lyrics
func (s *Stats) AvgLyricsResponseTime() time.Duration {
	count := s.lyricsResponseCount.Load()
	if count == 0 {
		return 0
	}
	return time.Duration(s.lyricsResponseTime.Load()/count) * time.Microsecond
}

// Snapshot returns a point-in-time view of all counters
func (s *Stats) Snapshot() map[string]interface{} {
	uptime := s.Uptime()

	return map[string]interface{}{
		"server": map[string]interface{}{
			"start_time":     s.StartTime.Format(time.RFC3339),
			"uptime":         uptime.Round(time.Second).String(),
			"uptime_seconds": int64(uptime.Seconds()),
		},
		"requests": map[string]interface{}{
			"total":     s.TotalRequests.Load(),
			"lyrics":    s.LyricsRequests.Load(),
			"providers": s.ProviderRequests.Load(),
			"cache":     s.CacheRequests.Load(),
			"other":     s.OtherRequests.Load(),
		},
		"resolver": map[string]interface{}{
			"cache_hits":  s.CacheHits.Load(),
			"joins":       s.Joins.Load(),
			"resolutions": s.Resolutions.Load(),
			"rejections":  s.Rejections.Load(),
			"hit_rate":    s.CacheHitRate(),
		},
		"outcomes": map[string]interface{}{
			"available":        s.OutcomeAvailable.Load(),
			"unavailable":      s.OutcomeUnavailable.Load(),
			"failed":           s.OutcomeFailed.Load(),
			"remote":           s.RemoteHits.Load(),
			"native":           s.NativeHits.Load(),
			"native_fallbacks": s.NativeFallbacks.Load(),
		},
		"rate_limiting": map[string]interface{}{
			"allowed":  s.RateLimitAllowed.Load(),
			"exceeded": s.RateLimitExceeded.Load(),
		},
		"responses": map[string]interface{}{
			"2xx": s.Status2xx.Load(),
			"4xx": s.Status4xx.Load(),
			"5xx": s.Status5xx.Load(),
		},
		"response_times": map[string]interface{}{
			"avg":        s.AvgResponseTime().String(),
			"min":        s.MinResponseTime().String(),
			"max":        s.MaxResponseTime().String(),
			"avg_lyrics": s.AvgLyricsResponseTime().String(),
		},
	}
}
