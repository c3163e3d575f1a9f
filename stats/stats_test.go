package stats

import (
	"sync"
	"testing"
	"time"
)

func TestRecordRequest(t *testing.T) {
	s := New()
	endpoints := []string{
		"/lyrics", "/lyrics", "/providers", "/providers/lrclib/lyrics",
		"/cache", "/cache/invalidate", "/health", "/providersx",
	}
	for _, endpoint := range endpoints {
		s.RecordRequest(endpoint)
	}

	if s.TotalRequests.Load() != 8 {
		t.Errorf("Expected 8 total requests, got %d", s.TotalRequests.Load())
	}
	if s.ProviderRequests.Load() != 2 {
		t.Errorf("Expected 2 provider requests, got %d", s.ProviderRequests.Load())
	}
	if s.CacheRequests.Load() != 2 {
		t.Errorf("Expected 2 cache requests, got %d", s.CacheRequests.Load())
	}
	if s.LyricsRequests.Load() != 2 {
		t.Errorf("Expected 2 lyrics requests, got %d", s.LyricsRequests.Load())
	}
	if s.OtherRequests.Load() != 2 {
		t.Errorf("Expected 2 other requests, got %d", s.OtherRequests.Load())
	}
}

func TestRecordTraceAndHitRate(t *testing.T) {
	s := New()
	if s.CacheHitRate() != 0 {
		t.Errorf("Expected 0 hit rate with no traffic, got %v", s.CacheHitRate())
	}

	s.RecordTrace("hit")
	s.RecordTrace("joined")
	s.RecordTrace("resolved")
	s.RecordTrace("resolved")
	s.RecordTrace("rejected")

	if s.Rejections.Load() != 1 {
		t.Errorf("Expected 1 rejection, got %d", s.Rejections.Load())
	}
	if rate := s.CacheHitRate(); rate != 50 {
		t.Errorf("Expected 50%% hit rate, got %v", rate)
	}
}

func TestRecordOutcome(t *testing.T) {
	s := New()
	s.RecordOutcome("available", "remote")
	s.RecordOutcome("available", "native")
	s.RecordOutcome("unavailable", "")
	s.RecordOutcome("failed", "")
	s.RecordNativeFallback()

	tests := []struct {
		name     string
		got      int64
		expected int64
	}{
		{"available", s.OutcomeAvailable.Load(), 2},
		{"remote", s.RemoteHits.Load(), 1},
		{"native", s.NativeHits.Load(), 1},
		{"unavailable", s.OutcomeUnavailable.Load(), 1},
		{"failed", s.OutcomeFailed.Load(), 1},
		{"fallbacks", s.NativeFallbacks.Load(), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.expected {
			t.Errorf("%s = %d, expected %d", tt.name, tt.got, tt.expected)
		}
	}
}

func TestRecordStatusCode(t *testing.T) {
	s := New()
	for _, code := range []int{200, 204, 302, 404, 429, 502} {
		s.RecordStatusCode(code)
	}

	if s.Status2xx.Load() != 2 || s.Status4xx.Load() != 2 || s.Status5xx.Load() != 1 {
		t.Errorf("Unexpected status counts: 2xx=%d 4xx=%d 5xx=%d",
			s.Status2xx.Load(), s.Status4xx.Load(), s.Status5xx.Load())
	}
}

func TestResponseTimes(t *testing.T) {
	s := New()
	if s.MinResponseTime() != 0 || s.AvgResponseTime() != 0 {
		t.Error("Expected zero response times before any response")
	}

	s.RecordResponseTime(10*time.Millisecond, "/lyrics")
	s.RecordResponseTime(30*time.Millisecond, "/stats")

	if s.MinResponseTime() != 10*time.Millisecond {
		t.Errorf("Min = %v", s.MinResponseTime())
	}
	if s.MaxResponseTime() != 30*time.Millisecond {
		t.Errorf("Max = %v", s.MaxResponseTime())
	}
	if s.AvgResponseTime() != 20*time.Millisecond {
		t.Errorf("Avg = %v", s.AvgResponseTime())
	}
	if s.AvgLyricsResponseTime() != 10*time.Millisecond {
		t.Errorf("Avg lyrics = %v", s.AvgLyricsResponseTime())
	}
}

func TestConcurrentRecording(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.RecordRequest("/lyrics")
				s.RecordResponseTime(time.Millisecond, "/lyrics")
			}
		}()
	}
	wg.Wait()

	if s.LyricsRequests.Load() != 2000 {
		t.Errorf("Expected 2000 lyrics requests, got %d", s.LyricsRequests.Load())
	}
}

func TestSnapshot(t *testing.T) {
	s := New()
	s.RecordTrace("hit")

	snap := s.Snapshot()
	for _, section := range []string{"server", "requests", "resolver", "outcomes", "rate_limiting", "responses", "response_times"} {
		if _, ok := snap[section]; !ok {
			t.Errorf("Snapshot missing section %q", section)
		}
	}

	resolver := snap["resolver"].(map[string]interface{})
	if resolver["cache_hits"].(int64) != 1 {
		t.Errorf("Expected 1 cache hit in snapshot, got %v", resolver["cache_hits"])
	}
}

func TestGet_Singleton(t *testing.T) {
	if Get() != Get() {
		t.Error("Get should return the same instance")
	}
}
