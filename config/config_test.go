package config

import (
	"os"
	"testing"
	"time"
)

var configEnvVars = []string{
	"PORT",
	"RATE_LIMIT_PER_SECOND",
	"RATE_LIMIT_BURST_LIMIT",
	"ALLOWED_ORIGINS",
	"API_KEY",
	"API_KEY_REQUIRED",
	"LRCLIB_BASE_URL",
	"LRCLIB_REQUEST_TIMEOUT_SECS",
	"LRCLIB_USER_AGENT",
	"LRCLIB_MATCH_THRESHOLD",
	"LRCLIB_DURATION_WINDOW_SECS",
	"NATIVE_PLAYER",
	"NATIVE_BRIDGE",
	"NATIVE_TIMEOUT_SECS",
	"CIRCUIT_BREAKER_THRESHOLD",
	"CIRCUIT_BREAKER_COOLDOWN_SECS",
	"FF_NATIVE_FALLBACK",
}

// clearEnv unsets every config variable and restores the originals on cleanup
func clearEnv(t *testing.T) {
	t.Helper()

	originalValues := make(map[string]string)
	for _, key := range configEnvVars {
		if value, ok := os.LookupEnv(key); ok {
			originalValues[key] = value
		}
		os.Unsetenv(key)
	}
	t.Cleanup(func() {
		for _, key := range configEnvVars {
			os.Unsetenv(key)
		}
		for key, value := range originalValues {
			os.Setenv(key, value)
		}
	})
}

func TestConfigDefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"Port default", cfg.Configuration.Port, "8080"},
		{"RateLimitPerSecond default", cfg.Configuration.RateLimitPerSecond, 5},
		{"RateLimitBurstLimit default", cfg.Configuration.RateLimitBurstLimit, 10},
		{"APIKeyRequired default", cfg.Configuration.APIKeyRequired, false},
		{"LRCLib BaseURL default", cfg.LRCLib.BaseURL, "https://lrclib.net/api"},
		{"LRCLib RequestTimeoutSecs default", cfg.LRCLib.RequestTimeoutSecs, 4},
		{"LRCLib MatchThreshold default", cfg.LRCLib.MatchThreshold, 0.90},
		{"LRCLib DurationWindowSecs default", cfg.LRCLib.DurationWindowSecs, 10.0},
		{"Native Player default", cfg.Native.Player, "music"},
		{"Native Bridge default", cfg.Native.Bridge, ""},
		{"Native TimeoutSecs default", cfg.Native.TimeoutSecs, 3},
		{"CircuitBreaker Threshold default", cfg.CircuitBreaker.Threshold, 5},
		{"CircuitBreaker CooldownSecs default", cfg.CircuitBreaker.CooldownSecs, 60},
		{"NativeFallback default", cfg.FeatureFlags.NativeFallback, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, tt.got)
			}
		})
	}

	if len(cfg.Configuration.AllowedOrigins) != 1 || cfg.Configuration.AllowedOrigins[0] != "http://localhost:3000" {
		t.Errorf("Expected default allowed origins, got %v", cfg.Configuration.AllowedOrigins)
	}
}

func TestConfigEnvironmentOverrides(t *testing.T) {
	clearEnv(t)

	os.Setenv("PORT", "9090")
	os.Setenv("LRCLIB_BASE_URL", "http://localhost:1234/api")
	os.Setenv("LRCLIB_REQUEST_TIMEOUT_SECS", "2")
	os.Setenv("LRCLIB_MATCH_THRESHOLD", "0.75")
	os.Setenv("NATIVE_BRIDGE", "mpris")
	os.Setenv("CIRCUIT_BREAKER_THRESHOLD", "9")
	os.Setenv("FF_NATIVE_FALLBACK", "false")
	os.Setenv("ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg, err := load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"Port override", cfg.Configuration.Port, "9090"},
		{"LRCLib BaseURL override", cfg.LRCLib.BaseURL, "http://localhost:1234/api"},
		{"LRCLib RequestTimeoutSecs override", cfg.LRCLib.RequestTimeoutSecs, 2},
		{"LRCLib MatchThreshold override", cfg.LRCLib.MatchThreshold, 0.75},
		{"Native Bridge override", cfg.Native.Bridge, "mpris"},
		{"CircuitBreaker Threshold override", cfg.CircuitBreaker.Threshold, 9},
		{"NativeFallback override", cfg.FeatureFlags.NativeFallback, false},
		{"AllowedOrigins count", len(cfg.Configuration.AllowedOrigins), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, tt.got)
			}
		})
	}
}

func TestConfigDurations(t *testing.T) {
	clearEnv(t)

	cfg, err := load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if got := cfg.RequestTimeout(); got != 4*time.Second {
		t.Errorf("RequestTimeout() = %v, expected 4s", got)
	}
	if got := cfg.NativeTimeout(); got != 3*time.Second {
		t.Errorf("NativeTimeout() = %v, expected 3s", got)
	}
	if got := cfg.CircuitBreakerCooldown(); got != time.Minute {
		t.Errorf("CircuitBreakerCooldown() = %v, expected 1m", got)
	}
}

func TestInvalidValueReturnsError(t *testing.T) {
	clearEnv(t)
	os.Setenv("LRCLIB_REQUEST_TIMEOUT_SECS", "not-a-number")

	if _, err := load(); err == nil {
		t.Error("Expected error for non-numeric timeout")
	}
}

func TestGet(t *testing.T) {
	cfg := Get()

	// Get returns the package-level configuration loaded at init
	if cfg.LRCLib.BaseURL == "" {
		t.Error("Expected LRCLib BaseURL to be populated")
	}
}

func TestMustLoad(t *testing.T) {
	clearEnv(t)

	cfg := mustLoad()
	if cfg.Configuration.Port != "8080" {
		t.Errorf("Expected default port 8080, got %q", cfg.Configuration.Port)
	}
}
