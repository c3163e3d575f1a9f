package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

var conf = mustLoad()

type Config struct {
	Configuration struct {
		Port                string   `envconfig:"PORT" default:"8080"`
		RateLimitPerSecond  int      `envconfig:"RATE_LIMIT_PER_SECOND" default:"5"`
		RateLimitBurstLimit int      `envconfig:"RATE_LIMIT_BURST_LIMIT" default:"10"`
		AllowedOrigins      []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
		APIKey              string   `envconfig:"API_KEY" default:""`
		APIKeyRequired      bool     `envconfig:"API_KEY_REQUIRED" default:"false"`
		LogLevel            string   `envconfig:"LOG_LEVEL" default:"info"`
	}

	// LRCLib configures the remote community lyrics database
	LRCLib struct {
		BaseURL            string  `envconfig:"LRCLIB_BASE_URL" default:"https://lrclib.net/api"`
		RequestTimeoutSecs int     `envconfig:"LRCLIB_REQUEST_TIMEOUT_SECS" default:"4"`
		UserAgent          string  `envconfig:"LRCLIB_USER_AGENT" default:"lyrics-resolver-go/1.0"`
		MatchThreshold     float64 `envconfig:"LRCLIB_MATCH_THRESHOLD" default:"0.90"`
		DurationWindowSecs float64 `envconfig:"LRCLIB_DURATION_WINDOW_SECS" default:"10"`
	}

	// Native configures the player automation bridge
	Native struct {
		Player       string `envconfig:"NATIVE_PLAYER" default:"music"`
		Bridge       string `envconfig:"NATIVE_BRIDGE" default:""` // osascript, mpris, none; empty picks by OS
		MprisService string `envconfig:"NATIVE_MPRIS_SERVICE" default:"org.mpris.MediaPlayer2.Music"`
		TimeoutSecs  int    `envconfig:"NATIVE_TIMEOUT_SECS" default:"3"`
	}

	CircuitBreaker struct {
		Threshold    int `envconfig:"CIRCUIT_BREAKER_THRESHOLD" default:"5"`      // Consecutive failures before circuit opens
		CooldownSecs int `envconfig:"CIRCUIT_BREAKER_COOLDOWN_SECS" default:"60"` // Seconds to wait before retrying
	}

	FeatureFlags struct {
		NativeFallback bool `envconfig:"FF_NATIVE_FALLBACK" default:"true"`
	}
}

// RequestTimeout returns the per-call LRCLIB timeout
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.LRCLib.RequestTimeoutSecs) * time.Second
}

// NativeTimeout returns the upper bound for one native bridge call
func (c Config) NativeTimeout() time.Duration {
	return time.Duration(c.Native.TimeoutSecs) * time.Second
}

// CircuitBreakerCooldown returns how long the breaker stays open
func (c Config) CircuitBreakerCooldown() time.Duration {
	return time.Duration(c.CircuitBreaker.CooldownSecs) * time.Second
}

// load loads the configuration from the environment.
func load() (Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Debugf("No .env file loaded: %v", err)
	}

	cfg := Config{}
	err = envconfig.Process("", &cfg)
	return cfg, err
}

func mustLoad() Config {
	c, err := load()
	if err != nil {
		log.WithError(err).Warnf("Unable to load configuration")
	}

	return c
}

func Get() Config {
	return conf
}
