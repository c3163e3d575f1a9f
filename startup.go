package main

import (
	"io"
	"net/http"
	"strings"

	"lyrics-resolver-go/circuitbreaker"
	"lyrics-resolver-go/config"
	"lyrics-resolver-go/logcolors"
	"lyrics-resolver-go/middleware"
	"lyrics-resolver-go/resolver"
	"lyrics-resolver-go/services/providers"
	"lyrics-resolver-go/services/providers/lrclib"
	"lyrics-resolver-go/services/providers/native"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Paths that always need the API key when one is configured
var protectedPaths = []string{"/cache*", "/circuit-breaker/reset"}

// Paths that stay open even when API_KEY_REQUIRED is set
var publicPaths = []string{"/", "/health"}

// app holds everything the handlers need
type app struct {
	conf          config.Config
	coordinator   *resolver.Coordinator
	registry      *providers.Registry
	breaker       *circuitbreaker.CircuitBreaker
	bridge        native.Bridge
	defaultPlayer providers.Player
}

// newApp wires the LRCLIB client, both providers and the coordinator. bridge may be nil.
func newApp(conf config.Config, bridge native.Bridge) *app {
	breaker := circuitbreaker.New(circuitbreaker.Config{
		Name:      lrclib.ProviderName,
		Threshold: conf.CircuitBreaker.Threshold,
		Cooldown:  conf.CircuitBreakerCooldown(),
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			log.Warnf("%s %s -> %s", logcolors.CircuitBreakerPrefix(name), from, to)
		},
	})

	client := lrclib.NewClient(lrclib.ClientConfig{
		BaseURL:   conf.LRCLib.BaseURL,
		Timeout:   conf.RequestTimeout(),
		UserAgent: conf.LRCLib.UserAgent,
		Breaker:   breaker,
	})
	remote := lrclib.NewProvider(client, lrclib.Matcher{
		Threshold:      conf.LRCLib.MatchThreshold,
		DurationWindow: conf.LRCLib.DurationWindowSecs,
	})
	nativeProvider := native.NewProvider(bridge, conf.NativeTimeout())

	registry := providers.NewRegistry()
	registry.Register(remote)
	registry.Register(nativeProvider)

	defaultPlayer, err := providers.ParsePlayer(conf.Native.Player)
	if err != nil {
		log.Warnf("%s %v, requests without a player will be rejected", logcolors.LogConfig, err)
	}

	coordinator := resolver.New(resolver.Config{
		Remote:         remote,
		Native:         nativeProvider,
		NativeFallback: conf.FeatureFlags.NativeFallback,
	})

	return &app{
		conf:          conf,
		coordinator:   coordinator,
		registry:      registry,
		breaker:       breaker,
		bridge:        bridge,
		defaultPlayer: defaultPlayer,
	}
}

// setupBridge builds the native bridge from config; a bad kind disables native lyrics
func setupBridge(conf config.Config) native.Bridge {
	bridge, err := native.NewBridge(conf.Native.Bridge, conf.Native.MprisService)
	if err != nil {
		log.Warnf("%s %v, native lyrics disabled", logcolors.LogConfig, err)
		return nil
	}
	if bridge == nil {
		log.Infof("%s Native lyrics bridge disabled", logcolors.LogNative)
		return nil
	}
	log.Infof("%s Using %T for native lyrics", logcolors.LogNative, bridge)
	return bridge
}

// handler builds the router and wraps it: logging, CORS, API key, rate limit
func (a *app) handler() http.Handler {
	router := mux.NewRouter()
	setupRoutes(router, a)

	limit := rate.Limit(a.conf.Configuration.RateLimitPerSecond)
	if limit <= 0 {
		limit = rate.Inf
	}
	limiter := middleware.NewIPRateLimiter(limit, a.conf.Configuration.RateLimitBurstLimit)

	c := cors.New(cors.Options{
		AllowedOrigins:   a.conf.Configuration.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type", "X-API-Key"},
		ExposedHeaders:   []string{"X-Cache-Status", "X-Provider", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
	})

	var h http.Handler = router
	h = middleware.RateLimitMiddleware(limiter, a.conf.Configuration.APIKey)(h)
	h = middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		Key:            a.conf.Configuration.APIKey,
		Required:       a.conf.Configuration.APIKeyRequired,
		PublicPaths:    publicPaths,
		ProtectedPaths: protectedPaths,
	})(h)
	h = c.Handler(h)
	return middleware.LoggingMiddleware(h)
}

// close releases the bridge's connection if it holds one
func (a *app) close() {
	if closer, ok := a.bridge.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			log.Warnf("%s Closing bridge: %v", logcolors.LogNative, err)
		}
	}
}

func parseLogLevel(level string) log.Level {
	parsed, err := log.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return log.InfoLevel
	}
	return parsed
}
