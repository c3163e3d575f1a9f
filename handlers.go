package main

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"lyrics-resolver-go/circuitbreaker"
	"lyrics-resolver-go/logcolors"
	"lyrics-resolver-go/resolver"
	"lyrics-resolver-go/services/providers"
	"lyrics-resolver-go/services/providers/lrclib"
	"lyrics-resolver-go/services/providers/native"
	"lyrics-resolver-go/stats"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

var errMissingQuery = errors.New("song name or artist name not provided")

// errLookupFailed is the 502 body; the underlying error is only logged
const errLookupFailed = "lyrics lookup failed"

// firstParam returns the first non-empty value among the aliases
func firstParam(q url.Values, names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(q.Get(name)); v != "" {
			return v
		}
	}
	return ""
}

// trackFromQuery builds a descriptor from s|song|title, a|artist, al|album, d|duration and player.
// A missing player falls back to the configured one; an unknown player is kept as PlayerUnknown.
func (a *app) trackFromQuery(q url.Values) (providers.TrackDescriptor, error) {
	track := providers.TrackDescriptor{
		Player: a.defaultPlayer,
		Title:  firstParam(q, "s", "song", "title"),
		Artist: firstParam(q, "a", "artist"),
		Album:  firstParam(q, "al", "album"),
	}

	if track.Title == "" && track.Artist == "" {
		return track, errMissingQuery
	}

	if raw := firstParam(q, "player"); raw != "" {
		player, err := providers.ParsePlayer(raw)
		if err != nil {
			log.Debugf("%s %v", logcolors.LogRequest, err)
		}
		track.Player = player
	}

	if raw := firstParam(q, "d", "duration"); raw != "" {
		duration, err := strconv.ParseFloat(raw, 64)
		if err != nil || duration < 0 {
			return track, errors.New("invalid duration: " + raw)
		}
		track.Duration = duration
	}

	return track, nil
}

func parseForce(q url.Values) bool {
	force, _ := strconv.ParseBool(firstParam(q, "force"))
	return force
}

func cacheStatus(trace resolver.Trace) string {
	switch trace {
	case resolver.TraceCacheHit:
		return "HIT"
	case resolver.TraceJoined:
		return "JOINED"
	case resolver.TraceRejected:
		return "REJECTED"
	default:
		return "MISS"
	}
}

func providerForSource(source providers.Source) string {
	if source == providers.SourceNative {
		return native.ProviderName
	}
	return lrclib.ProviderName
}

// writeOutcome renders an outcome: 200 with lyrics, 404 when none exist, 502 when a step failed
func writeOutcome(resp *APIResponse, outcome providers.Outcome) {
	switch {
	case outcome.IsAvailable():
		p := outcome.Payload
		name := providerForSource(p.Source)
		resp.SetProvider(name).JSON(LyricsResponse{
			Status:   outcome.Status,
			Source:   p.Source,
			Provider: name,
			Timed:    p.Timed,
			Lines:    p.Lines,
			Raw:      p.Raw,
		})
	case outcome.Status == providers.StatusFailed:
		log.Warnf("%s Lookup failed: %v", logcolors.LogWarning, outcome.Err)
		resp.Error(http.StatusBadGateway, ErrorResponse{Status: outcome.Status.String(), Error: errLookupFailed})
	default:
		resp.Error(http.StatusNotFound, ErrorResponse{Status: providers.StatusUnavailable.String(), Error: "no lyrics found"})
	}
}

func (a *app) getLyrics(w http.ResponseWriter, r *http.Request) {
	resp := Respond(w, r)

	track, err := a.trackFromQuery(r.URL.Query())
	if err != nil {
		if errors.Is(err, errMissingQuery) {
			resp.Message(http.StatusUnprocessableEntity, err.Error())
			return
		}
		resp.Message(http.StatusBadRequest, err.Error())
		return
	}

	log.Infof("%s %s - %s (player: %s, duration: %v)", logcolors.LogRequest, track.Artist, track.Title, track.Player, track.Duration)

	outcome, trace := a.coordinator.Resolve(r.Context(), track, parseForce(r.URL.Query()))
	writeOutcome(resp.SetCacheStatus(cacheStatus(trace)), outcome)
}

func (a *app) listProviders(w http.ResponseWriter, r *http.Request) {
	Respond(w, r).JSON(map[string]interface{}{
		"count":           a.registry.Len(),
		"providers":       a.registry.List(),
		"native_fallback": a.conf.FeatureFlags.NativeFallback,
	})
}

// getProviderLyrics runs a single provider without the cache or eligibility checks
func (a *app) getProviderLyrics(w http.ResponseWriter, r *http.Request) {
	resp := Respond(w, r)

	name := mux.Vars(r)["name"]
	provider, err := a.registry.Get(name)
	if errors.Is(err, providers.ErrUnknownProvider) {
		resp.Message(http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		resp.Message(http.StatusInternalServerError, err.Error())
		return
	}

	track, err := a.trackFromQuery(r.URL.Query())
	if err != nil {
		resp.Message(http.StatusBadRequest, err.Error())
		return
	}

	log.Infof("%s Direct %s lookup for %s - %s", logcolors.LogRequest, name, track.Artist, track.Title)
	writeOutcome(resp.SetCacheStatus("BYPASS"), provider.FetchLyrics(r.Context(), track))
}

func (a *app) getCacheDump(w http.ResponseWriter, r *http.Request) {
	s := stats.Get()
	entries := a.coordinator.Entries()

	Respond(w, r).JSON(CacheDumpResponse{
		NumberOfKeys: len(entries),
		InFlight:     a.coordinator.InFlight(),
		Performance: CachePerformance{
			Hits:        s.CacheHits.Load(),
			Joins:       s.Joins.Load(),
			Resolutions: s.Resolutions.Load(),
			HitRate:     s.CacheHitRate(),
		},
		Entries: entries,
	})
}

func (a *app) clearCache(w http.ResponseWriter, r *http.Request) {
	cleared := a.coordinator.Clear()
	Respond(w, r).JSON(map[string]interface{}{
		"message": "Cache cleared",
		"cleared": cleared,
	})
}

func (a *app) invalidateCache(w http.ResponseWriter, r *http.Request) {
	resp := Respond(w, r)

	track, err := a.trackFromQuery(r.URL.Query())
	if err != nil {
		resp.Message(http.StatusBadRequest, err.Error())
		return
	}

	removed := a.coordinator.Invalidate(track)
	log.Infof("%s Invalidate %s: %v", logcolors.LogCacheClear, track.Key(), removed)
	resp.JSON(map[string]interface{}{
		"key":     track.Key(),
		"removed": removed,
	})
}

func (a *app) getStats(w http.ResponseWriter, r *http.Request) {
	snapshot := stats.Get().Snapshot()

	snapshot["cache"] = map[string]interface{}{
		"keys":      a.coordinator.Len(),
		"in_flight": a.coordinator.InFlight(),
	}

	cb := a.breaker.Snapshot()
	snapshot["circuit_breaker"] = map[string]interface{}{
		"state":              cb.State,
		"failures":           cb.Failures,
		"cooldown_remaining": cb.RetryIn.String(),
	}

	Respond(w, r).JSON(snapshot)
}

func (a *app) getHealthStatus(w http.ResponseWriter, r *http.Request) {
	cb := a.breaker.Snapshot()

	health := map[string]interface{}{
		"status":          "ok",
		"circuit_breaker": cb.State,
		"native_bridge":   a.bridge != nil,
		"native_fallback": a.conf.FeatureFlags.NativeFallback,
	}

	if cb.State == circuitbreaker.StateOpen {
		health["status"] = "degraded"
		health["circuit_breaker_retry_in"] = cb.RetryIn.String()
	}

	Respond(w, r).JSON(health)
}

func (a *app) getCircuitBreakerStatus(w http.ResponseWriter, r *http.Request) {
	cb := a.breaker.Snapshot()

	Respond(w, r).JSON(map[string]interface{}{
		"name":             cb.Name,
		"state":            cb.State,
		"failures":         cb.Failures,
		"time_until_retry": cb.RetryIn.String(),
		"config": map[string]interface{}{
			"threshold":    cb.Threshold,
			"cooldown_sec": int(cb.Cooldown.Seconds()),
		},
	})
}

func (a *app) resetCircuitBreaker(w http.ResponseWriter, r *http.Request) {
	a.breaker.Reset()
	Respond(w, r).JSON(map[string]interface{}{
		"message": "Circuit breaker reset to CLOSED state",
	})
}

func helpHandler(w http.ResponseWriter, r *http.Request) {
	Respond(w, r).JSON(map[string]interface{}{
		"help": "Use /lyrics to get the lyrics of the playing track. Example: /lyrics?s=Blinding%20Lights&a=The%20Weeknd&al=After%20Hours&d=200&player=music",
		"endpoints": map[string]string{
			"/lyrics":                  "Coordinated lookup; add force=true to bypass the cache",
			"/providers":               "List providers",
			"/providers/{name}/lyrics": "Run one provider directly",
			"/cache":                   "Cached outcomes (API key)",
			"/cache/clear":             "Drop every cached outcome (API key)",
			"/cache/invalidate":        "Drop one cached outcome (API key)",
			"/stats":                   "Service counters",
			"/health":                  "Health status",
			"/circuit-breaker":         "LRCLIB circuit breaker status",
			"/circuit-breaker/reset":   "Close the circuit breaker (API key)",
		},
	})
}
