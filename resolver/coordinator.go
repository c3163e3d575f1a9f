// Package resolver answers "lyrics for this track" with caching and single-flight deduplication.
//
// A resolution asks the remote provider first and falls back to the player's own lyrics.
// Available and Unavailable outcomes are kept for the life of the process; Failed outcomes
// are never kept so the next request retries.
package resolver

import (
	"context"
	"errors"
	"strings"
	"sync"

	"lyrics-resolver-go/cache"
	"lyrics-resolver-go/logcolors"
	"lyrics-resolver-go/services/providers"
	"lyrics-resolver-go/stats"

	log "github.com/sirupsen/logrus"
)

// Trace reports how Resolve produced its outcome
type Trace int

const (
	TraceRejected Trace = iota // request not eligible, nothing looked up
	TraceCacheHit              // served from the outcome cache
	TraceJoined                // waited on another caller's resolution
	TraceResolved              // this call ran the resolution
)

func (t Trace) String() string {
	switch t {
	case TraceRejected:
		return "rejected"
	case TraceCacheHit:
		return "hit"
	case TraceJoined:
		return "joined"
	case TraceResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// call is one in-flight resolution; outcome is written before done is closed
type call struct {
	done       chan struct{}
	outcome    providers.Outcome
	superseded bool
}

// Config wires the coordinator's providers; Native may be nil
type Config struct {
	Remote         providers.Provider
	Native         providers.Provider
	NativeFallback bool
}

// Coordinator owns the outcome cache and the in-flight registry.
// Both maps are guarded by mu; provider calls always run with mu released.
type Coordinator struct {
	remote         providers.Provider
	native         providers.Provider
	nativeFallback bool

	mu       sync.Mutex
	outcomes *cache.Memory[providers.Outcome]
	inFlight map[string]*call
}

// New creates a coordinator
func New(cfg Config) *Coordinator {
	return &Coordinator{
		remote:         cfg.Remote,
		native:         cfg.Native,
		nativeFallback: cfg.NativeFallback && cfg.Native != nil,
		outcomes:       cache.NewMemory[providers.Outcome](),
		inFlight:       make(map[string]*call),
	}
}

// Fetch returns lyrics for the track. See Resolve.
func (c *Coordinator) Fetch(ctx context.Context, track providers.TrackDescriptor, forceRefresh bool) providers.Outcome {
	outcome, _ := c.Resolve(ctx, track, forceRefresh)
	return outcome
}

// Resolve returns lyrics for the track along with how they were obtained.
//
// Without forceRefresh a cached outcome is returned without I/O, and a resolution already in
// flight for the same key is joined rather than repeated. With forceRefresh a new resolution
// always runs and takes over the key's in-flight slot.
//
// The resolution itself ignores ctx cancellation so joiners are not failed by a departing
// caller; each provider call carries its own timeout. A joiner whose ctx ends before the
// resolution finishes gets Failed(ctx.Err()).
func (c *Coordinator) Resolve(ctx context.Context, track providers.TrackDescriptor, forceRefresh bool) (providers.Outcome, Trace) {
	if !track.Player.HasNativeLyrics() || strings.TrimSpace(track.Title) == "" {
		stats.Get().RecordTrace(TraceRejected.String())
		return providers.Unavailable(), TraceRejected
	}

	key := track.Key()

	c.mu.Lock()
	if !forceRefresh {
		if outcome, ok := c.outcomes.Get(key); ok {
			c.mu.Unlock()
			stats.Get().RecordTrace(TraceCacheHit.String())
			log.Debugf("%s Cached %s for %s", logcolors.LogCacheLyrics, outcome.Status, key)
			return outcome, TraceCacheHit
		}

		if existing, ok := c.inFlight[key]; ok {
			c.mu.Unlock()
			stats.Get().RecordTrace(TraceJoined.String())
			log.Infof("%s Joining in-flight resolution for %s", logcolors.LogInFlight, key)
			return c.wait(ctx, existing), TraceJoined
		}
	}

	own := &call{done: make(chan struct{})}
	if previous, ok := c.inFlight[key]; ok {
		previous.superseded = true
	}
	c.inFlight[key] = own
	c.mu.Unlock()

	stats.Get().RecordTrace(TraceResolved.String())
	log.Infof("%s Resolving %s - %s (force: %v)", logcolors.LogCoordinator, track.Artist, track.Title, forceRefresh)

	outcome := c.resolve(context.WithoutCancel(ctx), track)

	c.mu.Lock()
	if outcome.Cacheable() && !own.superseded {
		c.outcomes.Set(key, outcome)
		if outcome.IsAvailable() {
			log.Debugf("%s Stored lyrics for %s", logcolors.LogCacheLyrics, key)
		} else {
			log.Debugf("%s Stored miss for %s", logcolors.LogCacheNegative, key)
		}
	}
	if c.inFlight[key] == own {
		delete(c.inFlight, key)
	}
	own.outcome = outcome
	close(own.done)
	c.mu.Unlock()

	return outcome, TraceResolved
}

func (c *Coordinator) wait(ctx context.Context, cl *call) providers.Outcome {
	select {
	case <-cl.done:
		return cl.outcome
	case <-ctx.Done():
		return providers.Failed(ctx.Err())
	}
}

// resolve runs remote first and the native provider second; calls are sequential
func (c *Coordinator) resolve(ctx context.Context, track providers.TrackDescriptor) providers.Outcome {
	remote := c.remote.FetchLyrics(ctx, track)
	if remote.IsAvailable() {
		stats.Get().RecordOutcome(remote.Status.String(), remote.Payload.Source.String())
		return remote
	}

	native := providers.Unavailable()
	if c.nativeFallback {
		stats.Get().RecordNativeFallback()
		log.Infof("%s Remote %s for %s - %s, asking the player", logcolors.LogFallback, remote.Status, track.Artist, track.Title)

		native = c.native.FetchLyrics(ctx, track)
		if native.IsAvailable() {
			stats.Get().RecordOutcome(native.Status.String(), native.Payload.Source.String())
			return native
		}
	}

	var outcome providers.Outcome
	if remote.Status == providers.StatusFailed || native.Status == providers.StatusFailed {
		outcome = providers.Failed(errors.Join(remote.Err, native.Err))
		log.Warnf("%s Resolution failed for %s - %s: %v", logcolors.LogWarning, track.Artist, track.Title, outcome.Err)
	} else {
		outcome = providers.Unavailable()
		log.Infof("%s No lyrics for %s - %s", logcolors.LogCoordinator, track.Artist, track.Title)
	}

	stats.Get().RecordOutcome(outcome.Status.String(), "")
	return outcome
}

// Invalidate drops the cached outcome for the track and reports whether one existed.
// A resolution in flight is not affected.
func (c *Coordinator) Invalidate(track providers.TrackDescriptor) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcomes.Delete(track.Key())
}

// Clear drops every cached outcome and returns how many were dropped
func (c *Coordinator) Clear() int {
	c.mu.Lock()
	n := c.outcomes.Clear()
	c.mu.Unlock()

	log.Infof("%s Dropped %d cached outcomes", logcolors.LogCacheClear, n)
	return n
}

// Len returns the number of cached outcomes
func (c *Coordinator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcomes.Len()
}

// InFlight returns the number of resolutions currently running
func (c *Coordinator) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inFlight)
}

// Entries returns the status of every cached outcome by key
func (c *Coordinator) Entries() map[string]providers.Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := make(map[string]providers.Status, c.outcomes.Len())
	c.outcomes.Range(func(key string, outcome providers.Outcome) bool {
		entries[key] = outcome.Status
		return true
	})
	return entries
}
