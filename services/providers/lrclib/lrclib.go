// Package lrclib resolves lyrics from the LRCLIB community database.
//
// A lookup first tries /get with exact metadata for each artist variant, then falls back to
// /search attempts whose results are scored by the Matcher.
package lrclib

import (
	"context"
	"errors"
	"strings"

	"lyrics-resolver-go/logcolors"
	"lyrics-resolver-go/services/providers"
	"lyrics-resolver-go/services/providers/lrc"

	log "github.com/sirupsen/logrus"
)

// ProviderName is the identifier for the LRCLIB provider
const ProviderName = "lrclib"

// Provider implements providers.Provider on top of the LRCLIB API
type Provider struct {
	client  *Client
	matcher Matcher
}

// NewProvider creates a provider; a zero matcher falls back to DefaultMatcher
func NewProvider(client *Client, matcher Matcher) *Provider {
	if matcher.Threshold <= 0 {
		matcher.Threshold = DefaultMatchThreshold
	}
	if matcher.DurationWindow <= 0 {
		matcher.DurationWindow = DefaultDurationWindow
	}
	return &Provider{client: client, matcher: matcher}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return ProviderName
}

// Client returns the underlying API client
func (p *Provider) Client() *Client {
	return p.client
}

// FetchLyrics runs the get stage and, when it yields nothing usable, the search stage.
// Errors from individual calls never stop the remaining attempts; they only turn a miss into Failed.
func (p *Provider) FetchLyrics(ctx context.Context, track providers.TrackDescriptor) providers.Outcome {
	title := strings.TrimSpace(track.Title)
	if title == "" {
		return providers.Unavailable()
	}

	variants := ArtistVariants(track.Artist)
	var errs []error

	for _, params := range planGet(title, strings.TrimSpace(track.Album), track.RoundedDuration(), variants) {
		record, err := p.client.Get(ctx, params)
		if errors.Is(err, ErrNotFound) {
			log.Debugf("%s No exact match for %s - %s", logcolors.LogGet, params.TrackName, params.ArtistName)
			continue
		}
		if err != nil {
			log.Warnf("%s %s - %s: %v", logcolors.LogGet, params.TrackName, params.ArtistName, err)
			errs = append(errs, providers.NewProviderError(ProviderName, "get "+params.ArtistName, err))
			continue
		}

		if payload := payloadFromRecord(*record); payload != nil {
			log.Infof("%s Exact match for %s - %s (timed: %v)", logcolors.LogSuccess, title, params.ArtistName, payload.Timed)
			return providers.Available(payload)
		}
	}

	for _, attempt := range planSearch(title, variants) {
		records, err := p.client.Search(ctx, attempt.query)
		if err != nil {
			log.Warnf("%s %s: %v", logcolors.LogSearch, attempt.query, err)
			errs = append(errs, providers.NewProviderError(ProviderName, "search "+attempt.query.String(), err))
			continue
		}

		ranked := p.matcher.Rank(records, title, attempt.artist, track.Duration)
		if len(ranked) == 0 {
			log.Debugf("%s No qualifying candidate among %d results for %s", logcolors.LogMatch, len(records), attempt.query)
			continue
		}

		// A qualifying candidate whose lyrics cannot be parsed counts as having none
		for _, candidate := range ranked {
			payload := payloadFromRecord(candidate.Record)
			if payload == nil {
				log.Debugf("%s Skipping %q by %q, lyrics unusable", logcolors.LogMatch, candidate.Record.TrackName, candidate.Record.ArtistName)
				continue
			}
			log.Infof("%s %s - %s (score: %.3f, timed: %v)",
				logcolors.LogMatch, candidate.Record.TrackName, candidate.Record.ArtistName, candidate.Score, payload.Timed)
			return providers.Available(payload)
		}
	}

	if len(errs) > 0 {
		return providers.Failed(errors.Join(errs...))
	}
	return providers.Unavailable()
}

// payloadFromRecord prefers parseable synced lyrics and falls back to plain; nil when neither is usable
func payloadFromRecord(r Record) *providers.Payload {
	if r.HasSynced() {
		if lines := lrc.ParseSynced(r.SyncedLyrics); len(lines) > 0 {
			if payload, err := providers.NewPayload(providers.SourceRemote, r.SyncedLyrics, lines, true); err == nil {
				return payload
			}
		}
	}

	if r.HasPlain() {
		if lines := lrc.NormalizePlain(r.PlainLyrics); len(lines) > 0 {
			if payload, err := providers.NewPayload(providers.SourceRemote, r.PlainLyrics, lines, false); err == nil {
				return payload
			}
		}
	}

	return nil
}
