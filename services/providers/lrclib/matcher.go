package lrclib

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"lyrics-resolver-go/logcolors"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultMatchThreshold = 0.90
	DefaultDurationWindow = 10.0 // seconds

	weightTitle    = 0.62
	weightArtist   = 0.28
	weightDuration = 0.08
	bonusSynced    = 0.02

	similarityContained = 0.92
	unknownDurationFit  = 0.5
	tieEpsilon          = 0.001
)

var (
	bracketedRegex = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]`)

	stopWords = map[string]struct{}{
		"feat": {}, "featuring": {}, "ft": {},
		"remix": {}, "mix": {}, "radio": {}, "edit": {},
		"extended": {}, "version": {}, "original": {}, "deluxe": {},
	}
)

// Matcher scores search results against the requested track
type Matcher struct {
	Threshold      float64 // a candidate must score strictly above this
	DurationWindow float64 // seconds; a delta at or beyond this contributes nothing
}

// DefaultMatcher uses the stock threshold and duration window
var DefaultMatcher = Matcher{Threshold: DefaultMatchThreshold, DurationWindow: DefaultDurationWindow}

// ScoredCandidate is a record that passed the threshold.
// DurationDelta is +Inf when either duration is unknown.
type ScoredCandidate struct {
	Record        Record
	Score         float64
	DurationDelta float64
}

// SelectBest picks the best qualifying candidate using DefaultMatcher
func SelectBest(candidates []Record, title, artist string, duration float64) *ScoredCandidate {
	return DefaultMatcher.SelectBest(candidates, title, artist, duration)
}

// SelectBest returns the highest scoring candidate above the threshold, or nil.
// Scores within 0.001 of each other are ranked by the smaller duration delta.
func (m Matcher) SelectBest(candidates []Record, title, artist string, duration float64) *ScoredCandidate {
	ranked := m.Rank(candidates, title, artist, duration)
	if len(ranked) == 0 {
		return nil
	}
	return &ranked[0]
}

// Rank returns every candidate scoring above the threshold, best first.
// Scores within 0.001 of each other are ordered by the smaller duration delta.
func (m Matcher) Rank(candidates []Record, title, artist string, duration float64) []ScoredCandidate {
	wantTitle := normalizeForMatch(title)
	wantArtist := normalizeForMatch(artist)

	var ranked []ScoredCandidate
	for _, c := range candidates {
		if !c.HasLyrics() {
			continue
		}

		gotTitle := normalizeForMatch(c.TrackName)
		gotArtist := normalizeForMatch(c.ArtistName)
		if gotTitle == "" || gotArtist == "" {
			continue
		}

		delta := math.Inf(1)
		if duration > 0 && c.Duration > 0 {
			delta = math.Abs(c.Duration - duration)
		}

		score := weightTitle*similarity(wantTitle, gotTitle) +
			weightArtist*similarity(wantArtist, gotArtist) +
			weightDuration*m.durationFit(delta)
		if c.HasSynced() {
			score += bonusSynced
		}

		if score <= m.Threshold {
			log.Debugf("%s Rejected %q by %q (score: %.3f)", logcolors.LogMatch, c.TrackName, c.ArtistName, score)
			continue
		}

		ranked = append(ranked, ScoredCandidate{Record: c, Score: score, DurationDelta: delta})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if math.Abs(a.Score-b.Score) <= tieEpsilon {
			return a.DurationDelta < b.DurationDelta
		}
		return a.Score > b.Score
	})

	return ranked
}

// durationFit maps a delta onto [0, 1]; an unknown delta scores 0.5
func (m Matcher) durationFit(delta float64) float64 {
	if math.IsInf(delta, 1) {
		return unknownDurationFit
	}
	window := m.DurationWindow
	if window <= 0 {
		window = DefaultDurationWindow
	}
	return math.Max(0, 1-math.Min(delta, window)/window)
}

// normalizeForMatch lowercases, strips bracketed fragments and punctuation, and drops stop words
func normalizeForMatch(s string) string {
	s = bracketedRegex.ReplaceAllString(strings.ToLower(s), " ")

	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)

	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if _, stop := stopWords[w]; !stop {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// similarity compares two normalized strings: exact 1, whole-word containment 0.92, else token Jaccard
func similarity(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0
		}
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	pa, pb := " "+a+" ", " "+b+" "
	if strings.Contains(pa, pb) || strings.Contains(pb, pa) {
		return similarityContained
	}

	return jaccard(strings.Fields(a), strings.Fields(b))
}

// jaccard returns |A∩B| / |A∪B| over token sets, 0 if either set is empty
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	setA := make(map[string]struct{}, len(a))
	for _, t := range a {
		setA[t] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, t := range b {
		setB[t] = struct{}{}
	}

	shared := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			shared++
		}
	}
	union := len(setA) + len(setB) - shared
	return float64(shared) / float64(union)
}
