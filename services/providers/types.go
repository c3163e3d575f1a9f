package providers

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrEmptyPayload is returned when a payload would carry no lines
	ErrEmptyPayload = errors.New("payload has no lines")

	// ErrUntimedLine is returned when a timed payload has a line without a start time
	ErrUntimedLine = errors.New("timed payload has a line without start time")

	// ErrUnorderedLines is returned when timed lines are not sorted by start time
	ErrUnorderedLines = errors.New("timed payload lines are not ordered by start time")
)

// Player identifies the media player a track descriptor came from
type Player int

const (
	PlayerUnknown Player = iota
	PlayerAppleMusic
	PlayerSpotify
)

func (p Player) String() string {
	switch p {
	case PlayerAppleMusic:
		return "music"
	case PlayerSpotify:
		return "spotify"
	case PlayerUnknown:
		return "unknown"
	default:
		return "unknown"
	}
}

// HasNativeLyrics reports whether the player exposes lyrics through its automation bridge
func (p Player) HasNativeLyrics() bool {
	switch p {
	case PlayerAppleMusic:
		return true
	case PlayerSpotify, PlayerUnknown:
		return false
	default:
		return false
	}
}

// ParsePlayer maps a player identity string to a Player
func ParsePlayer(s string) (Player, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "music", "applemusic", "apple_music", "com.apple.music":
		return PlayerAppleMusic, nil
	case "spotify", "com.spotify.client":
		return PlayerSpotify, nil
	default:
		return PlayerUnknown, fmt.Errorf("unknown player: %q", s)
	}
}

// TrackDescriptor describes the track a caller wants lyrics for.
// Duration is in seconds and may be 0 when unknown.
type TrackDescriptor struct {
	Player   Player
	Title    string
	Artist   string
	Album    string
	Duration float64
}

// RoundedDuration returns the duration rounded to the nearest whole second
func (t TrackDescriptor) RoundedDuration() int {
	if t.Duration <= 0 {
		return 0
	}
	return int(math.Round(t.Duration))
}

// Key returns the identity string used for both the outcome cache and the in-flight registry.
// Text fields are quoted so a separator inside a field cannot shift it into the next one.
func (t TrackDescriptor) Key() string {
	return fmt.Sprintf("%s|%q|%q|%q|%d", t.Player, t.Artist, t.Album, t.Title, t.RoundedDuration())
}

// Source tags where a payload came from
type Source int

const (
	SourceNative Source = iota
	SourceRemote
)

func (s Source) String() string {
	switch s {
	case SourceNative:
		return "native"
	case SourceRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// MarshalText lets Source encode as its name in JSON
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Line is a single lyrics line; StartTime is set only for synchronized lyrics
type Line struct {
	Text      string   `json:"text"`
	StartTime *float64 `json:"startTime,omitempty"`
}

// Start returns the line's start time in seconds and whether it has one
func (l Line) Start() (float64, bool) {
	if l.StartTime == nil {
		return 0, false
	}
	return *l.StartTime, true
}

// TimedLine builds a line with a start time
func TimedLine(text string, start float64) Line {
	return Line{Text: text, StartTime: &start}
}

// Payload is a normalized set of lyrics ready for display
type Payload struct {
	Source Source `json:"source"`
	Raw    string `json:"raw"`
	Lines  []Line `json:"lines"`
	Timed  bool   `json:"timed"`
}

// NewPayload validates the line invariants and builds a payload
func NewPayload(source Source, raw string, lines []Line, timed bool) (*Payload, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyPayload
	}

	if timed {
		prev := math.Inf(-1)
		for _, line := range lines {
			start, ok := line.Start()
			if !ok {
				return nil, ErrUntimedLine
			}
			if start < prev {
				return nil, ErrUnorderedLines
			}
			prev = start
		}
	}

	copied := make([]Line, len(lines))
	copy(copied, lines)

	return &Payload{
		Source: source,
		Raw:    raw,
		Lines:  copied,
		Timed:  timed,
	}, nil
}

// Status is the kind of outcome a lookup produced
type Status int

const (
	StatusAvailable Status = iota
	StatusUnavailable
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusAvailable:
		return "available"
	case StatusUnavailable:
		return "unavailable"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText lets Status encode as its name in JSON
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome is the result of a lyrics lookup.
// Unavailable means the lookup completed and nothing exists; Failed means a step errored.
type Outcome struct {
	Status  Status
	Payload *Payload
	Err     error
}

// Available wraps a payload in a successful outcome
func Available(p *Payload) Outcome {
	return Outcome{Status: StatusAvailable, Payload: p}
}

// Unavailable is a clean miss
func Unavailable() Outcome {
	return Outcome{Status: StatusUnavailable}
}

// Failed records a lookup step that could not complete
func Failed(err error) Outcome {
	return Outcome{Status: StatusFailed, Err: err}
}

// IsAvailable reports whether the outcome carries a payload
func (o Outcome) IsAvailable() bool {
	return o.Status == StatusAvailable && o.Payload != nil
}

// Cacheable reports whether the outcome may be stored; failures are always retried
func (o Outcome) Cacheable() bool {
	return o.Status == StatusAvailable || o.Status == StatusUnavailable
}

// ProviderError represents an error from a provider with additional context
type ProviderError struct {
	Provider string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Provider + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Provider + ": " + e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a new ProviderError
func NewProviderError(provider, message string, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Message:  message,
		Err:      err,
	}
}
