package providers

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestPlayer_String(t *testing.T) {
	tests := []struct {
		player   Player
		expected string
	}{
		{PlayerAppleMusic, "music"},
		{PlayerSpotify, "spotify"},
		{PlayerUnknown, "unknown"},
		{Player(42), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.player.String(); got != tt.expected {
				t.Errorf("String() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestPlayer_HasNativeLyrics(t *testing.T) {
	if !PlayerAppleMusic.HasNativeLyrics() {
		t.Error("Apple Music should expose native lyrics")
	}
	if PlayerSpotify.HasNativeLyrics() {
		t.Error("Spotify should not expose native lyrics")
	}
	if PlayerUnknown.HasNativeLyrics() {
		t.Error("Unknown player should not expose native lyrics")
	}
}

func TestParsePlayer(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Player
		wantErr  bool
	}{
		{"Music", "music", PlayerAppleMusic, false},
		{"Bundle id", "com.apple.Music", PlayerAppleMusic, false},
		{"Padded uppercase", "  SPOTIFY ", PlayerSpotify, false},
		{"Empty", "", PlayerUnknown, true},
		{"Unknown", "winamp", PlayerUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePlayer(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePlayer(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("ParsePlayer(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTrackDescriptor_Key(t *testing.T) {
	base := TrackDescriptor{Player: PlayerAppleMusic, Title: "Yesterday", Artist: "The Beatles", Album: "Help!", Duration: 125.4}

	if got := base.Key(); got != `music|"The Beatles"|"Help!"|"Yesterday"|125` {
		t.Errorf("Key() = %q", got)
	}

	t.Run("Durations rounding to the same second share a key", func(t *testing.T) {
		other := base
		other.Duration = 124.6
		if base.Key() != other.Key() {
			t.Errorf("Expected equal keys, got %q and %q", base.Key(), other.Key())
		}
	})

	t.Run("Different player changes the key", func(t *testing.T) {
		other := base
		other.Player = PlayerSpotify
		if base.Key() == other.Key() {
			t.Error("Expected different keys for different players")
		}
	})

	t.Run("Separator inside a field does not collide", func(t *testing.T) {
		a := TrackDescriptor{Player: PlayerAppleMusic, Artist: "A|B", Album: "C", Title: "T"}
		b := TrackDescriptor{Player: PlayerAppleMusic, Artist: "A", Album: "B|C", Title: "T"}
		if a.Key() == b.Key() {
			t.Errorf("Expected different keys, both are %q", a.Key())
		}
	})

	t.Run("Unknown duration rounds to zero", func(t *testing.T) {
		other := base
		other.Duration = 0
		if other.RoundedDuration() != 0 {
			t.Errorf("RoundedDuration() = %d, expected 0", other.RoundedDuration())
		}
	})
}

func TestNewPayload(t *testing.T) {
	t.Run("Empty lines rejected", func(t *testing.T) {
		_, err := NewPayload(SourceRemote, "", nil, false)
		if !errors.Is(err, ErrEmptyPayload) {
			t.Errorf("Expected ErrEmptyPayload, got %v", err)
		}
	})

	t.Run("Timed payload requires start times", func(t *testing.T) {
		lines := []Line{TimedLine("a", 1), {Text: "b"}}
		_, err := NewPayload(SourceRemote, "raw", lines, true)
		if !errors.Is(err, ErrUntimedLine) {
			t.Errorf("Expected ErrUntimedLine, got %v", err)
		}
	})

	t.Run("Timed payload requires ordering", func(t *testing.T) {
		lines := []Line{TimedLine("a", 5), TimedLine("b", 1)}
		_, err := NewPayload(SourceRemote, "raw", lines, true)
		if !errors.Is(err, ErrUnorderedLines) {
			t.Errorf("Expected ErrUnorderedLines, got %v", err)
		}
	})

	t.Run("Equal start times are allowed", func(t *testing.T) {
		lines := []Line{TimedLine("a", 5), TimedLine("b", 5)}
		if _, err := NewPayload(SourceRemote, "raw", lines, true); err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
	})

	t.Run("Plain payload keeps order and copies lines", func(t *testing.T) {
		lines := []Line{{Text: "b"}, {Text: "a"}}
		p, err := NewPayload(SourceNative, "b\na", lines, false)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		lines[0].Text = "mutated"
		if p.Lines[0].Text != "b" {
			t.Errorf("Payload should not share the caller's slice, got %q", p.Lines[0].Text)
		}
		if p.Timed {
			t.Error("Expected untimed payload")
		}
	})
}

func TestOutcome(t *testing.T) {
	p, _ := NewPayload(SourceRemote, "x", []Line{{Text: "x"}}, false)

	tests := []struct {
		name      string
		outcome   Outcome
		available bool
		cacheable bool
	}{
		{"Available", Available(p), true, true},
		{"Unavailable", Unavailable(), false, true},
		{"Failed", Failed(errors.New("boom")), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.outcome.IsAvailable() != tt.available {
				t.Errorf("IsAvailable() = %v, expected %v", tt.outcome.IsAvailable(), tt.available)
			}
			if tt.outcome.Cacheable() != tt.cacheable {
				t.Errorf("Cacheable() = %v, expected %v", tt.outcome.Cacheable(), tt.cacheable)
			}
		})
	}
}

func TestPayload_JSON(t *testing.T) {
	p, err := NewPayload(SourceRemote, "[00:01.00]Hi", []Line{TimedLine("Hi", 1)}, true)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	expected := `{"source":"remote","raw":"[00:01.00]Hi","lines":[{"text":"Hi","startTime":1}],"timed":true}`
	if string(data) != expected {
		t.Errorf("JSON = %s, expected %s", data, expected)
	}
}

func TestProviderError_Error(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		message  string
		err      error
		expected string
	}{
		{"Without wrapped error", "lrclib", "no match", nil, "lrclib: no match"},
		{"With wrapped error", "lrclib", "get failed", errors.New("timeout"), "lrclib: get failed: timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewProviderError(tt.provider, tt.message, tt.err)
			if e.Error() != tt.expected {
				t.Errorf("Error() = %q, expected %q", e.Error(), tt.expected)
			}
		})
	}
}

func TestProviderError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	e := NewProviderError("native", "bridge failed", inner)

	if !errors.Is(e, inner) {
		t.Error("errors.Is should find the wrapped error")
	}
}
