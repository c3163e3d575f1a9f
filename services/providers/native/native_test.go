package native

import (
	"context"
	"runtime"
	"testing"
	"time"

	"lyrics-resolver-go/services/providers"

	"github.com/godbus/dbus/v5"
)

var musicTrack = providers.TrackDescriptor{Player: providers.PlayerAppleMusic, Title: "Hello", Artist: "Adele"}

func staticBridge(raw string) Bridge {
	return BridgeFunc(func(ctx context.Context) string { return raw })
}

func TestProvider_FetchLyrics(t *testing.T) {
	tests := []struct {
		name      string
		bridge    Bridge
		track     providers.TrackDescriptor
		status    providers.Status
		lineCount int
	}{
		{"Plain lyrics", staticBridge("Hello, it's me\r\n\r\nI was wondering"), musicTrack, providers.StatusAvailable, 2},
		{"Blank result", staticBridge("  \n\t"), musicTrack, providers.StatusUnavailable, 0},
		{"Empty result", staticBridge(""), musicTrack, providers.StatusUnavailable, 0},
		{"Nil bridge", nil, musicTrack, providers.StatusUnavailable, 0},
		{"Player without native lyrics", staticBridge("text"), providers.TrackDescriptor{Player: providers.PlayerSpotify, Title: "x"}, providers.StatusUnavailable, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := NewProvider(tt.bridge, time.Second).FetchLyrics(context.Background(), tt.track)
			if outcome.Status != tt.status {
				t.Fatalf("Status = %s, expected %s", outcome.Status, tt.status)
			}
			if tt.status != providers.StatusAvailable {
				return
			}

			p := outcome.Payload
			if p.Source != providers.SourceNative || p.Timed {
				t.Errorf("Expected untimed native payload, got %+v", p)
			}
			if len(p.Lines) != tt.lineCount {
				t.Errorf("Expected %d lines, got %d", tt.lineCount, len(p.Lines))
			}
		})
	}
}

func TestProvider_TimestampsStayPlain(t *testing.T) {
	outcome := NewProvider(staticBridge("[00:01.00]Hello"), time.Second).FetchLyrics(context.Background(), musicTrack)
	if !outcome.IsAvailable() {
		t.Fatalf("Expected available, got %s", outcome.Status)
	}
	if outcome.Payload.Timed || outcome.Payload.Lines[0].Text != "[00:01.00]Hello" {
		t.Errorf("Native text should not be parsed as LRC, got %+v", outcome.Payload)
	}
}

func TestProvider_Timeout(t *testing.T) {
	stuck := BridgeFunc(func(ctx context.Context) string {
		time.Sleep(300 * time.Millisecond)
		return "too late"
	})

	start := time.Now()
	outcome := NewProvider(stuck, 30*time.Millisecond).FetchLyrics(context.Background(), musicTrack)
	if outcome.Status != providers.StatusUnavailable {
		t.Errorf("Expected unavailable after timeout, got %s", outcome.Status)
	}
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Errorf("Timeout not enforced, took %v", elapsed)
	}
}

func TestProvider_Defaults(t *testing.T) {
	p := NewProvider(nil, 0)
	if p.timeout != DefaultTimeout {
		t.Errorf("Expected default timeout, got %v", p.timeout)
	}
	if p.Name() != "native" {
		t.Errorf("Expected name native, got %q", p.Name())
	}
}

func TestNewBridge(t *testing.T) {
	t.Run("osascript", func(t *testing.T) {
		b, err := NewBridge("osascript", "")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if _, ok := b.(*ScriptBridge); !ok {
			t.Errorf("Expected *ScriptBridge, got %T", b)
		}
	})

	t.Run("mpris", func(t *testing.T) {
		b, err := NewBridge("MPRIS", "org.mpris.MediaPlayer2.spotify")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		mb, ok := b.(*MPRISBridge)
		if !ok {
			t.Fatalf("Expected *MPRISBridge, got %T", b)
		}
		if mb.service != "org.mpris.MediaPlayer2.spotify" {
			t.Errorf("Unexpected service %q", mb.service)
		}
	})

	t.Run("none", func(t *testing.T) {
		b, err := NewBridge("none", "")
		if err != nil || b != nil {
			t.Errorf("Expected nil bridge, got %v (%v)", b, err)
		}
	})

	t.Run("auto", func(t *testing.T) {
		b, err := NewBridge("", "")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		switch runtime.GOOS {
		case "darwin":
			if _, ok := b.(*ScriptBridge); !ok {
				t.Errorf("Expected *ScriptBridge on darwin, got %T", b)
			}
		case "linux":
			if _, ok := b.(*MPRISBridge); !ok {
				t.Errorf("Expected *MPRISBridge on linux, got %T", b)
			}
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if _, err := NewBridge("winamp", ""); err == nil {
			t.Error("Expected an error for an unknown bridge")
		}
	})
}

func TestScriptBridge(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	t.Run("Stdout becomes lyrics", func(t *testing.T) {
		b := &ScriptBridge{Command: "sh", Args: []string{"-c", "printf 'line one\\nline two\\n'"}}
		if got := b.CurrentLyrics(context.Background()); got != "line one\nline two" {
			t.Errorf("CurrentLyrics() = %q", got)
		}
	})

	t.Run("Failure yields empty", func(t *testing.T) {
		b := &ScriptBridge{Command: "sh", Args: []string{"-c", "echo partial; exit 3"}}
		if got := b.CurrentLyrics(context.Background()); got != "" {
			t.Errorf("Expected empty result, got %q", got)
		}
	})

	t.Run("Missing binary yields empty", func(t *testing.T) {
		b := &ScriptBridge{Command: "definitely-not-a-real-binary"}
		if got := b.CurrentLyrics(context.Background()); got != "" {
			t.Errorf("Expected empty result, got %q", got)
		}
	})
}

func TestLyricsFromMetadata(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]dbus.Variant
		expected string
	}{
		{"String", map[string]dbus.Variant{"xesam:asText": dbus.MakeVariant("la la")}, "la la"},
		{"String list", map[string]dbus.Variant{"xesam:asText": dbus.MakeVariant([]string{"a", "b"})}, "a\nb"},
		{"Missing", map[string]dbus.Variant{"xesam:title": dbus.MakeVariant("x")}, ""},
		{"Wrong type", map[string]dbus.Variant{"xesam:asText": dbus.MakeVariant(int32(4))}, ""},
		{"Nil map", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lyricsFromMetadata(tt.metadata); got != tt.expected {
				t.Errorf("lyricsFromMetadata() = %q, expected %q", got, tt.expected)
			}
		})
	}
}
