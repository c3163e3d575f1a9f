// Package native reads lyrics the media player itself holds for the current track.
package native

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"lyrics-resolver-go/logcolors"
	"lyrics-resolver-go/services/providers"
	"lyrics-resolver-go/services/providers/lrc"

	log "github.com/sirupsen/logrus"
)

const (
	// ProviderName is the identifier for the native provider
	ProviderName = "native"

	DefaultTimeout = 3 * time.Second
)

// Bridge asks the player for the current track's lyrics.
// Implementations return "" on any failure; they never report errors.
type Bridge interface {
	CurrentLyrics(ctx context.Context) string
}

// BridgeFunc adapts a function to the Bridge interface
type BridgeFunc func(ctx context.Context) string

func (f BridgeFunc) CurrentLyrics(ctx context.Context) string {
	return f(ctx)
}

// Bridge kinds accepted by NewBridge
const (
	BridgeAuto      = ""
	BridgeOSAScript = "osascript"
	BridgeMPRIS     = "mpris"
	BridgeNone      = "none"
)

// NewBridge builds the bridge for kind. The empty kind picks osascript on macOS,
// MPRIS on Linux and nothing elsewhere. A nil bridge is valid and yields no lyrics.
func NewBridge(kind, mprisService string) (Bridge, error) {
	if kind == BridgeAuto {
		switch runtime.GOOS {
		case "darwin":
			kind = BridgeOSAScript
		case "linux":
			kind = BridgeMPRIS
		default:
			kind = BridgeNone
		}
	}

	switch strings.ToLower(kind) {
	case BridgeOSAScript:
		return NewScriptBridge(), nil
	case BridgeMPRIS:
		return NewMPRISBridge(mprisService), nil
	case BridgeNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown native bridge %q", kind)
	}
}

// Provider implements providers.Provider over a Bridge
type Provider struct {
	bridge  Bridge
	timeout time.Duration
}

// NewProvider creates a native provider; timeout <= 0 uses DefaultTimeout
func NewProvider(bridge Bridge, timeout time.Duration) *Provider {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Provider{bridge: bridge, timeout: timeout}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return ProviderName
}

// FetchLyrics asks the bridge for lyrics and normalizes them as plain text.
// The bridge never reports errors, so this only yields Available or Unavailable.
func (p *Provider) FetchLyrics(ctx context.Context, track providers.TrackDescriptor) providers.Outcome {
	if p.bridge == nil || !track.Player.HasNativeLyrics() {
		return providers.Unavailable()
	}

	raw := p.currentLyrics(ctx)
	if strings.TrimSpace(raw) == "" {
		log.Debugf("%s No lyrics from player for %s - %s", logcolors.LogNative, track.Artist, track.Title)
		return providers.Unavailable()
	}

	lines := lrc.NormalizePlain(raw)
	payload, err := providers.NewPayload(providers.SourceNative, raw, lines, false)
	if err != nil {
		return providers.Unavailable()
	}

	log.Infof("%s %d lines from player for %s - %s", logcolors.LogNative, len(lines), track.Artist, track.Title)
	return providers.Available(payload)
}

// currentLyrics bounds the bridge call by the timeout even if the bridge ignores ctx
func (p *Provider) currentLyrics(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	result := make(chan string, 1)
	go func() {
		result <- p.bridge.CurrentLyrics(ctx)
	}()

	select {
	case raw := <-result:
		return raw
	case <-ctx.Done():
		log.Warnf("%s Bridge did not answer within %v", logcolors.LogNative, p.timeout)
		return ""
	}
}
