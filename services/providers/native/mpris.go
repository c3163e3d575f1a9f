package native

import (
	"context"
	"strings"
	"sync"

	"lyrics-resolver-go/logcolors"

	"github.com/godbus/dbus/v5"
	log "github.com/sirupsen/logrus"
)

const (
	mprisPath        = dbus.ObjectPath("/org/mpris/MediaPlayer2")
	mprisPlayerIface = "org.mpris.MediaPlayer2.Player"
	propertiesGet    = "org.freedesktop.DBus.Properties.Get"

	// MPRIS players that embed lyrics publish them under this metadata key
	lyricsMetadataKey = "xesam:asText"

	DefaultMPRISService = "org.mpris.MediaPlayer2.Music"
)

// MPRISBridge reads lyrics from an MPRIS player's metadata over the D-Bus session bus
type MPRISBridge struct {
	service string

	mu  sync.Mutex
	bus *dbus.Conn
}

// NewMPRISBridge creates a bridge for the given bus name; the connection is opened on first use
func NewMPRISBridge(service string) *MPRISBridge {
	if service == "" {
		service = DefaultMPRISService
	}
	return &MPRISBridge{service: service}
}

// conn returns the shared session bus connection, reconnecting after a failure
func (b *MPRISBridge) conn() (*dbus.Conn, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bus != nil && b.bus.Connected() {
		return b.bus, nil
	}

	bus, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, err
	}
	b.bus = bus
	return bus, nil
}

// CurrentLyrics reads xesam:asText from the player's Metadata property
func (b *MPRISBridge) CurrentLyrics(ctx context.Context) string {
	bus, err := b.conn()
	if err != nil {
		log.Debugf("%s Session bus unavailable: %v", logcolors.LogNative, err)
		return ""
	}

	var prop dbus.Variant
	err = bus.Object(b.service, mprisPath).
		CallWithContext(ctx, propertiesGet, 0, mprisPlayerIface, "Metadata").
		Store(&prop)
	if err != nil {
		log.Debugf("%s Metadata from %s: %v", logcolors.LogNative, b.service, err)
		return ""
	}

	metadata, ok := prop.Value().(map[string]dbus.Variant)
	if !ok {
		log.Debugf("%s Unexpected metadata type %T", logcolors.LogNative, prop.Value())
		return ""
	}

	return lyricsFromMetadata(metadata)
}

// Close releases the bus connection
func (b *MPRISBridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bus == nil {
		return nil
	}
	err := b.bus.Close()
	b.bus = nil
	return err
}

// lyricsFromMetadata extracts the lyrics text; a string list is joined line by line
func lyricsFromMetadata(metadata map[string]dbus.Variant) string {
	variant, exists := metadata[lyricsMetadataKey]
	if !exists {
		return ""
	}

	switch v := variant.Value().(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, "\n")
	default:
		return ""
	}
}
