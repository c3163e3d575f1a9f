package native

import (
	"context"
	"os/exec"
	"strings"

	"lyrics-resolver-go/logcolors"

	log "github.com/sirupsen/logrus"
)

const musicLyricsScript = `tell application "Music"
	if not running then return ""
	if player state is stopped then return ""
	return lyrics of current track
end tell`

// ScriptBridge runs an automation command and treats its stdout as the lyrics.
// The default runs osascript against the macOS Music app.
type ScriptBridge struct {
	Command string
	Args    []string
}

// NewScriptBridge returns a bridge for the macOS Music app
func NewScriptBridge() *ScriptBridge {
	return &ScriptBridge{
		Command: "osascript",
		Args:    []string{"-e", musicLyricsScript},
	}
}

// CurrentLyrics runs the command; a non-zero exit, a missing binary or a cancelled ctx yield ""
func (b *ScriptBridge) CurrentLyrics(ctx context.Context) string {
	out, err := exec.CommandContext(ctx, b.Command, b.Args...).Output()
	if err != nil {
		log.Debugf("%s %s failed: %v", logcolors.LogNative, b.Command, err)
		return ""
	}
	return strings.TrimRight(string(out), "\n")
}
