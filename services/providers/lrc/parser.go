// Package lrc turns raw lyric blobs into provider lines.
//
// Plain text is split into trimmed, non-empty lines. Synchronized text uses the LRC
// layout where each line carries one or more [mm:ss.xx] tags in front of the lyric.
package lrc

import (
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"lyrics-resolver-go/services/providers"
)

// LRC timestamp tag: [m:ss], [mm:ss.xx], [mm:ss.xxx] and the [mm:ss:xx] variant
var lrcTimeRegex = regexp.MustCompile(`\[(\d+):(\d{1,2})(?:[.:](\d+))?\]`)

// Run of timestamp tags at the start of a line; tags after the lyric starts are text
var lrcLeadingTagsRegex = regexp.MustCompile(`^(?:\[\d+:\d{1,2}(?:[.:]\d+)?\]\s*)+`)

// unifyLineEndings converts CRLF and bare CR to LF
func unifyLineEndings(raw string) string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	return strings.ReplaceAll(raw, "\r", "\n")
}

// NormalizePlain splits plain lyrics into trimmed, non-empty, untimed lines.
// Returns nil when nothing remains.
func NormalizePlain(raw string) []providers.Line {
	var lines []providers.Line

	for _, rawLine := range strings.Split(unifyLineEndings(raw), "\n") {
		text := strings.TrimSpace(rawLine)
		if text == "" {
			continue
		}
		lines = append(lines, providers.Line{Text: text})
	}

	return lines
}

// ParseSynced parses LRC content into timed lines sorted by start time.
// Every leading tag on a line produces its own line sharing the rest of the line as text.
// Lines without tags or without text are dropped. Returns nil when no timed line was produced.
func ParseSynced(raw string) []providers.Line {
	var lines []providers.Line

	for _, rawLine := range strings.Split(unifyLineEndings(raw), "\n") {
		rawLine = strings.TrimSpace(rawLine)
		if rawLine == "" {
			continue
		}

		prefix := lrcLeadingTagsRegex.FindString(rawLine)
		if prefix == "" {
			continue
		}
		matches := lrcTimeRegex.FindAllStringSubmatch(prefix, -1)

		text := strings.TrimSpace(rawLine[len(prefix):])
		if text == "" {
			continue
		}

		for _, match := range matches {
			start, ok := tagSeconds(match[1], match[2], match[3])
			if !ok {
				continue
			}
			lines = append(lines, providers.TimedLine(text, start))
		}
	}

	if len(lines) == 0 {
		return nil
	}

	// Stable so lines sharing a timestamp keep their source order
	slices.SortStableFunc(lines, func(a, b providers.Line) int {
		as, _ := a.Start()
		bs, _ := b.Start()
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		default:
			return 0
		}
	})

	return lines
}

// tagSeconds computes minutes*60 + seconds + fraction, where the fraction has as many
// decimal places as digits were written
func tagSeconds(minutesPart, secondsPart, fractionPart string) (float64, bool) {
	minutes, err := strconv.Atoi(minutesPart)
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.Atoi(secondsPart)
	if err != nil {
		return 0, false
	}

	total := float64(minutes*60 + seconds)

	if fractionPart != "" {
		fraction, err := strconv.ParseInt(fractionPart, 10, 64)
		if err != nil {
			return 0, false
		}
		total += float64(fraction) / math.Pow10(len(fractionPart))
	}

	return total, true
}

// HasTimestamps reports whether at least one line starts with an LRC timestamp tag
func HasTimestamps(raw string) bool {
	for _, rawLine := range strings.Split(unifyLineEndings(raw), "\n") {
		if lrcLeadingTagsRegex.MatchString(strings.TrimSpace(rawLine)) {
			return true
		}
	}
	return false
}
