package lrclib

import (
	"errors"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// ErrMalformedResponse is returned when a response body is not the expected JSON shape
var ErrMalformedResponse = errors.New("malformed lrclib response")

// Record is one LRCLIB lyrics entry as read from /get or /search.
// Duration is in seconds, 0 when missing.
type Record struct {
	ID           int64   `json:"id,omitempty"`
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
}

// HasSynced reports whether the synced field carries anything besides whitespace
func (r Record) HasSynced() bool {
	return strings.TrimSpace(r.SyncedLyrics) != ""
}

// HasPlain reports whether the plain field carries anything besides whitespace
func (r Record) HasPlain() bool {
	return strings.TrimSpace(r.PlainLyrics) != ""
}

// HasLyrics reports whether any lyric field is usable
func (r Record) HasLyrics() bool {
	return r.HasSynced() || r.HasPlain()
}

// Key aliases per logical field, tried in order. The API has shipped both
// camelCase and snake_case names, and some mirrors use the short forms.
var (
	keysID           = []string{"id"}
	keysTrackName    = []string{"trackName", "track_name", "name"}
	keysArtistName   = []string{"artistName", "artist_name", "artist"}
	keysAlbumName    = []string{"albumName", "album_name", "album"}
	keysDuration     = []string{"duration"}
	keysSynced       = []string{"syncedLyrics", "synced_lyrics"}
	keysPlain        = []string{"plainLyrics", "plain_lyrics"}
	keysInstrumental = []string{"instrumental"}
)

// lookup returns the first present, non-null value among keys, or nil
func lookup(obj jsoniter.Any, keys []string) jsoniter.Any {
	for _, key := range keys {
		v := obj.Get(key)
		switch v.ValueType() {
		case jsoniter.InvalidValue, jsoniter.NilValue:
			continue
		default:
			return v
		}
	}
	return nil
}

// stringField reads a string value; any other type reads as empty
func stringField(obj jsoniter.Any, keys []string) string {
	v := lookup(obj, keys)
	if v == nil || v.ValueType() != jsoniter.StringValue {
		return ""
	}
	return v.ToString()
}

// numberField reads a JSON number or a numeric string; anything else reads as 0
func numberField(obj jsoniter.Any, keys []string) float64 {
	v := lookup(obj, keys)
	if v == nil {
		return 0
	}

	switch v.ValueType() {
	case jsoniter.NumberValue:
		return v.ToFloat64()
	case jsoniter.StringValue:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.ToString()), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// boolField reads a JSON boolean; anything else reads as false
func boolField(obj jsoniter.Any, keys []string) bool {
	v := lookup(obj, keys)
	if v == nil || v.ValueType() != jsoniter.BoolValue {
		return false
	}
	return v.ToBool()
}

func recordFromAny(obj jsoniter.Any) Record {
	return Record{
		ID:           int64(numberField(obj, keysID)),
		TrackName:    stringField(obj, keysTrackName),
		ArtistName:   stringField(obj, keysArtistName),
		AlbumName:    stringField(obj, keysAlbumName),
		Duration:     numberField(obj, keysDuration),
		Instrumental: boolField(obj, keysInstrumental),
		PlainLyrics:  stringField(obj, keysPlain),
		SyncedLyrics: stringField(obj, keysSynced),
	}
}

// decodeRecord reads a single /get object
func decodeRecord(data []byte) (*Record, error) {
	if !jsoniter.Valid(data) {
		return nil, ErrMalformedResponse
	}

	root := jsoniter.Get(data)
	if root.ValueType() != jsoniter.ObjectValue {
		return nil, ErrMalformedResponse
	}

	rec := recordFromAny(root)
	return &rec, nil
}

// decodeRecords reads a /search array; non-object elements are skipped
func decodeRecords(data []byte) ([]Record, error) {
	if !jsoniter.Valid(data) {
		return nil, ErrMalformedResponse
	}

	root := jsoniter.Get(data)
	if root.ValueType() != jsoniter.ArrayValue {
		return nil, ErrMalformedResponse
	}

	records := make([]Record, 0, root.Size())
	for i := 0; i < root.Size(); i++ {
		elem := root.Get(i)
		if elem.ValueType() != jsoniter.ObjectValue {
			continue
		}
		records = append(records, recordFromAny(elem))
	}
	return records, nil
}
