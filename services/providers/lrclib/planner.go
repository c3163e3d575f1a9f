package lrclib

import (
	"strings"
)

// Delimiters that separate a primary artist from featured or collaborating ones
var artistDelimiters = []string{
	" feat. ",
	" featuring ",
	" ft.",
	",",
	"&",
	" x ",
	" and ",
	";",
	"/",
}

// indexFold returns the index of the first ASCII case-insensitive occurrence of substr in s, or -1
func indexFold(s, substr string) int {
	n := len(substr)
	for i := 0; i+n <= len(s); i++ {
		if strings.EqualFold(s[i:i+n], substr) {
			return i
		}
	}
	return -1
}

// primaryArtist returns the text before the earliest delimiter, or "" when there is none
func primaryArtist(artist string) string {
	cut := -1
	for _, delim := range artistDelimiters {
		if i := indexFold(artist, delim); i >= 0 && (cut < 0 || i < cut) {
			cut = i
		}
	}
	if cut < 0 {
		return ""
	}
	return strings.TrimSpace(artist[:cut])
}

// ArtistVariants returns the full trimmed artist and then its primary artist, without
// empty entries or case-insensitive duplicates.
//
//	"Daft Punk feat. Pharrell Williams" -> ["Daft Punk feat. Pharrell Williams", "Daft Punk"]
//	"Adele"                             -> ["Adele"]
func ArtistVariants(artist string) []string {
	full := strings.TrimSpace(artist)

	var variants []string
	for _, v := range []string{full, primaryArtist(full)} {
		if v == "" {
			continue
		}
		duplicate := false
		for _, seen := range variants {
			if strings.EqualFold(seen, v) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			variants = append(variants, v)
		}
	}
	return variants
}

// searchAttempt is one /search call plus the artist its results are scored against
type searchAttempt struct {
	query  SearchQuery
	artist string
}

// planSearch returns the search attempts in order: title+primary (when a distinct primary exists),
// title+full artist, then a free-text query of title and the most specific artist.
func planSearch(title string, variants []string) []searchAttempt {
	var full, primary string
	if len(variants) > 0 {
		full = variants[0]
	}
	if len(variants) > 1 {
		primary = variants[1]
	}

	var attempts []searchAttempt
	if primary != "" {
		attempts = append(attempts, searchAttempt{
			query:  SearchQuery{TrackName: title, ArtistName: primary},
			artist: primary,
		})
	}
	attempts = append(attempts, searchAttempt{
		query:  SearchQuery{TrackName: title, ArtistName: full},
		artist: full,
	})

	freeArtist := full
	if primary != "" {
		freeArtist = primary
	}
	attempts = append(attempts, searchAttempt{
		query:  SearchQuery{Q: strings.TrimSpace(title + " " + freeArtist)},
		artist: freeArtist,
	})

	return attempts
}

// planGet returns one /get request per artist variant, full artist first
func planGet(title, album string, duration int, variants []string) []GetParams {
	params := make([]GetParams, 0, len(variants))
	for _, artist := range variants {
		params = append(params, GetParams{
			TrackName:  title,
			ArtistName: artist,
			AlbumName:  album,
			Duration:   duration,
		})
	}
	return params
}
