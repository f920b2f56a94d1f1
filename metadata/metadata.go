// Package metadata resolves a track's display title and artist from its
// embedded tag data and its filename.
package metadata

import (
	"path/filepath"
	"strings"

	"lrcforge/id3"
)

const separator = " - "

// UnknownArtist is the terminal fallback when neither tags nor the filename
// carry an artist.
const UnknownArtist = "Unknown"

type Info struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// FromFilename derives title and artist from a bare filename. An
// "Artist - Title.mp3" shape splits on the first " - "; anything else
// becomes the title with no artist.
func FromFilename(filename string) Info {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))

	parts := strings.Split(stem, separator)
	if len(parts) < 2 {
		return Info{Title: stem}
	}

	return Info{
		Artist: parts[0],
		Title:  strings.Join(parts[1:], separator),
	}
}

// Resolve merges tag-derived and filename-derived metadata. A non-empty tag
// field always wins; artist degrades to UnknownArtist when both sources are
// empty.
func Resolve(tag id3.Result, filename string) Info {
	fromName := FromFilename(filename)

	info := Info{
		Title:  tag.Title,
		Artist: tag.Artist,
	}
	if info.Title == "" {
		info.Title = fromName.Title
	}
	if info.Artist == "" {
		info.Artist = fromName.Artist
	}
	if info.Artist == "" {
		info.Artist = UnknownArtist
	}

	return info
}
