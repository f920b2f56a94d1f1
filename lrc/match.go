package lrc

import (
	"path/filepath"
	"strings"
)

// File is an uploaded .lrc file awaiting assignment to a track.
type File struct {
	Name    string
	Content string
}

// TrackRef is the minimal view of a track the matcher needs.
type TrackRef struct {
	ID       string
	Filename string
}

// Match pairs one uploaded file with one track.
type Match struct {
	FileName string
	TrackID  string
	Content  string
}

// minTagLength guards against one-letter tags like "[ti:A]" matching half
// the library.
const minTagLength = 3

// MatchFiles assigns each LRC file to at most one track. Per file, in
// priority order: exact case-insensitive stem equality, then the file's
// embedded title tag appearing inside the track's stem, then its artist tag
// prefixing the stem. Returns the matches plus the count of files that
// matched nothing.
func MatchFiles(files []File, tracks []TrackRef) ([]Match, int) {
	var matches []Match
	unmatched := 0

	for _, f := range files {
		trackID := matchOne(f, tracks)
		if trackID == "" {
			unmatched++
			continue
		}
		matches = append(matches, Match{
			FileName: f.Name,
			TrackID:  trackID,
			Content:  f.Content,
		})
	}

	return matches, unmatched
}

func matchOne(f File, tracks []TrackRef) string {
	fileStem := strings.ToLower(stem(f.Name))

	for _, t := range tracks {
		if strings.ToLower(stem(t.Filename)) == fileStem {
			return t.ID
		}
	}

	doc := Parse(f.Content)

	if title := strings.ToLower(doc.Title); len(title) > minTagLength {
		for _, t := range tracks {
			if strings.Contains(strings.ToLower(stem(t.Filename)), title) {
				return t.ID
			}
		}
	}

	if artist := strings.ToLower(doc.Artist); len(artist) > minTagLength {
		for _, t := range tracks {
			if strings.HasPrefix(strings.ToLower(stem(t.Filename)), artist) {
				return t.ID
			}
		}
	}

	return ""
}

func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
