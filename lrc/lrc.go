// Package lrc parses and serializes the LRC synchronized-lyric format:
// optional [ti:]/[ar:] metadata headers followed by "[mm:ss.xx] text" lines.
package lrc

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	lineRe      = regexp.MustCompile(`^\[(\d{2}):(\d{2})\.(\d{2,3})\](.*)$`)
	titleRe     = regexp.MustCompile(`(?i)\[ti:([^\]]*)\]`)
	artistRe    = regexp.MustCompile(`(?i)\[ar:([^\]]*)\]`)
	timestampRe = regexp.MustCompile(`\[\d+:\d+\.\d+\]`)
	headerRe    = regexp.MustCompile(`(?i)^\[[a-z]+:.*\]\s*$`)
)

// Line is one timestamped lyric event. Empty text marks an instrumental
// break or intentional blank.
type Line struct {
	Time float64 `json:"time"` // seconds
	Text string  `json:"text"`
}

type Document struct {
	Title  string `json:"title,omitempty"`
	Artist string `json:"artist,omitempty"`
	Lines  []Line `json:"lines"`
}

// Parse reads an LRC document. Unrecognized lines are skipped; timestamped
// lines come back sorted ascending by time with input order preserved on
// ties, since generated output is not guaranteed ordered and playback
// highlighting needs monotonic times.
func Parse(text string) Document {
	doc := Document{
		Title:  firstSubmatch(titleRe, text),
		Artist: firstSubmatch(artistRe, text),
	}

	for _, raw := range strings.Split(text, "\n") {
		m := lineRe.FindStringSubmatch(strings.TrimRight(raw, "\r"))
		if m == nil {
			continue
		}

		minutes, _ := strconv.Atoi(m[1])
		seconds, _ := strconv.Atoi(m[2])
		frac, _ := strconv.Atoi(m[3])

		t := float64(minutes)*60 + float64(seconds) +
			float64(frac)/math.Pow10(len(m[3]))

		doc.Lines = append(doc.Lines, Line{
			Time: t,
			Text: strings.TrimSpace(m[4]),
		})
	}

	sort.SliceStable(doc.Lines, func(i, j int) bool {
		return doc.Lines[i].Time < doc.Lines[j].Time
	})

	return doc
}

// Serialize renders the document back to LRC text. Timestamps are emitted at
// a fixed two-decimal precision regardless of what was parsed.
func (d Document) Serialize() string {
	lines := make([]string, 0, len(d.Lines)+2)
	if d.Title != "" {
		lines = append(lines, "[ti:"+d.Title+"]")
	}
	if d.Artist != "" {
		lines = append(lines, "[ar:"+d.Artist+"]")
	}
	for _, l := range d.Lines {
		lines = append(lines, FormatTimestamp(l.Time)+" "+l.Text)
	}
	return strings.Join(lines, "\n")
}

// FormatTimestamp renders seconds as "[MM:SS.ff]", rounding to hundredths
// so 59.999 carries into the next minute instead of printing "[00:60.00]".
func FormatTimestamp(t float64) string {
	if t < 0 {
		t = 0
	}
	cs := int(math.Round(t * 100))
	return fmt.Sprintf("[%02d:%02d.%02d]", cs/6000, cs%6000/100, cs%100)
}

// StripTimestamps turns synced LRC text into plain lyric lines, for use as
// reference text when a user imports an .lrc file as lyrics input.
func StripTimestamps(text string) string {
	var out []string
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, "\r")
		if headerRe.MatchString(line) {
			continue
		}
		line = strings.TrimSpace(timestampRe.ReplaceAllString(line, ""))
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func firstSubmatch(re *regexp.Regexp, text string) string {
	if m := re.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
