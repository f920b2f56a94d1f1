package id3

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"
)

// writeSynchsafe encodes n as a 4-byte synchsafe integer.
func writeSynchsafe(n int) []byte {
	return []byte{
		byte(n >> 21 & 0x7f),
		byte(n >> 14 & 0x7f),
		byte(n >> 7 & 0x7f),
		byte(n & 0x7f),
	}
}

// frame builds a raw 10-byte-header frame with a plain big-endian size.
func frame(id string, body []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(id)
	size := make([]byte, 4)
	binary.BigEndian.PutUint32(size, uint32(len(body)))
	buf.Write(size)
	buf.Write([]byte{0, 0}) // flags
	buf.Write(body)
	return buf.Bytes()
}

// textFrame builds a UTF-8 text frame (encoding indicator 3).
func textFrame(id, text string) []byte {
	body := append([]byte{3}, []byte(text)...)
	return frame(id, body)
}

// tag wraps frames in an ID3v2 header of the given major version.
func tag(version byte, frames ...[]byte) []byte {
	var body bytes.Buffer
	for _, f := range frames {
		body.Write(f)
	}
	// Trailing padding, as real writers leave.
	body.Write(make([]byte, 32))

	var buf bytes.Buffer
	buf.WriteString("ID3")
	buf.WriteByte(version)
	buf.WriteByte(0) // revision
	buf.WriteByte(0) // flags
	buf.Write(writeSynchsafe(body.Len()))
	buf.Write(body.Bytes())
	return buf.Bytes()
}

func TestParseUTF8Title(t *testing.T) {
	buf := tag(3, textFrame("TIT2", "Golden Hour"), textFrame("TPE1", "JVKE"))
	got := Parse(buf)
	if got.Title != "Golden Hour" {
		t.Errorf("Title = %q; want %q", got.Title, "Golden Hour")
	}
	if got.Artist != "JVKE" {
		t.Errorf("Artist = %q; want %q", got.Artist, "JVKE")
	}
}

func TestParseStripsNULsAndWhitespace(t *testing.T) {
	buf := tag(3, textFrame("TIT2", "  Song\x00\x00 "))
	if got := Parse(buf); got.Title != "Song" {
		t.Errorf("Title = %q; want %q", got.Title, "Song")
	}
}

func TestParseUTF16(t *testing.T) {
	// UTF-16LE with BOM, encoding indicator 1.
	le := []byte{1, 0xff, 0xfe}
	for _, r := range "Héllo" {
		le = append(le, byte(r), byte(r>>8))
	}
	// UTF-16BE without BOM, encoding indicator 2.
	be := []byte{2}
	for _, r := range "World" {
		be = append(be, byte(r>>8), byte(r))
	}

	buf := tag(3, frame("TIT2", le), frame("TPE1", be))
	got := Parse(buf)
	if got.Title != "Héllo" {
		t.Errorf("Title = %q; want %q", got.Title, "Héllo")
	}
	if got.Artist != "World" {
		t.Errorf("Artist = %q; want %q", got.Artist, "World")
	}
}

func TestParseNoMagic(t *testing.T) {
	inputs := [][]byte{
		nil,
		{},
		[]byte("MP3"),
		[]byte("not an id3 tag at all"),
		bytes.Repeat([]byte{0xff}, 64),
	}
	for _, in := range inputs {
		if got := Parse(in); got != (Result{}) {
			t.Errorf("Parse(%q) = %+v; want empty", in, got)
		}
	}
}

func TestParseTruncatedTag(t *testing.T) {
	buf := tag(3, textFrame("TIT2", "Song"))
	for cut := 0; cut < len(buf); cut += 7 {
		// Must never panic regardless of where the buffer ends.
		Parse(buf[:cut])
	}
}

func TestParseStopsAtPadding(t *testing.T) {
	// Title frame lives after the padding start; it must not be found.
	var body bytes.Buffer
	body.Write(make([]byte, 20))
	body.Write(textFrame("TIT2", "Hidden"))

	var buf bytes.Buffer
	buf.WriteString("ID3")
	buf.Write([]byte{3, 0, 0})
	buf.Write(writeSynchsafe(body.Len()))
	buf.Write(body.Bytes())

	if got := Parse(buf.Bytes()); got.Title != "" {
		t.Errorf("Title = %q; want empty (frame behind padding)", got.Title)
	}
}

func TestParseFirstNonEmptyWins(t *testing.T) {
	buf := tag(3,
		textFrame("TIT2", ""),
		textFrame("TIT2", "Real Title"),
		textFrame("TIT2", "Later Title"),
	)
	if got := Parse(buf); got.Title != "Real Title" {
		t.Errorf("Title = %q; want %q", got.Title, "Real Title")
	}
}

func TestParseV4SynchsafeFrameSizeFallback(t *testing.T) {
	// A v2.4 title frame whose size field is synchsafe. The body is longer
	// than 127 bytes so the raw big-endian reading diverges, exceeding the
	// outer tag size: both the title and the artist frame behind it are only
	// reachable through the synchsafe reinterpretation.
	title := strings.Repeat("Synchsafe Song ", 14) + "End"
	body := append([]byte{3}, []byte(title)...)

	var f bytes.Buffer
	f.WriteString("TIT2")
	f.Write(writeSynchsafe(len(body)))
	f.Write([]byte{0, 0})
	f.Write(body)

	buf := tag(4, f.Bytes(), textFrame("TPE1", "After"))

	raw := int(binary.BigEndian.Uint32(f.Bytes()[4:8]))
	if raw <= len(buf) {
		t.Fatalf("test setup: raw size %d must exceed the whole tag (%d bytes)", raw, len(buf))
	}

	got := Parse(buf)
	if got.Title != title {
		t.Errorf("Title = %q; want the long synchsafe-sized title", got.Title)
	}
	if got.Artist != "After" {
		t.Errorf("Artist = %q; want %q (frame after the synchsafe-sized one)", got.Artist, "After")
	}
}

func TestHasTag(t *testing.T) {
	if !HasTag([]byte("ID3whatever")) {
		t.Error("expected tag prefix to be detected")
	}
	if HasTag([]byte("ID")) || HasTag(nil) {
		t.Error("short buffers must not report a tag")
	}
}
