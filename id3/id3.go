// Package id3 reads title and artist text frames straight out of an ID3v2
// container. It covers the common unsynchronized-text-frame case only: no
// ID3v1, no extended headers, no compression or encryption.
package id3

import (
	"bytes"
	"encoding/binary"
	"strings"
	"unicode/utf16"
)

// ScanLimit is how much of a file's head callers should hand to Parse.
// Tags bigger than this are rare enough to ignore.
const ScanLimit = 128 * 1024

const frameHeaderSize = 10

type Result struct {
	Title  string
	Artist string
}

// Parse scans buf for an ID3v2 tag and returns whatever title/artist frames
// it finds. It never fails: any structural anomaly, including one that would
// panic on byte access, degrades to an empty Result.
func Parse(buf []byte) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{}
		}
	}()

	if len(buf) < 10 || buf[0] != 'I' || buf[1] != 'D' || buf[2] != '3' {
		return Result{}
	}

	version := buf[3]
	tagSize := synchsafe(buf[6:10])

	limit := tagSize + frameHeaderSize
	if limit > len(buf) {
		limit = len(buf)
	}

	offset := 10
	for offset+frameHeaderSize <= limit {
		// A zero first byte in the identifier means we hit the padding.
		if buf[offset] == 0 {
			break
		}

		id := string(buf[offset : offset+4])
		size := int(binary.BigEndian.Uint32(buf[offset+4 : offset+8]))

		// Some v2.4 writers store frame sizes as plain big-endian even though
		// the format defines them as synchsafe, and vice versa. When the raw
		// value cannot fit inside the tag, the synchsafe reading is the
		// plausible one.
		if version == 4 && size > tagSize {
			size = synchsafe(buf[offset+4 : offset+8])
		}

		frameEnd := offset + frameHeaderSize + size
		if size < 0 || frameEnd > limit {
			break
		}

		if id == "TIT2" || id == "TPE1" {
			text := decodeTextFrame(buf[offset+frameHeaderSize : frameEnd])
			if id == "TIT2" && result.Title == "" {
				result.Title = text
			}
			if id == "TPE1" && result.Artist == "" {
				result.Artist = text
			}
		}

		offset = frameEnd
	}

	return result
}

// synchsafe decodes a 4-byte synchsafe integer: 7 bits per byte, MSB first.
func synchsafe(b []byte) int {
	return int(b[0]&0x7f)<<21 | int(b[1]&0x7f)<<14 | int(b[2]&0x7f)<<7 | int(b[3]&0x7f)
}

// decodeTextFrame decodes a text information frame body: one encoding
// indicator byte followed by the string data.
func decodeTextFrame(body []byte) string {
	if len(body) < 2 {
		return ""
	}

	encoding := body[0]
	data := body[1:]

	var text string
	switch encoding {
	case 1:
		text = decodeUTF16(data, false)
	case 2:
		text = decodeUTF16(data, true)
	default:
		// 0 is Latin-1 and 3 is UTF-8; decoding both as UTF-8 keeps ASCII
		// (the overwhelming case) intact.
		text = string(data)
	}

	text = strings.ReplaceAll(text, "\x00", "")
	return strings.TrimSpace(text)
}

func decodeUTF16(data []byte, bigEndian bool) string {
	if len(data) >= 2 {
		switch {
		case data[0] == 0xff && data[1] == 0xfe:
			bigEndian = false
			data = data[2:]
		case data[0] == 0xfe && data[1] == 0xff:
			bigEndian = true
			data = data[2:]
		}
	}
	if len(data)%2 != 0 {
		data = data[:len(data)-1]
	}

	units := make([]uint16, len(data)/2)
	for i := range units {
		if bigEndian {
			units[i] = binary.BigEndian.Uint16(data[i*2:])
		} else {
			units[i] = binary.LittleEndian.Uint16(data[i*2:])
		}
	}

	return string(utf16.Decode(units))
}

// HasTag reports whether buf starts with an ID3v2 header at all.
func HasTag(buf []byte) bool {
	return len(buf) >= 3 && bytes.HasPrefix(buf, []byte("ID3"))
}
