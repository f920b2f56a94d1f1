// Package audio renders a vocal-emphasis mix of an uploaded track: decode,
// downmix to mono, run a fixed filter chain, encode back out as 16-bit WAV.
// Decoding leans on ffmpeg the same way playback loading does elsewhere.
package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

var logger = log.WithFields(log.Fields{
	"module": "audio-isolate",
})

// The chain is fixed: cut the rhythm section low end, push the
// intelligibility band, roll off hiss and cymbals.
const (
	highpassCutoff = 250
	peakingCenter  = 3500
	peakingQ       = 1.0
	peakingGainDB  = 6
	lowpassCutoff  = 8000
)

// Emphasize decodes raw audio bytes, applies the vocal-emphasis chain, and
// returns a mono WAV at the input's native sample rate. Decode failures are
// terminal; there is no partial output.
func Emphasize(data []byte) ([]byte, error) {
	interleaved, sampleRate, channels, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding audio: %w", err)
	}

	mono := Downmix(interleaved, channels)
	EmphasizeSamples(mono, float64(sampleRate))

	logger.Debugf("rendered %d samples at %dHz from %d channel(s)",
		len(mono), sampleRate, channels)

	return EncodeWAV(mono, sampleRate), nil
}

// EmphasizeSamples runs the filter chain over mono samples in place.
func EmphasizeSamples(samples []float64, sampleRate float64) {
	newHighpass(sampleRate, highpassCutoff).process(samples)
	newPeaking(sampleRate, peakingCenter, peakingQ, peakingGainDB).process(samples)
	newLowpass(sampleRate, lowpassCutoff).process(samples)
}

// Downmix folds interleaved multi-channel samples into mono by averaging,
// which leaves center-panned content louder than hard-panned content.
func Downmix(interleaved []float32, channels int) []float64 {
	if channels < 1 {
		return nil
	}

	frames := len(interleaved) / channels
	mono := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(interleaved[i*channels+c])
		}
		mono[i] = sum / float64(channels)
	}
	return mono
}

// decode shells out to ffprobe/ffmpeg: probe for the native sample rate and
// channel count, then pull raw f32le samples at that rate.
func decode(data []byte) (samples []float32, sampleRate, channels int, err error) {
	tmp, err := os.CreateTemp("", "lrcforge-decode-*")
	if err != nil {
		return nil, 0, 0, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, 0, 0, fmt.Errorf("writing temp file: %w", err)
	}
	tmp.Close()

	sampleRate, channels, err = probe(tmp.Name())
	if err != nil {
		return nil, 0, 0, err
	}

	ffmpeg := exec.Command("ffmpeg",
		"-i", tmp.Name(),
		"-f", "f32le",
		"-acodec", "pcm_f32le",
		"-loglevel", "error",
		"pipe:1")

	out, err := ffmpeg.Output()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("ffmpeg decode: %w", err)
	}

	if len(out)%4 != 0 {
		out = out[:len(out)-len(out)%4]
	}

	samples = make([]float32, len(out)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(out[i*4:]))
	}

	return samples, sampleRate, channels, nil
}

func probe(path string) (sampleRate, channels int, err error) {
	ffprobe := exec.Command("ffprobe",
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=sample_rate,channels",
		"-of", "csv=p=0",
		path)

	out, err := ffprobe.Output()
	if err != nil {
		return 0, 0, fmt.Errorf("ffprobe: %w", err)
	}

	fields := strings.Split(strings.TrimSpace(string(out)), ",")
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("ffprobe: unexpected output %q", out)
	}

	sampleRate, err = strconv.Atoi(fields[0])
	if err != nil || sampleRate <= 0 {
		return 0, 0, fmt.Errorf("ffprobe: bad sample rate %q", fields[0])
	}
	channels, err = strconv.Atoi(fields[1])
	if err != nil || channels <= 0 {
		return 0, 0, fmt.Errorf("ffprobe: bad channel count %q", fields[1])
	}

	return sampleRate, channels, nil
}
