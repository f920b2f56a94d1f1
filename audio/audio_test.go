package audio

import (
	"encoding/binary"
	"math"
	"testing"
)

func sine(freq, sampleRate float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
	}
	return out
}

// rms over the back half of the buffer, past the filter transient.
func steadyRMS(samples []float64) float64 {
	tail := samples[len(samples)/2:]
	var sum float64
	for _, s := range tail {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(tail)))
}

func TestEmphasizeSamplesSpectralShape(t *testing.T) {
	const rate = 44100.0
	const n = 44100

	tests := []struct {
		name    string
		freq    float64
		boosted bool
	}{
		{"low_end_cut", 100, false},
		{"vocal_band_boosted", 3500, true},
		{"hiss_cut", 12000, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := sine(tt.freq, rate, n)
			before := steadyRMS(in)

			EmphasizeSamples(in, rate)
			after := steadyRMS(in)

			if tt.boosted && after <= before {
				t.Errorf("%vHz: rms %v -> %v; want boost", tt.freq, before, after)
			}
			if !tt.boosted && after >= before {
				t.Errorf("%vHz: rms %v -> %v; want cut", tt.freq, before, after)
			}
		})
	}
}

func TestEmphasizeSamplesPreservesLength(t *testing.T) {
	in := sine(440, 44100, 4410)
	EmphasizeSamples(in, 44100)
	if len(in) != 4410 {
		t.Errorf("length changed to %d", len(in))
	}
}

func TestDownmix(t *testing.T) {
	// Hard-left content halves; centered content survives at full level.
	stereo := []float32{1, 0, 1, 0, 0.5, 0.5}
	mono := Downmix(stereo, 2)

	want := []float64{0.5, 0.5, 0.5}
	if len(mono) != len(want) {
		t.Fatalf("got %d frames; want %d", len(mono), len(want))
	}
	for i := range want {
		if math.Abs(mono[i]-want[i]) > 1e-9 {
			t.Errorf("frame %d = %v; want %v", i, mono[i], want[i])
		}
	}
}

func TestDownmixMonoPassthrough(t *testing.T) {
	mono := Downmix([]float32{0.25, -0.25}, 1)
	if len(mono) != 2 || mono[0] != 0.25 || mono[1] != -0.25 {
		t.Errorf("got %v; want passthrough", mono)
	}
}

func TestEncodeWAVHeader(t *testing.T) {
	buf := EncodeWAV(make([]float64, 100), 44100)

	if len(buf) != 44+200 {
		t.Fatalf("len = %d; want %d", len(buf), 44+200)
	}
	if string(buf[0:4]) != "RIFF" || string(buf[8:12]) != "WAVE" ||
		string(buf[12:16]) != "fmt " || string(buf[36:40]) != "data" {
		t.Error("chunk markers wrong")
	}
	if got := binary.LittleEndian.Uint32(buf[4:8]); got != 36+200 {
		t.Errorf("riff size = %d; want %d", got, 36+200)
	}
	if got := binary.LittleEndian.Uint16(buf[20:22]); got != 1 {
		t.Errorf("format code = %d; want 1 (PCM)", got)
	}
	if got := binary.LittleEndian.Uint16(buf[22:24]); got != 1 {
		t.Errorf("channels = %d; want 1", got)
	}
	if got := binary.LittleEndian.Uint32(buf[24:28]); got != 44100 {
		t.Errorf("sample rate = %d; want 44100", got)
	}
	if got := binary.LittleEndian.Uint32(buf[28:32]); got != 88200 {
		t.Errorf("byte rate = %d; want 88200", got)
	}
	if got := binary.LittleEndian.Uint16(buf[32:34]); got != 2 {
		t.Errorf("block align = %d; want 2", got)
	}
	if got := binary.LittleEndian.Uint16(buf[34:36]); got != 16 {
		t.Errorf("bits per sample = %d; want 16", got)
	}
	if got := binary.LittleEndian.Uint32(buf[40:44]); got != 200 {
		t.Errorf("data size = %d; want 200", got)
	}
}

func TestPCM16Scaling(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want int16
	}{
		{"full_negative", -1, -32768},
		{"full_positive", 1, 32767},
		{"zero", 0, 0},
		{"half_positive", 0.5, 16383}, // 0.5*32767 truncated
		{"half_negative", -0.5, -16384},
		{"clamp_high", 2.5, 32767},
		{"clamp_low", -2.5, -32768},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pcm16(tt.in); got != tt.want {
				t.Errorf("pcm16(%v) = %d; want %d", tt.in, got, tt.want)
			}
		})
	}
}
