package config

import "testing"

func TestGetWorkers(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want int
	}{
		{"empty", "", 3},
		{"invalid", "abc", 3},
		{"zero", "0", 3},
		{"negative", "-2", 3},
		{"valid_small", "1", 1},
		{"valid_default", "3", 3},
		{"valid_large", "6", 6},
		{"over_cap", "20", 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GENERATION_WORKERS", tt.env)
			if got := getWorkers(); got != tt.want {
				t.Errorf("getWorkers() = %d; want %d", got, tt.want)
			}
		})
	}
}

func TestGetMaxLineLength(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want int
	}{
		{"empty", "", 42},
		{"invalid", "foo", 42},
		{"zero", "0", 42},
		{"under_min", "5", 16},
		{"min", "16", 16},
		{"mid", "60", 60},
		{"max", "120", 120},
		{"over_max", "500", 120},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MAX_LINE_LENGTH", tt.env)
			if got := getMaxLineLength(); got != tt.want {
				t.Errorf("getMaxLineLength() = %d; want %d", got, tt.want)
			}
		})
	}
}

func TestGetMaxUploadMB(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want int
	}{
		{"empty", "", 50},
		{"invalid", "big", 50},
		{"zero", "0", 50},
		{"valid", "100", 100},
		{"over_cap", "1000", 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MAX_UPLOAD_MB", tt.env)
			if got := getMaxUploadMB(); got != tt.want {
				t.Errorf("getMaxUploadMB() = %d; want %d", got, tt.want)
			}
		})
	}
}

func TestGetGeminiModel(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want string
	}{
		{"empty", "", "gemini-2.5-flash"},
		{"override", "gemini-2.5-pro", "gemini-2.5-pro"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GEMINI_MODEL", tt.env)
			if got := getGeminiModel(); got != tt.want {
				t.Errorf("getGeminiModel() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestGeminiIsConfigured(t *testing.T) {
	g := GeminiConfig{}
	if g.IsConfigured() {
		t.Error("expected unconfigured without API key")
	}
	g.APIKey = "key"
	if !g.IsConfigured() {
		t.Error("expected configured with API key")
	}
}
