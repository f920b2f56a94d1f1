package gemini

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"google.golang.org/genai"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "[00:01.00] hi", "[00:01.00] hi"},
		{"bare_fence", "```\n[00:01.00] hi\n```", "[00:01.00] hi"},
		{"lrc_fence", "```lrc\n[00:01.00] hi\n```", "[00:01.00] hi"},
		{"leading_whitespace", "  \n```\n[00:01.00] hi\n```\n", "[00:01.00] hi"},
		{"fence_only", "```", ""},
		{"empty", "", ""},
		{"multiline", "```\n[00:01.00] one\n[00:02.00] two\n```", "[00:01.00] one\n[00:02.00] two"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFences(tt.in); got != tt.want {
				t.Errorf("StripFences(%q) = %q; want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsTerminal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"bad_request", genai.APIError{Code: 400}, true},
		{"unauthorized", genai.APIError{Code: 401}, true},
		{"forbidden", genai.APIError{Code: 403}, true},
		{"not_found", genai.APIError{Code: 404}, true},
		{"rate_limited", genai.APIError{Code: 429}, false},
		{"server_error", genai.APIError{Code: 500}, false},
		{"wrapped", fmt.Errorf("call failed: %w", genai.APIError{Code: 401}), true},
		{"plain_error", errors.New("network down"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isTerminal(tt.err); got != tt.want {
				t.Errorf("isTerminal(%v) = %v; want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestBackoffDelayGrows(t *testing.T) {
	for failures := 1; failures <= 3; failures++ {
		base := backoffBase << (failures - 1)
		for i := 0; i < 20; i++ {
			d := backoffDelay(failures)
			if d < base || d >= base+maxJitter+time.Millisecond {
				t.Errorf("backoffDelay(%d) = %v; want in [%v, %v)", failures, d, base, base+maxJitter)
			}
		}
	}
}

func TestBuildPrompt(t *testing.T) {
	soft := buildPrompt(Request{MaxLineLength: 42})
	if !strings.Contains(soft, "42") {
		t.Error("prompt should mention the line length")
	}
	if strings.Contains(soft, "MUST") {
		t.Error("soft limit should not demand a hard cap")
	}

	hard := buildPrompt(Request{MaxLineLength: 30, HardLimit: true})
	if !strings.Contains(hard, "MUST be at most 30") {
		t.Error("hard limit should demand the cap")
	}

	ref := buildPrompt(Request{MaxLineLength: 42, ReferenceLyrics: "la la la"})
	if !strings.Contains(ref, "la la la") {
		t.Error("reference lyrics should be embedded in the prompt")
	}
}
