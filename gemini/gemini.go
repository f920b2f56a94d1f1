// Package gemini turns an audio payload into LRC text via the Gemini
// multimodal API, with retry handling for transient failures.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"lrcforge/config"
)

var logger = log.WithFields(log.Fields{
	"module": "gemini",
})

// ErrMissingAPIKey is returned before any network call when no credential
// is configured.
var ErrMissingAPIKey = errors.New("gemini API key is not configured")

const (
	maxAttempts = 3
	backoffBase = time.Second
	maxJitter   = time.Second
)

// terminalCodes are client errors that retrying cannot fix. Everything else,
// rate limiting included, is retried until the attempt cap runs out.
var terminalCodes = map[int]bool{
	400: true,
	401: true,
	403: true,
	404: true,
}

// Request carries one track's generation inputs.
type Request struct {
	Audio           []byte
	MimeType        string
	ReferenceLyrics string
	MaxLineLength   int
	HardLimit       bool
}

// Generate transcribes the audio to LRC text. The last error propagates once
// retries are exhausted; terminal client errors fail immediately.
func Generate(ctx context.Context, req Request) (string, error) {
	if !config.Config.Gemini.IsConfigured() {
		return "", ErrMissingAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.Config.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("creating gemini client: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			delay := backoffDelay(attempt - 1)
			logger.Warnf("attempt %d/%d failed, retrying in %v: %v",
				attempt-1, maxAttempts, delay, lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		text, err := generateOnce(ctx, client, req)
		if err == nil {
			return StripFences(text), nil
		}
		if isTerminal(err) {
			return "", err
		}
		lastErr = err
	}

	return "", lastErr
}

func generateOnce(ctx context.Context, client *genai.Client, req Request) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromBytes(req.Audio, req.MimeType),
		genai.NewPartFromText(buildPrompt(req)),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := client.Models.GenerateContent(ctx, config.Config.Gemini.Model, contents, nil)
	if err != nil {
		return "", err
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty transcription response")
	}
	return text, nil
}

func buildPrompt(req Request) string {
	var b strings.Builder

	b.WriteString("Transcribe the vocals in this audio into synchronized lyrics.\n")
	b.WriteString("Output ONLY plain LRC lines of the form [mm:ss.xx] lyric text, one per line.\n")
	b.WriteString("Use an empty text after the timestamp for instrumental passages.\n")
	b.WriteString("Do not wrap the output in markdown or code fences.\n")

	if req.HardLimit {
		fmt.Fprintf(&b, "Every line MUST be at most %d characters; split lines to stay under the limit.\n", req.MaxLineLength)
	} else {
		fmt.Fprintf(&b, "Aim for at most %d characters per line.\n", req.MaxLineLength)
	}

	if req.ReferenceLyrics != "" {
		b.WriteString("\nUse these reference lyrics for wording; your job is the timing:\n")
		b.WriteString(req.ReferenceLyrics)
	}

	return b.String()
}

// backoffDelay is exponential in the number of failures with random jitter,
// so parallel workers hitting a rate limit spread back out.
func backoffDelay(failures int) time.Duration {
	delay := backoffBase << (failures - 1)
	return delay + time.Duration(rand.Int63n(int64(maxJitter)))
}

func isTerminal(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return terminalCodes[apiErr.Code]
	}
	return false
}

// StripFences removes markdown code-fence wrapping that models sometimes
// emit despite instructions.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	if i := strings.Index(text, "\n"); i >= 0 {
		text = text[i+1:]
	} else {
		return ""
	}

	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
