// Package controller drives tracks through the generation pipeline. It is
// the only writer of track status: isolate (optional), transcribe, complete
// or fail, with a bounded worker pool for batch runs.
package controller

import (
	"context"
	"fmt"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"

	"lrcforge/audio"
	"lrcforge/config"
	"lrcforge/gemini"
	"lrcforge/models"
	"lrcforge/sentry"
	"lrcforge/session"
)

var logger = log.WithFields(log.Fields{
	"module": "controller",
})

type Controller struct {
	session *session.Session

	// Pipeline stages, swappable in tests.
	generate func(ctx context.Context, req gemini.Request) (string, error)
	isolate  func(data []byte) ([]byte, error)

	workers       int
	maxLineLength int
	hardLimit     bool

	// One batch at a time; a second generate-all while one runs is a no-op.
	batchMu sync.Mutex
	running bool

	onComplete func(t *models.Track)
}

// OnComplete registers a callback invoked with a clone of every track that
// finishes generation, used to persist results.
func (c *Controller) OnComplete(fn func(t *models.Track)) {
	c.onComplete = fn
}

func New(s *session.Session) *Controller {
	return &Controller{
		session:       s,
		generate:      gemini.Generate,
		isolate:       audio.Emphasize,
		workers:       config.Config.Options.Workers,
		maxLineLength: config.Config.Options.MaxLineLength,
		hardLimit:     config.Config.Options.HardLineLimit,
	}
}

type BatchResult struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
}

// ProcessBatch runs every eligible track through the pipeline. Tracks that
// are already completed or carry externally-supplied lyrics are skipped.
// Per-track failures never abort the rest of the batch.
func (c *Controller) ProcessBatch(ctx context.Context) BatchResult {
	c.batchMu.Lock()
	if c.running {
		c.batchMu.Unlock()
		logger.Warn("batch already running, ignoring")
		return BatchResult{}
	}
	c.running = true
	c.batchMu.Unlock()
	defer func() {
		c.batchMu.Lock()
		c.running = false
		c.batchMu.Unlock()
	}()

	var pending []string
	skipped := 0
	for _, t := range c.session.Snapshot() {
		if t.Status == models.StatusCompleted || t.LrcContent != "" {
			skipped++
			continue
		}
		pending = append(pending, t.ID)
	}

	result := BatchResult{Processed: len(pending), Skipped: skipped}
	if len(pending) == 0 {
		return result
	}

	workers := c.workers
	if workers > len(pending) {
		workers = len(pending)
	}
	logger.Infof("processing %d track(s) with %d worker(s), %d skipped",
		len(pending), workers, skipped)

	queue := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range queue {
				c.ProcessTrack(ctx, id)
			}
		}()
	}

	for _, id := range pending {
		queue <- id
	}
	close(queue)
	wg.Wait()

	return result
}

// ProcessTrack runs one track through isolate-then-generate. Errors land on
// the track itself; results for tracks removed mid-flight are discarded by
// the session.
func (c *Controller) ProcessTrack(ctx context.Context, id string) {
	t, ok := c.session.Get(id)
	if !ok {
		return
	}

	switch t.Status {
	case models.StatusIsolating, models.StatusGenerating:
		return // already in flight
	case models.StatusCompleted, models.StatusError:
		if err := c.session.Retry(id); err != nil {
			logger.Warnf("track %s: %v", id, err)
			return
		}
	}

	if t.Isolate {
		if err := c.isolateTrack(id, t); err != nil {
			c.fail(id, err)
			return
		}
		// Re-read: isolation rewrote the payload.
		t, ok = c.session.Get(id)
		if !ok {
			return
		}
	}

	if err := c.session.Transition(id, models.StatusGenerating); err != nil {
		logger.Warnf("track %s: %v", id, err)
		return
	}

	text, err := c.generate(ctx, gemini.Request{
		Audio:           t.Payload,
		MimeType:        t.MimeType,
		ReferenceLyrics: t.ReferenceLyrics,
		MaxLineLength:   c.maxLineLength,
		HardLimit:       c.hardLimit,
	})
	if err != nil {
		c.fail(id, fmt.Errorf("generating lyrics: %w", err))
		return
	}

	if err := c.session.Complete(id, text); err != nil {
		logger.Debugf("discarding result for %s: %v", id, err)
		return
	}

	if c.onComplete != nil {
		if t, ok := c.session.Get(id); ok {
			c.onComplete(t)
		}
	}
}

func (c *Controller) isolateTrack(id string, t *models.Track) error {
	if err := c.session.Transition(id, models.StatusIsolating); err != nil {
		return err
	}

	wav, err := c.isolate(t.Payload)
	if err != nil {
		return fmt.Errorf("isolating vocals: %w", err)
	}

	preview, err := writePreview(wav)
	if err != nil {
		logger.Warnf("track %s: keeping result without preview: %v", id, err)
	}

	c.session.Update(id, func(t *models.Track) {
		t.Payload = wav
		t.MimeType = "audio/wav"
		if t.PreviewPath != "" {
			os.Remove(t.PreviewPath)
		}
		t.PreviewPath = preview
	})
	return nil
}

func (c *Controller) fail(id string, err error) {
	logger.Errorf("track %s: %v", id, err)
	sentry.ReportError(err)
	c.session.Fail(id, err.Error())
}

// writePreview drops the isolation render into a temp WAV so it can be
// auditioned before generation output lands.
func writePreview(wav []byte) (string, error) {
	f, err := os.CreateTemp("", "lrcforge-preview-*.wav")
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := f.Write(wav); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
