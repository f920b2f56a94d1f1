// Package session owns the track collection. Every mutation goes through it,
// readers only ever see clones, and status changes are validated against the
// track state machine.
package session

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"lrcforge/models"
)

var logger = log.WithFields(log.Fields{
	"module": "session",
})

type Session struct {
	mu     sync.RWMutex
	tracks []*models.Track
}

func New() *Session {
	return &Session{}
}

// Add registers a new track, assigning its ID and initial status.
func (s *Session) Add(t *models.Track) *models.Track {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.ID = uuid.New().String()
	t.Status = models.StatusPending
	t.Payload = t.Data
	t.AddedAt = time.Now()

	s.tracks = append(s.tracks, t)
	return t.Clone()
}

// Get returns a clone of the track, or false if it was removed.
func (s *Session) Get(id string) (*models.Track, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t := s.find(id); t != nil {
		return t.Clone(), true
	}
	return nil, false
}

// Snapshot returns clones of all tracks in insertion order.
func (s *Session) Snapshot() []*models.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Track, len(s.tracks))
	for i, t := range s.tracks {
		out[i] = t.Clone()
	}
	return out
}

func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tracks)
}

// Update applies fn to the track under the session lock. Returns false when
// the track no longer exists, which makes late pipeline results for removed
// tracks inert.
func (s *Session) Update(id string, fn func(*models.Track)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.find(id)
	if t == nil {
		return false
	}
	fn(t)
	return true
}

// Transition moves a track to the given status, enforcing the state machine.
func (s *Session) Transition(id string, to models.TrackStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.find(id)
	if t == nil {
		return fmt.Errorf("track %s not found", id)
	}
	if !t.Status.CanTransition(to) {
		return fmt.Errorf("track %s: invalid transition %s -> %s", id, t.Status, to)
	}
	t.Status = to
	return nil
}

// Complete marks generation finished with the resulting LRC text.
func (s *Session) Complete(id, lrcContent string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.find(id)
	if t == nil {
		return fmt.Errorf("track %s not found", id)
	}
	if !t.Status.CanTransition(models.StatusCompleted) {
		return fmt.Errorf("track %s: cannot complete from %s", id, t.Status)
	}
	t.Status = models.StatusCompleted
	t.LrcContent = lrcContent
	t.Error = ""
	return nil
}

// Fail records a track-scoped error. Late failures for removed tracks are
// dropped silently.
func (s *Session) Fail(id, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.find(id)
	if t == nil {
		return
	}
	t.Status = models.StatusError
	t.Error = message
}

// SetLyrics installs externally-supplied LRC content verbatim. Imports
// bypass the generation state machine entirely: the track lands in
// completed with any prior error cleared.
func (s *Session) SetLyrics(id, lrcContent string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.find(id)
	if t == nil {
		return fmt.Errorf("track %s not found", id)
	}
	t.LrcContent = lrcContent
	t.Error = ""
	t.Status = models.StatusCompleted
	return nil
}

// Retry re-arms a completed or errored track for another generation pass.
// Prior lyric content is dropped along with the error: a retried track must
// look freshly pending to batch eligibility checks, not like an import.
func (s *Session) Retry(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.find(id)
	if t == nil {
		return fmt.Errorf("track %s not found", id)
	}
	if !t.Status.CanTransition(models.StatusPending) {
		return fmt.Errorf("track %s: cannot retry from %s", id, t.Status)
	}
	t.Status = models.StatusPending
	t.LrcContent = ""
	t.Error = ""
	return nil
}

// Remove deletes a track and releases its preview file.
func (s *Session) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.tracks {
		if t.ID == id {
			release(t)
			s.tracks = append(s.tracks[:i], s.tracks[i+1:]...)
			return true
		}
	}
	return false
}

// Reset drops every track and releases their preview files.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tracks {
		release(t)
	}
	s.tracks = nil
}

func (s *Session) find(id string) *models.Track {
	for _, t := range s.tracks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func release(t *models.Track) {
	if t.PreviewPath == "" {
		return
	}
	if err := os.Remove(t.PreviewPath); err != nil && !os.IsNotExist(err) {
		logger.Warnf("removing preview for %s: %v", t.ID, err)
	}
	t.PreviewPath = ""
}
