package models

import "time"

type TrackStatus string

const (
	StatusPending    TrackStatus = "pending"
	StatusIsolating  TrackStatus = "isolating"
	StatusGenerating TrackStatus = "generating"
	StatusCompleted  TrackStatus = "completed"
	StatusError      TrackStatus = "error"
)

// transitions is the allowed status graph. Any state may fail into error;
// error and completed both re-enter the pipeline on manual retry.
var transitions = map[TrackStatus][]TrackStatus{
	StatusPending:    {StatusIsolating, StatusGenerating, StatusError},
	StatusIsolating:  {StatusGenerating, StatusError},
	StatusGenerating: {StatusCompleted, StatusError},
	StatusCompleted:  {StatusPending, StatusError},
	StatusError:      {StatusPending, StatusError},
}

func (s TrackStatus) CanTransition(to TrackStatus) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Track is one user-submitted audio item moving through the pipeline.
type Track struct {
	ID       string      `json:"id"`
	Filename string      `json:"filename"`
	MimeType string      `json:"mimeType"`
	Status   TrackStatus `json:"status"`

	// Data is the raw upload; Payload is what gets sent to the model,
	// which diverges from Data after vocal isolation rewrites it.
	Data    []byte `json:"-"`
	Payload []byte `json:"-"`

	Title  string `json:"title"`
	Artist string `json:"artist"`

	ReferenceLyrics string `json:"referenceLyrics,omitempty"`
	Isolate         bool   `json:"isolate"`

	LrcContent string `json:"lrcContent,omitempty"`
	Error      string `json:"error,omitempty"`

	// PreviewPath points at the rendered isolation WAV on disk, kept around
	// so the result can be auditioned. Must be removed with the track.
	PreviewPath string `json:"-"`

	AddedAt time.Time `json:"addedAt"`
}

// Clone returns a shallow copy safe to hand to readers; byte slices are
// shared but never mutated in place.
func (t *Track) Clone() *Track {
	c := *t
	return &c
}
