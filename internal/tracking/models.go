package tracking

import (
	"errors"
	"time"

	"backend-trailkeeper/internal/sampler"
	"backend-trailkeeper/internal/shared/geo"
	"backend-trailkeeper/internal/trail"
)

var (
	ErrSessionNotFound = errors.New("recording session not found")
	ErrInvalidFix      = errors.New("fix has invalid coordinates")
	ErrPreempted       = errors.New("recording cancelled by playback")
	ErrReplaced        = errors.New("recording replaced by a new recording")
)

type Status string

const (
	StatusActive  Status = "active"
	StatusStopped Status = "stopped"
	StatusAborted Status = "aborted"
)

// Session is a snapshot of a recording.
type Session struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	StartedAt time.Time   `json:"started_at"`
	EndedAt   *time.Time  `json:"ended_at,omitempty"`
	Status    Status      `json:"status"`
	Path      []geo.Point `json:"path"`
	Distance  float64     `json:"distance"`
	TrailID   string      `json:"trail_id,omitempty"`
	Error     string      `json:"error,omitempty"`
	// Sampler is the admission state the next fix is judged against.
	Sampler sampler.State `json:"sampler"`
}

// OfferResult reports what the sampler did with one fix.
type OfferResult struct {
	Accepted   bool       `json:"accepted"`
	Marker     geo.Point  `json:"marker"`
	Center     [2]float64 `json:"center"`
	PointCount int        `json:"point_count"`
	Distance   float64    `json:"distance"`
}

// Result is the outcome of ending a session. Trail is nil when the
// recording was too short to keep or was discarded.
type Result struct {
	Session Session      `json:"session"`
	Trail   *trail.Trail `json:"trail"`
}

// Update is what the presentation stream receives for a recording.
type Update struct {
	Type       string     `json:"type"`
	SessionID  string     `json:"session_id"`
	Status     Status     `json:"status"`
	Marker     geo.Point  `json:"marker"`
	Center     [2]float64 `json:"center"`
	PointCount int        `json:"point_count"`
	Distance   float64    `json:"distance"`
	TrailID    string     `json:"trail_id,omitempty"`
}
