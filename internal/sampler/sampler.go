// Package sampler decides which raw location fixes become permanent path points.
//
// Every operation is a pure function over an explicit State value; a session
// owns its State and hands it back on each call.
package sampler

import (
	"math"
	"time"

	"backend-trailkeeper/internal/shared/geo"
)

const (
	DefaultMinInterval = 2500 * time.Millisecond
	DefaultMinDistance = 10.0 // metres
)

// Config holds the admission gate thresholds. A fix must satisfy both.
type Config struct {
	MinInterval time.Duration
	MinDistance float64
}

func DefaultConfig() Config {
	return Config{
		MinInterval: DefaultMinInterval,
		MinDistance: DefaultMinDistance,
	}
}

// State is the last accepted fix of a recording session.
type State struct {
	Last     *geo.Point `json:"last,omitempty"`
	LastTime int64      `json:"last_time"`
}

// Decision is the outcome of offering one fix.
type Decision struct {
	Accept bool
	State  State
}

// Start accepts the first fix of a session unconditionally.
func Start(fix geo.Point) ([]geo.Point, State) {
	last := fix
	return []geo.Point{fix}, State{Last: &last, LastTime: fix.Timestamp}
}

// Offer runs fix through the admission gate. A rejected fix leaves the state untouched.
func Offer(cfg Config, fix geo.Point, state State) Decision {
	timePassed := fix.Timestamp - state.LastTime

	distanceMoved := math.Inf(1)
	if state.Last != nil {
		distanceMoved = geo.Distance(*state.Last, fix)
	}

	if timePassed < cfg.MinInterval.Milliseconds() || distanceMoved < cfg.MinDistance {
		return Decision{Accept: false, State: state}
	}

	last := fix
	return Decision{Accept: true, State: State{Last: &last, LastTime: fix.Timestamp}}
}

// Recorder accumulates the accepted path of one session.
type Recorder struct {
	cfg   Config
	path  []geo.Point
	state State
}

func NewRecorder(cfg Config, initial geo.Point) *Recorder {
	path, state := Start(initial)
	return &Recorder{cfg: cfg, path: path, state: state}
}

// Offer reports whether fix was appended to the path.
func (r *Recorder) Offer(fix geo.Point) bool {
	d := Offer(r.cfg, fix, r.state)
	if !d.Accept {
		return false
	}
	r.path = append(r.path, fix)
	r.state = d.State
	return true
}

// Path returns a copy of the accepted points.
func (r *Recorder) Path() []geo.Point {
	out := make([]geo.Point, len(r.path))
	copy(out, r.path)
	return out
}

func (r *Recorder) State() State { return r.state }

func (r *Recorder) Len() int { return len(r.path) }

// Last returns the most recently accepted fix.
func (r *Recorder) Last() geo.Point { return r.path[len(r.path)-1] }

// Stop returns the final path and whether it is long enough to become a trail.
func (r *Recorder) Stop() ([]geo.Point, bool) {
	path := r.Path()
	return path, Significant(path)
}

// Significant reports whether a path has enough points to be stored.
func Significant(path []geo.Point) bool {
	return len(path) >= 2
}
