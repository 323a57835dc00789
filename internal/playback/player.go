// Package playback replays stored trails as time-compressed marker movement.
package playback

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"backend-trailkeeper/internal/shared/geo"
)

var (
	ErrInvalidTrail = errors.New("trail has no points")
	ErrNotLoaded    = errors.New("no trail loaded")
	ErrInvalidSpeed = errors.New("speed must be a positive finite number")
	ErrClosed       = errors.New("player closed")
)

const DefaultTickInterval = 100 * time.Millisecond

type State string

const (
	Idle     State = "idle"
	Playing  State = "playing"
	Paused   State = "paused"
	Finished State = "finished"
)

// Event is the presentation snapshot emitted on every change and tick.
type Event struct {
	State    State      `json:"state"`
	Index    int        `json:"index"`
	Marker   geo.Point  `json:"marker"`
	Center   [2]float64 `json:"center"`
	Progress float64    `json:"progress"`
	Speed    float64    `json:"speed"`
}

// Sink receives events while the player lock is held. It must not call back
// into the Player.
type Sink func(Event)

type Option func(*Player)

func WithClock(now func() time.Time) Option {
	return func(p *Player) {
		if now != nil {
			p.now = now
		}
	}
}

func WithTickInterval(d time.Duration) Option {
	return func(p *Player) {
		if d > 0 {
			p.tick = d
		}
	}
}

func WithSink(sink Sink) Option {
	return func(p *Player) {
		p.sink = sink
	}
}

// Player walks a path in trail time. While playing, trail time advances at
// wall time multiplied by the speed; the marker is the last point whose
// offset from the start is not beyond the elapsed trail time.
type Player struct {
	mu   sync.Mutex
	now  func() time.Time
	tick time.Duration
	sink Sink

	path     []geo.Point
	state    State
	index    int
	progress float64
	speed    float64

	// elapsed is trail time in ms at anchor.
	elapsed float64
	anchor  time.Time

	gen    uint64
	cancel context.CancelFunc
	closed bool
}

func NewPlayer(opts ...Option) *Player {
	p := &Player{
		now:   time.Now,
		tick:  DefaultTickInterval,
		state: Idle,
		speed: 1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Load resets the player onto path. An empty path is rejected and the
// player is left as it was.
func (p *Player) Load(path []geo.Point) error {
	if len(path) == 0 {
		return ErrInvalidTrail
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}

	p.stopLocked()
	p.path = append([]geo.Point(nil), path...)
	p.state = Idle
	p.index = 0
	p.progress = 0
	p.speed = 1
	p.elapsed = 0
	p.emitLocked()
	return nil
}

// Play starts or resumes playback. Playing and Finished players are left alone.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.usableLocked(); err != nil {
		return err
	}

	switch p.state {
	case Playing, Finished:
		return nil
	}

	if len(p.path) < 2 {
		p.finishLocked()
		p.emitLocked()
		return nil
	}

	p.state = Playing
	p.anchor = p.now()
	p.evaluateLocked()
	if p.state == Playing {
		p.startLocked()
	}
	return nil
}

func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.usableLocked(); err != nil {
		return err
	}
	if p.state != Playing {
		return nil
	}

	p.stopLocked()
	p.elapsed = p.elapsedLocked()
	p.state = Paused
	p.emitLocked()
	return nil
}

// Seek moves the marker to floor(fraction*(n-1)). fraction is clamped to
// [0,1]. A finished player becomes paused; any other state is kept.
func (p *Player) Seek(fraction float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.usableLocked(); err != nil {
		return err
	}

	fraction = clamp(fraction)
	p.index = int(math.Floor(fraction * float64(len(p.path)-1)))
	p.progress = p.progressAt(p.index)
	p.elapsed = float64(p.path[p.index].Timestamp - p.path[0].Timestamp)
	p.anchor = p.now()
	if p.state == Finished {
		p.state = Paused
	}
	p.emitLocked()
	return nil
}

// SetSpeed changes how fast trail time advances from now on.
func (p *Player) SetSpeed(speed float64) error {
	if speed <= 0 || math.IsNaN(speed) || math.IsInf(speed, 0) {
		return ErrInvalidSpeed
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.usableLocked(); err != nil {
		return err
	}

	if p.state == Playing {
		p.elapsed = p.elapsedLocked()
		p.anchor = p.now()
	}
	p.speed = speed
	p.emitLocked()
	return nil
}

// Tick re-evaluates the marker against the clock. The ticker goroutine calls
// it on every period; callers with their own clock may drive it directly.
func (p *Player) Tick() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.state != Playing {
		return
	}
	p.evaluateLocked()
}

func (p *Player) Status() Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.eventLocked()
}

// Close stops the ticker. No event is emitted once Close returns.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.closed = true
}

func (p *Player) usableLocked() error {
	if p.closed {
		return ErrClosed
	}
	if len(p.path) == 0 {
		return ErrNotLoaded
	}
	return nil
}

func (p *Player) startLocked() {
	p.stopLocked()
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	go p.run(ctx, p.gen, p.tick)
}

// stopLocked invalidates the running ticker. The generation bump makes a
// ticker that already woke up drop its evaluation.
func (p *Player) stopLocked() {
	p.gen++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Player) run(ctx context.Context, gen uint64, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.mu.Lock()
			if p.gen != gen {
				p.mu.Unlock()
				return
			}
			p.evaluateLocked()
			done := p.state != Playing
			p.mu.Unlock()
			if done {
				return
			}
		}
	}
}

func (p *Player) elapsedLocked() float64 {
	wall := p.now().Sub(p.anchor)
	if wall < 0 {
		wall = 0
	}
	return p.elapsed + float64(wall)/float64(time.Millisecond)*p.speed
}

func (p *Player) evaluateLocked() {
	elapsed := p.elapsedLocked()
	start := p.path[0].Timestamp
	// first point beyond elapsed, minus one
	i := sort.Search(len(p.path), func(i int) bool {
		return float64(p.path[i].Timestamp-start) > elapsed
	}) - 1
	if i < 0 {
		i = 0
	}
	if i < p.index {
		i = p.index
	}

	if i >= len(p.path)-1 {
		p.stopLocked()
		p.finishLocked()
	} else {
		p.index = i
		p.progress = p.progressAt(i)
	}
	p.emitLocked()
}

func (p *Player) finishLocked() {
	p.state = Finished
	p.index = len(p.path) - 1
	p.progress = 1
}

func (p *Player) progressAt(i int) float64 {
	last := len(p.path) - 1
	if i >= last {
		return 1
	}
	duration := geo.PathDuration(p.path)
	if duration <= 0 {
		return 0
	}
	return float64(p.path[i].Timestamp-p.path[0].Timestamp) / float64(duration)
}

func (p *Player) eventLocked() Event {
	e := Event{
		State:    p.state,
		Index:    p.index,
		Progress: p.progress,
		Speed:    p.speed,
	}
	if len(p.path) > 0 {
		e.Marker = p.path[p.index]
		e.Center = geo.Center(e.Marker)
	}
	return e
}

func (p *Player) emitLocked() {
	if p.sink != nil {
		p.sink(p.eventLocked())
	}
}

func clamp(f float64) float64 {
	switch {
	case math.IsNaN(f), f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
