package playback

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"backend-trailkeeper/internal/activity"
	"backend-trailkeeper/internal/trail"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("playback session not found")
	ErrPreempted       = errors.New("playback cancelled by another start")
)

var logf = log.Printf

type TrailSource interface {
	Get(ctx context.Context, id string) (trail.Trail, error)
}

type Publisher interface {
	PublishJSON(sessionID string, v any)
}

// Snapshot is a player event tagged with its session.
type Snapshot struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	TrailID   string `json:"trail_id"`
	Event
}

type session struct {
	id      string
	trailID string
	player  *Player
	token   uint64
	// set when the guard cancels the session before Start made it active
	cancelled bool
}

// Manager owns the single live playback session.
type Manager struct {
	trails TrailSource
	guard  *activity.Guard
	pub    Publisher
	tick   time.Duration

	mu     sync.Mutex
	active *session
}

func NewManager(trails TrailSource, guard *activity.Guard, pub Publisher, tick time.Duration) *Manager {
	if guard == nil {
		guard = activity.NewGuard()
	}
	return &Manager{trails: trails, guard: guard, pub: pub, tick: tick}
}

// Start loads trailID into a fresh player. Any live recording or playback is
// cancelled first. speed 0 means real time.
func (m *Manager) Start(ctx context.Context, trailID string, speed float64) (Snapshot, error) {
	if speed == 0 {
		speed = 1
	}
	t, err := m.trails.Get(ctx, trailID)
	if err != nil {
		return Snapshot{}, err
	}

	s := &session{id: uuid.NewString(), trailID: t.ID}
	s.player = NewPlayer(WithTickInterval(m.tick), WithSink(m.sinkFor(s)))
	if err := s.player.Load(t.Path); err != nil {
		return Snapshot{}, err
	}
	if err := s.player.SetSpeed(speed); err != nil {
		s.player.Close()
		return Snapshot{}, err
	}

	// the guard runs the previous holder's cancel, which may take m.mu
	token := m.guard.Acquire(activity.Playback, func(activity.Kind) { m.cancel(s) })

	m.mu.Lock()
	s.token = token
	if s.cancelled {
		m.mu.Unlock()
		s.player.Close()
		m.guard.Release(token)
		return Snapshot{}, ErrPreempted
	}
	prev := m.active
	m.active = s
	m.mu.Unlock()
	if prev != nil {
		prev.player.Close()
	}

	logf("playback %s started for trail %s", s.id, t.ID)
	return m.snapshot(s), nil
}

func (m *Manager) Play(id string) (Snapshot, error) {
	return m.apply(id, (*Player).Play)
}

func (m *Manager) Pause(id string) (Snapshot, error) {
	return m.apply(id, (*Player).Pause)
}

func (m *Manager) Seek(id string, fraction float64) (Snapshot, error) {
	return m.apply(id, func(p *Player) error { return p.Seek(fraction) })
}

func (m *Manager) SetSpeed(id string, speed float64) (Snapshot, error) {
	return m.apply(id, func(p *Player) error { return p.SetSpeed(speed) })
}

func (m *Manager) Get(id string) (Snapshot, error) {
	return m.apply(id, func(*Player) error { return nil })
}

// Stop ends the session and releases the activity slot.
func (m *Manager) Stop(id string) error {
	s := m.detach(id)
	if s == nil {
		return ErrSessionNotFound
	}
	s.player.Close()
	m.guard.Release(s.token)
	logf("playback %s stopped", id)
	return nil
}

// Close stops whatever session is live.
func (m *Manager) Close() {
	m.mu.Lock()
	s := m.active
	m.mu.Unlock()
	if s != nil {
		_ = m.Stop(s.id)
	}
}

func (m *Manager) apply(id string, op func(*Player) error) (Snapshot, error) {
	s := m.lookup(id)
	if s == nil {
		return Snapshot{}, ErrSessionNotFound
	}
	if err := op(s.player); err != nil {
		if errors.Is(err, ErrClosed) {
			return Snapshot{}, ErrSessionNotFound
		}
		return Snapshot{}, err
	}
	return m.snapshot(s), nil
}

// cancel is the guard callback. A session that is not active yet is only
// marked, and its Start closes it.
func (m *Manager) cancel(s *session) {
	m.mu.Lock()
	if m.active != s {
		s.cancelled = true
		m.mu.Unlock()
		return
	}
	m.active = nil
	m.mu.Unlock()

	s.player.Close()
	logf("playback %s cancelled", s.id)
}

func (m *Manager) lookup(id string) *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil || m.active.id != id {
		return nil
	}
	return m.active
}

func (m *Manager) detach(id string) *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil || m.active.id != id {
		return nil
	}
	s := m.active
	m.active = nil
	return s
}

func (m *Manager) snapshot(s *session) Snapshot {
	return Snapshot{Type: "playback", SessionID: s.id, TrailID: s.trailID, Event: s.player.Status()}
}

func (m *Manager) sinkFor(s *session) Sink {
	if m.pub == nil {
		return nil
	}
	return func(e Event) {
		m.pub.PublishJSON(s.id, Snapshot{Type: "playback", SessionID: s.id, TrailID: s.trailID, Event: e})
	}
}
