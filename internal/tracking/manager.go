// Package tracking runs the live recording session.
package tracking

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"backend-trailkeeper/internal/activity"
	"backend-trailkeeper/internal/sampler"
	"backend-trailkeeper/internal/shared/geo"
	"backend-trailkeeper/internal/trail"

	"github.com/google/uuid"
)

var logf = log.Printf

type TrailWriter interface {
	Create(ctx context.Context, name string, path []geo.Point) (trail.Trail, error)
}

type Publisher interface {
	PublishJSON(sessionID string, v any)
}

type session struct {
	id        string
	name      string
	startedAt time.Time
	rec       *sampler.Recorder
	distance  float64
	token     uint64
	stopWatch context.CancelFunc
	// set when the guard cancels the session before Start made it active
	preempted error
}

// Manager owns at most one active recording and remembers the last one that
// ended.
type Manager struct {
	trails TrailWriter
	guard  *activity.Guard
	pub    Publisher
	cfg    sampler.Config
	now    func() time.Time

	mu     sync.Mutex
	active *session
	ended  *Session
}

func NewManager(trails TrailWriter, guard *activity.Guard, pub Publisher, cfg sampler.Config) *Manager {
	if guard == nil {
		guard = activity.NewGuard()
	}
	return &Manager{trails: trails, guard: guard, pub: pub, cfg: cfg, now: time.Now}
}

// Start opens a recording with initial as its first point. A live playback
// or recording is cancelled first. If another start takes over while this one
// is still being admitted, the session is ended at once and the cause is
// returned with its final snapshot.
func (m *Manager) Start(ctx context.Context, name string, initial geo.Point) (Session, error) {
	if !geo.Valid(initial) {
		return Session{}, ErrInvalidFix
	}

	s := &session{
		id:        uuid.NewString(),
		name:      name,
		startedAt: m.now(),
		rec:       sampler.NewRecorder(m.cfg, initial),
	}
	// the guard runs the previous holder's cancel, which may take m.mu
	token := m.guard.Acquire(activity.Recording, func(by activity.Kind) { m.preempt(s, by) })

	m.mu.Lock()
	s.token = token
	if cause := s.preempted; cause != nil {
		m.mu.Unlock()
		res, _ := m.end(ctx, s, StatusAborted, cause, true)
		return res.Session, cause
	}
	m.active = s
	snap := m.snapshotLocked(s, StatusActive)
	m.mu.Unlock()

	logf("recording %s started", s.id)
	m.publish(s.id, StatusActive, initial, len(snap.Path), 0, "")
	return snap, nil
}

// Offer runs fix through the sampler. Rejected fixes are not an error.
func (m *Manager) Offer(_ context.Context, id string, fix geo.Point) (OfferResult, error) {
	if !geo.Valid(fix) {
		return OfferResult{}, ErrInvalidFix
	}

	m.mu.Lock()
	s := m.lookupLocked(id)
	if s == nil {
		m.mu.Unlock()
		return OfferResult{}, ErrSessionNotFound
	}
	prev := s.rec.Last()
	accepted := s.rec.Offer(fix)
	if accepted {
		s.distance += geo.Distance(prev, fix)
	}
	marker := s.rec.Last()
	res := OfferResult{
		Accepted:   accepted,
		Marker:     marker,
		Center:     geo.Center(marker),
		PointCount: s.rec.Len(),
		Distance:   s.distance,
	}
	m.mu.Unlock()

	if accepted {
		m.publish(id, StatusActive, marker, res.PointCount, res.Distance, "")
	}
	return res, nil
}

// Stop ends the recording and persists it when it has at least two points.
func (m *Manager) Stop(ctx context.Context, id string) (Result, error) {
	return m.finish(ctx, id, StatusStopped, nil, true)
}

// Abort ends the recording after a failure. With keep set the accepted points
// are still persisted under the usual two-point rule.
func (m *Manager) Abort(ctx context.Context, id string, cause error, keep bool) (Result, error) {
	return m.finish(ctx, id, StatusAborted, cause, keep)
}

// Get returns the active session or the last one that ended.
func (m *Manager) Get(id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s := m.lookupLocked(id); s != nil {
		return m.snapshotLocked(s, StatusActive), nil
	}
	if m.ended != nil && m.ended.ID == id {
		return *m.ended, nil
	}
	return Session{}, ErrSessionNotFound
}

// Watch feeds fixes from src into the session in the background. A source
// error aborts the session and keeps what was accepted. The returned func
// stops watching without ending the session.
func (m *Manager) Watch(ctx context.Context, id string, src FixSource) (func(), error) {
	wctx, cancel := context.WithCancel(ctx)

	m.mu.Lock()
	s := m.lookupLocked(id)
	if s == nil {
		m.mu.Unlock()
		cancel()
		return nil, ErrSessionNotFound
	}
	prev := s.stopWatch
	s.stopWatch = cancel
	m.mu.Unlock()
	if prev != nil {
		prev()
	}

	fixes, errs, err := src.Start(wctx)
	if err != nil {
		cancel()
		return nil, err
	}

	go func() {
		defer cancel()
		for {
			select {
			case <-wctx.Done():
				return
			case fix, ok := <-fixes:
				if !ok {
					return
				}
				if wctx.Err() != nil {
					return
				}
				if _, err := m.Offer(wctx, id, fix); err != nil {
					if errors.Is(err, ErrSessionNotFound) {
						return
					}
					logf("recording %s: dropped fix: %v", id, err)
				}
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				if err == nil {
					continue
				}
				logf("recording %s: fix source failed: %v", id, err)
				if _, aerr := m.Abort(context.WithoutCancel(wctx), id, err, true); aerr != nil && !errors.Is(aerr, ErrSessionNotFound) {
					logf("recording %s: abort: %v", id, aerr)
				}
				return
			}
		}
	}()
	return cancel, nil
}

// Close aborts the active recording, keeping its points.
func (m *Manager) Close(ctx context.Context) {
	m.mu.Lock()
	s := m.active
	m.mu.Unlock()
	if s != nil {
		_, _ = m.Abort(ctx, s.id, errors.New("shutting down"), true)
	}
}

func (m *Manager) finish(ctx context.Context, id string, status Status, cause error, keep bool) (Result, error) {
	m.mu.Lock()
	s := m.lookupLocked(id)
	if s == nil {
		m.mu.Unlock()
		return Result{}, ErrSessionNotFound
	}
	m.detachLocked(s)
	m.mu.Unlock()
	return m.end(ctx, s, status, cause, keep)
}

func (m *Manager) detachLocked(s *session) {
	m.active = nil
	if s.stopWatch != nil {
		s.stopWatch()
	}
}

// end settles a session that is no longer active.
func (m *Manager) end(ctx context.Context, s *session, status Status, cause error, keep bool) (Result, error) {
	id := s.id
	m.mu.Lock()
	snap := m.snapshotLocked(s, status)
	m.mu.Unlock()

	m.guard.Release(s.token)

	ended := m.now()
	snap.EndedAt = &ended
	if cause != nil {
		snap.Error = cause.Error()
	}

	var res Result
	var err error
	path, significant := s.rec.Stop()
	if keep && significant {
		var t trail.Trail
		t, err = m.trails.Create(ctx, s.name, path)
		if err != nil {
			snap.Error = err.Error()
		} else {
			snap.TrailID = t.ID
			res.Trail = &t
		}
	}
	res.Session = snap

	m.mu.Lock()
	m.ended = &snap
	m.mu.Unlock()

	logf("recording %s %s with %d points", id, status, len(snap.Path))
	marker := snap.Path[len(snap.Path)-1]
	m.publish(id, status, marker, len(snap.Path), snap.Distance, snap.TrailID)
	return res, err
}

// preempt is the guard callback. A session that is not active yet is only
// marked, and its Start ends it.
func (m *Manager) preempt(s *session, by activity.Kind) {
	cause := ErrReplaced
	if by == activity.Playback {
		cause = ErrPreempted
	}

	m.mu.Lock()
	if m.active != s {
		if s.preempted == nil {
			s.preempted = cause
		}
		m.mu.Unlock()
		return
	}
	m.detachLocked(s)
	m.mu.Unlock()

	if _, err := m.end(context.Background(), s, StatusAborted, cause, true); err != nil {
		logf("recording %s: preempt: %v", s.id, err)
	}
}

func (m *Manager) lookupLocked(id string) *session {
	if m.active == nil || m.active.id != id {
		return nil
	}
	return m.active
}

func (m *Manager) snapshotLocked(s *session, status Status) Session {
	return Session{
		ID:        s.id,
		Name:      s.name,
		StartedAt: s.startedAt,
		Status:    status,
		Path:      s.rec.Path(),
		Distance:  s.distance,
		Sampler:   s.rec.State(),
	}
}

func (m *Manager) publish(id string, status Status, marker geo.Point, count int, distance float64, trailID string) {
	if m.pub == nil {
		return
	}
	m.pub.PublishJSON(id, Update{
		Type:       "recording",
		SessionID:  id,
		Status:     status,
		Marker:     marker,
		Center:     geo.Center(marker),
		PointCount: count,
		Distance:   distance,
		TrailID:    trailID,
	})
}
