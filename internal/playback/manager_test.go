package playback

import (
	"context"
	"sync"
	"testing"

	"backend-trailkeeper/internal/activity"
	"backend-trailkeeper/internal/shared/geo"
	"backend-trailkeeper/internal/trail"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trailMap map[string]trail.Trail

func (m trailMap) Get(_ context.Context, id string) (trail.Trail, error) {
	t, ok := m[id]
	if !ok {
		return trail.Trail{}, trail.ErrTrailNotFound
	}
	return t, nil
}

type capturePublisher struct {
	mu       sync.Mutex
	messages map[string][]any
}

func (p *capturePublisher) PublishJSON(sessionID string, v any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.messages == nil {
		p.messages = map[string][]any{}
	}
	p.messages[sessionID] = append(p.messages[sessionID], v)
}

func (p *capturePublisher) count(sessionID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages[sessionID])
}

func testTrails() trailMap {
	return trailMap{
		"trail-1": {ID: "trail-1", Name: "Morning", Path: tenPoints()},
		"empty":   {ID: "empty"},
	}
}

func TestManagerStartAndControl(t *testing.T) {
	pub := &capturePublisher{}
	m := NewManager(testTrails(), activity.NewGuard(), pub, 0)
	defer m.Close()

	snap, err := m.Start(context.Background(), "trail-1", 0)
	require.NoError(t, err)
	assert.Equal(t, "playback", snap.Type)
	assert.Equal(t, "trail-1", snap.TrailID)
	assert.Equal(t, Idle, snap.State)
	assert.Equal(t, 1.0, snap.Speed)
	assert.Positive(t, pub.count(snap.SessionID))

	snap, err = m.Seek(snap.SessionID, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 4, snap.Index)

	snap, err = m.SetSpeed(snap.SessionID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3.0, snap.Speed)

	_, err = m.SetSpeed(snap.SessionID, -1)
	assert.ErrorIs(t, err, ErrInvalidSpeed)

	snap, err = m.Play(snap.SessionID)
	require.NoError(t, err)
	assert.Equal(t, Playing, snap.State)

	snap, err = m.Pause(snap.SessionID)
	require.NoError(t, err)
	assert.Equal(t, Paused, snap.State)

	got, err := m.Get(snap.SessionID)
	require.NoError(t, err)
	assert.Equal(t, snap.SessionID, got.SessionID)

	require.NoError(t, m.Stop(snap.SessionID))
	_, err = m.Get(snap.SessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, m.Stop(snap.SessionID), ErrSessionNotFound)
}

func TestManagerStartErrors(t *testing.T) {
	m := NewManager(testTrails(), nil, nil, 0)

	_, err := m.Start(context.Background(), "missing", 1)
	assert.ErrorIs(t, err, trail.ErrTrailNotFound)

	_, err = m.Start(context.Background(), "empty", 1)
	assert.ErrorIs(t, err, ErrInvalidTrail)

	_, err = m.Start(context.Background(), "trail-1", -2)
	assert.ErrorIs(t, err, ErrInvalidSpeed)

	_, ok := m.guard.Current()
	assert.False(t, ok)
}

func TestManagerNewSessionPreemptsOld(t *testing.T) {
	guard := activity.NewGuard()
	m := NewManager(testTrails(), guard, nil, 0)
	defer m.Close()

	first, err := m.Start(context.Background(), "trail-1", 1)
	require.NoError(t, err)
	second, err := m.Start(context.Background(), "trail-1", 2)
	require.NoError(t, err)

	_, err = m.Play(first.SessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	snap, err := m.Get(second.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 2.0, snap.Speed)

	kind, ok := guard.Current()
	assert.True(t, ok)
	assert.Equal(t, activity.Playback, kind)
}

func TestManagerCancelsRecording(t *testing.T) {
	guard := activity.NewGuard()
	cancelled := false
	guard.Acquire(activity.Recording, func(activity.Kind) { cancelled = true })

	m := NewManager(testTrails(), guard, nil, 0)
	defer m.Close()
	_, err := m.Start(context.Background(), "trail-1", 1)
	require.NoError(t, err)
	assert.True(t, cancelled)
}

func TestManagerPreemptedByRecording(t *testing.T) {
	guard := activity.NewGuard()
	m := NewManager(testTrails(), guard, nil, 0)

	snap, err := m.Start(context.Background(), "trail-1", 1)
	require.NoError(t, err)
	_, err = m.Play(snap.SessionID)
	require.NoError(t, err)

	guard.Acquire(activity.Recording, func(activity.Kind) {})
	_, err = m.Get(snap.SessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManagerStartRacingRecording(t *testing.T) {
	ctx := context.Background()
	for i := 0; i < 200; i++ {
		guard := activity.NewGuard()
		m := NewManager(testTrails(), guard, nil, 0)

		var wg sync.WaitGroup
		var startErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, startErr = m.Start(ctx, "trail-1", 1)
		}()
		go func() {
			defer wg.Done()
			guard.Acquire(activity.Recording, func(activity.Kind) {})
		}()
		wg.Wait()

		kind, ok := guard.Current()
		require.True(t, ok)
		m.mu.Lock()
		live := m.active != nil
		m.mu.Unlock()
		require.Equal(t, kind == activity.Playback, live, "iteration %d: guard holds %s", i, kind)
		if startErr != nil {
			assert.ErrorIs(t, startErr, ErrPreempted)
		}
		m.Close()
	}
}

func TestManagerConcurrentStartsKeepOnePlayback(t *testing.T) {
	ctx := context.Background()
	for i := 0; i < 200; i++ {
		guard := activity.NewGuard()
		m := NewManager(testTrails(), guard, nil, 0)

		var wg sync.WaitGroup
		ids := make([]string, 2)
		errs := make([]error, 2)
		for j := range 2 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				snap, err := m.Start(ctx, "trail-1", 1)
				ids[j], errs[j] = snap.SessionID, err
			}()
		}
		wg.Wait()

		live := 0
		for j, id := range ids {
			if errs[j] != nil {
				assert.ErrorIs(t, errs[j], ErrPreempted)
				continue
			}
			if _, err := m.Get(id); err == nil {
				live++
			}
		}
		require.Equal(t, 1, live, "iteration %d", i)

		kind, ok := guard.Current()
		require.True(t, ok)
		assert.Equal(t, activity.Playback, kind)
		m.Close()
	}
}

func TestSnapshotFlattensEvent(t *testing.T) {
	s := Snapshot{Type: "playback", SessionID: "s", TrailID: "t", Event: Event{State: Paused, Marker: geo.Point{Lat: 1}}}
	assert.Equal(t, Paused, s.State)
	assert.Equal(t, 1.0, s.Marker.Lat)
}
