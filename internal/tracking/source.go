package tracking

import (
	"context"
	"sync"

	"backend-trailkeeper/internal/shared/geo"
)

// FixSource delivers fixes until ctx is cancelled. A value on the error
// channel ends the recording.
type FixSource interface {
	Start(ctx context.Context) (<-chan geo.Point, <-chan error, error)
}

// ChannelSource is a FixSource fed by Push and Fail.
type ChannelSource struct {
	fixes chan geo.Point
	errs  chan error

	mu      sync.Mutex
	watched context.Context
}

func NewChannelSource(buffer int) *ChannelSource {
	return &ChannelSource{
		fixes: make(chan geo.Point, buffer),
		errs:  make(chan error, 1),
	}
}

func (s *ChannelSource) Start(ctx context.Context) (<-chan geo.Point, <-chan error, error) {
	s.mu.Lock()
	s.watched = ctx
	s.mu.Unlock()
	return s.fixes, s.errs, nil
}

// Push hands fix to the watcher. It gives up once ctx or the watch ends.
func (s *ChannelSource) Push(ctx context.Context, fix geo.Point) error {
	var watchDone <-chan struct{}
	s.mu.Lock()
	if s.watched != nil {
		watchDone = s.watched.Done()
	}
	s.mu.Unlock()

	select {
	case s.fixes <- fix:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-watchDone:
		return context.Canceled
	}
}

// Fail reports a source failure. Only the first one is kept.
func (s *ChannelSource) Fail(err error) {
	select {
	case s.errs <- err:
	default:
	}
}
