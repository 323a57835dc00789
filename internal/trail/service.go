package trail

import (
	"context"
	"sync"

	"backend-trailkeeper/internal/shared/geo"
)

// Service applies read-modify-write updates to the stored collection.
type Service struct {
	store Store
	mu    sync.Mutex
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create summarizes path into a new Trail and persists it.
// A path with fewer than two points yields ErrTrivialPath and nothing is written.
func (s *Service) Create(ctx context.Context, name string, path []geo.Point) (Trail, error) {
	t, err := New(name, path)
	if err != nil {
		return Trail{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	trails, err := s.store.LoadAll(ctx)
	if err != nil {
		return Trail{}, err
	}
	if err := s.store.SaveAll(ctx, trails.With(t)); err != nil {
		return Trail{}, err
	}
	return t, nil
}

func (s *Service) List(ctx context.Context) (Collection, error) {
	return s.store.LoadAll(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (Trail, error) {
	trails, err := s.store.LoadAll(ctx)
	if err != nil {
		return Trail{}, err
	}
	t, ok := trails.Find(id)
	if !ok {
		return Trail{}, ErrTrailNotFound
	}
	return t, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	trails, err := s.store.LoadAll(ctx)
	if err != nil {
		return err
	}
	remaining, ok := trails.Without(id)
	if !ok {
		return ErrTrailNotFound
	}
	return s.store.SaveAll(ctx, remaining)
}
