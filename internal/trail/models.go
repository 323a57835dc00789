package trail

import (
	"errors"
	"fmt"
	"time"

	"backend-trailkeeper/internal/shared/geo"

	"github.com/google/uuid"
)

var (
	ErrTrivialPath   = errors.New("no significant path recorded")
	ErrInvalidPath   = errors.New("path has invalid coordinates or out-of-order timestamps")
	ErrTrailNotFound = errors.New("trail not found")
)

// Trail is a finished recording. It is never modified after creation.
type Trail struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	StartTime int64       `json:"start_time"`
	EndTime   int64       `json:"end_time"`
	Path      []geo.Point `json:"path"`
	Distance  float64     `json:"distance"`
}

// Summary is a Trail without its path, for listings.
type Summary struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	StartTime  int64   `json:"start_time"`
	EndTime    int64   `json:"end_time"`
	DurationMS int64   `json:"duration_ms"`
	Distance   float64 `json:"distance"`
	PointCount int     `json:"point_count"`
}

var newID = func() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// New summarizes an accepted path into a Trail.
func New(name string, path []geo.Point) (Trail, error) {
	if len(path) < 2 {
		return Trail{}, ErrTrivialPath
	}
	if err := ValidatePath(path); err != nil {
		return Trail{}, err
	}

	id, err := newID()
	if err != nil {
		return Trail{}, fmt.Errorf("trail id: %w", err)
	}

	owned := make([]geo.Point, len(path))
	copy(owned, path)

	if name == "" {
		name = DefaultName(owned[0].Timestamp)
	}

	return Trail{
		ID:        id,
		Name:      name,
		StartTime: owned[0].Timestamp,
		EndTime:   owned[len(owned)-1].Timestamp,
		Path:      owned,
		Distance:  geo.PathDistance(owned),
	}, nil
}

// DefaultName labels a trail by its start time.
func DefaultName(startMS int64) string {
	return "Trail " + time.UnixMilli(startMS).UTC().Format("2006-01-02 15:04")
}

// ValidatePath checks coordinates and timestamp ordering.
func ValidatePath(path []geo.Point) error {
	for i, p := range path {
		if !geo.Valid(p) {
			return fmt.Errorf("%w: point %d", ErrInvalidPath, i)
		}
		if i > 0 && p.Timestamp < path[i-1].Timestamp {
			return fmt.Errorf("%w: point %d", ErrInvalidPath, i)
		}
	}
	return nil
}

func (t Trail) Duration() int64 {
	return geo.PathDuration(t.Path)
}

func (t Trail) Summary() Summary {
	return Summary{
		ID:         t.ID,
		Name:       t.Name,
		StartTime:  t.StartTime,
		EndTime:    t.EndTime,
		DurationMS: t.Duration(),
		Distance:   t.Distance,
		PointCount: len(t.Path),
	}
}

// Collection is the ordered set of stored trails, newest first.
type Collection []Trail

func (c Collection) Find(id string) (Trail, bool) {
	for _, t := range c {
		if t.ID == id {
			return t, true
		}
	}
	return Trail{}, false
}

// With returns a collection holding t at the front, replacing any trail with the same id.
func (c Collection) With(t Trail) Collection {
	out := make(Collection, 0, len(c)+1)
	out = append(out, t)
	for _, existing := range c {
		if existing.ID != t.ID {
			out = append(out, existing)
		}
	}
	return out
}

// Without returns the collection minus the trail with id, and whether it was present.
func (c Collection) Without(id string) (Collection, bool) {
	out := make(Collection, 0, len(c))
	found := false
	for _, existing := range c {
		if existing.ID == id {
			found = true
			continue
		}
		out = append(out, existing)
	}
	return out, found
}

func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	for i, t := range c {
		path := make([]geo.Point, len(t.Path))
		copy(path, t.Path)
		t.Path = path
		out[i] = t
	}
	return out
}
