package sampler

import (
	"testing"

	"backend-trailkeeper/internal/shared/geo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// metresNorth returns a latitude offset of roughly m metres.
func metresNorth(m float64) float64 {
	return m / 111195.0
}

func TestStartAcceptsFirstFix(t *testing.T) {
	fix := geo.Point{Lat: 46.5, Lng: 7.9, Timestamp: 1000}
	path, state := Start(fix)

	require.Equal(t, []geo.Point{fix}, path)
	require.NotNil(t, state.Last)
	assert.Equal(t, fix, *state.Last)
	assert.EqualValues(t, 1000, state.LastTime)
}

func TestOfferAdmissionScenario(t *testing.T) {
	cfg := DefaultConfig()
	rec := NewRecorder(cfg, geo.Point{Lat: 0, Lng: 0, Timestamp: 0})

	assert.False(t, rec.Offer(geo.Point{Lat: 0, Lng: 0, Timestamp: 1000}), "time gate")
	assert.False(t, rec.Offer(geo.Point{Lat: metresNorth(5), Lng: 0, Timestamp: 3000}), "distance gate")
	assert.True(t, rec.Offer(geo.Point{Lat: metresNorth(15), Lng: 0, Timestamp: 3000}))

	path, ok := rec.Stop()
	assert.True(t, ok)
	assert.Len(t, path, 2)
	assert.EqualValues(t, 3000, rec.State().LastTime)
}

func TestOfferRejectLeavesStateUnchanged(t *testing.T) {
	cfg := DefaultConfig()
	_, state := Start(geo.Point{Lat: 0, Lng: 0, Timestamp: 0})

	cases := []geo.Point{
		{Lat: metresNorth(50), Lng: 0, Timestamp: 2499},
		{Lat: metresNorth(9), Lng: 0, Timestamp: 10000},
		{Lat: 0, Lng: 0, Timestamp: 10000},
	}
	for _, fix := range cases {
		d := Offer(cfg, fix, state)
		assert.False(t, d.Accept, "fix %+v", fix)
		assert.Equal(t, state, d.State)
	}
}

func TestOfferAcceptsAtExactThresholds(t *testing.T) {
	cfg := Config{MinInterval: DefaultMinInterval, MinDistance: 0}
	_, state := Start(geo.Point{Lat: 0, Lng: 0, Timestamp: 0})

	d := Offer(cfg, geo.Point{Lat: 0, Lng: 0, Timestamp: 2500}, state)
	require.True(t, d.Accept)
	assert.EqualValues(t, 2500, d.State.LastTime)
}

func TestOfferWithoutLastPointOnlyChecksTime(t *testing.T) {
	cfg := DefaultConfig()
	state := State{LastTime: 0}

	assert.False(t, Offer(cfg, geo.Point{Timestamp: 100}, state).Accept)
	assert.True(t, Offer(cfg, geo.Point{Timestamp: 2500}, state).Accept)
}

func TestRecorderMonotonicity(t *testing.T) {
	cfg := DefaultConfig()
	rec := NewRecorder(cfg, geo.Point{Lat: 0, Lng: 0, Timestamp: 0})

	ts := int64(0)
	lat := 0.0
	for i := 0; i < 50; i++ {
		ts += int64(500 + (i%7)*400)
		lat += metresNorth(float64(i % 13))
		before := len(rec.Path())
		last := rec.Last()
		accepted := rec.Offer(geo.Point{Lat: lat, Lng: 0, Timestamp: ts})
		after := len(rec.Path())

		fix := geo.Point{Lat: lat, Timestamp: ts}
		if ts-last.Timestamp < 2500 || geo.Distance(last, fix) < 10 {
			assert.False(t, accepted)
			assert.Equal(t, before, after)
		} else {
			assert.True(t, accepted)
			assert.Equal(t, before+1, after)
		}
	}
}

func TestStopTrivialPath(t *testing.T) {
	rec := NewRecorder(DefaultConfig(), geo.Point{Lat: 1, Lng: 1, Timestamp: 0})
	rec.Offer(geo.Point{Lat: 1, Lng: 1, Timestamp: 500})

	path, ok := rec.Stop()
	assert.False(t, ok)
	assert.Len(t, path, 1)
}

func TestPathIsCopy(t *testing.T) {
	rec := NewRecorder(DefaultConfig(), geo.Point{Lat: 1, Lng: 1})
	p := rec.Path()
	p[0].Lat = 99
	assert.Equal(t, 1.0, rec.Path()[0].Lat)
	assert.Equal(t, 1, rec.Len())
}
