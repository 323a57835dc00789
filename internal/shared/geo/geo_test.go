package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceJakartaBandung(t *testing.T) {
	// Jakarta (-6.2, 106.816) to Bandung (-6.9175, 107.6191) ~ 115-120 km
	d := Distance(Point{Lat: -6.2, Lng: 106.816}, Point{Lat: -6.9175, Lng: 107.6191})
	if d < 100000 || d > 140000 {
		t.Fatalf("unexpected distance: %v", d)
	}
}

func TestDistanceOneDegreeAtEquator(t *testing.T) {
	d := Distance(Point{Lat: 0, Lng: 0}, Point{Lat: 0, Lng: 1})
	assert.InEpsilon(t, 111195.0, d, 0.005)
}

func TestDistanceSymmetricAndNonNegative(t *testing.T) {
	points := []Point{
		{Lat: 0, Lng: 0},
		{Lat: 51.5007, Lng: -0.1246},
		{Lat: -33.8568, Lng: 151.2153},
		{Lat: 89.9, Lng: 179.9},
		{Lat: -89.9, Lng: -179.9},
		{Lat: 0, Lng: 180},
		{Lat: 0, Lng: -180},
	}
	for _, a := range points {
		for _, b := range points {
			ab := Distance(a, b)
			ba := Distance(b, a)
			assert.GreaterOrEqual(t, ab, 0.0)
			assert.Equal(t, ab, ba, "distance %v -> %v", a, b)
			if a.Lat == b.Lat && a.Lng == b.Lng {
				assert.Zero(t, ab)
			} else {
				assert.Greater(t, ab, 0.0, "distance %v -> %v", a, b)
			}
		}
	}
}

func TestDistanceIgnoresTimestamp(t *testing.T) {
	a := Point{Lat: 10, Lng: 10, Timestamp: 0}
	b := Point{Lat: 10, Lng: 10, Timestamp: 99999}
	assert.Zero(t, Distance(a, b))
}

func TestPathDistanceIsSumOfPairs(t *testing.T) {
	path := []Point{
		{Lat: 0, Lng: 0, Timestamp: 0},
		{Lat: 0, Lng: 0.001, Timestamp: 1000},
		{Lat: 0.001, Lng: 0.001, Timestamp: 2000},
		{Lat: 0.002, Lng: 0.003, Timestamp: 5000},
	}
	want := Distance(path[0], path[1]) + Distance(path[1], path[2]) + Distance(path[2], path[3])
	assert.InDelta(t, want, PathDistance(path), 1e-9)

	assert.Zero(t, PathDistance(nil))
	assert.Zero(t, PathDistance(path[:1]))
}

func TestPathDuration(t *testing.T) {
	path := []Point{{Timestamp: 1000}, {Timestamp: 1500}, {Timestamp: 10000}}
	require.EqualValues(t, 9000, PathDuration(path))
	require.Zero(t, PathDuration(path[:1]))
	require.Zero(t, PathDuration(nil))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid(Point{Lat: 45, Lng: 7}))
	assert.True(t, Valid(Point{Lat: -90, Lng: 180}))
	assert.False(t, Valid(Point{Lat: math.NaN(), Lng: 0}))
	assert.False(t, Valid(Point{Lat: 0, Lng: math.Inf(1)}))
	assert.False(t, Valid(Point{Lat: 91, Lng: 0}))
	assert.False(t, Valid(Point{Lat: 0, Lng: -181}))
}

func TestCenter(t *testing.T) {
	assert.Equal(t, [2]float64{1.5, -2.5}, Center(Point{Lat: 1.5, Lng: -2.5}))
}
