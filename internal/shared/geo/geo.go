package geo

import "math"

// EarthRadiusM is the mean Earth radius used by every distance in the service.
const EarthRadiusM = 6371000.0

// Point is a single location fix. Timestamp is epoch milliseconds.
type Point struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Timestamp int64   `json:"timestamp"`
}

// Distance returns the great-circle distance between a and b in metres.
func Distance(a, b Point) float64 {
	return haversine(a.Lat, a.Lng, b.Lat, b.Lng)
}

func haversine(lat1, lng1, lat2, lng2 float64) float64 {
	if lat1 == lat2 && lng1 == lng2 {
		return 0
	}

	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusM * c
}

// PathDistance sums the distance between consecutive points.
func PathDistance(path []Point) float64 {
	if len(path) < 2 {
		return 0
	}
	var total float64
	for i := 1; i < len(path); i++ {
		total += Distance(path[i-1], path[i])
	}
	return total
}

// PathDuration returns the elapsed milliseconds between the first and last point.
func PathDuration(path []Point) int64 {
	if len(path) < 2 {
		return 0
	}
	return path[len(path)-1].Timestamp - path[0].Timestamp
}

// Valid reports whether p carries finite, in-range coordinates.
// Distance is undefined for fixes that fail this check.
func Valid(p Point) bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Center returns the [lat, lng] pair a map view centres on.
func Center(p Point) [2]float64 {
	return [2]float64{p.Lat, p.Lng}
}
