package export

import (
	"backend-trailkeeper/internal/trail"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeoJSON renders t as a Feature with a LineString geometry. Point times go
// into the coordTimes property as epoch milliseconds.
func GeoJSON(t trail.Trail) ([]byte, error) {
	line := make(orb.LineString, 0, len(t.Path))
	times := make([]int64, 0, len(t.Path))
	for _, p := range t.Path {
		line = append(line, orb.Point{p.Lng, p.Lat})
		times = append(times, p.Timestamp)
	}

	f := geojson.NewFeature(line)
	f.ID = t.ID
	f.BBox = geojson.NewBBox(line.Bound())
	f.Properties["name"] = t.Name
	f.Properties["start_time"] = t.StartTime
	f.Properties["end_time"] = t.EndTime
	f.Properties["duration_ms"] = t.Duration()
	f.Properties["distance"] = t.Distance
	f.Properties["coordTimes"] = times
	return f.MarshalJSON()
}
