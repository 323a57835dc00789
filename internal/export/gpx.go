// Package export renders stored trails in interchange formats.
package export

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"

	"backend-trailkeeper/internal/trail"
)

const creator = "trailkeeper"

type gpxDoc struct {
	XMLName xml.Name    `xml:"gpx"`
	Xmlns   string      `xml:"xmlns,attr"`
	Version string      `xml:"version,attr"`
	Creator string      `xml:"creator,attr"`
	Meta    gpxMetadata `xml:"metadata"`
	Tracks  []gpxTrack  `xml:"trk"`
}

type gpxMetadata struct {
	Name string `xml:"name,omitempty"`
	Time string `xml:"time,omitempty"`
}

type gpxTrack struct {
	Name     string       `xml:"name,omitempty"`
	Segments []gpxSegment `xml:"trkseg"`
}

type gpxSegment struct {
	Points []gpxPoint `xml:"trkpt"`
}

type gpxPoint struct {
	Lat  float64 `xml:"lat,attr"`
	Lon  float64 `xml:"lon,attr"`
	Time string  `xml:"time"`
}

// GPX renders t as a GPX 1.1 document with a single track segment.
func GPX(t trail.Trail) ([]byte, error) {
	seg := gpxSegment{Points: make([]gpxPoint, 0, len(t.Path))}
	for _, p := range t.Path {
		seg.Points = append(seg.Points, gpxPoint{Lat: p.Lat, Lon: p.Lng, Time: rfc3339(p.Timestamp)})
	}
	doc := gpxDoc{
		Xmlns:   "http://www.topografix.com/GPX/1/1",
		Version: "1.1",
		Creator: creator,
		Meta:    gpxMetadata{Name: t.Name, Time: rfc3339(t.StartTime)},
		Tracks:  []gpxTrack{{Name: t.Name, Segments: []gpxSegment{seg}}},
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode GPX: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func rfc3339(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339Nano)
}
