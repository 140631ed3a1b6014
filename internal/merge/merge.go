package merge

import (
	"errors"
	"fmt"

	"github.com/planbiir/gpxtools/internal/gpx"
)

// Stats reports what happened during the merge so callers can surface it to users.
type Stats struct {
	SegmentsAdded  int  `json:"segments_added"`
	WaypointsAdded int  `json:"waypoints_added"`
	TrackCreated   bool `json:"track_created"`
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.SegmentsAdded += other.SegmentsAdded
	s.WaypointsAdded += other.WaypointsAdded
	s.TrackCreated = s.TrackCreated || other.TrackCreated
}

// Merge appends the track segments and waypoints of secondary to primary.
//
// Segments of every secondary track go to the end of primary's track, which
// is created when primary has none and secondary contributes segments.
// Waypoints follow primary's existing waypoints in secondary's order. Nothing
// is reordered or deduplicated. Secondary is only read; primary receives
// deep copies, along with any namespace declarations it lacks.
func Merge(primary, secondary *gpx.GPX) (Stats, error) {
	if primary == nil {
		return Stats{}, errors.New("primary track is nil")
	}
	if secondary == nil {
		return Stats{}, errors.New("secondary track is nil")
	}
	if len(primary.Tracks) > 1 {
		return Stats{}, fmt.Errorf("%w: primary has %d trk elements", gpx.ErrInvalidDocument, len(primary.Tracks))
	}

	var stats Stats
	primary.AdoptNamespaces(secondary)

	var segments []gpx.Segment
	for _, trk := range secondary.Tracks {
		segments = append(segments, trk.Segments...)
	}

	if len(segments) > 0 {
		stats.TrackCreated = primary.Track() == nil
		trk := primary.EnsureTrack()
		trk.Segments = append(trk.Segments, gpx.CloneSegments(segments)...)
		stats.SegmentsAdded = len(segments)
	}

	if len(secondary.Waypoints) > 0 {
		primary.Waypoints = append(primary.Waypoints, gpx.CloneWaypoints(secondary.Waypoints)...)
		stats.WaypointsAdded = len(secondary.Waypoints)
	}

	return stats, nil
}

// Fold merges docs left to right into docs[0], which is returned. Each merge
// depends on the previous result, so this always runs sequentially. onStep,
// if set, is called after each merge with the index of the merged document.
func Fold(docs []*gpx.GPX, onStep func(i int, stats Stats)) (*gpx.GPX, Stats, error) {
	if len(docs) == 0 {
		return nil, Stats{}, errors.New("nothing to merge")
	}

	primary := docs[0]
	var total Stats

	for i := 1; i < len(docs); i++ {
		stats, err := Merge(primary, docs[i])
		if err != nil {
			return nil, total, err
		}
		total.Add(stats)
		if onStep != nil {
			onStep(i, stats)
		}
	}

	return primary, total, nil
}
