// Package dedupe removes trackpoints whose timestamp already appeared
// earlier in the document.
package dedupe

import (
	"errors"
	"fmt"

	"github.com/planbiir/gpxtools/internal/gpx"
)

// ErrInvariantViolation is returned when the point bookkeeping does not add up
// after filtering. It means a bug, never bad input.
var ErrInvariantViolation = errors.New("internal invariant violated")

// Stats reports the result of Filter.
type Stats struct {
	Examined        int `json:"examined_points"`
	Removed         int `json:"removed_points"`
	Distinct        int `json:"distinct_timestamps"`
	SegmentsRemoved int `json:"removed_segments"`
}

// Filter drops every point whose timestamp was already seen anywhere earlier
// in the document, in segment order then point order. An empty timestamp is
// an ordinary key. Segments left without points are removed.
func Filter(doc *gpx.GPX) (Stats, error) {
	var stats Stats
	trk := doc.Track()
	if trk == nil {
		return stats, nil
	}

	seen := make(map[string]struct{})
	segments := make([]gpx.Segment, 0, len(trk.Segments))

	for _, seg := range trk.Segments {
		kept, removed := filterSegment(seg.Points, seen)
		stats.Examined += len(seg.Points)
		stats.Removed += removed

		if len(kept) == 0 {
			stats.SegmentsRemoved++
			continue
		}
		seg.Points = kept
		segments = append(segments, seg)
	}

	trk.Segments = segments
	stats.Distinct = len(seen)

	if stats.Examined-stats.Distinct != stats.Removed {
		return stats, fmt.Errorf("%w: examined %d, distinct %d, removed %d",
			ErrInvariantViolation, stats.Examined, stats.Distinct, stats.Removed)
	}

	return stats, nil
}

// filterSegment returns the points of one segment whose timestamps are not in
// seen yet, recording them as it goes.
func filterSegment(points []gpx.Point, seen map[string]struct{}) ([]gpx.Point, int) {
	kept := make([]gpx.Point, 0, len(points))
	removed := 0
	for _, pt := range points {
		if _, dup := seen[pt.Time]; dup {
			removed++
			continue
		}
		seen[pt.Time] = struct{}{}
		kept = append(kept, pt)
	}
	return kept, removed
}
