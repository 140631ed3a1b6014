// Package smooth collapses clusters of near-stationary trackpoints.
package smooth

import (
	"log/slog"

	"github.com/planbiir/gpxtools/internal/geodesy"
	"github.com/planbiir/gpxtools/internal/gpx"
)

// New builds the policy named in cfg after validating it.
func New(cfg Config, dist geodesy.Provider, logger *slog.Logger) (Policy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if dist == nil {
		dist = geodesy.WGS84{}
	}

	if cfg.Policy == PolicyElevationGated {
		return ElevationGated{
			Threshold: cfg.DistanceThreshold,
			Distance:  dist,
			Logger:    logger,
		}, nil
	}
	return Windowed{
		WindowSize: cfg.WindowSize,
		Threshold:  cfg.DistanceThreshold,
		Distance:   dist,
	}, nil
}

// Smooth applies p to every segment of doc independently; no decision ever
// spans a segment boundary.
func Smooth(doc *gpx.GPX, p Policy) Stats {
	stats := Stats{Policy: p.Name()}

	trk := doc.Track()
	if trk == nil {
		return stats
	}

	for i := range trk.Segments {
		seg := &trk.Segments[i]
		before := len(seg.Points)

		res := p.Apply(seg.Points)
		seg.Points = res.Points

		stats.Examined += before
		stats.Removed += res.Removed
		stats.Anomalies += res.Anomalies
		stats.Segments = append(stats.Segments, SegmentStats{
			Index:     i,
			Before:    before,
			After:     len(res.Points),
			Anomalies: res.Anomalies,
		})
	}

	stats.Remaining = stats.Examined - stats.Removed
	return stats
}
