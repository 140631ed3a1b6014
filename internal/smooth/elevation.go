package smooth

import (
	"log/slog"
	"math"

	"github.com/planbiir/gpxtools/internal/geodesy"
	"github.com/planbiir/gpxtools/internal/gpx"
)

// ElevationGated compares every point with the previously retained one.
// A climb or descent above 1 m always keeps the point; otherwise points
// closer than Threshold are dropped. Jumps above 50 m of elevation or 100 m
// of distance are logged as warnings.
type ElevationGated struct {
	Threshold float64
	Distance  geodesy.Provider
	Logger    *slog.Logger
}

// Name implements Policy.
func (e ElevationGated) Name() string { return PolicyElevationGated }

// Apply implements Policy.
func (e ElevationGated) Apply(points []gpx.Point) Result {
	if len(points) == 0 {
		return Result{Points: points}
	}

	dist := e.Distance
	if dist == nil {
		dist = geodesy.WGS84{}
	}
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var res Result
	kept := make([]gpx.Point, 0, len(points))
	kept = append(kept, points[0])
	prev := points[0]

	for _, pt := range points[1:] {
		eleDiff := math.Abs(pt.Ele() - prev.Ele())
		d := dist.Distance(prev.Coord(), pt.Coord())

		if eleDiff > elevationAnomaly {
			res.Anomalies++
			logger.Warn("Elevation jump between points", "from", prev.Time, "to", pt.Time, "delta_m", eleDiff)
		}
		if d > distanceAnomaly {
			res.Anomalies++
			logger.Warn("Distance jump between points", "from", prev.Time, "to", pt.Time, "distance_m", d)
		}

		if eleDiff <= elevationGuard && d < e.Threshold {
			res.Removed++
			continue
		}

		kept = append(kept, pt)
		prev = pt
	}

	res.Points = kept
	return res
}
