package smooth

import (
	"github.com/planbiir/gpxtools/internal/geodesy"
	"github.com/planbiir/gpxtools/internal/gpx"
)

// Windowed collapses stationary clusters with a sliding buffer.
//
// Points are buffered until WindowSize are held. If the first and last
// buffered points are closer than Threshold, every point between them is
// dropped and the buffer restarts as [first, last]; otherwise the oldest
// point slides out. A trailing buffer shorter than WindowSize is kept as is.
type Windowed struct {
	WindowSize int
	Threshold  float64
	Distance   geodesy.Provider
}

// Name implements Policy.
func (w Windowed) Name() string { return PolicyWindowed }

// Apply implements Policy.
func (w Windowed) Apply(points []gpx.Point) Result {
	dist := w.Distance
	if dist == nil {
		dist = geodesy.WGS84{}
	}

	dropped := make([]bool, len(points))
	removed := 0
	buf := make([]int, 0, max(w.WindowSize, 0))

	for i := range points {
		buf = append(buf, i)
		if len(buf) < w.WindowSize {
			continue
		}

		first, last := buf[0], buf[len(buf)-1]
		if len(buf) > 2 && dist.Distance(points[first].Coord(), points[last].Coord()) < w.Threshold {
			for _, idx := range buf[1 : len(buf)-1] {
				dropped[idx] = true
				removed++
			}
			buf[1] = last
			buf = buf[:2]
			continue
		}

		buf = append(buf[:0], buf[1:]...)
	}

	if removed == 0 {
		return Result{Points: points}
	}

	kept := make([]gpx.Point, 0, len(points)-removed)
	for i, pt := range points {
		if !dropped[i] {
			kept = append(kept, pt)
		}
	}
	return Result{Points: kept, Removed: removed}
}
