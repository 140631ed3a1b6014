package smooth

import (
	"errors"
	"fmt"

	"github.com/planbiir/gpxtools/internal/gpx"
)

// ErrConfiguration marks smoothing parameters that are rejected before any
// processing starts.
var ErrConfiguration = errors.New("invalid smoothing configuration")

// Policy names accepted in Config.Policy.
const (
	PolicyWindowed       = "windowed"
	PolicyElevationGated = "elevation"
)

// Elevation-gated guards, in meters.
const (
	elevationGuard   = 1.0   // larger climbs always keep the point
	elevationAnomaly = 50.0  // warn above this jump between compared points
	distanceAnomaly  = 100.0 // warn above this distance between compared points
)

// A collapse needs at least one point between first and last.
const minCollapsibleWindow = 3

// Policy decides which points of one segment survive smoothing.
type Policy interface {
	Name() string
	Apply(points []gpx.Point) Result
}

// Result is the outcome of a Policy on one segment.
type Result struct {
	Points    []gpx.Point
	Removed   int
	Anomalies int
}

// Config holds smoothing parameters
type Config struct {
	Policy            string  `yaml:"policy" json:"policy"`
	WindowSize        int     `yaml:"window_size" json:"window_size"`                   // points per window (windowed only)
	DistanceThreshold float64 `yaml:"distance_threshold_m" json:"distance_threshold_m"` // meters
}

// DefaultConfig returns the defaults of the original tool: windowed policy,
// 5 point window, 15 m threshold.
func DefaultConfig() Config {
	return Config{
		Policy:            PolicyWindowed,
		WindowSize:        5,
		DistanceThreshold: 15,
	}
}

// Validate rejects parameters no policy can run with.
func (c Config) Validate() error {
	if c.DistanceThreshold < 0 {
		return fmt.Errorf("%w: distance threshold must not be negative, got %g", ErrConfiguration, c.DistanceThreshold)
	}
	switch c.Policy {
	case PolicyWindowed:
		if c.WindowSize < minCollapsibleWindow {
			return fmt.Errorf("%w: window size must be greater than 2, got %d", ErrConfiguration, c.WindowSize)
		}
	case PolicyElevationGated:
	default:
		return fmt.Errorf("%w: unknown policy %q (want %s or %s)", ErrConfiguration, c.Policy, PolicyWindowed, PolicyElevationGated)
	}
	return nil
}

// SegmentStats reports smoothing of a single segment.
type SegmentStats struct {
	Index     int `json:"index"`
	Before    int `json:"before"`
	After     int `json:"after"`
	Anomalies int `json:"anomalies,omitempty"`
}

// Stats represents smoothing results for a document
type Stats struct {
	Policy    string         `json:"policy"`
	Examined  int            `json:"examined_points"`
	Removed   int            `json:"removed_points"`
	Remaining int            `json:"remaining_points"`
	Anomalies int            `json:"anomalies"`
	Segments  []SegmentStats `json:"segments,omitempty"`
}
