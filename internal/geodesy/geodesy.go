// Package geodesy provides the surface distance capability the smoothing
// policies depend on.
package geodesy

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/tidwall/geodesic"
)

// Provider returns the surface distance in meters between two points.
type Provider interface {
	Distance(a, b orb.Point) float64
}

// Model names accepted by ByName.
const (
	ModelWGS84     = "wgs84"
	ModelHaversine = "haversine"
)

// WGS84 computes geodesic distances on the WGS-84 ellipsoid.
type WGS84 struct{}

// Distance implements Provider.
func (WGS84) Distance(a, b orb.Point) float64 {
	var s12 float64
	geodesic.WGS84.Inverse(a.Lat(), a.Lon(), b.Lat(), b.Lon(), &s12, nil, nil)
	return s12
}

// Haversine computes great-circle distances on a sphere. Faster, and off by
// up to ~0.5% compared to WGS84.
type Haversine struct{}

// Distance implements Provider.
func (Haversine) Distance(a, b orb.Point) float64 {
	return geo.DistanceHaversine(a, b)
}

// ByName returns the provider for a model name. An empty name selects WGS84.
func ByName(name string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ModelWGS84, "wgs-84":
		return WGS84{}, nil
	case ModelHaversine:
		return Haversine{}, nil
	default:
		return nil, fmt.Errorf("unknown geodesic model %q (want %s or %s)", name, ModelWGS84, ModelHaversine)
	}
}

// PathLength sums the distances between consecutive points.
func PathLength(p Provider, points []orb.Point) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += p.Distance(points[i-1], points[i])
	}
	return total
}
