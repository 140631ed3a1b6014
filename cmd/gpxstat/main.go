package main

import (
	"fmt"
	"io"
	"os"

	"github.com/paulmach/orb"
	"github.com/urfave/cli/v2"

	"github.com/planbiir/gpxtools/internal/dedupe"
	"github.com/planbiir/gpxtools/internal/geodesy"
	"github.com/planbiir/gpxtools/internal/gpx"
	"github.com/planbiir/gpxtools/internal/logging"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		logging.New(os.Stderr, "INFO").Error("gpxstat failed", "error", err)
		os.Exit(1)
	}
}

func newApp(stdout io.Writer) *cli.App {
	return &cli.App{
		Name:      "gpxstat",
		Usage:     "Show what a merge would see in each GPX file",
		UsageText: "gpxstat [--geodesic wgs84|haversine] <file.gpx> [file.gpx ...]",
		Writer:    stdout,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "geodesic",
				Usage: "Distance model: wgs84 or haversine",
				Value: geodesy.ModelWGS84,
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: DEBUG, INFO, WARN, ERROR",
				Value: "INFO",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("usage: %s", c.App.UsageText)
			}
			logger := logging.Init(os.Stderr, c.String("log-level"))
			dist, err := geodesy.ByName(c.String("geodesic"))
			if err != nil {
				return err
			}
			for i, path := range c.Args().Slice() {
				if i > 0 {
					fmt.Fprintln(stdout)
				}
				logger.Debug("Reading file", "path", path)
				doc, err := gpx.Parse(path)
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "File: %s\n", path)
				if err := printTrackStats(stdout, doc, dist); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// TrackStats summarizes one document.
type TrackStats struct {
	Segments      int
	Points        int
	Waypoints     int
	DuplicateTime int
	FirstTime     string
	LastTime      string
	LengthKm      float64
	Bound         orb.Bound
}

func collectStats(doc *gpx.GPX, dist geodesy.Provider) (TrackStats, error) {
	stats := TrackStats{
		Segments:  doc.SegmentCount(),
		Points:    doc.PointCount(),
		Waypoints: len(doc.Waypoints),
	}

	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			coords := make([]orb.Point, len(seg.Points))
			for i, pt := range seg.Points {
				coords[i] = pt.Coord()
				if pt.Time == "" {
					continue
				}
				if stats.FirstTime == "" {
					stats.FirstTime = pt.Time
				}
				stats.LastTime = pt.Time
			}
			stats.LengthKm += geodesy.PathLength(dist, coords) / 1000
		}
	}

	if stats.Points > 0 || stats.Waypoints > 0 {
		stats.Bound = doc.Bound()
	}

	// Filter works in place, so count duplicates on a copy.
	dup, err := dedupe.Filter(doc.Clone())
	if err != nil {
		return stats, err
	}
	stats.DuplicateTime = dup.Removed

	return stats, nil
}

func printTrackStats(w io.Writer, doc *gpx.GPX, dist geodesy.Provider) error {
	stats, err := collectStats(doc, dist)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "  Segments: %d\n", stats.Segments)
	fmt.Fprintf(w, "  Points: %d\n", stats.Points)
	fmt.Fprintf(w, "  Waypoints: %d\n", stats.Waypoints)
	fmt.Fprintf(w, "  Duplicate timestamps: %d\n", stats.DuplicateTime)
	if stats.FirstTime != "" {
		fmt.Fprintf(w, "  Time: %s -> %s\n", stats.FirstTime, stats.LastTime)
	}
	fmt.Fprintf(w, "  Length: %.2f km\n", stats.LengthKm)
	if stats.Points > 0 || stats.Waypoints > 0 {
		fmt.Fprintf(w, "  Bounds: lat %.5f..%.5f, lon %.5f..%.5f\n",
			stats.Bound.Min.Lat(), stats.Bound.Max.Lat(), stats.Bound.Min.Lon(), stats.Bound.Max.Lon())
	}
	return nil
}
