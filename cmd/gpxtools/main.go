package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/planbiir/gpxtools/internal/config"
	"github.com/planbiir/gpxtools/internal/geodesy"
	"github.com/planbiir/gpxtools/internal/logging"
	"github.com/planbiir/gpxtools/internal/pipeline"
)

const version = "1.2.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp(os.Stdout).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newApp(stdout io.Writer) *cli.App {
	defaults := config.DefaultConfig()

	return &cli.App{
		Name:      "gpxtools",
		Usage:     "Merge GPX tracks, drop duplicate points and smooth stationary clusters",
		UsageText: "gpxtools [options] [file.gpx ...]\n\nWithout inputs every *.gpx in --dir is merged in name order.",
		Version:   version,
		Writer:    stdout,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Input file names (comma-separated or repeated)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output track name",
				Value:   defaults.Output,
			},
			&cli.IntFlag{
				Name:    "smooth-point-count",
				Aliases: []string{"c"},
				Usage:   "Smooth point count (window size, windowed policy)",
				Value:   defaults.Smooth.WindowSize,
			},
			&cli.Float64Flag{
				Name:    "distance-threshold",
				Aliases: []string{"d"},
				Usage:   "Smooth distance threshold in meters",
				Value:   defaults.Smooth.DistanceThreshold,
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"n"},
				Usage:   "Dry run: do not write anything, just calc some stats",
			},
			&cli.BoolFlag{
				Name:    "smooth",
				Aliases: []string{"s"},
				Usage:   "Apply smoothing to output track",
			},
			&cli.StringFlag{
				Name:  "policy",
				Usage: "Smoothing policy: windowed or elevation",
				Value: defaults.Smooth.Policy,
			},
			&cli.StringFlag{
				Name:  "geodesic",
				Usage: "Distance model: wgs84 or haversine",
				Value: defaults.Geodesic,
			},
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Directory searched for *.gpx when no input is given",
				Value: defaults.SearchDir,
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "YAML config file; flags override its values",
			},
			&cli.BoolFlag{
				Name:  "init-config",
				Usage: "Write the effective configuration to --config (default gpxtools.yaml) and exit",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "DEBUG, INFO, WARN or ERROR",
				Value: defaults.Log.Level,
			},
			&cli.BoolFlag{
				Name:  "stats-json",
				Usage: "Print the run report as JSON instead of the summary",
			},
		},
		Action: func(c *cli.Context) error {
			return run(c, stdout)
		},
	}
}

func run(c *cli.Context, stdout io.Writer) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	applyFlags(c, cfg)

	if c.Bool("init-config") {
		path := c.String("config")
		if path == "" {
			path = "gpxtools.yaml"
		}
		if err := config.Save(path, cfg); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "📝 Wrote configuration to %s\n", path)
		return nil
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.Init(os.Stderr, cfg.Log.Level)
	dist, err := geodesy.ByName(cfg.Geodesic)
	if err != nil {
		return err
	}

	inputs := append(c.StringSlice("input"), c.Args().Slice()...)
	jsonOut := c.Bool("stats-json")

	opts := pipeline.Options{
		Inputs:    inputs,
		SearchDir: cfg.SearchDir,
		Output:    cfg.Output,
		DryRun:    c.Bool("dry-run"),
		Smooth:    cfg.Smooth.Enabled,
		Smoothing: cfg.Smooth.Config,
		Distance:  dist,
		Logger:    logger,
	}
	if !jsonOut {
		opts.Progress = os.Stderr
	}

	report, err := pipeline.Run(c.Context, opts)
	if err != nil {
		return err
	}

	if jsonOut {
		jsonData, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal stats: %w", err)
		}
		fmt.Fprintln(stdout, string(jsonData))
		return nil
	}

	printReport(stdout, report)
	return nil
}

// applyFlags copies explicitly set flags over the loaded configuration.
func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if c.IsSet("dir") {
		cfg.SearchDir = c.String("dir")
	}
	if c.IsSet("geodesic") {
		cfg.Geodesic = c.String("geodesic")
	}
	if c.IsSet("smooth") {
		cfg.Smooth.Enabled = c.Bool("smooth")
	}
	if c.IsSet("policy") {
		cfg.Smooth.Policy = c.String("policy")
	}
	if c.IsSet("smooth-point-count") {
		cfg.Smooth.WindowSize = c.Int("smooth-point-count")
	}
	if c.IsSet("distance-threshold") {
		cfg.Smooth.DistanceThreshold = c.Float64("distance-threshold")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
}

func printReport(w io.Writer, report *pipeline.Report) {
	fmt.Fprintf(w, "📖 Source files:\n")
	for _, src := range report.Sources {
		fmt.Fprintf(w, "   • %s\n", filepath.ToSlash(src))
	}
	if report.Merge.SegmentsAdded > 0 || report.Merge.WaypointsAdded > 0 {
		fmt.Fprintf(w, "🔗 Merged %d segments and %d waypoints\n",
			report.Merge.SegmentsAdded, report.Merge.WaypointsAdded)
	}
	fmt.Fprintf(w, "🧹 Filtered %d points from %d and %d points remaining\n",
		report.Dedupe.Removed, report.Dedupe.Examined, report.Dedupe.Distinct)
	if s := report.Smooth; s != nil {
		fmt.Fprintf(w, "📉 Smoothed %d points (%s), %d remain\n", s.Removed, s.Policy, s.Remaining)
		if s.Anomalies > 0 {
			fmt.Fprintf(w, "   ⚠️  %d elevation/distance anomalies logged\n", s.Anomalies)
		}
	}

	if !report.Written {
		fmt.Fprintf(w, "🔍 Dry run completed - no files written\n")
		return
	}
	fmt.Fprintf(w, "✅ Wrote %s: %d points in %d segments, %d waypoints (%v)\n",
		report.Output, report.Points, report.Segments, report.Waypoints, report.ProcessingTime.Round(time.Millisecond))
}
