// Package pipeline runs the consolidation: discover and parse the inputs,
// fold them into one document, drop duplicate samples, optionally smooth,
// and write the result.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/planbiir/gpxtools/internal/dedupe"
	"github.com/planbiir/gpxtools/internal/geodesy"
	"github.com/planbiir/gpxtools/internal/gpx"
	"github.com/planbiir/gpxtools/internal/merge"
	"github.com/planbiir/gpxtools/internal/smooth"
)

// ErrMissingInputFile is returned when a named input does not exist or
// discovery finds nothing to merge.
var ErrMissingInputFile = errors.New("missing input file")

// Options controls a pipeline run.
type Options struct {
	// Inputs are merged in the given order. When empty, SearchDir is
	// scanned with Discover.
	Inputs    []string
	SearchDir string
	Output    string

	// DryRun computes every stage but leaves the output path alone.
	DryRun bool

	Smooth    bool
	Smoothing smooth.Config
	Distance  geodesy.Provider

	// Progress receives a progress bar for the merge fold when set.
	Progress io.Writer
	Logger   *slog.Logger
}

// Report describes a finished run.
type Report struct {
	Sources        []string      `json:"sources"`
	Merge          merge.Stats   `json:"merge"`
	Dedupe         dedupe.Stats  `json:"dedupe"`
	Smooth         *smooth.Stats `json:"smooth,omitempty"`
	Output         string        `json:"output"`
	Written        bool          `json:"written"`
	Segments       int           `json:"segments"`
	Points         int           `json:"points"`
	Waypoints      int           `json:"waypoints"`
	ProcessingTime time.Duration `json:"processing_time_ns"`
}

// Run executes the pipeline. Nothing is written unless every stage succeeds.
func Run(ctx context.Context, opts Options) (*Report, error) {
	startTime := time.Now()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Output == "" {
		return nil, errors.New("output file name is empty")
	}

	var policy smooth.Policy
	if opts.Smooth {
		p, err := smooth.New(opts.Smoothing, opts.Distance, logger)
		if err != nil {
			return nil, err
		}
		policy = p
	}

	sources, err := resolveInputs(opts)
	if err != nil {
		return nil, err
	}
	for _, src := range sources {
		logger.Debug("Source", "file", src)
	}

	docs, err := parseAll(ctx, sources)
	if err != nil {
		return nil, err
	}

	report := &Report{Sources: sources, Output: opts.Output}

	merged, mergeStats, err := foldWithProgress(docs, sources, opts.Progress, logger)
	if err != nil {
		return nil, fmt.Errorf("merge into %s: %w", sources[0], err)
	}
	report.Merge = mergeStats

	dedupeStats, err := dedupe.Filter(merged)
	if err != nil {
		return nil, err
	}
	report.Dedupe = dedupeStats
	logger.Info("Filtered duplicates",
		"removed", dedupeStats.Removed,
		"examined", dedupeStats.Examined,
		"remaining", dedupeStats.Distinct)

	if policy != nil {
		smoothStats := smooth.Smooth(merged, policy)
		report.Smooth = &smoothStats
		logger.Info("Smoothed track",
			"policy", smoothStats.Policy,
			"removed", smoothStats.Removed,
			"remaining", smoothStats.Remaining)
	}

	report.Segments = merged.SegmentCount()
	report.Points = merged.PointCount()
	report.Waypoints = len(merged.Waypoints)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !opts.DryRun {
		if err := merged.Write(opts.Output); err != nil {
			return nil, fmt.Errorf("write %s: %w", opts.Output, err)
		}
		report.Written = true
		logger.Info("Wrote GPX", "file", opts.Output)
	}

	report.ProcessingTime = time.Since(startTime)
	return report, nil
}

func resolveInputs(opts Options) ([]string, error) {
	if len(opts.Inputs) > 0 {
		for _, in := range opts.Inputs {
			info, err := os.Stat(in)
			if err != nil {
				return nil, fmt.Errorf("%w: file %s does not exist", ErrMissingInputFile, in)
			}
			if info.IsDir() {
				return nil, fmt.Errorf("%w: %s is a directory", ErrMissingInputFile, in)
			}
		}
		return append([]string(nil), opts.Inputs...), nil
	}

	dir := opts.SearchDir
	if dir == "" {
		dir = "."
	}
	files, err := Discover(dir, opts.Output)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no .gpx files found in %s", ErrMissingInputFile, dir)
	}
	return files, nil
}

// parseAll parses every file concurrently into its own document, keeping
// the input order in the result.
func parseAll(ctx context.Context, files []string) ([]*gpx.GPX, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	docs := make([]*gpx.GPX, len(files))
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			doc, err := gpx.Parse(file)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

func foldWithProgress(docs []*gpx.GPX, sources []string, progress io.Writer, logger *slog.Logger) (*gpx.GPX, merge.Stats, error) {
	var bar *progressbar.ProgressBar
	if progress != nil && len(docs) > 1 {
		bar = progressbar.NewOptions(len(docs)-1,
			progressbar.OptionSetWriter(progress),
			progressbar.OptionSetDescription("Merging"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	merged, stats, err := merge.Fold(docs, func(i int, s merge.Stats) {
		logger.Info("Merged",
			"file", sources[i],
			"segments", s.SegmentsAdded,
			"waypoints", s.WaypointsAdded)
		if bar != nil {
			_ = bar.Add(1)
		}
	})
	if bar != nil {
		_ = bar.Finish()
	}
	return merged, stats, err
}
