package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planbiir/gpxtools/internal/config"
	"github.com/planbiir/gpxtools/internal/gpx"
	"github.com/planbiir/gpxtools/internal/pipeline"
	"github.com/planbiir/gpxtools/internal/smooth"
)

const trackA = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
	<wpt lat="46.5" lon="7.5"><name>Hut</name></wpt>
	<trk><trkseg>
		<trkpt lat="46.0000" lon="7.0"><ele>1000</ele><time>2025-01-01T10:00:00Z</time></trkpt>
		<trkpt lat="46.0001" lon="7.0"><ele>1000</ele><time>2025-01-01T10:00:01Z</time></trkpt>
		<trkpt lat="46.0002" lon="7.0"><ele>1000</ele><time>2025-01-01T10:00:02Z</time></trkpt>
	</trkseg></trk>
</gpx>`

const trackB = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
	<trk><trkseg>
		<trkpt lat="46.0002" lon="7.0"><ele>1000</ele><time>2025-01-01T10:00:02Z</time></trkpt>
		<trkpt lat="46.0003" lon="7.0"><ele>1000</ele><time>2025-01-01T10:00:03Z</time></trkpt>
	</trkseg></trk>
</gpx>`

func writeFixtures(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.gpx"), []byte(trackA), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.gpx"), []byte(trackB), 0o644))
	return dir
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout bytes.Buffer
	err := newApp(&stdout).Run(append([]string{"gpxtools", "--log-level", "ERROR"}, args...))
	return stdout.String(), err
}

func TestAppMergesDirectory(t *testing.T) {
	dir := writeFixtures(t)
	output := filepath.Join(dir, "_output.gpx")

	out, err := runApp(t, "--dir", dir, "-o", output)
	require.NoError(t, err)

	assert.Contains(t, out, "Filtered 1 points from 5 and 4 points remaining")
	assert.Contains(t, out, "Wrote "+output)

	merged, err := gpx.Parse(output)
	require.NoError(t, err)
	assert.Equal(t, 4, merged.PointCount())
	assert.Len(t, merged.Waypoints, 1)
}

func TestAppExplicitInputsAndJSON(t *testing.T) {
	dir := writeFixtures(t)
	output := filepath.Join(dir, "merged.gpx")

	out, err := runApp(t,
		"-i", filepath.Join(dir, "b.gpx")+","+filepath.Join(dir, "a.gpx"),
		"-o", output, "-n", "--stats-json")
	require.NoError(t, err)

	var report pipeline.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, []string{filepath.Join(dir, "b.gpx"), filepath.Join(dir, "a.gpx")}, report.Sources)
	assert.Equal(t, 1, report.Dedupe.Removed)
	assert.False(t, report.Written)
	assert.NoFileExists(t, output)
}

func TestAppSmoothing(t *testing.T) {
	dir := writeFixtures(t)
	output := filepath.Join(dir, "_output.gpx")

	// ~11 m spacing: the 3-point window spans ~22 m, below 30 m
	out, err := runApp(t, "--dir", dir, "-o", output, "-s", "-c", "3", "-d", "30")
	require.NoError(t, err)
	assert.Contains(t, out, "Smoothed")

	merged, err := gpx.Parse(output)
	require.NoError(t, err)
	assert.Less(t, merged.PointCount(), 4)
}

func TestAppErrors(t *testing.T) {
	dir := writeFixtures(t)
	output := filepath.Join(dir, "_output.gpx")

	_, err := runApp(t, "-i", filepath.Join(dir, "missing.gpx"), "-o", output)
	assert.ErrorIs(t, err, pipeline.ErrMissingInputFile)

	_, err = runApp(t, "--dir", dir, "-o", output, "-s", "-c", "2")
	assert.ErrorIs(t, err, smooth.ErrConfiguration)

	_, err = runApp(t, "--dir", dir, "-o", output, "--geodesic", "flat")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	assert.NoFileExists(t, output)
}

func TestAppConfigFile(t *testing.T) {
	dir := writeFixtures(t)
	cfgPath := filepath.Join(dir, "gpxtools.yaml")

	out, err := runApp(t, "--config", cfgPath, "--init-config", "-o", "custom.gpx", "-c", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote configuration")

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "custom.gpx", cfg.Output)
	assert.Equal(t, 7, cfg.Smooth.WindowSize)

	// flags still win over the file
	output := filepath.Join(dir, "from-flag.gpx")
	out, err = runApp(t, "--config", cfgPath, "--dir", dir, "-o", output)
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "from-flag.gpx"), out)
	assert.FileExists(t, output)
}
