package gpx

import (
	"reflect"
	"strings"
	"testing"
)

func TestParsePreservesExtensions(t *testing.T) {
	const gpxContent = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1" xmlns:gpxtpx="http://www.garmin.com/xmlschemas/TrackPointExtension/v1">
	<trk>
		<trkseg>
			<trkpt lat="46.0" lon="7.0">
				<extensions>
					<gpxtpx:TrackPointExtension>
						<gpxtpx:hr>145</gpxtpx:hr>
					</gpxtpx:TrackPointExtension>
				</extensions>
			</trkpt>
		</trkseg>
	</trk>
</gpx>`

	gpxData, err := ParseReader(strings.NewReader(gpxContent))
	if err != nil {
		t.Fatalf("ParseReader failed: %v", err)
	}

	point := gpxData.Tracks[0].Segments[0].Points[0]
	if len(point.Extensions) == 0 {
		t.Fatalf("expected extensions to be preserved")
	}

	// Ensure we can roundtrip without dropping the extensions block or the
	// namespace declaration its prefix depends on
	var buf strings.Builder
	if err := gpxData.WriteToWriter(&buf); err != nil {
		t.Fatalf("WriteToWriter failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "<gpxtpx:hr>145</gpxtpx:hr>") {
		t.Fatalf("expected TrackPointExtension to appear in marshalled GPX")
	}
	if !strings.Contains(out, `xmlns:gpxtpx="http://www.garmin.com/xmlschemas/TrackPointExtension/v1"`) {
		t.Fatalf("expected gpxtpx namespace declaration to survive\n%s", out)
	}
}

const detailedGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1" xmlns:osm="https://example.org/osm/v1">
	<wpt lat="2" lon="3">
		<ele>512.5</ele>
		<magvar>2.1</magvar>
		<geoidheight>48.3</geoidheight>
		<name>Hut</name>
		<link href="https://example.org/hut"><text>Hut page</text><type>text/html</type></link>
		<sym>Lodge</sym>
		<fix>3d</fix>
		<sat>7</sat>
		<hdop>1.2</hdop>
		<extensions><osm:id>42</osm:id></extensions>
	</wpt>
	<trk>
		<name>Ridge</name>
		<cmt>second attempt</cmt>
		<src>Edge 530</src>
		<link href="https://example.org/ridge"/>
		<number>3</number>
		<trkseg>
			<trkpt lat="2" lon="2">
				<time>t1</time>
				<hdop>0.9</hdop>
				<sat>11</sat>
				<course unit="deg">12.5</course>
			</trkpt>
			<extensions><osm:segment>north</osm:segment></extensions>
		</trkseg>
	</trk>
</gpx>`

func TestSchemaChildrenRoundTrip(t *testing.T) {
	gpxData, err := ParseReader(strings.NewReader(detailedGPX))
	if err != nil {
		t.Fatalf("ParseReader failed: %v", err)
	}

	wpt := gpxData.Waypoints[0]
	if wpt.Sat != "7" || wpt.HDOP != "1.2" || wpt.Fix != "3d" || wpt.MagVar != "2.1" || wpt.GeoidHeight != "48.3" {
		t.Fatalf("waypoint schema children not decoded: %+v", wpt)
	}
	if len(wpt.Links) != 1 || wpt.Links[0].Href != "https://example.org/hut" || wpt.Links[0].Text != "Hut page" {
		t.Fatalf("waypoint link not decoded: %+v", wpt.Links)
	}

	pt := gpxData.Tracks[0].Segments[0].Points[0]
	if len(pt.Extra) != 1 || pt.Extra[0].XMLName.Local != "course" {
		t.Fatalf("expected course to be kept as an extra element, got %+v", pt.Extra)
	}

	var buf strings.Builder
	if err := gpxData.WriteToWriter(&buf); err != nil {
		t.Fatalf("WriteToWriter failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		`<link href="https://example.org/hut">`,
		"<text>Hut page</text>",
		"<magvar>2.1</magvar>",
		"<geoidheight>48.3</geoidheight>",
		"<fix>3d</fix>",
		"<sat>7</sat>",
		"<hdop>1.2</hdop>",
		"<osm:id>42</osm:id>",
		"<cmt>second attempt</cmt>",
		"<src>Edge 530</src>",
		`<link href="https://example.org/ridge">`,
		"<number>3</number>",
		"<hdop>0.9</hdop>",
		"<sat>11</sat>",
		`<course unit="deg">12.5</course>`,
		"<osm:segment>north</osm:segment>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q\n%s", want, out)
		}
	}
	if strings.Count(out, `xmlns="`) != 1 {
		t.Errorf("extra elements must not redeclare the GPX namespace\n%s", out)
	}

	again, err := ParseReader(strings.NewReader(out))
	if err != nil {
		t.Fatalf("Reparse failed: %v\n%s", err, out)
	}
	if !reflect.DeepEqual(again.Waypoints, gpxData.Waypoints) {
		t.Errorf("waypoint changed across a roundtrip:\nbefore %+v\nafter  %+v", gpxData.Waypoints, again.Waypoints)
	}
	if !reflect.DeepEqual(again.Tracks, gpxData.Tracks) {
		t.Errorf("track changed across a roundtrip:\nbefore %+v\nafter  %+v", gpxData.Tracks, again.Tracks)
	}
}

func TestForeignElementKeepsNamespace(t *testing.T) {
	const content = `<gpx version="1.1" xmlns="http://www.topografix.com/GPX/1/1">
	<trk><trkseg>
		<trkpt lat="1" lon="1"><speed xmlns="https://example.org/v0">3.4</speed></trkpt>
	</trkseg></trk>
</gpx>`

	gpxData, err := ParseReader(strings.NewReader(content))
	if err != nil {
		t.Fatalf("ParseReader failed: %v", err)
	}

	var buf strings.Builder
	if err := gpxData.WriteToWriter(&buf); err != nil {
		t.Fatalf("WriteToWriter failed: %v", err)
	}
	if !strings.Contains(buf.String(), `<speed xmlns="https://example.org/v0">3.4</speed>`) {
		t.Fatalf("expected foreign element with its namespace\n%s", buf.String())
	}
}

func TestCloneCopiesExtraElements(t *testing.T) {
	gpxData, err := ParseReader(strings.NewReader(detailedGPX))
	if err != nil {
		t.Fatalf("ParseReader failed: %v", err)
	}

	c := gpxData.Clone()
	c.Tracks[0].Segments[0].Points[0].Extra[0].Inner[0] = '9'
	c.Waypoints[0].Links[0].Href = "changed"
	c.Tracks[0].Segments[0].Extensions[0] = ' '

	if got := string(gpxData.Tracks[0].Segments[0].Points[0].Extra[0].Inner); got != "12.5" {
		t.Errorf("clone shares extra element bytes, original now %q", got)
	}
	if gpxData.Waypoints[0].Links[0].Href != "https://example.org/hut" {
		t.Errorf("clone shares waypoint links")
	}
	if !strings.HasPrefix(string(gpxData.Tracks[0].Segments[0].Extensions), "<osm:segment>") {
		t.Errorf("clone shares segment extensions")
	}
}
