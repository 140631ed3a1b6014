package gpx

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
)

// Namespace is the GPX 1.1 namespace written on every output document.
const Namespace = "http://www.topografix.com/GPX/1/1"

// NamespacePrefix is the explicit prefix bound to Namespace next to the default declaration.
const NamespacePrefix = "g"

// ErrInvalidDocument reports GPX input that breaks the structure the tools rely on:
// more than one trk element, or a trkpt or wpt without lat/lon.
var ErrInvalidDocument = errors.New("invalid GPX document")

// RawXML preserves nested blocks (extensions, metadata, routes) without re-parsing them.
// We store the inner XML bytes verbatim so we can round-trip content
// emitted by other tools (Garmin, Strava, etc.).
type RawXML []byte

func (r RawXML) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if len(r) == 0 {
		return nil
	}

	type inner struct {
		Content string `xml:",innerxml"`
	}

	return e.EncodeElement(inner{Content: string(r)}, start)
}

func (r *RawXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	type inner struct {
		Content string `xml:",innerxml"`
	}

	var data inner
	if err := d.DecodeElement(&data, &start); err != nil {
		return err
	}

	if len(bytes.TrimSpace([]byte(data.Content))) == 0 {
		*r = nil
		return nil
	}

	*r = append((*r)[:0], data.Content...)
	return nil
}

// Element is a child element the model has no field for. It is kept with its
// attributes and inner XML so unknown or vendor-specific data is written back
// unchanged.
type Element struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Inner   []byte     `xml:",innerxml"`
}

// MarshalXML writes the element back. Elements in the GPX namespace inherit the
// default namespace of the document instead of redeclaring it.
func (el Element) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	start := xml.StartElement{Name: el.XMLName}
	if start.Name.Space == Namespace {
		start.Name.Space = ""
	}
	for _, a := range el.Attrs {
		switch {
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			// emitted by the encoder from Name.Space
		case a.Name.Space == "xmlns":
			start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "xmlns:" + a.Name.Local}, Value: a.Value})
		case a.Name.Space == Namespace:
			start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: a.Name.Local}, Value: a.Value})
		default:
			start.Attr = append(start.Attr, a)
		}
	}

	type inner struct {
		Content []byte `xml:",innerxml"`
	}
	return e.EncodeElement(inner{Content: el.Inner}, start)
}

func (el Element) clone() Element {
	return Element{
		XMLName: el.XMLName,
		Attrs:   append([]xml.Attr(nil), el.Attrs...),
		Inner:   bytes.Clone(el.Inner),
	}
}

func cloneElements(src []Element) []Element {
	if src == nil {
		return nil
	}
	out := make([]Element, len(src))
	for i, el := range src {
		out[i] = el.clone()
	}
	return out
}

// Link is a GPX linkType.
type Link struct {
	Href string `xml:"href,attr"`
	Text string `xml:"text,omitempty"`
	Type string `xml:"type,omitempty"`
}

// Point is a GPX wptType: a trkpt sample or, through Waypoint, a standalone
// wpt. Fields follow the schema order so written documents stay valid.
// Numeric fields the tools never compute with are kept as text.
// Points are never modified after parsing; the algorithms only keep or drop them.
type Point struct {
	Lat         float64  `xml:"lat,attr"`
	Lon         float64  `xml:"lon,attr"`
	Elevation   *float64 `xml:"ele,omitempty"`
	Time        string   `xml:"time,omitempty"`
	MagVar      string   `xml:"magvar,omitempty"`
	GeoidHeight string   `xml:"geoidheight,omitempty"`
	Name        string   `xml:"name,omitempty"`
	Comment     string   `xml:"cmt,omitempty"`
	Description string   `xml:"desc,omitempty"`
	Source      string   `xml:"src,omitempty"`
	Links       []Link   `xml:"link"`
	Symbol      string   `xml:"sym,omitempty"`
	Type        string   `xml:"type,omitempty"`
	Fix         string   `xml:"fix,omitempty"`
	Sat         string   `xml:"sat,omitempty"`
	HDOP        string   `xml:"hdop,omitempty"`
	VDOP        string   `xml:"vdop,omitempty"`
	PDOP        string   `xml:"pdop,omitempty"`
	AgeOfDGPS   string   `xml:"ageofdgpsdata,omitempty"`
	DGPSID      string   `xml:"dgpsid,omitempty"`

	// Extra holds children outside the schema, e.g. GPX 1.0 course and speed.
	Extra      []Element `xml:",any"`
	Extensions RawXML    `xml:"extensions,omitempty"`
}

// Waypoint is a standalone point of interest. Merge carries it through untouched.
type Waypoint = Point

// UnmarshalXML decodes a trkpt or wpt and rejects it when lat or lon is missing.
func (p *Point) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var hasLat, hasLon bool
	for _, a := range start.Attr {
		switch a.Name.Local {
		case "lat":
			hasLat = true
		case "lon":
			hasLon = true
		}
	}
	if !hasLat || !hasLon {
		return fmt.Errorf("%w: %s without lat/lon", ErrInvalidDocument, start.Name.Local)
	}

	type plain Point
	var raw plain
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}
	*p = Point(raw)
	return nil
}

// Ele returns the elevation in meters, 0 when the point has none.
func (p Point) Ele() float64 {
	if p.Elevation == nil {
		return 0
	}
	return *p.Elevation
}

// Coord returns the point as an orb.Point (lon, lat).
func (p Point) Coord() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

func (p Point) clone() Point {
	c := p
	if p.Elevation != nil {
		ele := *p.Elevation
		c.Elevation = &ele
	}
	c.Links = append([]Link(nil), p.Links...)
	c.Extra = cloneElements(p.Extra)
	c.Extensions = bytes.Clone(p.Extensions)
	return c
}

// Segment is one continuous recording run (trkseg).
type Segment struct {
	Points     []Point   `xml:"trkpt"`
	Extra      []Element `xml:",any"`
	Extensions RawXML    `xml:"extensions,omitempty"`
}

// Track represents a GPX track with segments
type Track struct {
	Name        string    `xml:"name,omitempty"`
	Comment     string    `xml:"cmt,omitempty"`
	Description string    `xml:"desc,omitempty"`
	Source      string    `xml:"src,omitempty"`
	Links       []Link    `xml:"link"`
	Number      string    `xml:"number,omitempty"`
	Type        string    `xml:"type,omitempty"`
	Extra       []Element `xml:",any"`
	Extensions  RawXML    `xml:"extensions,omitempty"`
	Segments    []Segment `xml:"trkseg"`
}

// GPX is the whole document. After parsing it holds at most one track.
type GPX struct {
	XMLName xml.Name `xml:"gpx"`
	Version string   `xml:"version,attr"`
	Creator string   `xml:"creator,attr"`

	// Attrs keeps the remaining root attributes (foreign namespace
	// declarations, xsi:schemaLocation) normalized to prefix:local form.
	Attrs []xml.Attr `xml:",any,attr"`

	Metadata   RawXML     `xml:"metadata,omitempty"`
	Waypoints  []Waypoint `xml:"wpt"`
	Routes     []RawXML   `xml:"rte"`
	Tracks     []Track    `xml:"trk"`
	Extra      []Element  `xml:",any"`
	Extensions RawXML     `xml:"extensions,omitempty"`
}

// AdoptNamespaces copies the xmlns:prefix declarations of other that g does
// not declare yet, so raw blocks taken from other keep resolvable prefixes.
// A prefix g already binds is left alone. It returns the number added.
func (g *GPX) AdoptNamespaces(other *GPX) int {
	declared := make(map[string]bool)
	for _, a := range g.Attrs {
		if strings.HasPrefix(a.Name.Local, "xmlns:") {
			declared[a.Name.Local] = true
		}
	}

	added := 0
	for _, a := range other.Attrs {
		if !strings.HasPrefix(a.Name.Local, "xmlns:") || declared[a.Name.Local] {
			continue
		}
		g.Attrs = append(g.Attrs, a)
		declared[a.Name.Local] = true
		added++
	}
	return added
}

// Track returns the document's track, or nil when it has none.
func (g *GPX) Track() *Track {
	if len(g.Tracks) == 0 {
		return nil
	}
	return &g.Tracks[0]
}

// EnsureTrack returns the document's track, creating an empty one if needed.
func (g *GPX) EnsureTrack() *Track {
	if len(g.Tracks) == 0 {
		g.Tracks = append(g.Tracks, Track{})
	}
	return &g.Tracks[0]
}

// SegmentCount returns the number of segments across all tracks.
func (g *GPX) SegmentCount() int {
	n := 0
	for _, trk := range g.Tracks {
		n += len(trk.Segments)
	}
	return n
}

// PointCount returns the number of trackpoints across all segments.
func (g *GPX) PointCount() int {
	n := 0
	for _, trk := range g.Tracks {
		for _, seg := range trk.Segments {
			n += len(seg.Points)
		}
	}
	return n
}

// Bound returns the bounding box of all trackpoints and waypoints.
func (g *GPX) Bound() orb.Bound {
	var mp orb.MultiPoint
	for _, trk := range g.Tracks {
		for _, seg := range trk.Segments {
			for _, pt := range seg.Points {
				mp = append(mp, pt.Coord())
			}
		}
	}
	for _, wpt := range g.Waypoints {
		mp = append(mp, orb.Point{wpt.Lon, wpt.Lat})
	}
	return mp.Bound()
}

// Clone returns a deep copy that shares no slices with g.
func (g *GPX) Clone() *GPX {
	c := *g
	c.Attrs = append([]xml.Attr(nil), g.Attrs...)
	c.Metadata = bytes.Clone(g.Metadata)
	c.Extensions = bytes.Clone(g.Extensions)
	c.Extra = cloneElements(g.Extra)

	c.Waypoints = CloneWaypoints(g.Waypoints)

	c.Routes = nil
	for _, rte := range g.Routes {
		c.Routes = append(c.Routes, bytes.Clone(rte))
	}

	c.Tracks = nil
	for _, trk := range g.Tracks {
		t := trk
		t.Links = append([]Link(nil), trk.Links...)
		t.Extra = cloneElements(trk.Extra)
		t.Extensions = bytes.Clone(trk.Extensions)
		t.Segments = CloneSegments(trk.Segments)
		c.Tracks = append(c.Tracks, t)
	}
	return &c
}

// CloneSegments deep-copies segments and their points.
func CloneSegments(src []Segment) []Segment {
	if src == nil {
		return nil
	}
	out := make([]Segment, len(src))
	for i, seg := range src {
		points := make([]Point, len(seg.Points))
		for j, pt := range seg.Points {
			points[j] = pt.clone()
		}
		out[i] = Segment{Points: points, Extra: cloneElements(seg.Extra), Extensions: bytes.Clone(seg.Extensions)}
	}
	return out
}

// CloneWaypoints deep-copies waypoints.
func CloneWaypoints(src []Waypoint) []Waypoint {
	if src == nil {
		return nil
	}
	out := make([]Waypoint, len(src))
	for i, wpt := range src {
		out[i] = wpt.clone()
	}
	return out
}
