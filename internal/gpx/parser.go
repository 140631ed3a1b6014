package gpx

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const xmlNamespaceURL = "http://www.w3.org/XML/1998/namespace"

// Parse reads and parses a GPX file. Errors name the offending file.
func Parse(filename string) (*GPX, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	gpxData, err := ParseReader(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return gpxData, nil
}

// ParseReader parses GPX from an io.Reader and checks the single-track invariant.
func ParseReader(r io.Reader) (*GPX, error) {
	decoder := xml.NewDecoder(bufio.NewReader(r))

	var gpxData GPX
	if err := decoder.Decode(&gpxData); err != nil {
		return nil, fmt.Errorf("failed to parse GPX: %w", err)
	}

	if len(gpxData.Tracks) > 1 {
		return nil, fmt.Errorf("%w: %d trk elements, at most one is supported", ErrInvalidDocument, len(gpxData.Tracks))
	}

	if gpxData.Version == "" {
		gpxData.Version = "1.1"
	}
	if gpxData.Creator == "" {
		gpxData.Creator = "gpxtools"
	}
	gpxData.Attrs = normalizeAttrs(gpxData.Attrs)

	return &gpxData, nil
}

// normalizeAttrs rewrites decoded root attributes into the prefix:local form
// the encoder writes verbatim. The default and "g" namespace declarations are
// dropped since WriteToWriter always emits them.
func normalizeAttrs(attrs []xml.Attr) []xml.Attr {
	prefixes := map[string]string{xmlNamespaceURL: "xml"}
	for _, a := range attrs {
		if a.Name.Space == "xmlns" {
			prefixes[a.Value] = a.Name.Local
		}
	}

	var out []xml.Attr
	for _, a := range attrs {
		switch {
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			continue
		case a.Name.Space == "xmlns":
			if a.Name.Local == NamespacePrefix {
				continue
			}
			out = append(out, xml.Attr{Name: xml.Name{Local: "xmlns:" + a.Name.Local}, Value: a.Value})
		case a.Name.Space == Namespace:
			out = append(out, xml.Attr{Name: xml.Name{Local: a.Name.Local}, Value: a.Value})
		case a.Name.Space != "":
			prefix, ok := prefixes[a.Name.Space]
			if !ok {
				// undeclared prefixes come back from the decoder as-is
				prefix = a.Name.Space
			}
			out = append(out, xml.Attr{Name: xml.Name{Local: prefix + ":" + a.Name.Local}, Value: a.Value})
		default:
			out = append(out, a)
		}
	}
	return out
}

// Write saves GPX data to filename atomically: the document is written to a
// temporary file in the same directory and renamed into place on success.
func (g *GPX) Write(filename string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(filename), "."+filepath.Base(filename)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = g.WriteToWriter(bw); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err = tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err = os.Rename(tmp.Name(), filename); err != nil {
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}

// WriteToWriter writes GPX data indented by four spaces. The GPX namespace is
// declared both as the default namespace and under NamespacePrefix.
func (g *GPX) WriteToWriter(w io.Writer) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}

	encoder := xml.NewEncoder(w)
	encoder.Indent("", "    ")

	start := xml.StartElement{
		Name: xml.Name{Local: "gpx"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmlns"}, Value: Namespace},
			{Name: xml.Name{Local: "xmlns:" + NamespacePrefix}, Value: Namespace},
		},
	}
	if err := encoder.EncodeElement(g, start); err != nil {
		return fmt.Errorf("failed to encode GPX: %w", err)
	}
	if err := encoder.Flush(); err != nil {
		return err
	}

	_, err := io.WriteString(w, "\n")
	return err
}
