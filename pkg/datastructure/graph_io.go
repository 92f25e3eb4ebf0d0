package datastructure

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/lintang-b-s/pbfextractor/pkg/metrics"
	"github.com/lintang-b-s/pbfextractor/pkg/suitability"
	"github.com/lintang-b-s/pbfextractor/pkg/util"
)

type Compression string

const (
	CompressionNone  Compression = "none"
	CompressionGzip  Compression = "gzip"
	CompressionBzip2 Compression = "bzip2"
)

var (
	ErrMalformedGraph = errors.New("malformed graph file")

	edgeMetrics = metrics.DefaultMetrics()

	gzipMagic  = []byte{0x1f, 0x8b}
	bzip2Magic = []byte("BZh")
)

func ParseCompression(s string) (Compression, error) {
	switch Compression(s) {
	case CompressionNone, CompressionGzip, CompressionBzip2:
		return Compression(s), nil
	case "":
		return CompressionNone, nil
	}
	return "", fmt.Errorf("unknown compression %q", s)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// WriteGraph writes g in the text graph format:
//
//	# comment lines (build info, metrics, bounds), a blank line
//	<metric count>
//	<vertex count>
//	<edge count>
//	<index> <osm id> <lat> <lon> <elevation> <elevated 0|1>     one line per vertex
//	<tail> <head> <distance> <ascent> <unsuitability> <class> <bicycle route 0|1>     one line per edge
func (g *Graph) WriteGraph(out io.Writer, buildTime time.Time) error {
	w := bufio.NewWriter(out)

	fmt.Fprintf(w, "# Build by: pbfextractor\n")
	fmt.Fprintf(w, "# Build on: %s\n", buildTime.UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "# metrics: %s\n", edgeMetrics.Header())
	if bb := g.GetBoundingBox(); !bb.IsEmpty() {
		fmt.Fprintf(w, "# bounds: %s %s %s %s\n", formatFloat(bb.GetMinLat()), formatFloat(bb.GetMinLon()),
			formatFloat(bb.GetMaxLat()), formatFloat(bb.GetMaxLon()))
	}
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "%d\n", len(edgeMetrics))
	fmt.Fprintf(w, "%d\n", len(g.vertices))
	fmt.Fprintf(w, "%d\n", len(g.edges))

	for i := range g.vertices {
		v := &g.vertices[i]
		fmt.Fprintf(w, "%d %d %s %s %s %d\n", i, v.osmID, formatFloat(v.lat), formatFloat(v.lon),
			formatFloat(v.elevation), boolToInt(v.elevated))
	}

	for i := range g.edges {
		e := &g.edges[i]
		fmt.Fprintf(w, "%d %d", e.tail, e.head)
		for _, weight := range edgeMetrics.Weights(e) {
			fmt.Fprintf(w, " %s", formatFloat(weight))
		}
		fmt.Fprintf(w, " %d %d\n", uint8(e.class), boolToInt(e.bicycleRoute))
	}

	return w.Flush()
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func newCompressedWriter(w io.Writer, compression Compression) (io.WriteCloser, error) {
	switch compression {
	case CompressionGzip:
		return gzip.NewWriterLevel(w, gzip.BestCompression)
	case CompressionBzip2:
		return bzip2.NewWriter(w, &bzip2.WriterConfig{Level: bzip2.BestCompression})
	case CompressionNone, "":
		return nopWriteCloser{w}, nil
	}
	return nil, fmt.Errorf("unknown compression %q", compression)
}

// WriteGraphFile writes g to filename. the graph is written to a temporary file in the same
// directory first, so filename either holds a complete graph or is left untouched.
func (g *Graph) WriteGraphFile(filename string, compression Compression) (err error) {
	f, err := os.CreateTemp(filepath.Dir(filename), "."+filepath.Base(filename)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := f.Name()
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmpName)
		}
	}()

	cw, err := newCompressedWriter(f, compression)
	if err != nil {
		return err
	}
	if err = g.WriteGraph(cw, time.Now()); err != nil {
		return err
	}
	if err = cw.Close(); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, filename)
}

func fields(s string) []string {
	return strings.Fields(s)
}

func ParseIndex(s string) (Index, error) {
	u, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return Index(u), nil
}

func parseFlag(s string) (bool, error) {
	switch s {
	case "0":
		return false, nil
	case "1":
		return true, nil
	}
	return false, fmt.Errorf("expected 0 or 1, got %q", s)
}

func malformed(err error, format string, a ...interface{}) error {
	return util.WrapErrorf(err, ErrMalformedGraph, format, a...)
}

// readCount skips comment and blank lines and parses the next line as a count.
func readCount(br *bufio.Reader, what string) (int, error) {
	for {
		line, err := util.ReadLine(br)
		if err != nil {
			return 0, malformed(err, "read %s", what)
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		n, err := strconv.Atoi(line)
		if err != nil || n < 0 {
			return 0, malformed(err, "parse %s %q", what, line)
		}
		return n, nil
	}
}

func parseVertex(line string, want int) (Vertex, error) {
	tokens := fields(line)
	if len(tokens) != 6 {
		return Vertex{}, fmt.Errorf("expected 6 fields, got %d", len(tokens))
	}
	idx, err := strconv.Atoi(tokens[0])
	if err != nil {
		return Vertex{}, err
	}
	if idx != want {
		return Vertex{}, fmt.Errorf("expected vertex index %d, got %d", want, idx)
	}
	osmID, err := strconv.ParseInt(tokens[1], 10, 64)
	if err != nil {
		return Vertex{}, err
	}
	lat, err := strconv.ParseFloat(tokens[2], 64)
	if err != nil {
		return Vertex{}, fmt.Errorf("lat: %w", err)
	}
	lon, err := strconv.ParseFloat(tokens[3], 64)
	if err != nil {
		return Vertex{}, fmt.Errorf("lon: %w", err)
	}
	elevation, err := strconv.ParseFloat(tokens[4], 64)
	if err != nil {
		return Vertex{}, fmt.Errorf("elevation: %w", err)
	}
	elevated, err := parseFlag(tokens[5])
	if err != nil {
		return Vertex{}, err
	}

	v := NewVertex(lat, lon, Index(idx), osmID)
	v.elevation = elevation
	v.elevated = elevated
	return v, nil
}

func parseEdge(line string, numVertices int) (Edge, error) {
	tokens := fields(line)
	if len(tokens) != 7 {
		return Edge{}, fmt.Errorf("expected 7 fields, got %d", len(tokens))
	}
	tail, err := ParseIndex(tokens[0])
	if err != nil {
		return Edge{}, err
	}
	head, err := ParseIndex(tokens[1])
	if err != nil {
		return Edge{}, err
	}
	if int(tail) >= numVertices || int(head) >= numVertices {
		return Edge{}, fmt.Errorf("edge %d -> %d out of range [0, %d)", tail, head, numVertices)
	}
	dist, err := strconv.ParseFloat(tokens[2], 64)
	if err != nil {
		return Edge{}, fmt.Errorf("distance: %w", err)
	}
	ascent, err := strconv.ParseFloat(tokens[3], 64)
	if err != nil {
		return Edge{}, fmt.Errorf("ascent: %w", err)
	}
	// tokens[4] (unsuitability) is derived from class and route flag
	if _, err := strconv.ParseFloat(tokens[4], 64); err != nil {
		return Edge{}, fmt.Errorf("unsuitability: %w", err)
	}
	code, err := strconv.ParseUint(tokens[5], 10, 8)
	if err != nil {
		return Edge{}, err
	}
	class, err := suitability.ParseClass(code)
	if err != nil {
		return Edge{}, err
	}
	bicycleRoute, err := parseFlag(tokens[6])
	if err != nil {
		return Edge{}, err
	}
	return NewEdge(tail, head, dist, ascent, class, bicycleRoute), nil
}

func ReadGraph(r io.Reader) (*Graph, error) {
	br := bufio.NewReader(r)

	numMetrics, err := readCount(br, "metric count")
	if err != nil {
		return nil, err
	}
	if numMetrics != len(edgeMetrics) {
		return nil, malformed(nil, "expected %d metrics, got %d", len(edgeMetrics), numMetrics)
	}
	numVertices, err := readCount(br, "vertex count")
	if err != nil {
		return nil, err
	}
	numEdges, err := readCount(br, "edge count")
	if err != nil {
		return nil, err
	}

	vertices := make([]Vertex, numVertices)
	for i := 0; i < numVertices; i++ {
		line, err := util.ReadLine(br)
		if err != nil {
			return nil, malformed(err, "read vertex %d", i)
		}
		vertices[i], err = parseVertex(line, i)
		if err != nil {
			return nil, malformed(err, "parse vertex %d", i)
		}
	}

	edges := make([]Edge, numEdges)
	for i := 0; i < numEdges; i++ {
		line, err := util.ReadLine(br)
		if err != nil {
			return nil, malformed(err, "read edge %d", i)
		}
		edges[i], err = parseEdge(line, numVertices)
		if err != nil {
			return nil, malformed(err, "parse edge %d", i)
		}
	}

	return NewGraph(vertices, edges), nil
}

// ReadGraphFile reads a graph file, detecting gzip and bzip2 compression from the magic bytes.
func ReadGraphFile(filename string) (*Graph, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	magic, err := br.Peek(3)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	var r io.Reader = br
	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	case bytes.HasPrefix(magic, bzip2Magic):
		bz, err := bzip2.NewReader(br, nil)
		if err != nil {
			return nil, err
		}
		defer bz.Close()
		r = bz
	}

	return ReadGraph(r)
}
