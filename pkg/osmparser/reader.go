package osmparser

import (
	"context"
	"errors"
	"io"
	"math"

	"github.com/lintang-b-s/pbfextractor/pkg/util"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/spf13/afero"
)

var (
	ErrMalformedInput = errors.New("malformed map data")
)

// Scanner is the part of *osmpbf.Scanner the record reader needs.
type Scanner interface {
	Scan() bool
	Object() osm.Object
	Err() error
	Close() error
}

type ReaderOptions struct {
	SkipNodes     bool
	SkipWays      bool
	SkipRelations bool
	// number of goroutines decoding pbf blocks. 0 decodes on a single goroutine.
	Procs int
}

// RecordReader turns the objects of a pbf scanner into records. it is single-pass and stops at the
// first corrupt block or invalid record.
type RecordReader struct {
	scanner Scanner
	file    io.Closer
	record  Record
	err     error
}

func NewRecordReader(scanner Scanner) *RecordReader {
	return &RecordReader{scanner: scanner}
}

// NewPbfRecordReader decodes r block by block, so only a bounded number of blocks is held in memory.
func NewPbfRecordReader(ctx context.Context, r io.Reader, opts ReaderOptions) *RecordReader {
	procs := opts.Procs
	if procs <= 0 {
		procs = 1
	}
	scanner := osmpbf.New(ctx, r, procs)
	scanner.SkipNodes = opts.SkipNodes
	scanner.SkipWays = opts.SkipWays
	scanner.SkipRelations = opts.SkipRelations
	return NewRecordReader(scanner)
}

// OpenPbfFile opens a pbf file of fs for reading. Close closes the file too.
func OpenPbfFile(ctx context.Context, fs afero.Fs, filename string, opts ReaderOptions) (*RecordReader, error) {
	f, err := fs.Open(filename)
	if err != nil {
		return nil, err
	}
	rr := NewPbfRecordReader(ctx, f, opts)
	rr.file = f
	return rr, nil
}

// Next advances to the next record. it returns false at the end of the input or on error, see Err.
func (r *RecordReader) Next() bool {
	if r.err != nil {
		return false
	}
	for r.scanner.Scan() {
		switch o := r.scanner.Object().(type) {
		case *osm.Node:
			node, err := convertNode(o)
			if err != nil {
				r.err = err
				return false
			}
			r.record = NodeRecord(node)
			return true
		case *osm.Way:
			r.record = WayRecord(convertWay(o))
			return true
		case *osm.Relation:
			r.record = RelationRecord(convertRelation(o))
			return true
		}
	}
	if err := r.scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		r.err = util.WrapErrorf(err, ErrMalformedInput, "decode pbf block")
	}
	return false
}

func (r *RecordReader) Record() Record {
	return r.record
}

func (r *RecordReader) Err() error {
	return r.err
}

func (r *RecordReader) Close() error {
	err := r.scanner.Close()
	if r.file != nil {
		if ferr := r.file.Close(); err == nil {
			err = ferr
		}
	}
	return err
}

func validCoordinate(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func convertNode(n *osm.Node) (RawNode, error) {
	if !validCoordinate(n.Lat, n.Lon) {
		return RawNode{}, util.WrapErrorf(nil, ErrMalformedInput, "node %d has invalid coordinate (%v, %v)",
			n.ID, n.Lat, n.Lon)
	}
	return RawNode{
		ID:  int64(n.ID),
		Lat: n.Lat,
		Lon: n.Lon,
	}, nil
}

func convertWay(w *osm.Way) *RawWay {
	nodes := make([]int64, len(w.Nodes))
	for i, wn := range w.Nodes {
		nodes[i] = int64(wn.ID)
	}
	return &RawWay{
		ID:    int64(w.ID),
		Nodes: nodes,
		Tags:  w.Tags.Map(),
	}
}

func convertRelation(rel *osm.Relation) *RawRelation {
	members := make([]RawMember, len(rel.Members))
	for i, m := range rel.Members {
		members[i] = RawMember{
			Type: string(m.Type),
			Ref:  m.Ref,
			Role: m.Role,
		}
	}
	return &RawRelation{
		ID:      int64(rel.ID),
		Members: members,
		Tags:    rel.Tags.Map(),
	}
}
