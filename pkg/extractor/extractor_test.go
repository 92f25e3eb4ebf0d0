package extractor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lintang-b-s/pbfextractor/pkg/datastructure"
	"github.com/lintang-b-s/pbfextractor/pkg/elevation"
	"github.com/lintang-b-s/pbfextractor/pkg/osmparser"
	"github.com/lintang-b-s/pbfextractor/pkg/osmparser/testmocks"
	"github.com/lintang-b-s/pbfextractor/pkg/suitability"
	"github.com/lintang-b-s/pbfextractor/pkg/util"
	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testConfig(t *testing.T) *util.Config {
	return &util.Config{
		PbfFile:    "map.osm.pbf",
		OutputFile: filepath.Join(t.TempDir(), "bicycle.graph"),
		Output:     util.OutputConfig{Compression: "gzip"},
		Elevation:  util.ElevationConfig{Enabled: true, CacheTiles: 4, Workers: 2},
		Builder:    util.BuilderConfig{OnewayPolicy: "suppress", TwoPass: true},
		Reader:     util.ReaderConfig{QueueSize: 16},
	}
}

// mockOpener serves objects like a pbf scanner would, honouring the skip options.
func mockOpener(err error, objects ...osm.Object) RecordOpener {
	return func(ctx context.Context, opts osmparser.ReaderOptions) (*osmparser.RecordReader, error) {
		filtered := make([]osm.Object, 0, len(objects))
		for _, o := range objects {
			switch o.(type) {
			case *osm.Node:
				if opts.SkipNodes {
					continue
				}
			case *osm.Way:
				if opts.SkipWays {
					continue
				}
			case *osm.Relation:
				if opts.SkipRelations {
					continue
				}
			}
			filtered = append(filtered, o)
		}
		return osmparser.NewRecordReader(testmocks.NewFailingMockScanner(err, filtered...)), nil
	}
}

type tileSource struct {
	tiles map[elevation.Cell]*elevation.Tile
}

func (s tileSource) Cells() ([]elevation.Cell, error) {
	cells := make([]elevation.Cell, 0, len(s.tiles))
	for c := range s.tiles {
		cells = append(cells, c)
	}
	return cells, nil
}

func (s tileSource) Load(cell elevation.Cell) (*elevation.Tile, error) {
	return s.tiles[cell], nil
}

// slopeTiles rises from 100 m on the southern edge of N48E009 to 300 m on its northern edge.
func slopeTiles(t *testing.T) tileSource {
	tile, err := elevation.NewTile(elevation.Cell{Lat: 48, Lon: 9}, 3, []int16{
		300, 300, 300,
		200, 200, 200,
		100, 100, 100,
	})
	require.NoError(t, err)
	return tileSource{tiles: map[elevation.Cell]*elevation.Tile{{Lat: 48, Lon: 9}: tile}}
}

func testObjects() []osm.Object {
	return []osm.Object{
		testmocks.Node(1, 48.0, 9.0),
		testmocks.Node(2, 48.001, 9.0),
		testmocks.Node(3, 48.001, 9.001),
		testmocks.Node(4, 47.5, 9.001),
		testmocks.Node(5, 48.5, 9.5),
		testmocks.Way(10, []int64{1, 2, 3}, map[string]string{"highway": "cycleway"}),
		testmocks.Way(11, []int64{3, 4}, map[string]string{"highway": "residential", "oneway": "yes"}),
		testmocks.Way(12, []int64{4, 99}, map[string]string{"highway": "path"}),
		testmocks.Way(13, []int64{1, 5}, map[string]string{"waterway": "river"}),
		testmocks.Relation(20, []int64{10}, map[string]string{"type": "route", "route": "bicycle"}),
	}
}

func TestRun(t *testing.T) {
	cfg := testConfig(t)
	e := NewExtractor(cfg, zaptest.NewLogger(t), WithRecordOpener(mockOpener(nil, testObjects()...)),
		WithTileSource(slopeTiles(t)))

	report, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, report.Vertices)
	assert.Equal(t, 5, report.Edges)
	assert.Equal(t, 4, report.WaysRead)
	assert.Equal(t, 3, report.WaysAccepted)
	assert.Equal(t, 1, report.WaysFiltered)
	assert.Equal(t, 1, report.MissingNodeWays)
	assert.Equal(t, 1, report.ElevationUnavailable)
	assert.Equal(t, 5, report.NodesRead)

	g, err := datastructure.ReadGraphFile(cfg.OutputFile)
	require.NoError(t, err)
	require.Equal(t, 4, g.NumberOfVertices())
	require.Equal(t, 5, g.NumberOfEdges())
	require.NoError(t, g.Validate())

	elev, ok := g.GetVertex(0).GetElevation()
	require.True(t, ok)
	assert.InDelta(t, 100, elev, 1e-6)
	elev, ok = g.GetVertex(1).GetElevation()
	require.True(t, ok)
	assert.InDelta(t, 100.2, elev, 1e-6)
	_, ok = g.GetVertex(3).GetElevation()
	assert.False(t, ok, "node 4 is outside of every tile")

	uphill, downhill := g.GetEdge(0), g.GetEdge(1)
	assert.InDelta(t, 0.2, uphill.GetAscent(), 1e-6)
	assert.Equal(t, 0.0, downhill.GetAscent())
	assert.Equal(t, suitability.Dedicated, uphill.GetClass())
	assert.False(t, uphill.IsBicycleRoute())

	last := g.GetEdge(4)
	assert.Equal(t, datastructure.Index(2), last.GetTail())
	assert.Equal(t, datastructure.Index(3), last.GetHead())
	assert.Equal(t, 0.0, last.GetAscent())
}

func TestRunSingleAndTwoPassAgree(t *testing.T) {
	graphs := make([]*datastructure.Graph, 0, 2)
	for _, twoPass := range []bool{true, false} {
		cfg := testConfig(t)
		cfg.Builder.TwoPass = twoPass
		cfg.Builder.BicycleRoutes = true
		e := NewExtractor(cfg, zaptest.NewLogger(t), WithRecordOpener(mockOpener(nil, testObjects()...)),
			WithTileSource(slopeTiles(t)))

		report, err := e.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, report.RouteWays)

		g, err := datastructure.ReadGraphFile(cfg.OutputFile)
		require.NoError(t, err)
		graphs = append(graphs, g)
	}

	assert.Equal(t, graphs[0].GetVertices(), graphs[1].GetVertices())
	assert.Equal(t, graphs[0].GetEdges(), graphs[1].GetEdges())
	assert.True(t, graphs[0].GetEdge(0).IsBicycleRoute())
}

func TestRunMalformedInput(t *testing.T) {
	cfg := testConfig(t)
	e := NewExtractor(cfg, zaptest.NewLogger(t),
		WithRecordOpener(mockOpener(errors.New("invalid blob"), testObjects()...)))

	_, err := e.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, osmparser.ErrMalformedInput))

	_, statErr := os.Stat(cfg.OutputFile)
	assert.True(t, os.IsNotExist(statErr), "no output on fatal errors")
}

func TestRunEmptyInput(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.Compression = "none"
	e := NewExtractor(cfg, zaptest.NewLogger(t), WithRecordOpener(mockOpener(nil)))

	report, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Vertices)
	assert.Equal(t, 0, report.Edges)

	g, err := datastructure.ReadGraphFile(cfg.OutputFile)
	require.NoError(t, err)
	assert.Equal(t, 0, g.NumberOfVertices())
	assert.Equal(t, 0, g.NumberOfEdges())
}

func TestRunElevationDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Elevation.Enabled = false
	cfg.Elevation.Fallback = 5
	e := NewExtractor(cfg, zaptest.NewLogger(t), WithRecordOpener(mockOpener(nil, testObjects()...)),
		WithTileSource(slopeTiles(t)))

	report, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.ElevationUnavailable)

	g, err := datastructure.ReadGraphFile(cfg.OutputFile)
	require.NoError(t, err)
	for _, v := range g.GetVertices() {
		elev, ok := v.GetElevation()
		assert.False(t, ok)
		assert.Equal(t, 5.0, elev)
	}
	for _, edge := range g.GetEdges() {
		assert.Equal(t, 0.0, edge.GetAscent())
	}
}

func TestRunPruneDominated(t *testing.T) {
	objects := []osm.Object{
		testmocks.Node(1, 48.0, 9.0),
		testmocks.Node(2, 48.001, 9.0),
		testmocks.Way(10, []int64{1, 2}, map[string]string{"highway": "cycleway"}),
		testmocks.Way(11, []int64{1, 2}, map[string]string{"highway": "primary"}),
	}

	for _, prune := range []bool{false, true} {
		cfg := testConfig(t)
		cfg.Builder.PruneDominated = prune
		e := NewExtractor(cfg, zaptest.NewLogger(t), WithRecordOpener(mockOpener(nil, objects...)),
			WithTileSource(slopeTiles(t)))

		report, err := e.Run(context.Background())
		require.NoError(t, err)
		if prune {
			assert.Equal(t, 2, report.EdgesPruned)
			assert.Equal(t, 2, report.Edges)
		} else {
			assert.Equal(t, 0, report.EdgesPruned)
			assert.Equal(t, 4, report.Edges)
		}
	}
}

func TestRunInvalidCompression(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.Compression = "zip"
	e := NewExtractor(cfg, zaptest.NewLogger(t), WithRecordOpener(mockOpener(nil, testObjects()...)))

	_, err := e.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, util.ErrBadParamInput))
}
