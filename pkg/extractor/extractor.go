package extractor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lintang-b-s/pbfextractor/pkg/concurrent"
	"github.com/lintang-b-s/pbfextractor/pkg/datastructure"
	"github.com/lintang-b-s/pbfextractor/pkg/elevation"
	"github.com/lintang-b-s/pbfextractor/pkg/osmparser"
	"github.com/lintang-b-s/pbfextractor/pkg/suitability"
	"github.com/lintang-b-s/pbfextractor/pkg/util"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	elevationChunkSize = 4096
)

// RecordOpener opens a new reader over the map data. it is called once per pass.
type RecordOpener func(ctx context.Context, opts osmparser.ReaderOptions) (*osmparser.RecordReader, error)

// PbfFileOpener opens filename of fs as a pbf file.
func PbfFileOpener(fs afero.Fs, filename string) RecordOpener {
	return func(ctx context.Context, opts osmparser.ReaderOptions) (*osmparser.RecordReader, error) {
		return osmparser.OpenPbfFile(ctx, fs, filename, opts)
	}
}

// Report summarises an extraction. per-record problems are counted here instead of failing the run.
type Report struct {
	osmparser.BuildStats
	Vertices             int
	Edges                int
	ElevationUnavailable int
	EdgesPruned          int
	Duration             time.Duration
}

type Extractor struct {
	cfg        *util.Config
	logger     *zap.Logger
	fs         afero.Fs
	open       RecordOpener
	tileSource elevation.TileSource
	scorer     *suitability.Scorer
}

type Option func(e *Extractor)

// WithFs sets the filesystem the map data and elevation tiles are read from.
func WithFs(fs afero.Fs) Option {
	return func(e *Extractor) {
		e.fs = fs
	}
}

func WithRecordOpener(open RecordOpener) Option {
	return func(e *Extractor) {
		e.open = open
	}
}

func WithTileSource(source elevation.TileSource) Option {
	return func(e *Extractor) {
		e.tileSource = source
	}
}

func WithScorer(scorer *suitability.Scorer) Option {
	return func(e *Extractor) {
		e.scorer = scorer
	}
}

func NewExtractor(cfg *util.Config, logger *zap.Logger, opts ...Option) *Extractor {
	e := &Extractor{
		cfg:    cfg,
		logger: logger,
		fs:     afero.NewOsFs(),
		scorer: suitability.NewDefaultScorer(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.open == nil {
		e.open = PbfFileOpener(e.fs, cfg.PbfFile)
	}
	if e.tileSource == nil && cfg.SrtmDir != "" {
		e.tileSource = elevation.NewDirTileSource(e.fs, cfg.SrtmDir)
	}
	return e
}

// Run builds the graph and writes it to the output file. a malformed map file aborts the run before
// anything is written.
func (e *Extractor) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	compression, err := datastructure.ParseCompression(e.cfg.Output.Compression)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrBadParamInput, "output compression")
	}

	g, report, err := e.BuildGraph(ctx)
	if err != nil {
		return nil, err
	}

	unavailable, err := e.attachElevation(g)
	if err != nil {
		return nil, err
	}
	report.ElevationUnavailable = unavailable
	g.ComputeAscent()

	if e.cfg.Builder.PruneDominated {
		report.EdgesPruned = g.PruneDominatedEdges()
		e.logger.Sugar().Infof("removed %d dominated edges", report.EdgesPruned)
	}

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}
	report.Vertices = g.NumberOfVertices()
	report.Edges = g.NumberOfEdges()

	e.logger.Info("writing graph", zap.String("file", e.cfg.OutputFile), zap.String("compression", string(compression)))
	if err := g.WriteGraphFile(e.cfg.OutputFile, compression); err != nil {
		return nil, fmt.Errorf("write graph: %w", err)
	}

	report.Duration = time.Since(start)
	e.logReport(report)
	return report, nil
}

// BuildGraph reads the map data and builds the graph without elevation.
func (e *Extractor) BuildGraph(ctx context.Context) (*datastructure.Graph, *Report, error) {
	builder := osmparser.NewGraphBuilder(osmparser.BuilderOptions{
		OnewayPolicy:  osmparser.OnewayPolicy(e.cfg.Builder.OnewayPolicy),
		KeepForbidden: e.cfg.Builder.KeepForbidden,
		BicycleRoutes: e.cfg.Builder.BicycleRoutes,
		FilterNodes:   e.cfg.Builder.TwoPass,
	}, e.scorer, e.logger)

	if e.cfg.Builder.TwoPass {
		e.logger.Info("scanning openstreetmap ways...")
		if err := e.readPass(ctx, builder, osmparser.ReaderOptions{SkipNodes: true, SkipRelations: true}); err != nil {
			return nil, nil, err
		}
		e.logger.Info("reading openstreetmap nodes and relations...")
		if err := e.readPass(ctx, builder, osmparser.ReaderOptions{SkipWays: true}); err != nil {
			return nil, nil, err
		}
	} else {
		e.logger.Info("reading openstreetmap data...")
		if err := e.readPass(ctx, builder, osmparser.ReaderOptions{}); err != nil {
			return nil, nil, err
		}
	}

	g := builder.Finish()
	return g, &Report{BuildStats: builder.GetStats()}, nil
}

func (e *Extractor) readPass(ctx context.Context, builder *osmparser.GraphBuilder, opts osmparser.ReaderOptions) error {
	opts.Procs = e.cfg.Reader.Procs
	rr, err := e.open(ctx, opts)
	if err != nil {
		return fmt.Errorf("open map data: %w", err)
	}
	defer rr.Close()

	return osmparser.Stream(ctx, rr, e.cfg.Reader.QueueSize, builder.Add)
}

type vertexRange struct {
	start, end int
}

type elevationResult struct {
	unavailable int
	err         error
}

func (e *Extractor) attachElevation(g *datastructure.Graph) (int, error) {
	fallback := e.cfg.Elevation.Fallback
	if !e.cfg.Elevation.Enabled || e.tileSource == nil {
		e.logger.Info("elevation disabled, edges get no ascent")
		for i := range g.GetVertices() {
			g.GetVertex(datastructure.Index(i)).SetFallbackElevation(fallback)
		}
		return 0, nil
	}

	grid, err := elevation.NewGrid(e.tileSource, e.cfg.Elevation.CacheTiles, e.logger)
	if err != nil {
		return 0, err
	}
	if err := grid.Load(); err != nil {
		return 0, fmt.Errorf("load elevation tiles: %w", err)
	}

	jobs := make([]vertexRange, 0, g.NumberOfVertices()/elevationChunkSize+1)
	for start := 0; start < g.NumberOfVertices(); start += elevationChunkSize {
		jobs = append(jobs, vertexRange{start: start, end: util.MinInt(start+elevationChunkSize, g.NumberOfVertices())})
	}

	// ranges are disjoint, every worker writes its own vertices
	results := concurrent.Run(e.cfg.Elevation.Workers, jobs, func(r vertexRange) elevationResult {
		res := elevationResult{}
		for i := r.start; i < r.end; i++ {
			v := g.GetVertex(datastructure.Index(i))
			elev, err := grid.ElevationAt(v.GetLat(), v.GetLon())
			if err == nil {
				v.SetElevation(elev)
				continue
			}
			if !errors.Is(err, elevation.ErrElevationUnavailable) {
				res.err = err
				return res
			}
			e.logger.Debug("no elevation", zap.Int64("osm_node", v.GetOsmID()), zap.Error(err))
			v.SetFallbackElevation(fallback)
			res.unavailable++
		}
		return res
	})

	unavailable := 0
	for _, res := range results {
		if res.err != nil {
			return 0, res.err
		}
		unavailable += res.unavailable
	}
	if unavailable > 0 {
		e.logger.Warn("nodes without elevation data", zap.Int("nodes", unavailable),
			zap.Float64("fallback", fallback))
	}
	return unavailable, nil
}

func (e *Extractor) logReport(r *Report) {
	e.logger.Info("extraction finished",
		zap.Int("vertices", r.Vertices),
		zap.Int("edges", r.Edges),
		zap.Int("nodes_read", r.NodesRead),
		zap.Int("ways_read", r.WaysRead),
		zap.Int("ways_accepted", r.WaysAccepted),
		zap.Int("ways_filtered", r.WaysFiltered),
		zap.Int("degenerate_ways", r.DegenerateWays),
		zap.Int("missing_node_ways", r.MissingNodeWays),
		zap.Int("bicycle_route_ways", r.RouteWays),
		zap.Int("elevation_unavailable", r.ElevationUnavailable),
		zap.Int("edges_pruned", r.EdgesPruned),
		zap.Duration("duration", r.Duration),
	)
}
