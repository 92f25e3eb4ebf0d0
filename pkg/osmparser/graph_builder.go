package osmparser

import (
	"errors"
	"time"

	"github.com/lintang-b-s/pbfextractor/pkg/datastructure"
	"github.com/lintang-b-s/pbfextractor/pkg/geo"
	"github.com/lintang-b-s/pbfextractor/pkg/suitability"
	"github.com/lintang-b-s/pbfextractor/pkg/util"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	ErrMissingNodeReference = errors.New("way references a missing node")
)

type BuilderOptions struct {
	OnewayPolicy  OnewayPolicy
	KeepForbidden bool
	BicycleRoutes bool
	// FilterNodes drops every node not referenced by a way added before it. set it when all ways are
	// added before the nodes, e.g. in the second pass of a two pass extraction.
	FilterNodes bool
}

type BuildStats struct {
	NodesRead       int
	WaysRead        int
	RelationsRead   int
	WaysAccepted    int
	WaysFiltered    int
	DegenerateWays  int
	MissingNodeWays int
	RouteWays       int
}

type osmWay struct {
	id    int64
	nodes []int64
	class suitability.Class
	dir   direction
}

// GraphBuilder turns map records into a graph. records may arrive in any order: nodes and ways are
// buffered and resolved in Finish. not safe for concurrent use.
type GraphBuilder struct {
	opts   BuilderOptions
	scorer *suitability.Scorer
	logger *zap.Logger

	nodeCoords       map[int64]geo.Coordinate
	referenced       map[int64]struct{}
	ways             []osmWay
	bicycleRouteWays map[int64]struct{}

	stats    BuildStats
	progress rate.Sometimes
}

func NewGraphBuilder(opts BuilderOptions, scorer *suitability.Scorer, logger *zap.Logger) *GraphBuilder {
	if opts.OnewayPolicy == "" {
		opts.OnewayPolicy = OnewaySuppress
	}
	return &GraphBuilder{
		opts:             opts,
		scorer:           scorer,
		logger:           logger,
		nodeCoords:       make(map[int64]geo.Coordinate),
		referenced:       make(map[int64]struct{}),
		ways:             make([]osmWay, 0),
		bicycleRouteWays: make(map[int64]struct{}),
		progress:         rate.Sometimes{Interval: 5 * time.Second},
	}
}

func (b *GraphBuilder) GetStats() BuildStats {
	return b.stats
}

// Add dispatches a record to AddNode, AddWay or AddRelation.
func (b *GraphBuilder) Add(rec Record) error {
	switch rec.Kind {
	case KindNode:
		b.AddNode(rec.Node)
	case KindWay:
		b.AddWay(rec.Way)
	case KindRelation:
		b.AddRelation(rec.Relation)
	}
	b.progress.Do(func() {
		b.logger.Sugar().Infof("processing openstreetmap objects: %d nodes, %d ways...", b.stats.NodesRead,
			b.stats.WaysRead)
	})
	return nil
}

func (b *GraphBuilder) AddNode(node RawNode) {
	b.stats.NodesRead++
	if b.opts.FilterNodes {
		if _, ok := b.referenced[node.ID]; !ok {
			return
		}
	}
	b.nodeCoords[node.ID] = geo.NewCoordinate(node.Lat, node.Lon)
}

func (b *GraphBuilder) AddWay(way *RawWay) {
	b.stats.WaysRead++
	if !acceptWay(way.Tags, b.opts.KeepForbidden) {
		b.stats.WaysFiltered++
		return
	}
	if len(way.Nodes) < 2 {
		b.stats.DegenerateWays++
		return
	}
	b.stats.WaysAccepted++

	for _, n := range way.Nodes {
		b.referenced[n] = struct{}{}
	}
	b.ways = append(b.ways, osmWay{
		id:    way.ID,
		nodes: way.Nodes,
		class: b.scorer.Classify(way.Tags),
		dir:   wayDirection(way.Tags),
	})
}

// AddRelation records the member ways of route=bicycle relations. other relations are ignored.
func (b *GraphBuilder) AddRelation(rel *RawRelation) {
	b.stats.RelationsRead++
	if !b.opts.BicycleRoutes || rel.Tags["route"] != "bicycle" {
		return
	}
	for _, m := range rel.Members {
		if m.Type == "way" {
			b.bicycleRouteWays[m.Ref] = struct{}{}
		}
	}
}

// graphAssembler holds the node id -> index arena while ways are resolved.
type graphAssembler struct {
	nodeIndex map[int64]datastructure.Index
	vertices  []datastructure.Vertex
	edges     []datastructure.Edge
}

func (a *graphAssembler) vertex(osmID int64, coord geo.Coordinate) datastructure.Index {
	if idx, ok := a.nodeIndex[osmID]; ok {
		return idx
	}
	idx := datastructure.Index(len(a.vertices))
	a.nodeIndex[osmID] = idx
	a.vertices = append(a.vertices, datastructure.NewVertex(coord.GetLat(), coord.GetLon(), idx, osmID))
	return idx
}

func worseClass(a, b suitability.Class) suitability.Class {
	if a.Better(b) {
		return b
	}
	return a
}

// Finish resolves the buffered ways into a graph. every consecutive node pair of a way becomes one edge
// per allowed direction. ways with a missing node are skipped and counted.
func (b *GraphBuilder) Finish() *datastructure.Graph {
	a := &graphAssembler{
		nodeIndex: make(map[int64]datastructure.Index),
		vertices:  make([]datastructure.Vertex, 0),
		edges:     make([]datastructure.Edge, 0),
	}

	for _, way := range b.ways {
		if err := b.checkNodes(way); err != nil {
			b.stats.MissingNodeWays++
			b.logger.Debug("skipping way", zap.Error(err))
			continue
		}

		_, onBicycleRoute := b.bicycleRouteWays[way.id]
		if onBicycleRoute {
			b.stats.RouteWays++
		}

		for i := 1; i < len(way.nodes); i++ {
			from, to := way.nodes[i-1], way.nodes[i]
			if from == to {
				continue
			}
			fromCoord, toCoord := b.nodeCoords[from], b.nodeCoords[to]
			tail := a.vertex(from, fromCoord)
			head := a.vertex(to, toCoord)
			dist := geo.Distance(fromCoord, toCoord)

			if class, ok := b.directedClass(way, way.dir.forward); ok {
				a.edges = append(a.edges, datastructure.NewEdge(tail, head, dist, 0, class, onBicycleRoute))
			}
			if class, ok := b.directedClass(way, way.dir.backward); ok {
				a.edges = append(a.edges, datastructure.NewEdge(head, tail, dist, 0, class, onBicycleRoute))
			}
		}
	}

	b.logger.Sugar().Infof("number of vertices: %v", len(a.vertices))
	b.logger.Sugar().Infof("number of edges: %v", len(a.edges))
	if b.stats.MissingNodeWays > 0 {
		b.logger.Warn("ways skipped because of missing nodes", zap.Int("ways", b.stats.MissingNodeWays))
	}

	// buffered records are not needed anymore
	b.nodeCoords = make(map[int64]geo.Coordinate)
	b.referenced = make(map[int64]struct{})
	b.ways = nil

	return datastructure.NewGraph(a.vertices, a.edges)
}

// directedClass returns the class of the edge in one direction of a way and whether it is emitted at all.
func (b *GraphBuilder) directedClass(way osmWay, allowed bool) (suitability.Class, bool) {
	if allowed {
		return way.class, true
	}
	if b.opts.OnewayPolicy == OnewayDowngrade {
		return worseClass(way.class, suitability.Unsuitable), true
	}
	return 0, false
}

func (b *GraphBuilder) checkNodes(way osmWay) error {
	for _, n := range way.nodes {
		if _, ok := b.nodeCoords[n]; !ok {
			return util.WrapErrorf(nil, ErrMissingNodeReference, "way %d references missing node %d", way.id, n)
		}
	}
	return nil
}
