package datastructure

import (
	"cmp"
	"fmt"

	"github.com/lintang-b-s/pbfextractor/pkg/geo"
	"github.com/lintang-b-s/pbfextractor/pkg/suitability"
	"golang.org/x/exp/slices"
)

type Index uint32

// Vertex is a graph node: an osm node referenced by at least one retained way.
type Vertex struct {
	lat       float64
	lon       float64
	elevation float64 // meter, valid only if elevated
	osmID     int64
	id        Index
	elevated  bool
}

func NewVertex(lat, lon float64, id Index, osmID int64) Vertex {
	return Vertex{
		lat:   lat,
		lon:   lon,
		id:    id,
		osmID: osmID,
	}
}

func (v *Vertex) GetID() Index {
	return v.id
}

func (v *Vertex) GetOsmID() int64 {
	return v.osmID
}

func (v *Vertex) GetLat() float64 {
	return v.lat
}

func (v *Vertex) GetLon() float64 {
	return v.lon
}

func (v *Vertex) GetCoordinate() geo.Coordinate {
	return geo.NewCoordinate(v.lat, v.lon)
}

// GetElevation returns the elevation in meter and false if no elevation was attached yet.
func (v *Vertex) GetElevation() (float64, bool) {
	return v.elevation, v.elevated
}

func (v *Vertex) SetElevation(elevation float64) {
	v.elevation = elevation
	v.elevated = true
}

// SetFallbackElevation stores elevation for a vertex no elevation data was found for.
// the vertex stays unelevated, so edges touching it get no ascent.
func (v *Vertex) SetFallbackElevation(elevation float64) {
	v.elevation = elevation
	v.elevated = false
}

// Edge is a directed edge between two consecutive way nodes.
type Edge struct {
	dist         float64 // meter
	ascent       float64 // meter
	tail         Index
	head         Index
	class        suitability.Class
	bicycleRoute bool
}

func NewEdge(tail, head Index, dist, ascent float64, class suitability.Class, bicycleRoute bool) Edge {
	return Edge{
		tail:         tail,
		head:         head,
		dist:         dist,
		ascent:       ascent,
		class:        class,
		bicycleRoute: bicycleRoute,
	}
}

func (e *Edge) GetTail() Index {
	return e.tail
}

func (e *Edge) GetHead() Index {
	return e.head
}

func (e *Edge) GetLength() float64 {
	return e.dist
}

func (e *Edge) GetAscent() float64 {
	return e.ascent
}

func (e *Edge) SetAscent(ascent float64) {
	e.ascent = ascent
}

func (e *Edge) GetClass() suitability.Class {
	return e.class
}

func (e *Edge) IsBicycleRoute() bool {
	return e.bicycleRoute
}

func (e *Edge) SetBicycleRoute(bicycleRoute bool) {
	e.bicycleRoute = bicycleRoute
}

// GetUnsuitability. class weight, halved on signposted bicycle routes.
func (e *Edge) GetUnsuitability() float64 {
	unsuitability := e.class.Unsuitability()
	if e.bicycleRoute {
		unsuitability *= 0.5
	}
	return unsuitability
}

// dominates reports whether e is at least as good as other in every metric.
func (e *Edge) dominates(other *Edge) bool {
	return e.dist <= other.dist && e.ascent <= other.ascent && e.GetUnsuitability() <= other.GetUnsuitability()
}

type Graph struct {
	vertices []Vertex
	edges    []Edge
}

func NewGraph(vertices []Vertex, edges []Edge) *Graph {
	return &Graph{
		vertices: vertices,
		edges:    edges,
	}
}

func (g *Graph) NumberOfVertices() int {
	return len(g.vertices)
}

func (g *Graph) NumberOfEdges() int {
	return len(g.edges)
}

func (g *Graph) GetVertex(u Index) *Vertex {
	return &g.vertices[u]
}

func (g *Graph) GetEdge(e Index) *Edge {
	return &g.edges[e]
}

func (g *Graph) GetVertices() []Vertex {
	return g.vertices
}

func (g *Graph) GetEdges() []Edge {
	return g.edges
}

func (g *Graph) ForEdges(handle func(e *Edge, id Index)) {
	for i := range g.edges {
		handle(&g.edges[i], Index(i))
	}
}

func (g *Graph) GetVertexCoordinates(u Index) (float64, float64) {
	return g.vertices[u].lat, g.vertices[u].lon
}

func (g *Graph) GetBoundingBox() *geo.BoundingBox {
	bb := geo.NewBoundingBox()
	for i := range g.vertices {
		bb.Extend(g.vertices[i].lat, g.vertices[i].lon)
	}
	return bb
}

// Validate checks that every edge endpoint exists and every vertex is an endpoint of some edge.
func (g *Graph) Validate() error {
	touched := make([]bool, len(g.vertices))
	for i := range g.edges {
		e := &g.edges[i]
		if int(e.tail) >= len(g.vertices) || int(e.head) >= len(g.vertices) {
			return fmt.Errorf("edge %d (%d -> %d) references a vertex out of range [0, %d)", i, e.tail, e.head,
				len(g.vertices))
		}
		if e.dist < 0 || e.ascent < 0 {
			return fmt.Errorf("edge %d has negative distance %v or ascent %v", i, e.dist, e.ascent)
		}
		touched[e.tail] = true
		touched[e.head] = true
	}
	for v, ok := range touched {
		if !ok {
			return fmt.Errorf("vertex %d (osm node %d) is not an endpoint of any edge", v, g.vertices[v].osmID)
		}
	}
	return nil
}

// ComputeAscent sets the ascent of every edge from the elevation of its endpoints. edges with an
// unelevated endpoint get zero ascent.
func (g *Graph) ComputeAscent() {
	for i := range g.edges {
		e := &g.edges[i]
		tailElevation, tailOk := g.vertices[e.tail].GetElevation()
		headElevation, headOk := g.vertices[e.head].GetElevation()
		if !tailOk || !headOk {
			e.ascent = 0
			continue
		}
		e.ascent = geo.Ascent([]float64{tailElevation, headElevation})
	}
}

func compareEdges(a, b Edge) int {
	if c := cmp.Compare(a.tail, b.tail); c != 0 {
		return c
	}
	if c := cmp.Compare(a.head, b.head); c != 0 {
		return c
	}
	if c := cmp.Compare(a.GetUnsuitability(), b.GetUnsuitability()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.ascent, b.ascent); c != 0 {
		return c
	}
	return cmp.Compare(a.dist, b.dist)
}

// PruneDominatedEdges sorts the edges by (tail, head) and removes every parallel edge that is
// dominated by its predecessor in distance, ascent and unsuitability. exact duplicates are dominated too.
// returns the number of removed edges.
func (g *Graph) PruneDominatedEdges() int {
	slices.SortStableFunc(g.edges, compareEdges)

	before := len(g.edges)
	kept := g.edges[:0]
	for i := range g.edges {
		e := g.edges[i]
		if len(kept) > 0 {
			last := &kept[len(kept)-1]
			if last.tail == e.tail && last.head == e.head && last.dominates(&e) {
				continue
			}
		}
		kept = append(kept, e)
	}
	g.edges = kept
	return before - len(g.edges)
}
