package datastructure

import (
	"testing"

	"github.com/lintang-b-s/pbfextractor/pkg/suitability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGraph() *Graph {
	vertices := []Vertex{
		NewVertex(48.7758, 9.1829, 0, 100),
		NewVertex(48.7760, 9.1840, 1, 101),
		NewVertex(48.7770, 9.1850, 2, 102),
	}
	vertices[0].SetElevation(245)
	vertices[1].SetElevation(251.5)
	vertices[2].SetElevation(249)

	edges := []Edge{
		NewEdge(0, 1, 83.2, 6.5, suitability.Dedicated, false),
		NewEdge(1, 0, 83.2, 0, suitability.Dedicated, false),
		NewEdge(1, 2, 131.75, 0, suitability.Residential, true),
		NewEdge(2, 1, 131.75, 2.5, suitability.Residential, true),
	}
	return NewGraph(vertices, edges)
}

func TestValidate(t *testing.T) {
	t.Run("valid graph", func(t *testing.T) {
		assert.NoError(t, newTestGraph().Validate())
	})

	t.Run("empty graph", func(t *testing.T) {
		assert.NoError(t, NewGraph(nil, nil).Validate())
	})

	t.Run("orphan vertex", func(t *testing.T) {
		g := NewGraph([]Vertex{NewVertex(1, 1, 0, 1), NewVertex(2, 2, 1, 2), NewVertex(3, 3, 2, 3)},
			[]Edge{NewEdge(0, 1, 10, 0, suitability.Quiet, false)})
		assert.Error(t, g.Validate())
	})

	t.Run("edge out of range", func(t *testing.T) {
		g := NewGraph([]Vertex{NewVertex(1, 1, 0, 1)}, []Edge{NewEdge(0, 3, 10, 0, suitability.Quiet, false)})
		assert.Error(t, g.Validate())
	})

	t.Run("negative ascent", func(t *testing.T) {
		g := NewGraph([]Vertex{NewVertex(1, 1, 0, 1), NewVertex(2, 2, 1, 2)},
			[]Edge{NewEdge(0, 1, 10, -1, suitability.Quiet, false)})
		assert.Error(t, g.Validate())
	})
}

func TestUnsuitability(t *testing.T) {
	e := NewEdge(0, 1, 10, 0, suitability.Busy, false)
	assert.Equal(t, 4.0, e.GetUnsuitability())

	e.SetBicycleRoute(true)
	assert.Equal(t, 2.0, e.GetUnsuitability())
}

func TestPruneDominatedEdges(t *testing.T) {
	testCases := []struct {
		name       string
		edges      []Edge
		wantPruned int
		wantEdges  []Edge
	}{
		{
			name: "exact duplicate",
			edges: []Edge{
				NewEdge(0, 1, 10, 1, suitability.Quiet, false),
				NewEdge(0, 1, 10, 1, suitability.Quiet, false),
			},
			wantPruned: 1,
			wantEdges: []Edge{
				NewEdge(0, 1, 10, 1, suitability.Quiet, false),
			},
		},
		{
			name: "dominated in every metric",
			edges: []Edge{
				NewEdge(0, 1, 12, 2, suitability.Busy, false),
				NewEdge(0, 1, 10, 1, suitability.Quiet, false),
			},
			wantPruned: 1,
			wantEdges: []Edge{
				NewEdge(0, 1, 10, 1, suitability.Quiet, false),
			},
		},
		{
			name: "pareto optimal edges are kept",
			edges: []Edge{
				NewEdge(0, 1, 8, 1, suitability.Busy, false),
				NewEdge(0, 1, 10, 1, suitability.Quiet, false),
			},
			wantPruned: 0,
			wantEdges: []Edge{
				NewEdge(0, 1, 10, 1, suitability.Quiet, false),
				NewEdge(0, 1, 8, 1, suitability.Busy, false),
			},
		},
		{
			name: "opposite directions are not parallel",
			edges: []Edge{
				NewEdge(1, 0, 10, 1, suitability.Quiet, false),
				NewEdge(0, 1, 10, 1, suitability.Quiet, false),
			},
			wantPruned: 0,
			wantEdges: []Edge{
				NewEdge(0, 1, 10, 1, suitability.Quiet, false),
				NewEdge(1, 0, 10, 1, suitability.Quiet, false),
			},
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGraph([]Vertex{NewVertex(0, 0, 0, 1), NewVertex(0, 1, 1, 2)}, tt.edges)
			assert.Equal(t, tt.wantPruned, g.PruneDominatedEdges())
			assert.Equal(t, tt.wantEdges, g.GetEdges())
			require.NoError(t, g.Validate())
		})
	}
}

func TestGetBoundingBox(t *testing.T) {
	bb := newTestGraph().GetBoundingBox()
	require.False(t, bb.IsEmpty())
	assert.InDelta(t, 48.7758, bb.GetMinLat(), 1e-9)
	assert.InDelta(t, 48.7770, bb.GetMaxLat(), 1e-9)
	assert.InDelta(t, 9.1829, bb.GetMinLon(), 1e-9)
	assert.InDelta(t, 9.1850, bb.GetMaxLon(), 1e-9)

	assert.True(t, NewGraph(nil, nil).GetBoundingBox().IsEmpty())
}

func TestComputeAscent(t *testing.T) {
	g := newTestGraph()
	for i := range g.GetEdges() {
		g.GetEdge(Index(i)).SetAscent(42)
	}
	g.ComputeAscent()

	want := []float64{6.5, 0, 0, 2.5}
	for i, w := range want {
		assert.InDelta(t, w, g.GetEdge(Index(i)).GetAscent(), 1e-9)
	}

	g.GetVertex(1).SetFallbackElevation(0)
	g.ComputeAscent()
	for _, e := range g.GetEdges() {
		assert.Equal(t, 0.0, e.GetAscent())
	}
	elevation, ok := g.GetVertex(1).GetElevation()
	assert.False(t, ok)
	assert.Equal(t, 0.0, elevation)
}
