package metrics

import (
	"strings"
)

// Edge is the part of a graph edge a Metric reads its weight from.
type Edge interface {
	GetLength() float64
	GetAscent() float64
	GetUnsuitability() float64
}

// Metric is one named edge weight column of the graph file.
type Metric struct {
	name   string
	weight func(e Edge) float64
}

func NewMetric(name string, weight func(e Edge) float64) Metric {
	return Metric{
		name:   name,
		weight: weight,
	}
}

func (m Metric) GetName() string {
	return m.name
}

func (m Metric) GetWeight(e Edge) float64 {
	return m.weight(e)
}

var (
	// Distance. edge length in meter.
	Distance = NewMetric("distance", func(e Edge) float64 {
		return e.GetLength()
	})

	// HeightAscent. accumulated positive elevation difference in meter.
	HeightAscent = NewMetric("HeightAscent", func(e Edge) float64 {
		return e.GetAscent()
	})

	BicycleUnsuitability = NewMetric("BicycleUnsuitability", func(e Edge) float64 {
		return e.GetUnsuitability()
	})
)

// Metrics is the ordered set of weight columns written after source and target of every edge.
type Metrics []Metric

func DefaultMetrics() Metrics {
	return Metrics{Distance, HeightAscent, BicycleUnsuitability}
}

func (ms Metrics) Names() []string {
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = m.name
	}
	return names
}

// Header is the value of the "# metrics:" comment line.
func (ms Metrics) Header() string {
	return strings.Join(ms.Names(), ", ")
}

func (ms Metrics) Weights(e Edge) []float64 {
	weights := make([]float64, len(ms))
	for i, m := range ms {
		weights[i] = m.weight(e)
	}
	return weights
}
