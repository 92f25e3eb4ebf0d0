package spatialindex

import (
	"github.com/tidwall/rtree"
	"go.uber.org/zap"
)

// Rtree indexes items by their lat/lon bounding rectangle.
type Rtree[T any] struct {
	tr *rtree.RTreeG[T]
}

type Item[T any] struct {
	MinLat, MinLon float64
	MaxLat, MaxLon float64
	Data           T
}

func NewRtree[T any]() *Rtree[T] {
	var tr rtree.RTreeG[T]
	return &Rtree[T]{
		tr: &tr,
	}
}

// Build. insert all items. not safe to call concurrently with searches.
func (rt *Rtree[T]) Build(items []Item[T], log *zap.Logger) {
	log.Info("Building R-tree spatial index...", zap.Int("items", len(items)))
	for _, item := range items {
		rt.Insert(item.MinLat, item.MinLon, item.MaxLat, item.MaxLon, item.Data)
	}
	log.Info("R-tree spatial index built.")
}

func (rt *Rtree[T]) Insert(minLat, minLon, maxLat, maxLon float64, data T) {
	rt.tr.Insert([2]float64{minLon, minLat}, [2]float64{maxLon, maxLat}, data)
}

// SearchPoint returns every item whose rectangle contains (lat, lon), borders included.
func (rt *Rtree[T]) SearchPoint(lat, lon float64) []T {
	results := make([]T, 0, 4)
	p := [2]float64{lon, lat}
	rt.tr.Search(p, p, func(min, max [2]float64, data T) bool {
		results = append(results, data)
		return true
	})
	return results
}

func (rt *Rtree[T]) Len() int {
	return rt.tr.Len()
}
