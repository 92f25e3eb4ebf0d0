package geo

import (
	"github.com/golang/geo/s2"
)

type BoundingBox struct {
	rect s2.Rect
}

func NewBoundingBox() *BoundingBox {
	return &BoundingBox{rect: s2.EmptyRect()}
}

func (b *BoundingBox) Extend(lat, lon float64) {
	b.rect = b.rect.AddPoint(s2.LatLngFromDegrees(lat, lon))
}

func (b *BoundingBox) IsEmpty() bool {
	return b.rect.IsEmpty()
}

func (b *BoundingBox) GetMinLat() float64 {
	return b.rect.Lo().Lat.Degrees()
}

func (b *BoundingBox) GetMinLon() float64 {
	return b.rect.Lo().Lng.Degrees()
}

func (b *BoundingBox) GetMaxLat() float64 {
	return b.rect.Hi().Lat.Degrees()
}

func (b *BoundingBox) GetMaxLon() float64 {
	return b.rect.Hi().Lng.Degrees()
}

func (b *BoundingBox) Contains(lat, lon float64) bool {
	return b.rect.ContainsLatLng(s2.LatLngFromDegrees(lat, lon))
}
