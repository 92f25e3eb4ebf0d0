package geo

import (
	"math"

	"github.com/lintang-b-s/pbfextractor/pkg/util"
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (c Coordinate) GetLat() float64 {
	return c.Lat
}

func (c Coordinate) GetLon() float64 {
	return c.Lon
}

func NewCoordinate(lat, lon float64) Coordinate {
	return Coordinate{
		Lat: lat,
		Lon: lon,
	}
}

const (
	// mean earth radius in meter
	earthRadiusM = 6_371_007.2
)

func sinSquaredHalf(angleRad float64) float64 {
	s := math.Sin(angleRad / 2.0)
	return s * s
}

// HaversineDistance. great-circle distance between two coordinates in meter.
// symmetric, and zero only for identical coordinates.
func HaversineDistance(latOne, lonOne, latTwo, lonTwo float64) float64 {
	deltaLat := util.DegreeToRadians(latTwo - latOne)
	deltaLon := util.DegreeToRadians(lonTwo - lonOne)

	a := sinSquaredHalf(deltaLat) +
		math.Cos(util.DegreeToRadians(latOne))*math.Cos(util.DegreeToRadians(latTwo))*sinSquaredHalf(deltaLon)
	c := 2.0 * math.Asin(math.Sqrt(math.Min(a, 1.0)))
	return earthRadiusM * c
}

func Distance(a, b Coordinate) float64 {
	return HaversineDistance(a.Lat, a.Lon, b.Lat, b.Lon)
}

// PathLength sums the distance between consecutive coordinates.
func PathLength(coords []Coordinate) float64 {
	length := 0.0
	for i := 1; i < len(coords); i++ {
		length += Distance(coords[i-1], coords[i])
	}
	return length
}

// Ascent sums only the positive differences between consecutive elevations.
func Ascent(elevations []float64) float64 {
	ascent := 0.0
	for i := 1; i < len(elevations); i++ {
		if diff := elevations[i] - elevations[i-1]; diff > 0 {
			ascent += diff
		}
	}
	return ascent
}
