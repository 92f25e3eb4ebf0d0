package elevation

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lintang-b-s/pbfextractor/pkg/util"
)

var (
	ErrElevationUnavailable = errors.New("elevation unavailable")
	ErrMalformedTile        = errors.New("malformed elevation tile")
)

const (
	// samples per row of a 1 arc-second tile
	SRTM1Side = 3601
	// samples per row of a 3 arc-second tile
	SRTM3Side = 1201

	// no-data sample
	Void int16 = -32768

	tileExtension = ".hgt"
)

// Cell is the 1x1 degree square a tile covers, named after its south-west corner.
type Cell struct {
	Lat int
	Lon int
}

func CellOf(lat, lon float64) Cell {
	return Cell{
		Lat: int(math.Floor(lat)),
		Lon: int(math.Floor(lon)),
	}
}

// Name returns the SRTM base name of the cell, e.g. N48E009 or S07W010.
func (c Cell) Name() string {
	ns, ew := 'N', 'E'
	lat, lon := c.Lat, c.Lon
	if lat < 0 {
		ns, lat = 'S', -lat
	}
	if lon < 0 {
		ew, lon = 'W', -lon
	}
	return fmt.Sprintf("%c%02d%c%03d", ns, lat, ew, lon)
}

func (c Cell) String() string {
	return c.Name()
}

// ParseCellName parses a tile file name like N48E009.hgt, case-insensitive.
func ParseCellName(name string) (Cell, error) {
	base := strings.ToUpper(name)
	base = strings.TrimSuffix(base, strings.ToUpper(tileExtension))
	if len(base) != 7 {
		return Cell{}, fmt.Errorf("invalid tile name %q", name)
	}

	lat, err := strconv.Atoi(base[1:3])
	if err != nil {
		return Cell{}, fmt.Errorf("invalid tile name %q: %w", name, err)
	}
	lon, err := strconv.Atoi(base[4:7])
	if err != nil {
		return Cell{}, fmt.Errorf("invalid tile name %q: %w", name, err)
	}

	switch base[0] {
	case 'N':
	case 'S':
		lat = -lat
	default:
		return Cell{}, fmt.Errorf("invalid tile name %q", name)
	}
	switch base[3] {
	case 'E':
	case 'W':
		lon = -lon
	default:
		return Cell{}, fmt.Errorf("invalid tile name %q", name)
	}

	if lat < -90 || lat > 89 || lon < -180 || lon > 179 {
		return Cell{}, fmt.Errorf("tile %q out of range", name)
	}
	return Cell{Lat: lat, Lon: lon}, nil
}

// Tile is a square grid of elevation samples in meter. row 0 is the northern edge, column 0 the western edge.
// the outer rows and columns lie on the cell border and repeat the samples of the neighbouring tiles.
type Tile struct {
	cell    Cell
	side    int
	samples []int16
}

func NewTile(cell Cell, side int, samples []int16) (*Tile, error) {
	if side < 2 || len(samples) != side*side {
		return nil, util.WrapErrorf(nil, ErrMalformedTile, "tile %s: %d samples for side %d", cell, len(samples), side)
	}
	return &Tile{
		cell:    cell,
		side:    side,
		samples: samples,
	}, nil
}

// ParseTile decodes the big-endian int16 samples of an .hgt file. the resolution is taken from the size.
func ParseTile(cell Cell, data []byte) (*Tile, error) {
	var side int
	switch len(data) {
	case SRTM1Side * SRTM1Side * 2:
		side = SRTM1Side
	case SRTM3Side * SRTM3Side * 2:
		side = SRTM3Side
	default:
		return nil, util.WrapErrorf(nil, ErrMalformedTile, "tile %s: unexpected size %d bytes", cell, len(data))
	}

	samples := make([]int16, side*side)
	for i := range samples {
		samples[i] = int16(binary.BigEndian.Uint16(data[2*i:]))
	}
	return NewTile(cell, side, samples)
}

func (t *Tile) GetCell() Cell {
	return t.cell
}

func (t *Tile) GetSide() int {
	return t.side
}

func (t *Tile) sample(row, col int) int16 {
	return t.samples[row*t.side+col]
}

// Contains reports whether the point lies in the tile, borders included.
func (t *Tile) Contains(lat, lon float64) bool {
	return lat >= float64(t.cell.Lat) && lat <= float64(t.cell.Lat+1) &&
		lon >= float64(t.cell.Lon) && lon <= float64(t.cell.Lon+1)
}

// gridPosition returns the index of the upper-left sample of the grid square containing the fractional
// position pos, and the offset of pos inside that square.
func gridPosition(pos float64, side int) (int, float64) {
	i := int(math.Floor(pos))
	if i > side-2 {
		i = side - 2
	}
	if i < 0 {
		i = 0
	}
	return i, pos - float64(i)
}

// ElevationAt interpolates bilinearly between the four samples around the point.
func (t *Tile) ElevationAt(lat, lon float64) (float64, error) {
	if !t.Contains(lat, lon) {
		return 0, util.WrapErrorf(nil, ErrElevationUnavailable, "(%v, %v) is outside of tile %s", lat, lon, t.cell)
	}

	scale := float64(t.side - 1)
	row, fr := gridPosition((float64(t.cell.Lat+1)-lat)*scale, t.side)
	col, fc := gridPosition((lon-float64(t.cell.Lon))*scale, t.side)

	v00 := t.sample(row, col)
	v01 := t.sample(row, col+1)
	v10 := t.sample(row+1, col)
	v11 := t.sample(row+1, col+1)
	if v00 == Void || v01 == Void || v10 == Void || v11 == Void {
		return 0, util.WrapErrorf(nil, ErrElevationUnavailable, "no data around (%v, %v) in tile %s", lat, lon,
			t.cell)
	}

	return float64(v00)*(1-fr)*(1-fc) +
		float64(v01)*(1-fr)*fc +
		float64(v10)*fr*(1-fc) +
		float64(v11)*fr*fc, nil
}
