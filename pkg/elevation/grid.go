package elevation

import (
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/lintang-b-s/pbfextractor/pkg/spatialindex"
	"github.com/lintang-b-s/pbfextractor/pkg/util"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultCacheTiles = 16
)

// Grid answers elevation queries from lazily loaded tiles. at most cacheTiles tiles are held in memory,
// the least recently used one is evicted first. safe for concurrent use after Load.
type Grid struct {
	source TileSource
	index  *spatialindex.Rtree[Cell]
	cache  *lru.Cache[Cell, *Tile]
	loads  singleflight.Group
	logger *zap.Logger
}

func NewGrid(source TileSource, cacheTiles int, logger *zap.Logger) (*Grid, error) {
	if cacheTiles <= 0 {
		cacheTiles = DefaultCacheTiles
	}
	cache, err := lru.New[Cell, *Tile](cacheTiles)
	if err != nil {
		return nil, err
	}
	return &Grid{
		source: source,
		index:  spatialindex.NewRtree[Cell](),
		cache:  cache,
		logger: logger,
	}, nil
}

// Load registers the tiles of the source. no tile data is read.
func (g *Grid) Load() error {
	cells, err := g.source.Cells()
	if err != nil {
		return err
	}

	items := make([]spatialindex.Item[Cell], 0, len(cells))
	for _, c := range cells {
		items = append(items, spatialindex.Item[Cell]{
			MinLat: float64(c.Lat),
			MinLon: float64(c.Lon),
			MaxLat: float64(c.Lat + 1),
			MaxLon: float64(c.Lon + 1),
			Data:   c,
		})
	}
	g.index.Build(items, g.logger)
	g.logger.Sugar().Infof("registered %d elevation tiles", len(cells))
	return nil
}

func (g *Grid) NumberOfTiles() int {
	return g.index.Len()
}

// coveringCell picks the tile serving a point. a point on a tile border is covered by up to four tiles;
// the tile whose south-west corner is floor(lat), floor(lon) wins, otherwise the southernmost then
// westernmost one.
func (g *Grid) coveringCell(lat, lon float64) (Cell, bool) {
	cells := g.index.SearchPoint(lat, lon)
	if len(cells) == 0 {
		return Cell{}, false
	}
	want := CellOf(lat, lon)
	for _, c := range cells {
		if c == want {
			return c, true
		}
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Lat != cells[j].Lat {
			return cells[i].Lat < cells[j].Lat
		}
		return cells[i].Lon < cells[j].Lon
	})
	return cells[0], true
}

func (g *Grid) tile(cell Cell) (*Tile, error) {
	if t, ok := g.cache.Get(cell); ok {
		return t, nil
	}

	v, err, _ := g.loads.Do(cell.Name(), func() (interface{}, error) {
		if t, ok := g.cache.Get(cell); ok {
			return t, nil
		}
		t, err := g.source.Load(cell)
		if err != nil {
			return nil, err
		}
		g.logger.Debug("loaded elevation tile", zap.String("tile", cell.Name()), zap.Int("side", t.GetSide()))
		g.cache.Add(cell, t)
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Tile), nil
}

// ElevationAt returns the interpolated elevation in meter. it fails with ErrElevationUnavailable if no tile
// covers the point or a surrounding sample has no data, and with ErrMalformedTile if the tile cannot be decoded.
func (g *Grid) ElevationAt(lat, lon float64) (float64, error) {
	cell, ok := g.coveringCell(lat, lon)
	if !ok {
		return 0, util.WrapErrorf(nil, ErrElevationUnavailable, "no tile covers (%v, %v)", lat, lon)
	}
	t, err := g.tile(cell)
	if err != nil {
		return 0, err
	}
	return t.ElevationAt(lat, lon)
}
