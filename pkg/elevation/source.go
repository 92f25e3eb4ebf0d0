package elevation

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/lintang-b-s/pbfextractor/pkg/util"
	"github.com/spf13/afero"
)

// TileSource lists and loads elevation tiles.
type TileSource interface {
	// Cells returns the cells a tile is available for.
	Cells() ([]Cell, error)
	Load(cell Cell) (*Tile, error)
}

// DirTileSource reads .hgt files from a directory. file names must follow the SRTM naming
// convention (N48E009.hgt), other files are ignored.
type DirTileSource struct {
	fs  afero.Fs
	dir string

	mu    sync.RWMutex
	files map[Cell]string
}

func NewDirTileSource(fs afero.Fs, dir string) *DirTileSource {
	return &DirTileSource{
		fs:    fs,
		dir:   dir,
		files: make(map[Cell]string),
	}
}

func (s *DirTileSource) Cells() ([]Cell, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, err
	}

	files := make(map[Cell]string, len(entries))
	cells := make([]Cell, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), tileExtension) {
			continue
		}
		cell, err := ParseCellName(entry.Name())
		if err != nil {
			continue
		}
		if _, ok := files[cell]; !ok {
			cells = append(cells, cell)
		}
		files[cell] = entry.Name()
	}

	s.mu.Lock()
	s.files = files
	s.mu.Unlock()

	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Lat != cells[j].Lat {
			return cells[i].Lat < cells[j].Lat
		}
		return cells[i].Lon < cells[j].Lon
	})
	return cells, nil
}

func (s *DirTileSource) Load(cell Cell) (*Tile, error) {
	s.mu.RLock()
	name, ok := s.files[cell]
	s.mu.RUnlock()
	if !ok {
		name = cell.Name() + tileExtension
	}

	data, err := afero.ReadFile(s.fs, filepath.Join(s.dir, name))
	if err != nil {
		return nil, util.WrapErrorf(err, ErrElevationUnavailable, "read tile %s", cell)
	}
	return ParseTile(cell, data)
}
