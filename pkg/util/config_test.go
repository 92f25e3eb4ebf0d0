package util

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	v := NewViper()
	v.Set("pbf_file", "stuttgart.osm.pbf")
	v.Set("output_file", "stuttgart.graph")

	cfg, err := LoadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "stuttgart.osm.pbf", cfg.PbfFile)
	assert.Equal(t, "", cfg.SrtmDir)
	assert.Equal(t, "none", cfg.Output.Compression)
	assert.True(t, cfg.Elevation.Enabled)
	assert.Equal(t, 16, cfg.Elevation.CacheTiles)
	assert.Equal(t, 4, cfg.Elevation.Workers)
	assert.Equal(t, "suppress", cfg.Builder.OnewayPolicy)
	assert.True(t, cfg.Builder.TwoPass)
	assert.False(t, cfg.Builder.BicycleRoutes)
	assert.Equal(t, 4096, cfg.Reader.QueueSize)
}

func TestReadConfigFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/pbfextractor/config.yaml", []byte(`
pbf_file: /data/bw.osm.pbf
srtm_dir: /data/srtm
output_file: /data/bw.graph
output:
  compression: bzip2
elevation:
  fallback: 12.5
builder:
  oneway_policy: downgrade
  prune_dominated: true
`), 0o644))

	v := NewViper()
	v.SetFs(fs)
	require.NoError(t, ReadConfig(v, "/etc/pbfextractor/config.yaml"))
	cfg, err := LoadConfig(v)
	require.NoError(t, err)

	assert.Equal(t, "/data/srtm", cfg.SrtmDir)
	assert.Equal(t, "bzip2", cfg.Output.Compression)
	assert.Equal(t, 12.5, cfg.Elevation.Fallback)
	assert.Equal(t, "downgrade", cfg.Builder.OnewayPolicy)
	assert.True(t, cfg.Builder.PruneDominated)
	assert.True(t, cfg.Builder.TwoPass)

	assert.Error(t, ReadConfig(v, "/etc/pbfextractor/missing.yaml"))
	assert.NoError(t, ReadConfig(NewViper(), ""))
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("PBFEXTRACTOR_PBF_FILE", "env.osm.pbf")
	t.Setenv("PBFEXTRACTOR_OUTPUT_FILE", "env.graph")
	t.Setenv("PBFEXTRACTOR_OUTPUT_COMPRESSION", "gzip")

	cfg, err := LoadConfig(NewViper())
	require.NoError(t, err)
	assert.Equal(t, "env.osm.pbf", cfg.PbfFile)
	assert.Equal(t, "env.graph", cfg.OutputFile)
	assert.Equal(t, "gzip", cfg.Output.Compression)
}

func TestLoadConfigInvalid(t *testing.T) {
	testCases := []struct {
		name  string
		set   map[string]interface{}
		field string
	}{
		{
			name:  "missing pbf file",
			set:   map[string]interface{}{"output_file": "out.graph"},
			field: "Config.PbfFile",
		},
		{
			name:  "missing output file",
			set:   map[string]interface{}{"pbf_file": "in.osm.pbf"},
			field: "Config.OutputFile",
		},
		{
			name: "unknown compression",
			set: map[string]interface{}{"pbf_file": "in.osm.pbf", "output_file": "out.graph",
				"output.compression": "zip"},
			field: "Config.Output.Compression",
		},
		{
			name: "unknown oneway policy",
			set: map[string]interface{}{"pbf_file": "in.osm.pbf", "output_file": "out.graph",
				"builder.oneway_policy": "ignore"},
			field: "Config.Builder.OnewayPolicy",
		},
		{
			name: "empty tile cache",
			set: map[string]interface{}{"pbf_file": "in.osm.pbf", "output_file": "out.graph",
				"elevation.cache_tiles": 0},
			field: "Config.Elevation.CacheTiles",
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			v := NewViper()
			for key, val := range tt.set {
				v.Set(key, val)
			}
			_, err := LoadConfig(v)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrBadParamInput))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}
