package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-foundry/levelport/resolve"
)

const sampleJob = `
root: /data/extracted
levels: [village, harbor]
layout:
  layer_ext: .layer
allow_layers: [Main, Terrain]
check_mesh_files: true
packages:
  package_root: /Game/Imported
log_level: debug
output:
  dir: build
  formats: [scenejson, dot, html]
  dot_actors: true
parallel: 2
`

func TestParseOverDefaults(t *testing.T) {
	cfg, err := Parse([]byte(sampleJob))
	require.NoError(t, err)

	assert.Equal(t, "/data/extracted", cfg.Root)
	assert.Equal(t, []string{"village", "harbor"}, cfg.Levels)
	assert.Equal(t, ".layer", cfg.Layout.LayerExt)
	assert.Equal(t, "data/levels", cfg.Layout.LevelsDir, "unset layout fields keep defaults")
	assert.Equal(t, "/Game/Imported", cfg.Packages.PackageRoot)
	assert.Equal(t, resolve.DefaultPrefabRoot, cfg.Packages.PrefabRoot)
	assert.True(t, cfg.CheckMeshFiles)
	assert.True(t, cfg.Output.DOTActors)
	assert.True(t, cfg.Wants(OutputDOT))
	assert.False(t, cfg.Wants(OutputGLTF))
	assert.Equal(t, 2, cfg.Parallel)

	lvl, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestValidate(t *testing.T) {
	cases := map[string]string{
		"no levels":      "root: .",
		"empty level":    "levels: ['']",
		"unknown format": "levels: [a]\noutput: {formats: [pdf]}",
		"bad log level":  "levels: [a]\nlog_level: loud",
		"negative":       "levels: [a]\nparallel: -1",
		"bad yaml":       "levels: [a",
	}
	for name, body := range cases {
		if _, err := Parse([]byte(body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.yaml")
	require.NoError(t, os.WriteFile(path, []byte("levels: [village]\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Output, cfg.Output)
	assert.Equal(t, "scenejson", cfg.Output.Formats[0])

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestBuildOptions(t *testing.T) {
	cfg, err := Parse([]byte(sampleJob))
	require.NoError(t, err)
	fsys := fstest.MapFS{}

	opts := cfg.BuildOptions(fsys, nil)
	require.Len(t, opts, 2)
	assert.Equal(t, "village", opts[0].Layout.LevelName)
	assert.Equal(t, "harbor", opts[1].Layout.LevelName)
	assert.Equal(t, "data/levels/harbor/level.editor_xml", opts[1].Layout.EditorPath())
	assert.Equal(t, []string{"Main", "Terrain"}, opts[0].AllowLayers)
	assert.Nil(t, opts[0].Logger)

	withLog := cfg.BuildOptions(fsys, slog.Default())
	assert.NotNil(t, withLog[0].Logger)

	res := cfg.Resolver()
	pkg, ok := res.MeshPackage("objects/rock.cgf")
	assert.True(t, ok)
	assert.Equal(t, "/Game/Imported/objects/rock", pkg)
}
