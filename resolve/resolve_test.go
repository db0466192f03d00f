package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-foundry/levelport/scene"
)

func TestMeshPackage(t *testing.T) {
	r := New()
	pkg, ok := r.MeshPackage("objects/buildings/house.cgf")
	assert.True(t, ok)
	assert.Equal(t, "/Game/Old/objects/buildings/house", pkg)

	pkg, ok = r.MeshPackage(`objects\rocks\rock_a.cgf`)
	assert.True(t, ok)
	assert.Equal(t, "/Game/Old/objects/rocks/rock_a", pkg)

	pkg, ok = r.MeshPackage("")
	assert.False(t, ok)
	assert.Equal(t, DefaultPlaceholder, pkg)

	a, _ := r.MeshPackage("objects/a.cgf")
	b, _ := r.MeshPackage("objects/b.cgf")
	assert.NotEqual(t, a, b)
}

func TestZeroResolverUsesDefaults(t *testing.T) {
	var r Resolver
	pkg, _ := r.MeshPackage("objects/rock.cgf")
	assert.Equal(t, "/Game/Old/objects/rock", pkg)
	assert.Equal(t, "/Game/Old/prefabs/props/crate", r.PrefabPackage("props.crate"))
	assert.Equal(t, DefaultPlaceholder, r.PlaceholderMesh())
}

func TestPrefabPackage(t *testing.T) {
	r := &Resolver{PrefabRoot: "/Game/Levels/prefabs/"}
	assert.Equal(t, "/Game/Levels/prefabs/village/house_big", r.PrefabPackage("village.house_big"))
	assert.Equal(t, "/Game/Levels/prefabs/lonely", r.PrefabPackage("lonely"))
}

func TestMeshImport(t *testing.T) {
	imp, ok := New().MeshImport("objects/props/crate.cgf")
	require.True(t, ok)
	assert.Equal(t, MeshImport{
		Source:      "objects/props/crate.fbx",
		PackageName: "/Game/Old/objects/props/crate",
		PackagePath: "/Game/Old/objects/props",
		AssetName:   "crate",
	}, imp)

	_, ok = New().MeshImport("")
	assert.False(t, ok)
}

func TestMeshImportsForLevel(t *testing.T) {
	level := &scene.Level{
		Prefabs: map[string]*scene.Prefab{
			"props.crate": {Name: "crate", Library: "props", Meshes: []scene.StaticMesh{{MeshPath: "objects/crate.cgf"}}},
		},
		Layers: []*scene.Layer{{
			Name:    "Main",
			Meshes:  []scene.StaticMesh{{MeshPath: "objects/rock.cgf"}, {MeshPath: "objects/rock.cgf"}, {}},
			Prefabs: []scene.PrefabInstance{{PrefabName: "props.crate"}},
		}},
	}
	imps := New().MeshImports(level)
	require.Len(t, imps, 2)
	assert.Equal(t, "objects/crate.fbx", imps[0].Source)
	assert.Equal(t, "objects/rock.fbx", imps[1].Source)
}

func TestTexturePackage(t *testing.T) {
	r := New()
	assert.Equal(t, "/Game/Old/objects/wall/stone_diff", r.TexturePackage("objects/wall/stone_diff.tif", false))
	assert.Equal(t, "/Game/Old/objects/wall/stone_ddna_glossmap", r.TexturePackage("objects/wall/stone_ddna.dds", true))
	assert.Equal(t, "objects/wall", r.SourceDir("/Game/Old/objects/wall"))
}

func TestSplitMaterialSlot(t *testing.T) {
	file, mat, ok := SplitMaterialSlot("house_mtl__roof")
	assert.True(t, ok)
	assert.Equal(t, "house", file)
	assert.Equal(t, "roof", mat)

	file, mat, ok = SplitMaterialSlot("house_mtl_wall_stone")
	assert.True(t, ok)
	assert.Equal(t, "house", file)
	assert.Equal(t, "wall_stone", mat)

	_, _, ok = SplitMaterialSlot("plain_slot")
	assert.False(t, ok)
	_, _, ok = SplitMaterialSlot("a_mtl_b_mtl_c")
	assert.False(t, ok)

	assert.Equal(t, "mtl_house_roof", MaterialInstanceName("house", "roof"))
}

func TestLayerAllowedAndPrefabMember(t *testing.T) {
	assert.True(t, LayerAllowed([]string{"Main", "Terrain"}, "Terrain"))
	assert.False(t, LayerAllowed(nil, "Main"))

	level := &scene.Level{Prefabs: map[string]*scene.Prefab{"props.barrel": {Name: "barrel", Library: "props"}}}
	p, _, ok := PrefabMember(level, "props.barrel")
	assert.True(t, ok)
	assert.Equal(t, "barrel", p.Name)

	_, suggestion, ok := PrefabMember(level, "props.barel")
	assert.False(t, ok)
	assert.Equal(t, "props.barrel", suggestion)
}
