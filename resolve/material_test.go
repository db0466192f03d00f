package resolve

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-foundry/levelport/scene"
)

const wallMaterial = `<Material>
  <SubMaterials>
    <Material Name="stone" Shader="Illum" Diffuse="0.5,0.4,0.3" StringGenMask="%DETAIL_ATLAS%BLENDLAYER">
      <Textures>
        <Texture Map="Diffuse" File="objects/wall/stone_diff.tif"/>
        <Texture Map="Bumpmap" File="objects/wall/stone_ddn.dds"/>
        <Texture Map="Detail" File="objects/wall/detail.tif"><TexMod TileU="8" TileV="8"/></Texture>
      </Textures>
      <PublicParams BlendFactor="4" DetailBumpScale="0.25"/>
    </Material>
    <Material Name="water" Shader="Water"/>
  </SubMaterials>
</Material>`

func TestPlanMaterial(t *testing.T) {
	mats, err := scene.ParseMaterials(strings.NewReader(wallMaterial), "wall.mtl")
	require.NoError(t, err)
	stone, ok := scene.FindMaterial(mats, "stone")
	require.True(t, ok)

	plan, err := New().PlanMaterial(stone, "wall", "/Game/Old/objects/wall")
	require.NoError(t, err)

	assert.Equal(t, "mtl_wall_stone", plan.Name)
	assert.Equal(t, "/Game/Old/objects/wall/mtl_wall_stone", plan.Package())
	assert.Equal(t, IllumParent, plan.Parent)
	assert.Equal(t, []TextureParam{
		{Param: "Diffuse", Package: "/Game/Old/objects/wall/stone_diff"},
		{Param: "Bumpmap", Package: "/Game/Old/objects/wall/stone_ddn"},
		{Param: "Bumpmap Gloss", Package: "/Game/Old/objects/wall/stone_ddn_glossmap"},
		{Param: "DetailMask", Package: "/Game/Old/objects/wall/detail"},
	}, plan.Textures)
	assert.Equal(t, mgl64.Vec3{0.5, 0.4, 0.3}, plan.Vectors["MatDiffuse"])
	assert.Equal(t, []string{"BLENDLAYER", "DETAIL_ATLAS", "DETAIL_MAPPING"}, plan.Switches)
	assert.Equal(t, 4.0, plan.Scalars["BlendFactor"])
	assert.Equal(t, 0.25, plan.Scalars["DetailBumpScale"])
	assert.Equal(t, 8.0, plan.Scalars["Detail Tile U"])
	_, hasGloss := plan.Scalars["DetailGlossScale"]
	assert.False(t, hasGloss)

	water, _ := scene.FindMaterial(mats, "water")
	_, err = New().PlanMaterial(water, "wall", "/Game/Old/objects/wall")
	assert.True(t, errors.Is(err, ErrUnsupportedShader))
}
