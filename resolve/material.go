package resolve

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/atlas-foundry/levelport/scene"
)

// IllumParent is the parent material every converted Illum material instances.
const IllumParent = "/Game/Materials/CE/M_CE_Illum"

// ErrUnsupportedShader is returned for materials whose shader has no target parent.
var ErrUnsupportedShader = errors.New("unsupported shader")

// TextureParam binds a texture package to a material parameter.
type TextureParam struct {
	Param   string
	Package string
}

// MaterialPlan is everything a host needs to author one material instance.
type MaterialPlan struct {
	Name        string
	PackagePath string
	Parent      string
	Textures    []TextureParam
	Vectors     map[string]mgl64.Vec3
	Scalars     map[string]float64
	Switches    []string
}

// Package is the full object path of the instance.
func (p MaterialPlan) Package() string {
	return p.PackagePath + "/" + p.Name
}

// PlanMaterial maps a parsed Illum material to parameter bindings for an
// instance named after the mesh and placed next to it.
func (r *Resolver) PlanMaterial(m *scene.Material, mesh, packagePath string) (MaterialPlan, error) {
	if m.Shader != "Illum" {
		return MaterialPlan{}, fmt.Errorf("%w: material %s uses %q", ErrUnsupportedShader, m.Name, m.Shader)
	}
	plan := MaterialPlan{
		Name:        MaterialInstanceName(mesh, m.Name),
		PackagePath: packagePath,
		Parent:      IllumParent,
		Vectors:     map[string]mgl64.Vec3{},
		Scalars:     map[string]float64{},
	}
	tex := func(param, slot string, gloss bool) {
		if t, ok := m.Texture(slot); ok && t.File != "" {
			plan.Textures = append(plan.Textures, TextureParam{Param: param, Package: r.TexturePackage(t.File, gloss)})
		}
	}
	scalar := func(key string) {
		if f, ok := m.FloatParam(key); ok {
			plan.Scalars[key] = f
		}
	}
	enable := func(name string) {
		for _, s := range plan.Switches {
			if s == name {
				return
			}
		}
		plan.Switches = append(plan.Switches, name)
	}

	tex("Diffuse", "Diffuse", false)
	tex("Bumpmap", "Bumpmap", false)
	tex("Bumpmap Gloss", "Bumpmap", true)
	tex("Specular", "Specular", false)
	if m.Diffuse != "" {
		plan.Vectors["MatDiffuse"] = scene.Vec3Param(m.Diffuse)
	}
	if m.Specular != "" {
		plan.Vectors["MatSpecular"] = scene.Vec3Param(m.Specular)
	}

	if m.HasSwitch("BLENDLAYER") {
		enable("BLENDLAYER")
		for _, k := range []string{"BlendFactor", "BlendMaskTiling", "BlendFalloff", "BlendLayer2Tiling", "BlendLayer2Specular"} {
			scalar(k)
		}
		tex("Custom", "Custom", false)
		tex("[1] Custom", "[1] Custom", false)
		tex("[1] Custom Gloss", "[1] Custom", true)
		tex("Opacity", "Opacity", false)
	}
	detail := false
	if m.HasSwitch("DETAIL_MAPPING") {
		enable("DETAIL_MAPPING")
		tex("Detail", "Detail", false)
		detail = true
	}
	if m.HasSwitch("DETAIL_ATLAS") {
		enable("DETAIL_ATLAS")
		enable("DETAIL_MAPPING")
		tex("DetailMask", "Detail", false)
		detail = true
	}
	if detail {
		for _, k := range []string{"DetailDiffuseScale", "DetailGlossScale", "DetailBumpScale"} {
			scalar(k)
		}
		u, v := m.Tiling("Detail")
		plan.Scalars["Detail Tile U"] = u
		plan.Scalars["Detail Tile V"] = v
	}
	if m.HasSwitch("USE_FIRST_UV_DETMAP") {
		enable("USE_FIRST_UV_DETMAP")
	}
	if m.HasSwitch("SNDUVS") {
		enable("SNDUVS")
		tex("[1] Diffuse", "[1] Diffuse", false)
		scalar("SndUVsTileU")
		scalar("SndUVsTileV")
	}
	return plan, nil
}
