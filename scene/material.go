package scene

import (
	"io"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// Texture is one texture slot of a material.
type Texture struct {
	Map    string // slot, e.g. "Diffuse", "Bumpmap", "[1] Custom"
	File   string
	Filter string
	TileU  float64
	TileV  float64
	// IsTileU and IsTileV are kept verbatim; they are not interpreted.
	IsTileU string
	IsTileV string
}

// Material is one sub material of a material file. Attributes the
// converter interprets are typed; all other Material and PublicParams
// attributes are kept in Params.
type Material struct {
	Name          string
	Shader        string
	Diffuse       string
	Specular      string
	StringGenMask string
	Textures      []Texture
	Params        map[string]string
}

var typedMaterialAttrs = map[string]bool{
	"Name": true, "Shader": true, "Diffuse": true, "Specular": true, "StringGenMask": true,
}

// ParseMaterials decodes the SubMaterials of a material file. A file with no
// SubMaterials section yields an empty list.
func ParseMaterials(r io.Reader, file string) ([]Material, error) {
	root, err := decodeTree(r, file)
	if err != nil {
		return nil, err
	}
	sub := root.find("SubMaterials")
	if root.Name == "SubMaterials" {
		sub = root
	}
	if sub == nil {
		return nil, nil
	}
	var out []Material
	for _, node := range sub.childrenNamed("Material") {
		m := Material{
			Name:          strings.ReplaceAll(GetString(node.Attrs, "Name", ""), ".", "_"),
			Shader:        GetString(node.Attrs, "Shader", ""),
			Diffuse:       GetString(node.Attrs, "Diffuse", ""),
			Specular:      GetString(node.Attrs, "Specular", ""),
			StringGenMask: GetString(node.Attrs, "StringGenMask", ""),
		}
		for k, v := range node.Attrs {
			if !typedMaterialAttrs[k] {
				m.setParam(k, v)
			}
		}
		if params := node.child("PublicParams"); params != nil {
			for k, v := range params.Attrs {
				m.setParam(k, v)
			}
		}
		if textures := node.child("Textures"); textures != nil {
			for _, tex := range textures.childrenNamed("Texture") {
				t := Texture{
					Map:     GetString(tex.Attrs, "Map", ""),
					File:    GetString(tex.Attrs, "File", ""),
					Filter:  GetString(tex.Attrs, "Filter", ""),
					IsTileU: GetString(tex.Attrs, "IsTileU", ""),
					IsTileV: GetString(tex.Attrs, "IsTileV", ""),
					TileU:   1,
					TileV:   1,
				}
				if mod := tex.child("TexMod"); mod != nil {
					t.TileU = GetFloat(mod.Attrs, "TileU", 1)
					t.TileV = GetFloat(mod.Attrs, "TileV", 1)
				}
				m.Textures = append(m.Textures, t)
			}
		}
		out = append(out, m)
	}
	return out, nil
}

func (m *Material) setParam(k, v string) {
	if m.Params == nil {
		m.Params = map[string]string{}
	}
	m.Params[k] = v
}

// FindMaterial returns the material with the given (already sanitized) name.
func FindMaterial(mats []Material, name string) (*Material, bool) {
	for i := range mats {
		if mats[i].Name == name {
			return &mats[i], true
		}
	}
	return nil, false
}

// EnabledSwitches splits StringGenMask on '%', dropping empty tokens.
func (m *Material) EnabledSwitches() []string {
	var out []string
	for _, s := range strings.Split(m.StringGenMask, "%") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// HasSwitch reports whether a shader generation switch is enabled.
func (m *Material) HasSwitch(name string) bool {
	for _, s := range m.EnabledSwitches() {
		if s == name {
			return true
		}
	}
	return false
}

// Texture returns the first texture bound to the slot.
func (m *Material) Texture(slot string) (Texture, bool) {
	for _, t := range m.Textures {
		if t.Map == slot {
			return t, true
		}
	}
	return Texture{}, false
}

// Tiling returns the TexMod tiling of a slot, (1,1) when absent.
func (m *Material) Tiling(slot string) (u, v float64) {
	if t, ok := m.Texture(slot); ok {
		return t.TileU, t.TileV
	}
	return 1, 1
}

// Param returns a pass-through attribute.
func (m *Material) Param(key string) (string, bool) {
	v, ok := m.Params[key]
	return v, ok && v != ""
}

// FloatParam parses a pass-through attribute as a float.
func (m *Material) FloatParam(key string) (float64, bool) {
	v, ok := m.Param(key)
	if !ok {
		return 0, false
	}
	f, err := ParseFloat(v)
	return f, err == nil
}

// Vec3Param parses a color-like "r,g,b" value; malformed input yields zero.
func Vec3Param(s string) mgl64.Vec3 {
	v, err := ParseVec3(s)
	if err != nil {
		return mgl64.Vec3{}
	}
	return v
}
