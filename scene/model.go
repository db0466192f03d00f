package scene

import (
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jinzhu/copier"
)

// RotationForm tags which representation a Rotation carries.
type RotationForm int

const (
	RotationQuat RotationForm = iota
	RotationEuler
)

// Euler angles in degrees, using the source engine's axes.
type Euler struct {
	Pitch float64 // about Y
	Yaw   float64 // about Z
	Roll  float64 // about X
}

// Rotation is either a quaternion (source order w,x,y,z) or Euler angles.
type Rotation struct {
	Form  RotationForm
	Quat  mgl64.Quat
	Euler Euler
}

// QuatRotation wraps q without normalizing it.
func QuatRotation(q mgl64.Quat) Rotation {
	return Rotation{Form: RotationQuat, Quat: q}
}

// EulerRotation wraps Euler angles in degrees.
func EulerRotation(e Euler) Rotation {
	return Rotation{Form: RotationEuler, Euler: e}
}

// Transform is the placement of one entity in source units (meters).
type Transform struct {
	Position mgl64.Vec3
	Rotation Rotation
	Scale    mgl64.Vec3
}

// IdentityTransform is the default placement of an object without Pos/Rotate/Scale.
func IdentityTransform() Transform {
	return Transform{
		Rotation: QuatRotation(mgl64.QuatIdent()),
		Scale:    mgl64.Vec3{1, 1, 1},
	}
}

// MeshClass records which object type produced a StaticMesh.
type MeshClass string

const (
	ClassGeomEntity MeshClass = "GeomEntity"
	ClassBrush      MeshClass = "Brush"
)

// StaticMesh is a placed piece of geometry.
type StaticMesh struct {
	Name      string
	Class     MeshClass
	Transform Transform
	// MeshPath is source relative; empty means the placeholder mesh is used.
	MeshPath string
	Extra    map[string]string
}

// PrefabInstance is a placed reference to a Prefab by key.
type PrefabInstance struct {
	Name       string
	Transform  Transform
	PrefabName string
	Extra      map[string]string
}

// Layer is a node of the level's layer tree.
type Layer struct {
	Name     string
	FullName string
	Prefabs  []PrefabInstance
	Meshes   []StaticMesh
	Children []*Layer
}

// Prefab is a reusable template of meshes.
type Prefab struct {
	Name    string
	Library string
	Meshes  []StaticMesh
}

// Key is "library.name" when the prefab belongs to a library, else the bare name.
func (p *Prefab) Key() string {
	return PrefabKey(p.Library, p.Name)
}

// PrefabKey builds the identity key used by Level.Prefabs and PrefabInstance.PrefabName.
func PrefabKey(library, name string) string {
	if library == "" {
		return name
	}
	return library + "." + name
}

// SplitPrefabKey is the inverse of PrefabKey. The library is everything before the first dot.
func SplitPrefabKey(key string) (library, name string) {
	if i := strings.IndexByte(key, '.'); i >= 0 {
		return key[:i], key[i+1:]
	}
	return "", key
}

// Level is the root of a built scene.
type Level struct {
	Name    string
	Prefabs map[string]*Prefab
	Layers  []*Layer
}

// Prefab looks up a weak reference; ok is false for a dangling one.
func (l *Level) Prefab(ref string) (*Prefab, bool) {
	p, ok := l.Prefabs[ref]
	return p, ok
}

// PrefabKeys returns the prefab keys sorted.
func (l *Level) PrefabKeys() []string {
	keys := make([]string, 0, len(l.Prefabs))
	for k := range l.Prefabs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Walk visits every layer depth first in document order. path holds the
// ancestors of layer, outermost first. Returning false skips the subtree.
func (l *Level) Walk(fn func(layer *Layer, path []*Layer) bool) {
	var visit func(layer *Layer, path []*Layer)
	visit = func(layer *Layer, path []*Layer) {
		if !fn(layer, path) {
			return
		}
		next := append(path[:len(path):len(path)], layer)
		for _, child := range layer.Children {
			visit(child, next)
		}
	}
	for _, layer := range l.Layers {
		visit(layer, nil)
	}
}

// PrefabRefs returns every prefab reference placed in any layer, sorted and unique.
func (l *Level) PrefabRefs() []string {
	seen := map[string]struct{}{}
	l.Walk(func(layer *Layer, _ []*Layer) bool {
		for _, p := range layer.Prefabs {
			seen[p.PrefabName] = struct{}{}
		}
		return true
	})
	return sortedKeys(seen)
}

// MeshPaths returns every distinct mesh path the level needs imported: meshes
// placed in layers plus the meshes of prefabs that layers reference.
func (l *Level) MeshPaths() []string {
	seen := map[string]struct{}{}
	add := func(meshes []StaticMesh) {
		for _, m := range meshes {
			if m.MeshPath != "" {
				seen[m.MeshPath] = struct{}{}
			}
		}
	}
	l.Walk(func(layer *Layer, _ []*Layer) bool {
		add(layer.Meshes)
		for _, inst := range layer.Prefabs {
			if p, ok := l.Prefabs[inst.PrefabName]; ok {
				add(p.Meshes)
			}
		}
		return true
	})
	return sortedKeys(seen)
}

// Counts is a tally of entities in a level.
type Counts struct {
	Layers  int
	Meshes  int
	Prefabs int
}

// Count tallies layers and placed entities across the whole tree.
func (l *Level) Count() Counts {
	var c Counts
	l.Walk(func(layer *Layer, _ []*Layer) bool {
		c.Layers++
		c.Meshes += len(layer.Meshes)
		c.Prefabs += len(layer.Prefabs)
		return true
	})
	return c
}

// Clone returns a deep copy that shares nothing with l.
func (l *Level) Clone() (*Level, error) {
	out := &Level{}
	if err := copier.CopyWithOption(out, l, copier.Option{DeepCopy: true}); err != nil {
		return nil, err
	}
	// copier allocates empty maps and slices for nil ones; restore them so
	// the clone compares equal to l.
	for key, p := range l.Prefabs {
		if c, ok := out.Prefabs[key]; ok {
			c.Meshes = restoreMeshes(p.Meshes, c.Meshes)
		}
	}
	restoreLayers(l.Layers, out.Layers)
	if l.Layers == nil {
		out.Layers = nil
	}
	if l.Prefabs == nil {
		out.Prefabs = nil
	} else if out.Prefabs == nil {
		out.Prefabs = map[string]*Prefab{}
	}
	return out, nil
}

func restoreLayers(src, dst []*Layer) {
	for i := range src {
		if i >= len(dst) || src[i] == nil || dst[i] == nil {
			continue
		}
		s, d := src[i], dst[i]
		d.Meshes = restoreMeshes(s.Meshes, d.Meshes)
		if s.Prefabs == nil {
			d.Prefabs = nil
		}
		for j := range s.Prefabs {
			if j < len(d.Prefabs) && s.Prefabs[j].Extra == nil {
				d.Prefabs[j].Extra = nil
			}
		}
		restoreLayers(s.Children, d.Children)
		if s.Children == nil {
			d.Children = nil
		}
	}
}

func restoreMeshes(src, dst []StaticMesh) []StaticMesh {
	if src == nil {
		return nil
	}
	for j := range src {
		if j < len(dst) && src[j].Extra == nil {
			dst[j].Extra = nil
		}
	}
	return dst
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
