// Package resolve maps source asset references to target package paths.
// Nothing here checks that a package exists on the target.
package resolve

import (
	"path"
	"strings"

	"github.com/atlas-foundry/levelport/scene"
)

const (
	DefaultPackageRoot = "/Game/Old"
	DefaultPrefabRoot  = "/Game/Old/prefabs"
	DefaultPlaceholder = "/Engine/BasicShapes/Cube"
)

// Resolver holds the target roots. The zero value uses the defaults.
type Resolver struct {
	PackageRoot string `yaml:"package_root"`
	PrefabRoot  string `yaml:"prefab_root"`
	Placeholder string `yaml:"placeholder"`
}

// New returns a Resolver with the default roots.
func New() *Resolver {
	return &Resolver{
		PackageRoot: DefaultPackageRoot,
		PrefabRoot:  DefaultPrefabRoot,
		Placeholder: DefaultPlaceholder,
	}
}

func (r *Resolver) packageRoot() string {
	if r == nil || r.PackageRoot == "" {
		return DefaultPackageRoot
	}
	return strings.TrimSuffix(r.PackageRoot, "/")
}

func (r *Resolver) prefabRoot() string {
	if r == nil || r.PrefabRoot == "" {
		return DefaultPrefabRoot
	}
	return strings.TrimSuffix(r.PrefabRoot, "/")
}

// PlaceholderMesh is the mesh used when a reference is absent or unresolved.
func (r *Resolver) PlaceholderMesh() string {
	if r == nil || r.Placeholder == "" {
		return DefaultPlaceholder
	}
	return r.Placeholder
}

// MeshPackage strips the extension of a source mesh path and places it under
// the package root. An empty path resolves to the placeholder with ok false.
func (r *Resolver) MeshPackage(src string) (pkg string, ok bool) {
	rel := stripExt(cleanSource(src))
	if rel == "" {
		return r.PlaceholderMesh(), false
	}
	return r.packageRoot() + "/" + rel, true
}

// PrefabPackage maps "library.name" (or a bare name) under the prefab root.
func (r *Resolver) PrefabPackage(ref string) string {
	return r.prefabRoot() + "/" + strings.ReplaceAll(ref, ".", "/")
}

// MeshImport describes one mesh file the host must import.
type MeshImport struct {
	Source      string // converted source file, .fbx
	PackageName string // full object path without extension
	PackagePath string // directory of PackageName
	AssetName   string
}

// MeshImport plans the import of a source mesh. Geometry files are expected
// to have been converted to .fbx next to the original.
func (r *Resolver) MeshImport(src string) (MeshImport, bool) {
	rel := cleanSource(src)
	base := stripExt(rel)
	if base == "" {
		return MeshImport{}, false
	}
	pkg := r.packageRoot() + "/" + base
	return MeshImport{
		Source:      base + ".fbx",
		PackageName: pkg,
		PackagePath: path.Dir(pkg),
		AssetName:   path.Base(pkg),
	}, true
}

// MeshImports plans every distinct mesh of a level in sorted order.
func (r *Resolver) MeshImports(level *scene.Level) []MeshImport {
	var out []MeshImport
	seen := map[string]bool{}
	for _, src := range level.MeshPaths() {
		imp, ok := r.MeshImport(src)
		if !ok || seen[imp.PackageName] {
			continue
		}
		seen[imp.PackageName] = true
		out = append(out, imp)
	}
	return out
}

// TexturePackage maps a texture file to its package. Gloss maps are
// imported as a sibling with a "_glossmap" suffix.
func (r *Resolver) TexturePackage(file string, gloss bool) string {
	rel := cleanSource(file)
	for _, ext := range []string{".tif", ".dds"} {
		rel = strings.ReplaceAll(rel, ext, "")
	}
	pkg := r.packageRoot() + "/" + rel
	if gloss {
		pkg += "_glossmap"
	}
	return pkg
}

// SourceDir maps a package directory back to its folder in the source tree.
func (r *Resolver) SourceDir(packagePath string) string {
	rel := strings.TrimPrefix(packagePath, r.packageRoot())
	return strings.TrimPrefix(rel, "/")
}

// SplitMaterialSlot splits an imported slot name into the material file and
// the sub material name. "_mtl__" takes precedence over "_mtl_".
func SplitMaterialSlot(slot string) (file, material string, ok bool) {
	for _, sep := range []string{"_mtl__", "_mtl_"} {
		if !strings.Contains(slot, sep) {
			continue
		}
		parts := strings.Split(slot, sep)
		if len(parts) != 2 {
			return "", "", false
		}
		return parts[0], parts[1], true
	}
	return "", "", false
}

// MaterialInstanceName names the instance created for a mesh's sub material.
func MaterialInstanceName(mesh, material string) string {
	return "mtl_" + mesh + "_" + material
}

// LayerAllowed applies the allow-list rule used for top-level layers.
func LayerAllowed(allow []string, name string) bool {
	for _, a := range allow {
		if a == name {
			return true
		}
	}
	return false
}

// PrefabMember resolves a prefab reference against the level. When the
// reference is dangling, suggestion holds the closest known key, if any.
func PrefabMember(level *scene.Level, ref string) (p *scene.Prefab, suggestion string, ok bool) {
	if p, ok := level.Prefab(ref); ok {
		return p, "", true
	}
	return nil, scene.Suggest(ref, level.PrefabKeys()), false
}

func cleanSource(src string) string {
	s := strings.TrimSpace(strings.ReplaceAll(src, `\`, "/"))
	return strings.TrimPrefix(s, "/")
}

func stripExt(p string) string {
	return strings.TrimSuffix(p, path.Ext(p))
}
