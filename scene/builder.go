package scene

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// Layout locates the files of a level inside the source tree. All paths
// are slash separated and relative to BuildOptions.FS.
type Layout struct {
	LevelsDir  string `yaml:"levels_dir"`
	LevelName  string `yaml:"level_name"`
	LayersDir  string `yaml:"layers_dir"`
	EditorFile string `yaml:"editor_file"`
	PrefabsDir string `yaml:"prefabs_dir"`
	LayerExt   string `yaml:"layer_ext"`
}

// DefaultLayout returns the directory conventions of an exported level.
func DefaultLayout(level string) Layout {
	return Layout{
		LevelsDir:  "data/levels",
		LevelName:  level,
		LayersDir:  "layers",
		EditorFile: "level.editor_xml",
		PrefabsDir: "prefabs",
		LayerExt:   ".lyr",
	}
}

func (l Layout) withDefaults() Layout {
	def := DefaultLayout(l.LevelName)
	if l.LevelsDir == "" {
		l.LevelsDir = def.LevelsDir
	}
	if l.LayersDir == "" {
		l.LayersDir = def.LayersDir
	}
	if l.EditorFile == "" {
		l.EditorFile = def.EditorFile
	}
	if l.PrefabsDir == "" {
		l.PrefabsDir = def.PrefabsDir
	}
	if l.LayerExt == "" {
		l.LayerExt = def.LayerExt
	}
	return l
}

// EditorPath is the root scene document.
func (l Layout) EditorPath() string {
	return path.Join(l.LevelsDir, l.LevelName, l.EditorFile)
}

// LayerPath maps a layer's FullName to its file.
func (l Layout) LayerPath(fullName string) string {
	fullName = strings.ReplaceAll(fullName, `\`, "/")
	return path.Join(l.LevelsDir, l.LevelName, l.LayersDir, fullName+l.LayerExt)
}

// LibraryPath maps a prefab library name to its file; names are lowercased.
func (l Layout) LibraryPath(name string) string {
	return path.Join(l.PrefabsDir, strings.ToLower(name)+".xml")
}

// BuildOptions configures one Build call.
type BuildOptions struct {
	FS     fs.FS
	Layout Layout
	// AllowLayers names the top-level layers to descend into.
	AllowLayers []string
	// AllowAllLayers ignores AllowLayers and descends into every top-level layer.
	AllowAllLayers bool
	// CheckMeshFiles records a missing reference for mesh paths absent from FS.
	CheckMeshFiles bool
	Logger         *slog.Logger
}

// Build parses the root document of a level and resolves every layer and
// prefab library it references. A nil Level is returned only when the root
// document is missing or malformed; everything else is recorded in the
// Diagnostics and the build continues.
func Build(opts BuildOptions) (*Level, *Diagnostics, error) {
	if opts.FS == nil {
		return nil, nil, errors.New("scene: BuildOptions.FS is nil")
	}
	b := &builder{
		fsys:      opts.FS,
		layout:    opts.Layout.withDefaults(),
		diag:      &Diagnostics{},
		log:       opts.Logger,
		resolving: map[string]bool{},
	}
	if b.log == nil {
		b.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	allowed := make(map[string]bool, len(opts.AllowLayers))
	for _, name := range opts.AllowLayers {
		allowed[name] = true
	}

	rootFile := b.layout.EditorPath()
	root, err := b.load(rootFile)
	if err != nil {
		return nil, b.diag, err
	}

	level := &Level{Name: b.layout.LevelName, Prefabs: map[string]*Prefab{}}
	if lib := root.child("PrefabsLibrary"); lib != nil {
		b.prefabLibrary(level, lib, rootFile)
	} else {
		b.log.Debug("no prefab library section", "file", rootFile)
	}

	if objectLayers := root.find("ObjectLayers"); objectLayers != nil {
		for _, ref := range objectLayers.childrenNamed("RootLayer") {
			name, fullName := layerRef(ref)
			if !opts.AllowAllLayers && !allowed[name] {
				b.diag.skip(b.log, name, "not in allow-list")
				continue
			}
			if layer := b.layer(name, fullName, rootFile); layer != nil {
				level.Layers = append(level.Layers, layer)
			}
		}
	}

	b.checkReferences(level, opts.CheckMeshFiles)
	return level, b.diag, nil
}

type builder struct {
	fsys   fs.FS
	layout Layout
	diag   *Diagnostics
	log    *slog.Logger
	// resolving holds the layer files on the active recursion path.
	resolving map[string]bool
}

// load reads a file completely before decoding it, so no handle outlives the call.
func (b *builder) load(file string) (*element, error) {
	data, err := fs.ReadFile(b.fsys, file)
	if err != nil {
		return nil, &Error{Kind: ErrRead, File: file, Message: "read", Err: err}
	}
	return decodeTree(bytes.NewReader(data), file)
}

func (b *builder) exists(file string) bool {
	_, err := fs.Stat(b.fsys, file)
	return err == nil
}

func (b *builder) prefabLibrary(level *Level, lib *element, file string) {
	var defs []*Prefab
	if inline := lib.child("LevelLibrary"); inline != nil {
		for _, node := range inline.childrenNamed("Prefab") {
			defs = append(defs, b.prefab(node, file))
		}
	}
	for _, ref := range lib.childrenNamed("Library") {
		name := GetString(ref.Attrs, "Name", "")
		if name == "" {
			continue
		}
		libFile := b.layout.LibraryPath(name)
		if !b.exists(libFile) {
			b.diag.warn(b.log, Warning{
				Kind:    WarnMissingReference,
				File:    file,
				Field:   "Library",
				Value:   name,
				Message: fmt.Sprintf("prefab library file %s not found", libFile),
			})
			continue
		}
		root, err := b.load(libFile)
		if err != nil {
			b.diag.fail(b.log, asError(err, libFile))
			continue
		}
		for _, node := range root.childrenNamed("Prefab") {
			defs = append(defs, b.prefab(node, libFile))
		}
	}
	for _, def := range defs {
		key := def.Key()
		if _, dup := level.Prefabs[key]; dup {
			b.diag.warn(b.log, Warning{
				Kind:    WarnDuplicatePrefab,
				Field:   "Name",
				Value:   key,
				Message: fmt.Sprintf("prefab %s defined more than once; the later definition wins", key),
			})
		}
		level.Prefabs[key] = def
	}
}

func (b *builder) prefab(node *element, file string) *Prefab {
	p := &Prefab{
		Name:    GetString(node.Attrs, "Name", ""),
		Library: GetString(node.Attrs, "Library", ""),
	}
	objects := node.child("Objects")
	if objects == nil {
		return p
	}
	for _, obj := range objects.childrenNamed("Object") {
		switch GetString(obj.Attrs, "Type", "") {
		case string(ClassGeomEntity):
			p.Meshes = append(p.Meshes, b.staticMesh(obj, ClassGeomEntity, file))
		case string(ClassBrush):
			p.Meshes = append(p.Meshes, b.staticMesh(obj, ClassBrush, file))
		}
	}
	return p
}

// layer loads the file behind a layer reference. It returns nil when the
// file is missing, malformed, or already being resolved higher up the path.
func (b *builder) layer(name, fullName, from string) *Layer {
	file := b.layout.LayerPath(fullName)
	if b.resolving[file] {
		b.diag.fail(b.log, &Error{
			Kind:    ErrCycle,
			File:    from,
			Message: fmt.Sprintf("layer %s references %s which is already being resolved", name, file),
		})
		return nil
	}
	if !b.exists(file) {
		b.diag.warn(b.log, Warning{
			Kind:    WarnMissingReference,
			File:    from,
			Field:   "FullName",
			Value:   fullName,
			Message: fmt.Sprintf("layer file %s not found", file),
		})
		return nil
	}
	root, err := b.load(file)
	if err != nil {
		b.diag.fail(b.log, asError(err, file))
		return nil
	}

	b.resolving[file] = true
	defer delete(b.resolving, file)

	layer := &Layer{Name: name, FullName: fullName}
	if objects := root.find("LayerObjects"); objects != nil {
		for _, obj := range objects.childrenNamed("Object") {
			switch GetString(obj.Attrs, "Type", "") {
			case "Prefab":
				layer.Prefabs = append(layer.Prefabs, b.prefabInstance(obj, file))
			case string(ClassGeomEntity):
				layer.Meshes = append(layer.Meshes, b.staticMesh(obj, ClassGeomEntity, file))
			case string(ClassBrush):
				layer.Meshes = append(layer.Meshes, b.staticMesh(obj, ClassBrush, file))
			}
		}
	}
	if children := root.find("ChildLayers"); children != nil {
		for _, ref := range children.childrenNamed("Layer") {
			childName, childFull := layerRef(ref)
			if child := b.layer(childName, childFull, file); child != nil {
				layer.Children = append(layer.Children, child)
			}
		}
	}
	b.log.Debug("layer resolved", "layer", name, "prefabs", len(layer.Prefabs), "meshes", len(layer.Meshes), "children", len(layer.Children))
	return layer
}

// meshRefAttr is the attribute that carries the mesh path for each class.
var meshRefAttr = map[MeshClass]string{
	ClassGeomEntity: "Geometry",
	ClassBrush:      "Prefab",
}

// knownObjectAttrs are interpreted and never copied to Extra.
var knownObjectAttrs = map[string]bool{
	"Type": true, "Name": true, "Pos": true, "Rotate": true, "Scale": true,
	"Geometry": true, "Prefab": true, "PrefabName": true,
}

func (b *builder) staticMesh(obj *element, class MeshClass, file string) StaticMesh {
	return StaticMesh{
		Name:      GetString(obj.Attrs, "Name", ""),
		Class:     class,
		Transform: b.transform(obj.Attrs, file),
		MeshPath:  GetString(obj.Attrs, meshRefAttr[class], ""),
		Extra:     extraAttrs(obj.Attrs),
	}
}

func (b *builder) prefabInstance(obj *element, file string) PrefabInstance {
	return PrefabInstance{
		Name:       GetString(obj.Attrs, "Name", ""),
		Transform:  b.transform(obj.Attrs, file),
		PrefabName: GetString(obj.Attrs, "PrefabName", ""),
		Extra:      extraAttrs(obj.Attrs),
	}
}

// transform reads Pos, Rotate and Scale. Rotate holds a w,x,y,z quaternion;
// a three component value is read as x,y,z Euler degrees.
func (b *builder) transform(a Attrs, file string) Transform {
	t := IdentityTransform()
	if v, ok := a["Pos"]; ok {
		if p, err := ParseVec3(v); err == nil {
			t.Position = p
		} else {
			b.malformed(file, "Pos", v, err)
		}
	}
	if v, ok := a["Rotate"]; ok {
		if q, err := ParseQuat(v); err == nil {
			t.Rotation = QuatRotation(q)
		} else if e, eerr := ParseVec3(v); eerr == nil {
			t.Rotation = EulerRotation(Euler{Roll: e[0], Pitch: e[1], Yaw: e[2]})
		} else {
			b.malformed(file, "Rotate", v, err)
		}
	}
	if v, ok := a["Scale"]; ok {
		if s, err := ParseVec3(v); err == nil {
			t.Scale = s
		} else {
			b.malformed(file, "Scale", v, err)
		}
	}
	return t
}

func (b *builder) malformed(file, field, value string, err error) {
	b.diag.warn(b.log, Warning{
		Kind:    WarnMalformedField,
		File:    file,
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("malformed %s, using default: %v", field, err),
	})
}

// checkReferences reports dangling prefab references and, optionally, mesh
// paths missing from the source tree.
func (b *builder) checkReferences(level *Level, meshFiles bool) {
	keys := level.PrefabKeys()
	for _, ref := range level.PrefabRefs() {
		if _, ok := level.Prefabs[ref]; ok {
			continue
		}
		msg := fmt.Sprintf("prefab %q is not defined", ref)
		if s := Suggest(ref, keys); s != "" {
			msg += fmt.Sprintf(" (did you mean %q?)", s)
		}
		b.diag.warn(b.log, Warning{Kind: WarnMissingReference, Field: "PrefabName", Value: ref, Message: msg})
	}
	if !meshFiles {
		return
	}
	for _, mesh := range level.MeshPaths() {
		file := strings.ReplaceAll(mesh, `\`, "/")
		if !b.exists(file) {
			b.diag.warn(b.log, Warning{Kind: WarnMissingReference, Field: "Geometry", Value: mesh, Message: fmt.Sprintf("mesh file %s not found", file)})
		}
	}
}

// Suggest returns the candidate most similar to ref, or "" when none is
// close enough to be useful.
func Suggest(ref string, candidates []string) string {
	const threshold = 0.6
	metric := metrics.NewLevenshtein()
	metric.CaseSensitive = false
	best, bestScore := "", 0.0
	for _, c := range candidates {
		if score := strutil.Similarity(ref, c, metric); score > bestScore {
			best, bestScore = c, score
		}
	}
	if bestScore < threshold {
		return ""
	}
	return best
}

func layerRef(ref *element) (name, fullName string) {
	name = GetString(ref.Attrs, "Name", "")
	fullName = GetString(ref.Attrs, "FullName", name)
	return name, fullName
}

func extraAttrs(a Attrs) map[string]string {
	var out map[string]string
	for k, v := range a {
		if knownObjectAttrs[k] {
			continue
		}
		if out == nil {
			out = map[string]string{}
		}
		out[k] = v
	}
	return out
}

func asError(err error, file string) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	return &Error{Kind: ErrRead, File: file, Message: "read", Err: err}
}
