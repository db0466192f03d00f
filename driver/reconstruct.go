package driver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"github.com/atlas-foundry/levelport/convert"
	"github.com/atlas-foundry/levelport/resolve"
	"github.com/atlas-foundry/levelport/scene"
)

// Failure is one entity the host refused. Failures never abort a run.
type Failure struct {
	Layer string
	Name  string
	Err   error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s/%s: %v", f.Layer, f.Name, f.Err)
}

// Summary tallies one run.
type Summary struct {
	Layers       int
	Meshes       int
	Prefabs      int
	Placeholders int
	Instances    int
	Materials    int
	Cancelled    bool
	Failures     []Failure
}

// Reconstructor drives a Host. Resolver and Logger may be nil.
type Reconstructor struct {
	Host     Host
	Resolver *resolve.Resolver
	Logger   *slog.Logger
	// Progress, when set, is called before each top-level layer.
	Progress func(done, total int, layer string)
}

func (r *Reconstructor) log() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r.Logger
}

func (r *Reconstructor) resolver() *resolve.Resolver {
	if r.Resolver == nil {
		return resolve.New()
	}
	return r.Resolver
}

// Level recreates every layer of level. Cancellation is checked between
// top-level layers; a cancelled run returns ctx.Err() with the summary of
// the layers already done.
func (r *Reconstructor) Level(ctx context.Context, level *scene.Level) (*Summary, error) {
	sum := &Summary{}
	for i, layer := range level.Layers {
		if err := ctx.Err(); err != nil {
			sum.Cancelled = true
			r.log().Info("reconstruction cancelled", "done", i, "total", len(level.Layers))
			return sum, err
		}
		if r.Progress != nil {
			r.Progress(i, len(level.Layers), layer.Name)
		}
		if err := r.layer(layer, nil, sum); err != nil {
			return sum, err
		}
	}
	r.log().Info("level reconstructed", "level", level.Name, "layers", sum.Layers, "meshes", sum.Meshes, "prefabs", sum.Prefabs, "failures", len(sum.Failures))
	return sum, nil
}

// layer takes its parent group as a parameter; the group it creates is
// passed to its children and never replaces the caller's binding.
func (r *Reconstructor) layer(layer *scene.Layer, parent GroupHandle, sum *Summary) error {
	group, err := r.Host.CreateOrGetGroup(layer.Name, parent)
	if err != nil {
		return fmt.Errorf("group %s: %w", layer.Name, err)
	}
	sum.Layers++

	var actors []ActorHandle
	for _, inst := range layer.Prefabs {
		if a, ok := r.spawnPrefab(layer.Name, inst, sum); ok {
			actors = append(actors, a)
		}
	}
	for _, mesh := range layer.Meshes {
		if a, ok := r.spawnMesh(layer.Name, mesh, sum); ok {
			actors = append(actors, a)
		}
	}
	if len(actors) > 0 {
		if err := r.Host.AssignActors(actors, group); err != nil {
			sum.Failures = append(sum.Failures, Failure{Layer: layer.Name, Name: "assign", Err: err})
		}
	}

	for _, child := range layer.Children {
		if err := r.layer(child, group, sum); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reconstructor) spawnPrefab(layer string, inst scene.PrefabInstance, sum *Summary) (ActorHandle, bool) {
	pkg := r.resolver().PrefabPackage(inst.PrefabName)
	a, err := r.Host.SpawnPrefabInstance(inst.Name, convert.FromScene(inst.Transform), pkg)
	if err != nil {
		r.log().Warn("spawn prefab failed", "layer", layer, "name", inst.Name, "package", pkg, "err", err)
		sum.Failures = append(sum.Failures, Failure{Layer: layer, Name: inst.Name, Err: err})
		return nil, false
	}
	sum.Prefabs++
	return a, true
}

func (r *Reconstructor) spawnMesh(layer string, mesh scene.StaticMesh, sum *Summary) (ActorHandle, bool) {
	pkg := r.meshPackage(mesh.MeshPath)
	if pkg == r.resolver().PlaceholderMesh() {
		sum.Placeholders++
	}
	a, err := r.Host.SpawnMeshActor(mesh.Name, convert.FromScene(mesh.Transform), pkg)
	if err != nil {
		r.log().Warn("spawn mesh failed", "layer", layer, "name", mesh.Name, "package", pkg, "err", err)
		sum.Failures = append(sum.Failures, Failure{Layer: layer, Name: mesh.Name, Err: err})
		return nil, false
	}
	sum.Meshes++
	return a, true
}

// meshPackage falls back to the placeholder when the path is empty or the
// host reports that the package does not exist.
func (r *Reconstructor) meshPackage(src string) string {
	res := r.resolver()
	pkg, ok := res.MeshPackage(src)
	if !ok {
		return pkg
	}
	if checker, ok := r.Host.(AssetChecker); ok && !checker.AssetExists(pkg) {
		r.log().Debug("mesh package missing, using placeholder", "package", pkg)
		return res.PlaceholderMesh()
	}
	return pkg
}

// Prefabs authors one level asset per prefab definition, in key order.
// Hosts without PrefabAuthor support are left untouched.
func (r *Reconstructor) Prefabs(ctx context.Context, level *scene.Level) (*Summary, error) {
	sum := &Summary{}
	author, ok := r.Host.(PrefabAuthor)
	if !ok {
		r.log().Info("host cannot author prefab levels; skipping")
		return sum, nil
	}
	for _, key := range level.PrefabKeys() {
		if err := ctx.Err(); err != nil {
			sum.Cancelled = true
			return sum, err
		}
		pkg := r.resolver().PrefabPackage(key)
		if err := author.BeginPrefabLevel(pkg); err != nil {
			sum.Failures = append(sum.Failures, Failure{Layer: key, Name: pkg, Err: err})
			continue
		}
		for _, mesh := range level.Prefabs[key].Meshes {
			r.spawnMesh(key, mesh, sum)
		}
		if err := author.EndPrefabLevel(pkg); err != nil {
			sum.Failures = append(sum.Failures, Failure{Layer: key, Name: pkg, Err: err})
			continue
		}
		sum.Prefabs++
	}
	return sum, nil
}

// Vegetation spawns one instanced actor per category with one component per
// vegetation object. Objects whose mesh package is missing are skipped.
func (r *Reconstructor) Vegetation(ctx context.Context, set *scene.VegetationSet) (*Summary, error) {
	sum := &Summary{}
	ih, ok := r.Host.(InstanceHost)
	if !ok {
		return sum, fmt.Errorf("host does not support instanced meshes")
	}
	checker, _ := r.Host.(AssetChecker)
	for _, cat := range set.Categories {
		if err := ctx.Err(); err != nil {
			sum.Cancelled = true
			return sum, err
		}
		actor, err := ih.SpawnInstancedActor("VegImport_" + cat.Name)
		if err != nil {
			sum.Failures = append(sum.Failures, Failure{Layer: cat.Name, Name: "actor", Err: err})
			continue
		}
		for _, obj := range cat.Objects {
			pkg, ok := r.resolver().MeshPackage(obj.Object)
			if !ok || (checker != nil && !checker.AssetExists(pkg)) {
				r.log().Warn("vegetation mesh missing", "category", cat.Name, "object", obj.Object)
				sum.Failures = append(sum.Failures, Failure{Layer: cat.Name, Name: obj.Object, Err: fmt.Errorf("asset %s does not exist", pkg)})
				continue
			}
			transforms := make([]convert.Transform, 0, len(obj.Instances))
			for _, inst := range obj.Instances {
				transforms = append(transforms, convert.Vegetation(inst))
			}
			component := strings.TrimSuffix(path.Base(obj.Object), path.Ext(obj.Object))
			if err := ih.AddInstances(actor, component, pkg, transforms); err != nil {
				sum.Failures = append(sum.Failures, Failure{Layer: cat.Name, Name: component, Err: err})
				continue
			}
			sum.Instances += len(transforms)
		}
		sum.Layers++
	}
	return sum, nil
}

// Materials creates and assigns material instances for the slots of one
// imported mesh. Slot names encode "<mtl file>_mtl_<material>"; the file
// is read from src next to the mesh's source folder.
func (r *Reconstructor) Materials(ctx context.Context, src fs.FS, mesh resolve.MeshImport, slots []string) (*Summary, error) {
	sum := &Summary{}
	mh, ok := r.Host.(MaterialHost)
	if !ok {
		return sum, fmt.Errorf("host does not support material instances")
	}
	res := r.resolver()
	dir := res.SourceDir(mesh.PackagePath)
	cache := map[string][]scene.Material{}
	for _, slot := range slots {
		if err := ctx.Err(); err != nil {
			sum.Cancelled = true
			return sum, err
		}
		file, name, ok := resolve.SplitMaterialSlot(slot)
		if !ok {
			r.log().Warn("material slot does not match <file>_mtl_<material>", "slot", slot)
			continue
		}
		mats, seen := cache[file]
		if !seen {
			mtl := path.Join(dir, file+".mtl")
			data, err := fs.ReadFile(src, mtl)
			if err != nil {
				sum.Failures = append(sum.Failures, Failure{Layer: mesh.AssetName, Name: slot, Err: err})
				continue
			}
			mats, err = scene.ParseMaterials(bytes.NewReader(data), mtl)
			if err != nil {
				sum.Failures = append(sum.Failures, Failure{Layer: mesh.AssetName, Name: slot, Err: err})
				continue
			}
			cache[file] = mats
		}
		mat, ok := scene.FindMaterial(mats, name)
		if !ok {
			sum.Failures = append(sum.Failures, Failure{Layer: mesh.AssetName, Name: slot, Err: fmt.Errorf("material %s not found in %s.mtl", name, file)})
			continue
		}
		plan, err := res.PlanMaterial(mat, mesh.AssetName, mesh.PackagePath)
		if err != nil {
			r.log().Warn("skipping material", "slot", slot, "err", err)
			continue
		}
		if err := mh.CreateMaterialInstance(plan); err != nil {
			sum.Failures = append(sum.Failures, Failure{Layer: mesh.AssetName, Name: slot, Err: err})
			continue
		}
		if err := mh.AssignMaterial(mesh.PackageName, slot, plan.Package()); err != nil {
			sum.Failures = append(sum.Failures, Failure{Layer: mesh.AssetName, Name: slot, Err: err})
			continue
		}
		sum.Materials++
	}
	return sum, nil
}
