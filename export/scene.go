// Package export renders built levels into interchange formats through a
// registry of converters.
package export

import (
	"fmt"

	"github.com/atlas-foundry/levelport/convert"
	"github.com/atlas-foundry/levelport/resolve"
	"github.com/atlas-foundry/levelport/scene"
)

// ActorKind distinguishes spawned actor classes.
type ActorKind string

const (
	ActorMesh   ActorKind = "mesh"
	ActorPrefab ActorKind = "prefab"
)

// Scene is a flattened, target-space view of a level: every transform is
// converted and every reference resolved to a package path.
type Scene struct {
	Level  string       `json:"level"`
	Layers []SceneLayer `json:"layers"`
	Actors []Actor      `json:"actors"`
}

// SceneLayer is one layer; Parent is empty for top-level layers.
type SceneLayer struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Parent string `json:"parent,omitempty"`
}

// Actor is one spawned entity.
type Actor struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Layer       string            `json:"layer"`
	Kind        ActorKind         `json:"kind"`
	Source      string            `json:"source,omitempty"`
	Asset       string            `json:"asset"`
	Placeholder bool              `json:"placeholder,omitempty"`
	Transform   convert.Transform `json:"transform"`
}

// FromLevel flattens level in traversal order: for each layer its prefab
// instances, then its meshes, then its children.
func FromLevel(level *scene.Level, res *resolve.Resolver) Scene {
	if res == nil {
		res = resolve.New()
	}
	out := Scene{Level: level.Name}
	ids := map[string]int{}
	unique := func(id string) string {
		ids[id]++
		if n := ids[id]; n > 1 {
			return fmt.Sprintf("%s#%d", id, n)
		}
		return id
	}
	layerIDs := map[*scene.Layer]string{}
	level.Walk(func(layer *scene.Layer, path []*scene.Layer) bool {
		var parent, id string
		if len(path) > 0 {
			parent = layerIDs[path[len(path)-1]]
			id = unique(parent + "/" + layer.Name)
		} else {
			id = unique(layer.Name)
		}
		layerIDs[layer] = id
		out.Layers = append(out.Layers, SceneLayer{ID: id, Name: layer.Name, Parent: parent})

		for _, inst := range layer.Prefabs {
			out.Actors = append(out.Actors, Actor{
				ID:        unique(id + "/" + inst.Name),
				Name:      inst.Name,
				Layer:     id,
				Kind:      ActorPrefab,
				Source:    inst.PrefabName,
				Asset:     res.PrefabPackage(inst.PrefabName),
				Transform: convert.FromScene(inst.Transform),
			})
		}
		for _, mesh := range layer.Meshes {
			pkg, ok := res.MeshPackage(mesh.MeshPath)
			out.Actors = append(out.Actors, Actor{
				ID:          unique(id + "/" + mesh.Name),
				Name:        mesh.Name,
				Layer:       id,
				Kind:        ActorMesh,
				Source:      mesh.MeshPath,
				Asset:       pkg,
				Placeholder: !ok,
				Transform:   convert.FromScene(mesh.Transform),
			})
		}
		return true
	})
	return out
}

// ActorsIn returns the actors placed directly in a layer.
func (s Scene) ActorsIn(layerID string) []Actor {
	var out []Actor
	for _, a := range s.Actors {
		if a.Layer == layerID {
			out = append(out, a)
		}
	}
	return out
}
