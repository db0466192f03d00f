// Package driver replays a built level against a target editor through the
// Host interface. All coordinate and path work happens before a Host is
// called; a Host only performs the editor side effects.
package driver

import (
	"github.com/atlas-foundry/levelport/convert"
	"github.com/atlas-foundry/levelport/resolve"
)

// ActorHandle is an opaque spawned actor owned by the host.
type ActorHandle any

// GroupHandle is an opaque named actor group (a data layer) owned by the host.
type GroupHandle any

// Host is the minimal editor surface needed to reconstruct a level.
type Host interface {
	SpawnMeshActor(name string, t convert.Transform, meshPackage string) (ActorHandle, error)
	SpawnPrefabInstance(name string, t convert.Transform, prefabPackage string) (ActorHandle, error)
	// CreateOrGetGroup returns the group with the given name, creating it
	// under parent when missing. parent is nil for top-level groups.
	CreateOrGetGroup(name string, parent GroupHandle) (GroupHandle, error)
	AssignActors(actors []ActorHandle, group GroupHandle) error
}

// AssetChecker is implemented by hosts that can tell whether a package
// exists. Meshes whose package is missing are spawned with the placeholder.
type AssetChecker interface {
	AssetExists(pkg string) bool
}

// PrefabAuthor is implemented by hosts that can author one level asset per
// prefab definition. Meshes spawned between Begin and End belong to it.
type PrefabAuthor interface {
	BeginPrefabLevel(pkg string) error
	EndPrefabLevel(pkg string) error
}

// InstanceHost is implemented by hosts that support instanced meshes.
type InstanceHost interface {
	SpawnInstancedActor(label string) (ActorHandle, error)
	AddInstances(actor ActorHandle, component, meshPackage string, instances []convert.Transform) error
}

// MaterialHost is implemented by hosts that can author material instances.
type MaterialHost interface {
	CreateMaterialInstance(plan resolve.MaterialPlan) error
	AssignMaterial(meshPackage, slot, materialPackage string) error
}
