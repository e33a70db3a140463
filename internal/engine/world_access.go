package engine

import (
	"spatial3d/internal/culling"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// WorldAccess gives components the world-level queries without importing the
// world package.
type WorldAccess interface {
	Meshes() []*Mesh
	Pick(ray culling.Ray, predicate func(*Mesh) bool, fastCheck bool) PickingInfo
	IntersectingMeshes(center rl.Vector3, radius float32) []*Mesh
	MoveWithCollisions(mesh *Mesh, ellipsoid, displacement rl.Vector3) (rl.Vector3, *Mesh)
}
