package engine

import (
	"spatial3d/internal/culling"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// PickingInfo describes the result of a ray pick. Distance and PickedPoint
// are in world space; FaceID indexes the mesh faces.
type PickingInfo struct {
	Hit         bool
	Distance    float32
	PickedPoint rl.Vector3
	PickedMesh  *Mesh
	BU          float32
	BV          float32
	FaceID      int
	SubMeshID   int
	Ray         culling.Ray
}
