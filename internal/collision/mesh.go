package collision

import (
	"spatial3d/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// CheckMesh runs the narrow phase of c against mesh, after a bounding
// pre-check. The collider must have been initialized for the current pass.
func CheckMesh(c *Collider, mesh *engine.Mesh) {
	if mesh.Info == nil || !c.canCollideWith(mesh.Info) {
		return
	}

	scale := rl.MatrixScale(1/c.Radius.X, 1/c.Radius.Y, 1/c.Radius.Z)
	transform := rl.MatrixMultiply(mesh.WorldMatrix(), scale)

	subMeshes := mesh.SubMeshes
	multi := len(subMeshes) > 1
	if multi && mesh.SubMeshIndex != nil {
		subMeshes = mesh.SubMeshIndex.Intersects(c.basePointWorld, c.velocityWorldLength+c.MaxRadius())
	}

	for _, sm := range subMeshes {
		if multi && !c.canCollideWith(sm.Info) {
			continue
		}
		cache := sm.ColliderVertices(transform)
		c.collide(cache, cache.Positions, mesh.Indices, sm.IndexStart, sm.IndexStart+sm.IndexCount,
			sm.VerticesStart, mesh.DoubleSided, mesh, mesh.InvertTriangles, mesh.TriangleStrip)
	}
}
