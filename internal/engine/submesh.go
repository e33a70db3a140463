package engine

import (
	"spatial3d/internal/culling"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// SubMesh is a contiguous index range of a mesh with its own bounds.
// Indices in the range point into [VerticesStart, VerticesStart+VerticesCount).
type SubMesh struct {
	ID            int
	VerticesStart int
	VerticesCount int
	IndexStart    int
	IndexCount    int
	Info          *culling.BoundingInfo

	mesh      *Mesh
	collision ColliderCache
}

// ColliderCache holds the submesh vertices in collider space for the last
// transform they were computed with. Planes are filled lazily by the
// collider, one per face, PlaneReady marking the computed ones.
type ColliderCache struct {
	Transform  rl.Matrix
	Positions  []rl.Vector3
	Planes     []culling.Plane
	PlaneReady []bool
	valid      bool
}

func NewSubMesh(mesh *Mesh, id, verticesStart, verticesCount, indexStart, indexCount int) *SubMesh {
	sm := &SubMesh{
		ID:            id,
		VerticesStart: verticesStart,
		VerticesCount: verticesCount,
		IndexStart:    indexStart,
		IndexCount:    indexCount,
		mesh:          mesh,
	}
	sm.Info = culling.NewBoundingInfo(rl.Vector3{}, rl.Vector3{}, mesh.world)
	sm.refreshBoundingInfo()
	return sm
}

// newSubMeshFromIndices derives the vertex range from the indices it covers.
func newSubMeshFromIndices(mesh *Mesh, id, indexStart, indexCount int) *SubMesh {
	lo, hi := int32(-1), int32(-1)
	for _, idx := range mesh.Indices[indexStart : indexStart+indexCount] {
		if lo < 0 || idx < lo {
			lo = idx
		}
		if idx > hi {
			hi = idx
		}
	}
	if lo < 0 {
		return NewSubMesh(mesh, id, 0, 0, indexStart, indexCount)
	}
	return NewSubMesh(mesh, id, int(lo), int(hi-lo+1), indexStart, indexCount)
}

func (sm *SubMesh) Mesh() *Mesh {
	return sm.mesh
}

// Faces returns the number of triangles in the submesh.
func (sm *SubMesh) Faces() int {
	return FaceCount(sm.IndexCount, sm.mesh.TriangleStrip)
}

func (sm *SubMesh) refreshBoundingInfo() {
	points := make([]rl.Vector3, 0, sm.IndexCount)
	if sm.IndexCount > 0 {
		for _, idx := range sm.mesh.Indices[sm.IndexStart : sm.IndexStart+sm.IndexCount] {
			if idx >= 0 && int(idx) < len(sm.mesh.Positions) {
				points = append(points, sm.mesh.Positions[idx])
			}
		}
	} else {
		end := sm.VerticesStart + sm.VerticesCount
		if end > len(sm.mesh.Positions) {
			end = len(sm.mesh.Positions)
		}
		points = append(points, sm.mesh.Positions[sm.VerticesStart:end]...)
	}
	min, max := Extents(points)
	sm.Info.ReConstruct(min, max, sm.mesh.world)
}

// ColliderVertices returns the cache for transform, transforming the vertex
// range again only when the transform changed since the last call.
func (sm *SubMesh) ColliderVertices(transform rl.Matrix) *ColliderCache {
	c := &sm.collision
	if c.valid && c.Transform == transform {
		return c
	}

	c.Transform = transform
	c.Positions = c.Positions[:0]
	end := sm.VerticesStart + sm.VerticesCount
	if end > len(sm.mesh.Positions) {
		end = len(sm.mesh.Positions)
	}
	for i := sm.VerticesStart; i < end; i++ {
		c.Positions = append(c.Positions, rl.Vector3Transform(sm.mesh.Positions[i], transform))
	}

	faces := sm.Faces()
	if cap(c.Planes) < faces {
		c.Planes = make([]culling.Plane, faces)
		c.PlaneReady = make([]bool, faces)
	} else {
		c.Planes = c.Planes[:faces]
		c.PlaneReady = c.PlaneReady[:faces]
		clear(c.PlaneReady)
	}
	c.valid = true
	return c
}

func (sm *SubMesh) invalidateCollisionCache() {
	sm.collision.valid = false
}
