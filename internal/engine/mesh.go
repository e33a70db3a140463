package engine

import (
	"math"

	"spatial3d/internal/culling"

	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// SubMeshIndex narrows the submeshes of a mesh for world-space sphere and ray
// queries. The octree package provides one.
type SubMeshIndex interface {
	Intersects(center rl.Vector3, radius float32) []*SubMesh
	IntersectsRay(ray culling.Ray) []*SubMesh
}

// Mesh is triangle geometry attached to a GameObject. Positions are in local
// space; Info tracks the local extents and their world image.
type Mesh struct {
	BaseComponent

	Positions []rl.Vector3
	Indices   []int32
	SubMeshes []*SubMesh
	Info      *culling.BoundingInfo

	Pickable             bool
	CheckCollisions      bool
	IsBlocked            bool
	AlwaysSelectAsActive bool
	CollisionGroup       int
	CollisionMask        int
	TriangleStrip        bool
	InvertTriangles      bool
	DoubleSided          bool

	// SubMeshIndex is used by picking and collisions when there are several
	// submeshes. Nil means every submesh is tested.
	SubMeshIndex SubMeshIndex

	// Invoked with the other mesh when a collision move stops on it.
	OnCollide Event[*Mesh]

	world rl.Matrix
}

// NewMesh creates a GameObject carrying the mesh. One submesh covers all
// indices.
func NewMesh(name string, positions []rl.Vector3, indices []int32) *Mesh {
	m := &Mesh{
		Positions:       positions,
		Indices:         indices,
		Pickable:        true,
		CheckCollisions: true,
		CollisionGroup:  -1,
		CollisionMask:   -1,
		world:           rl.MatrixIdentity(),
	}
	min, max := Extents(positions)
	m.Info = culling.NewBoundingInfo(min, max, m.world)
	m.SubMeshes = []*SubMesh{NewSubMesh(m, 0, 0, len(positions), 0, len(indices))}

	obj := NewGameObject(name)
	obj.AddComponent(m)
	return m
}

func (m *Mesh) Name() string {
	if m.gameObject == nil {
		return ""
	}
	return m.gameObject.Name
}

func (m *Mesh) Update(deltaTime float32) {
	m.ComputeWorldMatrix()
}

// WorldMatrix returns the matrix computed by the last ComputeWorldMatrix.
func (m *Mesh) WorldMatrix() rl.Matrix {
	return m.world
}

// IsEnabled is false when the owning object or one of its parents is inactive.
func (m *Mesh) IsEnabled() bool {
	return m.gameObject == nil || m.gameObject.IsEnabled()
}

// ComputeWorldMatrix pulls the transform from the GameObject hierarchy and
// refreshes the world bounds of the mesh and its submeshes.
func (m *Mesh) ComputeWorldMatrix() rl.Matrix {
	if m.gameObject != nil {
		m.world = m.gameObject.WorldMatrix()
	}
	m.Info.Update(m.world)
	for _, sm := range m.SubMeshes {
		sm.Info.Update(m.world)
	}
	return m.world
}

// RefreshBoundingInfo recomputes local extents after Positions changed.
func (m *Mesh) RefreshBoundingInfo() {
	min, max := Extents(m.Positions)
	m.Info.ReConstruct(min, max, m.world)
	for _, sm := range m.SubMeshes {
		sm.refreshBoundingInfo()
		sm.invalidateCollisionCache()
	}
}

// TotalFaces counts the triangles described by Indices.
func (m *Mesh) TotalFaces() int {
	return FaceCount(len(m.Indices), m.TriangleStrip)
}

// SubdivideSubMeshes replaces the submeshes with count ranges of whole
// triangles. Strip meshes keep a single submesh.
func (m *Mesh) SubdivideSubMeshes(count int) {
	total := len(m.Indices)
	if count <= 1 || m.TriangleStrip || total == 0 {
		m.SubMeshes = []*SubMesh{NewSubMesh(m, 0, 0, len(m.Positions), 0, total)}
		return
	}

	size := total / count
	for size%3 != 0 {
		size++
	}

	m.SubMeshes = m.SubMeshes[:0]
	offset := 0
	for i := 0; i < count && offset < total; i++ {
		n := size
		if i == count-1 || offset+n > total {
			n = total - offset
		}
		m.SubMeshes = append(m.SubMeshes, newSubMeshFromIndices(m, len(m.SubMeshes), offset, n))
		offset += n
	}
	for _, sm := range m.SubMeshes {
		sm.Info.Update(m.world)
	}
}

// FaceCount returns the triangle count of an index range.
func FaceCount(indexCount int, strip bool) int {
	if strip {
		if indexCount < 3 {
			return 0
		}
		return indexCount - 2
	}
	return indexCount / 3
}

// Extents returns the component-wise min and max of points. An empty slice
// gives a degenerate box at the origin.
func Extents(points []rl.Vector3) (rl.Vector3, rl.Vector3) {
	if len(points) == 0 {
		return rl.Vector3{}, rl.Vector3{}
	}
	min := rl.Vector3{X: math.MaxFloat32, Y: math.MaxFloat32, Z: math.MaxFloat32}
	max := rl.Vector3{X: -math.MaxFloat32, Y: -math.MaxFloat32, Z: -math.MaxFloat32}
	for _, p := range points {
		min = rl.Vector3{X: math32.Min(min.X, p.X), Y: math32.Min(min.Y, p.Y), Z: math32.Min(min.Z, p.Z)}
		max = rl.Vector3{X: math32.Max(max.X, p.X), Y: math32.Max(max.Y, p.Y), Z: math32.Max(max.Z, p.Z)}
	}
	return min, max
}
