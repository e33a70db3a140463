package octree

import (
	"spatial3d/internal/culling"
	"spatial3d/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// MeshCreationFunc keeps meshes whose world AABB overlaps the block.
// Blocked meshes are never stored.
func MeshCreationFunc(entry *engine.Mesh, block *Block[*engine.Mesh]) bool {
	return !entry.IsBlocked && entry.Info.BoundingBox.IntersectsMinMax(block.MinPoint, block.MaxPoint)
}

// SubMeshCreationFunc keeps submeshes whose world AABB overlaps the block.
func SubMeshCreationFunc(entry *engine.SubMesh, block *Block[*engine.SubMesh]) bool {
	return entry.Info.BoundingBox.IntersectsMinMax(block.MinPoint, block.MaxPoint)
}

// SubMeshOctree indexes the submeshes of one mesh in world space.
type SubMeshOctree struct {
	tree      *Octree[*engine.SubMesh]
	selection *Selection[*engine.SubMesh]
}

func NewSubMeshOctree(capacity, maxDepth int) (*SubMeshOctree, error) {
	tree, err := New(SubMeshCreationFunc, capacity, maxDepth)
	if err != nil {
		return nil, err
	}
	return &SubMeshOctree{tree: tree, selection: NewSelection[*engine.SubMesh](capacity)}, nil
}

// Update rebuilds the index over the current world bounds of mesh.
func (s *SubMeshOctree) Update(mesh *engine.Mesh) error {
	box := &mesh.Info.BoundingBox
	return s.tree.Update(box.MinimumWorld, box.MaximumWorld, mesh.SubMeshes)
}

func (s *SubMeshOctree) Octree() *Octree[*engine.SubMesh] {
	return s.tree
}

// Intersects returns the submeshes near a world sphere. The slice is reused
// by the next query.
func (s *SubMeshOctree) Intersects(center rl.Vector3, radius float32) []*engine.SubMesh {
	s.tree.Intersects(center, radius, s.selection, false)
	return s.selection.Items()
}

// IntersectsRay returns the submeshes along a world ray. The slice is reused
// by the next query.
func (s *SubMeshOctree) IntersectsRay(ray culling.Ray) []*engine.SubMesh {
	s.tree.IntersectsRay(ray, s.selection)
	return s.selection.Items()
}
