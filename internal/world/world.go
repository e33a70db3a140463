// Package world ties meshes, the selection octree, picking and collisions
// together for one scene.
package world

import (
	"fmt"
	"math"

	"spatial3d/internal/collision"
	"spatial3d/internal/compute"
	"spatial3d/internal/config"
	"spatial3d/internal/culling"
	"spatial3d/internal/engine"
	"spatial3d/internal/octree"
	"spatial3d/internal/picking"

	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
	log "github.com/sirupsen/logrus"
)

// Stats describes the last SelectActiveMeshes call.
type Stats struct {
	Objects    int
	Candidates int
	Active     int
	GPU        bool
}

type World struct {
	Scene  *engine.Scene
	Config config.Config
	Stats  Stats

	// Invoked after SelectActiveMeshes filled the active list.
	OnActiveMeshesEvaluated engine.Event[[]*engine.Mesh]

	selectionOctree *octree.Octree[*engine.Mesh]
	selection       *octree.Selection[*engine.Mesh]
	queryScratch    *octree.Selection[*engine.Mesh]
	activeMeshes    []*engine.Mesh
	coordinator     *collision.Coordinator
	colliders       map[*engine.Mesh]*collision.Collider
	culler          *compute.SphereCuller
	spheres         []compute.Sphere
	meshDefs        map[*engine.Mesh]meshDef
	movers          map[*engine.Mesh]struct{}
}

func New(cfg config.Config) *World {
	w := &World{
		Scene:        engine.NewScene("Main"),
		Config:       cfg,
		selection:    octree.NewSelection[*engine.Mesh](256),
		queryScratch: octree.NewSelection[*engine.Mesh](64),
		colliders:    make(map[*engine.Mesh]*collision.Collider),
	}
	w.coordinator = collision.NewCoordinator(w, cfg.Collision.MaxRetries, cfg.Collision.Epsilon)
	w.Scene.World = w
	return w
}

// AddMesh registers the object carrying mesh. It goes into the dynamic
// content of an existing selection octree until the next rebuild.
func (w *World) AddMesh(mesh *engine.Mesh) {
	g := mesh.GetGameObject()
	w.Scene.AddGameObject(g)
	mesh.ComputeWorldMatrix()
	if w.selectionOctree != nil {
		w.selectionOctree.AddDynamicEntry(mesh)
	}
}

func (w *World) RemoveMesh(mesh *engine.Mesh) {
	w.Scene.RemoveGameObject(mesh.GetGameObject())
	if w.selectionOctree != nil {
		w.selectionOctree.RemoveEntry(mesh)
	}
	delete(w.colliders, mesh)
	delete(w.meshDefs, mesh)
	delete(w.movers, mesh)
}

func (w *World) Meshes() []*engine.Mesh {
	return w.Scene.Meshes()
}

// Update runs the scene components, which recomputes mesh world matrices.
func (w *World) Update(deltaTime float32) {
	w.Scene.Update(deltaTime)
}

// SelectionOctree returns the octree built by CreateOrUpdateSelectionOctree,
// or nil.
func (w *World) SelectionOctree() *octree.Octree[*engine.Mesh] {
	return w.selectionOctree
}

// CreateOrUpdateSelectionOctree (re)builds the mesh octree over the current
// world extents of the static meshes. Moving meshes, those carrying a
// CollisionMover or already moved by MoveWithCollisions, are kept as dynamic
// content.
func (w *World) CreateOrUpdateSelectionOctree(capacity, maxDepth int) (*octree.Octree[*engine.Mesh], error) {
	if w.selectionOctree == nil || w.selectionOctree.Capacity != capacity || w.selectionOctree.MaxDepth != maxDepth {
		tree, err := octree.New(octree.MeshCreationFunc, capacity, maxDepth)
		if err != nil {
			return nil, fmt.Errorf("selection octree: %w", err)
		}
		tree.CubeBounds = w.Config.Octree.CubeBounds
		w.selectionOctree = tree
	}

	var static, moving []*engine.Mesh
	for _, mesh := range w.Meshes() {
		if w.isMoving(mesh) {
			moving = append(moving, mesh)
		} else {
			static = append(static, mesh)
		}
	}
	min, max := worldExtents(static)
	if err := w.selectionOctree.Update(min, max, static); err != nil {
		return nil, fmt.Errorf("selection octree: %w", err)
	}
	for _, mesh := range moving {
		w.selectionOctree.AddDynamicEntry(mesh)
	}
	return w.selectionOctree, nil
}

// ResetSelectionOctree drops the octree; selection falls back to every mesh.
func (w *World) ResetSelectionOctree() {
	w.selectionOctree = nil
}

// CreateOrUpdateSubMeshesOctree indexes the submeshes of mesh and installs
// the index for picking and collisions.
func (w *World) CreateOrUpdateSubMeshesOctree(mesh *engine.Mesh, capacity, maxDepth int) (*octree.SubMeshOctree, error) {
	index, ok := mesh.SubMeshIndex.(*octree.SubMeshOctree)
	if !ok || index.Octree().Capacity != capacity || index.Octree().MaxDepth != maxDepth {
		var err error
		index, err = octree.NewSubMeshOctree(capacity, maxDepth)
		if err != nil {
			return nil, fmt.Errorf("submesh octree %s: %w", mesh.Name(), err)
		}
	}
	mesh.ComputeWorldMatrix()
	if err := index.Update(mesh); err != nil {
		return nil, fmt.Errorf("submesh octree %s: %w", mesh.Name(), err)
	}
	mesh.SubMeshIndex = index
	return index, nil
}

// SelectActiveMeshes returns the enabled meshes visible in frustum. The
// slice is reused by the next call.
func (w *World) SelectActiveMeshes(frustum culling.Frustum) []*engine.Mesh {
	planes := frustum.Planes()
	strategy := w.Config.Strategy()

	var candidates []*engine.Mesh
	if w.selectionOctree != nil {
		w.selectionOctree.Select(planes, w.selection, false)
		candidates = w.selection.Items()
	} else {
		candidates = w.Meshes()
	}

	w.Stats = Stats{Objects: len(w.Scene.GameObjects), Candidates: len(candidates)}
	w.activeMeshes = w.activeMeshes[:0]

	sphereVisible := w.gpuSphereTest(candidates, planes)
	for i, mesh := range candidates {
		if !mesh.IsEnabled() {
			continue
		}
		if mesh.AlwaysSelectAsActive {
			w.activeMeshes = append(w.activeMeshes, mesh)
			continue
		}
		if sphereVisible != nil && !sphereVisible[i] {
			continue
		}
		if mesh.Info.IsInFrustum(planes, strategy) {
			w.activeMeshes = append(w.activeMeshes, mesh)
		}
	}

	w.Stats.Active = len(w.activeMeshes)
	w.OnActiveMeshesEvaluated.Invoke(w.activeMeshes)
	return w.activeMeshes
}

// ActiveMeshes returns the result of the last SelectActiveMeshes.
func (w *World) ActiveMeshes() []*engine.Mesh {
	return w.activeMeshes
}

// gpuSphereTest runs the sphere pre-pass on the GPU for large candidate
// sets. nil means no pre-pass was done.
func (w *World) gpuSphereTest(candidates []*engine.Mesh, planes []culling.Plane) []bool {
	threshold := w.Config.Culling.GPUThreshold
	if w.culler == nil || threshold <= 0 || len(candidates) < threshold {
		return nil
	}

	w.spheres = w.spheres[:0]
	for _, mesh := range candidates {
		w.spheres = append(w.spheres, compute.SphereFrom(&mesh.Info.BoundingSphere))
	}
	visible, err := w.culler.Cull(w.spheres, planes)
	if err != nil {
		log.Warnf("Culling: GPU sphere pass failed, using CPU: %v", err)
		return nil
	}
	w.Stats.GPU = true
	return visible
}

// SetSphereCuller attaches a GPU culler. nil detaches it.
func (w *World) SetSphereCuller(c *compute.SphereCuller) {
	w.culler = c
}

// EnableGPUCulling initializes the compute device and attaches a culler
// sized for capacity spheres per dispatch.
func (w *World) EnableGPUCulling(capacity uint32) error {
	c, err := newPlatformCuller(capacity)
	if err != nil {
		return err
	}
	w.culler = c
	return nil
}

// Release frees GPU resources held by the world.
func (w *World) Release() {
	if w.culler != nil {
		w.culler.Release()
		w.culler = nil
	}
}

func (w *World) pickCandidates(ray culling.Ray, predicate func(*engine.Mesh) bool) []*engine.Mesh {
	var meshes []*engine.Mesh
	if w.selectionOctree != nil {
		w.selectionOctree.IntersectsRay(ray, w.queryScratch)
		meshes = w.queryScratch.Items()
	} else {
		meshes = w.Meshes()
	}

	result := make([]*engine.Mesh, 0, len(meshes))
	for _, mesh := range meshes {
		if !mesh.IsEnabled() || !mesh.Pickable || len(mesh.SubMeshes) == 0 {
			continue
		}
		if predicate != nil && !predicate(mesh) {
			continue
		}
		result = append(result, mesh)
	}
	return result
}

// Pick returns the nearest hit along ray, or the first one found when
// fastCheck is set. predicate may be nil.
func (w *World) Pick(ray culling.Ray, predicate func(*engine.Mesh) bool, fastCheck bool) engine.PickingInfo {
	best := engine.PickingInfo{Ray: ray}
	for _, mesh := range w.pickCandidates(ray, predicate) {
		info := picking.IntersectsMesh(ray, mesh, fastCheck)
		if !info.Hit {
			continue
		}
		if !fastCheck && best.Hit && info.Distance >= best.Distance {
			continue
		}
		best = info
		if fastCheck {
			break
		}
	}
	return best
}

// MultiPick returns every mesh hit along ray, nearest first.
func (w *World) MultiPick(ray culling.Ray, predicate func(*engine.Mesh) bool) []engine.PickingInfo {
	return picking.IntersectsMeshes(ray, w.pickCandidates(ray, predicate), false)
}

// PickScreen picks through the pixel (x, y) of a width×height viewport.
func (w *World) PickScreen(x, y, width, height float32, view, projection rl.Matrix, predicate func(*engine.Mesh) bool) engine.PickingInfo {
	ray := culling.RayFromScreen(x, y, width, height, rl.MatrixIdentity(), view, projection)
	return w.Pick(ray, predicate, false)
}

// IntersectingMeshes returns the enabled meshes whose world bounds touch the
// sphere.
func (w *World) IntersectingMeshes(center rl.Vector3, radius float32) []*engine.Mesh {
	var meshes []*engine.Mesh
	if w.selectionOctree != nil {
		w.selectionOctree.Intersects(center, radius, w.queryScratch, false)
		meshes = w.queryScratch.Items()
	} else {
		meshes = w.Meshes()
	}

	var result []*engine.Mesh
	for _, mesh := range meshes {
		if !mesh.IsEnabled() {
			continue
		}
		bs := &mesh.Info.BoundingSphere
		reach := bs.RadiusWorld + radius
		if distanceSq(bs.CenterWorld, center) > reach*reach {
			continue
		}
		box := &mesh.Info.BoundingBox
		if culling.BoxIntersectsSphere(box.MinimumWorld, box.MaximumWorld, center, radius) {
			result = append(result, mesh)
		}
	}
	return result
}

// CollidingMeshCandidates implements collision.CandidateSource. With an
// octree it returns the meshes near the swept sphere of c.
func (w *World) CollidingMeshCandidates(c *collision.Collider) []*engine.Mesh {
	if w.selectionOctree == nil {
		return w.Meshes()
	}
	w.selectionOctree.Intersects(c.BasePointWorld(), c.VelocityWorldLength()+c.MaxRadius(), w.queryScratch, false)
	return w.queryScratch.Items()
}

// Collider returns the collider MoveWithCollisions uses for mesh.
func (w *World) Collider(mesh *engine.Mesh, ellipsoid rl.Vector3) (*collision.Collider, error) {
	c, ok := w.colliders[mesh]
	if !ok {
		var err error
		c, err = collision.NewCollider(ellipsoid)
		if err != nil {
			return nil, err
		}
		c.DoubleSidedCheck = w.Config.Collision.DoubleSided
		w.colliders[mesh] = c
	}
	c.Radius = ellipsoid
	return c, nil
}

// MoveWithCollisions slides the ellipsoid around mesh's world position by
// displacement and moves the object by what was travelled. The mesh stopped
// against, if any, is reported to mesh.OnCollide and to the object's
// CollisionHandler components.
func (w *World) MoveWithCollisions(mesh *engine.Mesh, ellipsoid, displacement rl.Vector3) (rl.Vector3, *engine.Mesh) {
	g := mesh.GetGameObject()
	position := g.WorldPosition()

	c, err := w.Collider(mesh, ellipsoid)
	if err != nil {
		log.Warnf("Collisions: %s: %v", mesh.Name(), err)
		return position, nil
	}

	newPosition, collided := w.coordinator.GetNewPosition(position, displacement, c, mesh)
	delta := rl.Vector3Subtract(newPosition, position)
	if rl.Vector3Length(delta) > w.Config.Collision.Epsilon {
		g.Transform.Position = rl.Vector3Add(g.Transform.Position, delta)
		mesh.ComputeWorldMatrix()
		w.markMoving(mesh)
	}

	if collided != nil {
		mesh.OnCollide.Invoke(collided)
		for _, comp := range g.Components() {
			if h, ok := comp.(engine.CollisionHandler); ok {
				h.OnCollide(collided)
			}
		}
	}
	return newPosition, collided
}

func (w *World) isMoving(mesh *engine.Mesh) bool {
	if mesh.IsBlocked {
		return false
	}
	if _, ok := w.movers[mesh]; ok {
		return true
	}
	return engine.GetComponent[*CollisionMover](mesh.GetGameObject()) != nil
}

// markMoving turns a static octree entry into dynamic content, since the
// blocks it was filed under no longer cover it.
func (w *World) markMoving(mesh *engine.Mesh) {
	if _, ok := w.movers[mesh]; ok {
		return
	}
	if w.movers == nil {
		w.movers = make(map[*engine.Mesh]struct{})
	}
	w.movers[mesh] = struct{}{}
	if w.selectionOctree != nil && !mesh.IsBlocked && w.selectionOctree.Contains(mesh) {
		w.selectionOctree.RemoveEntry(mesh)
		w.selectionOctree.AddDynamicEntry(mesh)
	}
}

func worldExtents(meshes []*engine.Mesh) (rl.Vector3, rl.Vector3) {
	if len(meshes) == 0 {
		return rl.Vector3{}, rl.Vector3{}
	}
	min := rl.Vector3{X: math.MaxFloat32, Y: math.MaxFloat32, Z: math.MaxFloat32}
	max := rl.Vector3{X: -math.MaxFloat32, Y: -math.MaxFloat32, Z: -math.MaxFloat32}
	for _, mesh := range meshes {
		mesh.ComputeWorldMatrix()
		box := &mesh.Info.BoundingBox
		min = rl.Vector3{
			X: math32.Min(min.X, box.MinimumWorld.X),
			Y: math32.Min(min.Y, box.MinimumWorld.Y),
			Z: math32.Min(min.Z, box.MinimumWorld.Z),
		}
		max = rl.Vector3{
			X: math32.Max(max.X, box.MaximumWorld.X),
			Y: math32.Max(max.Y, box.MaximumWorld.Y),
			Z: math32.Max(max.Z, box.MaximumWorld.Z),
		}
	}
	return min, max
}

func distanceSq(a, b rl.Vector3) float32 {
	d := rl.Vector3Subtract(a, b)
	return d.X*d.X + d.Y*d.Y + d.Z*d.Z
}

var _ engine.WorldAccess = (*World)(nil)
