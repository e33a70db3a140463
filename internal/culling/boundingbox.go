package culling

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// BoundingBox keeps the 8 local corners of an AABB and their world-space
// images. VectorsWorld[i] is always world · Vectors[i] after Update.
type BoundingBox struct {
	Vectors    [8]rl.Vector3
	Center     rl.Vector3
	ExtendSize rl.Vector3 // Local half-extents
	Minimum    rl.Vector3
	Maximum    rl.Vector3

	VectorsWorld    [8]rl.Vector3
	MinimumWorld    rl.Vector3
	MaximumWorld    rl.Vector3
	CenterWorld     rl.Vector3
	ExtendSizeWorld rl.Vector3

	// Directions are the world basis vectors of the transform. Together with
	// ExtendSize they describe the oriented box.
	Directions [3]rl.Vector3

	world rl.Matrix
}

// NewBoundingBox creates a box from local min/max placed by world.
func NewBoundingBox(min, max rl.Vector3, world rl.Matrix) *BoundingBox {
	b := &BoundingBox{}
	b.ReConstruct(min, max, world)
	return b
}

// ReConstruct reinitializes the box in place.
func (b *BoundingBox) ReConstruct(min, max rl.Vector3, world rl.Matrix) {
	b.Minimum = min
	b.Maximum = max

	// corner i takes max on X/Y/Z when bit 0/1/2 is set
	for i := range b.Vectors {
		c := min
		if i&1 != 0 {
			c.X = max.X
		}
		if i&2 != 0 {
			c.Y = max.Y
		}
		if i&4 != 0 {
			c.Z = max.Z
		}
		b.Vectors[i] = c
	}

	b.Center = rl.Vector3Scale(rl.Vector3Add(max, min), 0.5)
	b.ExtendSize = rl.Vector3Scale(rl.Vector3Subtract(max, min), 0.5)

	b.Update(world)
}

// Scale resizes the box by factor around its local center.
func (b *BoundingBox) Scale(factor float32) {
	half := rl.Vector3Scale(b.ExtendSize, factor)
	b.ReConstruct(rl.Vector3Subtract(b.Center, half), rl.Vector3Add(b.Center, half), b.world)
}

// WorldMatrix returns the matrix of the last Update.
func (b *BoundingBox) WorldMatrix() rl.Matrix {
	return b.world
}

// Update transforms the corners by world and recomputes the world AABB.
func (b *BoundingBox) Update(world rl.Matrix) {
	b.world = world

	minW := rl.Vector3{X: math.MaxFloat32, Y: math.MaxFloat32, Z: math.MaxFloat32}
	maxW := rl.Vector3{X: -math.MaxFloat32, Y: -math.MaxFloat32, Z: -math.MaxFloat32}
	for i := range b.Vectors {
		v := rl.Vector3Transform(b.Vectors[i], world)
		b.VectorsWorld[i] = v
		minW = vector3Min(minW, v)
		maxW = vector3Max(maxW, v)
	}
	b.MinimumWorld = minW
	b.MaximumWorld = maxW

	b.CenterWorld = rl.Vector3Scale(rl.Vector3Add(maxW, minW), 0.5)
	b.ExtendSizeWorld = rl.Vector3Scale(rl.Vector3Subtract(maxW, minW), 0.5)

	b.Directions[0] = rl.Vector3{X: world.M0, Y: world.M1, Z: world.M2}
	b.Directions[1] = rl.Vector3{X: world.M4, Y: world.M5, Z: world.M6}
	b.Directions[2] = rl.Vector3{X: world.M8, Y: world.M9, Z: world.M10}
}

// IsInFrustum is the loose test: the box is rejected only when all 8
// corners are behind the same plane.
func (b *BoundingBox) IsInFrustum(planes []Plane) bool {
	return CornersInFrustum(&b.VectorsWorld, planes)
}

// IsCompletelyInFrustum reports whether every corner is inside every plane.
func (b *BoundingBox) IsCompletelyInFrustum(planes []Plane) bool {
	return CornersCompletelyInFrustum(&b.VectorsWorld, planes)
}

// IntersectsPoint checks the point against the world AABB.
func (b *BoundingBox) IntersectsPoint(p rl.Vector3) bool {
	const delta = 1e-6
	return p.X >= b.MinimumWorld.X-delta && p.X <= b.MaximumWorld.X+delta &&
		p.Y >= b.MinimumWorld.Y-delta && p.Y <= b.MaximumWorld.Y+delta &&
		p.Z >= b.MinimumWorld.Z-delta && p.Z <= b.MaximumWorld.Z+delta
}

func (b *BoundingBox) IntersectsSphere(s *BoundingSphere) bool {
	return BoxIntersectsSphere(b.MinimumWorld, b.MaximumWorld, s.CenterWorld, s.RadiusWorld)
}

// IntersectsMinMax tests the world AABB against another AABB.
func (b *BoundingBox) IntersectsMinMax(min, max rl.Vector3) bool {
	return aabbOverlap(b.MinimumWorld, b.MaximumWorld, min, max)
}

// BoxesIntersect tests the world AABBs of two boxes.
func BoxesIntersect(a, b *BoundingBox) bool {
	return aabbOverlap(a.MinimumWorld, a.MaximumWorld, b.MinimumWorld, b.MaximumWorld)
}

// BoxIntersectsSphere clamps the sphere center into the box and compares
// squared distances.
func BoxIntersectsSphere(min, max, center rl.Vector3, radius float32) bool {
	closest := rl.Vector3{
		X: clampf(center.X, min.X, max.X),
		Y: clampf(center.Y, min.Y, max.Y),
		Z: clampf(center.Z, min.Z, max.Z),
	}
	return distanceSq(center, closest) <= radius*radius
}

// CornersInFrustum rejects when all corners lie behind one plane.
func CornersInFrustum(corners *[8]rl.Vector3, planes []Plane) bool {
	for p := range planes {
		inCount := len(corners)
		for i := range corners {
			if planes[p].DotCoordinate(corners[i]) < 0 {
				inCount--
			}
		}
		if inCount == 0 {
			return false
		}
	}
	return true
}

// CornersCompletelyInFrustum requires every corner to be inside every plane.
func CornersCompletelyInFrustum(corners *[8]rl.Vector3, planes []Plane) bool {
	for p := range planes {
		for i := range corners {
			if planes[p].DotCoordinate(corners[i]) < 0 {
				return false
			}
		}
	}
	return true
}

func aabbOverlap(aMin, aMax, bMin, bMax rl.Vector3) bool {
	return aMin.X <= bMax.X && aMax.X >= bMin.X &&
		aMin.Y <= bMax.Y && aMax.Y >= bMin.Y &&
		aMin.Z <= bMax.Z && aMax.Z >= bMin.Z
}
