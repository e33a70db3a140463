package culling

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// BoundingSphere is the sphere enclosing a local min/max pair, tracked in
// local and world space.
type BoundingSphere struct {
	Center      rl.Vector3 // Local-space center
	Radius      float32    // Local-space radius
	CenterWorld rl.Vector3
	RadiusWorld float32
	Minimum     rl.Vector3 // Local-space minimum the sphere was built from
	Maximum     rl.Vector3 // Local-space maximum the sphere was built from

	world rl.Matrix
}

// NewBoundingSphere creates the sphere enclosing min/max, placed by world.
func NewBoundingSphere(min, max rl.Vector3, world rl.Matrix) *BoundingSphere {
	s := &BoundingSphere{}
	s.ReConstruct(min, max, world)
	return s
}

// BoundingSphereFromCenterAndRadius creates a sphere with exactly the given
// local center and radius. Minimum/Maximum are the cube around it.
func BoundingSphereFromCenterAndRadius(center rl.Vector3, radius float32, world rl.Matrix) *BoundingSphere {
	r := rl.Vector3{X: radius, Y: radius, Z: radius}
	s := &BoundingSphere{
		Center:  center,
		Radius:  radius,
		Minimum: rl.Vector3Subtract(center, r),
		Maximum: rl.Vector3Add(center, r),
	}
	s.Update(world)
	return s
}

// ReConstruct reinitializes the sphere in place. Holders of the pointer see
// the new extents.
func (s *BoundingSphere) ReConstruct(min, max rl.Vector3, world rl.Matrix) {
	s.Minimum = min
	s.Maximum = max

	distance := rl.Vector3Distance(min, max)
	s.Center = rl.Vector3Lerp(min, max, 0.5)
	s.Radius = distance * 0.5

	s.Update(world)
}

// Scale grows or shrinks the local radius by factor around the center.
func (s *BoundingSphere) Scale(factor float32) {
	s.Radius *= factor
	s.Minimum = rl.Vector3Add(s.Center, rl.Vector3Scale(rl.Vector3Subtract(s.Minimum, s.Center), factor))
	s.Maximum = rl.Vector3Add(s.Center, rl.Vector3Scale(rl.Vector3Subtract(s.Maximum, s.Center), factor))
	s.Update(s.world)
}

// WorldMatrix returns the matrix of the last Update.
func (s *BoundingSphere) WorldMatrix() rl.Matrix {
	return s.world
}

// Update recomputes the world center and radius. The radius is scaled by the
// largest axis scale of world.
func (s *BoundingSphere) Update(world rl.Matrix) {
	s.world = world
	s.CenterWorld = rl.Vector3Transform(s.Center, world)
	s.RadiusWorld = s.Radius * MaxAxisScale(world)
}

// IsInFrustum reports whether the sphere is not fully behind any plane.
func (s *BoundingSphere) IsInFrustum(planes []Plane) bool {
	for i := range planes {
		if planes[i].DotCoordinate(s.CenterWorld) < -s.RadiusWorld {
			return false
		}
	}
	return true
}

// IsCenterInFrustum reports whether the world center is inside every plane.
func (s *BoundingSphere) IsCenterInFrustum(planes []Plane) bool {
	return IsPointInFrustum(s.CenterWorld, planes)
}

func (s *BoundingSphere) IntersectsPoint(point rl.Vector3) bool {
	return distanceSq(s.CenterWorld, point) <= s.RadiusWorld*s.RadiusWorld
}

// SpheresIntersect tests two world spheres with squared distances.
func SpheresIntersect(a, b *BoundingSphere) bool {
	distSq := distanceSq(a.CenterWorld, b.CenterWorld)
	radiusSum := a.RadiusWorld + b.RadiusWorld
	return distSq <= radiusSum*radiusSum
}

// MaxAxisScale returns the largest length of the three basis vectors of m.
// Zero-length basis vectors contribute 0.
func MaxAxisScale(m rl.Matrix) float32 {
	sx := math32.Sqrt(m.M0*m.M0 + m.M1*m.M1 + m.M2*m.M2)
	sy := math32.Sqrt(m.M4*m.M4 + m.M5*m.M5 + m.M6*m.M6)
	sz := math32.Sqrt(m.M8*m.M8 + m.M9*m.M9 + m.M10*m.M10)
	return math32.Max(sx, math32.Max(sy, sz))
}
