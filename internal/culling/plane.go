package culling

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Plane represents a plane in 3D space (normal·p + D = 0).
// Signed distances are positive on the side the normal points to.
type Plane struct {
	Normal rl.Vector3
	D      float32
}

func NewPlane(a, b, c, d float32) Plane {
	return Plane{Normal: rl.Vector3{X: a, Y: b, Z: c}, D: d}
}

// PlaneFromPoints builds the plane through three points. The normal is
// (p2-p1)×(p3-p1), so counter-clockwise triangles face the viewer.
// Collinear points give a zero normal.
func PlaneFromPoints(p1, p2, p3 rl.Vector3) Plane {
	n := rl.Vector3CrossProduct(rl.Vector3Subtract(p2, p1), rl.Vector3Subtract(p3, p1))
	length := rl.Vector3Length(n)
	if length == 0 {
		return Plane{}
	}
	n = rl.Vector3Scale(n, 1.0/length)
	return Plane{Normal: n, D: -rl.Vector3DotProduct(n, p1)}
}

// PlaneFromPositionAndNormal builds the plane through origin with the given normal.
func PlaneFromPositionAndNormal(origin, normal rl.Vector3) Plane {
	return Plane{Normal: normal, D: -rl.Vector3DotProduct(normal, origin)}
}

// Normalize rescales the plane equation so the normal has unit length.
func (p Plane) Normalize() Plane {
	length := rl.Vector3Length(p.Normal)
	if length == 0 {
		return p
	}
	return Plane{
		Normal: rl.Vector3Scale(p.Normal, 1.0/length),
		D:      p.D / length,
	}
}

// DotCoordinate evaluates the plane equation at point. Equal to the signed
// distance when the plane is normalized.
func (p Plane) DotCoordinate(point rl.Vector3) float32 {
	return rl.Vector3DotProduct(p.Normal, point) + p.D
}

func (p Plane) SignedDistanceTo(point rl.Vector3) float32 {
	return p.DotCoordinate(point)
}

// IsFrontFacingTo reports whether a ray travelling along direction hits the
// front of the plane.
func (p Plane) IsFrontFacingTo(direction rl.Vector3, epsilon float32) bool {
	return rl.Vector3DotProduct(p.Normal, direction) <= epsilon
}

// Transform moves the plane by an affine matrix.
func (p Plane) Transform(m rl.Matrix) Plane {
	origin := rl.Vector3Scale(p.Normal, -p.D)
	if lengthSq(p.Normal) > 0 {
		origin = rl.Vector3Scale(origin, 1.0/lengthSq(p.Normal))
	}
	// normals go through the inverse transpose
	normalMatrix := rl.MatrixTranspose(rl.MatrixInvert(m))
	n := transformNormal(p.Normal, normalMatrix)
	o := rl.Vector3Transform(origin, m)
	return PlaneFromPositionAndNormal(o, n).Normalize()
}

// SignedDistanceToPlane returns the distance of point to the plane through
// origin with the given unit normal.
func SignedDistanceToPlane(origin, normal, point rl.Vector3) float32 {
	return rl.Vector3DotProduct(rl.Vector3Subtract(point, origin), normal)
}

func transformNormal(v rl.Vector3, m rl.Matrix) rl.Vector3 {
	return rl.Vector3{
		X: m.M0*v.X + m.M4*v.Y + m.M8*v.Z,
		Y: m.M1*v.X + m.M5*v.Y + m.M9*v.Z,
		Z: m.M2*v.X + m.M6*v.Y + m.M10*v.Z,
	}
}
