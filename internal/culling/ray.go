package culling

import (
	"errors"
	"math"

	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

var ErrInvalidRay = errors.New("culling: ray has non-finite or zero direction")

const (
	rayEpsilon = 1e-7
	// cosine between ray and triangle plane below which they count as parallel
	parallelEpsilon = 1e-6
	// stand-in segment length for unbounded rays in IntersectionSegment
	rayLongLength = 1e6
)

// Ray is a half line starting at Origin. Direction is kept normalized by the
// constructors so that intersection distances are in world units.
type Ray struct {
	Origin    rl.Vector3
	Direction rl.Vector3
	Length    float32
}

// IntersectionInfo is a ray/triangle hit with barycentric coordinates.
type IntersectionInfo struct {
	BU        float32
	BV        float32
	Distance  float32
	FaceID    int
	SubMeshID int
}

// NewRay builds a ray. A length <= 0 means unbounded.
func NewRay(origin, direction rl.Vector3, length float32) Ray {
	if length <= 0 {
		length = math.MaxFloat32
	}
	if lengthSq(direction) > 0 {
		direction = rl.Vector3Normalize(direction)
	}
	return Ray{Origin: origin, Direction: direction, Length: length}
}

// RayFromPoints returns the ray going from a to b, bounded by their distance.
func RayFromPoints(a, b rl.Vector3) Ray {
	dir := rl.Vector3Subtract(b, a)
	return NewRay(a, dir, rl.Vector3Length(dir))
}

// RayFromScreen unprojects a viewport position into a world ray. world is
// usually the identity; a mesh world matrix yields a ray in its local space.
func RayFromScreen(x, y, width, height float32, world, view, projection rl.Matrix) Ray {
	wvp := rl.MatrixMultiply(rl.MatrixMultiply(world, view), projection)
	inv := rl.MatrixInvert(wvp)

	ndcX := 2*x/width - 1
	ndcY := -(2*y/height - 1)

	near := transformCoordinates(rl.Vector3{X: ndcX, Y: ndcY, Z: -1}, inv)
	far := transformCoordinates(rl.Vector3{X: ndcX, Y: ndcY, Z: 1}, inv)
	return NewRay(near, rl.Vector3Subtract(far, near), 0)
}

// Validate reports rays that cannot produce meaningful intersections.
func (r Ray) Validate() error {
	for _, f := range [...]float32{r.Origin.X, r.Origin.Y, r.Origin.Z, r.Direction.X, r.Direction.Y, r.Direction.Z} {
		if math32.IsNaN(f) || math32.IsInf(f, 0) {
			return ErrInvalidRay
		}
	}
	if lengthSq(r.Direction) == 0 || math32.IsNaN(r.Length) {
		return ErrInvalidRay
	}
	return nil
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) rl.Vector3 {
	return rl.Vector3Add(r.Origin, rl.Vector3Scale(r.Direction, t))
}

// IntersectsBoxMinMax runs the slab test against an axis-aligned box grown by
// threshold. The ray length is not taken into account.
func (r Ray) IntersectsBoxMinMax(min, max rl.Vector3, threshold float32) bool {
	lo := [3]float32{min.X - threshold, min.Y - threshold, min.Z - threshold}
	hi := [3]float32{max.X + threshold, max.Y + threshold, max.Z + threshold}
	origin := [3]float32{r.Origin.X, r.Origin.Y, r.Origin.Z}
	dir := [3]float32{r.Direction.X, r.Direction.Y, r.Direction.Z}

	tNear := float32(0)
	var tFar float32 = math.MaxFloat32

	for axis := 0; axis < 3; axis++ {
		if absf(dir[axis]) < rayEpsilon {
			if origin[axis] < lo[axis] || origin[axis] > hi[axis] {
				return false
			}
			continue
		}
		inv := 1.0 / dir[axis]
		t1 := (lo[axis] - origin[axis]) * inv
		t2 := (hi[axis] - origin[axis]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tNear {
			tNear = t1
		}
		if t2 < tFar {
			tFar = t2
		}
		if tNear > tFar {
			return false
		}
	}
	return true
}

// IntersectsBox tests the world extents of box.
func (r Ray) IntersectsBox(box *BoundingBox, threshold float32) bool {
	return r.IntersectsBoxMinMax(box.MinimumWorld, box.MaximumWorld, threshold)
}

// IntersectsSphere reports whether the ray enters the world sphere grown by
// threshold at a non-negative distance. A tangent ray counts as a hit.
func (r Ray) IntersectsSphere(sphere *BoundingSphere, threshold float32) bool {
	radius := sphere.RadiusWorld + threshold
	rr := radius * radius

	toCenter := rl.Vector3Subtract(sphere.CenterWorld, r.Origin)
	tca := rl.Vector3DotProduct(toCenter, r.Direction)
	perpSq := lengthSq(toCenter) - tca*tca
	if perpSq > rr {
		// rounding can push an exact tangent slightly outside
		if perpSq-rr > rr*rayEpsilon*10 {
			return false
		}
		perpSq = rr
	}
	thc := math32.Sqrt(rr - perpSq)
	return tca-thc >= 0
}

// IntersectsTriangle is the Möller-Trumbore test. It returns nil when the ray
// is parallel to the triangle, misses it, or hits it behind the origin or
// beyond Length.
func (r Ray) IntersectsTriangle(v0, v1, v2 rl.Vector3) *IntersectionInfo {
	edge1 := rl.Vector3Subtract(v1, v0)
	edge2 := rl.Vector3Subtract(v2, v0)
	pvec := rl.Vector3CrossProduct(r.Direction, edge2)
	det := rl.Vector3DotProduct(edge1, pvec)
	// det is |dir|·|edge1×edge2|·cos of the angle to the normal
	scale := rl.Vector3Length(r.Direction) * rl.Vector3Length(rl.Vector3CrossProduct(edge1, edge2))
	if absf(det) <= parallelEpsilon*scale {
		return nil
	}

	invDet := 1.0 / det
	tvec := rl.Vector3Subtract(r.Origin, v0)
	u := rl.Vector3DotProduct(tvec, pvec) * invDet
	if u < 0 || u > 1 {
		return nil
	}

	qvec := rl.Vector3CrossProduct(tvec, edge1)
	v := rl.Vector3DotProduct(r.Direction, qvec) * invDet
	if v < 0 || u+v > 1 {
		return nil
	}

	t := rl.Vector3DotProduct(edge2, qvec) * invDet
	if t < 0 || t > r.Length {
		return nil
	}
	return &IntersectionInfo{BU: u, BV: v, Distance: t}
}

// IntersectsPlane returns the distance to plane, or false when the ray is
// parallel to it or points away.
func (r Ray) IntersectsPlane(plane Plane) (float32, bool) {
	denom := rl.Vector3DotProduct(plane.Normal, r.Direction)
	if absf(denom) < 1e-6 {
		return 0, false
	}
	t := (-plane.D - rl.Vector3DotProduct(plane.Normal, r.Origin)) / denom
	if t < 0 {
		if t < -1e-6 {
			return 0, false
		}
		return 0, true
	}
	return t, true
}

type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// IntersectsAxis returns where the ray crosses the plane axis == offset.
func (r Ray) IntersectsAxis(axis Axis, offset float32) (rl.Vector3, bool) {
	var origin, dir float32
	switch axis {
	case AxisX:
		origin, dir = r.Origin.X, r.Direction.X
	case AxisY:
		origin, dir = r.Origin.Y, r.Direction.Y
	default:
		origin, dir = r.Origin.Z, r.Direction.Z
	}
	if absf(dir) < rayEpsilon {
		return rl.Vector3{}, false
	}
	t := (offset - origin) / dir
	if t < 0 {
		return rl.Vector3{}, false
	}
	p := r.At(t)
	switch axis {
	case AxisX:
		p.X = offset
	case AxisY:
		p.Y = offset
	default:
		p.Z = offset
	}
	return p, true
}

// IntersectionSegment returns the distance along the ray to its closest
// approach with segment [start, end] when they pass within threshold of each
// other, or -1.
func (r Ray) IntersectionSegment(start, end rl.Vector3, threshold float32) float32 {
	const small = 1e-8

	length := r.Length
	if length > rayLongLength {
		length = rayLongLength
	}

	// closest points between two segments, in float64 to survive long rays
	u := vec64(rl.Vector3Subtract(end, start))
	v := vec64(rl.Vector3Scale(r.Direction, length))
	w := vec64(rl.Vector3Subtract(start, r.Origin))

	a := dot64(u, u)
	b := dot64(u, v)
	c := dot64(v, v)
	d := dot64(u, w)
	e := dot64(v, w)
	denom := a*c - b*b

	var sN, tN float64
	sD, tD := denom, denom
	if denom < small {
		sN, sD = 0, 1
		tN, tD = e, c
	} else {
		sN = b*e - c*d
		tN = a*e - b*d
		if sN < 0 {
			sN = 0
			tN, tD = e, c
		} else if sN > sD {
			sN = sD
			tN, tD = e+b, c
		}
	}

	if tN < 0 {
		tN = 0
		switch {
		case -d < 0:
			sN = 0
		case -d > a:
			sN = sD
		default:
			sN, sD = -d, a
		}
	} else if tN > tD {
		tN = tD
		switch {
		case -d+b < 0:
			sN = 0
		case -d+b > a:
			sN = sD
		default:
			sN, sD = -d+b, a
		}
	}

	var sc, tc float64
	if sN > small || sN < -small {
		sc = sN / sD
	}
	if tN > small || tN < -small {
		tc = tN / tD
	}

	var dp [3]float64
	for i := range dp {
		dp[i] = w[i] + sc*u[i] - tc*v[i]
	}
	if tc > 0 && float32(dot64(dp, dp)) < threshold*threshold {
		return float32(tc) * length
	}
	return -1
}

// Transform returns the ray expressed in the space of m. The direction is
// renormalized and Length rescaled so distances stay consistent.
func (r Ray) Transform(m rl.Matrix) Ray {
	out := Ray{
		Origin:    rl.Vector3Transform(r.Origin, m),
		Direction: transformNormal(r.Direction, m),
		Length:    r.Length,
	}
	l := rl.Vector3Length(out.Direction)
	if l != 0 && l != 1 {
		out.Direction = rl.Vector3Scale(out.Direction, 1/l)
		if r.Length < math.MaxFloat32 {
			out.Length = r.Length * l
		}
	}
	return out
}

func transformCoordinates(v rl.Vector3, m rl.Matrix) rl.Vector3 {
	p := rl.Vector3Transform(v, m)
	w := m.M3*v.X + m.M7*v.Y + m.M11*v.Z + m.M15
	if w != 0 && w != 1 {
		p = rl.Vector3Scale(p, 1/w)
	}
	return p
}

func vec64(v rl.Vector3) [3]float64 {
	return [3]float64{float64(v.X), float64(v.Y), float64(v.Z)}
}

func dot64(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}
