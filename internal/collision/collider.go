// Package collision moves ellipsoids through mesh triangles with a
// swept-sphere test and a slide response.
package collision

import (
	"errors"
	"fmt"

	"spatial3d/internal/culling"
	"spatial3d/internal/engine"

	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

var ErrInvalidRadius = errors.New("collision: ellipsoid radius components must be positive")

// Collider carries one collide-and-slide query. Work happens in ellipsoid
// space, where the moving volume is a unit sphere.
type Collider struct {
	Radius           rl.Vector3
	Retry            int
	CollisionMask    int
	DoubleSidedCheck bool

	CollisionFound    bool
	IntersectionPoint rl.Vector3
	CollidedMesh      *engine.Mesh

	basePoint             rl.Vector3
	velocity              rl.Vector3
	normalizedVelocity    rl.Vector3
	velocitySquaredLength float32
	basePointWorld        rl.Vector3
	velocityWorld         rl.Vector3
	velocityWorldLength   float32
	nearestDistance       float32
	epsilon               float32
	initialVelocity       rl.Vector3
	initialPosition       rl.Vector3
}

func NewCollider(radius rl.Vector3) (*Collider, error) {
	if !(radius.X > 0 && radius.Y > 0 && radius.Z > 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRadius, radius)
	}
	return &Collider{Radius: radius, CollisionMask: -1}, nil
}

func (c *Collider) BasePointWorld() rl.Vector3 {
	return c.basePointWorld
}

func (c *Collider) VelocityWorldLength() float32 {
	return c.velocityWorldLength
}

func (c *Collider) MaxRadius() float32 {
	return math32.Max(c.Radius.X, math32.Max(c.Radius.Y, c.Radius.Z))
}

// NearestDistance is the travel distance, in ellipsoid space, to the
// closest contact found since the last initialize.
func (c *Collider) NearestDistance() float32 {
	return c.nearestDistance
}

// initialize prepares a pass from source along dir, both in ellipsoid space.
// e is the distance kept between the volume and a surface after a response.
func (c *Collider) initialize(source, dir rl.Vector3, e float32) {
	c.velocity = dir
	c.velocitySquaredLength = lengthSq(dir)
	l := math32.Sqrt(c.velocitySquaredLength)
	if l == 0 || l == 1 {
		c.normalizedVelocity = dir
	} else {
		c.normalizedVelocity = rl.Vector3Scale(dir, 1/l)
	}

	c.basePoint = source
	c.basePointWorld = mul(source, c.Radius)
	c.velocityWorld = mul(dir, c.Radius)
	c.velocityWorldLength = rl.Vector3Length(c.velocityWorld)

	c.epsilon = e
	c.nearestDistance = math32.Inf(1)
	c.CollisionFound = false
}

// CanDoCollision is the broad test of the swept volume against an object
// bounded by a world sphere and a world AABB.
func (c *Collider) CanDoCollision(sphereCenter rl.Vector3, sphereRadius float32, boxMin, boxMax rl.Vector3) bool {
	reach := c.velocityWorldLength + c.MaxRadius()
	if rl.Vector3Distance(c.basePointWorld, sphereCenter) > reach+sphereRadius {
		return false
	}
	return intersectBoxAASphere(boxMin, boxMax, c.basePointWorld, reach)
}

func (c *Collider) canCollideWith(info *culling.BoundingInfo) bool {
	return c.CanDoCollision(info.BoundingSphere.CenterWorld, info.BoundingSphere.RadiusWorld,
		info.BoundingBox.MinimumWorld, info.BoundingBox.MaximumWorld)
}

// testTriangle sweeps the unit sphere against one triangle and keeps the hit
// if it is the nearest so far.
func (c *Collider) testTriangle(faceIndex int, cache *engine.ColliderCache, p1, p2, p3 rl.Vector3, doubleSided bool, hostMesh *engine.Mesh) {
	var plane culling.Plane
	if cache != nil && faceIndex >= 0 && faceIndex < len(cache.Planes) {
		if !cache.PlaneReady[faceIndex] {
			cache.Planes[faceIndex] = culling.PlaneFromPoints(p1, p2, p3)
			cache.PlaneReady[faceIndex] = true
		}
		plane = cache.Planes[faceIndex]
	} else {
		plane = culling.PlaneFromPoints(p1, p2, p3)
	}

	// degenerate triangle
	if plane.Normal == (rl.Vector3{}) {
		return
	}
	if !plane.IsFrontFacingTo(c.normalizedVelocity, 0) {
		if !doubleSided && !c.DoubleSidedCheck {
			return
		}
		// test the back face as the front of the reversed triangle
		p1, p3 = p3, p1
		plane = culling.Plane{Normal: rl.Vector3Negate(plane.Normal), D: -plane.D}
	}

	signedDist := plane.SignedDistanceTo(c.basePoint)
	normalDotVelocity := rl.Vector3DotProduct(plane.Normal, c.velocity)

	var t0 float32
	embeddedInPlane := false
	if normalDotVelocity == 0 {
		if absf(signedDist) >= 1 {
			return
		}
		embeddedInPlane = true
	} else {
		t0 = (-1 - signedDist) / normalDotVelocity
		t1 := (1 - signedDist) / normalDotVelocity
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > 1 || t1 < 0 {
			return
		}
		t0 = clampf(t0, 0, 1)
	}

	var collisionPoint rl.Vector3
	found := false
	t := float32(1)

	if !embeddedInPlane {
		planeIntersection := rl.Vector3Add(rl.Vector3Subtract(c.basePoint, plane.Normal), rl.Vector3Scale(c.velocity, t0))
		if pointInTriangle(planeIntersection, p1, p2, p3, plane.Normal) {
			found = true
			t = t0
			collisionPoint = planeIntersection
		}
	}

	if !found {
		// vertices
		a := c.velocitySquaredLength
		for _, p := range [3]rl.Vector3{p1, p2, p3} {
			toBase := rl.Vector3Subtract(c.basePoint, p)
			b := 2 * rl.Vector3DotProduct(c.velocity, toBase)
			cc := lengthSq(toBase) - 1
			if root, ok := lowestRoot(a, b, cc, t); ok {
				t = root
				found = true
				collisionPoint = p
			}
		}

		// edges
		for _, e := range [3][2]rl.Vector3{{p1, p2}, {p2, p3}, {p3, p1}} {
			edge := rl.Vector3Subtract(e[1], e[0])
			baseToVertex := rl.Vector3Subtract(e[0], c.basePoint)
			edgeSquaredLength := lengthSq(edge)
			edgeDotVelocity := rl.Vector3DotProduct(edge, c.velocity)
			edgeDotBaseToVertex := rl.Vector3DotProduct(edge, baseToVertex)

			a := edgeSquaredLength*-c.velocitySquaredLength + edgeDotVelocity*edgeDotVelocity
			b := 2 * (edgeSquaredLength*rl.Vector3DotProduct(c.velocity, baseToVertex) - edgeDotVelocity*edgeDotBaseToVertex)
			cc := edgeSquaredLength*(1-lengthSq(baseToVertex)) + edgeDotBaseToVertex*edgeDotBaseToVertex

			root, ok := lowestRoot(a, b, cc, t)
			if !ok {
				continue
			}
			f := (edgeDotVelocity*root - edgeDotBaseToVertex) / edgeSquaredLength
			if f >= 0 && f <= 1 {
				t = root
				found = true
				collisionPoint = rl.Vector3Add(e[0], rl.Vector3Scale(edge, f))
			}
		}
	}

	if !found {
		return
	}
	distToCollision := t * math32.Sqrt(c.velocitySquaredLength)
	if !c.CollisionFound || distToCollision < c.nearestDistance {
		c.IntersectionPoint = collisionPoint
		c.nearestDistance = distToCollision
		c.CollisionFound = true
		c.CollidedMesh = hostMesh
	}
}

// collide tests the triangles of indices[indexStart:indexEnd]. pts holds the
// vertices from decal on, already in ellipsoid space. Triangles are
// counter-clockwise when front facing; strips alternate.
func (c *Collider) collide(cache *engine.ColliderCache, pts []rl.Vector3, indices []int32, indexStart, indexEnd, decal int, doubleSided bool, hostMesh *engine.Mesh, invertTriangles, triangleStrip bool) {
	vertex := func(idx int32) (rl.Vector3, bool) {
		i := int(idx) - decal
		if i < 0 || i >= len(pts) {
			return rl.Vector3{}, false
		}
		return pts[i], true
	}

	if len(indices) == 0 {
		step := 3
		if triangleStrip {
			step = 1
		}
		for i := 0; i+2 < len(pts); i += step {
			p1, p2, p3 := pts[i], pts[i+1], pts[i+2]
			c.testWound(i/step, cache, p1, p2, p3, invertTriangles != (triangleStrip && i%2 == 1), doubleSided, hostMesh)
		}
		return
	}

	if indexEnd > len(indices) {
		indexEnd = len(indices)
	}

	if triangleStrip {
		for i := indexStart; i+2 < indexEnd; i++ {
			p1, ok1 := vertex(indices[i])
			p2, ok2 := vertex(indices[i+1])
			p3, ok3 := vertex(indices[i+2])
			if !ok1 || !ok2 || !ok3 {
				continue
			}
			flip := invertTriangles != ((i-indexStart)%2 == 1)
			c.testWound(i-indexStart, cache, p1, p2, p3, flip, doubleSided, hostMesh)
		}
		return
	}

	for i := indexStart; i+2 < indexEnd; i += 3 {
		p1, ok1 := vertex(indices[i])
		p2, ok2 := vertex(indices[i+1])
		p3, ok3 := vertex(indices[i+2])
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		c.testWound((i-indexStart)/3, cache, p1, p2, p3, invertTriangles, doubleSided, hostMesh)
	}
}

func (c *Collider) testWound(faceIndex int, cache *engine.ColliderCache, p1, p2, p3 rl.Vector3, flip, doubleSided bool, hostMesh *engine.Mesh) {
	if flip {
		p1, p3 = p3, p1
	}
	c.testTriangle(faceIndex, cache, p1, p2, p3, doubleSided, hostMesh)
}

// getResponse moves pos to the contact, backs it off by epsilon along the
// slide normal and returns the remaining motion projected on the slide plane.
func (c *Collider) getResponse(pos, vel rl.Vector3) (rl.Vector3, rl.Vector3) {
	l := rl.Vector3Length(vel)
	if !(l > 0) {
		return pos, rl.Vector3{}
	}
	destination := rl.Vector3Add(pos, vel)
	vel = rl.Vector3Scale(vel, c.nearestDistance/l)
	pos = rl.Vector3Add(c.basePoint, vel)

	slideNormal := rl.Vector3Normalize(rl.Vector3Subtract(pos, c.IntersectionPoint))
	displacement := rl.Vector3Scale(slideNormal, c.epsilon)
	pos = rl.Vector3Add(pos, displacement)
	c.IntersectionPoint = rl.Vector3Add(c.IntersectionPoint, displacement)

	dist := culling.SignedDistanceToPlane(c.IntersectionPoint, slideNormal, destination)
	destination = rl.Vector3Subtract(destination, rl.Vector3Scale(slideNormal, dist))
	return pos, rl.Vector3Subtract(destination, c.IntersectionPoint)
}

// pointInTriangle assumes point lies in the triangle plane of normal n.
func pointInTriangle(point, pa, pb, pc, n rl.Vector3) bool {
	a := rl.Vector3Subtract(pa, point)
	b := rl.Vector3Subtract(pb, point)
	if rl.Vector3DotProduct(rl.Vector3CrossProduct(a, b), n) < 0 {
		return false
	}
	cv := rl.Vector3Subtract(pc, point)
	if rl.Vector3DotProduct(rl.Vector3CrossProduct(b, cv), n) < 0 {
		return false
	}
	return rl.Vector3DotProduct(rl.Vector3CrossProduct(cv, a), n) >= 0
}

// lowestRoot returns the smallest root of ax²+bx+c in (0, maxR).
func lowestRoot(a, b, c, maxR float32) (float32, bool) {
	det := b*b - 4*a*c
	if det < 0 || a == 0 {
		return 0, false
	}
	sqrtD := math32.Sqrt(det)
	r1 := (-b - sqrtD) / (2 * a)
	r2 := (-b + sqrtD) / (2 * a)
	if r1 > r2 {
		r1, r2 = r2, r1
	}
	if r1 > 0 && r1 < maxR {
		return r1, true
	}
	if r2 > 0 && r2 < maxR {
		return r2, true
	}
	return 0, false
}

func intersectBoxAASphere(boxMin, boxMax, center rl.Vector3, radius float32) bool {
	if boxMin.X > center.X+radius || center.X-radius > boxMax.X {
		return false
	}
	if boxMin.Y > center.Y+radius || center.Y-radius > boxMax.Y {
		return false
	}
	return boxMin.Z <= center.Z+radius && center.Z-radius <= boxMax.Z
}

func lengthSq(v rl.Vector3) float32 {
	return rl.Vector3DotProduct(v, v)
}

func mul(a, b rl.Vector3) rl.Vector3 {
	return rl.Vector3{X: a.X * b.X, Y: a.Y * b.Y, Z: a.Z * b.Z}
}

func div(a, b rl.Vector3) rl.Vector3 {
	return rl.Vector3{X: a.X / b.X, Y: a.Y / b.Y, Z: a.Z / b.Z}
}

func absf(x float32) float32 {
	return math32.Abs(x)
}

func clampf(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
