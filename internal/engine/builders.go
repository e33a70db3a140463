package engine

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Triangles are wound counter-clockwise when seen from outside, so
// (p2-p1)×(p3-p1) is the outward normal.

type boxFace struct {
	normal, u, v rl.Vector3
}

var boxFaces = [6]boxFace{
	{rl.Vector3{X: 1}, rl.Vector3{Y: 1}, rl.Vector3{Z: 1}},
	{rl.Vector3{X: -1}, rl.Vector3{Z: 1}, rl.Vector3{Y: 1}},
	{rl.Vector3{Y: 1}, rl.Vector3{Z: 1}, rl.Vector3{X: 1}},
	{rl.Vector3{Y: -1}, rl.Vector3{X: 1}, rl.Vector3{Z: 1}},
	{rl.Vector3{Z: 1}, rl.Vector3{X: 1}, rl.Vector3{Y: 1}},
	{rl.Vector3{Z: -1}, rl.Vector3{Y: 1}, rl.Vector3{X: 1}},
}

// NewBoxMesh builds an axis-aligned box centered on the origin, four
// vertices per face.
func NewBoxMesh(name string, size rl.Vector3) *Mesh {
	half := rl.Vector3Scale(size, 0.5)
	positions := make([]rl.Vector3, 0, 24)
	indices := make([]int32, 0, 36)

	for _, f := range boxFaces {
		c := mul(f.normal, half)
		u := mul(f.u, half)
		v := mul(f.v, half)
		base := int32(len(positions))
		positions = append(positions,
			rl.Vector3Subtract(rl.Vector3Subtract(c, u), v),
			rl.Vector3Subtract(rl.Vector3Add(c, u), v),
			rl.Vector3Add(rl.Vector3Add(c, u), v),
			rl.Vector3Add(rl.Vector3Subtract(c, u), v),
		)
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return NewMesh(name, positions, indices)
}

// NewPlaneMesh builds a horizontal quad at y=0 facing +Y.
func NewPlaneMesh(name string, width, depth float32) *Mesh {
	u := rl.Vector3{Z: depth / 2}
	v := rl.Vector3{X: width / 2}
	positions := []rl.Vector3{
		rl.Vector3Subtract(rl.Vector3Negate(u), v),
		rl.Vector3Subtract(u, v),
		rl.Vector3Add(u, v),
		rl.Vector3Add(rl.Vector3Negate(u), v),
	}
	return NewMesh(name, positions, []int32{0, 1, 2, 0, 2, 3})
}

// NewSphereMesh builds a UV sphere with segments rings and 2*segments sectors.
func NewSphereMesh(name string, radius float32, segments int) *Mesh {
	if segments < 3 {
		segments = 3
	}
	rings, sectors := segments, segments*2
	positions := make([]rl.Vector3, 0, (rings+1)*(sectors+1))
	for i := 0; i <= rings; i++ {
		theta := math32.Pi * float32(i) / float32(rings)
		sinT, cosT := math32.Sincos(theta)
		for j := 0; j <= sectors; j++ {
			phi := 2 * math32.Pi * float32(j) / float32(sectors)
			sinP, cosP := math32.Sincos(phi)
			positions = append(positions, rl.Vector3{
				X: radius * sinT * cosP,
				Y: radius * cosT,
				Z: radius * sinT * sinP,
			})
		}
	}

	var indices []int32
	stride := int32(sectors + 1)
	for i := 0; i < rings; i++ {
		for j := 0; j < sectors; j++ {
			a := int32(i)*stride + int32(j)
			b := a + stride
			c := a + 1
			d := b + 1
			// pole rows collapse to a single triangle
			if i != 0 {
				indices = append(indices, a, c, b)
			}
			if i != rings-1 {
				indices = append(indices, c, d, b)
			}
		}
	}
	return NewMesh(name, positions, indices)
}

func mul(a, b rl.Vector3) rl.Vector3 {
	return rl.Vector3{X: a.X * b.X, Y: a.Y * b.Y, Z: a.Z * b.Z}
}
