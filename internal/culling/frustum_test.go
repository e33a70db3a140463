package culling

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
)

func TestFrustumFromOrthoMatrix(t *testing.T) {
	// identity view: the camera looks down -Z
	f := FrustumFromMatrix(rl.MatrixOrtho(-10, 10, -10, 10, 0.1, 100))

	assert.True(t, IsPointInFrustum(v3(0, 0, -50), f.Planes()))
	assert.True(t, IsPointInFrustum(v3(9, -9, -99), f.Planes()))
	assert.False(t, IsPointInFrustum(v3(0, 0, 10), f.Planes()), "behind the camera")
	assert.False(t, IsPointInFrustum(v3(20, 0, -50), f.Planes()), "right of the volume")
	assert.False(t, IsPointInFrustum(v3(0, 0, -150), f.Planes()), "past the far plane")

	for i, p := range f {
		assert.InDelta(t, 1, rl.Vector3Length(p.Normal), eps, "plane %d not normalized", i)
	}
}

func TestFrustumFromCamera(t *testing.T) {
	camera := rl.Camera3D{
		Position:   v3(0, 0, 10),
		Target:     v3(0, 0, 0),
		Up:         v3(0, 1, 0),
		Fovy:       60,
		Projection: rl.CameraPerspective,
	}
	f := FrustumFromCamera(camera, 16.0/9.0, 0.1, 1000)

	inView := NewBoundingInfo(v3(-1, -1, -1), v3(1, 1, 1), rl.MatrixIdentity())
	behind := NewBoundingInfo(v3(-1, -1, -1), v3(1, 1, 1), rl.MatrixTranslate(0, 0, 20))
	aside := NewBoundingInfo(v3(-1, -1, -1), v3(1, 1, 1), rl.MatrixTranslate(100, 0, 0))

	assert.True(t, inView.IsInFrustum(f.Planes(), Standard))
	assert.False(t, behind.IsInFrustum(f.Planes(), Standard))
	assert.False(t, aside.IsInFrustum(f.Planes(), Standard))
}

func TestPlaneFromPoints(t *testing.T) {
	p := PlaneFromPoints(v3(0, 0, 0), v3(1, 0, 0), v3(0, 1, 0))

	assertVecNear(t, v3(0, 0, 1), p.Normal)
	assert.InDelta(t, 3, p.SignedDistanceTo(v3(5, 5, 3)), eps)
	assert.True(t, p.IsFrontFacingTo(v3(0, 0, -1), 0))
	assert.False(t, p.IsFrontFacingTo(v3(0, 0, 1), 0))

	degenerate := PlaneFromPoints(v3(0, 0, 0), v3(1, 0, 0), v3(2, 0, 0))
	assert.Equal(t, Plane{}, degenerate)
}

func TestPlaneTransform(t *testing.T) {
	p := PlaneFromPositionAndNormal(v3(0, 0, 0), v3(0, 1, 0))
	moved := p.Transform(rl.MatrixTranslate(0, 5, 0))

	assertVecNear(t, v3(0, 1, 0), moved.Normal)
	assert.InDelta(t, 0, moved.SignedDistanceTo(v3(3, 5, -2)), eps)
}

func TestPlaneNormalize(t *testing.T) {
	p := NewPlane(0, 2, 0, -4).Normalize()

	assertVecNear(t, v3(0, 1, 0), p.Normal)
	assert.InDelta(t, -2, p.D, eps)
	assert.Equal(t, Plane{}, Plane{}.Normalize())
}
