package culling

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-4

func v3(x, y, z float32) rl.Vector3 {
	return rl.Vector3{X: x, Y: y, Z: z}
}

func assertVecNear(t *testing.T, want, got rl.Vector3) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, eps, "X")
	assert.InDelta(t, want.Y, got.Y, eps, "Y")
	assert.InDelta(t, want.Z, got.Z, eps, "Z")
}

func trs(pos, rotDeg, scale rl.Vector3) rl.Matrix {
	s := rl.MatrixScale(scale.X, scale.Y, scale.Z)
	return rl.MatrixMultiply(rl.MatrixMultiply(s, RotationMatrix(rotDeg)), rl.MatrixTranslate(pos.X, pos.Y, pos.Z))
}

func TestBoundingBoxUpdateTransformsCorners(t *testing.T) {
	worlds := []rl.Matrix{
		rl.MatrixIdentity(),
		trs(v3(3, -2, 7), v3(0, 0, 0), v3(1, 1, 1)),
		trs(v3(1, 2, 3), v3(30, 45, 60), v3(2, 0.5, 3)),
		trs(v3(-4, 0, 1), v3(90, 0, 0), v3(-1, 1, 1)),
	}
	min, max := v3(-1, -2, -3), v3(1, 2, 3)

	for _, world := range worlds {
		box := NewBoundingBox(min, max, world)

		wantMin := v3(1e9, 1e9, 1e9)
		wantMax := v3(-1e9, -1e9, -1e9)
		for i := range box.Vectors {
			want := rl.Vector3Transform(box.Vectors[i], world)
			assertVecNear(t, want, box.VectorsWorld[i])
			wantMin = vector3Min(wantMin, want)
			wantMax = vector3Max(wantMax, want)
		}
		assertVecNear(t, wantMin, box.MinimumWorld)
		assertVecNear(t, wantMax, box.MaximumWorld)
	}
}

func TestBoundingBoxCornersCoverExtents(t *testing.T) {
	box := NewBoundingBox(v3(-1, -2, -3), v3(1, 2, 3), rl.MatrixIdentity())

	seen := map[rl.Vector3]bool{}
	for _, c := range box.Vectors {
		seen[c] = true
	}
	assert.Len(t, seen, 8, "corners must be distinct")
	assertVecNear(t, v3(1, 2, 3), box.ExtendSize)
	assertVecNear(t, v3(0, 0, 0), box.Center)
}

func TestBoundingSphereRoundTrip(t *testing.T) {
	min, max := v3(-1.5, 2, -7), v3(4, 3.25, 1)
	s := NewBoundingSphere(min, max, rl.MatrixIdentity())

	assert.Equal(t, min, s.Minimum)
	assert.Equal(t, max, s.Maximum)
}

func TestBoundingSphereWorldRadiusUsesLargestScale(t *testing.T) {
	s := NewBoundingSphere(v3(-1, -1, -1), v3(1, 1, 1), rl.MatrixIdentity())
	local := s.Radius

	s.Update(trs(v3(5, 0, 0), v3(0, 30, 0), v3(2, -4, 1)))
	assert.InDelta(t, local*4, s.RadiusWorld, eps)
	assertVecNear(t, v3(5, 0, 0), s.CenterWorld)
}

func TestBoundingSphereDegenerateMatrix(t *testing.T) {
	s := NewBoundingSphere(v3(-1, -1, -1), v3(1, 1, 1), rl.Matrix{})
	assert.Equal(t, float32(0), s.RadiusWorld)
}

func TestBoundingSphereReConstructKeepsIdentity(t *testing.T) {
	s := NewBoundingSphere(v3(0, 0, 0), v3(1, 1, 1), rl.MatrixIdentity())
	ref := s
	s.ReConstruct(v3(-2, -2, -2), v3(2, 2, 2), rl.MatrixIdentity())

	require.Same(t, ref, s)
	assert.InDelta(t, rl.Vector3Length(v3(4, 4, 4))/2, ref.Radius, eps)
}

func TestSpheresIntersect(t *testing.T) {
	a := BoundingSphereFromCenterAndRadius(v3(0, 0, 0), 1, rl.MatrixIdentity())

	tests := []struct {
		name   string
		center rl.Vector3
		want   bool
	}{
		{"overlapping", v3(1.5, 0, 0), true},
		{"touching", v3(2, 0, 0), true},
		{"apart", v3(3, 0, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := BoundingSphereFromCenterAndRadius(tt.center, 1, rl.MatrixIdentity())
			assert.Equal(t, tt.want, SpheresIntersect(a, b))
			assert.Equal(t, tt.want, SpheresIntersect(b, a))
		})
	}
}

func TestBoxCompletelyInFrustum(t *testing.T) {
	box := NewBoundingBox(v3(-1, -1, -1), v3(1, 1, 1), rl.MatrixIdentity())
	f := BoxFrustum(v3(-10, -10, -10), v3(10, 10, 10))

	assert.True(t, box.IsCompletelyInFrustum(f.Planes()))
	assert.True(t, box.IsInFrustum(f.Planes()))

	box.Update(rl.MatrixTranslate(10, 0, 0))
	assert.False(t, box.IsCompletelyInFrustum(f.Planes()))
	assert.True(t, box.IsInFrustum(f.Planes()), "straddling box is still visible")

	box.Update(rl.MatrixTranslate(12, 0, 0))
	assert.False(t, box.IsInFrustum(f.Planes()))
}

func TestSphereFrustumTest(t *testing.T) {
	f := BoxFrustum(v3(-10, -10, -10), v3(10, 10, 10))
	s := BoundingSphereFromCenterAndRadius(v3(0, 0, 0), 1, rl.MatrixIdentity())

	assert.True(t, s.IsInFrustum(f.Planes()))

	s.Update(rl.MatrixTranslate(10.5, 0, 0))
	assert.True(t, s.IsInFrustum(f.Planes()))
	assert.False(t, s.IsCenterInFrustum(f.Planes()))

	s.Update(rl.MatrixTranslate(11.5, 0, 0))
	assert.False(t, s.IsInFrustum(f.Planes()))
}

func TestBoxIntersectsSphere(t *testing.T) {
	assert.True(t, BoxIntersectsSphere(v3(0, 0, 0), v3(1, 1, 1), v3(2, 0.5, 0.5), 1))
	assert.False(t, BoxIntersectsSphere(v3(0, 0, 0), v3(1, 1, 1), v3(2, 2, 2), 1))
	assert.True(t, BoxIntersectsSphere(v3(0, 0, 0), v3(1, 1, 1), v3(0.5, 0.5, 0.5), 0.01))
}

func TestBoundingBoxIntersectsPoint(t *testing.T) {
	box := NewBoundingBox(v3(-1, -1, -1), v3(1, 1, 1), rl.MatrixTranslate(5, 0, 0))

	assert.True(t, box.IntersectsPoint(v3(5, 0, 0)))
	assert.True(t, box.IntersectsPoint(v3(6, 1, 1)))
	assert.False(t, box.IntersectsPoint(v3(0, 0, 0)))
}

func TestBoundingBoxScale(t *testing.T) {
	box := NewBoundingBox(v3(0, 0, 0), v3(2, 2, 2), rl.MatrixIdentity())
	box.Scale(2)

	assertVecNear(t, v3(-1, -1, -1), box.Minimum)
	assertVecNear(t, v3(3, 3, 3), box.Maximum)
}
