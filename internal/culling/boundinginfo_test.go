package culling

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundingInfoVolumesShareExtents(t *testing.T) {
	world := trs(v3(1, 2, 3), v3(10, 20, 30), v3(1, 2, 1))
	info := NewBoundingInfo(v3(-1, -1, -1), v3(2, 3, 4), world)

	assert.Equal(t, info.BoundingBox.Minimum, info.BoundingSphere.Minimum)
	assert.Equal(t, info.BoundingBox.Maximum, info.BoundingSphere.Maximum)
	assertVecNear(t, rl.Vector3Transform(info.BoundingBox.Center, world), info.BoundingSphere.CenterWorld)
}

func TestBoundingInfoLocked(t *testing.T) {
	info := NewBoundingInfo(v3(-1, -1, -1), v3(1, 1, 1), rl.MatrixIdentity())
	info.IsLocked = true

	info.Update(rl.MatrixTranslate(100, 0, 0))
	assertVecNear(t, v3(-1, -1, -1), info.BoundingBox.MinimumWorld)
	assertVecNear(t, v3(0, 0, 0), info.BoundingSphere.CenterWorld)

	info.IsLocked = false
	info.Update(rl.MatrixTranslate(100, 0, 0))
	assertVecNear(t, v3(99, -1, -1), info.BoundingBox.MinimumWorld)
}

func TestBoundingInfoCullingStrategies(t *testing.T) {
	f := BoxFrustum(v3(-10, -10, -10), v3(10, 10, 10))
	// sphere pokes into the frustum corner, the box does not
	info := NewBoundingInfo(v3(-1, -1, -1), v3(1, 1, 1), rl.MatrixTranslate(11.2, 11.2, 0))

	tests := []struct {
		strategy CullingStrategy
		want     bool
	}{
		{Standard, false},
		{BoundingSphereOnly, true},
		{OptimisticInclusion, false},
		{OptimisticInclusionThenBSphereOnly, true},
	}
	for _, tt := range tests {
		t.Run(tt.strategy.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, info.IsInFrustum(f.Planes(), tt.strategy))
		})
	}

	inside := NewBoundingInfo(v3(-1, -1, -1), v3(1, 1, 1), rl.MatrixIdentity())
	for _, tt := range tests {
		assert.True(t, inside.IsInFrustum(f.Planes(), tt.strategy), tt.strategy.String())
	}
}

func TestBoundingInfoIntersectsPrecise(t *testing.T) {
	a := NewBoundingInfo(v3(-1, -1, -1), v3(1, 1, 1), trs(v3(0, 0, 0), v3(0, 0, 45), v3(1, 1, 1)))
	b := NewBoundingInfo(v3(-1, -1, -1), v3(1, 1, 1), trs(v3(2.2, 2.2, 0), v3(0, 0, 45), v3(1, 1, 1)))

	assert.True(t, a.Intersects(b, false), "coarse test only sees the AABBs")
	assert.False(t, a.Intersects(b, true), "diamonds are separated along the diagonal")

	c := NewBoundingInfo(v3(-1, -1, -1), v3(1, 1, 1), trs(v3(1.5, 0, 0), v3(0, 0, 45), v3(1, 1, 1)))
	assert.True(t, a.Intersects(c, true))

	far := NewBoundingInfo(v3(-1, -1, -1), v3(1, 1, 1), rl.MatrixTranslate(10, 0, 0))
	assert.False(t, a.Intersects(far, false))
}

func TestBoundingInfoEncapsulate(t *testing.T) {
	info := NewBoundingInfo(v3(0, 0, 0), v3(1, 1, 1), rl.MatrixIdentity())
	info.Encapsulate(v3(2, -1, 0.5))

	assertVecNear(t, v3(0, -1, 0), info.Minimum())
	assertVecNear(t, v3(2, 1, 1), info.Maximum())

	other := NewBoundingInfo(v3(0, 0, 0), v3(1, 1, 1), rl.MatrixTranslate(5, 0, 0))
	info.EncapsulateBoundingInfo(other)
	assertVecNear(t, v3(6, 1, 1), info.Maximum())
}

func TestBoundingInfoIntersectsPoint(t *testing.T) {
	info := NewBoundingInfo(v3(-1, -1, -1), v3(1, 1, 1), rl.MatrixIdentity())

	assert.True(t, info.IntersectsPoint(v3(0.9, 0.9, 0.9)))
	assert.False(t, info.IntersectsPoint(v3(1.5, 0, 0)))
}

func TestBoundingInfoCenterOnAndDiagonal(t *testing.T) {
	info := NewBoundingInfo(v3(0, 0, 0), v3(1, 1, 1), rl.MatrixIdentity())
	info.CenterOn(v3(5, 5, 5), v3(1, 2, 2))

	assertVecNear(t, v3(4, 3, 3), info.Minimum())
	assert.InDelta(t, 6, info.DiagonalLength(), eps)
}

func TestParseCullingStrategy(t *testing.T) {
	for s, name := range strategyNames {
		got, err := ParseCullingStrategy(name)
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	got, err := ParseCullingStrategy("")
	require.NoError(t, err)
	assert.Equal(t, Standard, got)

	_, err = ParseCullingStrategy("occlusion")
	assert.Error(t, err)
}
