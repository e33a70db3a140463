package culling

import (
	"fmt"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// CullingStrategy selects how BoundingInfo.IsInFrustum trades precision for speed.
type CullingStrategy int

const (
	// Standard tests the sphere first, then the 8 box corners.
	Standard CullingStrategy = iota
	// BoundingSphereOnly stops after the sphere test.
	BoundingSphereOnly
	// OptimisticInclusion accepts objects whose center is inside the
	// frustum, otherwise behaves like Standard.
	OptimisticInclusion
	// OptimisticInclusionThenBSphereOnly accepts on center inclusion,
	// otherwise behaves like BoundingSphereOnly.
	OptimisticInclusionThenBSphereOnly
)

var strategyNames = map[CullingStrategy]string{
	Standard:                           "standard",
	BoundingSphereOnly:                 "bsphere_only",
	OptimisticInclusion:                "optimistic",
	OptimisticInclusionThenBSphereOnly: "optimistic_bsphere_only",
}

func (s CullingStrategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("CullingStrategy(%d)", int(s))
}

// ParseCullingStrategy maps a config name to a strategy.
func ParseCullingStrategy(name string) (CullingStrategy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Standard, nil
	}
	for s, n := range strategyNames {
		if n == name {
			return s, nil
		}
	}
	return Standard, fmt.Errorf("unknown culling strategy %q", name)
}

// BoundingInfo pairs a box and a sphere built from the same local extents.
// It is the unit the culling, picking and collision code works on.
type BoundingInfo struct {
	BoundingBox    BoundingBox
	BoundingSphere BoundingSphere

	// IsLocked turns Update into a no-op (static geometry).
	IsLocked bool
}

func NewBoundingInfo(min, max rl.Vector3, world rl.Matrix) *BoundingInfo {
	info := &BoundingInfo{}
	info.ReConstruct(min, max, world)
	return info
}

// ReConstruct rebuilds both volumes in place.
func (bi *BoundingInfo) ReConstruct(min, max rl.Vector3, world rl.Matrix) {
	bi.BoundingBox.ReConstruct(min, max, world)
	bi.BoundingSphere.ReConstruct(min, max, world)
}

func (bi *BoundingInfo) Minimum() rl.Vector3 {
	return bi.BoundingBox.Minimum
}

func (bi *BoundingInfo) Maximum() rl.Vector3 {
	return bi.BoundingBox.Maximum
}

// Update moves both volumes to world unless the info is locked.
func (bi *BoundingInfo) Update(world rl.Matrix) {
	if bi.IsLocked {
		return
	}
	bi.BoundingBox.Update(world)
	bi.BoundingSphere.Update(world)
}

// CenterOn recenters the local extents on center with half-extents extend.
func (bi *BoundingInfo) CenterOn(center, extend rl.Vector3) {
	bi.ReConstruct(rl.Vector3Subtract(center, extend), rl.Vector3Add(center, extend), bi.BoundingBox.world)
}

func (bi *BoundingInfo) Scale(factor float32) {
	bi.BoundingBox.Scale(factor)
	bi.BoundingSphere.Scale(factor)
}

// Encapsulate grows the local extents to contain point.
func (bi *BoundingInfo) Encapsulate(point rl.Vector3) {
	min := vector3Min(bi.Minimum(), point)
	max := vector3Max(bi.Maximum(), point)
	bi.ReConstruct(min, max, bi.BoundingBox.world)
}

// EncapsulateBoundingInfo grows the local extents to contain the world AABB
// of other, expressed in this info's local space.
func (bi *BoundingInfo) EncapsulateBoundingInfo(other *BoundingInfo) {
	inv := rl.MatrixInvert(bi.BoundingBox.world)
	for i := range other.BoundingBox.VectorsWorld {
		bi.Encapsulate(rl.Vector3Transform(other.BoundingBox.VectorsWorld[i], inv))
	}
}

// DiagonalLength is the length of the world AABB diagonal.
func (bi *BoundingInfo) DiagonalLength() float32 {
	return rl.Vector3Length(rl.Vector3Subtract(bi.BoundingBox.MaximumWorld, bi.BoundingBox.MinimumWorld))
}

// IsInFrustum runs the culling test selected by strategy.
func (bi *BoundingInfo) IsInFrustum(planes []Plane, strategy CullingStrategy) bool {
	optimistic := strategy == OptimisticInclusion || strategy == OptimisticInclusionThenBSphereOnly
	if optimistic && bi.BoundingSphere.IsCenterInFrustum(planes) {
		return true
	}

	if !bi.BoundingSphere.IsInFrustum(planes) {
		return false
	}

	if strategy == BoundingSphereOnly || strategy == OptimisticInclusionThenBSphereOnly {
		return true
	}

	return bi.BoundingBox.IsInFrustum(planes)
}

func (bi *BoundingInfo) IsCompletelyInFrustum(planes []Plane) bool {
	return bi.BoundingBox.IsCompletelyInFrustum(planes)
}

// IntersectsPoint checks the sphere first, then the box.
func (bi *BoundingInfo) IntersectsPoint(point rl.Vector3) bool {
	if !bi.BoundingSphere.IntersectsPoint(point) {
		return false
	}
	return bi.BoundingBox.IntersectsPoint(point)
}

// Intersects tests sphere-sphere, then AABB-AABB. With precise set the boxes
// are also tested as oriented boxes.
func (bi *BoundingInfo) Intersects(other *BoundingInfo, precise bool) bool {
	if !SpheresIntersect(&bi.BoundingSphere, &other.BoundingSphere) {
		return false
	}

	if !BoxesIntersect(&bi.BoundingBox, &other.BoundingBox) {
		return false
	}

	if !precise {
		return true
	}

	return OrientedBoxesIntersect(&bi.BoundingBox, &other.BoundingBox)
}
