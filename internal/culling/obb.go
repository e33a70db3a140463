package culling

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// OrientedBoxesIntersect tests two bounding boxes as oriented boxes using the
// Separating Axis Theorem.
func OrientedBoxesIntersect(a, b *BoundingBox) bool {
	// We need to test 15 axes:
	// - 3 face normals from A
	// - 3 face normals from B
	// - 9 cross products of edges (A's edges x B's edges)

	for i := 0; i < 3; i++ {
		if !overlapOnAxis(a, b, a.Directions[i]) {
			return false
		}
	}

	for i := 0; i < 3; i++ {
		if !overlapOnAxis(a, b, b.Directions[i]) {
			return false
		}
	}

	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			axis := rl.Vector3CrossProduct(a.Directions[i], b.Directions[j])
			// Skip near-zero axes (parallel edges)
			if lengthSq(axis) < 1e-8 {
				continue
			}
			if !overlapOnAxis(a, b, axis) {
				return false
			}
		}
	}

	return true
}

// overlapOnAxis checks if the projections of two boxes onto axis overlap.
// The axis does not need to be normalized.
func overlapOnAxis(a, b *BoundingBox, axis rl.Vector3) bool {
	aMin, aMax := boxExtentsOnAxis(a, axis)
	bMin, bMax := boxExtentsOnAxis(b, axis)
	return !(aMin > bMax || bMin > aMax)
}

// boxExtentsOnAxis projects an oriented box onto axis. Directions carry the
// transform scale, so the local half-extents are used as weights.
func boxExtentsOnAxis(box *BoundingBox, axis rl.Vector3) (float32, float32) {
	center := rl.Vector3Transform(box.Center, box.world)
	p := rl.Vector3DotProduct(center, axis)

	r := absf(rl.Vector3DotProduct(box.Directions[0], axis))*box.ExtendSize.X +
		absf(rl.Vector3DotProduct(box.Directions[1], axis))*box.ExtendSize.Y +
		absf(rl.Vector3DotProduct(box.Directions[2], axis))*box.ExtendSize.Z

	return p - r, p + r
}
