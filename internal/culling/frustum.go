package culling

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Frustum holds the 6 planes of a view volume with normals pointing inside:
// near, far, left, right, top, bottom.
type Frustum [6]Plane

// Planes returns the frustum as the plane slice the culling tests take.
func (f *Frustum) Planes() []Plane {
	return f[:]
}

// FrustumFromMatrix extracts frustum planes from a view-projection matrix
// (view applied first, then projection). Uses the Gribb/Hartmann method.
func FrustumFromMatrix(vp rl.Matrix) Frustum {
	var f Frustum

	// Near plane: row4 + row3
	f[0] = NewPlane(vp.M3+vp.M2, vp.M7+vp.M6, vp.M11+vp.M10, vp.M15+vp.M14).Normalize()

	// Far plane: row4 - row3
	f[1] = NewPlane(vp.M3-vp.M2, vp.M7-vp.M6, vp.M11-vp.M10, vp.M15-vp.M14).Normalize()

	// Left plane: row4 + row1
	f[2] = NewPlane(vp.M3+vp.M0, vp.M7+vp.M4, vp.M11+vp.M8, vp.M15+vp.M12).Normalize()

	// Right plane: row4 - row1
	f[3] = NewPlane(vp.M3-vp.M0, vp.M7-vp.M4, vp.M11-vp.M8, vp.M15-vp.M12).Normalize()

	// Top plane: row4 - row2
	f[4] = NewPlane(vp.M3-vp.M1, vp.M7-vp.M5, vp.M11-vp.M9, vp.M15-vp.M13).Normalize()

	// Bottom plane: row4 + row2
	f[5] = NewPlane(vp.M3+vp.M1, vp.M7+vp.M5, vp.M11+vp.M9, vp.M15+vp.M13).Normalize()

	return f
}

// FrustumFromCamera builds the view-projection matrix of a raylib camera and
// extracts its planes.
func FrustumFromCamera(camera rl.Camera3D, aspect, near, far float32) Frustum {
	view := LookAt(camera.Position, camera.Target, camera.Up)

	var proj rl.Matrix
	if camera.Projection == rl.CameraPerspective {
		proj = Perspective(camera.Fovy*rl.Deg2rad, aspect, near, far)
	} else {
		halfH := camera.Fovy / 2.0
		halfW := halfH * aspect
		proj = rl.MatrixOrtho(-halfW, halfW, -halfH, halfH, near, far)
	}

	return FrustumFromMatrix(rl.MatrixMultiply(view, proj))
}

// BoxFrustum returns the 6 inward planes of an axis-aligned box, an
// orthographic view volume.
func BoxFrustum(min, max rl.Vector3) Frustum {
	return Frustum{
		PlaneFromPositionAndNormal(min, rl.Vector3{Z: 1}),
		PlaneFromPositionAndNormal(max, rl.Vector3{Z: -1}),
		PlaneFromPositionAndNormal(min, rl.Vector3{X: 1}),
		PlaneFromPositionAndNormal(max, rl.Vector3{X: -1}),
		PlaneFromPositionAndNormal(max, rl.Vector3{Y: -1}),
		PlaneFromPositionAndNormal(min, rl.Vector3{Y: 1}),
	}
}

// IsPointInFrustum tests if a point is on the inner side of every plane.
func IsPointInFrustum(point rl.Vector3, planes []Plane) bool {
	for i := range planes {
		if planes[i].DotCoordinate(point) < 0 {
			return false
		}
	}
	return true
}
