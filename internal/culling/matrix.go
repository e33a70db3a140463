package culling

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Matrices here use the layout rl.Vector3Transform reads: column vectors,
// translation in M12..M14, the w row in M3, M7, M11, M15. raylib-go's
// MatrixLookAt puts the translation in M3, M7, M11, MatrixFrustum (and so
// MatrixPerspective) misplaces its off-center terms, and MatrixRotateX/Y/Z
// turn by -angle under Vector3Transform.

// LookAt builds a right-handed view matrix looking from eye towards target.
func LookAt(eye, target, up rl.Vector3) rl.Matrix {
	z := rl.Vector3Normalize(rl.Vector3Subtract(eye, target))
	x := rl.Vector3Normalize(rl.Vector3CrossProduct(up, z))
	y := rl.Vector3CrossProduct(z, x)
	return rl.Matrix{
		M0: x.X, M4: x.Y, M8: x.Z, M12: -rl.Vector3DotProduct(x, eye),
		M1: y.X, M5: y.Y, M9: y.Z, M13: -rl.Vector3DotProduct(y, eye),
		M2: z.X, M6: z.Y, M10: z.Z, M14: -rl.Vector3DotProduct(z, eye),
		M15: 1,
	}
}

// Perspective builds an OpenGL style projection, fovy in radians. Clip z
// runs from -w at near to +w at far.
func Perspective(fovy, aspect, near, far float32) rl.Matrix {
	f := 1 / math32.Tan(fovy/2)
	fn := far - near
	return rl.Matrix{
		M0:  f / aspect,
		M5:  f,
		M10: -(far + near) / fn,
		M14: -2 * far * near / fn,
		M11: -1,
	}
}

// RotationMatrix rotates by degrees around X, then Y, then Z, counter-clockwise
// when looking down each axis towards the origin.
func RotationMatrix(degrees rl.Vector3) rl.Matrix {
	rx := rl.MatrixRotateX(-degrees.X * rl.Deg2rad)
	ry := rl.MatrixRotateY(-degrees.Y * rl.Deg2rad)
	rz := rl.MatrixRotateZ(-degrees.Z * rl.Deg2rad)
	return rl.MatrixMultiply(rl.MatrixMultiply(rx, ry), rz)
}
