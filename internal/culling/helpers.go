package culling

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

func absf(x float32) float32 {
	return math32.Abs(x)
}

func lengthSq(v rl.Vector3) float32 {
	return rl.Vector3DotProduct(v, v)
}

func distanceSq(a, b rl.Vector3) float32 {
	return lengthSq(rl.Vector3Subtract(a, b))
}

func vector3Min(a, b rl.Vector3) rl.Vector3 {
	return rl.Vector3{X: math32.Min(a.X, b.X), Y: math32.Min(a.Y, b.Y), Z: math32.Min(a.Z, b.Z)}
}

func vector3Max(a, b rl.Vector3) rl.Vector3 {
	return rl.Vector3{X: math32.Max(a.X, b.X), Y: math32.Max(a.Y, b.Y), Z: math32.Max(a.Z, b.Z)}
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
