// Package camera drives the viewer's orbit camera and derives its frustum.
package camera

import (
	"spatial3d/internal/culling"

	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

type OrbitCamera struct {
	Target   rl.Vector3
	Yaw      float32 // degrees around +Y
	Pitch    float32 // degrees above the horizon
	Distance float32
	Fovy     float32
	Near     float32
	Far      float32

	LookSpeed float32
	ZoomSpeed float32
	PanSpeed  float32

	MinDistance float32
	MaxDistance float32
}

func New(target rl.Vector3, distance float32) *OrbitCamera {
	return &OrbitCamera{
		Target:      target,
		Yaw:         -135.0,
		Pitch:       30.0,
		Distance:    distance,
		Fovy:        45,
		Near:        0.1,
		Far:         1000,
		LookSpeed:   0.25,
		ZoomSpeed:   2.0,
		PanSpeed:    20.0,
		MinDistance: 2,
		MaxDistance: 500,
	}
}

// Update applies right-drag orbit, wheel zoom and WASD panning of the target.
func (c *OrbitCamera) Update(deltaTime float32) {
	if rl.IsMouseButtonDown(rl.MouseRightButton) {
		delta := rl.GetMouseDelta()
		c.Orbit(delta.X*c.LookSpeed, -delta.Y*c.LookSpeed)
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		c.Zoom(-wheel * c.ZoomSpeed)
	}

	forward, right := c.directions()
	var move rl.Vector3
	if rl.IsKeyDown(rl.KeyW) {
		move = rl.Vector3Add(move, forward)
	}
	if rl.IsKeyDown(rl.KeyS) {
		move = rl.Vector3Subtract(move, forward)
	}
	if rl.IsKeyDown(rl.KeyD) {
		move = rl.Vector3Add(move, right)
	}
	if rl.IsKeyDown(rl.KeyA) {
		move = rl.Vector3Subtract(move, right)
	}
	if move != (rl.Vector3{}) {
		move = rl.Vector3Scale(rl.Vector3Normalize(move), c.PanSpeed*deltaTime)
		c.Target = rl.Vector3Add(c.Target, move)
	}
}

// Orbit turns the camera around the target. Pitch stays within ±89°.
func (c *OrbitCamera) Orbit(dYaw, dPitch float32) {
	c.Yaw += dYaw
	c.Pitch = math32.Max(-89, math32.Min(89, c.Pitch+dPitch))
}

func (c *OrbitCamera) Zoom(delta float32) {
	c.Distance = math32.Max(c.MinDistance, math32.Min(c.MaxDistance, c.Distance+delta))
}

// Position is the eye point on the orbit sphere.
func (c *OrbitCamera) Position() rl.Vector3 {
	yaw := c.Yaw * rl.Deg2rad
	pitch := c.Pitch * rl.Deg2rad
	sinYaw, cosYaw := math32.Sincos(yaw)
	sinPitch, cosPitch := math32.Sincos(pitch)
	return rl.Vector3{
		X: c.Target.X + c.Distance*cosPitch*cosYaw,
		Y: c.Target.Y + c.Distance*sinPitch,
		Z: c.Target.Z + c.Distance*cosPitch*sinYaw,
	}
}

// directions returns the horizontal forward (towards the target) and right
// vectors.
func (c *OrbitCamera) directions() (forward, right rl.Vector3) {
	sinYaw, cosYaw := math32.Sincos(c.Yaw * rl.Deg2rad)
	forward = rl.Vector3{X: -cosYaw, Z: -sinYaw}
	right = rl.Vector3{X: sinYaw, Z: -cosYaw}
	return
}

func (c *OrbitCamera) GetRaylibCamera() rl.Camera3D {
	return rl.Camera3D{
		Position:   c.Position(),
		Target:     c.Target,
		Up:         rl.Vector3{X: 0, Y: 1, Z: 0},
		Fovy:       c.Fovy,
		Projection: rl.CameraPerspective,
	}
}

func (c *OrbitCamera) View() rl.Matrix {
	return culling.LookAt(c.Position(), c.Target, rl.Vector3{Y: 1})
}

func (c *OrbitCamera) Projection(aspect float32) rl.Matrix {
	return culling.Perspective(c.Fovy*rl.Deg2rad, aspect, c.Near, c.Far)
}

// Frustum returns the world-space frustum for a viewport aspect ratio.
func (c *OrbitCamera) Frustum(aspect float32) culling.Frustum {
	return culling.FrustumFromCamera(c.GetRaylibCamera(), aspect, c.Near, c.Far)
}
