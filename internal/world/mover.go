package world

import (
	"spatial3d/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// CollisionMover moves its object's mesh by Velocity every frame through
// the scene's MoveWithCollisions, with optional gravity.
type CollisionMover struct {
	engine.BaseComponent

	Ellipsoid rl.Vector3
	Velocity  rl.Vector3
	Gravity   float32

	Grounded     bool
	LastCollided *engine.Mesh

	mesh *engine.Mesh
}

func NewCollisionMover(ellipsoid rl.Vector3) *CollisionMover {
	return &CollisionMover{Ellipsoid: ellipsoid}
}

func (m *CollisionMover) Start() {
	if g := m.GetGameObject(); g != nil {
		m.mesh = engine.GetComponent[*engine.Mesh](g)
	}
}

func (m *CollisionMover) Update(deltaTime float32) {
	g := m.GetGameObject()
	if g == nil || g.Scene == nil || g.Scene.World == nil {
		return
	}
	if m.mesh == nil {
		m.Start()
		if m.mesh == nil {
			return
		}
	}

	m.Velocity.Y -= m.Gravity * deltaTime

	displacement := rl.Vector3Scale(m.Velocity, deltaTime)
	before := g.WorldPosition()
	after, collided := g.Scene.World.MoveWithCollisions(m.mesh, m.Ellipsoid, displacement)
	m.LastCollided = collided

	// Falling but stopped short: something is underneath.
	m.Grounded = false
	if collided != nil && displacement.Y < 0 && after.Y-before.Y > displacement.Y*0.5 {
		m.Grounded = true
		m.Velocity.Y = 0
	}
}

// OnCollide keeps the last mesh reported by the world.
func (m *CollisionMover) OnCollide(other *engine.Mesh) {
	m.LastCollided = other
}
