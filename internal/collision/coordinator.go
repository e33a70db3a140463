package collision

import (
	"spatial3d/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultMaxRetries = 5
	DefaultEpsilon    = 0.001
)

// Squared ellipsoid-space displacements at or below this do not move.
const minDisplacementSq = 1e-12

// CandidateSource returns the meshes worth testing for a collider pass.
type CandidateSource interface {
	CollidingMeshCandidates(c *Collider) []*engine.Mesh
}

// Coordinator resolves collide-and-slide moves against a candidate source.
type Coordinator struct {
	candidates CandidateSource
	maxRetries int
	epsilon    float32
}

// NewCoordinator falls back to the defaults for non-positive retries or
// epsilon.
func NewCoordinator(candidates CandidateSource, maxRetries int, epsilon float32) *Coordinator {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}
	return &Coordinator{candidates: candidates, maxRetries: maxRetries, epsilon: epsilon}
}

// GetNewPosition moves an ellipsoid centered at position by displacement,
// sliding along what it hits. It returns the final world position and the
// last mesh collided with, if any. excluded is never tested and, when set,
// its CollisionMask replaces the collider's.
func (co *Coordinator) GetNewPosition(position, displacement rl.Vector3, c *Collider, excluded *engine.Mesh) (rl.Vector3, *engine.Mesh) {
	c.CollidedMesh = nil
	c.Retry = 0
	pos := div(position, c.Radius)
	vel := div(displacement, c.Radius)
	if !(lengthSq(vel) > minDisplacementSq) {
		return position, nil
	}
	c.initialPosition = pos
	c.initialVelocity = vel

	mask := c.CollisionMask
	if excluded != nil {
		mask = excluded.CollisionMask
	}
	closeDistance := co.epsilon * 10

	for ; c.Retry < co.maxRetries; c.Retry++ {
		c.initialize(pos, vel, closeDistance)

		for _, mesh := range co.candidates.CollidingMeshCandidates(c) {
			if mesh == excluded || !mesh.CheckCollisions || len(mesh.SubMeshes) == 0 || !mesh.IsEnabled() {
				continue
			}
			if mask&mesh.CollisionGroup == 0 {
				continue
			}
			CheckMesh(c, mesh)
		}

		if !c.CollisionFound {
			return mul(rl.Vector3Add(pos, vel), c.Radius), c.CollidedMesh
		}

		pos, vel = c.getResponse(pos, vel)
		if rl.Vector3Length(vel) <= closeDistance {
			return mul(pos, c.Radius), c.CollidedMesh
		}
	}

	log.WithFields(log.Fields{
		"retries":  co.maxRetries,
		"position": pos,
	}).Debug("Collisions: retry limit reached, keeping last position")
	return mul(pos, c.Radius), c.CollidedMesh
}
