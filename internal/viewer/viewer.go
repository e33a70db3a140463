// Package viewer is the interactive culling/picking/collision debug view.
package viewer

import (
	"fmt"
	"math/rand"
	"time"

	"spatial3d/internal/camera"
	"spatial3d/internal/config"
	"spatial3d/internal/culling"
	"spatial3d/internal/engine"
	"spatial3d/internal/world"

	rl "github.com/gen2brain/raylib-go/raylib"
	log "github.com/sirupsen/logrus"
)

const (
	FieldSize   = 200.0
	ballRadius  = 1.0
	ballSpeed   = 12.0
	jumpImpulse = 10.0
)

type Viewer struct {
	World  *world.World
	Camera *camera.OrbitCamera

	Ball  *engine.Mesh
	mover *world.CollisionMover

	DebugMode    bool
	DrawOctree   bool
	FreezeView   bool
	BoxCount     int
	scenePath    string
	frozen       culling.Frustum
	picked       engine.PickingInfo
	octreeDirty  bool
	capacity     float32
	maxDepth     float32
	activeLookup map[*engine.Mesh]bool

	// Debug timing (ms)
	updateMs float64
	selectMs float64
	drawMs   float64
}

// New creates a viewer that loads scenePath, or generates boxCount random
// boxes when scenePath is empty.
func New(cfg config.Config, scenePath string, boxCount int) *Viewer {
	return &Viewer{
		World:        world.New(cfg),
		Camera:       camera.New(rl.Vector3{}, 60),
		BoxCount:     boxCount,
		scenePath:    scenePath,
		DrawOctree:   true,
		capacity:     float32(cfg.Octree.Capacity),
		maxDepth:     float32(cfg.Octree.MaxDepth),
		activeLookup: make(map[*engine.Mesh]bool),
	}
}

func (v *Viewer) Run() error {
	rl.SetConfigFlags(rl.FlagWindowHighdpi | rl.FlagWindowResizable)
	rl.InitWindow(1280, 720, "spatial3d cullview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(120)

	if err := v.setup(); err != nil {
		return err
	}
	defer v.World.Release()
	initRayguiStyle()

	for !rl.WindowShouldClose() {
		v.Update()
		v.Draw()
	}
	return nil
}

func (v *Viewer) setup() error {
	if v.scenePath != "" {
		if err := v.World.LoadScene(v.scenePath); err != nil {
			return fmt.Errorf("load scene: %w", err)
		}
	} else {
		Populate(v.World, v.BoxCount, 42)
	}
	v.spawnBall()

	if threshold := v.World.Config.Culling.GPUThreshold; threshold > 0 {
		if err := v.World.EnableGPUCulling(uint32(max(threshold, v.BoxCount))); err != nil {
			log.Warnf("Viewer: GPU culling unavailable: %v", err)
		}
	}
	return v.rebuildOctree()
}

// Populate fills w with a ground plane and count random boxes spread over
// the field.
func Populate(w *world.World, count int, seed int64) {
	rng := rand.New(rand.NewSource(seed))

	ground := engine.NewPlaneMesh("Ground", FieldSize, FieldSize)
	ground.AlwaysSelectAsActive = true
	w.AddMesh(ground)

	half := float32(FieldSize / 2)
	for i := range count {
		size := rl.Vector3{
			X: 1 + rng.Float32()*4,
			Y: 1 + rng.Float32()*6,
			Z: 1 + rng.Float32()*4,
		}
		box := engine.NewBoxMesh(fmt.Sprintf("Box_%d", i), size)
		g := box.GetGameObject()
		g.Transform.Position = rl.Vector3{
			X: rng.Float32()*2*half - half,
			Y: size.Y / 2,
			Z: rng.Float32()*2*half - half,
		}
		g.Transform.Rotation.Y = rng.Float32() * 360
		g.Tags = []string{"box"}
		w.AddMesh(box)
	}
}

func (v *Viewer) spawnBall() {
	v.Ball = engine.NewSphereMesh("Ball", ballRadius, 16)
	g := v.Ball.GetGameObject()
	g.Transform.Position = rl.Vector3{Y: 10}
	v.Ball.Pickable = false

	v.mover = world.NewCollisionMover(rl.Vector3{X: ballRadius, Y: ballRadius, Z: ballRadius})
	v.mover.Gravity = 20
	g.AddComponent(v.mover)
	v.World.AddMesh(v.Ball)
	v.World.Scene.Start()
}

func (v *Viewer) rebuildOctree() error {
	start := time.Now()
	_, err := v.World.CreateOrUpdateSelectionOctree(int(v.capacity), int(v.maxDepth))
	if err != nil {
		return err
	}
	log.Infof("Viewer: octree capacity %d depth %d rebuilt in %v", int(v.capacity), int(v.maxDepth), time.Since(start))
	v.octreeDirty = false
	return nil
}

func (v *Viewer) aspect() float32 {
	return float32(rl.GetScreenWidth()) / float32(rl.GetScreenHeight())
}

func (v *Viewer) Update() {
	updateStart := time.Now()
	deltaTime := rl.GetFrameTime()

	if !v.panelHovered() {
		v.Camera.Update(deltaTime)
	}
	v.steerBall()
	v.World.Update(deltaTime)

	if rl.IsKeyPressed(rl.KeyF1) {
		v.DebugMode = !v.DebugMode
	}
	if rl.IsKeyPressed(rl.KeyF2) {
		v.FreezeView = !v.FreezeView
	}
	if rl.IsKeyPressed(rl.KeyO) {
		v.DrawOctree = !v.DrawOctree
	}
	if v.octreeDirty || rl.IsKeyPressed(rl.KeyR) {
		if err := v.rebuildOctree(); err != nil {
			log.Warnf("Viewer: %v", err)
		}
	}

	if rl.IsMouseButtonPressed(rl.MouseLeftButton) && !v.panelHovered() {
		mouse := rl.GetMousePosition()
		v.picked = v.World.PickScreen(mouse.X, mouse.Y,
			float32(rl.GetScreenWidth()), float32(rl.GetScreenHeight()),
			v.Camera.View(), v.Camera.Projection(v.aspect()), nil)
		if v.picked.Hit {
			log.Infof("Viewer: picked %s face %d at %.2f", v.picked.PickedMesh.Name(), v.picked.FaceID, v.picked.Distance)
		}
	}
	v.updateMs = float64(time.Since(updateStart).Microseconds()) / 1000.0

	selectStart := time.Now()
	if !v.FreezeView {
		v.frozen = v.Camera.Frustum(v.aspect())
	}
	clear(v.activeLookup)
	for _, m := range v.World.SelectActiveMeshes(v.frozen) {
		v.activeLookup[m] = true
	}
	v.selectMs = float64(time.Since(selectStart).Microseconds()) / 1000.0
}

// steerBall maps the arrow keys to the ball velocity relative to the camera.
func (v *Viewer) steerBall() {
	camPos := v.Camera.Position()
	forward := rl.Vector3Subtract(v.Camera.Target, camPos)
	forward.Y = 0
	forward = rl.Vector3Normalize(forward)
	right := rl.Vector3{X: -forward.Z, Z: forward.X}

	var dir rl.Vector3
	if rl.IsKeyDown(rl.KeyUp) {
		dir = rl.Vector3Add(dir, forward)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		dir = rl.Vector3Subtract(dir, forward)
	}
	if rl.IsKeyDown(rl.KeyRight) {
		dir = rl.Vector3Add(dir, right)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		dir = rl.Vector3Subtract(dir, right)
	}
	if dir != (rl.Vector3{}) {
		dir = rl.Vector3Scale(rl.Vector3Normalize(dir), ballSpeed)
	}
	v.mover.Velocity.X = dir.X
	v.mover.Velocity.Z = dir.Z

	if rl.IsKeyPressed(rl.KeySpace) && v.mover.Grounded {
		v.mover.Velocity.Y = jumpImpulse
	}
}

func (v *Viewer) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.NewColor(20, 20, 30, 255))

	drawStart := time.Now()
	rl.BeginMode3D(v.Camera.GetRaylibCamera())
	v.drawScene()
	rl.EndMode3D()
	v.drawMs = float64(time.Since(drawStart).Microseconds()) / 1000.0

	v.DrawUI()
	rl.EndDrawing()
}

func (v *Viewer) drawScene() {
	for _, mesh := range v.World.Meshes() {
		switch {
		case mesh == v.Ball:
			drawMesh(mesh, rl.Orange)
		case v.activeLookup[mesh]:
			color := rl.SkyBlue
			if v.picked.Hit && v.picked.PickedMesh == mesh {
				color = rl.Gold
			}
			if mesh.Name() == "Ground" {
				color = rl.DarkGray
			}
			drawMesh(mesh, color)
		case v.DebugMode:
			box := &mesh.Info.BoundingBox
			rl.DrawBoundingBox(rl.BoundingBox{Min: box.MinimumWorld, Max: box.MaximumWorld}, rl.Maroon)
		}
	}

	if v.DrawOctree {
		if tree := v.World.SelectionOctree(); tree != nil {
			tree.Walk(func(b *octreeBlock) {
				color := rl.NewColor(108, 99, 255, 60)
				if b.IsLeaf() && len(b.Handles()) > 0 {
					color = rl.NewColor(108, 99, 255, 160)
				}
				rl.DrawBoundingBox(rl.BoundingBox{Min: b.MinPoint, Max: b.MaxPoint}, color)
			})
		}
	}

	if v.picked.Hit {
		rl.DrawSphere(v.picked.PickedPoint, 0.2, rl.Yellow)
		rl.DrawLine3D(v.picked.Ray.Origin, v.picked.PickedPoint, rl.Yellow)
	}
}

// drawMesh draws the world-space triangles of mesh.
func drawMesh(mesh *engine.Mesh, color rl.Color) {
	world := mesh.WorldMatrix()
	step := 3
	if mesh.TriangleStrip {
		step = 1
	}
	for i := 0; i+2 < len(mesh.Indices); i += step {
		a := rl.Vector3Transform(mesh.Positions[mesh.Indices[i]], world)
		b := rl.Vector3Transform(mesh.Positions[mesh.Indices[i+1]], world)
		c := rl.Vector3Transform(mesh.Positions[mesh.Indices[i+2]], world)
		if mesh.TriangleStrip && (i%2 == 1) {
			b, c = c, b
		}
		rl.DrawTriangle3D(a, b, c, color)
	}
}
