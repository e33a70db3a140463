// Compares brute-force, octree and GPU frustum selection at increasing
// object counts.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"time"

	"spatial3d/internal/compute"
	"spatial3d/internal/config"
	"spatial3d/internal/culling"
	"spatial3d/internal/engine"
	"spatial3d/internal/octree"

	rl "github.com/gen2brain/raylib-go/raylib"
	log "github.com/sirupsen/logrus"
)

var (
	configPath = flag.String("config", "spatial.toml", "TOML config file")
	iterations = flag.Int("n", 10, "iterations per measurement")
	useGPU     = flag.Bool("gpu", true, "include the WebGPU sphere culler")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Config: %v", err)
	}
	cfg.ApplyLogging()

	if *useGPU {
		info, err := compute.Initialize()
		if err != nil {
			log.Warnf("GPU disabled: %v", err)
			*useGPU = false
		} else {
			fmt.Printf("GPU: %s\n\n", info)
		}
	}

	testCounts := []int{100, 500, 1000, 2000, 5000, 10000, 20000}
	for _, count := range testCounts {
		benchSelection(cfg, count)
	}
}

type result struct {
	visible int
	elapsed time.Duration
}

func (r result) String() string {
	return fmt.Sprintf("%9v (%5d)", r.elapsed.Round(time.Microsecond), r.visible)
}

func benchSelection(cfg config.Config, count int) {
	meshes := randomField(count, 42)
	strategy := cfg.Strategy()

	// A camera near the edge looking across the field sees a fraction of it.
	spawnSize := float32(50.0) + float32(count)/100.0
	eye := rl.Vector3{X: -spawnSize / 2, Y: 10, Z: -spawnSize / 2}
	cam := rl.Camera3D{Position: eye, Target: rl.Vector3{}, Up: rl.Vector3{Y: 1}, Fovy: 45, Projection: rl.CameraPerspective}
	frustum := culling.FrustumFromCamera(cam, 16.0/9.0, 0.1, spawnSize)
	planes := frustum.Planes()

	brute := measure(*iterations, func() int {
		n := 0
		for _, m := range meshes {
			if m.Info.IsInFrustum(planes, strategy) {
				n++
			}
		}
		return n
	})

	tree, err := octree.New(octree.MeshCreationFunc, cfg.Octree.Capacity, cfg.Octree.MaxDepth)
	if err != nil {
		log.Fatalf("Octree: %v", err)
	}
	half := spawnSize / 2
	buildStart := time.Now()
	if err := tree.Update(rl.Vector3{X: -half - 5, Y: -5, Z: -half - 5}, rl.Vector3{X: half + 5, Y: 10, Z: half + 5}, meshes); err != nil {
		log.Fatalf("Octree: %v", err)
	}
	build := time.Since(buildStart)
	selection := octree.NewSelection[*engine.Mesh](count)
	withOctree := measure(*iterations, func() int {
		tree.Select(planes, selection, false)
		n := 0
		for _, m := range selection.Items() {
			if m.Info.IsInFrustum(planes, strategy) {
				n++
			}
		}
		return n
	})

	line := fmt.Sprintf("%5d objects: brute %s | octree %s build %v", count, brute, withOctree, build.Round(time.Microsecond))

	if *useGPU {
		spheres := make([]compute.Sphere, len(meshes))
		for i, m := range meshes {
			spheres[i] = compute.SphereFrom(&m.Info.BoundingSphere)
		}
		cpu := measure(*iterations, func() int {
			return countTrue(compute.CPUCull(spheres, planes))
		})

		culler, err := compute.NewSphereCuller(uint32(count))
		if err != nil {
			fmt.Printf("%s | GPU ERROR: %v\n", line, err)
			return
		}
		defer culler.Release()

		// Warm up
		culler.Cull(spheres, planes)
		var gpuErr error
		gpu := measure(*iterations, func() int {
			visible, err := culler.Cull(spheres, planes)
			if err != nil {
				gpuErr = err
				return 0
			}
			return countTrue(visible)
		})
		if gpuErr != nil {
			fmt.Printf("%s | GPU ERROR: %v\n", line, gpuErr)
			return
		}
		speedup := float64(cpu.elapsed) / float64(gpu.elapsed)
		line += fmt.Sprintf(" | spheres cpu %s gpu %s %.1fx", cpu, gpu, speedup)
	}
	fmt.Println(line)
}

func measure(iterations int, fn func() int) result {
	var visible int
	start := time.Now()
	for range iterations {
		visible = fn()
	}
	return result{visible: visible, elapsed: time.Since(start) / time.Duration(iterations)}
}

func countTrue(flags []bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}

// randomField spawns unit boxes in a square whose size grows with count to
// keep density reasonable.
func randomField(count int, seed int64) []*engine.Mesh {
	rng := rand.New(rand.NewSource(seed))
	spawnSize := float32(50.0) + float32(count)/100.0

	meshes := make([]*engine.Mesh, count)
	for i := range meshes {
		m := engine.NewBoxMesh(fmt.Sprintf("Box_%d", i), rl.Vector3{X: 1, Y: 1, Z: 1})
		m.GetGameObject().Transform.Position = rl.Vector3{
			X: rng.Float32()*spawnSize - spawnSize/2,
			Y: rng.Float32() * 5,
			Z: rng.Float32()*spawnSize - spawnSize/2,
		}
		m.ComputeWorldMatrix()
		meshes[i] = m
	}
	return meshes
}
