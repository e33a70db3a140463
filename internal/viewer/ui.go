package viewer

import (
	"fmt"

	"spatial3d/internal/culling"
	"spatial3d/internal/engine"
	"spatial3d/internal/octree"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

type octreeBlock = octree.Block[*engine.Mesh]

var (
	colorBgDark    = rl.NewColor(22, 22, 30, 235)
	colorBgElement = rl.NewColor(34, 34, 46, 255)
	colorBgHover   = rl.NewColor(46, 46, 62, 255)
	colorAccent    = rl.NewColor(108, 99, 255, 255)
	colorText      = rl.NewColor(200, 200, 215, 255)
	colorTextDim   = rl.NewColor(130, 130, 150, 255)
)

var panelBounds = rl.Rectangle{X: 10, Y: 90, Width: 260, Height: 250}

var strategies = []culling.CullingStrategy{
	culling.Standard,
	culling.BoundingSphereOnly,
	culling.OptimisticInclusion,
	culling.OptimisticInclusionThenBSphereOnly,
}

func initRayguiStyle() {
	gui.SetStyle(gui.DEFAULT, gui.BACKGROUND_COLOR, gui.NewColorPropertyValue(colorBgDark))
	gui.SetStyle(gui.DEFAULT, gui.BASE_COLOR_NORMAL, gui.NewColorPropertyValue(colorBgElement))
	gui.SetStyle(gui.DEFAULT, gui.BASE_COLOR_FOCUSED, gui.NewColorPropertyValue(colorBgHover))
	gui.SetStyle(gui.DEFAULT, gui.BASE_COLOR_PRESSED, gui.NewColorPropertyValue(colorAccent))
	gui.SetStyle(gui.DEFAULT, gui.TEXT_COLOR_NORMAL, gui.NewColorPropertyValue(colorText))
	gui.SetStyle(gui.DEFAULT, gui.TEXT_COLOR_FOCUSED, gui.NewColorPropertyValue(rl.White))
	gui.SetStyle(gui.DEFAULT, gui.BORDER_COLOR_FOCUSED, gui.NewColorPropertyValue(colorAccent))
	gui.SetStyle(gui.DEFAULT, gui.TEXT_SIZE, 15)
}

func (v *Viewer) panelHovered() bool {
	return rl.CheckCollisionPointRec(rl.GetMousePosition(), panelBounds)
}

// nextStrategy returns the strategy after name in the cycle.
func nextStrategy(name string) culling.CullingStrategy {
	current, _ := culling.ParseCullingStrategy(name)
	for i, s := range strategies {
		if s == current {
			return strategies[(i+1)%len(strategies)]
		}
	}
	return culling.Standard
}

func (v *Viewer) DrawUI() {
	rl.DrawText("Right drag orbit, wheel zoom, WASD pan, arrows roll the ball, Space jump", 10, 10, 18, colorTextDim)
	rl.DrawText("Click to pick, F1 culled bounds, F2 freeze frustum, O octree, R rebuild", 10, 32, 18, colorTextDim)
	rl.DrawFPS(10, 58)

	rl.DrawRectangleRec(panelBounds, colorBgDark)
	rl.DrawRectangleLinesEx(panelBounds, 1, colorAccent)

	x := panelBounds.X + 10
	y := panelBounds.Y + 10
	row := func() rl.Rectangle {
		r := rl.Rectangle{X: x, Y: y, Width: 20, Height: 20}
		y += 28
		return r
	}

	cfg := &v.World.Config
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: 240, Height: 22}, "Strategy: "+cfg.Culling.Strategy) {
		cfg.Culling.Strategy = nextStrategy(cfg.Culling.Strategy).String()
	}
	y += 30

	v.DrawOctree = gui.CheckBox(row(), "Draw octree", v.DrawOctree)
	v.FreezeView = gui.CheckBox(row(), "Freeze frustum", v.FreezeView)
	v.DebugMode = gui.CheckBox(row(), "Show culled bounds", v.DebugMode)

	capBounds := rl.Rectangle{X: x + 70, Y: y, Width: 130, Height: 20}
	rl.DrawText("Capacity", int32(x), int32(y+3), 14, colorText)
	capacity := gui.Slider(capBounds, "", fmt.Sprintf("%d", int(v.capacity)), v.capacity, 1, 256)
	y += 28
	depthBounds := rl.Rectangle{X: x + 70, Y: y, Width: 130, Height: 20}
	rl.DrawText("Depth", int32(x), int32(y+3), 14, colorText)
	depth := gui.Slider(depthBounds, "", fmt.Sprintf("%d", int(v.maxDepth)), v.maxDepth, 0, 6)
	y += 28
	if int(capacity) != int(v.capacity) || int(depth) != int(v.maxDepth) {
		v.octreeDirty = true
	}
	v.capacity, v.maxDepth = capacity, depth

	stats := v.World.Stats
	gpu := "cpu"
	if stats.GPU {
		gpu = "gpu"
	}
	rl.DrawText(fmt.Sprintf("Candidates %d  Active %d (%s)", stats.Candidates, stats.Active, gpu), int32(x), int32(y), 14, rl.Lime)
	y += 20

	if v.DebugMode {
		rl.DrawText(fmt.Sprintf("Update %.2f  Select %.2f  Draw %.2f ms", v.updateMs, v.selectMs, v.drawMs), int32(x), int32(y), 14, rl.Green)
	}
	if v.picked.Hit {
		rl.DrawText(fmt.Sprintf("Picked %s (face %d, %.2f)", v.picked.PickedMesh.Name(), v.picked.FaceID, v.picked.Distance),
			10, int32(panelBounds.Y+panelBounds.Height+10), 16, rl.Yellow)
	}
}
