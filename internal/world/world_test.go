package world

import (
	"path/filepath"
	"strings"
	"testing"

	"spatial3d/internal/config"
	"spatial3d/internal/culling"
	"spatial3d/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func v3(x, y, z float32) rl.Vector3 {
	return rl.Vector3{X: x, Y: y, Z: z}
}

func newWorld() *World {
	return New(config.Default())
}

func addBox(w *World, name string, pos rl.Vector3) *engine.Mesh {
	m := engine.NewBoxMesh(name, v3(2, 2, 2))
	m.GetGameObject().Transform.Position = pos
	w.AddMesh(m)
	return m
}

func names(meshes []*engine.Mesh) []string {
	var out []string
	for _, m := range meshes {
		out = append(out, m.Name())
	}
	return out
}

func TestSelectActiveMeshes(t *testing.T) {
	for _, withOctree := range []bool{false, true} {
		w := newWorld()
		addBox(w, "center", v3(0, 0, 0))
		far := addBox(w, "far", v3(50, 0, 0))
		hidden := addBox(w, "hidden", v3(2, 0, 0))
		hidden.GetGameObject().Active = false
		addBox(w, "behind", v3(0, 0, -60))

		if withOctree {
			_, err := w.CreateOrUpdateSelectionOctree(1, 2)
			require.NoError(t, err)
		}

		evaluated := 0
		w.OnActiveMeshesEvaluated.AddListener(func(active []*engine.Mesh) {
			evaluated++
			assert.Len(t, active, w.Stats.Active)
		})

		frustum := culling.BoxFrustum(v3(-10, -10, -10), v3(10, 10, 10))
		active := w.SelectActiveMeshes(frustum)
		assert.Equal(t, []string{"center"}, names(active), "octree=%v", withOctree)
		assert.Equal(t, 1, w.Stats.Active)
		assert.False(t, w.Stats.GPU)
		if withOctree {
			assert.Less(t, w.Stats.Candidates, 4, "octree prunes far blocks")
		} else {
			assert.Equal(t, 4, w.Stats.Candidates)
		}

		far.AlwaysSelectAsActive = true
		if withOctree {
			// far sits in a pruned block; keep it as dynamic content
			w.SelectionOctree().RemoveEntry(far)
			w.SelectionOctree().AddDynamicEntry(far)
		}
		active = w.SelectActiveMeshes(frustum)
		assert.ElementsMatch(t, []string{"center", "far"}, names(active))
		assert.Equal(t, 2, evaluated)
	}
}

func TestSelectActiveMeshesStrategy(t *testing.T) {
	cfg := config.Default()
	cfg.Culling.Strategy = culling.BoundingSphereOnly.String()
	w := New(cfg)

	// box corner region: the sphere pokes into the frustum, the box does not
	m := engine.NewBoxMesh("corner", v3(2, 2, 2))
	m.GetGameObject().Transform.Position = v3(11.2, 11.2, 0)
	w.AddMesh(m)
	frustum := culling.BoxFrustum(v3(-10, -10, -10), v3(10, 10, 10))

	assert.Len(t, w.SelectActiveMeshes(frustum), 1)

	w.Config.Culling.Strategy = culling.Standard.String()
	assert.Len(t, w.SelectActiveMeshes(frustum), 0)
}

func TestPick(t *testing.T) {
	for _, withOctree := range []bool{false, true} {
		w := newWorld()
		front := addBox(w, "front", v3(0, 0, 0))
		back := addBox(w, "back", v3(0, 0, 5))
		addBox(w, "aside", v3(10, 0, 0))
		if withOctree {
			_, err := w.CreateOrUpdateSelectionOctree(1, 2)
			require.NoError(t, err)
		}

		ray := culling.NewRay(v3(0.1, 0.2, -10), v3(0, 0, 1), 100)

		info := w.Pick(ray, nil, false)
		require.True(t, info.Hit)
		assert.Equal(t, front, info.PickedMesh)
		assert.InDelta(t, 9, info.Distance, 1e-3)

		info = w.Pick(ray, func(m *engine.Mesh) bool { return m != front }, false)
		require.True(t, info.Hit)
		assert.Equal(t, back, info.PickedMesh)
		assert.InDelta(t, 14, info.Distance, 1e-3)

		assert.True(t, w.Pick(ray, nil, true).Hit)

		hits := w.MultiPick(ray, nil)
		require.Len(t, hits, 2)
		assert.Equal(t, front, hits[0].PickedMesh)
		assert.Equal(t, back, hits[1].PickedMesh)

		front.Pickable = false
		info = w.Pick(ray, nil, false)
		assert.Equal(t, back, info.PickedMesh)

		miss := w.Pick(culling.NewRay(v3(0, 10, -10), v3(0, 0, 1), 100), nil, false)
		assert.False(t, miss.Hit)
		assert.Nil(t, miss.PickedMesh)
	}
}

func TestPickScreen(t *testing.T) {
	w := newWorld()
	box := addBox(w, "box", v3(0, 0, 0))

	view := culling.LookAt(v3(0, 0, 10), v3(0, 0, 0), v3(0, 1, 0))
	proj := culling.Perspective(60*rl.Deg2rad, 1, 0.1, 100)

	info := w.PickScreen(410, 395, 800, 800, view, proj, nil)
	require.True(t, info.Hit)
	assert.Equal(t, box, info.PickedMesh)
	assert.InDelta(t, 1, info.PickedPoint.Z, 1e-2)

	assert.False(t, w.PickScreen(5, 5, 800, 800, view, proj, nil).Hit)
}

func TestIntersectingMeshes(t *testing.T) {
	w := newWorld()
	addBox(w, "a", v3(0, 0, 0))
	addBox(w, "b", v3(5, 0, 0))
	_, err := w.CreateOrUpdateSelectionOctree(1, 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, names(w.IntersectingMeshes(v3(0, 0, 0), 0.5)))
	assert.ElementsMatch(t, []string{"a", "b"}, names(w.IntersectingMeshes(v3(2.5, 0, 0), 1.6)))
	assert.Empty(t, w.IntersectingMeshes(v3(2.5, 0, 0), 1))
	assert.Empty(t, w.IntersectingMeshes(v3(0, 20, 0), 1))
}

type hitRecorder struct {
	engine.BaseComponent
	hits []*engine.Mesh
}

func (h *hitRecorder) OnCollide(other *engine.Mesh) {
	h.hits = append(h.hits, other)
}

func TestMoveWithCollisions(t *testing.T) {
	for _, withOctree := range []bool{false, true} {
		w := newWorld()
		ground := engine.NewPlaneMesh("ground", 20, 20)
		w.AddMesh(ground)

		ball := engine.NewSphereMesh("ball", 1, 8)
		ball.GetGameObject().Transform.Position = v3(0, 3, 0)
		recorder := &hitRecorder{}
		ball.GetGameObject().AddComponent(recorder)
		w.AddMesh(ball)

		if withOctree {
			_, err := w.CreateOrUpdateSelectionOctree(4, 2)
			require.NoError(t, err)
		}

		var events []*engine.Mesh
		ball.OnCollide.AddListener(func(other *engine.Mesh) { events = append(events, other) })

		pos, hit := w.MoveWithCollisions(ball, v3(1, 1, 1), v3(0, -5, 0))
		assert.InDelta(t, 1.01, pos.Y, 1e-3)
		assert.Equal(t, ground, hit)
		assert.InDelta(t, 1.01, ball.GetGameObject().Transform.Position.Y, 1e-3)
		assert.InDelta(t, 1.01, ball.Info.BoundingSphere.CenterWorld.Y, 1e-3)
		assert.Equal(t, []*engine.Mesh{ground}, events)
		assert.Equal(t, []*engine.Mesh{ground}, recorder.hits)

		pos, hit = w.MoveWithCollisions(ball, v3(1, 1, 1), v3(2, 0, 0))
		assert.Nil(t, hit)
		assert.InDelta(t, 2, pos.X, 1e-3)
	}
}

func TestMoveWithCollisionsRespectsGroups(t *testing.T) {
	w := newWorld()
	ground := engine.NewPlaneMesh("ground", 20, 20)
	ground.CollisionGroup = 2
	w.AddMesh(ground)

	ball := engine.NewSphereMesh("ball", 1, 8)
	ball.GetGameObject().Transform.Position = v3(0, 3, 0)
	ball.CollisionMask = 1
	w.AddMesh(ball)

	pos, hit := w.MoveWithCollisions(ball, v3(1, 1, 1), v3(0, -5, 0))
	assert.Nil(t, hit)
	assert.InDelta(t, -2, pos.Y, 1e-3)
}

func TestMovedMeshStaysInOctreeQueries(t *testing.T) {
	w := newWorld()
	w.AddMesh(engine.NewPlaneMesh("ground", 200, 200))
	addBox(w, "box", v3(80, 1, 25))
	addBox(w, "corner", v3(-80, 1, -80))
	ball := engine.NewSphereMesh("ball", 1, 8)
	ball.GetGameObject().Transform.Position = v3(-90, 5, -50)
	w.AddMesh(ball)

	tree, err := w.CreateOrUpdateSelectionOctree(1, 2)
	require.NoError(t, err)
	require.Empty(t, tree.DynamicContent(), "nothing has moved yet")

	pos, hit := w.MoveWithCollisions(ball, v3(1, 1, 1), v3(170, 0, 80))
	require.Nil(t, hit)
	assert.InDelta(t, 80, pos.X, 1e-3)
	assert.Equal(t, []*engine.Mesh{ball}, tree.DynamicContent())

	active := names(w.SelectActiveMeshes(culling.BoxFrustum(v3(75, 0, 20), v3(85, 10, 35))))
	assert.Contains(t, active, "ball")
	assert.Contains(t, active, "box")
	assert.NotContains(t, active, "corner")

	_, err = w.CreateOrUpdateSelectionOctree(1, 2)
	require.NoError(t, err)
	assert.Equal(t, []*engine.Mesh{ball}, tree.DynamicContent(), "a rebuild keeps movers dynamic")

	assert.Equal(t, []string{"ball"}, names(w.IntersectingMeshes(v3(80, 5, 30), 0.5)))
}

func TestCollisionMoverMeshesAreDynamic(t *testing.T) {
	w := newWorld()
	addBox(w, "crate", v3(0, 1, 0))
	ball := engine.NewSphereMesh("ball", 1, 8)
	ball.GetGameObject().AddComponent(NewCollisionMover(v3(1, 1, 1)))
	w.AddMesh(ball)

	tree, err := w.CreateOrUpdateSelectionOctree(4, 2)
	require.NoError(t, err)

	assert.Equal(t, []*engine.Mesh{ball}, tree.DynamicContent())
	assert.True(t, tree.Contains(ball))
}

func TestCollisionMoverUpdate(t *testing.T) {
	w := newWorld()
	w.AddMesh(engine.NewPlaneMesh("ground", 20, 20))

	ball := engine.NewSphereMesh("ball", 1, 8)
	ball.GetGameObject().Transform.Position = v3(0, 3, 0)
	mover := NewCollisionMover(v3(1, 1, 1))
	mover.Velocity = v3(0, -10, 0)
	ball.GetGameObject().AddComponent(mover)
	w.AddMesh(ball)
	w.Scene.Start()

	w.Update(0.5)

	assert.True(t, mover.Grounded)
	assert.Equal(t, float32(0), mover.Velocity.Y)
	assert.NotNil(t, mover.LastCollided)
	assert.InDelta(t, 1.01, ball.GetGameObject().Transform.Position.Y, 1e-3)
}

func TestCreateOrUpdateSubMeshesOctree(t *testing.T) {
	w := newWorld()
	ball := engine.NewSphereMesh("ball", 2, 16)
	ball.SubdivideSubMeshes(16)
	w.AddMesh(ball)

	index, err := w.CreateOrUpdateSubMeshesOctree(ball, 4, 2)
	require.NoError(t, err)
	assert.Same(t, index, ball.SubMeshIndex)
	assert.Equal(t, len(ball.SubMeshes), index.Octree().Len())

	again, err := w.CreateOrUpdateSubMeshesOctree(ball, 4, 2)
	require.NoError(t, err)
	assert.Same(t, index, again, "same parameters reuse the index")

	info := w.Pick(culling.NewRay(v3(0.1, 0.05, -10), v3(0, 0, 1), 100), nil, false)
	require.True(t, info.Hit)
	assert.InDelta(t, 8, info.Distance, 0.1)

	_, err = w.CreateOrUpdateSubMeshesOctree(ball, 0, 2)
	assert.Error(t, err)
}

func TestSelectionOctreeLifecycle(t *testing.T) {
	w := newWorld()
	tree, err := w.CreateOrUpdateSelectionOctree(8, 2)
	require.NoError(t, err, "empty world")
	assert.Equal(t, 0, tree.Len())

	box := addBox(w, "late", v3(3, 0, 0))
	assert.Equal(t, []*engine.Mesh{box}, tree.DynamicContent(), "added after the build")

	_, err = w.CreateOrUpdateSelectionOctree(8, 2)
	require.NoError(t, err)
	assert.Empty(t, tree.DynamicContent(), "absorbed by the rebuild")
	assert.True(t, tree.Contains(box))

	w.RemoveMesh(box)
	assert.False(t, tree.Contains(box))
	assert.Empty(t, w.Meshes())

	_, err = w.CreateOrUpdateSelectionOctree(0, 2)
	assert.Error(t, err)

	w.ResetSelectionOctree()
	assert.Nil(t, w.SelectionOctree())
}

const testScene = `{
  "objects": [
    {"name": "ground", "position": [0, 0, 0],
     "components": [{"type": "Mesh", "mesh": "plane", "size": [40, 40]}]},
    {"name": "crate", "tags": ["prop"], "position": [3, 1, 0], "scale": [1, 2, 1],
     "components": [{"type": "Mesh", "mesh": "box", "size": [2, 2, 2], "pickable": false, "collisionGroup": 4}]},
    {"name": "lid", "parent": "crate", "position": [0, 1, 0],
     "components": [{"type": "Mesh", "mesh": "box", "size": [1, 0.2, 1]}]},
    {"name": "ball", "position": [0, 5, 0],
     "components": [
       {"type": "Mesh", "mesh": "sphere", "size": [1], "segments": 12, "subMeshes": 8},
       {"type": "CollisionMover", "ellipsoid": [1, 1, 1], "gravity": 9.8}
     ]},
    {"name": "marker", "active": false, "components": []}
  ]
}`

func TestLoadSceneData(t *testing.T) {
	w := newWorld()
	require.NoError(t, w.LoadSceneData([]byte(testScene)))

	assert.Len(t, w.Scene.GameObjects, 5)
	assert.Len(t, w.Meshes(), 4)
	require.NotNil(t, w.SelectionOctree(), "octree enabled by default")

	crate := engine.GetComponent[*engine.Mesh](w.Scene.FindByName("crate"))
	require.NotNil(t, crate)
	assert.False(t, crate.Pickable)
	assert.Equal(t, 4, crate.CollisionGroup)
	assert.Equal(t, v3(1, 2, 1), crate.GetGameObject().Transform.Scale)
	assert.InDelta(t, 2, crate.Info.BoundingBox.MaximumWorld.Y-crate.Info.BoundingBox.CenterWorld.Y, 1e-4)

	lid := w.Scene.FindByName("lid")
	assert.Same(t, crate.GetGameObject(), lid.Parent)
	assert.InDelta(t, 3, lid.WorldPosition().X, 1e-4)

	ball := engine.GetComponent[*engine.Mesh](w.Scene.FindByName("ball"))
	assert.Len(t, ball.SubMeshes, 8)
	assert.NotNil(t, ball.SubMeshIndex, "subMeshes above the threshold get an octree")

	mover := engine.GetComponent[*CollisionMover](w.Scene.FindByName("ball"))
	require.NotNil(t, mover)
	assert.Equal(t, float32(9.8), mover.Gravity)
	assert.Equal(t, []*engine.Mesh{ball}, w.SelectionOctree().DynamicContent(), "movers stay dynamic")

	assert.False(t, w.Scene.FindByName("marker").Active)
	assert.Equal(t, []*engine.GameObject{w.Scene.FindByName("crate")}, w.Scene.FindByTag("prop"))
}

func TestLoadSceneErrors(t *testing.T) {
	tests := []struct {
		name  string
		scene string
	}{
		{"json", `{"objects": [`},
		{"mesh", `{"objects": [{"name": "a", "components": [{"type": "Mesh", "mesh": "torus"}]}]}`},
		{"size", `{"objects": [{"name": "a", "components": [{"type": "Mesh", "mesh": "box", "size": [1]}]}]}`},
		{"parent", `{"objects": [{"name": "a", "parent": "nobody", "components": []}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, newWorld().LoadSceneData([]byte(tt.scene)))
		})
	}

	assert.Error(t, newWorld().LoadScene(filepath.Join(t.TempDir(), "missing.json")))
}

func TestLoadSceneErrorLeavesWorldUntouched(t *testing.T) {
	w := newWorld()
	existing := addBox(w, "existing", v3(0, 0, 0))

	scene := `{"objects": [
    {"name": "ground", "components": [{"type": "Mesh", "mesh": "plane", "size": [40, 40]}]},
    {"name": "crate", "position": [3, 1, 0], "components": [{"type": "Mesh", "mesh": "box", "size": [2, 2, 2]}]},
    {"name": "lid", "parent": "crate", "components": [{"type": "Mesh", "mesh": "cone"}]}
  ]}`
	require.Error(t, w.LoadSceneData([]byte(scene)))

	assert.Equal(t, []*engine.Mesh{existing}, w.Meshes())
	assert.Nil(t, w.Scene.FindByName("ground"))
	assert.Nil(t, w.SelectionOctree())
	assert.Empty(t, w.meshDefs)

	orphan := strings.Replace(scene, `"mesh": "cone"`, `"mesh": "box", "size": [1, 1, 1]`, 1)
	orphan = strings.Replace(orphan, `"parent": "crate"`, `"parent": "box"`, 1)
	require.Error(t, w.LoadSceneData([]byte(orphan)))
	assert.Len(t, w.Scene.GameObjects, 1)
}

func TestSaveSceneRoundTrip(t *testing.T) {
	w := newWorld()
	require.NoError(t, w.LoadSceneData([]byte(testScene)))
	w.Scene.FindByName("crate").Transform.Position = v3(7, 1, 0)
	addBox(w, "code-made", v3(0, 0, 9))

	path := filepath.Join(t.TempDir(), "scene.json")
	require.NoError(t, w.SaveScene(path))

	reloaded := newWorld()
	require.NoError(t, reloaded.LoadScene(path))

	assert.Nil(t, reloaded.Scene.FindByName("code-made"))
	assert.Len(t, reloaded.Meshes(), 4)
	assert.Equal(t, v3(7, 1, 0), reloaded.Scene.FindByName("crate").Transform.Position)
	assert.Same(t, reloaded.Scene.FindByName("crate"), reloaded.Scene.FindByName("lid").Parent)
	assert.NotNil(t, engine.GetComponent[*CollisionMover](reloaded.Scene.FindByName("ball")))
	assert.False(t, reloaded.Scene.FindByName("marker").Active)
}
