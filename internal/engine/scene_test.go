package engine

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
)

type tickCounter struct {
	BaseComponent
	ticks int
}

func (c *tickCounter) Update(deltaTime float32) { c.ticks++ }

// buildShelf returns a scene holding a shelf mesh with a crate mesh on it
// and an empty marker object.
func buildShelf() (*Scene, *Mesh, *Mesh, *GameObject) {
	scene := NewScene("Shelf")
	shelf := NewBoxMesh("Shelf", rl.Vector3{X: 4, Y: 0.2, Z: 1})
	crate := NewBoxMesh("Crate", rl.Vector3{X: 1, Y: 1, Z: 1})
	marker := NewGameObject("Marker")
	marker.Tags = []string{"editor"}
	crate.GetGameObject().Tags = []string{"pickable", "editor"}

	shelf.GetGameObject().AddChild(crate.GetGameObject())
	scene.AddGameObject(shelf.GetGameObject())
	scene.AddGameObject(marker)
	scene.AddGameObject(crate.GetGameObject())
	return scene, shelf, crate, marker
}

func TestSceneLookups(t *testing.T) {
	scene, shelf, crate, marker := buildShelf()

	if marker.Scene != scene {
		t.Error("AddGameObject should set the Scene back-pointer")
	}
	if scene.FindByUID(crate.GetGameObject().UID) != crate.GetGameObject() {
		t.Error("FindByUID missed the crate")
	}
	if scene.FindByUID(0) != nil {
		t.Error("UID 0 is never assigned")
	}

	byName := map[string]*GameObject{
		"Shelf":  shelf.GetGameObject(),
		"Marker": marker,
		"Ghost":  nil,
	}
	for name, want := range byName {
		if got := scene.FindByName(name); got != want {
			t.Errorf("FindByName(%q): expected %v, got %v", name, want, got)
		}
	}

	if got := len(scene.FindByTag("editor")); got != 2 {
		t.Errorf("Expected 2 editor objects, got %d", got)
	}
	if got := scene.FindByTag("static"); got != nil {
		t.Errorf("Expected no static objects, got %v", got)
	}
}

func TestSceneMeshesInSceneOrder(t *testing.T) {
	scene, shelf, crate, _ := buildShelf()

	meshes := scene.Meshes()
	if len(meshes) != 2 || meshes[0] != shelf || meshes[1] != crate {
		t.Errorf("Expected [Shelf Crate], got %d meshes", len(meshes))
	}
}

func TestSceneRemoveSubtree(t *testing.T) {
	scene, shelf, crate, marker := buildShelf()

	scene.RemoveGameObject(shelf.GetGameObject())

	if len(scene.GameObjects) != 1 || scene.GameObjects[0] != marker {
		t.Fatalf("Expected only the marker to remain, got %d objects", len(scene.GameObjects))
	}
	for _, g := range []*GameObject{shelf.GetGameObject(), crate.GetGameObject()} {
		if scene.FindByUID(g.UID) != nil {
			t.Errorf("%s still indexed after removal", g.Name)
		}
		if g.Scene != nil {
			t.Errorf("%s still points at the scene", g.Name)
		}
	}
}

func TestSceneUpdateSkipsInactiveSubtrees(t *testing.T) {
	scene, shelf, crate, _ := buildShelf()
	counter := &tickCounter{}
	crate.GetGameObject().AddComponent(counter)

	scene.Update(0.016)
	shelf.GetGameObject().Active = false
	scene.Update(0.016)

	if counter.ticks != 1 {
		t.Errorf("Expected 1 tick while the parent was active, got %d", counter.ticks)
	}
}

func TestSceneZeroValue(t *testing.T) {
	var scene Scene
	obj := NewGameObject("Late")
	scene.AddGameObject(obj)

	if scene.FindByUID(obj.UID) != obj {
		t.Error("a zero Scene should index objects on first add")
	}
}
