package world

import (
	"encoding/json"
	"fmt"
	"os"

	"spatial3d/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
	log "github.com/sirupsen/logrus"
)

// --- JSON types ---

type SceneFile struct {
	Objects []ObjectDef `json:"objects"`
}

type ObjectDef struct {
	Name       string            `json:"name"`
	Tags       []string          `json:"tags,omitempty"`
	Parent     string            `json:"parent,omitempty"`
	Active     *bool             `json:"active,omitempty"`
	Position   [3]float32        `json:"position"`
	Rotation   [3]float32        `json:"rotation"`
	Scale      [3]float32        `json:"scale"`
	Components []json.RawMessage `json:"components"`
}

type componentHeader struct {
	Type string `json:"type"`
}

type meshDef struct {
	Type            string    `json:"type"`
	Mesh            string    `json:"mesh"`
	Size            []float32 `json:"size,omitempty"`
	Segments        int       `json:"segments,omitempty"`
	SubMeshes       int       `json:"subMeshes,omitempty"`
	SubMeshOctree   bool      `json:"subMeshOctree,omitempty"`
	Pickable        *bool     `json:"pickable,omitempty"`
	CheckCollisions *bool     `json:"checkCollisions,omitempty"`
	IsBlocked       bool      `json:"isBlocked,omitempty"`
	AlwaysActive    bool      `json:"alwaysActive,omitempty"`
	DoubleSided     bool      `json:"doubleSided,omitempty"`
	CollisionGroup  *int      `json:"collisionGroup,omitempty"`
	CollisionMask   *int      `json:"collisionMask,omitempty"`
}

type moverDef struct {
	Type      string     `json:"type"`
	Ellipsoid [3]float32 `json:"ellipsoid"`
	Velocity  [3]float32 `json:"velocity,omitempty"`
	Gravity   float32    `json:"gravity,omitempty"`
}

// --- Loading ---

// LoadScene reads a JSON scene, adds its meshes and rebuilds the selection
// octree when enabled in the config.
func (w *World) LoadScene(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read scene: %w", err)
	}
	return w.LoadSceneData(data)
}

// LoadSceneData builds every object of a JSON scene before adding any of
// them, so a scene that fails to load leaves the world untouched.
func (w *World) LoadSceneData(data []byte) error {
	var sf SceneFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return fmt.Errorf("parse scene: %w", err)
	}

	loaded, err := w.buildObjects(sf.Objects)
	if err != nil {
		return err
	}

	if w.meshDefs == nil {
		w.meshDefs = make(map[*engine.Mesh]meshDef)
	}
	for _, obj := range loaded {
		if obj.mesh == nil {
			w.Scene.AddGameObject(obj.object)
			continue
		}
		w.meshDefs[obj.mesh] = obj.def
		w.AddMesh(obj.mesh)
	}
	if w.Config.Octree.Enabled {
		if _, err := w.CreateOrUpdateSelectionOctree(w.Config.Octree.Capacity, w.Config.Octree.MaxDepth); err != nil {
			return err
		}
	}

	w.Scene.Start()
	log.Infof("Scene: loaded %d objects", len(sf.Objects))
	return nil
}

type loadedObject struct {
	object *engine.GameObject
	mesh   *engine.Mesh
	def    meshDef
}

// buildObjects turns the definitions into detached game objects, parented
// among themselves and with their submesh octrees built.
func (w *World) buildObjects(defs []ObjectDef) ([]loadedObject, error) {
	byName := make(map[string]*engine.GameObject, len(defs))
	loaded := make([]loadedObject, 0, len(defs))
	var submeshIndexed []*engine.Mesh

	for _, objDef := range defs {
		var obj loadedObject
		var others []engine.Component

		for _, raw := range objDef.Components {
			var header componentHeader
			if err := json.Unmarshal(raw, &header); err != nil {
				return nil, fmt.Errorf("object %s: %w", objDef.Name, err)
			}

			switch header.Type {
			case "Mesh":
				m, def, err := loadMesh(objDef.Name, raw)
				if err != nil {
					return nil, fmt.Errorf("object %s: %w", objDef.Name, err)
				}
				obj.mesh, obj.def = m, def
			case "CollisionMover":
				mover, err := loadMover(raw)
				if err != nil {
					return nil, fmt.Errorf("object %s: %w", objDef.Name, err)
				}
				others = append(others, mover)
			default:
				log.Warnf("Scene: object %s: unknown component %q", objDef.Name, header.Type)
			}
		}

		if obj.mesh != nil {
			obj.object = obj.mesh.GetGameObject()
			if obj.def.SubMeshOctree || (obj.def.SubMeshes > 0 && obj.def.SubMeshes >= w.Config.Octree.SubMeshThreshold) {
				submeshIndexed = append(submeshIndexed, obj.mesh)
			}
		} else {
			obj.object = engine.NewGameObject(objDef.Name)
		}
		for _, c := range others {
			obj.object.AddComponent(c)
		}
		applyObjectDef(obj.object, objDef)

		if objDef.Parent != "" {
			parent, ok := byName[objDef.Parent]
			if !ok {
				return nil, fmt.Errorf("object %s: unknown parent %q", objDef.Name, objDef.Parent)
			}
			parent.AddChild(obj.object)
		}
		byName[objDef.Name] = obj.object
		loaded = append(loaded, obj)
	}

	for _, mesh := range submeshIndexed {
		if _, err := w.CreateOrUpdateSubMeshesOctree(mesh, w.Config.Octree.Capacity, w.Config.Octree.MaxDepth); err != nil {
			return nil, err
		}
	}
	return loaded, nil
}

func applyObjectDef(g *engine.GameObject, objDef ObjectDef) {
	g.Tags = objDef.Tags
	g.Transform.Position = vec(objDef.Position)
	g.Transform.Rotation = vec(objDef.Rotation)

	// Default scale to 1 if zero
	if objDef.Scale == [3]float32{} {
		g.Transform.Scale = rl.Vector3{X: 1, Y: 1, Z: 1}
	} else {
		g.Transform.Scale = vec(objDef.Scale)
	}
	if objDef.Active != nil {
		g.Active = *objDef.Active
	}
}

func loadMesh(name string, raw json.RawMessage) (*engine.Mesh, meshDef, error) {
	var def meshDef
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, def, err
	}

	var mesh *engine.Mesh
	switch def.Mesh {
	case "box":
		if len(def.Size) < 3 {
			return nil, def, fmt.Errorf("box needs 3 sizes, got %d", len(def.Size))
		}
		mesh = engine.NewBoxMesh(name, rl.Vector3{X: def.Size[0], Y: def.Size[1], Z: def.Size[2]})
	case "plane":
		if len(def.Size) < 2 {
			return nil, def, fmt.Errorf("plane needs 2 sizes, got %d", len(def.Size))
		}
		mesh = engine.NewPlaneMesh(name, def.Size[0], def.Size[1])
	case "sphere":
		if len(def.Size) < 1 {
			return nil, def, fmt.Errorf("sphere needs a radius")
		}
		segments := def.Segments
		if segments == 0 {
			segments = 16
		}
		mesh = engine.NewSphereMesh(name, def.Size[0], segments)
	default:
		return nil, def, fmt.Errorf("unknown mesh %q", def.Mesh)
	}

	if def.SubMeshes > 1 {
		mesh.SubdivideSubMeshes(def.SubMeshes)
	}
	if def.Pickable != nil {
		mesh.Pickable = *def.Pickable
	}
	if def.CheckCollisions != nil {
		mesh.CheckCollisions = *def.CheckCollisions
	}
	mesh.IsBlocked = def.IsBlocked
	mesh.AlwaysSelectAsActive = def.AlwaysActive
	mesh.DoubleSided = def.DoubleSided
	if def.CollisionGroup != nil {
		mesh.CollisionGroup = *def.CollisionGroup
	}
	if def.CollisionMask != nil {
		mesh.CollisionMask = *def.CollisionMask
	}

	def.Type = "Mesh"
	return mesh, def, nil
}

func loadMover(raw json.RawMessage) (*CollisionMover, error) {
	var def moverDef
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, err
	}
	if def.Ellipsoid == [3]float32{} {
		def.Ellipsoid = [3]float32{0.5, 1, 0.5}
	}
	m := NewCollisionMover(vec(def.Ellipsoid))
	m.Velocity = vec(def.Velocity)
	m.Gravity = def.Gravity
	return m, nil
}

// --- Saving ---

// SaveScene writes the objects loaded from scene files back out with their
// current transforms. Meshes created in code are skipped.
func (w *World) SaveScene(path string) error {
	var sf SceneFile

	for _, g := range w.Scene.GameObjects {
		mesh := engine.GetComponent[*engine.Mesh](g)
		var components []json.RawMessage
		if mesh != nil {
			def, ok := w.meshDefs[mesh]
			if !ok {
				continue
			}
			raw, err := json.Marshal(def)
			if err != nil {
				return fmt.Errorf("marshal mesh %s: %w", g.Name, err)
			}
			components = append(components, raw)
		}
		if m := engine.GetComponent[*CollisionMover](g); m != nil {
			raw, err := json.Marshal(moverDef{
				Type:      "CollisionMover",
				Ellipsoid: arr(m.Ellipsoid),
				Velocity:  arr(m.Velocity),
				Gravity:   m.Gravity,
			})
			if err != nil {
				return fmt.Errorf("marshal mover %s: %w", g.Name, err)
			}
			components = append(components, raw)
		}

		objDef := ObjectDef{
			Name:       g.Name,
			Tags:       g.Tags,
			Position:   arr(g.Transform.Position),
			Rotation:   arr(g.Transform.Rotation),
			Scale:      arr(g.Transform.Scale),
			Components: components,
		}
		if g.Parent != nil {
			objDef.Parent = g.Parent.Name
		}
		if !g.Active {
			inactive := false
			objDef.Active = &inactive
		}
		sf.Objects = append(sf.Objects, objDef)
	}

	data, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal scene: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write scene: %w", err)
	}
	return nil
}

func vec(a [3]float32) rl.Vector3 {
	return rl.Vector3{X: a[0], Y: a[1], Z: a[2]}
}

func arr(v rl.Vector3) [3]float32 {
	return [3]float32{v.X, v.Y, v.Z}
}
