package engine

import "slices"

// Scene is a flat list of objects; parents and children are all listed.
type Scene struct {
	Name        string
	GameObjects []*GameObject
	World       WorldAccess

	uidMap map[uint64]*GameObject
}

func NewScene(name string) *Scene {
	return &Scene{Name: name, uidMap: map[uint64]*GameObject{}}
}

func (s *Scene) AddGameObject(g *GameObject) {
	if s.uidMap == nil {
		s.uidMap = make(map[uint64]*GameObject)
	}
	g.Scene = s
	s.GameObjects = append(s.GameObjects, g)
	s.uidMap[g.UID] = g
}

// RemoveGameObject removes g and, recursively, its children.
func (s *Scene) RemoveGameObject(g *GameObject) {
	for _, child := range g.Children {
		s.RemoveGameObject(child)
	}
	s.GameObjects = slices.DeleteFunc(s.GameObjects, func(o *GameObject) bool { return o == g })
	delete(s.uidMap, g.UID)
	g.Scene = nil
}

func (s *Scene) FindByUID(uid uint64) *GameObject {
	return s.uidMap[uid]
}

// FindByName returns the first object named name.
func (s *Scene) FindByName(name string) *GameObject {
	if i := slices.IndexFunc(s.GameObjects, func(g *GameObject) bool { return g.Name == name }); i >= 0 {
		return s.GameObjects[i]
	}
	return nil
}

func (s *Scene) FindByTag(tag string) []*GameObject {
	var result []*GameObject
	for _, g := range s.GameObjects {
		if g.HasTag(tag) {
			result = append(result, g)
		}
	}
	return result
}

// Meshes returns the Mesh component of every object that has one, in scene order.
func (s *Scene) Meshes() []*Mesh {
	var result []*Mesh
	for _, g := range s.GameObjects {
		if m := GetComponent[*Mesh](g); m != nil {
			result = append(result, m)
		}
	}
	return result
}

func (s *Scene) Start() {
	for _, g := range s.GameObjects {
		g.Start()
	}
}

func (s *Scene) Update(deltaTime float32) {
	for _, g := range s.GameObjects {
		g.Update(deltaTime)
	}
}
