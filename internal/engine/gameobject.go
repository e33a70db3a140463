package engine

import (
	"slices"
	"sync/atomic"

	"spatial3d/internal/culling"

	rl "github.com/gen2brain/raylib-go/raylib"
)

type Transform struct {
	Position rl.Vector3
	Rotation rl.Vector3 // Euler angles in degrees
	Scale    rl.Vector3
}

// Matrix builds the local matrix: scale, then rotation X, Y, Z, then translation.
func (t Transform) Matrix() rl.Matrix {
	scale := rl.MatrixScale(t.Scale.X, t.Scale.Y, t.Scale.Z)
	rot := culling.RotationMatrix(t.Rotation)
	trans := rl.MatrixTranslate(t.Position.X, t.Position.Y, t.Position.Z)
	return rl.MatrixMultiply(rl.MatrixMultiply(scale, rot), trans)
}

var nextUID atomic.Uint64

type GameObject struct {
	UID        uint64
	Name       string
	Tags       []string
	Transform  Transform
	Active     bool
	Scene      *Scene
	Parent     *GameObject
	Children   []*GameObject
	components []Component
	started    bool
}

// NewGameObject returns an active object at the origin with unit scale.
func NewGameObject(name string) *GameObject {
	return &GameObject{
		UID:        nextUID.Add(1),
		Name:       name,
		Active:     true,
		Transform:  Transform{Scale: rl.Vector3{X: 1, Y: 1, Z: 1}},
		components: []Component{},
	}
}

func (g *GameObject) AddComponent(c Component) {
	c.SetGameObject(g)
	g.components = append(g.components, c)
}

// GetComponent returns the first component of type T, or the zero value.
func GetComponent[T Component](g *GameObject) T {
	var zero T
	for _, c := range g.components {
		if typed, ok := c.(T); ok {
			return typed
		}
	}
	return zero
}

func (g *GameObject) Start() {
	if g.started {
		return
	}
	for _, c := range g.components {
		c.Start()
	}
	g.started = true
}

// Update ticks the components unless g or one of its parents is inactive.
func (g *GameObject) Update(deltaTime float32) {
	if !g.IsEnabled() {
		return
	}
	for _, c := range g.components {
		c.Update(deltaTime)
	}
}

func (g *GameObject) Components() []Component {
	return g.components
}

func (g *GameObject) HasTag(tag string) bool {
	return slices.Contains(g.Tags, tag)
}

// AddChild reparents child under g, detaching it from its previous parent.
func (g *GameObject) AddChild(child *GameObject) {
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	child.Parent = g
	g.Children = append(g.Children, child)
}

func (g *GameObject) RemoveChild(child *GameObject) {
	if i := slices.Index(g.Children, child); i >= 0 {
		g.Children = slices.Delete(g.Children, i, i+1)
		child.Parent = nil
	}
}

// IsEnabled reports whether the object and all its parents are active.
func (g *GameObject) IsEnabled() bool {
	for o := g; o != nil; o = o.Parent {
		if !o.Active {
			return false
		}
	}
	return true
}

// WorldMatrix composes the local matrix with every parent's.
func (g *GameObject) WorldMatrix() rl.Matrix {
	local := g.Transform.Matrix()
	if g.Parent == nil {
		return local
	}
	return rl.MatrixMultiply(local, g.Parent.WorldMatrix())
}

func (g *GameObject) WorldPosition() rl.Vector3 {
	return rl.Vector3Transform(rl.Vector3Zero(), g.WorldMatrix())
}
