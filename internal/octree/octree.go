// Package octree partitions bounded entries in space for frustum, sphere
// and ray queries.
package octree

import (
	"errors"
	"fmt"

	"spatial3d/internal/culling"

	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
	log "github.com/sirupsen/logrus"
)

var (
	ErrInvalidBounds   = errors.New("octree: world minimum exceeds maximum")
	ErrInvalidCapacity = errors.New("octree: block capacity must be positive")
	ErrInvalidDepth    = errors.New("octree: max depth must not be negative")
)

// Handle addresses an entry in the octree arena.
type Handle int32

// CreationFunc reports whether entry belongs in the leaf block.
type CreationFunc[T comparable] func(entry T, block *Block[T]) bool

// Octree owns its entries; blocks reference them by Handle. The root is not
// a block and holds no entries, only the 8 top-level Blocks.
type Octree[T comparable] struct {
	Blocks     []*Block[T]
	Capacity   int
	MaxDepth   int
	CubeBounds bool

	creationFunc CreationFunc[T]
	entries      []T
	live         []bool
	free         []Handle
	index        map[T]Handle
	dynamic      []Handle
	minPoint     rl.Vector3
	maxPoint     rl.Vector3
}

func New[T comparable](creationFunc CreationFunc[T], capacity, maxDepth int) (*Octree[T], error) {
	if creationFunc == nil {
		return nil, errors.New("octree: nil creation func")
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	if maxDepth < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDepth, maxDepth)
	}
	return &Octree[T]{
		Capacity:     capacity,
		MaxDepth:     maxDepth,
		creationFunc: creationFunc,
		index:        make(map[T]Handle),
	}, nil
}

// Update rebuilds the tree over [worldMin, worldMax] with entries. Dynamic
// entries survive the rebuild.
func (o *Octree[T]) Update(worldMin, worldMax rl.Vector3, entries []T) error {
	if worldMin.X > worldMax.X || worldMin.Y > worldMax.Y || worldMin.Z > worldMax.Z {
		return fmt.Errorf("%w: min %v max %v", ErrInvalidBounds, worldMin, worldMax)
	}
	if o.CubeBounds {
		worldMin, worldMax = cube(worldMin, worldMax)
	}

	dynamic := o.DynamicContent()
	o.entries = o.entries[:0]
	o.live = o.live[:0]
	o.free = o.free[:0]
	o.dynamic = o.dynamic[:0]
	clear(o.index)

	handles := make([]Handle, 0, len(entries))
	for _, e := range entries {
		if _, ok := o.index[e]; ok {
			continue
		}
		handles = append(handles, o.alloc(e))
	}
	for _, e := range dynamic {
		o.AddDynamicEntry(e)
	}

	o.minPoint, o.maxPoint = worldMin, worldMax
	o.Blocks = createBlocks(o, worldMin, worldMax, handles, o.Capacity, 0, o.MaxDepth)

	log.Debugf("Octree: rebuilt %d entries, %d blocks, bounds %v..%v", len(handles), o.countBlocks(), worldMin, worldMax)
	return nil
}

// Bounds returns the extents of the last Update.
func (o *Octree[T]) Bounds() (rl.Vector3, rl.Vector3) {
	return o.minPoint, o.maxPoint
}

// AddEntry inserts entry into the existing blocks. Adding an entry twice
// returns the original handle.
func (o *Octree[T]) AddEntry(entry T) Handle {
	if h, ok := o.index[entry]; ok {
		return h
	}
	h := o.alloc(entry)
	for _, b := range o.Blocks {
		b.AddEntry(h)
	}
	return h
}

// AddDynamicEntry registers an entry returned by every query regardless of
// its position.
func (o *Octree[T]) AddDynamicEntry(entry T) Handle {
	if h, ok := o.index[entry]; ok {
		return h
	}
	h := o.alloc(entry)
	o.dynamic = append(o.dynamic, h)
	return h
}

// RemoveEntry removes entry from every block. Its handle becomes invalid.
func (o *Octree[T]) RemoveEntry(entry T) {
	h, ok := o.index[entry]
	if !ok {
		return
	}
	for _, b := range o.Blocks {
		b.RemoveEntry(h)
	}
	for i, d := range o.dynamic {
		if d == h {
			o.dynamic = append(o.dynamic[:i], o.dynamic[i+1:]...)
			break
		}
	}
	delete(o.index, entry)
	var zero T
	o.entries[h] = zero
	o.live[h] = false
	o.free = append(o.free, h)
}

// Entry returns the entry behind h. It panics on a removed handle.
func (o *Octree[T]) Entry(h Handle) T {
	if int(h) >= len(o.live) || !o.live[h] {
		panic(fmt.Sprintf("octree: use of removed handle %d", h))
	}
	return o.entries[h]
}

func (o *Octree[T]) Contains(entry T) bool {
	_, ok := o.index[entry]
	return ok
}

func (o *Octree[T]) DynamicContent() []T {
	out := make([]T, 0, len(o.dynamic))
	for _, h := range o.dynamic {
		out = append(out, o.entries[h])
	}
	return out
}

// Len is the number of live entries, dynamic ones included.
func (o *Octree[T]) Len() int {
	return len(o.index)
}

// Select resets out and fills it with the entries of the leaves touched by
// the frustum, then the dynamic entries.
func (o *Octree[T]) Select(planes []culling.Plane, out *Selection[T], allowDuplicate bool) {
	out.Reset()
	for _, b := range o.Blocks {
		b.Select(planes, out, allowDuplicate)
	}
	o.addDynamic(out, allowDuplicate)
}

// Intersects resets out and fills it with the entries of the leaves touched
// by the sphere, then the dynamic entries.
func (o *Octree[T]) Intersects(center rl.Vector3, radius float32, out *Selection[T], allowDuplicate bool) {
	out.Reset()
	for _, b := range o.Blocks {
		b.Intersects(center, radius, out, allowDuplicate)
	}
	o.addDynamic(out, allowDuplicate)
}

// IntersectsRay resets out and fills it with the entries of the leaves
// crossed by the ray. Results never contain duplicates.
func (o *Octree[T]) IntersectsRay(ray culling.Ray, out *Selection[T]) {
	out.Reset()
	for _, b := range o.Blocks {
		b.IntersectsRay(ray, out)
	}
	o.addDynamic(out, false)
}

// Walk visits every block depth first.
func (o *Octree[T]) Walk(fn func(*Block[T])) {
	var visit func(*Block[T])
	visit = func(b *Block[T]) {
		fn(b)
		for _, child := range b.Blocks {
			visit(child)
		}
	}
	for _, b := range o.Blocks {
		visit(b)
	}
}

func (o *Octree[T]) addDynamic(out *Selection[T], allowDuplicate bool) {
	for _, h := range o.dynamic {
		out.add(h, o.entries[h], allowDuplicate)
	}
}

func (o *Octree[T]) alloc(entry T) Handle {
	var h Handle
	if n := len(o.free); n > 0 {
		h = o.free[n-1]
		o.free = o.free[:n-1]
		o.entries[h] = entry
		o.live[h] = true
	} else {
		h = Handle(len(o.entries))
		o.entries = append(o.entries, entry)
		o.live = append(o.live, true)
	}
	o.index[entry] = h
	return h
}

func (o *Octree[T]) countBlocks() int {
	n := 0
	o.Walk(func(*Block[T]) { n++ })
	return n
}

// cube grows the box to a cube around its center.
func cube(min, max rl.Vector3) (rl.Vector3, rl.Vector3) {
	size := rl.Vector3Subtract(max, min)
	half := math32.Max(size.X, math32.Max(size.Y, size.Z)) / 2
	center := rl.Vector3Scale(rl.Vector3Add(min, max), 0.5)
	ext := rl.Vector3{X: half, Y: half, Z: half}
	return rl.Vector3Subtract(center, ext), rl.Vector3Add(center, ext)
}
