package octree

import (
	"spatial3d/internal/culling"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Block is one cell of the octree. A block is either a leaf holding entry
// handles or an internal node with 8 children, never both.
type Block[T comparable] struct {
	MinPoint rl.Vector3
	MaxPoint rl.Vector3
	Capacity int
	Depth    int
	MaxDepth int
	Blocks   []*Block[T]

	handles []Handle
	pos     map[Handle]int
	corners [8]rl.Vector3
	tree    *Octree[T]
}

func newBlock[T comparable](tree *Octree[T], min, max rl.Vector3, capacity, depth, maxDepth int) *Block[T] {
	b := &Block[T]{
		MinPoint: min,
		MaxPoint: max,
		Capacity: capacity,
		Depth:    depth,
		MaxDepth: maxDepth,
		pos:      make(map[Handle]int),
		tree:     tree,
	}
	for i := range b.corners {
		c := min
		if i&1 != 0 {
			c.X = max.X
		}
		if i&2 != 0 {
			c.Y = max.Y
		}
		if i&4 != 0 {
			c.Z = max.Z
		}
		b.corners[i] = c
	}
	return b
}

// Handles returns the entries stored in a leaf. Internal blocks return nil.
func (b *Block[T]) Handles() []Handle {
	return b.handles
}

func (b *Block[T]) IsLeaf() bool {
	return len(b.Blocks) == 0
}

// AddEntry forwards to the children of an internal block. A leaf keeps the
// entry when the creation func accepts it and splits once it holds more than
// Capacity entries, unless it is at MaxDepth.
func (b *Block[T]) AddEntry(h Handle) {
	if len(b.Blocks) > 0 {
		for _, child := range b.Blocks {
			child.AddEntry(h)
		}
		return
	}

	if !b.tree.creationFunc(b.tree.Entry(h), b) {
		return
	}
	if _, ok := b.pos[h]; ok {
		return
	}
	b.pos[h] = len(b.handles)
	b.handles = append(b.handles, h)

	if len(b.handles) > b.Capacity && b.Depth < b.MaxDepth {
		b.createInnerBlocks()
	}
}

func (b *Block[T]) AddEntries(handles []Handle) {
	for _, h := range handles {
		b.AddEntry(h)
	}
}

// RemoveEntry drops h from this block and all its descendants.
func (b *Block[T]) RemoveEntry(h Handle) {
	if len(b.Blocks) > 0 {
		for _, child := range b.Blocks {
			child.RemoveEntry(h)
		}
		return
	}

	i, ok := b.pos[h]
	if !ok {
		return
	}
	last := len(b.handles) - 1
	if i != last {
		moved := b.handles[last]
		b.handles[i] = moved
		b.pos[moved] = i
	}
	b.handles = b.handles[:last]
	delete(b.pos, h)
}

// Select appends the entries of every leaf touched by the frustum.
func (b *Block[T]) Select(planes []culling.Plane, out *Selection[T], allowDuplicate bool) {
	if !culling.CornersInFrustum(&b.corners, planes) {
		return
	}
	if len(b.Blocks) > 0 {
		for _, child := range b.Blocks {
			child.Select(planes, out, allowDuplicate)
		}
		return
	}
	for _, h := range b.handles {
		out.add(h, b.tree.entries[h], allowDuplicate)
	}
}

// Intersects appends the entries of every leaf touched by the sphere.
func (b *Block[T]) Intersects(center rl.Vector3, radius float32, out *Selection[T], allowDuplicate bool) {
	if !culling.BoxIntersectsSphere(b.MinPoint, b.MaxPoint, center, radius) {
		return
	}
	if len(b.Blocks) > 0 {
		for _, child := range b.Blocks {
			child.Intersects(center, radius, out, allowDuplicate)
		}
		return
	}
	for _, h := range b.handles {
		out.add(h, b.tree.entries[h], allowDuplicate)
	}
}

// IntersectsRay appends the entries of every leaf crossed by the ray,
// without duplicates.
func (b *Block[T]) IntersectsRay(ray culling.Ray, out *Selection[T]) {
	if !ray.IntersectsBoxMinMax(b.MinPoint, b.MaxPoint, 0) {
		return
	}
	if len(b.Blocks) > 0 {
		for _, child := range b.Blocks {
			child.IntersectsRay(ray, out)
		}
		return
	}
	for _, h := range b.handles {
		out.add(h, b.tree.entries[h], false)
	}
}

func (b *Block[T]) createInnerBlocks() {
	b.Blocks = createBlocks(b.tree, b.MinPoint, b.MaxPoint, b.handles, b.Capacity, b.Depth, b.MaxDepth)
	b.handles = nil
	clear(b.pos)
}

// createBlocks splits [worldMin, worldMax] into 8 octants one level below
// depth and distributes handles among them.
func createBlocks[T comparable](tree *Octree[T], worldMin, worldMax rl.Vector3, handles []Handle, capacity, depth, maxDepth int) []*Block[T] {
	size := rl.Vector3Scale(rl.Vector3Subtract(worldMax, worldMin), 0.5)
	blocks := make([]*Block[T], 0, 8)
	for x := float32(0); x < 2; x++ {
		for y := float32(0); y < 2; y++ {
			for z := float32(0); z < 2; z++ {
				localMin := rl.Vector3Add(worldMin, rl.Vector3{X: size.X * x, Y: size.Y * y, Z: size.Z * z})
				localMax := rl.Vector3Add(worldMin, rl.Vector3{X: size.X * (x + 1), Y: size.Y * (y + 1), Z: size.Z * (z + 1)})
				block := newBlock(tree, localMin, localMax, capacity, depth+1, maxDepth)
				block.AddEntries(handles)
				blocks = append(blocks, block)
			}
		}
	}
	return blocks
}
