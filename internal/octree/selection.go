package octree

// Selection is a reusable query output. Entries are deduplicated by handle
// with an epoch stamp, so Reset is O(1).
type Selection[T comparable] struct {
	items   []T
	handles []Handle
	seen    []uint32
	epoch   uint32
}

func NewSelection[T comparable](capacity int) *Selection[T] {
	return &Selection[T]{
		items:   make([]T, 0, capacity),
		handles: make([]Handle, 0, capacity),
		epoch:   1,
	}
}

func (s *Selection[T]) Reset() {
	s.items = s.items[:0]
	s.handles = s.handles[:0]
	s.epoch++
	if s.epoch == 0 {
		clear(s.seen)
		s.epoch = 1
	}
}

// Items is valid until the next query into this selection.
func (s *Selection[T]) Items() []T {
	return s.items
}

func (s *Selection[T]) Handles() []Handle {
	return s.handles
}

func (s *Selection[T]) Len() int {
	return len(s.items)
}

func (s *Selection[T]) add(h Handle, entry T, allowDuplicate bool) {
	if s.epoch == 0 {
		s.epoch = 1
	}
	if int(h) >= len(s.seen) {
		grown := make([]uint32, int(h)+1+len(s.seen))
		copy(grown, s.seen)
		s.seen = grown
	}
	if !allowDuplicate && s.seen[h] == s.epoch {
		return
	}
	s.seen[h] = s.epoch
	s.items = append(s.items, entry)
	s.handles = append(s.handles, h)
}
