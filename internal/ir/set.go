package ir

// OrderedSet is a set that iterates in insertion order.
// The zero value is not usable; construct with NewOrderedSet.
type OrderedSet[T comparable] struct {
	items []T
	index map[T]int
}

// NewOrderedSet creates a set holding items (duplicates dropped).
func NewOrderedSet[T comparable](items ...T) *OrderedSet[T] {
	s := &OrderedSet[T]{index: make(map[T]int, len(items))}
	for _, item := range items {
		s.Add(item)
	}
	return s
}

// Add inserts item and reports whether it was new.
func (s *OrderedSet[T]) Add(item T) bool {
	if _, ok := s.index[item]; ok {
		return false
	}
	s.index[item] = len(s.items)
	s.items = append(s.items, item)
	return true
}

// Has reports membership.
func (s *OrderedSet[T]) Has(item T) bool {
	_, ok := s.index[item]
	return ok
}

// Index returns the insertion position of item, or -1.
func (s *OrderedSet[T]) Index(item T) int {
	if i, ok := s.index[item]; ok {
		return i
	}
	return -1
}

// Len returns the number of items.
func (s *OrderedSet[T]) Len() int {
	return len(s.items)
}

// Items returns a copy of the items in insertion order.
func (s *OrderedSet[T]) Items() []T {
	return append([]T(nil), s.items...)
}
