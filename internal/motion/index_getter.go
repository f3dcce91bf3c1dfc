package motion

import (
	"sync/atomic"
)

// IndexGetter hands out the items of a fixed list exactly once across any
// number of concurrent workers: a single-pass work dispenser backed by an
// atomic cursor. Once the list is exhausted every call returns false and
// workers terminate.
type IndexGetter[T any] struct {
	items  []T
	cursor atomic.Int64
}

// NewIndexGetter wraps the given list. The list must not be mutated while
// workers are draining it.
func NewIndexGetter[T any](items []T) *IndexGetter[T] {
	return &IndexGetter[T]{items: items}
}

// NextIndex claims the next item. The second return is false once the
// list is exhausted.
func (g *IndexGetter[T]) NextIndex() (T, bool) {
	i := g.cursor.Add(1) - 1
	if i >= int64(len(g.items)) {
		var zero T
		return zero, false
	}
	return g.items[i], true
}
