// Package pq implements an indexed binary min-heap.
//
// Unlike a plain heap, every element learns its current position through
// the setIndex callback, so callers can re-order (Fix) or Remove an element
// in O(log n) after mutating the fields the ordering depends on.
package pq

import "container/heap"

// Queue is a min-heap of T ordered by less. Not safe for concurrent use;
// the owner serializes access.
type Queue[T any] struct {
	h items[T]
}

// New constructs an empty queue. setIndex is called with the element's
// new position every time it moves, and with -1 when it leaves the queue.
func New[T any](less func(a, b T) bool, setIndex func(x T, i int)) *Queue[T] {
	return &Queue[T]{h: items[T]{less: less, setIndex: setIndex}}
}

// Len returns the number of queued elements.
func (q *Queue[T]) Len() int { return len(q.h.xs) }

// Push inserts x in O(log n).
func (q *Queue[T]) Push(x T) { heap.Push(&q.h, x) }

// Peek returns the minimum element without removing it.
func (q *Queue[T]) Peek() (T, bool) {
	if len(q.h.xs) == 0 {
		var zero T
		return zero, false
	}
	return q.h.xs[0], true
}

// Pop removes and returns the minimum element.
func (q *Queue[T]) Pop() (T, bool) {
	if len(q.h.xs) == 0 {
		var zero T
		return zero, false
	}
	return heap.Pop(&q.h).(T), true
}

// Fix restores heap order after the element at position i changed.
// Out-of-range positions (e.g. -1 for a detached element) are ignored.
func (q *Queue[T]) Fix(i int) {
	if i < 0 || i >= len(q.h.xs) {
		return
	}
	heap.Fix(&q.h, i)
}

// Remove deletes the element at position i. Out-of-range positions are ignored.
func (q *Queue[T]) Remove(i int) (T, bool) {
	if i < 0 || i >= len(q.h.xs) {
		var zero T
		return zero, false
	}
	return heap.Remove(&q.h, i).(T), true
}

// Clear detaches every element and empties the queue.
func (q *Queue[T]) Clear() {
	for _, x := range q.h.xs {
		q.h.setIndex(x, -1)
	}
	clear(q.h.xs)
	q.h.xs = q.h.xs[:0]
}

// items adapts the slice to heap.Interface.
type items[T any] struct {
	xs       []T
	less     func(a, b T) bool
	setIndex func(x T, i int)
}

func (h *items[T]) Len() int           { return len(h.xs) }
func (h *items[T]) Less(i, j int) bool { return h.less(h.xs[i], h.xs[j]) }

func (h *items[T]) Swap(i, j int) {
	h.xs[i], h.xs[j] = h.xs[j], h.xs[i]
	h.setIndex(h.xs[i], i)
	h.setIndex(h.xs[j], j)
}

func (h *items[T]) Push(x any) {
	h.setIndex(x.(T), len(h.xs))
	h.xs = append(h.xs, x.(T))
}

func (h *items[T]) Pop() any {
	n := len(h.xs) - 1
	x := h.xs[n]
	var zero T
	h.xs[n] = zero // drop the reference for GC
	h.xs = h.xs[:n]
	h.setIndex(x, -1)
	return x
}
