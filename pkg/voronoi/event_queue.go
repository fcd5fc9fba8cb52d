package voronoi

import (
	"fmt"

	"github.com/0x0FACED/go-fortune-sweep/pkg/arena"
)

type eventKind uint8

const (
	siteEvent eventKind = iota
	circleEvent
)

func (k eventKind) String() string {
	if k == siteEvent {
		return "site"
	}
	return "circle"
}

// event is a pending sweep event. y is the sweep position at which it fires,
// x the tie-break. Site events carry the site index; circle events carry the
// arc that vanishes and the center of the circle, which becomes a vertex.
type event struct {
	kind   eventKind
	x, y   float64
	site   int
	arc    arena.Handle
	center Vertex
}

type queueEntry struct {
	ev  event
	seq uint64
	pos int
}

// eventQueue is a binary min-heap of arena handles. Every entry records its
// heap position so that delete by handle is logarithmic.
type eventQueue struct {
	entries *arena.Arena[queueEntry]
	heap    []arena.Handle
	seq     uint64
}

func newEventQueue(capacity int) *eventQueue {
	return &eventQueue{
		entries: arena.New[queueEntry](capacity),
		heap:    make([]arena.Handle, 0, capacity),
	}
}

// eventLess orders by y, then x, then insertion order. The comparisons are
// exact: a tolerance here would not be transitive and would break the heap.
func eventLess(a, b event, aseq, bseq uint64) bool {
	if a.y != b.y {
		return a.y < b.y
	}
	if a.x != b.x {
		return a.x < b.x
	}
	return aseq < bseq
}

func (q *eventQueue) len() int { return len(q.heap) }

func (q *eventQueue) contains(h arena.Handle) bool { return q.entries.Contains(h) }

func (q *eventQueue) push(ev event) arena.Handle {
	q.seq++
	h := q.entries.Insert(queueEntry{ev: ev, seq: q.seq, pos: len(q.heap)})
	q.heap = append(q.heap, h)
	q.up(len(q.heap) - 1)
	return h
}

// popMin removes the minimum entry. The returned handle is already dead; it
// is only good for comparing with back-references.
func (q *eventQueue) popMin() (arena.Handle, event, error) {
	if len(q.heap) == 0 {
		return arena.Nil, event{}, ErrEmpty
	}
	h := q.heap[0]
	ev := q.entries.MustGet(h).ev
	q.removeAt(0)
	return h, ev, q.entries.Remove(h)
}

// delete drops an arbitrary entry, used to cancel circle events.
func (q *eventQueue) delete(h arena.Handle) error {
	e, err := q.entries.Get(h)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	q.removeAt(e.pos)
	return q.entries.Remove(h)
}

func (q *eventQueue) removeAt(i int) {
	last := len(q.heap) - 1
	if i != last {
		q.swap(i, last)
	}
	q.heap = q.heap[:last]
	if i < len(q.heap) {
		if !q.down(i) {
			q.up(i)
		}
	}
}

func (q *eventQueue) less(i, j int) bool {
	a := q.entries.MustGet(q.heap[i])
	b := q.entries.MustGet(q.heap[j])
	return eventLess(a.ev, b.ev, a.seq, b.seq)
}

func (q *eventQueue) swap(i, j int) {
	q.heap[i], q.heap[j] = q.heap[j], q.heap[i]
	q.entries.MustGet(q.heap[i]).pos = i
	q.entries.MustGet(q.heap[j]).pos = j
}

func (q *eventQueue) up(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !q.less(i, parent) {
			break
		}
		q.swap(i, parent)
		i = parent
	}
}

// down reports whether the element moved.
func (q *eventQueue) down(i0 int) bool {
	i := i0
	n := len(q.heap)
	for {
		left := 2*i + 1
		if left >= n {
			break
		}
		smallest := left
		if right := left + 1; right < n && q.less(right, left) {
			smallest = right
		}
		if !q.less(smallest, i) {
			break
		}
		q.swap(i, smallest)
		i = smallest
	}
	return i > i0
}

// each visits the live entries in heap order (not sorted).
func (q *eventQueue) each(fn func(h arena.Handle, ev event)) {
	for _, h := range q.heap {
		fn(h, q.entries.MustGet(h).ev)
	}
}
