package voronoi

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0x0FACED/go-fortune-sweep/pkg/arena"
)

func drain(t *testing.T, q *eventQueue) []event {
	t.Helper()
	var out []event
	for q.len() > 0 {
		_, ev, err := q.popMin()
		require.NoError(t, err)
		out = append(out, ev)
	}
	return out
}

func TestEventQueueOrder(t *testing.T) {
	q := newEventQueue(0)
	q.push(event{kind: siteEvent, x: 3, y: 1, site: 0})
	q.push(event{kind: siteEvent, x: 1, y: 2, site: 1})
	q.push(event{kind: siteEvent, x: 0, y: 2, site: 2})
	q.push(event{kind: circleEvent, x: 0, y: 2, site: -1})
	q.push(event{kind: siteEvent, x: 9, y: -4, site: 3})

	assert.Equal(t, 5, q.len())

	var got []int
	var kinds []string
	for _, ev := range drain(t, q) {
		got = append(got, ev.site)
		kinds = append(kinds, ev.kind.String())
	}
	// equal (y, x) keeps insertion order: the site pops before the circle
	assert.Equal(t, []int{3, 0, 2, -1, 1}, got)
	assert.Equal(t, []string{"site", "site", "site", "circle", "site"}, kinds)
}

func TestEventQueueNearTies(t *testing.T) {
	q := newEventQueue(0)
	q.push(event{x: 0, y: 1 + epsilon/10, site: 0})
	q.push(event{x: 1, y: 1, site: 1})
	q.push(event{x: 0, y: 1, site: 2})
	q.push(event{x: 0, y: 1, site: 3})

	// a smaller y wins however close, then x, then insertion order
	assert.Equal(t, []int{2, 3, 1, 0}, drainSites(t, q))
}

func TestEventQueueChainWithinEpsilon(t *testing.T) {
	// neighbours are closer than epsilon in y while x runs backwards
	q := newEventQueue(0)
	for _, k := range rand.New(rand.NewSource(3)).Perm(8) {
		q.push(event{x: float64(10 - k), y: float64(k) * 0.9e-9, site: k})
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, drainSites(t, q))
}

func drainSites(t *testing.T, q *eventQueue) []int {
	t.Helper()
	var sites []int
	for _, ev := range drain(t, q) {
		sites = append(sites, ev.site)
	}
	return sites
}

func TestEventQueueEmpty(t *testing.T) {
	q := newEventQueue(0)
	_, _, err := q.popMin()
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestEventQueueDelete(t *testing.T) {
	q := newEventQueue(0)
	var hs []arena.Handle
	for i := 0; i < 6; i++ {
		hs = append(hs, q.push(event{x: 0, y: float64(i), site: i}))
	}

	require.NoError(t, q.delete(hs[0]))
	require.NoError(t, q.delete(hs[3]))
	assert.False(t, q.contains(hs[3]))
	assert.True(t, q.contains(hs[4]))

	err := q.delete(hs[3])
	assert.ErrorIs(t, err, arena.ErrInvalidHandle)

	var got []int
	for _, ev := range drain(t, q) {
		got = append(got, ev.site)
	}
	assert.Equal(t, []int{1, 2, 4, 5}, got)
}

func TestEventQueuePoppedHandleIsDead(t *testing.T) {
	q := newEventQueue(0)
	h := q.push(event{y: 1})
	popped, _, err := q.popMin()
	require.NoError(t, err)
	assert.Equal(t, h, popped)
	assert.False(t, q.contains(popped))

	// handles are never reissued
	h2 := q.push(event{y: 1})
	assert.NotEqual(t, h, h2)
}

func TestEventQueueRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	q := newEventQueue(0)

	type ref struct {
		h   arena.Handle
		ev  event
		seq int
	}
	live := map[arena.Handle]ref{}
	seq := 0

	for i := 0; i < 2000; i++ {
		if len(live) > 0 && rng.Intn(4) == 0 {
			for h := range live {
				require.NoError(t, q.delete(h))
				delete(live, h)
				break
			}
			continue
		}
		ev := event{x: float64(rng.Intn(10)), y: float64(rng.Intn(50)), site: i}
		h := q.push(ev)
		live[h] = ref{h: h, ev: ev, seq: seq}
		seq++
	}

	want := make([]ref, 0, len(live))
	for _, r := range live {
		want = append(want, r)
	}
	sort.Slice(want, func(i, j int) bool {
		a, b := want[i], want[j]
		if a.ev.y != b.ev.y {
			return a.ev.y < b.ev.y
		}
		if a.ev.x != b.ev.x {
			return a.ev.x < b.ev.x
		}
		return a.seq < b.seq
	})

	n := 0
	q.each(func(arena.Handle, event) { n++ })
	require.Equal(t, len(want), n)

	got := drain(t, q)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ev.site, got[i].site, "position %d", i)
	}
}
