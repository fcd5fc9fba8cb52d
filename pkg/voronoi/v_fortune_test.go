package voronoi

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/0x0FACED/go-fortune-sweep/pkg/arena"
	"github.com/0x0FACED/go-fortune-sweep/pkg/logger"
)

func sitesOf(points []Vertex) []Site {
	sites := make([]Site, len(points))
	for i, p := range points {
		sites[i] = Site{ID: i, X: p.X, Y: p.Y}
	}
	return sites
}

func randomPoints(rng *rand.Rand, n int, size float64) []Vertex {
	points := make([]Vertex, n)
	for i := range points {
		points[i] = Vertex{rng.Float64() * size, rng.Float64() * size}
	}
	return points
}

func gridPoints(cols, rows int, step float64) []Vertex {
	var points []Vertex
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			points = append(points, Vertex{float64(x) * step, float64(y) * step})
		}
	}
	return points
}

// checkInvariants recomputes everything the sweep relies on from scratch.
func (e *Engine) checkInvariants() error {
	if err := e.beachline.check(); err != nil {
		return err
	}

	var err error
	prev := arena.Nil
	lastX := math.Inf(-1)
	e.beachline.walk(func(h arena.Handle, arc *beachSection) bool {
		if arc.circleEvent != arena.Nil && !e.events.contains(arc.circleEvent) {
			err = fmt.Errorf("arc %d points at dead event %d", h, arc.circleEvent)
			return false
		}
		if prev != arena.Nil {
			x := breakpointX(e.siteOf(prev), e.siteOf(h), e.sweepY)
			if x < lastX-1e-6*math.Max(1, math.Abs(x)) {
				err = fmt.Errorf("breakpoint %v left of %v at y=%v", x, lastX, e.sweepY)
				return false
			}
			lastX = x
		}
		prev = h
		return true
	})
	if err != nil {
		return err
	}

	owners := map[arena.Handle]arena.Handle{}
	e.events.each(func(h arena.Handle, ev event) {
		if err != nil || ev.kind != circleEvent {
			return
		}
		if !e.beachline.contains(ev.arc) {
			err = fmt.Errorf("circle event %d references removed arc %d", h, ev.arc)
			return
		}
		if other, ok := owners[ev.arc]; ok {
			err = fmt.Errorf("events %d and %d share arc %d", other, h, ev.arc)
			return
		}
		owners[ev.arc] = h
		if got := e.beachline.value(ev.arc).circleEvent; got != h {
			err = fmt.Errorf("arc %d points at %d, queue has %d", ev.arc, got, h)
		}
	})
	return err
}

// runChecked steps e to the end, checking invariants after every event.
func runChecked(t *testing.T, e *Engine) *Diagram {
	t.Helper()
	lastY := math.Inf(-1)
	for {
		more, err := e.Step()
		require.NoError(t, err)
		if !more {
			break
		}
		require.GreaterOrEqual(t, e.SweepY(), lastY)
		lastY = e.SweepY()
		require.NoError(t, e.checkInvariants(), "after event at y=%v", e.SweepY())
	}
	d, err := e.Run()
	require.NoError(t, err)
	require.Equal(t, StateDone, e.State())
	return d
}

func newChecked(t *testing.T, points []Vertex, opts ...Option) (*Engine, *Diagram) {
	t.Helper()
	e, err := NewEngine(sitesOf(points), opts...)
	require.NoError(t, err)
	return e, runChecked(t, e)
}

func assertVertex(t *testing.T, want, got Vertex) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9)
	assert.InDelta(t, want.Y, got.Y, 1e-9)
}

func TestEngineTriangle(t *testing.T) {
	_, d := newChecked(t, []Vertex{{0, 0}, {2, 0}, {1, 2}})
	require.Len(t, d.Edges, 3)

	vertex := Vertex{1, 0.75}
	for _, edge := range d.Edges {
		assert.True(t, edge.IsRay())
		if edge.Start != NoVertex {
			assertVertex(t, vertex, edge.Start)
		} else {
			assertVertex(t, vertex, edge.End)
		}
		assert.InDelta(t, 1, math.Hypot(edge.Direction.X, edge.Direction.Y), 1e-12)
	}

	// the bisector of the base ends at the vertex coming from below
	base := d.Edges[0]
	assert.Equal(t, [2]int{0, 1}, [2]int{base.LeftSite.ID, base.RightSite.ID})
	assert.Equal(t, NoVertex, base.Start)
	assertVertex(t, Vertex{0, 1}, base.Direction)
}

func TestEngineTwoSites(t *testing.T) {
	_, d := newChecked(t, []Vertex{{0, 0}, {4, 0}})
	require.Len(t, d.Edges, 1)

	edge := d.Edges[0]
	assert.Equal(t, NoVertex, edge.Start)
	assert.Equal(t, NoVertex, edge.End)
	assert.Equal(t, 2.0, edge.Origin.X)
	assert.Equal(t, 0.0, edge.Direction.X)
	assert.Equal(t, 1.0, math.Abs(edge.Direction.Y))
}

func TestEngineCollinear(t *testing.T) {
	e, d := newChecked(t, []Vertex{{2, 0}, {0, 0}, {1, 0}})
	require.Len(t, d.Edges, 2)

	var xs []float64
	for _, edge := range d.Edges {
		assert.True(t, edge.IsRay())
		assert.Equal(t, 0.0, edge.Direction.X)
		xs = append(xs, edge.Origin.X)
	}
	sort.Float64s(xs)
	assert.Equal(t, []float64{0.5, 1.5}, xs)
	assert.Zero(t, e.Stats().CirclesScheduled)
}

func TestEngineCollinearVertical(t *testing.T) {
	e, d := newChecked(t, []Vertex{{0, 0}, {0, 1}, {0, 2}})
	require.Len(t, d.Edges, 2)
	for _, edge := range d.Edges {
		assert.Equal(t, NoVertex, edge.Start)
		assert.Equal(t, NoVertex, edge.End)
		assert.Equal(t, 0.0, edge.Direction.Y)
	}
	assert.Zero(t, e.Stats().CirclesScheduled)
}

func TestEngineSiteOnBreakpoint(t *testing.T) {
	_, d := newChecked(t, []Vertex{{0, 0}, {2, 0}, {1, 5}})
	require.Len(t, d.Edges, 3)

	vertex := Vertex{1, 2.4}
	assertVertex(t, vertex, d.Edges[0].End)
	assert.Equal(t, NoVertex, d.Edges[0].Start)
	for _, edge := range d.Edges[1:] {
		assertVertex(t, vertex, edge.Start)
		assert.Equal(t, NoVertex, edge.End)
	}
}

func TestEngineSquare(t *testing.T) {
	e, d := newChecked(t, []Vertex{{0, 0}, {1, 0}, {0, 1}, {1, 1}})

	// four rays from the center; the zero-length edge of the
	// cocircular quadruple is dropped
	require.Len(t, d.Edges, 4)
	for _, edge := range d.Edges {
		require.True(t, edge.IsRay())
		if edge.Start != NoVertex {
			assertVertex(t, Vertex{0.5, 0.5}, edge.Start)
		} else {
			assertVertex(t, Vertex{0.5, 0.5}, edge.End)
		}
	}
	assert.Equal(t, 2, e.Stats().CircleEvents)
	assert.Equal(t, 1, e.Stats().CirclesCancelled)
}

func TestEngineSingleSite(t *testing.T) {
	_, d := newChecked(t, []Vertex{{3, 4}})
	assert.Empty(t, d.Edges)
	require.Len(t, d.Cells, 1)
	assert.Empty(t, d.Cells[0].Halfedges)
}

func TestEngineNoSites(t *testing.T) {
	_, d := newChecked(t, nil)
	assert.Empty(t, d.Edges)
	assert.Empty(t, d.Cells)
}

func TestEngineDuplicateSite(t *testing.T) {
	e, err := NewEngine(sitesOf([]Vertex{{1, 1}, {1, 1}}))
	assert.ErrorIs(t, err, ErrDuplicateSite)
	assert.Nil(t, e)

	d, err := CreateDiagram([]Vertex{{1, 1}, {5, 2}, {1, 1 + epsilon/4}})
	assert.ErrorIs(t, err, ErrDuplicateSite)
	assert.Nil(t, d)

	// the pair is split by a third site in (y, x) order
	_, err = CreateDiagram([]Vertex{{5, 0}, {7, 0.3e-9}, {5, 0.5e-9}})
	assert.ErrorIs(t, err, ErrDuplicateSite)
}

func TestEngineNearTieChain(t *testing.T) {
	// consecutive sites are closer than epsilon in y, x decreasing
	var points []Vertex
	for k := 0; k < 8; k++ {
		points = append(points, Vertex{float64(10 - k), float64(k) * 0.9e-9})
	}
	points = append(points, Vertex{3.3, 5})

	e, err := NewEngine(sitesOf(points))
	require.NoError(t, err)
	_, err = e.Run()
	require.NoError(t, err)
	assert.Equal(t, StateDone, e.State())
	assert.Equal(t, len(points), e.Stats().SiteEvents)
}

func TestEngineTinyScale(t *testing.T) {
	for seed := int64(1); seed <= 200; seed++ {
		rng := rand.New(rand.NewSource(seed))
		points := randomPoints(rng, 40, 1e-6)

		_, err := CreateDiagram(points)
		if errors.Is(err, ErrDuplicateSite) {
			continue
		}
		require.NoError(t, err, "seed %d", seed)
	}
}

func TestEngineValidationReportsAll(t *testing.T) {
	sites := []Site{
		{ID: 1, X: 0, Y: 0},
		{ID: 2, X: math.NaN(), Y: 0},
		{ID: 3, X: 1, Y: math.Inf(1)},
		{ID: 1, X: 5, Y: 5},
		{ID: 4, X: 0, Y: 0},
	}
	_, err := NewEngine(sites)
	require.Error(t, err)

	errs := multierr.Errors(err)
	assert.Len(t, errs, 4)
	assert.ErrorIs(t, err, ErrNonFiniteSite)
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.ErrorIs(t, err, ErrDuplicateSite)
}

func TestEngineStates(t *testing.T) {
	e, err := NewEngine(sitesOf([]Vertex{{0, 0}, {4, 1}, {2, 3}}))
	require.NoError(t, err)
	assert.Equal(t, StateInitializing, e.State())
	assert.Nil(t, e.Diagram())

	more, err := e.Step()
	require.NoError(t, err)
	assert.True(t, more)
	assert.Equal(t, StateRunning, e.State())
	assert.Equal(t, 0.0, e.SweepY())

	d, err := e.Run()
	require.NoError(t, err)
	assert.Equal(t, StateDone, e.State())
	assert.Same(t, d, e.Diagram())
	assert.Equal(t, 3, e.Stats().SiteEvents)

	again, err := e.Run()
	require.NoError(t, err)
	assert.Same(t, d, again)

	_, err = e.Step()
	assert.ErrorIs(t, err, ErrEngineState)
	assert.Equal(t, "done", e.State().String())
}

func TestEngineNonMonotonicSweepFails(t *testing.T) {
	e, err := NewEngine(sitesOf([]Vertex{{0, 0}, {4, 1}, {2, 3}}))
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err = e.Step()
		require.NoError(t, err)
	}

	// an event behind the sweep line can only come from a broken queue
	e.events.push(event{kind: siteEvent, x: 0, y: -10, site: 0})

	_, err = e.Step()
	assert.ErrorIs(t, err, ErrInvariant)
	assert.ErrorIs(t, err, ErrNonMonotonicSweep)
	assert.Equal(t, StateFailed, e.State())

	_, runErr := e.Run()
	assert.Equal(t, err, runErr)
	_, err = e.Step()
	assert.ErrorIs(t, err, ErrEngineState)
}

func TestEngineDanglingHandleFails(t *testing.T) {
	e, err := NewEngine(sitesOf([]Vertex{{0, 0}, {4, 1}, {2, 3}}))
	require.NoError(t, err)
	_, err = e.Step()
	require.NoError(t, err)

	// a circle event for an arc handle that was never issued
	e.events.push(event{kind: circleEvent, y: 0.5, arc: 99})
	more, err := e.Step()
	require.NoError(t, err)
	assert.True(t, more)
	assert.Equal(t, 1, e.Stats().StaleEvents)

	arc := e.beachline.first()
	e.beachline.value(arc).circleEvent = arena.Handle(55)
	_, err = e.Step()
	assert.ErrorIs(t, err, ErrInvariant)
	assert.ErrorIs(t, err, arena.ErrInvalidHandle)
	assert.Equal(t, StateFailed, e.State())
}

func TestEngineRandomInvariants(t *testing.T) {
	for seed := int64(1); seed <= 25; seed++ {
		rng := rand.New(rand.NewSource(seed))
		n := 3 + rng.Intn(150)
		points := randomPoints(rng, n, 1000)

		_, d := newChecked(t, points)
		assert.LessOrEqual(t, len(d.Edges), 3*n-6, "seed %d", seed)
		for _, edge := range d.Edges {
			assert.NotEqual(t, edge.LeftSite.ID, edge.RightSite.ID)
		}
	}
}

func TestEngineGridInvariants(t *testing.T) {
	for _, size := range [][2]int{{2, 2}, {3, 3}, {5, 4}, {1, 6}, {6, 1}} {
		points := gridPoints(size[0], size[1], 10)
		n := len(points)
		_, d := newChecked(t, points)
		if n >= 3 {
			assert.LessOrEqual(t, len(d.Edges), 3*n-6, "grid %v", size)
		}
	}
}

func TestEngineVerticesEquidistant(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	points := randomPoints(rng, 80, 100)
	_, d := newChecked(t, points)

	for _, edge := range d.Edges {
		for _, v := range []Vertex{edge.Start, edge.End} {
			if v == NoVertex {
				continue
			}
			dl := math.Hypot(v.X-edge.LeftSite.X, v.Y-edge.LeftSite.Y)
			dr := math.Hypot(v.X-edge.RightSite.X, v.Y-edge.RightSite.Y)
			require.InDelta(t, dl, dr, 1e-6)

			// no site is closer than the two the edge separates
			for _, p := range points {
				require.GreaterOrEqual(t, math.Hypot(v.X-p.X, v.Y-p.Y), dl-1e-6)
			}
		}
	}
}

type edgeKey [4]float64

func keyOf(edge *Edge) edgeKey {
	a, b := edge.LeftSite.Vertex(), edge.RightSite.Vertex()
	if b.X < a.X || (b.X == a.X && b.Y < a.Y) {
		a, b = b, a
	}
	return edgeKey{a.X, a.Y, b.X, b.Y}
}

func endsOf(edge *Edge) []Vertex {
	var ends []Vertex
	for _, v := range []Vertex{edge.Start, edge.End} {
		if v != NoVertex {
			ends = append(ends, v)
		}
	}
	sort.Slice(ends, func(i, j int) bool {
		if ends[i].X != ends[j].X {
			return ends[i].X < ends[j].X
		}
		return ends[i].Y < ends[j].Y
	})
	return ends
}

func TestEngineOrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	points := randomPoints(rng, 60, 100)
	want, err := CreateDiagram(points)
	require.NoError(t, err)

	index := map[edgeKey]*Edge{}
	for _, edge := range want.Edges {
		index[keyOf(edge)] = edge
	}

	for round := 0; round < 5; round++ {
		shuffled := append([]Vertex(nil), points...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got, err := CreateDiagram(shuffled)
		require.NoError(t, err)
		require.Len(t, got.Edges, len(want.Edges))

		for _, edge := range got.Edges {
			ref, ok := index[keyOf(edge)]
			require.True(t, ok, "unexpected edge %v", keyOf(edge))
			we, ge := endsOf(ref), endsOf(edge)
			require.Len(t, ge, len(we))
			for i := range we {
				assertVertex(t, we[i], ge[i])
			}
		}
	}
}

func TestEngineBoundingBox(t *testing.T) {
	bbox := NewBoundingBox(0, 100, 0, 100)
	rng := rand.New(rand.NewSource(9))
	points := randomPoints(rng, 50, 100)

	_, d := newChecked(t, points, WithBoundingBox(bbox))
	require.NotEmpty(t, d.Edges)
	for _, edge := range d.Edges {
		require.True(t, edge.Resolved())
		assert.True(t, bbox.Contains(edge.Start), "start %v", edge.Start)
		assert.True(t, bbox.Contains(edge.End), "end %v", edge.End)
	}
}

func TestEngineBoundingBoxTriangle(t *testing.T) {
	d, err := CreateDiagram([]Vertex{{0, 0}, {2, 0}, {1, 2}}, WithBoundingBox(NewBoundingBox(-10, 10, -10, 10)))
	require.NoError(t, err)
	require.Len(t, d.Edges, 3)

	base := d.Edges[0]
	assertVertex(t, Vertex{1, -10}, base.Start)
	assertVertex(t, Vertex{1, 0.75}, base.End)

	// an edge entirely outside the box is dropped
	d, err = CreateDiagram([]Vertex{{0, 0}, {4, 0}}, WithBoundingBox(NewBoundingBox(5, 10, 5, 10)))
	require.NoError(t, err)
	assert.Empty(t, d.Edges)
}

func TestEngineCells(t *testing.T) {
	d, err := CreateDiagram([]Vertex{{0, 0}, {2, 0}, {1, 2}})
	require.NoError(t, err)
	require.Len(t, d.Cells, 3)

	for i, cell := range d.Cells {
		assert.Equal(t, i, cell.Site.ID)
		require.Len(t, cell.Halfedges, 2)
		assert.GreaterOrEqual(t, cell.Halfedges[0].Angle, cell.Halfedges[1].Angle)
		for _, he := range cell.Halfedges {
			assert.Equal(t, cell.Site, he.Site)
		}
	}

	// site 0 sees site 2 up-right first, then site 1 to the right
	he := d.Cells[0].Halfedges
	assert.Equal(t, 2, he[0].Edge.RightSite.ID+he[0].Edge.LeftSite.ID)
	assert.Equal(t, Vertex{1, 0.75}, roundVertex(he[1].EndPoint()))
	assert.Equal(t, NoVertex, he[1].StartPoint())
}

func roundVertex(v Vertex) Vertex {
	return Vertex{math.Round(v.X*1e6) / 1e6, math.Round(v.Y*1e6) / 1e6}
}

func TestEngineLogs(t *testing.T) {
	log := logger.New()
	_, err := CreateDiagram([]Vertex{{0, 0}, {2, 0}, {1, 2}}, WithLogger(log))
	require.NoError(t, err)

	text := log.Text()
	assert.Contains(t, text, "[sweep-init] engine ready")
	assert.Contains(t, text, "[sweep-final] done")
	assert.Contains(t, text, "[sweep-site] site on a breakpoint")

	log.ClearLogs()
	_, err = CreateDiagram([]Vertex{{0, 0}, {1, 2}}, WithLogger(log))
	require.NoError(t, err)
	text = log.Text()
	assert.Contains(t, text, "[sweep-site] arc split")
	assert.Contains(t, text, "beach_line")
	assert.Contains(t, text, "[0 1 0]")

	log.ClearLogs()
	_, err = CreateDiagram([]Vertex{{1, 1}, {1, 1}}, WithLogger(log))
	require.Error(t, err)
	assert.Contains(t, log.Text(), "input rejected")
}
