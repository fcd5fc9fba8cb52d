package voronoi

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/0x0FACED/go-fortune-sweep/pkg/arena"
	"github.com/0x0FACED/go-fortune-sweep/pkg/logger"
)

// State of an Engine. Engines move forward only.
type State uint8

const (
	StateInitializing State = iota
	StateRunning
	StateFinalizing
	StateDone
	StateFailed
)

var stateNames = [...]string{"initializing", "running", "finalizing", "done", "failed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", s)
}

// Stats counts what a sweep did.
type Stats struct {
	SiteEvents       int
	CircleEvents     int
	CirclesScheduled int
	CirclesCancelled int
	StaleEvents      int
}

// Engine computes one diagram with Fortune's sweep. The sweep line moves
// towards +y. An Engine owns its beach line, event queue and edges and is
// not safe for concurrent use; independent Engines may run in parallel.
type Engine struct {
	sites []Site

	// arcs in left to right order
	beachline *rbt[beachSection]
	// site and circle events
	events *eventQueue
	edges  *arena.Arena[edgeRecord]

	state  State
	sweepY float64
	swept  bool
	// while sites share the first y, arcs are appended on the right
	firstY float64

	bbox    *BoundingBox
	logger  *logger.ZapLogger
	stats   Stats
	diagram *Diagram
	err     error
}

// NewEngine validates sites and seeds one site event per site.
// All input problems are reported together.
func NewEngine(sites []Site, opts ...Option) (*Engine, error) {
	o := buildOptions(opts)

	if err := validateSites(sites); err != nil {
		o.logger.Error("[sweep-init] input rejected", zap.Int("sites", len(sites)), zap.Error(err))
		return nil, err
	}

	n := len(sites)
	e := &Engine{
		sites:     append([]Site(nil), sites...),
		beachline: newRBT[beachSection](2 * n),
		events:    newEventQueue(2 * n),
		edges:     arena.New[edgeRecord](3 * n),
		bbox:      o.bbox,
		logger:    o.logger,
	}
	for i, s := range e.sites {
		e.events.push(event{kind: siteEvent, x: s.X, y: s.Y, site: i})
	}

	e.logger.Info("[sweep-init] engine ready", zap.Int("sites", n), zap.Bool("bbox", e.bbox != nil))
	return e, nil
}

func validateSites(sites []Site) error {
	var err error

	ids := make(map[int]struct{}, len(sites))
	order := make([]int, 0, len(sites))
	for i, s := range sites {
		if math.IsNaN(s.X) || math.IsNaN(s.Y) || math.IsInf(s.X, 0) || math.IsInf(s.Y, 0) {
			err = multierr.Append(err, fmt.Errorf("site %d at (%v, %v): %w", s.ID, s.X, s.Y, ErrNonFiniteSite))
			continue
		}
		if _, ok := ids[s.ID]; ok {
			err = multierr.Append(err, fmt.Errorf("site %d: %w", s.ID, ErrDuplicateID))
		}
		ids[s.ID] = struct{}{}
		order = append(order, i)
	}

	// exact (y, x) order as in the event queue; near-equal sites need not be
	// adjacent, so every site is compared with all sites less than epsilon
	// above it
	sort.SliceStable(order, func(a, b int) bool {
		sa, sb := sites[order[a]], sites[order[b]]
		if sa.Y != sb.Y {
			return sa.Y < sb.Y
		}
		return sa.X < sb.X
	})
	for k := range order {
		prev := sites[order[k]]
		for j := k + 1; j < len(order); j++ {
			cur := sites[order[j]]
			if !equalWithEpsilon(prev.Y, cur.Y) {
				break
			}
			if sameVertex(prev.Vertex(), cur.Vertex()) {
				err = multierr.Append(err, fmt.Errorf("sites %d and %d at (%v, %v): %w", prev.ID, cur.ID, cur.X, cur.Y, ErrDuplicateSite))
			}
		}
	}
	return err
}

func (e *Engine) State() State { return e.state }

// SweepY is the y of the last processed event.
func (e *Engine) SweepY() float64 { return e.sweepY }

func (e *Engine) Stats() Stats { return e.stats }

// Diagram returns the result once the engine is Done, nil before.
func (e *Engine) Diagram() *Diagram { return e.diagram }

// Run processes every event, finalizes the edges and returns the diagram.
// An invariant violation aborts the computation and leaves the engine Failed.
func (e *Engine) Run() (*Diagram, error) {
	switch e.state {
	case StateDone:
		return e.diagram, nil
	case StateFailed:
		return nil, e.err
	}

	for {
		more, err := e.Step()
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
	}
	return e.finalize(), nil
}

// Step processes one event. It returns false once the queue is drained.
func (e *Engine) Step() (more bool, err error) {
	switch e.state {
	case StateInitializing:
		e.state = StateRunning
		e.logger.Info("[sweep] running", zap.Int("events", e.events.len()))
	case StateRunning:
	default:
		return false, fmt.Errorf("%w: step while %s", ErrEngineState, e.state)
	}

	defer e.recoverInvariant(&err)

	h, ev, err := e.events.popMin()
	if errors.Is(err, ErrEmpty) {
		return false, nil
	}
	if err != nil {
		failErr(err, "pop event")
	}

	if e.swept && lessThanWithEpsilon(ev.y, e.sweepY) {
		failErr(ErrNonMonotonicSweep, "%s event at y=%v after y=%v", ev.kind, ev.y, e.sweepY)
	}
	if !e.swept || ev.y > e.sweepY {
		e.sweepY = ev.y
	}
	e.swept = true

	switch ev.kind {
	case siteEvent:
		e.stats.SiteEvents++
		e.handleSiteEvent(ev)
	case circleEvent:
		e.handleCircleEvent(h, ev)
	}
	return true, nil
}

func (e *Engine) recoverInvariant(err *error) {
	r := recover()
	if r == nil {
		return
	}
	switch v := r.(type) {
	case invariantError:
		*err = v.err
	case error:
		if !errors.Is(v, arena.ErrInvalidHandle) {
			panic(r)
		}
		*err = fmt.Errorf("%w: %w", ErrInvariant, v)
	default:
		panic(r)
	}
	e.state = StateFailed
	e.err = *err
	e.logger.Error("[sweep] computation aborted", zap.Float64("sweep_y", e.sweepY), zap.Error(*err))
}

func (e *Engine) handleSiteEvent(ev event) {
	idx := ev.site
	site := e.sites[idx]
	directrix := ev.y

	e.logger.Debug("[sweep-site] event", zap.Int("id", site.ID), zap.Float64("x", site.X), zap.Float64("y", site.Y))

	// exact: only an exact tie is guaranteed to pop in x order
	if e.beachline.len() > 0 && site.Y == e.firstY {
		e.appendSameLevel(idx)
		return
	}

	h, err := e.beachline.find(e.locator(site.X, directrix))
	switch {
	case errors.Is(err, ErrEmptyBeachLine):
		if e.stats.SiteEvents != 1 {
			failErr(err, "site %d", site.ID)
		}
		e.beachline.insertAfter(arena.Nil, newBeachSection(idx))
		e.firstY = site.Y
		return
	case err != nil:
		failErr(err, "site %d at (%v, %v)", site.ID, site.X, site.Y)
	}

	if l, r, ok := e.onBreakpoint(h, site.X, directrix); ok && e.splitBreakpoint(l, r, idx) {
		return
	}
	e.splitArc(h, idx, directrix)
}

// locator compares x with the span of an arc at the given sweep position.
func (e *Engine) locator(x, directrix float64) func(arena.Handle, *beachSection) int {
	return func(h arena.Handle, _ *beachSection) int {
		if lessThanWithEpsilon(x, e.leftBreakpoint(h, directrix)) {
			return -1
		}
		if greaterThanWithEpsilon(x, e.rightBreakpoint(h, directrix)) {
			return 1
		}
		return 0
	}
}

func (e *Engine) siteOf(h arena.Handle) Vertex {
	return e.sites[e.beachline.value(h).site].Vertex()
}

func (e *Engine) leftBreakpoint(h arena.Handle, directrix float64) float64 {
	prev := e.beachline.predecessor(h)
	if prev == arena.Nil {
		return math.Inf(-1)
	}
	return breakpointX(e.siteOf(prev), e.siteOf(h), directrix)
}

func (e *Engine) rightBreakpoint(h arena.Handle, directrix float64) float64 {
	next := e.beachline.successor(h)
	if next == arena.Nil {
		return math.Inf(1)
	}
	return breakpointX(e.siteOf(h), e.siteOf(next), directrix)
}

// onBreakpoint reports the two arcs meeting at x if x hits a breakpoint of h.
func (e *Engine) onBreakpoint(h arena.Handle, x, directrix float64) (l, r arena.Handle, ok bool) {
	if prev := e.beachline.predecessor(h); prev != arena.Nil && equalWithEpsilon(x, e.leftBreakpoint(h, directrix)) {
		return prev, h, true
	}
	if next := e.beachline.successor(h); next != arena.Nil && equalWithEpsilon(x, e.rightBreakpoint(h, directrix)) {
		return h, next, true
	}
	return arena.Nil, arena.Nil, false
}

// appendSameLevel handles sites sharing the y of the very first site: the
// beach line is a row of vertical rays and the new one goes to the right end.
func (e *Engine) appendSameLevel(idx int) {
	last := e.beachline.last()
	prev := e.beachline.value(last).site
	edge := e.newEdge(prev, idx, NoVertex, midpoint(e.sites[prev].Vertex(), e.sites[idx].Vertex()))

	n := newBeachSection(idx)
	n.leftEdge = edge
	e.insertArc(last, sideRight, n)
	e.beachline.value(last).rightEdge = edge

	e.logger.Debug("[sweep-site] appended on the first level", zap.Int("left", e.sites[prev].ID), zap.Int("right", e.sites[idx].ID))
}

// splitArc is the regular site event: arc h becomes h | new | copy of h.
// Both new breakpoints trace the same edge in opposite directions.
func (e *Engine) splitArc(h arena.Handle, idx int, directrix float64) {
	// the arc's neighbourhood changes, its circle event is void
	e.detachCircleEvent(h)

	old := *e.beachline.value(h)
	focus := e.sites[old.site].Vertex()
	site := e.sites[idx].Vertex()

	origin := midpoint(focus, site)
	if !equalWithEpsilon(focus.Y, directrix) {
		origin = Vertex{site.X, parabolaY(focus, site.X, directrix)}
	}
	edge := e.newEdge(old.site, idx, NoVertex, origin)

	n := e.insertArc(h, sideRight, beachSection{site: idx, leftEdge: edge, rightEdge: edge})
	r := e.insertArc(n, sideRight, beachSection{site: old.site, leftEdge: edge, rightEdge: old.rightEdge})
	e.beachline.value(h).rightEdge = edge

	e.logger.Debug("[sweep-site] arc split",
		zap.Int("arc_site", e.sites[old.site].ID),
		zap.Float64("origin_x", origin.X), zap.Float64("origin_y", origin.Y),
		zap.Stringer("beach_line", beachLineDump{e}))

	e.attachCircleEvent(h)
	e.attachCircleEvent(r)
}

// splitBreakpoint handles a site falling exactly under the breakpoint of l
// and r: the breakpoint becomes a vertex at once and two edges start there.
func (e *Engine) splitBreakpoint(l, r arena.Handle, idx int) bool {
	vertex, _, ok := circumcircle(e.siteOf(l), e.sites[idx].Vertex(), e.siteOf(r))
	if !ok {
		return false
	}

	e.detachCircleEvent(l)
	e.detachCircleEvent(r)

	la := e.beachline.value(l)
	lSite, rSite := la.site, e.beachline.value(r).site
	e.resolveBreakpoint(la.rightEdge, lSite, vertex)

	leftEdge := e.newEdge(lSite, idx, vertex, vertex)
	rightEdge := e.newEdge(idx, rSite, vertex, vertex)
	e.insertArc(r, sideLeft, beachSection{site: idx, leftEdge: leftEdge, rightEdge: rightEdge})
	e.beachline.value(l).rightEdge = leftEdge
	e.beachline.value(r).leftEdge = rightEdge

	e.logger.Debug("[sweep-site] site on a breakpoint",
		zap.Float64("vertex_x", vertex.X), zap.Float64("vertex_y", vertex.Y))

	e.attachCircleEvent(l)
	e.attachCircleEvent(r)
	return true
}

func (e *Engine) handleCircleEvent(h arena.Handle, ev event) {
	b := ev.arc
	if !e.beachline.contains(b) || e.beachline.value(b).circleEvent != h {
		e.stats.StaleEvents++
		e.logger.Debug("[sweep-circle] discarded", zap.Float64("y", ev.y), zap.Error(ErrStaleEvent))
		return
	}
	e.stats.CircleEvents++

	arc := e.beachline.value(b)
	arc.circleEvent = arena.Nil
	l := e.beachline.predecessor(b)
	r := e.beachline.successor(b)
	if l == arena.Nil || r == arena.Nil {
		fail("circle event on boundary arc %d", b)
	}

	vertex := ev.center
	e.resolveBreakpoint(arc.leftEdge, e.beachline.value(l).site, vertex)
	e.resolveBreakpoint(arc.rightEdge, arc.site, vertex)

	e.logger.Debug("[sweep-circle] arc removed",
		zap.Int("arc_site", e.sites[arc.site].ID),
		zap.Float64("vertex_x", vertex.X), zap.Float64("vertex_y", vertex.Y), zap.Float64("y", ev.y))

	// the neighbours become adjacent, their circle events are stale
	e.detachCircleEvent(l)
	e.detachCircleEvent(r)
	if err := e.beachline.remove(b); err != nil {
		failErr(err, "remove arc %d", b)
	}

	lSite, rSite := e.beachline.value(l).site, e.beachline.value(r).site
	edge := e.newEdge(lSite, rSite, vertex, vertex)
	e.beachline.value(l).rightEdge = edge
	e.beachline.value(r).leftEdge = edge

	e.attachCircleEvent(l)
	e.attachCircleEvent(r)
}

// attachCircleEvent schedules the disappearance of h if its neighbours'
// breakpoints converge.
func (e *Engine) attachCircleEvent(h arena.Handle) {
	l := e.beachline.predecessor(h)
	r := e.beachline.successor(h)
	if l == arena.Nil || r == arena.Nil {
		return
	}
	center, bottom, ok := circleEventPoint(e.siteOf(l), e.siteOf(h), e.siteOf(r))
	if !ok {
		return
	}
	// rounding can put a just-formed event a hair above the sweep line
	if bottom < e.sweepY {
		bottom = e.sweepY
	}

	e.detachCircleEvent(h)
	e.beachline.value(h).circleEvent = e.events.push(event{
		kind:   circleEvent,
		x:      center.X,
		y:      bottom,
		arc:    h,
		center: center,
	})
	e.stats.CirclesScheduled++
}

func (e *Engine) detachCircleEvent(h arena.Handle) {
	arc := e.beachline.value(h)
	if arc.circleEvent == arena.Nil {
		return
	}
	if err := e.events.delete(arc.circleEvent); err != nil {
		failErr(err, "cancel circle event of arc %d", h)
	}
	arc.circleEvent = arena.Nil
	e.stats.CirclesCancelled++
}

func (e *Engine) insertArc(anchor arena.Handle, s side, arc beachSection) arena.Handle {
	h, err := e.beachline.insertAdjacent(anchor, s, arc)
	if err != nil {
		failErr(err, "insert arc next to %d", anchor)
	}
	return h
}

func (e *Engine) newEdge(left, right int, start, origin Vertex) arena.Handle {
	return e.edges.Insert(edgeRecord{
		left:   left,
		right:  right,
		start:  start,
		end:    NoVertex,
		origin: origin,
	})
}

// resolveBreakpoint closes the end of edge that the breakpoint with leftSite
// on its left was moving towards.
func (e *Engine) resolveBreakpoint(edge arena.Handle, leftSite int, v Vertex) {
	if edge == arena.Nil {
		fail("breakpoint without an edge at (%v, %v)", v.X, v.Y)
	}
	rec := e.edges.MustGet(edge)
	if rec.left == leftSite {
		rec.end = v
	} else {
		rec.start = v
	}
}

// finalize turns edge records into Edges, clips them if a box was given and
// builds the cells.
func (e *Engine) finalize() *Diagram {
	e.state = StateFinalizing

	edges := make([]*Edge, 0, e.edges.Len())
	var dropped, rays int
	e.edges.Each(func(_ arena.Handle, rec *edgeRecord) bool {
		l, r := e.sites[rec.left], e.sites[rec.right]
		edge := &Edge{
			LeftSite:  l,
			RightSite: r,
			Start:     rec.start,
			End:       rec.end,
			Origin:    rec.origin,
			Direction: edgeDirection(l.Vertex(), r.Vertex()),
		}
		if edge.Resolved() && sameVertex(edge.Start, edge.End) {
			dropped++
			return true
		}
		if edge.IsRay() {
			rays++
		}
		if e.bbox != nil && !clipEdge(edge, *e.bbox) {
			dropped++
			return true
		}
		edges = append(edges, edge)
		return true
	})

	e.diagram = &Diagram{Edges: edges, Cells: buildCells(e.sites, edges)}
	e.state = StateDone

	e.logger.Info("[sweep-final] done",
		zap.Int("edges", len(edges)),
		zap.Int("rays", rays),
		zap.Int("dropped", dropped),
		zap.Int("site_events", e.stats.SiteEvents),
		zap.Int("circle_events", e.stats.CircleEvents),
		zap.Int("circles_cancelled", e.stats.CirclesCancelled),
		zap.Int("arcs_created", e.beachline.nodes.Issued()),
		zap.Int("events_created", e.events.entries.Issued()))
	return e.diagram
}
