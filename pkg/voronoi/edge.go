package voronoi

import "math"

// Edge is a piece of the bisector between LeftSite and RightSite.
//
// Direction points from Start towards End and keeps LeftSite on its left.
// An end that the sweep never reached is NoVertex: the edge is then a ray
// (or a full line) through Origin along Direction.
type Edge struct {
	LeftSite  Site
	RightSite Site
	Start     Vertex
	End       Vertex
	Origin    Vertex
	Direction Vertex
}

// Resolved reports whether both ends are known.
func (e *Edge) Resolved() bool {
	return e.Start != NoVertex && e.End != NoVertex
}

// IsRay reports whether at least one end is unresolved.
func (e *Edge) IsRay() bool {
	return !e.Resolved()
}

// PointAt returns Origin + t*Direction.
func (e *Edge) PointAt(t float64) Vertex {
	return Vertex{e.Origin.X + t*e.Direction.X, e.Origin.Y + t*e.Direction.Y}
}

// span returns the parameter range of the edge along Direction, with
// infinite bounds for unresolved ends.
func (e *Edge) span() (t0, t1 float64) {
	t0, t1 = math.Inf(-1), math.Inf(1)
	if e.Start != NoVertex {
		t0 = dot(sub(e.Start, e.Origin), e.Direction)
	}
	if e.End != NoVertex {
		t1 = dot(sub(e.End, e.Origin), e.Direction)
	}
	return t0, t1
}

// edgeRecord is the mutable form of an Edge during the sweep. left/right
// are site indexes in the engine, not ids.
type edgeRecord struct {
	left   int
	right  int
	start  Vertex
	end    Vertex
	origin Vertex
}
