package voronoi

import (
	"math"
)

// epsilon is the tolerance for geometric comparisons in the sweep. Event
// ordering is exact and only the monotonic sweep check uses epsilon.
const epsilon = 1e-9

type Vertex struct {
	X float64
	Y float64
}

// NoVertex marks an unresolved edge end.
var NoVertex = Vertex{math.Inf(1), math.Inf(1)}

// Site is an input point. Sites are immutable once an Engine is built.
type Site struct {
	ID int
	X  float64
	Y  float64
}

func (s Site) Vertex() Vertex { return Vertex{s.X, s.Y} }

func equalWithEpsilon(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func lessThanWithEpsilon(a, b float64) bool {
	return b-a > epsilon
}

func greaterThanWithEpsilon(a, b float64) bool {
	return a-b > epsilon
}

func sameVertex(a, b Vertex) bool {
	return equalWithEpsilon(a.X, b.X) && equalWithEpsilon(a.Y, b.Y)
}

func cross(o, a, b Vertex) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// breakpointX returns the x of the breakpoint between the arc of a (on the
// left) and the arc of b (on the right) with the sweep line at sweepY.
// The sweep advances towards +y, so every focus has y <= sweepY.
func breakpointX(a, b Vertex, sweepY float64) float64 {
	if equalWithEpsilon(a.Y, b.Y) {
		// same height: the boundary is the vertical bisector
		return (a.X + b.X) / 2
	}
	pa := a.Y - sweepY
	pb := b.Y - sweepY
	if equalWithEpsilon(pa, 0) {
		return a.X
	}
	if equalWithEpsilon(pb, 0) {
		return b.X
	}

	// pb*(x-ax)^2 - pa*(x-bx)^2 + pa*pb*(pa-pb) = 0
	qa := pb - pa
	qb := 2 * (pa*b.X - pb*a.X)
	qc := pb*a.X*a.X - pa*b.X*b.X + pa*pb*(pa-pb)
	disc := qb*qb - 4*qa*qc
	if disc < 0 {
		disc = 0
	}
	sq := math.Sqrt(disc)
	x1 := (-qb - sq) / (2 * qa)
	x2 := (-qb + sq) / (2 * qa)
	lo, hi := math.Min(x1, x2), math.Max(x1, x2)
	// the wider (older) parabola is outside the narrower one
	if a.Y < b.Y {
		return lo
	}
	return hi
}

// parabolaY is the y of the arc of focus at x for the sweep line sweepY.
func parabolaY(focus Vertex, x, sweepY float64) float64 {
	p := focus.Y - sweepY
	dx := x - focus.X
	return dx*dx/(2*p) + (focus.Y+sweepY)/2
}

// circumcircle returns the center and radius of the circle through a, b, c.
// ok is false for collinear or coincident points.
func circumcircle(a, b, c Vertex) (center Vertex, radius float64, ok bool) {
	ax := a.X - b.X
	ay := a.Y - b.Y
	cx := c.X - b.X
	cy := c.Y - b.Y

	d := 2 * (ax*cy - ay*cx)
	if math.Abs(d) < epsilon {
		return NoVertex, 0, false
	}
	ha := ax*ax + ay*ay
	hc := cx*cx + cy*cy
	x := (cy*ha - ay*hc) / d
	y := (ax*hc - cx*ha) / d
	return Vertex{x + b.X, y + b.Y}, math.Sqrt(x*x + y*y), true
}

// circleEventPoint decides whether the middle arc of the beach-line triple
// (left, middle, right) is squeezed out. It is only when the two breakpoints
// around it converge, i.e. the triple turns clockwise in a +y sweep.
// bottom is the largest y of the circumcircle, where the event fires.
func circleEventPoint(left, middle, right Vertex) (center Vertex, bottom float64, ok bool) {
	if sameVertex(left, right) || sameVertex(left, middle) || sameVertex(middle, right) {
		return NoVertex, 0, false
	}
	if cross(middle, left, right) >= -epsilon {
		return NoVertex, 0, false
	}
	center, radius, ok := circumcircle(left, middle, right)
	if !ok {
		return NoVertex, 0, false
	}
	return center, center.Y + radius, true
}

// edgeDirection is the unit motion of the breakpoint between an arc of left
// and an arc of right, left being first in beach-line order.
func edgeDirection(left, right Vertex) Vertex {
	dx := left.Y - right.Y
	dy := right.X - left.X
	l := math.Hypot(dx, dy)
	if l == 0 {
		return Vertex{}
	}
	return Vertex{dx / l, dy / l}
}

func midpoint(a, b Vertex) Vertex {
	return Vertex{(a.X + b.X) / 2, (a.Y + b.Y) / 2}
}

func dot(a, b Vertex) float64 {
	return a.X*b.X + a.Y*b.Y
}

func sub(a, b Vertex) Vertex {
	return Vertex{a.X - b.X, a.Y - b.Y}
}
