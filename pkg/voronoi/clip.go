package voronoi

import "math"

// Bounding Box. Yt is the smaller y (top of a screen), Yb the larger one.
type BoundingBox struct {
	Xl, Xr, Yt, Yb float64
}

// Create new Bounding Box
func NewBoundingBox(xl, xr, yt, yb float64) BoundingBox {
	return BoundingBox{xl, xr, yt, yb}
}

func (b BoundingBox) Contains(v Vertex) bool {
	return v.X >= b.Xl-epsilon && v.X <= b.Xr+epsilon && v.Y >= b.Yt-epsilon && v.Y <= b.Yb+epsilon
}

// clipEdge extends unresolved ends of edge to the box and clips it
// (Liang-Barsky on the parameter of Origin + t*Direction). It returns false
// when nothing of the edge is inside the box.
func clipEdge(edge *Edge, bbox BoundingBox) bool {
	t0, t1 := edge.span()
	ox, oy := edge.Origin.X, edge.Origin.Y
	dx, dy := edge.Direction.X, edge.Direction.Y

	clip := func(p, q float64) bool {
		if p == 0 {
			return q >= 0
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return false
			}
			if r > t0 {
				t0 = r
			}
		} else {
			if r < t0 {
				return false
			}
			if r < t1 {
				t1 = r
			}
		}
		return true
	}

	// left, right, top, bottom
	if !clip(-dx, ox-bbox.Xl) || !clip(dx, bbox.Xr-ox) || !clip(-dy, oy-bbox.Yt) || !clip(dy, bbox.Yb-oy) {
		return false
	}
	if math.IsInf(t0, 0) || math.IsInf(t1, 0) || t1-t0 < epsilon {
		return false
	}

	edge.Start = edge.PointAt(t0)
	edge.End = edge.PointAt(t1)
	return true
}
