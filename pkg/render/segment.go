package render

import "github.com/0x0FACED/go-fortune-sweep/pkg/voronoi"

// Segment returns two drawable end points of edge. An unresolved end is
// placed reach units away along the edge direction.
func Segment(edge *voronoi.Edge, reach float64) (a, b voronoi.Vertex) {
	start, end := edge.Start, edge.End
	switch {
	case edge.Resolved():
	case start == voronoi.NoVertex && end == voronoi.NoVertex:
		start, end = edge.PointAt(-reach), edge.PointAt(reach)
	case start == voronoi.NoVertex:
		start = voronoi.Vertex{X: end.X - reach*edge.Direction.X, Y: end.Y - reach*edge.Direction.Y}
	default:
		end = voronoi.Vertex{X: start.X + reach*edge.Direction.X, Y: start.Y + reach*edge.Direction.Y}
	}
	return start, end
}
