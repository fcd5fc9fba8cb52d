package render

import (
	"fmt"
	"io"

	"github.com/gogpu/gg"

	"github.com/0x0FACED/go-fortune-sweep/pkg/voronoi"
)

// PNG rasterizes the diagram into a width x height image and writes it to w.
// Coordinates are used as pixels, y growing downwards.
func PNG(w io.Writer, sites []voronoi.Vertex, diagram *voronoi.Diagram, width, height int) error {
	dc := gg.NewContext(width, height)
	defer dc.Close()

	dc.ClearWithColor(gg.White)

	dc.SetRGB(0.2, 0.2, 0.2)
	dc.SetLineWidth(1.5)
	reach := float64(width + height)
	for _, edge := range diagram.Edges {
		a, b := Segment(edge, reach)
		dc.DrawLine(a.X, a.Y, b.X, b.Y)
		if err := dc.Stroke(); err != nil {
			return fmt.Errorf("stroke edge %d|%d: %w", edge.LeftSite.ID, edge.RightSite.ID, err)
		}
	}

	dc.SetRGB(0.1, 0.6, 0.2)
	for _, site := range sites {
		dc.DrawCircle(site.X, site.Y, 3)
	}
	if err := dc.Fill(); err != nil {
		return fmt.Errorf("fill sites: %w", err)
	}

	return dc.EncodePNG(w)
}
