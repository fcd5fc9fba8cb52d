package voronoi

import (
	"math"
	"sort"
)

// Cell associates a site with the edges bounding its region.
type Cell struct {
	Site      Site
	Halfedges []*Halfedge
}

// Halfedge is an Edge seen from one of its two sites.
type Halfedge struct {
	Site  Site
	Edge  *Edge
	Angle float64
}

func newHalfedge(edge *Edge, site, other Site) *Halfedge {
	return &Halfedge{
		Site:  site,
		Edge:  edge,
		Angle: math.Atan2(other.Y-site.Y, other.X-site.X),
	}
}

// StartPoint is the first end of the edge when walking around the cell.
func (h *Halfedge) StartPoint() Vertex {
	if h.Edge.LeftSite.ID == h.Site.ID {
		return h.Edge.Start
	}
	return h.Edge.End
}

func (h *Halfedge) EndPoint() Vertex {
	if h.Edge.LeftSite.ID == h.Site.ID {
		return h.Edge.End
	}
	return h.Edge.Start
}

type halfedges []*Halfedge

func (s halfedges) Len() int      { return len(s) }
func (s halfedges) Swap(i, j int) { s[i], s[j] = s[j], s[i] }

type halfedgesByAngle struct{ halfedges }

func (s halfedgesByAngle) Less(i, j int) bool { return s.halfedges[i].Angle > s.halfedges[j].Angle }

// buildCells makes one cell per site, in input order, with its halfedges
// sorted by angle around the site.
func buildCells(sites []Site, edges []*Edge) []*Cell {
	cells := make([]*Cell, len(sites))
	byID := make(map[int]*Cell, len(sites))
	for i, s := range sites {
		cells[i] = &Cell{Site: s}
		byID[s.ID] = cells[i]
	}

	for _, edge := range edges {
		l, r := byID[edge.LeftSite.ID], byID[edge.RightSite.ID]
		l.Halfedges = append(l.Halfedges, newHalfedge(edge, edge.LeftSite, edge.RightSite))
		r.Halfedges = append(r.Halfedges, newHalfedge(edge, edge.RightSite, edge.LeftSite))
	}

	for _, cell := range cells {
		sort.Sort(halfedgesByAngle{cell.Halfedges})
	}
	return cells
}
