package voronoi

import (
	"strconv"

	"github.com/0x0FACED/go-fortune-sweep/pkg/arena"
)

// beachSection is one arc of the beach line, the payload of a tree node.
// leftEdge/rightEdge are the edges traced by its two breakpoints and
// circleEvent is the only live event allowed to remove it.
type beachSection struct {
	site        int
	leftEdge    arena.Handle
	rightEdge   arena.Handle
	circleEvent arena.Handle
}

func newBeachSection(site int) beachSection {
	return beachSection{site: site}
}

// beachLineDump prints the beach line tree with arcs labelled by site id.
// It is rendered only when a log entry is actually written.
type beachLineDump struct{ e *Engine }

func (d beachLineDump) String() string {
	return d.e.beachline.dump(func(s *beachSection) string {
		return strconv.Itoa(d.e.sites[s.site].ID)
	})
}
