package main

import (
	"errors"
	"io"
	"net/http"

	"github.com/sugawarayuuta/sonnet"
	"go.uber.org/zap"

	"github.com/0x0FACED/go-fortune-sweep/pkg/voronoi"
)

const maxRequestBody = 4 << 20

type pointJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type bboxJSON struct {
	Xl float64 `json:"xl"`
	Xr float64 `json:"xr"`
	Yt float64 `json:"yt"`
	Yb float64 `json:"yb"`
}

type diagramRequest struct {
	Sites []pointJSON `json:"sites"`
	BBox  *bboxJSON   `json:"bbox,omitempty"`
}

// edgeJSON uses null for an unresolved end.
type edgeJSON struct {
	Left      int        `json:"left"`
	Right     int        `json:"right"`
	Start     *pointJSON `json:"start"`
	End       *pointJSON `json:"end"`
	Origin    pointJSON  `json:"origin"`
	Direction pointJSON  `json:"direction"`
}

type cellJSON struct {
	Site  int   `json:"site"`
	Edges []int `json:"edges"`
}

type statsJSON struct {
	SiteEvents       int `json:"site_events"`
	CircleEvents     int `json:"circle_events"`
	CirclesScheduled int `json:"circles_scheduled"`
	CirclesCancelled int `json:"circles_cancelled"`
	StaleEvents      int `json:"stale_events"`
}

type diagramResponse struct {
	Edges []edgeJSON `json:"edges"`
	Cells []cellJSON `json:"cells"`
	Stats statsJSON  `json:"stats"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func endJSON(v voronoi.Vertex) *pointJSON {
	if v == voronoi.NoVertex {
		return nil
	}
	return &pointJSON{v.X, v.Y}
}

func newDiagramResponse(d *voronoi.Diagram, stats voronoi.Stats) diagramResponse {
	resp := diagramResponse{
		Edges: make([]edgeJSON, len(d.Edges)),
		Cells: make([]cellJSON, len(d.Cells)),
		Stats: statsJSON(stats),
	}

	index := make(map[*voronoi.Edge]int, len(d.Edges))
	for i, e := range d.Edges {
		index[e] = i
		resp.Edges[i] = edgeJSON{
			Left:      e.LeftSite.ID,
			Right:     e.RightSite.ID,
			Start:     endJSON(e.Start),
			End:       endJSON(e.End),
			Origin:    pointJSON{e.Origin.X, e.Origin.Y},
			Direction: pointJSON{e.Direction.X, e.Direction.Y},
		}
	}
	for i, c := range d.Cells {
		edges := make([]int, len(c.Halfedges))
		for j, he := range c.Halfedges {
			edges[j] = index[he.Edge]
		}
		resp.Cells[i] = cellJSON{Site: c.Site.ID, Edges: edges}
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	body, err := sonnet.Marshal(v)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(body)
	return err
}

// apiHandler computes the diagram of the posted sites. Site ids are the
// indexes in the request.
func (a *app) apiHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		a.replyError(w, http.StatusMethodNotAllowed, errors.New("use POST"))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		a.replyError(w, http.StatusRequestEntityTooLarge, err)
		return
	}
	var req diagramRequest
	if err := sonnet.Unmarshal(body, &req); err != nil {
		a.replyError(w, http.StatusBadRequest, err)
		return
	}

	sites := make([]voronoi.Site, len(req.Sites))
	for i, p := range req.Sites {
		sites[i] = voronoi.Site{ID: i, X: p.X, Y: p.Y}
	}
	opts := []voronoi.Option{voronoi.WithLogger(a.log)}
	if b := req.BBox; b != nil {
		opts = append(opts, voronoi.WithBoundingBox(voronoi.NewBoundingBox(b.Xl, b.Xr, b.Yt, b.Yb)))
	}

	engine, err := voronoi.NewEngine(sites, opts...)
	if err != nil {
		a.replyError(w, http.StatusUnprocessableEntity, err)
		return
	}
	diagram, err := engine.Run()
	if err != nil {
		a.replyError(w, http.StatusInternalServerError, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, newDiagramResponse(diagram, engine.Stats())); err != nil {
		a.log.Error("write response", zap.Error(err))
	}
}

func (a *app) replyError(w http.ResponseWriter, status int, err error) {
	a.log.Warn("api request rejected", zap.Int("status", status), zap.Error(err))
	if werr := writeJSON(w, status, errorResponse{Error: err.Error()}); werr != nil {
		a.log.Error("write response", zap.Error(werr))
	}
}
