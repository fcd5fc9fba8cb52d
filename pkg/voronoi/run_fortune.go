package voronoi

import (
	"github.com/0x0FACED/go-fortune-sweep/pkg/logger"
)

// Diagram is the result of one sweep.
type Diagram struct {
	Cells []*Cell
	Edges []*Edge
}

type options struct {
	logger *logger.ZapLogger
	bbox   *BoundingBox
}

type Option func(*options)

// WithLogger sends engine logs to l. Without it nothing is logged.
func WithLogger(l *logger.ZapLogger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithBoundingBox makes the engine extend rays to bbox and clip every edge
// to it. Without a box unresolved ends stay NoVertex.
func WithBoundingBox(bbox BoundingBox) Option {
	return func(o *options) {
		o.bbox = &bbox
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.NewNop()
	}
	return o
}

// CreateDiagram computes the diagram of points; site ids are the indexes
// in points.
func CreateDiagram(points []Vertex, opts ...Option) (*Diagram, error) {
	sites := make([]Site, len(points))
	for i, p := range points {
		sites[i] = Site{ID: i, X: p.X, Y: p.Y}
	}

	engine, err := NewEngine(sites, opts...)
	if err != nil {
		return nil, err
	}
	return engine.Run()
}
