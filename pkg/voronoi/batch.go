package voronoi

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CreateDiagrams computes independent diagrams concurrently, one Engine per
// input. Results are in input order. The first failure cancels the inputs
// that have not started yet. Log entries carry the input index.
func CreateDiagrams(ctx context.Context, inputs [][]Vertex, opts ...Option) ([]*Diagram, error) {
	diagrams := make([]*Diagram, len(inputs))
	log := buildOptions(opts).logger

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, points := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			inputOpts := append(opts[:len(opts):len(opts)], WithLogger(log.With(zap.Int("input", i))))
			d, err := CreateDiagram(points, inputOpts...)
			if err != nil {
				return fmt.Errorf("input %d: %w", i, err)
			}
			diagrams[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return diagrams, nil
}
