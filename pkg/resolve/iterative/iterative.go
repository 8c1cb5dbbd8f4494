// Package iterative resolves delegation graphs by fixed-point propagation.
//
// Instead of forming a matrix, the engine repeatedly pushes each delegator's
// held weight along its outgoing edges until the weight still in transit
// drops below a tolerance. On a collapsed graph (a DAG) a chain of depth d
// settles in exactly d rounds; the iterative formulation exists for large
// sparse graphs where forming the dense system is wasteful, and to expose
// convergence behavior for benchmarking.
package iterative

import (
	"fmt"
	"math"

	"github.com/delegraph/delegraph/pkg/collapse"
	"github.com/delegraph/delegraph/pkg/graph"
	"github.com/delegraph/delegraph/pkg/resolve"
)

// Defaults for Options fields left zero.
const (
	DefaultTolerance     = 1e-9
	DefaultMaxIterations = 10_000
)

// Options tunes the propagation loop.
type Options struct {
	// Tolerance is the convergence threshold: the engine stops once the
	// largest weight still held by any delegator falls below it.
	// Zero means DefaultTolerance.
	Tolerance float64

	// MaxIterations caps the number of propagation rounds. The cap is the
	// engine's built-in termination guarantee - on a graph with escaping
	// cycles convergence is geometric rather than finite, and on malformed
	// input it may not happen at all. Zero means DefaultMaxIterations.
	MaxIterations int

	// OnIteration, if set, is called after every round with the round number
	// and the largest weight still in transit. Used by the CLI to stream
	// convergence progress; must be fast.
	OnIteration func(iteration int, residual float64)
}

// Resolver propagates weight to a fixed point.
type Resolver struct {
	opts Options
}

// New returns an iterative resolver with the given options.
func New(opts Options) *Resolver {
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	return &Resolver{opts: opts}
}

// Name returns "iterative".
func (*Resolver) Name() string { return "iterative" }

// Resolve pushes weight until convergence or until the iteration cap.
//
// When the cap is reached first, the best-effort result is returned TOGETHER
// with [resolve.ErrNonConvergence]: the caller may accept the approximation
// (Converged is false and Iterations tells how far it got), retry with a
// higher cap, or fall back to the linear-system engine.
func (r *Resolver) Resolve(c *collapse.Collapsed) (*resolve.Result, error) {
	g := c.Graph
	ids := g.IDs()

	// held[id] is the weight currently sitting at id. Terminal nodes
	// accumulate; delegators forward everything each round.
	held := make(map[string]float64, len(ids))
	var delegators []string
	for _, id := range ids {
		held[id] = g.Weight(id)
		if g.Role(id) == graph.RoleDelegator {
			delegators = append(delegators, id)
		}
	}

	iterations := 0
	residual := maxHeld(held, delegators)
	for residual >= r.opts.Tolerance && iterations < r.opts.MaxIterations {
		// Jacobi-style sweep: push from a snapshot so the outcome does not
		// depend on delegator iteration order.
		moved := make(map[string]float64, len(delegators))
		for _, id := range delegators {
			moved[id] = held[id]
			held[id] = 0
		}
		for _, id := range delegators {
			m := moved[id]
			if m == 0 {
				continue
			}
			for _, e := range g.Out(id) {
				held[e.To] += m * e.Weight
			}
		}

		iterations++
		residual = maxHeld(held, delegators)
		if r.opts.OnIteration != nil {
			r.opts.OnIteration(iterations, residual)
		}
	}

	result := assemble(c, held, iterations, residual < r.opts.Tolerance)
	if !result.Converged {
		return result, fmt.Errorf("%w: residual %g after %d iterations", resolve.ErrNonConvergence, residual, iterations)
	}
	return result, nil
}

func maxHeld(held map[string]float64, delegators []string) float64 {
	max := 0.0
	for _, id := range delegators {
		if w := math.Abs(held[id]); w > max {
			max = w
		}
	}
	return max
}

func assemble(c *collapse.Collapsed, held map[string]float64, iterations int, converged bool) *resolve.Result {
	r := &resolve.Result{
		Engine:     "iterative",
		Credited:   make(map[string]float64),
		Iterations: iterations,
		Converged:  converged,
	}
	for id, w := range held {
		switch c.Graph.Role(id) {
		case graph.RoleVoter:
			r.Credited[id] = w
		case graph.RoleAbsorber:
			if r.AbsorbedByCycle == nil {
				r.AbsorbedByCycle = make(map[string]float64)
			}
			r.AbsorbedByCycle[id] = w
			r.Absorbed += w
		}
	}
	return r
}
