// Package lp resolves delegation graphs by casting the weight-balance
// equations as a linear program.
//
// The equality constraints alone pin down a unique feasible point on a
// collapsed graph, so the LP exists as an independent algorithmic family for
// cross-checking the direct solver, and as the natural place to layer
// additional linear constraints later. The objective minimizes total
// absorbed weight purely as a sanity objective; it cannot change the unique
// solution.
package lp

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/delegraph/delegraph/pkg/collapse"
	"github.com/delegraph/delegraph/pkg/graph"
	"github.com/delegraph/delegraph/pkg/resolve"
)

// Resolver solves the resolution LP with gonum's simplex implementation.
type Resolver struct{}

// New returns a linear-programming resolver.
func New() *Resolver { return &Resolver{} }

// Name returns "lp".
func (*Resolver) Name() string { return "lp" }

// Resolve computes the weight distribution by solving
//
//	minimize   sum of absorber power
//	subject to x_v - delegated inflow = intrinsic weight, x >= 0
//
// Returns [resolve.ErrInfeasible] if the program has no feasible point,
// which cannot happen for a valid collapsed graph and is treated as a fatal
// precondition violation. Unboundedness is impossible under equality
// constraints and is mapped to the same fatal class if the solver reports it.
func (r *Resolver) Resolve(c *collapse.Collapsed) (*resolve.Result, error) {
	g := c.Graph
	ids := g.IDs()
	n := len(ids)
	if n == 0 {
		return &resolve.Result{Engine: r.Name(), Credited: map[string]float64{}, Converged: true}, nil
	}

	idx := make(map[string]int, n)
	for i, id := range ids {
		idx[id] = i
	}

	a := mat.NewDense(n, n, nil)
	b := make([]float64, n)
	obj := make([]float64, n)
	for i, id := range ids {
		a.Set(i, i, 1)
		b[i] = g.Weight(id)
		if g.Role(id) == graph.RoleAbsorber {
			obj[i] = 1
		}
	}
	for i, id := range ids {
		for _, e := range g.Out(id) {
			j := idx[e.To]
			a.Set(j, i, a.At(j, i)-e.Weight)
		}
	}

	_, x, err := lp.Simplex(obj, a, b, 0, nil)
	if err != nil {
		switch {
		case errors.Is(err, lp.ErrInfeasible):
			return nil, fmt.Errorf("%w: %v", resolve.ErrInfeasible, err)
		case errors.Is(err, lp.ErrUnbounded):
			// Equality constraints bound every variable; reaching this means
			// the constraint matrix was built from a broken graph.
			return nil, fmt.Errorf("%w: unbounded program: %v", resolve.ErrInfeasible, err)
		default:
			return nil, fmt.Errorf("simplex: %w", err)
		}
	}

	power := make(map[string]float64, n)
	for i, id := range ids {
		power[id] = x[i]
	}
	return resolve.FromPower(c, power, r.Name()), nil
}
