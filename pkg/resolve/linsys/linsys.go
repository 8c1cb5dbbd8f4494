// Package linsys resolves delegation graphs by solving the weight-balance
// linear system directly with dense linear algebra.
//
// For node order v_1..v_n the balance equations form (I - Wᵀ)x = s, where W
// holds the delegation weights and s the intrinsic weights. On a collapsed
// graph the system is triangular under a topological order and therefore
// always uniquely solvable; a singular matrix means a closed cycle escaped
// collapsing and is reported as a fatal precondition violation.
package linsys

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/delegraph/delegraph/pkg/collapse"
	"github.com/delegraph/delegraph/pkg/resolve"
)

// ResidualTolerance is the maximum residual per unit of total weight allowed
// by the verification pass. The solver performs no iterative refinement; it
// re-substitutes the solution once and fails loudly above this bound.
const ResidualTolerance = 1e-9

// Resolver solves the balance system with a dense matrix solve.
// The zero value is ready to use; New exists for symmetry with the other
// engines.
type Resolver struct{}

// New returns a linear-system resolver.
func New() *Resolver { return &Resolver{} }

// Name returns "linear".
func (*Resolver) Name() string { return "linear" }

// Resolve computes the exact weight distribution of the collapsed graph.
// Returns [resolve.ErrSingular] if the balance matrix cannot be solved and
// [resolve.ErrResidual] if verification finds the solution inaccurate; both
// are fatal and indicate the input was not a properly collapsed graph.
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

	// A = I - Wᵀ: row j says x_j minus the delegated inflow equals s_j.
	a := mat.NewDense(n, n, nil)
	b := make([]float64, n)
	for i, id := range ids {
		a.Set(i, i, 1)
		b[i] = g.Weight(id)
	}
	for i, id := range ids {
		for _, e := range g.Out(id) {
			j := idx[e.To]
			a.Set(j, i, a.At(j, i)-e.Weight)
		}
	}

	var x mat.VecDense
	if err := x.SolveVec(a, mat.NewVecDense(n, b)); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("%w: %v", resolve.ErrSingular, err)
		}
		// Ill-conditioned but solved: let the verification pass decide.
	}

	if err := verify(a, &x, b, g.TotalWeight()); err != nil {
		return nil, err
	}

	power := make(map[string]float64, n)
	for i, id := range ids {
		power[id] = x.AtVec(i)
	}
	return resolve.FromPower(c, power, r.Name()), nil
}

// verify re-substitutes x into the balance equations once and checks the
// largest residual against ResidualTolerance scaled by total weight.
func verify(a mat.Matrix, x *mat.VecDense, b []float64, total float64) error {
	n := len(b)
	var ax mat.VecDense
	ax.MulVec(a, x)

	limit := ResidualTolerance * math.Max(1, total)
	for i := 0; i < n; i++ {
		res := math.Abs(ax.AtVec(i) - b[i])
		if math.IsNaN(res) || res > limit {
			if math.IsNaN(res) || math.IsInf(res, 0) {
				return fmt.Errorf("%w: equation %d has residual %g", resolve.ErrSingular, i, res)
			}
			return fmt.Errorf("%w: equation %d has residual %g (limit %g)", resolve.ErrResidual, i, res, limit)
		}
	}
	return nil
}
