package resolve

import (
	"errors"
	"fmt"
	"math"

	"github.com/delegraph/delegraph/pkg/collapse"
	"github.com/delegraph/delegraph/pkg/graph"
)

var (
	// ErrSingular is returned by the linear-system engine when the balance
	// matrix is singular. On a correctly collapsed graph this cannot happen;
	// it means an uncollapsed closed cycle reached the solver, which is a
	// fatal precondition violation rather than a user error.
	ErrSingular = errors.New("singular balance system")

	// ErrInfeasible is returned by the linear-programming engine when the
	// constraint system has no feasible point. Like ErrSingular this signals
	// a precondition violation: a valid collapsed graph always admits exactly
	// one feasible assignment.
	ErrInfeasible = errors.New("infeasible resolution program")

	// ErrNonConvergence is returned by the iterative engine when the
	// iteration cap is reached before the residual drops below tolerance.
	// This is a soft failure: the best-effort Result is returned alongside
	// the error and the caller decides whether to accept it, raise the cap,
	// or fall back to the linear-system engine.
	ErrNonConvergence = errors.New("iteration cap reached before convergence")

	// ErrResidual is returned by the linear-system engine's verification pass
	// when re-substituting the solution leaves a residual above tolerance.
	ErrResidual = errors.New("solution residual exceeds tolerance")
)

// AgreementTolerance is the per-node tolerance within which all engines must
// agree on the same collapsed graph. This is the cross-engine contract.
const AgreementTolerance = 1e-6

// Result is the outcome of one resolution: how much of the total system
// weight each voter is ultimately credited with, plus what was lost to
// closed cycles.
type Result struct {
	// Engine names the resolver that produced this result.
	Engine string `json:"engine" bson:"engine"`

	// Credited maps each voter to its final credited weight. Delegators and
	// absorbers do not appear; their credited weight is zero by definition.
	Credited map[string]float64 `json:"credited" bson:"credited"`

	// Absorbed is the total weight trapped in closed cycles.
	Absorbed float64 `json:"absorbed" bson:"absorbed"`

	// AbsorbedByCycle breaks Absorbed down per absorber node.
	AbsorbedByCycle map[string]float64 `json:"absorbed_by_cycle,omitempty" bson:"absorbed_by_cycle,omitempty"`

	// Iterations is the number of propagation rounds used (iterative engine
	// only; zero for the direct engines).
	Iterations int `json:"iterations,omitempty" bson:"iterations,omitempty"`

	// Converged reports whether the engine reached its tolerance. The direct
	// engines always converge; the iterative engine may return a best-effort
	// result with Converged false.
	Converged bool `json:"converged" bson:"converged"`
}

// CreditedTotal returns the sum of all credited weights.
func (r *Result) CreditedTotal() float64 {
	total := 0.0
	for _, w := range r.Credited {
		total += w
	}
	return total
}

// Resolver computes the final weight distribution of a collapsed delegation
// graph. Implementations are pure: they never modify the graph and carry no
// state between calls, so one Resolver may serve concurrent resolutions.
type Resolver interface {
	// Name returns the engine identifier used in CLI flags and stored runs.
	Name() string

	// Resolve computes the credited weight per voter. A non-nil Result may
	// accompany a non-nil error only for soft failures (ErrNonConvergence).
	Resolve(c *collapse.Collapsed) (*Result, error)
}

// FromPower assembles a Result from the per-node power vector x, where x[id]
// is the total weight flowing through node id (intrinsic plus delegated-in).
// Voters credit their full power; absorbers account theirs as lost.
func FromPower(c *collapse.Collapsed, x map[string]float64, engine string) *Result {
	r := &Result{
		Engine:    engine,
		Credited:  make(map[string]float64),
		Converged: true,
	}
	for id, power := range x {
		switch c.Graph.Role(id) {
		case graph.RoleVoter:
			r.Credited[id] = power
		case graph.RoleAbsorber:
			if r.AbsorbedByCycle == nil {
				r.AbsorbedByCycle = make(map[string]float64)
			}
			r.AbsorbedByCycle[id] = power
			r.Absorbed += power
		}
	}
	return r
}

// CheckConservation verifies that credited plus absorbed weight matches the
// graph's total intrinsic weight within tol. Every engine must conserve
// weight; a violation indicates an engine bug and is surfaced loudly.
func CheckConservation(c *collapse.Collapsed, r *Result, tol float64) error {
	got := r.CreditedTotal() + r.Absorbed
	want := c.Graph.TotalWeight()
	if math.Abs(got-want) > tol*math.Max(1, want) {
		return fmt.Errorf("weight not conserved by %s: credited+absorbed = %g, total = %g", r.Engine, got, want)
	}
	return nil
}

// Agree verifies that two results credit the same weight to every voter
// within tol per node. This is the cross-engine correctness contract: any
// two engines given the same collapsed graph must agree.
func Agree(a, b *Result, tol float64) error {
	for id, wa := range a.Credited {
		if math.Abs(wa-b.Credited[id]) > tol {
			return fmt.Errorf("%s and %s disagree on %s: %g vs %g", a.Engine, b.Engine, id, wa, b.Credited[id])
		}
	}
	for id, wb := range b.Credited {
		if _, ok := a.Credited[id]; !ok && math.Abs(wb) > tol {
			return fmt.Errorf("%s and %s disagree on %s: 0 vs %g", a.Engine, b.Engine, id, wb)
		}
	}
	if math.Abs(a.Absorbed-b.Absorbed) > tol*math.Max(1, math.Abs(a.Absorbed)) {
		return fmt.Errorf("%s and %s disagree on absorbed weight: %g vs %g", a.Engine, b.Engine, a.Absorbed, b.Absorbed)
	}
	return nil
}
