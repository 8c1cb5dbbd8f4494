package collapse

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/delegraph/delegraph/pkg/graph"
)

// ErrVoterInCycle is returned by [Collapse] when a nontrivial strongly
// connected component contains a voter. Voters have no outgoing edges, so
// they can never sit on a cycle; hitting this means a graph invariant was
// violated upstream and the fault is internal, not user error.
var ErrVoterInCycle = errors.New("voter inside a delegation cycle")

// AbsorberPrefix prefixes the IDs of synthetic absorber nodes created by
// [Collapse]. The suffix is the smallest member ID of the contracted cycle,
// which keeps absorber naming deterministic.
const AbsorberPrefix = "cycle:"

// Member records one original node of a contracted cycle together with its
// relative share of the cycle's summed intrinsic weight. Shares sum to 1 per
// cycle and allow redistributing results back to members, though by
// definition weight absorbed in a closed cycle never reaches a voter.
type Member struct {
	ID    string  `json:"id" bson:"id"`
	Share float64 `json:"share" bson:"share"`
}

// Collapsed is a delegation graph whose closed cycles have been contracted
// into absorbing sinks, plus the mapping back to the original members.
//
// When the input contained no closed cycles, Graph is the input graph itself
// and Cycles is empty - collapsing is idempotent.
type Collapsed struct {
	Graph  *graph.Graph
	Cycles map[string][]Member // absorber ID -> original members
}

// Absorbed reports whether any weight-trapping cycles were contracted.
func (c *Collapsed) Absorbed() bool { return len(c.Cycles) > 0 }

// Collapse contracts every closed delegation cycle of g into a single
// absorber node and returns the reduced graph with the cycle mapping.
//
// A closed cycle is a strongly connected component of delegators from which
// no edge escapes: weight entering it circulates forever and is lost to
// voters. A node delegating only to itself is the degenerate case. Each
// contracted component becomes one absorber carrying the summed intrinsic
// weight of its members; inbound delegations are redirected to the absorber
// and intra-cycle edges disappear.
//
// The input graph is never modified. On a graph whose only cycles are closed
// (the well-formedness condition for delegation graphs), the result is a DAG
// in which every delegation path ends at a voter or an absorber.
func Collapse(g *graph.Graph) (*Collapsed, error) {
	ids := g.IDs()
	comps := Components(ids, func(id string) []string {
		edges := g.Out(id)
		targets := make([]string, len(edges))
		for i, e := range edges {
			targets[i] = e.To
		}
		return targets
	})

	compOf := make(map[string]int, len(ids))
	for i, comp := range comps {
		for _, id := range comp {
			compOf[id] = i
		}
	}

	closed := make(map[int]bool)
	for i, comp := range comps {
		isClosed, err := classify(g, comp, compOf, i)
		if err != nil {
			return nil, err
		}
		if isClosed {
			closed[i] = true
		}
	}
	if len(closed) == 0 {
		return &Collapsed{Graph: g, Cycles: map[string][]Member{}}, nil
	}

	// Name each absorber after its smallest member so output is stable.
	absorberOf := make(map[int]string, len(closed))
	cycles := make(map[string][]Member, len(closed))
	for i := range closed {
		comp := slices.Clone(comps[i])
		slices.Sort(comp)
		id := AbsorberPrefix + comp[0]
		absorberOf[i] = id

		total := 0.0
		for _, m := range comp {
			total += g.Weight(m)
		}
		members := make([]Member, len(comp))
		for j, m := range comp {
			members[j] = Member{ID: m, Share: g.Weight(m) / total}
		}
		cycles[id] = members
	}

	reduced := graph.New()
	for _, id := range ids {
		if closed[compOf[id]] {
			continue
		}
		n, _ := g.Node(id)
		if err := reduced.AddNode(n); err != nil {
			return nil, fmt.Errorf("rebuild node %q: %w", id, err)
		}
	}
	for _, i := range slices.Sorted(maps.Keys(absorberOf)) {
		comp := comps[i]
		total := 0.0
		for _, m := range comp {
			total += g.Weight(m)
		}
		n := graph.Node{ID: absorberOf[i], Weight: total, Absorber: true}
		if err := reduced.AddNode(n); err != nil {
			return nil, fmt.Errorf("add absorber %q: %w", n.ID, err)
		}
	}

	for _, src := range ids {
		if closed[compOf[src]] {
			continue
		}
		// Redirect edges into contracted cycles, merging parallel hits on the
		// same absorber into one edge.
		merged := make(map[string]float64)
		var order []string
		for _, e := range g.Out(src) {
			target := e.To
			if ci := compOf[e.To]; closed[ci] {
				target = absorberOf[ci]
			}
			if _, seen := merged[target]; !seen {
				order = append(order, target)
			}
			merged[target] += e.Weight
		}
		for _, target := range order {
			if err := reduced.AddEdge(src, target, merged[target]); err != nil {
				return nil, fmt.Errorf("rebuild edge %q -> %q: %w", src, target, err)
			}
		}
	}

	if err := reduced.Validate(); err != nil {
		return nil, fmt.Errorf("collapsed graph invalid: %w", err)
	}
	return &Collapsed{Graph: reduced, Cycles: cycles}, nil
}

// classify reports whether component i is a closed cycle: every member is a
// delegator and no member edge leaves the component. Singleton components
// count only when the node's delegations all point back at itself.
func classify(g *graph.Graph, comp []string, compOf map[string]int, i int) (bool, error) {
	if len(comp) == 1 {
		id := comp[0]
		edges := g.Out(id)
		if len(edges) == 0 {
			return false, nil
		}
		for _, e := range edges {
			if e.To != id {
				return false, nil
			}
		}
		return true, nil
	}

	for _, id := range comp {
		if g.Role(id) != graph.RoleDelegator {
			return false, fmt.Errorf("%w: %s in a %d-node component", ErrVoterInCycle, id, len(comp))
		}
		for _, e := range g.Out(id) {
			if compOf[e.To] != i {
				return false, nil
			}
		}
	}
	return true, nil
}
