package graph

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is empty.
	// All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists in the graph. Node IDs must be unique.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrNonPositiveWeight is returned by [Graph.AddNode] when a node's
	// intrinsic weight is zero or negative. Every participant starts with a
	// positive amount of voting power.
	ErrNonPositiveWeight = errors.New("intrinsic weight must be positive")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the source node
	// does not exist in the graph.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] and [Graph.Validate]
	// when a delegation references a node that does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrEdgeWeight is returned by [Graph.AddEdge] when a delegation weight is
	// outside (0, 1]. Fractional delegation never exceeds a node's full power.
	ErrEdgeWeight = errors.New("delegation weight must be in (0, 1]")

	// ErrAbsorberDelegates is returned by [Graph.AddEdge] when an absorber node
	// is given an outgoing delegation. Absorbers are terminal by construction.
	ErrAbsorberDelegates = errors.New("absorber nodes cannot delegate")

	// ErrWeightSum is returned by [Graph.Validate] when a delegator's outgoing
	// weights do not sum to 1 within [WeightSumTolerance]. Partial abstention
	// is not modeled: a node either votes itself or delegates all of its power.
	ErrWeightSum = errors.New("outgoing delegation weights must sum to 1")
)

// WeightSumTolerance is the numerical slack allowed when checking that a
// delegator's outgoing weights sum to 1.
const WeightSumTolerance = 1e-9

// Role classifies a node's behavior during resolution.
type Role int

const (
	// RoleVoter marks a node with no outgoing delegations. Voters retain all
	// weight routed to them.
	RoleVoter Role = iota
	// RoleDelegator marks a node that forwards its weight along outgoing edges.
	RoleDelegator
	// RoleAbsorber marks the contracted stand-in for a closed delegation
	// cycle. Weight reaching an absorber is permanently lost to voters.
	RoleAbsorber
)

// String returns the lowercase role name used in serialization and DOT output.
func (r Role) String() string {
	switch r {
	case RoleDelegator:
		return "delegator"
	case RoleAbsorber:
		return "absorber"
	default:
		return "voter"
	}
}

// Node is a participant in the delegation graph.
//
// The zero value is not usable - ID must be set and Weight defaults to 0,
// which Validate rejects. Use Weight 1 for the common uniform case.
type Node struct {
	ID       string  // Unique identifier
	Weight   float64 // Intrinsic voting power (positive)
	Absorber bool    // True for synthetic cycle stand-ins
}

// Edge is a single weighted delegation from one node to another.
// Weight is the fraction of the source's power routed to To.
type Edge struct {
	To     string
	Weight float64
}

// Graph is a weighted delegation graph: each node either votes directly
// (no outgoing edges) or splits its full power across outgoing delegations.
//
// Build a Graph with [New] plus AddNode/AddEdge, or from raw adjacency maps
// with [FromMap]. Call [Graph.Validate] before handing the graph to the
// collapser or a resolver; all downstream code treats a validated Graph as
// immutable and shares it freely across goroutines.
type Graph struct {
	nodes map[string]Node
	out   map[string][]Edge
	edges int
}

// New creates an empty delegation graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]Node),
		out:   make(map[string][]Edge),
	}
}

// AddNode adds a participant to the graph.
// Returns ErrInvalidNodeID for an empty ID, ErrDuplicateNodeID if the ID is
// taken, or ErrNonPositiveWeight for a weight <= 0.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNodeID, n.ID)
	}
	if n.Weight <= 0 || math.IsNaN(n.Weight) || math.IsInf(n.Weight, 0) {
		return fmt.Errorf("%w: %s has weight %v", ErrNonPositiveWeight, n.ID, n.Weight)
	}
	g.nodes[n.ID] = n
	return nil
}

// AddEdge adds a delegation of weight w from one node to another.
// Both endpoints must already exist. Self-delegation is permitted here; a
// node whose power loops back entirely to itself forms a closed cycle that
// the collapser later contracts.
func (g *Graph) AddEdge(from, to string, w float64) error {
	src, ok := g.nodes[from]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSourceNode, from)
	}
	if _, ok := g.nodes[to]; !ok {
		return fmt.Errorf("%w: %s -> %s", ErrUnknownTargetNode, from, to)
	}
	if src.Absorber {
		return fmt.Errorf("%w: %s", ErrAbsorberDelegates, from)
	}
	if w <= 0 || w > 1+WeightSumTolerance || math.IsNaN(w) {
		return fmt.Errorf("%w: %s -> %s has weight %v", ErrEdgeWeight, from, to, w)
	}
	g.out[from] = append(g.out[from], Edge{To: to, Weight: w})
	g.edges++
	return nil
}

// Validate checks structural invariants and returns nil if the graph is a
// well-formed delegation graph:
//
//  1. Every edge endpoint exists (guarded by AddEdge, re-checked here)
//  2. Every delegator's outgoing weights sum to 1 within WeightSumTolerance
//
// Cycles are deliberately not rejected: closed delegation cycles are legal
// input and are handled by the collapse package.
func (g *Graph) Validate() error {
	for id, edges := range g.out {
		if len(edges) == 0 {
			continue
		}
		sum := 0.0
		for _, e := range edges {
			if _, ok := g.nodes[e.To]; !ok {
				return fmt.Errorf("%w: %s -> %s", ErrUnknownTargetNode, id, e.To)
			}
			sum += e.Weight
		}
		if math.Abs(sum-1) > WeightSumTolerance {
			return fmt.Errorf("%w: %s sums to %v", ErrWeightSum, id, sum)
		}
	}
	return nil
}

// Role classifies a node: absorbers keep their synthetic role, nodes without
// outgoing edges are voters, everything else delegates.
// An unknown ID classifies as RoleVoter.
func (g *Graph) Role(id string) Role {
	if n, ok := g.nodes[id]; ok && n.Absorber {
		return RoleAbsorber
	}
	if len(g.out[id]) > 0 {
		return RoleDelegator
	}
	return RoleVoter
}

// Node returns the node with the given ID and true, or a zero Node and false.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Weight returns the intrinsic weight of a node, or 0 for an unknown ID.
func (g *Graph) Weight(id string) float64 { return g.nodes[id].Weight }

// Out returns the outgoing delegations of a node in insertion order.
// The returned slice is a read-only view and must not be modified.
func (g *Graph) Out(id string) []Edge { return g.out[id] }

// OutDegree returns the number of outgoing delegations of a node.
func (g *Graph) OutDegree(id string) int { return len(g.out[id]) }

// IDs returns all node IDs in sorted order. Sorted iteration keeps the
// collapser and the resolvers deterministic across runs.
func (g *Graph) IDs() []string {
	return slices.Sorted(maps.Keys(g.nodes))
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of delegations in the graph.
func (g *Graph) EdgeCount() int { return g.edges }

// TotalWeight returns the sum of all intrinsic weights. Resolution conserves
// this quantity: credited weight plus absorbed weight equals TotalWeight.
func (g *Graph) TotalWeight() float64 {
	total := 0.0
	for _, n := range g.nodes {
		total += n.Weight
	}
	return total
}

// Voters returns the IDs of all voter nodes in sorted order.
func (g *Graph) Voters() []string {
	var voters []string
	for id := range g.nodes {
		if g.Role(id) == RoleVoter {
			voters = append(voters, id)
		}
	}
	slices.Sort(voters)
	return voters
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	c := New()
	c.nodes = maps.Clone(g.nodes)
	c.edges = g.edges
	for id, edges := range g.out {
		c.out[id] = slices.Clone(edges)
	}
	return c
}

// Equal reports whether two graphs have the same nodes, weights, and edges.
// Edge order is ignored; edge weights must match exactly.
func Equal(a, b *Graph) bool {
	if a.NodeCount() != b.NodeCount() || a.EdgeCount() != b.EdgeCount() {
		return false
	}
	for id, n := range a.nodes {
		bn, ok := b.nodes[id]
		if !ok || bn != n {
			return false
		}
		ae := slices.Clone(a.out[id])
		be := slices.Clone(b.out[id])
		if len(ae) != len(be) {
			return false
		}
		cmp := func(x, y Edge) int {
			if x.To != y.To {
				if x.To < y.To {
					return -1
				}
				return 1
			}
			switch {
			case x.Weight < y.Weight:
				return -1
			case x.Weight > y.Weight:
				return 1
			}
			return 0
		}
		slices.SortFunc(ae, cmp)
		slices.SortFunc(be, cmp)
		if !slices.Equal(ae, be) {
			return false
		}
	}
	return true
}

// FromMap builds and validates a delegation graph from raw adjacency data:
// a mapping from node ID to its outgoing delegations (target -> weight
// fraction), plus optional intrinsic weights (nil means uniform weight 1).
//
// Nodes appearing only as delegation targets or only in the weights map are
// added implicitly. Edges are sorted by target ID for determinism, since Go
// map iteration order would otherwise leak into resolver output.
//
// This is the input boundary for externally produced graphs: generators,
// loaders, and the HTTP API all funnel through FromMap.
func FromMap(adj map[string]map[string]float64, weights map[string]float64) (*Graph, error) {
	ids := make(map[string]bool)
	for src, targets := range adj {
		ids[src] = true
		for dst := range targets {
			ids[dst] = true
		}
	}
	for id := range weights {
		ids[id] = true
	}

	g := New()
	for _, id := range slices.Sorted(maps.Keys(ids)) {
		w := 1.0
		if weights != nil {
			if iw, ok := weights[id]; ok {
				w = iw
			}
		}
		if err := g.AddNode(Node{ID: id, Weight: w}); err != nil {
			return nil, err
		}
	}
	for _, src := range slices.Sorted(maps.Keys(adj)) {
		targets := adj[src]
		for _, dst := range slices.Sorted(maps.Keys(targets)) {
			if err := g.AddEdge(src, dst, targets[dst]); err != nil {
				return nil, err
			}
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
