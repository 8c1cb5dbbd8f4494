package gen

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"

	"github.com/delegraph/delegraph/pkg/collapse"
)

// ErrNoSink is returned by [Prepare] when a graph cannot be given any sink.
var ErrNoSink = errors.New("graph has no node that can become a sink")

// DefaultSinkFraction is the share of nodes Prepare turns into sinks when
// the raw input has too few of them.
const DefaultSinkFraction = 0.2

// RawEdge is a delegation edge as found in unprocessed input data. A zero
// weight means the source did not record one and is treated as 1.
type RawEdge struct {
	From   string  `json:"from" bson:"from"`
	To     string  `json:"to" bson:"to"`
	Weight float64 `json:"weight,omitempty" bson:"weight,omitempty"`
}

// PrepareOptions tunes [Prepare]. The zero value uses
// [DefaultSinkFraction] and a fixed seed.
type PrepareOptions struct {
	// SinkFraction is the minimum share of nodes without outgoing
	// delegations after preparation.
	SinkFraction float64

	// Seed drives the random choices Prepare makes when it has to drop
	// delegations. The same inputs and seed always produce the same output.
	Seed int64
}

// Prepare turns a raw vertex and edge list into a well-formed adjacency map:
// parallel edges are merged, each node's outgoing weights are normalized to
// sum to 1, enough nodes are stripped of their delegations to meet the sink
// fraction, and delegation cycles with no path to any sink are broken by
// removing edges until every node can reach a sink.
//
// Real-world delegation data routinely violates all of these properties at
// once; Prepare makes the minimal random repairs needed so the result passes
// graph validation and has a meaningful resolution.
func Prepare(vertices []string, edges []RawEdge, opts PrepareOptions) (map[string]map[string]float64, error) {
	if opts.SinkFraction <= 0 {
		opts.SinkFraction = DefaultSinkFraction
	}
	rng := rand.New(rand.NewSource(opts.Seed))

	adj := map[string]map[string]float64{}
	known := map[string]bool{}
	for _, v := range vertices {
		known[v] = true
	}
	for _, e := range edges {
		if !known[e.From] || !known[e.To] {
			return nil, fmt.Errorf("edge %s -> %s references unknown vertex", e.From, e.To)
		}
		w := e.Weight
		if w == 0 {
			w = 1
		}
		if adj[e.From] == nil {
			adj[e.From] = map[string]float64{}
		}
		adj[e.From][e.To] += w
	}

	if err := ensureSinks(adj, vertices, opts.SinkFraction, rng); err != nil {
		return nil, err
	}
	normalize(adj)
	breakTerminalCycles(adj, vertices, rng)
	normalize(adj)
	return adj, nil
}

// ensureSinks removes all delegations from randomly chosen nodes until at
// least fraction of them are sinks.
func ensureSinks(adj map[string]map[string]float64, vertices []string, fraction float64, rng *rand.Rand) error {
	want := int(float64(len(vertices)) * fraction)
	if want < 1 {
		want = 1
	}
	sinks := 0
	var delegators []string
	for _, v := range slices.Sorted(slices.Values(vertices)) {
		if len(adj[v]) == 0 {
			sinks++
		} else {
			delegators = append(delegators, v)
		}
	}
	for sinks < want {
		if len(delegators) == 0 {
			return ErrNoSink
		}
		i := rng.Intn(len(delegators))
		delete(adj, delegators[i])
		delegators = slices.Delete(delegators, i, i+1)
		sinks++
	}
	return nil
}

// normalize scales every node's outgoing weights to sum to 1.
func normalize(adj map[string]map[string]float64) {
	for _, targets := range adj {
		var total float64
		for _, w := range targets {
			total += w
		}
		if total == 0 {
			continue
		}
		for to, w := range targets {
			targets[to] = w / total
		}
	}
}

// breakTerminalCycles removes edges from delegation cycles that no weight
// can leave until every strongly connected component has an escape.
func breakTerminalCycles(adj map[string]map[string]float64, vertices []string, rng *rand.Rand) {
	ids := slices.Sorted(slices.Values(vertices))
	out := func(id string) []string {
		return sortedKeys(adj[id])
	}
	for {
		broke := false
		for _, comp := range collapse.Components(ids, out) {
			if !terminal(adj, comp) {
				continue
			}
			// Self-loops are dropped outright; larger cycles lose one random
			// edge of one random member, making that member a sink.
			member := comp[rng.Intn(len(comp))]
			if len(comp) == 1 {
				delete(adj[member], member)
				if len(adj[member]) == 0 {
					delete(adj, member)
				}
			} else {
				delete(adj, member)
			}
			broke = true
		}
		if !broke {
			return
		}
	}
}

// terminal reports whether every member of comp delegates and no delegation
// leaves comp. Singletons only count when they hold all their weight in a
// self-loop.
func terminal(adj map[string]map[string]float64, comp []string) bool {
	members := map[string]bool{}
	for _, id := range comp {
		members[id] = true
	}
	for _, id := range comp {
		if len(adj[id]) == 0 {
			return false
		}
		for to := range adj[id] {
			if !members[to] {
				return false
			}
		}
	}
	return true
}
