package gen

import (
	"math"
	"math/rand"
	"slices"
	"strconv"
)

// weightChoices is the pool of delegation fractions the generator draws
// from: tenths from 0.2 through 1.0. Coarse fractions keep generated graphs
// readable and their weight sums exactly representable.
var weightChoices = []float64{0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}

// randomWeights draws at most n fractions from weightChoices that sum to 1.
// Fewer than n may be returned when an early draw consumes the full budget.
func randomWeights(n int, rng *rand.Rand) []float64 {
	if n == 0 {
		return nil
	}
	diff := 1.0
	var weights []float64
	for i := 0; i < n-1; i++ {
		// A handful of attempts to find a fraction that leaves room for the
		// remaining draws; give up on this slot otherwise.
		for try := 0; try < 11; try++ {
			choice := weightChoices[rng.Intn(len(weightChoices))]
			if diff-choice > 0 {
				weights = append(weights, choice)
				diff -= choice
				break
			}
		}
	}
	if diff > 0 {
		weights = append(weights, math.Round(diff*10)/10)
	}
	return weights
}

// connectedToSink reports whether any delegation path from start reaches a
// node with no outgoing delegations.
func connectedToSink(adj map[string]map[string]float64, start string) bool {
	visited := map[string]bool{}
	var dfs func(node string) bool
	dfs = func(node string) bool {
		if visited[node] {
			return false
		}
		visited[node] = true
		targets := adj[node]
		if len(targets) == 0 {
			return true
		}
		for _, next := range sortedKeys(targets) {
			if dfs(next) {
				return true
			}
		}
		return false
	}
	return dfs(start)
}

// Delegations generates a random delegation graph with numNodes nodes and up
// to numLoops injected delegation cycles, returning the adjacency map (ready
// for graph.FromMap) and the node IDs in creation order.
//
// Each node receives between 0 and 3 delegations to earlier nodes with
// tenth-fraction weights summing to 1. Cycle injection only ever adds a loop
// that keeps the looped node connected to some sink, so every generated
// graph remains resolvable. All randomness comes from the explicit seed; the
// same inputs always produce the same graph.
func Delegations(numNodes, numLoops int, seed int64) (map[string]map[string]float64, []string) {
	rng := rand.New(rand.NewSource(seed))

	nodes := make([]string, 0, numNodes)
	adj := map[string]map[string]float64{}

	for i := 0; i < numNodes; i++ {
		node := strconv.Itoa(i)
		nodes = append(nodes, node)

		maxDeg := 3
		if i < maxDeg {
			maxDeg = i
		}
		numDelegations := rng.Intn(maxDeg + 1)
		if numDelegations == 0 {
			continue
		}

		weights := randomWeights(numDelegations, rng)
		delegates := pick(nodes, len(weights), rng)
		// Reverse-sorted so a self-delegation, if drawn, is handled first.
		slices.Sort(delegates)
		slices.Reverse(delegates)

		for j := 0; j < len(weights); j++ {
			delegate := delegates[j]
			w := weights[j]

			// A node delegating its full power to itself would neither vote
			// nor delegate; fold the weight elsewhere or drop the node's
			// delegations entirely.
			selfTotal := adj[node][node] + w
			if delegate == node && (w >= 1-1e-12 || selfTotal >= 1-1e-12) {
				if len(delegates) == 1 {
					break
				}
				if j+1 < len(weights) {
					weights[j+1] += w
				}
				continue
			}

			if adj[node] == nil {
				adj[node] = map[string]float64{}
			}
			adj[node][delegate] += w
		}
	}

	for i := 0; i < numLoops; i++ {
		injectLoop(adj, nodes, rng)
	}

	return adj, nodes
}

// injectLoop tries to close one delegation cycle without cutting any node
// off from the sinks.
func injectLoop(adj map[string]map[string]float64, nodes []string, rng *rand.Rand) {
	var node string
	for try := 0; try < len(nodes); try++ {
		candidate := nodes[rng.Intn(len(nodes))]
		if len(adj[candidate]) > 0 {
			node = candidate
			break
		}
	}
	if node == "" {
		return
	}

	for _, delegate := range sortedKeys(adj[node]) {
		if len(adj[delegate]) == 0 {
			// The delegate is a sink: closing the loop turns it into a
			// delegator, which is only legal if node can still reach some
			// other sink.
			adj[delegate] = map[string]float64{node: 1}
			if !connectedToSink(adj, node) {
				delete(adj, delegate)
				continue
			}
			return
		}

		// The delegate already delegates: siphon off a fraction towards node.
		// Weight 1 is excluded since a full redirect could trap the weight.
		w := weightChoices[rng.Intn(len(weightChoices)-1)]
		for k, v := range adj[delegate] {
			adj[delegate][k] = (1 - w) * v
		}
		adj[delegate][node] += w
		return
	}
}

// pick returns n distinct random elements of pool.
func pick(pool []string, n int, rng *rand.Rand) []string {
	idx := rng.Perm(len(pool))
	if n > len(pool) {
		n = len(pool)
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = pool[idx[i]]
	}
	return out
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
