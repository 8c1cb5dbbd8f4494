// Package graph models weighted liquid-democracy delegation graphs.
//
// # Overview
//
// A delegation graph is a directed weighted graph where each node is either a
// voter (no outgoing edges, retains all weight routed to it) or a delegator
// (splits its full voting power across outgoing edges whose weights sum to 1).
// Cycles are legal only when fully contained among delegators; the collapse
// package contracts those into absorbing sinks before resolution.
//
// The representation is deliberately flat - a node set with intrinsic weights
// plus an adjacency map of (target, weight) pairs - so graphs serialize
// trivially and port across tools.
//
// # Building Graphs
//
// Programmatic construction:
//
//	g := graph.New()
//	g.AddNode(graph.Node{ID: "a", Weight: 1})
//	g.AddNode(graph.Node{ID: "b", Weight: 1})
//	g.AddEdge("a", "b", 1.0)
//	if err := g.Validate(); err != nil { ... }
//
// From raw adjacency data (the input boundary for generators and loaders):
//
//	g, err := graph.FromMap(map[string]map[string]float64{
//	    "a": {"b": 0.6, "c": 0.4},
//	}, nil) // nil weights = uniform intrinsic weight 1
//
// # Immutability
//
// A validated Graph is treated as read-only by all downstream packages. The
// collapser derives a new graph rather than mutating its input, so concurrent
// resolution requests can share one Graph without locking.
package graph
