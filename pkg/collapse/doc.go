// Package collapse contracts closed delegation cycles into absorbing sinks.
//
// # Overview
//
// A delegation graph may contain cycles among delegators. When such a cycle
// has no escaping path to a voter, the weight entering it circulates forever:
// it is permanently lost. The resolvers require a graph without these traps,
// so [Collapse] rewrites each one into a single terminal absorber node while
// recording which original nodes it stands for.
//
// Detection is strongly-connected-component analysis: a component is a closed
// cycle exactly when it is a sink in the condensation graph and contains no
// voter. [Components] exposes the underlying iterative Tarjan SCC computation
// for other consumers (the graph generator uses it to break terminal cycles
// at generation time).
//
// # Usage
//
//	c, err := collapse.Collapse(g)
//	if err != nil { ... }
//	result, err := linsys.New().Resolve(c)
//
// Collapsing an already-collapsed graph is a no-op that returns the same
// graph and an empty cycle map.
package collapse
