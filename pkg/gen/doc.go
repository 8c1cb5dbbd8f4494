// Package gen creates and repairs delegation graphs.
//
// [Delegations] generates random but reproducible delegation graphs for
// testing and benchmarking, with tunable size and cycle count. [Prepare]
// takes messy real-world vertex and edge lists and repairs them into the
// well-formed adjacency maps the rest of the system expects.
package gen
