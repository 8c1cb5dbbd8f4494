package graph

import (
	"fmt"
	"slices"
)

// =============================================================================
// Serialization Types
// =============================================================================

// Document is the canonical serialization format for delegation graphs.
// Used for CLI input/output, caching, the HTTP API, and run storage.
//
// The format is human-readable and round-trip safe: export followed by
// re-import produces an equal graph.
type Document struct {
	Nodes []NodeDoc `json:"nodes" bson:"nodes"`
	Edges []EdgeDoc `json:"edges" bson:"edges"`
}

// NodeDoc is the serialized form of a node.
type NodeDoc struct {
	ID     string  `json:"id" bson:"id"`
	Weight float64 `json:"weight,omitempty" bson:"weight,omitempty"` // Defaults to 1 on import
	Role   string  `json:"role,omitempty" bson:"role,omitempty"`     // "voter", "delegator", "absorber"
}

// EdgeDoc is the serialized form of a delegation.
type EdgeDoc struct {
	From   string  `json:"from" bson:"from"`
	To     string  `json:"to" bson:"to"`
	Weight float64 `json:"weight" bson:"weight"`
}

// =============================================================================
// Conversion
// =============================================================================

// ToDocument converts a graph to its serialization format.
// Nodes and edges are sorted by ID for deterministic output, which keeps
// graph hashes stable for caching.
func ToDocument(g *Graph) Document {
	var doc Document
	for _, id := range g.IDs() {
		n, _ := g.Node(id)
		doc.Nodes = append(doc.Nodes, NodeDoc{
			ID:     n.ID,
			Weight: n.Weight,
			Role:   g.Role(id).String(),
		})
		for _, e := range g.Out(id) {
			doc.Edges = append(doc.Edges, EdgeDoc{From: id, To: e.To, Weight: e.Weight})
		}
	}
	slices.SortFunc(doc.Edges, func(a, b EdgeDoc) int {
		if a.From != b.From {
			if a.From < b.From {
				return -1
			}
			return 1
		}
		if a.To < b.To {
			return -1
		}
		if a.To > b.To {
			return 1
		}
		return 0
	})
	return doc
}

// FromDocument rebuilds and validates a graph from its serialization format.
// A node with omitted weight gets the default intrinsic weight 1. The Role
// field is informational except for "absorber", which is restored so that a
// re-imported collapsed graph keeps its absorbing sinks.
func FromDocument(doc Document) (*Graph, error) {
	g := New()
	for _, n := range doc.Nodes {
		w := n.Weight
		if w == 0 {
			w = 1
		}
		node := Node{ID: n.ID, Weight: w, Absorber: n.Role == RoleAbsorber.String()}
		if err := g.AddNode(node); err != nil {
			return nil, fmt.Errorf("node %q: %w", n.ID, err)
		}
	}
	for _, e := range doc.Edges {
		if err := g.AddEdge(e.From, e.To, e.Weight); err != nil {
			return nil, fmt.Errorf("edge %q -> %q: %w", e.From, e.To, err)
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
