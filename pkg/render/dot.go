package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/delegraph/delegraph/pkg/graph"
)

// Options configures diagram rendering.
type Options struct {
	// Weights includes the intrinsic voting weight in every node label.
	Weights bool

	// EdgeLabels annotates each delegation edge with its fraction.
	EdgeLabels bool
}

// ToDOT converts a delegation graph to Graphviz DOT format. The resulting
// DOT string can be rendered with [RenderSVG] or [RenderPNG], or processed
// by external Graphviz tools.
//
// Voters are drawn with a double border, delegators as plain rounded boxes,
// and absorbing cycle nodes with dashed grey outlines to mark weight that
// has left the electorate.
func ToDOT(g *graph.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph delegations {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, id := range g.IDs() {
		n, _ := g.Node(id)
		label := fmtLabel(n, opts.Weights)
		attrs := fmtAttrs(g, id, label)
		fmt.Fprintf(&buf, "  %q [%s];\n", id, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, id := range g.IDs() {
		for _, e := range g.Out(id) {
			if opts.EdgeLabels {
				fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", id, e.To, trimFloat(e.Weight))
			} else {
				fmt.Fprintf(&buf, "  %q -> %q;\n", id, e.To)
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n graph.Node, weights bool) string {
	if !weights {
		return n.ID
	}
	return n.ID + "\nweight: " + trimFloat(n.Weight)
}

func fmtAttrs(g *graph.Graph, id, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch g.Role(id) {
	case graph.RoleVoter:
		attrs = append(attrs, "peripheries=2")
	case graph.RoleAbsorber:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=black")
	}
	return attrs
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%.4f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	return renderFormat(ctx, dot, graphviz.SVG)
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return renderFormat(ctx, dot, graphviz.PNG)
}

func renderFormat(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
