// Package render draws delegation graphs as node-link diagrams.
//
// # Overview
//
// This package produces directed graph visualizations using Graphviz, where
// participants appear as boxes connected by weighted delegation arrows.
//
// # Usage
//
// Convert a graph to DOT format, then render to SVG or PNG:
//
//	dot := render.ToDOT(g, render.Options{EdgeLabels: true})
//	svg, err := render.RenderSVG(ctx, dot)
//
// # Node Styles
//
// Node roles are distinguished visually:
//
//   - Voters: double border
//   - Delegators: plain rounded box
//   - Absorbing cycles: dashed grey outline
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process rendering,
// so no external Graphviz installation is required.
package render
