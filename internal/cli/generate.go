package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/delegraph/delegraph/pkg/gen"
	"github.com/delegraph/delegraph/pkg/graph"
)

// generateOpts holds the command-line flags for the generate command.
type generateOpts struct {
	loops  int    // delegation cycles to inject
	seed   int64  // random seed for reproducibility
	output string // output file path (stdout if empty)
}

// generateCommand creates the "generate" command.
func (c *CLI) generateCommand() *cobra.Command {
	opts := generateOpts{seed: 42}

	cmd := &cobra.Command{
		Use:   "generate <nodes>",
		Short: "Generate a random delegation graph",
		Long: `Generate a random but reproducible delegation graph.

Each node delegates to up to three earlier nodes with tenth-fraction
weights summing to 1. Cycles can be injected with --loops; injection never
disconnects a node from all sinks, so the graph stays resolvable.

Examples:
  delegraph generate 100                     # 100 nodes, no cycles
  delegraph generate 100 --loops 5           # with 5 delegation cycles
  delegraph generate 100 --seed 7 -o g.json  # reproducible, to file`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("invalid node count: %q", args[0])
			}
			return c.runGenerate(cmd, n, opts)
		},
	}

	cmd.Flags().IntVar(&opts.loops, "loops", 0, "number of delegation cycles to inject")
	cmd.Flags().Int64Var(&opts.seed, "seed", opts.seed, "random seed")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")

	return cmd
}

func (c *CLI) runGenerate(cmd *cobra.Command, n int, opts generateOpts) error {
	logger := loggerFromContext(cmd.Context())
	prog := newProgress(logger)

	adj, nodes := gen.Delegations(n, opts.loops, opts.seed)
	weights := make(map[string]float64, len(nodes))
	for _, id := range nodes {
		weights[id] = 1
	}
	g, err := graph.FromMap(adj, weights)
	if err != nil {
		return fmt.Errorf("build graph: %w", err)
	}

	prog.done(fmt.Sprintf("Generated %d nodes with %d delegations", g.NodeCount(), g.EdgeCount()))
	return writeGraph(g, opts.output, logger)
}

// writeGraph serializes g as JSON to the specified path (or stdout if empty).
// The logger is notified on success with the output path.
func writeGraph(g *graph.Graph, path string, logger interface{ Infof(string, ...any) }) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := graph.Write(g, out); err != nil {
		return err
	}
	if path != "" {
		logger.Infof("Wrote graph to %s", path)
	}
	return nil
}

// nopCloser wraps an io.Writer with a no-op Close method.
// It is used to make os.Stdout compatible with io.WriteCloser.
type nopCloser struct{ io.Writer }

// Close implements io.Closer with a no-op.
func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for the given path.
// If path is empty, it returns os.Stdout wrapped in nopCloser.
// Otherwise, it creates the file at path, overwriting if it exists.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}
