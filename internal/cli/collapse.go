package cli

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/delegraph/delegraph/pkg/collapse"
	"github.com/delegraph/delegraph/pkg/graph"
)

// collapseCommand creates the "collapse" command.
func (c *CLI) collapseCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "collapse <graph.json>",
		Short: "Contract closed delegation cycles into absorbing nodes",
		Long: `Contract closed delegation cycles into absorbing nodes.

A closed cycle is a group of delegators whose weight can never reach a
voter. Each such group is replaced by a single absorbing node; the weight
delegated into it is reported as lost.

Examples:
  delegraph collapse graph.json
  delegraph collapse graph.json -o collapsed.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCollapse(cmd, args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")

	return cmd
}

func (c *CLI) runCollapse(cmd *cobra.Command, path, output string) error {
	logger := loggerFromContext(cmd.Context())

	g, err := graph.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read graph: %w", err)
	}
	if err := g.Validate(); err != nil {
		return fmt.Errorf("validate graph: %w", err)
	}

	prog := newProgress(logger)
	collapsed, err := collapse.Collapse(g)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Collapsed %d cycles", len(collapsed.Cycles)))

	if len(collapsed.Cycles) == 0 {
		printInfo("No closed delegation cycles found")
	}
	for _, id := range slices.Sorted(maps.Keys(collapsed.Cycles)) {
		printDetail("%s absorbs %d members", id, len(collapsed.Cycles[id]))
	}
	printStats(collapsed.Graph.NodeCount(), collapsed.Graph.EdgeCount(), len(collapsed.Cycles), false)

	return writeGraph(collapsed.Graph, output, logger)
}
