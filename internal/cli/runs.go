package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// runsCommand creates the "runs" command.
func (c *CLI) runsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List past resolutions",
		Long: `List past resolutions from the run store.

Requires a MongoDB store configured via the config file; without one, runs
are only kept for the lifetime of a single process.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRuns(cmd, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum runs to list")

	return cmd
}

func (c *CLI) runRuns(cmd *cobra.Command, limit int) error {
	ctx := cmd.Context()

	if c.Config.Store.MongoURI == "" {
		printInfo("No run store configured")
		printNextStep("Configure one in", "~/.config/delegraph/config.toml ([store] mongo_uri)")
		return nil
	}

	st, err := c.newStore(ctx)
	if err != nil {
		return fmt.Errorf("connect store: %w", err)
	}
	defer st.Close(ctx)

	runs, err := st.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		printInfo("No runs recorded yet")
		return nil
	}

	for _, run := range runs {
		status := StyleSuccess.Render("converged")
		if !run.Converged {
			status = StyleWarning.Render("best-effort")
		}
		fmt.Printf("%s  %s  %s\n",
			StyleDim.Render(run.CreatedAt.Format("2006-01-02 15:04:05")),
			StyleValue.Render(fmt.Sprintf("%-9s", run.Engine)),
			status)
		printDetail("%d nodes · %d voters · %d cycles · %.4f absorbed · %dms · %s",
			run.Nodes, run.Voters, run.Cycles, run.Absorbed, run.DurationMS, run.GraphHash[:12])
	}
	return nil
}
