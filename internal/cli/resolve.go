package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/delegraph/delegraph/pkg/graph"
	"github.com/delegraph/delegraph/pkg/pipeline"
	"github.com/delegraph/delegraph/pkg/resolve"
)

// resolveOpts holds the command-line flags for the resolve command.
type resolveOpts struct {
	engine        string  // resolution engine
	tolerance     float64 // iterative convergence threshold
	maxIterations int     // iterative sweep cap
	check         bool    // cross-check with a second engine
	watch         bool    // live convergence view (iterative only)
	noCache       bool    // disable the result cache
	refresh       bool    // bypass and overwrite cached results
	top           int     // voters to display
	output        string  // output file path (none if empty)
}

// resolveCommand creates the "resolve" command.
func (c *CLI) resolveCommand() *cobra.Command {
	opts := resolveOpts{top: 10}

	cmd := &cobra.Command{
		Use:   "resolve <graph.json>",
		Short: "Compute every voter's accumulated power",
		Long: `Compute every voter's accumulated voting power.

Closed delegation cycles are collapsed first; the remaining graph is
resolved with the chosen engine. All engines produce the same distribution
on well-formed graphs, so --check can verify one against another.

Engines:
  linear     Solve the balance equations directly (default)
  lp         Solve as a linear program
  iterative  Push weight along delegations until convergence

Examples:
  delegraph resolve graph.json
  delegraph resolve graph.json --engine lp --check
  delegraph resolve graph.json --engine iterative --watch
  delegraph resolve graph.json -o result.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runResolve(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.engine, "engine", "e", "", "resolution engine: linear, lp, iterative (default from config)")
	cmd.Flags().Float64Var(&opts.tolerance, "tolerance", 0, "iterative convergence threshold")
	cmd.Flags().IntVar(&opts.maxIterations, "max-iterations", 0, "iterative sweep cap")
	cmd.Flags().BoolVar(&opts.check, "check", false, "cross-check the result with a second engine")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "live convergence view (iterative engine only)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass and overwrite cached results")
	cmd.Flags().IntVar(&opts.top, "top", opts.top, "number of voters to display (0 for all)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the full result as JSON")

	return cmd
}

func (c *CLI) runResolve(cmd *cobra.Command, path string, opts resolveOpts) error {
	ctx := cmd.Context()

	g, err := graph.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read graph: %w", err)
	}

	popts := c.pipelineOptions(opts)
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	var result *pipeline.Result
	var runErr error
	if opts.watch && popts.Engine == pipeline.EngineIterative {
		result, runErr = watchResolve(ctx, runner, g, popts)
	} else {
		spin := newSpinnerWithContext(ctx, fmt.Sprintf("Resolving %d nodes", g.NodeCount()))
		spin.Start()
		result, runErr = runner.Execute(ctx, g, popts)
		spin.Stop()
	}

	if runErr != nil && !errors.Is(runErr, resolve.ErrNonConvergence) {
		return runErr
	}
	if errors.Is(runErr, resolve.ErrNonConvergence) {
		printWarning("Did not converge after %d iterations; result is best-effort", result.Resolution.Iterations)
	}

	printResolution(result, opts.top)

	if opts.output != "" {
		if err := writeResult(result.Resolution, opts.output); err != nil {
			return err
		}
		printFile(opts.output)
	}
	return runErr
}

// pipelineOptions merges command flags with config defaults.
func (c *CLI) pipelineOptions(opts resolveOpts) pipeline.Options {
	popts := pipeline.Options{
		Engine:        opts.engine,
		Tolerance:     opts.tolerance,
		MaxIterations: opts.maxIterations,
		Check:         opts.check,
		Refresh:       opts.refresh,
		Logger:        c.Logger,
	}
	if popts.Engine == "" {
		popts.Engine = c.Config.Resolve.Engine
	}
	if popts.Tolerance == 0 {
		popts.Tolerance = c.Config.Resolve.Tolerance
	}
	if popts.MaxIterations == 0 {
		popts.MaxIterations = c.Config.Resolve.MaxIterations
	}
	return popts
}

// printResolution prints the power distribution summary.
func printResolution(result *pipeline.Result, top int) {
	res := result.Resolution

	printNewline()
	printSuccess("Resolved with %s engine", res.Engine)
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.Stats.CycleCount, result.CacheInfo.ResultHit)
	printNewline()

	voters := slices.Sorted(maps.Keys(res.Credited))
	slices.SortStableFunc(voters, func(a, b string) int {
		switch {
		case res.Credited[a] > res.Credited[b]:
			return -1
		case res.Credited[a] < res.Credited[b]:
			return 1
		default:
			return 0
		}
	})
	shown := len(voters)
	if top > 0 && shown > top {
		shown = top
	}
	for _, id := range voters[:shown] {
		printKeyValue(id, fmt.Sprintf("%.4f", res.Credited[id]))
	}
	if shown < len(voters) {
		printDetail("… and %d more voters", len(voters)-shown)
	}

	printNewline()
	printKeyValue("total", fmt.Sprintf("%.4f", res.CreditedTotal()))
	if res.Absorbed > 0 {
		printWarning("%.4f weight absorbed by %d closed cycles", res.Absorbed, len(res.AbsorbedByCycle))
	}
	if result.CrossCheck != nil {
		printSuccess("Cross-check with %s engine agrees", result.CrossCheck.Engine)
	}
}

// writeResult serializes the resolution as indented JSON.
func writeResult(res *resolve.Result, path string) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
