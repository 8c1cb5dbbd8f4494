package cli

import (
	"github.com/spf13/cobra"

	"github.com/delegraph/delegraph/internal/server"
)

// serveOpts holds options for the serve command.
type serveOpts struct {
	addr string
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	opts := &serveOpts{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Start an HTTP server exposing the resolution pipeline.

The server offers JSON endpoints for resolving, collapsing, and generating
delegation graphs, plus run history when a MongoDB store is configured.

Examples:
  delegraph serve
  delegraph serve --addr :9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default: from config)")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, opts *serveOpts) error {
	ctx := cmd.Context()

	addr := opts.addr
	if addr == "" {
		addr = c.Config.Server.Addr
	}

	runner, err := c.newRunner(ctx, false)
	if err != nil {
		return err
	}
	defer runner.Close()

	srv := server.New(runner, runner.Store, c.Logger)

	printInfo("Listening on %s", addr)
	return srv.ListenAndServe(ctx, addr)
}
