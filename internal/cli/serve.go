package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rwyengine/relmap/internal/server"
	"github.com/rwyengine/relmap/pkg/store"
)

// serveCommand creates the serve command for the HTTP preview server.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve relationship maps over HTTP",
		Long: `Serve relationship maps over HTTP.

The serve command starts a preview server exposing the entry store and the
map pipeline as a JSON/image API:

  GET  /healthz              liveness check
  GET  /api/entries          list entries (?q= filters by title)
  POST /api/entries          create an entry
  GET  /api/relationships    list relationships
  POST /api/relationships    create a relationship
  GET  /api/graph            derived graph as JSON
  GET  /api/layout           computed layout as JSON
  GET  /api/map.png          rendered map (also .svg, .dot)

Map endpoints accept mode, root, q, focus, scale, labels, and edge_labels
query parameters, mirroring the CLI flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.Config.Server.Addr
			}

			st, err := store.Open(c.Config.DBPath)
			if err != nil {
				return fmt.Errorf("open database %s: %w", c.Config.DBPath, err)
			}
			defer st.Close()

			runner, err := c.newRunner(false)
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := server.New(server.Config{
				Addr:   addr,
				DBPath: c.Config.DBPath,
				Store:  st,
				Runner: runner,
				Logger: c.Logger,
			})

			printInfo("serving %s on %s", c.Config.DBPath, StyleHighlight.Render(addr))
			printDetail("press ctrl+c to stop")
			return srv.ListenAndServe(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default from config, :8080)")

	return cmd
}
