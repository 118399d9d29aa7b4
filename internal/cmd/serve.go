package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"pop/internal/server"
)

func newServeCommand(opts *globalOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the index over HTTP",
		Long: `Serve the index over a JSON HTTP API until interrupted.

Endpoints:
  GET  /api/search   query parameters mirror the search flags
  POST /api/index    body {"root": "...", "reindex": false}, runs in the background
  POST /api/clear    remove every entry
  GET  /api/status   last index run and index totals`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cfg, cleanup, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			addr := cfg.ListenAddr
			if listen != "" {
				addr = listen
			}

			log.Info().Str("addr", addr).Str("db", cfg.DBPath).Msg("listening")
			if err := server.New(a).Start(cmd.Context(), addr); err != nil {
				return err
			}
			log.Info().Msg("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Address to listen on (overrides listen_addr)")

	return cmd
}
