package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"options-screener/internal/api"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the screening API:

  GET  /health
  GET  /api/stocks
  POST /api/screen          {"symbols": [...], "strategy": "CCP"|"ACC", "expiryMonth": 0-3}
  GET  /api/expiries/:symbol`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			pipeline, err := app.Pipeline(ctx)
			if err != nil {
				return err
			}

			sc := app.Config.Server
			if addr != "" {
				sc.Address = addr
			}
			debug, _ := cmd.Flags().GetBool("debug")

			server := api.NewServer(api.Config{
				Address:         sc.Address,
				CORSOrigin:      sc.CORSOrigin,
				ReadTimeout:     sc.ReadTimeout,
				WriteTimeout:    sc.WriteTimeout,
				ShutdownTimeout: sc.ShutdownTimeout,
				Debug:           debug,
			}, pipeline, app.Logger)

			app.Logger.Info().
				Str("source", pipeline.Source().Name()).
				Str("cache", app.Config.Cache.Backend).
				Msg("Screener API ready")

			if err := server.Run(ctx); err != nil && err != context.Canceled {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.address)")
	return cmd
}
