// Package cli provides the command-line interface for the screener.
package cli

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"options-screener/internal/cache"
	"options-screener/internal/config"
	"options-screener/internal/logging"
	"options-screener/internal/marketdata"
	"options-screener/internal/screener"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-01-01"
)

// App holds the application dependencies. The market-data source and cache
// are opened on first use so commands that do not screen stay cheap.
type App struct {
	Config *config.Config
	Logger zerolog.Logger

	once     sync.Once
	initErr  error
	source   marketdata.Source
	cache    cache.Cache
	pipeline *screener.Pipeline
}

// Pipeline returns the screening pipeline, building it on first call.
func (a *App) Pipeline(ctx context.Context) (*screener.Pipeline, error) {
	a.once.Do(func() {
		a.source, a.initErr = marketdata.New(a.Config.MarketDataSource(), a.Logger)
		if a.initErr != nil {
			return
		}
		a.cache, a.initErr = cache.New(ctx, a.Config.CacheBackend())
		if a.initErr != nil {
			return
		}
		a.Logger.Debug().Str("backend", a.Config.Cache.Backend).Msg("Result cache initialized")
		a.pipeline = screener.New(a.source, a.cache, a.Config.ScreenerOptions(), a.Logger)
	})
	return a.pipeline, a.initErr
}

// Close releases the cache.
func (a *App) Close() error {
	if a.cache != nil {
		return a.cache.Close()
	}
	return nil
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(logger zerolog.Logger) *cobra.Command {
	app := &App{Logger: logger}

	rootCmd := &cobra.Command{
		Use:   "screener",
		Short: "NSE options screener for covered-put and covered-call selling",
		Long: `Options Screener ranks NSE underlyings by the time value of their nearest
in-the-money option.

CCP (cash-covered put) screens puts, ACC (asset-covered call) screens calls.
A contract is recommended when its extrinsic value exceeds 1% of strike for
indices or 2% for stocks.

Run 'screener serve' for the HTTP API or 'screener screen' for a one-off run.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(dir)
			if err != nil {
				return err
			}
			app.Config = cfg
			app.Logger = logging.NewLoggerWithConfig(cfg.LogConfig())

			// Handle debug flag
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				app.Config.Logging.Level = "debug"
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.Close()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/options-screener)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newServeCmd(app))
	rootCmd.AddCommand(newScreenCmd(app))
	rootCmd.AddCommand(newExpiriesCmd(app))
	rootCmd.AddCommand(newStocksCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// Version needs no configuration.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("Options Screener v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}
