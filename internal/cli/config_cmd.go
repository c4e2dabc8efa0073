package cli

import (
	"github.com/spf13/cobra"

	"options-screener/internal/config"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(redacted(app.Config))
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file paths",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			paths := map[string]string{
				"dir":         app.Config.Dir,
				"config":      config.ConfigPath(app.Config.Dir),
				"credentials": config.CredentialsPath(app.Config.Dir),
			}
			if output.IsJSON() {
				output.JSON(paths)
				return
			}
			output.Println(paths["config"])
			output.Println(paths["credentials"])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

// redacted returns a copy of cfg safe to print.
func redacted(cfg *config.Config) config.Config {
	out := *cfg
	if out.Credentials.Zerodha.APIKey != "" {
		out.Credentials.Zerodha.APIKey = maskSecret(out.Credentials.Zerodha.APIKey)
	}
	if out.Credentials.Zerodha.AccessToken != "" {
		out.Credentials.Zerodha.AccessToken = "****"
	}
	return out
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Server")
	output.Printf("  Address:         %s\n", cfg.Server.Address)
	output.Printf("  CORS Origin:     %s\n", cfg.Server.CORSOrigin)
	output.Println()

	output.Bold("Market Data")
	output.Printf("  Source:          %s\n", cfg.MarketData.Source)
	output.Printf("  Timeout:         %s\n", cfg.MarketData.RequestTimeout)
	output.Printf("  Retry Attempts:  %d\n", cfg.MarketData.Retry.Attempts)
	output.Printf("  Breaker:         %d failures, %s cooldown\n",
		cfg.MarketData.Breaker.FailureThreshold, cfg.MarketData.Breaker.Cooldown)
	output.Printf("  Kite API Key:    %s\n", maskSecret(cfg.Credentials.Zerodha.APIKey))
	output.Println()

	output.Bold("Cache")
	output.Printf("  Backend:         %s\n", cfg.Cache.Backend)
	output.Printf("  TTL:             %s\n", cfg.Cache.TTL)
	output.Println()

	output.Bold("Screener")
	output.Printf("  Concurrency:     %d\n", cfg.Screener.Concurrency)
	output.Printf("  Max Symbols:     %d\n", cfg.Screener.MaxSymbols)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:           %s\n", cfg.Logging.Level)
	output.Printf("  File:            %v\n", cfg.Logging.File)
}

func maskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "****"
}
