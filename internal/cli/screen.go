package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"options-screener/internal/models"
	"options-screener/internal/options"
	"options-screener/internal/screener"
	"options-screener/internal/universe"
	"options-screener/pkg/utils"
)

func newScreenCmd(app *App) *cobra.Command {
	var (
		strategy    string
		expiryMonth int
		all         bool
	)

	cmd := &cobra.Command{
		Use:   "screen [symbols...]",
		Short: "Screen symbols for option selling",
		Long: `Screen one or more symbols and rank them by extrinsic value as a percentage
of strike.`,
		Example: `  screener screen NIFTY BANKNIFTY RELIANCE --strategy CCP
  screener screen --all --strategy ACC --expiry 1
  screener screen TCS --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			symbols := args
			if all {
				symbols = universe.Symbols()
			}
			if len(symbols) == 0 {
				return fmt.Errorf("no symbols given; pass symbols or --all")
			}

			pipeline, err := app.Pipeline(cmd.Context())
			if err != nil {
				return err
			}

			req := screener.Request{
				Symbols:     symbols,
				Strategy:    strings.ToUpper(strategy),
				ExpiryMonth: &expiryMonth,
			}
			resp, err := pipeline.Run(cmd.Context(), req)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(resp)
			}
			renderScreen(output, models.Strategy(req.Strategy), resp)
			return nil
		},
	}

	cmd.Flags().StringVarP(&strategy, "strategy", "s", "CCP", "strategy: CCP (puts) or ACC (calls)")
	cmd.Flags().IntVarP(&expiryMonth, "expiry", "e", 0, "monthly expiry slot: 0 (current) to 3")
	cmd.Flags().BoolVar(&all, "all", false, "screen every listed underlying")
	return cmd
}

func renderScreen(output *Output, strategy models.Strategy, resp *screener.Response) {
	output.Printf("%s  %s  %s\n",
		output.BoldText(fmt.Sprintf("%s screen", strategy)),
		output.MarketStatus(string(utils.GetMarketStatus())),
		output.DimText(FormatTimestamp(resp.Timestamp)))
	output.Println()

	if len(resp.Results) > 0 {
		table := NewTable(output, "SYMBOL", "SPOT", "TYPE", "STRIKE", "LTP", "INTRINSIC", "EXTRINSIC", "EV%", "DTE", "SELL?")
		for _, r := range resp.Results {
			table.AddRow(
				r.Symbol,
				FormatIndianCurrency(r.SpotPrice),
				string(r.OptionType),
				FormatIndianCurrency(r.StrikePrice),
				FormatIndianCurrency(r.OptionLTP),
				FormatIndianCurrency(r.IntrinsicValue),
				FormatIndianCurrency(r.ExtrinsicValue),
				FormatEV(r.EVPercentage),
				FormatDays(r.DaysToExpiry),
				output.Recommendation(string(r.Recommendation)),
			)
		}
		table.Render()
	} else {
		output.Warning("No results")
	}

	if len(resp.Errors) > 0 {
		output.Println()
		output.Bold("Skipped")
		for _, e := range resp.Errors {
			output.Printf("  %-12s %s\n", e.Symbol, output.Red(e.Error))
		}
	}
}

func newExpiriesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "expiries <symbol>",
		Short:   "List the monthly expiry slots for a symbol",
		Args:    cobra.ExactArgs(1),
		Example: "  screener expiries NIFTY",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			pipeline, err := app.Pipeline(cmd.Context())
			if err != nil {
				return err
			}
			symbol := screener.NormalizeSymbol(args[0])
			expiries, err := pipeline.MonthlyExpiries(cmd.Context(), symbol)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"symbol":   symbol,
					"expiries": expiries,
				})
			}

			output.Bold("%s monthly expiries", symbol)
			table := NewTable(output, "SLOT", "EXPIRY", "DTE")
			for _, e := range expiries {
				table.AddRow(fmt.Sprintf("%d", e.Month), FormatExpiry(e.Date), FormatDays(e.DaysToExpiry))
			}
			table.Render()
			return nil
		},
	}
}

func newStocksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stocks",
		Short: "List the underlyings offered for screening",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			instruments := universe.Instruments()
			if output.IsJSON() {
				output.JSON(instruments)
				return
			}
			table := NewTable(output, "SYMBOL", "NAME", "TYPE", "EV THRESHOLD")
			for _, inst := range instruments {
				table.AddRow(inst.Symbol, inst.Name, string(inst.Type), FormatEV(options.Threshold(inst.Symbol)))
			}
			table.Render()
		},
	}
}
