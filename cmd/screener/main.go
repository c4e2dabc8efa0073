// Command screener ranks NSE underlyings for option selling.
package main

import (
	"fmt"
	"os"

	"options-screener/internal/cli"
	"options-screener/internal/logging"
)

func main() {
	if err := cli.NewRootCmd(logging.NewLogger()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
