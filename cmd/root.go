package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"recipes/internal/config"
	"recipes/internal/logger"
)

var version = "1.0.0"

// appConfig is set by Execute, or loaded before the first command runs.
var appConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "recipes",
	Short: "Recipes CLI - render insurance recipes (Rückforderungsbelege) as PDF",
	Long: `Recipes CLI lays out the insurance recipe ("Rückforderungsbeleg") of an
invoice: the info header, the service records paginated with subtotals and
the closing summary by tariff category.

Invoices are read from the JSON export of the billing system. Rendered
recipes can be checked with Google Cloud OCR and their summaries exported
to Google Sheets.`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if appConfig != nil {
			return nil
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		appConfig = cfg
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("Recipes CLI executed")

		fmt.Println("Welcome to Recipes CLI!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

// Execute runs the root command with cfg. A nil cfg is loaded from the
// environment when a command runs, so configuration errors surface there.
func Execute(cfg *config.Config) {
	log := logger.WithComponent("cmd")
	appConfig = cfg

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
