package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"stock-service/internal/config"
	"stock-service/internal/grid"
)

var (
	verbose bool
	cfg     *config.Config
	logger  *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "stockctl",
	Short: "Extract and import the footwear stock report",
	Long: `stockctl reads the stock report exported by the inventory system
(.xls, .xlsx or .csv) and turns every product block into per-size SKU
quantities for the general stock ("[G] Saldo") and ready stock
("[C] Disponível") tables.

Database, Redis and NATS settings come from the environment or a .env file,
the same way the HTTP service reads them.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
		cfg = config.Load()
		logger = config.NewLogger(cfg.Environment)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		if verbose {
			logger.SetLevel(logrus.DebugLevel)
		} else {
			logger.SetLevel(logrus.WarnLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(newExtractCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newTemplateCmd())
}

// layouts returns the configured report layouts
func layouts() (grid.Layout, grid.Layout, error) {
	return cfg.Layouts()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
