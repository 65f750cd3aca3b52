package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/truffle-roll/truffle/pkg/config"
	"github.com/truffle-roll/truffle/pkg/logger"
)

var (
	// Global flags
	configFile string
	verbose    bool

	// Set up by PersistentPreRunE for every subcommand
	appConfig *config.Config
	appLogger *logger.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "truffle",
	Short: "Futures roll-over exposure and cash flow",
	Long: `truffle computes which futures contracts to hold on a date and the
cash flow of rolling them over a quote series.

Data rows go to stdout, diagnostics to stderr. A file argument of "-"
reads stdin.

Examples:
  truffle cut --schema rolls.schema 2024-05-16
  truffle roll --schema rolls.schema --series quotes.tsv --mode sparse
  truffle trod rolls.schema --from 2020-01-01 --till 2024-12-31
  truffle series import --series quotes.tsv`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "truffle:", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.SilenceErrors = true
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "env file (default is .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	if configFile != "" {
		appConfig, err = config.LoadFile(configFile)
	} else {
		appConfig, err = config.Load()
	}
	if err != nil {
		return err
	}

	if verbose {
		appConfig.LogLevel = "debug"
	}
	appLogger = logger.NewWithWriter(appConfig, cmd.ErrOrStderr())
	return nil
}
