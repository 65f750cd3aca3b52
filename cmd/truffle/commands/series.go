package commands

import (
	"github.com/spf13/cobra"

	"github.com/truffle-roll/truffle/internal/quotes"
	"github.com/truffle-roll/truffle/internal/series"
	"github.com/truffle-roll/truffle/pkg/database"
)

// seriesCmd represents the series command
var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "Quote series storage",
	Long: `Moves quote series between files and the PostgreSQL quote table
(DATABASE_URL, TRUFFLE_QUOTES_TABLE).

Example:
  truffle series import --series quotes.tsv`,
}

var seriesImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Store a series file in PostgreSQL",
	Long: `Reads SYMBOL \t DATE \t VALUE lines and upserts them into the quote
table, creating it when missing. Existing quotes of the same symbol and
date are overwritten.

Example:
  truffle series import --series quotes.tsv
  zcat quotes.tsv.gz | truffle series import --series -`,
	RunE: runSeriesImport,
}

var seriesFile string

func init() {
	rootCmd.AddCommand(seriesCmd)
	seriesCmd.AddCommand(seriesImportCmd)

	seriesImportCmd.Flags().StringVar(&seriesFile, "series", "", "quote series file (required)")
	seriesImportCmd.MarkFlagRequired("series")
}

func runSeriesImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store := series.NewStore(appLogger)
	if err := readSeries(cmd.InOrStdin(), seriesFile, store, appLogger); err != nil {
		return err
	}

	db, err := database.New(ctx, appConfig)
	if err != nil {
		return err
	}
	defer db.Close()

	repo, err := quotes.NewRepository(db.Pool, appConfig.Database.QuotesTable, appLogger)
	if err != nil {
		return err
	}
	if err := repo.EnsureTable(ctx); err != nil {
		return err
	}

	if _, err := repo.SaveStore(ctx, store); err != nil {
		return err
	}
	appLogger.WithFields(db.Stats().Fields()).Debug("Quote pool statistics")
	return nil
}
