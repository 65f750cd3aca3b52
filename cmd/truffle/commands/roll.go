package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/truffle-roll/truffle/internal/cashflow"
	"github.com/truffle-roll/truffle/internal/quotes"
	"github.com/truffle-roll/truffle/internal/series"
	"github.com/truffle-roll/truffle/pkg/database"
	"github.com/truffle-roll/truffle/pkg/logger"
)

// rollCmd represents the roll command
var rollCmd = &cobra.Command{
	Use:   "roll",
	Short: "Compute the cash flow of rolling contracts over a quote series",
	Long: `Settles every date of the quote series against the cut of that date
and prints the cash flow:

  DATE \t CUMULATIVE            (default, --cumulative)
  DATE \t FLOW                  (--incremental)
  DATE \t CUMULATIVE \t FLOW    (both)

Modes:
  flow     exposure change times price change (default)
  base     exposure times price, cumulative column offset by --basis
  sparse   like flow, printed only when holdings open, close or roll

Flags override values of --profile, which override TRUFFLE_* variables.

Example:
  truffle roll --schema rolls.schema --series quotes.tsv
  truffle roll --trod rolls.trod --series-db --from 2020-01-01 --mode sparse
  truffle roll --profile configs/profiles/crude-front.yaml --schema rolls.schema --series -`,
	RunE: runRoll,
}

var (
	rollSchema      string
	rollTrod        string
	rollSeries      string
	rollSeriesDB    bool
	rollFrom        string
	rollTill        string
	rollProfile     string
	rollMode        string
	rollTickValue   float64
	rollBasis       float64
	rollCumulative  bool
	rollIncremental bool
	rollYears       int
)

func init() {
	rootCmd.AddCommand(rollCmd)

	rollCmd.Flags().StringVar(&rollSchema, "schema", "", "schema file")
	rollCmd.Flags().StringVar(&rollTrod, "trod", "", "roll log file")
	rollCmd.Flags().StringVar(&rollSeries, "series", "", "quote series file")
	rollCmd.Flags().BoolVar(&rollSeriesDB, "series-db", false, "load quotes from DATABASE_URL")
	rollCmd.Flags().StringVar(&rollFrom, "from", "", "first quote date with --series-db (YYYY-MM-DD)")
	rollCmd.Flags().StringVar(&rollTill, "till", "", "last quote date with --series-db (YYYY-MM-DD)")
	rollCmd.Flags().StringVar(&rollProfile, "profile", "", "run profile (YAML)")
	rollCmd.Flags().StringVar(&rollMode, "mode", "flow", "flow | base | sparse")
	rollCmd.Flags().Float64Var(&rollTickValue, "tick-value", 1, "currency per price point")
	rollCmd.Flags().Float64Var(&rollBasis, "basis", 0, "basis added to the cumulative column")
	rollCmd.Flags().BoolVar(&rollCumulative, "cumulative", false, "print the cumulative column")
	rollCmd.Flags().BoolVar(&rollIncremental, "incremental", false, "print the per-tick flow column")
	rollCmd.Flags().IntVar(&rollYears, "active-years", 0, "roll log window in years")
}

func runRoll(cmd *cobra.Command, args []string) error {
	cfg, years, err := rollConfig(cmd, appLogger)
	if err != nil {
		return err
	}

	if rollSeries == stdinName && (rollSchema == stdinName || rollTrod == stdinName) {
		return fmt.Errorf("only one input can be read from stdin")
	}

	producer, err := loadProducer(cmd.InOrStdin(), rollSchema, rollTrod, years, appLogger)
	if err != nil {
		return err
	}

	store, err := loadSeries(cmd.Context(), cmd.InOrStdin(), appLogger)
	if err != nil {
		return err
	}

	engine := cashflow.NewEngine(cfg, appLogger)
	result, err := engine.Run(cmd.Context(), producer, store, cmd.OutOrStdout())
	if err != nil {
		return fmt.Errorf("roll-over failed: %w", err)
	}
	if result.Open > 0 {
		appLogger.Debugf("%d contracts still held after %s", result.Open, store.Dates()[store.Len()-1])
	}
	return nil
}

// rollConfig layers environment defaults, the profile and set flags
func rollConfig(cmd *cobra.Command, log *logger.Logger) (cashflow.Config, int, error) {
	cfg := cashflow.Config{
		TickValue: appConfig.Roll.TickValue,
		Basis:     appConfig.Roll.Basis,
	}
	years := appConfig.Roll.ActiveYears

	if rollProfile != "" {
		p, err := loadProfile(rollProfile, log)
		if err != nil {
			return cfg, 0, err
		}
		if cfg, err = p.Apply(cfg); err != nil {
			return cfg, 0, err
		}
		years = p.Years(years)
	}

	flags := cmd.Flags()
	if flags.Changed("mode") || rollProfile == "" {
		mode, err := cashflow.ParseMode(rollMode)
		if err != nil {
			return cfg, 0, err
		}
		cfg.Mode = mode
	}
	if flags.Changed("tick-value") {
		cfg.TickValue = rollTickValue
	}
	if flags.Changed("basis") {
		cfg.Basis = rollBasis
	}
	if flags.Changed("cumulative") || flags.Changed("incremental") {
		cfg.Cumulative = rollCumulative
		cfg.Incremental = rollIncremental
	}
	if flags.Changed("active-years") {
		years = rollYears
	}
	return cfg, years, nil
}

// loadSeries reads the quote series from --series or --series-db
func loadSeries(ctx context.Context, in io.Reader, log *logger.Logger) (*series.Store, error) {
	store := series.NewStore(log)

	switch {
	case (rollSeries == "") == !rollSeriesDB:
		return nil, fmt.Errorf("exactly one of --series or --series-db is required")
	case rollSeriesDB:
		rng, err := parseRange(rollFrom, rollTill)
		if err != nil {
			return nil, err
		}
		db, err := database.New(ctx, appConfig)
		if err != nil {
			return nil, err
		}
		defer db.Close()

		repo, err := quotes.NewRepository(db.Pool, appConfig.Database.QuotesTable, log)
		if err != nil {
			return nil, err
		}
		n, err := repo.LoadInto(ctx, store, rng)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", series.ErrUnreadable, err)
		}
		if n == 0 {
			return nil, fmt.Errorf("%w: no quotes in %s", series.ErrUnreadable, appConfig.Database.QuotesTable)
		}
		log.WithFields(db.Stats().Fields()).Debug("Quote pool statistics")
		return store, nil
	default:
		if err := readSeries(in, rollSeries, store, log); err != nil {
			return nil, err
		}
		return store, nil
	}
}

func readSeries(in io.Reader, path string, store *series.Store, log *logger.Logger) error {
	r, err := openInput(in, path, series.ErrUnreadable)
	if err != nil {
		return err
	}
	defer r.Close()

	stats, err := series.Parse(r, store)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	log.WithFields(map[string]interface{}{
		"file":     path,
		"lines":    stats.Lines,
		"quotes":   stats.Quotes,
		"rejected": stats.Rejected,
		"unsorted": store.Unsorted,
	}).Debug("Series loaded")
	return nil
}

func parseRange(from, till string) (quotes.Range, error) {
	var rng quotes.Range
	var err error
	if from != "" {
		if rng.From, err = parseDay(from); err != nil {
			return rng, fmt.Errorf("invalid --from: %w", err)
		}
	}
	if till != "" {
		if rng.Till, err = parseDay(till); err != nil {
			return rng, fmt.Errorf("invalid --till: %w", err)
		}
	}
	return rng, nil
}
