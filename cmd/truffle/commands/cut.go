package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/truffle-roll/truffle/internal/calendar"
	"github.com/truffle-roll/truffle/internal/cashflow"
	"github.com/truffle-roll/truffle/internal/contracts"
	"github.com/truffle-roll/truffle/pkg/logger"
)

// cutCmd represents the cut command
var cutCmd = &cobra.Command{
	Use:   "cut [DATE...]",
	Short: "Print the contracts held on each date",
	Long: `Prints one line per held contract and date:

  DATE \t CODE \t WEIGHT

Dates are YYYY-MM-DD or YYYYMMDD, taken from the arguments or, when none
are given, one per line from stdin. Codes are relative to the year of the
date (F0, Z1) unless --abs is given.

Example:
  truffle cut --schema rolls.schema 2024-05-16 2024-06-01
  truffle cut --trod rolls.trod --abs --numeric < dates.txt
  truffle cut --schema rolls.schema --lever 10 --round 2024-05-16
  truffle cut --profile configs/profiles/crude-front.yaml --trod rolls.trod 2024-05-16`,
	RunE: runCut,
}

var (
	cutSchema  string
	cutTrod    string
	cutProfile string
	cutYears   int
	cutAbs     bool
	cutNumeric bool
	cutLever   float64
	cutRound   bool
)

func init() {
	rootCmd.AddCommand(cutCmd)

	cutCmd.Flags().StringVar(&cutSchema, "schema", "", "schema file")
	cutCmd.Flags().StringVar(&cutTrod, "trod", "", "roll log file")
	cutCmd.Flags().StringVar(&cutProfile, "profile", "", "run profile (YAML), its cut section and active_years apply")
	cutCmd.Flags().IntVar(&cutYears, "active-years", 0, "roll log window in years (default TRUFFLE_ACTIVE_YEARS)")
	cutCmd.Flags().BoolVar(&cutAbs, "abs", false, "print absolute years")
	cutCmd.Flags().BoolVar(&cutNumeric, "numeric", false, "print YYYYMM codes")
	cutCmd.Flags().Float64Var(&cutLever, "lever", 1, "weight multiplier")
	cutCmd.Flags().BoolVar(&cutRound, "round", false, "round levered weights")
}

func runCut(cmd *cobra.Command, args []string) error {
	opts, years, err := cutConfig(cmd, appLogger)
	if err != nil {
		return err
	}

	// "-" names stdin for the source, dates then come from arguments only
	if len(args) == 0 && (cutSchema == stdinName || cutTrod == stdinName) {
		return fmt.Errorf("dates must be given as arguments when reading the source from stdin")
	}

	p, err := loadProducer(cmd.InOrStdin(), cutSchema, cutTrod, years, appLogger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var cut *contracts.Cut
	printDate := func(s string) error {
		d, err := parseDay(s)
		if err != nil {
			return err
		}
		cut, err = printCut(out, p, cut, d, opts)
		return err
	}

	if len(args) > 0 {
		for _, a := range args {
			if err := printDate(a); err != nil {
				return err
			}
		}
		return nil
	}
	return scanDates(cmd.InOrStdin(), printDate)
}

// cutConfig layers environment defaults, the profile and set flags
func cutConfig(cmd *cobra.Command, log *logger.Logger) (contracts.PrintOptions, int, error) {
	opts := contracts.PrintOptions{Lever: 1}
	years := appConfig.Roll.ActiveYears

	if cutProfile != "" {
		p, err := loadProfile(cutProfile, log)
		if err != nil {
			return opts, 0, err
		}
		opts = p.PrintOptions()
		years = p.Years(years)
	}

	flags := cmd.Flags()
	if flags.Changed("abs") {
		opts.Absolute = cutAbs
	}
	if flags.Changed("numeric") {
		opts.Numeric = cutNumeric
	}
	if flags.Changed("lever") {
		opts.Lever = cutLever
	}
	if flags.Changed("round") {
		opts.Round = cutRound
	}
	if flags.Changed("active-years") {
		years = cutYears
	}
	return opts, years, nil
}

// printCut writes the cut of d and drops its zero entries so that a
// reused cut only carries live contracts into the next date
func printCut(w io.Writer, p cashflow.Producer, prev *contracts.Cut, d calendar.Date, opts contracts.PrintOptions) (*contracts.Cut, error) {
	cut := p.Cut(prev, d)
	if err := cut.WriteTo(w, d, opts); err != nil {
		return cut, err
	}
	cut.Compact(func(e contracts.Entry) bool { return e.Weight != 0 })
	return cut, nil
}
