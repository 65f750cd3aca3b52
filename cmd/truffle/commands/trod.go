package commands

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/truffle-roll/truffle/internal/calendar"
	"github.com/truffle-roll/truffle/internal/schema"
	"github.com/truffle-roll/truffle/internal/trod"
	"github.com/truffle-roll/truffle/pkg/logger"
)

// trodCmd represents the trod command
var trodCmd = &cobra.Command{
	Use:   "trod [FILE]",
	Short: "Convert a schema into a roll log",
	Long: `Steps through [--from, --till] and prints the days on which the schema
starts, stops or rolls contracts:

  DATE \t CODE[->CODE]...

When FILE is a roll log rather than a schema it is reprinted in canonical
form. FILE defaults to stdin.

Example:
  truffle trod rolls.schema
  truffle trod rolls.schema --from 2020-01-01 --till 2024-12-31 --numeric
  truffle trod < rolls.trod`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTrod,
}

var (
	trodFrom    string
	trodTill    string
	trodNumeric bool
)

func init() {
	rootCmd.AddCommand(trodCmd)

	trodCmd.Flags().StringVar(&trodFrom, "from", "2000-01-01", "first day (YYYY-MM-DD)")
	trodCmd.Flags().StringVar(&trodTill, "till", "2037-12-31", "last day (YYYY-MM-DD)")
	trodCmd.Flags().BoolVar(&trodNumeric, "numeric", false, "print YYYYMM codes")
}

func runTrod(cmd *cobra.Command, args []string) error {
	from, err := parseDay(trodFrom)
	if err != nil {
		return fmt.Errorf("invalid --from: %w", err)
	}
	till, err := parseDay(trodTill)
	if err != nil {
		return fmt.Errorf("invalid --till: %w", err)
	}
	if till.Before(from) {
		return fmt.Errorf("--till %s precedes --from %s", till, from)
	}

	path := stdinName
	if len(args) == 1 {
		path = args[0]
	}

	l, err := convertOrReprint(cmd.InOrStdin(), path, from, till, appLogger)
	if err != nil {
		return err
	}
	return l.WriteTo(cmd.OutOrStdout(), trodNumeric)
}

// convertOrReprint reads path as a schema, falling back to a roll log
func convertOrReprint(in io.Reader, path string, from, till calendar.Date, log *logger.Logger) (*trod.Log, error) {
	r, err := openInput(in, path, schema.ErrUnreadable)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrUnreadable, err)
	}

	s, _, err := schema.Parse(bytes.NewReader(data), logger.Nop())
	if err == nil {
		log.Debugf("converting schema %s from %s till %s", path, from, till)
		return trod.FromSchema(s, from, till), nil
	}
	if !errors.Is(err, schema.ErrUnreadable) {
		return nil, err
	}

	l, _, terr := trod.Parse(bytes.NewReader(data), log)
	if terr != nil {
		return nil, fmt.Errorf("%s: %w", path, schema.ErrUnreadable)
	}
	log.Debugf("%s is a roll log, reprinting", path)
	return l, nil
}
