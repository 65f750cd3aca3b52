package series

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/truffle-roll/truffle/internal/calendar"
	"github.com/truffle-roll/truffle/internal/contracts"
)

// Two-digit years below the pivot belong to the 2000s
const pivotYear = 50

// maxLineSize caps a single input line
const maxLineSize = 4 << 20

// Stats summarises a parse
type Stats struct {
	Lines    int
	Quotes   int
	Rejected int
}

// Parse reads SYMBOL \t DATE \t VALUE lines into s. Malformed lines are
// logged and skipped; an input without any quote yields ErrUnreadable,
// as does a line longer than maxLineSize.
func Parse(r io.Reader, s *Store) (Stats, error) {
	var stats Stats

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		stats.Lines++
		sym, d, v, skip, err := ParseLine(sc.Text())
		if err == nil && !skip {
			err = s.Insert(sym, d, v)
		}
		if err != nil {
			stats.Rejected++
			s.log.Warnf("line %d: %v", stats.Lines, err)
			continue
		}
		if !skip {
			stats.Quotes++
		}
	}
	if err := sc.Err(); err != nil {
		return stats, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if stats.Quotes == 0 {
		return stats, ErrUnreadable
	}
	return stats, nil
}

// ParseLine reads one series line. Blank lines and # comments are skipped.
func ParseLine(line string) (sym contracts.ContractCode, d calendar.Date, v float64, skip bool, err error) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
		return sym, d, 0, true, nil
	}

	fields := strings.Split(line, "\t")
	if len(fields) < 3 {
		return sym, d, 0, false, fmt.Errorf("%w: want SYMBOL, DATE and VALUE in %q", ErrParse, line)
	}
	if sym, err = ParseSymbol(strings.TrimSpace(fields[0])); err != nil {
		return sym, d, 0, false, err
	}
	if d, err = calendar.ParseDate(fields[1]); err != nil || d.Year == 0 {
		return sym, d, 0, false, fmt.Errorf("%w: bad date %q", ErrParse, fields[1])
	}
	if v, err = strconv.ParseFloat(strings.TrimSpace(fields[2]), 64); err != nil {
		return sym, d, 0, false, fmt.Errorf("%w: bad value %q", ErrParse, fields[2])
	}
	return sym, d, v, false, nil
}

// ParseSymbol reads a month letter and a year, F2020 or F20. One- and
// two-digit years pivot at 50.
func ParseSymbol(s string) (contracts.ContractCode, error) {
	month, year, err := contracts.SplitCode(s)
	if err != nil {
		return contracts.ContractCode{}, fmt.Errorf("%w: %v", ErrParse, err)
	}

	switch digits := len(s) - 1; {
	case year < 0:
		return contracts.ContractCode{}, fmt.Errorf("%w: bad symbol %q", ErrParse, s)
	case digits == 1 || digits == 2:
		if year < pivotYear {
			year += 2000
		} else {
			year += 1900
		}
	case digits != 4:
		return contracts.ContractCode{}, fmt.Errorf("%w: bad symbol %q", ErrParse, s)
	}

	code := contracts.ContractCode{Month: month, Year: year}
	if !code.Valid() {
		return code, fmt.Errorf("%w: symbol %q out of range", ErrParse, s)
	}
	return code, nil
}

// FormatSymbol prints the four-digit form read back by ParseSymbol
func FormatSymbol(c contracts.ContractCode) string {
	return c.String()
}
