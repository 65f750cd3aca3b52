package contracts

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/truffle-roll/truffle/internal/calendar"
)

// ErrBadCode is returned when a contract symbol cannot be read
var ErrBadCode = errors.New("bad contract code")

// ContractCode identifies one delivery month, e.g. F2020 or Z1999
// ⭐ SSOT: every cut, roll log and series column is keyed by this type
type ContractCode struct {
	Month int // 1..12
	Year  int // absolute year
}

// String prints the letter form with the absolute year, F2020
func (c ContractCode) String() string {
	return fmt.Sprintf("%c%d", calendar.LetterFromMonth(c.Month), c.Year)
}

// Relative prints the letter form with the year relative to anchor, F0 or Z1
func (c ContractCode) Relative(anchor int) string {
	return fmt.Sprintf("%c%d", calendar.LetterFromMonth(c.Month), c.Year-anchor)
}

// Numeric prints YYYYMM, or the relative year followed by MM when anchor
// is non-zero.
func (c ContractCode) Numeric(anchor int) string {
	return fmt.Sprintf("%d%02d", c.Year-anchor, c.Month)
}

// Valid checks month and year ranges
func (c ContractCode) Valid() bool {
	return c.Month >= 1 && c.Month <= 12 && c.Year >= calendar.MinYear && c.Year <= calendar.MaxYear
}

// Less orders codes by year, then month
func (c ContractCode) Less(o ContractCode) bool {
	if c.Year != o.Year {
		return c.Year < o.Year
	}
	return c.Month < o.Month
}

// SplitCode reads a month letter followed by an optional signed year
// number, returning the month and the raw number. The caller decides
// whether the number is absolute or an offset.
func SplitCode(s string) (month int, year int, err error) {
	if s == "" {
		return 0, 0, fmt.Errorf("%w: empty", ErrBadCode)
	}
	if month = calendar.MonthFromLetter(s[0]); month == 0 {
		return 0, 0, fmt.Errorf("%w: %q: unknown month letter", ErrBadCode, s)
	}
	if len(s) == 1 {
		return month, 0, nil
	}
	year, err = strconv.Atoi(s[1:])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadCode, s)
	}
	return month, year, nil
}
