package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/truffle-roll/truffle/internal/calendar"
	"github.com/truffle-roll/truffle/internal/contracts"
)

// ParseLine reads one schema line:
//
//	[VALIDITY ]LETTER[YEAR_OFFSET] (MMDD WEIGHT)+
//
// Blank lines and # comments yield (nil, nil).
func ParseLine(line string) (*Curve, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil, nil
	}

	// validity tokens run up to the month letter
	k := 0
	for k < len(fields) && calendar.MonthFromLetter(fields[k][0]) == 0 {
		k++
	}
	if k == len(fields) {
		return nil, fmt.Errorf("%w: no contract month in %q", ErrParse, line)
	}

	from, till, err := parseValidity(fields[:k])
	if err != nil {
		return nil, err
	}

	month, off, err := contracts.SplitCode(fields[k])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	pairs := fields[k+1:]
	if len(pairs) == 0 || len(pairs)%2 != 0 {
		return nil, fmt.Errorf("%w: %s needs DATE WEIGHT pairs", ErrParse, fields[k])
	}

	c := &Curve{
		Month:      month,
		YearOffset: off,
		From:       from,
		Till:       till,
		Nodes:      make([]Node, 0, len(pairs)/2+2),
	}
	for i := 0; i < len(pairs); i += 2 {
		d, err := calendar.ParseDate(pairs[i])
		if err != nil {
			return nil, fmt.Errorf("%w: node %d: %v", ErrParse, i/2+1, err)
		}
		d.Year = 0
		w, err := strconv.ParseFloat(pairs[i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: node %d: bad weight %q", ErrParse, i/2+1, pairs[i+1])
		}

		n := Node{Day: calendar.ToDayIndex(d), Weight: w}
		if len(c.Nodes) > 0 && n.Day <= c.Nodes[len(c.Nodes)-1].Day {
			return nil, fmt.Errorf("%w: %s: node %s is not after the previous node", ErrParse, fields[k], pairs[i])
		}
		c.Nodes = append(c.Nodes, n)
	}
	c.closeYear()

	return c, nil
}

// parseValidity reads the optional year range in front of a curve:
//
//	*               valid for all years
//	2002            valid in 2002
//	2003-*          valid from 2003
//	*-2002, - 2002  valid up to and including 2002
//	2002-2003       valid in 2002 and 2003
//
// Eight-digit YYYYMMDD bounds select single days instead of whole years.
func parseValidity(tokens []string) (calendar.DayIndex, calendar.DayIndex, error) {
	if len(tokens) == 0 {
		return 0, Unbounded, nil
	}

	var (
		from, till       calendar.DayIndex
		fromEnd          calendar.DayIndex
		fromSet, tillSet bool
	)
	for _, tok := range splitDashes(tokens) {
		switch {
		case tok == "*":
			if !fromSet {
				from, fromSet = 0, true
			}
			till, tillSet = Unbounded, true
		case tok == "-":
			if !fromSet {
				from, fromSet = 0, true
			}
			till, tillSet = Unbounded, true
		default:
			lo, hi, err := parseBound(tok)
			if err != nil {
				return 0, 0, err
			}
			if !fromSet {
				from, fromEnd, fromSet = lo, hi, true
			} else {
				till, tillSet = hi, true
			}
		}
	}

	if !tillSet {
		till = fromEnd
	}
	if from > till {
		return 0, 0, fmt.Errorf("%w: validity %q ends before it starts", ErrValidation, strings.Join(tokens, " "))
	}
	return from, till, nil
}

// splitDashes separates '-' into tokens of its own, "2002-2003" becomes
// "2002", "-", "2003".
func splitDashes(tokens []string) []string {
	var res []string
	for _, tok := range tokens {
		for {
			i := strings.IndexByte(tok, '-')
			if i < 0 {
				break
			}
			if i > 0 {
				res = append(res, tok[:i])
			}
			res = append(res, "-")
			tok = tok[i+1:]
		}
		if tok != "" {
			res = append(res, tok)
		}
	}
	return res
}

// parseBound returns the first and last day covered by a YYYY or
// YYYYMMDD token. Years past the supported range are open ended.
func parseBound(tok string) (calendar.DayIndex, calendar.DayIndex, error) {
	n, err := strconv.Atoi(tok)
	if err != nil || n < 0 {
		return 0, 0, fmt.Errorf("%w: bad validity bound %q", ErrParse, tok)
	}

	switch len(tok) {
	case 4:
		switch {
		case n < calendar.MinYear:
			return 0, 0, nil
		case n > calendar.MaxYear:
			return Unbounded, Unbounded, nil
		}
		return calendar.YearStart(n), calendar.YearEnd(n), nil
	case 8:
		d, err := calendar.ParseDate(tok)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: bad validity bound %q", ErrParse, tok)
		}
		idx := calendar.ToDayIndex(d)
		return idx, idx, nil
	}
	return 0, 0, fmt.Errorf("%w: bad validity bound %q", ErrParse, tok)
}
