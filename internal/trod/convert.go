package trod

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/truffle-roll/truffle/internal/calendar"
	"github.com/truffle-roll/truffle/internal/contracts"
	"github.com/truffle-roll/truffle/internal/schema"
)

// FromSchema steps through [from, till] day by day and records when the
// schema starts and stops holding a contract. A stop and a start on the
// same day are paired into an A->B roll.
func FromSchema(s *schema.Schema, from, till calendar.Date) *Log {
	l := NewLog()
	lo, hi := calendar.ToDayIndex(from), calendar.ToDayIndex(till)
	if lo == 0 || hi == 0 || lo.IsDayInYear() || hi.IsDayInYear() {
		return l
	}

	held := make(map[contracts.ContractCode]bool)
	var cut *contracts.Cut
	var stops, starts []contracts.ContractCode
	changes := make([]Change, 0, 8)

	for idx := lo; idx <= hi; idx++ {
		d := calendar.ToDate(idx)
		cut = schema.MakeCut(cut, s, d)

		stops, starts = stops[:0], starts[:0]
		for _, e := range cut.Entries {
			switch {
			case e.Weight != 0 && !held[e.Code]:
				starts = append(starts, e.Code)
			case e.Weight == 0 && held[e.Code]:
				stops = append(stops, e.Code)
			}
		}
		cut.Compact(func(e contracts.Entry) bool { return e.Weight != 0 })
		if len(stops) == 0 && len(starts) == 0 {
			continue
		}
		sortCodes(stops)
		sortCodes(starts)

		changes = changes[:0]
		k := 0
		for ; k < len(stops) && k < len(starts); k++ {
			changes = append(changes,
				Change{Op: Deactivate, Code: stops[k]},
				Change{Op: ActivateIfAbsent, Code: starts[k]})
		}
		for _, c := range stops[k:] {
			changes = append(changes, Change{Op: Deactivate, Code: c})
		}
		for _, c := range starts[k:] {
			changes = append(changes, Change{Op: Activate, Code: c})
		}
		l.Add(Instant{Day: idx, AllDay: true}, changes...)

		for _, c := range stops {
			delete(held, c)
		}
		for _, c := range starts {
			held[c] = true
		}
	}
	return l
}

func sortCodes(codes []contracts.ContractCode) {
	sort.Slice(codes, func(i, j int) bool { return codes[i].Less(codes[j]) })
}

// WriteTo prints the log as roll log lines. Runs of deactivations ending
// in an activate-if-absent print as one A->B chain.
func (l *Log) WriteTo(w io.Writer, numeric bool) error {
	code := func(c contracts.ContractCode) string {
		if numeric {
			return c.Numeric(0)
		}
		return c.String()
	}

	bw := bufio.NewWriter(w)
	for _, ev := range l.events {
		for _, line := range chains(l.Changes(ev), code) {
			if _, err := fmt.Fprintf(bw, "%s\t%s\n", ev.When, line); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

func chains(changes []Change, code func(contracts.ContractCode) string) []string {
	var res []string
	var legs []string
	for _, c := range changes {
		switch c.Op {
		case Deactivate:
			legs = append(legs, code(c.Code))
		case ActivateIfAbsent:
			if len(legs) > 0 {
				res = append(res, strings.Join(append(legs, code(c.Code)), "->"))
				legs = legs[:0]
				continue
			}
			res = append(res, code(c.Code))
		case Activate:
			for _, leg := range legs {
				res = append(res, "~"+leg)
			}
			legs = legs[:0]
			res = append(res, code(c.Code))
		}
	}
	for _, leg := range legs {
		res = append(res, "~"+leg)
	}
	return res
}
