package contracts

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/truffle-roll/truffle/internal/calendar"
)

// Cut is the set of contracts held on one date and their weights
// ⭐ SSOT: schema and roll log producers both hand this to the cash-flow engine
//
// A cut is reused across the dates of a run: Reset zeroes the weights but
// keeps the codes, so a contract that is no longer produced shows up with
// weight 0 on the next date. Compact recycles such entries.
type Cut struct {
	Year    int // anchor year for relative printing
	Entries []Entry
}

// Entry is one component of a cut
type Entry struct {
	Code   ContractCode
	Weight float64
}

// NewCut creates an empty cut anchored at year
func NewCut(year int) *Cut {
	return &Cut{Year: year, Entries: make([]Entry, 0, 16)}
}

// Reset zeroes every entry and re-anchors the cut
func (c *Cut) Reset(year int) {
	c.Year = year
	for i := range c.Entries {
		c.Entries[i].Weight = 0
	}
}

// Upsert sets the weight of code, adding the entry if needed
func (c *Cut) Upsert(code ContractCode, weight float64) {
	for i := range c.Entries {
		if c.Entries[i].Code == code {
			c.Entries[i].Weight = weight
			return
		}
	}
	c.Entries = append(c.Entries, Entry{Code: code, Weight: weight})
}

// Get looks up the weight of code
func (c *Cut) Get(code ContractCode) (float64, bool) {
	for _, e := range c.Entries {
		if e.Code == code {
			return e.Weight, true
		}
	}
	return 0, false
}

// Compact drops the entries keep rejects, preserving order and reusing
// the backing array.
func (c *Cut) Compact(keep func(Entry) bool) {
	n := 0
	for _, e := range c.Entries {
		if keep(e) {
			c.Entries[n] = e
			n++
		}
	}
	c.Entries = c.Entries[:n]
}

// Count returns the number of entries with a non-zero weight
func (c *Cut) Count() int {
	n := 0
	for _, e := range c.Entries {
		if e.Weight != 0 {
			n++
		}
	}
	return n
}

// TotalWeight returns the sum of all weights
func (c *Cut) TotalWeight() float64 {
	total := 0.0
	for _, e := range c.Entries {
		total += e.Weight
	}
	return total
}

// PrintOptions controls cut output lines
type PrintOptions struct {
	Absolute bool    // print absolute years instead of offsets
	Numeric  bool    // print YYYYMM instead of the letter form
	Lever    float64 // weight multiplier, 0 means 1
	Round    bool    // round the levered weight
}

// WriteTo prints one line per non-zero entry:
// DATE \t CODE \t VALUE
func (c *Cut) WriteTo(w io.Writer, d calendar.Date, opts PrintOptions) error {
	lever := opts.Lever
	if lever == 0 {
		lever = 1
	}
	anchor := c.Year
	if opts.Absolute {
		anchor = 0
	}

	bw := bufio.NewWriter(w)
	for _, e := range c.Entries {
		if e.Weight == 0 {
			continue
		}
		expo := e.Weight * lever
		if opts.Round {
			expo = math.Round(expo)
		}

		var code string
		switch {
		case opts.Numeric:
			code = e.Code.Numeric(anchor)
		case opts.Absolute:
			code = e.Code.String()
		default:
			code = e.Code.Relative(anchor)
		}
		if _, err := fmt.Fprintf(bw, "%s\t%s\t%.8g\n", d, code, expo); err != nil {
			return err
		}
	}
	return bw.Flush()
}
