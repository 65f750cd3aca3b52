package schema

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/truffle-roll/truffle/internal/calendar"
	"github.com/truffle-roll/truffle/internal/contracts"
	"github.com/truffle-roll/truffle/pkg/logger"
)

var (
	// ErrParse marks a malformed schema line, the line is dropped
	ErrParse = errors.New("schema parse error")
	// ErrValidation marks an impossible validity window, the curve is dropped
	ErrValidation = errors.New("schema validation error")
	// ErrUnreadable is fatal: the input holds no usable curve
	ErrUnreadable = errors.New("schema unreadable")
)

// Unbounded is the open upper end of a validity window
const Unbounded = calendar.DayInYearBit - 1

// Node is one point of an exposure curve
type Node struct {
	Day      calendar.DayIndex // year-agnostic
	Weight   float64
	Implicit bool // synthesized year boundary
}

func (n Node) doy() int {
	return int(n.Day &^ calendar.DayInYearBit)
}

// Curve is the yearly exposure schedule of one contract month
type Curve struct {
	Month      int
	YearOffset int

	// Validity window, absolute day indices, inclusive
	From calendar.DayIndex
	Till calendar.DayIndex

	Nodes []Node
}

// ValidAt reports whether the curve applies on the absolute day idx
func (c *Curve) ValidAt(idx calendar.DayIndex) bool {
	return idx >= c.From && idx <= c.Till
}

// WeightAt interpolates the curve at a day-in-year value. The node list
// is cyclic: days before the first or after the last node are bracketed
// by the last and first node across the year boundary.
func (c *Curve) WeightAt(diy calendar.DayIndex) (float64, bool) {
	if len(c.Nodes) == 0 || !diy.IsDayInYear() {
		return 0, false
	}
	doy := int(diy &^ calendar.DayInYearBit)

	// last node at or before doy
	j := -1
	for i := range c.Nodes {
		if c.Nodes[i].doy() > doy {
			break
		}
		j = i
	}

	var n1, n2 Node
	var offset, span int
	last := len(c.Nodes) - 1
	switch j {
	case -1:
		n1, n2 = c.Nodes[last], c.Nodes[0]
		span = calendar.DaysPerYear - n1.doy() + n2.doy()
		offset = doy + calendar.DaysPerYear - n1.doy()
	case last:
		n1, n2 = c.Nodes[last], c.Nodes[0]
		span = calendar.DaysPerYear - n1.doy() + n2.doy()
		offset = doy - n1.doy()
	default:
		n1, n2 = c.Nodes[j], c.Nodes[j+1]
		span = n2.doy() - n1.doy()
		offset = doy - n1.doy()
	}
	if offset == 0 {
		return n1.Weight, true
	}
	return n1.Weight + float64(offset)*(n2.Weight-n1.Weight)/float64(span), true
}

// closeYear synthesizes flat boundary nodes at Jan-1 and Dec-31 when the
// first or last explicit weight is non-zero.
func (c *Curve) closeYear() {
	if len(c.Nodes) == 0 {
		return
	}
	first, last := c.Nodes[0], c.Nodes[len(c.Nodes)-1]
	if first.Weight != 0 && first.doy() > 1 {
		c.Nodes = append([]Node{{Day: 1 | calendar.DayInYearBit, Weight: first.Weight, Implicit: true}}, c.Nodes...)
	}
	if last.Weight != 0 && last.doy() < calendar.DaysPerYear {
		c.Nodes = append(c.Nodes, Node{Day: calendar.DaysPerYear | calendar.DayInYearBit, Weight: last.Weight, Implicit: true})
	}
}

// Schema is an ordered collection of curves
// ⭐ SSOT: later curves overwrite earlier ones for the same contract code
type Schema struct {
	Curves []*Curve
}

// Add appends a curve
func (s *Schema) Add(c *Curve) {
	s.Curves = append(s.Curves, c)
}

// Len returns the number of curves
func (s *Schema) Len() int {
	return len(s.Curves)
}

// MakeCut evaluates every applicable curve on date d. A previous cut is
// zeroed and refilled in place; nil allocates a new one.
func MakeCut(prev *contracts.Cut, s *Schema, d calendar.Date) *contracts.Cut {
	cut := prev
	if cut == nil {
		cut = contracts.NewCut(d.Year)
	} else {
		cut.Reset(d.Year)
	}

	idx := calendar.ToDayIndex(d)
	if idx == 0 || idx.IsDayInYear() {
		return cut
	}
	diy := calendar.DayInYear(idx)

	for _, c := range s.Curves {
		if !c.ValidAt(idx) {
			continue
		}
		w, ok := c.WeightAt(diy)
		if !ok {
			continue
		}
		cut.Upsert(contracts.ContractCode{Month: c.Month, Year: d.Year + c.YearOffset}, w)
	}
	return cut
}

// Cut makes Schema usable as a cut producer of a roll-over run
func (s *Schema) Cut(prev *contracts.Cut, d calendar.Date) *contracts.Cut {
	return MakeCut(prev, s, d)
}

// maxLineSize caps a single input line
const maxLineSize = 4 << 20

// Stats summarises a parse
type Stats struct {
	Lines    int
	Curves   int
	Rejected int
}

// Parse reads schema lines from r. Bad lines are logged and skipped; an
// input without any curve yields ErrUnreadable, as does a line longer
// than maxLineSize.
func Parse(r io.Reader, log *logger.Logger) (*Schema, Stats, error) {
	var stats Stats
	s := &Schema{}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		stats.Lines++
		c, err := ParseLine(sc.Text())
		if err != nil {
			stats.Rejected++
			log.Warnf("line %d: %v", stats.Lines, err)
			continue
		}
		if c != nil {
			s.Add(c)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, stats, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	stats.Curves = s.Len()
	if stats.Curves == 0 {
		return nil, stats, ErrUnreadable
	}
	return s, stats, nil
}

// WriteTo prints the schema in normalized form, explicit nodes only
func (s *Schema) WriteTo(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, c := range s.Curves {
		if _, err := bw.WriteString(FormatCurve(c)); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// FormatCurve renders one curve as a schema line
func FormatCurve(c *Curve) string {
	var sb strings.Builder

	if v := formatValidity(c.From, c.Till); v != "" {
		sb.WriteString(v)
		sb.WriteByte(' ')
	}
	sb.WriteByte(calendar.LetterFromMonth(c.Month))
	if c.YearOffset != 0 {
		fmt.Fprintf(&sb, "%d", c.YearOffset)
	}
	for _, n := range c.Nodes {
		if n.Implicit {
			continue
		}
		d := calendar.ToDate(n.Day)
		fmt.Fprintf(&sb, " %02d%02d %.8g", d.Month, d.Day, n.Weight)
	}
	return sb.String()
}

func formatValidity(from, till calendar.DayIndex) string {
	if from == 0 && till == Unbounded {
		return ""
	}

	lo := "*"
	if from != 0 {
		lo = formatBound(from, calendar.YearStart)
	}
	hi := "*"
	if till != Unbounded {
		hi = formatBound(till, calendar.YearEnd)
	}

	// a single year or a single day
	if lo == hi && lo != "*" {
		return lo
	}
	return lo + "-" + hi
}

func formatBound(idx calendar.DayIndex, edge func(int) calendar.DayIndex) string {
	d := calendar.ToDate(idx)
	if d.IsZero() {
		return "*"
	}
	if idx == edge(d.Year) {
		return fmt.Sprintf("%d", d.Year)
	}
	return fmt.Sprintf("%04d%02d%02d", d.Year, d.Month, d.Day)
}
