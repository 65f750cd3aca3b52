package trod

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/truffle-roll/truffle/internal/calendar"
	"github.com/truffle-roll/truffle/internal/contracts"
	"github.com/truffle-roll/truffle/pkg/logger"
)

var (
	// ErrParse marks a malformed roll log line, the line is dropped
	ErrParse = errors.New("trod parse error")
	// ErrUnreadable is fatal: the input holds no usable event
	ErrUnreadable = errors.New("trod unreadable")
)

// Op is a state change applied to one contract
type Op uint8

const (
	Deactivate Op = iota
	Activate
	// ActivateIfAbsent is the receiving leg of an A->B roll, it does not
	// re-trigger when the contract is already held
	ActivateIfAbsent
)

func (o Op) String() string {
	switch o {
	case Deactivate:
		return "deactivate"
	case Activate:
		return "activate"
	case ActivateIfAbsent:
		return "activate-if-absent"
	}
	return "unknown"
}

// Change is one state change of an event
type Change struct {
	Op   Op
	Code contracts.ContractCode
}

// Event is a list of changes taking effect at one instant. The changes
// live in the arena of the owning Log.
type Event struct {
	When Instant
	off  int
	n    int
}

// Log is a roll log: events in non-decreasing instant order
// ⭐ SSOT: out-of-order events are discarded, never sorted
type Log struct {
	events  []Event
	changes []Change
}

// NewLog creates an empty log
func NewLog() *Log {
	return &Log{
		events:  make([]Event, 0, 64),
		changes: make([]Change, 0, 64),
	}
}

// Add appends an event. It returns false and keeps the log unchanged when
// the event precedes the last accepted one or carries no change.
func (l *Log) Add(when Instant, changes ...Change) bool {
	if len(changes) == 0 || when.IsZero() {
		return false
	}
	if n := len(l.events); n > 0 && when.Before(l.events[n-1].When) {
		return false
	}
	l.events = append(l.events, Event{When: when, off: len(l.changes), n: len(changes)})
	l.changes = append(l.changes, changes...)
	return true
}

// Len returns the number of events
func (l *Log) Len() int {
	return len(l.events)
}

// Events returns the events in log order
func (l *Log) Events() []Event {
	return l.events
}

// Changes returns the changes of ev
func (l *Log) Changes(ev Event) []Change {
	return l.changes[ev.off : ev.off+ev.n]
}

// maxLineSize caps a single input line
const maxLineSize = 4 << 20

// Stats summarises a parse
type Stats struct {
	Lines     int
	Events    int
	Rejected  int // malformed lines
	Discarded int // events older than their predecessor
}

// Parse reads roll log lines from r. Malformed lines are logged and
// skipped, out-of-order events are discarded. An input without any event
// yields ErrUnreadable, as does a line longer than maxLineSize.
func Parse(r io.Reader, log *logger.Logger) (*Log, Stats, error) {
	var stats Stats
	l := NewLog()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		stats.Lines++
		when, changes, err := ParseLine(sc.Text())
		if err != nil {
			stats.Rejected++
			log.Warnf("line %d: %v", stats.Lines, err)
			continue
		}
		if changes == nil {
			continue
		}
		if !l.Add(when, changes...) {
			stats.Discarded++
			log.Debugf("line %d: event at %s precedes the previous event, discarded", stats.Lines, when)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, stats, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	stats.Events = l.Len()
	if stats.Events == 0 {
		return nil, stats, ErrUnreadable
	}
	return l, stats, nil
}

// ParseLine reads one roll log line:
//
//	DATETIME \t [~]CODE[->CODE]...
//
// A chain c0->c1->...->cn deactivates c0..c(n-1) and activates cn if
// absent. Blank lines and # comments yield no changes and no error.
func ParseLine(line string) (Instant, []Change, error) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
		return Instant{}, nil, nil
	}

	tab := strings.IndexByte(line, '\t')
	if tab < 0 {
		return Instant{}, nil, fmt.Errorf("%w: no tab in %q", ErrParse, line)
	}
	when, err := ParseInstant(line[:tab])
	if err != nil {
		return Instant{}, nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if when.IsZero() {
		return Instant{}, nil, fmt.Errorf("%w: %q out of range", ErrParse, line[:tab])
	}

	rest := strings.TrimSpace(line[tab+1:])
	deactivate := strings.HasPrefix(rest, "~")
	if deactivate {
		rest = strings.TrimSpace(rest[1:])
	}

	legs := strings.Split(rest, "->")
	if deactivate && len(legs) > 1 {
		return when, nil, fmt.Errorf("%w: ~ cannot start a roll chain: %q", ErrParse, rest)
	}

	changes := make([]Change, 0, len(legs))
	for k, leg := range legs {
		code, err := ParseState(strings.TrimSpace(leg), when.Year())
		if err != nil {
			return when, nil, err
		}

		op := Deactivate
		switch {
		case len(legs) == 1 && !deactivate:
			op = Activate
		case len(legs) > 1 && k == len(legs)-1:
			op = ActivateIfAbsent
		}
		changes = append(changes, Change{Op: op, Code: code})
	}
	return when, changes, nil
}

// ParseState reads a contract state. Letter forms carry an absolute year
// (G2032) or, below 1024, an offset to year (G0, F4). Numeric forms are
// YYYYMM, YYYY-MM or YYYYMMDD, the day being ignored.
func ParseState(s string, year int) (contracts.ContractCode, error) {
	if s == "" {
		return contracts.ContractCode{}, fmt.Errorf("%w: empty state", ErrParse)
	}

	var code contracts.ContractCode
	if month := calendar.MonthFromLetter(s[0]); month != 0 {
		n, err := strconv.Atoi(s[1:])
		if err != nil || n < 0 || n >= 4096 {
			return code, fmt.Errorf("%w: bad state %q", ErrParse, s)
		}
		code = contracts.ContractCode{Month: month, Year: n}
		if n < 1024 {
			code.Year = year + n
		}
	} else {
		y, m, ok := splitNumeric(s)
		if !ok {
			return code, fmt.Errorf("%w: bad state %q", ErrParse, s)
		}
		code = contracts.ContractCode{Month: m, Year: y}
	}

	if !code.Valid() {
		return code, fmt.Errorf("%w: state %q out of range", ErrParse, s)
	}
	return code, nil
}

func splitNumeric(s string) (year, month int, ok bool) {
	if y, m, found := strings.Cut(s, "-"); found {
		yy, err1 := strconv.Atoi(y)
		mm, err2 := strconv.Atoi(m)
		return yy, mm, err1 == nil && err2 == nil && len(y) == 4
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, 0, false
	}
	switch len(s) {
	case 6:
		return n / 100, n % 100, true
	case 8:
		return n / 10000, n / 100 % 100, true
	}
	return 0, 0, false
}
