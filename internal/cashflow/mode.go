package cashflow

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMode rejects unknown settlement modes
var ErrMode = errors.New("unknown roll-over mode")

// Mode selects how exposure changes settle into cash flow
type Mode int

const (
	// Flow marks to market every tick and re-bases at the current quote
	Flow Mode = iota
	// Base values the current exposure against the run basis every tick
	Base
	// Sparse settles only when exposure changes, by the exposure delta
	Sparse
)

func (m Mode) String() string {
	switch m {
	case Flow:
		return "flow"
	case Base:
		return "base"
	case Sparse:
		return "sparse"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// threshold is the transition category a tick must exceed to be printed
func (m Mode) threshold() int {
	if m == Sparse {
		return categoryHolding
	}
	return categoryNone
}

// ParseMode reads flow, base or sparse; the empty string selects Flow
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "flow":
		return Flow, nil
	case "base":
		return Base, nil
	case "sparse":
		return Sparse, nil
	}
	return Flow, fmt.Errorf("%w: %q", ErrMode, s)
}
