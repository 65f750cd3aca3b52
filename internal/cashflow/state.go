package cashflow

import (
	"sort"

	"github.com/truffle-roll/truffle/internal/contracts"
	"github.com/truffle-roll/truffle/internal/series"
	"github.com/truffle-roll/truffle/pkg/logger"
)

// Transition categories of a tick
const (
	categoryNone = iota
	categoryHolding
	categoryTransition
)

// Flags describe the exposure change of one tick
type Flags struct {
	WasNonNil     bool // some exposure was held before the tick
	IsNonNil      bool // some exposure is held after the tick
	HasTransition bool // some exposure changed
}

// Category folds the flags into none, holding or transition
func (f Flags) Category() int {
	switch {
	case f.HasTransition:
		return categoryTransition
	case f.WasNonNil || f.IsNonNil:
		return categoryHolding
	}
	return categoryNone
}

// holding is the per-contract state carried from the previous tick
type holding struct {
	exposure float64
	basis    float64
}

// State accumulates the cash flow of one roll-over run
// ⭐ SSOT: created per run, never shared between runs
type State struct {
	mode      Mode
	tickValue float64
	basis     float64

	holdings map[contracts.ContractCode]*holding
	missing  []contracts.ContractCode // scratch for closeForgotten

	// Cumulative is the flow settled since the start of the run
	Cumulative float64
	// Incremental is the flow of the last tick
	Incremental float64
	// Flags of the last tick
	Flags Flags
	// Warnings counts quotes that were needed but missing
	Warnings int
}

// NewState creates the state of a run with cfg
func NewState(cfg Config) *State {
	cfg = cfg.withDefaults()
	return &State{
		mode:      cfg.Mode,
		tickValue: cfg.TickValue,
		basis:     cfg.Basis,
		holdings:  make(map[contracts.ContractCode]*holding),
	}
}

// Open returns the number of contracts with exposure carried forward
func (s *State) Open() int {
	return len(s.holdings)
}

// settle books one tick. cut entries that are and stay zero are compacted
// out of cut afterwards.
func (s *State) settle(cut *contracts.Cut, store *series.Store, row []float64, log *logger.Logger) {
	s.Flags = Flags{}
	flow := 0.0

	s.closeForgotten(cut)

	for _, e := range cut.Entries {
		h := s.holdings[e.Code]
		old := 0.0
		if h != nil {
			old = h.exposure
		}
		w := e.Weight
		if w == 0 && old == 0 {
			continue
		}

		q, ok := store.Quote(row, e.Code)
		if !ok {
			if w == 0 {
				delete(s.holdings, e.Code)
				continue
			}
			s.Warnings++
			log.Warnf("cut contained %s %.8g but no quotes have been found", e.Code, w*s.tickValue)
			continue
		}

		if h == nil {
			h = &holding{basis: q}
			s.holdings[e.Code] = h
		}

		switch s.mode {
		case Flow:
			flow += (q - h.basis) * old
			h.basis = q
		case Base:
			flow += (q - s.basis) * w
		case Sparse:
			if w != old {
				flow += (q - h.basis) * (old - w)
				if old == 0 || w == 0 {
					h.basis = q
				}
			}
		}
		h.exposure = w

		if w != old {
			s.Flags.HasTransition = true
		}
		if old != 0 {
			s.Flags.WasNonNil = true
		}
		if w != 0 {
			s.Flags.IsNonNil = true
		} else {
			delete(s.holdings, e.Code)
		}
	}

	cut.Compact(func(e contracts.Entry) bool { return e.Weight != 0 })

	s.Incremental = flow * s.tickValue
	s.Cumulative += s.Incremental
}

// closeForgotten adds a zero entry for every held contract the producer
// left out of cut, in contract order
func (s *State) closeForgotten(cut *contracts.Cut) {
	s.missing = s.missing[:0]
	for code := range s.holdings {
		if _, ok := cut.Get(code); !ok {
			s.missing = append(s.missing, code)
		}
	}
	sort.Slice(s.missing, func(i, j int) bool { return s.missing[i].Less(s.missing[j]) })
	for _, code := range s.missing {
		cut.Upsert(code, 0)
	}
}
