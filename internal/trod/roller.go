package trod

import (
	"github.com/truffle-roll/truffle/internal/calendar"
	"github.com/truffle-roll/truffle/internal/contracts"
)

// Roller replays a roll log into an active set. Targets are expected in
// non-decreasing order; an earlier target replays the log from the start.
type Roller struct {
	log  *Log
	set  *ActiveSet
	next int // first unapplied event

	last    Instant
	started bool

	// Dropped counts changes whose contract fell outside the window
	Dropped int
}

// NewRoller creates a roller over l with a window of years years
func NewRoller(l *Log, years int) *Roller {
	return &Roller{log: l, set: NewActiveSet(years)}
}

// Set exposes the current active set
func (r *Roller) Set() *ActiveSet {
	return r.set
}

func (r *Roller) rewind() {
	r.set.Clear()
	r.next = 0
	r.Dropped = 0
}

// Update applies every event covered by target and returns the number of
// slots the applied changes flipped.
func (r *Roller) Update(target Instant) int {
	if r.started && target.endsBefore(r.last) {
		r.rewind()
	}
	r.last, r.started = target, true

	changed := 0
	events := r.log.Events()
	for ; r.next < len(events); r.next++ {
		ev := events[r.next]
		if !target.Covers(ev.When) {
			break
		}

		year := ev.When.Year()
		switch {
		case r.set.Year == 0:
			r.set.Year = year
		case year > r.set.Year:
			r.set.FlipOver(year - r.set.Year)
		}

		for _, c := range r.log.Changes(ev) {
			if r.apply(c) {
				changed++
			}
		}
	}
	return changed
}

func (r *Roller) apply(c Change) bool {
	off, ok := r.set.Offset(c.Code)
	if !ok {
		r.Dropped++
		return false
	}
	switch c.Op {
	case Deactivate:
		return r.set.Unset(off, c.Code.Month)
	case Activate:
		return r.set.Set(off, c.Code.Month)
	case ActivateIfAbsent:
		if r.set.Test(off, c.Code.Month) {
			return false
		}
		return r.set.Set(off, c.Code.Month)
	}
	return false
}

// Cut rolls forward to the end of d and reports the active contracts,
// which makes Roller usable as a cut producer of a roll-over run.
func (r *Roller) Cut(prev *contracts.Cut, d calendar.Date) *contracts.Cut {
	at := DayOf(d)
	r.Update(at)
	return CutFromActiveSet(prev, r.set, at)
}

// CutFromActiveSet emits weight 1 for every active contract. A previous
// cut is zeroed and refilled in place; nil allocates a new one.
func CutFromActiveSet(prev *contracts.Cut, set *ActiveSet, at Instant) *contracts.Cut {
	year := at.Year()
	cut := prev
	if cut == nil {
		cut = contracts.NewCut(year)
	} else {
		cut.Reset(year)
	}

	if set.Count() == 0 {
		return cut
	}
	for off := 0; off < set.Years(); off++ {
		for m := 1; m <= monthsPerYear; m++ {
			if set.Test(off, m) {
				cut.Upsert(contracts.ContractCode{Month: m, Year: set.Year + off}, 1)
			}
		}
	}
	return cut
}
