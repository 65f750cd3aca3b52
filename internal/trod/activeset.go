package trod

import (
	"math/bits"

	"github.com/truffle-roll/truffle/internal/contracts"
)

const (
	monthsPerYear = 12

	// MaxYears is the widest window one uint64 can hold
	MaxYears = 5
	// DefaultYears is the window of a zero-configured set
	DefaultYears = MaxYears
)

// ActiveSet tracks active contracts over a window of years starting at
// Year. Slot (offset, month) is bit capacity-1-(offset*12+month-1), so the
// oldest year sits in the high bits and FlipOver is a left shift.
type ActiveSet struct {
	// Year is the year of offset 0, zero until the first contract is set
	Year int

	bits  uint64
	years int
}

// NewActiveSet creates a set spanning years years, at most MaxYears.
// Zero or negative years select DefaultYears.
func NewActiveSet(years int) *ActiveSet {
	switch {
	case years <= 0:
		years = DefaultYears
	case years > MaxYears:
		years = MaxYears
	}
	return &ActiveSet{years: years}
}

// Capacity returns the number of slots
func (s *ActiveSet) Capacity() int {
	return s.years * monthsPerYear
}

// Years returns the width of the window
func (s *ActiveSet) Years() int {
	return s.years
}

func (s *ActiveSet) mask() uint64 {
	return ^uint64(0) >> (64 - s.Capacity())
}

func (s *ActiveSet) bit(offset, month int) (uint64, bool) {
	if offset < 0 || offset >= s.years || month < 1 || month > monthsPerYear {
		return 0, false
	}
	slot := offset*monthsPerYear + month - 1
	return 1 << uint(s.Capacity()-1-slot), true
}

// Set activates a slot and reports whether the bit changed
func (s *ActiveSet) Set(offset, month int) bool {
	b, ok := s.bit(offset, month)
	if !ok || s.bits&b != 0 {
		return false
	}
	s.bits |= b
	return true
}

// Unset deactivates a slot and reports whether the bit changed
func (s *ActiveSet) Unset(offset, month int) bool {
	b, ok := s.bit(offset, month)
	if !ok || s.bits&b == 0 {
		return false
	}
	s.bits &^= b
	return true
}

// Test reports whether a slot is active
func (s *ActiveSet) Test(offset, month int) bool {
	b, ok := s.bit(offset, month)
	return ok && s.bits&b != 0
}

// Offset maps code into the window, ok is false outside of it
func (s *ActiveSet) Offset(code contracts.ContractCode) (int, bool) {
	off := code.Year - s.Year
	return off, s.Year != 0 && off >= 0 && off < s.years
}

// FlipOver advances the window by years, dropping the oldest years
func (s *ActiveSet) FlipOver(years int) {
	if years <= 0 {
		return
	}
	if years >= s.years {
		s.bits = 0
	} else {
		s.bits = (s.bits << uint(years*monthsPerYear)) & s.mask()
	}
	if s.Year != 0 {
		s.Year += years
	}
}

// Count returns the number of active slots
func (s *ActiveSet) Count() int {
	return bits.OnesCount64(s.bits)
}

// Clear deactivates everything and forgets the anchor year
func (s *ActiveSet) Clear() {
	s.bits = 0
	s.Year = 0
}

// Codes returns the active contracts, oldest first
func (s *ActiveSet) Codes() []contracts.ContractCode {
	res := make([]contracts.ContractCode, 0, s.Count())
	for off := 0; off < s.years; off++ {
		for m := 1; m <= monthsPerYear; m++ {
			if s.Test(off, m) {
				res = append(res, contracts.ContractCode{Month: m, Year: s.Year + off})
			}
		}
	}
	return res
}
