package trod

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truffle-roll/truffle/internal/contracts"
)

func TestNewActiveSet(t *testing.T) {
	tests := []struct {
		years     int
		wantYears int
	}{
		{0, DefaultYears},
		{-3, DefaultYears},
		{1, 1},
		{3, 3},
		{5, 5},
		{9, MaxYears},
	}

	for _, tt := range tests {
		s := NewActiveSet(tt.years)
		assert.Equal(t, tt.wantYears, s.Years())
		assert.Equal(t, tt.wantYears*12, s.Capacity())
	}
}

func TestActiveSet_SetUnsetTest(t *testing.T) {
	s := NewActiveSet(0)

	assert.True(t, s.Set(0, 1))
	assert.False(t, s.Set(0, 1), "setting twice changes nothing")
	assert.True(t, s.Test(0, 1))
	assert.False(t, s.Test(1, 1))

	assert.True(t, s.Set(4, 12))
	assert.Equal(t, 2, s.Count())

	assert.True(t, s.Unset(0, 1))
	assert.False(t, s.Unset(0, 1))
	assert.False(t, s.Test(0, 1))
	assert.Equal(t, 1, s.Count())

	// outside the window
	assert.False(t, s.Set(5, 1))
	assert.False(t, s.Set(-1, 1))
	assert.False(t, s.Set(0, 13))
	assert.False(t, s.Test(5, 1))
}

func TestActiveSet_BitLayout(t *testing.T) {
	s := NewActiveSet(5)

	// oldest year in the high bits
	s.Set(0, 1)
	assert.Equal(t, uint64(1)<<59, s.bits)

	s.Clear()
	s.Set(4, 12)
	assert.Equal(t, uint64(1), s.bits)
}

func TestActiveSet_FlipOver(t *testing.T) {
	s := NewActiveSet(5)
	s.Year = 2020
	s.Set(0, 3)  // H2020
	s.Set(1, 6)  // M2021
	s.Set(4, 12) // Z2024

	s.FlipOver(1)
	assert.Equal(t, 2021, s.Year)
	assert.Equal(t, 2, s.Count())
	assert.True(t, s.Test(0, 6))
	assert.True(t, s.Test(3, 12))
	assert.False(t, s.Test(4, 12))

	s.FlipOver(0)
	assert.Equal(t, 2021, s.Year)

	s.FlipOver(7)
	assert.Equal(t, 2028, s.Year)
	assert.Zero(t, s.Count())
}

func TestActiveSet_Offset(t *testing.T) {
	s := NewActiveSet(2)

	_, ok := s.Offset(code(1, 2020))
	assert.False(t, ok, "no anchor year yet")

	s.Year = 2020
	off, ok := s.Offset(code(1, 2021))
	require.True(t, ok)
	assert.Equal(t, 1, off)

	_, ok = s.Offset(code(1, 2022))
	assert.False(t, ok)
	_, ok = s.Offset(code(12, 2019))
	assert.False(t, ok)
}

func TestActiveSet_Codes(t *testing.T) {
	s := NewActiveSet(3)
	s.Year = 2020
	s.Set(2, 1)
	s.Set(0, 12)
	s.Set(0, 3)

	assert.Equal(t, []contracts.ContractCode{code(3, 2020), code(12, 2020), code(1, 2022)}, s.Codes())
}
