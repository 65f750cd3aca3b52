package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDayIndex(t *testing.T) {
	tests := []struct {
		name string
		date Date
		want DayIndex
	}{
		{"epoch", Date{1917, 1, 1}, 1},
		{"end of first year", Date{1917, 12, 31}, 365},
		{"first leap day", Date{1920, 2, 29}, 3*365 + 60},
		{"after first leap day", Date{1920, 3, 1}, 3*365 + 61},
		{"year after leap", Date{1921, 1, 1}, 4*365 + 1 + 1},
		{"year-agnostic", Date{0, 3, 1}, 60 | DayInYearBit},
		{"before range", Date{1900, 1, 1}, 0},
		{"after range", Date{2100, 1, 1}, 0},
		{"bad month", Date{2020, 13, 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToDayIndex(tt.date))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for y := MinYear; y <= MaxYear; y++ {
		for m := 1; m <= 12; m++ {
			for d := 1; d <= MonthLength(y, m); d++ {
				date := Date{y, m, d}
				idx := ToDayIndex(date)
				require.NotZero(t, idx, "%s", date)
				require.Equal(t, date, ToDate(idx), "index %d", idx)
				require.Equal(t, y, Year(idx), "%s", date)
			}
		}
	}
}

func TestConsecutiveIndices(t *testing.T) {
	prev := ToDayIndex(Date{1999, 12, 31})
	for idx := prev + 1; idx < prev+3000; idx++ {
		d := ToDate(idx)
		require.False(t, d.IsZero())
		require.Equal(t, idx, ToDayIndex(d))
	}
}

func TestYearOutOfRange(t *testing.T) {
	assert.Equal(t, 0, Year(0))
	assert.Equal(t, 0, Year(60|DayInYearBit))
	assert.Equal(t, 0, Year(YearEnd(MaxYear)+1))
	assert.Equal(t, MaxYear, Year(YearEnd(MaxYear)))
	assert.True(t, ToDate(YearEnd(MaxYear)+1).IsZero())
}

func TestDayInYearDate(t *testing.T) {
	assert.Equal(t, Date{Month: 12, Day: 31}, ToDate(365|DayInYearBit))
	assert.Equal(t, Date{Month: 1, Day: 1}, ToDate(1|DayInYearBit))
	assert.True(t, ToDate(366|DayInYearBit).IsZero())
}

func TestReanchor(t *testing.T) {
	mar1 := ToDayIndex(Date{0, 3, 1})
	feb28 := ToDayIndex(Date{0, 2, 28})

	assert.Equal(t, ToDayIndex(Date{2020, 3, 1}), Reanchor(mar1, 2020))
	assert.Equal(t, ToDayIndex(Date{2021, 3, 1}), Reanchor(mar1, 2021))
	assert.Equal(t, ToDayIndex(Date{2020, 2, 28}), Reanchor(feb28, 2020))
	assert.Zero(t, Reanchor(mar1, 1800))
}

func TestReanchorIdempotent(t *testing.T) {
	for _, y := range []int{1917, 1920, 2019, 2020, 2099} {
		for doy := DayIndex(1); doy <= DaysPerYear; doy++ {
			x := doy | DayInYearBit
			once := Reanchor(x, y)
			require.NotZero(t, once)
			require.Equal(t, once, Reanchor(DayInYear(once), y), "doy %d year %d", doy, y)
			require.Equal(t, once, Reanchor(once, y))
		}
	}
}

func TestDayInYearLeap(t *testing.T) {
	// Feb-29 shares the Mar-01 slot
	assert.Equal(t, DayInYear(ToDayIndex(Date{2020, 3, 1})), DayInYear(ToDayIndex(Date{2020, 2, 29})))
	assert.Equal(t, ToDayIndex(Date{0, 6, 1}), DayInYear(ToDayIndex(Date{2020, 6, 1})))
	assert.Equal(t, ToDayIndex(Date{0, 6, 1}), DayInYear(ToDayIndex(Date{2021, 6, 1})))
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input   string
		want    Date
		wantErr bool
	}{
		{"20200101", Date{2020, 1, 1}, false},
		{"2020-02-29", Date{2020, 2, 29}, false},
		{"0601", Date{0, 6, 1}, false},
		{"06-01", Date{0, 6, 1}, false},
		{" 1231 ", Date{0, 12, 31}, false},
		{"2021-02-29", Date{}, true},
		{"2020-0101", Date{}, true},
		{"202001", Date{}, true},
		{"2020-13-01", Date{}, true},
		{"abcd", Date{}, true},
		{"", Date{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadDate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDateString(t *testing.T) {
	assert.Equal(t, "2020-01-05", Date{2020, 1, 5}.String())
	assert.Equal(t, "06-01", Date{0, 6, 1}.String())
}

func TestMonthLetters(t *testing.T) {
	for m := 1; m <= 12; m++ {
		c := LetterFromMonth(m)
		assert.Equal(t, m, MonthFromLetter(c))
		assert.Equal(t, m, MonthFromLetter(c+'a'-'A'))
	}
	assert.Equal(t, 0, MonthFromLetter('A'))
	assert.Equal(t, 0, MonthFromLetter('1'))
	assert.Equal(t, byte('?'), LetterFromMonth(0))
	assert.Equal(t, byte('?'), LetterFromMonth(13))
}
