package calendar

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// DayIndex counts days since 1916-12-31, so 1917-01-01 is day 1.
// When DayInYearBit is set the low bits hold a day of an unspecified year
// (1..365, non-leap numbering) and the value must be re-anchored before it
// can be compared with absolute indices.
type DayIndex uint32

// DayInYearBit marks a year-agnostic DayIndex
const DayInYearBit DayIndex = 1 << 31

// Supported year range. The leap rule year%4 == 0 only holds inside it.
const (
	BaseYear = 1917
	MinYear  = BaseYear
	MaxYear  = 2099
)

// DaysPerYear is the length of the year-agnostic numbering
const DaysPerYear = 365

// ErrBadDate is returned by ParseDate for unreadable input
var ErrBadDate = errors.New("bad date")

// cumDays[m] is the number of days before month m in a non-leap year,
// cumDays[13] closes the year.
var cumDays = [14]DayIndex{0, 0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334, 365}

// yearOffsets[i] is the DayIndex of Dec-31 of the year before MinYear+i,
// the extra slot bounds MaxYear.
var yearOffsets = func() []DayIndex {
	res := make([]DayIndex, MaxYear-MinYear+2)
	for i := range res {
		res[i] = yearOffset(MinYear + i)
	}
	return res
}()

func yearOffset(year int) DayIndex {
	dy := year - BaseYear
	return DayIndex(dy*365 + dy/4)
}

// Date is a calendar date, Year == 0 means any year
type Date struct {
	Year  int
	Month int
	Day   int
}

// IsLeap reports the simplified every-4-years rule
func IsLeap(year int) bool {
	return year%4 == 0
}

// MonthLength returns the number of days in month, February counts 29
// for year-agnostic dates.
func MonthLength(year, month int) int {
	if month < 1 || month > 12 {
		return 0
	}
	n := int(cumDays[month+1] - cumDays[month])
	if month == 2 && (year == 0 || IsLeap(year)) {
		n++
	}
	return n
}

// Valid checks the date against the supported range
func (d Date) Valid() bool {
	if d.Year != 0 && (d.Year < MinYear || d.Year > MaxYear) {
		return false
	}
	return d.Day >= 1 && d.Day <= MonthLength(d.Year, d.Month)
}

// IsZero reports the zero sentinel
func (d Date) IsZero() bool {
	return d == Date{}
}

// Before orders dates lexicographically
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// String formats YYYY-MM-DD, or MM-DD for year-agnostic dates
func (d Date) String() string {
	if d.Year == 0 {
		return fmt.Sprintf("%02d-%02d", d.Month, d.Day)
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// ToDayIndex converts a date into its day index. Dates outside the
// supported range yield 0.
func ToDayIndex(d Date) DayIndex {
	if d.Month < 1 || d.Month > 12 || d.Day < 1 || d.Day > 31 {
		return 0
	}
	res := cumDays[d.Month] + DayIndex(d.Day)
	if d.Year == 0 {
		return res | DayInYearBit
	}
	if d.Year < MinYear || d.Year > MaxYear {
		return 0
	}
	res += yearOffset(d.Year)
	if IsLeap(d.Year) && d.Month > 2 {
		res++
	}
	return res
}

// IsDayInYear reports whether idx is year-agnostic
func (idx DayIndex) IsDayInYear() bool {
	return idx&DayInYearBit != 0
}

// Year returns the year of an absolute index, 0 for year-agnostic or
// out-of-range values.
func Year(idx DayIndex) int {
	if idx == 0 || idx.IsDayInYear() || idx > yearOffsets[len(yearOffsets)-1] {
		return 0
	}
	// first year whose offset is >= idx, the one before holds idx
	i := sort.Search(len(yearOffsets), func(i int) bool {
		return yearOffsets[i] >= idx
	})
	return MinYear + i - 1
}

// ToDate is the inverse of ToDayIndex
func ToDate(idx DayIndex) Date {
	if idx.IsDayInYear() {
		doy := idx &^ DayInYearBit
		if doy < 1 || doy > DaysPerYear {
			return Date{}
		}
		m, d := splitDayOfYear(doy)
		return Date{Month: m, Day: d}
	}
	y := Year(idx)
	if y == 0 {
		return Date{}
	}
	doy := idx - yearOffsets[y-MinYear]
	if IsLeap(y) {
		switch {
		case doy == 60:
			return Date{Year: y, Month: 2, Day: 29}
		case doy > 60:
			doy--
		}
	}
	m, d := splitDayOfYear(doy)
	return Date{Year: y, Month: m, Day: d}
}

func splitDayOfYear(doy DayIndex) (int, int) {
	m := 1
	for m < 12 && cumDays[m+1] < doy {
		m++
	}
	return m, int(doy - cumDays[m])
}

// DayInYear drops the year of an absolute index. Feb-29 shares its
// slot with Mar-01.
func DayInYear(idx DayIndex) DayIndex {
	if idx.IsDayInYear() {
		return idx
	}
	d := ToDate(idx)
	if d.IsZero() {
		return 0
	}
	d.Year = 0
	return ToDayIndex(d)
}

// Reanchor places a day-in-year value into a concrete year. Absolute
// inputs are first reduced to their day in year.
func Reanchor(diy DayIndex, year int) DayIndex {
	if year < MinYear || year > MaxYear {
		return 0
	}
	if !diy.IsDayInYear() {
		if diy = DayInYear(diy); diy == 0 {
			return 0
		}
	}
	doy := diy &^ DayInYearBit
	res := yearOffsets[year-MinYear] + doy
	if IsLeap(year) && doy > cumDays[3] {
		res++
	}
	return res
}

// YearStart and YearEnd bound a year in absolute indices
func YearStart(year int) DayIndex {
	return ToDayIndex(Date{Year: year, Month: 1, Day: 1})
}

func YearEnd(year int) DayIndex {
	return ToDayIndex(Date{Year: year, Month: 12, Day: 31})
}

// ParseDate reads YYYYMMDD, YYYY-MM-DD, MMDD or MM-DD. The short forms
// produce year-agnostic dates.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	digits := strings.ReplaceAll(s, "-", "")
	if len(digits) != 8 && len(digits) != 4 {
		return Date{}, fmt.Errorf("%w: %q", ErrBadDate, s)
	}
	if dashes := len(s) - len(digits); dashes != 0 && dashes != len(digits)/4 {
		return Date{}, fmt.Errorf("%w: %q", ErrBadDate, s)
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return Date{}, fmt.Errorf("%w: %q", ErrBadDate, s)
	}
	d := Date{Year: n / 10000, Month: (n / 100) % 100, Day: n % 100}
	if !d.Valid() {
		return Date{}, fmt.Errorf("%w: %q out of range", ErrBadDate, s)
	}
	return d, nil
}

const monthLetters = "FGHJKMNQUVXZ"

// MonthFromLetter maps the futures month letters, case-insensitively,
// unknown letters map to 0.
func MonthFromLetter(c byte) int {
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	return strings.IndexByte(monthLetters, c) + 1
}

// LetterFromMonth is the inverse of MonthFromLetter, '?' for invalid months
func LetterFromMonth(month int) byte {
	if month < 1 || month > 12 {
		return '?'
	}
	return monthLetters[month-1]
}
