package trod

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/truffle-roll/truffle/internal/calendar"
)

// Instant is a point in time of a roll log. All-day instants cover the
// whole day they name.
type Instant struct {
	Day    calendar.DayIndex
	Sec    int // second of day, ignored when AllDay
	AllDay bool
}

// DayOf returns the all-day instant of d
func DayOf(d calendar.Date) Instant {
	return Instant{Day: calendar.ToDayIndex(d), AllDay: true}
}

// IsZero reports an unset or out-of-range instant
func (i Instant) IsZero() bool {
	return i.Day == 0
}

// Year returns the calendar year of the instant
func (i Instant) Year() int {
	return calendar.Year(i.Day)
}

// rank orders instants within one day, the all-day form comes first
func (i Instant) rank() int {
	if i.AllDay {
		return -1
	}
	return i.Sec
}

// Before orders instants by day, then by time of day
func (i Instant) Before(o Instant) bool {
	if i.Day != o.Day {
		return i.Day < o.Day
	}
	return i.rank() < o.rank()
}

// endsBefore compares the last moments of i and o, an all-day instant
// ends with its day
func (i Instant) endsBefore(o Instant) bool {
	if i.Day != o.Day {
		return i.Day < o.Day
	}
	end := func(x Instant) int {
		if x.AllDay {
			return secondsPerDay
		}
		return x.Sec
	}
	return end(i) < end(o)
}

const secondsPerDay = 24 * 60 * 60

// Covers reports whether e has happened by the time i is reached
func (i Instant) Covers(e Instant) bool {
	if e.Day != i.Day {
		return e.Day < i.Day
	}
	return i.AllDay || e.AllDay || e.Sec <= i.Sec
}

func (i Instant) String() string {
	d := calendar.ToDate(i.Day)
	if i.AllDay {
		return d.String()
	}
	return fmt.Sprintf("%sT%02d:%02d:%02d", d, i.Sec/3600, i.Sec/60%60, i.Sec%60)
}

// ParseInstant reads YYYY-MM-DD or YYYYMMDD, optionally followed by 'T'
// or a space and HH:MM[:SS].
func ParseInstant(s string) (Instant, error) {
	s = strings.TrimSpace(s)
	date, clock := s, ""
	if i := strings.IndexAny(s, "T "); i >= 0 {
		date, clock = s[:i], strings.TrimSpace(s[i+1:])
	}

	d, err := calendar.ParseDate(date)
	if err != nil {
		return Instant{}, err
	}
	if d.Year == 0 {
		return Instant{}, fmt.Errorf("%w: %q has no year", calendar.ErrBadDate, date)
	}
	day := calendar.ToDayIndex(d)
	if clock == "" {
		return Instant{Day: day, AllDay: true}, nil
	}

	parts := strings.Split(clock, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Instant{}, fmt.Errorf("%w: bad time %q", calendar.ErrBadDate, clock)
	}
	limits := [3]int{24, 60, 60}
	sec := 0
	for k, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n >= limits[k] {
			return Instant{}, fmt.Errorf("%w: bad time %q", calendar.ErrBadDate, clock)
		}
		sec = sec*60 + n
	}
	if len(parts) == 2 {
		sec *= 60
	}
	return Instant{Day: day, Sec: sec}, nil
}
