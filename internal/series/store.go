package series

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/truffle-roll/truffle/internal/calendar"
	"github.com/truffle-roll/truffle/internal/contracts"
	"github.com/truffle-roll/truffle/pkg/logger"
)

var (
	// ErrParse marks a malformed series line, the line is dropped
	ErrParse = errors.New("series parse error")
	// ErrUnreadable is fatal: the input holds no usable quote
	ErrUnreadable = errors.New("series unreadable")
	// ErrBadDate rejects quotes outside the supported calendar
	ErrBadDate = errors.New("series date out of range")
)

const unsortedWarning = "unsorted input data will result in poor performance"

// Row holds the quotes of one date, indexed by symbol column
type Row struct {
	Day    calendar.DayIndex
	Values []float64
}

// Store is a date-ordered quote table. Every symbol owns one column that
// reads NaN on dates without a quote.
// ⭐ SSOT: rows stay sorted by date, out-of-order inserts take the slow path
type Store struct {
	symbols []contracts.ContractCode
	columns map[contracts.ContractCode]int
	rows    []Row

	log *logger.Logger

	// Unsorted counts inserts that had to shift rows
	Unsorted int
}

// NewStore creates an empty store reporting through log
func NewStore(log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		columns: make(map[contracts.ContractCode]int),
		rows:    make([]Row, 0, 256),
		log:     log,
	}
}

// Insert writes one quote. A later write to the same symbol and date wins.
func (s *Store) Insert(sym contracts.ContractCode, d calendar.Date, v float64) error {
	day := calendar.ToDayIndex(d)
	if day == 0 || day.IsDayInYear() {
		return fmt.Errorf("%w: %s", ErrBadDate, d)
	}
	col := s.column(sym)

	n := len(s.rows)
	if n == 0 || day > s.rows[n-1].Day {
		s.rows = append(s.rows, s.newRow(day))
		s.rows[n].Values[col] = v
		return nil
	}

	i := sort.Search(n, func(i int) bool { return s.rows[i].Day >= day })
	if s.rows[i].Day != day {
		if s.Unsorted == 0 {
			s.log.Warn(unsortedWarning)
		}
		s.Unsorted++
		s.rows = slices.Insert(s.rows, i, s.newRow(day))
	}
	s.rows[i].Values[col] = v
	return nil
}

func (s *Store) newRow(day calendar.DayIndex) Row {
	vals := make([]float64, len(s.symbols))
	for k := range vals {
		vals[k] = math.NaN()
	}
	return Row{Day: day, Values: vals}
}

// column returns the column of sym, adding a NaN column to every row when
// the symbol is new
func (s *Store) column(sym contracts.ContractCode) int {
	if col, ok := s.columns[sym]; ok {
		return col
	}
	col := len(s.symbols)
	s.symbols = append(s.symbols, sym)
	s.columns[sym] = col
	for i := range s.rows {
		s.rows[i].Values = append(s.rows[i].Values, math.NaN())
	}
	return col
}

// Len returns the number of rows
func (s *Store) Len() int {
	return len(s.rows)
}

// Width returns the number of symbol columns
func (s *Store) Width() int {
	return len(s.symbols)
}

// Symbols returns the symbols in column order
func (s *Store) Symbols() []contracts.ContractCode {
	return slices.Clone(s.symbols)
}

// Dates returns the row dates in ascending order
func (s *Store) Dates() []calendar.Date {
	res := make([]calendar.Date, len(s.rows))
	for i, r := range s.rows {
		res[i] = calendar.ToDate(r.Day)
	}
	return res
}

// Row returns the quotes of d, matched by exact date
func (s *Store) Row(d calendar.Date) ([]float64, bool) {
	day := calendar.ToDayIndex(d)
	i := sort.Search(len(s.rows), func(i int) bool { return s.rows[i].Day >= day })
	if i == len(s.rows) || s.rows[i].Day != day {
		return nil, false
	}
	return s.rows[i].Values, true
}

// Quote looks up sym in a row returned by Row. Missing columns and NaN
// cells both report false.
func (s *Store) Quote(row []float64, sym contracts.ContractCode) (float64, bool) {
	col, ok := s.columns[sym]
	if !ok || col >= len(row) || math.IsNaN(row[col]) {
		return math.NaN(), false
	}
	return row[col], true
}

// Each calls fn for every quoted cell, rows in date order
func (s *Store) Each(fn func(sym contracts.ContractCode, d calendar.Date, v float64) error) error {
	for _, r := range s.rows {
		d := calendar.ToDate(r.Day)
		for col, v := range r.Values {
			if math.IsNaN(v) {
				continue
			}
			if err := fn(s.symbols[col], d, v); err != nil {
				return err
			}
		}
	}
	return nil
}
