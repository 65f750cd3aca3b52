package cashflow

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/truffle-roll/truffle/internal/calendar"
	"github.com/truffle-roll/truffle/internal/contracts"
	"github.com/truffle-roll/truffle/internal/series"
	"github.com/truffle-roll/truffle/pkg/logger"
)

// Producer yields the cut of a date. prev is the cut of the previous
// tick and may be refilled in place.
type Producer interface {
	Cut(prev *contracts.Cut, d calendar.Date) *contracts.Cut
}

// Config holds roll-over configuration
type Config struct {
	Mode      Mode
	TickValue float64 // currency per price point, 0 means 1
	Basis     float64 // run basis of Base mode, added to cumulative output

	// Output columns. With neither set the cumulative column is printed.
	Cumulative  bool
	Incremental bool
}

func (c Config) withDefaults() Config {
	if c.TickValue == 0 {
		c.TickValue = 1
	}
	if !c.Cumulative && !c.Incremental {
		c.Cumulative = true
	}
	return c
}

// Tick is the outcome of one date
type Tick struct {
	Date       calendar.Date
	Flow       float64
	Cumulative float64
	Flags      Flags
	Visible    bool
}

// Result holds roll-over results
type Result struct {
	Config   Config
	Duration time.Duration

	Ticks    int // dates with a series row
	Rows     int // ticks printed
	Skipped  int // dates without a series row
	Warnings int // missing quotes

	Cumulative float64
	Open       int // contracts still held at the end
}

// Engine runs roll-over simulations
// ⭐ SSOT: cash flow is settled here only
type Engine struct {
	cfg    Config
	logger *logger.Logger
}

// NewEngine creates a new roll-over engine
func NewEngine(cfg Config, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{cfg: cfg.withDefaults(), logger: log}
}

// Config returns the effective configuration
func (e *Engine) Config() Config {
	return e.cfg
}

// Run settles every date of store in ascending order, asking p for the
// cut of each date, and writes the visible ticks to w.
func (e *Engine) Run(ctx context.Context, p Producer, store *series.Store, w io.Writer) (*Result, error) {
	e.logger.WithFields(map[string]interface{}{
		"mode":       e.cfg.Mode.String(),
		"tick_value": e.cfg.TickValue,
		"basis":      e.cfg.Basis,
		"dates":      store.Len(),
		"symbols":    store.Width(),
	}).Info("Starting roll-over")

	startTime := time.Now()
	result := &Result{Config: e.cfg}

	st := NewState(e.cfg)
	bw := bufio.NewWriter(w)
	var cut *contracts.Cut

	for _, d := range store.Dates() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("roll-over at %s: %w", d, err)
		}

		cut = p.Cut(cut, d)
		tick, ok := e.Step(st, cut, store, d)
		if !ok {
			result.Skipped++
			continue
		}
		result.Ticks++

		if !tick.Visible {
			continue
		}
		if err := e.WriteTick(bw, tick); err != nil {
			return nil, fmt.Errorf("write tick %s: %w", d, err)
		}
		result.Rows++
	}
	if err := bw.Flush(); err != nil {
		return nil, fmt.Errorf("flush: %w", err)
	}

	result.Duration = time.Since(startTime)
	result.Warnings = st.Warnings
	result.Cumulative = st.Cumulative
	result.Open = st.Open()

	e.logger.WithFields(map[string]interface{}{
		"duration":   result.Duration.Seconds(),
		"ticks":      result.Ticks,
		"rows":       result.Rows,
		"skipped":    result.Skipped,
		"warnings":   result.Warnings,
		"cumulative": result.Cumulative,
	}).Info("Roll-over completed")

	return result, nil
}

// Step settles the cut of date d against the store row of d. It reports
// false, leaving st untouched, when the store has no row for d.
func (e *Engine) Step(st *State, cut *contracts.Cut, store *series.Store, d calendar.Date) (Tick, bool) {
	row, ok := store.Row(d)
	if !ok {
		return Tick{}, false
	}
	st.settle(cut, store, row, e.logger)

	return Tick{
		Date:       d,
		Flow:       st.Incremental,
		Cumulative: st.Cumulative,
		Flags:      st.Flags,
		Visible:    st.Flags.Category() > e.cfg.Mode.threshold(),
	}, true
}

// WriteTick prints DATE \t VALUE, or DATE \t CUMULATIVE \t FLOW when both
// output columns are enabled
func (e *Engine) WriteTick(w io.Writer, t Tick) error {
	var err error
	switch {
	case e.cfg.Cumulative && e.cfg.Incremental:
		_, err = fmt.Fprintf(w, "%s\t%.8g\t%.8g\n", t.Date, t.Cumulative+e.cfg.Basis, t.Flow)
	case e.cfg.Incremental:
		_, err = fmt.Fprintf(w, "%s\t%.8g\n", t.Date, t.Flow)
	default:
		_, err = fmt.Fprintf(w, "%s\t%.8g\n", t.Date, t.Cumulative+e.cfg.Basis)
	}
	return err
}
