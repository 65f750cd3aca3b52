package quotes

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/truffle-roll/truffle/internal/calendar"
	"github.com/truffle-roll/truffle/internal/contracts"
	"github.com/truffle-roll/truffle/internal/series"
	"github.com/truffle-roll/truffle/pkg/logger"
)

// ErrTable is returned for a table name that is not [schema.]name
var ErrTable = errors.New("bad quotes table name")

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// batchSize bounds the statements queued per round trip in SaveStore
const batchSize = 500

// Range limits a load, a zero bound is open
type Range struct {
	From calendar.Date
	Till calendar.Date
}

// Repository reads and writes settlement quotes
// ⭐ SSOT: quote storage is accessed here only
type Repository struct {
	pool  *pgxpool.Pool
	table string // sanitized, safe to splice into SQL
	log   *logger.Logger
}

// NewRepository creates a repository on table, e.g. market.futures_quotes
func NewRepository(pool *pgxpool.Pool, table string, log *logger.Logger) (*Repository, error) {
	ident, err := parseTable(table)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Repository{pool: pool, table: ident.Sanitize(), log: log}, nil
}

func parseTable(table string) (pgx.Identifier, error) {
	parts := strings.Split(table, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("%w: %q", ErrTable, table)
	}
	for _, p := range parts {
		if !identPattern.MatchString(p) {
			return nil, fmt.Errorf("%w: %q", ErrTable, table)
		}
	}
	return pgx.Identifier(parts), nil
}

// EnsureTable creates the quotes table when it is missing
func (r *Repository) EnsureTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			symbol     TEXT NOT NULL,
			trade_date DATE NOT NULL,
			value      DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (symbol, trade_date)
		)
	`, r.table)

	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", r.table, err)
	}
	return nil
}

func (r *Repository) upsertQuery() string {
	return fmt.Sprintf(`
		INSERT INTO %s (symbol, trade_date, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (symbol, trade_date) DO UPDATE SET
			value = EXCLUDED.value
	`, r.table)
}

// Save upserts a single quote
func (r *Repository) Save(ctx context.Context, sym contracts.ContractCode, d calendar.Date, v float64) error {
	_, err := r.pool.Exec(ctx, r.upsertQuery(), series.FormatSymbol(sym), toTime(d), v)
	if err != nil {
		return fmt.Errorf("save %s %s: %w", sym, d, err)
	}
	return nil
}

// SaveStore upserts every quoted cell of store and returns the count
func (r *Repository) SaveStore(ctx context.Context, store *series.Store) (int, error) {
	query := r.upsertQuery()
	batch := &pgx.Batch{}
	saved := 0

	flush := func() error {
		if batch.Len() == 0 {
			return nil
		}
		n := batch.Len()
		br := r.pool.SendBatch(ctx, batch)
		for i := 0; i < n; i++ {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return err
			}
		}
		if err := br.Close(); err != nil {
			return err
		}
		saved += n
		batch = &pgx.Batch{}
		return nil
	}

	err := store.Each(func(sym contracts.ContractCode, d calendar.Date, v float64) error {
		batch.Queue(query, series.FormatSymbol(sym), toTime(d), v)
		if batch.Len() >= batchSize {
			return flush()
		}
		return nil
	})
	if err == nil {
		err = flush()
	}
	if err != nil {
		return saved, fmt.Errorf("save store: %w", err)
	}

	r.log.WithFields(map[string]interface{}{
		"table":  r.table,
		"quotes": saved,
	}).Info("Quotes saved")
	return saved, nil
}

// LoadInto streams quotes in date order into store and returns the count
func (r *Repository) LoadInto(ctx context.Context, store *series.Store, rng Range) (int, error) {
	query := fmt.Sprintf(`
		SELECT symbol, trade_date, value
		FROM %s
		WHERE ($1::date IS NULL OR trade_date >= $1)
		  AND ($2::date IS NULL OR trade_date <= $2)
		ORDER BY trade_date ASC, symbol ASC
	`, r.table)

	rows, err := r.pool.Query(ctx, query, bound(rng.From), bound(rng.Till))
	if err != nil {
		return 0, fmt.Errorf("query %s: %w", r.table, err)
	}
	defer rows.Close()

	loaded, skipped := 0, 0
	for rows.Next() {
		var (
			symbol string
			date   time.Time
			value  float64
		)
		if err := rows.Scan(&symbol, &date, &value); err != nil {
			return loaded, err
		}

		sym, err := series.ParseSymbol(symbol)
		if err == nil {
			err = store.Insert(sym, fromTime(date), value)
		}
		if err != nil {
			skipped++
			r.log.WithError(err).Warnf("skipping stored quote %s %s", symbol, date.Format("2006-01-02"))
			continue
		}
		loaded++
	}
	if err := rows.Err(); err != nil {
		return loaded, fmt.Errorf("read %s: %w", r.table, err)
	}

	r.log.WithFields(map[string]interface{}{
		"table":   r.table,
		"quotes":  loaded,
		"skipped": skipped,
	}).Debug("Quotes loaded")
	return loaded, nil
}

func bound(d calendar.Date) any {
	if d.IsZero() {
		return nil
	}
	return toTime(d)
}

func toTime(d calendar.Date) time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

func fromTime(t time.Time) calendar.Date {
	return calendar.Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}
