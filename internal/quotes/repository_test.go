package quotes

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truffle-roll/truffle/internal/calendar"
	"github.com/truffle-roll/truffle/internal/contracts"
	"github.com/truffle-roll/truffle/internal/series"
)

func TestNewRepository_Table(t *testing.T) {
	tests := []struct {
		table   string
		want    string
		wantErr bool
	}{
		{"futures_quotes", `"futures_quotes"`, false},
		{"market.futures_quotes", `"market"."futures_quotes"`, false},
		{"Quotes2", `"Quotes2"`, false},
		{"", "", true},
		{"a.b.c", "", true},
		{"quotes; DROP TABLE x", "", true},
		{`"quoted"`, "", true},
		{"2020quotes", "", true},
		{"market.", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			r, err := NewRepository(nil, tt.table, nil)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrTable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.table)
		})
	}
}

func TestTimeConversion(t *testing.T) {
	d := calendar.Date{Year: 2024, Month: 2, Day: 29}
	tm := toTime(d)
	assert.Equal(t, time.UTC, tm.Location())
	assert.Equal(t, d, fromTime(tm))

	assert.Nil(t, bound(calendar.Date{}))
	assert.Equal(t, tm, bound(d))
}

func TestRepository_RoundTrip(t *testing.T) {
	url := os.Getenv("TRUFFLE_TEST_DATABASE_URL")
	if testing.Short() || url == "" {
		t.Skip("TRUFFLE_TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err, "database connection failed")
	defer pool.Close()

	table := fmt.Sprintf("truffle_quotes_test_%d", time.Now().UnixNano())
	repo, err := NewRepository(pool, table, nil)
	require.NoError(t, err)
	require.NoError(t, repo.EnsureTable(ctx))
	defer pool.Exec(context.Background(), "DROP TABLE IF EXISTS "+repo.table)

	h20 := contracts.ContractCode{Month: 3, Year: 2020}
	m20 := contracts.ContractCode{Month: 6, Year: 2020}

	src := series.NewStore(nil)
	require.NoError(t, src.Insert(h20, calendar.Date{Year: 2020, Month: 1, Day: 2}, 100))
	require.NoError(t, src.Insert(m20, calendar.Date{Year: 2020, Month: 1, Day: 2}, 101))
	require.NoError(t, src.Insert(h20, calendar.Date{Year: 2020, Month: 1, Day: 3}, 102))

	saved, err := repo.SaveStore(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, 3, saved)

	// upsert overwrites
	require.NoError(t, repo.Save(ctx, h20, calendar.Date{Year: 2020, Month: 1, Day: 3}, 104))

	dst := series.NewStore(nil)
	loaded, err := repo.LoadInto(ctx, dst, Range{})
	require.NoError(t, err)
	assert.Equal(t, 3, loaded)
	assert.Zero(t, dst.Unsorted)

	row, ok := dst.Row(calendar.Date{Year: 2020, Month: 1, Day: 3})
	require.True(t, ok)
	v, ok := dst.Quote(row, h20)
	require.True(t, ok)
	assert.Equal(t, 104.0, v)

	partial := series.NewStore(nil)
	loaded, err = repo.LoadInto(ctx, partial, Range{From: calendar.Date{Year: 2020, Month: 1, Day: 3}})
	require.NoError(t, err)
	assert.Equal(t, 1, loaded)
	assert.Equal(t, 1, partial.Len())
}
