package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truffle-roll/truffle/pkg/config"
)

func testConfig(url string) *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{
			URL:             url,
			MaxConns:        2,
			MinConns:        1,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 30 * time.Minute,
		},
	}
}

func TestNew(t *testing.T) {
	url := os.Getenv("TRUFFLE_TEST_DATABASE_URL")
	if testing.Short() || url == "" {
		t.Skip("TRUFFLE_TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := New(ctx, testConfig(url))
	require.NoError(t, err)

	require.NoError(t, db.Ping(ctx))
	assert.Equal(t, int32(2), db.Stats().MaxConns)

	// Close should not panic
	db.Close()

	// Double close should not panic
	db.Close()
}

func TestNewNotConfigured(t *testing.T) {
	_, err := New(context.Background(), testConfig(""))
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNewWithInvalidURL(t *testing.T) {
	_, err := New(context.Background(), testConfig("invalid://url"))
	assert.Error(t, err)
}

func TestPoolStatsFields(t *testing.T) {
	fields := PoolStats{AcquireCount: 3, MaxConns: 4, AcquireDuration: time.Second}.Fields()
	assert.Equal(t, int64(3), fields["acquire_count"])
	assert.Equal(t, "1s", fields["acquire_duration"])
	assert.Equal(t, int32(4), fields["max_conns"])
}
