package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truffle-roll/truffle/internal/cashflow"
	"github.com/truffle-roll/truffle/internal/contracts"
)

func TestLoad(t *testing.T) {
	p, data, err := Load("testdata/crude-front.yaml")
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	assert.Equal(t, "crude-front", p.Name)
	require.NotNil(t, p.TickValue)
	assert.Equal(t, 1000.0, *p.TickValue)
	assert.Equal(t, 3, p.Years(5))

	cfg, err := p.Apply(cashflow.Config{TickValue: 7, Basis: 3})
	require.NoError(t, err)
	assert.Equal(t, cashflow.Config{
		Mode:        cashflow.Sparse,
		TickValue:   1000,
		Cumulative:  true,
		Incremental: true,
	}, cfg)

	assert.Equal(t, contracts.PrintOptions{Absolute: true, Lever: 10, Round: true}, p.PrintOptions())
}

func TestLoad_Missing(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDecode_UnknownField(t *testing.T) {
	_, err := Decode([]byte("name: x\nmode: flow\ntick_valu: 10\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tick_valu")
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		wantField string
	}{
		{"missing name", "mode: flow\n", "name"},
		{"bad mode", "name: x\nmode: fifo\n", "mode"},
		{"nan tick value", "name: x\ntick_value: .nan\n", "tick_value"},
		{"infinite basis", "name: x\nbasis: .inf\n", "basis"},
		{"negative lever", "name: x\ncut:\n  lever: -2\n", "cut.lever"},
		{"too many years", "name: x\nactive_years: 6\n", "active_years"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.yaml))
			var verr ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestDecode_Defaults(t *testing.T) {
	p, err := Decode([]byte("name: minimal\n"))
	require.NoError(t, err)
	assert.Nil(t, p.TickValue)
	assert.Nil(t, p.Basis)
	assert.Equal(t, 5, p.Years(5))

	base := cashflow.Config{Mode: cashflow.Base, TickValue: 1000, Basis: 50, Incremental: true}
	cfg, err := p.Apply(base)
	require.NoError(t, err)
	assert.Equal(t, base, cfg, "omitted settings keep the lower layer")
}

func TestApply_Partial(t *testing.T) {
	p, err := Decode([]byte("name: x\nmode: flow\nbasis: 0\n"))
	require.NoError(t, err)

	cfg, err := p.Apply(cashflow.Config{Mode: cashflow.Sparse, TickValue: 1000, Basis: 50})
	require.NoError(t, err)
	assert.Equal(t, cashflow.Flow, cfg.Mode)
	assert.Equal(t, 1000.0, cfg.TickValue)
	assert.Zero(t, cfg.Basis, "explicit zero basis overrides")
}

func TestHash(t *testing.T) {
	p, _, err := Load("testdata/crude-front.yaml")
	require.NoError(t, err)

	hash, err := Hash(p)
	require.NoError(t, err)
	assert.Len(t, hash, 64)

	again, _ := Hash(p)
	assert.Equal(t, hash, again, "hash not deterministic")

	tick := 500.0
	p.TickValue = &tick
	changed, _ := Hash(p)
	assert.NotEqual(t, hash, changed)
}

func TestWarn(t *testing.T) {
	fifty := 50.0
	tests := []struct {
		name     string
		profile  Profile
		wantCode []string
	}{
		{"clean", Profile{Name: "x", Mode: "flow"}, nil},
		{"base without basis", Profile{Name: "x", Mode: "base"}, []string{"ZERO_BASIS"}},
		{"unused basis", Profile{Name: "x", Mode: "sparse", Basis: &fifty}, []string{"UNUSED_BASIS"}},
		{"round unlevered", Profile{Name: "x", Cut: Cut{Round: true}}, []string{"ROUND_UNLEVERED"}},
		{"round levered", Profile{Name: "x", Cut: Cut{Round: true, Lever: 20}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var codes []string
			for _, w := range Warn(&tt.profile) {
				codes = append(codes, w.Code)
			}
			assert.Equal(t, tt.wantCode, codes)
		})
	}
}
