package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/possuite/backend/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLoader(t *testing.T) configLoader {
	t.Helper()
	path := filepath.Join(t.TempDir(), "posctl.db")
	return func() (*config.Config, error) {
		return &config.Config{
			App:      config.AppConfig{Name: "pos-test", Env: "test"},
			Database: config.DatabaseConfig{Driver: "sqlite", SQLitePath: path},
			Log:      config.LogConfig{Level: "error", Format: "json", Output: "stdout"},
			Redis:    config.RedisConfig{RateTTL: time.Minute},
			Currency: config.CurrencyConfig{Reference: "USD", FreshnessWindow: time.Hour},
			Sequence: config.SequenceConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, LockTimeout: time.Second},
			Sale:     config.SaleConfig{ReportingCurrency: "USD", PaymentTolerance: decimal.RequireFromString("0.01")},
			Telemetry: config.TelemetryConfig{
				ServiceName:       "pos-test",
				DBSlowQueryThresh: time.Second,
			},
		}, nil
	}
}

func execute(t *testing.T, load configLoader, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(load)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPosctl_TenantAndSequence(t *testing.T) {
	load := testLoader(t)

	out, err := execute(t, load, "tenant", "create", "--code", "nbo", "--name", "Nairobi CBD", "--currency", "KES")
	require.NoError(t, err)
	assert.Contains(t, out, "NBO")
	assert.Contains(t, out, "KES")

	out, err = execute(t, load, "tenant", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Nairobi CBD")

	out, err = execute(t, load, "sequence", "current", "--tenant", "NBO", "--kind", "sale")
	require.NoError(t, err)
	assert.Contains(t, out, "sale")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "0"), "got %q", out)

	out, err = execute(t, load, "seq", "ensure", "--tenant", "nbo")
	require.NoError(t, err)
	assert.Contains(t, out, "counters ready for NBO")

	out, err = execute(t, load, "sequence", "sync", "--tenant", "NBO")
	require.NoError(t, err)
	for _, kind := range []string{"sale", "refund", "product", "inventory", "expense"} {
		assert.Contains(t, out, kind)
	}
}

func TestPosctl_Errors(t *testing.T) {
	load := testLoader(t)

	_, err := execute(t, load, "sequence", "current", "--tenant", "MISSING")
	assert.ErrorContains(t, err, "no active tenant")

	_, err = execute(t, load, "tenant", "create", "--code", "X", "--name", "X")
	require.NoError(t, err)
	_, err = execute(t, load, "sequence", "current", "--tenant", "X", "--kind", "voucher")
	assert.Error(t, err)

	_, err = execute(t, load, "sequence", "current")
	assert.ErrorContains(t, err, "--tenant is required")

	_, err = execute(t, load, "rates", "refresh")
	assert.ErrorContains(t, err, "currency.tracked is empty")
}

func TestPosctl_RatesConvertIdentity(t *testing.T) {
	out, err := execute(t, testLoader(t), "rates", "convert", "100", "usd", "USD")
	require.NoError(t, err)
	assert.Contains(t, out, "rate 1, identity")

	_, err = execute(t, testLoader(t), "rates", "convert", "abc", "USD", "KES")
	assert.ErrorContains(t, err, "invalid amount")
}
