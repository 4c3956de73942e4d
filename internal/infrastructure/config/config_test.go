package config

import (
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"POS_APP_ENV",
	"POS_DATABASE_DRIVER",
	"POS_DATABASE_HOST",
	"POS_DATABASE_PORT",
	"POS_DATABASE_PASSWORD",
	"POS_DATABASE_SSLMODE",
	"POS_DATABASE_MAX_OPEN_CONNS",
	"POS_DATABASE_MAX_IDLE_CONNS",
	"POS_CURRENCY_REFERENCE",
	"POS_CURRENCY_FRESHNESS_WINDOW",
	"POS_CURRENCY_TRACKED",
	"POS_SEQUENCE_MAX_ATTEMPTS",
	"POS_SEQUENCE_INITIAL_BACKOFF",
	"POS_SEQUENCE_MAX_BACKOFF",
	"POS_SALE_PAYMENT_TOLERANCE",
	"POS_TELEMETRY_DB_LOG_FULL_SQL",
	"POS_TELEMETRY_SAMPLING_RATIO",
}

// clearEnv unsets every key the tests touch and restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnvKeys {
		if v, ok := os.LookupEnv(k); ok {
			t.Cleanup(func() { os.Setenv(k, v) })
		}
		os.Unsetenv(k)
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "pos-core", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "pos", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)

		assert.Equal(t, "USD", cfg.Currency.Reference)
		assert.Equal(t, 4*time.Hour, cfg.Currency.FreshnessWindow)
		assert.Equal(t, time.Hour, cfg.Currency.RefreshInterval)
		assert.Empty(t, cfg.Currency.Tracked)

		assert.Equal(t, 3, cfg.Sequence.MaxAttempts)
		assert.Equal(t, 50*time.Millisecond, cfg.Sequence.InitialBackoff)
		assert.Equal(t, time.Second, cfg.Sequence.MaxBackoff)
		assert.Equal(t, 2*time.Second, cfg.Sequence.LockTimeout)

		assert.Equal(t, "USD", cfg.Sale.ReportingCurrency)
		assert.True(t, decimal.RequireFromString("0.01").Equal(cfg.Sale.PaymentTolerance))
		assert.Equal(t, "", cfg.Redis.Addr())
	})

	t.Run("loads values from environment variables with POS prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("POS_DATABASE_HOST", "db.internal")
		t.Setenv("POS_DATABASE_PORT", "6432")
		t.Setenv("POS_CURRENCY_REFERENCE", "EUR")
		t.Setenv("POS_CURRENCY_FRESHNESS_WINDOW", "90m")
		t.Setenv("POS_CURRENCY_TRACKED", "ugx, kes,EUR")
		t.Setenv("POS_SEQUENCE_MAX_ATTEMPTS", "5")
		t.Setenv("POS_SALE_PAYMENT_TOLERANCE", "0.5")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "db.internal", cfg.Database.Host)
		assert.Equal(t, 6432, cfg.Database.Port)
		assert.Equal(t, "EUR", cfg.Currency.Reference)
		assert.Equal(t, "EUR", cfg.Sale.ReportingCurrency)
		assert.Equal(t, 90*time.Minute, cfg.Currency.FreshnessWindow)
		assert.Equal(t, []string{"UGX", "KES", "EUR"}, cfg.Currency.Tracked)
		assert.Equal(t, 5, cfg.Sequence.MaxAttempts)
		assert.Equal(t, "0.5", cfg.Sale.PaymentTolerance.String())
	})

	t.Run("rejects an unknown driver", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("POS_DATABASE_DRIVER", "mysql")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("rejects idle connections above open connections", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("POS_DATABASE_MAX_OPEN_CONNS", "4")
		t.Setenv("POS_DATABASE_MAX_IDLE_CONNS", "8")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects a malformed payment tolerance", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("POS_SALE_PAYMENT_TOLERANCE", "one cent")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sale.payment_tolerance")
	})

	t.Run("rejects max backoff below initial backoff", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("POS_SEQUENCE_INITIAL_BACKOFF", "2s")
		t.Setenv("POS_SEQUENCE_MAX_BACKOFF", "1s")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sequence.max_backoff")
	})

	t.Run("rejects sampling ratio out of range", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("POS_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "telemetry.sampling_ratio")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		t.Setenv("POS_APP_ENV", "production")
		t.Setenv("POS_DATABASE_PASSWORD", "secure-password")
		t.Setenv("POS_DATABASE_SSLMODE", "require")
	}

	t.Run("requires database.password in production", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("POS_APP_ENV", "production")
		t.Setenv("POS_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		clearEnv(t)
		setValidProductionBase(t)
		t.Setenv("POS_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("forbids full SQL in traces in production", func(t *testing.T) {
		clearEnv(t)
		setValidProductionBase(t)
		t.Setenv("POS_TELEMETRY_DB_LOG_FULL_SQL", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db_log_full_sql")
	})

	t.Run("sqlite needs no password in production", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("POS_APP_ENV", "production")
		t.Setenv("POS_DATABASE_DRIVER", "sqlite")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "pos.db", cfg.Database.DSN())
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		clearEnv(t)
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})

	t.Run("sqlite uses the file path", func(t *testing.T) {
		cfg := DatabaseConfig{Driver: "sqlite", SQLitePath: "/var/lib/pos/pos.db"}
		assert.Equal(t, "/var/lib/pos/pos.db", cfg.DSN())
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	assert.Equal(t, "", (&RedisConfig{Port: 6379}).Addr())
	assert.Equal(t, "cache:6380", (&RedisConfig{Host: "cache", Port: 6380}).Addr())
}
