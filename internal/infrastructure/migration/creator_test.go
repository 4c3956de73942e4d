package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/possuite/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add refunds table", "add_refunds_table"},
		{"Add-Stock-Movements", "add_stock_movements"},
		{"ADD_SALE_INDEX", "add_sale_index"},
		{"add__tenant__fk", "add_tenant_fk"},
		{"Backfill Rates 2026", "backfill_rates_2026"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "migrations")
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	f, err := Create(dir, "add refund reason index", "Speeds up refund lookups", now)
	require.NoError(t, err)

	assert.Equal(t, "20260314092653", f.Version)
	assert.Equal(t, filepath.Join(dir, "20260314092653_add_refund_reason_index.up.sql"), f.UpPath)
	assert.Equal(t, filepath.Join(dir, "20260314092653_add_refund_reason_index.down.sql"), f.DownPath)

	up, err := os.ReadFile(f.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- add refund reason index")
	assert.Contains(t, string(up), "-- Speeds up refund lookups")

	down, err := os.ReadFile(f.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(rollback)")

	t.Run("same second collides instead of overwriting", func(t *testing.T) {
		_, err := Create(dir, "add refund reason index", "", now)
		assert.Error(t, err)
	})

	t.Run("empty slug is rejected", func(t *testing.T) {
		_, err := Create(dir, "!!!", "", now)
		assert.Error(t, err)
	})
}

func TestList(t *testing.T) {
	fsys := fstest.MapFS{
		"20260105090100_create_stock.up.sql":     {Data: []byte("--")},
		"20260105090100_create_stock.down.sql":   {Data: []byte("--")},
		"20260105090000_create_tenants.up.sql":   {Data: []byte("--")},
		"20260105090000_create_tenants.down.sql": {Data: []byte("--")},
		"20260105090200_add_index.up.sql":        {Data: []byte("--")},
		"README.md":                              {Data: []byte("docs")},
		"notaversion_x.up.sql":                   {Data: []byte("--")},
		"20260105090300_bad.sideways.sql":        {Data: []byte("--")},
		"20260105090400_dir.up.sql/keep":         {Data: []byte("")},
	}

	entries, err := List(fsys)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, Entry{Version: 20260105090000, Name: "create_tenants", HasDown: true}, entries[0])
	assert.Equal(t, Entry{Version: 20260105090100, Name: "create_stock", HasDown: true}, entries[1])
	assert.Equal(t, Entry{Version: 20260105090200, Name: "add_index", HasDown: false}, entries[2])
}

func TestList_MissingDirectory(t *testing.T) {
	entries, err := List(os.DirFS(filepath.Join(t.TempDir(), "absent")))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestList_EmbeddedSchemaIsComplete(t *testing.T) {
	entries, err := List(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, e := range entries {
		assert.True(t, e.HasDown, "migration %d_%s has no down file", e.Version, e.Name)
	}
	assert.Equal(t, "create_tenants_and_sequences", entries[0].Name)
}
