package db

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)

	ups, downs := map[string]bool{}, map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}

	require.NotEmpty(t, ups)
	assert.Equal(t, ups, downs)
	assert.True(t, ups["000001_create_assets"])
	assert.True(t, ups["000002_make_category_optional"])
}

func TestCreateAssetsMigrationShape(t *testing.T) {
	data, err := fs.ReadFile(migrationsFS, "migrations/000001_create_assets.up.sql")
	require.NoError(t, err)
	sql := string(data)

	assert.Contains(t, sql, "NUMERIC(10, 2)")
	assert.Contains(t, sql, "ux_assets_serial_number")
	assert.Contains(t, sql, "'active', 'inactive', 'maintenance', 'disposed'")
}
