package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, Migrate(ctx, db))

	v, err := SchemaVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, migrations[len(migrations)-1].version, v)

	var n int
	require.NoError(t, db.GetContext(ctx, &n, "SELECT COUNT(*) FROM schema_version"))
	assert.Equal(t, len(migrations), n)

	for _, table := range []string{"users", "auth_tokens", "boards", "board_columns", "tickets"} {
		var name string
		err := db.GetContext(ctx, &name, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table)
		assert.NoError(t, err, table)
	}
}

func TestMigrationVersionsAreSequential(t *testing.T) {
	for i, m := range migrations {
		assert.Equal(t, i+1, m.version)
		assert.NotEmpty(t, m.mysql)
		assert.NotEmpty(t, m.sqlite)
	}
}

func TestSQLiteForeignKeysEnabled(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	var on int
	require.NoError(t, db.Get(&on, "PRAGMA foreign_keys"))
	assert.Equal(t, 1, on)
}
