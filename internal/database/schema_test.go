package database

import (
	"context"
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateIsRepeatableAndIndexesCaptures(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, Migrate(ctx, db), "second run finds everything in place")

	var name string
	err = db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = 'captures' AND name = ?",
		"idx_captures_user_created").Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "idx_captures_user_created", name)

	var detail string
	err = db.QueryRowContext(ctx,
		"EXPLAIN QUERY PLAN SELECT id FROM captures WHERE user_id = ? ORDER BY created_at DESC", "u1").
		Scan(new(int), new(int), new(int), &detail)
	require.NoError(t, err)
	assert.Contains(t, detail, "idx_captures_user_created")
}

func TestIndexExists(t *testing.T) {
	assert.True(t, indexExists(&mysql.MySQLError{Number: 1061, Message: "Duplicate key name"}))
	assert.False(t, indexExists(&mysql.MySQLError{Number: 1146, Message: "Table doesn't exist"}))
	assert.True(t, indexExists(errors.New("index idx_captures_user_created already exists")))
	assert.False(t, indexExists(errors.New("no such table: captures")))
}
