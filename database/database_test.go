package database

import (
	"context"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareSQLiteDSN(t *testing.T) {
	dsn, err := PrepareSQLiteDSN("file:app.db")
	require.NoError(t, err)

	base, raw, ok := strings.Cut(dsn, "?")
	require.True(t, ok)
	assert.Equal(t, "file:app.db", base)

	q, err := url.ParseQuery(raw)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"journal_mode(WAL)", "busy_timeout(5000)"}, q["_pragma"])
	assert.Equal(t, "immediate", q.Get("_txlock"))
	assert.Equal(t, "sqlite", q.Get("_time_format"))
}

func TestPrepareSQLiteDSNKeepsExplicitSettings(t *testing.T) {
	dsn, err := PrepareSQLiteDSN("file:app.db?_pragma=journal_mode(DELETE)&_txlock=deferred")
	require.NoError(t, err)

	_, raw, _ := strings.Cut(dsn, "?")
	q, err := url.ParseQuery(raw)
	require.NoError(t, err)
	assert.Contains(t, q["_pragma"], "journal_mode(DELETE)")
	assert.NotContains(t, q["_pragma"], "journal_mode(WAL)")
	assert.Equal(t, "deferred", q.Get("_txlock"))
}

func TestDriverDSN(t *testing.T) {
	driver, dsn, err := driverDSN(EngineMySQL, "root:pw@tcp(localhost:3306)/food")
	require.NoError(t, err)
	assert.Equal(t, "mysql", driver)
	assert.Contains(t, dsn, "parseTime=true")

	_, _, err = driverDSN("", "x")
	assert.Error(t, err)
	_, _, err = driverDSN("mongo", "x")
	assert.Error(t, err)
}

func TestOpenAndMigrateSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "foodie.db")

	db, err := Open(ctx, Options{Engine: EngineSQLite, URI: "file:" + path, ConnTimeout: 5 * time.Second})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(ctx, db, EngineSQLite, 0))
	v, err := Version(ctx, db, EngineSQLite)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	// idempotent
	require.NoError(t, Migrate(ctx, db, EngineSQLite, 0))

	var n int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cooking_groups").Scan(&n))
	assert.Zero(t, n)

	// one pending request per pair, whichever side sent it
	insert := "INSERT INTO friendships (id, owner_id, peer_id, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)"
	now := time.Now().UTC()
	_, err = db.ExecContext(ctx, insert, "f1", "bob", "alice", "pending", now, now)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, insert, "f2", "alice", "bob", "pending", now, now)
	assert.Error(t, err)
	_, err = db.ExecContext(ctx, insert, "f3", "alice", "bob", "accepted", now, now)
	assert.NoError(t, err)
}
