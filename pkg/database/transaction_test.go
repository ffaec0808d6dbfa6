package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubConn records transaction lifecycle calls so the tests can observe what
// actually reached the driver.
type stubConn struct {
	begun      int
	committed  int
	rolledBack int
}

type stubDriver struct {
	conn *stubConn
}

func (d *stubDriver) Open(name string) (driver.Conn, error) { return d.conn, nil }

func (c *stubConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("not supported")
}
func (c *stubConn) Close() error { return nil }
func (c *stubConn) Begin() (driver.Tx, error) {
	c.begun++
	return &stubTx{conn: c}, nil
}
func (c *stubConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	return c.Begin()
}

type stubTx struct {
	conn *stubConn
}

func (t *stubTx) Commit() error {
	t.conn.committed++
	return nil
}
func (t *stubTx) Rollback() error {
	t.conn.rolledBack++
	return nil
}

func newStubDB(t *testing.T, name string) (DB, *stubConn) {
	t.Helper()

	conn := &stubConn{}
	sql.Register(name, &stubDriver{conn: conn})
	raw, err := sql.Open(name, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })

	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewDatabaseInstance(sqlx.NewDb(raw, "postgres"), logger), conn
}

func TestRollbackReachesDriver(t *testing.T) {
	db, conn := newStubDB(t, "txstub-rollback")

	ctx, tx, err := db.GetTx(context.Background(), &sql.TxOptions{Isolation: sql.LevelSerializable})
	require.NoError(t, err)
	require.Equal(t, 1, conn.begun)

	// The owner's deferred Rollback runs with the context GetTx returned.
	require.NoError(t, tx.Rollback(ctx))
	assert.Equal(t, 1, conn.rolledBack)
	assert.False(t, tx.IsOpen())

	// A second Rollback is a no-op.
	require.NoError(t, tx.Rollback(ctx))
	assert.Equal(t, 1, conn.rolledBack)
}

func TestRollbackAfterCommitIsNoOp(t *testing.T) {
	db, conn := newStubDB(t, "txstub-commit")

	ctx, tx, err := db.GetTx(context.Background(), nil)
	require.NoError(t, err)

	require.NoError(t, tx.Commit(ctx))
	require.NoError(t, tx.Rollback(ctx))

	assert.Equal(t, 1, conn.committed)
	assert.Equal(t, 0, conn.rolledBack)
	assert.False(t, tx.IsOpen())
}

func TestNestedScopeDoesNotCloseOwnersTransaction(t *testing.T) {
	db, conn := newStubDB(t, "txstub-nested")

	ctx, outer, err := db.GetTx(context.Background(), nil)
	require.NoError(t, err)

	// An inner scope picks up the same transaction from the context.
	_, inner, err := db.GetTx(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 1, conn.begun)

	require.NoError(t, inner.Rollback(ctx))
	require.NoError(t, inner.Commit(ctx))
	assert.Equal(t, 0, conn.rolledBack)
	assert.Equal(t, 0, conn.committed)
	assert.True(t, outer.IsOpen())

	require.NoError(t, outer.Rollback(ctx))
	assert.Equal(t, 1, conn.rolledBack)
}
