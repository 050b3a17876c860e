package badger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionCRUD(t *testing.T) {
	store := setupTestStore(t)
	tx := newTransaction(store.db.NewTransaction(true), true)
	defer tx.Discard()

	key := []byte("tx-test-key")
	value := []byte("tx-test-value")

	require.NoError(t, tx.Set(key, value))

	val, err := tx.Get(key)
	require.NoError(t, err)
	assert.Equal(t, value, val)

	exists, err := tx.Exists(key)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, tx.Delete(key))

	val, err = tx.Get(key)
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestTransactionLifecycle(t *testing.T) {
	store := setupTestStore(t)
	tx := newTransaction(store.db.NewTransaction(true), true)

	require.NoError(t, tx.Set([]byte("k"), []byte("v")))
	assert.True(t, tx.IsActive())
	require.NoError(t, tx.Commit())
	assert.False(t, tx.IsActive())

	assert.ErrorIs(t, tx.Commit(), ErrTxClosed)
	assert.ErrorIs(t, tx.Set([]byte("k2"), []byte("v")), ErrTxClosed)
	_, err := tx.Get([]byte("k"))
	assert.ErrorIs(t, err, ErrTxClosed)

	// 提交后丢弃是空操作
	tx.Discard()
}

func TestEmptyTransactionCommit(t *testing.T) {
	store := setupTestStore(t)
	tx := newTransaction(store.db.NewTransaction(true), true)
	assert.NoError(t, tx.Commit())
}

func TestReadOnlyTransactionRejectsWrites(t *testing.T) {
	store := setupTestStore(t)
	tx := newTransaction(store.db.NewTransaction(false), false)
	defer tx.Discard()

	assert.ErrorIs(t, tx.Set([]byte("k"), []byte("v")), ErrTxReadOnly)
	assert.ErrorIs(t, tx.Delete([]byte("k")), ErrTxReadOnly)
	assert.Zero(t, tx.Writes())
}
