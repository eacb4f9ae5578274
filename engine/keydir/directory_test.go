package keydir

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zhukovaskychina/rlitedb/engine/storage/driver"
	"github.com/zhukovaskychina/rlitedb/engine/txn"
)

func newTestDirectory(t *testing.T) *Directory {
	t.Helper()
	mgr := txn.NewManager(driver.NewMemoryDriver())
	_, err := mgr.ReadHeader(driver.ReadWrite | driver.Create)
	assert.NoError(t, err)
	assert.NoError(t, InitRoot(mgr))
	return Open(mgr)
}

func TestSetKeyThenGetKey(t *testing.T) {
	dir := newTestDirectory(t)
	assert.NoError(t, dir.Set([]byte("answer"), 42))

	v, found, err := dir.Get([]byte("answer"))
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(42), v)
}

func TestGetKeyMissing(t *testing.T) {
	dir := newTestDirectory(t)
	_, found, err := dir.Get([]byte("nope"))
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestSetKeyOverwritesValue(t *testing.T) {
	dir := newTestDirectory(t)
	assert.NoError(t, dir.Set([]byte("answer"), 1))
	assert.NoError(t, dir.Set([]byte("answer"), 2))

	v, found, err := dir.Get([]byte("answer"))
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(2), v)
}

func TestRootPageIsOne(t *testing.T) {
	assert.Equal(t, int64(1), int64(RootPage))
}
