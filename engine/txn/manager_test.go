package txn

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zhukovaskychina/rlitedb/engine/storage/driver"
	"github.com/zhukovaskychina/rlitedb/engine/storage/pages"
)

// stringType is a trivial pages.DataType storing a plain string, used to
// exercise the manager's Read/Write/Commit cycle without needing a real
// page format.
type stringType struct{}

func (stringType) Name() pages.Kind { return pages.Kind("string") }
func (stringType) Serialize(ctx *pages.Context, obj interface{}, buf []byte) error {
	s := obj.(string)
	copy(buf, s)
	return nil
}
func (stringType) Deserialize(ctx *pages.Context, deserCtx interface{}, buf []byte) (interface{}, error) {
	return string(buf), nil
}
func (stringType) Destroy(ctx *pages.Context, obj interface{}) {}

func TestMemoryManagerCreatesFreshDatabase(t *testing.T) {
	mgr := NewManager(driver.NewMemoryDriver())
	created, err := mgr.ReadHeader(driver.ReadWrite | driver.Create)
	assert.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(2), mgr.NextEmptyPage())
}

func TestFileManagerCreateThenReopenFindsExistingHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.rlite")

	d1 := driver.NewFileDriver(path, driver.ReadWrite|driver.Create)
	mgr1 := NewManager(d1)
	created, err := mgr1.ReadHeader(driver.ReadWrite | driver.Create)
	assert.NoError(t, err)
	assert.True(t, created)
	assert.NoError(t, mgr1.Close())

	d2 := driver.NewFileDriver(path, driver.ReadWrite)
	mgr2 := NewManager(d2)
	created2, err := mgr2.ReadHeader(driver.ReadWrite)
	assert.NoError(t, err)
	assert.False(t, created2)
	assert.Equal(t, mgr1.Ctx.PageSize, mgr2.Ctx.PageSize)
	assert.NoError(t, mgr2.Close())
}

func TestFileManagerWithoutCreateFlagOnMissingFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.rlite")
	mgr := NewManager(driver.NewFileDriver(path, driver.ReadWrite))
	_, err := mgr.ReadHeader(driver.ReadWrite)
	assert.Error(t, err)
}

func TestWriteRejectsPageZero(t *testing.T) {
	mgr := NewManager(driver.NewMemoryDriver())
	_, err := mgr.ReadHeader(driver.ReadWrite | driver.Create)
	assert.NoError(t, err)

	err = mgr.Write(stringType{}, 0, "x")
	assert.Error(t, err)
	assert.True(t, Is(err, FaultUnexpected))
}

func TestAllocatePageAdvancesNextEmptyPage(t *testing.T) {
	mgr := NewManager(driver.NewMemoryDriver())
	_, err := mgr.ReadHeader(driver.ReadWrite | driver.Create)
	assert.NoError(t, err)

	first := mgr.AllocatePage()
	second := mgr.AllocatePage()
	assert.Equal(t, int64(2), first)
	assert.Equal(t, int64(3), second)
}

func TestWriteAtNextEmptyPageAdvancesCounter(t *testing.T) {
	mgr := NewManager(driver.NewMemoryDriver())
	_, err := mgr.ReadHeader(driver.ReadWrite | driver.Create)
	assert.NoError(t, err)

	assert.Equal(t, int64(2), mgr.NextEmptyPage())
	assert.NoError(t, mgr.Write(stringType{}, 2, "obj"))
	assert.Equal(t, int64(3), mgr.NextEmptyPage())
}

func TestWriteThenReadReturnsCachedObjectBeforeCommit(t *testing.T) {
	mgr := NewManager(driver.NewMemoryDriver())
	_, err := mgr.ReadHeader(driver.ReadWrite | driver.Create)
	assert.NoError(t, err)

	page := mgr.AllocatePage()
	assert.NoError(t, mgr.Write(stringType{}, page, "hello"))

	obj, err := mgr.Read(stringType{}, page, nil)
	assert.NoError(t, err)
	assert.Equal(t, "hello", obj)
}

func TestFileManagerCommitPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.rlite")

	d1 := driver.NewFileDriver(path, driver.ReadWrite|driver.Create)
	mgr1 := NewManager(d1)
	_, err := mgr1.ReadHeader(driver.ReadWrite | driver.Create)
	assert.NoError(t, err)

	page := mgr1.AllocatePage()
	buf := make([]byte, mgr1.Ctx.PageSize)
	copy(buf, "persisted")
	assert.NoError(t, mgr1.Write(stringType{}, page, string(buf)))
	assert.NoError(t, mgr1.Commit())
	assert.NoError(t, mgr1.Close())

	d2 := driver.NewFileDriver(path, driver.ReadWrite)
	mgr2 := NewManager(d2)
	_, err = mgr2.ReadHeader(driver.ReadWrite)
	assert.NoError(t, err)

	obj, err := mgr2.Read(stringType{}, page, nil)
	assert.NoError(t, err)
	got := obj.(string)
	assert.Equal(t, "persisted", got[:len("persisted")])
	assert.NoError(t, mgr2.Close())
}

func TestReadMissingPageIsNotFoundFault(t *testing.T) {
	mgr := NewManager(driver.NewMemoryDriver())
	_, err := mgr.ReadHeader(driver.ReadWrite | driver.Create)
	assert.NoError(t, err)

	_, err = mgr.Read(stringType{}, 99, nil)
	assert.True(t, Is(err, FaultNotFound))
}

func TestMemoryManagerCommitSurvivesDiscard(t *testing.T) {
	mgr := NewManager(driver.NewMemoryDriver())
	_, err := mgr.ReadHeader(driver.ReadWrite | driver.Create)
	assert.NoError(t, err)

	page := mgr.AllocatePage()
	buf := make([]byte, mgr.Ctx.PageSize)
	copy(buf, "committed")
	assert.NoError(t, mgr.Write(stringType{}, page, string(buf)))
	assert.NoError(t, mgr.Commit())

	// Discard (as pubsub's PollWait does before blocking on a FIFO) must
	// not erase data a prior Commit already made durable.
	assert.NoError(t, mgr.Discard())

	obj, err := mgr.Read(stringType{}, page, nil)
	assert.NoError(t, err)
	got := obj.(string)
	assert.Equal(t, "committed", got[:len("committed")])
}

func TestDiscardClearsBothCacheSets(t *testing.T) {
	mgr := NewManager(driver.NewMemoryDriver())
	_, err := mgr.ReadHeader(driver.ReadWrite | driver.Create)
	assert.NoError(t, err)

	page := mgr.AllocatePage()
	assert.NoError(t, mgr.Write(stringType{}, page, "x"))
	assert.NoError(t, mgr.Discard())

	assert.Len(t, mgr.Cache.Write, 0)
	assert.Len(t, mgr.Cache.Read, 0)
}
