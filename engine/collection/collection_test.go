package collection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zhukovaskychina/rlitedb/engine/keydir"
	"github.com/zhukovaskychina/rlitedb/engine/storage/driver"
	"github.com/zhukovaskychina/rlitedb/engine/txn"
)

func newTestCollection(t *testing.T) *Collection {
	t.Helper()
	mgr := txn.NewManager(driver.NewMemoryDriver())
	_, err := mgr.ReadHeader(driver.ReadWrite | driver.Create)
	assert.NoError(t, err)
	assert.NoError(t, keydir.InitRoot(mgr))
	dir := keydir.Open(mgr)
	return New(mgr, dir)
}

func TestSAddThenSMembers(t *testing.T) {
	c := newTestCollection(t)
	c.Select(NamespaceSubscriberChannels)
	defer c.Reset()

	assert.NoError(t, c.SAdd([]byte("room1"), []byte("subA")))
	assert.NoError(t, c.SAdd([]byte("room1"), []byte("subB")))

	members, err := c.SMembers([]byte("room1"))
	assert.NoError(t, err)
	assert.ElementsMatch(t, [][]byte{[]byte("subA"), []byte("subB")}, members)
}

func TestSAddIsIdempotent(t *testing.T) {
	c := newTestCollection(t)
	c.Select(NamespaceSubscriberChannels)
	defer c.Reset()

	assert.NoError(t, c.SAdd([]byte("room1"), []byte("subA")))
	assert.NoError(t, c.SAdd([]byte("room1"), []byte("subA")))

	members, err := c.SMembers([]byte("room1"))
	assert.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestSRemRemovesMember(t *testing.T) {
	c := newTestCollection(t)
	c.Select(NamespaceSubscriberChannels)
	defer c.Reset()

	assert.NoError(t, c.SAdd([]byte("room1"), []byte("subA")))
	assert.NoError(t, c.SAdd([]byte("room1"), []byte("subB")))
	assert.NoError(t, c.SRem([]byte("room1"), []byte("subA")))

	members, err := c.SMembers([]byte("room1"))
	assert.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("subB")}, members)
}

func TestSRemOnMissingSetIsNoop(t *testing.T) {
	c := newTestCollection(t)
	c.Select(NamespaceSubscriberChannels)
	defer c.Reset()

	assert.NoError(t, c.SRem([]byte("nope"), []byte("subA")))
}

func TestSMembersOnMissingSetIsEmpty(t *testing.T) {
	c := newTestCollection(t)
	c.Select(NamespaceSubscriberChannels)
	defer c.Reset()

	members, err := c.SMembers([]byte("nope"))
	assert.NoError(t, err)
	assert.Nil(t, members)
}

func TestSetOverflowsIntoANewPage(t *testing.T) {
	c := newTestCollection(t)
	c.Mgr.Ctx.PageSize = 64
	c.Select(NamespaceSubscriberChannels)
	defer c.Reset()

	for i := 0; i < 20; i++ {
		member := []byte{byte(i), byte(i), byte(i), byte(i)}
		assert.NoError(t, c.SAdd([]byte("big-room"), member))
	}

	members, err := c.SMembers([]byte("big-room"))
	assert.NoError(t, err)
	assert.Len(t, members, 20)
}

func TestNamespacesAreIsolated(t *testing.T) {
	c := newTestCollection(t)

	c.Select(NamespaceSubscriberChannels)
	assert.NoError(t, c.SAdd([]byte("name"), []byte("forward")))
	c.Reset()

	c.Select(NamespaceSubscriberChannelsReverse)
	members, err := c.SMembers([]byte("name"))
	assert.NoError(t, err)
	assert.Nil(t, members)
	c.Reset()
}

func TestPushThenPopFIFOOrder(t *testing.T) {
	c := newTestCollection(t)
	c.Select(NamespaceSubscriberMessages)
	defer c.Reset()

	assert.NoError(t, c.Push([]byte("subA"), []byte("one"), []byte("two")))
	assert.NoError(t, c.Push([]byte("subA"), []byte("three")))

	got1, err := c.Pop([]byte("subA"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("one"), got1)

	got2, err := c.Pop([]byte("subA"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("two"), got2)

	got3, err := c.Pop([]byte("subA"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("three"), got3)
}

func TestPopOnExhaustedListIsNotFound(t *testing.T) {
	c := newTestCollection(t)
	c.Select(NamespaceSubscriberMessages)
	defer c.Reset()

	assert.NoError(t, c.Push([]byte("subA"), []byte("one")))
	_, err := c.Pop([]byte("subA"))
	assert.NoError(t, err)

	_, err = c.Pop([]byte("subA"))
	assert.True(t, txn.Is(err, txn.FaultNotFound))
}

func TestPopOnMissingListIsNotFound(t *testing.T) {
	c := newTestCollection(t)
	c.Select(NamespaceSubscriberMessages)
	defer c.Reset()

	_, err := c.Pop([]byte("nope"))
	assert.True(t, txn.Is(err, txn.FaultNotFound))
}

func TestListOverflowsIntoANewNode(t *testing.T) {
	c := newTestCollection(t)
	c.Mgr.Ctx.PageSize = 64
	c.Select(NamespaceSubscriberMessages)
	defer c.Reset()

	for i := 0; i < 20; i++ {
		elem := []byte{byte(i), byte(i), byte(i), byte(i)}
		assert.NoError(t, c.Push([]byte("subA"), elem))
	}

	for i := 0; i < 20; i++ {
		got, err := c.Pop([]byte("subA"))
		assert.NoError(t, err)
		assert.Equal(t, byte(i), got[0])
	}
}
