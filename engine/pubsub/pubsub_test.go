package pubsub

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zhukovaskychina/rlitedb/engine/collection"
	"github.com/zhukovaskychina/rlitedb/engine/keydir"
	"github.com/zhukovaskychina/rlitedb/engine/storage/driver"
	"github.com/zhukovaskychina/rlitedb/engine/txn"
)

func newTestPubSub(t *testing.T) *PubSub {
	t.Helper()
	mgr := txn.NewManager(driver.NewMemoryDriver())
	_, err := mgr.ReadHeader(driver.ReadWrite | driver.Create)
	assert.NoError(t, err)
	assert.NoError(t, keydir.InitRoot(mgr))
	dir := keydir.Open(mgr)
	coll := collection.New(mgr, dir)

	fifoDir := t.TempDir()
	return New(mgr, coll, func(subscriberID string) string {
		return filepath.Join(fifoDir, fmt.Sprintf("sub.%s", subscriberID))
	})
}

func TestSubscriberIDIsStableAcrossCalls(t *testing.T) {
	p := newTestPubSub(t)
	id1, err := p.SubscriberID()
	assert.NoError(t, err)
	id2, err := p.SubscriberID()
	assert.NoError(t, err)
	assert.Equal(t, id1, id2)
}

func TestSubscribeThenChannelsListsThem(t *testing.T) {
	p := newTestPubSub(t)
	assert.NoError(t, p.Subscribe([][]byte{[]byte("room1"), []byte("room2")}))

	channels, err := p.Channels()
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"room1", "room2"}, channels)
}

func TestUnsubscribeWithNoPriorSubscribeIsNoop(t *testing.T) {
	p := newTestPubSub(t)
	assert.NoError(t, p.Unsubscribe([][]byte{[]byte("room1")}))
}

func TestPublishThenPollDeliversMessageGroup(t *testing.T) {
	p := newTestPubSub(t)
	assert.NoError(t, p.Subscribe([][]byte{[]byte("room1")}))

	recipients, err := p.Publish([]byte("room1"), []byte("payload"))
	assert.NoError(t, err)
	assert.Equal(t, 1, recipients)

	group, err := p.Poll()
	assert.NoError(t, err)
	assert.Equal(t, [][]byte{{3}, []byte("message"), []byte("room1"), []byte("payload")}, group)
}

func TestPollWithNoSubscriberIDIsNotFound(t *testing.T) {
	p := newTestPubSub(t)
	_, err := p.Poll()
	assert.True(t, txn.Is(err, txn.FaultNotFound))
}

func TestPollWhenQueueEmptyIsNotFound(t *testing.T) {
	p := newTestPubSub(t)
	assert.NoError(t, p.Subscribe([][]byte{[]byte("room1")}))

	_, err := p.Poll()
	assert.True(t, txn.Is(err, txn.FaultNotFound))
}

func TestChannelsWithNoSubscriberIDIsEmpty(t *testing.T) {
	p := newTestPubSub(t)
	channels, err := p.Channels()
	assert.NoError(t, err)
	assert.Nil(t, channels)
}

func TestPublishFanoutTracksPerChannelRecipients(t *testing.T) {
	p := newTestPubSub(t)
	assert.NoError(t, p.Subscribe([][]byte{[]byte("room1")}))

	recipients, err := p.PublishFanout([][]byte{[]byte("room1"), []byte("room2")}, []byte("data"))
	assert.NoError(t, err)
	assert.Equal(t, 1, recipients["room1"])
	assert.Equal(t, 0, recipients["room2"])

	group, err := p.Poll()
	assert.NoError(t, err)
	assert.Equal(t, []byte("room1"), group[2])
}
