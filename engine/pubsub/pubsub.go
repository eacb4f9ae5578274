// Package pubsub implements spec.md §4.7: subscription bookkeeping,
// publication, and polling, a direct idiomatic-Go port of
// _examples/original_source/src/pubsub.c's rl_subscribe/rl_unsubscribe/
// rl_publish/rl_poll/rl_poll_wait.
package pubsub

import (
	"context"
	"errors"

	"github.com/zhukovaskychina/rlitedb/engine/collection"
	"github.com/zhukovaskychina/rlitedb/engine/pubsub/fifo"
	"github.com/zhukovaskychina/rlitedb/engine/pubsub/subscriberid"
	"github.com/zhukovaskychina/rlitedb/engine/txn"
	"github.com/zhukovaskychina/rlitedb/logger"
	"github.com/zhukovaskychina/rlitedb/util"
)

// message is the literal tag rl_publish prepends to every group,
// spec.md §6.
const message = "message"

// errLengthByte marks the fatal consistency fault spec.md §4.7
// describes: a length-prefix element that is not exactly one byte.
var errLengthByte = errors.New("pubsub: message group length prefix must be exactly one byte")

// PubSub ties the collection layer to one open database handle's
// subscriber identity. It is not safe for concurrent use, matching the
// single-threaded-per-handle model of spec.md §5.
type PubSub struct {
	Mgr  *txn.Manager
	Coll *collection.Collection
	// FifoPath returns the wake-up pipe's filesystem path for a given
	// subscriber id, per spec.md §6's "<database_filename>.<subscriber_id>"
	// convention.
	FifoPath func(subscriberID string) string

	subscriberID string
}

// New returns a handle with no subscriber id yet assigned; one is
// generated lazily on first Subscribe or PollWait.
func New(mgr *txn.Manager, coll *collection.Collection, fifoPath func(string) string) *PubSub {
	return &PubSub{Mgr: mgr, Coll: coll, FifoPath: fifoPath}
}

// SubscriberID returns the current subscriber id, generating one if
// this handle has never subscribed or polled before.
func (p *PubSub) SubscriberID() (string, error) {
	if p.subscriberID != "" {
		return p.subscriberID, nil
	}
	id, err := subscriberid.Generate(util.GetCurrentTimeMillis())
	if err != nil {
		return "", err
	}
	p.subscriberID = id
	return id, nil
}

// Subscribe adds this handle's subscriber id as a member of every
// named channel's set, commits at the end, and restores NamespaceNone
// on every exit path. No file lock is taken or released.
func (p *PubSub) Subscribe(channels [][]byte) error {
	id, err := p.SubscriberID()
	if err != nil {
		return err
	}
	defer p.Coll.Reset()

	p.Coll.Select(collection.NamespaceSubscriberChannels)
	for _, ch := range channels {
		if err := p.Coll.SAdd(ch, []byte(id)); err != nil {
			return err
		}
	}
	p.Coll.Select(collection.NamespaceSubscriberChannelsReverse)
	for _, ch := range channels {
		if err := p.Coll.SAdd([]byte(id), ch); err != nil {
			return err
		}
	}
	return p.Mgr.Commit()
}

// Unsubscribe removes this handle's subscriber id from every named
// channel's set. A handle with no subscriber id yet (never subscribed)
// succeeds vacuously.
func (p *PubSub) Unsubscribe(channels [][]byte) error {
	if p.subscriberID == "" {
		return nil
	}
	defer p.Coll.Reset()

	p.Coll.Select(collection.NamespaceSubscriberChannels)
	for _, ch := range channels {
		if err := p.Coll.SRem(ch, []byte(p.subscriberID)); err != nil {
			return err
		}
	}
	p.Coll.Select(collection.NamespaceSubscriberChannelsReverse)
	for _, ch := range channels {
		if err := p.Coll.SRem([]byte(p.subscriberID), ch); err != nil {
			return err
		}
	}
	return p.Mgr.Commit()
}

// Channels lists the channels this handle is currently subscribed to,
// a supplemented convenience not present in pubsub.c, backed by the
// reverse index Subscribe/Unsubscribe maintain alongside the forward
// per-channel sets.
func (p *PubSub) Channels() ([]string, error) {
	if p.subscriberID == "" {
		return nil, nil
	}
	p.Coll.Select(collection.NamespaceSubscriberChannelsReverse)
	defer p.Coll.Reset()
	members, err := p.Coll.SMembers([]byte(p.subscriberID))
	if err != nil {
		return nil, err
	}
	out := make([]string, len(members))
	for i, m := range members {
		out[i] = string(m)
	}
	return out, nil
}

// Publish delivers data on channel to every current subscriber,
// returning the recipient count. No subscribers is success with
// recipients=0, per spec.md §7.
func (p *PubSub) Publish(channel, data []byte) (recipients int, err error) {
	p.Coll.Select(collection.NamespaceSubscriberChannels)
	members, err := p.Coll.SMembers(channel)
	p.Coll.Reset()
	if err != nil {
		return 0, err
	}
	if len(members) == 0 {
		return 0, nil
	}

	group := messageGroup(channel, data)
	p.Coll.Select(collection.NamespaceSubscriberMessages)
	for _, m := range members {
		if err := p.Coll.Push(m, group...); err != nil {
			p.Coll.Reset()
			return 0, err
		}
	}
	p.Coll.Reset()

	// Publishers always commit before signalling FIFOs (spec.md §5),
	// so a reader woken by a FIFO byte is guaranteed to already see at
	// least one message in its list.
	if err := p.Mgr.Commit(); err != nil {
		return 0, err
	}
	for _, m := range members {
		if err := fifo.Signal(p.FifoPath(string(m))); err != nil {
			logger.Errorf("pubsub: signalling subscriber %s: %v", m, err)
		}
	}
	return len(members), nil
}

// PublishFanout publishes data to several channels. Every channel's
// message pushes are queued and committed together in one transaction
// before any FIFO is signalled, so a failure partway through never
// leaves some subscribers signalled for a message their list doesn't
// actually hold yet.
func (p *PubSub) PublishFanout(channels [][]byte, data []byte) (map[string]int, error) {
	recipients := make(map[string]int, len(channels))
	allMembers := make(map[string][][]byte, len(channels))

	for _, ch := range channels {
		p.Coll.Select(collection.NamespaceSubscriberChannels)
		members, err := p.Coll.SMembers(ch)
		p.Coll.Reset()
		if err != nil {
			return nil, err
		}
		recipients[string(ch)] = len(members)
		if len(members) == 0 {
			continue
		}
		allMembers[string(ch)] = members

		group := messageGroup(ch, data)
		p.Coll.Select(collection.NamespaceSubscriberMessages)
		for _, m := range members {
			if err := p.Coll.Push(m, group...); err != nil {
				p.Coll.Reset()
				return nil, err
			}
		}
		p.Coll.Reset()
	}

	if err := p.Mgr.Commit(); err != nil {
		return nil, err
	}

	signalled := make(map[string]bool)
	for _, members := range allMembers {
		for _, m := range members {
			if signalled[string(m)] {
				continue
			}
			signalled[string(m)] = true
			if err := fifo.Signal(p.FifoPath(string(m))); err != nil {
				logger.Errorf("pubsub: signalling subscriber %s: %v", m, err)
			}
		}
	}
	return recipients, nil
}

func messageGroup(channel, data []byte) [][]byte {
	return [][]byte{{3}, []byte(message), channel, data}
}

// Poll pops this handle's next message group: a length byte N followed
// by N elements, returned together as N+1 elements with the length byte
// first. Requires a subscriber id (from a prior Subscribe or PollWait);
// without one, NOT_FOUND.
func (p *PubSub) Poll() ([][]byte, error) {
	if p.subscriberID == "" {
		return nil, txn.NewFault(txn.FaultNotFound, nil)
	}
	p.Coll.Select(collection.NamespaceSubscriberMessages)
	defer p.Coll.Reset()

	lenElem, err := p.Coll.Pop([]byte(p.subscriberID))
	if err != nil {
		return nil, err
	}
	if len(lenElem) != 1 {
		return nil, txn.NewFault(txn.FaultUnexpected, errLengthByte)
	}
	n := int(lenElem[0])
	group := make([][]byte, n+1)
	group[0] = lenElem
	for i := 1; i <= n; i++ {
		elem, err := p.Coll.Pop([]byte(p.subscriberID))
		if err != nil {
			return nil, err
		}
		group[i] = elem
	}
	return group, nil
}

// PollWait polls once, and on NOT_FOUND discards the transaction caches
// (spec.md §4.7's discard-before-blocking step; the handle holds no file
// lock) and blocks on this subscriber's FIFO until data arrives or ctx
// is done, then retries Poll exactly once.
func (p *PubSub) PollWait(ctx context.Context) ([][]byte, error) {
	group, err := p.Poll()
	if err == nil {
		return group, nil
	}
	if !txn.Is(err, txn.FaultNotFound) {
		return nil, err
	}

	id, idErr := p.SubscriberID()
	if idErr != nil {
		return nil, idErr
	}
	path := p.FifoPath(id)
	if err := p.Mgr.Discard(); err != nil {
		return nil, err
	}
	waitErr := fifo.Wait(ctx, path)
	group, pollErr := p.Poll()
	if pollErr != nil {
		if waitErr != nil {
			return nil, waitErr
		}
		return nil, pollErr
	}
	return group, nil
}
