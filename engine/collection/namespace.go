// Package collection implements spec.md §4.6's internal databases: the
// Set and List structures used by engine/pubsub to track channel
// membership and per-subscriber message queues, each named collection
// located through a sentinel entry in the same root key directory that
// backs the public set_key/get_key API (spec.md §4.5's "used ... by
// internal databases"). Grounded on pubsub.c's rl_select_internal /
// rl_sadd / rl_srem / rl_smembers / rl_push / rl_pop call shape; the
// set.c/list.c page layouts themselves are not part of the retrieved
// source, so the on-disk format here is an original, spec-consistent
// design (see DESIGN.md).
package collection

import (
	"github.com/zhukovaskychina/rlitedb/engine/keydir"
	"github.com/zhukovaskychina/rlitedb/engine/txn"
)

// Namespace selects which set of named collections subsequent Set/List
// operations address. NamespaceNone is the reset state collection
// operations must not be called in; only pub/sub switches away from it.
type Namespace byte

const (
	NamespaceNone Namespace = iota
	NamespaceSubscriberChannels
	NamespaceSubscriberMessages
	// NamespaceSubscriberChannelsReverse is not part of spec.md's
	// enumerated internal databases; it backs the supplemented
	// Channels() query (engine/pubsub) by recording, per subscriber id,
	// the set of channels joined — the mirror image of
	// NamespaceSubscriberChannels, which is keyed by channel instead.
	NamespaceSubscriberChannelsReverse
)

// Collection is the handle pub/sub uses for both Set and List
// operations, scoped to whichever Namespace is currently selected.
type Collection struct {
	Mgr *txn.Manager
	Dir *keydir.Directory
	ns  Namespace
}

// New returns a Collection handle reset to NamespaceNone.
func New(mgr *txn.Manager, dir *keydir.Directory) *Collection {
	return &Collection{Mgr: mgr, Dir: dir, ns: NamespaceNone}
}

// Select switches the current namespace.
func (c *Collection) Select(ns Namespace) { c.ns = ns }

// Reset restores NamespaceNone, required on every exit path of any
// operation that previously called Select (spec.md §5's scoped
// resource release).
func (c *Collection) Reset() { c.ns = NamespaceNone }

// dirKey builds the sentinel key_directory key locating name's root
// page within the current namespace: the namespace tag prefixed to the
// name bytes, then hashed like any other key_directory entry.
func (c *Collection) dirKey(name []byte) []byte {
	key := make([]byte, 1+len(name))
	key[0] = byte(c.ns)
	copy(key[1:], name)
	return key
}

const noNext int64 = -1
