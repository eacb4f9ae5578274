// Package engine is the top-level handle spec.md describes opening:
// open/set_key/get_key, subscribe/unsubscribe/publish/poll, and
// commit/discard/close, wiring the transaction manager (engine/txn), key
// directory (engine/keydir), internal namespaces (engine/collection) and
// pub/sub (engine/pubsub) into one object per the component table in
// spec.md §2.
package engine

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/zhukovaskychina/rlitedb/engine/collection"
	"github.com/zhukovaskychina/rlitedb/engine/keydir"
	"github.com/zhukovaskychina/rlitedb/engine/pubsub"
	"github.com/zhukovaskychina/rlitedb/engine/storage/driver"
	"github.com/zhukovaskychina/rlitedb/engine/txn"
	"github.com/zhukovaskychina/rlitedb/util"
)

// MemoryPath is the special path string selecting the memory driver,
// spec.md §6.
const MemoryPath = ":memory:"

// DB is one open database handle. Not safe for concurrent use by
// multiple goroutines (spec.md §5).
type DB struct {
	Mgr    *txn.Manager
	Dir    *keydir.Directory
	Coll   *collection.Collection
	PubSub *pubsub.PubSub

	path string
}

// Open opens path with flags. path may be MemoryPath to select the
// in-memory driver. fifoDir names the directory FIFOs are created in;
// for a file-backed database it is typically the same directory as
// path.
func Open(path string, flags driver.OpenFlags, fifoDir string) (*DB, error) {
	var d driver.Driver
	if path == MemoryPath {
		d = driver.NewMemoryDriver()
	} else {
		d = driver.NewFileDriver(path, flags)
	}

	mgr := txn.NewManager(d)
	created, err := mgr.ReadHeader(flags)
	if err != nil {
		return nil, err
	}

	db := &DB{Mgr: mgr, path: path}
	db.Dir = keydir.Open(mgr)
	if created {
		if err := keydir.InitRoot(mgr); err != nil {
			return nil, err
		}
		if err := mgr.Commit(); err != nil {
			return nil, err
		}
	}

	db.Coll = collection.New(mgr, db.Dir)
	subscriberName := filepath.Base(path)
	if path == MemoryPath {
		subscriberName = "memory"
	} else {
		exists, err := util.PathExists(fifoDir)
		if err != nil {
			return nil, err
		}
		if !exists {
			util.CreateDataBaseDir(filepath.Dir(fifoDir), filepath.Base(fifoDir))
		}
	}
	db.PubSub = pubsub.New(mgr, db.Coll, func(subscriberID string) string {
		return filepath.Join(fifoDir, fmt.Sprintf("%s.%s", subscriberName, subscriberID))
	})
	return db, nil
}

// OpenMemory opens a fresh in-memory database, always read-write and
// always freshly created.
func OpenMemory() (*DB, error) {
	return Open(MemoryPath, driver.ReadWrite|driver.Create, ".")
}

// SetKey implements the public set_key API (spec.md §4.5).
func (db *DB) SetKey(key []byte, value int64) error {
	return db.Dir.Set(key, value)
}

// GetKey implements the public get_key API (spec.md §4.5).
func (db *DB) GetKey(key []byte) (int64, bool, error) {
	return db.Dir.Get(key)
}

// Subscribe subscribes this handle's subscriber id to channels.
func (db *DB) Subscribe(channels ...[]byte) error { return db.PubSub.Subscribe(channels) }

// Unsubscribe removes this handle's subscriber id from channels.
func (db *DB) Unsubscribe(channels ...[]byte) error { return db.PubSub.Unsubscribe(channels) }

// Publish delivers data on channel to every current subscriber.
func (db *DB) Publish(channel, data []byte) (int, error) { return db.PubSub.Publish(channel, data) }

// PublishFanout delivers data to several channels, recipient counts
// keyed by channel.
func (db *DB) PublishFanout(channels [][]byte, data []byte) (map[string]int, error) {
	return db.PubSub.PublishFanout(channels, data)
}

// Channels lists the channels this handle is subscribed to.
func (db *DB) Channels() ([]string, error) { return db.PubSub.Channels() }

// Poll pops this handle's next pending message group.
func (db *DB) Poll() ([][]byte, error) { return db.PubSub.Poll() }

// PollWait polls, blocking on the subscriber FIFO until a message
// arrives or ctx ends.
func (db *DB) PollWait(ctx context.Context) ([][]byte, error) { return db.PubSub.PollWait(ctx) }

// Commit flushes pending writes and releases the caches. No file lock
// is taken or released.
func (db *DB) Commit() error { return db.Mgr.Commit() }

// Discard clears pending writes without flushing them.
func (db *DB) Discard() error { return db.Mgr.Discard() }

// Close releases the underlying driver handle.
func (db *DB) Close() error { return db.Mgr.Close() }
