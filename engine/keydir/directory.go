// Package keydir implements the root key directory from spec.md §4.5:
// a single B-tree at page 1 mapping MD5(key) to a signed 64-bit value,
// backing the public set_key/get_key API directly, and reused by
// engine/collection to locate the root page of every internal
// namespace's named Set/List structures — grounded on rlite.c's
// rl_set_key/rl_get_key, which hash the caller's key and store the
// caller's value as a plain long with no further indirection.
package keydir

import (
	"crypto/md5"

	"github.com/zhukovaskychina/rlitedb/engine/btree"
	"github.com/zhukovaskychina/rlitedb/engine/txn"
)

// RootPage is the fixed page number of the key directory, spec.md §4.1.
const RootPage = 1

// Directory is the handle used for both the public set_key/get_key
// surface and, with caller-built prefixed keys, the internal namespace
// directories in engine/collection.
type Directory struct {
	tree *btree.Tree
}

// Open returns a handle over the tree rooted at page 1. The caller
// (the top-level engine package) is responsible for calling InitRoot
// once on a freshly created database before Open is ever used.
func Open(mgr *txn.Manager) *Directory {
	return &Directory{tree: btree.Open(mgr, RootPage)}
}

// InitRoot seeds the empty root B-tree at page 1 into the write set,
// per spec.md §4.4's create_db(). Call exactly once, right after
// Manager.CreateDB creates a fresh database.
func InitRoot(mgr *txn.Manager) error {
	return btree.InitRoot(mgr, RootPage)
}

// Set stores value under MD5(key), inserting or replacing.
func (d *Directory) Set(key []byte, value int64) error {
	digest := md5.Sum(key)
	return d.tree.Set(digest[:], value)
}

// Get looks up MD5(key).
func (d *Directory) Get(key []byte) (value int64, found bool, err error) {
	digest := md5.Sum(key)
	return d.tree.Get(digest[:])
}
