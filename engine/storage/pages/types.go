// Package pages implements the closed set of page-level data types the
// engine persists: the file header, the key-directory B-tree nodes, and
// the set/list collection pages used by internal namespaces.
//
// Rather than the C original's table of (name, serialize, deserialize,
// destroy) function pointers, each page kind is a small tagged variant
// with one concrete DataType implementation; a type mismatch on a cache
// hit is detected by comparing the two types' Kind names, not function
// pointers.
package pages

import "fmt"

// Kind names the closed set of page variants. The string form is the
// "stable type name used for sanity checks" from spec.md §3.
type Kind string

const (
	KindHeader    Kind = "header"
	KindBTreeNode Kind = "btree_node_hash_md5_long"
	KindSetNode   Kind = "set_node_bytes"
	KindListRoot  Kind = "list_root_bytes"
	KindListNode  Kind = "list_node_bytes"
)

// Context is threaded through every Serialize/Deserialize call. It
// carries the page size in effect for the open database and a Debug
// flag that enables the re-serialize/compare consistency check from
// spec.md §4.3.
type Context struct {
	PageSize uint32
	Debug    bool
}

// DataType is the interface every page kind implements. Destroy may be
// a no-op for value types that own no external resources (mirrors the C
// struct's optional destroy hook).
type DataType interface {
	Name() Kind
	Serialize(ctx *Context, obj interface{}, buf []byte) error
	Deserialize(ctx *Context, deserCtx interface{}, buf []byte) (interface{}, error)
	Destroy(ctx *Context, obj interface{})
}

// ErrTypeMismatch is returned when a cache hit's stored DataType does not
// match the type the caller asked for — a fatal consistency error per
// spec.md §4.2.
type ErrTypeMismatch struct {
	Cached, Requested Kind
}

func (e *ErrTypeMismatch) Error() string {
	return fmt.Sprintf("pages: cached page type %q does not match requested type %q", e.Cached, e.Requested)
}
