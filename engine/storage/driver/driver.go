// Package driver implements the byte-level page I/O described in
// spec.md §4.1: a file-backed driver and a pure in-memory driver sharing
// one Driver interface.
package driver

import "errors"

// Open flags, matching spec.md §6.
type OpenFlags uint8

const (
	ReadWrite OpenFlags = 1 << iota
	Create
)

func (f OpenFlags) Has(flag OpenFlags) bool { return f&flag != 0 }

// ErrPageNotFound signals a short read on any page_number > 0 — end of
// file, a normal NOT_FOUND outcome.
var ErrPageNotFound = errors.New("driver: page not present")

// ErrNoHeader signals a short read on page 0 specifically.
var ErrNoHeader = errors.New("driver: header not found")

// Driver is the minimal byte-addressable page store the transaction
// manager is built on.
type Driver interface {
	// ReadPage reads exactly pageSize bytes at pageNumber*pageSize.
	ReadPage(pageNumber int64, pageSize uint32) ([]byte, error)
	// WritePage writes buf (must be exactly pageSize bytes) at
	// pageNumber*pageSize.
	WritePage(pageNumber int64, buf []byte) error
	// Commit flushes any OS-level buffering. Memory drivers treat this
	// as a no-op, matching spec.md §4.1/§4.4.
	Commit() error
	// Close releases the underlying file handle, if any.
	Close() error
	// IsMemory reports whether this driver is the in-memory variant,
	// used by the transaction manager to special-case ReadHeader and
	// CreateDB per spec.md §4.4's state machine.
	IsMemory() bool
	// Size reports the current backing size in bytes, used by the
	// transaction manager to recompute next_empty_page when reopening
	// an existing file (spec.md is silent on this; see DESIGN.md).
	Size() (int64, error)
}
