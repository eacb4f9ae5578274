package pages

import (
	"bytes"
	"fmt"

	"github.com/OneOfOne/xxhash"
	"github.com/zhukovaskychina/rlitedb/util"
)

// HeaderSize is the on-disk size of page 0, independent of PageSize
// (spec.md §3/§6: "zero padding to 100 bytes").
const HeaderSize = 100

// Identifier is the literal 8-byte magic every header page must carry
// (spec.md invariant I5).
const Identifier = "rlite0.0"

const (
	identifierLen = len(Identifier)
	pageSizeLen   = 4
	checksumLen   = 4
)

// Header is the deserialized form of page 0.
type Header struct {
	PageSize uint32
	// Checksum is an xxhash64-derived 32-bit check over the identifier
	// and page size, written into the header's reserved padding. It is
	// an ambient durability addition (spec.md §9's fsync-at-commit note
	// extended to "detect a torn header"); it carries no semantics the
	// spec requires. Deserialize reads it back but does not verify it;
	// a torn page 0 is caught only by the identifier comparison.
	Checksum uint32
}

// HeaderType is the DataType implementation for page 0.
type HeaderType struct{}

func (HeaderType) Name() Kind { return KindHeader }

func (HeaderType) Serialize(ctx *Context, obj interface{}, buf []byte) error {
	h, ok := obj.(*Header)
	if !ok {
		return fmt.Errorf("pages: header serialize expects *Header, got %T", obj)
	}
	if len(buf) < HeaderSize {
		return fmt.Errorf("pages: header buffer too small: %d < %d", len(buf), HeaderSize)
	}
	copy(buf, Identifier)
	copy(buf[identifierLen:], bigEndianUint32(h.PageSize))
	checksum := computeChecksum(h.PageSize)
	copy(buf[identifierLen+pageSizeLen:], bigEndianUint32(checksum))
	return nil
}

func (HeaderType) Deserialize(ctx *Context, deserCtx interface{}, buf []byte) (interface{}, error) {
	if len(buf) < identifierLen+pageSizeLen {
		return nil, fmt.Errorf("pages: short header read: %d bytes", len(buf))
	}
	if !bytes.Equal(buf[:identifierLen], []byte(Identifier)) {
		return nil, &ErrInvalidHeader{Got: string(buf[:identifierLen])}
	}
	pageSize := beUint32(buf[identifierLen : identifierLen+pageSizeLen])
	h := &Header{PageSize: pageSize}
	if len(buf) >= identifierLen+pageSizeLen+checksumLen {
		h.Checksum = beUint32(buf[identifierLen+pageSizeLen : identifierLen+pageSizeLen+checksumLen])
	}
	return h, nil
}

func (HeaderType) Destroy(ctx *Context, obj interface{}) {}

// ErrInvalidHeader is returned when page 0's magic identifier doesn't
// match, corresponding to spec.md §7's INVALID_STATE fault.
type ErrInvalidHeader struct {
	Got string
}

func (e *ErrInvalidHeader) Error() string {
	return fmt.Sprintf("pages: unexpected header identifier %q, expecting %q", e.Got, Identifier)
}

func computeChecksum(pageSize uint32) uint32 {
	h := xxhash.New64()
	h.Write([]byte(Identifier))
	h.Write(util.ConvertUInt4Bytes(pageSize))
	return uint32(h.Sum64())
}

func beUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func bigEndianUint32(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}
