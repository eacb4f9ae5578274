package collection

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/zhukovaskychina/rlitedb/engine/storage/pages"
)

// setNode is one page of a membership set: an unordered bag of member
// byte-strings plus a pointer to the next overflow page, chained when
// a single page cannot hold every member.
type setNode struct {
	Next    int64
	Members [][]byte
}

type setNodeType struct{}

func (setNodeType) Name() pages.Kind { return pages.KindSetNode }

func (setNodeType) Serialize(ctx *pages.Context, obj interface{}, buf []byte) error {
	n, ok := obj.(*setNode)
	if !ok {
		return fmt.Errorf("collection: Serialize expected *setNode, got %T", obj)
	}
	off := 0
	binary.BigEndian.PutUint64(buf[off:], uint64(n.Next))
	off += 8
	binary.BigEndian.PutUint32(buf[off:], uint32(len(n.Members)))
	off += 4
	for _, m := range n.Members {
		if off+4+len(m) > len(buf) {
			return fmt.Errorf("collection: set page overflow, member count %d too large for page size", len(n.Members))
		}
		binary.BigEndian.PutUint32(buf[off:], uint32(len(m)))
		off += 4
		copy(buf[off:], m)
		off += len(m)
	}
	return nil
}

func (setNodeType) Deserialize(ctx *pages.Context, deserCtx interface{}, buf []byte) (interface{}, error) {
	if len(buf) < 12 {
		return nil, fmt.Errorf("collection: page too short for a set node header")
	}
	n := &setNode{}
	off := 0
	n.Next = int64(binary.BigEndian.Uint64(buf[off:]))
	off += 8
	count := int(binary.BigEndian.Uint32(buf[off:]))
	off += 4
	n.Members = make([][]byte, count)
	for i := 0; i < count; i++ {
		l := int(binary.BigEndian.Uint32(buf[off:]))
		off += 4
		m := make([]byte, l)
		copy(m, buf[off:off+l])
		n.Members[i] = m
		off += l
	}
	return n, nil
}

func (setNodeType) Destroy(ctx *pages.Context, obj interface{}) {}

func setNodeSize(n *setNode) int {
	size := 12
	for _, m := range n.Members {
		size += 4 + len(m)
	}
	return size
}

func (c *Collection) resolveSetRoot(name []byte) (int64, bool, error) {
	page, found, err := c.Dir.Get(c.dirKey(name))
	if err != nil {
		return 0, false, err
	}
	return page, found, nil
}

// SAdd adds member to the set named by name, creating the set's root
// page on first use.
func (c *Collection) SAdd(name, member []byte) error {
	root, found, err := c.resolveSetRoot(name)
	if !found {
		if err != nil {
			return err
		}
		root = c.Mgr.AllocatePage()
		if err := c.Dir.Set(c.dirKey(name), root); err != nil {
			return err
		}
		return c.Mgr.Write(setNodeType{}, root, &setNode{Next: noNext, Members: [][]byte{member}})
	}

	page := root
	for {
		n, err := c.readSetNode(page)
		if err != nil {
			return err
		}
		for _, m := range n.Members {
			if bytes.Equal(m, member) {
				return nil // already a member
			}
		}
		if n.Next == noNext {
			if setNodeSize(n)+4+len(member) > int(c.Mgr.Ctx.PageSize) {
				next := c.Mgr.AllocatePage()
				n.Next = next
				if err := c.Mgr.Write(setNodeType{}, page, n); err != nil {
					return err
				}
				return c.Mgr.Write(setNodeType{}, next, &setNode{Next: noNext, Members: [][]byte{member}})
			}
			n.Members = append(n.Members, member)
			return c.Mgr.Write(setNodeType{}, page, n)
		}
		page = n.Next
	}
}

// SRem removes member from the set named by name. Absence of the set
// or the member is not an error.
func (c *Collection) SRem(name, member []byte) error {
	root, found, err := c.resolveSetRoot(name)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	page := root
	for {
		n, err := c.readSetNode(page)
		if err != nil {
			return err
		}
		for i, m := range n.Members {
			if bytes.Equal(m, member) {
				n.Members = append(n.Members[:i], n.Members[i+1:]...)
				return c.Mgr.Write(setNodeType{}, page, n)
			}
		}
		if n.Next == noNext {
			return nil
		}
		page = n.Next
	}
}

// SMembers returns every member of the set named by name, or an empty
// slice if the set does not exist.
func (c *Collection) SMembers(name []byte) ([][]byte, error) {
	root, found, err := c.resolveSetRoot(name)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	var out [][]byte
	page := root
	for {
		n, err := c.readSetNode(page)
		if err != nil {
			return nil, err
		}
		out = append(out, n.Members...)
		if n.Next == noNext {
			return out, nil
		}
		page = n.Next
	}
}

func (c *Collection) readSetNode(page int64) (*setNode, error) {
	obj, err := c.Mgr.Read(setNodeType{}, page, nil)
	if err != nil {
		return nil, err
	}
	return obj.(*setNode), nil
}
