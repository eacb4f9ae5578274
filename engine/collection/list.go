package collection

import (
	"encoding/binary"
	"fmt"

	"github.com/zhukovaskychina/rlitedb/engine/storage/pages"
	"github.com/zhukovaskychina/rlitedb/engine/txn"
)

// listRoot is the stable page recorded in the key directory for a
// named list: it never moves, so pushes and pops never need to update
// the sentinel entry, only the head/tail pointers it carries.
type listRoot struct {
	Head int64
	Tail int64
}

type listRootType struct{}

func (listRootType) Name() pages.Kind { return pages.KindListRoot }

func (listRootType) Serialize(ctx *pages.Context, obj interface{}, buf []byte) error {
	r, ok := obj.(*listRoot)
	if !ok {
		return fmt.Errorf("collection: Serialize expected *listRoot, got %T", obj)
	}
	binary.BigEndian.PutUint64(buf[0:], uint64(r.Head))
	binary.BigEndian.PutUint64(buf[8:], uint64(r.Tail))
	return nil
}

func (listRootType) Deserialize(ctx *pages.Context, deserCtx interface{}, buf []byte) (interface{}, error) {
	if len(buf) < 16 {
		return nil, fmt.Errorf("collection: page too short for a list root")
	}
	return &listRoot{
		Head: int64(binary.BigEndian.Uint64(buf[0:])),
		Tail: int64(binary.BigEndian.Uint64(buf[8:])),
	}, nil
}

func (listRootType) Destroy(ctx *pages.Context, obj interface{}) {}

// listNode holds one segment of the FIFO's elements in push order,
// chained via Next when a node fills up.
type listNode struct {
	Next     int64
	Elements [][]byte
}

type listNodeType struct{}

func (listNodeType) Name() pages.Kind { return pages.KindListNode }

func (listNodeType) Serialize(ctx *pages.Context, obj interface{}, buf []byte) error {
	n, ok := obj.(*listNode)
	if !ok {
		return fmt.Errorf("collection: Serialize expected *listNode, got %T", obj)
	}
	off := 0
	binary.BigEndian.PutUint64(buf[off:], uint64(n.Next))
	off += 8
	binary.BigEndian.PutUint32(buf[off:], uint32(len(n.Elements)))
	off += 4
	for _, e := range n.Elements {
		if off+4+len(e) > len(buf) {
			return fmt.Errorf("collection: list page overflow, element count %d too large for page size", len(n.Elements))
		}
		binary.BigEndian.PutUint32(buf[off:], uint32(len(e)))
		off += 4
		copy(buf[off:], e)
		off += len(e)
	}
	return nil
}

func (listNodeType) Deserialize(ctx *pages.Context, deserCtx interface{}, buf []byte) (interface{}, error) {
	if len(buf) < 12 {
		return nil, fmt.Errorf("collection: page too short for a list node header")
	}
	n := &listNode{}
	off := 0
	n.Next = int64(binary.BigEndian.Uint64(buf[off:]))
	off += 8
	count := int(binary.BigEndian.Uint32(buf[off:]))
	off += 4
	n.Elements = make([][]byte, count)
	for i := 0; i < count; i++ {
		l := int(binary.BigEndian.Uint32(buf[off:]))
		off += 4
		e := make([]byte, l)
		copy(e, buf[off:off+l])
		n.Elements[i] = e
		off += l
	}
	return n, nil
}

func (listNodeType) Destroy(ctx *pages.Context, obj interface{}) {}

func listNodeSize(n *listNode) int {
	size := 12
	for _, e := range n.Elements {
		size += 4 + len(e)
	}
	return size
}

func (c *Collection) resolveListRoot(name []byte) (int64, bool, error) {
	return c.Dir.Get(c.dirKey(name))
}

func (c *Collection) readListRoot(page int64) (*listRoot, error) {
	obj, err := c.Mgr.Read(listRootType{}, page, nil)
	if err != nil {
		return nil, err
	}
	return obj.(*listRoot), nil
}

func (c *Collection) readListNode(page int64) (*listNode, error) {
	obj, err := c.Mgr.Read(listNodeType{}, page, nil)
	if err != nil {
		return nil, err
	}
	return obj.(*listNode), nil
}

// Push appends elements, in order, to the tail of the list named by
// name, as a single call — spec.md I6 requires a publisher's 4-element
// message group to reach the recipient's list atomically, which this
// satisfies: nothing outside this process observes the list until the
// enclosing transaction commits.
func (c *Collection) Push(name []byte, elements ...[]byte) error {
	rootPage, found, err := c.resolveListRoot(name)
	if err != nil {
		return err
	}
	if !found {
		head := c.Mgr.AllocatePage()
		rootPage = c.Mgr.AllocatePage()
		if err := c.Mgr.Write(listNodeType{}, head, &listNode{Next: noNext, Elements: elements}); err != nil {
			return err
		}
		if err := c.Mgr.Write(listRootType{}, rootPage, &listRoot{Head: head, Tail: head}); err != nil {
			return err
		}
		return c.Dir.Set(c.dirKey(name), rootPage)
	}

	root, err := c.readListRoot(rootPage)
	if err != nil {
		return err
	}
	tail, err := c.readListNode(root.Tail)
	if err != nil {
		return err
	}
	for _, e := range elements {
		if listNodeSize(tail)+4+len(e) > int(c.Mgr.Ctx.PageSize) {
			next := c.Mgr.AllocatePage()
			tail.Next = next
			if err := c.Mgr.Write(listNodeType{}, root.Tail, tail); err != nil {
				return err
			}
			tail = &listNode{Next: noNext, Elements: nil}
			root.Tail = next
		}
		tail.Elements = append(tail.Elements, e)
	}
	if err := c.Mgr.Write(listNodeType{}, root.Tail, tail); err != nil {
		return err
	}
	return c.Mgr.Write(listRootType{}, rootPage, root)
}

// Pop removes and returns the oldest element of the list named by
// name. Absence of the list, or an exhausted list, is FaultNotFound.
func (c *Collection) Pop(name []byte) ([]byte, error) {
	rootPage, found, err := c.resolveListRoot(name)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, txn.NewFault(txn.FaultNotFound, nil)
	}
	root, err := c.readListRoot(rootPage)
	if err != nil {
		return nil, err
	}
	headPage := root.Head
	for {
		node, err := c.readListNode(headPage)
		if err != nil {
			return nil, err
		}
		if len(node.Elements) > 0 {
			elem := node.Elements[0]
			node.Elements = node.Elements[1:]
			if len(node.Elements) == 0 && node.Next != noNext {
				root.Head = node.Next
				if err := c.Mgr.Write(listRootType{}, rootPage, root); err != nil {
					return nil, err
				}
				if err := c.Mgr.Delete(headPage); err != nil {
					return nil, err
				}
				return elem, nil
			}
			if err := c.Mgr.Write(listNodeType{}, headPage, node); err != nil {
				return nil, err
			}
			return elem, nil
		}
		if node.Next == noNext {
			return nil, txn.NewFault(txn.FaultNotFound, nil)
		}
		headPage = node.Next
		root.Head = headPage
		if err := c.Mgr.Write(listRootType{}, rootPage, root); err != nil {
			return nil, err
		}
	}
}
