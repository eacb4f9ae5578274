package btree

import (
	"fmt"

	"github.com/zhukovaskychina/rlitedb/engine/storage/pages"
	"github.com/zhukovaskychina/rlitedb/engine/txn"
)

// Tree is a handle to one B-tree rooted at a fixed, stable page number.
// A root split keeps the root's page number unchanged (its content
// becomes a fresh one-key interior node) so every other structure that
// remembers the root page — page 1 for the key directory, a sentinel
// entry in page 1 for each internal-namespace directory — never has to
// be updated when the tree grows.
type Tree struct {
	Mgr  *txn.Manager
	Root int64
}

// Open returns a handle to the tree rooted at root. It does not touch
// the manager; the root page is expected to already hold a Node (via
// InitRoot on first creation, or from a prior commit).
func Open(mgr *txn.Manager, root int64) *Tree {
	return &Tree{Mgr: mgr, Root: root}
}

// InitRoot seeds an empty leaf at root, in the write set, ready to be
// picked up by the next Commit. Call once, when root is a freshly
// allocated page.
func InitRoot(mgr *txn.Manager, root int64) error {
	return mgr.Write(NodeType{}, root, newLeaf())
}

func (t *Tree) readNode(page int64) (*Node, error) {
	obj, err := t.Mgr.Read(NodeType{}, page, nil)
	if err != nil {
		return nil, err
	}
	return obj.(*Node), nil
}

// Get looks up key (must be KeyLen bytes) and returns its value.
func (t *Tree) Get(key []byte) (int64, bool, error) {
	if len(key) != KeyLen {
		return 0, false, fmt.Errorf("btree: key must be %d bytes, got %d", KeyLen, len(key))
	}
	page := t.Root
	for {
		n, err := t.readNode(page)
		if err != nil {
			if txn.Is(err, txn.FaultNotFound) {
				return 0, false, nil
			}
			return 0, false, err
		}
		idx, exact := n.find(key)
		if n.Leaf {
			if exact {
				return n.Values[idx], true, nil
			}
			return 0, false, nil
		}
		if exact {
			idx++
		}
		page = n.Children[idx]
	}
}

// Set inserts key, value or replaces the value of an existing key.
func (t *Tree) Set(key []byte, value int64) error {
	if len(key) != KeyLen {
		return fmt.Errorf("btree: key must be %d bytes, got %d", KeyLen, len(key))
	}
	root, err := t.readNode(t.Root)
	if err != nil {
		return err
	}
	promoted, rightPage, rightNode, err := t.insert(root, key, value)
	if err != nil {
		return err
	}
	if promoted == nil {
		return t.Mgr.Write(NodeType{}, t.Root, root)
	}
	// Root overflowed: left half stays in a newly allocated page, the
	// promoted key and the (already-written) right half form a brand
	// new interior node written back at t.Root.
	leftPage := t.Mgr.AllocatePage()
	if err := t.Mgr.Write(NodeType{}, leftPage, root); err != nil {
		return err
	}
	if err := t.Mgr.Write(NodeType{}, rightPage, rightNode); err != nil {
		return err
	}
	newRoot := &Node{
		Leaf:     false,
		Keys:     [][]byte{promoted},
		Children: []int64{leftPage, rightPage},
	}
	return t.Mgr.Write(NodeType{}, t.Root, newRoot)
}

// insert recurses down to a leaf, inserts, and propagates a split back
// up. A non-nil promoted key means n itself overflowed and must be
// split by the caller: n retains the left half in place, the returned
// node is the right half, already assigned rightPage but not yet
// written (the caller decides whether it becomes a fresh page or, at
// the root, a page of its own distinct from the root's page number).
func (t *Tree) insert(n *Node, key []byte, value int64) (promoted []byte, rightPage int64, right *Node, err error) {
	max := maxKeys(t.Mgr.Ctx.PageSize)
	if n.Leaf {
		idx, exact := n.find(key)
		if exact {
			n.Values[idx] = value
			return nil, 0, nil, nil
		}
		n.Keys = insertKeyAt(n.Keys, idx, key)
		n.Values = insertValueAt(n.Values, idx, value)
		if len(n.Keys) <= max {
			return nil, 0, nil, nil
		}
		mid := len(n.Keys) / 2
		right := &Node{
			Leaf:   true,
			Keys:   append([][]byte{}, n.Keys[mid:]...),
			Values: append([]int64{}, n.Values[mid:]...),
		}
		promotedKey := right.Keys[0]
		n.Keys, n.Values = n.Keys[:mid], n.Values[:mid]
		rightPage := t.Mgr.AllocatePage()
		return promotedKey, rightPage, right, nil
	}

	idx, exact := n.find(key)
	childIdx := idx
	if exact {
		childIdx = idx + 1
	}
	child, err := t.readNode(n.Children[childIdx])
	if err != nil {
		return nil, 0, nil, err
	}
	childPromoted, childRightPage, childRight, err := t.insert(child, key, value)
	if err != nil {
		return nil, 0, nil, err
	}
	if err := t.Mgr.Write(NodeType{}, n.Children[childIdx], child); err != nil {
		return nil, 0, nil, err
	}
	if childPromoted == nil {
		return nil, 0, nil, nil
	}
	if err := t.Mgr.Write(NodeType{}, childRightPage, childRight); err != nil {
		return nil, 0, nil, err
	}
	n.Keys = insertKeyAt(n.Keys, childIdx, childPromoted)
	n.Children = insertChildAt(n.Children, childIdx+1, childRightPage)
	if len(n.Keys) <= max {
		return nil, 0, nil, nil
	}

	mid := len(n.Keys) / 2
	promotedKey := n.Keys[mid]
	right = &Node{
		Leaf:     false,
		Keys:     append([][]byte{}, n.Keys[mid+1:]...),
		Children: append([]int64{}, n.Children[mid+1:]...),
	}
	n.Keys = n.Keys[:mid]
	n.Children = n.Children[:mid+1]
	rightPage = t.Mgr.AllocatePage()
	return promotedKey, rightPage, right, nil
}

func insertKeyAt(keys [][]byte, idx int, key []byte) [][]byte {
	keys = append(keys, nil)
	copy(keys[idx+1:], keys[idx:])
	keys[idx] = key
	return keys
}

func insertValueAt(values []int64, idx int, value int64) []int64 {
	values = append(values, 0)
	copy(values[idx+1:], values[idx:])
	values[idx] = value
	return values
}

func insertChildAt(children []int64, idx int, page int64) []int64 {
	children = append(children, 0)
	copy(children[idx+1:], children[idx:])
	children[idx] = page
	return children
}

var _ pages.DataType = NodeType{}
