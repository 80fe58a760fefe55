// Ordered container backing each Index.
//
// A treap orders nodes by key (via compare, the §3 total order) while
// using a randomly assigned priority to keep the tree balanced in
// expectation without rotation-balance bookkeeping — spec.md §4.2
// permits "any balanced ordered map"; a treap keeps the implementation
// close to folio's preference for simple, auditable primitives over a
// hand-rolled AVL/red-black tree (see DESIGN.md).
//
// Each node holds every DocID currently stored under its key, since
// array-valued fields and non-unique indexes both produce multiple
// document references per key.
package holodoc

import "math/rand/v2"

// DocID is an opaque handle into a Collection's document arena. Indexes
// other than the authoritative _id arena store DocID values instead of
// document pointers (DESIGN NOTES §9), so mutating a document never
// requires chasing shared references across indexes.
type DocID uint64

type treapNode struct {
	key      any
	priority uint64
	ids      []DocID
	left     *treapNode
	right    *treapNode
}

type treap struct {
	root *treapNode
	size int
}

func newTreap() *treap {
	return &treap{}
}

// insert adds id under key, creating the node if absent. It is a no-op
// if id is already present under key.
func (t *treap) insert(key any, id DocID) {
	t.root = t.insertNode(t.root, key, id)
}

func (t *treap) insertNode(n *treapNode, key any, id DocID) *treapNode {
	if n == nil {
		t.size++
		return &treapNode{key: key, priority: rand.Uint64(), ids: []DocID{id}}
	}
	c := compare(key, n.key)
	switch {
	case c == 0:
		if !containsDocID(n.ids, id) {
			n.ids = append(n.ids, id)
		}
		return n
	case c < 0:
		n.left = t.insertNode(n.left, key, id)
		if n.left.priority > n.priority {
			n = rotateRight(n)
		}
	default:
		n.right = t.insertNode(n.right, key, id)
		if n.right.priority > n.priority {
			n = rotateLeft(n)
		}
	}
	return n
}

func containsDocID(ids []DocID, id DocID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func rotateRight(n *treapNode) *treapNode {
	l := n.left
	n.left = l.right
	l.right = n
	return l
}

func rotateLeft(n *treapNode) *treapNode {
	r := n.right
	n.right = r.left
	r.left = n
	return r
}

// remove removes id from key's node, deleting the node entirely once
// its id list becomes empty.
func (t *treap) remove(key any, id DocID) {
	t.root = t.removeNode(t.root, key, id)
}

func (t *treap) removeNode(n *treapNode, key any, id DocID) *treapNode {
	if n == nil {
		return nil
	}
	c := compare(key, n.key)
	switch {
	case c < 0:
		n.left = t.removeNode(n.left, key, id)
		return n
	case c > 0:
		n.right = t.removeNode(n.right, key, id)
		return n
	default:
		n.ids = removeDocID(n.ids, id)
		if len(n.ids) > 0 {
			return n
		}
		t.size--
		return t.deleteNode(n)
	}
}

func removeDocID(ids []DocID, id DocID) []DocID {
	out := ids[:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

// deleteNode removes a node with an empty id list by rotating it down
// to a leaf and splicing it out.
func (t *treap) deleteNode(n *treapNode) *treapNode {
	switch {
	case n.left == nil && n.right == nil:
		return nil
	case n.left == nil:
		return n.right
	case n.right == nil:
		return n.left
	case n.left.priority > n.right.priority:
		n = rotateRight(n)
		n.right = t.deleteNode(n.right)
		return n
	default:
		n = rotateLeft(n)
		n.left = t.deleteNode(n.left)
		return n
	}
}

// find returns the node for key, or nil.
func (t *treap) find(key any) *treapNode {
	n := t.root
	for n != nil {
		c := compare(key, n.key)
		switch {
		case c == 0:
			return n
		case c < 0:
			n = n.left
		default:
			n = n.right
		}
	}
	return nil
}

// count returns the number of DocIDs stored under key.
func (t *treap) count(key any) int {
	if n := t.find(key); n != nil {
		return len(n.ids)
	}
	return 0
}

// getMatching returns a copy of the DocIDs stored under key.
func (t *treap) getMatching(key any) []DocID {
	n := t.find(key)
	if n == nil {
		return nil
	}
	return append([]DocID{}, n.ids...)
}

// bounds describes an optional inclusive/exclusive range, matching
// $gt/$gte/$lt/$lte semantics for getBetweenBounds.
type bounds struct {
	hasLower  bool
	lower     any
	lowerIncl bool
	hasUpper  bool
	upper     any
	upperIncl bool
}

func (b bounds) includes(key any) bool {
	if b.hasLower {
		c := compare(key, b.lower)
		if c < 0 || (c == 0 && !b.lowerIncl) {
			return false
		}
	}
	if b.hasUpper {
		c := compare(key, b.upper)
		if c > 0 || (c == 0 && !b.upperIncl) {
			return false
		}
	}
	return true
}

// getBetweenBounds returns every DocID whose key satisfies b, in key
// order.
func (t *treap) getBetweenBounds(b bounds) []DocID {
	var out []DocID
	var walk func(n *treapNode)
	walk = func(n *treapNode) {
		if n == nil {
			return
		}
		if b.hasLower && compare(n.key, b.lower) < 0 {
			walk(n.right)
			return
		}
		if b.hasUpper && compare(n.key, b.upper) > 0 {
			walk(n.left)
			return
		}
		walk(n.left)
		if b.includes(n.key) {
			out = append(out, n.ids...)
		}
		walk(n.right)
	}
	walk(t.root)
	return out
}

// getAll returns every DocID in key order.
func (t *treap) getAll() []DocID {
	var out []DocID
	var walk func(n *treapNode)
	walk = func(n *treapNode) {
		if n == nil {
			return
		}
		walk(n.left)
		out = append(out, n.ids...)
		walk(n.right)
	}
	walk(t.root)
	return out
}
