package voronoi

import (
	"strings"

	"github.com/0x0FACED/go-fortune-sweep/pkg/arena"
)

// side of an anchor node for insertAdjacent
type side uint8

const (
	sideLeft side = iota
	sideRight
)

// rbt is a red-black tree whose order is the insertion position, not a key.
// Nodes live in an arena and are addressed by handle; rotations relink
// handles and never move payloads, so a handle always denotes the same value.
// previous/next thread the nodes in order for O(1) neighbour lookups.
type rbt[T any] struct {
	nodes *arena.Arena[rbtNode[T]]
	root  arena.Handle
	size  int
}

type rbtNode[T any] struct {
	value    T
	left     arena.Handle
	right    arena.Handle
	parent   arena.Handle
	previous arena.Handle
	next     arena.Handle
	red      bool
}

func newRBT[T any](capacity int) *rbt[T] {
	return &rbt[T]{nodes: arena.New[rbtNode[T]](capacity)}
}

func (t *rbt[T]) node(h arena.Handle) *rbtNode[T] {
	return t.nodes.MustGet(h)
}

func (t *rbt[T]) isRed(h arena.Handle) bool {
	return h != arena.Nil && t.node(h).red
}

func (t *rbt[T]) len() int { return t.size }

func (t *rbt[T]) contains(h arena.Handle) bool { return t.nodes.Contains(h) }

// value returns the payload of h. The pointer is invalidated by the next insert.
func (t *rbt[T]) value(h arena.Handle) *T {
	return &t.node(h).value
}

func (t *rbt[T]) predecessor(h arena.Handle) arena.Handle {
	return t.node(h).previous
}

func (t *rbt[T]) successor(h arena.Handle) arena.Handle {
	return t.node(h).next
}

func (t *rbt[T]) first() arena.Handle {
	if t.root == arena.Nil {
		return arena.Nil
	}
	return t.leftmost(t.root)
}

func (t *rbt[T]) last() arena.Handle {
	node := t.root
	if node == arena.Nil {
		return arena.Nil
	}
	for t.node(node).right != arena.Nil {
		node = t.node(node).right
	}
	return node
}

func (t *rbt[T]) leftmost(h arena.Handle) arena.Handle {
	for t.node(h).left != arena.Nil {
		h = t.node(h).left
	}
	return h
}

// find descends from the root. cmp returns <0 to continue left, >0 to
// continue right and 0 when h is the wanted node.
func (t *rbt[T]) find(cmp func(h arena.Handle, v *T) int) (arena.Handle, error) {
	if t.root == arena.Nil {
		return arena.Nil, ErrEmptyBeachLine
	}
	node := t.root
	for node != arena.Nil {
		n := t.node(node)
		switch c := cmp(node, &n.value); {
		case c < 0:
			node = n.left
		case c > 0:
			node = n.right
		default:
			return node, nil
		}
	}
	return arena.Nil, ErrNotFound
}

// insertAdjacent puts value immediately left or right of anchor in order.
func (t *rbt[T]) insertAdjacent(anchor arena.Handle, s side, value T) (arena.Handle, error) {
	if !t.nodes.Contains(anchor) {
		return arena.Nil, &arena.HandleError{Handle: anchor, Op: "insert"}
	}
	if s == sideRight {
		return t.insertAfter(anchor, value), nil
	}
	return t.insertAfter(t.node(anchor).previous, value), nil
}

// insertAfter inserts value right after node; a Nil node means "in front".
func (t *rbt[T]) insertAfter(node arena.Handle, value T) arena.Handle {
	successor := t.nodes.Insert(rbtNode[T]{value: value, red: true})
	s := t.node(successor)

	var parent arena.Handle
	if node != arena.Nil {
		n := t.node(node)
		s.previous = node
		s.next = n.next
		if n.next != arena.Nil {
			t.node(n.next).previous = successor
		}
		n.next = successor
		if n.right != arena.Nil {
			// first node of the right subtree gets the new left child
			node = t.leftmost(n.right)
			t.node(node).left = successor
		} else {
			n.right = successor
		}
		parent = node
	} else if t.root != arena.Nil {
		node = t.leftmost(t.root)
		f := t.node(node)
		s.next = node
		f.previous = successor
		f.left = successor
		parent = node
	} else {
		t.root = successor
	}
	s.parent = parent
	t.size++

	t.insertFixup(successor)
	return successor
}

func (t *rbt[T]) insertFixup(node arena.Handle) {
	parent := t.node(node).parent
	for parent != arena.Nil && t.node(parent).red {
		grandpa := t.node(parent).parent
		g := t.node(grandpa)
		if parent == g.left {
			uncle := g.right
			if t.isRed(uncle) {
				t.node(parent).red = false
				t.node(uncle).red = false
				g.red = true
				node = grandpa
			} else {
				if node == t.node(parent).right {
					t.rotateLeft(parent)
					node = parent
					parent = t.node(node).parent
				}
				t.node(parent).red = false
				g.red = true
				t.rotateRight(grandpa)
			}
		} else {
			uncle := g.left
			if t.isRed(uncle) {
				t.node(parent).red = false
				t.node(uncle).red = false
				g.red = true
				node = grandpa
			} else {
				if node == t.node(parent).left {
					t.rotateRight(parent)
					node = parent
					parent = t.node(node).parent
				}
				t.node(parent).red = false
				g.red = true
				t.rotateLeft(grandpa)
			}
		}
		parent = t.node(node).parent
	}
	t.node(t.root).red = false
}

// remove unlinks h, rebalances and tombstones its arena slot.
func (t *rbt[T]) remove(h arena.Handle) error {
	if !t.nodes.Contains(h) {
		return &arena.HandleError{Handle: h, Op: "remove"}
	}
	t.unlink(h)
	t.size--
	return t.nodes.Remove(h)
}

func (t *rbt[T]) unlink(node arena.Handle) {
	n := t.node(node)
	if n.next != arena.Nil {
		t.node(n.next).previous = n.previous
	}
	if n.previous != arena.Nil {
		t.node(n.previous).next = n.next
	}
	n.next = arena.Nil
	n.previous = arena.Nil

	parent := n.parent
	left := n.left
	right := n.right
	var next arena.Handle
	if left == arena.Nil {
		next = right
	} else if right == arena.Nil {
		next = left
	} else {
		next = t.leftmost(right)
	}
	if parent != arena.Nil {
		p := t.node(parent)
		if p.left == node {
			p.left = next
		} else {
			p.right = next
		}
	} else {
		t.root = next
	}

	var isRed bool
	if left != arena.Nil && right != arena.Nil {
		nx := t.node(next)
		isRed = nx.red
		nx.red = n.red
		nx.left = left
		t.node(left).parent = next
		if next != right {
			parent = nx.parent
			nx.parent = n.parent
			node = nx.right
			t.node(parent).left = node
			nx.right = right
			t.node(right).parent = next
		} else {
			nx.parent = parent
			parent = next
			node = nx.right
		}
	} else {
		isRed = n.red
		node = next
	}
	if node != arena.Nil {
		t.node(node).parent = parent
	}
	if isRed {
		return
	}
	if node != arena.Nil && t.node(node).red {
		t.node(node).red = false
		return
	}

	var sibling arena.Handle
	for node != t.root {
		p := t.node(parent)
		if node == p.left {
			sibling = p.right
			if t.node(sibling).red {
				t.node(sibling).red = false
				p.red = true
				t.rotateLeft(parent)
				sibling = t.node(parent).right
			}
			s := t.node(sibling)
			if t.isRed(s.left) || t.isRed(s.right) {
				if !t.isRed(s.right) {
					t.node(s.left).red = false
					s.red = true
					t.rotateRight(sibling)
					sibling = t.node(parent).right
					s = t.node(sibling)
				}
				s.red = t.node(parent).red
				t.node(parent).red = false
				t.node(s.right).red = false
				t.rotateLeft(parent)
				node = t.root
				break
			}
		} else {
			sibling = p.left
			if t.node(sibling).red {
				t.node(sibling).red = false
				p.red = true
				t.rotateRight(parent)
				sibling = t.node(parent).left
			}
			s := t.node(sibling)
			if t.isRed(s.left) || t.isRed(s.right) {
				if !t.isRed(s.left) {
					t.node(s.right).red = false
					s.red = true
					t.rotateLeft(sibling)
					sibling = t.node(parent).left
					s = t.node(sibling)
				}
				s.red = t.node(parent).red
				t.node(parent).red = false
				t.node(s.left).red = false
				t.rotateRight(parent)
				node = t.root
				break
			}
		}
		t.node(sibling).red = true
		node = parent
		parent = t.node(parent).parent
		if t.node(node).red {
			break
		}
	}
	if node != arena.Nil {
		t.node(node).red = false
	}
}

func (t *rbt[T]) rotateLeft(p arena.Handle) {
	pn := t.node(p)
	q := pn.right
	qn := t.node(q)
	parent := pn.parent
	if parent != arena.Nil {
		if t.node(parent).left == p {
			t.node(parent).left = q
		} else {
			t.node(parent).right = q
		}
	} else {
		t.root = q
	}
	qn.parent = parent
	pn.parent = q
	pn.right = qn.left
	if pn.right != arena.Nil {
		t.node(pn.right).parent = p
	}
	qn.left = p
}

func (t *rbt[T]) rotateRight(p arena.Handle) {
	pn := t.node(p)
	q := pn.left
	qn := t.node(q)
	parent := pn.parent
	if parent != arena.Nil {
		if t.node(parent).left == p {
			t.node(parent).left = q
		} else {
			t.node(parent).right = q
		}
	} else {
		t.root = q
	}
	qn.parent = parent
	pn.parent = q
	pn.left = qn.right
	if pn.left != arena.Nil {
		t.node(pn.left).parent = p
	}
	qn.right = p
}

// dump renders the tree sideways, right subtree on top, one node per line
// indented by depth. Red nodes carry a '*'. The last line lists the labels
// in order.
func (t *rbt[T]) dump(label func(*T) string) string {
	var b strings.Builder
	var visit func(h arena.Handle, depth int)
	visit = func(h arena.Handle, depth int) {
		if h == arena.Nil {
			return
		}
		n := t.node(h)
		visit(n.right, depth+1)
		b.WriteString(strings.Repeat("    ", depth))
		b.WriteString(label(&n.value))
		if n.red {
			b.WriteByte('*')
		}
		b.WriteByte('\n')
		visit(n.left, depth+1)
	}
	visit(t.root, 0)

	b.WriteByte('[')
	for h := t.first(); h != arena.Nil; h = t.successor(h) {
		if h != t.first() {
			b.WriteByte(' ')
		}
		b.WriteString(label(t.value(h)))
	}
	b.WriteByte(']')
	return b.String()
}
