package fmf

import "strconv"

const (
	// AttrPrefix distinguishes attribute keys from child element keys.
	AttrPrefix = "@_"
	// TextKey holds element text when element also has attributes or children.
	TextKey = "#text"
)

// Kind of the decoded node.
type Kind int

const (
	KindEmpty Kind = iota
	KindText
	KindNumber
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindMapping:
		return "mapping"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Field is a single key of a mapping node. More than one node under the same
// key is a sequence of repeated sibling elements in document order.
type Field struct {
	Key   string
	Nodes []*Node
}

// IsSequence reports if field came from repeated sibling elements.
func (f Field) IsSequence() bool {
	return len(f.Nodes) > 1
}

// Node is an element of decoded document tree. Node is immutable, it is only
// built by Decode.
type Node struct {
	kind   Kind
	text   string
	num    int64
	fields []Field
	index  map[string]int
}

var emptyNode = &Node{kind: KindEmpty}

func newText(s string) *Node {
	return &Node{kind: KindText, text: s}
}

func newNumber(raw string, v int64) *Node {
	return &Node{kind: KindNumber, text: raw, num: v}
}

func newMapping() *Node {
	return &Node{kind: KindMapping, index: make(map[string]int)}
}

// add appends node under key, repeated keys collapse into sequence. Only used
// while node is being built.
func (n *Node) add(key string, child *Node) {
	if i, ok := n.index[key]; ok {
		n.fields[i].Nodes = append(n.fields[i].Nodes, child)
		return
	}
	n.index[key] = len(n.fields)
	n.fields = append(n.fields, Field{Key: key, Nodes: []*Node{child}})
}

// Kind returns node kind, nil node is empty.
func (n *Node) Kind() Kind {
	if n == nil {
		return KindEmpty
	}
	return n.kind
}

// IsMapping reports if node has keyed children.
func (n *Node) IsMapping() bool {
	return n.Kind() == KindMapping
}

// Text returns scalar value as text. For numbers it is the original attribute
// text, for mappings it is the value under TextKey.
func (n *Node) Text() string {
	switch n.Kind() {
	case KindText, KindNumber:
		return n.text
	case KindMapping:
		if nodes, ok := n.Get(TextKey); ok {
			return nodes[0].Text()
		}
	}
	return ""
}

// Int returns numeric value for number nodes.
func (n *Node) Int() (int64, bool) {
	if n.Kind() != KindNumber {
		return 0, false
	}
	return n.num, true
}

// Get returns nodes stored under key of a mapping node.
func (n *Node) Get(key string) ([]*Node, bool) {
	if n.Kind() != KindMapping {
		return nil, false
	}
	i, ok := n.index[key]
	if !ok {
		return nil, false
	}
	return n.fields[i].Nodes, true
}

// Attr returns value of attribute with the given name.
func (n *Node) Attr(name string) (*Node, bool) {
	nodes, ok := n.Get(AttrPrefix + name)
	if !ok {
		return nil, false
	}
	return nodes[0], true
}

// Keys returns mapping keys in document order.
func (n *Node) Keys() []string {
	if n.Kind() != KindMapping {
		return nil
	}
	keys := make([]string, 0, len(n.fields))
	for _, f := range n.fields {
		keys = append(keys, f.Key)
	}
	return keys
}

// Fields returns copy of mapping fields in document order.
func (n *Node) Fields() []Field {
	if n.Kind() != KindMapping {
		return nil
	}
	out := make([]Field, len(n.fields))
	for i, f := range n.fields {
		out[i] = Field{Key: f.Key, Nodes: append([]*Node(nil), f.Nodes...)}
	}
	return out
}

// Len returns number of keys in mapping.
func (n *Node) Len() int {
	if n.Kind() != KindMapping {
		return 0
	}
	return len(n.fields)
}

// each calls fn for every child node without copying, in document order.
func (n *Node) each(fn func(key string, child *Node) bool) bool {
	if n.Kind() != KindMapping {
		return true
	}
	for _, f := range n.fields {
		for _, c := range f.Nodes {
			if !fn(f.Key, c) {
				return false
			}
		}
	}
	return true
}
