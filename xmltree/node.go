// Package xmltree is the mutable, node-labelled XML tree the validation
// and defaults engine walks: elements with attributes, a namespace
// context stack, per-node flags, and a stable sibling ordering.
//
// Parsing XML bytes into this tree, and serialising it back out, are out
// of scope here (the wire codec is an external collaborator); this
// package only gives the tree shape and the operations the engine
// performs on it: insertion, flag propagation, and schema-order sorting.
package xmltree

import (
	"sort"

	"github.com/danos/utils/natsort"

	"github.com/clixon-go/yang-validate/yangschema"
)

// Flag is the per-node bitset described by the data model: CHANGE, ADD,
// DEL, DEFAULT, MARK. Several may be set at once.
type Flag uint8

const (
	FlagNone    Flag = 0
	FlagChange  Flag = 1 << iota
	FlagAdd
	FlagDel
	FlagDefault
	FlagMark
)

// Attr is an XML attribute, including the special xmlns / xmlns:prefix
// namespace-declaration attributes.
type Attr struct {
	Prefix string
	Name   string
	Value  string
}

// Node is one element in the tree. A leaf or leaf-list entry's textual
// body lives in Value; Children is empty for such nodes. A container or
// list entry has no Value and is defined entirely by its Children.
type Node struct {
	Name      string
	Prefix    string
	Namespace string
	Value     string
	Attrs     []Attr

	Parent   *Node
	Children []*Node

	flags Flag

	// Schema is the bound schema node, or nil if binding left this node
	// unresolved.
	Schema yangschema.Node
}

// New creates a detached element node.
func New(name string) *Node {
	return &Node{Name: name}
}

// NewBody creates a detached leaf/leaf-list value node.
func NewBody(name, value string) *Node {
	return &Node{Name: name, Value: value}
}

func (n *Node) SetFlag(f Flag)     { n.flags |= f }
func (n *Node) ClearFlag(f Flag)   { n.flags &^= f }
func (n *Node) HasFlag(f Flag) bool { return n.flags&f != 0 }
func (n *Node) Flags() Flag        { return n.flags }
func (n *Node) SetFlags(f Flag)    { n.flags = f }

// PropagateUp sets the flags f on n and on every ancestor up to the
// root; this is the ancestor-propagation step the global defaults cache
// and the mark-copy-merge algorithm rely on.
func (n *Node) PropagateUp(f Flag) {
	for cur := n; cur != nil; cur = cur.Parent {
		cur.SetFlag(f)
	}
}

// AddChild appends child as the last sibling and sets its parent.
func (n *Node) AddChild(child *Node) {
	child.Parent = n
	n.Children = append(n.Children, child)
}

// InsertChildAt inserts child at position i among n's children.
func (n *Node) InsertChildAt(i int, child *Node) {
	child.Parent = n
	n.Children = append(n.Children, nil)
	copy(n.Children[i+1:], n.Children[i:])
	n.Children[i] = child
}

// InsertChildInSchemaOrder inserts child immediately after the last
// existing child whose bound schema node is declared at or before
// child's own schema position (see schemaChildIndex), so a newly
// materialised default lands in its correct schema-ordered slot right
// away instead of depending solely on a later Sort call.
func (n *Node) InsertChildInSchemaOrder(child *Node) {
	index := schemaChildIndex(n.Schema)
	key := index(child.Schema)
	i := 0
	for i < len(n.Children) && index(n.Children[i].Schema) <= key {
		i++
	}
	n.InsertChildAt(i, child)
}

// RemoveChild removes child from n's children, if present.
func (n *Node) RemoveChild(child *Node) {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			return
		}
	}
}

// ChildrenNamed returns n's direct children with the given local name,
// in sibling order, regardless of namespace (binding, not this method,
// is what disambiguates namespace).
func (n *Node) ChildrenNamed(name string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// ChildNamed returns the first direct child with the given local name.
func (n *Node) ChildNamed(name string) (*Node, bool) {
	for _, c := range n.Children {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// LookupNamespace resolves a prefix (""  for the default namespace) to a
// URI by walking the xmlns / xmlns:prefix declarations from n up to the
// root; the closest enclosing declaration wins.
func (n *Node) LookupNamespace(prefix string) (string, bool) {
	for cur := n; cur != nil; cur = cur.Parent {
		for _, a := range cur.Attrs {
			if prefix == "" && a.Prefix == "" && a.Name == "xmlns" {
				return a.Value, true
			}
			if a.Prefix == "xmlns" && a.Name == prefix {
				return a.Value, true
			}
		}
	}
	return "", false
}

// Sort re-orders n's children into full schema-declaration order: every
// child is first moved into the run for its bound schema node, and the
// runs themselves are placed in the order their schema node is declared
// among n.Schema's children (choice/case schema nodes are transparent,
// since a case's children never appear as their own element in the XML
// tree; see fillChoice), so a list or leaf-list run stays contiguous and
// in the right slot relative to every sibling, not just the ones it
// already happened to be adjacent to. Within an
// ordered-by-system run, entries are further sorted by natural-order
// key/value comparison. Children with no schema binding (or bound to a
// schema node n.Schema doesn't know about) sort after every bound child,
// keeping their original relative order.
//
// The Defaults Engine calls Sort after inserting defaults so that later
// passes (Minmax Walker, Unique Checker) see schema-contiguous,
// schema-ordered siblings, per the ordering guarantee between those two
// components: fill_defaults inserts each default in its schema slot
// (InsertChildInSchemaOrder) and sorts once after its pass, while
// materialise_global_defaults appends merged nodes to the end of the
// children slice and relies on this re-sort to put them in place.
func (n *Node) Sort() {
	if len(n.Children) < 2 {
		return
	}
	index := schemaChildIndex(n.Schema)
	sort.SliceStable(n.Children, func(i, j int) bool {
		return index(n.Children[i].Schema) < index(n.Children[j].Schema)
	})
	stableSortStableRuns(n.Children)
}

// schemaChildIndex returns each schema node's position among
// parentSchema's declared children, recursing transparently through any
// choice/case so a case's own children carry their choice's index.
// Schema == nil, parentSchema == nil, or a schema node parentSchema
// doesn't own, all map to the same past-the-end index.
func schemaChildIndex(parentSchema yangschema.Node) func(yangschema.Node) int {
	if parentSchema == nil {
		return func(yangschema.Node) int { return 0 }
	}
	children := parentSchema.Children()
	pos := make(map[yangschema.Node]int, len(children))
	for i, c := range children {
		mapChoiceTransparently(c, i, pos)
	}
	last := len(children)
	return func(s yangschema.Node) int {
		if s == nil {
			return last
		}
		if i, ok := pos[s]; ok {
			return i
		}
		return last
	}
}

func mapChoiceTransparently(schemaNode yangschema.Node, index int, pos map[yangschema.Node]int) {
	pos[schemaNode] = index
	if schemaNode.Kind() != yangschema.KindChoice {
		return
	}
	for _, c := range schemaNode.Children() {
		for _, gc := range c.Children() {
			mapChoiceTransparently(gc, index, pos)
		}
	}
}

func stableSortStableRuns(children []*Node) {
	// Partition into maximal runs of the same bound schema node (or
	// unbound singleton runs), then sort only the system-ordered runs
	// in place; concatenate in original run order so unrelated sibling
	// types never interleave.
	i := 0
	for i < len(children) {
		j := i + 1
		for j < len(children) && sameSchema(children[i], children[j]) {
			j++
		}
		run := children[i:j]
		if len(run) > 1 && run[0].Schema != nil && !run[0].Schema.OrderedByUser() {
			sortRun(run)
		}
		i = j
	}
}

func sameSchema(a, b *Node) bool {
	return a.Schema != nil && b.Schema != nil && a.Schema == b.Schema
}

func sortRun(run []*Node) {
	key := func(nd *Node) string {
		if nd.Schema != nil && nd.Schema.Kind() == yangschema.KindLeafList {
			return nd.Value
		}
		return sortKeyFor(nd)
	}
	// insertion sort: runs are small (one list's worth of entries) and
	// natsort.Less is not a total order suitable for sort.Slice's
	// non-stable guarantee requirements here.
	for a := 1; a < len(run); a++ {
		for b := a; b > 0 && natsort.Less(key(run[b]), key(run[b-1])); b-- {
			run[b], run[b-1] = run[b-1], run[b]
		}
	}
}

func sortKeyFor(nd *Node) string {
	if nd.Schema == nil {
		return ""
	}
	var buf []byte
	for _, k := range nd.Schema.Keys() {
		if c, ok := nd.ChildNamed(k); ok {
			buf = append(buf, c.Value...)
			buf = append(buf, 0)
		}
	}
	return string(buf)
}

// Path returns the sequence of element names from the root down to and
// including n, for use in error messages.
func (n *Node) Path() []string {
	if n.Parent == nil {
		return []string{n.Name}
	}
	return append(n.Parent.Path(), n.Name)
}

// Clone deep-copies n and its subtree; the copy has no parent.
func (n *Node) Clone() *Node {
	c := &Node{
		Name:      n.Name,
		Prefix:    n.Prefix,
		Namespace: n.Namespace,
		Value:     n.Value,
		flags:     n.flags,
		Schema:    n.Schema,
	}
	c.Attrs = append([]Attr(nil), n.Attrs...)
	for _, ch := range n.Children {
		cc := ch.Clone()
		c.AddChild(cc)
	}
	return c
}
