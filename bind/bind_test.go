package bind

import (
	"testing"

	"github.com/clixon-go/yang-validate/xmltree"
	"github.com/clixon-go/yang-validate/yangschema"
)

func TestTreeBindsMatchingElements(t *testing.T) {
	mod := yangschema.NewModule("m", "urn:test")
	c := yangschema.NewContainer("c", "", true)
	yangschema.AddChild(mod, c)
	leaf := yangschema.NewLeaf("x", "")
	yangschema.AddChild(c, leaf)

	root := xmltree.New("c")
	x := xmltree.NewBody("x", "7")
	root.AddChild(x)

	if err := Tree(root, mod); err != nil {
		t.Fatalf("Tree() error: %v", err)
	}
	if root.Schema != yangschema.Node(c) {
		t.Fatalf("root.Schema = %v; want container c", root.Schema)
	}
	if x.Schema != yangschema.Node(leaf) {
		t.Fatalf("x.Schema = %v; want leaf x", x.Schema)
	}
}

func TestTreeLeavesUnknownElementsUnbound(t *testing.T) {
	mod := yangschema.NewModule("m", "urn:test")
	c := yangschema.NewContainer("c", "", true)
	yangschema.AddChild(mod, c)

	root := xmltree.New("c")
	stray := xmltree.New("unknown")
	root.AddChild(stray)
	grandchild := xmltree.New("deeper")
	stray.AddChild(grandchild)

	if err := Tree(root, mod); err != nil {
		t.Fatalf("Tree() error: %v", err)
	}
	if stray.Schema != nil {
		t.Fatalf("stray.Schema = %v; want nil (unbound)", stray.Schema)
	}
	if grandchild.Schema != nil {
		t.Fatalf("grandchild of unbound node should also be unbound")
	}
}

func TestTreeBindIsIdempotent(t *testing.T) {
	mod := yangschema.NewModule("m", "urn:test")
	c := yangschema.NewContainer("c", "", true)
	yangschema.AddChild(mod, c)

	root := xmltree.New("c")
	if err := Tree(root, mod); err != nil {
		t.Fatalf("first Tree() error: %v", err)
	}
	first := root.Schema
	if err := Tree(root, mod); err != nil {
		t.Fatalf("second Tree() error: %v", err)
	}
	if root.Schema != first {
		t.Fatalf("re-binding produced a different schema reference")
	}
}

func TestTreeAmbiguousBinding(t *testing.T) {
	mod := yangschema.NewModule("m", "urn:test")
	a1 := yangschema.NewContainer("dup", "", false)
	a2 := yangschema.NewContainer("dup", "", false)
	yangschema.AddChild(mod, a1)
	yangschema.AddChild(mod, a2)

	root := xmltree.New("dup")
	err := Tree(root, mod)
	if err == nil {
		t.Fatalf("expected ErrBindAmbiguous, got nil")
	}
	if _, ok := err.(*ErrBindAmbiguous); !ok {
		t.Fatalf("expected *ErrBindAmbiguous, got %T: %v", err, err)
	}
}
