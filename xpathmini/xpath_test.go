package xpathmini

import (
	"testing"

	"github.com/clixon-go/yang-validate/xmltree"
)

func TestEvalSimplePath(t *testing.T) {
	root := xmltree.New("root")
	a := xmltree.New("a")
	root.AddChild(a)
	b := xmltree.NewBody("b", "hello")
	a.AddChild(b)

	nodes, err := Eval(root, "a/b")
	if err != nil {
		t.Fatalf("Eval error: %v", err)
	}
	if len(nodes) != 1 || nodes[0].Value != "hello" {
		t.Fatalf("Eval(a/b) = %+v, want single node with value hello", nodes)
	}
}

func TestEvalCurrentAndDot(t *testing.T) {
	root := xmltree.New("root")
	a := xmltree.New("a")
	root.AddChild(a)

	nodes, err := Eval(a, "current()")
	if err != nil {
		t.Fatalf("Eval error: %v", err)
	}
	if len(nodes) != 1 || nodes[0] != a {
		t.Fatalf("Eval(current()) should return the context node itself")
	}

	nodes, err = Eval(a, ".")
	if err != nil {
		t.Fatalf("Eval error: %v", err)
	}
	if len(nodes) != 1 || nodes[0] != a {
		t.Fatalf("Eval(.) should return the context node itself")
	}
}

func TestEvalMissingPathReturnsEmpty(t *testing.T) {
	root := xmltree.New("root")
	nodes, err := Eval(root, "a/b")
	if err != nil {
		t.Fatalf("Eval error: %v", err)
	}
	if len(nodes) != 0 {
		t.Fatalf("expected no matches, got %+v", nodes)
	}
}

func TestEvalRejectsAbsolutePath(t *testing.T) {
	root := xmltree.New("root")
	if _, err := Eval(root, "/a/b"); err == nil {
		t.Fatalf("expected an error for an absolute path")
	}
}

func TestEvalPredicateExistence(t *testing.T) {
	root := xmltree.New("root")
	a1 := xmltree.New("a")
	a1.AddChild(xmltree.NewBody("tag", "yes"))
	a2 := xmltree.New("a")
	root.AddChild(a1)
	root.AddChild(a2)

	nodes, err := Eval(root, "a[tag]")
	if err != nil {
		t.Fatalf("Eval error: %v", err)
	}
	if len(nodes) != 1 || nodes[0] != a1 {
		t.Fatalf("Eval(a[tag]) should match only the entry with a tag child")
	}
}

func TestEvalPredicateEquality(t *testing.T) {
	root := xmltree.New("root")
	a1 := xmltree.New("a")
	a1.AddChild(xmltree.NewBody("k", "one"))
	a2 := xmltree.New("a")
	a2.AddChild(xmltree.NewBody("k", "two"))
	root.AddChild(a1)
	root.AddChild(a2)

	nodes, err := Eval(root, "a[k='two']")
	if err != nil {
		t.Fatalf("Eval error: %v", err)
	}
	if len(nodes) != 1 || nodes[0] != a2 {
		t.Fatalf("Eval(a[k='two']) = %+v, want the second a element", nodes)
	}
}

func TestEvalBooleanExistence(t *testing.T) {
	root := xmltree.New("root")
	root.AddChild(xmltree.New("a"))

	ok, err := EvalBoolean(root, "a")
	if err != nil {
		t.Fatalf("EvalBoolean error: %v", err)
	}
	if !ok {
		t.Fatalf("expected existence test on a to be true")
	}

	ok, err = EvalBoolean(root, "b")
	if err != nil {
		t.Fatalf("EvalBoolean error: %v", err)
	}
	if ok {
		t.Fatalf("expected existence test on missing b to be false")
	}
}

func TestEvalBooleanEqualityAndNegation(t *testing.T) {
	root := xmltree.New("root")
	root.AddChild(xmltree.NewBody("a", "up"))

	ok, err := EvalBoolean(root, "a = 'up'")
	if err != nil {
		t.Fatalf("EvalBoolean error: %v", err)
	}
	if !ok {
		t.Fatalf("expected a = 'up' to be true")
	}

	ok, err = EvalBoolean(root, "a != 'up'")
	if err != nil {
		t.Fatalf("EvalBoolean error: %v", err)
	}
	if ok {
		t.Fatalf("expected a != 'up' to be false")
	}
}
