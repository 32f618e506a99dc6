package withdefaults

import (
	"testing"

	"github.com/clixon-go/yang-validate/xmltree"
	"github.com/clixon-go/yang-validate/yangschema"
)

func buildLeafWithDefault(val string) (yangschema.Node, *xmltree.Node) {
	mod := yangschema.NewModule("m", "urn:test")
	leaf := yangschema.NewLeaf("x", "")
	yangschema.SetDefault(leaf, "7")
	yangschema.AddChild(mod, leaf)

	root := xmltree.New("root")
	root.Schema = mod
	x := xmltree.NewBody("x", val)
	x.Schema = leaf
	root.AddChild(x)
	return mod, root
}

func TestTrimRemovesDefaultValuedLeaf(t *testing.T) {
	_, root := buildLeafWithDefault("7")
	if err := Apply(root, Trim, false); err != nil {
		t.Fatalf("Apply(Trim) error: %v", err)
	}
	if _, ok := root.ChildNamed("x"); ok {
		t.Fatalf("expected default-valued leaf x to be trimmed")
	}
}

func TestTrimKeepsNonDefaultValue(t *testing.T) {
	_, root := buildLeafWithDefault("8")
	if err := Apply(root, Trim, false); err != nil {
		t.Fatalf("Apply(Trim) error: %v", err)
	}
	x, ok := root.ChildNamed("x")
	if !ok || x.Value != "8" {
		t.Fatalf("expected non-default leaf x=8 to remain, got %v, %v", x, ok)
	}
}

func TestExplicitIsNoOp(t *testing.T) {
	_, root := buildLeafWithDefault("7")
	before := len(root.Children)
	if err := Apply(root, Explicit, false); err != nil {
		t.Fatalf("Apply(Explicit) error: %v", err)
	}
	if len(root.Children) != before {
		t.Fatalf("Explicit mode mutated the tree")
	}
}

func TestReportAllTaggedAttachesAttribute(t *testing.T) {
	mod := yangschema.NewModule("m", "urn:test")
	leaf := yangschema.NewLeaf("x", "")
	yangschema.SetDefault(leaf, "7")
	yangschema.AddChild(mod, leaf)

	root := xmltree.New("root")
	root.Schema = mod

	if err := Apply(root, ReportAllTagged, false); err != nil {
		t.Fatalf("Apply(ReportAllTagged) error: %v", err)
	}
	x, ok := root.ChildNamed("x")
	if !ok || x.Value != "7" {
		t.Fatalf("expected report-all to create default leaf x=7")
	}
	found := false
	for _, a := range x.Attrs {
		if a.Name == "default" && a.Value == "true" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected default-valued leaf to carry a default=\"true\" attribute, got %v", x.Attrs)
	}
}

func TestPruneNoPresenceRemovesEmptyContainers(t *testing.T) {
	mod := yangschema.NewModule("m", "urn:test")
	a := yangschema.NewContainer("a", "", false)
	yangschema.AddChild(mod, a)

	root := xmltree.New("root")
	root.Schema = mod
	empty := xmltree.New("a")
	empty.Schema = a
	root.AddChild(empty)

	PruneNoPresence(root, PruneNoPresenceOnly, false)
	if _, ok := root.ChildNamed("a"); ok {
		t.Fatalf("expected empty non-presence container to be pruned")
	}
}

func TestPruneNonePreservesTree(t *testing.T) {
	mod := yangschema.NewModule("m", "urn:test")
	a := yangschema.NewContainer("a", "", false)
	yangschema.AddChild(mod, a)

	root := xmltree.New("root")
	root.Schema = mod
	empty := xmltree.New("a")
	empty.Schema = a
	root.AddChild(empty)

	PruneNoPresence(root, PruneNone, false)
	if _, ok := root.ChildNamed("a"); !ok {
		t.Fatalf("PruneNone should not remove anything")
	}
}
