package yangschema

import "testing"

func TestChildLookupAndNamespaceInheritance(t *testing.T) {
	mod := NewModule("test-mod", "urn:test")
	c := NewContainer("c", "", false)
	AddChild(mod, c)

	if c.Namespace() != "urn:test" {
		t.Fatalf("child namespace = %q; want inherited urn:test", c.Namespace())
	}

	got, ok := mod.Child("urn:test", "c")
	if !ok || got != Node(c) {
		t.Fatalf("Child(urn:test, c) = %v, %v; want container, true", got, ok)
	}
	if _, ok := mod.Child("urn:test", "missing"); ok {
		t.Fatalf("unexpected match for missing child")
	}
}

func TestChildrenMatchingAmbiguity(t *testing.T) {
	mod := NewModule("m", "urn:test")
	a1 := NewLeaf("dup", "")
	a2 := NewLeaf("dup", "")
	AddChild(mod, a1)
	AddChild(mod, a2)

	matches := mod.ChildrenMatching("urn:test", "dup")
	if len(matches) != 2 {
		t.Fatalf("ChildrenMatching returned %d matches; want 2 (ambiguous)", len(matches))
	}
}

func TestConfigInheritance(t *testing.T) {
	mod := NewModule("m", "urn:test")
	c := NewContainer("c", "", false)
	AddChild(mod, c)
	l := NewLeaf("l", "")
	AddChild(c, l)

	if !l.Config() {
		t.Fatalf("leaf should default to config true")
	}

	SetConfig(c, false)
	if l.Config() {
		t.Fatalf("leaf under config-false container should report config false")
	}
}

func TestSplitSchemaNodeID(t *testing.T) {
	cases := map[string][]string{
		"a/b":       {"a", "b"},
		"pfx:a/b":   {"a", "b"},
		"a":         {"a"},
		"a/pfx:b/c": {"a", "b", "c"},
	}
	for in, want := range cases {
		got := SplitSchemaNodeID(in)
		if len(got) != len(want) {
			t.Fatalf("SplitSchemaNodeID(%q) = %v; want %v", in, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("SplitSchemaNodeID(%q)[%d] = %q; want %q", in, i, got[i], want[i])
			}
		}
	}
}

func TestDefaultAndMinMax(t *testing.T) {
	l := NewLeaf("x", "urn:test")
	if l.HasDefault() {
		t.Fatalf("new leaf should have no default")
	}
	SetDefault(l, "7")
	if !l.HasDefault() || l.Default() != "7" {
		t.Fatalf("SetDefault did not take effect: has=%v val=%q", l.HasDefault(), l.Default())
	}

	list := NewList("l", "urn:test", []string{"k"})
	SetMinMax(list, 1, 0)
	if list.Min() != 1 || list.Max() != 0 {
		t.Fatalf("Min/Max = %d/%d; want 1/0 (unbounded)", list.Min(), list.Max())
	}
}
