// Package xpathmini is the XPath evaluator the validation and defaults
// engine delegates to: a deliberately small subset of XPath 1.0 covering
// what the engine's two callers need (RFC 7950 §4.2.2's "unique"
// XPath-mode argument, and §7.21.5's "when" boolean condition) rather
// than a general expression language.
//
// A schema's own YANG compiler is expected to carry a full XPath engine
// for "must"/leafref/derived-type constraints; this package exists only
// so the validation engine itself has no such dependency.
package xpathmini

import (
	"fmt"
	"strings"

	"github.com/clixon-go/yang-validate/xmltree"
)

// Eval resolves a location path, rooted at ctx, to the set of matching
// element nodes. Supported grammar:
//
//	step      := name | "current()" | "."
//	path      := step ("/" step)*
//	predicate := step "[" name "=" "'" literal "'" "]"
//
// Absolute paths (leading "/"), "..", and axis specifiers are not
// supported; when's "current()" and unique's relative descendant paths
// never need them.
func Eval(ctx *xmltree.Node, expr string) ([]*xmltree.Node, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("xpathmini: empty expression")
	}
	cur := []*xmltree.Node{ctx}
	for _, step := range strings.Split(expr, "/") {
		step = strings.TrimSpace(step)
		if step == "" {
			return nil, fmt.Errorf("xpathmini: unsupported absolute/empty step in %q", expr)
		}
		var err error
		cur, err = evalStep(cur, step)
		if err != nil {
			return nil, err
		}
		if len(cur) == 0 {
			return nil, nil
		}
	}
	return cur, nil
}

func evalStep(in []*xmltree.Node, step string) ([]*xmltree.Node, error) {
	if step == "." || step == "current()" {
		return in, nil
	}
	name, pred, hasPred := splitPredicate(step)
	var out []*xmltree.Node
	for _, n := range in {
		for _, c := range n.ChildrenNamed(name) {
			if !hasPred || matchesPredicate(c, pred) {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func splitPredicate(step string) (name, pred string, hasPred bool) {
	i := strings.IndexByte(step, '[')
	if i < 0 || !strings.HasSuffix(step, "]") {
		return step, "", false
	}
	return step[:i], step[i+1 : len(step)-1], true
}

func matchesPredicate(n *xmltree.Node, pred string) bool {
	lhs, rhs, neg, ok := splitEquality(pred)
	if !ok {
		// existence predicate: [name]
		_, found := n.ChildNamed(strings.TrimSpace(pred))
		return found
	}
	got := valueOf(n, lhs)
	eq := got == rhs
	if neg {
		return !eq
	}
	return eq
}

// EvalBoolean implements the boolean subset "when" conditions need:
// existence of a path, or a path compared against a quoted string
// literal with "=" / "!=".
func EvalBoolean(ctx *xmltree.Node, expr string) (bool, error) {
	expr = strings.TrimSpace(expr)
	lhs, rhs, neg, ok := splitEquality(expr)
	if !ok {
		nodes, err := Eval(ctx, expr)
		if err != nil {
			return false, err
		}
		return len(nodes) > 0, nil
	}
	got := valueOf(ctx, lhs)
	eq := got == rhs
	if neg {
		return !eq, nil
	}
	return eq, nil
}

func valueOf(ctx *xmltree.Node, path string) string {
	path = strings.TrimSpace(path)
	if path == "." || path == "current()" {
		return ctx.Value
	}
	nodes, err := Eval(ctx, path)
	if err != nil || len(nodes) == 0 {
		return ""
	}
	return nodes[0].Value
}

// splitEquality splits "lhs = 'rhs'" or "lhs != 'rhs'" forms. ok is
// false if expr contains neither operator, in which case it is treated
// as a bare existence test.
func splitEquality(expr string) (lhs, rhs string, neg, ok bool) {
	if i := strings.Index(expr, "!="); i >= 0 {
		return strings.TrimSpace(expr[:i]), unquote(expr[i+2:]), true, true
	}
	if i := strings.Index(expr, "="); i >= 0 {
		return strings.TrimSpace(expr[:i]), unquote(expr[i+1:]), false, true
	}
	return "", "", false, false
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
