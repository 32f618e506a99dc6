// Package unique verifies list-key uniqueness and YANG "unique"
// statements across a contiguous run of list entries, in both direct
// (vector of sibling leaves) and XPath (single descendant path) modes.
package unique

import (
	"fmt"

	"github.com/clixon-go/yang-validate/ncerror"
	"github.com/clixon-go/yang-validate/xmltree"
	"github.com/clixon-go/yang-validate/xpathmini"
	"github.com/clixon-go/yang-validate/yangschema"
)

// ErrYangMultipleDescendant is a schema-compile-time bug: a "unique"
// statement combines a multi-component (descendant) argument with other
// arguments in the same statement. Always fatal.
type ErrYangMultipleDescendant struct {
	List string
}

func (e *ErrYangMultipleDescendant) Error() string {
	return fmt.Sprintf("unique: list %q combines a descendant unique argument with other arguments", e.List)
}

const sep = "·" // unlikely to appear in a leaf value, used as a tuple-join separator

// CheckList verifies list-key uniqueness and every "unique" statement of
// listSchema across entries, a contiguous run of same-schema list
// elements already in their final sibling order. It returns the first
// offending duplicate, or nil if every constraint holds.
func CheckList(entries []*xmltree.Node, listSchema yangschema.Node) (*ncerror.Failure, error) {
	if f := checkTuple(entries, listSchema.Keys(), listSchema.OrderedByUser()); f != nil {
		return f, nil
	}
	for _, stmt := range listSchema.Uniques() {
		f, err := checkUniqueStatement(entries, listSchema, stmt)
		if err != nil {
			return nil, err
		}
		if f != nil {
			return f, nil
		}
	}
	return nil, nil
}

func checkUniqueStatement(entries []*xmltree.Node, listSchema yangschema.Node, stmt [][]string) (*ncerror.Failure, error) {
	descendants := 0
	for _, arg := range stmt {
		if len(arg) > 1 {
			descendants++
		}
	}
	if descendants > 0 && len(stmt) > 1 {
		return nil, &ErrYangMultipleDescendant{List: listSchema.Name()}
	}
	if descendants == 0 {
		names := make([]string, len(stmt))
		for i, arg := range stmt {
			names[i] = arg[0]
		}
		// Entries are sorted by key, not by these leaves, so only the
		// quadratic scan finds every collision.
		return checkTuple(entries, names, true), nil
	}
	return checkXPathUnique(entries, stmt[0])
}

// checkTuple is the direct-mode key/unique check: build a tuple per
// entry from the named direct children, skip entries missing any of
// them (RFC 7950 §7.8.3.1), and detect duplicates using the
// ordered-by-system linear scan or the ordered-by-user quadratic scan.
func checkTuple(entries []*xmltree.Node, names []string, orderedByUser bool) *ncerror.Failure {
	type tuple struct {
		key    string
		values map[string]string
		index  int
	}
	tuples := make([]tuple, 0, len(entries))
	for i, e := range entries {
		vals := make(map[string]string, len(names))
		complete := true
		for _, n := range names {
			c, ok := e.ChildNamed(n)
			if !ok {
				complete = false
				break
			}
			vals[n] = c.Value
		}
		if !complete {
			continue
		}
		tuples = append(tuples, tuple{key: joinTuple(names, vals), values: vals, index: i})
	}

	if !orderedByUser {
		// Ordered-by-system: true keys are already sorted, so only the
		// immediately preceding tuple can collide.
		for i := 1; i < len(tuples); i++ {
			if tuples[i].key == tuples[i-1].key {
				return ncerror.NewDataNotUnique(nil, tuples[i].values)
			}
		}
		return nil
	}

	// Ordered-by-user (or a unique statement over non-key leaves):
	// quadratic pairwise comparison.
	for i := 0; i < len(tuples); i++ {
		for j := 0; j < i; j++ {
			if tuples[i].key == tuples[j].key {
				return ncerror.NewDataNotUnique(nil, tuples[i].values)
			}
		}
	}
	return nil
}

func joinTuple(names []string, vals map[string]string) string {
	s := ""
	for i, n := range names {
		if i > 0 {
			s += sep
		}
		s += vals[n]
	}
	return s
}

// checkXPathUnique evaluates a single descendant path against every
// entry and detects duplicate body strings with a linear scan over the
// accumulated set.
func checkXPathUnique(entries []*xmltree.Node, path []string) (*ncerror.Failure, error) {
	expr := joinPath(path)
	seen := make(map[string]int, len(entries))
	for i, e := range entries {
		nodes, err := xpathmini.Eval(e, expr)
		if err != nil {
			return nil, err
		}
		if len(nodes) == 0 {
			continue
		}
		val := nodes[0].Value
		if prev, ok := seen[val]; ok {
			_ = prev
			return ncerror.NewDataNotUnique(nil, map[string]string{expr: val}), nil
		}
		seen[val] = i
	}
	return nil, nil
}

func joinPath(segs []string) string {
	s := ""
	for i, seg := range segs {
		if i > 0 {
			s += "/"
		}
		s += seg
	}
	return s
}

// CheckLeafList detects duplicate values among a contiguous run of
// leaf-list entries. The original implementation commented this check
// out of the minmax walker pending a design decision (the "NOTYET"
// marker); this engine makes the decision explicit and enforces it here
// unconditionally for every leaf-list, config or state, regardless of
// ordered-by.
func CheckLeafList(entries []*xmltree.Node) *ncerror.Failure {
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if seen[e.Value] {
			return ncerror.NewDataNotUnique(nil, map[string]string{e.Name: e.Value})
		}
		seen[e.Value] = true
	}
	return nil
}

// RemoveDuplicates applies the keep-last policy across entries for both
// the list's keys and every unique statement made only of direct child
// leaves: whenever two entries collide on a constraint's tuple, only the
// later one (by sibling position) survives. Unique statements with a
// descendant-path argument are not applied. It returns the surviving
// entries in their original relative order.
func RemoveDuplicates(entries []*xmltree.Node, listSchema yangschema.Node) []*xmltree.Node {
	keep := make([]bool, len(entries))
	for i := range keep {
		keep[i] = true
	}

	applyKeepLast(entries, keep, listSchema.Keys())
	for _, stmt := range listSchema.Uniques() {
		descendant := false
		var names []string
		for _, arg := range stmt {
			if len(arg) > 1 {
				descendant = true
			} else {
				names = append(names, arg[0])
			}
		}
		if !descendant {
			applyKeepLast(entries, keep, names)
		}
	}

	out := make([]*xmltree.Node, 0, len(entries))
	for i, e := range entries {
		if keep[i] {
			out = append(out, e)
		}
	}
	return out
}

func applyKeepLast(entries []*xmltree.Node, keep []bool, names []string) {
	last := make(map[string]int)
	for i, e := range entries {
		if !keep[i] {
			continue
		}
		vals := make(map[string]string, len(names))
		complete := true
		for _, n := range names {
			c, ok := e.ChildNamed(n)
			if !ok {
				complete = false
				break
			}
			vals[n] = c.Value
		}
		if !complete {
			continue
		}
		k := joinTuple(names, vals)
		if prev, ok := last[k]; ok {
			keep[prev] = false
		}
		last[k] = i
	}
}
