// Package minmax is the single-pass walker enforcing min-elements and
// max-elements over a parent's ordered children, with gap analysis for
// schema list/leaf-list children that have no matching XML entries at
// all, and non-presence-container recursion.
//
// List-key and "unique" constraint enforcement is a separate external
// operation (package unique); the original C implementation folds both
// passes into one traversal for efficiency, but this engine keeps them
// independently callable per the External Interfaces (validate_minmax
// and validate_unique are distinct operations), and the engine package
// exposes them as separate methods.
package minmax

import (
	"github.com/clixon-go/yang-validate/ncerror"
	"github.com/clixon-go/yang-validate/unique"
	"github.com/clixon-go/yang-validate/xmltree"
	"github.com/clixon-go/yang-validate/yangschema"
)

// Walk performs the single forward pass described by the component's
// decision table over parent's children, which must already be bound
// and sorted into schema order. presenceRecurse controls whether the
// walk descends into non-presence containers (validate_minmax's
// top-level call always does; recursive callers pass the same value
// down).
func Walk(parent *xmltree.Node, presenceRecurse bool) (*ncerror.Failure, error) {
	if parent.Schema == nil {
		return nil, nil
	}
	path := parent.Path()

	var yprev yangschema.Node
	nr := 0

	flush := func(upTo yangschema.Node) *ncerror.Failure {
		if yprev == nil {
			return gapAnalysis(path, parent.Schema, nil, upTo)
		}
		if f := gapAnalysis(path, parent.Schema, yprev, upTo); f != nil {
			return f
		}
		return checkCount(path, yprev, nr)
	}

	for _, x := range parent.Children {
		y := x.Schema
		if y == nil {
			continue // unbound nodes are skipped by later passes
		}
		equal := yprev != nil && sameNode(yprev, y)

		if isRepeatable(y) {
			if equal {
				nr++
				continue
			}
			if f := flush(y); f != nil {
				return f, nil
			}
			yprev = y
			nr = 1
			continue
		}

		// y is a non-repeatable (leaf/container) schema node.
		if equal {
			return ncerror.NewTooManyElements(path, y.Name()), nil
		}
		if f := flush(y); f != nil {
			return f, nil
		}
		yprev = y
		nr = 1 // count is meaningless for non-lists but kept for symmetry
		if y.Kind() == yangschema.KindContainer && !y.Presence() && presenceRecurse {
			if f, err := Walk(x, presenceRecurse); f != nil || err != nil {
				return f, err
			}
		}
	}

	if f := flush(nil); f != nil {
		return f, nil
	}
	return nil, nil
}

func isRepeatable(y yangschema.Node) bool {
	return y.Kind() == yangschema.KindList || y.Kind() == yangschema.KindLeafList
}

func sameNode(a, b yangschema.Node) bool {
	return a.Name() == b.Name() && a.Namespace() == b.Namespace()
}

func checkCount(path []string, y yangschema.Node, nr int) *ncerror.Failure {
	if y.Min() > 0 && nr < y.Min() {
		return ncerror.NewTooFewElements(path, y.Name())
	}
	if y.Max() > 0 && nr > y.Max() {
		return ncerror.NewTooManyElements(path, y.Name())
	}
	return nil
}

// gapAnalysis walks parentSchema's own children strictly between
// fromExclusive and toExclusive (either may be nil, meaning "start"/
// "end" of the child list) looking for list/leaf-list children with
// min-elements that have no corresponding XML entry at all, recursing
// into intervening non-presence containers. Choice/case children are
// skipped: detecting an empty list nested in an unselected case is left
// undone, matching the original's documented limitation.
func gapAnalysis(path []string, parentSchema yangschema.Node, fromExclusive, toExclusive yangschema.Node) *ncerror.Failure {
	children := parentSchema.Children()
	fromIdx := -1
	if fromExclusive != nil {
		fromIdx = indexOf(children, fromExclusive)
	}
	toIdx := len(children)
	if toExclusive != nil {
		toIdx = indexOf(children, toExclusive)
	}
	for i := fromIdx + 1; i < toIdx && i >= 0; i++ {
		if f := checkGapChild(path, children[i]); f != nil {
			return f
		}
	}
	return nil
}

func indexOf(children []yangschema.Node, target yangschema.Node) int {
	for i, c := range children {
		if c == target {
			return i
		}
	}
	return len(children)
}

func checkGapChild(path []string, c yangschema.Node) *ncerror.Failure {
	switch c.Kind() {
	case yangschema.KindList, yangschema.KindLeafList:
		if c.Min() > 0 {
			return ncerror.NewTooFewElements(path, c.Name())
		}
	case yangschema.KindContainer:
		if !c.Presence() {
			childPath := append(append([]string{}, path...), c.Name())
			for _, gc := range c.Children() {
				if f := checkGapChild(childPath, gc); f != nil {
					return f
				}
			}
		}
	case yangschema.KindChoice:
		// intentionally skipped, see package doc
	}
	return nil
}

// WalkRecursive runs Walk over parent, then recurses into every child
// bound to a container (presence or not) or a list entry, covering the
// whole subtree in schema order. Each leaf-list run is checked for
// duplicate values instead, the rule the original left commented out
// (see package unique).
func WalkRecursive(parent *xmltree.Node) (*ncerror.Failure, error) {
	if f, err := Walk(parent, true); f != nil || err != nil {
		return f, err
	}
	return walkChildren(parent)
}

func walkChildren(parent *xmltree.Node) (*ncerror.Failure, error) {
	i := 0
	for i < len(parent.Children) {
		x := parent.Children[i]
		if x.Schema == nil {
			i++
			continue
		}
		switch x.Schema.Kind() {
		case yangschema.KindList:
			j := i
			var run []*xmltree.Node
			for j < len(parent.Children) && parent.Children[j].Schema == x.Schema {
				run = append(run, parent.Children[j])
				j++
			}
			for _, entry := range run {
				if f, err := WalkRecursive(entry); f != nil || err != nil {
					return f, err
				}
			}
			i = j
		case yangschema.KindLeafList:
			j := i
			var run []*xmltree.Node
			for j < len(parent.Children) && parent.Children[j].Schema == x.Schema {
				run = append(run, parent.Children[j])
				j++
			}
			if f := unique.CheckLeafList(run); f != nil {
				return f, nil
			}
			i = j
		case yangschema.KindContainer:
			if f, err := WalkRecursive(x); f != nil || err != nil {
				return f, err
			}
			i++
		default:
			i++
		}
	}
	return nil, nil
}
