// Package bind associates XML tree nodes with their YANG schema nodes by
// namespace-qualified name, walking both trees together from the root.
package bind

import (
	"fmt"

	"github.com/clixon-go/yang-validate/xmltree"
	"github.com/clixon-go/yang-validate/yangschema"
)

// ErrBindAmbiguous is returned when two schema nodes claim the same
// (namespace, local-name) under one parent: a schema bug, not a data
// error, so it is always fatal.
type ErrBindAmbiguous struct {
	Namespace, Name string
}

func (e *ErrBindAmbiguous) Error() string {
	return fmt.Sprintf("bind: ambiguous schema children for {%s}%s", e.Namespace, e.Name)
}

// Tree binds root and its entire subtree against schema, which is the
// module (or module set) root to bind the top level against. Unresolved
// elements are left with a nil Schema and are still descended into with
// no schema context, so everything beneath an unbound element is itself
// unbound; later passes skip any node with Schema == nil.
func Tree(root *xmltree.Node, schema yangschema.Node) error {
	return bindNode(root, schema)
}

func bindNode(x *xmltree.Node, parentSchema yangschema.Node) error {
	if parentSchema == nil {
		x.Schema = nil
	} else {
		ns := resolveNamespace(x)
		matches := parentSchema.ChildrenMatching(ns, x.Name)
		switch len(matches) {
		case 0:
			x.Schema = nil
		case 1:
			x.Schema = matches[0]
		default:
			return &ErrBindAmbiguous{Namespace: ns, Name: x.Name}
		}
	}

	childSchema := x.Schema
	for _, c := range x.Children {
		if err := bindNode(c, childSchema); err != nil {
			return err
		}
	}
	return nil
}

// resolveNamespace returns x's effective namespace: its own if set,
// otherwise the nearest enclosing default-namespace (or prefixed
// namespace, if x carries a prefix) declaration.
func resolveNamespace(x *xmltree.Node) string {
	if x.Namespace != "" {
		return x.Namespace
	}
	if ns, ok := x.LookupNamespace(x.Prefix); ok {
		return ns
	}
	return ""
}
