// Package defaults materialises default values for leaves and
// non-presence containers: fill_defaults for a single node's direct
// schema children, fill_defaults_recursive for a flag-gated partial
// refresh, and a global cache for whole-schema default-tree expansion.
package defaults

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/clixon-go/yang-validate/xmltree"
	"github.com/clixon-go/yang-validate/xpathmini"
	"github.com/clixon-go/yang-validate/yangschema"
)

// ErrWhenEvaluationFailed wraps an XPath evaluator failure encountered
// while checking a "when" condition; always surfaced to the caller as
// an internal error, never recovered locally.
type ErrWhenEvaluationFailed struct {
	Expr string
	Err  error
}

func (e *ErrWhenEvaluationFailed) Error() string {
	return fmt.Sprintf("defaults: when %q failed: %v", e.Expr, e.Err)
}

func (e *ErrWhenEvaluationFailed) Unwrap() error { return e.Err }

// Fill is fill_defaults: for each of schema's direct children, create
// whatever default-valued XML this node is currently missing, and, if
// anything was inserted, re-sort x's children once after the pass so
// later passes see schema-contiguous siblings.
func Fill(x *xmltree.Node, schema yangschema.Node, state bool) error {
	inserted := false
	for _, c := range schema.Children() {
		did, err := fillChild(x, c, state)
		if err != nil {
			return err
		}
		inserted = inserted || did
	}
	if inserted {
		x.Sort()
	}
	return nil
}

func fillChild(x *xmltree.Node, c yangschema.Node, state bool) (bool, error) {
	switch c.Kind() {
	case yangschema.KindLeaf:
		return fillLeaf(x, c, state)
	case yangschema.KindContainer:
		return fillNonPresenceContainer(x, c, state)
	case yangschema.KindChoice:
		return fillChoice(x, c, state)
	default:
		return false, nil
	}
}

func fillLeaf(x *xmltree.Node, leaf yangschema.Node, state bool) (bool, error) {
	if !leaf.HasDefault() {
		return false, nil
	}
	if !configGuardOK(leaf, state) {
		return false, nil
	}
	if _, present := x.ChildNamed(leaf.Name()); present {
		return false, nil
	}
	ok, err := whenOK(leaf, x)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	child := xmltree.NewBody(leaf.Name(), leaf.Default())
	child.Namespace = leaf.Namespace()
	child.Schema = leaf
	child.SetFlag(xmltree.FlagDefault | xmltree.FlagAdd)
	x.InsertChildInSchemaOrder(child)
	return true, nil
}

func fillNonPresenceContainer(x *xmltree.Node, cont yangschema.Node, state bool) (bool, error) {
	if cont.Presence() {
		// A presence container is never created as a default; only an
		// existing one has its defaults filled.
		if _, existed := x.ChildNamed(cont.Name()); !existed {
			return false, nil
		}
	}
	if !configGuardOK(cont, state) {
		return false, nil
	}
	need, err := nonPresenceNeeded(cont, state)
	if err != nil {
		return false, err
	}
	if !need {
		return false, nil
	}
	ok, err := whenOK(cont, x)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	child, existed := x.ChildNamed(cont.Name())
	created := false
	if !existed {
		child = xmltree.New(cont.Name())
		child.Namespace = cont.Namespace()
		child.Schema = cont
		child.SetFlag(xmltree.FlagDefault | xmltree.FlagAdd)
		x.InsertChildInSchemaOrder(child)
		created = true
	}
	if err := Fill(child, cont, state); err != nil {
		return false, err
	}
	return created, nil
}

// nonPresenceNeeded is the recursive need-check: a non-presence
// container is only worth creating if some descendant would actually
// produce a default: a leaf with an applicable default, a nested
// non-presence container that itself needs creating, or a choice with a
// default case.
func nonPresenceNeeded(cont yangschema.Node, state bool) (bool, error) {
	for _, c := range cont.Children() {
		if !configGuardOK(c, state) {
			continue
		}
		switch c.Kind() {
		case yangschema.KindLeaf:
			if c.HasDefault() {
				return true, nil
			}
		case yangschema.KindContainer:
			if !c.Presence() {
				need, err := nonPresenceNeeded(c, state)
				if err != nil {
					return false, err
				}
				if need {
					return true, nil
				}
			}
		case yangschema.KindChoice:
			if c.DefaultCase() != "" {
				return true, nil
			}
		}
	}
	return false, nil
}

// fillChoice implements RFC 7950 §7.9.3: if none of the choice's cases
// currently has a child present under x, and the choice declares a
// default case, materialise that case's own defaults. Cases are
// transparent in the XML tree, so the case's children are filled
// directly under x.
func fillChoice(x *xmltree.Node, choice yangschema.Node, state bool) (bool, error) {
	if anyCasePresent(x, choice) {
		return false, nil
	}
	defCase := choice.DefaultCase()
	if defCase == "" {
		return false, nil
	}
	caseSchema, ok := choice.Child(choice.Namespace(), defCase)
	if !ok {
		return false, nil
	}
	return false, Fill(x, caseSchema, state)
}

func anyCasePresent(x *xmltree.Node, choice yangschema.Node) bool {
	for _, caseSchema := range choice.Children() {
		for _, grandchild := range caseSchema.Children() {
			if _, present := x.ChildNamed(grandchild.Name()); present {
				return true
			}
		}
	}
	return false
}

func whenOK(schema yangschema.Node, ctx *xmltree.Node) (bool, error) {
	expr := schema.When()
	if expr == "" {
		return true, nil
	}
	ok, err := xpathmini.EvalBoolean(ctx, expr)
	if err != nil {
		return false, &ErrWhenEvaluationFailed{Expr: expr, Err: err}
	}
	return ok, nil
}

// configGuardOK implements §4.4.3: when materialising state data, skip
// any node whose nearest config-bearing ancestor is config true (the
// running config already supplies it); when materialising config, skip
// config-false nodes entirely.
func configGuardOK(schema yangschema.Node, state bool) bool {
	if state {
		return !schema.Config()
	}
	return schema.Config()
}

// FillRecursive is fill_defaults_recursive: fill x only if flagMask is
// 0, or x is flagged CHANGE, or flagMask intersects its flags (typically
// ADD|DEL), and once either flag test is true for a node, the mask is
// cleared to 0 for everything beneath it, so the rest of that subtree is
// processed unconditionally rather than re-checked flag by flag. A node
// that fails the flag test is not filled, but its children are still
// visited and tested in turn.
func FillRecursive(x *xmltree.Node, schema yangschema.Node, state bool, flagMask xmltree.Flag) error {
	triggered := flagMask == 0 || x.HasFlag(xmltree.FlagChange) || x.Flags()&flagMask != 0
	if !triggered {
		var err error
		for _, c := range x.Children {
			if c.Schema == nil {
				continue
			}
			if e := FillRecursive(c, c.Schema, state, flagMask); e != nil {
				err = e
			}
		}
		return err
	}

	if err := Fill(x, schema, state); err != nil {
		return err
	}
	for _, c := range x.Children {
		if c.Schema == nil {
			continue
		}
		if err := FillRecursive(c, c.Schema, state, 0); err != nil {
			return err
		}
	}
	return nil
}

// Cache is the global defaults cache: two entries keyed by config/state,
// each a fully expanded default tree rooted at a synthetic top node.
// Population is a single-writer idempotent operation; once populated for
// a key, populate always returns the same tree reference until
// Invalidate is called (on schema reload).
type Cache struct {
	trees map[bool]*xmltree.Node // keyed by state (false == config)
	log   *logrus.Entry
}

func NewCache() *Cache {
	return &Cache{
		trees: make(map[bool]*xmltree.Node),
		log:   logrus.WithField("component", "defaults-cache"),
	}
}

// Invalidate drops the cached trees; call on schema reload.
func (c *Cache) Invalidate() {
	c.trees = make(map[bool]*xmltree.Node)
	c.log.Debug("invalidated global defaults cache")
}

func (c *Cache) populate(schema yangschema.Node, state bool) (*xmltree.Node, error) {
	if t, ok := c.trees[state]; ok {
		return t, nil
	}
	top := xmltree.New("top")
	top.Schema = schema
	if err := Fill(top, schema, state); err != nil {
		return nil, err
	}
	c.trees[state] = top
	c.log.WithField("state", state).Debug("populated global defaults cache")
	return top, nil
}

// MaterialiseGlobal is materialise_global_defaults: it populates (or
// reuses) the cached default tree for the requested config/state epoch,
// selects the subtree reachable via xpathExpr (evaluated against the
// cache root), and merges a copy of it into root. Mark-copy sequence:
// mark every matching cached node, propagate MARK+CHANGE up the cached
// ancestor chain, deep-copy the cached tree, merge only the copy's
// marked nodes into root, then clear marks on both the cache and the
// copy so the cache stays clean for the next caller.
func (c *Cache) MaterialiseGlobal(root *xmltree.Node, schema yangschema.Node, xpathExpr string, state bool) error {
	cached, err := c.populate(schema, state)
	if err != nil {
		return err
	}

	var matches []*xmltree.Node
	if xpathExpr == "" || xpathExpr == "." {
		matches = []*xmltree.Node{cached}
	} else {
		matches, err = xpathmini.Eval(cached, xpathExpr)
		if err != nil {
			return &ErrWhenEvaluationFailed{Expr: xpathExpr, Err: err}
		}
	}

	for _, m := range matches {
		markSubtree(m)
		m.PropagateUp(xmltree.FlagMark | xmltree.FlagChange)
	}

	copy := cached.Clone()
	mergeMarked(copy, root)

	clearMarks(cached)
	clearMarks(copy)
	return nil
}

func markSubtree(n *xmltree.Node) {
	n.SetFlag(xmltree.FlagMark)
	for _, c := range n.Children {
		markSubtree(c)
	}
}

func mergeMarked(src, dst *xmltree.Node) {
	if !src.HasFlag(xmltree.FlagMark) {
		return
	}
	if src.HasFlag(xmltree.FlagDefault) && len(src.Children) == 0 {
		if _, present := dst.ChildNamed(src.Name); !present {
			leaf := xmltree.NewBody(src.Name, src.Value)
			leaf.Namespace = src.Namespace
			leaf.Schema = src.Schema
			leaf.SetFlag(xmltree.FlagDefault | xmltree.FlagAdd)
			dst.AddChild(leaf)
		}
		return
	}
	for _, c := range src.Children {
		if !c.HasFlag(xmltree.FlagMark) {
			continue
		}
		child, present := dst.ChildNamed(c.Name)
		if !present {
			child = xmltree.New(c.Name)
			child.Namespace = c.Namespace
			child.Schema = c.Schema
			child.SetFlag(xmltree.FlagDefault | xmltree.FlagAdd)
			dst.AddChild(child)
		}
		mergeMarked(c, child)
	}
	dst.Sort()
}

func clearMarks(n *xmltree.Node) {
	n.ClearFlag(xmltree.FlagMark)
	for _, c := range n.Children {
		clearMarks(c)
	}
}
