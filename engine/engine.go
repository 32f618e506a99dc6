// Package engine is the external surface of the validation and defaults
// engine: the operations named by the system overview, composed from
// the lower-level bind/unique/minmax/defaults/withdefaults/ncerror
// packages. It has no CLI flags, environment variables, or persisted
// state of its own beyond the in-process defaults cache.
package engine

import (
	"github.com/sirupsen/logrus"

	"github.com/clixon-go/yang-validate/bind"
	"github.com/clixon-go/yang-validate/defaults"
	"github.com/clixon-go/yang-validate/minmax"
	"github.com/clixon-go/yang-validate/ncerror"
	"github.com/clixon-go/yang-validate/unique"
	"github.com/clixon-go/yang-validate/withdefaults"
	"github.com/clixon-go/yang-validate/xmltree"
	"github.com/clixon-go/yang-validate/yangschema"
)

// Engine owns the single long-lived piece of state the design allows: the
// global defaults cache. Everything else is a pure function of its
// arguments, per the single-threaded cooperative concurrency model.
type Engine struct {
	cache *defaults.Cache
	log   *logrus.Entry
}

func New() *Engine {
	return &Engine{
		cache: defaults.NewCache(),
		log:   logrus.WithField("component", "engine"),
	}
}

// BindTree is bind_tree(root, schema).
func (e *Engine) BindTree(root *xmltree.Node, schema yangschema.Node) error {
	return bind.Tree(root, schema)
}

// ValidateMinmax is validate_minmax(parent, presence_recurse).
func (e *Engine) ValidateMinmax(parent *xmltree.Node, presenceRecurse bool) (*ncerror.Failure, error) {
	f, err := minmax.Walk(parent, presenceRecurse)
	e.logFailure("validate_minmax", f, err)
	return f, err
}

// ValidateMinmaxRecursive is validate_minmax_recursive(root).
func (e *Engine) ValidateMinmaxRecursive(root *xmltree.Node) (*ncerror.Failure, error) {
	f, err := minmax.WalkRecursive(root)
	e.logFailure("validate_minmax_recursive", f, err)
	return f, err
}

// ValidateUnique is validate_unique(parent): it locates the contiguous
// list run(s) among parent's direct children and checks each.
func (e *Engine) ValidateUnique(parent *xmltree.Node) (*ncerror.Failure, error) {
	for _, run := range listRuns(parent) {
		f, err := unique.CheckList(run.entries, run.schema)
		if f != nil || err != nil {
			e.logFailure("validate_unique", f, err)
			return f, err
		}
	}
	return nil, nil
}

// ValidateUniqueRecursive is validate_unique_recursive(root).
func (e *Engine) ValidateUniqueRecursive(root *xmltree.Node) (*ncerror.Failure, error) {
	f, err := e.ValidateUnique(root)
	if f != nil || err != nil {
		return f, err
	}
	for _, c := range root.Children {
		f, err := e.ValidateUniqueRecursive(c)
		if f != nil || err != nil {
			return f, err
		}
	}
	return nil, nil
}

// RemoveDuplicatesRecursive is remove_duplicates_recursive(root): the
// one operation permitted to mutate the tree even on what would
// otherwise be a validation failure, applying the keep-last policy
// throughout.
func (e *Engine) RemoveDuplicatesRecursive(root *xmltree.Node) {
	for _, run := range listRuns(root) {
		survivors := unique.RemoveDuplicates(run.entries, run.schema)
		if len(survivors) != len(run.entries) {
			removed := make(map[*xmltree.Node]bool)
			for _, e := range run.entries {
				removed[e] = true
			}
			for _, s := range survivors {
				delete(removed, s)
			}
			for dead := range removed {
				root.RemoveChild(dead)
			}
		}
	}
	for _, c := range root.Children {
		e.RemoveDuplicatesRecursive(c)
	}
}

// FillDefaults is fill_defaults(node, schema, state).
func (e *Engine) FillDefaults(node *xmltree.Node, schema yangschema.Node, state bool) error {
	return defaults.Fill(node, schema, state)
}

// FillDefaultsRecursive is fill_defaults_recursive(xt, state, flag_mask).
func (e *Engine) FillDefaultsRecursive(node *xmltree.Node, state bool, flagMask xmltree.Flag) error {
	if node.Schema == nil {
		return nil
	}
	return defaults.FillRecursive(node, node.Schema, state, flagMask)
}

// MaterialiseGlobalDefaults is materialise_global_defaults(xt, yspec,
// xpath, nsctx, state). The namespace context for the XPath expression
// is carried by the xmltree nodes themselves (LookupNamespace), so it
// is not a separate parameter here.
func (e *Engine) MaterialiseGlobalDefaults(root *xmltree.Node, schema yangschema.Node, xpathExpr string, state bool) error {
	return e.cache.MaterialiseGlobal(root, schema, xpathExpr, state)
}

// InvalidateDefaultsCache drops the cached default trees; call on
// schema reload.
func (e *Engine) InvalidateDefaultsCache() {
	e.cache.Invalidate()
}

// WithDefaultsApply is with_defaults_apply(root, mode).
func (e *Engine) WithDefaultsApply(root *xmltree.Node, mode withdefaults.Mode, state bool) error {
	return withdefaults.Apply(root, mode, state)
}

// PruneNopresence is prune_nopresence(root, mode).
func (e *Engine) PruneNopresence(root *xmltree.Node, mode withdefaults.PruneMode, state bool) {
	withdefaults.PruneNoPresence(root, mode, state)
}

func (e *Engine) logFailure(op string, f *ncerror.Failure, err error) {
	if err != nil {
		e.log.WithField("op", op).WithError(err).Warn("internal fault during validation")
		return
	}
	if f != nil {
		e.log.WithField("op", op).WithField("failure", f.Error()).Debug("validation constraint failed")
	}
}

type listRun struct {
	schema  yangschema.Node
	entries []*xmltree.Node
}

// listRuns groups parent's direct children into contiguous runs bound
// to the same list schema node, per the XML Tree invariant that list
// entries are contiguous among their siblings.
func listRuns(parent *xmltree.Node) []listRun {
	var runs []listRun
	i := 0
	for i < len(parent.Children) {
		c := parent.Children[i]
		if c.Schema == nil || c.Schema.Kind() != yangschema.KindList {
			i++
			continue
		}
		j := i
		var entries []*xmltree.Node
		for j < len(parent.Children) && parent.Children[j].Schema == c.Schema {
			entries = append(entries, parent.Children[j])
			j++
		}
		runs = append(runs, listRun{schema: c.Schema, entries: entries})
		i = j
	}
	return runs
}
