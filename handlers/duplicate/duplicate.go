// Package duplicate implements the duplicate-declarations handler: it
// detects terminals with the same signature sitting at more than one
// structural position in the superimposed tree (the common result of both
// sides independently adding "the same" method in different places) and
// collapses them to one.
package duplicate

import (
	"strings"

	"github.com/alicezbo/jFSTMerge/mergectx"
	"github.com/alicezbo/jFSTMerge/tree"
)

// Handler collapses duplicate terminal declarations that share a signature.
type Handler struct {
	IgnoreWhitespace bool
}

// New builds a duplicate-declarations handler.
func New(ignoreWhitespace bool) *Handler { return &Handler{IgnoreWhitespace: ignoreWhitespace} }

// Handle walks the superimposed tree once, grouping terminals by
// (parent container, signature) and collapsing every group with more than
// one member. Scoping by parent matters: two classes in the same file are
// free to each declare a same-signature constructor() or toString() without
// that being a duplicate declaration of anything.
func (h *Handler) Handle(ctx *mergectx.Context) error {
	type key struct {
		parent tree.NodeID
		sig    string
	}
	bySignature := map[key][]tree.NodeID{}
	for _, id := range tree.CollectTerminals(ctx.SuperImposedTree, ctx.SuperImposedRoot) {
		sig := ctx.SuperImposedTree.Signature(id)
		if sig == "" {
			continue
		}
		k := key{parent: ctx.SuperImposedTree.Parent(id), sig: sig}
		bySignature[k] = append(bySignature[k], id)
	}

	for _, group := range bySignature {
		if len(group) < 2 {
			continue
		}
		h.collapse(ctx, group)
	}
	return nil
}

func (h *Handler) collapse(ctx *mergectx.Context, group []tree.NodeID) {
	t := ctx.SuperImposedTree
	keep := group[0]
	keepBody := t.Body(keep)
	allEqual := true
	for _, dup := range group[1:] {
		if h.normalize(t.Body(dup)) != h.normalize(keepBody) {
			allEqual = false
		}
	}

	if !allEqual {
		var b strings.Builder
		b.WriteString("<<<<<<< MINE\n")
		b.WriteString(keepBody)
		for _, dup := range group[1:] {
			b.WriteString("\n=======\n")
			b.WriteString(t.Body(dup))
		}
		b.WriteString("\n>>>>>>> YOURS")
		t.SetBody(keep, b.String())
		ctx.RecordConflict(mergectx.DuplicateDeclarationConflict)
	}

	for _, dup := range group[1:] {
		removeChild(t, t.Parent(dup), dup)
	}
}

func (h *Handler) normalize(s string) string {
	if !h.IgnoreWhitespace {
		return s
	}
	return strings.Join(strings.Fields(s), " ")
}

func removeChild(t *tree.Tree, parent, child tree.NodeID) {
	if parent == tree.InvalidNodeID {
		return
	}
	children := t.Children(parent)
	out := make([]tree.NodeID, 0, len(children))
	for _, c := range children {
		if c != child {
			out = append(out, c)
		}
	}
	t.SetChildren(parent, out)
}
