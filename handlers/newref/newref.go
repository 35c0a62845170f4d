// Package newref implements the new-element-referencing-edited-one handler:
// when a terminal added on one side textually references a terminal the
// opposite side edited, the added terminal is annotated with a note naming
// the reference, since the two changes may depend on each other in ways
// structural merge alone can't see. The annotation never blocks the merge.
package newref

import (
	"fmt"
	"regexp"

	"github.com/alicezbo/jFSTMerge/mergectx"
	"github.com/alicezbo/jFSTMerge/tree"
)

// Handler annotates additions that reference a concurrently edited element.
type Handler struct {
	IgnoreWhitespace bool
}

// New builds a new-element-referencing-edited-one handler.
func New(ignoreWhitespace bool) *Handler { return &Handler{IgnoreWhitespace: ignoreWhitespace} }

// Handle checks every side's additions against the other side's edits.
func (h *Handler) Handle(ctx *mergectx.Context) error {
	rightEdited := editedNames(ctx.BaseTree, ctx.BaseRoot, ctx.RightTree, ctx.RightRoot)
	h.annotate(ctx, ctx.LeftTree, ctx.AddedLeftNodes, rightEdited)

	leftEdited := editedNames(ctx.BaseTree, ctx.BaseRoot, ctx.LeftTree, ctx.LeftRoot)
	h.annotate(ctx, ctx.RightTree, ctx.AddedRightNodes, leftEdited)
	return nil
}

// editedNames returns the declared names of every base terminal whose body
// differs in contrib (same identifier, different text).
func editedNames(base *tree.Tree, baseRoot tree.NodeID, contrib *tree.Tree, contribRoot tree.NodeID) []string {
	var out []string
	for _, n := range tree.CollectTerminals(base, baseRoot) {
		match, ok := tree.RetrieveCorrespondent(contrib, base.Identifier(n), contribRoot)
		if !ok {
			continue
		}
		if base.Body(n) != contrib.Body(match) {
			out = append(out, base.Name(n))
		}
	}
	return out
}

func (h *Handler) annotate(ctx *mergectx.Context, contrib *tree.Tree, added []tree.NodeID, editedNames []string) {
	for _, a := range added {
		if contrib.IsContainer(a) {
			continue
		}
		body := contrib.Body(a)
		for _, name := range editedNames {
			if name == "" || !references(body, name) {
				continue
			}
			superNode, ok := tree.RetrieveCorrespondent(ctx.SuperImposedTree, contrib.Identifier(a), ctx.SuperImposedRoot)
			if !ok {
				continue
			}
			annotated := ctx.SuperImposedTree.Body(superNode) + fmt.Sprintf("\n// references concurrently edited %s", name)
			ctx.SuperImposedTree.SetBody(superNode, annotated)
		}
	}
}

func references(body, name string) bool {
	pattern := `\b` + regexp.QuoteMeta(name) + `\b`
	matched, err := regexp.MatchString(pattern, body)
	return err == nil && matched
}
