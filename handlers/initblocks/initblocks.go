// Package initblocks implements the initialization-blocks handler: unlike
// methods and fields, static/instance initializer blocks carry no
// identifier, so superimposition cannot match them by name. This handler
// matches them by body similarity instead, textually merging any pair that
// clears the threshold and leaving the rest as independent additions in
// declared order.
package initblocks

import (
	"github.com/alicezbo/jFSTMerge/mergectx"
	"github.com/alicezbo/jFSTMerge/similarity"
	"github.com/alicezbo/jFSTMerge/textualmerge"
	"github.com/alicezbo/jFSTMerge/tree"
)

// Handler merges similar-enough initializer blocks within each container.
type Handler struct {
	Tau              float64
	IgnoreWhitespace bool
}

// New builds an initialization-blocks handler.
func New(tau float64, ignoreWhitespace bool) *Handler {
	return &Handler{Tau: tau, IgnoreWhitespace: ignoreWhitespace}
}

// Handle visits every container and merges pairs of InitializerBlock
// terminals whose bodies are at least Tau-similar.
func (h *Handler) Handle(ctx *mergectx.Context) error {
	for _, c := range tree.CollectContainers(ctx.SuperImposedTree, ctx.SuperImposedRoot) {
		if err := h.mergeBlocksIn(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) mergeBlocksIn(ctx *mergectx.Context, container tree.NodeID) error {
	t := ctx.SuperImposedTree
	var blocks []tree.NodeID
	for _, child := range t.Children(container) {
		if !t.IsContainer(child) && t.TerminalKind(child) == tree.InitializerBlock {
			blocks = append(blocks, child)
		}
	}

	consumed := map[tree.NodeID]bool{}
	for i := 0; i < len(blocks); i++ {
		if consumed[blocks[i]] {
			continue
		}
		for j := i + 1; j < len(blocks); j++ {
			if consumed[blocks[j]] {
				continue
			}
			if !similarity.HaveSimilarBody(t, blocks[i], t, blocks[j], h.Tau) {
				continue
			}
			merged, hasConflict, err := textualmerge.Merge(t.Body(blocks[i]), "", t.Body(blocks[j]), h.IgnoreWhitespace)
			if err != nil {
				return err
			}
			t.SetBody(blocks[i], merged)
			if hasConflict {
				ctx.RecordConflict(mergectx.InitializationBlockConflict)
			}
			consumed[blocks[j]] = true
			break
		}
	}

	if len(consumed) == 0 {
		return nil
	}
	kept := make([]tree.NodeID, 0, len(t.Children(container)))
	for _, child := range t.Children(container) {
		if consumed[child] {
			continue
		}
		kept = append(kept, child)
	}
	t.SetChildren(container, kept)
	return nil
}
