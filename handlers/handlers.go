// Package handlers assembles the fixed-order pipeline of post-processing
// handlers that run after tree superimposition: type-ambiguity detection,
// initializer-block reconciliation, new-element/edited-element
// cross-referencing, duplicate-declaration collapsing, and finally the
// method/constructor renaming-and-deletion handler, which is the only one
// that needs the others to have already settled the tree.
package handlers

import (
	"github.com/alicezbo/jFSTMerge/config"
	"github.com/alicezbo/jFSTMerge/handlers/duplicate"
	"github.com/alicezbo/jFSTMerge/handlers/initblocks"
	"github.com/alicezbo/jFSTMerge/handlers/newref"
	"github.com/alicezbo/jFSTMerge/handlers/renaming"
	"github.com/alicezbo/jFSTMerge/handlers/typeambiguity"
	"github.com/alicezbo/jFSTMerge/mergectx"
)

// Handler is implemented by every post-processing stage; each mutates
// ctx.SuperImposedTree and ctx.Stats in place.
type Handler interface {
	Handle(ctx *mergectx.Context) error
}

// Build returns the handlers enabled by cfg, in the fixed order the pipeline
// always runs them in: an earlier handler's output is always visible to a
// later one, never the reverse.
func Build(cfg config.Configuration) []Handler {
	var hs []Handler
	if cfg.HandleTypeAmbiguityError {
		hs = append(hs, typeambiguity.New())
	}
	if cfg.HandleInitializationBlocks {
		hs = append(hs, initblocks.New(cfg.Tau, cfg.IgnoreWhitespaceChange))
	}
	if cfg.HandleNewElementReferencingEditedOne {
		hs = append(hs, newref.New(cfg.IgnoreWhitespaceChange))
	}
	if cfg.HandleDuplicateDeclarations {
		hs = append(hs, duplicate.New(cfg.IgnoreWhitespaceChange))
	}
	if cfg.HandleMethodAndConstructorRenamingDeletion {
		renamer := renaming.New(cfg.RenamingStrategy, cfg.Tau, cfg.IgnoreWhitespaceChange)
		renamer.StrictestMatch = cfg.StrictestMatch
		hs = append(hs, renamer)
	}
	return hs
}

// Run executes every handler in hs against ctx, stopping at the first error.
func Run(hs []Handler, ctx *mergectx.Context) error {
	for _, h := range hs {
		if err := h.Handle(ctx); err != nil {
			return err
		}
	}
	return nil
}
