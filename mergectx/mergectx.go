// Package mergectx holds the per-file-merge working state threaded through
// the pipeline: the three input trees, the superimposed tree, the added-node
// sets superimposition produces, the classification buckets the renaming
// handler fills in, and diagnostic counters. A Context is built once per
// file-merge and owned exclusively by that merge's pipeline run.
package mergectx

import "github.com/alicezbo/jFSTMerge/tree"

// Side identifies which contribution a node or classification belongs to.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// SidedNode pairs a NodeID with the contribution side it was found on.
type SidedNode struct {
	Side Side
	Node tree.NodeID
}

// ConflictKind enumerates the kinds of conflicts tallied in Context.Stats.
type ConflictKind int

const (
	TextualConflict ConflictKind = iota
	RenameSafeConflict
	RenameDoubleConflict
	TypeAmbiguityConflict
	DuplicateDeclarationConflict
	InitializationBlockConflict
)

func (k ConflictKind) String() string {
	switch k {
	case TextualConflict:
		return "textual"
	case RenameSafeConflict:
		return "rename-safe"
	case RenameDoubleConflict:
		return "rename-double"
	case TypeAmbiguityConflict:
		return "type-ambiguity"
	case DuplicateDeclarationConflict:
		return "duplicate-declaration"
	case InitializationBlockConflict:
		return "initialization-block"
	default:
		return "unknown"
	}
}

// Context is the per-merge working state shared by the driver and every
// handler. It is constructed once per file-merge and lives for the
// pipeline's duration; handlers mutate SuperImposedTree and the
// classification buckets/Stats in place as they run in sequence.
type Context struct {
	Path string

	LeftTree  *tree.Tree
	LeftRoot  tree.NodeID
	BaseTree  *tree.Tree
	BaseRoot  tree.NodeID
	RightTree *tree.Tree
	RightRoot tree.NodeID

	SuperImposedTree *tree.Tree
	SuperImposedRoot tree.NodeID

	// AddedLeftNodes/AddedRightNodes are ordered sets of terminals present
	// in a contribution but absent from base (by identifier). They are
	// NodeIDs within LeftTree/RightTree respectively, computed by the
	// driver with tree.AddedTerminals.
	AddedLeftNodes  []tree.NodeID
	AddedRightNodes []tree.NodeID

	// RenamedWithoutBodyChanges and DeletedOrRenamedWithBodyChanges are the
	// classification buckets filled in by the renaming/deletion handler's
	// identification phase (see handlers/renaming).
	RenamedWithoutBodyChanges       []SidedNode
	DeletedOrRenamedWithBodyChanges []SidedNode

	// UnstructuredOutput is the whole-file line-merge result, computed by
	// the driver before any handler runs and consulted by the
	// UNSTRUCTURED_MERGE renaming strategy.
	UnstructuredOutput string
	UnstructuredHasConflicts bool

	Stats map[ConflictKind]int

	// ConflictedTerminals tracks, by NodeID within SuperImposedTree, which
	// terminals currently carry a textual conflict recorded via
	// MarkTerminalConflict. A handler that re-merges one of those nodes
	// cleanly calls ResolveTerminalConflict to retract the count, keeping
	// Stats consistent with whatever conflict markers actually survive in
	// the node's body.
	ConflictedTerminals map[tree.NodeID]bool

	// Output is the final serialized merge result, set by the driver once
	// the pipeline (or one of its fallbacks) has produced one.
	Output []byte
}

// New constructs an empty Context wired to the three parsed input trees.
func New(path string, leftTree *tree.Tree, leftRoot tree.NodeID, baseTree *tree.Tree, baseRoot tree.NodeID, rightTree *tree.Tree, rightRoot tree.NodeID) *Context {
	return &Context{
		Path:                path,
		LeftTree:            leftTree,
		LeftRoot:            leftRoot,
		BaseTree:            baseTree,
		BaseRoot:            baseRoot,
		RightTree:           rightTree,
		RightRoot:           rightRoot,
		Stats:               make(map[ConflictKind]int),
		ConflictedTerminals: make(map[tree.NodeID]bool),
	}
}

// RecordConflict increments the diagnostic counter for kind.
func (c *Context) RecordConflict(kind ConflictKind) {
	c.Stats[kind]++
}

// MarkTerminalConflict records that id (a NodeID in SuperImposedTree)
// currently holds conflict-marked text produced outside the handler chain
// (tree superimposition's own textual re-merge), incrementing the
// TextualConflict counter alongside it.
func (c *Context) MarkTerminalConflict(id tree.NodeID) {
	if c.ConflictedTerminals == nil {
		c.ConflictedTerminals = make(map[tree.NodeID]bool)
	}
	c.ConflictedTerminals[id] = true
	c.RecordConflict(TextualConflict)
}

// ResolveTerminalConflict retracts a conflict previously recorded by
// MarkTerminalConflict for id, decrementing TextualConflict back down. A
// no-op if id was never marked (or was already resolved), so callers can
// call it unconditionally before installing a node's final content.
func (c *Context) ResolveTerminalConflict(id tree.NodeID) {
	if !c.ConflictedTerminals[id] {
		return
	}
	delete(c.ConflictedTerminals, id)
	if c.Stats[TextualConflict] > 0 {
		c.Stats[TextualConflict]--
	}
}

// HasConflicts reports whether any handler or the textual fallback recorded
// a conflict of any kind.
func (c *Context) HasConflicts() bool {
	for _, n := range c.Stats {
		if n > 0 {
			return true
		}
	}
	return false
}
