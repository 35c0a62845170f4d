// Package superimpose builds the three-way superimposed declaration tree:
// children of matched containers are unioned by identifier, terminals
// matched on all three sides have their bodies textually merged, and
// terminals present in only one contribution (relative to base) are copied
// across and recorded in the Result's added-node sets.
package superimpose

import (
	"github.com/alicezbo/jFSTMerge/similarity"
	"github.com/alicezbo/jFSTMerge/textualmerge"
	"github.com/alicezbo/jFSTMerge/tree"
)

// Result is the output of a three-way superimposition.
type Result struct {
	Tree *tree.Tree
	Root tree.NodeID

	// AddedLeftNodes/AddedRightNodes are NodeIDs *within Tree* for
	// terminals that exist in one contribution but had no base
	// counterpart. The driver does not pass these to the handlers: it
	// fills mergectx.Context's added sets with tree.AddedTerminals over
	// the contribution trees instead.
	AddedLeftNodes  []tree.NodeID
	AddedRightNodes []tree.NodeID

	// TerminalConflicts counts textual-merge and concurrent-addition
	// conflicts raised while building the tree, for the caller to fold
	// into its own diagnostic counters.
	TerminalConflicts int

	// ConflictedNodes holds the specific NodeIDs (within Tree) whose body
	// was set to conflict-marked text by the count above. A later handler
	// that re-merges one of these nodes cleanly (e.g. the renaming
	// handler resolving a double-rename under MERGE) must retract the
	// corresponding entry from the caller's diagnostic count, or the
	// final "has conflicts" state disagrees with the serialized output.
	ConflictedNodes []tree.NodeID
}

type state struct {
	out               *tree.Tree
	addedLeft         []tree.NodeID
	addedRight        []tree.NodeID
	terminalConflicts int
	conflictedNodes   []tree.NodeID
}

// Run builds the superimposed tree for one file-merge.
func Run(left *tree.Tree, leftRoot tree.NodeID, base *tree.Tree, baseRoot tree.NodeID, right *tree.Tree, rightRoot tree.NodeID, ignoreWhitespace bool) (*Result, error) {
	out, outRoot := tree.New()
	st := &state{out: out}

	if err := mergeChildren(st, outRoot, left, leftRoot, base, baseRoot, right, rightRoot, ignoreWhitespace); err != nil {
		return nil, err
	}

	return &Result{
		Tree:              out,
		Root:              outRoot,
		AddedLeftNodes:    st.addedLeft,
		AddedRightNodes:   st.addedRight,
		TerminalConflicts: st.terminalConflicts,
		ConflictedNodes:   st.conflictedNodes,
	}, nil
}

// mergeChildren fills in the children of outParent (already created in
// st.out) by three-way matching the children of leftID/baseID/rightID by
// identifier. Any of the three IDs may be tree.InvalidNodeID, meaning that
// side's container is absent (used both for "contribution lacks this
// container" and for the base-absent case of concurrently added
// containers).
func mergeChildren(st *state, outParent tree.NodeID, left *tree.Tree, leftID tree.NodeID, base *tree.Tree, baseID tree.NodeID, right *tree.Tree, rightID tree.NodeID, ignoreWhitespace bool) error {
	leftIdents := childIdentifiers(left, leftID)
	baseIdents := childIdentifiers(base, baseID)
	rightIdents := childIdentifiers(right, rightID)

	leftByID := childrenByIdentifier(left, leftID)
	baseByID := childrenByIdentifier(base, baseID)
	rightByID := childrenByIdentifier(right, rightID)

	order := computeOrder(baseIdents, leftIdents, rightIdents)

	for _, identifier := range order {
		l, lok := leftByID[identifier]
		b, bok := baseByID[identifier]
		r, rok := rightByID[identifier]

		if !lok {
			l = tree.InvalidNodeID
		}
		if !bok {
			b = tree.InvalidNodeID
		}
		if !rok {
			r = tree.InvalidNodeID
		}

		if err := mergeOne(st, outParent, identifier, left, l, base, b, right, r, ignoreWhitespace); err != nil {
			return err
		}
	}
	return nil
}

func mergeOne(st *state, outParent tree.NodeID, identifier string, left *tree.Tree, l tree.NodeID, base *tree.Tree, b tree.NodeID, right *tree.Tree, r tree.NodeID, ignoreWhitespace bool) error {
	src, srcID := pickPresent(left, l, base, b, right, r)
	if src == nil {
		return nil // all three absent; nothing to do
	}

	if src.IsContainer(srcID) {
		child := st.out.AddContainer(outParent, src.ContainerKind(srcID), identifier)
		return mergeChildren(st, child, left, l, base, b, right, r, ignoreWhitespace)
	}

	switch {
	case b != tree.InvalidNodeID && l != tree.InvalidNodeID && r != tree.InvalidNodeID:
		// Matched on all three: re-merge the body textually.
		merged, hasConflicts, err := textualmerge.Merge(left.Body(l), base.Body(b), right.Body(r), ignoreWhitespace)
		if err != nil {
			return err
		}
		newID := cloneTerminalWithBody(st.out, outParent, base, b, merged)
		if hasConflicts {
			st.terminalConflicts++
			st.conflictedNodes = append(st.conflictedNodes, newID)
		}

	case b != tree.InvalidNodeID && l != tree.InvalidNodeID && r == tree.InvalidNodeID:
		// Right deleted it: keep left's version verbatim.
		st.out.CloneNodeInto(left, l, outParent)

	case b != tree.InvalidNodeID && l == tree.InvalidNodeID && r != tree.InvalidNodeID:
		// Left deleted it: keep right's version verbatim.
		st.out.CloneNodeInto(right, r, outParent)

	case b != tree.InvalidNodeID && l == tree.InvalidNodeID && r == tree.InvalidNodeID:
		// Both deleted it: drop.

	case b == tree.InvalidNodeID && l != tree.InvalidNodeID && r != tree.InvalidNodeID:
		// Added concurrently on both sides with the same identifier.
		if similarity.HaveEqualBody(left, l, right, r, ignoreWhitespace) {
			st.out.CloneNodeInto(left, l, outParent)
			break
		}
		merged, hasConflicts, err := textualmerge.Merge(left.Body(l), "", right.Body(r), ignoreWhitespace)
		if err != nil {
			return err
		}
		newID := cloneTerminalWithBody(st.out, outParent, left, l, merged)
		if hasConflicts {
			st.terminalConflicts++
			st.conflictedNodes = append(st.conflictedNodes, newID)
		}

	case b == tree.InvalidNodeID && l != tree.InvalidNodeID && r == tree.InvalidNodeID:
		// Added by left only.
		newID := st.out.CloneNodeInto(left, l, outParent)
		st.addedLeft = append(st.addedLeft, newID)

	case b == tree.InvalidNodeID && l == tree.InvalidNodeID && r != tree.InvalidNodeID:
		// Added by right only.
		newID := st.out.CloneNodeInto(right, r, outParent)
		st.addedRight = append(st.addedRight, newID)
	}

	return nil
}

func cloneTerminalWithBody(out *tree.Tree, parent tree.NodeID, src *tree.Tree, srcID tree.NodeID, body string) tree.NodeID {
	id := out.AddTerminal(parent, src.TerminalKind(srcID), src.Identifier(srcID), src.Name(srcID), src.Signature(srcID), body)
	return id
}

func pickPresent(left *tree.Tree, l tree.NodeID, base *tree.Tree, b tree.NodeID, right *tree.Tree, r tree.NodeID) (*tree.Tree, tree.NodeID) {
	if b != tree.InvalidNodeID {
		return base, b
	}
	if l != tree.InvalidNodeID {
		return left, l
	}
	if r != tree.InvalidNodeID {
		return right, r
	}
	return nil, tree.InvalidNodeID
}

func childIdentifiers(t *tree.Tree, id tree.NodeID) []string {
	if t == nil || id == tree.InvalidNodeID {
		return nil
	}
	children := t.Children(id)
	out := make([]string, len(children))
	for i, c := range children {
		out[i] = t.Identifier(c)
	}
	return out
}

func childrenByIdentifier(t *tree.Tree, id tree.NodeID) map[string]tree.NodeID {
	out := make(map[string]tree.NodeID)
	if t == nil || id == tree.InvalidNodeID {
		return out
	}
	for _, c := range t.Children(id) {
		out[t.Identifier(c)] = c
	}
	return out
}

// computeOrder produces the final child identifier order: base order first,
// then any identifier added on left or right is inserted immediately after
// the nearest identifier from that contribution's own order that already
// appears in the result (right processed before left, so left's insertion at
// a shared anchor lands in front of right's: a tie between two
// freshly-added identifiers with the same anchor resolves left-before-right).
func computeOrder(baseIdents, leftIdents, rightIdents []string) []string {
	order := append([]string{}, baseIdents...)
	placed := make(map[string]bool, len(order))
	for _, id := range order {
		placed[id] = true
	}

	insertFrom := func(contribution []string) {
		lastPlaced := -1
		for _, id := range contribution {
			if placed[id] {
				lastPlaced = indexOf(order, id)
				continue
			}
			insertAt := lastPlaced + 1
			order = insertAt1(order, insertAt, id)
			placed[id] = true
			lastPlaced = insertAt
		}
	}

	insertFrom(rightIdents)
	insertFrom(leftIdents)
	return order
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

func insertAt1(s []string, at int, v string) []string {
	s = append(s, "")
	copy(s[at+1:], s[at:])
	s[at] = v
	return s
}
