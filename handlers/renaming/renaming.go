// Package renaming implements the method/constructor renaming and deletion
// handler: the one component of the pipeline that recovers cases
// identifier-based superimposition gets wrong — a method renamed on one
// side while the other side edited (or itself renamed, or deleted) the
// original.
package renaming

import (
	"strings"

	"github.com/alicezbo/jFSTMerge/config"
	"github.com/alicezbo/jFSTMerge/mergectx"
	"github.com/alicezbo/jFSTMerge/similarity"
	"github.com/alicezbo/jFSTMerge/textualmerge"
	"github.com/alicezbo/jFSTMerge/tree"
)

// Handler implements the three-phase identification/matching/decision
// algorithm described by the renaming strategy it is built with.
type Handler struct {
	Strategy         config.RenamingStrategy
	Tau              float64
	IgnoreWhitespace bool

	// StrictestMatch selects ArgmaxMatch (highest-scoring candidate) over
	// the default first-in-traversal-order mostAccurate match. See
	// config.Configuration.StrictestMatch.
	StrictestMatch bool
}

// New builds a renaming/deletion handler for the given strategy.
func New(strategy config.RenamingStrategy, tau float64, ignoreWhitespace bool) *Handler {
	return &Handler{Strategy: strategy, Tau: tau, IgnoreWhitespace: ignoreWhitespace}
}

// scenario is the per-base-node match tuple (leftMatch, n, rightMatch,
// mergeMatch) from the source's matching phase.
type scenario struct {
	base       tree.NodeID
	leftMatch  tree.NodeID // in ctx.LeftTree, InvalidNodeID if absent
	rightMatch tree.NodeID // in ctx.RightTree, InvalidNodeID if absent
	mergeMatch tree.NodeID // in ctx.SuperImposedTree
}

// Handle runs the full identification -> matching -> decision pipeline over
// ctx's base tree.
func (h *Handler) Handle(ctx *mergectx.Context) error {
	h.identify(ctx)

	scenarios := h.retrieveScenarios(ctx)
	for _, sc := range scenarios {
		if err := h.resolve(ctx, sc); err != nil {
			return err
		}
	}
	return nil
}

// identify fills ctx.RenamedWithoutBodyChanges and
// ctx.DeletedOrRenamedWithBodyChanges: for every base method/constructor
// absent (by identifier) from a contribution, it is bucketed by whether
// that contribution's added-node set contains an equal-body match.
func (h *Handler) identify(ctx *mergectx.Context) {
	for _, n := range tree.CollectTerminals(ctx.BaseTree, ctx.BaseRoot) {
		if !ctx.BaseTree.IsMethodOrConstructor(n) {
			continue
		}
		h.identifySide(ctx, n, mergectx.Left, ctx.LeftTree, ctx.LeftRoot, ctx.AddedLeftNodes)
		h.identifySide(ctx, n, mergectx.Right, ctx.RightTree, ctx.RightRoot, ctx.AddedRightNodes)
	}
}

func (h *Handler) identifySide(ctx *mergectx.Context, n tree.NodeID, side mergectx.Side, contrib *tree.Tree, contribRoot tree.NodeID, added []tree.NodeID) {
	if tree.IsInTree(contrib, ctx.BaseTree.Identifier(n), contribRoot) {
		return
	}
	if h.hasEqualBodyMatch(ctx.BaseTree, n, contrib, added) {
		ctx.RenamedWithoutBodyChanges = append(ctx.RenamedWithoutBodyChanges, mergectx.SidedNode{Side: side, Node: n})
		return
	}
	ctx.DeletedOrRenamedWithBodyChanges = append(ctx.DeletedOrRenamedWithBodyChanges, mergectx.SidedNode{Side: side, Node: n})
}

func (h *Handler) hasEqualBodyMatch(base *tree.Tree, n tree.NodeID, contrib *tree.Tree, added []tree.NodeID) bool {
	for _, a := range added {
		if contrib.IsContainer(a) {
			continue
		}
		if similarity.HaveEqualBody(base, n, contrib, a, h.IgnoreWhitespace) {
			return true
		}
	}
	return false
}

// retrieveScenarios builds one scenario tuple per base node flagged on at
// least one side (the union of both identification buckets), discarding
// tuples where neither contribution offers any match, and de-duplicating
// tuples reached via more than one base node.
func (h *Handler) retrieveScenarios(ctx *mergectx.Context) []scenario {
	flagged := map[tree.NodeID]bool{}
	for _, sn := range ctx.RenamedWithoutBodyChanges {
		flagged[sn.Node] = true
	}
	for _, sn := range ctx.DeletedOrRenamedWithBodyChanges {
		flagged[sn.Node] = true
	}

	seen := map[[3]tree.NodeID]bool{}
	var out []scenario
	for _, n := range tree.CollectTerminals(ctx.BaseTree, ctx.BaseRoot) {
		if !flagged[n] {
			continue
		}
		leftMatch := mostAccurate(ctx.BaseTree, n, ctx.LeftTree, ctx.LeftRoot, h.Tau, h.IgnoreWhitespace, h.StrictestMatch)
		rightMatch := mostAccurate(ctx.BaseTree, n, ctx.RightTree, ctx.RightRoot, h.Tau, h.IgnoreWhitespace, h.StrictestMatch)
		if leftMatch == tree.InvalidNodeID && rightMatch == tree.InvalidNodeID {
			continue
		}

		var mergeMatch tree.NodeID
		if leftMatch != tree.InvalidNodeID {
			mergeMatch, _ = tree.RetrieveCorrespondent(ctx.SuperImposedTree, ctx.LeftTree.Identifier(leftMatch), ctx.SuperImposedRoot)
		} else {
			mergeMatch, _ = tree.RetrieveCorrespondent(ctx.SuperImposedTree, ctx.RightTree.Identifier(rightMatch), ctx.SuperImposedRoot)
		}
		if mergeMatch == tree.InvalidNodeID {
			continue
		}

		key := [3]tree.NodeID{leftMatch, n, rightMatch}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, scenario{base: n, leftMatch: leftMatch, rightMatch: rightMatch, mergeMatch: mergeMatch})
	}
	return out
}

// mostAccurate returns the method/constructor in contrib that is "very
// similar" to base's node n: by default the first such candidate in
// contrib's declared order (bit-compatible with the source material), or,
// when argmax is set (config.Configuration.StrictestMatch), the
// highest-scoring candidate instead.
func mostAccurate(base *tree.Tree, n tree.NodeID, contrib *tree.Tree, contribRoot tree.NodeID, tau float64, ignoreWhitespace, argmax bool) tree.NodeID {
	if argmax {
		return mostAccurateArgmax(base, n, contrib, contribRoot, tau, ignoreWhitespace)
	}
	for _, cand := range tree.CollectTerminals(contrib, contribRoot) {
		if !contrib.IsMethodOrConstructor(cand) {
			continue
		}
		if verySimilar(base, n, contrib, cand, tau, ignoreWhitespace) {
			return cand
		}
	}
	return tree.InvalidNodeID
}

// mostAccurateArgmax scans every candidate that clears the "very similar"
// bar and returns the one with the highest match score, breaking ties by
// traversal order (the first-seen candidate wins a tie).
func mostAccurateArgmax(base *tree.Tree, n tree.NodeID, contrib *tree.Tree, contribRoot tree.NodeID, tau float64, ignoreWhitespace bool) tree.NodeID {
	best := tree.InvalidNodeID
	bestScore := -1.0
	for _, cand := range tree.CollectTerminals(contrib, contribRoot) {
		if !contrib.IsMethodOrConstructor(cand) {
			continue
		}
		if !verySimilar(base, n, contrib, cand, tau, ignoreWhitespace) {
			continue
		}
		if score := matchScore(base, n, contrib, cand, ignoreWhitespace); score > bestScore {
			bestScore = score
			best = cand
		}
	}
	return best
}

// matchScore scores a candidate already known to be "very similar": an
// exact signature or body match scores maximally, everything else scores by
// its normalized body-similarity ratio.
func matchScore(base *tree.Tree, n tree.NodeID, contrib *tree.Tree, cand tree.NodeID, ignoreWhitespace bool) float64 {
	if similarity.HaveEqualSignature(base, n, contrib, cand) || similarity.HaveEqualBody(base, n, contrib, cand, ignoreWhitespace) {
		return 1.0
	}
	return similarity.SimilarityRatio(base, n, contrib, cand)
}

func verySimilar(ta *tree.Tree, a tree.NodeID, tb *tree.Tree, b tree.NodeID, tau float64, ignoreWhitespace bool) bool {
	if similarity.HaveEqualSignature(ta, a, tb, b) {
		return true
	}
	if similarity.HaveEqualBody(ta, a, tb, b, ignoreWhitespace) {
		return true
	}
	if similarity.HaveSimilarBody(ta, a, tb, b, tau) && similarity.HaveEqualSignatureButName(ta, a, tb, b) {
		return true
	}
	return similarity.OneContainsTheBodyFromTheOther(ta, a, tb, b)
}

// sideState classifies what a contribution did to the base node, as seen
// through its mostAccurate match.
type sideState int

const (
	stateAbsent sideState = iota // no match at all: deleted, nothing similar survives
	stateSame                     // match keeps the base identifier and body
	stateEdited                    // match keeps the base identifier, body differs
	stateRenamed                   // match uses a different identifier
)

func classify(base *tree.Tree, n tree.NodeID, contrib *tree.Tree, match tree.NodeID, ignoreWhitespace bool) sideState {
	if match == tree.InvalidNodeID {
		return stateAbsent
	}
	if contrib.Identifier(match) != base.Identifier(n) {
		return stateRenamed
	}
	if similarity.HaveEqualBody(base, n, contrib, match, ignoreWhitespace) {
		return stateSame
	}
	return stateEdited
}

// resolve dispatches a scenario tuple to the action its classification and
// the configured strategy call for.
func (h *Handler) resolve(ctx *mergectx.Context, sc scenario) error {
	// sc.mergeMatch may already carry a textual conflict tree
	// superimposition raised while matching it as a concurrent addition
	// (e.g. a double rename to the same new name, with diverging bodies,
	// looks to superimposition like two unrelated additions that collide).
	// This handler's own classification below is authoritative for that
	// node from here on, so retract the stale count before deciding:
	// whichever branch runs next re-adds it only if its own result still
	// contains a conflict.
	ctx.ResolveTerminalConflict(sc.mergeMatch)

	leftState := classify(ctx.BaseTree, sc.base, ctx.LeftTree, sc.leftMatch, h.IgnoreWhitespace)
	rightState := classify(ctx.BaseTree, sc.base, ctx.RightTree, sc.rightMatch, h.IgnoreWhitespace)

	if leftState == stateSame && rightState == stateSame {
		return nil
	}

	benign, benignSide := benignRename(leftState, rightState)
	if benign {
		return h.applyBenignRename(ctx, sc, benignSide)
	}

	double := leftState == stateRenamed && rightState == stateRenamed ||
		(leftState == stateRenamed || rightState == stateRenamed) && (leftState == stateAbsent || rightState == stateAbsent)
	kind := mergectx.RenameSafeConflict
	if double {
		kind = mergectx.RenameDoubleConflict
	}

	return h.applyStrategy(ctx, sc, leftState, rightState, kind)
}

// benignRename reports whether exactly one side renamed while the other
// left the base node entirely untouched.
func benignRename(leftState, rightState sideState) (bool, mergectx.Side) {
	if leftState == stateRenamed && rightState == stateSame {
		return true, mergectx.Left
	}
	if rightState == stateRenamed && leftState == stateSame {
		return true, mergectx.Right
	}
	return false, mergectx.Left
}

// applyBenignRename removes the stale pre-rename node left behind by
// superimposition's base+unchanged-side match, keeping only the renamed
// version that is already present in the superimposed tree as sc.mergeMatch.
func (h *Handler) applyBenignRename(ctx *mergectx.Context, sc scenario, _ mergectx.Side) error {
	stale, ok := tree.RetrieveCorrespondent(ctx.SuperImposedTree, ctx.BaseTree.Identifier(sc.base), ctx.SuperImposedRoot)
	if !ok || stale == sc.mergeMatch {
		return nil
	}
	removeChild(ctx.SuperImposedTree, ctx.SuperImposedTree.Parent(stale), stale)
	return nil
}

// removeStaleCorrespondents drops every superimposed-tree node still sitting
// under the base, left-match, or right-match identifier other than the one
// the scenario settles on (sc.mergeMatch): the duplicate copies
// superimposition leaves behind when a rename on one side looks, from its
// perspective, like an unrelated addition (the new name) paired with a
// deletion (the old name kept verbatim from whichever side didn't rename).
// Every apply* strategy must call this once it has decided on mergeMatch's
// final content, or the stale copy survives into the output unmarked.
func removeStaleCorrespondents(ctx *mergectx.Context, sc scenario) {
	identifiers := []string{ctx.BaseTree.Identifier(sc.base)}
	if sc.leftMatch != tree.InvalidNodeID {
		identifiers = append(identifiers, ctx.LeftTree.Identifier(sc.leftMatch))
	}
	if sc.rightMatch != tree.InvalidNodeID {
		identifiers = append(identifiers, ctx.RightTree.Identifier(sc.rightMatch))
	}

	seen := map[string]bool{}
	for _, id := range identifiers {
		if seen[id] {
			continue
		}
		seen[id] = true
		if stale, ok := tree.RetrieveCorrespondent(ctx.SuperImposedTree, id, ctx.SuperImposedRoot); ok && stale != sc.mergeMatch {
			removeChild(ctx.SuperImposedTree, ctx.SuperImposedTree.Parent(stale), stale)
		}
	}
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

func (h *Handler) applyStrategy(ctx *mergectx.Context, sc scenario, leftState, rightState sideState, kind mergectx.ConflictKind) error {
	switch h.Strategy {
	case config.KeepBothStrategy:
		// Both versions already coexist as siblings by construction of
		// superimposition (the edited-in-place node under the old
		// identifier, the renamed node under the new one); nothing to do
		// beyond re-counting a superimposition conflict that resolve
		// retracted but that still sits in mergeMatch's body.
		if strings.Contains(ctx.SuperImposedTree.Body(sc.mergeMatch), "<<<<<<< MINE") {
			ctx.MarkTerminalConflict(sc.mergeMatch)
		}
		return nil

	case config.MergeStrategy:
		return h.applyMerge(ctx, sc, leftState, rightState, kind)

	case config.UnstructuredMergeStrategy:
		return h.applyUnstructured(ctx, sc, kind)

	default: // SafeStrategy and unrecognized values fall back to SAFE
		return h.applySafe(ctx, sc, kind)
	}
}

func (h *Handler) applySafe(ctx *mergectx.Context, sc scenario, kind mergectx.ConflictKind) error {
	var left, right *string
	if sc.leftMatch != tree.InvalidNodeID {
		b := ctx.LeftTree.Body(sc.leftMatch)
		left = &b
	}
	if sc.rightMatch != tree.InvalidNodeID {
		b := ctx.RightTree.Body(sc.rightMatch)
		right = &b
	}
	base := ctx.BaseTree.Body(sc.base)

	block := buildConflictBlock(left, base, right)
	ctx.SuperImposedTree.SetBody(sc.mergeMatch, block)
	ctx.RecordConflict(kind)
	removeStaleCorrespondents(ctx, sc)
	return nil
}

func buildConflictBlock(left *string, base string, right *string) string {
	var b strings.Builder
	if left != nil {
		b.WriteString("<<<<<<< MINE\n")
		b.WriteString(*left)
		b.WriteString("\n")
	}
	b.WriteString("||||||| BASE\n")
	b.WriteString(base)
	b.WriteString("\n=======\n")
	if right != nil {
		b.WriteString(*right)
		b.WriteString("\n")
	}
	b.WriteString(">>>>>>> YOURS")
	return b.String()
}

func (h *Handler) applyMerge(ctx *mergectx.Context, sc scenario, leftState, rightState sideState, kind mergectx.ConflictKind) error {
	if leftState == stateRenamed && rightState == stateRenamed {
		if ctx.LeftTree.Identifier(sc.leftMatch) != ctx.RightTree.Identifier(sc.rightMatch) {
			// Renamed to different names: strategy falls back to SAFE.
			return h.applySafe(ctx, sc, kind)
		}
	}

	leftBody := ""
	if sc.leftMatch != tree.InvalidNodeID {
		leftBody = ctx.LeftTree.Body(sc.leftMatch)
	}
	rightBody := ""
	if sc.rightMatch != tree.InvalidNodeID {
		rightBody = ctx.RightTree.Body(sc.rightMatch)
	}
	baseBody := ctx.BaseTree.Body(sc.base)

	// sc.mergeMatch follows the left match, which is the pre-rename node
	// when only right renamed: install the result on right's renamed node.
	if rightState == stateRenamed && leftState != stateRenamed {
		if renamed, ok := tree.RetrieveCorrespondent(ctx.SuperImposedTree, ctx.RightTree.Identifier(sc.rightMatch), ctx.SuperImposedRoot); ok {
			sc.mergeMatch = renamed
		}
	}

	merged, hasConflict, err := textualmerge.Merge(leftBody, baseBody, rightBody, h.IgnoreWhitespace)
	if err != nil {
		return err
	}
	ctx.SuperImposedTree.SetBody(sc.mergeMatch, merged)
	if hasConflict {
		ctx.RecordConflict(kind)
	}

	// Consolidate onto the single surviving (renamed) node: drop every
	// stale pre-rename/duplicate copy left under the base, left-match, or
	// right-match identifier.
	removeStaleCorrespondents(ctx, sc)
	return nil
}

// applyUnstructured replaces mergeMatch's body with the hunk of
// ctx.UnstructuredOutput bracketing the base node's name, falling back to
// SAFE if the name can't be located in the unstructured text at all.
func (h *Handler) applyUnstructured(ctx *mergectx.Context, sc scenario, kind mergectx.ConflictKind) error {
	name := ctx.BaseTree.Name(sc.base)
	hunk, ok := locateHunk(ctx.UnstructuredOutput, name)
	if !ok {
		return h.applySafe(ctx, sc, kind)
	}
	ctx.SuperImposedTree.SetBody(sc.mergeMatch, hunk)
	ctx.RecordConflict(kind)
	removeStaleCorrespondents(ctx, sc)
	return nil
}

// locateHunk finds the conflict region (or containing paragraph) around the
// first occurrence of name in text.
func locateHunk(text, name string) (string, bool) {
	idx := strings.Index(text, name)
	if idx < 0 {
		return "", false
	}

	start := strings.LastIndex(text[:idx], "<<<<<<<")
	if start >= 0 && strings.Contains(text[start:idx], ">>>>>>>") {
		// That conflict region closes before name: name is not inside it.
		start = -1
	}
	end := -1
	if start >= 0 {
		if rel := strings.Index(text[idx:], ">>>>>>>"); rel >= 0 {
			lineEnd := strings.Index(text[idx+rel:], "\n")
			if lineEnd < 0 {
				end = len(text)
			} else {
				end = idx + rel + lineEnd
			}
		}
	}
	if start >= 0 && end > start {
		return text[start:end], true
	}

	// No enclosing conflict markers: fall back to the blank-line-delimited
	// paragraph containing name.
	paraStart := strings.LastIndex(text[:idx], "\n\n")
	if paraStart < 0 {
		paraStart = 0
	} else {
		paraStart += 2
	}
	paraEnd := strings.Index(text[idx:], "\n\n")
	if paraEnd < 0 {
		return text[paraStart:], true
	}
	return text[paraStart : idx+paraEnd], true
}
