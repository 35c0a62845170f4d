package initblocks

import (
	"strings"
	"testing"

	"github.com/alicezbo/jFSTMerge/mergectx"
	"github.com/alicezbo/jFSTMerge/tree"
)

func TestSimilarBlocksMerge(t *testing.T) {
	tr, root := tree.New()
	cls := tr.AddContainer(root, tree.Class, "C")
	tr.AddTerminal(cls, tree.InitializerBlock, "<init>", "", "", "counter = 0;\nflag = true;")
	tr.AddTerminal(cls, tree.InitializerBlock, "<init>", "", "", "counter = 0;\nflag = true;\nname = \"x\";")

	ctx := &mergectx.Context{SuperImposedTree: tr, SuperImposedRoot: root, Stats: map[mergectx.ConflictKind]int{}}
	h := New(0.7, false)
	if err := h.Handle(ctx); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	terms := tree.CollectTerminals(ctx.SuperImposedTree, ctx.SuperImposedRoot)
	if len(terms) != 1 {
		t.Fatalf("expected the two similar blocks to merge into one, got %d", len(terms))
	}
	if !strings.Contains(ctx.SuperImposedTree.Body(terms[0]), "name") {
		t.Fatalf("expected the merged block to include both contributions")
	}
}

func TestDissimilarBlocksStayIndependent(t *testing.T) {
	tr, root := tree.New()
	cls := tr.AddContainer(root, tree.Class, "C")
	tr.AddTerminal(cls, tree.InitializerBlock, "<init>", "", "", "counter = 0;")
	tr.AddTerminal(cls, tree.InitializerBlock, "<init>", "", "", "registerShutdownHook(cleanup);")

	ctx := &mergectx.Context{SuperImposedTree: tr, SuperImposedRoot: root, Stats: map[mergectx.ConflictKind]int{}}
	h := New(0.7, false)
	if err := h.Handle(ctx); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	terms := tree.CollectTerminals(ctx.SuperImposedTree, ctx.SuperImposedRoot)
	if len(terms) != 2 {
		t.Fatalf("expected dissimilar blocks to remain independent, got %d", len(terms))
	}
}
