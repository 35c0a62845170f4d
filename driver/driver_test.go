package driver

import (
	"strings"
	"testing"

	"github.com/alicezbo/jFSTMerge/config"
)

const classWithA = `
class C {
  a() {
    return 1;
  }
}
`

func TestIdentityMergeReturnsInputVerbatim(t *testing.T) {
	cfg := config.Default()
	ctx, err := MergeFiles([]byte(classWithA), []byte(classWithA), []byte(classWithA), "c.js", cfg)
	if err != nil {
		t.Fatalf("MergeFiles: %v", err)
	}
	if ctx.HasConflicts() {
		t.Fatalf("identity merge should not conflict, got %v", ctx.Stats)
	}
	if !strings.Contains(string(ctx.Output), "return 1;") {
		t.Fatalf("expected output to preserve the body, got %q", ctx.Output)
	}
}

func TestFastForwardLeftWhenBaseEqualsRight(t *testing.T) {
	left := []byte("class C {\n  a() {\n    return 2;\n  }\n}\n")
	base := []byte(classWithA)
	right := []byte(classWithA)

	cfg := config.Default()
	ctx, err := MergeFiles(left, base, right, "c.js", cfg)
	if err != nil {
		t.Fatalf("MergeFiles: %v", err)
	}
	if string(ctx.Output) != string(left) {
		t.Fatalf("expected fast-forward to left verbatim, got %q", ctx.Output)
	}
}

func TestFastForwardRightWhenBaseEqualsLeft(t *testing.T) {
	left := []byte(classWithA)
	base := []byte(classWithA)
	right := []byte("class C {\n  a() {\n    return 3;\n  }\n}\n")

	cfg := config.Default()
	ctx, err := MergeFiles(left, base, right, "c.js", cfg)
	if err != nil {
		t.Fatalf("MergeFiles: %v", err)
	}
	if string(ctx.Output) != string(right) {
		t.Fatalf("expected fast-forward to right verbatim, got %q", ctx.Output)
	}
}

// S1: pure rename on one side, unchanged on the other.
func TestScenarioPureRename(t *testing.T) {
	base := []byte("class C {\n  a() {\n    return;\n  }\n}\n")
	left := []byte("class C {\n  b() {\n    return;\n  }\n}\n")
	// Trailing blank line keeps right byte-different from base (so the
	// fast-forward shortcut doesn't short-circuit this test) while leaving
	// every parsed declaration's body identical to base's.
	right := append(append([]byte{}, base...), '\n')

	cfg := config.Default()
	ctx, err := MergeFiles(left, base, right, "c.js", cfg)
	if err != nil {
		t.Fatalf("MergeFiles: %v", err)
	}
	if ctx.HasConflicts() {
		t.Fatalf("expected no conflicts for a pure rename, got %v", ctx.Stats)
	}
	out := string(ctx.Output)
	if !strings.Contains(out, "b(") {
		t.Fatalf("expected renamed method b present, got %q", out)
	}
	if strings.Contains(out, "a(") {
		t.Fatalf("expected original method a absent, got %q", out)
	}
}

// S2: rename vs edit under SAFE strategy should conflict.
func TestScenarioRenameVsEditSafe(t *testing.T) {
	base := []byte("class C {\n  a() {\n    x = 1;\n  }\n}\n")
	left := []byte("class C {\n  b() {\n    x = 1;\n  }\n}\n")
	right := []byte("class C {\n  a() {\n    x = 2;\n  }\n}\n")

	cfg := config.Default()
	cfg.RenamingStrategy = config.SafeStrategy
	ctx, err := MergeFiles(left, base, right, "c.js", cfg)
	if err != nil {
		t.Fatalf("MergeFiles: %v", err)
	}
	if !ctx.HasConflicts() {
		t.Fatalf("expected rename-vs-edit to conflict under SAFE")
	}
}

// S3: rename vs edit under MERGE strategy should merge cleanly.
func TestScenarioRenameVsEditMerge(t *testing.T) {
	base := []byte("class C {\n  a() {\n    x = 1;\n  }\n}\n")
	left := []byte("class C {\n  b() {\n    x = 1;\n  }\n}\n")
	right := []byte("class C {\n  a() {\n    x = 2;\n  }\n}\n")

	cfg := config.Default()
	cfg.RenamingStrategy = config.MergeStrategy
	ctx, err := MergeFiles(left, base, right, "c.js", cfg)
	if err != nil {
		t.Fatalf("MergeFiles: %v", err)
	}
	if ctx.HasConflicts() {
		t.Fatalf("expected a clean merge under MERGE, got %v", ctx.Stats)
	}
	out := string(ctx.Output)
	if !strings.Contains(out, "x = 2;") {
		t.Fatalf("expected right's edit in merged output, got %q", out)
	}
}

// S4: both sides rename a() to the same new name renamed(), one of them
// also editing the body. Under MERGE this must resolve cleanly (left's
// body is unchanged from base, so the three-way body merge just takes
// right's edit) with no conflict markers anywhere in the output — even
// though tree superimposition, seeing "renamed" as a concurrent addition
// with differing bodies, raises its own textual conflict before the
// renaming handler gets a chance to supersede it.
func TestScenarioDoubleRenameSameTargetMerge(t *testing.T) {
	base := []byte("class C {\n  a() {\n    line1;\n    line2;\n  }\n}\n")
	left := []byte("class C {\n  renamed() {\n    line1;\n    line2;\n  }\n}\n")
	right := []byte("class C {\n  renamed() {\n    line1;\n    line2;\n    line3;\n  }\n}\n")

	cfg := config.Default()
	cfg.RenamingStrategy = config.MergeStrategy
	ctx, err := MergeFiles(left, base, right, "c.js", cfg)
	if err != nil {
		t.Fatalf("MergeFiles: %v", err)
	}
	if ctx.HasConflicts() {
		t.Fatalf("expected a clean merge under MERGE for a double rename to the same target, got %v", ctx.Stats)
	}
	out := string(ctx.Output)
	if strings.Contains(out, "<<<<<<<") || strings.Contains(out, "|||||||") || strings.Contains(out, ">>>>>>>") {
		t.Fatalf("expected no conflict markers in a cleanly merged double rename, got %q", out)
	}
	if !strings.Contains(out, "renamed(") {
		t.Fatalf("expected the merged method under its renamed identifier, got %q", out)
	}
	if !strings.Contains(out, "line3;") {
		t.Fatalf("expected right's appended line in the merged body, got %q", out)
	}
}

// S6: both sides add an identical method; superimposition keeps a single
// copy with no conflict.
func TestScenarioEqualBodyAdditionCollapses(t *testing.T) {
	base := []byte("class C {\n}\n")
	left := []byte("class C {\n  a() {\n    return 0;\n  }\n}\n")
	right := []byte("class C {\n  a() {\n    return 0;\n  }\n}\n")

	cfg := config.Default()
	ctx, err := MergeFiles(left, base, right, "c.js", cfg)
	if err != nil {
		t.Fatalf("MergeFiles: %v", err)
	}
	if ctx.HasConflicts() {
		t.Fatalf("expected equal-body concurrent additions to collapse without conflict, got %v", ctx.Stats)
	}
	if strings.Count(string(ctx.Output), "return 0;") != 1 {
		t.Fatalf("expected exactly one copy of the added method, got %q", ctx.Output)
	}
}

func TestNilInputsTreatedAsEmpty(t *testing.T) {
	cfg := config.Default()
	ctx, err := MergeFiles(nil, nil, nil, "empty.js", cfg)
	if err != nil {
		t.Fatalf("MergeFiles: %v", err)
	}
	if ctx.HasConflicts() {
		t.Fatalf("expected no conflicts merging three empty files")
	}
}
