package serialize

import (
	"strings"
	"testing"

	"github.com/alicezbo/jFSTMerge/tree"
)

func TestEmitRoundTripsSimpleClass(t *testing.T) {
	tr, root := tree.New()
	cls := tr.AddContainer(root, tree.Class, "Greeter")
	tr.AddTerminal(cls, tree.Method, "greet()", "greet", "greet()", "{\n  return 1;\n}")

	out, err := Emit(tr, root)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	text := string(out)
	if !strings.Contains(text, "class Greeter {") {
		t.Fatalf("expected class header, got %q", text)
	}
	if !strings.Contains(text, "return 1;") {
		t.Fatalf("expected method body, got %q", text)
	}
	if !strings.HasSuffix(text, "}\n") {
		t.Fatalf("expected trailing closing brace, got %q", text)
	}
}

func TestEmitTopLevelTerminalsNoWrapper(t *testing.T) {
	tr, root := tree.New()
	tr.AddTerminal(root, tree.Method, "add()", "add", "add()", "function add() { return 1; }")

	out, err := Emit(tr, root)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if strings.Contains(string(out), "class ") {
		t.Fatalf("top-level functions should not get a class wrapper, got %q", out)
	}
}

// A method whose body was replaced by a renaming/duplicate conflict block
// must not have its opening marker glued onto the signature line: the
// signature is text the parser attached to the terminal, the conflict
// block is a full replacement of the body, and §6 requires each marker to
// start its own line or no conflict scanner will recognize it.
func TestEmitMethodConflictBodyMarkerStartsOwnLine(t *testing.T) {
	tr, root := tree.New()
	cls := tr.AddContainer(root, tree.Class, "C")
	body := "<<<<<<< MINE\nreturn 1;\n||||||| BASE\nreturn 1;\n=======\nreturn 2;\n>>>>>>> YOURS"
	tr.AddTerminal(cls, tree.Method, "renamed()", "renamed", "renamed()", body)

	out, err := Emit(tr, root)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}

	sawOpeningMarker := false
	for _, line := range strings.Split(string(out), "\n") {
		if line == "<<<<<<< MINE" {
			sawOpeningMarker = true
		}
		if strings.Contains(line, "renamed()") && strings.Contains(line, "<<<<<<<") {
			t.Fatalf("opening marker must not share a line with the signature, got %q", line)
		}
	}
	if !sawOpeningMarker {
		t.Fatalf("expected the opening marker on its own line, got:\n%s", out)
	}
}
