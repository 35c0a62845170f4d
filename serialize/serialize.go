// Package serialize implements the Serializer collaborator: it turns a
// (possibly merged) declaration tree back into source text. Terminal bodies
// are stored verbatim by the parser, so serialization is mostly
// concatenation; only container wrappers (class/interface/enum headers and
// braces) are synthesized.
package serialize

import (
	"strings"

	"github.com/alicezbo/jFSTMerge/tree"
)

// Emit renders the tree reachable from root back into source text.
func Emit(t *tree.Tree, root tree.NodeID) ([]byte, error) {
	var b strings.Builder
	emitChildren(&b, t, root, 0)
	return []byte(strings.TrimRight(b.String(), "\n") + "\n"), nil
}

func emitChildren(b *strings.Builder, t *tree.Tree, node tree.NodeID, depth int) {
	children := t.Children(node)
	for i, c := range children {
		if i > 0 {
			b.WriteString("\n")
		}
		emitNode(b, t, c, depth)
	}
}

func emitNode(b *strings.Builder, t *tree.Tree, id tree.NodeID, depth int) {
	indent := strings.Repeat("  ", depth)
	if !t.IsContainer(id) {
		for _, line := range strings.Split(terminalText(t, id), "\n") {
			if !isConflictMarkerLine(line) {
				b.WriteString(indent)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
		return
	}

	b.WriteString(indent)
	b.WriteString(keyword(t.ContainerKind(id)))
	b.WriteString(t.Name(id))
	b.WriteString(" {\n")
	emitChildren(b, t, id, depth+1)
	b.WriteString(indent)
	b.WriteString("}\n")
}

// terminalText reconstructs a terminal's source text. Method and
// constructor bodies are stored as just the statement block (so renames
// compare equal regardless of the declared name), so those are prefixed
// with their signature; every other terminal kind stores its full original
// text already.
//
// A handler that couldn't resolve a method/constructor body replaces it
// wholesale with a conflict block starting with one of the §6 markers
// instead of a statement block. Gluing that straight onto the signature
// (as "name() <<<<<<< MINE") would bury the opening marker mid-line, where
// no conflict scanner would ever find it; give it a line of its own.
func terminalText(t *tree.Tree, id tree.NodeID) string {
	if t.IsMethodOrConstructor(id) {
		body := t.Body(id)
		if isConflictBody(body) {
			return t.Signature(id) + "\n" + body
		}
		return t.Signature(id) + " " + body
	}
	return t.Body(id)
}

const (
	markerMine  = "<<<<<<< MINE"
	markerBase  = "||||||| BASE"
	markerSplit = "======="
	markerTheir = ">>>>>>> YOURS"
)

func isConflictBody(body string) bool {
	return strings.HasPrefix(body, markerMine) || strings.HasPrefix(body, markerBase)
}

func isConflictMarkerLine(line string) bool {
	switch line {
	case markerMine, markerBase, markerSplit, markerTheir:
		return true
	default:
		return false
	}
}

func keyword(k tree.ContainerKind) string {
	switch k {
	case tree.Interface:
		return "interface "
	case tree.Enum:
		return "enum "
	default:
		return "class "
	}
}
