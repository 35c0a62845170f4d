// Package typeambiguity implements the type-ambiguity handler: when an
// import added by one side introduces a name that collides with another
// import (a different path bound to the same name) or with a class,
// interface, or enum declared in the same compilation unit, both
// declarations are kept but the collision is surfaced as a conflict
// diagnostic.
package typeambiguity

import (
	"regexp"

	"github.com/alicezbo/jFSTMerge/mergectx"
	"github.com/alicezbo/jFSTMerge/tree"
)

// Handler detects import/import and import/declaration name collisions.
type Handler struct{}

// New builds a type-ambiguity handler.
func New() *Handler { return &Handler{} }

var importedNamePattern = regexp.MustCompile(`[A-Za-z_$][A-Za-z0-9_$]*`)

// Handle scans the superimposed compilation unit's imports and top-level
// declarations for colliding names.
func (h *Handler) Handle(ctx *mergectx.Context) error {
	t := ctx.SuperImposedTree
	root := ctx.SuperImposedRoot

	imports := map[string][]tree.NodeID{}
	for _, id := range t.Children(root) {
		if t.IsContainer(id) || t.TerminalKind(id) != tree.Import {
			continue
		}
		for _, name := range importedNames(t.Name(id)) {
			imports[name] = append(imports[name], id)
		}
	}

	for name, ids := range imports {
		paths := map[string]bool{}
		for _, id := range ids {
			paths[t.Identifier(id)] = true
		}
		if len(paths) > 1 {
			ctx.RecordConflict(mergectx.TypeAmbiguityConflict)
		}
		if _, collides := declaredNameCollision(t, root, name); collides {
			ctx.RecordConflict(mergectx.TypeAmbiguityConflict)
		}
	}
	return nil
}

func declaredNameCollision(t *tree.Tree, root tree.NodeID, name string) (tree.NodeID, bool) {
	for _, c := range t.Children(root) {
		if t.IsContainer(c) && t.Identifier(c) == name {
			return c, true
		}
	}
	return tree.InvalidNodeID, false
}

// importedNames extracts the bound identifiers from an import statement's
// text: named imports inside braces, or the default/namespace identifier
// immediately after the import keyword.
func importedNames(text string) []string {
	start := indexOf(text, "{")
	end := indexOf(text, "}")
	var matches []string
	if start >= 0 && end > start {
		matches = importedNamePattern.FindAllString(text[start+1:end], -1)
	} else {
		fromIdx := indexOf(text, " from ")
		head := text
		if fromIdx >= 0 {
			head = text[:fromIdx]
		}
		matches = importedNamePattern.FindAllString(head, -1)
	}
	var out []string
	for _, m := range matches {
		if m == "import" || m == "type" {
			continue
		}
		if m == "as" {
			// "x as y" binds y, not x.
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
			continue
		}
		out = append(out, m)
	}
	return out
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
