// Package parse implements the Parser collaborator contract: it turns raw
// source bytes into the coarse declaration tree (package tree) that the
// merge pipeline operates on. The concrete grammar is tree-sitter's
// JavaScript grammar, chosen because it is the closest available
// grammar to a generic curly-brace, class-based host language.
package parse

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/alicezbo/jFSTMerge/tree"
)

// Encoding names accepted by Parse. Parse does not read the encoding
// argument: content is always treated as UTF-8, and any value is accepted
// so callers can pass through whatever they detected.
const (
	EncodingUTF8    = "utf-8"
	EncodingDefault = ""
)

// ParseError wraps a failure from the underlying grammar.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// TreeSitterParser is the concrete Parser implementation used by this
// module. It is safe for concurrent use across goroutines: each call opens
// its own tree-sitter parser instance.
type TreeSitterParser struct{}

// NewParser creates a Parser backed by the tree-sitter JavaScript grammar.
func NewParser() *TreeSitterParser { return &TreeSitterParser{} }

// Parse parses content and returns the declaration tree. encoding is
// advisory (see the Encoding constants); content is always treated as
// UTF-8 bytes, matching tree-sitter's own assumption.
func (p *TreeSitterParser) Parse(path string, content []byte, encoding string) (*tree.Tree, tree.NodeID, error) {
	sp := sitter.NewParser()
	sp.SetLanguage(javascript.GetLanguage())

	sitterTree, err := sp.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, tree.InvalidNodeID, &ParseError{Path: path, Err: err}
	}

	t, root := tree.New()
	walkProgram(t, root, sitterTree.RootNode(), content)
	return t, root, nil
}

// walkProgram walks the top level of the file, emitting one terminal or
// container child of root per recognized declaration. Anything it doesn't
// recognize is dropped silently: the parser is an oracle for the coarse
// declaration skeleton, not a full-fidelity AST.
func walkProgram(t *tree.Tree, parent tree.NodeID, node *sitter.Node, content []byte) {
	if node == nil {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "function_declaration":
			addFunction(t, parent, child, content)
		case "lexical_declaration", "variable_declaration":
			addVariables(t, parent, child, content)
		case "class_declaration":
			addClass(t, parent, child, content)
		case "export_statement":
			walkProgram(t, parent, child, content)
		case "import_statement":
			addImport(t, parent, child, content)
		case "program":
			walkProgram(t, parent, child, content)
		}
	}
}

func childOfType(node *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		if c := node.Child(i); c.Type() == typ {
			return c
		}
	}
	return nil
}

func addFunction(t *tree.Tree, parent tree.NodeID, node *sitter.Node, content []byte) {
	nameNode := childOfType(node, "identifier")
	if nameNode == nil {
		return
	}
	name := nameNode.Content(content)
	params := ""
	if p := childOfType(node, "formal_parameters"); p != nil {
		params = p.Content(content)
	}
	signature := "function " + name + normalizeParams(params)
	t.AddTerminal(parent, tree.Method, signature, name, signature, blockBody(node, content))
}

// blockBody returns the content of a function/method's statement block,
// excluding the name and parameter list, so that bodies compare equal
// across a rename when the only thing that changed is the declared name.
func blockBody(node *sitter.Node, content []byte) string {
	if b := childOfType(node, "statement_block"); b != nil {
		return b.Content(content)
	}
	return node.Content(content)
}

func addVariables(t *tree.Tree, parent tree.NodeID, node *sitter.Node, content []byte) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "variable_declarator" {
			continue
		}
		nameNode := childOfType(child, "identifier")
		if nameNode == nil {
			continue
		}
		name := nameNode.Content(content)
		kind := tree.Field
		signature := "var " + name
		t.AddTerminal(parent, kind, signature, name, signature, child.Content(content))
	}
}

func addImport(t *tree.Tree, parent tree.NodeID, node *sitter.Node, content []byte) {
	text := node.Content(content)
	identifier := "import:" + normalizeWhitespace(text)
	t.AddTerminal(parent, tree.Import, identifier, text, "", text)
}

func addClass(t *tree.Tree, parent tree.NodeID, node *sitter.Node, content []byte) {
	nameNode := childOfType(node, "identifier")
	if nameNode == nil {
		return
	}
	name := nameNode.Content(content)
	classID := t.AddContainer(parent, tree.Class, name)

	body := childOfType(node, "class_body")
	if body == nil {
		return
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		member := body.Child(i)
		switch member.Type() {
		case "method_definition":
			addMethod(t, classID, member, content)
		case "field_definition", "public_field_definition":
			addField(t, classID, member, content)
		}
	}
}

func addMethod(t *tree.Tree, parent tree.NodeID, node *sitter.Node, content []byte) {
	nameNode := childOfType(node, "property_identifier")
	if nameNode == nil {
		return
	}
	name := nameNode.Content(content)
	params := ""
	if p := childOfType(node, "formal_parameters"); p != nil {
		params = p.Content(content)
	}
	kind := tree.Method
	if name == "constructor" {
		kind = tree.Constructor
	}
	signature := name + normalizeParams(params)
	t.AddTerminal(parent, kind, signature, name, signature, blockBody(node, content))
}

func addField(t *tree.Tree, parent tree.NodeID, node *sitter.Node, content []byte) {
	nameNode := childOfType(node, "property_identifier")
	if nameNode == nil {
		return
	}
	name := nameNode.Content(content)
	signature := "field " + name
	t.AddTerminal(parent, tree.Field, signature, name, signature, node.Content(content))
}

func normalizeParams(params string) string {
	return normalizeWhitespace(params)
}

func normalizeWhitespace(s string) string {
	out := make([]byte, 0, len(s))
	lastSpace := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			if !lastSpace && len(out) > 0 {
				out = append(out, ' ')
			}
			lastSpace = true
			continue
		}
		lastSpace = false
		out = append(out, c)
	}
	for len(out) > 0 && out[len(out)-1] == ' ' {
		out = out[:len(out)-1]
	}
	return string(out)
}
