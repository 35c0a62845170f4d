// Package tree provides the declaration tree model used by the merge
// pipeline: container nodes (compilation units, classes, interfaces, enums)
// and terminal nodes (fields, methods, constructors, blocks, imports).
//
// Nodes live in an arena and are addressed by a stable NodeID rather than by
// pointer, so handlers can reparent and splice children without worrying
// about dangling references.
package tree

// ContainerKind enumerates the kinds of container nodes.
type ContainerKind int

const (
	CompilationUnit ContainerKind = iota
	Class
	Interface
	Enum
)

func (k ContainerKind) String() string {
	switch k {
	case CompilationUnit:
		return "CompilationUnit"
	case Class:
		return "Class"
	case Interface:
		return "Interface"
	case Enum:
		return "Enum"
	default:
		return "Unknown"
	}
}

// TerminalKind enumerates the kinds of terminal (leaf) nodes.
type TerminalKind int

const (
	Method TerminalKind = iota
	Constructor
	Field
	InitializerBlock
	Import
	Other
)

func (k TerminalKind) String() string {
	switch k {
	case Method:
		return "Method"
	case Constructor:
		return "Constructor"
	case Field:
		return "Field"
	case InitializerBlock:
		return "InitializerBlock"
	case Import:
		return "Import"
	default:
		return "Other"
	}
}

// NodeID is a stable index into a Tree's node arena.
type NodeID int

// InvalidNodeID marks the absence of a node.
const InvalidNodeID NodeID = -1

// node is the internal, arena-resident representation of a tree node. Use
// the Tree accessor methods rather than touching this directly.
type node struct {
	isContainer bool

	containerKind ContainerKind
	terminalKind  TerminalKind

	// Identifier is the matching key used by superimposition: a qualified
	// name for containers/fields/imports, a normalized signature for
	// methods/constructors.
	identifier string
	name       string
	signature  string
	body       string

	children []NodeID
	parent   NodeID // InvalidNodeID at the root
}

// Tree is an arena of declaration nodes for a single parsed file.
type Tree struct {
	nodes []node
	root  NodeID
}

// New creates an empty tree and returns it along with the root
// CompilationUnit node's ID.
func New() (*Tree, NodeID) {
	t := &Tree{}
	root := t.addNode(node{
		isContainer:   true,
		containerKind: CompilationUnit,
		identifier:    "<compilation-unit>",
		parent:        InvalidNodeID,
	})
	t.root = root
	return t, root
}

// Root returns the tree's root node (always a CompilationUnit).
func (t *Tree) Root() NodeID { return t.root }

func (t *Tree) addNode(n node) NodeID {
	t.nodes = append(t.nodes, n)
	return NodeID(len(t.nodes) - 1)
}

// AddContainer creates a new container node parented under parent and
// returns its ID.
func (t *Tree) AddContainer(parent NodeID, kind ContainerKind, identifier string) NodeID {
	id := t.addNode(node{
		isContainer:   true,
		containerKind: kind,
		identifier:    identifier,
		name:          identifier,
		parent:        parent,
	})
	t.appendChild(parent, id)
	return id
}

// AddTerminal creates a new terminal node parented under parent and returns
// its ID.
func (t *Tree) AddTerminal(parent NodeID, kind TerminalKind, identifier, name, signature, body string) NodeID {
	id := t.addNode(node{
		isContainer:  false,
		terminalKind: kind,
		identifier:   identifier,
		name:         name,
		signature:    signature,
		body:         body,
		parent:       parent,
	})
	t.appendChild(parent, id)
	return id
}

func (t *Tree) appendChild(parent, child NodeID) {
	if parent == InvalidNodeID {
		return
	}
	t.nodes[parent].children = append(t.nodes[parent].children, child)
}

// IsContainer reports whether id is a container node.
func (t *Tree) IsContainer(id NodeID) bool { return t.nodes[id].isContainer }

// ContainerKind returns the container kind of id (undefined for terminals).
func (t *Tree) ContainerKind(id NodeID) ContainerKind { return t.nodes[id].containerKind }

// TerminalKind returns the terminal kind of id (undefined for containers).
func (t *Tree) TerminalKind(id NodeID) TerminalKind { return t.nodes[id].terminalKind }

// Identifier returns the matching key for id.
func (t *Tree) Identifier(id NodeID) string { return t.nodes[id].identifier }

// Name returns the declared name for id.
func (t *Tree) Name(id NodeID) string { return t.nodes[id].name }

// Signature returns the terminal's signature string (empty for containers).
func (t *Tree) Signature(id NodeID) string { return t.nodes[id].signature }

// Body returns the terminal's opaque body text (empty for containers).
func (t *Tree) Body(id NodeID) string { return t.nodes[id].body }

// SetBody overwrites a terminal's body text in place. NodeIDs remain valid.
func (t *Tree) SetBody(id NodeID, body string) { t.nodes[id].body = body }

// SetIdentifier overwrites a node's matching identifier (used when a
// renaming handler installs a node under a new name).
func (t *Tree) SetIdentifier(id NodeID, identifier string) { t.nodes[id].identifier = identifier }

// SetName overwrites a node's declared name.
func (t *Tree) SetName(id NodeID, name string) { t.nodes[id].name = name }

// Children returns the ordered child list of a container.
func (t *Tree) Children(id NodeID) []NodeID { return t.nodes[id].children }

// SetChildren replaces the ordered child list of a container.
func (t *Tree) SetChildren(id NodeID, children []NodeID) { t.nodes[id].children = children }

// Parent returns the parent of id, or InvalidNodeID at the root.
func (t *Tree) Parent(id NodeID) NodeID { return t.nodes[id].parent }

// SetParent updates id's non-owning back-reference. Callers reparenting a
// node must also update the new and old owning child lists.
func (t *Tree) SetParent(id, parent NodeID) { t.nodes[id].parent = parent }

// CloneNodeInto copies the node at id, a terminal or a container with all
// its descendants (from a possibly different tree),
// into t, parented under parent, and returns the new NodeID. Used by
// superimposition and handlers to graft nodes from one contribution's tree
// into the superimposed tree.
func (t *Tree) CloneNodeInto(src *Tree, id NodeID, parent NodeID) NodeID {
	n := src.nodes[id]
	if n.isContainer {
		newID := t.AddContainer(parent, n.containerKind, n.identifier)
		for _, c := range n.children {
			t.CloneNodeInto(src, c, newID)
		}
		return newID
	}
	return t.AddTerminal(parent, n.terminalKind, n.identifier, n.name, n.signature, n.body)
}

// CollectTerminals returns every terminal reachable from root, in stable
// depth-first, declared-order traversal. Handlers rely on this order for
// deterministic tie-breaks (e.g. "first similar node wins").
func CollectTerminals(t *Tree, root NodeID) []NodeID {
	var out []NodeID
	var walk func(id NodeID)
	walk = func(id NodeID) {
		if t.IsContainer(id) {
			for _, c := range t.Children(id) {
				walk(c)
			}
			return
		}
		out = append(out, id)
	}
	walk(root)
	return out
}

// CollectContainers returns every container reachable from root (including
// root itself), in depth-first declared order.
func CollectContainers(t *Tree, root NodeID) []NodeID {
	var out []NodeID
	var walk func(id NodeID)
	walk = func(id NodeID) {
		if !t.IsContainer(id) {
			return
		}
		out = append(out, id)
		for _, c := range t.Children(id) {
			walk(c)
		}
	}
	walk(root)
	return out
}

// IsInTree reports whether a terminal with the given identifier exists
// anywhere below root.
func IsInTree(t *Tree, identifier string, root NodeID) bool {
	_, ok := RetrieveCorrespondent(t, identifier, root)
	return ok
}

// RetrieveCorrespondent looks up the terminal with the given identifier
// below root.
func RetrieveCorrespondent(t *Tree, identifier string, root NodeID) (NodeID, bool) {
	for _, id := range CollectTerminals(t, root) {
		if t.Identifier(id) == identifier {
			return id, true
		}
	}
	return InvalidNodeID, false
}

// AddedTerminals returns every terminal reachable from contribRoot whose
// identifier has no correspondent below baseRoot, in stable declared order.
// This is the literal "terminals present in contribution but not in base"
// set the renaming/deletion handler matches against — computed directly
// from the contribution's own tree, independent of how (or whether) any
// third tree chose to represent the same addition.
func AddedTerminals(contrib *Tree, contribRoot NodeID, base *Tree, baseRoot NodeID) []NodeID {
	var out []NodeID
	for _, id := range CollectTerminals(contrib, contribRoot) {
		if _, ok := RetrieveCorrespondent(base, contrib.Identifier(id), baseRoot); !ok {
			out = append(out, id)
		}
	}
	return out
}

// IsMethodOrConstructor reports whether id is a Method or Constructor
// terminal.
func (t *Tree) IsMethodOrConstructor(id NodeID) bool {
	if t.IsContainer(id) {
		return false
	}
	k := t.TerminalKind(id)
	return k == Method || k == Constructor
}
