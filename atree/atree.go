// Package atree implements the build-phase ("A-tree") XDM tree: the
// mutable-while-constructing representation the parser emits into. It has
// no navigation (no parent or sibling pointers) — only enough structure
// for the parser to build nodes bottom-up and hand them to the A→B
// conversion in package btree.
package atree

import (
	"github.com/wilkmaciej/xdm/qname"
	"github.com/wilkmaciej/xdm/value"
	"github.com/wilkmaciej/xdm/xdm"
	"github.com/wilkmaciej/xdm/xdmerror"
)

// DTDDeclKind tags the (currently single) variety of DTD declaration this
// engine understands.
type DTDDeclKind int

// GeneralEntity is the only DTDDeclKind this engine supports: a name and
// its raw replacement text, re-parsed as content at A→B conversion time.
const GeneralEntity DTDDeclKind = iota

// DTDDecl is a general-entity declaration collected from the prologue.
type DTDDecl struct {
	Kind DTDDeclKind
	Name qname.QualifiedName
	Text string
}

// XMLDecl is the optional leading "<?xml version=... encoding=...
// standalone=...?>" declaration.
type XMLDecl struct {
	Version     string
	Encoding    *string
	Standalone  *bool
}

// Node is a node in the build-phase tree. It is uniquely owned until
// placed into a parent via Push or SetAttribute; after that, it is shared
// and further mutation of it fails with a Mutation error. This mirrors the
// ownership-transfer semantics of a reference-counted tree without
// needing Go's GC to track refcounts explicitly: the flag is set the
// moment the node is handed to a parent, exactly when a second owner
// could start observing it.
type Node struct {
	shared     bool
	nodeType   xdm.NodeType
	children   []*Node
	attributes *qname.NameMap[*Node]
	name       *qname.QualifiedName
	value      *value.Value
	piName     *string
	dtd        *DTDDecl
	reference  *qname.QualifiedName
}

// newNode allocates an empty, uniquely-owned node of the given type.
func newNode(t xdm.NodeType) *Node {
	return &Node{nodeType: t, attributes: qname.NewNameMap[*Node]()}
}

// NodeType returns the node's type.
func (n *Node) NodeType() xdm.NodeType { return n.nodeType }

// Name returns the node's name, if it has one.
func (n *Node) Name() *qname.QualifiedName { return n.name }

// Value returns the node's value, if it has one.
func (n *Node) Value() *value.Value { return n.value }

// PIName returns the processing-instruction target, if this is a PI node.
func (n *Node) PIName() *string { return n.piName }

// DTD returns the DTD declaration this node carries, if any.
func (n *Node) DTD() *DTDDecl { return n.dtd }

// Reference returns the general-entity name this node references, if this
// is a Reference-type node awaiting expansion.
func (n *Node) Reference() *qname.QualifiedName { return n.reference }

// Children returns the node's children in order.
func (n *Node) Children() []*Node { return n.children }

// Attributes returns the node's attribute set, keyed by QualifiedName
// (one value per name).
func (n *Node) Attributes() *qname.NameMap[*Node] { return n.attributes }

// Push appends child to n's children. It fails with a Mutation error if n
// has already been placed into some other node (and is therefore shared).
// child becomes shared the moment it is pushed, since from then on both n
// and child's original holder may reference it.
func (n *Node) Push(child *Node) error {
	if n.shared {
		return xdmerror.New(xdmerror.Mutation, "cannot mutate a shared A-tree node")
	}
	child.shared = true
	n.children = append(n.children, child)
	return nil
}

// SetAttribute binds name to an attribute-type node. Subject to the same
// sharing discipline as Push.
func (n *Node) SetAttribute(name qname.QualifiedName, attr *Node) error {
	if n.shared {
		return xdmerror.New(xdmerror.Mutation, "cannot mutate a shared A-tree node")
	}
	attr.shared = true
	n.attributes.Set(name, attr)
	return nil
}

// NodeBuilder constructs a Node with the builder pattern spec.md §4.F
// calls for: New(type) creates an empty node, then chained setters fill
// in name/value/pi-name/dtd/reference before Build returns it.
type NodeBuilder struct {
	n *Node
}

// NewNodeBuilder starts building a node of the given type.
func NewNodeBuilder(t xdm.NodeType) *NodeBuilder {
	return &NodeBuilder{n: newNode(t)}
}

// Name sets the node's name.
func (b *NodeBuilder) Name(qn qname.QualifiedName) *NodeBuilder {
	b.n.name = &qn
	return b
}

// Value sets the node's value.
func (b *NodeBuilder) Value(v value.Value) *NodeBuilder {
	b.n.value = &v
	return b
}

// PIName sets the processing-instruction target.
func (b *NodeBuilder) PIName(s string) *NodeBuilder {
	b.n.piName = &s
	return b
}

// DTD sets the DTD declaration this node carries.
func (b *NodeBuilder) DTD(d DTDDecl) *NodeBuilder {
	b.n.dtd = &d
	return b
}

// Reference sets the general-entity name this node references.
func (b *NodeBuilder) Reference(qn qname.QualifiedName) *NodeBuilder {
	b.n.reference = &qn
	return b
}

// Build returns the constructed, still-uniquely-owned node.
func (b *NodeBuilder) Build() *Node {
	return b.n
}

// Doc is a build-phase document: possibly many top-level nodes, though a
// well-formed XML document has exactly one element-type node in Content.
type Doc struct {
	XMLDecl  *XMLDecl
	Prologue []*Node
	Content  []*Node
	Epilogue []*Node
}

// WellFormed reports whether Content contains exactly one element-type
// node, as required of a well-formed XML document.
func (d *Doc) WellFormed() bool {
	count := 0
	for _, n := range d.Content {
		if n.NodeType() == xdm.ElementNodeType {
			count++
		}
	}
	return count == 1
}

// PushContent appends n to the document's content list.
func (d *Doc) PushContent(n *Node) {
	d.Content = append(d.Content, n)
}

// DocBuilder constructs a Doc with the same builder pattern as NodeBuilder.
type DocBuilder struct {
	d *Doc
}

// NewDocBuilder starts building an empty document.
func NewDocBuilder() *DocBuilder {
	return &DocBuilder{d: &Doc{}}
}

// XMLDecl sets the document's XML declaration.
func (b *DocBuilder) XMLDecl(x XMLDecl) *DocBuilder {
	b.d.XMLDecl = &x
	return b
}

// Prologue sets the document's prologue nodes.
func (b *DocBuilder) Prologue(nodes []*Node) *DocBuilder {
	b.d.Prologue = nodes
	return b
}

// Content sets the document's content nodes.
func (b *DocBuilder) Content(nodes []*Node) *DocBuilder {
	b.d.Content = nodes
	return b
}

// Epilogue sets the document's epilogue nodes.
func (b *DocBuilder) Epilogue(nodes []*Node) *DocBuilder {
	b.d.Epilogue = nodes
	return b
}

// Build returns the constructed document.
func (b *DocBuilder) Build() *Doc {
	return b.d
}
