// Package xdm implements the polymorphic core of the XPath Data Model:
// node types, the Node/Document capability contracts every tree backend
// must satisfy, the Item sum type, and Sequence — the ordered collection
// that everything above the tree layer actually operates on.
package xdm

import (
	"github.com/wilkmaciej/xdm/qname"
	"github.com/wilkmaciej/xdm/value"
	"github.com/wilkmaciej/xdm/xdmerror"
)

// NodeType distinguishes the kinds of node a Node backend can produce.
type NodeType int

const (
	UnknownNodeType NodeType = iota
	DocumentNodeType
	ElementNodeType
	AttributeNodeType
	TextNodeType
	CommentNodeType
	ProcessingInstructionNodeType
)

func (t NodeType) String() string {
	switch t {
	case DocumentNodeType:
		return "Document"
	case ElementNodeType:
		return "Element"
	case AttributeNodeType:
		return "Attribute"
	case TextNodeType:
		return "Text"
	case CommentNodeType:
		return "Comment"
	case ProcessingInstructionNodeType:
		return "Processing-Instruction"
	default:
		return "--None--"
	}
}

// OutputDefinition controls serialisation. It is consumed by every
// ToXMLWithOptions implementation; stylesheet-level output declarations
// (xsl:output) are out of scope and are the compiler's job to translate
// into one of these.
type OutputDefinition struct {
	Indent             bool
	Method             string // "xml", "text", or "json"
	Encoding           string
	OmitXMLDeclaration bool
}

// DefaultOutputDefinition returns the engine's baseline serialisation
// policy: unindented XML, UTF-8, OmitXMLDeclaration unset. btree's
// serialisers write no XML declaration whatever this flag says.
func DefaultOutputDefinition() OutputDefinition {
	return OutputDefinition{Method: "xml", Encoding: "UTF-8"}
}

// NodeIterator yields nodes one at a time. A backend returns
// EmptyNodeIterator, never nil, for an axis with no members: callers such
// as FirstChild and Parent call Next without a nil check.
type NodeIterator interface {
	// Next returns the next node in the axis, or (nil, false) when
	// exhausted.
	Next() (Node, bool)
}

// emptyIterator is shared by every backend for axes with no members.
type emptyIterator struct{}

func (emptyIterator) Next() (Node, bool) { return nil, false }

// EmptyNodeIterator returns a NodeIterator that yields nothing. Backends
// use this for axes that don't apply (e.g. FollowingSiblingIter on the
// last sibling).
func EmptyNodeIterator() NodeIterator { return emptyIterator{} }

// SliceIterator adapts a []Node to a NodeIterator. Backends that
// materialise an axis as a slice (rather than walking pointers lazily) can
// use this instead of writing their own.
type SliceIterator struct {
	nodes []Node
	pos   int
}

// NewSliceIterator wraps nodes as a NodeIterator.
func NewSliceIterator(nodes []Node) *SliceIterator {
	return &SliceIterator{nodes: nodes}
}

func (it *SliceIterator) Next() (Node, bool) {
	if it.pos >= len(it.nodes) {
		return nil, false
	}
	n := it.nodes[it.pos]
	it.pos++
	return n, true
}

// Document is the capability contract any tree backend's document handle
// must implement.
type Document interface {
	ChildIter() NodeIterator
	RootElement() (Node, bool)
	ToString() string
	ToXML() string
	ToXMLWithOptions(OutputDefinition) string
	ToJSON() string
}

// Node is the capability contract any tree backend's node handle must
// implement. Implementations must guarantee: descendant iteration visits
// each descendant exactly once in document order; ancestor iteration
// terminates at the document root (or a detached root); the sibling
// iterators skip the origin node and never revisit it.
type Node interface {
	OwnerDocument() (Document, error)
	NodeType() NodeType
	Name() qname.QualifiedName
	Value() value.Value

	ToString() string
	ToXML() string
	ToXMLWithOptions(OutputDefinition) string
	ToJSON() string

	ChildIter() NodeIterator
	AncestorIter() NodeIterator
	DescendantIter() NodeIterator
	FollowingSiblingIter() NodeIterator
	PrecedingSiblingIter() NodeIterator
}

// FirstChild returns the first node from ChildIter, if any.
func FirstChild(n Node) (Node, bool) {
	return n.ChildIter().Next()
}

// Parent returns the first node from AncestorIter, if any.
func Parent(n Node) (Node, bool) {
	return n.AncestorIter().Next()
}

// ItemKind tags the variant of an Item.
type ItemKind int

const (
	ItemDocument ItemKind = iota
	ItemNode
	ItemFunction
	ItemValue
)

// Item is one of {Document, Node, Function, Value} — the unified element
// of a Sequence. Function is a reserved placeholder variant with no
// payload, for future higher-order function support.
type Item struct {
	kind ItemKind
	doc  Document
	node Node
	val  value.Value
}

// NewDocumentItem wraps a Document as an Item.
func NewDocumentItem(d Document) Item { return Item{kind: ItemDocument, doc: d} }

// NewNodeItem wraps a Node as an Item.
func NewNodeItem(n Node) Item { return Item{kind: ItemNode, node: n} }

// NewFunctionItem returns the reserved function-item placeholder.
func NewFunctionItem() Item { return Item{kind: ItemFunction} }

// NewValueItem wraps a Value as an Item.
func NewValueItem(v value.Value) Item { return Item{kind: ItemValue, val: v} }

// Kind returns the item's variant tag.
func (it Item) Kind() ItemKind { return it.kind }

// Document returns the wrapped Document, if this item is one.
func (it Item) Document() (Document, bool) {
	if it.kind == ItemDocument {
		return it.doc, true
	}
	return nil, false
}

// Node returns the wrapped Node, if this item is one.
func (it Item) Node() (Node, bool) {
	if it.kind == ItemNode {
		return it.node, true
	}
	return nil, false
}

// Value returns the wrapped Value, if this item is one.
func (it Item) Value() (value.Value, bool) {
	if it.kind == ItemValue {
		return it.val, true
	}
	return value.Value{}, false
}

// ToString is total: every item kind has a string form.
func (it Item) ToString() string {
	switch it.kind {
	case ItemDocument:
		return it.doc.ToString()
	case ItemNode:
		return it.node.ToString()
	case ItemFunction:
		return ""
	default:
		return it.val.ToString()
	}
}

// ToXML serialises documents and nodes as XML; for values it equals
// ToString.
func (it Item) ToXML() string {
	switch it.kind {
	case ItemDocument:
		return it.doc.ToXML()
	case ItemNode:
		return it.node.ToXML()
	case ItemFunction:
		return ""
	default:
		return it.val.ToString()
	}
}

// ToXMLWithOptions is ToXML controlled by an OutputDefinition.
func (it Item) ToXMLWithOptions(od OutputDefinition) string {
	switch it.kind {
	case ItemDocument:
		return it.doc.ToXMLWithOptions(od)
	case ItemNode:
		return it.node.ToXMLWithOptions(od)
	case ItemFunction:
		return ""
	default:
		return it.val.ToString()
	}
}

// ToJSON is defined only for documents/nodes; values emit their string
// form (JSON serialisation of bare scalars is not this engine's job —
// callers place them inside a document structure first).
func (it Item) ToJSON() string {
	switch it.kind {
	case ItemDocument:
		return it.doc.ToJSON()
	case ItemNode:
		return it.node.ToJSON()
	case ItemFunction:
		return ""
	default:
		return it.val.ToString()
	}
}

// ToBool returns the Effective Boolean Value of the item.
func (it Item) ToBool() bool {
	switch it.kind {
	case ItemDocument, ItemNode:
		return true
	case ItemFunction:
		return false
	default:
		return it.val.ToBool()
	}
}

// ToInt fails for documents, nodes, and functions.
func (it Item) ToInt() (int64, error) {
	switch it.kind {
	case ItemDocument:
		return 0, xdmerror.New(xdmerror.TypeError, "type error: item is a document")
	case ItemNode:
		return 0, xdmerror.New(xdmerror.TypeError, "type error: item is a node")
	case ItemFunction:
		return 0, xdmerror.New(xdmerror.TypeError, "type error: item is a function")
	default:
		return it.val.ToInt()
	}
}

// Name returns the item's name, or the empty QualifiedName for items that
// don't have one.
func (it Item) Name() qname.QualifiedName {
	if it.kind == ItemNode {
		return it.node.Name()
	}
	return qname.Empty
}

// IsElementNode is a fast check for "is this item an element-type node".
func (it Item) IsElementNode() bool {
	return it.kind == ItemNode && it.node.NodeType() == ElementNodeType
}

// ItemType returns a stable type tag, e.g. "Document", "Node", "Function",
// or a value type tag like "xs:string".
func (it Item) ItemType() string {
	switch it.kind {
	case ItemDocument:
		return "Document"
	case ItemNode:
		return "Node"
	case ItemFunction:
		return "Function"
	default:
		return it.val.ValueType()
	}
}

// Compare implements the cross-kind comparison policy: value-value
// delegates to Value; value-node compares the value against the node's
// string value; node-value is the symmetric case; node-node compares
// string values as strings; any comparison touching a function item is a
// TypeError.
func (it Item) Compare(other Item, op value.Operator) (bool, error) {
	switch it.kind {
	case ItemValue:
		switch other.kind {
		case ItemValue:
			return it.val.Compare(other.val, op)
		case ItemDocument, ItemNode:
			return it.val.Compare(value.NewString(other.ToString()), op)
		default:
			return false, xdmerror.New(xdmerror.TypeError, "cannot compare value with function item")
		}
	case ItemDocument, ItemNode:
		switch other.kind {
		case ItemValue:
			return value.NewString(it.ToString()).Compare(other.val, op)
		case ItemDocument, ItemNode:
			a, b := it.ToString(), other.ToString()
			switch op {
			case value.OpEq, value.OpGeneralEq:
				return a == b, nil
			case value.OpNe, value.OpGeneralNe:
				return a != b, nil
			case value.OpLt:
				return a < b, nil
			case value.OpLe:
				return a <= b, nil
			case value.OpGt:
				return a > b, nil
			case value.OpGe:
				return a >= b, nil
			}
			return value.NewString(a).Compare(value.NewString(b), op)
		default:
			return false, xdmerror.New(xdmerror.TypeError, "cannot compare node with function item")
		}
	default:
		return false, xdmerror.New(xdmerror.TypeError, "cannot compare function item")
	}
}
