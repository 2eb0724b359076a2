package btree

import (
	"github.com/wilkmaciej/xdm/xdm"
	"github.com/wilkmaciej/xpath"
)

// Navigator adapts a btree Node (or Doc) to github.com/wilkmaciej/xpath's
// NodeNavigator, so keys and match patterns can be compiled once with
// xpath.Compile and evaluated directly against the navigable tree.
type Navigator struct {
	root *Node
	// curr is the node the navigator is positioned on. It is nil only for
	// a navigator built by NewNavigatorFromDoc over a document with no
	// root element.
	curr *Node
	// attrIndex is the index into curr.attributes the navigator is
	// positioned on, or -1 when positioned on curr itself.
	attrIndex int
}

var _ xpath.NodeNavigator = (*Navigator)(nil)

// NewNavigator returns a Navigator positioned at root, which is also the
// node MoveToRoot returns to.
func NewNavigator(root *Node) *Navigator {
	return &Navigator{root: root, curr: root, attrIndex: -1}
}

// NewNavigatorFromDoc positions a Navigator at doc's root element, the
// conventional starting point for key and pattern evaluation.
func NewNavigatorFromDoc(doc *Doc) *Navigator {
	if root, ok := doc.RootElement(); ok {
		return NewNavigator(root.(*Node))
	}
	return &Navigator{attrIndex: -1}
}

// CurrentNode returns the Node the navigator is positioned on (the
// attribute node itself when positioned on an attribute), so callers
// matching key and template patterns can recover the concrete node a
// compiled expression walked to.
func (nav *Navigator) CurrentNode() *Node {
	if nav.attrIndex != -1 {
		return nav.curr.attributes[nav.attrIndex]
	}
	return nav.curr
}

func (nav *Navigator) NodeType() xpath.NodeType {
	if nav.attrIndex != -1 {
		return xpath.AttributeNode
	}
	if nav.curr == nil {
		return xpath.RootNode
	}
	if nav.curr == nav.root && nav.curr.parentNode() == nil {
		return xpath.RootNode
	}
	switch nav.curr.NodeType() {
	case xdm.TextNodeType:
		return xpath.TextNode
	case xdm.CommentNodeType, xdm.ProcessingInstructionNodeType:
		return xpath.CommentNode
	default:
		return xpath.ElementNode
	}
}

func (nav *Navigator) LocalName() string {
	if nav.attrIndex != -1 {
		return nav.curr.attributes[nav.attrIndex].name.Local
	}
	if nav.curr == nil {
		return ""
	}
	return nav.curr.name.Local
}

func (nav *Navigator) Prefix() string {
	if nav.attrIndex != -1 {
		return nav.curr.attributes[nav.attrIndex].name.Prefix
	}
	if nav.curr == nil {
		return ""
	}
	return nav.curr.name.Prefix
}

func (nav *Navigator) NamespaceURL() string {
	if nav.attrIndex != -1 {
		return nav.curr.attributes[nav.attrIndex].name.NSURI
	}
	if nav.curr == nil {
		return ""
	}
	return nav.curr.name.NSURI
}

func (nav *Navigator) Value() string {
	if nav.attrIndex != -1 {
		return nav.curr.attributes[nav.attrIndex].val.ToString()
	}
	if nav.curr == nil {
		return ""
	}
	return nav.curr.ToString()
}

func (nav *Navigator) Copy() xpath.NodeNavigator {
	cp := *nav
	return &cp
}

func (nav *Navigator) MoveToRoot() {
	nav.curr = nav.root
	nav.attrIndex = -1
}

func (nav *Navigator) MoveToParent() bool {
	if nav.attrIndex != -1 {
		nav.attrIndex = -1
		return true
	}
	if nav.curr == nil {
		return false
	}
	p := nav.curr.parentNode()
	if p == nil {
		return false
	}
	nav.curr = p
	return true
}

func (nav *Navigator) MoveToNextAttribute() bool {
	if nav.curr == nil {
		return false
	}
	if nav.attrIndex+1 >= len(nav.curr.attributes) {
		return false
	}
	nav.attrIndex++
	return true
}

func (nav *Navigator) MoveToChild() bool {
	if nav.attrIndex != -1 || nav.curr == nil {
		return false
	}
	if len(nav.curr.children) == 0 {
		return false
	}
	nav.curr = nav.curr.children[0]
	return true
}

func (nav *Navigator) MoveToFirst() bool {
	if nav.attrIndex != -1 || nav.curr == nil {
		return false
	}
	p := nav.curr.parentNode()
	if p == nil || nav.curr.siblingIndex == 0 {
		return false
	}
	nav.curr = p.children[0]
	return true
}

func (nav *Navigator) MoveToNext() bool {
	if nav.attrIndex != -1 || nav.curr == nil {
		return false
	}
	p := nav.curr.parentNode()
	if p == nil || nav.curr.siblingIndex+1 >= len(p.children) {
		return false
	}
	nav.curr = p.children[nav.curr.siblingIndex+1]
	return true
}

func (nav *Navigator) MoveToPrevious() bool {
	if nav.attrIndex != -1 || nav.curr == nil {
		return false
	}
	p := nav.curr.parentNode()
	if p == nil || nav.curr.siblingIndex == 0 {
		return false
	}
	nav.curr = p.children[nav.curr.siblingIndex-1]
	return true
}

func (nav *Navigator) MoveTo(other xpath.NodeNavigator) bool {
	o, ok := other.(*Navigator)
	if !ok || o.root != nav.root {
		return false
	}
	nav.curr = o.curr
	nav.attrIndex = o.attrIndex
	return true
}

func (nav *Navigator) String() string {
	return nav.Value()
}
