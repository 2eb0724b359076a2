package transform

import "strings"

// resultNodeKind enumerates the shapes a result-tree node can take. This
// is intentionally a much smaller set than xdm.NodeType: the result tree
// only ever holds what a template body can emit (text, possibly with
// output escaping disabled, elements, comments and processing
// instructions), never a document prologue/epilogue or attributes-as-
// siblings.
type resultNodeKind int

const (
	resultText resultNodeKind = iota
	resultRawText
	resultElement
	resultComment
	resultPI
)

type resultAttr struct {
	name  string
	value string
}

type resultNode struct {
	kind     resultNodeKind
	name     string // element name, or PI target
	text     string // text/raw-text/comment/PI content
	attrs    []resultAttr
	children []*resultNode
}

// ResultTree is the mutable "current result document" a transformation
// builds up as its templates run, mirroring the build-then-freeze shape
// atree.Doc uses for source documents: nodes accumulate under whichever
// element is currently open, then the whole tree serialises once, at the
// end, via ToString/ToXML.
type ResultTree struct {
	roots []*resultNode
	stack []*resultNode
}

// NewResultTree returns an empty result tree, positioned at the top level.
func NewResultTree() *ResultTree {
	return &ResultTree{}
}

func (rt *ResultTree) append(n *resultNode) {
	if len(rt.stack) > 0 {
		top := rt.stack[len(rt.stack)-1]
		top.children = append(top.children, n)
		return
	}
	rt.roots = append(rt.roots, n)
}

// Text appends a text node. Per xsl:value-of's default escaping policy,
// its content is escaped at serialisation time.
func (rt *ResultTree) Text(s string) {
	rt.append(&resultNode{kind: resultText, text: s})
}

// RawText appends a text node carrying disable-output-escaping='yes'
// content: it serialises verbatim, with no XML escaping at all.
func (rt *ResultTree) RawText(s string) {
	rt.append(&resultNode{kind: resultRawText, text: s})
}

// Comment appends an xsl:comment-produced comment node.
func (rt *ResultTree) Comment(s string) {
	rt.append(&resultNode{kind: resultComment, text: s})
}

// ProcessingInstruction appends an xsl:processing-instruction-produced PI
// node.
func (rt *ResultTree) ProcessingInstruction(target, data string) {
	rt.append(&resultNode{kind: resultPI, name: target, text: data})
}

// StartElement opens a literal result element and makes it the current
// insertion point; matching EndElement calls close elements in LIFO order.
func (rt *ResultTree) StartElement(name string, attrs ...resultAttr) {
	n := &resultNode{kind: resultElement, name: name, attrs: attrs}
	rt.append(n)
	rt.stack = append(rt.stack, n)
}

// Attr adds an attribute to the element most recently opened with
// StartElement that hasn't been closed yet.
func (rt *ResultTree) Attr(name, value string) {
	if len(rt.stack) == 0 {
		return
	}
	top := rt.stack[len(rt.stack)-1]
	top.attrs = append(top.attrs, resultAttr{name: name, value: value})
}

// EndElement closes the innermost still-open element.
func (rt *ResultTree) EndElement() {
	if len(rt.stack) == 0 {
		return
	}
	rt.stack = rt.stack[:len(rt.stack)-1]
}

// ToString is the concatenation of the string value of every node: text
// contributes its content (raw or escaped alike, since escaping only
// affects markup serialisation, not the string value), elements
// contribute their descendant text, comments and PIs contribute nothing.
func (rt *ResultTree) ToString() string {
	var sb strings.Builder
	for _, n := range rt.roots {
		writeResultString(n, &sb)
	}
	return sb.String()
}

func writeResultString(n *resultNode, sb *strings.Builder) {
	switch n.kind {
	case resultText, resultRawText:
		sb.WriteString(n.text)
	case resultElement:
		for _, c := range n.children {
			writeResultString(c, sb)
		}
	}
}

// ToXML serialises the result tree as XML.
func (rt *ResultTree) ToXML() string {
	var sb strings.Builder
	for _, n := range rt.roots {
		writeResultXML(n, &sb)
	}
	return sb.String()
}

func writeResultXML(n *resultNode, sb *strings.Builder) {
	switch n.kind {
	case resultText:
		sb.WriteString(escapeResultText(n.text))
	case resultRawText:
		sb.WriteString(n.text)
	case resultComment:
		sb.WriteString("<!--")
		sb.WriteString(n.text)
		sb.WriteString("-->")
	case resultPI:
		sb.WriteString("<?")
		sb.WriteString(n.name)
		sb.WriteString(" ")
		sb.WriteString(n.text)
		sb.WriteString("?>")
	case resultElement:
		sb.WriteString("<")
		sb.WriteString(n.name)
		for _, a := range n.attrs {
			sb.WriteString(" ")
			sb.WriteString(a.name)
			sb.WriteString("=\"")
			sb.WriteString(escapeResultAttr(a.value))
			sb.WriteString("\"")
		}
		if len(n.children) == 0 {
			sb.WriteString("></")
			sb.WriteString(n.name)
			sb.WriteString(">")
			return
		}
		sb.WriteString(">")
		for _, c := range n.children {
			writeResultXML(c, sb)
		}
		sb.WriteString("</")
		sb.WriteString(n.name)
		sb.WriteString(">")
	}
}

func escapeResultText(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

func escapeResultAttr(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", "\"", "&quot;")
	return r.Replace(s)
}
