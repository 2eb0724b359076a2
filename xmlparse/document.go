package xmlparse

import (
	"io"
	"regexp"
	"strings"

	"github.com/orisano/gosax"
	"github.com/wilkmaciej/xdm/atree"
	"github.com/wilkmaciej/xdm/btree"
	"github.com/wilkmaciej/xdm/qname"
	"github.com/wilkmaciej/xdm/value"
	"github.com/wilkmaciej/xdm/xdm"
	"github.com/wilkmaciej/xdm/xdmerror"
)

// Parse parses r as a complete XML document and converts the result into
// a navigable document, combining ParseDocument and btree.Convert — the
// entry point most callers want.
func Parse(r io.Reader, baseURI string) (*btree.Doc, error) {
	a, err := ParseDocument(r, baseURI)
	if err != nil {
		return nil, err
	}
	return btree.Convert(a, ParseContentFragment)
}

// position tracks where the tokenizer currently is relative to the root
// element, since nodes before/after it belong to the document's
// Prologue/Epilogue rather than its Content.
type position int

const (
	beforeRoot position = iota
	inRoot
	afterRoot
)

// docBuilder accumulates the pieces of an atree.Doc while the gosax event
// loop runs.
type docBuilder struct {
	state     *ParserState
	stack     []*atree.Node
	openNames []string
	prologue  []*atree.Node
	content   []*atree.Node
	epilogue  []*atree.Node
	pos       position
	sawRoot   bool
}

func (b *docBuilder) append(n *atree.Node) {
	switch {
	case len(b.stack) > 0:
		// Pushing errors never occur here: only a just-built, still-
		// unshared node sits on the top of the stack.
		_ = b.stack[len(b.stack)-1].Push(n)
	case b.pos == beforeRoot:
		b.prologue = append(b.prologue, n)
	case b.pos == afterRoot:
		b.epilogue = append(b.epilogue, n)
	default:
		b.content = append(b.content, n)
	}
}

// entityTextMap exposes the general entities declared so far as a plain
// name->text map, the shape normalizeAttrValue and splitContentText need.
func (b *docBuilder) entityTextMap() map[string]string {
	m := make(map[string]string, len(b.state.entities))
	for _, d := range b.state.entities {
		m[d.Name.Local] = d.Text
	}
	return m
}

// doctypeEntity matches one internal-subset general entity declaration:
// <!ENTITY name "replacement"> (or single-quoted). External and
// parameter entities are not supported, matching the Non-goal that DTD
// support is limited to internal-subset general entities.
var doctypeEntity = regexp.MustCompile(`<!ENTITY\s+(\S+)\s+(?:"([^"]*)"|'([^']*)')\s*>`)

// ParseDocument tokenizes r (already UTF-8, see DecodeReader) into an
// atree.Doc: a gosax.Reader drives the outer element/text/comment/PI
// loop the way the xml-streamer Parser does, while the grammar functions
// in grammar.go validate and normalise each token's substructure (names,
// attribute values, comments, PI targets); names and attribute lists are
// parsed with parsec combinators.
func ParseDocument(r io.Reader, baseURI string) (*atree.Doc, error) {
	b := &docBuilder{state: NewParserState(baseURI)}

	reader := gosax.NewReaderSize(r, 1024*1024)
	for {
		e, err := reader.Event()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, xdmerror.New(xdmerror.ParseError, "tokenizer error: "+err.Error())
		}
		switch e.Type() {
		case gosax.EventEOF:
			goto done

		case gosax.EventDocType:
			if err := handleDirective(b, e.Bytes); err != nil {
				return nil, err
			}

		case gosax.EventProcessingInstruction:
			if err := handleProcInst(b, e.Bytes); err != nil {
				return nil, err
			}

		case gosax.EventComment:
			if err := handleComment(b, e.Bytes); err != nil {
				return nil, err
			}

		case gosax.EventStart:
			if err := handleStart(b, e.Bytes); err != nil {
				return nil, err
			}

		case gosax.EventEnd:
			if err := handleEnd(b, e.Bytes); err != nil {
				return nil, err
			}

		case gosax.EventText:
			if err := handleText(b, e.Bytes); err != nil {
				return nil, err
			}

		case gosax.EventCData:
			if err := handleCData(b, e.Bytes); err != nil {
				return nil, err
			}
		}
	}
done:

	if len(b.stack) != 0 {
		return nil, xdmerror.New(xdmerror.NotWellFormed, "unexpected end of input: unclosed element")
	}

	// DTD general-entity declarations accumulate in ParserState as they're
	// seen, independent of document position; fold them into the prologue
	// now so btree.Convert's collectEntities can find them.
	b.prologue = append(b.prologue, b.state.Entities()...)

	doc := atree.NewDocBuilder().
		Prologue(b.prologue).
		Content(b.content).
		Epilogue(b.epilogue).
		Build()
	if !doc.WellFormed() {
		return nil, xdmerror.New(xdmerror.NotWellFormed, "document must have exactly one root element")
	}
	return doc, nil
}

// ParseContentFragment re-parses raw as a content production, the way a
// general entity's replacement text is re-parsed at A→B conversion time.
// It wraps raw in a synthetic root so the ordinary element/content
// grammar can run over it unchanged, then returns that root's children —
// this is the btree.ParseContentFunc this package hands to btree.Convert.
// raw is parsed without the enclosing document's entity declarations, so
// a general-entity reference inside raw fails as undeclared.
func ParseContentFragment(raw string) ([]*atree.Node, error) {
	doc, err := ParseDocument(strings.NewReader("<e>"+raw+"</e>"), "")
	if err != nil {
		return nil, err
	}
	root, _ := func() (*atree.Node, bool) {
		for _, n := range doc.Content {
			if n.NodeType() == xdm.ElementNodeType {
				return n, true
			}
		}
		return nil, false
	}()
	if root == nil {
		return nil, nil
	}
	return root.Children(), nil
}

// handleDirective processes a <!DOCTYPE ...> markup declaration,
// extracting any internal-subset general entity declarations.
func handleDirective(b *docBuilder, raw []byte) error {
	text := string(raw)
	for _, m := range doctypeEntity.FindAllStringSubmatch(text, -1) {
		name := m[1]
		replacement := m[2]
		if m[3] != "" {
			replacement = m[3]
		}
		if !isCompleteNCName(name) {
			return xdmerror.New(xdmerror.NotWellFormed, "invalid entity name in DOCTYPE: "+name)
		}
		b.state.DeclareEntity(qname.New("", "", name), replacement)
	}
	return nil
}

// handleProcInst processes a <?target data?> processing instruction.
func handleProcInst(b *docBuilder, raw []byte) error {
	inner := strings.TrimSuffix(strings.TrimPrefix(string(raw), "<?"), "?>")
	target, data, _ := strings.Cut(inner, " ")
	data = strings.TrimSpace(data)
	if err := validatePITarget(target); err != nil {
		return err
	}
	n := atree.NewNodeBuilder(xdm.ProcessingInstructionNodeType).
		PIName(target).
		Value(value.NewString(data)).
		Build()
	b.append(n)
	return nil
}

// handleComment processes a <!-- text --> comment.
func handleComment(b *docBuilder, raw []byte) error {
	text := string(raw)
	text = strings.TrimSuffix(strings.TrimPrefix(text, "<!--"), "-->")
	if err := validateComment(text); err != nil {
		return err
	}
	n := atree.NewNodeBuilder(xdm.CommentNodeType).Value(value.NewString(text)).Build()
	b.append(n)
	return nil
}

// handleStart processes a start (or self-closing) tag: two-pass
// namespace binding (collect this element's xmlns/xmlns:* declarations,
// push a scope, then resolve every name against the stack), attribute
// value normalisation, and the xml:space enumeration check. Any failure
// after the scope push pops it again before returning, so the namespace
// stack never desyncs from the element stack.
func handleStart(b *docBuilder, raw []byte) error {
	if len(b.stack) == 0 && b.sawRoot {
		return xdmerror.New(xdmerror.NotWellFormed, "document must have exactly one root element")
	}
	name, attrBytes := gosax.Name(raw)
	nameStr := string(name)
	selfClosing := len(raw) >= 2 && raw[len(raw)-2] == '/' && raw[len(raw)-1] == '>'

	rawAttrs, err := parseAttributes(string(attrBytes))
	if err != nil {
		return err
	}

	frame := nsFrame{}
	for _, a := range rawAttrs {
		switch {
		case a.name == "xmlns":
			frame[""] = a.value
		case strings.HasPrefix(a.name, "xmlns:"):
			prefix := a.name[len("xmlns:"):]
			if prefix == "xmlns" {
				return xdmerror.New(xdmerror.NotWellFormed, "xmlns cannot itself be namespace-prefixed")
			}
			if prefix == "xml" && a.value != qname.XMLNamespaceURI {
				return xdmerror.New(xdmerror.NotWellFormed, "the \"xml\" prefix must be bound to "+qname.XMLNamespaceURI)
			}
			frame[prefix] = a.value
		}
	}
	b.state.PushScope(frame)

	elemName, err := func() (qname.QualifiedName, error) {
		prefix, local, err := parseName(nameStr)
		if err != nil {
			return qname.QualifiedName{}, err
		}
		return b.state.bindElementName(prefix, local)
	}()
	if err != nil {
		b.state.PopScope()
		return err
	}

	elem := atree.NewNodeBuilder(xdm.ElementNodeType).Name(elemName).Build()

	entities := b.entityTextMap()
	for _, a := range rawAttrs {
		if a.name == "xmlns" || strings.HasPrefix(a.name, "xmlns:") {
			continue
		}
		prefix, local, err := parseName(a.name)
		if err != nil {
			b.state.PopScope()
			return err
		}
		attrName, err := b.state.bindAttributeName(prefix, local)
		if err != nil {
			b.state.PopScope()
			return err
		}
		normalized, err := normalizeAttrValue(a.value, entities)
		if err != nil {
			b.state.PopScope()
			return err
		}
		if prefix == "xml" && local == "space" {
			if err := validateXMLSpace(normalized); err != nil {
				b.state.PopScope()
				return err
			}
		}
		attrNode := atree.NewNodeBuilder(xdm.AttributeNodeType).Value(value.NewString(normalized)).Build()
		if err := elem.SetAttribute(attrName, attrNode); err != nil {
			b.state.PopScope()
			return err
		}
	}

	if selfClosing {
		b.state.PopScope()
		b.markRootIfNeeded()
		b.append(elem)
		if len(b.stack) == 0 {
			b.pos = afterRoot
		}
		return nil
	}

	// elem is pushed onto the stack, not yet into its parent: an A-tree
	// node is marked shared the moment it is pushed (Push/SetAttribute
	// refuse it afterwards), so elem must still be able to receive its
	// own children via Push when they arrive. It is appended to its real
	// parent (or the document's content/prologue/epilogue) only once
	// closed, in handleEnd.
	b.markRootIfNeeded()
	b.stack = append(b.stack, elem)
	b.openNames = append(b.openNames, nameStr)
	return nil
}

// markRootIfNeeded flips the document position to inRoot the first time
// an element is seen at depth 0, and to afterRoot once that element's
// matching end tag is processed (see handleEnd).
func (b *docBuilder) markRootIfNeeded() {
	if len(b.stack) == 0 && !b.sawRoot {
		b.sawRoot = true
		b.pos = inRoot
	}
}

// handleEnd processes an end tag: its name must match the element
// currently open at the top of the stack (XML's well-formedness
// constraint on matching tags; gosax itself does no nesting validation).
// The closed element is appended to its parent (or the document's
// content/prologue/epilogue, if top-level) only now, since it can no
// longer receive any more children; the namespace scope pushed for it is
// popped, and once the stack empties back out, the document position
// flips to afterRoot.
func handleEnd(b *docBuilder, raw []byte) error {
	if len(b.stack) == 0 {
		return xdmerror.New(xdmerror.NotWellFormed, "unmatched end tag")
	}
	name, _ := gosax.Name(raw)
	nameStr := string(name)
	open := b.openNames[len(b.openNames)-1]
	if nameStr != open {
		return xdmerror.New(xdmerror.NotWellFormed,
			"mismatched end tag: expected </"+open+"> but found </"+nameStr+">")
	}
	elem := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	b.openNames = b.openNames[:len(b.openNames)-1]
	b.state.PopScope()
	b.append(elem)
	if len(b.stack) == 0 {
		b.pos = afterRoot
	}
	return nil
}

// handleText processes character data: character and predefined entity
// references resolve inline; a general entity reference becomes a
// separate Reference-type sibling node, since its replacement may itself
// contain markup.
func handleText(b *docBuilder, raw []byte) error {
	if len(b.stack) == 0 {
		// Whitespace (or, for malformed input, stray text) outside the
		// root element carries no XDM meaning and is dropped.
		return nil
	}
	pieces, err := splitContentText(string(raw), b.entityTextMap())
	if err != nil {
		return err
	}
	for _, p := range pieces {
		var n *atree.Node
		if p.isRef {
			n = atree.NewNodeBuilder(xdm.TextNodeType).Reference(p.ref).Build()
		} else {
			if p.text == "" {
				continue
			}
			n = atree.NewNodeBuilder(xdm.TextNodeType).Value(value.NewString(p.text)).Build()
		}
		b.append(n)
	}
	return nil
}

// handleCData processes a <![CDATA[ ... ]]> section: its content is
// passed through as literal text with no reference expansion at all.
func handleCData(b *docBuilder, raw []byte) error {
	if len(b.stack) == 0 {
		return xdmerror.New(xdmerror.NotWellFormed, "CDATA section outside root element")
	}
	text := string(raw)
	text = strings.TrimSuffix(strings.TrimPrefix(text, "<![CDATA["), "]]>")
	n := atree.NewNodeBuilder(xdm.TextNodeType).Value(value.NewString(text)).Build()
	b.append(n)
	return nil
}
