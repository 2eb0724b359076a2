// Package xmlparse implements the XML grammar: prologue and DTD general
// entity declarations, elements with two-pass namespace-aware attribute
// binding, attribute-value normalisation, content (text, child elements,
// CDATA, references, comments, processing instructions), building an
// atree.Doc that btree.Convert then turns into a navigable document.
//
// The outer document loop is a gosax.Reader token stream, the way the
// xml-streamer parser drives its element stack; names (including PI
// targets) and start-tag attribute lists are parsec combinators over the
// token's raw bytes, while attribute-value normalisation, character and
// entity references and the comment check scan the text directly. Either
// way, well-formedness violations are reported with the same closed
// error-kind set the rest of the engine uses.
package xmlparse

import (
	"github.com/wilkmaciej/xdm/atree"
	"github.com/wilkmaciej/xdm/qname"
	"github.com/wilkmaciej/xdm/xdm"
	"github.com/wilkmaciej/xdm/xdmerror"
)

// nsFrame is one level of the namespace stack: prefix -> URI bindings
// introduced by a single element's xmlns/xmlns:* attributes.
type nsFrame map[string]string

// ParserState carries the grammar's cross-token state: the namespace
// stack (innermost scope last), the DTD general entities collected from
// the prologue, and the document's base URI (used to resolve included
// stylesheets and, eventually, external entities — currently informational
// only, since external entities are out of scope).
type ParserState struct {
	nsStack []nsFrame
	entities []atree.DTDDecl
	baseURI  string
}

// NewParserState returns a ParserState seeded with the predefined "xml"
// binding required of every XML document.
func NewParserState(baseURI string) *ParserState {
	return &ParserState{
		nsStack: []nsFrame{{"xml": qname.XMLNamespaceURI}},
		baseURI: baseURI,
	}
}

// PushScope starts a new namespace scope for an element, pre-populated
// with frame (the xmlns/xmlns:* bindings declared on its start tag).
func (ps *ParserState) PushScope(frame nsFrame) {
	ps.nsStack = append(ps.nsStack, frame)
}

// PopScope ends the innermost namespace scope. Callers must pair every
// PushScope with exactly one PopScope, on both the success and the
// failure path of processing that element, so a mid-element error never
// leaves the stack unbalanced for the element's siblings.
func (ps *ParserState) PopScope() {
	ps.nsStack = ps.nsStack[:len(ps.nsStack)-1]
}

// Resolve looks up prefix against the namespace stack, innermost scope
// first. The empty prefix resolves the default namespace (possibly "").
func (ps *ParserState) Resolve(prefix string) (string, bool) {
	for i := len(ps.nsStack) - 1; i >= 0; i-- {
		if uri, ok := ps.nsStack[i][prefix]; ok {
			return uri, true
		}
	}
	if prefix == "" {
		return "", true
	}
	return "", false
}

// DeclareEntity records a general entity declaration from the internal
// DTD subset. Redefinition is caught later, at A→B conversion time, by
// btree.Convert — this just accumulates the raw declarations in
// declaration order.
func (ps *ParserState) DeclareEntity(name qname.QualifiedName, text string) {
	ps.entities = append(ps.entities, atree.DTDDecl{Kind: atree.GeneralEntity, Name: name, Text: text})
}

// Entities returns the accumulated general-entity declarations as
// atree.Node prologue entries, ready to place in atree.Doc.Prologue.
func (ps *ParserState) Entities() []*atree.Node {
	nodes := make([]*atree.Node, len(ps.entities))
	for i, d := range ps.entities {
		// collectEntities reads only DTD() from these placeholder nodes;
		// btree.Convert still carries them into the document's prologue as
		// Unknown-type nodes with no value, which serialise to nothing.
		nodes[i] = atree.NewNodeBuilder(xdm.UnknownNodeType).DTD(d).Build()
	}
	return nodes
}

// BaseURI returns the document's static base URI.
func (ps *ParserState) BaseURI() string { return ps.baseURI }

// bindElementName resolves an element name's prefix against the current
// scope. An unprefixed name takes the default namespace (possibly "");
// a prefix not bound by any enclosing scope is a MissingNamespace error.
func (ps *ParserState) bindElementName(prefix, local string) (qname.QualifiedName, error) {
	if prefix == "" {
		uri, _ := ps.Resolve("")
		return qname.New(uri, "", local), nil
	}
	uri, ok := ps.Resolve(prefix)
	if !ok {
		return qname.QualifiedName{}, xdmerror.New(xdmerror.MissingNamespace,
			"element prefix \""+prefix+"\" is not bound to a namespace")
	}
	return qname.New(uri, prefix, local), nil
}

// bindAttributeName resolves an attribute name's prefix against the
// current scope, applying the fixed-binding rules: "xmlns" cannot itself
// be prefixed with a namespace declaration, "xml" resolves to the reserved
// XML namespace URI bound in every ParserState, and any other prefix must
// be bound by some enclosing scope.
func (ps *ParserState) bindAttributeName(prefix, local string) (qname.QualifiedName, error) {
	if prefix == "" {
		// Unprefixed attributes never inherit the default namespace.
		return qname.New("", "", local), nil
	}
	if prefix == "xmlns" {
		return qname.QualifiedName{}, xdmerror.New(xdmerror.NotWellFormed, "xmlns cannot itself be namespace-prefixed")
	}
	uri, ok := ps.Resolve(prefix)
	if !ok {
		return qname.QualifiedName{}, xdmerror.New(xdmerror.MissingNamespace,
			"attribute prefix \""+prefix+"\" is not bound to a namespace")
	}
	return qname.New(uri, prefix, local), nil
}
