package xmlparse

import (
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/wilkmaciej/xdm/btree"
	"github.com/wilkmaciej/xdm/qname"
	"github.com/wilkmaciej/xdm/xdm"
	"github.com/wilkmaciej/xdm/xdmerror"
)

func TestParseRootElement(t *testing.T) {
	doc, err := ParseDocument(strings.NewReader("<root/>"), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !doc.WellFormed() {
		t.Fatal("expected a well-formed document")
	}
	if doc.Content[0].Name().Local != "root" {
		t.Errorf("expected root element named \"root\", got %q", doc.Content[0].Name().Local)
	}
}

func TestParseRootElementText(t *testing.T) {
	doc, err := ParseDocument(strings.NewReader("<root>hello</root>"), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	root := doc.Content[0]
	if len(root.Children()) != 1 || root.Children()[0].NodeType() != xdm.TextNodeType {
		t.Fatalf("expected a single text child, got %v", root.Children())
	}
	if got := root.Children()[0].Value().ToString(); got != "hello" {
		t.Errorf("expected text \"hello\", got %q", got)
	}
}

func TestParseNestedElements(t *testing.T) {
	doc, err := ParseDocument(strings.NewReader("<a><b><c/></b></a>"), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := doc.Content[0]
	if len(a.Children()) != 1 || a.Children()[0].Name().Local != "b" {
		t.Fatalf("expected a single child \"b\", got %v", a.Children())
	}
	b := a.Children()[0]
	if len(b.Children()) != 1 || b.Children()[0].Name().Local != "c" {
		t.Fatalf("expected a single child \"c\", got %v", b.Children())
	}
}

func TestParseMixedContent(t *testing.T) {
	doc, err := ParseDocument(strings.NewReader("<a>one<b/>two</a>"), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := doc.Content[0]
	if len(a.Children()) != 3 {
		t.Fatalf("expected 3 children (text, element, text), got %d", len(a.Children()))
	}
	if a.Children()[0].NodeType() != xdm.TextNodeType || a.Children()[0].Value().ToString() != "one" {
		t.Errorf("expected first child text \"one\", got %v", a.Children()[0])
	}
	if a.Children()[1].NodeType() != xdm.ElementNodeType || a.Children()[1].Name().Local != "b" {
		t.Errorf("expected second child element \"b\", got %v", a.Children()[1])
	}
	if a.Children()[2].Value().ToString() != "two" {
		t.Errorf("expected third child text \"two\", got %v", a.Children()[2])
	}
}

func TestParseRejectsMismatchedEndTag(t *testing.T) {
	_, err := ParseDocument(strings.NewReader("<a><b></a></b>"), "")
	if err == nil {
		t.Fatal("expected an error for mismatched end tags")
	}
}

func TestParseNamespacedElementAndAttribute(t *testing.T) {
	src := `<root xmlns="urn:default" xmlns:p="urn:p"><p:child p:attr="v"/></root>`
	doc, err := ParseDocument(strings.NewReader(src), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	root := doc.Content[0]
	if root.Name().NSURI != "urn:default" {
		t.Errorf("expected root bound to urn:default, got %q", root.Name().NSURI)
	}
	child := root.Children()[0]
	if child.Name().NSURI != "urn:p" || child.Name().Local != "child" {
		t.Errorf("expected child urn:p#child, got %v", child.Name())
	}
	attr, ok := child.Attributes().Get(qname.New("urn:p", "", "attr"))
	if !ok || attr.Value().ToString() != "v" {
		t.Errorf("expected attribute urn:p#attr = \"v\", got %v %v", attr, ok)
	}
}

func TestParseMissingNamespaceFails(t *testing.T) {
	_, err := ParseDocument(strings.NewReader(`<p:root/>`), "")
	if !xdmerror.Is(err, xdmerror.MissingNamespace) {
		t.Errorf("expected MissingNamespace, got %v", err)
	}
}

func TestParseRejectsXmlnsPrefixedXmlns(t *testing.T) {
	_, err := ParseDocument(strings.NewReader(`<root xmlns:xmlns="urn:bad"/>`), "")
	if !xdmerror.Is(err, xdmerror.NotWellFormed) {
		t.Errorf("expected NotWellFormed error, got %v", err)
	}
}

func TestParseRejectsXmlnsXmlBoundToWrongURI(t *testing.T) {
	_, err := ParseDocument(strings.NewReader(`<root xmlns:xml="urn:bad"/>`), "")
	if !xdmerror.Is(err, xdmerror.NotWellFormed) {
		t.Errorf("expected NotWellFormed error, got %v", err)
	}
}

func TestParseValidatesXmlSpace(t *testing.T) {
	_, err := ParseDocument(strings.NewReader(`<root xml:space="sideways"/>`), "")
	if !xdmerror.Is(err, xdmerror.Validation) {
		t.Errorf("expected Validation error for bad xml:space, got %v", err)
	}
}

func TestParseGeneralEntityLeavesReferenceNode(t *testing.T) {
	src := `<!DOCTYPE root [<!ENTITY greeting "hi there">]><root>&greeting;</root>`
	a, err := ParseDocument(strings.NewReader(src), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	root := a.Content[0]
	if len(root.Children()) != 1 || root.Children()[0].Reference() == nil {
		t.Fatalf("expected a single Reference-type child, got %v", root.Children())
	}
}

func TestParseEndToEndWithBTree(t *testing.T) {
	src := `<!DOCTYPE root [<!ENTITY greeting "hi there">]><root>&greeting;</root>`
	doc, err := Parse(strings.NewReader(src), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	root, ok := doc.RootElement()
	if !ok {
		t.Fatal("expected a root element")
	}
	if got := root.ToString(); got != "hi there" {
		t.Errorf("expected expanded text \"hi there\", got %q", got)
	}
}

func TestValidateCommentRejectsDoubleHyphen(t *testing.T) {
	if err := validateComment("bad -- comment"); !xdmerror.Is(err, xdmerror.NotWellFormed) {
		t.Errorf("expected NotWellFormed for \"--\" in comment, got %v", err)
	}
}

func TestValidatePITargetRejectsXML(t *testing.T) {
	if err := validatePITarget("XML"); !xdmerror.Is(err, xdmerror.NotWellFormed) {
		t.Errorf("expected NotWellFormed for reserved PI target, got %v", err)
	}
}

// nodeShape is a plain, comparable projection of a btree.Node subtree:
// enough structure to check that parse . to_xml is identity on the
// abstract tree, without dragging the weak back-pointers and unexported
// fields of the real node type into the comparison.
type nodeShape struct {
	Type     xdm.NodeType
	NSURI    string
	Local    string
	Text     string
	Attrs    []string
	Children []nodeShape
}

func shapeOf(n *btree.Node) nodeShape {
	s := nodeShape{Type: n.NodeType()}
	switch n.NodeType() {
	case xdm.ElementNodeType:
		s.NSURI = n.Name().NSURI
		s.Local = n.Name().Local
		for _, a := range n.Attributes() {
			s.Attrs = append(s.Attrs, a.Name().String()+"="+a.Value().ToString())
		}
		sort.Strings(s.Attrs)
	case xdm.TextNodeType, xdm.CommentNodeType:
		s.Text = n.Value().ToString()
	case xdm.ProcessingInstructionNodeType:
		s.Local = n.Name().Local
		s.Text = n.Value().ToString()
	}
	it := n.ChildIter()
	for c, ok := it.Next(); ok; c, ok = it.Next() {
		s.Children = append(s.Children, shapeOf(c.(*btree.Node)))
	}
	return s
}

// TestParseToXMLRoundTripIsIdentityOnTree checks the parser property that
// re-parsing a document's own serialised form reproduces the same
// abstract tree shape: parse, serialise with ToXML, re-parse, and diff
// the two root elements' projections with cmp.
func TestParseToXMLRoundTripIsIdentityOnTree(t *testing.T) {
	src := `<root a="1" xmlns:p="urn:p"><p:child>text &amp; more</p:child><!--note--><?pi data?><empty/></root>`

	doc, err := Parse(strings.NewReader(src), "")
	if err != nil {
		t.Fatalf("unexpected error parsing source: %v", err)
	}
	root, ok := doc.RootElement()
	if !ok {
		t.Fatal("expected a root element")
	}

	roundTripped, err := Parse(strings.NewReader(doc.ToXML()), "")
	if err != nil {
		t.Fatalf("unexpected error parsing round-tripped XML: %v", err)
	}
	roundTrippedRoot, ok := roundTripped.RootElement()
	if !ok {
		t.Fatal("expected a root element after round-trip")
	}

	before := shapeOf(root.(*btree.Node))
	after := shapeOf(roundTrippedRoot.(*btree.Node))
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("round-trip changed the abstract tree (-before +after):\n%s", diff)
	}
}
