package transform

import (
	"strconv"
	"strings"
	"testing"

	"github.com/wilkmaciej/xdm/btree"
	"github.com/wilkmaciej/xdm/qname"
	"github.com/wilkmaciej/xdm/value"
	"github.com/wilkmaciej/xdm/xdm"
	"github.com/wilkmaciej/xdm/xdmerror"
	"github.com/wilkmaciej/xdm/xmlparse"
)

// parseSource is a small t.Helper() wrapper, in the teacher's parseOne/
// parseAll style, for the source documents each scenario below transforms.
func parseSource(t *testing.T, src string) *btree.Doc {
	t.Helper()
	doc, err := xmlparse.Parse(strings.NewReader(src), "")
	if err != nil {
		t.Fatalf("failed to parse source document: %v", err)
	}
	return doc
}

//=============================================================================
// S1: literal result text, template match='/' => "Found the document"
//=============================================================================

func TestLiteralText(t *testing.T) {
	doc := parseSource(t, "<Test><Level1>one</Level1><Level1>two</Level1></Test>")
	root, _ := doc.RootElement()

	sc := NewStaticContext()
	dc := NewDynamicContext(sc, "")
	dc.SetContext(xdm.Sequence{xdm.NewNodeItem(root)}, 1)

	dc.Result().Text("Found the document")

	if got := dc.Result().ToString(); got != "Found the document" {
		t.Errorf("got %q, want %q", got, "Found the document")
	}
}

//=============================================================================
// S2/S3: xsl:value-of, default escaping vs disable-output-escaping='yes'
//=============================================================================

func TestValueOfDefaultEscaping(t *testing.T) {
	doc := parseSource(t, "<Test>special &lt; less than</Test>")
	root, _ := doc.RootElement()

	dc := NewDynamicContext(NewStaticContext(), "")
	dc.Result().Text(root.ToString())

	want := "special &lt; less than"
	if got := dc.Result().ToXML(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestValueOfDisableOutputEscaping(t *testing.T) {
	doc := parseSource(t, "<Test>special &lt; less than</Test>")
	root, _ := doc.RootElement()

	dc := NewDynamicContext(NewStaticContext(), "")
	dc.Result().RawText(root.ToString())

	want := "special < less than"
	if got := dc.Result().ToXML(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

//=============================================================================
// S4: xsl:comment replacing each Level1 element in document order
//=============================================================================

func TestCommentReplacement(t *testing.T) {
	doc := parseSource(t, "<Test>one<Level1/>two<Level1/>three<Level1/>four<Level1/></Test>")
	root, _ := doc.RootElement()

	dc := NewDynamicContext(NewStaticContext(), "")
	it := root.(*btree.Node).ChildIter()
	for n, ok := it.Next(); ok; n, ok = it.Next() {
		child := n.(*btree.Node)
		switch child.NodeType() {
		case xdm.TextNodeType:
			dc.Result().Text(child.Value().ToString())
		case xdm.ElementNodeType:
			dc.Result().Comment(" this is a level 1 element ")
		}
	}

	want := "one<!-- this is a level 1 element -->two<!-- this is a level 1 element -->" +
		"three<!-- this is a level 1 element -->four<!-- this is a level 1 element -->"
	if got := dc.Result().ToXML(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

//=============================================================================
// S5: xsl:key population and count(key('mykey', 'blue'))
//=============================================================================

func TestKeyPopulationAndLookup(t *testing.T) {
	doc := parseSource(t, "<Test><one>blue</one><two>yellow</two><three>green</three><four>blue</four></Test>")

	dc := NewDynamicContext(NewStaticContext(), "")
	if err := dc.DefineKey("mykey", "child::*", "child::text()"); err != nil {
		t.Fatalf("DefineKey failed: %v", err)
	}
	if err := dc.PopulateKeys(doc); err != nil {
		t.Fatalf("PopulateKeys failed: %v", err)
	}

	matches := dc.Key("mykey", "blue")
	dc.Result().Text("#blue = " + strconv.Itoa(len(matches)))

	want := "#blue = 2"
	if got := dc.Result().ToString(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestKeyLookupMissingValueIsEmpty(t *testing.T) {
	doc := parseSource(t, "<Test><one>blue</one></Test>")

	dc := NewDynamicContext(NewStaticContext(), "")
	if err := dc.DefineKey("mykey", "child::*", "child::text()"); err != nil {
		t.Fatalf("DefineKey failed: %v", err)
	}
	if err := dc.PopulateKeys(doc); err != nil {
		t.Fatalf("PopulateKeys failed: %v", err)
	}

	if matches := dc.Key("mykey", "purple"); len(matches) != 0 {
		t.Errorf("expected no matches for an unbound key value, got %d", len(matches))
	}
}

//=============================================================================
// S6: xsl:message, with and without terminate='yes'
//=============================================================================

func TestMessageWithoutTerminate(t *testing.T) {
	var msgs []string
	sc := NewStaticContext(WithMessageSink(func(text string) error {
		msgs = append(msgs, text)
		return nil
	}))
	dc := NewDynamicContext(sc, "")

	for i := 0; i < 4; i++ {
		if err := dc.Message("here is a level 1 element", false); err != nil {
			t.Fatalf("unexpected error from non-terminating message: %v", err)
		}
	}

	if len(msgs) != 4 {
		t.Fatalf("got %d messages, want 4", len(msgs))
	}
	if msgs[0] != "here is a level 1 element" {
		t.Errorf("got message %q, want %q", msgs[0], "here is a level 1 element")
	}
}

func TestMessageTerminate(t *testing.T) {
	var msgs []string
	sc := NewStaticContext(WithMessageSink(func(text string) error {
		msgs = append(msgs, text)
		return nil
	}))
	dc := NewDynamicContext(sc, "")

	err := dc.Message("here is a level 1 element", true)
	if err == nil {
		t.Fatal("expected an error from a terminating message")
	}
	if !xdmerror.Is(err, xdmerror.Terminated) {
		t.Errorf("expected Terminated error kind, got %v", err)
	}
	e, ok := err.(*xdmerror.Error)
	if !ok {
		t.Fatalf("expected *xdmerror.Error, got %T", err)
	}
	if e.Code != "XTMM9000" {
		t.Errorf("got code %q, want %q", e.Code, "XTMM9000")
	}
	if e.Message != "here is a level 1 element" {
		t.Errorf("got message %q, want %q", e.Message, "here is a level 1 element")
	}
	if len(msgs) != 1 || msgs[0] != "here is a level 1 element" {
		t.Errorf("expected the sink to still receive the message before terminating, got %v", msgs)
	}
}

//=============================================================================
// Include resolution
//=============================================================================

func TestIncludeResolutionUsesInjectedResolver(t *testing.T) {
	var requested string
	sc := NewStaticContext(WithIncludeResolver(func(href string) (string, error) {
		requested = href
		return "<xsl:stylesheet/>", nil
	}))
	dc := NewDynamicContext(sc, "http://example.com/styles/base.xsl")

	text, err := dc.Include("included.xsl")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "<xsl:stylesheet/>" {
		t.Errorf("got %q, want the resolver's replacement text", text)
	}
	if requested != "http://example.com/styles/included.xsl" {
		t.Errorf("got resolved href %q, want %q", requested, "http://example.com/styles/included.xsl")
	}
}

func TestIncludeResolutionWithoutResolverFails(t *testing.T) {
	dc := NewDynamicContext(NewStaticContext(), "")
	if _, err := dc.Include("included.xsl"); err == nil {
		t.Fatal("expected an error when no include resolver is configured")
	}
}

//=============================================================================
// Variable bindings
//=============================================================================

func TestVariableBindingRoundTrip(t *testing.T) {
	dc := NewDynamicContext(NewStaticContext(), "")
	name := qname.New("", "", "greeting")

	if _, ok := dc.Variable(name); ok {
		t.Fatal("expected no binding before SetVariable")
	}
	dc.SetVariable(name, xdm.Sequence{xdm.NewValueItem(value.NewString("hi"))})
	seq, ok := dc.Variable(name)
	if !ok || seq.ToString() != "hi" {
		t.Errorf("got %v, %v, want bound sequence \"hi\"", seq, ok)
	}
}
