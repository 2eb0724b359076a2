package atree

import (
	"testing"

	"github.com/wilkmaciej/xdm/qname"
	"github.com/wilkmaciej/xdm/value"
	"github.com/wilkmaciej/xdm/xdm"
)

func TestBuilderSetsFields(t *testing.T) {
	qn := qname.New("", "", "Test")
	n := NewNodeBuilder(xdm.ElementNodeType).Name(qn).Build()
	if n.NodeType() != xdm.ElementNodeType {
		t.Fatalf("expected element node type, got %v", n.NodeType())
	}
	if n.Name() == nil || !n.Name().Equal(qn) {
		t.Fatalf("expected name %v, got %v", qn, n.Name())
	}
}

func TestPushFailsOnceShared(t *testing.T) {
	parent := NewNodeBuilder(xdm.ElementNodeType).Build()
	child := NewNodeBuilder(xdm.TextNodeType).Value(value.NewString("hi")).Build()

	if err := parent.Push(child); err != nil {
		t.Fatalf("unexpected error pushing into unshared parent: %v", err)
	}
	// child is now shared (owned by parent); pushing into it should fail.
	grandchild := NewNodeBuilder(xdm.TextNodeType).Build()
	if err := child.Push(grandchild); err == nil {
		t.Fatal("expected Mutation error pushing into a shared node")
	}
}

func TestDocWellFormed(t *testing.T) {
	doc := NewDocBuilder().Build()
	doc.PushContent(NewNodeBuilder(xdm.ElementNodeType).Build())
	if !doc.WellFormed() {
		t.Error("expected document with exactly one element to be well-formed")
	}
	doc.PushContent(NewNodeBuilder(xdm.ElementNodeType).Build())
	if doc.WellFormed() {
		t.Error("expected document with two top-level elements to not be well-formed")
	}
}

func TestAttributesKeyedByQualifiedNameIgnoringPrefix(t *testing.T) {
	elem := NewNodeBuilder(xdm.ElementNodeType).Build()
	attrName := qname.New("http://example.org/ns", "x", "foo")
	attr := NewNodeBuilder(xdm.AttributeNodeType).Value(value.NewString("bar")).Build()
	if err := elem.SetAttribute(attrName, attr); err != nil {
		t.Fatalf("unexpected error setting attribute: %v", err)
	}
	lookup := qname.New("http://example.org/ns", "y", "foo")
	got, ok := elem.Attributes().Get(lookup)
	if !ok || got != attr {
		t.Errorf("expected attribute lookup to ignore prefix, got %v %v", got, ok)
	}
}
