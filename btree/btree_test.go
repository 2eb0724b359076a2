package btree

import (
	"testing"

	"github.com/wilkmaciej/xdm/atree"
	"github.com/wilkmaciej/xdm/qname"
	"github.com/wilkmaciej/xdm/value"
	"github.com/wilkmaciej/xdm/xdm"
)

// buildSample constructs an A-tree for <root><child>hi</child><child>bye</child></root>.
func buildSample(t *testing.T) *atree.Doc {
	t.Helper()
	mk := func(text string) *atree.Node {
		return atree.NewNodeBuilder(xdm.ElementNodeType).
			Name(qname.New("", "", "child")).
			Build()
	}
	child1 := mk("hi")
	if err := child1.Push(atree.NewNodeBuilder(xdm.TextNodeType).Value(value.NewString("hi")).Build()); err != nil {
		t.Fatalf("unexpected push error: %v", err)
	}
	child2 := mk("bye")
	if err := child2.Push(atree.NewNodeBuilder(xdm.TextNodeType).Value(value.NewString("bye")).Build()); err != nil {
		t.Fatalf("unexpected push error: %v", err)
	}
	root := atree.NewNodeBuilder(xdm.ElementNodeType).Name(qname.New("", "", "root")).Build()
	if err := root.Push(child1); err != nil {
		t.Fatalf("unexpected push error: %v", err)
	}
	if err := root.Push(child2); err != nil {
		t.Fatalf("unexpected push error: %v", err)
	}
	return atree.NewDocBuilder().Content([]*atree.Node{root}).Build()
}

func noContent(string) ([]*atree.Node, error) { return nil, nil }

func TestConvertBuildsNavigableTree(t *testing.T) {
	a := buildSample(t)
	doc, err := Convert(a, noContent)
	if err != nil {
		t.Fatalf("unexpected conversion error: %v", err)
	}
	root, ok := doc.RootElement()
	if !ok {
		t.Fatal("expected a root element")
	}
	if root.Name().Local != "root" {
		t.Errorf("expected root name \"root\", got %q", root.Name().Local)
	}
	if got := root.ToString(); got != "hibye" {
		t.Errorf("expected concatenated text \"hibye\", got %q", got)
	}
}

func TestConvertParentAndSiblingAxes(t *testing.T) {
	a := buildSample(t)
	doc, err := Convert(a, noContent)
	if err != nil {
		t.Fatalf("unexpected conversion error: %v", err)
	}
	root, _ := doc.RootElement()
	it := root.ChildIter()
	first, ok := it.Next()
	if !ok {
		t.Fatal("expected a first child")
	}
	second, ok := it.Next()
	if !ok {
		t.Fatal("expected a second child")
	}

	parent, ok := xdm.Parent(first)
	if !ok || parent.Name().Local != "root" {
		t.Errorf("expected first child's parent to be root, got %v %v", parent, ok)
	}

	followIt := first.FollowingSiblingIter()
	next, ok := followIt.Next()
	if !ok || next != second {
		t.Errorf("expected first's following sibling to be second")
	}

	precedeIt := second.PrecedingSiblingIter()
	prev, ok := precedeIt.Next()
	if !ok || prev != first {
		t.Errorf("expected second's preceding sibling to be first")
	}
}

func TestConvertUnknownEntityFails(t *testing.T) {
	ref := atree.NewNodeBuilder(xdm.TextNodeType).Reference(qname.New("", "", "undeclared")).Build()
	root := atree.NewNodeBuilder(xdm.ElementNodeType).Name(qname.New("", "", "root")).Build()
	if err := root.Push(ref); err != nil {
		t.Fatalf("unexpected push error: %v", err)
	}
	a := atree.NewDocBuilder().Content([]*atree.Node{root}).Build()

	if _, err := Convert(a, noContent); err == nil {
		t.Fatal("expected UnknownEntity error")
	}
}

func TestConvertExpandsGeneralEntity(t *testing.T) {
	parse := func(raw string) ([]*atree.Node, error) {
		return []*atree.Node{atree.NewNodeBuilder(xdm.TextNodeType).Value(value.NewString(raw)).Build()}, nil
	}

	entityDecl := atree.NewNodeBuilder(xdm.TextNodeType).
		DTD(atree.DTDDecl{Kind: atree.GeneralEntity, Name: qname.New("", "", "greeting"), Text: "hello"}).
		Build()

	ref := atree.NewNodeBuilder(xdm.TextNodeType).Reference(qname.New("", "", "greeting")).Build()
	root := atree.NewNodeBuilder(xdm.ElementNodeType).Name(qname.New("", "", "root")).Build()
	if err := root.Push(ref); err != nil {
		t.Fatalf("unexpected push error: %v", err)
	}
	a := atree.NewDocBuilder().Prologue([]*atree.Node{entityDecl}).Content([]*atree.Node{root}).Build()

	doc, err := Convert(a, parse)
	if err != nil {
		t.Fatalf("unexpected conversion error: %v", err)
	}
	root2, _ := doc.RootElement()
	if got := root2.ToString(); got != "hello" {
		t.Errorf("expected expanded entity text \"hello\", got %q", got)
	}
}

func TestNavigatorWalksElementChildren(t *testing.T) {
	a := buildSample(t)
	doc, err := Convert(a, noContent)
	if err != nil {
		t.Fatalf("unexpected conversion error: %v", err)
	}
	nav := NewNavigatorFromDoc(doc)
	if nav.LocalName() != "root" {
		t.Fatalf("expected navigator to start at \"root\", got %q", nav.LocalName())
	}
	if !nav.MoveToChild() {
		t.Fatal("expected MoveToChild to succeed")
	}
	if nav.LocalName() != "child" {
		t.Errorf("expected first child named \"child\", got %q", nav.LocalName())
	}
	if !nav.MoveToNext() {
		t.Fatal("expected MoveToNext to succeed for second child")
	}
	if nav.MoveToNext() {
		t.Error("expected no third sibling")
	}
	if !nav.MoveToParent() {
		t.Fatal("expected MoveToParent to succeed")
	}
	if nav.LocalName() != "root" {
		t.Errorf("expected to be back at \"root\", got %q", nav.LocalName())
	}
}
