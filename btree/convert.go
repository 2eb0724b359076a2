package btree

import (
	"weak"

	"github.com/wilkmaciej/xdm/atree"
	"github.com/wilkmaciej/xdm/qname"
	"github.com/wilkmaciej/xdm/xdmerror"
)

// maxEntityDepth bounds general-entity expansion recursion: an entity
// whose own replacement text (transitively) references itself would
// otherwise expand forever.
const maxEntityDepth = 32

// ParseContentFunc re-parses a string as an XML content production,
// returning the resulting build-phase nodes. Convert takes this as a
// parameter, rather than importing the grammar package directly, so that
// the grammar package can depend on btree (to build the final navigable
// tree) without creating an import cycle.
type ParseContentFunc func(raw string) ([]*atree.Node, error)

// Convert performs the A→B conversion: it collects general entities from
// the prologue, then builds the navigable tree, expanding Reference-type
// A-nodes into the substituted content as it goes.
func Convert(a *atree.Doc, parseContent ParseContentFunc) (*Doc, error) {
	entities, err := collectEntities(a, parseContent)
	if err != nil {
		return nil, err
	}

	doc := &Doc{}
	doc.self = weak.Make(doc)
	docRef := doc.self

	var noParent weak.Pointer[Node]
	prologue, err := convertChildren(a.Prologue, docRef, noParent, entities, parseContent, 0)
	if err != nil {
		return nil, err
	}
	content, err := convertChildren(a.Content, docRef, noParent, entities, parseContent, 0)
	if err != nil {
		return nil, err
	}
	epilogue, err := convertChildren(a.Epilogue, docRef, noParent, entities, parseContent, 0)
	if err != nil {
		return nil, err
	}

	doc.xmlDecl = a.XMLDecl
	doc.prologue = prologue
	doc.content = content
	doc.epilogue = epilogue
	return doc, nil
}

// collectEntities walks the prologue's DTD declarations, re-parsing each
// general entity's raw replacement text as content. A declaration whose
// text fails to parse as a complete content production, or that repeats a
// name already declared, is an error.
func collectEntities(a *atree.Doc, parseContent ParseContentFunc) (*qname.NameMap[[]*atree.Node], error) {
	entities := qname.NewNameMap[[]*atree.Node]()
	for _, n := range a.Prologue {
		d := n.DTD()
		if d == nil || d.Kind != atree.GeneralEntity {
			continue
		}
		if entities.Has(d.Name) {
			return nil, xdmerror.NewWithCode(xdmerror.ParseError, "EntityRedefined",
				"general entity \""+d.Name.String()+"\" is declared more than once")
		}
		nodes, err := parseContent(d.Text)
		if err != nil {
			return nil, xdmerror.NewWithCode(xdmerror.ParseError, "EntityParseError",
				"entity \""+d.Name.String()+"\" replacement text is not well-formed content: "+err.Error())
		}
		entities.Set(d.Name, nodes)
	}
	return entities, nil
}

// convertChildren converts a run of A-tree siblings into B-tree nodes,
// flattening Reference-node expansions inline so the result is the actual
// child list (with correct, contiguous sibling indices).
func convertChildren(
	as []*atree.Node,
	doc weak.Pointer[Doc],
	parent weak.Pointer[Node],
	entities *qname.NameMap[[]*atree.Node],
	parseContent ParseContentFunc,
	depth int,
) ([]*Node, error) {
	var out []*Node
	for _, an := range as {
		if ref := an.Reference(); ref != nil {
			expanded, err := expandReference(*ref, doc, parent, entities, parseContent, depth)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)
			continue
		}
		bn, err := convertNode(an, doc, parent, entities, parseContent, depth)
		if err != nil {
			return nil, err
		}
		out = append(out, bn)
	}
	for i, n := range out {
		n.siblingIndex = i
	}
	return out, nil
}

// expandReference substitutes a general-entity reference with its
// (already re-parsed) replacement content, converted as if the content
// had appeared literally at the reference's position. depth tracks
// nested entity expansion to enforce maxEntityDepth.
func expandReference(
	name qname.QualifiedName,
	doc weak.Pointer[Doc],
	parent weak.Pointer[Node],
	entities *qname.NameMap[[]*atree.Node],
	parseContent ParseContentFunc,
	depth int,
) ([]*Node, error) {
	if depth >= maxEntityDepth {
		return nil, xdmerror.NewWithCode(xdmerror.ParseError, "EntityParseError",
			"general entity expansion exceeded maximum depth ("+name.String()+")")
	}
	replacement, ok := entities.Get(name)
	if !ok {
		return nil, xdmerror.NewWithCode(xdmerror.Unknown, "UnknownEntity",
			"reference to undeclared general entity \""+name.String()+"\"")
	}
	return convertChildren(replacement, doc, parent, entities, parseContent, depth+1)
}

// convertNode converts a single non-reference A-node, recursively
// converting its children and attributes. The node's own weak pointer is
// established before its children are built, so each child can capture a
// stable back-reference to it.
func convertNode(
	an *atree.Node,
	doc weak.Pointer[Doc],
	parent weak.Pointer[Node],
	entities *qname.NameMap[[]*atree.Node],
	parseContent ParseContentFunc,
	depth int,
) (*Node, error) {
	bn := &Node{
		document: doc,
		parent:   parent,
		nodeType: an.NodeType(),
	}
	if an.Name() != nil {
		bn.name = *an.Name()
	} else if an.PIName() != nil {
		bn.name = qname.New("", "", *an.PIName())
	}
	if an.Value() != nil {
		bn.val = *an.Value()
	}

	selfRef := weak.Make(bn)

	children, err := convertChildren(an.Children(), doc, selfRef, entities, parseContent, depth)
	if err != nil {
		return nil, err
	}
	bn.children = children

	var attrs []*Node
	an.Attributes().Range(func(name qname.QualifiedName, attr *atree.Node) bool {
		ban, aerr := convertNode(attr, doc, selfRef, entities, parseContent, depth)
		if aerr != nil {
			err = aerr
			return false
		}
		ban.name = name
		attrs = append(attrs, ban)
		return true
	})
	if err != nil {
		return nil, err
	}
	bn.attributes = attrs

	return bn, nil
}
