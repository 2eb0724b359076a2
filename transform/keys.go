package transform

import (
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/wilkmaciej/xdm/btree"
	"github.com/wilkmaciej/xdm/xdmerror"
	"github.com/wilkmaciej/xpath"
)

// KeyDef is one xsl:key declaration: a match pattern paired with a use
// expression, both compiled once via xpath.Compile and re-evaluated for
// every candidate node during key population.
type KeyDef struct {
	match *xpath.Expr
	use   *xpath.Expr
}

// DefineKey compiles and registers one xsl:key declaration under name.
// Multiple declarations can share a name, exactly as xsl:key allows: a
// node is added to the index under a key name if it satisfies any one of
// that name's match patterns.
func (dc *DynamicContext) DefineKey(name, matchPattern, useExpr string) error {
	match, err := xpath.Compile(matchPattern)
	if err != nil {
		return xdmerror.New(xdmerror.ParseError, "invalid key match pattern \""+matchPattern+"\": "+err.Error())
	}
	use, err := xpath.Compile(useExpr)
	if err != nil {
		return xdmerror.New(xdmerror.ParseError, "invalid key use expression \""+useExpr+"\": "+err.Error())
	}
	dc.keyDefs[name] = append(dc.keyDefs[name], KeyDef{match: match, use: use})
	return nil
}

// PopulateKeys runs the key population algorithm: for every node in
// source (document order) and every registered key, evaluate the key's
// match pattern; if it matches, evaluate the use expression against that
// node and bind its string value to the node in the key index. Lookups
// via Key return the matched node set in the document order key
// population visited them in.
func (dc *DynamicContext) PopulateKeys(source *btree.Doc) error {
	root, ok := source.RootElement()
	if !ok {
		return nil
	}
	rootNode := root.(*btree.Node)
	nodes := append([]*btree.Node{rootNode}, descendantNodes(rootNode)...)

	for name, defs := range dc.keyDefs {
		index := dc.keyIndex[name]
		if index == nil {
			index = make(map[string][]*btree.Node)
			dc.keyIndex[name] = index
		}
		for _, node := range nodes {
			matchRoot := parentOrSelf(node, rootNode)
			for _, def := range defs {
				matched, err := matchesPattern(node, matchRoot, def.match)
				if err != nil {
					return err
				}
				if !matched {
					continue
				}
				val, err := evalKeyUse(node, def.use)
				if err != nil {
					return err
				}
				index[val] = append(index[val], node)
				dc.static.Log().WithFields(logrus.Fields{"key": name, "value": val}).Debug("key population: matched node")
			}
		}
	}
	return nil
}

// Key returns the (possibly empty) node set bound to value under the
// named key, in document order.
func (dc *DynamicContext) Key(name, value string) []*btree.Node {
	return dc.keyIndex[name][value]
}

// descendantNodes returns n's descendants in document order, plus every
// element's attribute nodes (DescendantIter walks the children chain
// only, never attributes) so an xsl:key match pattern like "@id" has
// candidates to test against; btree.Navigator.CurrentNode reports the
// attribute node a pattern step selects, so matchesPattern can find them.
func descendantNodes(n *btree.Node) []*btree.Node {
	var out []*btree.Node
	out = append(out, n.Attributes()...)
	it := n.DescendantIter()
	for d, ok := it.Next(); ok; d, ok = it.Next() {
		dn := d.(*btree.Node)
		out = append(out, dn)
		out = append(out, dn.Attributes()...)
	}
	return out
}

func parentOrSelf(n, fallback *btree.Node) *btree.Node {
	it := n.AncestorIter()
	if p, ok := it.Next(); ok {
		return p.(*btree.Node)
	}
	return fallback
}

// matchesPattern tests whether node is selected by match when match is
// evaluated relative to matchRoot (node's parent, or the document root
// element for a top-level node) — the standard technique for testing a
// single-step match pattern: evaluate it as an ordinary path expression
// from the candidate's parent and check the candidate's membership in the
// resulting node-set.
func matchesPattern(node, matchRoot *btree.Node, match *xpath.Expr) (bool, error) {
	nav := btree.NewNavigator(matchRoot)
	result := match.Evaluate(nav)
	iter, ok := result.(*xpath.NodeIterator)
	if !ok {
		return false, nil
	}
	for iter.MoveNext() {
		cand, ok := iter.Current().(*btree.Navigator)
		if ok && cand.CurrentNode() == node {
			return true, nil
		}
	}
	return false, nil
}

// evalKeyUse evaluates use relative to node and renders the result as the
// key index's string value.
func evalKeyUse(node *btree.Node, use *xpath.Expr) (string, error) {
	nav := btree.NewNavigator(node)
	result := use.Evaluate(nav)
	switch v := result.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case *xpath.NodeIterator:
		if v.MoveNext() {
			if n, ok := v.Current().(*btree.Navigator); ok {
				return n.CurrentNode().ToString(), nil
			}
		}
		return "", nil
	default:
		return "", xdmerror.New(xdmerror.TypeError, "key use expression produced an unsupported result type")
	}
}
