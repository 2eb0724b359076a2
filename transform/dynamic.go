package transform

import (
	"github.com/wilkmaciej/xdm/btree"
	"github.com/wilkmaciej/xdm/qname"
	"github.com/wilkmaciej/xdm/xdm"
)

// Template pairs a compiled match pattern with the callback a compiler
// would generate from its body. Registering and selecting templates by
// priority/import precedence is the compiler's job (out of scope); this
// type only gives in-scope templates a place to live on DynamicContext.
type Template struct {
	Name string
	Body func(*DynamicContext) error
}

// DynamicContext carries everything that changes while a transformation
// runs: the context sequence and (1-based) context position, the result
// tree being built, the populated key index, variable bindings, and the
// in-scope templates. One DynamicContext is created per evaluation (via
// NewDynamicContext) and threaded through every template callback.
type DynamicContext struct {
	static *StaticContext

	contextSeq xdm.Sequence
	contextPos int // 1-based, per spec.md's XPath context-position convention

	result *ResultTree

	keyDefs  map[string][]KeyDef
	keyIndex map[string]map[string][]*btree.Node

	variables *qname.NameMap[xdm.Sequence]
	templates []Template

	baseURI string
}

// NewDynamicContext returns a DynamicContext bound to static, with an
// empty context sequence, position 0 (no current item), a fresh result
// tree, and no keys/variables/templates registered yet.
func NewDynamicContext(static *StaticContext, baseURI string) *DynamicContext {
	return &DynamicContext{
		static:    static,
		result:    NewResultTree(),
		keyDefs:   make(map[string][]KeyDef),
		keyIndex:  make(map[string]map[string][]*btree.Node),
		variables: qname.NewNameMap[xdm.Sequence](),
		baseURI:   baseURI,
	}
}

// SetContext installs seq as the context sequence and pos (1-based) as
// the context position.
func (dc *DynamicContext) SetContext(seq xdm.Sequence, pos int) {
	dc.contextSeq = seq
	dc.contextPos = pos
}

// ContextSequence returns the current context sequence.
func (dc *DynamicContext) ContextSequence() xdm.Sequence { return dc.contextSeq }

// ContextPosition returns the 1-based context position, or 0 if no item
// is current.
func (dc *DynamicContext) ContextPosition() int { return dc.contextPos }

// ContextItem returns the item at the current context position, if any.
func (dc *DynamicContext) ContextItem() (xdm.Item, bool) {
	if dc.contextPos < 1 || dc.contextPos > len(dc.contextSeq) {
		return xdm.Item{}, false
	}
	return dc.contextSeq[dc.contextPos-1], true
}

// Result returns the result tree the transformation is building.
func (dc *DynamicContext) Result() *ResultTree { return dc.result }

// SetResult replaces the result tree being built, e.g. when a template
// runs in a fresh result-document context (xsl:result-document).
func (dc *DynamicContext) SetResult(rt *ResultTree) { dc.result = rt }

// BaseURI returns the static base URI used to resolve xsl:include/
// xsl:import hrefs.
func (dc *DynamicContext) BaseURI() string { return dc.baseURI }

// Static returns the context's StaticContext.
func (dc *DynamicContext) Static() *StaticContext { return dc.static }

// SetVariable binds name to seq in the current variable scope.
func (dc *DynamicContext) SetVariable(name qname.QualifiedName, seq xdm.Sequence) {
	dc.variables.Set(name, seq)
}

// Variable looks up a bound variable.
func (dc *DynamicContext) Variable(name qname.QualifiedName) (xdm.Sequence, bool) {
	return dc.variables.Get(name)
}

// AddTemplate registers a compiled template in the in-scope template set.
func (dc *DynamicContext) AddTemplate(t Template) {
	dc.templates = append(dc.templates, t)
}

// Templates returns the in-scope templates, in registration order.
func (dc *DynamicContext) Templates() []Template { return dc.templates }

// Message invokes xsl:message through the static context's sink; see
// StaticContext.Message for the termination contract.
func (dc *DynamicContext) Message(text string, terminate bool) error {
	return dc.static.Message(text, terminate)
}

// Include resolves and fetches an xsl:include/xsl:import href through the
// static context's resolver.
func (dc *DynamicContext) Include(href string) (string, error) {
	return dc.static.ResolveInclude(dc.baseURI, href)
}
