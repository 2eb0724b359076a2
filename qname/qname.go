// Package qname implements namespace-aware qualified names: the
// (namespace URI, local name) pair that XDM equality and hashing actually
// key on, with the prefix kept only for display.
package qname

import (
	"strings"
	"unicode"

	"github.com/wilkmaciej/xdm/xdmerror"
)

// XMLNamespaceURI is the namespace bound to the reserved "xml" prefix.
const XMLNamespaceURI = "http://www.w3.org/XML/1998/namespace"

// XSLTNamespaceURI is the namespace used to recognise XSLT elements.
// Recognition of this namespace is the compiler's job; it is reserved here
// only so callers don't have to hardcode the string a second time.
const XSLTNamespaceURI = "http://www.w3.org/1999/XSL/Transform"

// QualifiedName is a namespace URI, an optional display prefix, and a
// required local name.
type QualifiedName struct {
	NSURI  string
	Prefix string
	Local  string
}

// New constructs a QualifiedName from its three parts.
func New(nsuri, prefix, local string) QualifiedName {
	return QualifiedName{NSURI: nsuri, Prefix: prefix, Local: local}
}

// Empty is the QualifiedName returned for nodes that do not have a name.
var Empty = QualifiedName{}

// IsEmpty reports whether this is the zero/"no name" qualified name.
func (q QualifiedName) IsEmpty() bool {
	return q.Local == ""
}

// Equal compares two names by namespace URI and local name only; the
// prefix is presentational and never participates in equality.
func (q QualifiedName) Equal(other QualifiedName) bool {
	return q.NSURI == other.NSURI && q.Local == other.Local
}

// key is the map key used by NameMap: namespace URI + local name, exactly
// the pair that participates in equality and hashing.
type key struct {
	nsuri string
	local string
}

func (q QualifiedName) key() key {
	return key{nsuri: q.NSURI, local: q.Local}
}

// String renders "prefix:local" when a prefix is present, else "local".
func (q QualifiedName) String() string {
	if q.Prefix != "" {
		return q.Prefix + ":" + q.Local
	}
	return q.Local
}

// Parse parses an extended name literal: "Q{uri}local", "prefix:local", or
// "local". It fails with a ParseError for an invalid NCName.
func Parse(s string) (QualifiedName, error) {
	if strings.HasPrefix(s, "Q{") {
		end := strings.IndexByte(s, '}')
		if end < 0 {
			return QualifiedName{}, xdmerror.New(xdmerror.ParseError, "unterminated Q{...} name, missing '}'")
		}
		uri := s[2:end]
		local := s[end+1:]
		if !isNCName(local) {
			return QualifiedName{}, xdmerror.New(xdmerror.ParseError, "invalid NCName in EQName local part: "+local)
		}
		return QualifiedName{NSURI: uri, Local: local}, nil
	}
	if idx := strings.IndexByte(s, ':'); idx >= 0 {
		prefix, local := s[:idx], s[idx+1:]
		if !isNCName(prefix) || !isNCName(local) {
			return QualifiedName{}, xdmerror.New(xdmerror.ParseError, "invalid NCName in prefixed name: "+s)
		}
		return QualifiedName{Prefix: prefix, Local: local}, nil
	}
	if !isNCName(s) {
		return QualifiedName{}, xdmerror.New(xdmerror.ParseError, "invalid NCName: "+s)
	}
	return QualifiedName{Local: s}, nil
}

// Resolve parses s the same way as Parse, then if the result has a prefix
// but no namespace URI (i.e. it came from "prefix:local"), resolves that
// prefix against scopes — an ordered list of in-scope namespace maps,
// innermost scope first. The first scope with a binding wins.
func Resolve(s string, scopes []map[string]string) (QualifiedName, error) {
	qn, err := Parse(s)
	if err != nil {
		return QualifiedName{}, err
	}
	if qn.Prefix == "" || qn.NSURI != "" {
		return qn, nil
	}
	for _, scope := range scopes {
		if uri, ok := scope[qn.Prefix]; ok {
			qn.NSURI = uri
			return qn, nil
		}
	}
	return QualifiedName{}, xdmerror.New(xdmerror.Unknown, "unable to resolve prefix \""+qn.Prefix+"\"")
}

func isNCName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == ':' {
			return false
		}
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' && r != '.' {
			return false
		}
	}
	return true
}

// NameMap is a map keyed by QualifiedName equality (namespace URI + local
// name, ignoring prefix) — used for the A-tree's per-element attribute set,
// the A→B conversion's entity table and the transformation engine's
// variable table.
type NameMap[T any] struct {
	entries map[key]namedEntry[T]
}

type namedEntry[T any] struct {
	name  QualifiedName
	value T
}

// NewNameMap creates an empty NameMap.
func NewNameMap[T any]() *NameMap[T] {
	return &NameMap[T]{entries: make(map[key]namedEntry[T])}
}

// Set inserts or replaces the value bound to name.
func (m *NameMap[T]) Set(name QualifiedName, v T) {
	m.entries[name.key()] = namedEntry[T]{name: name, value: v}
}

// Get returns the value bound to name, if any.
func (m *NameMap[T]) Get(name QualifiedName) (T, bool) {
	e, ok := m.entries[name.key()]
	return e.value, ok
}

// Has reports whether name is bound.
func (m *NameMap[T]) Has(name QualifiedName) bool {
	_, ok := m.entries[name.key()]
	return ok
}

// Len returns the number of bindings.
func (m *NameMap[T]) Len() int {
	return len(m.entries)
}

// Range calls f for every binding. Iteration order is unspecified.
func (m *NameMap[T]) Range(f func(QualifiedName, T) bool) {
	for _, e := range m.entries {
		if !f(e.name, e.value) {
			return
		}
	}
}
