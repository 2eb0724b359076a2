package xdm

import (
	"github.com/wilkmaciej/xdm/value"
	"github.com/wilkmaciej/xdm/xdmerror"
)

// Sequence is an ordered collection of shared Items — the fundamental
// XDM data structure that every expression ultimately produces.
type Sequence []Item

// PushDocument appends a Document wrapped as an Item.
func (s *Sequence) PushDocument(d Document) { *s = append(*s, NewDocumentItem(d)) }

// PushNode appends a Node wrapped as an Item.
func (s *Sequence) PushNode(n Node) { *s = append(*s, NewNodeItem(n)) }

// PushValue appends a Value wrapped as an Item.
func (s *Sequence) PushValue(v value.Value) { *s = append(*s, NewValueItem(v)) }

// PushItem appends an already-wrapped Item.
func (s *Sequence) PushItem(it Item) { *s = append(*s, it) }

// ToString is the ordered concatenation of each item's string value.
func (s Sequence) ToString() string {
	r := ""
	for _, it := range s {
		r += it.ToString()
	}
	return r
}

// ToXML is the ordered concatenation of each item's XML serialisation.
func (s Sequence) ToXML() string {
	r := ""
	for _, it := range s {
		r += it.ToXML()
	}
	return r
}

// ToXMLWithOptions is ToXML controlled by an OutputDefinition.
func (s Sequence) ToXMLWithOptions(od OutputDefinition) string {
	r := ""
	for _, it := range s {
		r += it.ToXMLWithOptions(od)
	}
	return r
}

// ToJSON is the ordered concatenation of each item's JSON serialisation.
func (s Sequence) ToJSON() string {
	r := ""
	for _, it := range s {
		r += it.ToJSON()
	}
	return r
}

// ToBool is the Effective Boolean Value of the sequence: empty is false;
// a node-headed sequence is true; a singleton value sequence delegates to
// the item; any other (longer, non-node-headed) sequence is false.
func (s Sequence) ToBool() bool {
	if len(s) == 0 {
		return false
	}
	if s[0].Kind() == ItemNode || s[0].Kind() == ItemDocument {
		return true
	}
	if len(s) == 1 {
		return s[0].ToBool()
	}
	return false
}

// ToInt requires the sequence to be a singleton; otherwise it fails with
// TypeError.
func (s Sequence) ToInt() (int64, error) {
	if len(s) != 1 {
		return 0, xdmerror.New(xdmerror.TypeError, "type error: sequence is not a singleton")
	}
	return s[0].ToInt()
}
