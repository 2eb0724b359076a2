package xmlparse

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/wilkmaciej/xdm/parsec"
	"github.com/wilkmaciej/xdm/qname"
	"github.com/wilkmaciej/xdm/xdmerror"
)

// isNameStartChar and isNameChar approximate the XML Name production
// closely enough for the ASCII- and BMP-heavy documents this engine
// targets: full Unicode NameStartChar/NameChar tables are out of scope.
func isNameStartChar(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isNameChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.'
}

// ncName parses a single NCName (no colon).
func ncName() parsec.Parser[string] {
	return func(in string, st parsec.State) (string, parsec.State, string, error) {
		first, fSt, fv, err := parsec.TakeWhile1(isNameStartChar)(in, st)
		if err != nil {
			return in, st, "", err
		}
		rest, rSt, rv, err := parsec.TakeWhile(isNameChar)(first, fSt)
		if err != nil {
			return in, st, "", err
		}
		return rest, rSt, fv + rv, nil
	}
}

// splitQName splits "prefix:local" into its two parts; namespace
// resolution happens later, once the element's own xmlns attributes are
// known.
func splitQName(raw string) (prefix, local string) {
	if idx := strings.IndexByte(raw, ':'); idx >= 0 {
		return raw[:idx], raw[idx+1:]
	}
	return "", raw
}

// isCompleteNCName reports whether s is, in its entirety, one valid
// NCName.
func isCompleteNCName(s string) bool {
	out, _, v, err := ncName()(s, parsec.NewState())
	return err == nil && out == "" && v == s
}

// parseName validates raw as a well-formed (possibly prefixed) Name,
// returning its prefix and local parts.
func parseName(raw string) (string, string, error) {
	prefix, local := splitQName(raw)
	if prefix != "" && !isCompleteNCName(prefix) {
		return "", "", xdmerror.New(xdmerror.NotWellFormed, "invalid Name: "+raw)
	}
	if !isCompleteNCName(local) {
		return "", "", xdmerror.New(xdmerror.NotWellFormed, "invalid Name: "+raw)
	}
	return prefix, local, nil
}

// rawAttribute is one parsed-but-unnormalised attribute: its literal
// name text and the literal bytes between its quotes.
type rawAttribute struct {
	name  string
	value string
}

// attrName matches an attribute Name: anything up to whitespace or '='.
func attrName() parsec.Parser[string] {
	return parsec.TakeWhile1(func(r rune) bool {
		return !isXMLSpaceRune(r) && r != '='
	})
}

func isXMLSpaceRune(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == '\r' }

// quotedValue matches a single- or double-quoted literal, returning the
// inner text unquoted and unnormalised.
func quotedValue() parsec.Parser[string] {
	dq := parsec.Delimited(parsec.Tag("\""), parsec.TakeWhile(func(r rune) bool { return r != '"' }), parsec.Tag("\""))
	sq := parsec.Delimited(parsec.Tag("'"), parsec.TakeWhile(func(r rune) bool { return r != '\'' }), parsec.Tag("'"))
	return parsec.Alt2(dq, sq)
}

// attribute matches one S? Name S? '=' S? AttValue production. The
// leading separator is optional, not required: gosax.Name already
// consumes the whitespace between the element name and the first
// attribute when it splits name from attrs, so only the attributes after
// the first still carry their own leading S in the raw text handed here.
func attribute() parsec.Parser[rawAttribute] {
	p := parsec.Tuple6Of(
		parsec.Whitespace0(),
		attrName(),
		parsec.Whitespace0(),
		parsec.Tag("="),
		parsec.Whitespace0(),
		quotedValue(),
	)
	return parsec.Map(p, func(t parsec.Tuple6[string, string, string, string, string, string]) rawAttribute {
		return rawAttribute{name: t.B, value: t.F}
	})
}

// parseAttributes parses the full attribute-list text gosax hands back
// for a start tag (everything after the element name, before the closing
// '>' or '/>').
func parseAttributes(raw string) ([]rawAttribute, error) {
	out, _, attrs, err := parsec.Many0(attribute())(raw, parsec.NewState())
	if err != nil {
		return nil, err
	}
	if strings.TrimFunc(out, isXMLSpaceRune) != "" {
		return nil, xdmerror.New(xdmerror.NotWellFormed, "malformed attribute list: "+raw)
	}
	return attrs, nil
}

// normalizeAttrValue implements AttValue normalisation: character
// references become the referenced code point, general entity references
// resolve against entities (already collected from the prologue) and their
// replacement text is itself normalised the same way, recursively (with
// the entity being expanded left out, so a self-referential entity fails
// as undeclared), and literal CR/LF/TAB each normalise to a single space.
// A literal '<' or the NEL character (U+0085) is a well-formedness
// violation.
func normalizeAttrValue(raw string, entities map[string]string) (string, error) {
	var sb strings.Builder
	i := 0
	for i < len(raw) {
		switch raw[i] {
		case '<':
			return "", xdmerror.New(xdmerror.NotWellFormed, "literal '<' not allowed in attribute value")
		case '\t', '\n', '\r':
			sb.WriteByte(' ')
			i++
		case '&':
			end := strings.IndexByte(raw[i:], ';')
			if end < 0 {
				return "", xdmerror.New(xdmerror.NotWellFormed, "unterminated reference in attribute value")
			}
			ref := raw[i+1 : i+end]
			text, err := resolveReference(ref, entities)
			if err != nil {
				return "", err
			}
			if !isPredefinedOrCharRef(ref) {
				inner := make(map[string]string, len(entities))
				for k, v := range entities {
					if k != ref {
						inner[k] = v
					}
				}
				if text, err = normalizeAttrValue(text, inner); err != nil {
					return "", err
				}
			}
			sb.WriteString(text)
			i += end + 1
		default:
			r, size := utf8.DecodeRuneInString(raw[i:])
			if r == 0x0085 {
				return "", xdmerror.New(xdmerror.NotWellFormed, "NEL (U+0085) not allowed in attribute value")
			}
			sb.WriteString(raw[i : i+size])
			i += size
		}
	}
	return sb.String(), nil
}

// resolveReference expands a single reference body (the text between '&'
// and ';', not including either delimiter): a character reference emits
// its code point directly; a general entity reference looks itself up in
// the already-collected entity table and emits its raw replacement text.
func resolveReference(ref string, entities map[string]string) (string, error) {
	if strings.HasPrefix(ref, "#x") || strings.HasPrefix(ref, "#X") {
		n, err := strconv.ParseInt(ref[2:], 16, 32)
		if err != nil {
			return "", xdmerror.New(xdmerror.NotWellFormed, "invalid hex character reference: &"+ref+";")
		}
		return string(rune(n)), nil
	}
	if strings.HasPrefix(ref, "#") {
		n, err := strconv.ParseInt(ref[1:], 10, 32)
		if err != nil {
			return "", xdmerror.New(xdmerror.NotWellFormed, "invalid decimal character reference: &"+ref+";")
		}
		return string(rune(n)), nil
	}
	switch ref {
	case "amp":
		return "&", nil
	case "lt":
		return "<", nil
	case "gt":
		return ">", nil
	case "apos":
		return "'", nil
	case "quot":
		return "\"", nil
	}
	text, ok := entities[ref]
	if !ok {
		return "", xdmerror.NewWithCode(xdmerror.Unknown, "UnknownEntity", "reference to undeclared general entity \""+ref+"\"")
	}
	return text, nil
}

// validateXMLSpace checks the xml:space attribute's fixed enumeration.
func validateXMLSpace(value string) error {
	if value != "default" && value != "preserve" {
		return xdmerror.New(xdmerror.Validation, "xml:space must be \"default\" or \"preserve\", got "+strconv.Quote(value))
	}
	return nil
}

// validateComment rejects a comment containing "--", the one
// well-formedness constraint on comment content.
func validateComment(text string) error {
	if strings.Contains(text, "--") {
		return xdmerror.New(xdmerror.NotWellFormed, "comment must not contain \"--\"")
	}
	return nil
}

// validatePITarget rejects "xml" (in any case), the one reserved
// processing-instruction target, and otherwise requires a well-formed
// NCName.
func validatePITarget(target string) error {
	if strings.EqualFold(target, "xml") {
		return xdmerror.New(xdmerror.NotWellFormed, "processing instruction target \"xml\" (any case) is reserved")
	}
	if !isCompleteNCName(target) {
		return xdmerror.New(xdmerror.NotWellFormed, "invalid processing instruction target: "+target)
	}
	return nil
}

// contentPiece is one element of a chardata run after splitting out
// general-entity references: either literal (already-resolved) text, or
// a reference to be expanded by btree.Convert.
type contentPiece struct {
	isRef bool
	text  string
	ref   qname.QualifiedName
}

// splitContentText scans a chardata run, resolving character references
// and the five predefined entities inline, and splitting out each
// undeclared-to-XML (general) entity reference as its own piece so the
// caller can emit it as a Reference-type node rather than inline text.
func splitContentText(raw string, entities map[string]string) ([]contentPiece, error) {
	var pieces []contentPiece
	var sb strings.Builder
	flush := func() {
		if sb.Len() > 0 {
			pieces = append(pieces, contentPiece{text: sb.String()})
			sb.Reset()
		}
	}
	i := 0
	for i < len(raw) {
		if raw[i] != '&' {
			r, size := utf8.DecodeRuneInString(raw[i:])
			_ = r
			sb.WriteString(raw[i : i+size])
			i += size
			continue
		}
		end := strings.IndexByte(raw[i:], ';')
		if end < 0 {
			return nil, xdmerror.New(xdmerror.NotWellFormed, "unterminated reference in content")
		}
		ref := raw[i+1 : i+end]
		if isPredefinedOrCharRef(ref) {
			text, err := resolveReference(ref, entities)
			if err != nil {
				return nil, err
			}
			sb.WriteString(text)
		} else {
			if _, ok := entities[ref]; !ok {
				return nil, xdmerror.NewWithCode(xdmerror.Unknown, "UnknownEntity",
					"reference to undeclared general entity \""+ref+"\"")
			}
			flush()
			pieces = append(pieces, contentPiece{isRef: true, ref: qname.New("", "", ref)})
		}
		i += end + 1
	}
	flush()
	return pieces, nil
}

func isPredefinedOrCharRef(ref string) bool {
	switch ref {
	case "amp", "lt", "gt", "apos", "quot":
		return true
	}
	return strings.HasPrefix(ref, "#")
}
