// Package value implements the scalar half of the XDM type lattice: typed
// atomic values, total string/boolean coercions, and the typed comparison
// operators XPath defines over them.
package value

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/wilkmaciej/xdm/xdmerror"
)

// Kind tags the scalar type of a Value.
type Kind int

const (
	KindString Kind = iota
	KindBoolean
	KindInteger
	KindDouble
	KindDecimal
	KindUntypedAtomic
	KindDateTime
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "xs:string"
	case KindBoolean:
		return "xs:boolean"
	case KindInteger:
		return "xs:integer"
	case KindDouble:
		return "xs:double"
	case KindDecimal:
		return "xs:decimal"
	case KindDateTime:
		return "xs:dateTime"
	default:
		return "xs:untypedAtomic"
	}
}

// Operator identifies an XPath comparison operator.
type Operator int

const (
	OpEq Operator = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpIs
	OpBefore
	OpAfter
	OpGeneralEq
	OpGeneralNe
)

// Value is an immutable tagged scalar.
type Value struct {
	kind Kind
	s    string
	b    bool
	i    int64
	f    float64
	t    time.Time
}

// NewString builds a string value.
func NewString(s string) Value { return Value{kind: KindString, s: s} }

// NewBoolean builds a boolean value.
func NewBoolean(b bool) Value { return Value{kind: KindBoolean, b: b} }

// NewInteger builds an integer value.
func NewInteger(i int64) Value { return Value{kind: KindInteger, i: i} }

// NewDouble builds a double value.
func NewDouble(f float64) Value { return Value{kind: KindDouble, f: f} }

// NewDecimal builds a decimal value (represented internally as a float64,
// matching XPath's practical decimal precision for this engine's purposes).
func NewDecimal(f float64) Value { return Value{kind: KindDecimal, f: f} }

// NewUntypedAtomic builds an untyped-atomic value — the type text content
// parses to before any schema assigns it a concrete type.
func NewUntypedAtomic(s string) Value { return Value{kind: KindUntypedAtomic, s: s} }

// NewDateTime builds a dateTime value.
func NewDateTime(t time.Time) Value { return Value{kind: KindDateTime, t: t} }

// Kind returns the value's scalar kind.
func (v Value) Kind() Kind { return v.kind }

// ValueType returns a stable type tag string, e.g. "xs:string".
func (v Value) ValueType() string { return v.kind.String() }

// ToString is a total coercion to string.
func (v Value) ToString() string {
	switch v.kind {
	case KindString, KindUntypedAtomic:
		return v.s
	case KindBoolean:
		if v.b {
			return "true"
		}
		return "false"
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindDouble, KindDecimal:
		return formatDouble(v.f)
	case KindDateTime:
		return v.t.Format(time.RFC3339)
	default:
		return ""
	}
}

func formatDouble(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "INF"
	}
	if math.IsInf(f, -1) {
		return "-INF"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ToBool is the Effective Boolean Value of a single scalar: the empty
// string and numeric zero (including NaN) are false, everything else of
// the same kind is true, per XPath 2.4.3.
func (v Value) ToBool() bool {
	switch v.kind {
	case KindString, KindUntypedAtomic:
		return v.s != ""
	case KindBoolean:
		return v.b
	case KindInteger:
		return v.i != 0
	case KindDouble, KindDecimal:
		return v.f != 0 && !math.IsNaN(v.f)
	default:
		return true
	}
}

// ToInt coerces to an integer; it fails with TypeError for non-numeric
// strings and for kinds that have no sensible integer form.
func (v Value) ToInt() (int64, error) {
	switch v.kind {
	case KindInteger:
		return v.i, nil
	case KindDouble, KindDecimal:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return 0, xdmerror.New(xdmerror.TypeError, "cannot convert non-finite double to integer")
		}
		return int64(v.f), nil
	case KindBoolean:
		if v.b {
			return 1, nil
		}
		return 0, nil
	case KindString, KindUntypedAtomic:
		i, err := strconv.ParseInt(strings.TrimSpace(v.s), 10, 64)
		if err != nil {
			return 0, xdmerror.New(xdmerror.TypeError, "cannot convert string \""+v.s+"\" to integer")
		}
		return i, nil
	default:
		return 0, xdmerror.New(xdmerror.TypeError, "cannot convert value to integer")
	}
}

// ToDouble coerces to a double; unlike ToInt, failure never returns an
// error — it returns NaN, matching XPath's number() semantics.
func (v Value) ToDouble() float64 {
	switch v.kind {
	case KindDouble, KindDecimal:
		return v.f
	case KindInteger:
		return float64(v.i)
	case KindBoolean:
		if v.b {
			return 1
		}
		return 0
	case KindString, KindUntypedAtomic:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func (v Value) isNumeric() bool {
	switch v.kind {
	case KindInteger, KindDouble, KindDecimal:
		return true
	case KindString, KindUntypedAtomic:
		_, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		return err == nil
	default:
		return false
	}
}

// Compare applies op to (v, other). Value comparisons (eq/ne/lt/le/gt/ge)
// between two numeric-compatible values coerce both to double first;
// otherwise they compare as strings. "is"/"before"/"after" are node
// document-order operators and are not meaningful between two scalar
// Values, so they always fail with TypeError here.
func (v Value) Compare(other Value, op Operator) (bool, error) {
	switch op {
	case OpIs, OpBefore, OpAfter:
		return false, xdmerror.New(xdmerror.TypeError, "is/before/after are node comparisons, not value comparisons")
	case OpGeneralEq:
		return v.Compare(other, OpEq)
	case OpGeneralNe:
		return v.Compare(other, OpNe)
	}

	if v.isNumeric() && other.isNumeric() {
		a, b := v.ToDouble(), other.ToDouble()
		switch op {
		case OpEq:
			return a == b, nil
		case OpNe:
			return a != b, nil
		case OpLt:
			return a < b, nil
		case OpLe:
			return a <= b, nil
		case OpGt:
			return a > b, nil
		case OpGe:
			return a >= b, nil
		}
	}

	a, b := v.ToString(), other.ToString()
	switch op {
	case OpEq:
		return a == b, nil
	case OpNe:
		return a != b, nil
	case OpLt:
		return a < b, nil
	case OpLe:
		return a <= b, nil
	case OpGt:
		return a > b, nil
	case OpGe:
		return a >= b, nil
	}
	return false, xdmerror.New(xdmerror.TypeError, "unsupported comparison operator")
}
