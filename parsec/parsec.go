// Package parsec is the parser-combinator core: input+state threading
// plus the primitive combinators (alt/tuple/many/map/delimited/opt/take)
// that package xmlparse composes into the XML grammar. A Parser is a pure
// function from (remaining input, position) to (remaining input, new
// position, output) or an error; NoMatch errors are distinguishable from
// hard failures so alt can try the next alternative instead of aborting.
package parsec

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/wilkmaciej/xdm/xdmerror"
)

// State tracks source position: row/column, 1-based, matching the
// row/col fields xdmerror.At expects. Every primitive that consumes input
// updates these counters; a newline advances the row and resets the
// column.
type State struct {
	Row int
	Col int
}

// NewState returns the initial parse position: row 1, column 1.
func NewState() State { return State{Row: 1, Col: 1} }

// Advance returns the state after consuming the given text.
func (st State) Advance(consumed string) State {
	row, col := st.Row, st.Col
	for _, r := range consumed {
		if r == '\n' {
			row++
			col = 1
		} else {
			col++
		}
	}
	return State{Row: row, Col: col}
}

// Parser is a parser producing a T. On success it returns the remaining
// input, the advanced state, and the value. On failure it returns the
// ORIGINAL input and state unchanged, and an error — either ErrNoMatch
// (the caller may try another alternative) or a hard failure that must
// propagate.
type Parser[T any] func(in string, st State) (string, State, T, error)

type noMatchError struct{}

func (noMatchError) Error() string { return "parsec: no match" }

// ErrNoMatch is returned by a parser that simply didn't match at this
// position — as opposed to a commitment failure such as an unterminated
// delimiter or a well-formedness violation.
var ErrNoMatch error = noMatchError{}

// IsNoMatch reports whether err is (or wraps) ErrNoMatch.
func IsNoMatch(err error) bool {
	var nm noMatchError
	return errors.As(err, &nm)
}

// Tag consumes the literal lit, or fails with NoMatch.
func Tag(lit string) Parser[string] {
	return func(in string, st State) (string, State, string, error) {
		if strings.HasPrefix(in, lit) {
			return in[len(lit):], st.Advance(lit), lit, nil
		}
		return in, st, "", ErrNoMatch
	}
}

// TakeWhile captures the maximal run of runes satisfying pred. It always
// succeeds, possibly with an empty result; wrap with Many1-style callers
// (or use TakeWhile1) when at least one rune is required.
func TakeWhile(pred func(rune) bool) Parser[string] {
	return func(in string, st State) (string, State, string, error) {
		idx := 0
		for idx < len(in) {
			r, size := utf8.DecodeRuneInString(in[idx:])
			if !pred(r) {
				break
			}
			idx += size
		}
		consumed := in[:idx]
		return in[idx:], st.Advance(consumed), consumed, nil
	}
}

// TakeWhile1 is TakeWhile requiring at least one matching rune; it fails
// with NoMatch on zero matches.
func TakeWhile1(pred func(rune) bool) Parser[string] {
	return func(in string, st State) (string, State, string, error) {
		out, nst, s, err := TakeWhile(pred)(in, st)
		if err != nil {
			return in, st, "", err
		}
		if s == "" {
			return in, st, "", ErrNoMatch
		}
		return out, nst, s, nil
	}
}

// TakeUntil captures everything up to (not including) the next occurrence
// of delim. It fails with an Unterminated ParseError if delim never
// appears.
func TakeUntil(delim string) Parser[string] {
	return func(in string, st State) (string, State, string, error) {
		idx := strings.Index(in, delim)
		if idx < 0 {
			return in, st, "", xdmerror.AtWithCode(xdmerror.ParseError, "Unterminated",
				"expected terminator \""+delim+"\"", st.Row, st.Col)
		}
		consumed := in[:idx]
		return in[idx:], st.Advance(consumed), consumed, nil
	}
}

// Alt2 tries p1, then p2 on NoMatch. Any non-NoMatch failure from p1
// commits and propagates without trying p2.
func Alt2[T any](p1, p2 Parser[T]) Parser[T] {
	return func(in string, st State) (string, State, T, error) {
		if out, nst, v, err := p1(in, st); err == nil {
			return out, nst, v, nil
		} else if !IsNoMatch(err) {
			var zero T
			return in, st, zero, err
		}
		return p2(in, st)
	}
}

// Alt3 is Alt2 extended to three alternatives.
func Alt3[T any](p1, p2, p3 Parser[T]) Parser[T] {
	return Alt2(p1, Alt2(p2, p3))
}

// Alt4 is Alt2 extended to four alternatives.
func Alt4[T any](p1, p2, p3, p4 Parser[T]) Parser[T] {
	return Alt2(p1, Alt3(p2, p3, p4))
}

// Tuple2 is a struct pair, the output of sequential two-parser composition.
type Tuple2[A, B any] struct {
	A A
	B B
}

// Tuple2Of composes p1 then p2; either failing aborts with that error.
func Tuple2Of[A, B any](p1 Parser[A], p2 Parser[B]) Parser[Tuple2[A, B]] {
	return func(in string, st State) (string, State, Tuple2[A, B], error) {
		var zero Tuple2[A, B]
		in1, st1, a, err := p1(in, st)
		if err != nil {
			return in, st, zero, err
		}
		in2, st2, b, err := p2(in1, st1)
		if err != nil {
			return in, st, zero, err
		}
		return in2, st2, Tuple2[A, B]{A: a, B: b}, nil
	}
}

// Tuple3 is the output of three-parser sequential composition.
type Tuple3[A, B, C any] struct {
	A A
	B B
	C C
}

// Tuple3Of composes three parsers in sequence.
func Tuple3Of[A, B, C any](p1 Parser[A], p2 Parser[B], p3 Parser[C]) Parser[Tuple3[A, B, C]] {
	return func(in string, st State) (string, State, Tuple3[A, B, C], error) {
		var zero Tuple3[A, B, C]
		in1, st1, ab, err := Tuple2Of(p1, p2)(in, st)
		if err != nil {
			return in, st, zero, err
		}
		in2, st2, c, err := p3(in1, st1)
		if err != nil {
			return in, st, zero, err
		}
		return in2, st2, Tuple3[A, B, C]{A: ab.A, B: ab.B, C: c}, nil
	}
}

// Tuple6 is the output of six-parser sequential composition — needed for
// the S? Name S? '=' S? AttValue attribute production.
type Tuple6[A, B, C, D, E, F any] struct {
	A A
	B B
	C C
	D D
	E E
	F F
}

// Tuple6Of composes six parsers in sequence; any failure aborts with that
// error and no input is consumed from the caller's point of view.
func Tuple6Of[A, B, C, D, E, F any](
	p1 Parser[A], p2 Parser[B], p3 Parser[C], p4 Parser[D], p5 Parser[E], p6 Parser[F],
) Parser[Tuple6[A, B, C, D, E, F]] {
	return func(in string, st State) (string, State, Tuple6[A, B, C, D, E, F], error) {
		var zero Tuple6[A, B, C, D, E, F]
		cur, curSt := in, st
		var a A
		var b B
		var c C
		var d D
		var e E
		var f F
		var err error
		if cur, curSt, a, err = p1(cur, curSt); err != nil {
			return in, st, zero, err
		}
		if cur, curSt, b, err = p2(cur, curSt); err != nil {
			return in, st, zero, err
		}
		if cur, curSt, c, err = p3(cur, curSt); err != nil {
			return in, st, zero, err
		}
		if cur, curSt, d, err = p4(cur, curSt); err != nil {
			return in, st, zero, err
		}
		if cur, curSt, e, err = p5(cur, curSt); err != nil {
			return in, st, zero, err
		}
		if cur, curSt, f, err = p6(cur, curSt); err != nil {
			return in, st, zero, err
		}
		return cur, curSt, Tuple6[A, B, C, D, E, F]{A: a, B: b, C: c, D: d, E: e, F: f}, nil
	}
}

// Many0 applies p repeatedly until it returns NoMatch, collecting results.
// Any non-NoMatch failure is fatal and propagates.
func Many0[T any](p Parser[T]) Parser[[]T] {
	return func(in string, st State) (string, State, []T, error) {
		var out []T
		cur, curSt := in, st
		for {
			next, nst, v, err := p(cur, curSt)
			if err != nil {
				if IsNoMatch(err) {
					break
				}
				return in, st, nil, err
			}
			if next == cur {
				// Zero-width match: stop to avoid looping forever.
				break
			}
			out = append(out, v)
			cur, curSt = next, nst
		}
		return cur, curSt, out, nil
	}
}

// Many1 is Many0 requiring at least one successful application.
func Many1[T any](p Parser[T]) Parser[[]T] {
	return func(in string, st State) (string, State, []T, error) {
		out, nst, v, err := Many0(p)(in, st)
		if err != nil {
			return in, st, nil, err
		}
		if len(v) == 0 {
			return in, st, nil, ErrNoMatch
		}
		return out, nst, v, nil
	}
}

// Opt lifts a NoMatch from p to a nil result instead of failing.
func Opt[T any](p Parser[T]) Parser[*T] {
	return func(in string, st State) (string, State, *T, error) {
		out, nst, v, err := p(in, st)
		if err != nil {
			if IsNoMatch(err) {
				return in, st, nil, nil
			}
			return in, st, nil, err
		}
		vv := v
		return out, nst, &vv, nil
	}
}

// Delimited runs l, then m, then r, discarding l and r's output and
// keeping m's.
func Delimited[L, M, R any](l Parser[L], m Parser[M], r Parser[R]) Parser[M] {
	return func(in string, st State) (string, State, M, error) {
		var zero M
		in1, st1, _, err := l(in, st)
		if err != nil {
			return in, st, zero, err
		}
		in2, st2, mv, err := m(in1, st1)
		if err != nil {
			return in, st, zero, err
		}
		in3, st3, _, err := r(in2, st2)
		if err != nil {
			return in, st, zero, err
		}
		return in3, st3, mv, nil
	}
}

// Map transforms p's output with f.
func Map[A, B any](p Parser[A], f func(A) B) Parser[B] {
	return func(in string, st State) (string, State, B, error) {
		var zero B
		out, nst, a, err := p(in, st)
		if err != nil {
			return in, st, zero, err
		}
		return out, nst, f(a), nil
	}
}

// isXMLSpace is the XML S production: space, tab, CR, or LF.
func isXMLSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// Whitespace0 captures zero or more XML S characters.
func Whitespace0() Parser[string] { return TakeWhile(isXMLSpace) }

// Whitespace1 requires at least one XML S character.
func Whitespace1() Parser[string] { return TakeWhile1(isXMLSpace) }

// WellFormed runs p, then checks pred on its output; a false result fails
// with NotWellFormed at the position p started from.
func WellFormed[T any](p Parser[T], pred func(T) bool) Parser[T] {
	return func(in string, st State) (string, State, T, error) {
		var zero T
		out, nst, v, err := p(in, st)
		if err != nil {
			return in, st, zero, err
		}
		if !pred(v) {
			return in, st, zero, xdmerror.At(xdmerror.NotWellFormed, "well-formedness check failed", st.Row, st.Col)
		}
		return out, nst, v, nil
	}
}
