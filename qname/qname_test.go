package qname

import "testing"

func TestEqualityIgnoresPrefix(t *testing.T) {
	a := New("http://example.org/ns", "x", "foo")
	b := New("http://example.org/ns", "y", "foo")
	if !a.Equal(b) {
		t.Errorf("expected %v to equal %v (prefix-independent)", a, b)
	}
}

func TestDisplay(t *testing.T) {
	cases := []struct {
		name QualifiedName
		want string
	}{
		{New("", "", "foo"), "foo"},
		{New("http://example.org/whatsinaname/", "x", "foo"), "x:foo"},
	}
	for _, c := range cases {
		if got := c.name.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}

func TestParseEQName(t *testing.T) {
	qn, err := Parse("Q{http://example.org/bar}foo")
	if err != nil {
		t.Fatalf("unable to parse EQName: %v", err)
	}
	if qn.Local != "foo" || qn.NSURI != "http://example.org/bar" || qn.Prefix != "" {
		t.Errorf("unexpected parse result: %+v", qn)
	}
}

func TestParsePrefixedAndUnprefixed(t *testing.T) {
	qn, err := Parse("x:foo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if qn.Prefix != "x" || qn.Local != "foo" {
		t.Errorf("unexpected parse result: %+v", qn)
	}
	qn2, err := Parse("foo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if qn2.Prefix != "" || qn2.Local != "foo" {
		t.Errorf("unexpected parse result: %+v", qn2)
	}
}

func TestParseInvalidNCName(t *testing.T) {
	if _, err := Parse("1foo"); err == nil {
		t.Error("expected ParseError for NCName starting with a digit")
	}
}

func TestResolveLeftmostWins(t *testing.T) {
	scopes := []map[string]string{
		{"x": "http://inner"},
		{"x": "http://outer"},
	}
	qn, err := Resolve("x:foo", scopes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if qn.NSURI != "http://inner" {
		t.Errorf("expected innermost scope to win, got %q", qn.NSURI)
	}
}

func TestResolveUnbound(t *testing.T) {
	if _, err := Resolve("x:foo", nil); err == nil {
		t.Error("expected error resolving unbound prefix")
	}
}

func TestNameMapIgnoresPrefix(t *testing.T) {
	m := NewNameMap[string]()
	m.Set(New("http://example.org/whatsinaname/", "x", "foo"), "this is x:foo")
	m.Set(New("", "", "foo"), "this is unprefixed foo")
	m.Set(New("http://example.org/whatsinaname/", "y", "bar"), "this is y:bar")

	if m.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", m.Len())
	}
	if v, ok := m.Get(New("http://example.org/whatsinaname/", "z", "foo")); !ok || v != "this is x:foo" {
		t.Errorf("lookup with different prefix failed: %v %v", v, ok)
	}
	if v, ok := m.Get(New("", "", "foo")); !ok || v != "this is unprefixed foo" {
		t.Errorf("unprefixed lookup failed: %v %v", v, ok)
	}
}
