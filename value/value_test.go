package value

import (
	"math"
	"testing"
)

func TestStringCoercionIsTotal(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{NewString("hi"), "hi"},
		{NewBoolean(true), "true"},
		{NewBoolean(false), "false"},
		{NewInteger(42), "42"},
		{NewDouble(3.5), "3.5"},
		{NewUntypedAtomic("raw"), "raw"},
	}
	for _, c := range cases {
		if got := c.v.ToString(); got != c.want {
			t.Errorf("ToString() = %q, want %q", got, c.want)
		}
	}
}

func TestIntCoercionFailsOnNonNumericString(t *testing.T) {
	if _, err := NewString("not a number").ToInt(); err == nil {
		t.Error("expected TypeError converting non-numeric string to int")
	}
	if i, err := NewString("42").ToInt(); err != nil || i != 42 {
		t.Errorf("ToInt() = %d, %v, want 42, nil", i, err)
	}
}

func TestDoubleCoercionReturnsNaNInsteadOfError(t *testing.T) {
	f := NewString("not a number").ToDouble()
	if !math.IsNaN(f) {
		t.Errorf("expected NaN, got %v", f)
	}
}

func TestCompareNumericUsesDouble(t *testing.T) {
	ok, err := NewString("10").Compare(NewInteger(9), OpGt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected \"10\" > 9 under numeric value comparison")
	}
}

func TestCompareNonNumericUsesStringOrder(t *testing.T) {
	ok, err := NewString("apple").Compare(NewString("banana"), OpLt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected \"apple\" < \"banana\" under string comparison")
	}
}

func TestCompareIsBeforeAfterFailWithTypeError(t *testing.T) {
	for _, op := range []Operator{OpIs, OpBefore, OpAfter} {
		if _, err := NewInteger(1).Compare(NewInteger(1), op); err == nil {
			t.Errorf("expected TypeError for operator %v on scalar values", op)
		}
	}
}

func TestEBVEmptyStringIsFalse(t *testing.T) {
	if NewString("").ToBool() {
		t.Error("expected empty string EBV to be false")
	}
	if !NewString("x").ToBool() {
		t.Error("expected non-empty string EBV to be true")
	}
}
