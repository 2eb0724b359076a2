package xdm

import (
	"testing"

	"github.com/wilkmaciej/xdm/value"
)

func TestSequenceEBV(t *testing.T) {
	var empty Sequence
	if empty.ToBool() {
		t.Error("empty sequence EBV should be false")
	}

	var single Sequence
	single.PushValue(value.NewString(""))
	if single.ToBool() {
		t.Error("singleton empty-string EBV should be false")
	}

	var singleTrue Sequence
	singleTrue.PushValue(value.NewBoolean(true))
	if !singleTrue.ToBool() {
		t.Error("singleton true-value EBV should be true")
	}
}

func TestSequenceToIntRequiresSingleton(t *testing.T) {
	var s Sequence
	s.PushValue(value.NewInteger(1))
	s.PushValue(value.NewInteger(2))
	if _, err := s.ToInt(); err == nil {
		t.Error("expected TypeError converting multi-item sequence to int")
	}
}

func TestItemCompareValueValue(t *testing.T) {
	a := NewValueItem(value.NewInteger(3))
	b := NewValueItem(value.NewInteger(3))
	ok, err := a.Compare(b, value.OpEq)
	if err != nil || !ok {
		t.Errorf("expected equal integers to compare eq, got %v %v", ok, err)
	}
}

func TestItemCompareFunctionIsTypeError(t *testing.T) {
	fn := NewFunctionItem()
	v := NewValueItem(value.NewString("x"))
	if _, err := v.Compare(fn, value.OpEq); err == nil {
		t.Error("expected TypeError comparing value against function item")
	}
	if _, err := fn.Compare(v, value.OpEq); err == nil {
		t.Error("expected TypeError comparing function item against value")
	}
}

func TestItemIsElementNode(t *testing.T) {
	v := NewValueItem(value.NewString("x"))
	if v.IsElementNode() {
		t.Error("value item should never report as element node")
	}
}
