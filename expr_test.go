package goegg

import (
	"errors"
	"testing"
)

func TestParseExprRoundTrip(t *testing.T) {
	for _, s := range []string{"p", "(¬ p)", "(∨ (¬ (∧ p q)) true)", BooleanStart} {
		e, err := ParseExpr(s)
		if err != nil {
			t.Error(err)
			return
		}
		if e.String() != s {
			t.Errorf("expected %s, got %s", s, e)
			return
		}
	}
}

func TestParseExprErrors(t *testing.T) {
	for _, s := range []string{"", "(", "()", "(?x p)", "(∨ ?x p)", "((∨) p)", "p q"} {
		if _, err := ParseExpr(s); !errors.Is(err, ErrParse) {
			t.Errorf("%q: expected ErrParse, got %v", s, err)
			return
		}
	}
}

func TestExprMetrics(t *testing.T) {
	e := MustParseExpr("(∧ (∨ p q) r)")
	if e.Size() != 5 || e.Depth() != 3 {
		t.Errorf("expected size 5 and depth 3, got %d and %d", e.Size(), e.Depth())
		return
	}
	if !e.Equal(MustParseExpr("(∧ (∨ p q) r)")) || e.Equal(MustParseExpr("(∧ (∨ q p) r)")) {
		t.Error("wrong structural equality")
	}
}

func TestParsePattern(t *testing.T) {
	p, err := ParsePattern("(∨ ?b (∧ ?a ?b) true)")
	if err != nil {
		t.Error(err)
		return
	}
	vars := p.Vars()
	if len(vars) != 2 || vars[0] != "b" || vars[1] != "a" {
		t.Errorf("unexpected variables %v", vars)
		return
	}
	if p.String() != "(∨ ?b (∧ ?a ?b) true)" {
		t.Errorf("unexpected string %s", p)
		return
	}
	if _, err := p.ToExpr(); !errors.Is(err, ErrUnboundVariable) {
		t.Errorf("expected ErrUnboundVariable, got %v", err)
		return
	}

	ground := MustParsePattern("(¬ true)")
	e, err := ground.ToExpr()
	if err != nil || e.String() != "(¬ true)" {
		t.Errorf("cannot convert ground pattern: %v", err)
	}
}

func TestParsePatternErrors(t *testing.T) {
	for _, s := range []string{"(?f p)", "?", "()"} {
		if _, err := ParsePattern(s); !errors.Is(err, ErrParse) {
			t.Errorf("%q: expected ErrParse, got %v", s, err)
			return
		}
	}
}

func TestIntern(t *testing.T) {
	a := Intern("some-operator")
	b := Intern("some-operator")
	if a != b || a.String() != "some-operator" {
		t.Error("interning should be idempotent")
		return
	}
	if Intern("other-operator") == a {
		t.Error("distinct names should get distinct symbols")
	}
}

func TestUnionFind(t *testing.T) {
	uf := unionFind{}
	ids := make([]ClassId, 5)
	for i := range ids {
		ids[i] = uf.makeSet()
	}

	root, merged := uf.union(ids[3], ids[1])
	if root != ids[1] || merged != ids[3] {
		t.Error("ties should keep the smaller id")
		return
	}
	root, _ = uf.union(ids[4], ids[1])
	if root != ids[1] {
		t.Error("the larger set should survive")
		return
	}
	if uf.find(ids[4]) != ids[1] || uf.findMut(ids[3]) != ids[1] || uf.find(ids[0]) != ids[0] {
		t.Error("wrong representatives")
	}
}
