package goegg

import (
	"errors"
	"testing"

	"golang.org/x/sync/errgroup"
)

func TestRewriteUnboundRhs(t *testing.T) {
	_, err := ParseRewrite("bad", "(∨ ?p ?q)", "(∧ ?p ?r)")
	if !errors.Is(err, ErrUnboundVariable) {
		t.Errorf("expected ErrUnboundVariable, got %v", err)
	}
}

func TestRewriteParseError(t *testing.T) {
	_, err := ParseRewrite("bad", "(∨ ?p", "?p")
	if !errors.Is(err, ErrParse) {
		t.Errorf("expected ErrParse, got %v", err)
	}
}

func TestRewriteApply(t *testing.T) {
	eg := NewEGraph()
	root := eg.AddExpr(MustParseExpr("(∨ p q)"))
	rw := MustParseRewrite("comm", "(∨ ?p ?q)", "(∨ ?q ?p)")

	if n := rw.Apply(eg, rw.Search(eg)); n != 1 {
		t.Errorf("expected one merging application, got %d", n)
		return
	}
	eg.Rebuild()

	qp, ok := eg.LookupExpr(MustParseExpr("(∨ q p)"))
	if !ok || eg.Find(qp) != eg.Find(root) {
		t.Error("(∨ q p) should be in the root class")
		return
	}
	if n := rw.Apply(eg, rw.Search(eg)); n != 0 {
		t.Errorf("second application should merge nothing, got %d", n)
	}
}

func TestRewriteString(t *testing.T) {
	rw := MustParseRewrite("idem", "(∧ ?p ?p)", "?p")
	if rw.String() != "idem: (∧ ?p ?p) => ?p" {
		t.Errorf("unexpected string %q", rw.String())
	}
}

func TestConditionalApplier(t *testing.T) {
	eg := NewEGraph()
	eg.AddExpr(MustParseExpr("(∧ p true)"))
	eg.AddExpr(MustParseExpr("(∧ q r)"))

	fired := 0
	rw := NewDynamicRewrite("and true", MustParsePattern("(∧ ?a ?b)"), ConditionalApplier{
		Condition: func(eg *EGraph, id ClassId, subst Subst) bool {
			b, _ := subst.Get("b")
			_, ok := BoolLiteral(eg, b)
			return ok
		},
		Applier: ApplierFunc(func(eg *EGraph, id ClassId, subst Subst) bool {
			fired += 1
			a, _ := subst.Get("a")
			return eg.Union(id, a)
		}),
	})

	if n := rw.Apply(eg, rw.Search(eg)); n != 1 || fired != 1 {
		t.Errorf("expected the applier to fire once, got %d merges and %d calls", n, fired)
		return
	}
	eg.Rebuild()

	p, _ := eg.LookupExpr(Leaf("p"))
	and, _ := eg.LookupExpr(MustParseExpr("(∧ p true)"))
	if eg.Find(p) != eg.Find(and) {
		t.Error("(∧ p true) should equal p")
	}
}

func TestInstantiate(t *testing.T) {
	eg := NewEGraph()
	root := eg.AddExpr(MustParseExpr("(¬ p)"))
	substs := eg.SearchClass(MustParsePattern("(¬ ?x)"), root)
	if len(substs) != 1 {
		t.Error("expected one substitution")
		return
	}

	id := eg.Instantiate(MustParsePattern("(∧ ?x (¬ ?x))"), substs[0])
	got, ok := eg.LookupExpr(MustParseExpr("(∧ p (¬ p))"))
	if !ok || got != id {
		t.Error("instantiated pattern should reuse existing classes")
	}
}

func countSubsts(matches []SearchMatches) int {
	n := 0
	for _, m := range matches {
		n += len(m.Substs)
	}
	return n
}

func TestRewriteLiteralConcurrentSearch(t *testing.T) {
	eg := NewEGraph()
	eg.AddExpr(MustParseExpr("(∨ (∨ a b) (∨ (∨ c d) e))"))
	eg.Rebuild()
	rw := &Rewrite{
		Name:     "comm",
		Searcher: MustParsePattern("(∨ ?p ?q)"),
		Applier:  PatternApplier{MustParsePattern("(∨ ?q ?p)")},
	}

	res := make([]int, 8)
	g := errgroup.Group{}
	for i := range res {
		i := i
		g.Go(func() error {
			res[i] = countSubsts(rw.Search(eg))
			return nil
		})
	}
	_ = g.Wait()

	for i, n := range res {
		if n != 4 {
			t.Errorf("search %d found %d matches, expected 4", i, n)
			return
		}
	}
}
