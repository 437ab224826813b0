package goegg

import (
	"strings"
	"testing"
)

func leaf(eg *EGraph, name string) ClassId {
	return eg.Add(ENode{Op: Intern(name)})
}

func TestHashconsIdempotent(t *testing.T) {
	eg := NewEGraph()
	e := MustParseExpr("(∧ (∨ p q) (∨ p q))")

	id1 := eg.AddExpr(e)
	classes, nodes := eg.NumClasses(), eg.NumNodes()
	id2 := eg.AddExpr(e)

	if id1 != id2 {
		t.Error("should be the same class")
		return
	}
	if eg.NumClasses() != classes || eg.NumNodes() != nodes {
		t.Errorf("adding twice grew the e-graph: %d/%d -> %d/%d", classes, nodes, eg.NumClasses(), eg.NumNodes())
		return
	}
	if classes != 4 || nodes != 4 {
		t.Errorf("expected 4 classes and 4 nodes, got %d and %d", classes, nodes)
		return
	}
	if eg.Stats.HashconsHits == 0 {
		t.Error("expected hash-cons hits")
	}
}

func TestUnionTransitive(t *testing.T) {
	eg := NewEGraph()
	a := leaf(eg, "a")
	b := leaf(eg, "b")
	c := leaf(eg, "c")

	if !eg.Union(a, b) {
		t.Error("first union should merge")
		return
	}
	if !eg.Union(b, c) {
		t.Error("second union should merge")
		return
	}
	if eg.Union(c, a) {
		t.Error("third union should be a no-op")
		return
	}
	eg.Rebuild()

	if eg.Find(a) != eg.Find(b) || eg.Find(b) != eg.Find(c) {
		t.Error("a, b and c should share a class")
		return
	}
	if eg.NumClasses() != 1 || eg.NumNodes() != 3 {
		t.Errorf("expected 1 class with 3 nodes, got %d classes and %d nodes", eg.NumClasses(), eg.NumNodes())
		return
	}
	if err := eg.CheckInvariants(); err != nil {
		t.Error(err)
	}
}

func TestUnionSymmetric(t *testing.T) {
	eg1 := NewEGraph()
	a1, b1 := leaf(eg1, "a"), leaf(eg1, "b")
	eg1.Union(a1, b1)
	eg1.Rebuild()

	eg2 := NewEGraph()
	a2, b2 := leaf(eg2, "a"), leaf(eg2, "b")
	eg2.Union(b2, a2)
	eg2.Rebuild()

	if eg1.Find(a1) != eg1.Find(b1) || eg2.Find(a2) != eg2.Find(b2) {
		t.Error("union should merge in both directions")
		return
	}
	if eg1.NumClasses() != eg2.NumClasses() {
		t.Error("union order changed the partition")
	}
}

func TestCongruence(t *testing.T) {
	eg := NewEGraph()
	fa := eg.AddExpr(MustParseExpr("(f a)"))
	fb := eg.AddExpr(MustParseExpr("(f b)"))
	a, _ := eg.LookupExpr(Leaf("a"))
	b, _ := eg.LookupExpr(Leaf("b"))

	if eg.Find(fa) == eg.Find(fb) {
		t.Error("(f a) and (f b) should start apart")
		return
	}
	eg.Union(a, b)
	if eg.IsClean() {
		t.Error("union should leave pending work")
		return
	}
	unions := eg.Rebuild()

	if eg.Find(fa) != eg.Find(fb) {
		t.Error("rebuild should merge (f a) and (f b)")
		return
	}
	if unions != 1 {
		t.Errorf("expected 1 congruence union, got %d", unions)
		return
	}
	if eg.Class(fa).Len() != 1 {
		t.Errorf("congruent nodes should collapse, class has %d nodes", eg.Class(fa).Len())
		return
	}
	if err := eg.CheckInvariants(); err != nil {
		t.Error(err)
	}
}

func TestCongruenceChain(t *testing.T) {
	eg := NewEGraph()
	x := eg.AddExpr(MustParseExpr("(g (f (f a)) c)"))
	y := eg.AddExpr(MustParseExpr("(g (f (f b)) c)"))
	a, _ := eg.LookupExpr(Leaf("a"))
	b, _ := eg.LookupExpr(Leaf("b"))

	eg.Union(a, b)
	eg.Rebuild()

	if eg.Find(x) != eg.Find(y) {
		t.Error("congruence should propagate through every level")
		return
	}
	if err := eg.CheckInvariants(); err != nil {
		t.Error(err)
	}
}

func TestSelfReference(t *testing.T) {
	eg := NewEGraph()
	a := leaf(eg, "a")
	fa := eg.Add(ENode{Op: Intern("f"), Children: []ClassId{a}})
	eg.Union(a, fa)
	eg.Rebuild()

	ffa, ok := eg.LookupExpr(MustParseExpr("(f (f (f a)))"))
	if !ok {
		t.Error("every tower of f should be represented")
		return
	}
	if eg.Find(ffa) != eg.Find(a) {
		t.Error("(f (f (f a))) should be equal to a")
		return
	}
	if err := eg.CheckInvariants(); err != nil {
		t.Error(err)
	}
}

func TestLookup(t *testing.T) {
	eg := NewEGraph()
	id := eg.AddExpr(MustParseExpr("(¬ p)"))

	got, ok := eg.LookupExpr(MustParseExpr("(¬ p)"))
	if !ok || got != id {
		t.Error("lookup should find (¬ p)")
		return
	}
	if _, ok := eg.LookupExpr(MustParseExpr("(¬ q)")); ok {
		t.Error("lookup should not find (¬ q)")
		return
	}
	if eg.NumNodes() != 2 {
		t.Error("lookup must not add nodes")
	}
}

func TestDanglingChildPanics(t *testing.T) {
	eg := NewEGraph()
	leaf(eg, "a")

	defer func() {
		if recover() == nil {
			t.Error("adding a node with an unknown child should panic")
		}
	}()
	eg.Add(ENode{Op: Intern("f"), Children: []ClassId{42}})
}

func TestRebuildOrderIndependent(t *testing.T) {
	exprs := []string{"a", "b", "(f a b)", "(f b a)", "(f a a)", "(f b b)", "(g (f a b))", "(g (f b b))"}
	build := func(order [][2]string) *EGraph {
		eg := NewEGraph()
		// ids are taken before any union so that no lookup meets a stale table
		ids := make(map[string]ClassId)
		for _, s := range exprs {
			ids[s] = eg.AddExpr(MustParseExpr(s))
		}
		for _, pair := range order {
			eg.Union(ids[pair[0]], ids[pair[1]])
		}
		eg.Rebuild()
		return eg
	}

	eg1 := build([][2]string{{"a", "b"}, {"(f a b)", "(g (f a b))"}})
	eg2 := build([][2]string{{"(f a b)", "(g (f a b))"}, {"b", "a"}})

	if eg1.NumClasses() != eg2.NumClasses() || eg1.NumNodes() != eg2.NumNodes() {
		t.Errorf("partitions differ: %d/%d vs %d/%d", eg1.NumClasses(), eg1.NumNodes(), eg2.NumClasses(), eg2.NumNodes())
		return
	}
	for _, eg := range []*EGraph{eg1, eg2} {
		x, ok := eg.LookupExpr(MustParseExpr("(g (f b b))"))
		if !ok {
			t.Error("(g (f b b)) not found after rebuild")
			return
		}
		y, ok := eg.LookupExpr(MustParseExpr("(f a a)"))
		if !ok {
			t.Error("(f a a) not found after rebuild")
			return
		}
		if eg.Find(x) != eg.Find(y) {
			t.Error("(g (f b b)) should equal (f a a)")
			return
		}
		if err := eg.CheckInvariants(); err != nil {
			t.Error(err)
			return
		}
	}
}

func TestMemoAfterSaturation(t *testing.T) {
	for _, iters := range []int{5, 6} {
		r := NewRunner().
			WithExpr(MustParseExpr(BooleanStart)).
			WithIterLimit(iters).
			WithNodeLimit(1000000).
			WithTimeLimit(0).
			Run(BooleanRules())
		eg := r.EGraph
		if err := eg.CheckInvariants(); err != nil {
			t.Errorf("after %d iterations: %s", iters, err)
			return
		}
		if eg.memoSize() != eg.NumNodes() {
			t.Errorf("after %d iterations: memo holds %d entries for %d nodes", iters, eg.memoSize(), eg.NumNodes())
			return
		}
		for _, cls := range eg.Classes() {
			for _, n := range cls.Nodes {
				if id, ok := eg.Lookup(n); !ok || id != cls.Id {
					t.Errorf("after %d iterations: node of class %d not found through the table", iters, cls.Id)
					return
				}
			}
		}
	}
}

func TestDot(t *testing.T) {
	eg := NewEGraph()
	eg.AddExpr(MustParseExpr("(∨ p q)"))
	dot := eg.Dot()
	if !strings.HasPrefix(dot, "digraph egraph {") || !strings.Contains(dot, "cluster_2") {
		t.Errorf("unexpected dot output:\n%s", dot)
	}
}
