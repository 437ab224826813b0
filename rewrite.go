package goegg

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

var ErrUnboundVariable = errors.New("unbound pattern variable")

// Applier produces the right-hand side of a rewrite for one match. It may add
// nodes and union classes; it reports whether it merged anything.
type Applier interface {
	Apply(eg *EGraph, id ClassId, subst Subst) bool
}

// ApplierFunc adapts a function to the Applier interface.
type ApplierFunc func(eg *EGraph, id ClassId, subst Subst) bool

func (f ApplierFunc) Apply(eg *EGraph, id ClassId, subst Subst) bool {
	return f(eg, id, subst)
}

// PatternApplier instantiates a pattern and unions it with the matched class.
type PatternApplier struct {
	Pattern *Pattern
}

func (pa PatternApplier) Apply(eg *EGraph, id ClassId, subst Subst) bool {
	return eg.Union(id, eg.Instantiate(pa.Pattern, subst))
}

// ConditionalApplier runs Applier only when Condition holds for the match.
type ConditionalApplier struct {
	Condition func(eg *EGraph, id ClassId, subst Subst) bool
	Applier   Applier
}

func (ca ConditionalApplier) Apply(eg *EGraph, id ClassId, subst Subst) bool {
	if !ca.Condition(eg, id, subst) {
		return false
	}
	return ca.Applier.Apply(eg, id, subst)
}

// Instantiate adds p to the e-graph with its variables replaced by their
// bound classes. Every variable of p must be bound.
func (eg *EGraph) Instantiate(p *Pattern, subst Subst) ClassId {
	if p.IsVar() {
		id, ok := subst.Get(p.Var)
		if !ok {
			panic(fmt.Sprintf("Instantiate(): variable ?%s is not bound by %s", p.Var, subst))
		}
		return id
	}
	children := make([]ClassId, len(p.Children))
	for i, c := range p.Children {
		children[i] = eg.Instantiate(c, subst)
	}
	return eg.Add(ENode{Op: p.Op, Children: children})
}

// Rewrite is a named rule: wherever Searcher occurs, Applier fires.
type Rewrite struct {
	Name     string
	Searcher *Pattern
	Applier  Applier

	once     sync.Once
	compiled *compiledPattern
}

func NewRewrite(name string, lhs, rhs *Pattern) (*Rewrite, error) {
	bound := make(map[string]bool)
	for _, v := range lhs.Vars() {
		bound[v] = true
	}
	for _, v := range rhs.Vars() {
		if !bound[v] {
			return nil, fmt.Errorf("%w: ?%s in rule %q", ErrUnboundVariable, v, name)
		}
	}
	return &Rewrite{
		Name:     name,
		Searcher: lhs,
		Applier:  PatternApplier{rhs},
	}, nil
}

func NewDynamicRewrite(name string, lhs *Pattern, applier Applier) *Rewrite {
	return &Rewrite{
		Name:     name,
		Searcher: lhs,
		Applier:  applier,
	}
}

func ParseRewrite(name, lhs, rhs string) (*Rewrite, error) {
	l, err := ParsePattern(lhs)
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", name, err)
	}
	r, err := ParsePattern(rhs)
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", name, err)
	}
	return NewRewrite(name, l, r)
}

func MustParseRewrite(name, lhs, rhs string) *Rewrite {
	rw, err := ParseRewrite(name, lhs, rhs)
	if err != nil {
		panic(err)
	}
	return rw
}

func (rw *Rewrite) String() string {
	if pa, ok := rw.Applier.(PatternApplier); ok {
		return fmt.Sprintf("%s: %s => %s", rw.Name, rw.Searcher, pa.Pattern)
	}
	return fmt.Sprintf("%s: %s => <applier>", rw.Name, rw.Searcher)
}

// pattern compiles the searcher on first use. Rules built as struct
// literals are safe to search from several goroutines.
func (rw *Rewrite) pattern() *compiledPattern {
	rw.once.Do(func() {
		rw.compiled = compilePattern(rw.Searcher)
	})
	return rw.compiled
}

func (rw *Rewrite) Search(eg *EGraph) []SearchMatches {
	return eg.search(rw.pattern())
}

// Apply fires the applier for every match and returns how many applications
// merged something.
func (rw *Rewrite) Apply(eg *EGraph, matches []SearchMatches) int {
	n, _ := rw.applyUntil(eg, matches, math.MaxInt)
	return n
}

// applyUntil is Apply that stops as soon as the e-graph holds more than
// nodeLimit nodes. The second result reports whether it stopped early.
func (rw *Rewrite) applyUntil(eg *EGraph, matches []SearchMatches, nodeLimit int) (int, bool) {
	n := 0
	for _, m := range matches {
		for _, s := range m.Substs {
			if rw.Applier.Apply(eg, m.Class, s) {
				n += 1
			}
			if eg.NumNodes() > nodeLimit {
				return n, true
			}
		}
	}
	return n, false
}
