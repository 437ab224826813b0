package goegg

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const unbound = ^ClassId(0)

// Subst binds pattern variables to classes.
type Subst struct {
	vars []string
	ids  []ClassId
}

func (s Subst) Get(name string) (ClassId, bool) {
	name = strings.TrimPrefix(name, "?")
	for i, v := range s.vars {
		if v == name {
			if s.ids[i] == unbound {
				return 0, false
			}
			return s.ids[i], true
		}
	}
	return 0, false
}

func (s Subst) Len() int {
	return len(s.vars)
}

func (s Subst) String() string {
	b := strings.Builder{}
	b.WriteString("{")
	for i, v := range s.vars {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(fmt.Sprintf("?%s: #%d", v, s.ids[i]))
	}
	b.WriteString("}")
	return b.String()
}

// SearchMatches are the substitutions under which a pattern occurs in Class.
type SearchMatches struct {
	Class  ClassId
	Substs []Subst
}

/*
 *   Compiled patterns
 */

type patNode struct {
	op       Symbol
	slot     int
	children []int
}

type compiledPattern struct {
	source *Pattern
	vars   []string
	nodes  []patNode
	root   int
}

func compilePattern(p *Pattern) *compiledPattern {
	cp := &compiledPattern{source: p, vars: p.Vars()}
	slots := make(map[string]int, len(cp.vars))
	for i, v := range cp.vars {
		slots[v] = i
	}
	var visit func(*Pattern) int
	visit = func(q *Pattern) int {
		if q.IsVar() {
			cp.nodes = append(cp.nodes, patNode{slot: slots[q.Var]})
			return len(cp.nodes) - 1
		}
		children := make([]int, len(q.Children))
		for i, c := range q.Children {
			children[i] = visit(c)
		}
		cp.nodes = append(cp.nodes, patNode{op: q.Op, slot: -1, children: children})
		return len(cp.nodes) - 1
	}
	cp.root = visit(p)
	return cp
}

/*
 *   Matching
 */

type matchKey struct {
	node  int
	class ClassId
}

// matcher memoizes the partial bindings of every (pattern node, class) pair
// for one pass over a fixed e-graph. It only reads the e-graph.
type matcher struct {
	eg   *EGraph
	pat  *compiledPattern
	memo map[matchKey][][]ClassId
}

func newMatcher(eg *EGraph, pat *compiledPattern) *matcher {
	return &matcher{eg: eg, pat: pat, memo: make(map[matchKey][][]ClassId)}
}

func (m *matcher) empty() []ClassId {
	b := make([]ClassId, len(m.pat.vars))
	for i := range b {
		b[i] = unbound
	}
	return b
}

func (m *matcher) match(node int, class ClassId) [][]ClassId {
	class = m.eg.uf.find(class)
	key := matchKey{node, class}
	if r, ok := m.memo[key]; ok {
		return r
	}

	pn := m.pat.nodes[node]
	var res [][]ClassId
	if pn.slot >= 0 {
		b := m.empty()
		b[pn.slot] = class
		res = [][]ClassId{b}
	} else {
		for _, n := range m.eg.classes[class].Nodes {
			if n.Op != pn.op || len(n.Children) != len(pn.children) {
				continue
			}
			partial := [][]ClassId{m.empty()}
			for i, ci := range pn.children {
				partial = join(partial, m.match(ci, n.Children[i]))
				if len(partial) == 0 {
					break
				}
			}
			res = append(res, partial...)
		}
		res = dedupBindings(res)
	}
	m.memo[key] = res
	return res
}

// join combines every pair of partial bindings that agree on shared
// variables.
func join(left, right [][]ClassId) [][]ClassId {
	res := make([][]ClassId, 0, len(left)*len(right))
	for _, l := range left {
	next:
		for _, r := range right {
			merged := make([]ClassId, len(l))
			for i := range l {
				switch {
				case l[i] == unbound:
					merged[i] = r[i]
				case r[i] == unbound || r[i] == l[i]:
					merged[i] = l[i]
				default:
					continue next
				}
			}
			res = append(res, merged)
		}
	}
	return res
}

func bindingHash(b []ClassId) uint64 {
	buf := make([]byte, 4*len(b))
	for i, id := range b {
		binary.LittleEndian.PutUint32(buf[4*i:], uint32(id))
	}
	return xxhash.Sum64(buf)
}

func sameBinding(a, b []ClassId) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func dedupBindings(bs [][]ClassId) [][]ClassId {
	if len(bs) < 2 {
		return bs
	}
	buckets := make(map[uint64][][]ClassId, len(bs))
	res := bs[:0]
	for _, b := range bs {
		h := bindingHash(b)
		dup := false
		for _, o := range buckets[h] {
			if sameBinding(o, b) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		buckets[h] = append(buckets[h], b)
		res = append(res, b)
	}
	return res
}

// SearchClass returns the substitutions under which p occurs in class id.
func (eg *EGraph) SearchClass(p *Pattern, id ClassId) []Subst {
	cp := compilePattern(p)
	return newMatcher(eg, cp).substs(id)
}

// Search returns every class where p occurs, ordered by class id.
func (eg *EGraph) Search(p *Pattern) []SearchMatches {
	return eg.search(compilePattern(p))
}

func (eg *EGraph) search(cp *compiledPattern) []SearchMatches {
	m := newMatcher(eg, cp)
	res := make([]SearchMatches, 0)
	for _, cls := range eg.Classes() {
		substs := m.substs(cls.Id)
		if len(substs) > 0 {
			res = append(res, SearchMatches{Class: cls.Id, Substs: substs})
		}
	}
	return res
}

func (m *matcher) substs(id ClassId) []Subst {
	bindings := m.match(m.pat.root, id)
	res := make([]Subst, len(bindings))
	for i, b := range bindings {
		res[i] = Subst{vars: m.pat.vars, ids: b}
	}
	return res
}
