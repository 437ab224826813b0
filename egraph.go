package goegg

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ENode is an operator applied to e-class ids.
type ENode struct {
	Op       Symbol
	Children []ClassId
}

func (n ENode) hash() uint64 {
	buf := make([]byte, 4*(len(n.Children)+2))
	binary.LittleEndian.PutUint32(buf, uint32(n.Op))
	binary.LittleEndian.PutUint32(buf[4:], uint32(len(n.Children)))
	for i, c := range n.Children {
		binary.LittleEndian.PutUint32(buf[4*(i+2):], uint32(c))
	}
	return xxhash.Sum64(buf)
}

func (n ENode) eq(o ENode) bool {
	if n.Op != o.Op || len(n.Children) != len(o.Children) {
		return false
	}
	for i := range n.Children {
		if n.Children[i] != o.Children[i] {
			return false
		}
	}
	return true
}

// less orders nodes by operator name, arity, then child ids.
func (n ENode) less(o ENode) bool {
	if n.Op != o.Op {
		return n.Op.String() < o.Op.String()
	}
	if len(n.Children) != len(o.Children) {
		return len(n.Children) < len(o.Children)
	}
	for i := range n.Children {
		if n.Children[i] != o.Children[i] {
			return n.Children[i] < o.Children[i]
		}
	}
	return false
}

func (n ENode) String() string {
	if len(n.Children) == 0 {
		return n.Op.String()
	}
	b := strings.Builder{}
	b.WriteString("(")
	b.WriteString(n.Op.String())
	for _, c := range n.Children {
		b.WriteString(fmt.Sprintf(" #%d", c))
	}
	b.WriteString(")")
	return b.String()
}

type parentRef struct {
	node  ENode
	class ClassId
}

// EClass is a set of e-nodes proven equal.
type EClass struct {
	Id    ClassId
	Nodes []ENode

	parents []parentRef
}

func (c *EClass) Len() int {
	return len(c.Nodes)
}

type hashconsEntry struct {
	node ENode
	id   ClassId
}

type EGraphStats struct {
	HashconsLookups uint
	HashconsHits    uint
	Unions          uint
	Rebuilds        uint
	Repairs         uint
}

type EGraph struct {
	uf         unionFind
	classes    []*EClass
	memo       map[uint64][]hashconsEntry
	pending    []ClassId
	numClasses int
	numNodes   int

	Stats EGraphStats
}

func NewEGraph() *EGraph {
	return &EGraph{
		classes: make([]*EClass, 0),
		memo:    map[uint64][]hashconsEntry{},
		pending: make([]ClassId, 0),
		Stats:   EGraphStats{},
	}
}

func (eg *EGraph) PrintStats() {
	fmt.Println("=====================")
	fmt.Println("     EGraph Stats")
	fmt.Println("=====================")
	fmt.Printf("classes:    %d\n", eg.numClasses)
	fmt.Printf("nodes:      %d\n", eg.numNodes)
	fmt.Printf("lookups:    %d\n", eg.Stats.HashconsLookups)
	if eg.Stats.HashconsLookups > 0 {
		fmt.Printf("hit ratio:  %.03f %%\n", float64(eg.Stats.HashconsHits)/float64(eg.Stats.HashconsLookups)*100)
	}
	fmt.Printf("unions:     %d\n", eg.Stats.Unions)
	fmt.Printf("rebuilds:   %d\n", eg.Stats.Rebuilds)
	fmt.Printf("repairs:    %d\n", eg.Stats.Repairs)
	fmt.Println("=====================")
}

/*
 *   Hash-cons table
 */

func (eg *EGraph) memoGet(n ENode) (ClassId, bool) {
	bucket := eg.memo[n.hash()]
	for i := 0; i < len(bucket); i++ {
		if bucket[i].node.eq(n) {
			return bucket[i].id, true
		}
	}
	return 0, false
}

func (eg *EGraph) memoInsert(n ENode, id ClassId) {
	h := n.hash()
	bucket := eg.memo[h]
	for i := 0; i < len(bucket); i++ {
		if bucket[i].node.eq(n) {
			bucket[i].id = id
			return
		}
	}
	eg.memo[h] = append(bucket, hashconsEntry{n, id})
}

func (eg *EGraph) memoSize() int {
	n := 0
	for _, bucket := range eg.memo {
		n += len(bucket)
	}
	return n
}

/*
 *   Public Interface
 */

func (eg *EGraph) Find(id ClassId) ClassId {
	return eg.uf.find(id)
}

func (eg *EGraph) canonicalize(n ENode) ENode {
	children := make([]ClassId, len(n.Children))
	for i, c := range n.Children {
		children[i] = eg.uf.find(c)
	}
	return ENode{Op: n.Op, Children: children}
}

// Add inserts a node, returning the class of an existing equal node if any.
// Children must be ids previously returned by this e-graph.
func (eg *EGraph) Add(n ENode) ClassId {
	n = eg.canonicalize(n)
	eg.Stats.HashconsLookups += 1
	if id, ok := eg.memoGet(n); ok {
		eg.Stats.HashconsHits += 1
		return eg.uf.find(id)
	}

	id := eg.uf.makeSet()
	eg.classes = append(eg.classes, &EClass{Id: id, Nodes: []ENode{n}})
	for i, c := range n.Children {
		dup := false
		for j := 0; j < i; j++ {
			if n.Children[j] == c {
				dup = true
				break
			}
		}
		if !dup {
			cls := eg.classes[c]
			cls.parents = append(cls.parents, parentRef{n, id})
		}
	}
	eg.memoInsert(n, id)
	eg.numClasses += 1
	eg.numNodes += 1
	return id
}

func (eg *EGraph) AddExpr(e *Expr) ClassId {
	children := make([]ClassId, len(e.Children))
	for i, c := range e.Children {
		children[i] = eg.AddExpr(c)
	}
	return eg.Add(ENode{Op: e.Op, Children: children})
}

func (eg *EGraph) Lookup(n ENode) (ClassId, bool) {
	n = eg.canonicalize(n)
	id, ok := eg.memoGet(n)
	if !ok {
		return 0, false
	}
	return eg.uf.find(id), true
}

// LookupExpr returns the class representing e without adding anything.
func (eg *EGraph) LookupExpr(e *Expr) (ClassId, bool) {
	children := make([]ClassId, len(e.Children))
	for i, c := range e.Children {
		id, ok := eg.LookupExpr(c)
		if !ok {
			return 0, false
		}
		children[i] = id
	}
	return eg.Lookup(ENode{Op: e.Op, Children: children})
}

// Union merges the classes of a and b. It reports whether they were distinct.
// Congruence is restored by the next Rebuild.
func (eg *EGraph) Union(a, b ClassId) bool {
	ra := eg.uf.findMut(a)
	rb := eg.uf.findMut(b)
	if ra == rb {
		return false
	}

	root, other := eg.uf.union(ra, rb)
	rc := eg.classes[root]
	oc := eg.classes[other]
	rc.Nodes = append(rc.Nodes, oc.Nodes...)
	rc.parents = append(rc.parents, oc.parents...)
	eg.classes[other] = nil
	eg.numClasses -= 1
	eg.pending = append(eg.pending, root)
	eg.Stats.Unions += 1
	return true
}

// Rebuild restores hash-cons uniqueness and congruence closure after a batch
// of unions. It returns the number of unions it performed.
func (eg *EGraph) Rebuild() int {
	before := eg.Stats.Unions
	for len(eg.pending) > 0 {
		todo := eg.pending
		eg.pending = make([]ClassId, 0)
		for i := range todo {
			todo[i] = eg.uf.findMut(todo[i])
		}
		sort.Slice(todo, func(i, j int) bool { return todo[i] < todo[j] })
		for i, id := range todo {
			if i > 0 && todo[i-1] == id {
				continue
			}
			eg.repair(id)
		}
	}
	eg.rebuildClasses()
	eg.Stats.Rebuilds += 1
	return int(eg.Stats.Unions - before)
}

func (eg *EGraph) repair(id ClassId) {
	eg.Stats.Repairs += 1
	cls := eg.classes[eg.uf.findMut(id)]
	parents := cls.parents
	cls.parents = nil

	for i := range parents {
		parents[i] = parentRef{eg.canonicalize(parents[i].node), eg.uf.findMut(parents[i].class)}
	}
	sort.SliceStable(parents, func(i, j int) bool {
		if !parents[i].node.eq(parents[j].node) {
			return parents[i].node.less(parents[j].node)
		}
		return parents[i].class < parents[j].class
	})

	unique := make([]parentRef, 0, len(parents))
	for _, p := range parents {
		if len(unique) > 0 && unique[len(unique)-1].node.eq(p.node) {
			last := &unique[len(unique)-1]
			eg.Union(last.class, p.class)
			last.class = eg.uf.findMut(last.class)
			continue
		}
		unique = append(unique, p)
	}

	// the class may have been merged by the unions above
	root := eg.classes[eg.uf.findMut(id)]
	root.parents = append(root.parents, unique...)
}

// rebuildClasses canonicalizes the nodes of every class and refills the
// hash-cons table from them, so no key survives with a stale child id.
func (eg *EGraph) rebuildClasses() {
	eg.numNodes = 0
	eg.memo = make(map[uint64][]hashconsEntry, len(eg.memo))
	for _, cls := range eg.classes {
		if cls == nil {
			continue
		}
		for i := range cls.Nodes {
			cls.Nodes[i] = eg.canonicalize(cls.Nodes[i])
		}
		sort.Slice(cls.Nodes, func(i, j int) bool { return cls.Nodes[i].less(cls.Nodes[j]) })
		unique := cls.Nodes[:0]
		for _, n := range cls.Nodes {
			if len(unique) > 0 && unique[len(unique)-1].eq(n) {
				continue
			}
			unique = append(unique, n)
		}
		cls.Nodes = unique
		for _, n := range cls.Nodes {
			eg.memoInsert(n, cls.Id)
		}
		eg.numNodes += len(cls.Nodes)
	}
}

// Class returns the class currently holding id.
func (eg *EGraph) Class(id ClassId) *EClass {
	return eg.classes[eg.uf.find(id)]
}

// Classes returns the live classes ordered by id.
func (eg *EGraph) Classes() []*EClass {
	res := make([]*EClass, 0, eg.numClasses)
	for _, cls := range eg.classes {
		if cls != nil {
			res = append(res, cls)
		}
	}
	return res
}

func (eg *EGraph) NumClasses() int {
	return eg.numClasses
}

func (eg *EGraph) NumNodes() int {
	return eg.numNodes
}

// IsClean reports whether no unions wait for a Rebuild.
func (eg *EGraph) IsClean() bool {
	return len(eg.pending) == 0
}

// CheckInvariants verifies hash-cons uniqueness, canonical ids and congruence
// closure. It is only meaningful right after a Rebuild.
func (eg *EGraph) CheckInvariants() error {
	if !eg.IsClean() {
		return fmt.Errorf("e-graph has %d pending unions", len(eg.pending))
	}
	seen := 0
	for _, cls := range eg.Classes() {
		if eg.uf.find(cls.Id) != cls.Id {
			return fmt.Errorf("class #%d is not canonical", cls.Id)
		}
		for _, n := range cls.Nodes {
			seen += 1
			for _, c := range n.Children {
				if eg.uf.find(c) != c {
					return fmt.Errorf("node %s in #%d has stale child #%d", n, cls.Id, c)
				}
			}
			id, ok := eg.memoGet(n)
			if !ok {
				return fmt.Errorf("node %s in #%d missing from hash-cons", n, cls.Id)
			}
			if id != cls.Id {
				return fmt.Errorf("node %s stored in #%d but hash-cons says #%d", n, cls.Id, id)
			}
		}
	}
	if seen != eg.numNodes || seen != eg.memoSize() {
		return fmt.Errorf("node count %d differs from hash-cons size %d", seen, eg.memoSize())
	}
	return nil
}

// Dot renders the e-graph in Graphviz format, one cluster per class.
func (eg *EGraph) Dot() string {
	b := strings.Builder{}
	b.WriteString("digraph egraph {\n  compound=true\n  clusterrank=local\n")
	for _, cls := range eg.Classes() {
		b.WriteString(fmt.Sprintf("  subgraph cluster_%d {\n    style=dotted\n", cls.Id))
		for i, n := range cls.Nodes {
			b.WriteString(fmt.Sprintf("    \"%d.%d\" [label=%q]\n", cls.Id, i, n.Op.String()))
		}
		b.WriteString("  }\n")
	}
	for _, cls := range eg.Classes() {
		for i, n := range cls.Nodes {
			for j, c := range n.Children {
				b.WriteString(fmt.Sprintf("  \"%d.%d\" -> \"%d.0\" [lhead=cluster_%d, label=%d]\n", cls.Id, i, c, c, j))
			}
		}
	}
	b.WriteString("}\n")
	return b.String()
}
