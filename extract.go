package goegg

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrNoFiniteCost     = errors.New("no finite-cost expression")
	ErrCyclicExtraction = errors.New("best expression is cyclic")
)

// CostFunction maps an operator and the costs of its children to a
// non-negative cost. Costs must not decrease when a child cost increases.
type CostFunction interface {
	Cost(op Symbol, children []float64) float64
}

// AstSize counts operator occurrences.
type AstSize struct{}

func (AstSize) Cost(op Symbol, children []float64) float64 {
	c := 1.0
	for _, cc := range children {
		c += cc
	}
	return c
}

// AstDepth measures the height of the tree.
type AstDepth struct{}

func (AstDepth) Cost(op Symbol, children []float64) float64 {
	d := 0.0
	for _, cc := range children {
		d = math.Max(d, cc)
	}
	return d + 1
}

// OpCost weighs every operator by name, plus the cost of its children.
type OpCost struct {
	Costs   map[string]float64
	Default float64
}

func (oc OpCost) Cost(op Symbol, children []float64) float64 {
	c, ok := oc.Costs[op.String()]
	if !ok {
		c = oc.Default
	}
	for _, cc := range children {
		c += cc
	}
	return c
}

// Extractor holds the best cost and witness node of every class of a
// rebuilt e-graph.
type Extractor struct {
	eg    *EGraph
	cf    CostFunction
	costs []float64
	best  map[ClassId]ENode
}

func NewExtractor(eg *EGraph, cf CostFunction) *Extractor {
	if !eg.IsClean() {
		panic("NewExtractor(): e-graph must be rebuilt before extraction")
	}
	x := &Extractor{
		eg:    eg,
		cf:    cf,
		costs: make([]float64, len(eg.classes)),
		best:  make(map[ClassId]ENode),
	}
	for i := range x.costs {
		x.costs[i] = math.Inf(1)
	}
	x.findCosts()
	return x
}

func (x *Extractor) nodeCost(n ENode) float64 {
	children := make([]float64, len(n.Children))
	for i, c := range n.Children {
		cc := x.costs[c]
		if math.IsInf(cc, 1) {
			return cc
		}
		children[i] = cc
	}
	return x.cf.Cost(n.Op, children)
}

// findCosts relaxes class costs from +Inf until no class improves, then picks
// as witness the first node of each class (in class order) reaching the best
// cost.
func (x *Extractor) findCosts() {
	classes := x.eg.Classes()
	for changed := true; changed; {
		changed = false
		for _, cls := range classes {
			for _, n := range cls.Nodes {
				if c := x.nodeCost(n); c < x.costs[cls.Id] {
					x.costs[cls.Id] = c
					changed = true
				}
			}
		}
	}

	for _, cls := range classes {
		if math.IsInf(x.costs[cls.Id], 1) {
			continue
		}
		for _, n := range cls.Nodes {
			if x.nodeCost(n) == x.costs[cls.Id] {
				x.best[cls.Id] = n
				break
			}
		}
	}
}

// BestCost returns the minimum cost of class id, false if none is finite.
func (x *Extractor) BestCost(id ClassId) (float64, bool) {
	c := x.costs[x.eg.Find(id)]
	return c, !math.IsInf(c, 1)
}

func (x *Extractor) FindBestNode(id ClassId) (ENode, error) {
	id = x.eg.Find(id)
	n, ok := x.best[id]
	if !ok {
		return ENode{}, fmt.Errorf("%w: class #%d", ErrNoFiniteCost, id)
	}
	return n, nil
}

// FindBest returns the cheapest expression represented by class id.
func (x *Extractor) FindBest(id ClassId) (float64, *Expr, error) {
	id = x.eg.Find(id)
	cost, ok := x.BestCost(id)
	if !ok {
		return cost, nil, fmt.Errorf("%w: class #%d", ErrNoFiniteCost, id)
	}
	e, err := x.build(id, make(map[ClassId]bool), make(map[ClassId]*Expr))
	if err != nil {
		return cost, nil, err
	}
	return cost, e, nil
}

func (x *Extractor) build(id ClassId, onPath map[ClassId]bool, done map[ClassId]*Expr) (*Expr, error) {
	if e, ok := done[id]; ok {
		return e, nil
	}
	if onPath[id] {
		return nil, fmt.Errorf("%w: class #%d", ErrCyclicExtraction, id)
	}
	n, ok := x.best[id]
	if !ok {
		return nil, fmt.Errorf("%w: class #%d", ErrNoFiniteCost, id)
	}

	onPath[id] = true
	children := make([]*Expr, len(n.Children))
	for i, c := range n.Children {
		ce, err := x.build(x.eg.Find(c), onPath, done)
		if err != nil {
			return nil, err
		}
		children[i] = ce
	}
	delete(onPath, id)

	e := &Expr{Op: n.Op, Children: children}
	done[id] = e
	return e, nil
}
