package goegg

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/borzacchiello/goegg/internal/sexp"
)

var ErrParse = errors.New("parse error")

/*
 *   Expressions
 */

// Expr is an immutable term: an operator applied to ordered children.
// Subtrees may be shared.
type Expr struct {
	Op       Symbol
	Children []*Expr
}

func Leaf(name string) *Expr {
	return &Expr{Op: Intern(name)}
}

func Node(op string, children ...*Expr) *Expr {
	return &Expr{Op: Intern(op), Children: children}
}

func (e *Expr) IsLeaf() bool {
	return len(e.Children) == 0
}

func (e *Expr) String() string {
	b := strings.Builder{}
	e.write(&b)
	return b.String()
}

func (e *Expr) write(b *strings.Builder) {
	if e.IsLeaf() {
		b.WriteString(e.Op.String())
		return
	}
	b.WriteString("(")
	b.WriteString(e.Op.String())
	for _, c := range e.Children {
		b.WriteString(" ")
		c.write(b)
	}
	b.WriteString(")")
}

// Size is the number of operator occurrences in the tree.
func (e *Expr) Size() int {
	n := 1
	for _, c := range e.Children {
		n += c.Size()
	}
	return n
}

func (e *Expr) Depth() int {
	d := 0
	for _, c := range e.Children {
		if cd := c.Depth(); cd > d {
			d = cd
		}
	}
	return d + 1
}

func (e *Expr) Equal(o *Expr) bool {
	if e == o {
		return true
	}
	if e.Op != o.Op || len(e.Children) != len(o.Children) {
		return false
	}
	for i := range e.Children {
		if !e.Children[i].Equal(o.Children[i]) {
			return false
		}
	}
	return true
}

// Leaves returns the names of the 0-ary operators that satisfy keep, sorted
// and without duplicates.
func (e *Expr) Leaves(keep func(string) bool) []string {
	seen := make(map[string]bool)
	queue := []*Expr{e}
	for len(queue) > 0 {
		el := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if el.IsLeaf() {
			name := el.Op.String()
			if keep == nil || keep(name) {
				seen[name] = true
			}
			continue
		}
		queue = append(queue, el.Children...)
	}
	res := make([]string, 0, len(seen))
	for name := range seen {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}

/*
 *   Patterns
 */

// Pattern is a term whose leaves may be variables. A variable node has an
// empty Op name and a non-empty Var.
type Pattern struct {
	Var      string
	Op       Symbol
	Children []*Pattern
}

func PVar(name string) *Pattern {
	return &Pattern{Var: strings.TrimPrefix(name, "?")}
}

func PNode(op string, children ...*Pattern) *Pattern {
	return &Pattern{Op: Intern(op), Children: children}
}

func (p *Pattern) IsVar() bool {
	return p.Var != ""
}

func (p *Pattern) String() string {
	if p.IsVar() {
		return "?" + p.Var
	}
	if len(p.Children) == 0 {
		return p.Op.String()
	}
	b := strings.Builder{}
	b.WriteString("(")
	b.WriteString(p.Op.String())
	for _, c := range p.Children {
		b.WriteString(" ")
		b.WriteString(c.String())
	}
	b.WriteString(")")
	return b.String()
}

// Vars lists the pattern variables in order of first occurrence.
func (p *Pattern) Vars() []string {
	seen := make(map[string]bool)
	res := make([]string, 0)
	var visit func(*Pattern)
	visit = func(q *Pattern) {
		if q.IsVar() {
			if !seen[q.Var] {
				seen[q.Var] = true
				res = append(res, q.Var)
			}
			return
		}
		for _, c := range q.Children {
			visit(c)
		}
	}
	visit(p)
	return res
}

// ToExpr converts a pattern without variables into an expression.
func (p *Pattern) ToExpr() (*Expr, error) {
	if p.IsVar() {
		return nil, fmt.Errorf("%w: ?%s", ErrUnboundVariable, p.Var)
	}
	children := make([]*Expr, len(p.Children))
	for i, c := range p.Children {
		ce, err := c.ToExpr()
		if err != nil {
			return nil, err
		}
		children[i] = ce
	}
	return &Expr{Op: p.Op, Children: children}, nil
}

/*
 *   Reading
 */

func ParseExpr(s string) (*Expr, error) {
	x, err := sexp.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return exprFromSExp(x)
}

func MustParseExpr(s string) *Expr {
	e, err := ParseExpr(s)
	if err != nil {
		panic(err)
	}
	return e
}

func exprFromSExp(x sexp.SExp) (*Expr, error) {
	switch x := x.(type) {
	case *sexp.Atom:
		if strings.HasPrefix(x.Value, "?") {
			return nil, fmt.Errorf("%w: variable %s in expression", ErrParse, x.Value)
		}
		return Leaf(x.Value), nil
	case *sexp.List:
		op, err := listHead(x)
		if err != nil {
			return nil, err
		}
		children := make([]*Expr, 0, x.Len()-1)
		for _, el := range x.Elements[1:] {
			c, err := exprFromSExp(el)
			if err != nil {
				return nil, err
			}
			children = append(children, c)
		}
		return Node(op, children...), nil
	}
	panic("invalid s-expression")
}

// ParsePattern reads a pattern; atoms starting with '?' are variables.
func ParsePattern(s string) (*Pattern, error) {
	x, err := sexp.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return patternFromSExp(x)
}

func MustParsePattern(s string) *Pattern {
	p, err := ParsePattern(s)
	if err != nil {
		panic(err)
	}
	return p
}

func patternFromSExp(x sexp.SExp) (*Pattern, error) {
	switch x := x.(type) {
	case *sexp.Atom:
		if strings.HasPrefix(x.Value, "?") {
			if len(x.Value) == 1 {
				return nil, fmt.Errorf("%w: empty variable name", ErrParse)
			}
			return PVar(x.Value), nil
		}
		return PNode(x.Value), nil
	case *sexp.List:
		op, err := listHead(x)
		if err != nil {
			return nil, err
		}
		children := make([]*Pattern, 0, x.Len()-1)
		for _, el := range x.Elements[1:] {
			c, err := patternFromSExp(el)
			if err != nil {
				return nil, err
			}
			children = append(children, c)
		}
		return PNode(op, children...), nil
	}
	panic("invalid s-expression")
}

func listHead(l *sexp.List) (string, error) {
	if l.Len() == 0 {
		return "", fmt.Errorf("%w: empty list", ErrParse)
	}
	head, ok := l.Elements[0].(*sexp.Atom)
	if !ok {
		return "", fmt.Errorf("%w: operator must be a symbol in %s", ErrParse, l)
	}
	if strings.HasPrefix(head.Value, "?") {
		return "", fmt.Errorf("%w: operator cannot be a variable in %s", ErrParse, l)
	}
	return head.Value, nil
}
