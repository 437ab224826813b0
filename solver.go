package goegg

import (
	"fmt"
)

const (
	RESULT_ERROR   = 0
	RESULT_SAT     = 1
	RESULT_UNSAT   = 2
	RESULT_UNKNOWN = 3
)

type solverBackend interface {
	check(query *Expr) int
	model() map[string]bool
}

// Solver decides satisfiability of boolean-vocabulary expressions.
type Solver struct {
	backend     solverBackend
	constraints []*Expr
}

func NewZ3Solver() *Solver {
	return &Solver{
		backend:     newZ3Backend(),
		constraints: make([]*Expr, 0),
	}
}

func (s *Solver) Add(constraint *Expr) {
	s.constraints = append(s.constraints, constraint)
}

func (s *Solver) Pi() *Expr {
	switch len(s.constraints) {
	case 0:
		return Leaf(OP_TRUE)
	case 1:
		return s.constraints[0]
	}
	res := s.constraints[0]
	for _, c := range s.constraints[1:] {
		res = Node(OP_AND, res, c)
	}
	return res
}

func (s *Solver) Satisfiable() int {
	return s.backend.check(s.Pi())
}

func (s *Solver) CheckSat(query *Expr) int {
	if len(s.constraints) == 0 {
		return s.backend.check(query)
	}
	return s.backend.check(Node(OP_AND, s.Pi(), query))
}

// Model returns the assignment found by the last satisfiable check.
func (s *Solver) Model() map[string]bool {
	return s.backend.model()
}

// Equivalent proves a and b equal under the current constraints by showing
// that they cannot differ.
func (s *Solver) Equivalent(a, b *Expr) (bool, error) {
	switch r := s.CheckSat(Node(OP_NOT, Node(OP_EQ, a, b))); r {
	case RESULT_UNSAT:
		return true, nil
	case RESULT_SAT:
		return false, nil
	case RESULT_UNKNOWN:
		return false, fmt.Errorf("solver returned unknown on %s == %s", a, b)
	default:
		return false, fmt.Errorf("unable to encode %s == %s", a, b)
	}
}
