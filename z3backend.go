package goegg

import (
	"fmt"

	"github.com/aclements/go-z3/z3"
)

type z3backend struct {
	ctx    *z3.Context
	cfg    *z3.Config
	solver *z3.Solver

	lastSymbols map[string]z3.Bool
}

func newZ3Backend() *z3backend {
	cfg := z3.NewContextConfig()
	ctx := z3.NewContext(cfg)
	return &z3backend{
		ctx:    ctx,
		cfg:    cfg,
		solver: z3.NewSolver(ctx),
	}
}

func (s *z3backend) check(query *Expr) int {
	s.solver.Reset()
	s.lastSymbols = make(map[string]z3.Bool)

	cache := make(map[*Expr]z3.Bool)
	z3query, err := s.convert(query, cache, s.lastSymbols)
	if err != nil {
		return RESULT_ERROR
	}
	s.solver.Assert(z3query)

	r, err := s.solver.Check()
	if err != nil {
		return RESULT_UNKNOWN
	}
	if r {
		return RESULT_SAT
	}
	return RESULT_UNSAT
}

func (s *z3backend) model() map[string]bool {
	m := s.solver.Model()
	if m == nil {
		return nil
	}

	res := make(map[string]bool)
	for name, sym := range s.lastSymbols {
		v, ok := m.Eval(sym, true).(z3.Bool).AsBool()
		if !ok {
			panic("model value is not a boolean literal")
		}
		res[name] = v
	}
	return res
}

func (s *z3backend) convert(e *Expr, cache map[*Expr]z3.Bool, symbols map[string]z3.Bool) (z3.Bool, error) {
	if v, ok := cache[e]; ok {
		return v, nil
	}

	args := make([]z3.Bool, len(e.Children))
	for i, c := range e.Children {
		v, err := s.convert(c, cache, symbols)
		if err != nil {
			return v, err
		}
		args[i] = v
	}

	var result z3.Bool
	op := e.Op.String()
	switch {
	case len(args) == 0 && op == OP_TRUE:
		result = s.ctx.FromBool(true)
	case len(args) == 0 && op == OP_FALSE:
		result = s.ctx.FromBool(false)
	case len(args) == 0:
		sym, ok := symbols[op]
		if !ok {
			sym = s.ctx.BoolConst(op)
			symbols[op] = sym
		}
		result = sym
	case op == OP_NOT && len(args) == 1:
		result = args[0].Not()
	case op == OP_AND && len(args) >= 2:
		result = args[0].And(args[1:]...)
	case op == OP_OR && len(args) >= 2:
		result = args[0].Or(args[1:]...)
	case op == OP_EQ && len(args) == 2:
		result = args[0].Iff(args[1])
	case op == OP_IMPLIES && len(args) == 2:
		result = args[0].Implies(args[1])
	default:
		return result, fmt.Errorf("cannot encode %s with %d operands", op, len(args))
	}

	cache[e] = result
	return result, nil
}
