package goegg

import (
	"fmt"
)

const maxTruthTableVars = 20

func isBoolLiteralName(name string) bool {
	return name == OP_TRUE || name == OP_FALSE
}

// FreeVars returns the propositional variables of a boolean expression.
func FreeVars(e *Expr) []string {
	return e.Leaves(func(name string) bool { return !isBoolLiteralName(name) })
}

// EvalBool evaluates e under interpr. Every free variable must be assigned.
func EvalBool(e *Expr, interpr map[string]BoolV) (BoolV, error) {
	cache := make(map[*Expr]BoolV)
	return evalBoolInternal(e, cache, interpr)
}

func evalBoolInternal(e *Expr, cache map[*Expr]BoolV, interpr map[string]BoolV) (BoolV, error) {
	if r, ok := cache[e]; ok {
		return r, nil
	}

	args := make([]BoolV, len(e.Children))
	for i, c := range e.Children {
		v, err := evalBoolInternal(c, cache, interpr)
		if err != nil {
			return BoolV{}, err
		}
		args[i] = v
	}

	var result BoolV
	op := e.Op.String()
	switch {
	case len(args) == 0 && op == OP_TRUE:
		result = BoolTrue()
	case len(args) == 0 && op == OP_FALSE:
		result = BoolFalse()
	case len(args) == 0:
		v, ok := interpr[op]
		if !ok {
			return BoolV{}, fmt.Errorf("no value for variable %s", op)
		}
		result = v
	case op == OP_NOT && len(args) == 1:
		result = args[0].Not()
	case op == OP_AND && len(args) >= 2:
		result = args[0]
		for _, a := range args[1:] {
			result = result.And(a)
		}
	case op == OP_OR && len(args) >= 2:
		result = args[0]
		for _, a := range args[1:] {
			result = result.Or(a)
		}
	case op == OP_EQ && len(args) == 2:
		result = args[0].Eq(args[1])
	case op == OP_IMPLIES && len(args) == 2:
		result = args[0].Implies(args[1])
	default:
		return BoolV{}, fmt.Errorf("cannot evaluate %s with %d operands", op, len(args))
	}

	cache[e] = result
	return result, nil
}

// TruthTableEquivalent compares a and b on every assignment of their free
// variables.
func TruthTableEquivalent(a, b *Expr) (bool, error) {
	seen := make(map[string]bool)
	vars := make([]string, 0)
	for _, v := range append(FreeVars(a), FreeVars(b)...) {
		if !seen[v] {
			seen[v] = true
			vars = append(vars, v)
		}
	}
	if len(vars) > maxTruthTableVars {
		return false, fmt.Errorf("too many variables for a truth table: %d", len(vars))
	}

	interpr := make(map[string]BoolV, len(vars))
	for mask := 0; mask < 1<<len(vars); mask++ {
		for i, v := range vars {
			interpr[v] = BoolV{mask&(1<<i) != 0}
		}
		va, err := EvalBool(a, interpr)
		if err != nil {
			return false, err
		}
		vb, err := EvalBool(b, interpr)
		if err != nil {
			return false, err
		}
		if va != vb {
			return false, nil
		}
	}
	return true, nil
}
