package goegg

const (
	OP_OR      = "∨"
	OP_AND     = "∧"
	OP_NOT     = "¬"
	OP_EQ      = "=="
	OP_IMPLIES = "=>"
	OP_TRUE    = "true"
	OP_FALSE   = "false"
)

type ruleSource struct {
	name string
	lhs  string
	rhs  string
}

var booleanRules = []ruleSource{
	{"p ∨ q ∨ r => p ∨ q ∨ r", "(∨ (∨ ?p ?q) ?r)", "(∨ ?p (∨ ?q ?r))"},
	{"p ∨ q => q ∨ p", "(∨ ?p ?q)", "(∨ ?q ?p)"},
	{"p ∨ p => p", "(∨ ?p ?p)", "?p"},
	{"p ∨ true => true", "(∨ ?p true)", "true"},
	{"p ∨ false => p", "(∨ ?p false)", "?p"},
	{"p ∧ q ∧ r => p ∧ q ∧ r", "(∧ (∧ ?p ?q) ?r)", "(∧ ?p (∧ ?q ?r))"},
	{"p ∧ q => q ∧ p", "(∧ ?p ?q)", "(∧ ?q ?p)"},
	{"p ∧ p => p", "(∧ ?p ?p)", "?p"},
	{"p ∧ true => p", "(∧ ?p true)", "?p"},
	{"p ∧ false => false", "(∧ ?p false)", "false"},
	{"¬p ∨ q => ¬p ∧ ¬q", "(¬ (∨ ?p ?q))", "(∧ (¬ ?p) (¬ ?q))"},
	{"¬p ∧ q => ¬p ∨ ¬q", "(¬ (∧ ?p ?q))", "(∨ (¬ ?p) (¬ ?q))"},
	{"p ∧ q ∨ r => p ∧ q ∨ p ∧ r", "(∧ ?p (∨ ?q ?r))", "(∨ (∧ ?p ?q) (∧ ?p ?r))"},
	{"p ∨ q ∧ r => p ∨ q ∧ p ∨ r", "(∨ ?p (∧ ?q ?r))", "(∧ (∨ ?p ?q) (∨ ?p ?r))"},
	{"p ∧ p ∨ q => p", "(∧ ?p (∨ ?p ?q))", "?p"},
	{"p ∨ p ∧ q => p", "(∨ ?p (∧ ?p ?q))", "?p"},
	{"p ∧ ¬p ∨ q => p ∧ q", "(∧ ?p (∨ (¬ ?p) ?q))", "(∧ ?p ?q)"},
	{"p ∨ ¬p ∧ q => p ∨ q", "(∨ ?p (∧ (¬ ?p) ?q))", "(∨ ?p ?q)"},
	{"p ∧ ¬p => false", "(∧ ?p (¬ ?p))", "false"},
	{"p ∨ ¬p => true", "(∨ ?p (¬ ?p))", "true"},
	{"¬¬p => p", "(¬ (¬ ?p))", "?p"},
	{"p == ¬p => false", "(== ?p (¬ ?p))", "false"},
	{"p == p => true", "(== ?p ?p)", "true"},
	{"p == q => ¬p ∨ q ∧ ¬q ∨ p", "(== ?p ?q)", "(∧ (∨ (¬ ?p) ?q) (∨ (¬ ?q) ?p))"},
	{"p => q => ¬p ∨ q", "(=> ?p ?q)", "(∨ (¬ ?p) ?q)"},
	{"true == false => false", "(== true false)", "false"},
	{"false == true => false", "(== false true)", "false"},
	{"true == true => true", "(== true true)", "true"},
	{"false == false => true", "(== false false)", "true"},
	{"true ∨ false => true", "(∨ true false)", "true"},
	{"false ∨ true => true", "(∨ false true)", "true"},
	{"true ∨ true => true", "(∨ true true)", "true"},
	{"false ∨ false => false", "(∨ false false)", "false"},
	{"true ∧ true => true", "(∧ true true)", "true"},
	{"false ∧ true => false", "(∧ false true)", "false"},
	{"true ∧ false => false", "(∧ true false)", "false"},
	{"false ∧ false => false", "(∧ false false)", "false"},
	{"¬true => false", "(¬ true)", "false"},
	{"¬false => true", "(¬ false)", "true"},
}

// BooleanStart is the benchmark expression the boolean rules were tuned on.
const BooleanStart = "(∨ (¬ (∧ (∧ (∨ (¬ p) q) (∨ (¬ r) s)) (∨ p r))) (∨ q s))"

// BooleanRules returns the propositional rewrite rules over ∨ ∧ ¬ == =>.
func BooleanRules() []*Rewrite {
	res := make([]*Rewrite, 0, len(booleanRules))
	for _, r := range booleanRules {
		res = append(res, MustParseRewrite(r.name, r.lhs, r.rhs))
	}
	return res
}

// BoolLiteral reports whether class id contains the literal true or false.
func BoolLiteral(eg *EGraph, id ClassId) (BoolV, bool) {
	t := Intern(OP_TRUE)
	f := Intern(OP_FALSE)
	for _, n := range eg.Class(id).Nodes {
		if len(n.Children) != 0 {
			continue
		}
		switch n.Op {
		case t:
			return BoolTrue(), true
		case f:
			return BoolFalse(), true
		}
	}
	return BoolV{}, false
}

func addBoolLiteral(eg *EGraph, v BoolV) ClassId {
	if v.Value {
		return eg.Add(ENode{Op: Intern(OP_TRUE)})
	}
	return eg.Add(ENode{Op: Intern(OP_FALSE)})
}

func foldingRule(name, lhs string, fold func(args []BoolV) BoolV) *Rewrite {
	pat := MustParsePattern(lhs)
	vars := pat.Vars()
	return NewDynamicRewrite(name, pat, ApplierFunc(func(eg *EGraph, id ClassId, subst Subst) bool {
		args := make([]BoolV, len(vars))
		for i, v := range vars {
			c, _ := subst.Get(v)
			lit, ok := BoolLiteral(eg, c)
			if !ok {
				return false
			}
			args[i] = lit
		}
		return eg.Union(id, addBoolLiteral(eg, fold(args)))
	}))
}

// ConstantFolding returns programmatic rules that evaluate connectives whose
// operands are known literals.
func ConstantFolding() []*Rewrite {
	return []*Rewrite{
		foldingRule("fold ¬", "(¬ ?a)", func(a []BoolV) BoolV { return a[0].Not() }),
		foldingRule("fold ∧", "(∧ ?a ?b)", func(a []BoolV) BoolV { return a[0].And(a[1]) }),
		foldingRule("fold ∨", "(∨ ?a ?b)", func(a []BoolV) BoolV { return a[0].Or(a[1]) }),
		foldingRule("fold ==", "(== ?a ?b)", func(a []BoolV) BoolV { return a[0].Eq(a[1]) }),
		foldingRule("fold =>", "(=> ?a ?b)", func(a []BoolV) BoolV { return a[0].Implies(a[1]) }),
	}
}
