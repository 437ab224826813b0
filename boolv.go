package goegg

import (
	"fmt"
)

// BoolV is a truth value of the boolean vocabulary.
type BoolV struct {
	Value bool
}

func (b BoolV) String() string {
	if b.Value {
		return OP_TRUE
	}
	return OP_FALSE
}

func BoolTrue() BoolV {
	return BoolV{true}
}

func BoolFalse() BoolV {
	return BoolV{false}
}

func ParseBoolV(s string) (BoolV, error) {
	switch s {
	case OP_TRUE:
		return BoolTrue(), nil
	case OP_FALSE:
		return BoolFalse(), nil
	}
	return BoolV{}, fmt.Errorf("not a boolean literal: %s", s)
}

func (b BoolV) Not() BoolV {
	return BoolV{!b.Value}
}

func (b BoolV) And(o BoolV) BoolV {
	return BoolV{b.Value && o.Value}
}

func (b BoolV) Or(o BoolV) BoolV {
	return BoolV{b.Value || o.Value}
}

func (b BoolV) Eq(o BoolV) BoolV {
	return BoolV{b.Value == o.Value}
}

func (b BoolV) Implies(o BoolV) BoolV {
	return BoolV{!b.Value || o.Value}
}
