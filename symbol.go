package goegg

import (
	"sync"
)

// Symbol is an interned operator name. Arity is given by the node using it.
type Symbol uint32

type symbolTable struct {
	lock  sync.RWMutex
	ids   map[string]Symbol
	names []string
}

var symbols = symbolTable{
	ids:   map[string]Symbol{},
	names: make([]string, 0),
}

func Intern(name string) Symbol {
	symbols.lock.RLock()
	s, ok := symbols.ids[name]
	symbols.lock.RUnlock()
	if ok {
		return s
	}

	symbols.lock.Lock()
	defer symbols.lock.Unlock()
	if s, ok := symbols.ids[name]; ok {
		return s
	}
	s = Symbol(len(symbols.names))
	symbols.names = append(symbols.names, name)
	symbols.ids[name] = s
	return s
}

func (s Symbol) String() string {
	symbols.lock.RLock()
	defer symbols.lock.RUnlock()
	if int(s) >= len(symbols.names) {
		panic("unknown symbol")
	}
	return symbols.names[s]
}
