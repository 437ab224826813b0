// Package sexp reads the prefix S-expression notation used for expressions and
// rewrite patterns, e.g. "(∨ (¬ ?p) q)".
package sexp

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSyntax is wrapped by every error returned by the reader.
var ErrSyntax = errors.New("syntax error")

// SExp is either a List or an Atom.
type SExp interface {
	IsList() bool
	String() string
}

// List is a parenthesised sequence of zero or more S-expressions.
type List struct {
	Elements []SExp
}

var _ SExp = (*List)(nil)

func (l *List) IsList() bool { return true }

func (l *List) Len() int { return len(l.Elements) }

func (l *List) String() string {
	b := strings.Builder{}
	b.WriteString("(")
	for i, e := range l.Elements {
		if i != 0 {
			b.WriteString(" ")
		}
		b.WriteString(e.String())
	}
	b.WriteString(")")
	return b.String()
}

// Atom is a single token.
type Atom struct {
	Value string
}

var _ SExp = (*Atom)(nil)

func (a *Atom) IsList() bool { return false }

func (a *Atom) String() string { return a.Value }

// SyntaxError records the rune offset at which reading failed.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at offset %d: %s", ErrSyntax, e.Offset, e.Msg)
}

func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

// Parse reads exactly one S-expression from s.
func Parse(s string) (SExp, error) {
	p := NewParser(s)
	e, err := p.Parse()
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, p.error("empty input")
	}
	if p.Next() != nil {
		return nil, p.error("unexpected remainder")
	}
	return e, nil
}

// ParseAll reads every S-expression in s.
func ParseAll(s string) ([]SExp, error) {
	res := make([]SExp, 0)
	p := NewParser(s)
	for {
		e, err := p.Parse()
		if err != nil {
			return res, err
		}
		if e == nil {
			return res, nil
		}
		res = append(res, e)
	}
}

// Parser is a cursor over the input runes.
type Parser struct {
	text  []rune
	index int
}

func NewParser(text string) *Parser {
	return &Parser{text: []rune(text)}
}

// Parse returns the next S-expression, or nil at end of input.
func (p *Parser) Parse() (SExp, error) {
	start := p.index
	token := p.Next()
	if token == nil {
		return nil, nil
	}
	switch string(token) {
	case ")":
		p.index = start
		return nil, p.error("unexpected ')'")
	case "(":
		elements := make([]SExp, 0)
		for {
			pos := p.index
			next := p.Next()
			if next == nil {
				return nil, p.error("missing ')'")
			}
			if string(next) == ")" {
				return &List{Elements: elements}, nil
			}
			p.index = pos
			e, err := p.Parse()
			if err != nil {
				return nil, err
			}
			elements = append(elements, e)
		}
	}
	return &Atom{Value: string(token)}, nil
}

// Next returns the next token, skipping whitespace and ';' comments, or nil
// at end of input.
func (p *Parser) Next() []rune {
	for p.index < len(p.text) {
		c := p.text[p.index]
		switch {
		case c == '(' || c == ')':
			p.index++
			return p.text[p.index-1 : p.index]
		case isSpace(c):
			p.index++
		case c == ';':
			for p.index < len(p.text) && p.text[p.index] != '\n' {
				p.index++
			}
		default:
			return p.atom()
		}
	}
	return nil
}

func (p *Parser) atom() []rune {
	start := p.index
	for p.index < len(p.text) {
		c := p.text[p.index]
		if c == '(' || c == ')' || c == ';' || isSpace(c) {
			break
		}
		p.index++
	}
	return p.text[start:p.index]
}

func (p *Parser) error(msg string) *SyntaxError {
	return &SyntaxError{Offset: p.index, Msg: msg}
}

func isSpace(c rune) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
