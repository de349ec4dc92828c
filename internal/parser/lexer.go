// Package parser turns N3 text into the term/triple/rule model. The token
// stream comes from a participle stateful lexer; a recursive-descent parser
// assembles statements, rules and quoted formulas from it.
package parser

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// N3Lexer tokenizes Notation3. Order matters: arrows before IRI refs so
// "<=" never starts an IRI, directives before language tags, and the
// long-string form before the short one.
var N3Lexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "Comment", Pattern: `#[^\n]*`},
		{Name: "LongString", Pattern: `"""(?s:.*?)"""`},
		{Name: "String", Pattern: `"(?:[^"\\\n]|\\.)*"`},
		{Name: "Arrow", Pattern: `=>|<=|=`},
		{Name: "IRIRef", Pattern: `<[^\x00-\x20<>"{}|^\\]*>`},
		{Name: "BlankNode", Pattern: `_:[A-Za-z0-9][A-Za-z0-9_-]*`},
		{Name: "Var", Pattern: `\?[A-Za-z_][A-Za-z0-9_]*`},
		{Name: "PName", Pattern: `(?:[A-Za-z_][A-Za-z0-9_-]*)?:(?:[A-Za-z0-9_][A-Za-z0-9_-]*)?`},
		{Name: "Directive", Pattern: `@prefix|@base|@forAll|@forSome`},
		{Name: "LangTag", Pattern: `@[a-zA-Z]+(?:-[a-zA-Z0-9]+)*`},
		{Name: "Number", Pattern: `[+-]?\d*\.?\d+(?:[eE][+-]?\d+)?`},
		{Name: "Datatype", Pattern: `\^\^`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
		{Name: "Punct", Pattern: `[{}()\[\];,.!^]`},
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	},
})

// tokenStream holds the raw stream filtered down to the significant tokens
// and keeps positions for error reporting.
type tokenStream struct {
	toks []lexer.Token
	pos  int
	syms map[lexer.TokenType]string
}

func newTokenStream(name, source string) (*tokenStream, error) {
	lx, err := N3Lexer.LexString(name, source)
	if err != nil {
		return nil, err
	}
	names := map[lexer.TokenType]string{}
	for n, t := range N3Lexer.Symbols() {
		names[t] = n
	}
	var toks []lexer.Token
	for {
		tok, err := lx.Next()
		if err != nil {
			return nil, err
		}
		if tok.EOF() {
			toks = append(toks, tok)
			break
		}
		switch names[tok.Type] {
		case "Whitespace", "Comment":
			continue
		}
		toks = append(toks, tok)
	}
	return &tokenStream{toks: toks, syms: names}, nil
}

func (ts *tokenStream) peek() lexer.Token { return ts.toks[ts.pos] }

func (ts *tokenStream) next() lexer.Token {
	t := ts.toks[ts.pos]
	if ts.pos < len(ts.toks)-1 {
		ts.pos++
	}
	return t
}

func (ts *tokenStream) kind(t lexer.Token) string {
	if t.EOF() {
		return "EOF"
	}
	return ts.syms[t.Type]
}

// at reports whether the next token is the given punctuation or symbol
// value.
func (ts *tokenStream) at(value string) bool {
	t := ts.peek()
	return !t.EOF() && t.Value == value
}

// accept consumes the next token when it carries the given value.
func (ts *tokenStream) accept(value string) bool {
	if ts.at(value) {
		ts.next()
		return true
	}
	return false
}
