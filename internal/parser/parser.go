package parser

import (
	"os"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"notation3/internal/term"
)

// Document is the parse result: the prefix environment, the asserted
// triples, and the rules split by direction.
type Document struct {
	Prefixes map[string]string
	Base     string
	Facts    []*term.Triple
	Forward  []*term.Rule
	Backward []*term.Rule
}

type parser struct {
	ts       *tokenStream
	prefixes map[string]string
	base     string
	blankSeq int
}

func ParseFile(path string) (*Document, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSource(path, string(source))
}

func ParseSource(name, source string) (*Document, error) {
	ts, err := newTokenStream(name, source)
	if err != nil {
		return nil, err
	}
	p := &parser{ts: ts, prefixes: map[string]string{}}
	doc := &Document{Prefixes: p.prefixes}

	for !p.ts.peek().EOF() {
		if ok, err := p.directive(); err != nil {
			return nil, err
		} else if ok {
			continue
		}
		triples, err := p.statement()
		if err != nil {
			return nil, err
		}
		for _, t := range triples {
			if r, ok := ruleFromTopLevel(t); ok {
				if r.IsForward {
					doc.Forward = append(doc.Forward, r)
				} else {
					doc.Backward = append(doc.Backward, r)
				}
				continue
			}
			doc.Facts = append(doc.Facts, t)
		}
	}
	doc.Base = p.base
	return doc, nil
}

// directive handles @prefix/@base and the SPARQL-style PREFIX/BASE forms.
func (p *parser) directive() (bool, error) {
	tok := p.ts.peek()
	switch tok.Value {
	case "@prefix", "PREFIX":
		p.ts.next()
		name := p.ts.next()
		if p.ts.kind(name) != "PName" || !strings.HasSuffix(name.Value, ":") {
			return false, errAt(name, "expected prefix name, got %q", name.Value)
		}
		iri := p.ts.next()
		if p.ts.kind(iri) != "IRIRef" {
			return false, errAt(iri, "expected IRI after prefix name")
		}
		p.prefixes[strings.TrimSuffix(name.Value, ":")] = p.resolve(iriValue(iri.Value))
		if tok.Value == "@prefix" && !p.ts.accept(".") {
			return false, errAt(p.ts.peek(), "expected '.' after @prefix directive")
		}
		return true, nil
	case "@base", "BASE":
		p.ts.next()
		iri := p.ts.next()
		if p.ts.kind(iri) != "IRIRef" {
			return false, errAt(iri, "expected IRI after base directive")
		}
		p.base = p.resolve(iriValue(iri.Value))
		if tok.Value == "@base" && !p.ts.accept(".") {
			return false, errAt(p.ts.peek(), "expected '.' after @base directive")
		}
		return true, nil
	case "@forAll", "@forSome":
		// Quantifier declarations: consume the term list. Document-level
		// blanks and variables already carry the intended reading.
		p.ts.next()
		for {
			if _, _, err := p.term(); err != nil {
				return false, err
			}
			if !p.ts.accept(",") {
				break
			}
		}
		if !p.ts.accept(".") {
			return false, errAt(p.ts.peek(), "expected '.' after quantifier declaration")
		}
		return true, nil
	}
	return false, nil
}

// statement parses one triple statement (with predicate-object and object
// lists) terminated by '.'.
func (p *parser) statement() ([]*term.Triple, error) {
	var acc []*term.Triple
	if err := p.triples(&acc); err != nil {
		return nil, err
	}
	if !p.ts.accept(".") {
		return nil, errAt(p.ts.peek(), "expected '.' at end of statement, got %q", p.ts.peek().Value)
	}
	return acc, nil
}

func (p *parser) triples(acc *[]*term.Triple) error {
	subject, pending, err := p.term()
	if err != nil {
		return err
	}
	*acc = append(*acc, pending...)
	return p.predicateObjectList(subject, acc)
}

func (p *parser) predicateObjectList(subject *term.Term, acc *[]*term.Triple) error {
	for {
		pred, err := p.predicate(acc)
		if err != nil {
			return err
		}
		for {
			object, pending, err := p.term()
			if err != nil {
				return err
			}
			*acc = append(*acc, pending...)
			*acc = append(*acc, term.NewTriple(subject, pred, object))
			if !p.ts.accept(",") {
				break
			}
		}
		if !p.ts.accept(";") {
			return nil
		}
		if p.ts.at(".") || p.ts.at("}") || p.ts.at("]") {
			return nil
		}
	}
}

func (p *parser) predicate(acc *[]*term.Triple) (*term.Term, error) {
	tok := p.ts.peek()
	switch tok.Value {
	case "a":
		p.ts.next()
		return term.NewIRI(term.RDFType), nil
	case "=>":
		p.ts.next()
		return term.NewIRI(term.LogImplies), nil
	case "<=":
		p.ts.next()
		return term.NewIRI(term.LogImpliedBy), nil
	case "=":
		p.ts.next()
		return term.NewIRI("http://www.w3.org/2002/07/owl#sameAs"), nil
	}
	t, pending, err := p.term()
	if err != nil {
		return nil, err
	}
	*acc = append(*acc, pending...)
	return t, nil
}

// term parses one term. Property-list brackets return their triples as
// pending so the caller decides where they land (statement vs formula).
func (p *parser) term() (*term.Term, []*term.Triple, error) {
	tok := p.ts.peek()
	switch p.ts.kind(tok) {
	case "IRIRef":
		p.ts.next()
		return term.NewIRI(p.resolve(iriValue(tok.Value))), nil, nil
	case "PName":
		p.ts.next()
		iri, err := p.expand(tok)
		if err != nil {
			return nil, nil, err
		}
		return term.NewIRI(iri), nil, nil
	case "BlankNode":
		p.ts.next()
		return term.NewBlank(strings.TrimPrefix(tok.Value, "_:")), nil, nil
	case "Var":
		p.ts.next()
		return term.NewVar(strings.TrimPrefix(tok.Value, "?")), nil, nil
	case "Number":
		p.ts.next()
		return numberLiteral(tok.Value), nil, nil
	case "String", "LongString":
		p.ts.next()
		return p.literal(tok)
	case "Ident":
		switch tok.Value {
		case "true":
			p.ts.next()
			return term.True(), nil, nil
		case "false":
			p.ts.next()
			return term.False(), nil, nil
		}
		return nil, nil, errAt(tok, "unexpected identifier %q", tok.Value)
	}

	switch tok.Value {
	case "{":
		return p.formula()
	case "(":
		return p.collection()
	case "[":
		return p.propertyList()
	}
	return nil, nil, errAt(tok, "unexpected token %q", tok.Value)
}

// formula parses { ... } into a Graph term; the '.' before '}' is optional.
func (p *parser) formula() (*term.Term, []*term.Triple, error) {
	open := p.ts.next() // '{'
	var triples []*term.Triple
	for !p.ts.at("}") {
		if p.ts.peek().EOF() {
			return nil, nil, errAt(open, "unterminated formula")
		}
		if err := p.triples(&triples); err != nil {
			return nil, nil, err
		}
		if !p.ts.accept(".") {
			break
		}
	}
	if !p.ts.accept("}") {
		return nil, nil, errAt(p.ts.peek(), "expected '}' to close formula")
	}
	return term.NewGraph(triples), nil, nil
}

func (p *parser) collection() (*term.Term, []*term.Triple, error) {
	p.ts.next() // '('
	var elems []*term.Term
	var pending []*term.Triple
	for !p.ts.at(")") {
		if p.ts.peek().EOF() {
			return nil, nil, errAt(p.ts.peek(), "unterminated collection")
		}
		el, pend, err := p.term()
		if err != nil {
			return nil, nil, err
		}
		pending = append(pending, pend...)
		elems = append(elems, el)
	}
	p.ts.next() // ')'
	return term.NewList(elems), pending, nil
}

// propertyList parses [ p o; ... ] as a fresh blank node plus its pending
// triples.
func (p *parser) propertyList() (*term.Term, []*term.Triple, error) {
	p.ts.next() // '['
	p.blankSeq++
	node := term.NewBlank("b" + itoa(p.blankSeq))
	var pending []*term.Triple
	if p.ts.accept("]") {
		return node, pending, nil
	}
	if err := p.predicateObjectList(node, &pending); err != nil {
		return nil, nil, err
	}
	if !p.ts.accept("]") {
		return nil, nil, errAt(p.ts.peek(), "expected ']' to close property list")
	}
	return node, pending, nil
}

func (p *parser) literal(tok lexer.Token) (*term.Term, []*term.Triple, error) {
	raw := tok.Value
	if strings.HasPrefix(raw, `"""`) {
		raw = raw[3 : len(raw)-3]
	} else {
		raw = raw[1 : len(raw)-1]
	}
	lex := unquote(raw)

	next := p.ts.peek()
	switch p.ts.kind(next) {
	case "Datatype":
		p.ts.next()
		dtTok := p.ts.next()
		var dt string
		switch p.ts.kind(dtTok) {
		case "IRIRef":
			dt = p.resolve(iriValue(dtTok.Value))
		case "PName":
			var err error
			dt, err = p.expand(dtTok)
			if err != nil {
				return nil, nil, err
			}
		default:
			return nil, nil, errAt(dtTok, "expected datatype IRI after ^^")
		}
		return term.NewTypedLiteral(lex, dt), nil, nil
	case "LangTag":
		p.ts.next()
		return term.NewLangLiteral(lex, strings.TrimPrefix(next.Value, "@")), nil, nil
	}
	return term.NewPlainLiteral(lex), nil, nil
}

func (p *parser) expand(tok lexer.Token) (string, error) {
	i := strings.Index(tok.Value, ":")
	prefix, local := tok.Value[:i], tok.Value[i+1:]
	ns, ok := p.prefixes[prefix]
	if !ok {
		return "", errAt(tok, "undeclared prefix %q", prefix)
	}
	return ns + local, nil
}

// resolve joins a relative IRI onto the base; IRIs with a scheme pass
// through.
func (p *parser) resolve(iri string) string {
	if p.base == "" || hasScheme(iri) {
		return iri
	}
	if strings.HasPrefix(iri, "#") {
		return strings.SplitN(p.base, "#", 2)[0] + iri
	}
	return p.base + iri
}

func hasScheme(iri string) bool {
	for i := 0; i < len(iri); i++ {
		c := iri[i]
		if c == ':' {
			return i > 0
		}
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.') {
			return false
		}
	}
	return false
}

func iriValue(tok string) string { return tok[1 : len(tok)-1] }

func numberLiteral(lex string) *term.Term {
	switch {
	case strings.ContainsAny(lex, "eE"):
		return term.NewTypedLiteral(lex, term.XSDDouble)
	case strings.Contains(lex, "."):
		return term.NewTypedLiteral(lex, term.XSDDecimal)
	default:
		return term.NewTypedLiteral(strings.TrimPrefix(lex, "+"), term.XSDInteger)
	}
}

func unquote(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case '"':
			b.WriteByte('"')
		case '\\':
			b.WriteByte('\\')
		case 'u', 'U':
			width := 4
			if s[i] == 'U' {
				width = 8
			}
			if i+width < len(s) {
				if r, ok := parseHexRune(s[i+1 : i+1+width]); ok {
					b.WriteRune(r)
					i += width
					continue
				}
			}
			b.WriteByte(s[i])
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func parseHexRune(s string) (rune, bool) {
	var r rune
	for _, c := range s {
		var d rune
		switch {
		case c >= '0' && c <= '9':
			d = c - '0'
		case c >= 'a' && c <= 'f':
			d = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			d = c - 'A' + 10
		default:
			return 0, false
		}
		r = r*16 + d
	}
	return r, true
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// ruleFromTopLevel turns a top-level {A} => {B} / {A} <= {B} triple into a
// rule. Body blanks become universals (fresh variables); blanks appearing
// only in a forward head stay and are recorded as the rule's existentials.
func ruleFromTopLevel(t *term.Triple) (*term.Rule, bool) {
	if t.P.Kind != term.IRI {
		return nil, false
	}
	forward := t.P.Value == term.LogImplies
	backward := t.P.Value == term.LogImpliedBy
	if !forward && !backward {
		return nil, false
	}

	body, head := t.S, t.O
	if backward {
		body, head = t.O, t.S
	}
	bodyTriples, ok := graphOrTrue(body)
	if !ok {
		return nil, false
	}

	if forward && isFalseTerm(head) {
		r := &term.Rule{Premise: bodyTriples, IsForward: true, IsFuse: true, HeadBlanks: map[string]bool{}}
		return universalizeBodyBlanks(r), true
	}
	headTriples, ok := graphOrTrue(head)
	if !ok {
		return nil, false
	}
	r := &term.Rule{
		Premise:    bodyTriples,
		Conclusion: headTriples,
		IsForward:  forward,
	}
	return universalizeBodyBlanks(r), true
}

func graphOrTrue(t *term.Term) ([]*term.Triple, bool) {
	if t.Kind == term.Graph {
		return t.Triples, true
	}
	if v, ok := term.BooleanValue(t); ok && v {
		return nil, true
	}
	return nil, false
}

func isFalseTerm(t *term.Term) bool {
	v, ok := term.BooleanValue(t)
	return ok && !v
}

// universalizeBodyBlanks renames every blank that occurs in the body to a
// variable (applied to head occurrences too) and collects the remaining
// head-only blanks as the rule's existentials.
func universalizeBodyBlanks(r *term.Rule) *term.Rule {
	inBody := map[string]bool{}
	for _, t := range r.Premise {
		t.S.Blanks(inBody)
		t.P.Blanks(inBody)
		t.O.Blanks(inBody)
	}
	if len(inBody) > 0 {
		ren := make(map[string]string, len(inBody))
		for label := range inBody {
			ren[label] = "e_" + label
		}
		r.Premise = renameBlanks(r.Premise, ren)
		r.Conclusion = renameBlanks(r.Conclusion, ren)
	}
	heads := map[string]bool{}
	for _, t := range r.Conclusion {
		t.S.Blanks(heads)
		t.P.Blanks(heads)
		t.O.Blanks(heads)
	}
	if r.HeadBlanks == nil {
		r.HeadBlanks = map[string]bool{}
	}
	for label := range heads {
		r.HeadBlanks[label] = true
	}
	return r
}

func renameBlanks(ts []*term.Triple, ren map[string]string) []*term.Triple {
	out := make([]*term.Triple, len(ts))
	for i, t := range ts {
		out[i] = term.NewTriple(renameBlankTerm(t.S, ren), renameBlankTerm(t.P, ren), renameBlankTerm(t.O, ren))
	}
	return out
}

func renameBlankTerm(t *term.Term, ren map[string]string) *term.Term {
	switch t.Kind {
	case term.Blank:
		if v, ok := ren[t.Value]; ok {
			return term.NewVar(v)
		}
		return t
	case term.List:
		elems := make([]*term.Term, len(t.Elems))
		for i, el := range t.Elems {
			elems[i] = renameBlankTerm(el, ren)
		}
		return term.NewList(elems)
	case term.OpenList:
		elems := make([]*term.Term, len(t.Elems))
		for i, el := range t.Elems {
			elems[i] = renameBlankTerm(el, ren)
		}
		return term.NewOpenList(elems, t.Value)
	case term.Graph:
		return term.NewGraph(renameBlanks(t.Triples, ren))
	default:
		return t
	}
}
