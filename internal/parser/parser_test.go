package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notation3/internal/term"
)

func parse(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := ParseSource("test.n3", src)
	require.NoError(t, err)
	return doc
}

func TestParseBasicTriples(t *testing.T) {
	doc := parse(t, `
@prefix : <http://example.org/#> .
:socrates a :Man .
:socrates :knows :plato, :xenophon ; :age 70 .
`)
	require.Len(t, doc.Facts, 4)
	assert.True(t, doc.Facts[0].S.IsIRI("http://example.org/#socrates"))
	assert.True(t, doc.Facts[0].P.IsIRI(term.RDFType))
	assert.True(t, doc.Facts[2].O.IsIRI("http://example.org/#xenophon"))
	assert.True(t, term.Equal(doc.Facts[3].O, term.NewIntLiteral(70)))
}

func TestParseSparqlStyleDirectives(t *testing.T) {
	doc := parse(t, `
PREFIX ex: <http://example.org/>
PREFIX : <http://example.org/default#>
ex:a ex:p ex:b .
`)
	require.Len(t, doc.Facts, 1)
	assert.True(t, doc.Facts[0].S.IsIRI("http://example.org/a"))
	want := map[string]string{
		"ex": "http://example.org/",
		"":   "http://example.org/default#",
	}
	assert.Empty(t, cmp.Diff(want, doc.Prefixes))
}

func TestParseBaseResolution(t *testing.T) {
	doc := parse(t, `
@base <http://example.org/doc> .
<#frag> <p> <other> .
`)
	require.Len(t, doc.Facts, 1)
	assert.True(t, doc.Facts[0].S.IsIRI("http://example.org/doc#frag"))
}

func TestParseLiterals(t *testing.T) {
	doc := parse(t, `
@prefix : <http://example.org/#> .
@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .
:s :p "plain", "typed"^^xsd:string, "tagged"@en, 3.14, 2, 1.5e3, true .
`)
	require.Len(t, doc.Facts, 7)
	objects := make([]*term.Term, len(doc.Facts))
	for i, f := range doc.Facts {
		objects[i] = f.O
	}
	assert.True(t, term.Equal(objects[0], term.NewPlainLiteral("plain")))
	assert.True(t, term.Equal(objects[1], term.NewPlainLiteral("typed")), "xsd:string folds to plain")
	assert.True(t, term.Equal(objects[2], term.NewLangLiteral("tagged", "en")))
	assert.True(t, term.Equal(objects[3], term.NewTypedLiteral("3.14", term.XSDDecimal)))
	assert.True(t, term.Equal(objects[4], term.NewIntLiteral(2)))
	assert.True(t, term.Equal(objects[5], term.NewTypedLiteral("1.5e3", term.XSDDouble)))
	assert.True(t, term.Equal(objects[6], term.True()))
}

func TestParseStringEscapes(t *testing.T) {
	doc := parse(t, `
@prefix : <http://example.org/#> .
:s :p "line\nbreak \"quoted\" tab\there" .
:s :q """long
string""" .
`)
	require.Len(t, doc.Facts, 2)
	assert.Equal(t, "line\nbreak \"quoted\" tab\there", term.LiteralLexical(doc.Facts[0].O))
	assert.Equal(t, "long\nstring", term.LiteralLexical(doc.Facts[1].O))
}

func TestParseCollections(t *testing.T) {
	doc := parse(t, `
@prefix : <http://example.org/#> .
:s :p (1 2 (3 4) "five") .
`)
	require.Len(t, doc.Facts, 1)
	lst := doc.Facts[0].O
	require.Equal(t, term.List, lst.Kind)
	require.Len(t, lst.Elems, 4)
	assert.Equal(t, term.List, lst.Elems[2].Kind)
}

func TestParsePropertyList(t *testing.T) {
	doc := parse(t, `
@prefix : <http://example.org/#> .
:s :p [ :a 1 ; :b 2 ] .
`)
	require.Len(t, doc.Facts, 3, "bracket triples come out alongside the statement")
	var blankCount int
	for _, f := range doc.Facts {
		if f.S.Kind == term.Blank {
			blankCount++
		}
	}
	assert.Equal(t, 2, blankCount)
}

func TestParseForwardRule(t *testing.T) {
	doc := parse(t, `
@prefix : <http://example.org/#> .
{ ?x a :Man } => { ?x a :Mortal } .
`)
	require.Len(t, doc.Forward, 1)
	r := doc.Forward[0]
	assert.True(t, r.IsForward)
	assert.False(t, r.IsFuse)
	require.Len(t, r.Premise, 1)
	assert.Equal(t, term.Var, r.Premise[0].S.Kind)
}

func TestParseBackwardRule(t *testing.T) {
	doc := parse(t, `
@prefix : <http://example.org/#> .
{ ?x :anc ?y } <= { ?x :parent ?y } .
`)
	require.Len(t, doc.Backward, 1)
	r := doc.Backward[0]
	assert.False(t, r.IsForward)
	assert.True(t, r.Premise[0].P.IsIRI("http://example.org/#parent"))
	assert.True(t, r.Conclusion[0].P.IsIRI("http://example.org/#anc"))
}

func TestParseFuseRule(t *testing.T) {
	doc := parse(t, `
@prefix : <http://example.org/#> .
{ :p :q :r } => false .
`)
	require.Len(t, doc.Forward, 1)
	assert.True(t, doc.Forward[0].IsFuse)
	assert.Empty(t, doc.Forward[0].Conclusion)
}

func TestBodyBlanksBecomeVariables(t *testing.T) {
	doc := parse(t, `
@prefix : <http://example.org/#> .
{ _:who :loves ?x } => { ?x :lovedBy _:who } .
`)
	require.Len(t, doc.Forward, 1)
	r := doc.Forward[0]
	assert.Equal(t, term.Var, r.Premise[0].S.Kind, "body blanks are universals")
	assert.Equal(t, term.Var, r.Conclusion[0].O.Kind, "the renaming reaches head occurrences")
	assert.Empty(t, r.HeadBlanks)
}

func TestHeadOnlyBlanksAreExistentials(t *testing.T) {
	doc := parse(t, `
@prefix : <http://example.org/#> .
{ ?x :hasPart ?y } => { ?x :hasNamedPart _:z } .
`)
	require.Len(t, doc.Forward, 1)
	assert.True(t, doc.Forward[0].HeadBlanks["z"])
}

func TestNestedFormulaStaysTriple(t *testing.T) {
	doc := parse(t, `
@prefix : <http://example.org/#> .
@prefix log: <http://www.w3.org/2000/10/swap/log#> .
:s log:notIncludes { :a :b :c } .
`)
	require.Len(t, doc.Facts, 1)
	assert.Equal(t, term.Graph, doc.Facts[0].O.Kind)
}

func TestParseQuantifierDirectives(t *testing.T) {
	doc := parse(t, `
@prefix : <http://example.org/#> .
@forSome :something .
:a :p :something .
`)
	assert.Len(t, doc.Facts, 1)
}

func TestUndeclaredPrefixFails(t *testing.T) {
	_, err := ParseSource("test.n3", ":a :b :c .")
	require.Error(t, err)
	se, ok := err.(*SyntaxError)
	require.True(t, ok)
	assert.Contains(t, se.Message, "undeclared prefix")
}

func TestMissingDotFails(t *testing.T) {
	_, err := ParseSource("test.n3", `
@prefix : <http://example.org/#> .
:a :b :c
`)
	require.Error(t, err)
	_, ok := err.(*SyntaxError)
	assert.True(t, ok)
}

func TestUnterminatedFormulaFails(t *testing.T) {
	_, err := ParseSource("test.n3", `
@prefix : <http://example.org/#> .
{ :a :b :c .
`)
	require.Error(t, err)
}
