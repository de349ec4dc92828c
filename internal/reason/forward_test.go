package reason

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notation3/internal/parser"
	"notation3/internal/term"
)

const prelude = `@prefix : <http://example.org/#>.
@prefix math: <http://www.w3.org/2000/10/swap/math#>.
@prefix log: <http://www.w3.org/2000/10/swap/log#>.
@prefix xsd: <http://www.w3.org/2001/XMLSchema#>.
`

func engineFor(t *testing.T, src string) *Engine {
	t.Helper()
	doc, err := parser.ParseSource("test.n3", prelude+src)
	require.NoError(t, err)
	rules := append(append([]*term.Rule(nil), doc.Forward...), doc.Backward...)
	return New(Config{}, doc.Facts, rules, nil, nil)
}

func runSource(t *testing.T, src string) (*Engine, *Result) {
	t.Helper()
	e := engineFor(t, src)
	res, err := e.Run()
	require.NoError(t, err)
	return e, res
}

func ex(local string) *term.Term { return iri("http://example.org/#" + local) }

func hasFact(res *Result, tr *term.Triple) bool {
	for _, f := range res.Closure {
		if term.TripleEqual(f, tr) {
			return true
		}
	}
	return false
}

func TestModusPonens(t *testing.T) {
	_, res := runSource(t, `
:socrates a :Man .
{ ?x a :Man } => { ?x a :Mortal } .
`)
	assert.True(t, hasFact(res, tri(ex("socrates"), iri(term.RDFType), ex("Mortal"))))
}

func TestArithmeticPromotion(t *testing.T) {
	_, res := runSource(t, `
{ (2 3.5) math:sum ?x } => { :r :v ?x } .
`)
	assert.True(t, hasFact(res, tri(ex("r"), ex("v"), dec("5.5"))))
}

func TestExistentialHeadSkolemization(t *testing.T) {
	e, res := runSource(t, `
:a :hasPart _:p .
{ ?x :hasPart ?y } => { ?x :hasNamedPart _:z . _:z :for ?x } .
`)
	var named, forA []*term.Triple
	for _, f := range res.Closure {
		if f.P.IsIRI("http://example.org/#hasNamedPart") {
			named = append(named, f)
		}
		if f.P.IsIRI("http://example.org/#for") {
			forA = append(forA, f)
		}
	}
	require.Len(t, named, 1)
	require.Len(t, forA, 1)
	require.Equal(t, term.Blank, named[0].O.Kind)
	assert.Equal(t, named[0].O.Value, forA[0].S.Value, "the skolem blank is shared across head triples")

	// Re-running adds nothing: the firing key pins the skolem label.
	before := len(res.Closure)
	res2, err := e.Run()
	require.NoError(t, err)
	assert.Equal(t, before, len(res2.Closure))
}

func TestScopedCollection(t *testing.T) {
	_, res := runSource(t, `
:a :n 1 . :a :n 2 . :a :n 3 .
{ (?v { :a :n ?v } ?l) log:collectAllIn 1 . (?l) math:sum ?s } => { :a :total ?s } .
`)
	assert.True(t, hasFact(res, tri(ex("a"), ex("total"), term.NewIntLiteral(6))))
}

func TestInferenceFuse(t *testing.T) {
	e := engineFor(t, `
:p :q :r .
{ :p :q :r } => false .
`)
	_, err := e.Run()
	require.Error(t, err)
	fuse, ok := err.(*FuseError)
	require.True(t, ok)
	assert.Len(t, fuse.Premise, 1)
}

func TestIncludesWithPriority(t *testing.T) {
	_, res := runSource(t, `
:a :p :b .
{ 2 log:includes { :a :p :b } } => { :ok :is :true } .
`)
	assert.True(t, hasFact(res, tri(ex("ok"), ex("is"), ex("true"))))
}

func TestIncludesPriorityWaitsForDerivedFacts(t *testing.T) {
	// :a :p :b only exists after the first rule fires, so the scoped rule
	// needs a later snapshot.
	_, res := runSource(t, `
:seed :go :now .
{ ?s :go :now } => { :a :p :b } .
{ 1 log:includes { :a :p :b } } => { :ok :is :true } .
`)
	assert.True(t, hasFact(res, tri(ex("ok"), ex("is"), ex("true"))))
}

func TestMaxLevelGuardStopsEarly(t *testing.T) {
	doc, err := parser.ParseSource("test.n3", prelude+`
:a :p :b .
{ 2 log:includes { :a :p :b } } => { :ok :is :true } .
`)
	require.NoError(t, err)
	rules := append(append([]*term.Rule(nil), doc.Forward...), doc.Backward...)
	e := New(Config{MaxLevel: 1}, doc.Facts, rules, nil, nil)
	res, err := e.Run()
	require.NoError(t, err)
	assert.False(t, hasFact(res, tri(ex("ok"), ex("is"), ex("true"))),
		"the level cap keeps priority-2 rules unsatisfied")
}

func TestSaturationIdempotent(t *testing.T) {
	e, res := runSource(t, `
:a :knows :b . :b :knows :c .
{ ?x :knows ?y . ?y :knows ?z } => { ?x :reaches ?z } .
`)
	assert.True(t, hasFact(res, tri(ex("a"), ex("reaches"), ex("c"))))
	size := len(res.Closure)
	res2, err := e.Run()
	require.NoError(t, err)
	assert.Equal(t, size, len(res2.Closure), "a second saturation derives nothing new")
}

func TestPremiseOrderCommutes(t *testing.T) {
	// Builtin-first ordering only works through deferral; both orders must
	// derive the same conclusion.
	left := `
:n :value 3 .
{ (?v 1) math:sum ?s . :n :value ?v } => { :n :plusOne ?s } .
`
	right := `
:n :value 3 .
{ :n :value ?v . (?v 1) math:sum ?s } => { :n :plusOne ?s } .
`
	_, resL := runSource(t, left)
	_, resR := runSource(t, right)
	want := tri(ex("n"), ex("plusOne"), term.NewIntLiteral(4))
	assert.True(t, hasFact(resL, want))
	assert.True(t, hasFact(resR, want))
}

func TestDedupAcrossStringForms(t *testing.T) {
	_, res := runSource(t, `
:s :p "x" .
:s :p "x"^^xsd:string .
`)
	count := 0
	for _, f := range res.Closure {
		if f.P.IsIRI("http://example.org/#p") {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestBlankFactsStayDistinct(t *testing.T) {
	_, res := runSource(t, `
_:a :p 1 .
_:b :p 1 .
`)
	count := 0
	for _, f := range res.Closure {
		if f.P.IsIRI("http://example.org/#p") {
			count++
		}
	}
	assert.Equal(t, 2, count)
}

func TestRuleProducingTriple(t *testing.T) {
	_, res := runSource(t, `
:socrates a :Man .
:rules :say true .
{ :rules :say true } => { { ?x a :Man } => { ?x a :Mortal } } .
`)
	assert.True(t, hasFact(res, tri(ex("socrates"), iri(term.RDFType), ex("Mortal"))),
		"a derived rule joins the saturation")
}

func TestBackwardRuleServesForwardBody(t *testing.T) {
	_, res := runSource(t, `
:a :parent :b . :b :parent :c .
{ ?x :anc ?y } <= { ?x :parent ?y } .
{ ?x :anc ?y } <= { ?x :parent ?z . ?z :anc ?y } .
{ ?x :anc :c } => { ?x :found :c } .
`)
	assert.True(t, hasFact(res, tri(ex("a"), ex("found"), ex("c"))))
	assert.True(t, hasFact(res, tri(ex("b"), ex("found"), ex("c"))))
}

func TestMonotonicity(t *testing.T) {
	base := `
:a :knows :b .
{ ?x :knows ?y } => { ?y :knownBy ?x } .
`
	_, res1 := runSource(t, base)
	_, res2 := runSource(t, base+"\n:b :knows :c .\n")
	for _, f := range res1.Closure {
		assert.True(t, hasFact(res2, f), "adding facts only adds conclusions")
	}
}

func TestOutputStringOrdering(t *testing.T) {
	_, res := runSource(t, `
{ 2 log:outputString "world" } => { :t :rest :done } .
{ 1 log:outputString "hello " } => { :t :first :done } .
`)
	assert.Equal(t, "hello world", res.Output)
}

func TestDerivationsRecorded(t *testing.T) {
	_, res := runSource(t, `
:socrates a :Man .
{ ?x a :Man } => { ?x a :Mortal } .
`)
	require.NotEmpty(t, res.Derived)
	d := res.Derived[0]
	assert.True(t, term.TripleEqual(d.Fact, tri(ex("socrates"), iri(term.RDFType), ex("Mortal"))))
	require.Len(t, d.Premise, 1)
	assert.True(t, term.TripleEqual(d.Premise[0], tri(ex("socrates"), iri(term.RDFType), ex("Man"))))
}
