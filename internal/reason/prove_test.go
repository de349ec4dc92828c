package reason

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notation3/internal/term"
)

func newTestEngine(facts []*term.Triple, rules []*term.Rule) *Engine {
	return New(Config{}, facts, rules, nil, nil)
}

func TestProveAgainstFacts(t *testing.T) {
	e := newTestEngine([]*term.Triple{
		tri(iri("urn:alice"), iri("urn:knows"), iri("urn:bob")),
		tri(iri("urn:bob"), iri("urn:knows"), iri("urn:carol")),
	}, nil)

	goal := tri(term.NewVar("x"), iri("urn:knows"), term.NewVar("y"))
	sols := e.prove([]*term.Triple{goal}, Subst{}, 0, proveOpts{})
	assert.Len(t, sols, 2)
}

func TestProveConjunction(t *testing.T) {
	e := newTestEngine([]*term.Triple{
		tri(iri("urn:alice"), iri("urn:knows"), iri("urn:bob")),
		tri(iri("urn:bob"), iri("urn:knows"), iri("urn:carol")),
	}, nil)

	goals := []*term.Triple{
		tri(term.NewVar("x"), iri("urn:knows"), term.NewVar("y")),
		tri(term.NewVar("y"), iri("urn:knows"), term.NewVar("z")),
	}
	sols := e.prove(goals, Subst{}, 0, proveOpts{})
	require.Len(t, sols, 1)
	assert.True(t, term.Equal(Apply(term.NewVar("z"), sols[0]), iri("urn:carol")))
}

func TestProveThroughBackwardRule(t *testing.T) {
	rule := &term.Rule{
		Premise: []*term.Triple{
			tri(term.NewVar("a"), iri("urn:parent"), term.NewVar("b")),
			tri(term.NewVar("b"), iri("urn:parent"), term.NewVar("c")),
		},
		Conclusion: []*term.Triple{tri(term.NewVar("a"), iri("urn:grandparent"), term.NewVar("c"))},
	}
	e := newTestEngine([]*term.Triple{
		tri(iri("urn:ann"), iri("urn:parent"), iri("urn:ben")),
		tri(iri("urn:ben"), iri("urn:parent"), iri("urn:cal")),
	}, []*term.Rule{rule})

	goal := tri(iri("urn:ann"), iri("urn:grandparent"), term.NewVar("who"))
	sols := e.prove([]*term.Triple{goal}, Subst{}, 0, proveOpts{})
	require.Len(t, sols, 1)
	assert.True(t, term.Equal(Apply(term.NewVar("who"), sols[0]), iri("urn:cal")))
}

func TestProveRecursiveRuleTerminates(t *testing.T) {
	// anc(X,Y) <= parent(X,Y); anc(X,Y) <= parent(X,Z), anc(Z,Y).
	base := &term.Rule{
		Premise:    []*term.Triple{tri(term.NewVar("x"), iri("urn:parent"), term.NewVar("y"))},
		Conclusion: []*term.Triple{tri(term.NewVar("x"), iri("urn:anc"), term.NewVar("y"))},
	}
	step := &term.Rule{
		Premise: []*term.Triple{
			tri(term.NewVar("x"), iri("urn:parent"), term.NewVar("z")),
			tri(term.NewVar("z"), iri("urn:anc"), term.NewVar("y")),
		},
		Conclusion: []*term.Triple{tri(term.NewVar("x"), iri("urn:anc"), term.NewVar("y"))},
	}
	e := newTestEngine([]*term.Triple{
		tri(iri("urn:a"), iri("urn:parent"), iri("urn:b")),
		tri(iri("urn:b"), iri("urn:parent"), iri("urn:c")),
	}, []*term.Rule{base, step})

	goal := tri(iri("urn:a"), iri("urn:anc"), term.NewVar("y"))
	sols := e.prove([]*term.Triple{goal}, Subst{}, 0, proveOpts{})
	found := map[string]bool{}
	for _, s := range sols {
		found[Apply(term.NewVar("y"), s).Value] = true
	}
	assert.True(t, found["urn:b"])
	assert.True(t, found["urn:c"])
}

func TestProveMaxResults(t *testing.T) {
	var facts []*term.Triple
	for _, o := range []string{"urn:1", "urn:2", "urn:3", "urn:4"} {
		facts = append(facts, tri(iri("urn:s"), iri("urn:p"), iri(o)))
	}
	e := newTestEngine(facts, nil)

	goal := tri(iri("urn:s"), iri("urn:p"), term.NewVar("o"))
	sols := e.prove([]*term.Triple{goal}, Subst{}, 0, proveOpts{maxResults: 2})
	assert.Len(t, sols, 2)
}

func TestBuiltinDeferralOnlyWhenEnabled(t *testing.T) {
	e := newTestEngine([]*term.Triple{
		tri(iri("urn:n"), iri("urn:value"), term.NewIntLiteral(3)),
	}, nil)

	// The sum cannot evaluate until ?v is bound by the later goal.
	goals := []*term.Triple{
		tri(term.NewList([]*term.Term{term.NewVar("v"), term.NewIntLiteral(1)}),
			iri(term.NSMath+"sum"), term.NewVar("out")),
		tri(iri("urn:n"), iri("urn:value"), term.NewVar("v")),
	}
	sols := e.prove(goals, Subst{}, 0, proveOpts{deferBuiltins: true})
	require.Len(t, sols, 1)
	assert.True(t, term.Equal(Apply(term.NewVar("out"), sols[0]), term.NewIntLiteral(4)))

	sols = e.prove(goals, Subst{}, 0, proveOpts{})
	assert.Empty(t, sols, "deferral is off outside forward-rule bodies")
}

func TestFunctionalMathSatisfiedWhenFullyUnbound(t *testing.T) {
	e := newTestEngine(nil, nil)
	goals := []*term.Triple{
		tri(term.NewVar("x"), iri(term.NSMath+"sin"), term.NewVar("y")),
	}
	sols := e.prove(goals, Subst{}, 0, proveOpts{deferBuiltins: true})
	assert.Len(t, sols, 1, "a fully unbound functional relation is vacuously satisfiable")

	sols = e.prove(goals, Subst{}, 0, proveOpts{})
	assert.Empty(t, sols, "the fallback is part of deferral, off outside forward-rule bodies")
}

func TestFunctionalMathNotSatisfiedInsideRuleBody(t *testing.T) {
	// Deferral (and its vacuous-success tail) is disabled inside backward
	// rule bodies, even when the outer proof allows it.
	rule := &term.Rule{
		Premise:    []*term.Triple{tri(term.NewVar("x"), iri(term.NSMath+"sin"), term.NewVar("v"))},
		Conclusion: []*term.Triple{tri(term.NewVar("a"), iri("urn:derivedAngle"), term.NewVar("v"))},
	}
	e := newTestEngine(nil, []*term.Rule{rule})
	goal := tri(iri("urn:thing"), iri("urn:derivedAngle"), term.NewVar("v"))
	sols := e.prove([]*term.Triple{goal}, Subst{}, 0, proveOpts{deferBuiltins: true})
	assert.Empty(t, sols, "an unbound builtin in a rule body never proves vacuously")
}

func TestStandardizeApartFreshens(t *testing.T) {
	e := newTestEngine(nil, nil)
	r := &term.Rule{
		Premise:    []*term.Triple{tri(term.NewVar("x"), iri("urn:p"), term.NewVar("y"))},
		Conclusion: []*term.Triple{tri(term.NewVar("x"), iri("urn:q"), term.NewVar("y"))},
	}
	r1 := e.standardizeApart(r)
	r2 := e.standardizeApart(r)
	assert.NotEqual(t, r1.Premise[0].S.Value, r2.Premise[0].S.Value,
		"distinct firings never share variable names")
}
