package term

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func tr(s, p, o *Term) *Triple { return NewTriple(s, p, o) }

func TestAlphaEqualRenamedVariables(t *testing.T) {
	a := []*Triple{tr(NewVar("x"), NewIRI("urn:p"), NewVar("y"))}
	b := []*Triple{tr(NewVar("u"), NewIRI("urn:p"), NewVar("v"))}

	assert.True(t, AlphaEqualGraphs(a, b))
}

func TestAlphaRenamingMustBeBijective(t *testing.T) {
	a := []*Triple{tr(NewVar("x"), NewIRI("urn:p"), NewVar("x"))}
	b := []*Triple{tr(NewVar("u"), NewIRI("urn:p"), NewVar("v"))}

	assert.False(t, AlphaEqualGraphs(a, b), "one variable cannot map to two")
	assert.False(t, AlphaEqualGraphs(b, a), "two variables cannot map to one")
}

func TestAlphaEqualBlankRenaming(t *testing.T) {
	a := []*Triple{
		tr(NewBlank("b1"), NewIRI("urn:p"), NewBlank("b2")),
		tr(NewBlank("b2"), NewIRI("urn:q"), NewIntLiteral(1)),
	}
	b := []*Triple{
		tr(NewBlank("n2"), NewIRI("urn:q"), NewIntLiteral(1)),
		tr(NewBlank("n1"), NewIRI("urn:p"), NewBlank("n2")),
	}

	assert.True(t, AlphaEqualGraphs(a, b), "order-insensitive with consistent renaming")
}

func TestAlphaVarDoesNotMapToBlank(t *testing.T) {
	a := []*Triple{tr(NewVar("x"), NewIRI("urn:p"), NewIntLiteral(1))}
	b := []*Triple{tr(NewBlank("x"), NewIRI("urn:p"), NewIntLiteral(1))}

	assert.False(t, AlphaEqualGraphs(a, b))
}

func TestAlphaDifferentSizes(t *testing.T) {
	a := []*Triple{tr(NewIRI("urn:s"), NewIRI("urn:p"), NewIntLiteral(1))}

	assert.False(t, AlphaEqualGraphs(a, nil))
	assert.True(t, AlphaEqualGraphs(nil, nil))
}

func TestAlphaNestedFormulaFreshScope(t *testing.T) {
	inner1 := NewGraph([]*Triple{tr(NewVar("x"), NewIRI("urn:p"), NewIntLiteral(1))})
	inner2 := NewGraph([]*Triple{tr(NewVar("z"), NewIRI("urn:p"), NewIntLiteral(1))})
	a := []*Triple{tr(NewVar("x"), NewIRI("urn:q"), inner1)}
	b := []*Triple{tr(NewVar("y"), NewIRI("urn:q"), inner2)}

	assert.True(t, AlphaEqualGraphs(a, b), "nested formulas open a fresh renaming scope")
}

func TestAlphaBacktracksAcrossCandidates(t *testing.T) {
	// Both triples in ys match the first of xs on the surface; only one
	// assignment extends to a full match.
	xs := []*Triple{
		tr(NewBlank("a"), NewIRI("urn:p"), NewIntLiteral(1)),
		tr(NewBlank("a"), NewIRI("urn:q"), NewIntLiteral(2)),
	}
	ys := []*Triple{
		tr(NewBlank("m"), NewIRI("urn:p"), NewIntLiteral(1)),
		tr(NewBlank("m"), NewIRI("urn:q"), NewIntLiteral(2)),
	}
	assert.True(t, AlphaEqualGraphs(xs, ys))

	ysSplit := []*Triple{
		tr(NewBlank("m"), NewIRI("urn:p"), NewIntLiteral(1)),
		tr(NewBlank("n"), NewIRI("urn:q"), NewIntLiteral(2)),
	}
	assert.False(t, AlphaEqualGraphs(xs, ysSplit), "one blank cannot split into two")
}
