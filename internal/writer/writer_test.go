package writer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notation3/internal/term"
)

func TestTermRendering(t *testing.T) {
	w := New(Prefixes{"ex": "http://example.org/#", "xsd": term.NSXSD})

	assert.Equal(t, "ex:a", w.Term(term.NewIRI("http://example.org/#a")))
	assert.Equal(t, "<urn:uuid:1>", w.Term(term.NewIRI("urn:uuid:1")))
	assert.Equal(t, "a", w.Term(term.NewIRI(term.RDFType)))
	assert.Equal(t, "_:b1", w.Term(term.NewBlank("b1")))
	assert.Equal(t, "?x", w.Term(term.NewVar("x")))
	assert.Equal(t, "42", w.Term(term.NewIntLiteral(42)))
	assert.Equal(t, "4.5", w.Term(term.NewTypedLiteral("4.5", term.XSDDecimal)))
	assert.Equal(t, "true", w.Term(term.True()))
	assert.Equal(t, `"hi"`, w.Term(term.NewPlainLiteral("hi")))
	assert.Equal(t, `"hi"@en`, w.Term(term.NewLangLiteral("hi", "en")))
	assert.Equal(t, `"2024-01-01T00:00:00Z"^^xsd:dateTime`,
		w.Term(term.NewTypedLiteral("2024-01-01T00:00:00Z", term.XSDDateTime)))
}

func TestListAndGraphRendering(t *testing.T) {
	w := New(Prefixes{"ex": "http://example.org/#"})
	lst := term.NewList([]*term.Term{term.NewIntLiteral(1), term.NewIntLiteral(2)})
	assert.Equal(t, "(1 2)", w.Term(lst))

	g := term.NewGraph([]*term.Triple{
		term.NewTriple(term.NewVar("x"), term.NewIRI("http://example.org/#p"), term.NewIntLiteral(1)),
	})
	rendered := w.Term(g)
	assert.True(t, strings.HasPrefix(rendered, "{\n"))
	assert.Contains(t, rendered, "?x ex:p 1 .")
	assert.True(t, strings.HasSuffix(rendered, "}"))

	assert.Equal(t, "{}", w.Term(term.NewGraph(nil)))
}

func TestEscapedLiteralRendering(t *testing.T) {
	w := New(Prefixes{})
	out := w.Term(term.NewPlainLiteral("line\nbreak \"q\""))
	assert.Equal(t, `"line\nbreak \"q\""`, out)
}

func TestDocumentEmitsUsedPrefixesOnly(t *testing.T) {
	w := New(Prefixes{"ex": "http://example.org/#", "unused": "http://nowhere.example/"})
	doc := w.Document([]*term.Triple{
		term.NewTriple(term.NewIRI("http://example.org/#s"), term.NewIRI("http://example.org/#p"),
			term.NewIRI("http://example.org/#o")),
	})
	assert.Contains(t, doc, "@prefix ex: <http://example.org/#> .")
	assert.NotContains(t, doc, "unused")
	assert.Contains(t, doc, "ex:s ex:p ex:o .")
}

func TestRuleRendering(t *testing.T) {
	w := New(Prefixes{"ex": "http://example.org/#"})
	r := &term.Rule{
		IsForward:  true,
		Premise:    []*term.Triple{term.NewTriple(term.NewVar("x"), term.NewIRI("http://example.org/#p"), term.NewVar("y"))},
		Conclusion: []*term.Triple{term.NewTriple(term.NewVar("x"), term.NewIRI("http://example.org/#q"), term.NewVar("y"))},
	}
	out := w.Rule(r)
	require.Contains(t, out, "=>")
	assert.Contains(t, out, "ex:p")

	fuse := &term.Rule{IsFuse: true, IsForward: true,
		Premise: []*term.Triple{term.NewTriple(term.NewVar("x"), term.NewIRI("http://example.org/#p"), term.NewVar("y"))}}
	assert.Contains(t, w.Rule(fuse), "=> false")
}

func TestLongestNamespaceWins(t *testing.T) {
	w := New(Prefixes{
		"ex":  "http://example.org/",
		"sub": "http://example.org/sub/",
	})
	assert.Equal(t, "sub:x", w.Term(term.NewIRI("http://example.org/sub/x")))
}
