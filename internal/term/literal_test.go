package term

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiteralParts(t *testing.T) {
	lex, dt, lang := LiteralParts(NewTypedLiteral("5.5", XSDDecimal))
	assert.Equal(t, "5.5", lex)
	assert.Equal(t, XSDDecimal, dt)
	assert.Empty(t, lang)

	lex, dt, lang = LiteralParts(NewLangLiteral("chat", "fr"))
	assert.Equal(t, "chat", lex)
	assert.Empty(t, dt)
	assert.Equal(t, "fr", lang)

	lex, dt, _ = LiteralParts(NewPlainLiteral(`say "hi"\there`))
	assert.Equal(t, `say "hi"\there`, lex, "escaping round-trips")
	assert.Empty(t, dt)
}

func TestNumericValueParsing(t *testing.T) {
	n, ok := NumericValue(NewTypedLiteral("12345678901234567890", XSDInteger))
	require.True(t, ok)
	assert.Equal(t, RankInteger, n.Rank)
	expect, _ := new(big.Int).SetString("12345678901234567890", 10)
	assert.Zero(t, n.Int.Cmp(expect))

	n, ok = NumericValue(NewTypedLiteral("2.50", XSDDecimal))
	require.True(t, ok)
	assert.Equal(t, RankDecimal, n.Rank)
	assert.Zero(t, n.Rat.Cmp(big.NewRat(5, 2)))

	n, ok = NumericValue(NewTypedLiteral("1.5e3", XSDDouble))
	require.True(t, ok)
	assert.Equal(t, RankDouble, n.Rank)
	assert.Equal(t, 1500.0, n.F)

	_, ok = NumericValue(NewPlainLiteral("not a number"))
	assert.False(t, ok)

	// Plain numeric lexicals infer their rank.
	n, ok = NumericValue(NewPlainLiteral("42"))
	require.True(t, ok)
	assert.Equal(t, RankInteger, n.Rank)
	n, ok = NumericValue(NewPlainLiteral("4.2"))
	require.True(t, ok)
	assert.Equal(t, RankDecimal, n.Rank)
}

func TestBooleanValue(t *testing.T) {
	for _, lex := range []string{"true", "1"} {
		v, ok := BooleanValue(NewPlainLiteral(lex))
		assert.True(t, ok)
		assert.True(t, v)
	}
	v, ok := BooleanValue(False())
	assert.True(t, ok)
	assert.False(t, v)

	_, ok = BooleanValue(NewPlainLiteral("yes"))
	assert.False(t, ok)
	_, ok = BooleanValue(NewLangLiteral("true", "en"))
	assert.False(t, ok)
}

func TestFromRatPromotion(t *testing.T) {
	half := big.NewRat(11, 2)
	lit := FromRat(half, RankInteger)
	lex, dt, _ := LiteralParts(lit)
	assert.Equal(t, "5.5", lex)
	assert.Equal(t, XSDDecimal, dt, "non-integral integer-rank results promote to decimal")

	whole := FromRat(big.NewRat(4, 2), RankInteger)
	lex, dt, _ = LiteralParts(whole)
	assert.Equal(t, "2", lex)
	assert.Equal(t, XSDInteger, dt)
}
