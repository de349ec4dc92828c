package reason

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notation3/internal/term"
)

func TestCryptoDigests(t *testing.T) {
	e := newTestEngine(nil, nil)
	cases := []struct {
		pred string
		want string
	}{
		{"md5", "900150983cd24fb0d6963f7d28e17f72"},
		{"sha", "a9993e364706816aba3e25717850c26c9cd0d89d"},
		{"sha256", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
	}
	for _, c := range cases {
		sols := evalGoal(e, tri(plain("abc"), iri(term.NSCrypto+c.pred), term.NewVar("h")))
		require.Len(t, sols, 1, c.pred)
		assert.Equal(t, c.want, term.LiteralLexical(sols[0]["h"]), c.pred)
	}
}

func TestCryptoSha512Length(t *testing.T) {
	e := newTestEngine(nil, nil)
	sols := evalGoal(e, tri(plain("abc"), iri(term.NSCrypto+"sha512"), term.NewVar("h")))
	require.Len(t, sols, 1)
	assert.Len(t, term.LiteralLexical(sols[0]["h"]), 128)
}

func TestCryptoRejectsNonString(t *testing.T) {
	e := newTestEngine(nil, nil)
	sols := evalGoal(e, tri(iri("urn:thing"), iri(term.NSCrypto+"md5"), term.NewVar("h")))
	assert.Empty(t, sols)

	sols = evalGoal(e, tri(term.NewIntLiteral(1), iri(term.NSCrypto+"md5"), term.NewVar("h")))
	assert.Empty(t, sols, "typed non-string literals fail")
}
