package reason

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"

	"notation3/internal/term"
)

// crypto: digests. The subject must decode to a string; the object is the
// hex digest as a plain literal.

func registerCryptoBuiltins() {
	register(term.NSCrypto+"md5", digestBuiltin(func(b []byte) []byte {
		h := md5.Sum(b)
		return h[:]
	}))
	register(term.NSCrypto+"sha", digestBuiltin(func(b []byte) []byte {
		h := sha1.Sum(b)
		return h[:]
	}))
	register(term.NSCrypto+"sha256", digestBuiltin(func(b []byte) []byte {
		h := sha256.Sum256(b)
		return h[:]
	}))
	register(term.NSCrypto+"sha512", digestBuiltin(func(b []byte) []byte {
		h := sha512.Sum512(b)
		return h[:]
	}))
}

func digestBuiltin(sum func([]byte) []byte) builtinFunc {
	return func(g *term.Triple, _ *builtinCtx) []Subst {
		s, ok := term.IsStringy(g.S)
		if !ok {
			return nil
		}
		digest := hex.EncodeToString(sum([]byte(s)))
		out, ok := unifyOut(g.O, term.NewPlainLiteral(digest))
		if !ok {
			return nil
		}
		return out
	}
}
