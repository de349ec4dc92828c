package reason

import (
	"math"
	"math/big"

	"notation3/internal/term"
)

// math: comparisons, n-ary arithmetic, and unary functions with inverses.

func registerMathBuiltins() {
	register(term.NSMath+"greaterThan", compareBuiltin(func(c int) bool { return c > 0 }))
	register(term.NSMath+"lessThan", compareBuiltin(func(c int) bool { return c < 0 }))
	register(term.NSMath+"notLessThan", compareBuiltin(func(c int) bool { return c >= 0 }))
	register(term.NSMath+"notGreaterThan", compareBuiltin(func(c int) bool { return c <= 0 }))
	register(term.NSMath+"equalTo", compareBuiltin(func(c int) bool { return c == 0 }))
	register(term.NSMath+"notEqualTo", compareBuiltin(func(c int) bool { return c != 0 }))

	register(term.NSMath+"sum", naryBuiltin(func(acc, x *big.Rat) { acc.Add(acc, x) }, func(acc, x float64) float64 { return acc + x }))
	register(term.NSMath+"product", naryBuiltin(func(acc, x *big.Rat) { acc.Mul(acc, x) }, func(acc, x float64) float64 { return acc * x }))

	register(term.NSMath+"difference", mathDifference)
	register(term.NSMath+"quotient", mathQuotient)
	register(term.NSMath+"integerQuotient", mathIntegerQuotient)
	register(term.NSMath+"remainder", mathRemainder)
	register(term.NSMath+"exponentiation", mathExponentiation)

	registerUnary("absoluteValue", math.Abs, nil)
	registerUnary("acos", math.Acos, math.Cos)
	registerUnary("asin", math.Asin, math.Sin)
	registerUnary("atan", math.Atan, math.Tan)
	registerUnary("cos", math.Cos, math.Acos)
	registerUnary("cosh", math.Cosh, math.Acosh)
	registerUnary("sin", math.Sin, math.Asin)
	registerUnary("sinh", math.Sinh, math.Asinh)
	registerUnary("tan", math.Tan, math.Atan)
	registerUnary("tanh", math.Tanh, math.Atanh)
	registerUnary("degrees", func(r float64) float64 { return r * 180 / math.Pi },
		func(d float64) float64 { return d * math.Pi / 180 })
	register(term.NSMath+"negation", mathNegation)
	register(term.NSMath+"rounded", mathRounded)
}

// comparePair pulls the two values of a comparison: either subject vs
// object, or the two elements of a 2-element subject list.
func comparePair(g *term.Triple, ctx *builtinCtx) (a, b *term.Numeric, ok bool) {
	if lst, isList := asList(g.S, ctx); isList && len(lst.Elems) == 2 {
		na, okA := term.NumericValue(lst.Elems[0])
		nb, okB := term.NumericValue(lst.Elems[1])
		if okA && okB {
			return na, nb, true
		}
	}
	na, okA := term.NumericValue(g.S)
	nb, okB := term.NumericValue(g.O)
	if !okA || !okB {
		return nil, nil, false
	}
	return na, nb, true
}

func compareBuiltin(test func(int) bool) builtinFunc {
	return func(g *term.Triple, ctx *builtinCtx) []Subst {
		a, b, ok := comparePair(g, ctx)
		if !ok {
			return nil
		}
		if test(compareNumeric(a, b)) {
			return one(Subst{})
		}
		return nil
	}
}

// compareNumeric compares integer-integer with arbitrary precision and
// everything else as floats.
func compareNumeric(a, b *term.Numeric) int {
	if a.Rank == term.RankInteger && b.Rank == term.RankInteger {
		return a.Int.Cmp(b.Int)
	}
	switch {
	case a.F < b.F:
		return -1
	case a.F > b.F:
		return 1
	}
	return 0
}

// numericOperands resolves the subject list of an arithmetic builtin and
// returns the values plus the common result rank, folding in the rank of a
// ground numeric output slot.
func numericOperands(g *term.Triple, ctx *builtinCtx, min int) ([]*term.Numeric, term.NumericRank, bool) {
	lst, ok := asList(g.S, ctx)
	if !ok {
		return nil, term.RankNone, false
	}
	// A single-element subject whose element is itself a list stands for
	// that list, so (?l) works once ?l is bound.
	if len(lst.Elems) == 1 {
		if inner, innerOK := asList(lst.Elems[0], ctx); innerOK {
			lst = inner
		}
	}
	if len(lst.Elems) < min {
		return nil, term.RankNone, false
	}
	rank := term.RankInteger
	vals := make([]*term.Numeric, len(lst.Elems))
	for i, el := range lst.Elems {
		n, ok := term.NumericValue(el)
		if !ok {
			return nil, term.RankNone, false
		}
		vals[i] = n
		if n.Rank > rank {
			rank = n.Rank
		}
	}
	if out, ok := term.NumericValue(g.O); ok && out.Rank > rank {
		rank = out.Rank
	}
	return vals, rank, true
}

func exactRank(rank term.NumericRank) bool { return rank <= term.RankDecimal }

func naryBuiltin(foldExact func(acc, x *big.Rat), foldFloat func(acc, x float64) float64) builtinFunc {
	return func(g *term.Triple, ctx *builtinCtx) []Subst {
		vals, rank, ok := numericOperands(g, ctx, 2)
		if !ok {
			return nil
		}
		var result *term.Term
		if exactRank(rank) {
			acc := new(big.Rat).Set(vals[0].Rat)
			for _, v := range vals[1:] {
				foldExact(acc, v.Rat)
			}
			result = term.FromRat(acc, rank)
		} else {
			acc := vals[0].F
			for _, v := range vals[1:] {
				acc = foldFloat(acc, v.F)
			}
			result = term.FromFloat(acc, rank)
		}
		out, ok := unifyOut(g.O, result)
		if !ok {
			return nil
		}
		return out
	}
}

func binaryOperands(g *term.Triple, ctx *builtinCtx) (a, b *term.Numeric, rank term.NumericRank, ok bool) {
	vals, rank, ok := numericOperands(g, ctx, 2)
	if !ok || len(vals) != 2 {
		return nil, nil, term.RankNone, false
	}
	return vals[0], vals[1], rank, true
}

func mathDifference(g *term.Triple, ctx *builtinCtx) []Subst {
	a, b, rank, ok := binaryOperands(g, ctx)
	if !ok {
		return nil
	}
	var result *term.Term
	if exactRank(rank) {
		result = term.FromRat(new(big.Rat).Sub(a.Rat, b.Rat), rank)
	} else {
		result = term.FromFloat(a.F-b.F, rank)
	}
	out, ok := unifyOut(g.O, result)
	if !ok {
		return nil
	}
	return out
}

func mathQuotient(g *term.Triple, ctx *builtinCtx) []Subst {
	a, b, rank, ok := binaryOperands(g, ctx)
	if !ok {
		return nil
	}
	var result *term.Term
	if exactRank(rank) {
		if b.Rat.Sign() == 0 {
			return nil
		}
		result = term.FromRat(new(big.Rat).Quo(a.Rat, b.Rat), rank)
	} else {
		if b.F == 0 {
			return nil
		}
		result = term.FromFloat(a.F/b.F, rank)
	}
	out, ok := unifyOut(g.O, result)
	if !ok {
		return nil
	}
	return out
}

func mathIntegerQuotient(g *term.Triple, ctx *builtinCtx) []Subst {
	a, b, _, ok := binaryOperands(g, ctx)
	if !ok || a.Rank != term.RankInteger || b.Rank != term.RankInteger {
		return nil
	}
	if b.Int.Sign() == 0 {
		return nil
	}
	q := new(big.Int).Quo(a.Int, b.Int)
	out, ok := unifyOut(g.O, term.NewIntegerLiteral(q))
	if !ok {
		return nil
	}
	return out
}

func mathRemainder(g *term.Triple, ctx *builtinCtx) []Subst {
	a, b, rank, ok := binaryOperands(g, ctx)
	if !ok {
		return nil
	}
	var result *term.Term
	if a.Rank == term.RankInteger && b.Rank == term.RankInteger {
		if b.Int.Sign() == 0 {
			return nil
		}
		result = term.NewIntegerLiteral(new(big.Int).Rem(a.Int, b.Int))
	} else {
		if b.F == 0 {
			return nil
		}
		result = term.FromFloat(math.Mod(a.F, b.F), rank)
	}
	out, ok := unifyOut(g.O, result)
	if !ok {
		return nil
	}
	return out
}

// mathExponentiation computes base^exp forward, and when the exponent slot
// is the only unbound one it inverts: exp = log_base(result), defined for a
// positive real base other than 1.
func mathExponentiation(g *term.Triple, ctx *builtinCtx) []Subst {
	lst, ok := asList(g.S, ctx)
	if !ok || len(lst.Elems) != 2 {
		return nil
	}
	base, baseOK := term.NumericValue(lst.Elems[0])
	exp, expOK := term.NumericValue(lst.Elems[1])

	if baseOK && expOK {
		rank := base.Rank
		if exp.Rank > rank {
			rank = exp.Rank
		}
		if out, outOK := term.NumericValue(g.O); outOK && out.Rank > rank {
			rank = out.Rank
		}
		var result *term.Term
		if base.Rank == term.RankInteger && exp.Rank == term.RankInteger && exp.Int.Sign() >= 0 && exp.Int.IsInt64() {
			v := new(big.Int).Exp(base.Int, exp.Int, nil)
			result = term.FromRat(new(big.Rat).SetInt(v), rank)
		} else {
			result = term.FromFloat(math.Pow(base.F, exp.F), rank)
		}
		out, ok := unifyOut(g.O, result)
		if !ok {
			return nil
		}
		return out
	}

	// Inverse mode: (base ?exp) exponentiation result.
	if baseOK && !expOK && lst.Elems[1].Kind == term.Var {
		res, resOK := term.NumericValue(g.O)
		if !resOK || base.F <= 0 || base.F == 1 || res.F <= 0 {
			return nil
		}
		v := math.Log(res.F) / math.Log(base.F)
		out, ok := unifyOut(lst.Elems[1], term.FromFloat(v, term.RankDouble))
		if !ok {
			return nil
		}
		return out
	}
	return nil
}

// registerUnary wires a unary math builtin with a forward function and an
// optional inverse used when only the object side is bound.
func registerUnary(name string, fwd, inv func(float64) float64) {
	register(term.NSMath+name, func(g *term.Triple, _ *builtinCtx) []Subst {
		if n, ok := term.NumericValue(g.S); ok {
			v := fwd(n.F)
			if math.IsNaN(v) {
				return nil
			}
			out, ok := unifyOut(g.O, term.FromFloat(v, term.RankDouble))
			if !ok {
				return nil
			}
			return out
		}
		if inv == nil {
			return nil
		}
		if n, ok := term.NumericValue(g.O); ok && g.S.Kind == term.Var {
			v := inv(n.F)
			if math.IsNaN(v) {
				return nil
			}
			return one(Subst{g.S.Value: term.FromFloat(v, term.RankDouble)})
		}
		return nil
	})
}

// negation preserves exactness and is its own inverse.
func mathNegation(g *term.Triple, _ *builtinCtx) []Subst {
	if n, ok := term.NumericValue(g.S); ok {
		out, ok := unifyOut(g.O, negate(n))
		if !ok {
			return nil
		}
		return out
	}
	if n, ok := term.NumericValue(g.O); ok && g.S.Kind == term.Var {
		return one(Subst{g.S.Value: negate(n)})
	}
	return nil
}

func negate(n *term.Numeric) *term.Term {
	if n.Rat != nil {
		return term.FromRat(new(big.Rat).Neg(n.Rat), n.Rank)
	}
	return term.FromFloat(-n.F, n.Rank)
}

// rounded rounds half toward positive infinity and yields an integer.
func mathRounded(g *term.Triple, _ *builtinCtx) []Subst {
	n, ok := term.NumericValue(g.S)
	if !ok {
		return nil
	}
	v := math.Floor(n.F + 0.5)
	out, ok := unifyOut(g.O, term.NewIntLiteral(int64(v)))
	if !ok {
		return nil
	}
	return out
}
