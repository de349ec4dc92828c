package reason

import (
	"math/big"

	"notation3/internal/term"
)

// unifyMode tunes literal comparison. The default mode treats
// boolean-value-equal literals (true/1, false/0) as unifiable. The
// list:append variant disables that and instead allows an integer literal to
// unify with a decimal literal when their scaled big-integer values agree.
type unifyMode struct {
	boolEq        bool
	appendNumeric bool
}

var (
	defaultMode = unifyMode{boolEq: true}
	appendMode  = unifyMode{appendNumeric: true}
)

// Unify extends s so that a and b become structurally equal, or fails. Both
// sides are substituted with the incoming substitution before comparison.
func Unify(a, b *term.Term, s Subst) (Subst, bool) {
	return unify(a, b, s, defaultMode)
}

func unify(a, b *term.Term, s Subst, mode unifyMode) (Subst, bool) {
	a = resolve(a, s)
	b = resolve(b, s)

	if a.Kind == term.Var {
		return bindVar(a, b, s)
	}
	if b.Kind == term.Var {
		return bindVar(b, a, s)
	}

	switch {
	case a.Kind == term.List && b.Kind == term.List:
		if len(a.Elems) != len(b.Elems) {
			return nil, false
		}
		return unifySeq(a.Elems, b.Elems, s, mode)

	case a.Kind == term.OpenList && b.Kind == term.List:
		return unifyOpenClosed(a, b, s, mode)
	case a.Kind == term.List && b.Kind == term.OpenList:
		return unifyOpenClosed(b, a, s, mode)

	case a.Kind == term.OpenList && b.Kind == term.OpenList:
		if a.Value != b.Value || len(a.Elems) != len(b.Elems) {
			return nil, false
		}
		return unifySeq(a.Elems, b.Elems, s, mode)

	case a.Kind == term.Graph && b.Kind == term.Graph:
		return unifyGraphs(a, b, s, mode)

	case a.Kind == term.Literal && b.Kind == term.Literal:
		if literalsUnify(a, b, mode) {
			return s, true
		}
		return nil, false

	case a.Kind == b.Kind:
		if term.Equal(a, b) {
			return s, true
		}
		return nil, false
	}
	return nil, false
}

func bindVar(v, t *term.Term, s Subst) (Subst, bool) {
	t = Apply(t, s)
	if t.Kind == term.Var && t.Value == v.Value {
		return s, true
	}
	if t.ContainsVar(v.Value) {
		return nil, false
	}
	out := s.Clone()
	out[v.Value] = t
	return out, true
}

func unifySeq(as, bs []*term.Term, s Subst, mode unifyMode) (Subst, bool) {
	for i := range as {
		var ok bool
		s, ok = unify(as[i], bs[i], s, mode)
		if !ok {
			return nil, false
		}
	}
	return s, true
}

// unifyOpenClosed matches an open list against a closed one: the closed list
// must be at least as long as the prefix; the tail variable is bound to the
// remainder.
func unifyOpenClosed(open, closed *term.Term, s Subst, mode unifyMode) (Subst, bool) {
	if len(closed.Elems) < len(open.Elems) {
		return nil, false
	}
	s, ok := unifySeq(open.Elems, closed.Elems[:len(open.Elems)], s, mode)
	if !ok {
		return nil, false
	}
	rest := term.NewList(append([]*term.Term(nil), closed.Elems[len(open.Elems):]...))
	return bindVar(term.NewVar(open.Value), rest, s)
}

// unifyGraphs first tries alpha-equivalence, which succeeds without new
// bindings. Failing that, it searches for an unordered match of the two
// triple sets, threading the ambient substitution through the per-triple
// unifications.
func unifyGraphs(a, b *term.Term, s Subst, mode unifyMode) (Subst, bool) {
	if term.AlphaEqualGraphs(a.Triples, b.Triples) {
		return s, true
	}
	if len(a.Triples) != len(b.Triples) {
		return nil, false
	}
	used := make([]bool, len(b.Triples))
	return matchGraph(a.Triples, b.Triples, used, 0, s, mode)
}

func matchGraph(xs, ys []*term.Triple, used []bool, i int, s Subst, mode unifyMode) (Subst, bool) {
	if i == len(xs) {
		return s, true
	}
	for j := range ys {
		if used[j] {
			continue
		}
		s2, ok := unify(xs[i].P, ys[j].P, s, mode)
		if !ok {
			continue
		}
		s2, ok = unify(xs[i].S, ys[j].S, s2, mode)
		if !ok {
			continue
		}
		s2, ok = unify(xs[i].O, ys[j].O, s2, mode)
		if !ok {
			continue
		}
		used[j] = true
		if out, done := matchGraph(xs, ys, used, i+1, s2, mode); done {
			return out, true
		}
		used[j] = false
	}
	return nil, false
}

func literalsUnify(a, b *term.Term, mode unifyMode) bool {
	if term.Equal(a, b) {
		return true
	}
	if mode.boolEq {
		if va, ok := term.BooleanValue(a); ok {
			if vb, ok := term.BooleanValue(b); ok && va == vb {
				return true
			}
		}
	}
	if mode.appendNumeric {
		if intDecimalEqual(a, b) || intDecimalEqual(b, a) {
			return true
		}
	}
	return false
}

// intDecimalEqual compares an integer literal against a decimal one by their
// scaled big-integer values, exact at any magnitude.
func intDecimalEqual(intLit, decLit *term.Term) bool {
	ni, ok := term.NumericValue(intLit)
	if !ok || ni.Rank != term.RankInteger {
		return false
	}
	nd, ok := term.NumericValue(decLit)
	if !ok || nd.Rank != term.RankDecimal || nd.Rat == nil {
		return false
	}
	return new(big.Rat).SetInt(ni.Int).Cmp(nd.Rat) == 0
}
