package reason

import (
	"sort"

	"notation3/internal/term"
)

// list: structural list builtins. The strict ones (iterate, memberAt,
// length, remove) compare ground sides with EqualStrict so an integer
// element never answers a decimal probe.

func registerListBuiltins() {
	register(term.NSList+"append", listAppend)
	register(term.NSList+"first", listFirst)
	register(term.NSList+"rest", listRest)
	register(term.RDFFirst, listFirst)
	register(term.RDFRest, listRest)
	register(term.NSList+"last", listLast)
	register(term.NSList+"member", listMember)
	register(term.NSList+"in", listIn)
	register(term.NSList+"memberAt", listMemberAt)
	register(term.NSList+"iterate", listIterate)
	register(term.NSList+"remove", listRemove)
	register(term.NSList+"length", listLength)
	register(term.NSList+"notMember", listNotMember)
	register(term.NSList+"reverse", listReverse)
	register(term.NSList+"sort", listSort)
	register(term.NSList+"map", listMap)
	register(term.NSList+"firstRest", listFirstRest)
}

func listFirst(g *term.Triple, ctx *builtinCtx) []Subst {
	lst, ok := asList(g.S, ctx)
	if !ok || len(lst.Elems) == 0 {
		return nil
	}
	out, ok := unifyOut(g.O, lst.Elems[0])
	if !ok {
		return nil
	}
	return out
}

func listRest(g *term.Triple, ctx *builtinCtx) []Subst {
	lst, ok := asList(g.S, ctx)
	if !ok || len(lst.Elems) == 0 {
		return nil
	}
	out, ok := unifyOut(g.O, term.NewList(lst.Elems[1:]))
	if !ok {
		return nil
	}
	return out
}

func listLast(g *term.Triple, ctx *builtinCtx) []Subst {
	lst, ok := asList(g.S, ctx)
	if !ok || len(lst.Elems) == 0 {
		return nil
	}
	out, ok := unifyOut(g.O, lst.Elems[len(lst.Elems)-1])
	if !ok {
		return nil
	}
	return out
}

// listMember enumerates one delta per element unifying with the object.
func listMember(g *term.Triple, ctx *builtinCtx) []Subst {
	lst, ok := asList(g.S, ctx)
	if !ok {
		return nil
	}
	var deltas []Subst
	for _, el := range lst.Elems {
		if d, ok := Unify(g.O, el, Subst{}); ok {
			deltas = append(deltas, d)
		}
	}
	return deltas
}

// listIn is member with subject and object swapped.
func listIn(g *term.Triple, ctx *builtinCtx) []Subst {
	lst, ok := asList(g.O, ctx)
	if !ok {
		return nil
	}
	var deltas []Subst
	for _, el := range lst.Elems {
		if d, ok := Unify(g.S, el, Subst{}); ok {
			deltas = append(deltas, d)
		}
	}
	return deltas
}

// listMemberAt: subject (list index), object the element. Zero-based. A
// ground side is checked with strict equality; an unbound one unifies.
func listMemberAt(g *term.Triple, ctx *builtinCtx) []Subst {
	pair, ok := asList(g.S, ctx)
	if !ok || len(pair.Elems) != 2 {
		return nil
	}
	lst, ok := asList(pair.Elems[0], ctx)
	if !ok {
		return nil
	}
	idxTerm := pair.Elems[1]
	if n, isNum := term.NumericValue(idxTerm); isNum {
		if n.Rank != term.RankInteger || !n.Int.IsInt64() {
			return nil
		}
		i := n.Int.Int64()
		if i < 0 || i >= int64(len(lst.Elems)) {
			return nil
		}
		return strictOrUnify(g.O, lst.Elems[i], Subst{})
	}
	if idxTerm.Kind != term.Var {
		return nil
	}
	var deltas []Subst
	for i, el := range lst.Elems {
		d := Subst{idxTerm.Value: term.NewIntLiteral(int64(i))}
		if ds := strictOrUnify(g.O, el, d); ds != nil {
			deltas = append(deltas, ds...)
		}
	}
	return deltas
}

// strictOrUnify applies the strict builtins' matching rule: ground probes
// must be strictly equal, variables unify.
func strictOrUnify(probe, value *term.Term, base Subst) []Subst {
	if probe.Ground() {
		if term.EqualStrict(probe, value) {
			return one(base)
		}
		return nil
	}
	d, ok := Unify(probe, value, base)
	if !ok {
		return nil
	}
	return one(d)
}

// listIterate enumerates (index value) pairs.
func listIterate(g *term.Triple, ctx *builtinCtx) []Subst {
	lst, ok := asList(g.S, ctx)
	if !ok {
		return nil
	}
	var deltas []Subst
	for i, el := range lst.Elems {
		pair := term.NewList([]*term.Term{term.NewIntLiteral(int64(i)), el})
		if g.O.Ground() {
			if term.EqualStrict(g.O, pair) {
				deltas = append(deltas, Subst{})
			}
			continue
		}
		if d, ok := Unify(g.O, pair, Subst{}); ok {
			deltas = append(deltas, d)
		}
	}
	return deltas
}

// listRemove deletes every occurrence of an item under strict equality.
func listRemove(g *term.Triple, ctx *builtinCtx) []Subst {
	pair, ok := asList(g.S, ctx)
	if !ok || len(pair.Elems) != 2 {
		return nil
	}
	lst, ok := asList(pair.Elems[0], ctx)
	if !ok {
		return nil
	}
	item := pair.Elems[1]
	if !item.Ground() {
		return nil
	}
	kept := make([]*term.Term, 0, len(lst.Elems))
	for _, el := range lst.Elems {
		if !term.EqualStrict(item, el) {
			kept = append(kept, el)
		}
	}
	out, ok := unifyOut(g.O, term.NewList(kept))
	if !ok {
		return nil
	}
	return out
}

func listLength(g *term.Triple, ctx *builtinCtx) []Subst {
	lst, ok := asList(g.S, ctx)
	if !ok {
		return nil
	}
	return strictOrUnify(g.O, term.NewIntLiteral(int64(len(lst.Elems))), Subst{})
}

func listNotMember(g *term.Triple, ctx *builtinCtx) []Subst {
	lst, ok := asList(g.S, ctx)
	if !ok || !g.O.Ground() {
		return nil
	}
	for _, el := range lst.Elems {
		if term.Equal(g.O, el) {
			return nil
		}
	}
	return one(Subst{})
}

// listReverse runs in whichever direction has a ground list.
func listReverse(g *term.Triple, ctx *builtinCtx) []Subst {
	if lst, ok := asList(g.S, ctx); ok {
		out, ok := unifyOut(g.O, reversed(lst))
		if !ok {
			return nil
		}
		return out
	}
	if lst, ok := asList(g.O, ctx); ok && g.S.Kind == term.Var {
		return one(Subst{g.S.Value: reversed(lst)})
	}
	return nil
}

func reversed(lst *term.Term) *term.Term {
	out := make([]*term.Term, len(lst.Elems))
	for i, el := range lst.Elems {
		out[len(out)-1-i] = el
	}
	return term.NewList(out)
}

// listSort orders numerically when both elements are numeric lexicals, else
// lexicographically by rendered form.
func listSort(g *term.Triple, ctx *builtinCtx) []Subst {
	lst, ok := asList(g.S, ctx)
	if !ok {
		return nil
	}
	out := append([]*term.Term(nil), lst.Elems...)
	sort.SliceStable(out, func(i, j int) bool {
		ni, iOK := term.NumericValue(out[i])
		nj, jOK := term.NumericValue(out[j])
		if iOK && jOK {
			return compareNumeric(ni, nj) < 0
		}
		return sortKey(out[i]) < sortKey(out[j])
	})
	res, ok := unifyOut(g.O, term.NewList(out))
	if !ok {
		return nil
	}
	return res
}

func sortKey(t *term.Term) string {
	if t.Kind == term.Literal {
		return term.LiteralLexical(t)
	}
	return t.String()
}

// listMap: subject (list predicate); every element is queried as
// (element predicate ?v) and all solutions concatenate in order.
func listMap(g *term.Triple, ctx *builtinCtx) []Subst {
	pair, ok := asList(g.S, ctx)
	if !ok || len(pair.Elems) != 2 {
		return nil
	}
	lst, ok := asList(pair.Elems[0], ctx)
	if !ok {
		return nil
	}
	pred := pair.Elems[1]
	var results []*term.Term
	e := ctx.engine
	for _, el := range lst.Elems {
		v := term.NewVar(e.freshVar("map"))
		goal := term.NewTriple(el, pred, v)
		sols := e.prove([]*term.Triple{goal}, Subst{}, ctx.depth+1, proveOpts{
			facts: ctx.facts,
			rules: ctx.rules,
		})
		for _, sol := range sols {
			results = append(results, Apply(v, sol))
		}
	}
	out, ok := unifyOut(g.O, term.NewList(results))
	if !ok {
		return nil
	}
	return out
}

// listFirstRest relates a list to its (first rest) pair, in both
// directions; the construction direction builds a new list from a ground
// pair.
func listFirstRest(g *term.Triple, ctx *builtinCtx) []Subst {
	if lst, ok := asList(g.S, ctx); ok {
		if len(lst.Elems) == 0 {
			return nil
		}
		pair := term.NewList([]*term.Term{lst.Elems[0], term.NewList(lst.Elems[1:])})
		out, ok := unifyOut(g.O, pair)
		if !ok {
			return nil
		}
		return out
	}
	if pair, ok := asList(g.O, ctx); ok && len(pair.Elems) == 2 {
		rest, ok := asList(pair.Elems[1], ctx)
		if !ok {
			return nil
		}
		built := term.NewList(append([]*term.Term{pair.Elems[0]}, rest.Elems...))
		out, ok := unifyOut(g.S, built)
		if !ok {
			return nil
		}
		return out
	}
	return nil
}

// listAppend concatenates the sublists of the subject. When the subject
// still holds variables but the object is ground, every split of the object
// across the subject slots is enumerated. Element comparison runs in append
// mode: boolean coercion off, exact integer/decimal coercion on.
func listAppend(g *term.Triple, ctx *builtinCtx) []Subst {
	parts, ok := asList(g.S, ctx)
	if !ok {
		return nil
	}

	// All parts ground: plain concatenation.
	allGround := true
	for _, p := range parts.Elems {
		if _, ok := asList(p, ctx); !ok {
			allGround = false
			break
		}
	}
	if allGround {
		var out []*term.Term
		for _, p := range parts.Elems {
			lst, _ := asList(p, ctx)
			out = append(out, lst.Elems...)
		}
		d, ok := unify(g.O, term.NewList(out), Subst{}, appendMode)
		if !ok {
			return nil
		}
		return one(d)
	}

	target, ok := asList(g.O, ctx)
	if !ok || !target.Ground() {
		return nil
	}
	var deltas []Subst
	splitAppend(parts.Elems, target.Elems, Subst{}, ctx, &deltas)
	return deltas
}

func splitAppend(parts []*term.Term, rest []*term.Term, s Subst, ctx *builtinCtx, acc *[]Subst) {
	if len(parts) == 0 {
		if len(rest) == 0 {
			*acc = append(*acc, s)
		}
		return
	}
	head := Apply(parts[0], s)
	if lst, ok := asList(head, ctx); ok {
		if len(lst.Elems) > len(rest) {
			return
		}
		cur := s
		for i, el := range lst.Elems {
			var ok bool
			cur, ok = unify(el, rest[i], cur, appendMode)
			if !ok {
				return
			}
		}
		splitAppend(parts[1:], rest[len(lst.Elems):], cur, ctx, acc)
		return
	}
	if head.Kind != term.Var {
		return
	}
	for n := 0; n <= len(rest); n++ {
		s2 := s.Clone()
		s2[head.Value] = term.NewList(append([]*term.Term(nil), rest[:n]...))
		splitAppend(parts[1:], rest[n:], s2, ctx, acc)
	}
}
