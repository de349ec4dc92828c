// Package reason implements the inference engine: substitutions and
// unification, the backward prover, the builtin evaluator, forward-chaining
// saturation with skolemization, scoped closures and derivation records.
package reason

import (
	"notation3/internal/term"
)

// Subst binds variable names to terms. Substitutions are treated as
// immutable by the prover: alternatives shallow-copy before extending.
type Subst map[string]*term.Term

func (s Subst) Clone() Subst {
	cp := make(Subst, len(s)+4)
	for k, v := range s {
		cp[k] = v
	}
	return cp
}

// resolve dereferences top-level variable chains with a cycle guard. The
// result is either a non-variable term or an unbound variable.
func resolve(t *term.Term, s Subst) *term.Term {
	for t.Kind == term.Var {
		next, ok := s[t.Value]
		if !ok {
			return t
		}
		if next.Kind == term.Var {
			// Cycle guard: a variable chain that returns to itself is
			// treated as unbound at the point of reentry.
			seen := map[string]bool{t.Value: true}
			for next.Kind == term.Var {
				if seen[next.Value] {
					return next
				}
				seen[next.Value] = true
				n2, ok := s[next.Value]
				if !ok {
					return next
				}
				next = n2
			}
		}
		t = next
	}
	return t
}

// Apply substitutes s through t, rebuilding only where something changed.
// Open lists whose tail resolves to a list are closed; tails resolving to
// another open list are spliced.
func Apply(t *term.Term, s Subst) *term.Term {
	if len(s) == 0 {
		return t
	}
	switch t.Kind {
	case term.Var:
		r := resolve(t, s)
		if r == t {
			return t
		}
		if r.Kind == term.Var {
			return r
		}
		return Apply(r, s)
	case term.List:
		elems, changed := applyElems(t.Elems, s)
		if !changed {
			return t
		}
		return term.NewList(elems)
	case term.OpenList:
		elems, changed := applyElems(t.Elems, s)
		tail := resolve(term.NewVar(t.Value), s)
		switch {
		case tail.Kind == term.Var:
			if !changed && tail.Value == t.Value {
				return t
			}
			return term.NewOpenList(elems, tail.Value)
		case tail.Kind == term.List:
			tail = Apply(tail, s)
			return term.NewList(append(append([]*term.Term(nil), elems...), tail.Elems...))
		case tail.Kind == term.OpenList:
			tail = Apply(tail, s)
			joined := append(append([]*term.Term(nil), elems...), tail.Elems...)
			return term.NewOpenList(joined, tail.Value)
		default:
			// A non-list tail should not unify in the first place; keep it
			// visible rather than hiding the malformed state.
			return term.NewOpenList(elems, t.Value)
		}
	case term.Graph:
		triples := make([]*term.Triple, len(t.Triples))
		changed := false
		for i, tr := range t.Triples {
			nt := ApplyTriple(tr, s)
			if nt != tr {
				changed = true
			}
			triples[i] = nt
		}
		if !changed {
			return t
		}
		return term.NewGraph(triples)
	default:
		return t
	}
}

func applyElems(elems []*term.Term, s Subst) ([]*term.Term, bool) {
	changed := false
	out := make([]*term.Term, len(elems))
	for i, e := range elems {
		out[i] = Apply(e, s)
		if out[i] != e {
			changed = true
		}
	}
	return out, changed
}

func ApplyTriple(tr *term.Triple, s Subst) *term.Triple {
	ns, np, no := Apply(tr.S, s), Apply(tr.P, s), Apply(tr.O, s)
	if ns == tr.S && np == tr.P && no == tr.O {
		return tr
	}
	return term.NewTriple(ns, np, no)
}

func ApplyTriples(trs []*term.Triple, s Subst) []*term.Triple {
	out := make([]*term.Triple, len(trs))
	for i, tr := range trs {
		out[i] = ApplyTriple(tr, s)
	}
	return out
}

// Merge combines two substitutions. If both bind the same variable to
// non-equal terms the merge fails.
func Merge(a, b Subst) (Subst, bool) {
	if len(b) == 0 {
		return a, true
	}
	if len(a) == 0 {
		return b, true
	}
	out := a.Clone()
	for k, v := range b {
		if have, ok := out[k]; ok {
			if !term.Equal(Apply(have, out), Apply(v, out)) {
				return nil, false
			}
			continue
		}
		out[k] = v
	}
	return out, true
}

// Compact discards bindings not transitively referenced by the remaining
// goals or the answer variables. Run when search depth or substitution size
// crosses the prover's thresholds; prevents quadratic copying on deep
// chains.
func Compact(s Subst, goals []*term.Triple, answer map[string]bool) Subst {
	needed := map[string]bool{}
	for v := range answer {
		needed[v] = true
	}
	for _, g := range goals {
		g.Vars(needed)
	}
	// Transitive closure over the bindings' own free variables.
	queue := make([]string, 0, len(needed))
	for v := range needed {
		queue = append(queue, v)
	}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		bound, ok := s[v]
		if !ok {
			continue
		}
		more := map[string]bool{}
		bound.Vars(more)
		for m := range more {
			if !needed[m] {
				needed[m] = true
				queue = append(queue, m)
			}
		}
	}
	out := make(Subst, len(needed))
	for v := range needed {
		if t, ok := s[v]; ok {
			out[v] = t
		}
	}
	return out
}
