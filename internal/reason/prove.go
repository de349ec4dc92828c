package reason

import (
	"notation3/internal/store"
	"notation3/internal/term"
)

// The backward prover: an iterative depth-first search over proof states.
// Alternatives are pushed onto an explicit stack and explored LIFO, so the
// first alternative generated is the first one tried. Builtins return lists
// of delta substitutions rather than suspending, which keeps the deferral
// and cycle guards visible in one place.

const (
	compactDepth    = 128
	compactBindings = 256
)

type proveOpts struct {
	facts *store.FactStore
	rules *store.RuleIndex
	// maxResults short-circuits the search once that many proofs exist;
	// zero means unbounded.
	maxResults int
	// deferBuiltins enables rotate-to-end retries for failed builtins with
	// unbound inputs. Only forward-rule bodies turn this on.
	deferBuiltins bool
}

type proveState struct {
	goals      []*term.Triple
	s          Subst
	depth      int
	visited    map[string]bool
	canDefer   bool
	deferCount int
}

// prove returns the substitutions under which all goals hold, up to
// opts.maxResults.
func (e *Engine) prove(goals []*term.Triple, s Subst, depth int, opts proveOpts) []Subst {
	if opts.facts == nil {
		opts.facts = e.facts
	}
	if opts.rules == nil {
		opts.rules = e.bwd
	}
	answer := map[string]bool{}
	for _, g := range goals {
		g.Vars(answer)
	}

	var results []Subst
	stack := []*proveState{{
		goals:    goals,
		s:        s,
		depth:    depth,
		canDefer: opts.deferBuiltins,
	}}

	for len(stack) > 0 {
		if opts.maxResults > 0 && len(results) >= opts.maxResults {
			break
		}
		st := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if len(st.goals) == 0 {
			results = append(results, st.s)
			continue
		}
		if st.depth > compactDepth || len(st.s) > compactBindings {
			st.s = Compact(st.s, st.goals, answer)
		}

		g := ApplyTriple(st.goals[0], st.s)
		rest := st.goals[1:]

		if name, ok := e.builtinFor(g); ok {
			stack = e.stepBuiltin(stack, st, g, rest, name, opts)
			continue
		}

		// Goal keys canonicalize variable names so standardized-apart
		// recursion through the same goal shape is pruned.
		key := canonicalString(g, map[string]string{})
		if st.visited[key] {
			continue
		}

		// Backward rules are pushed before facts so that facts, pushed
		// last, are popped first.
		stack = e.stepRules(stack, st, g, rest, key, opts)
		stack = e.stepFacts(stack, st, g, rest, opts)
	}
	return results
}

// stepFacts pushes one continuation per candidate fact that unifies with the
// goal. Unification runs against an empty substitution (the goal is already
// substituted) and the delta is merged with the ambient one. Predicates
// unify first; they are the most selective position.
func (e *Engine) stepFacts(stack []*proveState, st *proveState, g *term.Triple, rest []*term.Triple, opts proveOpts) []*proveState {
	cands := opts.facts.Candidates(g)
	// Reverse push order so the first candidate is on top of the stack.
	for i := len(cands) - 1; i >= 0; i-- {
		f := cands[i]
		d, ok := Unify(g.P, f.P, Subst{})
		if !ok {
			continue
		}
		d, ok = unify(g.S, f.S, d, defaultMode)
		if !ok {
			continue
		}
		d, ok = unify(g.O, f.O, d, defaultMode)
		if !ok {
			continue
		}
		merged, ok := Merge(st.s, d)
		if !ok {
			continue
		}
		stack = append(stack, &proveState{
			goals:    rest,
			s:        merged,
			depth:    st.depth + 1,
			visited:  st.visited,
			canDefer: st.canDefer,
		})
	}
	return stack
}

// stepRules pushes one continuation per backward rule whose head unifies
// with the goal: the standardized-apart body is prepended to the remaining
// goals, the goal is marked visited on that path, and builtin deferral is
// switched off inside the body to preserve the programmer's left-to-right
// evaluation order.
func (e *Engine) stepRules(stack []*proveState, st *proveState, g *term.Triple, rest []*term.Triple, key string, opts proveOpts) []*proveState {
	rules := opts.rules.Candidates(g.P)
	for i := len(rules) - 1; i >= 0; i-- {
		r := e.standardizeApart(rules[i])
		for _, head := range r.Conclusion {
			d, ok := Unify(g.P, head.P, Subst{})
			if !ok {
				continue
			}
			d, ok = unify(g.S, head.S, d, defaultMode)
			if !ok {
				continue
			}
			d, ok = unify(g.O, head.O, d, defaultMode)
			if !ok {
				continue
			}
			merged, ok := Merge(st.s, d)
			if !ok {
				continue
			}
			visited := map[string]bool{key: true}
			for k := range st.visited {
				visited[k] = true
			}
			goals := make([]*term.Triple, 0, len(r.Premise)+len(rest))
			goals = append(goals, ApplyTriples(r.Premise, merged)...)
			goals = append(goals, rest...)
			stack = append(stack, &proveState{
				goals:   goals,
				s:       merged,
				depth:   st.depth + 1,
				visited: visited,
			})
		}
	}
	return stack
}

// stepBuiltin evaluates a builtin goal. With solutions, each delta extends
// the ambient substitution. Without solutions the goal may be rotated to the
// end of the conjunction and retried once more information is bound —
// bounded by the conjunction length and enabled only in forward-rule bodies.
// A functional math relation that stays fully unbound after a full rotation
// counts as satisfied once with no bindings.
func (e *Engine) stepBuiltin(stack []*proveState, st *proveState, g *term.Triple, rest []*term.Triple, name string, opts proveOpts) []*proveState {
	ctx := &builtinCtx{
		engine:     e,
		s:          st.s,
		facts:      opts.facts,
		rules:      opts.rules,
		depth:      st.depth,
		maxResults: opts.maxResults,
	}
	deltas := e.evalBuiltin(name, g, ctx)
	if len(deltas) > 0 {
		for i := len(deltas) - 1; i >= 0; i-- {
			merged, ok := Merge(st.s, deltas[i])
			if !ok {
				continue
			}
			stack = append(stack, &proveState{
				goals:    rest,
				s:        merged,
				depth:    st.depth + 1,
				visited:  st.visited,
				canDefer: st.canDefer,
			})
		}
		return stack
	}

	unboundVars := map[string]bool{}
	g.Vars(unboundVars)
	if len(unboundVars) > 0 && len(rest) > 0 && st.canDefer && st.deferCount < len(st.goals) {
		rotated := make([]*term.Triple, 0, len(st.goals))
		rotated = append(rotated, rest...)
		rotated = append(rotated, g)
		stack = append(stack, &proveState{
			goals:      rotated,
			s:          st.s,
			depth:      st.depth,
			visited:    st.visited,
			canDefer:   true,
			deferCount: st.deferCount + 1,
		})
		return stack
	}
	// The vacuous-success fallback is the tail of the deferral mechanism:
	// it only applies where rotation was allowed in the first place.
	if st.canDefer && fullyUnbound(g) && isFunctionalMath(name) {
		stack = append(stack, &proveState{
			goals:    rest,
			s:        st.s,
			depth:    st.depth + 1,
			visited:  st.visited,
			canDefer: st.canDefer,
		})
	}
	return stack
}

func fullyUnbound(g *term.Triple) bool {
	return g.S.Kind == term.Var && g.O.Kind == term.Var
}

// standardizeApart renames every variable in the rule to a fresh name so
// distinct firings never share bindings. Blank nodes are not renamed, in the
// body or the head; head blanks are the rule's existentials.
func (e *Engine) standardizeApart(r *term.Rule) *term.Rule {
	vars := map[string]bool{}
	for _, t := range r.Premise {
		t.Vars(vars)
	}
	for _, t := range r.Conclusion {
		t.Vars(vars)
	}
	if len(vars) == 0 {
		return r
	}
	ren := make(Subst, len(vars))
	for v := range vars {
		ren[v] = term.NewVar(e.freshVar(v))
	}
	return &term.Rule{
		ID:         r.ID,
		Premise:    ApplyTriples(r.Premise, ren),
		Conclusion: ApplyTriples(r.Conclusion, ren),
		IsForward:  r.IsForward,
		IsFuse:     r.IsFuse,
		HeadBlanks: r.HeadBlanks,
	}
}
