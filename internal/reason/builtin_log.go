package reason

import (
	"notation3/internal/store"
	"notation3/internal/term"
	"notation3/internal/writer"
)

// log: identity, literal composition, reflection on formulas and rules,
// dereferencing, skolemization, and the scoped meta builtins.

func registerLogBuiltins() {
	register(term.NSLog+"equalTo", logEqualTo)
	register(term.NSLog+"notEqualTo", logNotEqualTo)
	register(term.NSLog+"conjunction", logConjunction)
	register(term.NSLog+"conclusion", logConclusion)
	register(term.NSLog+"content", logContent)
	register(term.NSLog+"semantics", logSemantics)
	register(term.NSLog+"semanticsOrError", logSemanticsOrError)
	register(term.NSLog+"parsedAsN3", logParsedAsN3)
	register(term.NSLog+"rawType", logRawType)
	register(term.NSLog+"dtlit", logDtlit)
	register(term.NSLog+"langlit", logLanglit)
	register(term.LogImplies, logImplies)
	register(term.LogImpliedBy, logImpliedBy)
	register(term.NSLog+"includes", logIncludes)
	register(term.NSLog+"notIncludes", logNotIncludes)
	register(term.NSLog+"collectAllIn", logCollectAllIn)
	register(term.NSLog+"forAllIn", logForAllIn)
	register(term.NSLog+"skolem", logSkolem)
	register(term.NSLog+"uri", logURI)
	register(term.NSLog+"trace", logTrace)
	register(term.NSLog+"outputString", logOutputString)
}

func logEqualTo(g *term.Triple, _ *builtinCtx) []Subst {
	d, ok := Unify(g.S, g.O, Subst{})
	if !ok {
		return nil
	}
	return one(d)
}

func logNotEqualTo(g *term.Triple, _ *builtinCtx) []Subst {
	if _, ok := Unify(g.S, g.O, Subst{}); ok {
		return nil
	}
	return one(Subst{})
}

// logConjunction unions a list of formulas into one, with structural and
// fast-key dedup. `true` stands for the empty formula.
func logConjunction(g *term.Triple, ctx *builtinCtx) []Subst {
	lst, ok := asList(g.S, ctx)
	if !ok {
		return nil
	}
	var union []*term.Triple
	seen := map[string]bool{}
	for _, f := range lst.Elems {
		triples, ok := formulaTriples(f)
		if !ok {
			return nil
		}
		for _, t := range triples {
			if k, ok := term.TripleKey(t); ok {
				if seen[k] {
					continue
				}
				seen[k] = true
			} else if containsTriple(union, t) {
				continue
			}
			union = append(union, t)
		}
	}
	out, ok := unifyOut(g.O, term.NewGraph(union))
	if !ok {
		return nil
	}
	return out
}

func containsTriple(ts []*term.Triple, t *term.Triple) bool {
	for _, have := range ts {
		if term.TripleEqual(have, t) {
			return true
		}
	}
	return false
}

// logConclusion computes the deductive closure of a formula treated as a
// local program: its => / <= triples become rules, the rest seed facts. The
// closure is cached per formula.
func logConclusion(g *term.Triple, ctx *builtinCtx) []Subst {
	if g.S.Kind != term.Graph {
		return nil
	}
	e := ctx.engine
	key := g.S.String()
	closure, hit := e.conclusionCache[key]
	if !hit {
		var facts []*term.Triple
		var rules []*term.Rule
		for _, t := range g.S.Triples {
			if r, ok := ruleFromTriple(t); ok {
				rules = append(rules, r)
				continue
			}
			facts = append(facts, t)
		}
		sub := New(e.cfg, facts, rules, e.deref, e.tracer)
		// Nested runs share the outer run's skolem state.
		sub.skolem = e.skolem
		res, err := sub.Run()
		if err != nil {
			return nil
		}
		closure = res.Closure
		e.conclusionCache[key] = closure
	}
	out, ok := unifyOut(g.O, term.NewGraph(closure))
	if !ok {
		return nil
	}
	return out
}

func logContent(g *term.Triple, ctx *builtinCtx) []Subst {
	if g.S.Kind != term.IRI || ctx.engine.deref == nil {
		return nil
	}
	text, err := ctx.engine.deref.DerefText(g.S.Value)
	if err != nil {
		return nil
	}
	out, ok := unifyOut(g.O, term.NewPlainLiteral(text))
	if !ok {
		return nil
	}
	return out
}

func logSemantics(g *term.Triple, ctx *builtinCtx) []Subst {
	f, ok := derefFormula(g.S, ctx)
	if !ok {
		return nil
	}
	out, ok := unifyOut(g.O, f)
	if !ok {
		return nil
	}
	return out
}

func logSemanticsOrError(g *term.Triple, ctx *builtinCtx) []Subst {
	e := ctx.engine
	if g.S.Kind != term.IRI || e.deref == nil {
		return nil
	}
	f, err := e.deref.DerefSemantics(g.S.Value)
	var value *term.Term
	if err != nil {
		value = term.NewPlainLiteral(err.Error())
	} else {
		value = term.NewGraph(e.standardizeFormula(f.Triples))
	}
	out, ok := unifyOut(g.O, value)
	if !ok {
		return nil
	}
	return out
}

func derefFormula(s *term.Term, ctx *builtinCtx) (*term.Term, bool) {
	e := ctx.engine
	if s.Kind != term.IRI || e.deref == nil {
		return nil, false
	}
	f, err := e.deref.DerefSemantics(s.Value)
	if err != nil || f == nil || f.Kind != term.Graph {
		return nil, false
	}
	return term.NewGraph(e.standardizeFormula(f.Triples)), true
}

func logParsedAsN3(g *term.Triple, ctx *builtinCtx) []Subst {
	e := ctx.engine
	text, ok := term.IsStringy(g.S)
	if !ok || e.deref == nil {
		return nil
	}
	f, err := e.deref.ParseSemantics(text, "")
	if err != nil || f == nil || f.Kind != term.Graph {
		return nil
	}
	out, ok := unifyOut(g.O, term.NewGraph(e.standardizeFormula(f.Triples)))
	if !ok {
		return nil
	}
	return out
}

// standardizeFormula renames the formula's variables to fresh names so a
// dereferenced or parsed formula cannot capture the caller's bindings.
func (e *Engine) standardizeFormula(ts []*term.Triple) []*term.Triple {
	vars := map[string]bool{}
	for _, t := range ts {
		t.Vars(vars)
	}
	if len(vars) == 0 {
		return ts
	}
	ren := make(Subst, len(vars))
	for v := range vars {
		ren[v] = term.NewVar(e.freshVar(v))
	}
	return ApplyTriples(ts, ren)
}

func logRawType(g *term.Triple, _ *builtinCtx) []Subst {
	var class string
	switch g.S.Kind {
	case term.Graph:
		class = term.NSLog + "Formula"
	case term.Literal:
		class = term.NSLog + "Literal"
	case term.List, term.OpenList:
		class = term.NSRDF + "List"
	default:
		class = term.NSLog + "Other"
	}
	out, ok := unifyOut(g.O, term.NewIRI(class))
	if !ok {
		return nil
	}
	return out
}

// logDtlit composes (lexical datatype) into a typed literal and decomposes
// one back.
func logDtlit(g *term.Triple, ctx *builtinCtx) []Subst {
	if pair, ok := asList(g.S, ctx); ok && len(pair.Elems) == 2 {
		lex, lexOK := term.IsStringy(pair.Elems[0])
		if lexOK && pair.Elems[1].Kind == term.IRI {
			out, ok := unifyOut(g.O, term.NewTypedLiteral(lex, pair.Elems[1].Value))
			if !ok {
				return nil
			}
			return out
		}
	}
	if g.O.Kind == term.Literal {
		lex, dt, _ := term.LiteralParts(g.O)
		if dt == "" {
			dt = term.XSDString
		}
		pair := term.NewList([]*term.Term{term.NewPlainLiteral(lex), term.NewIRI(dt)})
		out, ok := unifyOut(g.S, pair)
		if !ok {
			return nil
		}
		return out
	}
	return nil
}

func logLanglit(g *term.Triple, ctx *builtinCtx) []Subst {
	if pair, ok := asList(g.S, ctx); ok && len(pair.Elems) == 2 {
		lex, lexOK := term.IsStringy(pair.Elems[0])
		tag, tagOK := term.IsStringy(pair.Elems[1])
		if lexOK && tagOK && tag != "" {
			out, ok := unifyOut(g.O, term.NewLangLiteral(lex, tag))
			if !ok {
				return nil
			}
			return out
		}
	}
	if g.O.Kind == term.Literal {
		lex, _, lang := term.LiteralParts(g.O)
		if lang == "" {
			return nil
		}
		pair := term.NewList([]*term.Term{term.NewPlainLiteral(lex), term.NewPlainLiteral(lang)})
		out, ok := unifyOut(g.S, pair)
		if !ok {
			return nil
		}
		return out
	}
	return nil
}

// logImplies as a goal exposes the forward rules as standardized-apart
// (body, head) formula pairs.
func logImplies(g *term.Triple, ctx *builtinCtx) []Subst {
	e := ctx.engine
	var deltas []Subst
	for _, r := range e.fwd {
		if r.IsFuse {
			continue
		}
		deltas = appendRulePair(deltas, g, e, r.Premise, r.Conclusion)
	}
	return deltas
}

// logImpliedBy exposes the backward rules as (head, body) pairs.
func logImpliedBy(g *term.Triple, ctx *builtinCtx) []Subst {
	e := ctx.engine
	var deltas []Subst
	for _, r := range ctx.rules.All {
		deltas = appendRulePair(deltas, g, e, r.Conclusion, r.Premise)
	}
	return deltas
}

func appendRulePair(deltas []Subst, g *term.Triple, e *Engine, subj, obj []*term.Triple) []Subst {
	// One fresh renaming covers both halves so shared variables stay shared.
	vars := map[string]bool{}
	for _, t := range subj {
		t.Vars(vars)
	}
	for _, t := range obj {
		t.Vars(vars)
	}
	ren := make(Subst, len(vars))
	for v := range vars {
		ren[v] = term.NewVar(e.freshVar(v))
	}
	d, ok := Unify(g.S, term.NewGraph(ApplyTriples(subj, ren)), Subst{})
	if !ok {
		return deltas
	}
	d, ok = unify(g.O, term.NewGraph(ApplyTriples(obj, ren)), d, defaultMode)
	if !ok {
		return deltas
	}
	return append(deltas, d)
}

// resolveScope maps a scope selector to the facts and rules to prove
// against. A quoted graph is its own closed world with no outside rules. A
// positive integer N waits for a saturation snapshot of level >= N.
// Anything else means priority 1.
func resolveScope(scope *term.Term, ctx *builtinCtx) (*store.FactStore, *store.RuleIndex, bool) {
	e := ctx.engine
	if scope.Kind == term.Graph {
		fs := store.New()
		for _, t := range scope.Triples {
			fs.Add(t)
		}
		return fs, store.NewRuleIndex(), true
	}
	required := 1
	if n, ok := term.NumericValue(scope); ok && n.Rank == term.RankInteger && n.Int.IsInt64() && n.Int.Int64() >= 1 {
		required = int(n.Int.Int64())
	}
	if e.snapshot == nil || e.snapshot.Level < required {
		return nil, nil, false
	}
	return e.snapshot, e.bwd, true
}

// logIncludes proves the object formula's triples in the scope selected by
// the subject. `true` denotes the empty formula.
func logIncludes(g *term.Triple, ctx *builtinCtx) []Subst {
	goals, ok := formulaTriples(g.O)
	if !ok {
		return nil
	}
	if len(goals) == 0 {
		return one(Subst{})
	}
	facts, rules, ok := resolveScope(g.S, ctx)
	if !ok {
		return nil
	}
	return ctx.engine.prove(goals, Subst{}, ctx.depth+1, proveOpts{
		facts:      facts,
		rules:      rules,
		maxResults: ctx.maxResults,
	})
}

func logNotIncludes(g *term.Triple, ctx *builtinCtx) []Subst {
	goals, ok := formulaTriples(g.O)
	if !ok {
		return nil
	}
	if len(goals) == 0 {
		return nil
	}
	facts, rules, ok := resolveScope(g.S, ctx)
	if !ok {
		return nil
	}
	sols := ctx.engine.prove(goals, Subst{}, ctx.depth+1, proveOpts{
		facts:      facts,
		rules:      rules,
		maxResults: 1,
	})
	if len(sols) > 0 {
		return nil
	}
	return one(Subst{})
}

// logCollectAllIn: subject (template where result) with the scope in the
// object. Every proof of the where clause instantiates the template; the
// collected list unifies with the result slot, or matches anything when the
// result is a blank.
func logCollectAllIn(g *term.Triple, ctx *builtinCtx) []Subst {
	args, ok := asList(g.S, ctx)
	if !ok || len(args.Elems) != 3 {
		return nil
	}
	template, where, result := args.Elems[0], args.Elems[1], args.Elems[2]
	goals, ok := formulaTriples(where)
	if !ok {
		return nil
	}
	facts, rules, ok := resolveScope(g.O, ctx)
	if !ok {
		return nil
	}
	sols := ctx.engine.prove(goals, Subst{}, ctx.depth+1, proveOpts{facts: facts, rules: rules})
	values := make([]*term.Term, 0, len(sols))
	for _, sol := range sols {
		values = append(values, Apply(template, sol))
	}
	if result.Kind == term.Blank {
		return one(Subst{})
	}
	out, ok := unifyOut(result, term.NewList(values))
	if !ok {
		return nil
	}
	return out
}

// logForAllIn: universal quantification in a scope. Every proof of the
// where clause must extend to a proof of the then clause.
func logForAllIn(g *term.Triple, ctx *builtinCtx) []Subst {
	args, ok := asList(g.S, ctx)
	if !ok || len(args.Elems) != 2 {
		return nil
	}
	whereGoals, ok := formulaTriples(args.Elems[0])
	if !ok {
		return nil
	}
	thenGoals, ok := formulaTriples(args.Elems[1])
	if !ok {
		return nil
	}
	// An empty where-set quantifies over nothing and holds trivially.
	if len(whereGoals) == 0 {
		return one(Subst{})
	}
	facts, rules, ok := resolveScope(g.O, ctx)
	if !ok {
		return nil
	}
	e := ctx.engine
	witnesses := e.prove(whereGoals, Subst{}, ctx.depth+1, proveOpts{facts: facts, rules: rules})
	for _, w := range witnesses {
		proved := e.prove(ApplyTriples(thenGoals, w), Subst{}, ctx.depth+1, proveOpts{
			facts:      facts,
			rules:      rules,
			maxResults: 1,
		})
		if len(proved) == 0 {
			return nil
		}
	}
	return one(Subst{})
}

func logSkolem(g *term.Triple, ctx *builtinCtx) []Subst {
	if !g.S.Ground() {
		return nil
	}
	iri := ctx.engine.skolem.iriForTerm(g.S)
	out, ok := unifyOut(g.O, term.NewIRI(iri))
	if !ok {
		return nil
	}
	return out
}

func logURI(g *term.Triple, _ *builtinCtx) []Subst {
	if g.S.Kind == term.IRI {
		out, ok := unifyOut(g.O, term.NewPlainLiteral(g.S.Value))
		if !ok {
			return nil
		}
		return out
	}
	if s, ok := term.IsStringy(g.O); ok && g.S.Kind == term.Var {
		return one(Subst{g.S.Value: term.NewIRI(s)})
	}
	return nil
}

// logTrace emits a trace line as a side effect and succeeds when both
// arguments are concrete.
func logTrace(g *term.Triple, ctx *builtinCtx) []Subst {
	if !g.S.Ground() || !g.O.Ground() {
		return nil
	}
	e := ctx.engine
	line := g.S.String() + " " + g.O.String()
	if e.tracer != nil {
		w := writer.New(writer.Prefixes(e.tracer.TracePrefixes()))
		line = w.Term(g.S) + " " + w.Term(g.O)
		e.tracer.WriteTraceLine(line)
	}
	e.traces = append(e.traces, line)
	return one(Subst{})
}

// logOutputString queues text for run-end emission, keyed by the subject
// for ordering.
func logOutputString(g *term.Triple, ctx *builtinCtx) []Subst {
	text, ok := term.IsStringy(g.O)
	if !ok || !g.S.Ground() {
		return nil
	}
	e := ctx.engine
	dedup := g.S.String() + "\x00" + text
	if !e.outputSeen[dedup] {
		e.outputSeen[dedup] = true
		e.outputs = append(e.outputs, outputEntry{key: g.S, text: text, seq: len(e.outputs)})
	}
	return one(Subst{})
}
