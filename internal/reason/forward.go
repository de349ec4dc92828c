package reason

import (
	"hash/fnv"
	"strconv"
	"strings"

	"notation3/internal/term"
)

// Forward chaining: phase-gated saturation. Each outer iteration saturates
// the rule base to a fixed point, then freezes a snapshot and bumps the
// scoped-closure level so the scoped meta builtins can reflect on it. The
// loop ends when a whole pass changes nothing and the level has reached the
// highest priority any rule asks for.

func (e *Engine) saturate() error {
	for {
		changed, err := e.fixpoint()
		if err != nil {
			return err
		}
		if !changed && e.level >= e.maxRequestedPriority() {
			return nil
		}
		if e.cfg.MaxLevel > 0 && e.level >= e.cfg.MaxLevel {
			log.Infof("max closure level %d reached, stopping", e.cfg.MaxLevel)
			return nil
		}
		e.level++
		e.snapshot = e.facts.Snapshot(e.level)
		log.Debugf("scoped closure level %d (%d facts)", e.level, e.facts.Size())
	}
}

// fixpoint runs rounds over the forward rules until a round derives
// nothing. The rule slice may grow mid-round when rule-producing triples
// fire; new rules join the iteration immediately.
func (e *Engine) fixpoint() (bool, error) {
	any := false
	for {
		round := false
		for i := 0; i < len(e.fwd); i++ {
			fired, err := e.applyForwardRule(e.fwd[i])
			if err != nil {
				return any, err
			}
			round = round || fired
		}
		if !round {
			return any, nil
		}
		any = true
	}
}

func (e *Engine) applyForwardRule(r *term.Rule) (bool, error) {
	// No-op short-circuit: a strictly ground head already fully known
	// cannot contribute anything. Fuses have no head and always run.
	if !r.IsFuse && headStrictlyGround(r) && e.allKnown(r.Conclusion) {
		return false, nil
	}

	inst := e.standardizeApart(r)
	sols := e.prove(inst.Premise, Subst{}, 0, proveOpts{deferBuiltins: true})
	if len(sols) == 0 {
		return false, nil
	}
	if r.IsFuse {
		return false, &FuseError{Rule: r, Premise: ApplyTriples(inst.Premise, sols[0])}
	}

	changed := false
	for _, sol := range sols {
		premise := ApplyTriples(inst.Premise, sol)
		key := firingKey(r.ID, premise)
		skolems := e.headSkolems(key, r.HeadBlanks)
		for _, head := range inst.Conclusion {
			t := ApplyTriple(head, sol)
			t = skolemizeTriple(t, skolems)
			if e.assertDerived(t, r, premise, sol) {
				changed = true
			}
		}
	}
	return changed, nil
}

func headStrictlyGround(r *term.Rule) bool {
	for _, t := range r.Conclusion {
		if !t.StrictlyGround() {
			return false
		}
	}
	return true
}

func (e *Engine) allKnown(ts []*term.Triple) bool {
	for _, t := range ts {
		if !e.facts.Has(t) {
			return false
		}
	}
	return true
}

// firingKey hashes a rule id and its instantiated body, with residual
// variable names canonicalized by order of appearance so renaming between
// outer iterations cannot change the key.
func firingKey(ruleID int, premise []*term.Triple) string {
	names := map[string]string{}
	h := fnv.New64a()
	h.Write([]byte(strconv.Itoa(ruleID)))
	for _, t := range premise {
		h.Write([]byte(canonicalString(t, names)))
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

func canonicalString(t *term.Triple, names map[string]string) string {
	var b strings.Builder
	canonicalTerm(t.S, names, &b)
	b.WriteByte(' ')
	canonicalTerm(t.P, names, &b)
	b.WriteByte(' ')
	canonicalTerm(t.O, names, &b)
	b.WriteByte('.')
	return b.String()
}

func canonicalTerm(t *term.Term, names map[string]string, b *strings.Builder) {
	switch t.Kind {
	case term.Var:
		n, ok := names[t.Value]
		if !ok {
			n = "?" + strconv.Itoa(len(names))
			names[t.Value] = n
		}
		b.WriteString(n)
	case term.List, term.OpenList:
		b.WriteByte('(')
		for _, el := range t.Elems {
			canonicalTerm(el, names, b)
			b.WriteByte(' ')
		}
		if t.Kind == term.OpenList {
			b.WriteByte('|')
			canonicalTerm(term.NewVar(t.Value), names, b)
		}
		b.WriteByte(')')
	case term.Graph:
		b.WriteByte('{')
		for _, tr := range t.Triples {
			b.WriteString(canonicalString(tr, names))
		}
		b.WriteByte('}')
	default:
		b.WriteString(t.String())
	}
}

// headSkolems resolves the blank labels a firing introduces. The
// (firing key, label) pair is cached so the same firing reuses its labels
// on every later iteration of the outer loop.
func (e *Engine) headSkolems(key string, labels map[string]bool) map[string]string {
	if len(labels) == 0 {
		return nil
	}
	out := make(map[string]string, len(labels))
	for label := range labels {
		cacheKey := key + "\x00" + label
		sk, ok := e.firingSkolems[cacheKey]
		if !ok {
			sk = e.skolem.nextLabel()
			e.firingSkolems[cacheKey] = sk
		}
		out[label] = sk
	}
	return out
}

func skolemizeTriple(t *term.Triple, skolems map[string]string) *term.Triple {
	if len(skolems) == 0 {
		return t
	}
	return term.NewTriple(skolemizeTerm(t.S, skolems), skolemizeTerm(t.P, skolems), skolemizeTerm(t.O, skolems))
}

func skolemizeTerm(t *term.Term, skolems map[string]string) *term.Term {
	switch t.Kind {
	case term.Blank:
		if sk, ok := skolems[t.Value]; ok {
			return term.NewBlank(sk)
		}
		return t
	case term.List, term.OpenList:
		elems := make([]*term.Term, len(t.Elems))
		for i, el := range t.Elems {
			elems[i] = skolemizeTerm(el, skolems)
		}
		if t.Kind == term.OpenList {
			return term.NewOpenList(elems, t.Value)
		}
		return term.NewList(elems)
	case term.Graph:
		triples := make([]*term.Triple, len(t.Triples))
		for i, tr := range t.Triples {
			triples[i] = skolemizeTriple(tr, skolems)
		}
		return term.NewGraph(triples)
	default:
		return t
	}
}

// assertDerived files one head triple: rule-producing triples register new
// rules besides becoming facts; ordinary ground triples are appended with a
// derivation record. Non-ground results are dropped.
func (e *Engine) assertDerived(t *term.Triple, r *term.Rule, premise []*term.Triple, sol Subst) bool {
	if newRule, ok := ruleFromTriple(t); ok {
		changed := false
		if t.Ground() && e.facts.Add(t) {
			changed = true
		}
		if !e.hasRule(newRule) {
			e.addRule(newRule)
			changed = true
		}
		return changed
	}
	if !t.Ground() {
		return false
	}
	if !e.facts.Add(t) {
		return false
	}
	e.derivations = append(e.derivations, &Derivation{Fact: t, Rule: r, Premise: premise, Binding: sol})
	return true
}

// ruleFromTriple recognizes {A} => {B}, {A} <= {B}, and either with `true`
// standing in for the empty formula, plus {A} => false fuses.
func ruleFromTriple(t *term.Triple) (*term.Rule, bool) {
	if t.P.Kind != term.IRI {
		return nil, false
	}
	switch t.P.Value {
	case term.LogImplies:
		premise, ok := formulaTriples(t.S)
		if !ok {
			return nil, false
		}
		if isFalse(t.O) {
			return &term.Rule{Premise: premise, IsForward: true, IsFuse: true, HeadBlanks: map[string]bool{}}, true
		}
		conclusion, ok := formulaTriples(t.O)
		if !ok {
			return nil, false
		}
		return &term.Rule{
			Premise:    premise,
			Conclusion: conclusion,
			IsForward:  true,
			HeadBlanks: collectHeadBlanks(premise, conclusion),
		}, true
	case term.LogImpliedBy:
		head, ok := formulaTriples(t.S)
		if !ok {
			return nil, false
		}
		body, ok := formulaTriples(t.O)
		if !ok {
			return nil, false
		}
		return &term.Rule{
			Premise:    body,
			Conclusion: head,
			HeadBlanks: collectHeadBlanks(body, head),
		}, true
	}
	return nil, false
}

// formulaTriples accepts a quoted formula, or any literal that
// term.BooleanValue reads as true, which stands for the empty formula.
func formulaTriples(t *term.Term) ([]*term.Triple, bool) {
	if t.Kind == term.Graph {
		return t.Triples, true
	}
	if isTrue(t) {
		return nil, true
	}
	return nil, false
}

func isTrue(t *term.Term) bool {
	if v, ok := term.BooleanValue(t); ok {
		return v
	}
	return false
}

func isFalse(t *term.Term) bool {
	if v, ok := term.BooleanValue(t); ok {
		return !v
	}
	return false
}

// collectHeadBlanks re-collects the existentials of a dynamically produced
// rule: blanks that occur in the head but not in the body.
func collectHeadBlanks(body, head []*term.Triple) map[string]bool {
	inBody := map[string]bool{}
	for _, t := range body {
		t.S.Blanks(inBody)
		t.P.Blanks(inBody)
		t.O.Blanks(inBody)
	}
	out := map[string]bool{}
	inHead := map[string]bool{}
	for _, t := range head {
		t.S.Blanks(inHead)
		t.P.Blanks(inHead)
		t.O.Blanks(inHead)
	}
	for label := range inHead {
		if !inBody[label] {
			out[label] = true
		}
	}
	return out
}

func (e *Engine) hasRule(r *term.Rule) bool {
	if !r.IsForward {
		return e.bwd.Contains(r)
	}
	for _, have := range e.fwd {
		if have.IsFuse == r.IsFuse &&
			term.AlphaEqualGraphs(have.Premise, r.Premise) &&
			term.AlphaEqualGraphs(have.Conclusion, r.Conclusion) {
			return true
		}
	}
	return false
}

// maxRequestedPriority scans the live rule base for scoped meta builtins
// whose scope argument is a positive integer literal. Recomputed per outer
// iteration because rules can appear dynamically.
func (e *Engine) maxRequestedPriority() int {
	max := 1
	scan := func(ts []*term.Triple) {
		for _, t := range ts {
			if p := scopedPriority(t); p > max {
				max = p
			}
		}
	}
	for _, r := range e.fwd {
		scan(r.Premise)
	}
	for _, r := range e.bwd.All {
		scan(r.Premise)
	}
	return max
}

func scopedPriority(t *term.Triple) int {
	if t.P.Kind != term.IRI {
		return 0
	}
	var scope *term.Term
	switch t.P.Value {
	case term.NSLog + "includes", term.NSLog + "notIncludes":
		scope = t.S
	case term.NSLog + "collectAllIn", term.NSLog + "forAllIn":
		scope = t.O
	default:
		return 0
	}
	n, ok := term.NumericValue(scope)
	if !ok || n.Rank != term.RankInteger || !n.Int.IsInt64() {
		return 0
	}
	if v := n.Int.Int64(); v >= 1 {
		return int(v)
	}
	return 0
}
