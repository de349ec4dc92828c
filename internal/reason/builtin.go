package reason

import (
	"strings"

	"notation3/internal/store"
	"notation3/internal/term"
)

// Builtin evaluation. Every builtin receives the substituted goal and
// returns a (possibly empty) list of delta substitutions over the goal's
// variables. Failure is an empty list, never an error: type-domain failures
// are ordinary control flow.

type builtinCtx struct {
	engine     *Engine
	s          Subst
	facts      *store.FactStore
	rules      *store.RuleIndex
	depth      int
	maxResults int
}

type builtinFunc func(g *term.Triple, ctx *builtinCtx) []Subst

var builtinTable map[string]builtinFunc

func init() {
	builtinTable = map[string]builtinFunc{}
	registerCryptoBuiltins()
	registerMathBuiltins()
	registerTimeBuiltins()
	registerListBuiltins()
	registerStringBuiltins()
	registerLogBuiltins()
}

func register(iri string, fn builtinFunc) {
	builtinTable[iri] = fn
}

// builtinFor decides whether the goal is evaluated as a builtin. rdf:first
// and rdf:rest count only when the subject is an explicit list term;
// otherwise they are ordinary predicates matched against facts. Super-
// restricted mode keeps only log:implies and log:impliedBy.
func (e *Engine) builtinFor(g *term.Triple) (string, bool) {
	if g.P.Kind != term.IRI {
		return "", false
	}
	iri := g.P.Value
	if !inBuiltinNamespace(iri) {
		return "", false
	}
	if (iri == term.RDFFirst || iri == term.RDFRest) && g.S.Kind != term.List {
		return "", false
	}
	if e.cfg.SuperRestricted && iri != term.LogImplies && iri != term.LogImpliedBy {
		return "", false
	}
	if _, ok := builtinTable[iri]; !ok {
		return "", false
	}
	return iri, true
}

func inBuiltinNamespace(iri string) bool {
	for _, ns := range []string{
		term.NSCrypto, term.NSMath, term.NSTime,
		term.NSList, term.NSLog, term.NSString,
	} {
		if strings.HasPrefix(iri, ns) {
			return true
		}
	}
	return iri == term.RDFFirst || iri == term.RDFRest
}

func (e *Engine) evalBuiltin(name string, g *term.Triple, ctx *builtinCtx) []Subst {
	fn := builtinTable[name]
	if fn == nil {
		return nil
	}
	return fn(g, ctx)
}

// isFunctionalMath marks the total numeric relations the prover may treat as
// vacuously satisfiable when they stay fully unbound after a full rotation.
var functionalMath = map[string]bool{
	term.NSMath + "absoluteValue": true,
	term.NSMath + "acos":          true,
	term.NSMath + "asin":          true,
	term.NSMath + "atan":          true,
	term.NSMath + "cos":           true,
	term.NSMath + "cosh":          true,
	term.NSMath + "degrees":       true,
	term.NSMath + "negation":      true,
	term.NSMath + "rounded":       true,
	term.NSMath + "sin":           true,
	term.NSMath + "sinh":          true,
	term.NSMath + "tan":           true,
	term.NSMath + "tanh":          true,
}

func isFunctionalMath(name string) bool { return functionalMath[name] }

// asList resolves a term to a closed list: either an explicit list term or
// an IRI/blank that materializes through rdf:first/rdf:rest facts.
func asList(t *term.Term, ctx *builtinCtx) (*term.Term, bool) {
	if t.Kind == term.List {
		return t, true
	}
	return ctx.facts.MaterializeList(t)
}

// unifyOut binds the output slot of a builtin to a computed value. The slot
// may be anything unifiable: variable, literal, list with variables inside.
func unifyOut(slot, value *term.Term) ([]Subst, bool) {
	d, ok := Unify(slot, value, Subst{})
	if !ok {
		return nil, false
	}
	return []Subst{d}, true
}

// one wraps a single delta.
func one(d Subst) []Subst { return []Subst{d} }
