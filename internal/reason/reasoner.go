package reason

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/tliron/commonlog"

	"notation3/internal/store"
	"notation3/internal/term"
)

var log = commonlog.GetLogger("n3.reason")

// Config carries the per-run switches exposed by the CLI.
type Config struct {
	// DeterministicSkolem fixes the skolem salt so identical inputs mint
	// identical skolem IRIs across runs.
	DeterministicSkolem bool
	// EnforceHTTPS mirrors the CLI flag; the engine does not read it. The
	// dereferencer gets its own setting when it is constructed.
	EnforceHTTPS bool
	// ProofComments mirrors the CLI flag; the engine does not read it. The
	// CLI prints derivation explanations itself.
	ProofComments bool
	// SuperRestricted disables every builtin except log:implies and
	// log:impliedBy.
	SuperRestricted bool
	// FixedNow pins time:localTime to a lexical xsd:dateTime instead of the
	// wall clock.
	FixedNow string
	// MaxLevel caps the scoped-closure level the forward chainer will
	// compute; zero means no cap. Rules asking for higher priorities stay
	// unsatisfied instead of driving further saturation phases.
	MaxLevel int
}

// Dereferencer is the external collaborator behind log:content,
// log:semantics and friends.
type Dereferencer interface {
	DerefText(iri string) (string, error)
	DerefSemantics(iri string) (*term.Term, error)
	ParseSemantics(text, base string) (*term.Term, error)
	StripFragment(iri string) string
}

// Tracer receives log:trace lines as they are evaluated. The prefix
// environment is consulted for formatting trace output.
type Tracer interface {
	WriteTraceLine(line string)
	TracePrefixes() map[string]string
	SetTracePrefixes(prefixes map[string]string)
}

// FuseError reports a fired inference fuse ({...} => false). The caller is
// expected to print the diagnostic and exit with code 2.
type FuseError struct {
	Rule    *term.Rule
	Premise []*term.Triple
}

func (e *FuseError) Error() string {
	return fmt.Sprintf("inference fuse fired: %d premise triple(s) proved", len(e.Premise))
}

// Derivation records one derived fact with the rule that fired, the
// instantiated premise and the proof substitution, for explanations.
type Derivation struct {
	Fact    *term.Triple
	Rule    *term.Rule
	Premise []*term.Triple
	Binding Subst
}

type outputEntry struct {
	key  *term.Term
	text string
	seq  int
}

// Engine is one reasoning run over a fact and rule base. Engines are
// single-threaded; per-run state (skolem cache, salt, memoized now, scoped
// snapshots) lives here and dies with the run.
type Engine struct {
	cfg    Config
	facts  *store.FactStore
	bwd    *store.RuleIndex
	fwd    []*term.Rule
	deref  Dereferencer
	tracer Tracer

	varCounter  int
	ruleCounter int

	skolem *skolemManager
	// firingSkolems keys (firing key, head blank label) to the skolem label
	// minted for it, so refiring the same instantiation never invents new
	// blanks.
	firingSkolems map[string]string

	snapshot *store.FactStore
	level    int

	nowMemo string

	conclusionCache map[string][]*term.Triple

	outputs     []outputEntry
	outputSeen  map[string]bool
	traces      []string
	derivations []*Derivation
}

// New assembles an engine over parsed input. Rules get standardized ids;
// facts are deduplicated on the way in.
func New(cfg Config, facts []*term.Triple, rules []*term.Rule, deref Dereferencer, tracer Tracer) *Engine {
	e := &Engine{
		cfg:             cfg,
		facts:           store.New(),
		bwd:             store.NewRuleIndex(),
		deref:           deref,
		tracer:          tracer,
		firingSkolems:   map[string]string{},
		conclusionCache: map[string][]*term.Triple{},
		outputSeen:      map[string]bool{},
	}
	e.skolem = newSkolemManager(cfg.DeterministicSkolem)
	for _, f := range facts {
		e.facts.Add(f)
	}
	for _, r := range rules {
		e.addRule(r)
	}
	return e
}

func (e *Engine) addRule(r *term.Rule) {
	e.ruleCounter++
	r.ID = e.ruleCounter
	if r.IsForward {
		e.fwd = append(e.fwd, r)
		return
	}
	e.bwd.Add(r)
}

// freshVar mints a variable name unique within the run, used to standardize
// rules apart.
func (e *Engine) freshVar(base string) string {
	e.varCounter++
	return base + "_" + strconv.Itoa(e.varCounter)
}

// Result is the outcome of a completed run.
type Result struct {
	// Closure is the saturated fact store, input facts included, in
	// derivation order.
	Closure []*term.Triple
	// Derived lists the derivation records in emission order.
	Derived []*Derivation
	// Output is the concatenated log:outputString text, ordered by subject
	// key.
	Output string
	// Traces are the log:trace lines in evaluation order.
	Traces []string
}

// Run saturates the store to a fixed point and assembles the result. A
// fired fuse surfaces as *FuseError.
func (e *Engine) Run() (*Result, error) {
	if err := e.saturate(); err != nil {
		return nil, err
	}
	return &Result{
		Closure: e.facts.Facts,
		Derived: e.derivations,
		Output:  e.collectOutput(),
		Traces:  e.traces,
	}, nil
}

// Facts exposes the live store, mainly for tests.
func (e *Engine) Facts() *store.FactStore { return e.facts }

// collectOutput orders log:outputString fragments by subject key: numeric
// literals by value, then plain literals lexicographically, then IRIs, then
// blanks; insertion order breaks ties.
func (e *Engine) collectOutput() string {
	entries := append([]outputEntry(nil), e.outputs...)
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		ca, cb := outputClass(a.key), outputClass(b.key)
		if ca != cb {
			return ca < cb
		}
		switch ca {
		case 0:
			na, _ := term.NumericValue(a.key)
			nb, _ := term.NumericValue(b.key)
			if na.F != nb.F {
				return na.F < nb.F
			}
		case 1:
			la := term.LiteralLexical(a.key)
			lb := term.LiteralLexical(b.key)
			if la != lb {
				return la < lb
			}
		case 2, 3:
			if a.key.Value != b.key.Value {
				return a.key.Value < b.key.Value
			}
		}
		return a.seq < b.seq
	})
	var out []byte
	for _, en := range entries {
		out = append(out, en.text...)
	}
	return string(out)
}

func outputClass(t *term.Term) int {
	switch t.Kind {
	case term.Literal:
		if _, ok := term.NumericValue(t); ok {
			return 0
		}
		return 1
	case term.IRI:
		return 2
	case term.Blank:
		return 3
	}
	return 4
}
