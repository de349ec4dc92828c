package store

import (
	"notation3/internal/term"
)

// RuleIndex keys backward rules by the predicate of their head triple. Only
// single-triple heads are indexed by predicate; multi-triple or non-IRI
// heads land in the wild list and are tried against every goal. The index is
// appendable during forward chaining because log:implies conclusions can
// introduce new rules.
type RuleIndex struct {
	All        []*term.Rule
	byHeadPred map[string][]*term.Rule
	wildHead   []*term.Rule
}

func NewRuleIndex() *RuleIndex {
	return &RuleIndex{byHeadPred: map[string][]*term.Rule{}}
}

func (ri *RuleIndex) Add(r *term.Rule) {
	ri.All = append(ri.All, r)
	if len(r.Conclusion) == 1 && r.Conclusion[0].P.Kind == term.IRI {
		p := r.Conclusion[0].P.Value
		ri.byHeadPred[p] = append(ri.byHeadPred[p], r)
		return
	}
	ri.wildHead = append(ri.wildHead, r)
}

// Candidates returns the rules whose head could match a goal with the given
// predicate. A non-IRI goal predicate matches everything.
func (ri *RuleIndex) Candidates(p *term.Term) []*term.Rule {
	if p.Kind != term.IRI {
		return ri.All
	}
	keyed := ri.byHeadPred[p.Value]
	if len(ri.wildHead) == 0 {
		return keyed
	}
	out := make([]*term.Rule, 0, len(keyed)+len(ri.wildHead))
	out = append(out, keyed...)
	out = append(out, ri.wildHead...)
	return out
}

// Contains reports whether an alpha-equivalent rule is already indexed, so
// that rule-producing triples do not register duplicates.
func (ri *RuleIndex) Contains(r *term.Rule) bool {
	for _, have := range ri.All {
		if have.IsForward == r.IsForward &&
			term.AlphaEqualGraphs(have.Premise, r.Premise) &&
			term.AlphaEqualGraphs(have.Conclusion, r.Conclusion) {
			return true
		}
	}
	return false
}
