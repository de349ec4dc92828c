// Package store holds the fact base and its overlay indexes, the backward
// rule index, and the RDF-list materialization cache. Only the forward
// chainer mutates a store; the prover reads it.
package store

import (
	"notation3/internal/term"
)

// FactStore is an ordered multiset of ground triples with semantic-duplicate
// elimination and three overlay indexes keyed by predicate IRI:
//
//	byPred: predicate -> triples
//	byPS:   predicate -> subject fast key -> triples
//	byPO:   predicate -> object fast key -> triples
//
// keySet holds "S\tP\tO" fast keys for O(1) duplicate checks when all three
// positions are indexable. Level tags saturation snapshots; a store made by
// New keeps level 0.
type FactStore struct {
	Facts  []*term.Triple
	Level  int
	byPred map[string][]*term.Triple
	byPS   map[string]map[string][]*term.Triple
	byPO   map[string]map[string][]*term.Triple
	keySet map[string]struct{}

	lists *listCache
}

func New() *FactStore {
	return &FactStore{
		byPred: map[string][]*term.Triple{},
		byPS:   map[string]map[string][]*term.Triple{},
		byPO:   map[string]map[string][]*term.Triple{},
		keySet: map[string]struct{}{},
	}
}

// Add appends t unless a structural equivalent is already present. Returns
// whether the triple was new.
func (fs *FactStore) Add(t *term.Triple) bool {
	if fs.Has(t) {
		return false
	}
	fs.index(t)
	return true
}

func (fs *FactStore) index(t *term.Triple) {
	fs.Facts = append(fs.Facts, t)
	if t.P.Kind == term.IRI {
		p := t.P.Value
		fs.byPred[p] = append(fs.byPred[p], t)
		if sk, ok := term.FastKey(t.S); ok {
			m := fs.byPS[p]
			if m == nil {
				m = map[string][]*term.Triple{}
				fs.byPS[p] = m
			}
			m[sk] = append(m[sk], t)
		}
		if ok, okk := term.FastKey(t.O); okk {
			m := fs.byPO[p]
			if m == nil {
				m = map[string][]*term.Triple{}
				fs.byPO[p] = m
			}
			m[ok] = append(m[ok], t)
		}
	} else {
		fs.byPred[""] = append(fs.byPred[""], t)
	}
	if k, ok := term.TripleKey(t); ok {
		fs.keySet[k] = struct{}{}
	}
	fs.lists = nil
}

// Has reports whether a structural equivalent of t is indexed. It never
// collapses blanks by renaming: _:a and _:b are distinct existentials.
func (fs *FactStore) Has(t *term.Triple) bool {
	if k, ok := term.TripleKey(t); ok {
		_, hit := fs.keySet[k]
		return hit
	}
	var bucket []*term.Triple
	if t.P.Kind == term.IRI {
		if ok, okk := term.FastKey(t.O); okk {
			if m := fs.byPO[t.P.Value]; m != nil {
				bucket = m[ok]
			}
		} else {
			bucket = fs.byPred[t.P.Value]
		}
	} else {
		bucket = fs.byPred[""]
	}
	for _, f := range bucket {
		if term.TripleEqual(t, f) {
			return true
		}
	}
	return false
}

// Candidates returns the facts worth trying against a goal. A goal with an
// IRI predicate uses whichever of byPS/byPO is indexable for the goal's
// substituted subject/object; when both are, the smaller bucket wins. Other
// predicates scan the non-IRI bucket plus everything (the goal predicate may
// be a variable).
func (fs *FactStore) Candidates(g *term.Triple) []*term.Triple {
	if g.P.Kind != term.IRI {
		return fs.Facts
	}
	p := g.P.Value
	sk, sOK := term.FastKey(g.S)
	ok, oOK := term.FastKey(g.O)
	var bs, bo []*term.Triple
	if sOK {
		if m := fs.byPS[p]; m != nil {
			bs = m[sk]
		} else {
			bs = nil
		}
	}
	if oOK {
		if m := fs.byPO[p]; m != nil {
			bo = m[ok]
		} else {
			bo = nil
		}
	}
	switch {
	case sOK && oOK:
		if len(bs) <= len(bo) {
			return bs
		}
		return bo
	case sOK:
		return bs
	case oOK:
		return bo
	}
	return fs.byPred[p]
}

// ByPredicate returns the bucket for an IRI predicate.
func (fs *FactStore) ByPredicate(p string) []*term.Triple {
	return fs.byPred[p]
}

// Snapshot produces a frozen copy with its own indexes, tagged with the
// given scoped-closure level. Triples are immutable and shared; the slices
// and maps are copied.
func (fs *FactStore) Snapshot(level int) *FactStore {
	cp := New()
	cp.Level = level
	cp.Facts = append([]*term.Triple(nil), fs.Facts...)
	for p, b := range fs.byPred {
		cp.byPred[p] = append([]*term.Triple(nil), b...)
	}
	for p, m := range fs.byPS {
		mm := make(map[string][]*term.Triple, len(m))
		for k, b := range m {
			mm[k] = append([]*term.Triple(nil), b...)
		}
		cp.byPS[p] = mm
	}
	for p, m := range fs.byPO {
		mm := make(map[string][]*term.Triple, len(m))
		for k, b := range m {
			mm[k] = append([]*term.Triple(nil), b...)
		}
		cp.byPO[p] = mm
	}
	for k := range fs.keySet {
		cp.keySet[k] = struct{}{}
	}
	return cp
}

// Size is the number of distinct facts.
func (fs *FactStore) Size() int { return len(fs.Facts) }
