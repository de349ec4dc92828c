package store

import (
	"notation3/internal/term"
)

// RDF-list materialization: builds a closed term.List from rdf:first /
// rdf:rest chains rooted at a node. The cache is attached lazily to a fact
// store and invalidated wholesale on mutation (Add clears it).

type listCache struct {
	byNode map[string]*term.Term // nil entry = known failure
}

// MaterializeList resolves node to a closed list via rdf:first/rdf:rest
// triples. rdf:nil is the empty list. Duplicate first/rest triples with
// structurally equal values collapse; conflicting values or cycles fail.
func (fs *FactStore) MaterializeList(node *term.Term) (*term.Term, bool) {
	if node.Kind == term.List {
		return node, true
	}
	if node.IsIRI(term.RDFNil) {
		return term.NewList(nil), true
	}
	if node.Kind != term.IRI && node.Kind != term.Blank {
		return nil, false
	}
	key, _ := term.FastKey(node)
	if fs.lists == nil {
		fs.lists = &listCache{byNode: map[string]*term.Term{}}
	}
	if cached, hit := fs.lists.byNode[key]; hit {
		return cached, cached != nil
	}
	lst, ok := fs.walkList(node, map[string]bool{})
	if ok {
		fs.lists.byNode[key] = lst
		return lst, true
	}
	fs.lists.byNode[key] = nil
	return nil, false
}

func (fs *FactStore) walkList(node *term.Term, seen map[string]bool) (*term.Term, bool) {
	var elems []*term.Term
	for {
		if node.IsIRI(term.RDFNil) {
			return term.NewList(elems), true
		}
		if node.Kind == term.List {
			return term.NewList(append(elems, node.Elems...)), true
		}
		if node.Kind != term.IRI && node.Kind != term.Blank {
			return nil, false
		}
		key, _ := term.FastKey(node)
		if seen[key] {
			return nil, false
		}
		seen[key] = true

		first, ok := fs.uniqueValue(node, term.RDFFirst)
		if !ok {
			return nil, false
		}
		rest, ok := fs.uniqueValue(node, term.RDFRest)
		if !ok {
			return nil, false
		}
		elems = append(elems, first)
		node = rest
	}
}

// uniqueValue finds the single object of (node, pred, ?). Duplicates with
// equal values collapse; disagreement fails.
func (fs *FactStore) uniqueValue(node *term.Term, pred string) (*term.Term, bool) {
	var found *term.Term
	nk, _ := term.FastKey(node)
	if m := fs.byPS[pred]; m != nil {
		for _, t := range m[nk] {
			if !term.Equal(t.S, node) {
				continue
			}
			if found == nil {
				found = t.O
			} else if !term.Equal(found, t.O) {
				return nil, false
			}
		}
	}
	return found, found != nil
}
