package term

// Alpha-equivalence of quoted formulas: two graphs are equal iff a bijection
// over variable names and blank labels maps one triple set onto the other,
// order-insensitively. Matching is by backtracking: for each triple of xs we
// try every unused triple of ys under the renaming accumulated so far and
// undo the renaming on failure. Nested formulas open a fresh renaming scope.

type renaming struct {
	fwd map[string]string
	rev map[string]string
}

func newRenaming() *renaming {
	return &renaming{fwd: map[string]string{}, rev: map[string]string{}}
}

// bind records a↦b if consistent with the bijection built so far.
func (r *renaming) bind(a, b string) (ok, added bool) {
	if mapped, seen := r.fwd[a]; seen {
		return mapped == b, false
	}
	if _, taken := r.rev[b]; taken {
		return false, false
	}
	r.fwd[a] = b
	r.rev[b] = a
	return true, true
}

func (r *renaming) unbind(a string) {
	b := r.fwd[a]
	delete(r.fwd, a)
	delete(r.rev, b)
}

// AlphaEqualGraphs reports whether the two triple sets are equal under some
// consistent renaming of variables and blank labels.
func AlphaEqualGraphs(xs, ys []*Triple) bool {
	if len(xs) != len(ys) {
		return false
	}
	if len(xs) == 0 {
		return true
	}
	used := make([]bool, len(ys))
	return alphaMatch(xs, ys, used, 0, newRenaming())
}

func alphaMatch(xs, ys []*Triple, used []bool, i int, ren *renaming) bool {
	if i == len(xs) {
		return true
	}
	for j := range ys {
		if used[j] {
			continue
		}
		var undo []string
		if alphaTriple(xs[i], ys[j], ren, &undo) {
			used[j] = true
			if alphaMatch(xs, ys, used, i+1, ren) {
				return true
			}
			used[j] = false
		}
		for _, name := range undo {
			ren.unbind(name)
		}
	}
	return false
}

func alphaTriple(a, b *Triple, ren *renaming, undo *[]string) bool {
	return alphaTerm(a.S, b.S, ren, undo) &&
		alphaTerm(a.P, b.P, ren, undo) &&
		alphaTerm(a.O, b.O, ren, undo)
}

func alphaTerm(a, b *Term, ren *renaming, undo *[]string) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Var, Blank:
		// Vars map to vars and blanks to blanks, in one shared bijection
		// namespace per kind. Prefix the key so a var cannot capture a blank.
		key := "v" + a.Value
		val := "v" + b.Value
		if a.Kind == Blank {
			key = "b" + a.Value
			val = "b" + b.Value
		}
		ok, added := ren.bind(key, val)
		if added {
			*undo = append(*undo, key)
		}
		return ok
	case IRI:
		return a.Value == b.Value
	case Literal:
		return literalEqual(a, b, false)
	case List:
		if len(a.Elems) != len(b.Elems) {
			return false
		}
		for i := range a.Elems {
			if !alphaTerm(a.Elems[i], b.Elems[i], ren, undo) {
				return false
			}
		}
		return true
	case OpenList:
		if len(a.Elems) != len(b.Elems) {
			return false
		}
		for i := range a.Elems {
			if !alphaTerm(a.Elems[i], b.Elems[i], ren, undo) {
				return false
			}
		}
		ok, added := ren.bind("v"+a.Value, "v"+b.Value)
		if added {
			*undo = append(*undo, "v"+a.Value)
		}
		return ok
	case Graph:
		// Fresh scope for nested formulas.
		return AlphaEqualGraphs(a.Triples, b.Triples)
	}
	return false
}
