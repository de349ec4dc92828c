package reason

import (
	"sort"
	"strings"

	"notation3/internal/term"
	"notation3/internal/writer"
)

// Explanation rendering for derivation records. The proof substitution is
// projected onto the rule's free variables only; internal renaming from
// standardization stays out of the output.

// Explain renders one derivation as N3 comment lines.
func (d *Derivation) Explain(w *writer.Writer) string {
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(w.Triple(d.Fact))
	b.WriteByte('\n')
	b.WriteString("#   by ")
	b.WriteString(indentFormula(w.Rule(d.Rule)))
	b.WriteByte('\n')

	free := map[string]bool{}
	for _, t := range d.Rule.Premise {
		t.Vars(free)
	}
	for _, t := range d.Rule.Conclusion {
		t.Vars(free)
	}
	bindings := projectBinding(d.Binding, free)
	if len(bindings) > 0 {
		b.WriteString("#   with")
		for _, kv := range bindings {
			b.WriteString(" ?")
			b.WriteString(kv.name)
			b.WriteString(" = ")
			b.WriteString(w.Term(kv.value))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

type binding struct {
	name  string
	value *term.Term
}

// projectBinding keeps only the rule's own variables, matching a
// standardized name var_N back to var. Output order is stable.
func projectBinding(s Subst, free map[string]bool) []binding {
	var out []binding
	for name, value := range s {
		base := name
		if i := strings.LastIndex(name, "_"); i > 0 {
			if allDigits(name[i+1:]) {
				base = name[:i]
			}
		}
		if !free[base] {
			continue
		}
		out = append(out, binding{name: base, value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// indentFormula reflows a multi-line rule rendering so continuation lines
// stay inside the comment block.
func indentFormula(s string) string {
	return strings.ReplaceAll(s, "\n", "\n#   ")
}
