// Package writer renders terms, triples and rules back to N3 text, with
// prefix compaction and indented quoted formulas.
package writer

import (
	"sort"
	"strings"

	"notation3/internal/term"
)

// Prefixes maps prefix labels to namespace IRIs for compaction.
type Prefixes map[string]string

// DefaultPrefixes covers the builtin namespaces.
func DefaultPrefixes() Prefixes {
	return Prefixes{
		"rdf":    term.NSRDF,
		"xsd":    term.NSXSD,
		"crypto": term.NSCrypto,
		"math":   term.NSMath,
		"time":   term.NSTime,
		"list":   term.NSList,
		"log":    term.NSLog,
		"string": term.NSString,
	}
}

type Writer struct {
	prefixes Prefixes
	// longest-namespace-first order for deterministic compaction
	order []string
}

func New(prefixes Prefixes) *Writer {
	w := &Writer{prefixes: prefixes}
	for p := range prefixes {
		w.order = append(w.order, p)
	}
	sort.Slice(w.order, func(i, j int) bool {
		a, b := prefixes[w.order[i]], prefixes[w.order[j]]
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})
	return w
}

// Document renders prefix declarations followed by the triples.
func (w *Writer) Document(triples []*term.Triple) string {
	var b strings.Builder
	used := map[string]bool{}
	body := w.triples(triples, 0, used)
	decls := make([]string, 0, len(used))
	for p := range used {
		decls = append(decls, p)
	}
	sort.Strings(decls)
	for _, p := range decls {
		b.WriteString("@prefix ")
		b.WriteString(p)
		b.WriteString(": <")
		b.WriteString(w.prefixes[p])
		b.WriteString("> .\n")
	}
	if len(decls) > 0 {
		b.WriteByte('\n')
	}
	b.WriteString(body)
	return b.String()
}

func (w *Writer) triples(ts []*term.Triple, indent int, used map[string]bool) string {
	var b strings.Builder
	pad := strings.Repeat("    ", indent)
	for _, t := range ts {
		b.WriteString(pad)
		b.WriteString(w.term(t.S, indent, used))
		b.WriteByte(' ')
		b.WriteString(w.term(t.P, indent, used))
		b.WriteByte(' ')
		b.WriteString(w.term(t.O, indent, used))
		b.WriteString(" .\n")
	}
	return b.String()
}

// Triple renders one triple on one line.
func (w *Writer) Triple(t *term.Triple) string {
	used := map[string]bool{}
	return w.term(t.S, 0, used) + " " + w.term(t.P, 0, used) + " " + w.term(t.O, 0, used) + " ."
}

// Term renders a single term.
func (w *Writer) Term(t *term.Term) string {
	return w.term(t, 0, map[string]bool{})
}

func (w *Writer) term(t *term.Term, indent int, used map[string]bool) string {
	switch t.Kind {
	case term.IRI:
		if t.Value == term.RDFType {
			return "a"
		}
		for _, p := range w.order {
			ns := w.prefixes[p]
			if strings.HasPrefix(t.Value, ns) {
				local := t.Value[len(ns):]
				if validLocalName(local) {
					used[p] = true
					return p + ":" + local
				}
			}
		}
		return "<" + t.Value + ">"
	case term.Literal:
		return w.literal(t, used)
	case term.Blank:
		return "_:" + t.Value
	case term.Var:
		return "?" + t.Value
	case term.List, term.OpenList:
		var b strings.Builder
		b.WriteByte('(')
		for i, el := range t.Elems {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(w.term(el, indent, used))
		}
		b.WriteByte(')')
		return b.String()
	case term.Graph:
		if len(t.Triples) == 0 {
			return "{}"
		}
		var b strings.Builder
		b.WriteString("{\n")
		b.WriteString(w.triples(t.Triples, indent+1, used))
		b.WriteString(strings.Repeat("    ", indent))
		b.WriteByte('}')
		return b.String()
	}
	return ""
}

func (w *Writer) literal(t *term.Term, used map[string]bool) string {
	lex, dt, lang := term.LiteralParts(t)
	switch dt {
	case term.XSDInteger, term.XSDDecimal, term.XSDBoolean:
		// Numeric and boolean shorthand.
		return lex
	case term.XSDDouble:
		if strings.ContainsAny(lex, "eE") {
			return lex
		}
	}
	quoted := `"` + escapeForOutput(lex) + `"`
	switch {
	case lang != "":
		return quoted + "@" + lang
	case dt != "" && dt != term.XSDString:
		dtTerm := w.term(term.NewIRI(dt), 0, used)
		return quoted + "^^" + dtTerm
	}
	return quoted
}

func escapeForOutput(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func validLocalName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '_', r == '-', r > 0x7f:
		default:
			return false
		}
	}
	return true
}

// Rule renders a rule in arrow form.
func (w *Writer) Rule(r *term.Rule) string {
	body := w.Term(term.NewGraph(r.Premise))
	if r.IsFuse {
		return body + " => false ."
	}
	head := w.Term(term.NewGraph(r.Conclusion))
	if r.IsForward {
		return body + " => " + head + " ."
	}
	return head + " <= " + body + " ."
}
