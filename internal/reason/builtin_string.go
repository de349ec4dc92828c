package reason

import (
	"strings"

	"github.com/dlclark/regexp2"

	"notation3/internal/term"
)

// string: concatenation, comparisons, formatting and the regex family. The
// regex builtins take Perl-dialect patterns, so they compile with regexp2
// rather than the RE2 engine; unicode property escapes work out of the box.

func registerStringBuiltins() {
	register(term.NSString+"concatenation", stringConcatenation)
	register(term.NSString+"contains", stringPair(strings.Contains))
	register(term.NSString+"containsIgnoringCase", stringPair(func(s, sub string) bool {
		return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
	}))
	register(term.NSString+"endsWith", stringPair(strings.HasSuffix))
	register(term.NSString+"startsWith", stringPair(strings.HasPrefix))
	register(term.NSString+"equalIgnoringCase", stringPair(strings.EqualFold))
	register(term.NSString+"notEqualIgnoringCase", stringPair(func(a, b string) bool {
		return !strings.EqualFold(a, b)
	}))
	register(term.NSString+"greaterThan", stringPair(func(a, b string) bool { return a > b }))
	register(term.NSString+"lessThan", stringPair(func(a, b string) bool { return a < b }))
	register(term.NSString+"notGreaterThan", stringPair(func(a, b string) bool { return a <= b }))
	register(term.NSString+"notLessThan", stringPair(func(a, b string) bool { return a >= b }))
	register(term.NSString+"format", stringFormat)
	register(term.NSString+"matches", stringMatches(false))
	register(term.NSString+"notMatches", stringMatches(true))
	register(term.NSString+"replace", stringReplace)
	register(term.NSString+"scrape", stringScrape)
}

func stringPair(test func(a, b string) bool) builtinFunc {
	return func(g *term.Triple, _ *builtinCtx) []Subst {
		a, okA := term.IsStringy(g.S)
		b, okB := term.IsStringy(g.O)
		if !okA || !okB {
			return nil
		}
		if test(a, b) {
			return one(Subst{})
		}
		return nil
	}
}

func stringConcatenation(g *term.Triple, ctx *builtinCtx) []Subst {
	lst, ok := asList(g.S, ctx)
	if !ok {
		return nil
	}
	var b strings.Builder
	for _, el := range lst.Elems {
		s, ok := term.IsStringy(el)
		if !ok {
			// Numeric literals concatenate by lexical form.
			if el.Kind != term.Literal {
				return nil
			}
			s = term.LiteralLexical(el)
		}
		b.WriteString(s)
	}
	out, ok := unifyOut(g.O, term.NewPlainLiteral(b.String()))
	if !ok {
		return nil
	}
	return out
}

// stringFormat supports %s and %% only.
func stringFormat(g *term.Triple, ctx *builtinCtx) []Subst {
	lst, ok := asList(g.S, ctx)
	if !ok || len(lst.Elems) == 0 {
		return nil
	}
	format, ok := term.IsStringy(lst.Elems[0])
	if !ok {
		return nil
	}
	args := lst.Elems[1:]
	var b strings.Builder
	arg := 0
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 >= len(format) {
			b.WriteByte(c)
			continue
		}
		i++
		switch format[i] {
		case 's':
			if arg >= len(args) {
				return nil
			}
			s, ok := term.IsStringy(args[arg])
			if !ok {
				if args[arg].Kind != term.Literal {
					return nil
				}
				s = term.LiteralLexical(args[arg])
			}
			b.WriteString(s)
			arg++
		case '%':
			b.WriteByte('%')
		default:
			return nil
		}
	}
	out, ok := unifyOut(g.O, term.NewPlainLiteral(b.String()))
	if !ok {
		return nil
	}
	return out
}

// compilePattern compiles a Perl-dialect pattern. When the first compile
// fails, a salvage pass drops identity escapes (a backslash before a
// character that needs none) and retries, which accepts the sloppier
// patterns found in the wild.
func compilePattern(pattern string) (*regexp2.Regexp, bool) {
	rx, err := regexp2.Compile(pattern, regexp2.Unicode)
	if err == nil {
		return rx, true
	}
	salvaged := salvageIdentityEscapes(pattern)
	if salvaged != pattern {
		if rx, err := regexp2.Compile(salvaged, regexp2.Unicode); err == nil {
			return rx, true
		}
	}
	return nil, false
}

func salvageIdentityEscapes(pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c != '\\' || i+1 >= len(pattern) {
			b.WriteByte(c)
			continue
		}
		next := pattern[i+1]
		if strings.ContainsRune(`\^$.|?*+()[]{}`, rune(next)) ||
			(next >= 'a' && next <= 'z') || (next >= 'A' && next <= 'Z') ||
			(next >= '0' && next <= '9') {
			b.WriteByte(c)
			continue
		}
		// Identity escape: emit the character bare.
	}
	return b.String()
}

func stringMatches(negate bool) builtinFunc {
	return func(g *term.Triple, _ *builtinCtx) []Subst {
		s, okS := term.IsStringy(g.S)
		p, okP := term.IsStringy(g.O)
		if !okS || !okP {
			return nil
		}
		rx, ok := compilePattern(p)
		if !ok {
			return nil
		}
		matched, err := rx.MatchString(s)
		if err != nil {
			return nil
		}
		if matched != negate {
			return one(Subst{})
		}
		return nil
	}
}

// stringReplace: subject (input pattern replacement), object the input with
// every match replaced. $1-style group references work in the replacement.
func stringReplace(g *term.Triple, ctx *builtinCtx) []Subst {
	lst, ok := asList(g.S, ctx)
	if !ok || len(lst.Elems) != 3 {
		return nil
	}
	input, ok1 := term.IsStringy(lst.Elems[0])
	pattern, ok2 := term.IsStringy(lst.Elems[1])
	repl, ok3 := term.IsStringy(lst.Elems[2])
	if !ok1 || !ok2 || !ok3 {
		return nil
	}
	rx, ok := compilePattern(pattern)
	if !ok {
		return nil
	}
	replaced, err := rx.Replace(input, repl, -1, -1)
	if err != nil {
		return nil
	}
	out, ok := unifyOut(g.O, term.NewPlainLiteral(replaced))
	if !ok {
		return nil
	}
	return out
}

// stringScrape: subject (input pattern), object bound to the first capture
// group of the first match.
func stringScrape(g *term.Triple, ctx *builtinCtx) []Subst {
	lst, ok := asList(g.S, ctx)
	if !ok || len(lst.Elems) != 2 {
		return nil
	}
	input, ok1 := term.IsStringy(lst.Elems[0])
	pattern, ok2 := term.IsStringy(lst.Elems[1])
	if !ok1 || !ok2 {
		return nil
	}
	rx, ok := compilePattern(pattern)
	if !ok {
		return nil
	}
	m, err := rx.FindStringMatch(input)
	if err != nil || m == nil || m.GroupCount() < 2 {
		return nil
	}
	out, ok := unifyOut(g.O, term.NewPlainLiteral(m.GroupByNumber(1).String()))
	if !ok {
		return nil
	}
	return out
}
