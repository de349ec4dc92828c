package reason

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"notation3/internal/term"
)

// time: lexical component extraction from xsd:dateTime values, without any
// timezone normalization, plus time:localTime.

var dateTimeRx = regexp.MustCompile(
	`^(-?\d{4,})-(\d{2})-(\d{2})T(\d{2}):(\d{2}):(\d{2}(?:\.\d+)?)(Z|[+-]\d{2}:\d{2})?$`)

func registerTimeBuiltins() {
	register(term.NSTime+"year", dateTimeComponent(1))
	register(term.NSTime+"month", dateTimeComponent(2))
	register(term.NSTime+"day", dateTimeComponent(3))
	register(term.NSTime+"hour", dateTimeComponent(4))
	register(term.NSTime+"minute", dateTimeComponent(5))
	register(term.NSTime+"second", dateTimeComponent(6))
	register(term.NSTime+"timeZone", dateTimeComponent(7))
	register(term.NSTime+"localTime", timeLocalTime)
}

// dateTimeLexical accepts an xsd:dateTime literal or a plain literal whose
// lexical form parses as one.
func dateTimeLexical(t *term.Term) ([]string, bool) {
	if t.Kind != term.Literal {
		return nil, false
	}
	lex, dt, _ := term.LiteralParts(t)
	if dt != "" && dt != term.XSDDateTime && dt != term.XSDString {
		return nil, false
	}
	m := dateTimeRx.FindStringSubmatch(lex)
	if m == nil {
		return nil, false
	}
	return m, true
}

func dateTimeComponent(idx int) builtinFunc {
	return func(g *term.Triple, _ *builtinCtx) []Subst {
		m, ok := dateTimeLexical(g.S)
		if !ok {
			return nil
		}
		part := m[idx]
		var value *term.Term
		switch idx {
		case 6:
			// Seconds keep their fraction.
			if strings.Contains(part, ".") {
				trimmed := strings.TrimLeft(part, "0")
				if trimmed == "" || trimmed[0] == '.' {
					trimmed = "0" + trimmed
				}
				value = term.NewTypedLiteral(trimmed, term.XSDDecimal)
			} else {
				n, err := strconv.ParseInt(part, 10, 64)
				if err != nil {
					return nil
				}
				value = term.NewIntLiteral(n)
			}
		case 7:
			if part == "" {
				return nil
			}
			value = term.NewPlainLiteral(part)
		default:
			n, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil
			}
			value = term.NewIntLiteral(n)
		}
		out, ok := unifyOut(g.O, value)
		if !ok {
			return nil
		}
		return out
	}
}

// timeLocalTime binds the object to "now" as xsd:dateTime. The value is
// memoized for the run, or pinned by the fixed-now option.
func timeLocalTime(g *term.Triple, ctx *builtinCtx) []Subst {
	e := ctx.engine
	if e.nowMemo == "" {
		if e.cfg.FixedNow != "" {
			e.nowMemo = e.cfg.FixedNow
		} else {
			e.nowMemo = time.Now().Format("2006-01-02T15:04:05.000-07:00")
		}
	}
	out, ok := unifyOut(g.O, term.NewTypedLiteral(e.nowMemo, term.XSDDateTime))
	if !ok {
		return nil
	}
	return out
}
