// Package deref fetches remote IRIs for the log:content / log:semantics
// family and parses fetched or inline text into formulas.
package deref

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"notation3/internal/parser"
	"notation3/internal/term"
)

// Client dereferences over HTTP. With EnforceHTTPS set, plain http IRIs are
// refused instead of fetched.
type Client struct {
	EnforceHTTPS bool
	HTTPClient   *http.Client
}

func NewClient(enforceHTTPS bool) *Client {
	return &Client{
		EnforceHTTPS: enforceHTTPS,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) DerefText(iri string) (string, error) {
	target := c.StripFragment(iri)
	switch {
	case strings.HasPrefix(target, "https://"):
	case strings.HasPrefix(target, "http://"):
		if c.EnforceHTTPS {
			return "", fmt.Errorf("refusing http IRI %q: https enforced", iri)
		}
	default:
		return "", fmt.Errorf("unsupported IRI scheme in %q", iri)
	}
	resp, err := c.HTTPClient.Get(target)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("dereferencing %q: status %d", iri, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) DerefSemantics(iri string) (*term.Term, error) {
	text, err := c.DerefText(iri)
	if err != nil {
		return nil, err
	}
	return c.ParseSemantics(text, c.StripFragment(iri))
}

// ParseSemantics parses N3 text into a formula. Rules reappear as
// log:implies / log:impliedBy triples so the formula carries the full
// document content.
func (c *Client) ParseSemantics(text, base string) (*term.Term, error) {
	src := text
	if base != "" {
		src = "@base <" + base + "> .\n" + text
	}
	doc, err := parser.ParseSource(base, src)
	if err != nil {
		return nil, err
	}
	triples := append([]*term.Triple(nil), doc.Facts...)
	for _, r := range doc.Forward {
		triples = append(triples, ruleTriple(r))
	}
	for _, r := range doc.Backward {
		triples = append(triples, ruleTriple(r))
	}
	return term.NewGraph(triples), nil
}

func ruleTriple(r *term.Rule) *term.Triple {
	body := term.NewGraph(r.Premise)
	if r.IsFuse {
		return term.NewTriple(body, term.NewIRI(term.LogImplies), term.False())
	}
	head := term.NewGraph(r.Conclusion)
	if r.IsForward {
		return term.NewTriple(body, term.NewIRI(term.LogImplies), head)
	}
	return term.NewTriple(head, term.NewIRI(term.LogImpliedBy), body)
}

// StripFragment drops the #fragment of an IRI.
func (c *Client) StripFragment(iri string) string {
	if i := strings.IndexByte(iri, '#'); i >= 0 {
		return iri[:i]
	}
	return iri
}
