// Package markup parses fetched documents and pulls fields out of them with
// declarative rules, so site differences stay data instead of code.
package markup

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractionError reports structure that is absent from a successfully fetched
// document, usually because the upstream layout changed.
type ExtractionError struct {
	URL   string
	Field string
	Query string
}

func (e *ExtractionError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("extract %s: nothing matched %q", e.Field, e.Query)
	}
	return fmt.Sprintf("extract %s from %s: nothing matched %q", e.Field, e.URL, e.Query)
}

// Document is a parsed page.
type Document struct {
	URL string
	doc *goquery.Document
}

// Parse builds a queryable tree from text. url is only used in error messages.
func Parse(url, text string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Document{URL: url, doc: doc}, nil
}

// Find selects all nodes matching a CSS query anywhere in the document.
func (d *Document) Find(query string) *goquery.Selection {
	return d.doc.Find(query)
}

// Root returns the whole document as a selection.
func (d *Document) Root() *goquery.Selection {
	return d.doc.Selection
}

// Require selects query and fails with ExtractionError when nothing matches.
func (d *Document) Require(field, query string) (*goquery.Selection, error) {
	sel := d.doc.Find(query)
	if sel.Length() == 0 {
		return nil, &ExtractionError{URL: d.URL, Field: field, Query: query}
	}
	return sel, nil
}

// Rule is one extraction step: select a node-set relative to a scope, then
// take its text or an attribute, then strip noise.
//
// An empty Query means the scope itself. An empty Attr means text content.
// The zero Rule reads nothing.
type Rule struct {
	Query string
	Attr  string
	First bool     // read the first match only instead of the joined node-set
	Strip []string // substrings removed from the result
}

// Text is shorthand for a text rule.
func Text(query string) Rule { return Rule{Query: query} }

// Attr is shorthand for an attribute rule on the first match.
func Attr(query, attr string) Rule { return Rule{Query: query, Attr: attr, First: true} }

// Self reads the text of the scope node itself.
func Self() Rule { return Rule{First: true} }

// IsZero reports whether the rule was left unset.
func (r Rule) IsZero() bool {
	return r.Query == "" && r.Attr == "" && !r.First && len(r.Strip) == 0
}

// Eval applies the rule to scope and returns the trimmed value.
func (r Rule) Eval(scope *goquery.Selection) string {
	if r.IsZero() {
		return ""
	}
	sel := scope
	if r.Query != "" {
		sel = scope.Find(r.Query)
	}
	if r.First || r.Attr != "" {
		sel = sel.First()
	}

	var v string
	if r.Attr != "" {
		v, _ = sel.Attr(r.Attr)
	} else {
		v = collapse(sel.Text())
	}
	for _, s := range r.Strip {
		v = strings.ReplaceAll(v, s, "")
	}
	return strings.TrimSpace(v)
}

// collapse folds runs of whitespace the way a browser renders text.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
