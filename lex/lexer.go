package lex

import (
	"fmt"
	"regexp"
)

// class is one registered token class: a name, a regex anchored to the
// start of the remaining input, whether a match is discarded rather than
// emitted (whitespace, comments), and an optional value conversion applied
// to the matched lexeme.
type class struct {
	name    string
	pattern *regexp.Regexp
	skip    bool
	convert func(lexeme string) interface{}
}

// Lexer is a compiled, ordered set of token classes. It holds no scanning
// state of its own; Lazy and Immediate each start a fresh, independent
// TokenStream over a piece of source text.
type Lexer struct {
	classes []class
}

// New returns an empty Lexer ready to have classes added to it.
func New() *Lexer {
	return &Lexer{}
}

// AddClass registers a token class matched by pat. Classes are tried in
// registration order at each position; among classes that match, the one
// with the longest match wins, and ties go to the earlier-registered
// class.
func (lx *Lexer) AddClass(name, pat string) error {
	return lx.addClass(name, pat, false, nil)
}

// AddClassFunc is AddClass with the matched lexeme run through convert to
// produce the token's Value, rather than using the raw lexeme text.
func (lx *Lexer) AddClassFunc(name, pat string, convert func(lexeme string) interface{}) error {
	return lx.addClass(name, pat, false, convert)
}

// AddSkip registers a pattern that is matched and consumed but never
// emitted as a token.
func (lx *Lexer) AddSkip(pat string) error {
	return lx.addClass("", pat, true, nil)
}

func (lx *Lexer) addClass(name, pat string, skip bool, convert func(string) interface{}) error {
	compiled, err := regexp.Compile(`\A(?:` + pat + `)`)
	if err != nil {
		return fmt.Errorf("lex: cannot compile pattern for %q: %w", name, err)
	}
	lx.classes = append(lx.classes, class{name: name, pattern: compiled, skip: skip, convert: convert})
	return nil
}

// Lazy returns a TokenStream that scans src one token at a time, only as
// Next is called.
func (lx *Lexer) Lazy(src string) TokenStream {
	return &lazyStream{lx: lx, src: src}
}

// Immediate scans all of src up front, returning an error immediately if
// any position fails to match a registered class, rather than deferring
// the failure to an in-band error token.
func (lx *Lexer) Immediate(src string) (TokenStream, error) {
	s := &lazyStream{lx: lx, src: src}

	var tokens []Token
	for {
		tok, err := s.scan()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if s.done {
			break
		}
	}
	return &immediateStream{tokens: tokens}, nil
}
