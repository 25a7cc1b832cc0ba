package lex

import (
	"fmt"

	"github.com/rthoreau/lrgen/grammar"
)

// lazyStream scans src one token at a time from an internal byte offset
// cursor. The teacher's own lazy lexer scanned rune-by-rune against a
// buffered reader, re-running every pattern on each newly read rune; that
// approach cannot terminate cleanly once the longest candidate match
// stops growing. This scans against the remaining suffix of src directly
// instead, which gives the same "longest match wins, ties favor earlier
// registration" semantics without the unbounded rescan.
type lazyStream struct {
	lx   *Lexer
	src  string
	pos  int
	done bool
}

// Next returns the next token in the stream, or an ErrorSymbol token
// carrying the failure message as its Value if no class matches at the
// current position.
func (s *lazyStream) Next() Token {
	tok, err := s.scan()
	if err != nil {
		return Token{Name: ErrorSymbol, Value: err.Error(), Start: s.pos, End: s.pos}
	}
	return tok
}

func (s *lazyStream) scan() (Token, error) {
	if s.done {
		return Token{Name: grammar.EndSymbol, Start: s.pos, End: s.pos}, nil
	}

	for {
		if s.pos >= len(s.src) {
			s.done = true
			return Token{Name: grammar.EndSymbol, Start: s.pos, End: s.pos}, nil
		}

		remaining := s.src[s.pos:]

		best := -1
		bestLen := -1
		for i, c := range s.lx.classes {
			loc := c.pattern.FindStringIndex(remaining)
			if loc == nil {
				continue
			}
			if loc[1] > bestLen {
				bestLen = loc[1]
				best = i
			}
		}

		if best == -1 || bestLen == 0 {
			return Token{}, fmt.Errorf("lex: no pattern matches input at offset %d: %q", s.pos, preview(remaining))
		}

		lexeme := remaining[:bestLen]
		start := s.pos
		s.pos += bestLen

		c := s.lx.classes[best]
		if c.skip {
			continue
		}

		var value interface{} = lexeme
		if c.convert != nil {
			value = c.convert(lexeme)
		}
		return Token{Name: c.name, Value: value, Start: start, End: s.pos}, nil
	}
}

func preview(s string) string {
	const max = 24
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
