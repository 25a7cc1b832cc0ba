package parse

import (
	"github.com/rthoreau/lrgen/grammar"
	"github.com/rthoreau/lrgen/lex"
)

// queue wraps a lex.TokenStream with the lookahead and prepend operations
// the shift-reduce loop needs: a pull buffer deep enough to hold synthetic
// tokens spliced in ahead of the lexer's own output by error recovery
// (spec §4.5.1).
type queue struct {
	stream lex.TokenStream
	buffer []lex.Token
	sawEnd bool
}

func newQueue(stream lex.TokenStream) *queue {
	return &queue{stream: stream}
}

func (q *queue) fill() {
	if len(q.buffer) > 0 {
		return
	}
	t := q.stream.Next()
	q.buffer = append(q.buffer, t)
	if t.Name == grammar.EndSymbol {
		q.sawEnd = true
	}
}

// front returns the next token without consuming it.
func (q *queue) front() lex.Token {
	q.fill()
	return q.buffer[0]
}

// pop consumes and returns the next token.
func (q *queue) pop() lex.Token {
	q.fill()
	t := q.buffer[0]
	q.buffer = q.buffer[1:]
	return t
}

// pushFront splices a synthetic token in ahead of whatever is currently
// queued.
func (q *queue) pushFront(t lex.Token) {
	q.buffer = append([]lex.Token{t}, q.buffer...)
}

// empty reports whether the queue is exhausted: no buffered tokens remain
// and the underlying stream has already yielded its $END sentinel. There
// is no separate "accept" action in the table (rule 0's lookahead is
// always empty, since $ENTRY never appears on any RHS), so the main loop
// terminates by this condition alone rather than by a special opcode.
func (q *queue) empty() bool {
	return len(q.buffer) == 0 && q.sawEnd
}
