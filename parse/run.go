// Package parse drives table-driven shift-reduce parsing: the main loop
// consumes a token stream against an automaton.Table, dispatches reduces
// to host-registered semantic actions, and performs localized error
// recovery when a grammar declares error productions (spec §4.5).
package parse

import (
	"sort"

	"github.com/rthoreau/lrgen/automaton"
	"github.com/rthoreau/lrgen/grammar"
	"github.com/rthoreau/lrgen/icterrors"
	"github.com/rthoreau/lrgen/internal/util"
	"github.com/rthoreau/lrgen/lex"
)

// Run parses stream against table, invoking actions on every reduce, and
// returns the synthesized value of the grammar's start symbol.
//
// There is no explicit "accept" opcode in the action table: rule 0's seed
// lookahead is always empty, since $ENTRY never appears on the RHS of any
// other rule, so rule 0 is never reduced. The loop instead terminates
// naturally once the token queue is drained (the final shift of $END
// empties it), at which point the stack is checked for the expected
// post-parse shape.
func Run(table *automaton.Table, actions ActionSet, stream lex.TokenStream) (interface{}, error) {
	q := newQueue(stream)
	stack := &util.Stack[frame]{Of: []frame{{State: table.Initial()}}}

	for !q.empty() {
		cur := q.front()
		s := stack.Peek().State

		act, ok := table.Action[s][cur.Name]
		if !ok {
			if err := recoverError(table, actions, stack, q); err != nil {
				return nil, err
			}
			continue
		}

		switch act.Op {
		case automaton.OpShift:
			q.pop()
			stack.Push(frame{Value: cur.Value, State: act.Arg, Start: cur.Start, End: cur.End})
		case automaton.OpReduce:
			if err := reduce(table, actions, stack, q, act.Arg); err != nil {
				return nil, err
			}
		default:
			return nil, icterrors.NewInternalError("unrecognized action opcode in state %d on %q", s, cur.Name)
		}
	}

	if stack.Len() != 3 {
		return nil, icterrors.NewInternalError("parse finished with unexpected stack depth %d (want 3: sentinel, entry, $END)", stack.Len())
	}
	return stack.Of[1].Value, nil
}

// reduce pops the k frames a rule's RHS covers, invokes its semantic
// action (or forwards the lone attributed value if the rule is
// transparent), and splices the result back in as a synthetic token at
// the front of the queue. The GOTO that normally follows a reduce needs
// no special handling here: it is encoded in the action table as an
// ordinary shift on the nonterminal column, so the next iteration of Run
// performs it automatically when it sees the synthetic token.
func reduce(table *automaton.Table, actions ActionSet, stack *util.Stack[frame], q *queue, ruleID int) error {
	rule := table.Grammar.Rule(ruleID)
	k := len(rule.RHS)

	popped := stack.PopN(k)

	args := make([]interface{}, 0, rule.AttributedCount())
	for i, f := range popped {
		if rule.RHS[i].Attributed {
			args = append(args, f.Value)
		}
	}

	var start, end int
	if k > 0 {
		start, end = popped[0].Start, popped[k-1].End
	} else {
		top := stack.Peek()
		start, end = top.End, top.End
	}

	value, err := dispatchReduce(rule, actions, args)
	if err != nil {
		return err
	}

	q.pushFront(lex.Token{Name: rule.LHS, Value: value, Start: start, End: end})
	return nil
}

func dispatchReduce(rule grammar.Rule, actions ActionSet, args []interface{}) (interface{}, error) {
	if !rule.HasAction() {
		return args[0], nil
	}
	fn, ok := actions.lookup(rule.Action)
	if !ok {
		return nil, icterrors.NewInternalError("no action registered for %q", rule.Action)
	}
	return invoke(fn, args), nil
}

// recoverError implements spec §4.5.1: pop stack frames until a state
// with a registered error handler is found, consume queued tokens until
// one names a synchronizing terminal in that handler, invoke the host's
// recovery action, and splice its result back in as a synthetic token so
// the main loop can resume.
func recoverError(table *automaton.Table, actions ActionSet, stack *util.Stack[frame], q *queue) error {
	cur := q.front()
	expected := expectedTerminals(table, stack.Peek().State)
	topBefore := stack.Peek()

	var popped []frame
	for {
		if stack.Empty() {
			return icterrors.NewParseError("unexpected "+cur.Name, topBefore.Start, cur.Start, cur.End, expected)
		}
		if _, ok := table.ErrorHandlers[stack.Peek().State]; ok {
			break
		}
		popped = append(popped, stack.Pop())
	}

	handlers := table.ErrorHandlers[stack.Peek().State]

	var consumed []lex.Token
	for {
		front := q.front()
		if _, ok := handlers[front.Name]; ok {
			break
		}
		if front.Name == grammar.EndSymbol {
			return icterrors.NewParseError("unexpected end of input", topBefore.Start, cur.Start, cur.End, expected)
		}
		consumed = append(consumed, q.pop())
	}

	front := q.front()
	handler := handlers[front.Name]

	errStart := topBefore.Start
	if len(popped) > 0 {
		errStart = popped[len(popped)-1].Start
	}

	errPos, errEnd := front.Start, front.Start
	if len(consumed) > 0 {
		errPos = consumed[0].Start
		errEnd = consumed[len(consumed)-1].End
	}

	fn, ok := actions.lookup(handler.Action)
	if !ok {
		return icterrors.NewInternalError("no error handler action registered for %q", handler.Action)
	}
	value := invoke(fn, []interface{}{handler.LHS, errStart, errPos, errEnd, expected})

	q.pushFront(lex.Token{Name: handler.LHS, Value: value, Start: errStart, End: errEnd})
	return nil
}

// expectedTerminals returns, sorted, the terminal keys of table[state] —
// exactly what spec P6 requires a reported expected set to equal.
func expectedTerminals(table *automaton.Table, state int) []string {
	row := table.Action[state]
	terms := make([]string, 0, len(row))
	for sym, act := range row {
		if act.Op == automaton.OpShift && table.Grammar.IsNonTerminal(sym) {
			continue
		}
		terms = append(terms, sym)
	}
	sort.Strings(terms)
	return terms
}
