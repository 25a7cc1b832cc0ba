// Package tablecodec implements the static table bypass (spec §4.6): a
// binary encoding of a built automaton.Table that a later run can load
// directly, skipping grammar construction and automaton building
// entirely. A Bundle keeps only what parse.Run actually reads off a
// Table — the rule export, the action table, and the error-handler map
// — not the closure items that produced them.
package tablecodec

import (
	"fmt"

	"github.com/dekarrin/rezi"
	"github.com/google/uuid"

	"github.com/rthoreau/lrgen/automaton"
	"github.com/rthoreau/lrgen/grammar"
)

// RuleExport is the serialized form of a grammar.Rule: enough to drive a
// reduce (LHS, action name, attributed-flag per RHS slot) but none of
// the RHS symbol names.
type RuleExport struct {
	LHS        string
	Action     string
	Attributed []bool
}

// ActionExport is the serialized form of an automaton.Action.
type ActionExport struct {
	Op  int
	Arg int
}

// HandlerExport is the serialized form of an automaton.ErrorHandler.
type HandlerExport struct {
	LHS    string
	Action string
}

// Bundle is the complete static table format: a build fingerprint plus
// everything parse.Run needs to drive a parse without ever calling
// automaton.Build.
type Bundle struct {
	BuildID       uuid.UUID
	Rules         []RuleExport
	ErrorRules    map[string]string
	Action        map[int]map[string]ActionExport
	ErrorHandlers map[int]map[string]HandlerExport
}

// Export reduces a built Table down to its static Bundle form.
func Export(table *automaton.Table) *Bundle {
	g := table.Grammar

	rules := make([]RuleExport, len(g.Rules))
	for i, r := range g.Rules {
		attr := make([]bool, len(r.RHS))
		for j, s := range r.RHS {
			attr[j] = s.Attributed
		}
		rules[i] = RuleExport{LHS: r.LHS, Action: r.Action, Attributed: attr}
	}

	action := make(map[int]map[string]ActionExport, len(table.Action))
	for state, row := range table.Action {
		exported := make(map[string]ActionExport, len(row))
		for sym, act := range row {
			exported[sym] = ActionExport{Op: int(act.Op), Arg: act.Arg}
		}
		action[state] = exported
	}

	handlers := make(map[int]map[string]HandlerExport, len(table.ErrorHandlers))
	for state, row := range table.ErrorHandlers {
		exported := make(map[string]HandlerExport, len(row))
		for term, h := range row {
			exported[term] = HandlerExport{LHS: h.LHS, Action: h.Action}
		}
		handlers[state] = exported
	}

	return &Bundle{
		BuildID:       table.BuildID,
		Rules:         rules,
		ErrorRules:    g.ErrorRules,
		Action:        action,
		ErrorHandlers: handlers,
	}
}

// Encode serializes b with REZI's binary codec.
func Encode(b *Bundle) []byte {
	return rezi.EncBinary(b)
}

// Decode deserializes a Bundle previously produced by Encode, failing on
// any byte-count mismatch the way the teacher's own REZI-backed decoders
// treat a short or long read as corruption rather than silently
// truncating.
func Decode(data []byte) (*Bundle, error) {
	b := &Bundle{}
	n, err := rezi.DecBinary(data, b)
	if err != nil {
		return nil, fmt.Errorf("tablecodec: rezi decode: %w", err)
	}
	if n != len(data) {
		return nil, fmt.Errorf("tablecodec: decoded byte count mismatch; consumed %d/%d bytes", n, len(data))
	}
	return b, nil
}

// Rebuild reconstructs a grammar.Grammar and an automaton.Table
// sufficient to drive parse.Run, without ever calling automaton.Build.
// The rebuilt Table's States slice holds only bare IDs: State.Items is
// read only during construction. The rebuilt grammar's RHS symbols have
// empty names, so its Terminals() does not list the original terminal
// alphabet and Table.String() on the rebuilt table shows no terminal
// columns.
func (b *Bundle) Rebuild() (*grammar.Grammar, *automaton.Table, error) {
	rules := make([]grammar.Rule, len(b.Rules))
	for i, re := range b.Rules {
		rhs := make([]grammar.RHSSymbol, len(re.Attributed))
		for j, attributed := range re.Attributed {
			rhs[j] = grammar.RHSSymbol{Attributed: attributed}
		}
		rules[i] = grammar.Rule{ID: i, LHS: re.LHS, Action: re.Action, RHS: rhs}
	}
	g := grammar.FromExport(rules, b.ErrorRules)

	action := make(map[int]map[string]automaton.Action, len(b.Action))
	for state, row := range b.Action {
		imported := make(map[string]automaton.Action, len(row))
		for sym, act := range row {
			op := automaton.Op(act.Op)
			if op != automaton.OpShift && op != automaton.OpReduce {
				return nil, nil, fmt.Errorf("tablecodec: state %d symbol %q has unrecognized opcode %d", state, sym, act.Op)
			}
			imported[sym] = automaton.Action{Op: op, Arg: act.Arg}
		}
		action[state] = imported
	}

	handlers := make(map[int]map[string]automaton.ErrorHandler, len(b.ErrorHandlers))
	for state, row := range b.ErrorHandlers {
		imported := make(map[string]automaton.ErrorHandler, len(row))
		for term, h := range row {
			imported[term] = automaton.ErrorHandler{LHS: h.LHS, Action: h.Action}
		}
		handlers[state] = imported
	}

	numStates := 0
	for state := range action {
		if state+1 > numStates {
			numStates = state + 1
		}
	}
	states := make([]automaton.State, numStates)
	for i := range states {
		states[i] = automaton.State{ID: i}
	}

	table := &automaton.Table{
		Grammar:       g,
		States:        states,
		Action:        action,
		ErrorHandlers: handlers,
		BuildID:       b.BuildID,
	}
	return g, table, nil
}
