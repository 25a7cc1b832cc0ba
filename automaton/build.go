package automaton

import (
	"fmt"
	"sort"

	"github.com/dekarrin/rosed"
	"github.com/google/uuid"
	"github.com/rthoreau/lrgen/grammar"
	"github.com/rthoreau/lrgen/icterrors"
	"github.com/rthoreau/lrgen/internal/util"
)

// Op names the two action-table operation codes spec §3 defines on the
// action table: shift (which doubles as GOTO when the column's symbol is a
// nonterminal) and reduce.
type Op int

const (
	OpShift Op = iota
	OpReduce
)

// Action is one action-table cell: an operation and its argument (a
// target state id for a shift, a rule id for a reduce).
type Action struct {
	Op  Op
	Arg int
}

func (a Action) String() string {
	switch a.Op {
	case OpShift:
		return fmt.Sprintf("shift %d", a.Arg)
	case OpReduce:
		return fmt.Sprintf("reduce %d", a.Arg)
	default:
		return "?"
	}
}

// ErrorHandler is one error-handler-map cell: the nonterminal the
// synthesized recovery token will be named and the host action to invoke
// to produce its value.
type ErrorHandler struct {
	LHS    string
	Action string
}

// Table is the complete output of automaton construction: the canonical
// states, the action table, and the error-handler map (spec §4.4, §6). It
// is immutable after Build returns and may be read concurrently.
type Table struct {
	Grammar       *grammar.Grammar
	States        []State
	Action        map[int]map[string]Action
	ErrorHandlers map[int]map[string]ErrorHandler

	// BuildID fingerprints this particular construction; it has no effect
	// on parsing and exists purely so a cached static table bundle
	// (tablecodec) can be tagged with the build that produced it.
	BuildID uuid.UUID
}

// Initial returns the id of the BFS-seeded start state.
func (t *Table) Initial() int { return 0 }

// Build constructs the canonical LR(1)-style automaton for g: item
// closures with lookahead propagation, canonical states via BFS, and the
// action table and error-handler map (spec §4.3, §4.4).
func Build(g *grammar.Grammar) (*Table, error) {
	first := g.FirstSets()

	seed := Item{Rule: 0, Dot: 0, Lookahead: util.NewStringSet()}
	startItems := closure(g, first, []Item{seed})
	start := State{ID: 0, Items: startItems}

	states := []State{start}
	index := map[string]int{start.Key(g): 0}

	actionTable := map[int]map[string]Action{}
	errorHandlers := map[int]map[string]ErrorHandler{}

	queue := []int{0}
	for len(queue) > 0 {
		sid := queue[0]
		queue = queue[1:]
		S := states[sid]

		for _, X := range S.symbolsAfterDot(g) {
			kernel := gotoKernel(g, S, X)
			targetItems := closure(g, first, kernel)
			key := stateKey(g, targetItems)

			tid, ok := index[key]
			if !ok {
				tid = len(states)
				states = append(states, State{ID: tid, Items: targetItems})
				index[key] = tid
				queue = append(queue, tid)
			}

			if err := recordAction(g, actionTable, sid, X, Action{Op: OpShift, Arg: tid}); err != nil {
				return nil, err
			}
		}

		for _, it := range S.Items {
			if !it.Complete(g) {
				continue
			}
			rule := g.Rule(it.Rule)
			for _, t := range sortedElements(it.Lookahead) {
				if err := recordAction(g, actionTable, sid, t, Action{Op: OpReduce, Arg: rule.ID}); err != nil {
					return nil, err
				}
			}
		}

		for _, it := range S.Items {
			rule := g.Rule(it.Rule)
			actionName, ok := g.ErrorAction(rule.LHS)
			if !ok {
				continue
			}
			for _, t := range sortedElements(it.Lookahead) {
				if err := installErrorHandler(errorHandlers, sid, t, ErrorHandler{LHS: rule.LHS, Action: actionName}); err != nil {
					return nil, err
				}
			}
		}
	}

	return &Table{
		Grammar:       g,
		States:        states,
		Action:        actionTable,
		ErrorHandlers: errorHandlers,
		BuildID:       uuid.New(),
	}, nil
}

func sortedElements(s util.StringSet) []string {
	e := s.Elements()
	sort.Strings(e)
	return e
}

func recordAction(g *grammar.Grammar, table map[int]map[string]Action, state int, symbol string, act Action) error {
	m, ok := table[state]
	if !ok {
		m = map[string]Action{}
		table[state] = m
	}
	if existing, ok := m[symbol]; ok {
		if existing == act {
			return nil
		}
		return icterrors.NewGeneratorError(
			"conflict in state %d on symbol %q: %s vs %s",
			state, symbol, describeAction(g, existing), describeAction(g, act),
		)
	}
	m[symbol] = act
	return nil
}

func describeAction(g *grammar.Grammar, a Action) string {
	switch a.Op {
	case OpShift:
		return fmt.Sprintf("shift to state %d", a.Arg)
	case OpReduce:
		return fmt.Sprintf("reduce %s", g.Rule(a.Arg).String())
	default:
		return "unknown action"
	}
}

func installErrorHandler(handlers map[int]map[string]ErrorHandler, state int, terminal string, h ErrorHandler) error {
	m, ok := handlers[state]
	if !ok {
		m = map[string]ErrorHandler{}
		handlers[state] = m
	}
	if existing, ok := m[terminal]; ok {
		if existing == h {
			return nil
		}
		return icterrors.NewGeneratorError(
			"conflicting error handlers in state %d on terminal %q: %s.%s vs %s.%s",
			state, terminal, existing.LHS, existing.Action, h.LHS, h.Action,
		)
	}
	m[terminal] = h
	return nil
}

// String renders the action table as a grid, state by state, terminal by
// terminal, in the manner of the teacher's table dump: one row per state,
// one column per terminal (actions) and nonterminal (shift targets).
func (t *Table) String() string {
	terms := append([]string{}, t.Grammar.Terminals()...)
	nonTerms := append([]string{}, t.Grammar.NonTerminals()...)

	headers := []string{"S", "|"}
	for _, term := range terms {
		headers = append(headers, "A:"+term)
	}
	headers = append(headers, "|")
	for _, nt := range nonTerms {
		headers = append(headers, "G:"+nt)
	}

	data := [][]string{headers}
	for sid := range t.States {
		row := []string{fmt.Sprintf("%d", sid), "|"}
		for _, term := range terms {
			cell := ""
			if act, ok := t.Action[sid][term]; ok {
				switch act.Op {
				case OpShift:
					cell = fmt.Sprintf("s%d", act.Arg)
				case OpReduce:
					cell = fmt.Sprintf("r%d", act.Arg)
				}
			}
			row = append(row, cell)
		}
		row = append(row, "|")
		for _, nt := range nonTerms {
			cell := ""
			if act, ok := t.Action[sid][nt]; ok && act.Op == OpShift {
				cell = fmt.Sprintf("%d", act.Arg)
			}
			row = append(row, cell)
		}
		data = append(data, row)
	}

	return rosed.
		Edit("").
		InsertTableOpts(0, data, 10, rosed.Options{
			TableHeaders:             true,
			NoTrailingLineSeparators: true,
		}).
		String()
}
