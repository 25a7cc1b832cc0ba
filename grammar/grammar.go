// Package grammar holds the in-memory grammar model: productions, the
// synthetic start rule, and the terminal/nonterminal alphabet derived from
// where each symbol appears. It has no knowledge of items, states, or
// tables; those live in package automaton and package parse.
package grammar

import (
	"sort"
	"strings"

	"github.com/rthoreau/lrgen/icterrors"
)

// Reserved symbol and production-body names, per the external grammar
// input format (a leading "_" on an RHS element marks it non-attributed;
// a body of exactly "$ERROR" registers an error production instead of a
// normal rule).
const (
	EntrySymbol = "$ENTRY"
	EndSymbol   = "$END"
	errorBody   = "$ERROR"
	nonAttrMark = "_"
)

// RHSSymbol is one element of a rule's right-hand side: a symbol name and
// whether its reduce-time value is attributed (passed to the semantic
// action) or discarded.
type RHSSymbol struct {
	Name       string
	Attributed bool
}

// Rule is a single numbered grammar production. Rule 0 is always the
// synthetic "$ENTRY -> entry $END" rule installed by New.
type Rule struct {
	ID     int
	Action string // empty means the rule is transparent
	LHS    string
	RHS    []RHSSymbol
}

// HasAction reports whether the rule names a semantic action, i.e. whether
// it is NOT a transparent rule.
func (r Rule) HasAction() bool { return r.Action != "" }

// AttributedCount returns how many RHS positions are attributed.
func (r Rule) AttributedCount() int {
	n := 0
	for _, s := range r.RHS {
		if s.Attributed {
			n++
		}
	}
	return n
}

// Symbols returns just the RHS symbol names, in order.
func (r Rule) Symbols() []string {
	syms := make([]string, len(r.RHS))
	for i, s := range r.RHS {
		syms[i] = s.Name
	}
	return syms
}

func (r Rule) String() string {
	var sb strings.Builder
	sb.WriteString(r.LHS)
	sb.WriteString(" ->")
	for _, s := range r.RHS {
		sb.WriteRune(' ')
		if !s.Attributed {
			sb.WriteRune('_')
		}
		sb.WriteString(s.Name)
	}
	return sb.String()
}

// InputRule is one triple of the external grammar input format (spec §4.1,
// §6): an optional action name, the LHS nonterminal, and a single-space
// delimited RHS. An RHS of exactly "$ERROR" registers lhs as an
// error-producing nonterminal instead of adding a numbered rule; in that
// case Action must be set, naming the error handler to invoke.
type InputRule struct {
	Action string
	LHS    string
	RHS    string
}

// Grammar is the built, immutable grammar model: a dense slice of numbered
// rules (index 0 reserved for the synthetic start rule) plus the separate
// table of error productions.
type Grammar struct {
	Rules      []Rule
	ErrorRules map[string]string // lhs -> action name

	terminals    []string
	nonTerminals []string
}

// New builds a Grammar from start (the real, user-facing start symbol) and
// an ordered list of input rules. Rules are renumbered densely starting at
// 1; rule 0 is always the synthetic "$ENTRY -> entry $END".
//
// New rejects grammars with empty (epsilon) productions, transparent rules
// with a count of attributed RHS symbols other than one, and error
// productions with no action name — see spec §4.1, §9 (Open Questions).
func New(start string, rules []InputRule) (*Grammar, error) {
	if strings.TrimSpace(start) == "" {
		return nil, icterrors.NewGeneratorError("grammar has no start symbol")
	}

	g := &Grammar{
		ErrorRules: map[string]string{},
	}

	g.Rules = append(g.Rules, Rule{
		ID:  0,
		LHS: EntrySymbol,
		RHS: []RHSSymbol{
			{Name: start, Attributed: true},
			{Name: EndSymbol, Attributed: false},
		},
	})

	nextID := 1
	for _, r := range rules {
		lhs := strings.TrimSpace(r.LHS)
		if lhs == "" {
			return nil, icterrors.NewGeneratorError("rule has no LHS nonterminal")
		}

		if strings.TrimSpace(r.RHS) == errorBody {
			if strings.TrimSpace(r.Action) == "" {
				return nil, icterrors.NewGeneratorError("error production for %q must name an action", lhs)
			}
			if _, dup := g.ErrorRules[lhs]; dup {
				return nil, icterrors.NewGeneratorError("duplicate error production for %q", lhs)
			}
			g.ErrorRules[lhs] = r.Action
			continue
		}

		rhs, err := parseRHS(r.RHS)
		if err != nil {
			return nil, icterrors.NewGeneratorError("rule %q: %v", lhs, err)
		}
		if len(rhs) == 0 {
			return nil, icterrors.NewGeneratorError("rule %q has an empty (epsilon) production, which is not supported", lhs)
		}

		rule := Rule{
			ID:     nextID,
			Action: strings.TrimSpace(r.Action),
			LHS:    lhs,
			RHS:    rhs,
		}
		if !rule.HasAction() && rule.AttributedCount() != 1 {
			return nil, icterrors.NewGeneratorError(
				"transparent rule %q must have exactly one attributed RHS symbol, has %d",
				rule.String(), rule.AttributedCount(),
			)
		}

		g.Rules = append(g.Rules, rule)
		nextID++
	}

	g.classifySymbols()

	if !g.IsNonTerminal(start) {
		return nil, icterrors.NewGeneratorError("start symbol %q has no productions", start)
	}

	return g, nil
}

func parseRHS(text string) ([]RHSSymbol, error) {
	fields := strings.Split(strings.TrimSpace(text), " ")
	var out []RHSSymbol
	for _, f := range fields {
		if f == "" {
			continue
		}
		attributed := true
		name := f
		if strings.HasPrefix(f, nonAttrMark) {
			attributed = false
			name = strings.TrimPrefix(f, nonAttrMark)
		}
		if name == "" {
			return nil, icterrors.NewGeneratorError("empty symbol name in RHS %q", text)
		}
		out = append(out, RHSSymbol{Name: name, Attributed: attributed})
	}
	return out, nil
}

// classifySymbols partitions the alphabet by appearance: anything that is
// ever the LHS of a rule (or the key of an error production) is a
// nonterminal; everything else referenced from an RHS is a terminal.
func (g *Grammar) classifySymbols() {
	nt := map[string]bool{}
	for _, r := range g.Rules {
		nt[r.LHS] = true
	}
	for lhs := range g.ErrorRules {
		nt[lhs] = true
	}

	terms := map[string]bool{}
	for _, r := range g.Rules {
		for _, s := range r.RHS {
			if !nt[s.Name] {
				terms[s.Name] = true
			}
		}
	}

	g.nonTerminals = sortedKeys(nt)
	g.terminals = sortedKeys(terms)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Terminals returns the terminal alphabet in sorted order.
func (g *Grammar) Terminals() []string { return g.terminals }

// NonTerminals returns the nonterminal alphabet in sorted order.
func (g *Grammar) NonTerminals() []string { return g.nonTerminals }

// IsTerminal reports whether sym is in the terminal alphabet.
func (g *Grammar) IsTerminal(sym string) bool {
	for _, t := range g.terminals {
		if t == sym {
			return true
		}
	}
	return false
}

// IsNonTerminal reports whether sym is in the nonterminal alphabet.
func (g *Grammar) IsNonTerminal(sym string) bool {
	for _, nt := range g.nonTerminals {
		if nt == sym {
			return true
		}
	}
	return false
}

// FromExport reconstructs a Grammar from an already-numbered rule slice
// and error-production table, classifying the symbol alphabet but
// skipping the validation New performs. It exists only for the static
// table bypass (spec §4.6), which trusts that its input was originally
// produced by a call to New and serialized faithfully.
func FromExport(rules []Rule, errorRules map[string]string) *Grammar {
	g := &Grammar{Rules: rules, ErrorRules: errorRules}
	g.classifySymbols()
	return g
}

// Rule returns the rule with the given id. It panics if id is out of range;
// rule ids are assigned densely by New and by the table codec, so an
// out-of-range id always indicates a corrupt static table.
func (g *Grammar) Rule(id int) Rule { return g.Rules[id] }

// RulesForLHS returns, in rule-id order, every rule whose LHS is sym.
func (g *Grammar) RulesForLHS(sym string) []Rule {
	var out []Rule
	for _, r := range g.Rules {
		if r.LHS == sym {
			out = append(out, r)
		}
	}
	return out
}

// ErrorAction returns the action name registered for lhs's error
// production, if any.
func (g *Grammar) ErrorAction(lhs string) (string, bool) {
	act, ok := g.ErrorRules[lhs]
	return act, ok
}
