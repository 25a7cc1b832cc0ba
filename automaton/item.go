// Package automaton builds the canonical collection of LR(1)-style item
// sets for a grammar and assembles them into the shift/reduce action table
// and error-handler map the runtime consumes (spec §4.3, §4.4).
package automaton

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rthoreau/lrgen/grammar"
	"github.com/rthoreau/lrgen/internal/util"
)

// Item is an LR item: a rule, a dot position in [0, len(rhs)], and a set of
// lookahead terminals. Two items with the same rule and dot but different
// lookaheads are mergeable; merging takes the union of their lookahead
// sets (spec §3, "LR Item").
type Item struct {
	Rule      int
	Dot       int
	Lookahead util.StringSet
}

type itemKey struct {
	Rule, Dot int
}

func (it Item) key() itemKey { return itemKey{it.Rule, it.Dot} }

// Copy returns a deep copy of it; mutating the copy's Lookahead never
// affects the original.
func (it Item) Copy() Item {
	return Item{Rule: it.Rule, Dot: it.Dot, Lookahead: util.StringSetOf(it.Lookahead.Elements())}
}

// Complete reports whether the dot has advanced past every RHS symbol.
func (it Item) Complete(g *grammar.Grammar) bool {
	return it.Dot >= len(g.Rule(it.Rule).RHS)
}

// SymbolAfterDot returns the symbol immediately following the dot and
// true, or ("", false) if the item is complete.
func (it Item) SymbolAfterDot(g *grammar.Grammar) (string, bool) {
	rule := g.Rule(it.Rule)
	if it.Dot >= len(rule.RHS) {
		return "", false
	}
	return rule.RHS[it.Dot].Name, true
}

// String gives a canonical, deterministic representation of the item used
// both for display and for state-identity hashing: the lookahead set is
// always rendered sorted.
func (it Item) String(g *grammar.Grammar) string {
	rule := g.Rule(it.Rule)
	var sb strings.Builder
	sb.WriteString(rule.LHS)
	sb.WriteString(" ->")
	for i, s := range rule.RHS {
		if i == it.Dot {
			sb.WriteString(" .")
		}
		sb.WriteRune(' ')
		if !s.Attributed {
			sb.WriteRune('_')
		}
		sb.WriteString(s.Name)
	}
	if it.Dot == len(rule.RHS) {
		sb.WriteString(" .")
	}

	la := it.Lookahead.Elements()
	sort.Strings(la)
	sb.WriteString(", {")
	sb.WriteString(strings.Join(la, ","))
	sb.WriteString("}")

	return sb.String()
}

// sortItems orders items deterministically by (rule, dot) so that state
// construction output (and therefore the action table) is identical across
// runs given identical input (spec P1).
func sortItems(items []Item) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Rule != items[j].Rule {
			return items[i].Rule < items[j].Rule
		}
		return items[i].Dot < items[j].Dot
	})
}

// closure computes the closure-complete item set seeded by seeds,
// following the fixed-point algorithm of spec §4.3: a work queue keyed by
// (rule, dot) merges lookaheads via set union, re-expanding only when a
// merge actually grows the lookahead set.
func closure(g *grammar.Grammar, first map[string]util.StringSet, seeds []Item) []Item {
	entries := map[itemKey]*Item{}
	queue := make([]Item, len(seeds))
	copy(queue, seeds)

	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]

		key := it.key()
		existing, seen := entries[key]
		if seen {
			before := existing.Lookahead.Len()
			existing.Lookahead.AddAll(it.Lookahead)
			if existing.Lookahead.Len() == before {
				// fixed point reached for this (rule, dot): the incoming
				// item added no new lookahead terminals, so there is
				// nothing further to propagate.
				continue
			}
		} else {
			c := it.Copy()
			entries[key] = &c
			existing = entries[key]
		}

		rule := g.Rule(it.Rule)
		if it.Dot >= len(rule.RHS) {
			continue
		}
		X := rule.RHS[it.Dot].Name
		if !g.IsNonTerminal(X) {
			continue
		}

		var followSet util.StringSet
		if it.Dot+1 < len(rule.RHS) {
			followSet = grammar.TerminalFirst(g, first, rule.RHS[it.Dot+1].Name)
		} else {
			followSet = grammar.TerminalFirstOfSet(g, first, existing.Lookahead)
		}

		for _, prod := range g.RulesForLHS(X) {
			queue = append(queue, Item{Rule: prod.ID, Dot: 0, Lookahead: followSet})
		}
	}

	out := make([]Item, 0, len(entries))
	for _, it := range entries {
		out = append(out, *it)
	}
	sortItems(out)
	return out
}

func stateKey(g *grammar.Grammar, items []Item) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.String(g)
	}
	return fmt.Sprintf("[%s]", strings.Join(parts, " | "))
}
