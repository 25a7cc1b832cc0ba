package grammar

import "github.com/rthoreau/lrgen/internal/util"

// FirstSets computes, for every symbol in the grammar, the reflexive-
// transitive closure of "a has a production a -> b ...,  therefore b is in
// first(a)" (spec §4.2). Every symbol is a member of its own first set.
//
// This is deliberately not the textbook FIRST(α) computation: the grammar
// here has no epsilon productions (New rejects them), so there is nothing
// to skip past when a production's leading symbol is nullable, and the
// relation only ever needs to be evaluated on a single symbol at a time
// when propagating lookahead during item closure (see TerminalFirst).
func (g *Grammar) FirstSets() map[string]util.StringSet {
	first := map[string]util.StringSet{}

	register := func(sym string) {
		if _, ok := first[sym]; !ok {
			s := util.NewStringSet()
			s.Add(sym)
			first[sym] = s
		}
	}
	for _, t := range g.terminals {
		register(t)
	}
	for _, nt := range g.nonTerminals {
		register(nt)
	}

	changed := true
	for changed {
		changed = false
		for _, r := range g.Rules {
			if len(r.RHS) == 0 {
				continue
			}
			a := r.LHS
			b := r.RHS[0].Name
			before := first[a].Len()
			first[a].AddAll(first[b])
			if first[a].Len() != before {
				changed = true
			}
		}
	}

	return first
}

// TerminalFirst filters a first-set lookup down to just the terminals it
// contains — "terminals in the resulting set are the only ones retained
// when forming the child item's lookahead" (spec §4.2).
func TerminalFirst(g *Grammar, first map[string]util.StringSet, sym string) util.StringSet {
	out := util.NewStringSet()
	set, ok := first[sym]
	if !ok {
		// sym not seen during FirstSets (shouldn't happen for a symbol
		// drawn from the grammar's own alphabet); treat it as its own
		// singleton first set.
		if g.IsTerminal(sym) {
			out.Add(sym)
		}
		return out
	}
	for _, s := range set.Elements() {
		if g.IsTerminal(s) {
			out.Add(s)
		}
	}
	return out
}

// TerminalFirstOfSet unions TerminalFirst over every terminal in lookahead.
// Terminals are their own first set, so this is equivalent to returning a
// copy of lookahead, but is expressed as the union for symmetry with the
// "inherited lookahead" branch of spec §4.2's propagation rule.
func TerminalFirstOfSet(g *Grammar, first map[string]util.StringSet, lookahead util.StringSet) util.StringSet {
	out := util.NewStringSet()
	for _, t := range lookahead.Elements() {
		out.AddAll(TerminalFirst(g, first, t))
	}
	return out
}
