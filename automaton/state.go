package automaton

import (
	"sort"

	"github.com/rthoreau/lrgen/grammar"
	"github.com/rthoreau/lrgen/internal/util"
)

// State is a closure-complete set of items. State identity is item-set
// equality including lookaheads (spec §3, "State"); Key gives the
// deterministic string used to deduplicate freshly-discovered states
// against previously discovered ones.
type State struct {
	ID    int
	Items []Item
}

// Key returns the canonical, sorted string representation of the state's
// item set.
func (s State) Key(g *grammar.Grammar) string {
	return stateKey(g, s.Items)
}

// symbolsAfterDot returns, sorted, every symbol that appears immediately
// after the dot in some item of s — the set of symbols the builder must
// compute a goto/shift transition for.
func (s State) symbolsAfterDot(g *grammar.Grammar) []string {
	seen := util.NewStringSet()
	for _, it := range s.Items {
		if sym, ok := it.SymbolAfterDot(g); ok {
			seen.Add(sym)
		}
	}
	syms := seen.Elements()
	sort.Strings(syms)
	return syms
}

// gotoKernel advances the dot past X in every item of s where X
// immediately follows the dot; the result is the (not yet closed) kernel
// of the target state.
func gotoKernel(g *grammar.Grammar, s State, X string) []Item {
	var kernel []Item
	for _, it := range s.Items {
		sym, ok := it.SymbolAfterDot(g)
		if !ok || sym != X {
			continue
		}
		kernel = append(kernel, Item{Rule: it.Rule, Dot: it.Dot + 1, Lookahead: it.Lookahead})
	}
	return kernel
}
