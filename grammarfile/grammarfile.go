// Package grammarfile loads a grammar.Grammar from the TOML-based
// grammar definition format (spec §4.1, §6): a start symbol, an
// ordered list of rule tables, and an ordered list of error-production
// tables.
package grammarfile

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/rthoreau/lrgen/grammar"
)

// tomlGrammar is the raw, toml-tagged shape of a grammar file. It is
// converted to []grammar.InputRule by toInputRules rather than fed
// straight to grammar.New, the same intermediate-struct-then-convert
// idiom used for loading world data files.
type tomlGrammar struct {
	Start string      `toml:"start"`
	Rules []tomlRule  `toml:"rule"`
	Error []tomlError `toml:"error"`
}

type tomlRule struct {
	Action string `toml:"action"`
	LHS    string `toml:"lhs"`
	RHS    string `toml:"rhs"`
}

type tomlError struct {
	LHS    string `toml:"lhs"`
	Action string `toml:"action"`
}

func (tg tomlGrammar) toInputRules() []grammar.InputRule {
	out := make([]grammar.InputRule, 0, len(tg.Rules)+len(tg.Error))
	for _, r := range tg.Rules {
		out = append(out, grammar.InputRule{Action: r.Action, LHS: r.LHS, RHS: r.RHS})
	}
	for _, e := range tg.Error {
		out = append(out, grammar.InputRule{Action: e.Action, LHS: e.LHS, RHS: "$ERROR"})
	}
	return out
}

// Load reads and parses the grammar definition file at path and builds
// a grammar.Grammar from it.
func Load(path string) (*grammar.Grammar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("grammarfile: read %s: %w", path, err)
	}
	return LoadBytes(data)
}

// LoadBytes parses a grammar definition already read into memory.
func LoadBytes(data []byte) (*grammar.Grammar, error) {
	var tg tomlGrammar
	if err := toml.Unmarshal(data, &tg); err != nil {
		return nil, fmt.Errorf("grammarfile: parse: %w", err)
	}
	if tg.Start == "" {
		return nil, fmt.Errorf("grammarfile: missing required top-level 'start' key")
	}

	g, err := grammar.New(tg.Start, tg.toInputRules())
	if err != nil {
		return nil, fmt.Errorf("grammarfile: %w", err)
	}
	return g, nil
}
