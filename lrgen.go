// Package lrgen ties the grammar, automaton, parse, lex, tablecodec, and
// grammarfile packages together behind one entry point: build a
// Generator from source rules or a grammar file, self-check its
// registered actions, and drive a parse over a token stream.
package lrgen

import (
	"github.com/rthoreau/lrgen/automaton"
	"github.com/rthoreau/lrgen/grammar"
	"github.com/rthoreau/lrgen/grammarfile"
	"github.com/rthoreau/lrgen/lex"
	"github.com/rthoreau/lrgen/parse"
	"github.com/rthoreau/lrgen/tablecodec"
)

// Generator holds a grammar and its constructed automaton, ready to
// drive parses once a matching ActionSet has been registered and
// self-checked.
type Generator struct {
	Grammar *grammar.Grammar
	Table   *automaton.Table
}

// New builds a Generator from a start symbol and an ordered rule list
// (spec §4.1-§4.4): grammar construction followed immediately by
// automaton construction, so any conflict in the grammar surfaces here
// rather than on first use.
func New(start string, rules []grammar.InputRule) (*Generator, error) {
	g, err := grammar.New(start, rules)
	if err != nil {
		return nil, err
	}
	table, err := automaton.Build(g)
	if err != nil {
		return nil, err
	}
	return &Generator{Grammar: g, Table: table}, nil
}

// FromFile builds a Generator from a TOML grammar definition file (spec
// §4.1, §6).
func FromFile(path string) (*Generator, error) {
	g, err := grammarfile.Load(path)
	if err != nil {
		return nil, err
	}
	table, err := automaton.Build(g)
	if err != nil {
		return nil, err
	}
	return &Generator{Grammar: g, Table: table}, nil
}

// FromBundle reconstructs a Generator from a previously exported static
// table (spec §4.6), skipping grammar and automaton construction
// entirely.
func FromBundle(data []byte) (*Generator, error) {
	bundle, err := tablecodec.Decode(data)
	if err != nil {
		return nil, err
	}
	g, table, err := bundle.Rebuild()
	if err != nil {
		return nil, err
	}
	return &Generator{Grammar: g, Table: table}, nil
}

// SelfCheck verifies actions provides every action and error handler
// this Generator's grammar requires, with arities the grammar's rules
// can actually supply (spec §4.7).
func (gen *Generator) SelfCheck(actions parse.ActionSet) error {
	return parse.SelfCheck(gen.Grammar, actions)
}

// Parse drives actions against stream using this Generator's automaton,
// returning the synthesized value of the grammar's start symbol (spec
// §4.5, §5).
func (gen *Generator) Parse(actions parse.ActionSet, stream lex.TokenStream) (interface{}, error) {
	return parse.Run(gen.Table, actions, stream)
}

// Export reduces this Generator's automaton down to the static table
// bundle format (spec §4.6), suitable for Encode and later FromBundle.
func (gen *Generator) Export() *tablecodec.Bundle {
	return tablecodec.Export(gen.Table)
}

// EncodeTable is a convenience wrapper around Export and
// tablecodec.Encode.
func (gen *Generator) EncodeTable() []byte {
	return tablecodec.Encode(gen.Export())
}

// String renders the action table the same way automaton.Table does.
func (gen *Generator) String() string {
	return gen.Table.String()
}
