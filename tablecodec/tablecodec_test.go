package tablecodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rthoreau/lrgen/automaton"
	"github.com/rthoreau/lrgen/grammar"
	"github.com/rthoreau/lrgen/lex"
	"github.com/rthoreau/lrgen/parse"
)

func buildArithTable(t *testing.T) *automaton.Table {
	g, err := grammar.New("expr", []grammar.InputRule{
		{LHS: "expr", RHS: "term"},
		{Action: "add", LHS: "expr", RHS: "expr PLUS term"},
		{LHS: "term", RHS: "factor"},
		{Action: "mul", LHS: "term", RHS: "term TIMES factor"},
		{Action: "neg", LHS: "factor", RHS: "_MINUS factor"},
		{LHS: "factor", RHS: "INT"},
		{Action: "recover_factor", LHS: "factor", RHS: "$ERROR"},
	})
	require.NoError(t, err)
	table, err := automaton.Build(g)
	require.NoError(t, err)
	return table
}

func arithActions() parse.ActionSet {
	return parse.ActionSet{
		"add": func(a, b int) int { return a + b },
		"mul": func(a, b int) int { return a * b },
		"neg": func(a int) int { return -a },
		"recover_factor": func(lhs string, start, pos, end int, expected []string) interface{} {
			return 0
		},
	}
}

func arithLexer(t *testing.T) *lex.Lexer {
	lx := lex.New()
	require.NoError(t, lx.AddSkip(`[ \t]+`))
	require.NoError(t, lx.AddClass("PLUS", `\+`))
	require.NoError(t, lx.AddClass("MINUS", `-`))
	require.NoError(t, lx.AddClass("TIMES", `\*`))
	require.NoError(t, lx.AddClassFunc("INT", `[0-9]+`, func(lexeme string) interface{} {
		n := 0
		for _, c := range lexeme {
			n = n*10 + int(c-'0')
		}
		return n
	}))
	return lx
}

func Test_ExportRebuild_PreservesActionTable(t *testing.T) {
	table := buildArithTable(t)
	bundle := Export(table)

	_, rebuilt, err := bundle.Rebuild()
	require.NoError(t, err)

	assert.Equal(t, len(table.States), len(rebuilt.States))
	for state, row := range table.Action {
		rRow, ok := rebuilt.Action[state]
		require.True(t, ok, "state %d missing from rebuilt action table", state)
		for sym, act := range row {
			rAct, ok := rRow[sym]
			require.True(t, ok, "state %d symbol %q missing from rebuilt action table", state, sym)
			assert.Equal(t, act, rAct)
		}
	}
}

func Test_EncodeDecode_RoundTrips(t *testing.T) {
	table := buildArithTable(t)
	bundle := Export(table)

	data := Encode(bundle)
	decoded, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, bundle.BuildID, decoded.BuildID)
	assert.Equal(t, bundle.Rules, decoded.Rules)
	assert.Equal(t, bundle.ErrorRules, decoded.ErrorRules)
	assert.Equal(t, bundle.Action, decoded.Action)
	assert.Equal(t, bundle.ErrorHandlers, decoded.ErrorHandlers)
}

func Test_Decode_DetectsTruncatedData(t *testing.T) {
	table := buildArithTable(t)
	data := Encode(Export(table))

	_, err := Decode(data[:len(data)-1])
	assert.Error(t, err)
}

func Test_RebuiltTable_DrivesParseRun(t *testing.T) {
	table := buildArithTable(t)
	actions := arithActions()
	require.NoError(t, parse.SelfCheck(table.Grammar, actions))

	data := Encode(Export(table))
	decoded, err := Decode(data)
	require.NoError(t, err)

	_, rebuiltTable, err := decoded.Rebuild()
	require.NoError(t, err)

	want, err := parse.Run(table, actions, arithLexer(t).Lazy("2 + 3 * -4"))
	require.NoError(t, err)

	got, err := parse.Run(rebuiltTable, actions, arithLexer(t).Lazy("2 + 3 * -4"))
	require.NoError(t, err)

	assert.Equal(t, want, got)
	assert.Equal(t, -10, got)
}
