package parse

import (
	"testing"

	"github.com/rthoreau/lrgen/automaton"
	"github.com/rthoreau/lrgen/grammar"
	"github.com/rthoreau/lrgen/icterrors"
	"github.com/rthoreau/lrgen/lex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func arithGrammar(t *testing.T) *grammar.Grammar {
	g, err := grammar.New("expr", []grammar.InputRule{
		{LHS: "expr", RHS: "term"},
		{Action: "add", LHS: "expr", RHS: "expr PLUS term"},
		{Action: "sub", LHS: "expr", RHS: "expr MINUS term"},
		{LHS: "term", RHS: "factor"},
		{Action: "mul", LHS: "term", RHS: "term TIMES factor"},
		{Action: "div", LHS: "term", RHS: "term DIV factor"},
		{Action: "neg", LHS: "factor", RHS: "_MINUS factor"},
		{LHS: "factor", RHS: "_LPAREN expr _RPAREN"},
		{LHS: "factor", RHS: "INT"},
	})
	require.NoError(t, err)
	return g
}

func arithLexer(t *testing.T) *lex.Lexer {
	lx := lex.New()
	require.NoError(t, lx.AddSkip(`[ \t]+`))
	require.NoError(t, lx.AddClass("PLUS", `\+`))
	require.NoError(t, lx.AddClass("MINUS", `-`))
	require.NoError(t, lx.AddClass("TIMES", `\*`))
	require.NoError(t, lx.AddClass("DIV", `/`))
	require.NoError(t, lx.AddClass("LPAREN", `\(`))
	require.NoError(t, lx.AddClass("RPAREN", `\)`))
	require.NoError(t, lx.AddClassFunc("INT", `[0-9]+`, func(lexeme string) interface{} {
		n := 0
		for _, c := range lexeme {
			n = n*10 + int(c-'0')
		}
		return n
	}))
	return lx
}

func arithActions() ActionSet {
	return ActionSet{
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
		"mul": func(a, b int) int { return a * b },
		"div": func(a, b int) int { return a / b },
		"neg": func(a int) int { return -a },
	}
}

func Test_Run_ArithmeticEval(t *testing.T) {
	g := arithGrammar(t)
	table, err := automaton.Build(g)
	require.NoError(t, err)
	require.NoError(t, SelfCheck(g, arithActions()))

	stream := arithLexer(t).Lazy("(12 + 32 * 4) / 7 + 13")
	result, err := Run(table, arithActions(), stream)
	require.NoError(t, err)
	assert.Equal(t, 33, result)
}

func Test_Run_UnaryMinus(t *testing.T) {
	g := arithGrammar(t)
	table, err := automaton.Build(g)
	require.NoError(t, err)

	// (12+3)*(4-1) = 45; 45 / -12 truncates toward zero to -3.
	stream := arithLexer(t).Lazy("(12+3)*(4-1)/-12")
	result, err := Run(table, arithActions(), stream)
	require.NoError(t, err)
	assert.Equal(t, -3, result)
}

func Test_Run_TransparentRuleForwardsValueUnchanged(t *testing.T) {
	g := arithGrammar(t)
	table, err := automaton.Build(g)
	require.NoError(t, err)

	stream := arithLexer(t).Lazy("42")
	result, err := Run(table, arithActions(), stream)
	require.NoError(t, err)
	assert.Equal(t, 42, result)
}

func Test_Run_UnrecoverableParseError(t *testing.T) {
	g := arithGrammar(t)
	table, err := automaton.Build(g)
	require.NoError(t, err)

	stream := arithLexer(t).Lazy("(12+3")
	_, err = Run(table, arithActions(), stream)
	require.Error(t, err)

	var pe *icterrors.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 5, pe.Pos)
	assert.Equal(t, 5, pe.End)
}

func Test_Run_ExpectedSetMatchesTableKeys(t *testing.T) {
	g := arithGrammar(t)
	table, err := automaton.Build(g)
	require.NoError(t, err)

	stream := arithLexer(t).Lazy("3+ *")
	_, err = Run(table, arithActions(), stream)
	require.Error(t, err)

	var pe *icterrors.ParseError
	require.ErrorAs(t, err, &pe)
	assert.NotEmpty(t, pe.Expected)
	for _, sym := range pe.Expected {
		assert.True(t, g.IsTerminal(sym), "expected-set must only ever contain terminals, got %q", sym)
	}
}

// fakeStream replays a fixed slice of tokens, used where hand-authoring
// exact spans matters more than routing them through the reference lexer.
type fakeStream struct {
	tokens []lex.Token
	cur    int
}

func (f *fakeStream) Next() lex.Token {
	if f.cur >= len(f.tokens) {
		return f.tokens[len(f.tokens)-1]
	}
	t := f.tokens[f.cur]
	f.cur++
	return t
}

func Test_Run_StatementLevelErrorRecovery(t *testing.T) {
	g, err := grammar.New("stmtlist", []grammar.InputRule{
		{Action: "single", LHS: "stmtlist", RHS: "stmt"},
		{Action: "append", LHS: "stmtlist", RHS: "stmtlist _SEMI stmt"},
		{LHS: "stmt", RHS: "INT"},
		{Action: "recover_stmt", LHS: "stmt", RHS: "$ERROR"},
	})
	require.NoError(t, err)

	table, err := automaton.Build(g)
	require.NoError(t, err)

	actions := ActionSet{
		"single": func(s interface{}) []interface{} { return []interface{}{s} },
		"append": func(list []interface{}, s interface{}) []interface{} { return append(list, s) },
		"recover_stmt": func(lhs string, start, pos, end int, expected []string) interface{} {
			return nil
		},
	}
	require.NoError(t, SelfCheck(g, actions))

	// "60 ; <malformed> ; 172": the second statement opens with a TIMES
	// token where an INT was expected, with nothing yet shifted for that
	// statement, so recovery fires at the state that is about to start
	// parsing a stmt rather than mid-construct.
	tok := func(name string, val interface{}, start, end int) lex.Token {
		return lex.Token{Name: name, Value: val, Start: start, End: end}
	}
	stream := &fakeStream{tokens: []lex.Token{
		tok("INT", 60, 0, 2),
		tok("SEMI", nil, 2, 3),
		tok("TIMES", nil, 4, 5),
		tok("SEMI", nil, 5, 6),
		tok("INT", 172, 7, 10),
		tok(grammar.EndSymbol, nil, 10, 10),
	}}

	result, err := Run(table, actions, stream)
	require.NoError(t, err)

	list, ok := result.([]interface{})
	require.True(t, ok)
	require.Len(t, list, 3)
	assert.Equal(t, 60, list[0])
	assert.Nil(t, list[1])
	assert.Equal(t, 172, list[2])
}
