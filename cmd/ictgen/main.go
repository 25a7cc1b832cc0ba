/*
Ictgen builds, inspects, and caches LR(1)-style parser tables.

It reads a TOML grammar definition, builds the canonical automaton, and
either dumps the result as a static table bundle, prints the action
table, or drops into an interactive REPL that parses lines of input
against the built table.

A static table bundle loaded with --load-table does not carry the
grammar's RHS symbol names, so for such a table --print shows no
terminal columns and --repl has no terminal names to tokenize input
with: every non-blank line fails to lex.

Usage:

	ictgen --grammar FILE [flags]

The flags are:

	-v, --version
		Give the current version of ictgen and then exit.

	-g, --grammar FILE
		Parse the TOML grammar definition at FILE and build an automaton
		from it. Required unless --load-table is given.

	-l, --load-table FILE
		Load a previously dumped static table bundle from FILE instead of
		building one from --grammar.

	-d, --dump-table FILE
		Run self-check against a demonstration action set and write the
		built automaton's static table bundle to FILE.

	-p, --print
		Print the built automaton's action table.

	-r, --repl
		Drop into an interactive loop: each line of input is tokenized by
		matching grammar terminal names literally, fed through the parser,
		and the synthesized parse-tree value (or the structured parse
		error) is printed.

Once a session has started in --repl mode, type a space-separated
sequence of terminal names from the loaded grammar (e.g. "INT PLUS
INT") and press enter to parse it. Type "QUIT" to exit.
*/
package main

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/pflag"

	"github.com/rthoreau/lrgen"
	"github.com/rthoreau/lrgen/grammar"
	"github.com/rthoreau/lrgen/grammarfile"
	"github.com/rthoreau/lrgen/icterrors"
	"github.com/rthoreau/lrgen/internal/version"
	"github.com/rthoreau/lrgen/lex"
	"github.com/rthoreau/lrgen/parse"
)

const (
	ExitSuccess = iota
	ExitUsageError
	ExitBuildError
	ExitREPLError
)

var (
	returnCode    = ExitSuccess
	flagVersion   = pflag.BoolP("version", "v", false, "Give the current version of ictgen and exit")
	grammarFile   = pflag.StringP("grammar", "g", "", "TOML grammar definition file to build an automaton from")
	loadTableFile = pflag.StringP("load-table", "l", "", "Load a previously dumped static table bundle instead of building one")
	dumpTableFile = pflag.StringP("dump-table", "d", "", "Write the built automaton's static table bundle to the given file")
	printTable    = pflag.BoolP("print", "p", false, "Print the built automaton's action table")
	repl          = pflag.BoolP("repl", "r", false, "Drop into an interactive parse loop")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			panic(fmt.Sprintf("unrecoverable panic occurred: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("ictgen %s\n", version.Current)
		return
	}

	gen, err := loadGenerator()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitBuildError
		return
	}

	if *printTable {
		fmt.Println(gen.String())
	}

	if *dumpTableFile != "" {
		if err := dumpTable(gen); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitBuildError
			return
		}
	}

	if *repl {
		if err := runREPL(gen); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitREPLError
			return
		}
	}
}

func loadGenerator() (*lrgen.Generator, error) {
	switch {
	case *loadTableFile != "":
		data, err := os.ReadFile(*loadTableFile)
		if err != nil {
			return nil, fmt.Errorf("read table bundle: %w", err)
		}
		return lrgen.FromBundle(data)
	case *grammarFile != "":
		return lrgen.FromFile(*grammarFile)
	default:
		return nil, fmt.Errorf("one of --grammar or --load-table must be given")
	}
}

func dumpTable(gen *lrgen.Generator) error {
	if err := gen.SelfCheck(demoActions(gen.Grammar)); err != nil {
		return fmt.Errorf("self-check: %w", err)
	}
	data := gen.EncodeTable()
	if err := os.WriteFile(*dumpTableFile, data, 0o644); err != nil {
		return fmt.Errorf("write table bundle: %w", err)
	}
	return nil
}

// treeNode is the generic parse-tree shape ictgen's demonstration
// actions build, since a grammar loaded from a file has no host-defined
// semantic value types to synthesize instead.
type treeNode struct {
	Action string
	Args   []interface{}
}

func (n treeNode) String() string {
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = fmt.Sprintf("%v", a)
	}
	return fmt.Sprintf("%s(%s)", n.Action, strings.Join(parts, ", "))
}

// demoActions builds one variadic action per action name the grammar
// references (ordinary rule actions and error handlers alike), each of
// which just records what it was called with as a treeNode. This lets
// --repl and --dump-table's self-check exercise any grammar without
// requiring the grammar's own host program to be linked in.
func demoActions(g *grammar.Grammar) parse.ActionSet {
	set := parse.ActionSet{}
	record := func(name string) {
		if _, ok := set[name]; ok {
			return
		}
		set[name] = func(args ...interface{}) interface{} {
			return treeNode{Action: name, Args: args}
		}
	}
	for _, r := range g.Rules {
		if r.HasAction() {
			record(r.Action)
		}
	}
	for _, action := range g.ErrorRules {
		record(action)
	}
	return set
}

// literalLexer builds a lex.Lexer that recognizes every terminal in g by
// matching its own name literally, so --repl can tokenize input for any
// grammar without a grammar-specific lexical specification: a line like
// "INT PLUS INT" is three terminal tokens.
func literalLexer(g *grammar.Grammar) (*lex.Lexer, error) {
	lx := lex.New()
	if err := lx.AddSkip(`\s+`); err != nil {
		return nil, err
	}
	for _, term := range g.Terminals() {
		if term == grammar.EndSymbol {
			continue
		}
		if err := lx.AddClass(term, regexp.QuoteMeta(term)); err != nil {
			return nil, err
		}
	}
	return lx, nil
}

func runREPL(gen *lrgen.Generator) error {
	actions := demoActions(gen.Grammar)
	if err := gen.SelfCheck(actions); err != nil {
		return fmt.Errorf("self-check: %w", err)
	}
	lx, err := literalLexer(gen.Grammar)
	if err != nil {
		return fmt.Errorf("build REPL lexer: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{Prompt: "ictgen> "})
	if err != nil {
		return fmt.Errorf("create readline config: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "QUIT") {
			return nil
		}

		result, err := gen.Parse(actions, lx.Lazy(line))
		if err != nil {
			var pe *icterrors.ParseError
			if errors.As(err, &pe) {
				fmt.Printf("parse error at %d-%d: %s (expected one of %v)\n", pe.Pos, pe.End, pe.Error(), pe.Expected)
				continue
			}
			fmt.Printf("error: %s\n", err.Error())
			continue
		}
		fmt.Printf("%v\n", result)
	}
}
