package parse

import (
	"reflect"

	"github.com/rthoreau/lrgen/grammar"
	"github.com/rthoreau/lrgen/icterrors"
)

// errorHandlerArity is the fixed positional argument count every
// error-handler action receives: (lhs, start, pos, end, expected) (spec
// §4.7).
const errorHandlerArity = 5

// ActionSet resolves the action names a grammar declares — both reduce
// actions and error-handler actions — to host-provided Go functions. Any
// function value is accepted; dispatch and SelfCheck both use reflection
// rather than requiring a fixed signature, so a host may register actions
// with whatever argument types its semantic values actually are.
type ActionSet map[string]interface{}

func (a ActionSet) lookup(name string) (reflect.Value, bool) {
	fn, ok := a[name]
	if !ok {
		return reflect.Value{}, false
	}
	return reflect.ValueOf(fn), true
}

// SelfCheck verifies that every action name g's rules and error
// productions reference is registered in actions and that its arity is
// compatible with the number of arguments a reduce will actually supply
// it (spec §4.7). It also re-validates the transparent-rule invariant
// (exactly one attributed RHS symbol), since a static table bypassing
// grammar.New's own validation could otherwise smuggle a violation in.
func SelfCheck(g *grammar.Grammar, actions ActionSet) error {
	for _, rule := range g.Rules {
		if !rule.HasAction() {
			if rule.AttributedCount() != 1 {
				return icterrors.NewSelfCheckError(rule.LHS,
					"transparent rule %q must have exactly one attributed RHS symbol, has %d",
					rule.String(), rule.AttributedCount())
			}
			continue
		}
		if err := checkArity(actions, rule.Action, rule.AttributedCount()); err != nil {
			return err
		}
	}

	for _, actionName := range g.ErrorRules {
		if err := checkArity(actions, actionName, errorHandlerArity); err != nil {
			return err
		}
	}

	return nil
}

func checkArity(actions ActionSet, name string, required int) error {
	fn, ok := actions.lookup(name)
	if !ok {
		return icterrors.NewSelfCheckError(name, "no action registered for %q", name)
	}
	if fn.Kind() != reflect.Func {
		return icterrors.NewSelfCheckError(name, "action %q is not a function", name)
	}

	t := fn.Type()
	min := t.NumIn()
	max := t.NumIn()
	if t.IsVariadic() {
		min--
		max = -1 // unbounded
	}

	if required < min || (max >= 0 && required > max) {
		if max < 0 {
			return icterrors.NewSelfCheckError(name,
				"action %q requires at least %d argument(s) but the grammar supplies %d", name, min, required)
		}
		return icterrors.NewSelfCheckError(name,
			"action %q requires %d argument(s) but the grammar supplies %d", name, min, required)
	}
	return nil
}
