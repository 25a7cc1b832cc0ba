package parse

import "reflect"

// invoke calls fn with args as positional arguments, coercing each to the
// parameter type fn actually declares so a host may register actions
// typed in terms of its own semantic value types rather than
// interface{}. Self-check (host.go) guarantees args is within fn's arity
// before this is ever reached during a real parse.
func invoke(fn reflect.Value, args []interface{}) interface{} {
	t := fn.Type()
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		in[i] = coerce(arg, paramType(t, i))
	}

	out := fn.Call(in)
	if len(out) == 0 {
		return nil
	}
	return out[0].Interface()
}

func paramType(t reflect.Type, i int) reflect.Type {
	if t.IsVariadic() && i >= t.NumIn()-1 {
		return t.In(t.NumIn() - 1).Elem()
	}
	if i < t.NumIn() {
		return t.In(i)
	}
	return nil
}

func coerce(arg interface{}, pt reflect.Type) reflect.Value {
	if arg == nil {
		if pt == nil {
			return reflect.ValueOf(&arg).Elem()
		}
		return reflect.Zero(pt)
	}
	v := reflect.ValueOf(arg)
	if pt == nil || v.Type().AssignableTo(pt) {
		return v
	}
	if v.Type().ConvertibleTo(pt) {
		return v.Convert(pt)
	}
	return v
}
