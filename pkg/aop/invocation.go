package aop

import (
	"context"
	"reflect"
)

// Handler is one link of an invocation chain.
type Handler func(ctx context.Context, inv *Invocation) ([]any, error)

// Advice wraps a single invocation. It must call next to proceed, passing the
// original arguments, and must not keep per-call state after returning.
type Advice interface {
	Around(ctx context.Context, inv *Invocation, next Handler) ([]any, error)
}

type AdviceFunc func(ctx context.Context, inv *Invocation, next Handler) ([]any, error)

func (f AdviceFunc) Around(ctx context.Context, inv *Invocation, next Handler) ([]any, error) {
	return f(ctx, inv, next)
}

// Invocation is a call in flight. It lives on the caller's stack and is never
// shared between calls.
type Invocation struct {
	Method *Method
	Target any
	Args   []any

	fn reflect.Value
}

// NewInvocation prepares a call of fn, the real operation bound at construction time.
func NewInvocation(m *Method, target any, fn reflect.Value, args []any) *Invocation {
	return &Invocation{
		Method: m,
		Target: target,
		Args:   args,
		fn:     fn,
	}
}

// Call invokes the real operation. It is the terminal link of every chain.
func (inv *Invocation) Call(ctx context.Context) ([]any, error) {
	fnType := inv.fn.Type()
	in := make([]reflect.Value, 0, fnType.NumIn())
	offset := 0
	if inv.Method.hasContext {
		if ctx == nil {
			in = append(in, reflect.Zero(contextType))
		} else {
			in = append(in, reflect.ValueOf(ctx))
		}
		offset = 1
	}
	// 可变参数以切片形式作为最后一个参数传入
	for i, arg := range inv.Args {
		in = append(in, argValue(arg, fnType.In(i+offset)))
	}

	var out []reflect.Value
	if inv.Method.variadic {
		out = inv.fn.CallSlice(in)
	} else {
		out = inv.fn.Call(in)
	}
	return splitResults(inv.Method, out)
}

func argValue(arg any, t reflect.Type) reflect.Value {
	if arg == nil {
		return reflect.Zero(t)
	}
	v := reflect.ValueOf(arg)
	if v.Type() != t && v.Type().ConvertibleTo(t) {
		return v.Convert(t)
	}
	return v
}

func splitResults(m *Method, out []reflect.Value) ([]any, error) {
	n := len(out)
	var err error
	if m.returnsError {
		n--
		if e, ok := out[n].Interface().(error); ok && e != nil {
			err = e
		}
	}
	results := make([]any, 0, n)
	for i := 0; i < n; i++ {
		results = append(results, out[i].Interface())
	}
	return results, err
}

// Out returns results[i] as T, or the zero T if it is missing or nil.
func Out[T any](results []any, i int) T {
	var zero T
	if i < 0 || i >= len(results) || results[i] == nil {
		return zero
	}
	v, ok := results[i].(T)
	if !ok {
		return zero
	}
	return v
}
