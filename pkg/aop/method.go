package aop

import (
	"context"
	"reflect"
	"strings"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Method describes one interceptable operation of a declaring type.
// Params excludes a leading context.Context, Results excludes a trailing error.
type Method struct {
	Type    reflect.Type
	Name    string
	Params  []reflect.Type
	Results []reflect.Type

	hasContext   bool
	returnsError bool
	variadic     bool
}

// NewMethod describes operation name of declaring with signature fn.
// fn must be a func type without receiver.
func NewMethod(declaring reflect.Type, name string, fn reflect.Type) *Method {
	m := &Method{
		Type:     declaring,
		Name:     name,
		variadic: fn.IsVariadic(),
	}
	for i := 0; i < fn.NumIn(); i++ {
		in := fn.In(i)
		if i == 0 && in == contextType {
			m.hasContext = true
			continue
		}
		m.Params = append(m.Params, in)
	}
	for i := 0; i < fn.NumOut(); i++ {
		out := fn.Out(i)
		if i == fn.NumOut()-1 && out == errorType {
			m.returnsError = true
			continue
		}
		m.Results = append(m.Results, out)
	}
	return m
}

func (m *Method) HasContext() bool {
	return m.hasContext
}

func (m *Method) ReturnsError() bool {
	return m.returnsError
}

// Package returns the import path of the declaring type.
func (m *Method) Package() string {
	return derefType(m.Type).PkgPath()
}

// TypeName returns the fully-qualified declaring type name, e.g. "github.com/x/app/v1.OrderServiceV1".
func (m *Method) TypeName() string {
	t := derefType(m.Type)
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}

func (m *Method) ShortTypeName() string {
	return derefType(m.Type).Name()
}

// Signature is the span message of the method, e.g. "OrderServiceV1.OrderItem()".
func (m *Method) Signature() string {
	return m.ShortTypeName() + "." + m.Name + "()"
}

// Key identifies the method across proxies of the same declaring type.
func (m *Method) Key() string {
	return m.TypeName() + "#" + m.Name
}

func (m *Method) ParamNames() []string {
	names := make([]string, 0, len(m.Params))
	for _, p := range m.Params {
		names = append(names, p.String())
	}
	return names
}

func (m *Method) String() string {
	return m.ShortTypeName() + "." + m.Name + "(" + strings.Join(m.ParamNames(), ", ") + ")"
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
