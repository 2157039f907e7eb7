package aop

import (
	"errors"
	"testing"

	r "github.com/stretchr/testify/require"
)

func TestSimpleMatch(t *testing.T) {
	tests := []struct {
		mask string
		name string
		want bool
	}{
		{"Request", "Request", true},
		{"Request", "RequestItem", false},
		{"Request", "request", false},
		{"quest", "Request", false},
		{"Request*", "RequestItem", true},
		{"Request*", "Request", true},
		{"*Item", "OrderItem", true},
		{"*Item", "OrderItems", false},
		{"Or*em", "OrderItem", true},
		{"*der*", "OrderItem", true},
		{"*der*", "Save", false},
		{"*", "", true},
		{"**", "Save", true},
		{"S*v*", "Save", true},
		{"S*x*", "Save", false},
		{"a*b*c", "aXbYbZc", true},
		{"a*b*c", "aXbYbZ", false},
		{"?ave", "Save", false},
	}
	for _, tt := range tests {
		t.Run(tt.mask+"~"+tt.name, func(t *testing.T) {
			r.Equal(t, tt.want, SimpleMatch(tt.mask, tt.name))
		})
	}
}

func TestNameMatch(t *testing.T) {
	pc := NewNameMatch("Request*", "Order*", "Save*")
	r.True(t, pc.Matches(mockMethod("Request")))
	r.True(t, pc.Matches(mockMethod("OrderItem")))
	r.True(t, pc.Matches(mockMethod("Save")))
	r.False(t, pc.Matches(mockMethod("NoLog")))
	r.Equal(t, []string{"Request*", "Order*", "Save*"}, pc.Masks())
}

func TestSentinels(t *testing.T) {
	m := mockMethod("Anything")
	r.True(t, True.Matches(m))
	r.False(t, False.Matches(m))
}

func TestCombinators(t *testing.T) {
	pkg := "github.com/stleox/logtrace/pkg/aop"
	pc := And(Within("github.com/stleox/logtrace/pkg"), Not(Named("NoLog")))

	r.True(t, pc.Matches(mockMethod("Hello")))
	r.False(t, pc.Matches(mockMethod("NoLog")))

	r.True(t, Within(pkg).Matches(mockMethod("Hello")))
	r.True(t, Within(pkg+"/").Matches(mockMethod("Hello")))
	r.False(t, Within("github.com/stleox/logtrace/pkg/ao").Matches(mockMethod("Hello")))
	r.False(t, Within("github.com/other").Matches(mockMethod("Hello")))

	r.True(t, Or(False, Named("Hel*")).Matches(mockMethod("Hello")))
	r.False(t, Or(False, False).Matches(mockMethod("Hello")))
	r.True(t, TypeNamed("*reeter").Matches(mockMethod("Hello")))
	r.True(t, ParamCount(1).Matches(mockMethod("Hello")))
	r.False(t, ParamCount(1).Matches(mockMethod("NoLog")))
}

func TestExpression(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		method string
		want   bool
	}{
		{"within", `Within("github.com/stleox/logtrace/pkg")`, "Hello", true},
		{"within other", `Within("github.com/stleox/logtrace/pkg/app")`, "Hello", false},
		{"exclude noLog", `Within("github.com/stleox/logtrace") && !Named("NoLog")`, "NoLog", false},
		{"include hello", `Within("github.com/stleox/logtrace") && !Named("NoLog")`, "Hello", true},
		{"field", `Name == "Hello" || TypeNamed("nothing")`, "Hello", true},
		{"params", `len(Params) == 1 && Params[0] == "string"`, "Hello", true},
		{"type", `Type endsWith ".greeter"`, "NoLog", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc, err := CompileExpression(tt.src)
			r.NoError(t, err)
			r.Equal(t, tt.want, pc.Matches(mockMethod(tt.method)))
			r.Equal(t, tt.src, pc.String())
		})
	}
}

func TestExpression_Malformed(t *testing.T) {
	for _, src := range []string{
		"",
		`Within("a") &&`,
		`Name`,
		`Unknown("x")`,
	} {
		_, err := CompileExpression(src)
		r.Error(t, err, src)
		r.True(t, errors.Is(err, ErrPointcutEvaluation), src)
	}

	_, err := NewExpressionAdvisor(`Within(`, mockRecordAdvice("x", nil))
	r.ErrorIs(t, err, ErrPointcutEvaluation)

	r.Panics(t, func() { MustCompileExpression("1 +") })
}

func TestMethod_Describe(t *testing.T) {
	m := mockMethod("Hello")
	r.Equal(t, "greeter", m.ShortTypeName())
	r.Equal(t, "github.com/stleox/logtrace/pkg/aop.greeter", m.TypeName())
	r.Equal(t, "greeter.Hello()", m.Signature())
	r.True(t, m.HasContext())
	r.True(t, m.ReturnsError())
	r.Len(t, m.Params, 1)
	r.Len(t, m.Results, 1)

	m = mockMethod("NoLog")
	r.False(t, m.HasContext())
	r.False(t, m.ReturnsError())
	r.Equal(t, "greeter.NoLog()", m.String())
}
