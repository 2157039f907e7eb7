package aop

import (
	"errors"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/m-mizutani/goerr/v2"
	"github.com/sirupsen/logrus"
)

// ErrPointcutEvaluation is returned when a pointcut expression is malformed.
var ErrPointcutEvaluation = errors.New("pointcut expression is malformed")

// ExpressionEnv is what a pointcut expression sees about the method being matched.
//
//	Within("github.com/stleox/logtrace/pkg/app") && !Named("NoLog")
//	TypeNamed("*Repository*") || len(Params) == 0
type ExpressionEnv struct {
	Type    string   `expr:"Type"`
	Package string   `expr:"Package"`
	Name    string   `expr:"Name"`
	Params  []string `expr:"Params"`
}

func (e ExpressionEnv) Within(prefix string) bool {
	if len(prefix) > 0 && prefix[len(prefix)-1] == '/' {
		prefix = prefix[:len(prefix)-1]
	}
	return within(e.Package, prefix)
}

func (e ExpressionEnv) Named(mask string) bool {
	return SimpleMatch(mask, e.Name)
}

func (e ExpressionEnv) TypeNamed(mask string) bool {
	short := e.Type
	for i := len(short) - 1; i >= 0; i-- {
		if short[i] == '.' {
			short = short[i+1:]
			break
		}
	}
	return SimpleMatch(mask, short)
}

func newExpressionEnv(m *Method) ExpressionEnv {
	return ExpressionEnv{
		Type:    m.TypeName(),
		Package: m.Package(),
		Name:    m.Name,
		Params:  m.ParamNames(),
	}
}

// Expression is a pointcut compiled from a boolean expression over ExpressionEnv.
type Expression struct {
	source  string
	program *vm.Program
}

// CompileExpression compiles src, failing with ErrPointcutEvaluation if src is
// not a valid boolean expression.
func CompileExpression(src string) (*Expression, error) {
	if src == "" {
		return nil, goerr.Wrap(ErrPointcutEvaluation, "empty expression")
	}
	program, err := expr.Compile(src, expr.Env(ExpressionEnv{}), expr.AsBool())
	if err != nil {
		return nil, goerr.Wrap(ErrPointcutEvaluation, err.Error(), goerr.V("expression", src))
	}
	return &Expression{
		source:  src,
		program: program,
	}, nil
}

// MustCompileExpression is like CompileExpression but panics on error.
func MustCompileExpression(src string) *Expression {
	e, err := CompileExpression(src)
	if err != nil {
		panic(err)
	}
	return e
}

func (e *Expression) String() string {
	return e.source
}

func (e *Expression) Matches(m *Method) bool {
	out, err := expr.Run(e.program, newExpressionEnv(m))
	if err != nil {
		logrus.WithError(err).WithField("expression", e.source).
			Warnf("logtrace couldn't evaluate pointcut for %s", m.Signature())
		return false
	}
	matched, _ := out.(bool)
	return matched
}
