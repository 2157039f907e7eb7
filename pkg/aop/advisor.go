package aop

import "sync/atomic"

var advisorSeq atomic.Uint64

// Advisor binds one Pointcut to one Advice.
type Advisor struct {
	id       uint64
	pointcut Pointcut
	advice   Advice
}

// NewAdvisor binds advice to pointcut. A nil pointcut matches every method.
func NewAdvisor(pointcut Pointcut, advice Advice) *Advisor {
	if pointcut == nil {
		pointcut = True
	}
	return &Advisor{
		id:       advisorSeq.Add(1),
		pointcut: pointcut,
		advice:   advice,
	}
}

// NewExpressionAdvisor compiles expression into the advisor's pointcut.
// A malformed expression fails here, never at call time.
func NewExpressionAdvisor(expression string, advice Advice) (*Advisor, error) {
	pc, err := CompileExpression(expression)
	if err != nil {
		return nil, err
	}
	return NewAdvisor(pc, advice), nil
}

// NewNameMatchAdvisor matches methods by name masks such as "Request*".
func NewNameMatchAdvisor(masks []string, advice Advice) *Advisor {
	return NewAdvisor(NewNameMatch(masks...), advice)
}

func (a *Advisor) ID() uint64 {
	return a.id
}

func (a *Advisor) Pointcut() Pointcut {
	return a.pointcut
}

func (a *Advisor) Advice() Advice {
	return a.advice
}

// AnyMatches reports whether at least one of advisors applies to m.
func AnyMatches(advisors []*Advisor, m *Method) bool {
	for _, a := range advisors {
		if a.pointcut.Matches(m) {
			return true
		}
	}
	return false
}
