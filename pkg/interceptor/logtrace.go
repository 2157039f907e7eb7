package interceptor

import (
	"context"
	"fmt"

	"github.com/stleox/logtrace/pkg/aop"
	"github.com/stleox/logtrace/pkg/trace"
)

// LogTrace is an around advice writing entry, exit and exception lines of every
// intercepted call through a trace.LogTrace.
type LogTrace struct {
	trace trace.LogTrace
}

var _ aop.Advice = (*LogTrace)(nil)

func NewLogTrace(lt trace.LogTrace) *LogTrace {
	return &LogTrace{trace: lt}
}

func (i *LogTrace) Around(ctx context.Context, inv *aop.Invocation, next aop.Handler) (res []any, err error) {
	ctx, status := i.trace.Begin(ctx, inv.Method.Signature())

	completed := false
	defer func() {
		if completed {
			return
		}
		// 目标 panic 时记为异常后原样抛出
		if v := recover(); v != nil {
			i.trace.Exception(status, panicError(v))
			panic(v)
		}
	}()

	res, err = next(ctx, inv)
	completed = true
	if err != nil {
		i.trace.Exception(status, err)
		return res, err
	}
	i.trace.End(status)
	return res, nil
}

func panicError(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", v)
}
