package interceptor

import (
	"context"

	"github.com/stleox/logtrace/pkg/aop"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	tr "go.opentelemetry.io/otel/trace"
)

// OTel opens one OpenTelemetry span per intercepted call.
type OTel struct {
	tracer tr.Tracer
}

var _ aop.Advice = (*OTel)(nil)

func NewOTel(tracer tr.Tracer) *OTel {
	return &OTel{tracer: tracer}
}

func (i *OTel) Around(ctx context.Context, inv *aop.Invocation, next aop.Handler) ([]any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := i.tracer.Start(ctx, inv.Method.Signature(),
		tr.WithAttributes(
			attribute.String("code.namespace", inv.Method.TypeName()),
			attribute.String("code.function", inv.Method.Name),
		))
	defer span.End()

	res, err := next(ctx, inv)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return res, err
}
