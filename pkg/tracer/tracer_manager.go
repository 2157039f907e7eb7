package tracer

import (
	"context"
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"github.com/stleox/logtrace/pkg/config"
	sdktr "go.opentelemetry.io/otel/sdk/trace"
	tr "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerManager hands out OpenTelemetry tracers, one per instrumented scope.
type TracerManager struct {
	numTracer atomic.Int32

	// cache: scope -> Tracer
	tracers *lru.Cache[string, tr.Tracer]

	ShutdownCtx context.Context

	tracerProvider *sdktr.TracerProvider
}

func NewTracerManager() *TracerManager {
	var tm TracerManager
	tm.ShutdownCtx = context.Background()
	tm.tracers, _ = lru.New[string, tr.Tracer](config.MaxNumTracer)
	return &tm
}

// Enabled reports whether an exporter has been initialized.
func (tm *TracerManager) Enabled() bool {
	return tm.tracerProvider != nil
}

// Tracer returns the tracer of scope. Without an exporter it's a no-op tracer.
func (tm *TracerManager) Tracer(scope string) tr.Tracer {
	if tm.tracerProvider == nil {
		return noop.NewTracerProvider().Tracer(scope)
	}
	if t, hit := tm.tracers.Get(scope); hit {
		return t
	}
	number := tm.numTracer.Add(1)
	t := tm.tracerProvider.Tracer(scope)
	tm.tracers.Add(scope, t)
	logrus.Debugf("add new tracer#%d for scope: %s", number, scope)
	return t
}

func (tm *TracerManager) String() string {
	return fmt.Sprintf("TracerManager{enabled=%t, tracers=%d}", tm.Enabled(), tm.tracers.Len())
}
