package tracer

import (
	"context"
	"io"

	"github.com/m-mizutani/goerr/v2"
	"github.com/stleox/logtrace/pkg/config"
	attr "go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktr "go.opentelemetry.io/otel/sdk/trace"
)

// Init initializes the exporter named by config. "none" leaves tracing disabled.
func (tm *TracerManager) Init(exporter string, w io.Writer) (func(context.Context) error, error) {
	switch exporter {
	case config.ExporterStdout:
		return tm.InitStdoutExporter(w)
	case config.ExporterNone, "":
		return func(context.Context) error { return nil }, nil
	default:
		return nil, goerr.New("unknown exporter", goerr.V("exporter", exporter))
	}
}

func (tm *TracerManager) InitStdoutExporter(w io.Writer) (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, goerr.Wrap(err, "creating stdout exporter")
	}

	tm.tracerProvider = sdktr.NewTracerProvider(
		sdktr.WithBatcher(exporter),
		sdktr.WithResource(resource.NewSchemaless(attr.String("service.name", "logtrace"))))

	return tm.tracerProvider.Shutdown, nil
}

// InitSpanProcessor routes spans to sp, e.g. a tracetest.SpanRecorder.
func (tm *TracerManager) InitSpanProcessor(sp sdktr.SpanProcessor) (func(context.Context) error, error) {
	tm.tracerProvider = sdktr.NewTracerProvider(
		sdktr.WithSpanProcessor(sp),
		sdktr.WithResource(resource.Empty()))
	return tm.tracerProvider.Shutdown, nil
}

// InitDummyExporter only for testing purposes
func (tm *TracerManager) InitDummyExporter() (func(context.Context) error, error) {
	tm.tracerProvider = sdktr.NewTracerProvider(
		sdktr.WithResource(resource.NewSchemaless(attr.Bool("debug", true))),
	)
	return tm.tracerProvider.Shutdown, nil
}
