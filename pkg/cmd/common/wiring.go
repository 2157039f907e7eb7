package common

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stleox/logtrace/pkg/aop"
	"github.com/stleox/logtrace/pkg/app"
	"github.com/stleox/logtrace/pkg/config"
	"github.com/stleox/logtrace/pkg/interceptor"
	"github.com/stleox/logtrace/pkg/proxy"
	"github.com/stleox/logtrace/pkg/trace"
	"github.com/stleox/logtrace/pkg/tracer"
)

// AddProxyFlags adds the flags shared by every command that wires the demo graph.
func AddProxyFlags(flags *pflag.FlagSet, vp *viper.Viper) {
	flags.StringSlice("mapped-names", config.DefaultMappedNames, "Method name masks to trace, used when --expression is empty")
	flags.String("expression", "", `Pointcut expression, e.g. 'Within("github.com/stleox/logtrace/pkg/app") && !Named("NoLog")'`)
	flags.Bool("force-subclass", false, "Always override func fields instead of substituting interfaces")
	flags.Int("chain-cache-size", config.MaxNumChain, "Number of invocation chains kept by the proxy factory")
	flags.String("proxy-version", "v1", "Demo graph to wire: v1 (interfaces) or v2 (func tables)")
	flags.Duration("delay", config.DefaultDelay, "Time the demo repository takes to save")
	flags.String("otel-exporter", config.ExporterNone, "Mirror traced calls into OpenTelemetry spans: none or stdout")

	for key, flag := range map[string]string{
		"pointcut.mapped-names":  "mapped-names",
		"pointcut.expression":    "expression",
		"proxy.force-subclass":   "force-subclass",
		"proxy.chain-cache-size": "chain-cache-size",
		"proxy.version":          "proxy-version",
		"repository.delay":       "delay",
		"otel.exporter":          "otel-exporter",
	} {
		if err := vp.BindPFlag(key, flags.Lookup(flag)); err != nil {
			logrus.WithError(err).Warnf("logtrace couldn't bind flag --%s", flag)
		}
	}
}

// NewPointcut selects methods by expression if one is set, by name masks otherwise.
func NewPointcut(opts *config.Options) (aop.Pointcut, error) {
	if opts.Pointcut.Expression != "" {
		return aop.CompileExpression(opts.Pointcut.Expression)
	}
	return aop.NewNameMatch(opts.Pointcut.MappedNames...), nil
}

// NewAdvisors returns the log trace advisor, followed by the span advisor when tm is enabled.
func NewAdvisors(opts *config.Options, lt trace.LogTrace, tm *tracer.TracerManager) ([]*aop.Advisor, error) {
	pc, err := NewPointcut(opts)
	if err != nil {
		return nil, err
	}
	advisors := []*aop.Advisor{aop.NewAdvisor(pc, interceptor.NewLogTrace(lt))}
	if tm != nil && tm.Enabled() {
		advisors = append(advisors, aop.NewAdvisor(pc, interceptor.NewOTel(tm.Tracer("logtrace"))))
	}
	return advisors, nil
}

// Stack is the wired demo graph of a command.
type Stack struct {
	Options       *config.Options
	Controller    app.Controller
	TracerManager *tracer.TracerManager

	shutdown func(context.Context) error
}

// NewStack wires the demo graph from vp. Spans, if enabled, are written to spanOut.
func NewStack(vp *viper.Viper, spanOut io.Writer) (*Stack, error) {
	opts, err := config.Load(vp)
	if err != nil {
		return nil, err
	}

	tm := tracer.NewTracerManager()
	shutdown, err := tm.Init(opts.OTel.Exporter, spanOut)
	if err != nil {
		return nil, err
	}

	advisors, err := NewAdvisors(opts, trace.NewLogger(config.LoggerTrace), tm)
	if err != nil {
		_ = shutdown(tm.ShutdownCtx)
		return nil, err
	}
	factory, err := proxy.NewFactory(opts.Proxy.ChainCacheSize)
	if err != nil {
		_ = shutdown(tm.ShutdownCtx)
		return nil, err
	}
	controller, err := app.New(opts.Proxy.Version, factory, advisors, app.Options{
		Delay:         opts.Repository.Delay,
		ForceSubclass: opts.Proxy.ForceSubclass,
	})
	if err != nil {
		_ = shutdown(tm.ShutdownCtx)
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"version":       opts.Proxy.Version,
		"advisors":      len(advisors),
		"forceSubclass": opts.Proxy.ForceSubclass,
	}).Debug("logtrace wired the demo graph")

	return &Stack{
		Options:       opts,
		Controller:    controller,
		TracerManager: tm,
		shutdown:      shutdown,
	}, nil
}

// Close flushes pending spans.
func (s *Stack) Close() {
	if err := s.shutdown(s.TracerManager.ShutdownCtx); err != nil {
		logrus.Error(err)
	}
}
