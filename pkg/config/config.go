package config

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// for root
var (
	Debug = false
)

// for pkg proxy
var (
	// 同一组 advisor 下 chain 的缓存数量
	MaxNumChain = 1024
)

// for pkg tracer
var (
	MaxNumTracer = 16
)

// for demo app
var (
	DefaultMappedNames = []string{"Request*", "Order*", "Save*"}
	DefaultExpression  = `Within("github.com/stleox/logtrace/pkg/app") && !Named("NoLog")`
	DefaultDelay       = time.Second
	DefaultServeAddr   = ":8080"
)

const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
)

type Options struct {
	Debug      bool              `mapstructure:"debug"`
	Pointcut   PointcutOptions   `mapstructure:"pointcut"`
	Proxy      ProxyOptions      `mapstructure:"proxy"`
	Repository RepositoryOptions `mapstructure:"repository"`
	OTel       OTelOptions       `mapstructure:"otel"`
	Serve      ServeOptions      `mapstructure:"serve"`
	Run        RunOptions        `mapstructure:"run"`
}

type PointcutOptions struct {
	// name masks, e.g. "Request*"; used when Expression is empty
	MappedNames []string `mapstructure:"mapped-names"`
	Expression  string   `mapstructure:"expression"`
}

type ProxyOptions struct {
	ForceSubclass  bool   `mapstructure:"force-subclass"`
	ChainCacheSize int    `mapstructure:"chain-cache-size"`
	Version        string `mapstructure:"version"`
}

type RepositoryOptions struct {
	Delay time.Duration `mapstructure:"delay"`
}

type OTelOptions struct {
	Exporter string `mapstructure:"exporter"`
}

type ServeOptions struct {
	Addr string `mapstructure:"addr"`
}

type RunOptions struct {
	ItemID   string `mapstructure:"item-id"`
	Count    int    `mapstructure:"count"`
	Schedule string `mapstructure:"schedule"`
}

// SetDefaults registers the defaults of every key Load reads.
func SetDefaults(vp *viper.Viper) {
	vp.SetDefault("debug", false)
	vp.SetDefault("pointcut.mapped-names", DefaultMappedNames)
	vp.SetDefault("pointcut.expression", "")
	vp.SetDefault("proxy.force-subclass", false)
	vp.SetDefault("proxy.chain-cache-size", MaxNumChain)
	vp.SetDefault("proxy.version", "v1")
	vp.SetDefault("repository.delay", DefaultDelay)
	vp.SetDefault("otel.exporter", ExporterNone)
	vp.SetDefault("serve.addr", DefaultServeAddr)
	vp.SetDefault("run.item-id", "item")
	vp.SetDefault("run.count", 1)
	vp.SetDefault("run.schedule", "")
}

// Load decodes the options held by vp.
func Load(vp *viper.Viper) (*Options, error) {
	var opts Options
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := vp.Unmarshal(&opts, hook); err != nil {
		return nil, goerr.Wrap(err, "decoding options")
	}
	if opts.Proxy.Version != "v1" && opts.Proxy.Version != "v2" {
		return nil, goerr.New("unknown proxy version", goerr.V("version", opts.Proxy.Version))
	}
	if opts.OTel.Exporter != ExporterNone && opts.OTel.Exporter != ExporterStdout {
		return nil, goerr.New("unknown otel exporter", goerr.V("exporter", opts.OTel.Exporter))
	}
	return &opts, nil
}
