package cmd

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stleox/logtrace/pkg/cmd/common"
	"github.com/stleox/logtrace/pkg/cmd/gen"
	"github.com/stleox/logtrace/pkg/cmd/run"
	"github.com/stleox/logtrace/pkg/cmd/serve"
	"github.com/stleox/logtrace/pkg/config"
)

// NewViper creates a new viper instance configured.
func NewViper() *viper.Viper {
	vp := viper.New()

	// read config from a file
	vp.SetConfigName("config") // name of config file (without extension)
	vp.SetConfigType("yaml")   // useful if the given config file does not have the extension in the name
	vp.AddConfigPath(".")      // look for a config in the working directory first

	// read config from environment variables
	vp.SetEnvPrefix("logtrace") // env var must start with LOGTRACE_
	// replace - and . by _ for environment variable names
	// (eg: the env var for proxy.force-subclass is LOGTRACE_PROXY_FORCE_SUBCLASS)
	vp.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	vp.AutomaticEnv() // read in environment variables that match

	config.SetDefaults(vp)
	return vp
}

func New(vp *viper.Viper) *cobra.Command {
	var configFile string
	root := &cobra.Command{
		Use:           "logtrace",
		Short:         "Trace nested method calls through interception proxies",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if configFile != "" {
				vp.SetConfigFile(configFile)
			}
			if err := vp.ReadInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
					return err
				}
			}

			config.SetDebug(vp.GetBool("debug"))
			if config.Debug {
				logrus.Info("enabled debug mode")
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Config file (default ./config.yaml)")
	flags.Bool("debug", false, "Enable debug mode")
	if err := vp.BindPFlag("debug", flags.Lookup("debug")); err != nil {
		logrus.WithError(err).Warn("logtrace couldn't bind flag --debug")
	}
	common.AddProxyFlags(flags, vp)

	root.AddCommand(
		run.New(vp),
		serve.New(vp),
		gen.New(),
	)
	return root
}

func Execute() {
	// 全局初始化 VP 配置
	vp := NewViper()

	root := New(vp)
	if err := root.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
