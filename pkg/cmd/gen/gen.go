package gen

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stleox/logtrace/pkg/stubgen"
)

func New() *cobra.Command {
	var opts struct {
		src   string
		types []string
		out   string
	}

	gen := &cobra.Command{
		Use:   "gen",
		Short: "Generate interface proxy stubs from a Go source file",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := stubgen.GenerateFile(opts.src, opts.types)
			if err != nil {
				return err
			}
			if opts.out == "" {
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}
			if err := os.WriteFile(opts.out, out, 0o644); err != nil {
				return err
			}
			logrus.WithField("types", opts.types).Infof("logtrace wrote %s", opts.out)
			return nil
		},
	}

	flags := gen.Flags()
	flags.StringVar(&opts.src, "src", "", "Go file declaring the interfaces")
	flags.StringSliceVar(&opts.types, "type", nil, "Interfaces to generate stubs for")
	flags.StringVarP(&opts.out, "out", "o", "", "Output file (default stdout)")
	_ = gen.MarkFlagRequired("src")
	_ = gen.MarkFlagRequired("type")
	return gen
}
