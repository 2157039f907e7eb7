package run

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	pkgbgtask "github.com/stleox/logtrace/pkg/bgtask"
	"github.com/stleox/logtrace/pkg/cmd/common"
)

func New(vp *viper.Viper) *cobra.Command {
	run := &cobra.Command{
		Use:   "run",
		Short: "Send demo requests through the traced order graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			// init main context of `run`
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			stack, err := common.NewStack(vp, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer stack.Close()

			opts := stack.Options.Run
			if opts.Schedule == "" {
				return requestN(ctx, stack, opts.ItemID, opts.Count)
			}

			// requests on schedule until interrupted
			bgTaskManager := pkgbgtask.NewBgTaskManager()
			task := pkgbgtask.NewRequestTask(ctx, stack.Controller, opts.Schedule, opts.ItemID)
			if err := bgTaskManager.Add(task); err != nil {
				return err
			}
			bgTaskManager.StartAll()
			<-ctx.Done()

			stopCtx, stop := context.WithTimeout(context.Background(), max(2*stack.Options.Repository.Delay, time.Second))
			defer stop()
			bgTaskManager.StopAll(stopCtx)

			sent, failed := task.Sent()
			logrus.WithFields(logrus.Fields{"sent": sent, "failed": failed}).Info("logtrace stopped sending requests")
			return nil
		},
	}

	flags := run.Flags()
	flags.String("item-id", "item", `Item to order; "ex" makes the repository fail`)
	flags.Int("count", 1, "Number of requests to send")
	flags.String("schedule", "", `Cron spec to send requests on, e.g. "@every 2s"; overrides --count`)
	for key, flag := range map[string]string{
		"run.item-id":  "item-id",
		"run.count":    "count",
		"run.schedule": "schedule",
	} {
		if err := vp.BindPFlag(key, flags.Lookup(flag)); err != nil {
			logrus.WithError(err).Warnf("logtrace couldn't bind flag --%s", flag)
		}
	}
	return run
}

func requestN(ctx context.Context, stack *common.Stack, itemID string, n int) error {
	for i := 0; i < n; i++ {
		out, err := stack.Controller.Request(ctx, itemID)
		if err != nil {
			// 失败已在 trace 中体现，这里只记录结果
			logrus.WithError(err).WithField("item", itemID).Warn("logtrace request failed")
			continue
		}
		logrus.WithField("item", itemID).Debugf("logtrace request returned %q", out)
	}
	return nil
}
