package bgtask

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// BgTaskManager manages background periodical tasks.
// Includes:
// - Send demo requests on a cron schedule
type BgTaskManager struct {
	cron    *cron.Cron
	bgTasks []BgTask
}

type BgTask interface {
	cron.Job
	Spec() string
	Name() string
}

func NewBgTaskManager() *BgTaskManager {
	return &BgTaskManager{
		cron:    cron.New(),
		bgTasks: make([]BgTask, 0),
	}
}

// Add registers task under its schedule.
func (m *BgTaskManager) Add(task BgTask) error {
	if _, err := m.cron.AddJob(task.Spec(), task); err != nil {
		logrus.WithError(err).Warnf("logtrace couldn't add task %s", task.Name())
		return err
	}
	m.bgTasks = append(m.bgTasks, task)
	return nil
}

func (m *BgTaskManager) StartAll() {
	m.cron.Start()
	logrus.Debugf("logtrace started %d background tasks", len(m.bgTasks))
}

// StopAll stops scheduling and waits for running tasks until ctx is done.
func (m *BgTaskManager) StopAll(ctx context.Context) {
	select {
	case <-m.cron.Stop().Done():
	case <-ctx.Done():
		logrus.Warn("logtrace stopped waiting for background tasks")
	}
}
