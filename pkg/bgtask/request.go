package bgtask

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/stleox/logtrace/pkg/app"
)

// RequestTask sends one demo request through the proxied controller per tick.
type RequestTask struct {
	ctx        context.Context
	controller app.Controller
	spec       string
	itemID     string

	sent   atomic.Int64
	failed atomic.Int64
}

func NewRequestTask(ctx context.Context, controller app.Controller, spec, itemID string) *RequestTask {
	return &RequestTask{
		ctx:        ctx,
		controller: controller,
		spec:       spec,
		itemID:     itemID,
	}
}

func (t *RequestTask) Spec() string {
	return t.spec
}

func (t *RequestTask) Name() string {
	return "request"
}

func (t *RequestTask) Run() {
	if t.ctx.Err() != nil {
		return
	}
	t.sent.Add(1)
	if _, err := t.controller.Request(t.ctx, t.itemID); err != nil {
		t.failed.Add(1)
		if !errors.Is(err, context.Canceled) {
			logrus.WithError(err).WithField("item", t.itemID).Debug("logtrace demo request failed")
		}
	}
}

// Sent returns the number of requests sent and how many of them failed.
func (t *RequestTask) Sent() (int64, int64) {
	return t.sent.Load(), t.failed.Load()
}
