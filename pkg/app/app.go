package app

import (
	"context"
	"time"

	"github.com/stleox/logtrace/pkg/aop"
	v1 "github.com/stleox/logtrace/pkg/app/v1"
	v2 "github.com/stleox/logtrace/pkg/app/v2"
	"github.com/stleox/logtrace/pkg/proxy"
)

const (
	V1 = "v1"
	V2 = "v2"
)

// Controller is the entry point of the order demo, whichever version wires it.
type Controller interface {
	Request(ctx context.Context, itemID string) (string, error)
	NoLog() string
}

type Options struct {
	Delay         time.Duration
	ForceSubclass bool
}

// NewV1 wires controller → service → repository, proxying each layer whose
// operations some advisor matches.
func NewV1(f *proxy.Factory, advisors []*aop.Advisor, opts Options) (v1.OrderControllerV1, error) {
	repository, _, err := proxy.AutoBuild[v1.OrderRepositoryV1](f,
		v1.NewOrderRepositoryV1(opts.Delay), advisors, opts.ForceSubclass)
	if err != nil {
		return nil, err
	}
	service, _, err := proxy.AutoBuild[v1.OrderServiceV1](f,
		v1.NewOrderServiceV1(repository), advisors, opts.ForceSubclass)
	if err != nil {
		return nil, err
	}
	controller, _, err := proxy.AutoBuild[v1.OrderControllerV1](f,
		v1.NewOrderControllerV1(service), advisors, opts.ForceSubclass)
	if err != nil {
		return nil, err
	}
	return controller, nil
}

// NewV2 is NewV1 for the func-table graph, which is always proxied by subclass.
func NewV2(f *proxy.Factory, advisors []*aop.Advisor, opts Options) (*v2.OrderControllerV2, error) {
	repository, _, err := proxy.AutoBuild(f, v2.NewOrderRepositoryV2(opts.Delay), advisors, true)
	if err != nil {
		return nil, err
	}
	service, _, err := proxy.AutoBuild(f, v2.NewOrderServiceV2(repository), advisors, true)
	if err != nil {
		return nil, err
	}
	controller, _, err := proxy.AutoBuild(f, v2.NewOrderControllerV2(service), advisors, true)
	if err != nil {
		return nil, err
	}
	return controller, nil
}

// New wires the graph of version.
func New(version string, f *proxy.Factory, advisors []*aop.Advisor, opts Options) (Controller, error) {
	if version == V2 {
		c, err := NewV2(f, advisors, opts)
		if err != nil {
			return nil, err
		}
		return controllerV2{c}, nil
	}
	return NewV1(f, advisors, opts)
}

type controllerV2 struct {
	c *v2.OrderControllerV2
}

func (a controllerV2) Request(ctx context.Context, itemID string) (string, error) {
	return a.c.Request(ctx, itemID)
}

func (a controllerV2) NoLog() string {
	return a.c.NoLog()
}
