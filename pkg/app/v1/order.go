package v1

import (
	"context"
	"errors"
	"time"
)

//go:generate go run github.com/stleox/logtrace/cmd/logtrace gen --src order.go --type OrderControllerV1,OrderServiceV1,OrderRepositoryV1 --out proxy_gen.go

// ErrIllegalItem is returned by the repository for item "ex".
var ErrIllegalItem = errors.New("exception occurred")

type OrderControllerV1 interface {
	Request(ctx context.Context, itemID string) (string, error)
	NoLog() string
}

type OrderServiceV1 interface {
	OrderItem(ctx context.Context, itemID string) error
}

type OrderRepositoryV1 interface {
	Save(ctx context.Context, itemID string) error
}

type OrderRepositoryV1Impl struct {
	delay time.Duration
}

// NewOrderRepositoryV1 returns a repository whose Save takes delay to complete.
func NewOrderRepositoryV1(delay time.Duration) *OrderRepositoryV1Impl {
	return &OrderRepositoryV1Impl{delay: delay}
}

func (r *OrderRepositoryV1Impl) Save(ctx context.Context, itemID string) error {
	if itemID == "ex" {
		return ErrIllegalItem
	}
	return sleep(ctx, r.delay)
}

type OrderServiceV1Impl struct {
	repository OrderRepositoryV1
}

func NewOrderServiceV1(repository OrderRepositoryV1) *OrderServiceV1Impl {
	return &OrderServiceV1Impl{repository: repository}
}

func (s *OrderServiceV1Impl) OrderItem(ctx context.Context, itemID string) error {
	return s.repository.Save(ctx, itemID)
}

type OrderControllerV1Impl struct {
	service OrderServiceV1
}

func NewOrderControllerV1(service OrderServiceV1) *OrderControllerV1Impl {
	return &OrderControllerV1Impl{service: service}
}

func (c *OrderControllerV1Impl) Request(ctx context.Context, itemID string) (string, error) {
	if err := c.service.OrderItem(ctx, itemID); err != nil {
		return "", err
	}
	return "ok", nil
}

func (c *OrderControllerV1Impl) NoLog() string {
	return "ok"
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
