package v2

import (
	"context"
	"errors"
	"time"
)

// ErrIllegalItem is returned by the repository for item "ex".
var ErrIllegalItem = errors.New("exception occurred")

// OrderRepositoryV2 exposes its operations as func fields so a proxy can override them.
type OrderRepositoryV2 struct {
	Save func(ctx context.Context, itemID string) error

	delay time.Duration
}

func NewOrderRepositoryV2(delay time.Duration) *OrderRepositoryV2 {
	r := &OrderRepositoryV2{delay: delay}
	r.Save = r.save
	return r
}

func (r *OrderRepositoryV2) save(ctx context.Context, itemID string) error {
	if itemID == "ex" {
		return ErrIllegalItem
	}
	if r.delay <= 0 {
		return nil
	}
	timer := time.NewTimer(r.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type OrderServiceV2 struct {
	OrderItem func(ctx context.Context, itemID string) error

	repository *OrderRepositoryV2
}

func NewOrderServiceV2(repository *OrderRepositoryV2) *OrderServiceV2 {
	s := &OrderServiceV2{repository: repository}
	s.OrderItem = s.orderItem
	return s
}

func (s *OrderServiceV2) orderItem(ctx context.Context, itemID string) error {
	return s.repository.Save(ctx, itemID)
}

type OrderControllerV2 struct {
	Request func(ctx context.Context, itemID string) (string, error)
	NoLog   func() string

	service *OrderServiceV2
}

func NewOrderControllerV2(service *OrderServiceV2) *OrderControllerV2 {
	c := &OrderControllerV2{service: service}
	c.Request = c.request
	c.NoLog = func() string {
		return "ok"
	}
	return c
}

func (c *OrderControllerV2) request(ctx context.Context, itemID string) (string, error) {
	if err := c.service.OrderItem(ctx, itemID); err != nil {
		return "", err
	}
	return "ok", nil
}

// Service isn't a func field, so proxies of the controller don't intercept it.
func (c *OrderControllerV2) Service() *OrderServiceV2 {
	return c.service
}
