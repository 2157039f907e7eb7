package aop

import (
	"context"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Chain is the composed invocation pipeline of one method under one advisor set.
// It holds no per-call state and is shared by every call of that method.
type Chain struct {
	method   *Method
	advisors []*Advisor
	handler  Handler
}

func terminal(ctx context.Context, inv *Invocation) ([]any, error) {
	return inv.Call(ctx)
}

// NewChain keeps the advisors matching m and composes them so that the first
// registered advisor runs outermost.
func NewChain(advisors []*Advisor, m *Method) *Chain {
	matched := make([]*Advisor, 0, len(advisors))
	for _, a := range advisors {
		if a.pointcut.Matches(m) {
			matched = append(matched, a)
		}
	}

	handler := Handler(terminal)
	// 逆序包装，保证注册顺序即执行顺序
	for i := len(matched) - 1; i >= 0; i-- {
		handler = wrap(matched[i].advice, handler)
	}
	return &Chain{
		method:   m,
		advisors: matched,
		handler:  handler,
	}
}

func wrap(advice Advice, next Handler) Handler {
	return func(ctx context.Context, inv *Invocation) ([]any, error) {
		return advice.Around(ctx, inv, next)
	}
}

func (c *Chain) Method() *Method {
	return c.method
}

// Len is the number of advisors applied to the method.
func (c *Chain) Len() int {
	return len(c.advisors)
}

func (c *Chain) Advisors() []*Advisor {
	return append([]*Advisor(nil), c.advisors...)
}

// Proceed runs inv through the chain. An empty chain calls the target directly
// with ctx as given, even a nil one; advice always sees a non-nil context.
func (c *Chain) Proceed(ctx context.Context, inv *Invocation) ([]any, error) {
	if len(c.advisors) == 0 {
		return inv.Call(ctx)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return c.handler(ctx, inv)
}

// ChainCache shares chains between proxies built from the same advisor set.
type ChainCache struct {
	chains *lru.Cache[string, *Chain]
}

func NewChainCache(size int) (*ChainCache, error) {
	chains, err := lru.New[string, *Chain](size)
	if err != nil {
		return nil, err
	}
	return &ChainCache{chains: chains}, nil
}

// Get returns the cached chain of m under advisors, building it on a miss.
func (c *ChainCache) Get(advisors []*Advisor, m *Method) *Chain {
	key := chainKey(advisors, m)
	if chain, hit := c.chains.Get(key); hit {
		return chain
	}
	chain := NewChain(advisors, m)
	c.chains.Add(key, chain)
	return chain
}

func (c *ChainCache) Len() int {
	return c.chains.Len()
}

// key = {{advisor ids}}@{{type}}#{{method}}
func chainKey(advisors []*Advisor, m *Method) string {
	var sb strings.Builder
	for i, a := range advisors {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatUint(a.id, 10))
	}
	sb.WriteByte('@')
	sb.WriteString(m.Key())
	return sb.String()
}
