package proxy

import (
	"context"
	"reflect"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/stleox/logtrace/pkg/aop"
)

// StubFactory builds the interface-based stub of one interface around h.
type StubFactory func(h *Handle) any

var stubs = struct {
	sync.RWMutex
	m map[reflect.Type]StubFactory
}{m: make(map[reflect.Type]StubFactory)}

// Register installs the stub of interface T. Generated stub files call it from init.
func Register[T any](fn func(h *Handle) T) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() != reflect.Interface {
		panic("proxy: Register of non-interface type " + t.String())
	}
	stubs.Lock()
	defer stubs.Unlock()
	stubs.m[t] = func(h *Handle) any {
		return fn(h)
	}
}

func lookupStub(t reflect.Type) (StubFactory, bool) {
	stubs.RLock()
	defer stubs.RUnlock()
	fn, ok := stubs.m[t]
	return fn, ok
}

// Handle is what a stub receives to bind its methods.
type Handle struct {
	factory *Factory
	iface   reflect.Type
	target  reflect.Value
	desc    *Descriptor
	bound   map[string]*Binding
	err     error
}

func (h *Handle) Descriptor() *Descriptor {
	return h.desc
}

// Bind resolves the target's implementation of method name and its chain.
// A failed bind makes the enclosing Build fail.
func (h *Handle) Bind(name string) *Binding {
	if b, ok := h.bound[name]; ok {
		return b
	}
	sm, ok := h.iface.MethodByName(name)
	if !ok {
		h.fail(goerr.Wrap(ErrProxyConstruction, "stub binds unknown method",
			goerr.V("interface", h.iface.String()), goerr.V("method", name)))
		return nil
	}
	fn := h.target.MethodByName(name)
	if !fn.IsValid() {
		h.fail(goerr.Wrap(ErrProxyConstruction, "target doesn't implement method",
			goerr.V("target", h.target.Type().String()), goerr.V("method", name)))
		return nil
	}
	method := aop.NewMethod(h.iface, name, sm.Type)
	b := &Binding{
		method: method,
		target: h.desc.Target,
		fn:     fn,
		chain:  h.factory.chains.Get(h.desc.Advisors, method),
	}
	h.bound[name] = b
	return b
}

func (h *Handle) fail(err error) {
	if h.err == nil {
		h.err = err
	}
}

// Binding is one operation of a proxy bound to its real implementation and chain.
type Binding struct {
	method *aop.Method
	target any
	fn     reflect.Value
	chain  *aop.Chain
}

func (b *Binding) Method() *aop.Method {
	return b.method
}

func (b *Binding) Chain() *aop.Chain {
	return b.chain
}

// Invoke calls the operation through its chain. args excludes the context;
// a variadic operation takes its variadic arguments as one trailing slice.
func (b *Binding) Invoke(ctx context.Context, args ...any) ([]any, error) {
	inv := aop.NewInvocation(b.method, b.target, b.fn, args)
	return b.chain.Proceed(ctx, inv)
}
