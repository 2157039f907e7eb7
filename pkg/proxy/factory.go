package proxy

import (
	"reflect"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sirupsen/logrus"
	"github.com/stleox/logtrace/pkg/aop"
)

// DefaultChainCacheSize bounds the chains shared by a Factory.
const DefaultChainCacheSize = 1024

// Factory builds proxies. Proxies built from the same advisor set share chains.
type Factory struct {
	chains *aop.ChainCache
}

func NewFactory(chainCacheSize int) (*Factory, error) {
	if chainCacheSize <= 0 {
		chainCacheSize = DefaultChainCacheSize
	}
	chains, err := aop.NewChainCache(chainCacheSize)
	if err != nil {
		return nil, goerr.Wrap(err, "creating chain cache", goerr.V("size", chainCacheSize))
	}
	return &Factory{chains: chains}, nil
}

// MustNewFactory is like NewFactory but panics on error.
func MustNewFactory(chainCacheSize int) *Factory {
	f, err := NewFactory(chainCacheSize)
	if err != nil {
		panic(err)
	}
	return f
}

func (f *Factory) ChainCache() *aop.ChainCache {
	return f.chains
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Build wraps target so every call through the returned T runs the chain of
// advisors matching the called operation. T is substituted behind its registered
// stub when T is an interface and forceSubclass is false; otherwise target must
// be a pointer to a struct whose func fields get overridden.
//
// Subclass proxies are remembered until Release is called on them, so callers
// building short-lived proxies should release them when done.
func Build[T any](f *Factory, target T, advisors []*aop.Advisor, forceSubclass bool) (T, error) {
	var zero T
	iface := typeOf[T]()
	desc := &Descriptor{
		Target:        target,
		Advisors:      append([]*aop.Advisor(nil), advisors...),
		ForceSubclass: forceSubclass,
	}
	if isNil(target) {
		return zero, goerr.Wrap(ErrProxyConstruction, "target is nil", goerr.V("type", iface.String()))
	}

	if !forceSubclass && iface.Kind() == reflect.Interface && iface.NumMethod() > 0 {
		if stub, ok := lookupStub(iface); ok {
			desc.Strategy = InterfaceBased
			p, err := f.buildInterface(iface, stub, desc)
			if err != nil {
				return zero, err
			}
			logrus.Debugf("logtrace built %s", desc)
			return p.(T), nil
		}
		logrus.Debugf("logtrace has no stub for %s, falling back to subclass", iface)
	}

	desc.Strategy = SubclassBased
	p, err := f.buildSubclass(desc)
	if err != nil {
		return zero, err
	}
	logrus.Debugf("logtrace built %s", desc)
	return p.(T), nil
}

// MustBuild is like Build but panics on error.
func MustBuild[T any](f *Factory, target T, advisors []*aop.Advisor, forceSubclass bool) T {
	p, err := Build(f, target, advisors, forceSubclass)
	if err != nil {
		panic(err)
	}
	return p
}

// AutoBuild proxies target only if some advisor matches one of its operations.
// Otherwise target is returned as is and the bool is false. When T is an
// interface its methods always count as operations, so a forced subclass that
// can't override them fails with ErrProxyConstruction.
func AutoBuild[T any](f *Factory, target T, advisors []*aop.Advisor, forceSubclass bool) (T, bool, error) {
	ops := Operations[T](target, forceSubclass)
	if iface := typeOf[T](); iface.Kind() == reflect.Interface {
		ops = append(ops, interfaceMethods(iface)...)
	}
	matched := false
	for _, m := range ops {
		if aop.AnyMatches(advisors, m) {
			matched = true
			break
		}
	}
	if !matched {
		return target, false, nil
	}
	p, err := Build(f, target, advisors, forceSubclass)
	if err != nil {
		return target, false, err
	}
	return p, true, nil
}

// Operations lists what a proxy of target as T would intercept.
func Operations[T any](target T, forceSubclass bool) []*aop.Method {
	iface := typeOf[T]()
	if !forceSubclass && iface.Kind() == reflect.Interface && iface.NumMethod() > 0 {
		if _, ok := lookupStub(iface); ok {
			return interfaceMethods(iface)
		}
	}

	v, err := structOf(target)
	if err != nil {
		return nil
	}
	st := v.Elem().Type()
	fields, err := overridable(st)
	if err != nil {
		return nil
	}
	ms := make([]*aop.Method, 0, len(fields))
	for _, sf := range fields {
		ms = append(ms, aop.NewMethod(st, sf.Name, sf.Type))
	}
	return ms
}

func interfaceMethods(iface reflect.Type) []*aop.Method {
	ms := make([]*aop.Method, 0, iface.NumMethod())
	for i := 0; i < iface.NumMethod(); i++ {
		sm := iface.Method(i)
		ms = append(ms, aop.NewMethod(iface, sm.Name, sm.Type))
	}
	return ms
}

func (f *Factory) buildInterface(iface reflect.Type, stub StubFactory, desc *Descriptor) (any, error) {
	h := &Handle{
		factory: f,
		iface:   iface,
		target:  reflect.ValueOf(desc.Target),
		desc:    desc,
		bound:   make(map[string]*Binding, iface.NumMethod()),
	}
	p := stub(h)
	if h.err != nil {
		return nil, h.err
	}
	if len(h.bound) != iface.NumMethod() {
		return nil, goerr.Wrap(ErrProxyConstruction, "stub left methods unbound",
			goerr.V("interface", iface.String()),
			goerr.V("bound", len(h.bound)), goerr.V("methods", iface.NumMethod()))
	}
	if _, ok := p.(Proxy); !ok {
		return nil, goerr.Wrap(ErrProxyConstruction, "stub doesn't describe itself",
			goerr.V("interface", iface.String()))
	}
	return p, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
