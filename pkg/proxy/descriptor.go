package proxy

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/stleox/logtrace/pkg/aop"
)

// ErrProxyConstruction is returned when a target can't be wrapped under the requested strategy.
var ErrProxyConstruction = errors.New("proxy construction failed")

type Strategy int

const (
	// InterfaceBased substitutes the target behind a registered stub of its interface.
	InterfaceBased Strategy = iota
	// SubclassBased copies the target's struct and overrides its func fields.
	SubclassBased
)

func (s Strategy) String() string {
	switch s {
	case InterfaceBased:
		return "interface"
	case SubclassBased:
		return "subclass"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// Descriptor describes how a proxy was built.
type Descriptor struct {
	Target        any
	Advisors      []*aop.Advisor
	Strategy      Strategy
	ForceSubclass bool
}

func (d *Descriptor) String() string {
	return fmt.Sprintf("proxy{target=%T, advisors=%d, strategy=%s, forceSubclass=%t}",
		d.Target, len(d.Advisors), d.Strategy, d.ForceSubclass)
}

// Proxy is implemented by every interface-based stub.
type Proxy interface {
	ProxyDescriptor() *Descriptor
}

// Final marks a struct as non-extensible when embedded; subclass proxies of it are refused.
type Final struct{}

var finalType = reflect.TypeOf(Final{})

// subclass proxies share the target's type, so they are remembered by pointer.
var subclassProxies sync.Map

// DescriptorOf returns the descriptor of v if v is a proxy built by this package.
func DescriptorOf(v any) (*Descriptor, bool) {
	if v == nil {
		return nil, false
	}
	if p, ok := v.(Proxy); ok {
		return p.ProxyDescriptor(), true
	}
	if reflect.ValueOf(v).Kind() != reflect.Pointer {
		return nil, false
	}
	d, ok := subclassProxies.Load(v)
	if !ok {
		return nil, false
	}
	return d.(*Descriptor), true
}

func IsProxy(v any) bool {
	_, ok := DescriptorOf(v)
	return ok
}

// Release forgets a subclass proxy. Interface-based proxies need no release.
func Release(v any) {
	if v == nil || reflect.ValueOf(v).Kind() != reflect.Pointer {
		return
	}
	subclassProxies.Delete(v)
}
