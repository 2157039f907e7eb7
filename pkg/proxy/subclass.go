package proxy

import (
	"context"
	"reflect"

	"github.com/m-mizutani/goerr/v2"
	"github.com/stleox/logtrace/pkg/aop"
)

const (
	tagName     = "proxy"
	tagSkip     = "-"
	tagRequired = "required"
)

// overridable reports the func fields of struct st a subclass proxy may replace.
func overridable(st reflect.Type) ([]reflect.StructField, error) {
	var fields []reflect.StructField
	for i := 0; i < st.NumField(); i++ {
		sf := st.Field(i)
		if sf.Anonymous && sf.Type == finalType {
			return nil, goerr.Wrap(ErrProxyConstruction, "type is declared final",
				goerr.V("type", st.String()))
		}
		if sf.Type.Kind() != reflect.Func {
			continue
		}
		tag := sf.Tag.Get(tagName)
		if tag == tagSkip {
			continue
		}
		if !sf.IsExported() {
			if tag == tagRequired {
				return nil, goerr.Wrap(ErrProxyConstruction, "required operation is not overridable",
					goerr.V("type", st.String()), goerr.V("operation", sf.Name))
			}
			continue
		}
		fields = append(fields, sf)
	}
	return fields, nil
}

func structOf(target any) (reflect.Value, error) {
	v := reflect.ValueOf(target)
	if !v.IsValid() || (v.Kind() == reflect.Pointer && v.IsNil()) {
		return reflect.Value{}, goerr.Wrap(ErrProxyConstruction, "target is nil")
	}
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, goerr.Wrap(ErrProxyConstruction,
			"target has no registered capability set and isn't extensible",
			goerr.V("type", v.Type().String()))
	}
	return v, nil
}

// buildSubclass copies the target's struct without running any constructor and
// replaces each overridable func field with a trampoline into its chain.
func (f *Factory) buildSubclass(desc *Descriptor) (any, error) {
	v, err := structOf(desc.Target)
	if err != nil {
		return nil, err
	}
	st := v.Elem().Type()
	fields, err := overridable(st)
	if err != nil {
		return nil, err
	}

	cp := reflect.New(st)
	cp.Elem().Set(v.Elem())

	overridden := 0
	for _, sf := range fields {
		orig := v.Elem().FieldByIndex(sf.Index)
		if orig.IsNil() {
			continue
		}
		method := aop.NewMethod(st, sf.Name, sf.Type)
		b := &Binding{
			method: method,
			target: desc.Target,
			fn:     orig,
			chain:  f.chains.Get(desc.Advisors, method),
		}
		cp.Elem().FieldByIndex(sf.Index).Set(reflect.MakeFunc(sf.Type, b.trampoline))
		overridden++
	}
	if overridden == 0 {
		return nil, goerr.Wrap(ErrProxyConstruction, "type has no overridable operation",
			goerr.V("type", st.String()))
	}

	p := cp.Interface()
	subclassProxies.Store(p, desc)
	return p, nil
}

func (b *Binding) trampoline(in []reflect.Value) []reflect.Value {
	var ctx context.Context
	if b.method.HasContext() {
		ctx, _ = in[0].Interface().(context.Context)
		in = in[1:]
	}
	args := make([]any, len(in))
	for i, a := range in {
		args[i] = a.Interface()
	}
	res, err := b.Invoke(ctx, args...)
	return b.resultValues(res, err)
}

func (b *Binding) resultValues(res []any, err error) []reflect.Value {
	ft := b.fn.Type()
	out := make([]reflect.Value, ft.NumOut())
	ri := 0
	for i := range out {
		t := ft.Out(i)
		if i == len(out)-1 && b.method.ReturnsError() {
			if err == nil {
				out[i] = reflect.Zero(t)
			} else {
				out[i] = reflect.ValueOf(&err).Elem()
			}
			continue
		}
		if ri < len(res) && res[ri] != nil {
			out[i] = reflect.ValueOf(res[ri])
		} else {
			out[i] = reflect.Zero(t)
		}
		ri++
	}
	return out
}
