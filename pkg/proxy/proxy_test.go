package proxy

import (
	"context"
	"errors"
	"testing"

	"github.com/stleox/logtrace/pkg/aop"
	r "github.com/stretchr/testify/require"
)

func TestBuild_Interface(t *testing.T) {
	f := MustNewFactory(0)
	var calls []string
	advisors := []*aop.Advisor{aop.NewAdvisor(aop.Named("Greet"), mockRecordAdvice("a1", &calls))}

	p, err := Build[greeter](f, &greeterImpl{}, advisors, false)
	r.NoError(t, err)

	out, err := p.Greet(context.Background(), "bob")
	r.NoError(t, err)
	r.Equal(t, "hello bob", out)
	r.Equal(t, []string{"a1 before", "a1 after"}, calls)

	r.Equal(t, 3, p.Count(1, 2))
	r.Len(t, calls, 2)

	d, ok := DescriptorOf(p)
	r.True(t, ok)
	r.Equal(t, InterfaceBased, d.Strategy)
	r.False(t, d.ForceSubclass)
	r.Len(t, d.Advisors, 1)
	r.True(t, IsProxy(p))
	r.False(t, IsProxy(&greeterImpl{}))
	r.False(t, IsProxy(nil))
	r.False(t, IsProxy(42))
}

func TestBuild_ErrorUnchanged(t *testing.T) {
	f := MustNewFactory(0)
	var calls []string
	advisors := []*aop.Advisor{aop.NewAdvisor(aop.True, mockRecordAdvice("a1", &calls))}

	p, err := Build[greeter](f, &greeterImpl{}, advisors, false)
	r.NoError(t, err)
	_, err = p.Greet(context.Background(), "ex")
	r.Same(t, errBadName, err)

	sub, err := Build(f, newGreeterFuncs(), advisors, false)
	r.NoError(t, err)
	_, err = sub.Greet(context.Background(), "ex")
	r.Same(t, errBadName, err)
}

func TestBuild_Subclass(t *testing.T) {
	f := MustNewFactory(0)
	var calls []string
	advisors := []*aop.Advisor{aop.NewAdvisor(aop.Not(aop.Named("Skip")), mockRecordAdvice("a1", &calls))}

	target := newGreeterFuncs()
	p, err := Build(f, target, advisors, false)
	r.NoError(t, err)
	r.NotSame(t, target, p)

	out, err := p.Greet(context.Background(), "bob")
	r.NoError(t, err)
	r.Equal(t, "hello bob", out)
	r.Equal(t, []string{"a1 before", "a1 after"}, calls)

	// methods aren't overridable, but run on the copy and reach the overridden fields
	calls = nil
	r.Equal(t, "hello bob!", p.Shout(context.Background(), "bob"))
	r.Equal(t, []string{"a1 before", "a1 after"}, calls)

	calls = nil
	r.Equal(t, "p:b", p.Join("p", "a", "b"))
	r.Equal(t, []string{"a1 before", "a1 after"}, calls)

	calls = nil
	r.Equal(t, "skipped", p.Skip())
	r.Empty(t, calls)
	r.Equal(t, "tagged", p.Tagged())
	r.Equal(t, []string{"a1 before", "a1 after"}, calls)
	r.Equal(t, 7, p.state)

	d, ok := DescriptorOf(p)
	r.True(t, ok)
	r.Equal(t, SubclassBased, d.Strategy)
	r.Same(t, target, d.Target)
	r.False(t, IsProxy(target))

	Release(p)
	r.False(t, IsProxy(p))
}

func TestBuild_Subclass_NilContext(t *testing.T) {
	f := MustNewFactory(0)
	var seen []context.Context
	target := newGreeterFuncs()
	target.Greet = func(ctx context.Context, name string) (string, error) {
		seen = append(seen, ctx)
		return name, nil
	}
	p, err := Build(f, target, []*aop.Advisor{aop.NewAdvisor(aop.False, mockRecordAdvice("a1", nil))}, false)
	r.NoError(t, err)

	_, err = p.Greet(nil, "bob")
	r.NoError(t, err)
	r.Len(t, seen, 1)
	r.Nil(t, seen[0])
}

func TestBuild_ForceSubclass(t *testing.T) {
	f := MustNewFactory(0)
	var calls []string
	advisors := []*aop.Advisor{aop.NewAdvisor(aop.True, mockRecordAdvice("a1", &calls))}

	var g greeter = newGreeterTable()
	p, err := Build(f, g, advisors, true)
	r.NoError(t, err)
	d, _ := DescriptorOf(p)
	r.Equal(t, SubclassBased, d.Strategy)
	r.True(t, d.ForceSubclass)

	out, err := p.Greet(context.Background(), "bob")
	r.NoError(t, err)
	r.Equal(t, "hello bob", out)
	r.Equal(t, []string{"a1 before", "a1 after"}, calls)

	// an interface target without func fields can't be subclassed
	_, err = Build[greeter](f, &greeterImpl{}, advisors, true)
	r.ErrorIs(t, err, ErrProxyConstruction)
}

func TestBuild_ConstructionErrors(t *testing.T) {
	f := MustNewFactory(0)
	advisors := []*aop.Advisor{aop.NewAdvisor(aop.True, mockRecordAdvice("a1", nil))}

	tests := []struct {
		name  string
		build func() error
	}{
		{"nil interface", func() error {
			_, err := Build[greeter](f, nil, advisors, false)
			return err
		}},
		{"nil pointer", func() error {
			_, err := Build[*greeterFuncs](f, nil, advisors, false)
			return err
		}},
		{"not a struct pointer", func() error {
			_, err := Build(f, greeterFuncs{}, advisors, false)
			return err
		}},
		{"final", func() error {
			_, err := Build(f, &finalFuncs{Run: func() {}}, advisors, false)
			return err
		}},
		{"required unexported", func() error {
			_, err := Build(f, &requiredFuncs{Run: func() {}, check: func() {}}, advisors, false)
			return err
		}},
		{"no overridable operation", func() error {
			_, err := Build(f, &greeterFuncs{}, advisors, false)
			return err
		}},
		{"no stub", func() error {
			_, err := Build[unregistered](f, &greeterImpl{}, advisors, false)
			return err
		}},
		{"broken stub", func() error {
			_, err := Build[broken](f, &greeterImpl{}, advisors, false)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build()
			r.Error(t, err)
			r.True(t, errors.Is(err, ErrProxyConstruction), err.Error())
		})
	}
}

func TestBuild_ChainsShared(t *testing.T) {
	f := MustNewFactory(0)
	advisors := []*aop.Advisor{aop.NewAdvisor(aop.True, mockRecordAdvice("a1", nil))}

	p1, err := Build[greeter](f, &greeterImpl{}, advisors, false)
	r.NoError(t, err)
	p2, err := Build[greeter](f, &greeterImpl{}, advisors, false)
	r.NoError(t, err)

	r.Same(t, p1.(*greeterProxy).greet.Chain(), p2.(*greeterProxy).greet.Chain())
	r.Equal(t, 2, f.ChainCache().Len())
}

func TestBuild_Layered(t *testing.T) {
	f := MustNewFactory(0)
	var calls []string
	inner := []*aop.Advisor{aop.NewAdvisor(aop.True, mockRecordAdvice("inner", &calls))}
	outer := []*aop.Advisor{aop.NewAdvisor(aop.True, mockRecordAdvice("outer", &calls))}

	p1, err := Build[greeter](f, &greeterImpl{}, inner, false)
	r.NoError(t, err)
	p2, err := Build(f, p1, outer, false)
	r.NoError(t, err)

	_, err = p2.Greet(context.Background(), "bob")
	r.NoError(t, err)
	r.Equal(t, []string{"outer before", "inner before", "inner after", "outer after"}, calls)

	d, _ := DescriptorOf(p2)
	r.Same(t, p1, d.Target)

	calls = nil
	s1, err := Build(f, newGreeterFuncs(), inner, false)
	r.NoError(t, err)
	s2, err := Build(f, s1, outer, false)
	r.NoError(t, err)
	_, err = s2.Greet(context.Background(), "bob")
	r.NoError(t, err)
	r.Equal(t, []string{"outer before", "inner before", "inner after", "outer after"}, calls)
}

func TestAutoBuild(t *testing.T) {
	f := MustNewFactory(0)
	none := []*aop.Advisor{aop.NewAdvisor(aop.Named("Nothing*"), mockRecordAdvice("a1", nil))}
	some := []*aop.Advisor{aop.NewAdvisor(aop.Named("Count"), mockRecordAdvice("a1", nil))}

	target := &greeterImpl{}
	p, proxied, err := AutoBuild[greeter](f, target, none, false)
	r.NoError(t, err)
	r.False(t, proxied)
	r.Same(t, target, p)

	p, proxied, err = AutoBuild[greeter](f, target, some, false)
	r.NoError(t, err)
	r.True(t, proxied)
	r.True(t, IsProxy(p))

	// a matched interface method that a forced subclass can't override is an error
	p, proxied, err = AutoBuild[greeter](f, target, some, true)
	r.ErrorIs(t, err, ErrProxyConstruction)
	r.False(t, proxied)
	r.Same(t, target, p)

	var g greeter = newGreeterTable()
	greet := []*aop.Advisor{aop.NewAdvisor(aop.Named("Greet"), mockRecordAdvice("a1", nil))}
	p, proxied, err = AutoBuild(f, g, greet, true)
	r.NoError(t, err)
	r.True(t, proxied)
	r.True(t, IsProxy(p))

	funcs := newGreeterFuncs()
	sp, proxied, err := AutoBuild(f, funcs, []*aop.Advisor{aop.NewAdvisor(aop.Named("Skip"), mockRecordAdvice("a1", nil))}, false)
	r.NoError(t, err)
	r.False(t, proxied)
	r.Same(t, funcs, sp)

	ops := Operations[*greeterFuncs](funcs, false)
	names := make([]string, 0, len(ops))
	for _, m := range ops {
		names = append(names, m.Name)
	}
	r.Equal(t, []string{"Greet", "Join", "Tagged"}, names)
}

func TestStrategy_String(t *testing.T) {
	r.Equal(t, "interface", InterfaceBased.String())
	r.Equal(t, "subclass", SubclassBased.String())
	r.Equal(t, "Strategy(9)", Strategy(9).String())
}

//mockers

var errBadName = errors.New("bad name")

type greeter interface {
	Greet(ctx context.Context, name string) (string, error)
	Count(a, b int) int
}

type unregistered interface {
	Greet(ctx context.Context, name string) (string, error)
}

type broken interface {
	Greet(ctx context.Context, name string) (string, error)
}

type greeterImpl struct{}

func (g *greeterImpl) Greet(_ context.Context, name string) (string, error) {
	if name == "ex" {
		return "", errBadName
	}
	return "hello " + name, nil
}

func (g *greeterImpl) Count(a, b int) int {
	return a + b
}

type greeterProxy struct {
	h     *Handle
	greet *Binding
	count *Binding
}

func (p *greeterProxy) ProxyDescriptor() *Descriptor {
	return p.h.Descriptor()
}

func (p *greeterProxy) Greet(ctx context.Context, name string) (string, error) {
	res, err := p.greet.Invoke(ctx, name)
	return aop.Out[string](res, 0), err
}

func (p *greeterProxy) Count(a, b int) int {
	res, _ := p.count.Invoke(context.Background(), a, b)
	return aop.Out[int](res, 0)
}

type brokenProxy struct {
	h *Handle
}

func (p *brokenProxy) ProxyDescriptor() *Descriptor {
	return p.h.Descriptor()
}

func (p *brokenProxy) Greet(context.Context, string) (string, error) {
	return "", nil
}

func init() {
	Register[greeter](func(h *Handle) greeter {
		return &greeterProxy{
			h:     h,
			greet: h.Bind("Greet"),
			count: h.Bind("Count"),
		}
	})
	// binds nothing
	Register[broken](func(h *Handle) broken {
		return &brokenProxy{h: h}
	})
}

type greeterFuncs struct {
	Greet  func(ctx context.Context, name string) (string, error)
	Join   func(prefix string, names ...string) string
	Skip   func() string `proxy:"-"`
	Tagged func() string `proxy:"required"`

	state int
}

func newGreeterFuncs() *greeterFuncs {
	impl := &greeterImpl{}
	return &greeterFuncs{
		Greet: impl.Greet,
		Join: func(prefix string, names ...string) string {
			return prefix + ":" + names[len(names)-1]
		},
		Skip: func() string {
			return "skipped"
		},
		Tagged: func() string {
			return "tagged"
		},
		state: 7,
	}
}

func (g *greeterFuncs) Shout(ctx context.Context, name string) string {
	out, _ := g.Greet(ctx, name)
	return out + "!"
}

// greeterTable implements greeter on top of an overridable func field.
type greeterTable struct {
	Hello func(ctx context.Context, name string) (string, error)
}

func newGreeterTable() *greeterTable {
	return &greeterTable{Hello: (&greeterImpl{}).Greet}
}

func (g *greeterTable) Greet(ctx context.Context, name string) (string, error) {
	return g.Hello(ctx, name)
}

func (g *greeterTable) Count(a, b int) int {
	return a + b
}

type finalFuncs struct {
	Final
	Run func()
}

type requiredFuncs struct {
	Run   func()
	check func() `proxy:"required"`
}

func mockRecordAdvice(name string, calls *[]string) aop.Advice {
	return aop.AdviceFunc(func(ctx context.Context, inv *aop.Invocation, next aop.Handler) ([]any, error) {
		if calls != nil {
			*calls = append(*calls, name+" before")
		}
		res, err := next(ctx, inv)
		if calls != nil {
			*calls = append(*calls, name+" after")
		}
		return res, err
	})
}
