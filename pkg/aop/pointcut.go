package aop

import "strings"

// Pointcut decides whether a method gets intercepted.
// Implementations are immutable and safe for concurrent use.
type Pointcut interface {
	Matches(m *Method) bool
}

type PointcutFunc func(m *Method) bool

func (f PointcutFunc) Matches(m *Method) bool {
	return f(m)
}

var (
	// True matches every method.
	True Pointcut = PointcutFunc(func(*Method) bool { return true })
	// False matches nothing.
	False Pointcut = PointcutFunc(func(*Method) bool { return false })
)

// NameMatch matches methods whose name matches one of its masks.
type NameMatch struct {
	masks []string
}

func NewNameMatch(masks ...string) *NameMatch {
	return &NameMatch{masks: append([]string(nil), masks...)}
}

func (p *NameMatch) Masks() []string {
	return append([]string(nil), p.masks...)
}

func (p *NameMatch) Matches(m *Method) bool {
	return SimpleMatchAny(p.masks, m.Name)
}

// SimpleMatchAny reports whether name matches at least one mask.
func SimpleMatchAny(masks []string, name string) bool {
	for _, mask := range masks {
		if SimpleMatch(mask, name) {
			return true
		}
	}
	return false
}

// SimpleMatch matches name against a shell-style mask where '*' stands for
// any run of characters and every other character is literal.
// "request*", "*est" and "re*st" all match "request".
func SimpleMatch(mask, name string) bool {
	star := strings.IndexByte(mask, '*')
	if star == -1 {
		return mask == name
	}
	if star > 0 {
		if !strings.HasPrefix(name, mask[:star]) {
			return false
		}
		return SimpleMatch(mask[star:], name[star:])
	}
	// mask 以 * 开头
	if len(mask) == 1 {
		return true
	}
	next := strings.IndexByte(mask[1:], '*')
	if next == -1 {
		return strings.HasSuffix(name, mask[1:])
	}
	part := mask[1 : next+1]
	if part == "" {
		// "**" 等价于 "*"
		return SimpleMatch(mask[1:], name)
	}
	for i := strings.Index(name, part); i != -1; {
		if SimpleMatch(mask[next+1:], name[i+len(part):]) {
			return true
		}
		j := strings.Index(name[i+1:], part)
		if j == -1 {
			break
		}
		i += j + 1
	}
	return false
}

// Within matches methods declared in package prefix or in any package below it.
func Within(prefix string) Pointcut {
	prefix = strings.TrimSuffix(prefix, "/")
	return PointcutFunc(func(m *Method) bool {
		return within(m.Package(), prefix)
	})
}

func within(pkg, prefix string) bool {
	return pkg == prefix || strings.HasPrefix(pkg, prefix+"/")
}

// Named matches methods whose name matches mask.
func Named(mask string) Pointcut {
	return PointcutFunc(func(m *Method) bool {
		return SimpleMatch(mask, m.Name)
	})
}

// TypeNamed matches methods whose declaring type's simple name matches mask.
func TypeNamed(mask string) Pointcut {
	return PointcutFunc(func(m *Method) bool {
		return SimpleMatch(mask, m.ShortTypeName())
	})
}

// ParamCount matches methods taking exactly n parameters besides a leading context.
func ParamCount(n int) Pointcut {
	return PointcutFunc(func(m *Method) bool {
		return len(m.Params) == n
	})
}

func And(pcs ...Pointcut) Pointcut {
	return PointcutFunc(func(m *Method) bool {
		for _, pc := range pcs {
			if !pc.Matches(m) {
				return false
			}
		}
		return true
	})
}

func Or(pcs ...Pointcut) Pointcut {
	return PointcutFunc(func(m *Method) bool {
		for _, pc := range pcs {
			if pc.Matches(m) {
				return true
			}
		}
		return false
	})
}

func Not(pc Pointcut) Pointcut {
	return PointcutFunc(func(m *Method) bool {
		return !pc.Matches(m)
	})
}
