package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stleox/logtrace/pkg/config"
	"github.com/stleox/logtrace/pkg/proxy"
	r "github.com/stretchr/testify/require"
)

func TestRun_Traces(t *testing.T) {
	for _, version := range []string{"v1", "v2"} {
		t.Run(version, func(t *testing.T) {
			lines := mockExecute(t, "run", "--proxy-version", version, "--delay", "0s", "--count", "2")
			r.Len(t, lines, 12)
			r.Contains(t, lines[0], `-->OrderController`+strings.ToUpper(version)+`.Request()`)
			r.Contains(t, lines[11], `<--OrderController`+strings.ToUpper(version)+`.Request()`)
		})
	}
}

func TestRun_Expression(t *testing.T) {
	lines := mockExecute(t, "run", "--delay", "0s", "--item-id", "ex",
		"--expression", `TypeNamed("*Repository*")`)
	r.Len(t, lines, 2)
	r.Contains(t, lines[0], "-->OrderRepositoryV1.Save()")
	r.Contains(t, lines[1], "<X-OrderRepositoryV1.Save()")
	r.Contains(t, lines[1], "ex=exception occurred")
}

func TestRun_BadExpression(t *testing.T) {
	root := New(NewViper())
	root.SetArgs([]string{"run", "--expression", "Within("})
	r.Error(t, root.Execute())
}

func TestRun_ForceSubclassV1(t *testing.T) {
	root := New(NewViper())
	root.SetArgs([]string{"run", "--delay", "0s", "--force-subclass"})
	err := root.Execute()
	r.ErrorIs(t, err, proxy.ErrProxyConstruction)
}

func TestRun_Env(t *testing.T) {
	t.Setenv("LOGTRACE_PROXY_VERSION", "v2")
	lines := mockExecute(t, "run", "--delay", "0s")
	r.Len(t, lines, 6)
	r.Contains(t, lines[2], "|   |-->OrderRepositoryV2.Save()")
}

func TestGen(t *testing.T) {
	out := filepath.Join(t.TempDir(), "proxy_gen.go")
	root := New(NewViper())
	root.SetArgs([]string{"gen", "--src", "../app/v1/order.go", "--type", "OrderRepositoryV1", "--out", out})
	r.NoError(t, root.Execute())

	src, err := os.ReadFile(out)
	r.NoError(t, err)
	r.Contains(t, string(src), "proxy.Register[OrderRepositoryV1](newOrderRepositoryV1Proxy)")
}

//mockers

// mockExecute runs the root command with args and returns the trace lines it wrote.
func mockExecute(t *testing.T, args ...string) []string {
	var buf bytes.Buffer
	config.SetTraceOutput(&buf)
	t.Cleanup(func() {
		config.SetTraceOutput(os.Stdout)
	})

	root := New(NewViper())
	root.SetArgs(args)
	r.NoError(t, root.Execute())

	var lines []string
	for _, l := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
