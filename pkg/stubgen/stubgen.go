package stubgen

import (
	"bytes"
	"errors"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sirupsen/logrus"
)

const (
	proxyImport = "github.com/stleox/logtrace/pkg/proxy"
	aopImport   = "github.com/stleox/logtrace/pkg/aop"

	Header = "// Code generated by logtrace gen. DO NOT EDIT."
)

var (
	ErrTypeNotFound = errors.New("interface not found")
	ErrUnsupported  = errors.New("interface not supported")
)

// GenerateFile renders the stubs of types declared in the Go file at path.
func GenerateFile(path string, types []string) ([]byte, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "reading source", goerr.V("path", path))
	}
	return Generate(path, src, types)
}

// Generate renders one stub per interface in types, each registered with
// proxy.Register from an init func. filename is only used in error positions.
func Generate(filename string, src []byte, types []string) ([]byte, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, src, parser.SkipObjectResolution)
	if err != nil {
		return nil, goerr.Wrap(err, "parsing source", goerr.V("file", filename))
	}

	data := fileData{Package: f.Name.Name}
	used := map[string]bool{}
	needAop := false
	for _, name := range types {
		it, err := findInterface(f, name)
		if err != nil {
			return nil, err
		}
		iface, err := buildInterface(fset, name, it, used)
		if err != nil {
			return nil, err
		}
		for _, m := range iface.Methods {
			if m.results > 0 {
				needAop = true
			}
		}
		data.Ifaces = append(data.Ifaces, iface)
	}
	data.Imports = collectImports(f, used, needAop)

	var buf bytes.Buffer
	if err := stubTemplate.Execute(&buf, data); err != nil {
		return nil, goerr.Wrap(err, "rendering stub")
	}
	out, err := format.Source(buf.Bytes())
	if err != nil {
		logrus.Debugf("logtrace gen rendered unformattable source:\n%s", buf.String())
		return nil, goerr.Wrap(err, "formatting stub")
	}
	return out, nil
}

type fileData struct {
	Package string
	Imports [][]string
	Ifaces  []ifaceData
}

type ifaceData struct {
	Name    string
	Stub    string
	Ctor    string
	Methods []methodData
}

type methodData struct {
	Stub    string
	Name    string
	Field   string
	Params  string
	Results string
	Body    []string

	results int
}

func findInterface(f *ast.File, name string) (*ast.InterfaceType, error) {
	for _, decl := range f.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts := spec.(*ast.TypeSpec)
			if ts.Name.Name != name {
				continue
			}
			it, ok := ts.Type.(*ast.InterfaceType)
			if !ok {
				return nil, goerr.Wrap(ErrUnsupported, "type is not an interface", goerr.V("type", name))
			}
			if ts.TypeParams != nil && len(ts.TypeParams.List) > 0 {
				return nil, goerr.Wrap(ErrUnsupported, "generic interface", goerr.V("type", name))
			}
			return it, nil
		}
	}
	return nil, goerr.Wrap(ErrTypeNotFound, "no such type", goerr.V("type", name))
}

func buildInterface(fset *token.FileSet, name string, it *ast.InterfaceType, used map[string]bool) (ifaceData, error) {
	d := ifaceData{
		Name: name,
		Stub: lowerFirst(name) + "Proxy",
		Ctor: "new" + upperFirst(name) + "Proxy",
	}
	for _, field := range it.Methods.List {
		ft, ok := field.Type.(*ast.FuncType)
		if !ok || len(field.Names) == 0 {
			return d, goerr.Wrap(ErrUnsupported, "embedded interface or type constraint",
				goerr.V("type", name), goerr.V("pos", fset.Position(field.Pos()).String()))
		}
		collectSelectors(ft, used)
		d.Methods = append(d.Methods, buildMethod(fset, d.Stub, field.Names[0].Name, ft))
	}
	if len(d.Methods) == 0 {
		return d, goerr.Wrap(ErrUnsupported, "interface has no methods", goerr.V("type", name))
	}
	return d, nil
}

func buildMethod(fset *token.FileSet, stub, name string, ft *ast.FuncType) methodData {
	m := methodData{
		Stub:  stub,
		Name:  name,
		Field: fieldName(name),
	}

	var params, args []string
	ctxArg := "context.Background()"
	i := 0
	if ft.Params != nil {
		for _, field := range ft.Params.List {
			typ := exprString(fset, field.Type)
			names := field.Names
			if len(names) == 0 {
				names = []*ast.Ident{nil}
			}
			for _, n := range names {
				pn := paramName(n, i)
				params = append(params, pn+" "+typ)
				if i == 0 && typ == "context.Context" {
					ctxArg = pn
				} else {
					args = append(args, pn)
				}
				i++
			}
		}
	}
	m.Params = strings.Join(params, ", ")

	var results []string
	returnsError := false
	if ft.Results != nil {
		for _, field := range ft.Results.List {
			typ := exprString(fset, field.Type)
			n := len(field.Names)
			if n == 0 {
				n = 1
			}
			for j := 0; j < n; j++ {
				results = append(results, typ)
			}
		}
	}
	if len(results) > 0 && results[len(results)-1] == "error" {
		returnsError = true
		results = results[:len(results)-1]
	}
	m.results = len(results)

	all := append([]string(nil), results...)
	if returnsError {
		all = append(all, "error")
	}
	switch len(all) {
	case 0:
	case 1:
		m.Results = all[0]
	default:
		m.Results = "(" + strings.Join(all, ", ") + ")"
	}

	call := "p." + m.Field + ".Invoke(" + strings.Join(append([]string{ctxArg}, args...), ", ") + ")"
	switch {
	case len(results) == 0 && !returnsError:
		m.Body = []string{"_, _ = " + call}
	case len(results) == 0:
		m.Body = []string{"_, err := " + call, "return err"}
	default:
		lhs := "res, _ := "
		if returnsError {
			lhs = "res, err := "
		}
		outs := make([]string, 0, len(results)+1)
		for j, typ := range results {
			outs = append(outs, "aop.Out["+typ+"](res, "+strconv.Itoa(j)+")")
		}
		if returnsError {
			outs = append(outs, "err")
		}
		m.Body = []string{lhs + call, "return " + strings.Join(outs, ", ")}
	}
	return m
}

// collectSelectors records the package qualifiers referenced by ft.
func collectSelectors(ft *ast.FuncType, used map[string]bool) {
	ast.Inspect(ft, func(n ast.Node) bool {
		if sel, ok := n.(*ast.SelectorExpr); ok {
			if id, ok := sel.X.(*ast.Ident); ok {
				used[id.Name] = true
			}
		}
		return true
	})
}

// collectImports keeps the source imports used by the interfaces, plus what the stubs need.
func collectImports(f *ast.File, used map[string]bool, needAop bool) [][]string {
	specs := map[string]string{
		"context":   `"context"`,
		proxyImport: strconv.Quote(proxyImport),
	}
	if needAop {
		specs[aopImport] = strconv.Quote(aopImport)
	}
	for _, is := range f.Imports {
		path, _ := strconv.Unquote(is.Path.Value)
		local := path[strings.LastIndex(path, "/")+1:]
		spec := is.Path.Value
		if is.Name != nil {
			local = is.Name.Name
			spec = is.Name.Name + " " + is.Path.Value
		}
		if used[local] {
			specs[path] = spec
		}
	}

	var std, other []string
	for path, spec := range specs {
		if strings.Contains(strings.SplitN(path, "/", 2)[0], ".") {
			other = append(other, spec)
		} else {
			std = append(std, spec)
		}
	}
	sort.Strings(std)
	sort.Strings(other)

	var groups [][]string
	for _, g := range [][]string{std, other} {
		if len(g) > 0 {
			groups = append(groups, g)
		}
	}
	return groups
}

func exprString(fset *token.FileSet, e ast.Expr) string {
	var buf bytes.Buffer
	_ = format.Node(&buf, fset, e)
	return buf.String()
}

func paramName(id *ast.Ident, i int) string {
	if id == nil || id.Name == "_" || reserved[id.Name] {
		return "a" + strconv.Itoa(i)
	}
	return id.Name
}

// names the generated method bodies use
var reserved = map[string]bool{
	"p": true, "res": true, "err": true, "aop": true, "proxy": true, "context": true,
}

func fieldName(method string) string {
	n := lowerFirst(method)
	if n == "h" || token.IsKeyword(n) {
		n += "Fn"
	}
	return n
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

var stubTemplate = template.Must(template.New("stub").Parse(Header + `

package {{.Package}}

import (
{{- range $i, $g := .Imports}}
{{- if $i}}
{{end}}
{{- range $g}}
	{{.}}
{{- end}}
{{- end}}
)

func init() {
{{- range .Ifaces}}
	proxy.Register[{{.Name}}]({{.Ctor}})
{{- end}}
}
{{range .Ifaces}}
type {{.Stub}} struct {
	h *proxy.Handle
{{- range .Methods}}
	{{.Field}} *proxy.Binding
{{- end}}
}

func {{.Ctor}}(h *proxy.Handle) {{.Name}} {
	return &{{.Stub}}{
		h: h,
{{- range .Methods}}
		{{.Field}}: h.Bind("{{.Name}}"),
{{- end}}
	}
}

func (p *{{.Stub}}) ProxyDescriptor() *proxy.Descriptor {
	return p.h.Descriptor()
}
{{range .Methods}}
func (p *{{.Stub}}) {{.Name}}({{.Params}}) {{.Results}} {
{{- range .Body}}
	{{.}}
{{- end}}
}
{{end}}
{{- end}}`))
