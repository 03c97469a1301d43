// Package scan finds computations in Go source without compiling or running it.
//
// Dir parses the non-test files of a package directory and applies the registration rules of
// operations.CheckEligibility to the declared signatures of its top-level functions. Generate
// writes a Candidates function listing what was found, for use with
// operations.OperationRegistry.BulkDiscover.
package scan

import (
	"cmp"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"
)

const (
	ContextImportPath = "context"
	MemoryImportPath  = "github.com/smartcontractkit/pipes-framework/memory"
	ContentImportPath = "github.com/smartcontractkit/pipes-framework/content"
)

var (
	ErrNoPackage = errors.New("no Go package found")

	// contentValues are the exported content types usable as results.
	contentValues = []string{"Value", "Text", "Number", "Record", "JSON", "List"}
)

// Function is an eligible computation found by Dir.
type Function struct {
	// Name is the registration name, the snake_case form of GoName.
	Name         string
	GoName       string
	Pos          token.Position
	ContextAware bool
	// Result is the source form of the first result type.
	Result string
}

// Skipped is a top-level function that is not an eligible computation.
type Skipped struct {
	GoName string
	Pos    token.Position
	Reason string
}

// Result is the outcome of scanning one package directory.
type Result struct {
	Dir       string
	Package   string
	Functions []Function
	Skipped   []Skipped
}

// Dir scans the package in dir. Test files, the generated candidates file and functions named
// like the generated function are ignored.
func Dir(dir string, opts ...Option) (*Result, error) {
	cfg := newConfig(opts)

	paths, err := filepath.Glob(filepath.Join(dir, "*.go"))
	if err != nil {
		return nil, err
	}

	fset := token.NewFileSet()
	var files []*ast.File
	for _, p := range paths {
		base := filepath.Base(p)
		if strings.HasSuffix(base, "_test.go") || base == cfg.fileName {
			continue
		}
		f, err := parser.ParseFile(fset, p, nil, parser.SkipObjectResolution)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", p, err)
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoPackage, dir)
	}

	res := &Result{Dir: dir, Package: files[0].Name.Name}
	values := localValues(files)

	for _, f := range files {
		if f.Name.Name != res.Package {
			return nil, fmt.Errorf("%s: found packages %s and %s", dir, res.Package, f.Name.Name)
		}
		imports := importNames(f)

		for _, decl := range f.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Recv != nil || fn.Name.Name == "init" || fn.Name.Name == "main" || fn.Name.Name == cfg.funcName {
				continue
			}

			pos := fset.Position(fn.Pos())
			ctxAware, result, reason := check(fn, imports, values)
			if reason != "" {
				res.Skipped = append(res.Skipped, Skipped{GoName: fn.Name.Name, Pos: pos, Reason: reason})
				continue
			}
			res.Functions = append(res.Functions, Function{
				Name:         strcase.ToSnake(fn.Name.Name),
				GoName:       fn.Name.Name,
				Pos:          pos,
				ContextAware: ctxAware,
				Result:       result,
			})
		}
	}

	slices.SortFunc(res.Functions, func(a, b Function) int { return cmp.Compare(a.Name, b.Name) })
	slices.SortFunc(res.Skipped, func(a, b Skipped) int { return cmp.Compare(a.GoName, b.GoName) })

	return res, nil
}

// importNames maps the names imports are referred to by in f to their paths.
func importNames(f *ast.File) map[string]string {
	names := make(map[string]string, len(f.Imports))
	for _, imp := range f.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		name := path[strings.LastIndex(path, "/")+1:]
		if imp.Name != nil {
			name = imp.Name.Name
		}
		names[name] = path
	}

	return names
}

// localValues returns the package types declaring both Kind and TypeName methods.
func localValues(files []*ast.File) map[string]bool {
	methods := make(map[string]map[string]bool)
	for _, f := range files {
		for _, decl := range f.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Recv == nil || len(fn.Recv.List) != 1 {
				continue
			}
			recv := fn.Recv.List[0].Type
			if star, isStar := recv.(*ast.StarExpr); isStar {
				recv = star.X
			}
			ident, isIdent := recv.(*ast.Ident)
			if !isIdent {
				continue
			}
			if methods[ident.Name] == nil {
				methods[ident.Name] = make(map[string]bool)
			}
			methods[ident.Name][fn.Name.Name] = true
		}
	}

	values := make(map[string]bool)
	for typ, m := range methods {
		if m["Kind"] && m["TypeName"] {
			values[typ] = true
		}
	}

	return values
}

// check applies the eligibility rules to the declared signature of fn. It returns a non empty
// reason when fn is not eligible.
func check(fn *ast.FuncDecl, imports map[string]string, values map[string]bool) (bool, string, string) {
	if fn.Type.TypeParams != nil && len(fn.Type.TypeParams.List) > 0 {
		return false, "", "generic function"
	}

	params := expand(fn.Type.Params)
	ctxAware := false
	if len(params) == 2 && isSelector(params[0], imports, ContextImportPath, "Context") {
		ctxAware = true
		params = params[1:]
	}
	if len(params) != 1 {
		return false, "", fmt.Sprintf("takes %d parameters", len(expand(fn.Type.Params)))
	}
	star, ok := params[0].(*ast.StarExpr)
	if !ok || !isSelector(star.X, imports, MemoryImportPath, "WorkingMemory") {
		return false, "", "parameter is not *memory.WorkingMemory"
	}

	results := expand(fn.Type.Results)
	if len(results) != 2 {
		return false, "", fmt.Sprintf("returns %d values", len(results))
	}
	if ident, isIdent := results[1].(*ast.Ident); !isIdent || ident.Name != "error" {
		return false, "", "second result is not error"
	}

	result := exprString(results[0])
	if ident, isIdent := results[0].(*ast.Ident); isIdent && ident.Name == "string" {
		return ctxAware, result, ""
	}
	if arr, isArr := results[0].(*ast.ArrayType); isArr && arr.Len == nil {
		if !isValue(arr.Elt, imports, values) {
			return false, "", "result " + result + " is not a list of content values"
		}

		return ctxAware, result, ""
	}
	if !isValue(results[0], imports, values) {
		return false, "", "result " + result + " is not a content value"
	}

	return ctxAware, result, ""
}

// expand returns one type per declared name, so "a, b T" counts twice.
func expand(fl *ast.FieldList) []ast.Expr {
	if fl == nil {
		return nil
	}
	var out []ast.Expr
	for _, f := range fl.List {
		n := max(len(f.Names), 1)
		for range n {
			out = append(out, f.Type)
		}
	}

	return out
}

func isSelector(e ast.Expr, imports map[string]string, path, name string) bool {
	sel, ok := e.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != name {
		return false
	}
	pkg, ok := sel.X.(*ast.Ident)

	return ok && imports[pkg.Name] == path
}

func isValue(e ast.Expr, imports map[string]string, values map[string]bool) bool {
	if star, ok := e.(*ast.StarExpr); ok {
		e = star.X
	}
	switch t := e.(type) {
	case *ast.Ident:
		return values[t.Name]
	case *ast.SelectorExpr:
		for _, name := range contentValues {
			if isSelector(t, imports, ContentImportPath, name) {
				return true
			}
		}
	}

	return false
}

// exprString renders a type expression as written in source.
func exprString(e ast.Expr) string {
	switch t := e.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return "*" + exprString(t.X)
	case *ast.SelectorExpr:
		return exprString(t.X) + "." + t.Sel.Name
	case *ast.ArrayType:
		if t.Len == nil {
			return "[]" + exprString(t.Elt)
		}

		return "[...]" + exprString(t.Elt)
	case *ast.InterfaceType:
		return "interface{...}"
	case *ast.MapType:
		return "map[" + exprString(t.Key) + "]" + exprString(t.Value)
	default:
		return fmt.Sprintf("%T", e)
	}
}
