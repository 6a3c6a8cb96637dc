package main

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// SQLConcatAnalyzer - analyzer for database/sql calls whose query is built at run time
var SQLConcatAnalyzer = &analysis.Analyzer{
	Name:     "sqlconcat",
	Doc:      "check that database/sql queries are constant expressions; values must go through bound parameters",
	Run:      runSQLConcatAnalyzer,
	Requires: []*analysis.Analyzer{inspect.Analyzer},
}

// sqlMethods maps a database/sql method name to the index of its query argument.
var sqlMethods = map[string]int{
	"Exec":            0,
	"ExecContext":     1,
	"Query":           0,
	"QueryContext":    1,
	"QueryRow":        0,
	"QueryRowContext": 1,
	"Prepare":         0,
	"PrepareContext":  1,
}

// runSQLConcatAnalyzer - reports query arguments that are not compile-time constants
func runSQLConcatAnalyzer(pass *analysis.Pass) (interface{}, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.CallExpr)(nil),
	}

	inspect.Preorder(nodeFilter, func(n ast.Node) {
		callExpr := n.(*ast.CallExpr)

		selExpr, ok := callExpr.Fun.(*ast.SelectorExpr)
		if !ok {
			return
		}
		argIndex, ok := sqlMethods[selExpr.Sel.Name]
		if !ok || len(callExpr.Args) <= argIndex {
			return
		}

		// Only methods declared in database/sql
		fn, ok := pass.TypesInfo.ObjectOf(selExpr.Sel).(*types.Func)
		if !ok || fn.Pkg() == nil || fn.Pkg().Path() != "database/sql" {
			return
		}

		query := callExpr.Args[argIndex]
		if tv, ok := pass.TypesInfo.Types[query]; ok && tv.Value != nil {
			return
		}

		pass.Reportf(query.Pos(), "query passed to %s is not a constant expression: %s",
			selExpr.Sel.Name, describe(query))
	})

	return nil, nil
}

// describe names the offending expression for the report
func describe(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.BinaryExpr:
		return "string concatenation"
	case *ast.CallExpr:
		if sel, ok := e.Fun.(*ast.SelectorExpr); ok {
			if pkg, ok := sel.X.(*ast.Ident); ok && strings.HasPrefix(sel.Sel.Name, "Sprint") {
				return pkg.Name + "." + sel.Sel.Name + " call"
			}
		}
		return "function call"
	default:
		return "non-constant value"
	}
}
