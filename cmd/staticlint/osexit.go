package main

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
	"golang.org/x/tools/go/types/typeutil"
)

// OSExitAnalyzer - analyzer for direct os.Exit calls in func main of package main
var OSExitAnalyzer = &analysis.Analyzer{
	Name:     "osexit",
	Doc:      "check for direct os.Exit calls in func main of package main",
	Run:      runOSExitAnalyzer,
	Requires: []*analysis.Analyzer{inspect.Analyzer},
}

// runOSExitAnalyzer - reports os.Exit calls in the body of func main, however os is imported.
// Calls inside function literals declared in main are not reported.
func runOSExitAnalyzer(pass *analysis.Pass) (interface{}, error) {
	if pass.Pkg.Name() != "main" {
		return nil, nil
	}

	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	inspect.Preorder([]ast.Node{(*ast.FuncDecl)(nil)}, func(n ast.Node) {
		fn := n.(*ast.FuncDecl)
		if fn.Name.Name != "main" || fn.Recv != nil || fn.Body == nil {
			return
		}

		ast.Inspect(fn.Body, func(node ast.Node) bool {
			switch node := node.(type) {
			case *ast.FuncLit:
				return false
			case *ast.CallExpr:
				if isOSExit(pass.TypesInfo, node) {
					pass.Reportf(node.Pos(), "direct call to os.Exit is not allowed in main function of main package")
				}
			}
			return true
		})
	})

	return nil, nil
}

// isOSExit resolves the callee through type information.
func isOSExit(info *types.Info, call *ast.CallExpr) bool {
	callee, ok := typeutil.Callee(info, call).(*types.Func)
	return ok && callee.Pkg() != nil && callee.Pkg().Path() == "os" && callee.Name() == "Exit"
}
