package evaluator

import (
	"fmt"

	starlarkLib "go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

const (
	// scriptFilename appears in positions of syntax and runtime errors.
	scriptFilename = "<eval>"

	// resultGlobal receives the value of a trailing expression statement.
	resultGlobal = "__eval_result__"
)

// fileOptions enables the Python features Starlark gates behind flags.
var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// program is a compiled script plus whether its last statement yields the result.
type program struct {
	prog      *starlarkLib.Program
	hasResult bool
}

// compile parses src as one block and resolves it against the predeclared scope names. When
// the last top-level statement is an expression, it is rewritten into an assignment to
// resultGlobal so the block's value can be read back after execution.
func compile(src string, predeclared starlarkLib.StringDict) (*program, error) {
	f, err := fileOptions.Parse(scriptFilename, src, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompileFailed, err)
	}

	hasResult := captureTrailingExpr(f)

	prog, err := starlarkLib.FileProgram(f, predeclared.Has)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompileFailed, err)
	}
	return &program{prog: prog, hasResult: hasResult}, nil
}

func captureTrailingExpr(f *syntax.File) bool {
	if len(f.Stmts) == 0 {
		return false
	}
	last, ok := f.Stmts[len(f.Stmts)-1].(*syntax.ExprStmt)
	if !ok {
		return false
	}

	pos, _ := last.X.Span()
	f.Stmts[len(f.Stmts)-1] = &syntax.AssignStmt{
		OpPos: pos,
		Op:    syntax.EQ,
		LHS:   &syntax.Ident{NamePos: pos, Name: resultGlobal},
		RHS:   last.X,
	}
	return true
}

// result picks the block value out of the globals left by Init.
func (p *program) result(globals starlarkLib.StringDict) starlarkLib.Value {
	if !p.hasResult {
		return starlarkLib.None
	}
	v, ok := globals[resultGlobal]
	if !ok || v == nil {
		return starlarkLib.None
	}
	return v
}
