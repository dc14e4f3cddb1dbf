package evaluator

import (
	"context"
	"errors"
	"fmt"
	"slices"

	risorLib "github.com/risor-io/risor"
	risorCompiler "github.com/risor-io/risor/compiler"
	risorErrors "github.com/risor-io/risor/errz"
	risorParser "github.com/risor-io/risor/parser"
)

// compile parses and compiles src into bytecode. The compiler must know every global the
// script may reference: the Risor defaults plus the names installed into the scope.
func compile(ctx context.Context, src string, scopeNames []string) (*risorCompiler.Code, error) {
	ast, err := risorParser.Parse(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompileFailed, err)
	}

	globalNames := risorLib.NewConfig().GlobalNames()
	for _, name := range scopeNames {
		if !slices.Contains(globalNames, name) {
			globalNames = append(globalNames, name)
		}
	}
	bc, err := risorCompiler.Compile(ast, risorCompiler.WithGlobalNames(globalNames))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompileFailed, err)
	}
	return bc, nil
}

// friendlyMessage returns the multi-line parser message with source context when err carries
// one.
func friendlyMessage(err error) (string, bool) {
	var friendlyErr risorErrors.FriendlyError
	if errors.As(err, &friendlyErr) {
		return friendlyErr.FriendlyErrorMessage(), true
	}
	return "", false
}
