package celengine

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// Program is a compiled boolean CEL expression.
type Program struct {
	Expr string
	prg  cel.Program
}

// NewEnv declares every variable with a fixed type so expressions are type
// checked at compile time.
func NewEnv(vars map[string]*cel.Type) (*cel.Env, error) {
	opts := make([]cel.EnvOption, 0, len(vars))
	for name, typ := range vars {
		opts = append(opts, cel.Variable(name, typ))
	}
	return cel.NewEnv(opts...)
}

// Compile checks expr and requires it to produce a bool.
func Compile(env *cel.Env, expr string) (*Program, error) {
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}

	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("expression %q must return bool, got %s", expr, ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, err
	}

	return &Program{Expr: expr, prg: prg}, nil
}

func (p *Program) Eval(attrs map[string]any) (bool, error) {
	out, _, err := p.prg.Eval(attrs)
	if err != nil {
		return false, err
	}

	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expected bool from expression, got %T (%v)", out.Value(), out.Value())
	}

	return b, nil
}
