package cel

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"
)

// Input is the set of variables a filter expression can see.
type Input struct {
	Text           string
	Channel        string
	TS             string
	HasAttachments bool
}

func (in Input) vars() map[string]interface{} {
	return map[string]interface{}{
		"text":            in.Text,
		"channel":         in.Channel,
		"ts":              in.TS,
		"has_attachments": in.HasAttachments,
	}
}

type Evaluator struct {
	env *cel.Env
}

func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("text", cel.StringType),
		cel.Variable("channel", cel.StringType),
		cel.Variable("ts", cel.StringType),
		cel.Variable("has_attachments", cel.BoolType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Evaluator{env: env}, nil
}

func (e *Evaluator) ValidateFilterExpression(expression string) error {
	_, err := e.CompileFilter(expression)
	return err
}

// CompileFilter compiles an expression that must produce a bool.
func (e *Evaluator) CompileFilter(expression string) (cel.Program, error) {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL expression validation failed: %w", issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("filter expression must return bool, got %v", ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	return program, nil
}

func (e *Evaluator) EvaluateFilter(ctx context.Context, program cel.Program, in Input) (bool, error) {
	result, _, err := program.ContextEval(ctx, in.vars())
	if err != nil {
		return false, fmt.Errorf("failed to evaluate CEL expression: %w", err)
	}

	boolVal, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("CEL expression did not return bool, got %T", result.Value())
	}

	return boolVal, nil
}
