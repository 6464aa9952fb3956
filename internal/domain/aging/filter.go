package aging

import (
	"github.com/google/cel-go/cel"

	"tillbook/internal/core/apperror"
)

// customerFilter evaluates a CEL expression against customer attributes.
// The expression sees two string variables, code and name, and must
// produce a bool:
//
//	code.startsWith("WHOLESALE")
//	name.contains("GmbH") || code == "C-0042"
type customerFilter struct {
	prg cel.Program
}

func compileCustomerFilter(expr string) (*customerFilter, error) {
	env, err := cel.NewEnv(
		cel.Variable("code", cel.StringType),
		cel.Variable("name", cel.StringType),
	)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, apperror.NewValidation("invalid customer filter: " + iss.Err().Error())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, apperror.NewValidation("customer filter must evaluate to a boolean")
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, apperror.NewValidation("invalid customer filter: " + err.Error())
	}
	return &customerFilter{prg: prg}, nil
}

func (f *customerFilter) Match(code, name string) (bool, error) {
	out, _, err := f.prg.Eval(map[string]any{
		"code": code,
		"name": name,
	})
	if err != nil {
		return false, apperror.NewValidation("customer filter evaluation failed: " + err.Error())
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, apperror.NewValidation("customer filter must evaluate to a boolean")
	}
	return b, nil
}
