package calc

import (
	"context"

	"github.com/nugget/agentic/internal/tools"
)

// ToolName is the name the calculator is registered under.
const ToolName = "calculator"

// Tool returns the calculator tool. Its handler never fails: every
// problem with the expression comes back as an "Error: ..." string the
// model can read.
func Tool() *tools.Tool {
	return &tools.Tool{
		Name:        ToolName,
		Description: "Safely evaluate simple arithmetic expressions. No variables or functions allowed. Supports + - * / // ** and parentheses.",
		Schema: tools.Schema{Params: []tools.Param{
			{Name: "expression", Kind: tools.KindString, Description: "Arithmetic expression, e.g. (17*23)/2", Required: true},
		}},
		Handler: func(_ context.Context, args tools.Args) (any, error) {
			return Calculate(args.String("expression")), nil
		},
	}
}
