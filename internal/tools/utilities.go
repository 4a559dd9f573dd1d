package tools

import (
	"context"
	"math"
	"strconv"

	"toolgate/internal/domain"
)

// UtilityService holds the general-purpose tools: the in-process maths
// evaluator and the reasoning model passthrough.
type UtilityService struct {
	openAI *OpenAIService
}

func NewUtilityService(openAI *OpenAIService) *UtilityService {
	return &UtilityService{openAI: openAI}
}

func (u *UtilityService) Tools() []Tool {
	return []Tool{
		{
			Def: domain.ToolDefinition{
				Name:        "solve_maths",
				Description: "Evaluate an arithmetic expression",
				Params: []domain.ParameterSpec{
					{Name: "expression", Kind: domain.KindString, Description: "Expression to evaluate, e.g. sqrt(2) * (3 + 4)^2", Required: true},
					{Name: "precision", Kind: domain.KindInteger, Description: "Decimal places in the result", Default: 6},
				},
			},
			Handler: domain.HandlerFunc(u.solveMaths),
		},
		{
			Def: domain.ToolDefinition{
				Name:        "ask_openai_reasoning",
				Description: "Ask the reasoning model a question and return its answer",
				Params: []domain.ParameterSpec{
					{Name: "prompt", Kind: domain.KindString, Description: "Question or task for the reasoning model", Required: true},
				},
			},
			Handler: domain.HandlerFunc(u.askReasoning),
		},
	}
}

func (u *UtilityService) solveMaths(ctx context.Context, args domain.Args) (any, error) {
	value, err := evalExpression(argString(args, "expression"))
	if err != nil {
		return nil, err
	}

	precision := argInt(args, "precision")
	if precision < 0 {
		precision = 0
	}
	if precision > 15 {
		precision = 15
	}
	scale := math.Pow(10, float64(precision))
	rounded := math.Round(value*scale) / scale

	return map[string]any{
		"expression": argString(args, "expression"),
		"result":     rounded,
		"formatted":  strconv.FormatFloat(rounded, 'f', -1, 64),
	}, nil
}

func (u *UtilityService) askReasoning(ctx context.Context, args domain.Args) (any, error) {
	answer, err := u.openAI.Reason(ctx, argString(args, "prompt"))
	if err != nil {
		return nil, err
	}
	return map[string]any{"answer": answer}, nil
}
