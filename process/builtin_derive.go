package process

import (
	"context"
	"fmt"
	"math"

	"github.com/Knetic/govaluate"

	"github.com/c-hydro/shybox-go/ioformat"
)

// derivedFuncs mirrors the default function set the teacher's
// NewOutputter wires into every expression (io.go), minus "sum" (which
// reduces a whole grid to a scalar and has no place in a per-cell
// evaluation).
var derivedFuncs = map[string]govaluate.ExpressionFunction{
	"exp": func(args ...interface{}) (interface{}, error) {
		return math.Exp(args[0].(float64)), nil
	},
	"log": func(args ...interface{}) (interface{}, error) {
		return math.Log(args[0].(float64)), nil
	},
	"log10": func(args ...interface{}) (interface{}, error) {
		return math.Log10(args[0].(float64)), nil
	},
}

func init() {
	Register("derive", Descriptor{
		Func:            deriveFunc,
		InputType:       KindGrid,
		OutputType:      KindGrid,
		ContinuousSpace: true,
	})
}

// deriveFunc evaluates in.Args["expression"] once per grid cell,
// binding in.Value as "value" and every in.Deps entry by name,
// generalizing the teacher's Outputter derived-output-variable
// mechanism (io.go's checkForDerivatives/govaluate.NewEvaluableExpressionWithFunctions)
// from a fixed output-variable table into a registrable process.
func deriveFunc(_ context.Context, in Input) (Output, error) {
	src, ok := in.Value.(*ioformat.Grid)
	if !ok {
		return Output{}, fmt.Errorf("process: derive: input is not a grid")
	}
	exprStr, ok := in.Args["expression"].(string)
	if !ok || exprStr == "" {
		return Output{}, fmt.Errorf("process: derive: missing %q argument", "expression")
	}

	expr, err := govaluate.NewEvaluableExpressionWithFunctions(exprStr, derivedFuncs)
	if err != nil {
		return Output{}, fmt.Errorf("process: derive: %w", err)
	}

	depGrids := map[string]*ioformat.Grid{}
	for name, v := range in.Deps {
		if g, ok := v.(*ioformat.Grid); ok {
			depGrids[name] = g
		}
	}

	out := *src
	out.Data = make([]float64, len(src.Data))
	params := map[string]interface{}{}
	for i := range src.Data {
		params["value"] = src.Data[i]
		for name, g := range depGrids {
			params[name] = g.Data[i]
		}
		result, err := expr.Evaluate(params)
		if err != nil {
			return Output{}, fmt.Errorf("process: derive: evaluating cell %d: %w", i, err)
		}
		v, ok := result.(float64)
		if !ok {
			return Output{}, fmt.Errorf("process: derive: expression did not evaluate to a number")
		}
		out.Data[i] = v
	}
	return Output{Value: &out, Tile: in.Tile}, nil
}
