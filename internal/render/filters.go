package render

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/iancoleman/strcase"
	"github.com/mcncl/j2j/internal/formatter"
	"github.com/nikolalohinski/gonja/v2/exec"
)

// outputFilterName is the filter WrapOutputs appends to every {{ }}
// expression.
const outputFilterName = "j2j_output"

// customFilters returns the filters registered on top of gonja's builtins.
func customFilters(jsonIndent int, lenient bool) map[string]exec.FilterFunction {
	return map[string]exec.FilterFunction{
		"json":            jsonFilter(jsonIndent),
		"camel":           caseFilter(strcase.ToLowerCamel),
		"pascal":          caseFilter(strcase.ToCamel),
		"snake":           caseFilter(strcase.ToSnake),
		"kebab":           caseFilter(strcase.ToKebab),
		"screaming_snake": caseFilter(strcase.ToScreamingSnake),
		outputFilterName:  outputFilter(lenient),
	}
}

// jsonFilter implements json(indent). Indent 0 gives compact output.
func jsonFilter(defaultIndent int) exec.FilterFunction {
	return func(_ *exec.Evaluator, in *exec.Value, params *exec.VarArgs) *exec.Value {
		if in.IsNil() {
			return exec.AsValue("null")
		}
		indent := defaultIndent
		if params != nil && len(params.Args) > 0 {
			n, err := indentArg(params.Args[0].Interface())
			if err != nil {
				return exec.AsValue(err)
			}
			indent = n
		}
		out, err := formatter.FormatJSON(Unwrap(in.Interface()), indent)
		if err != nil {
			return exec.AsValue(fmt.Errorf("cannot encode value: %w", err))
		}
		return exec.AsValue(out)
	}
}

func indentArg(value interface{}) (int, error) {
	switch n := value.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		return int(i), err
	}
	return 0, fmt.Errorf("json: indent must be a number, got %T", value)
}

func caseFilter(fn func(string) string) exec.FilterFunction {
	return func(_ *exec.Evaluator, in *exec.Value, _ *exec.VarArgs) *exec.Value {
		return exec.AsValue(fn(in.String()))
	}
}

// outputFilter prints the value of a {{ }} expression. Objects and arrays
// print as 2-space indented JSON. Null and undefined fail with the
// expression text unless lenient, in which case they print nothing.
func outputFilter(lenient bool) exec.FilterFunction {
	return func(_ *exec.Evaluator, in *exec.Value, params *exec.VarArgs) *exec.Value {
		if in.IsNil() {
			if lenient {
				return exec.AsValue("")
			}
			if params != nil && len(params.Args) > 0 {
				return exec.AsValue(fmt.Errorf("%s value: variable %q", undefinedMarker, params.Args[0].String()))
			}
			return exec.AsValue(fmt.Errorf("%s value", undefinedMarker))
		}
		out, err := printValue(in)
		if err != nil {
			return exec.AsValue(err)
		}
		return exec.AsValue(out)
	}
}

func printValue(in *exec.Value) (string, error) {
	switch v := in.Interface().(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return formatFloat(v), nil
	case PreviewObject, PreviewArray, map[string]interface{}, []interface{}:
		return formatter.FormatJSON(Unwrap(v), formatter.DefaultIndent)
	}
	return in.String(), nil
}

// formatFloat prints whole floats without a fraction and switches to
// exponent form only for very large or very small magnitudes.
func formatFloat(f float64) string {
	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e21 || abs < 1e-6) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
