package interpreter

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/parley-lang/parley/internal/compiler/ast"
)

// callBuiltin dispatches the expression-level function calls. The built-in
// set is len, str, int and float; any other name evaluates to an empty
// string rather than failing the session, so a typo degrades gracefully.
func callBuiltin(name string, args []interface{}, loc ast.SourceLocation) (interface{}, error) {
	switch name {
	case "len":
		if len(args) == 0 {
			return int64(0), nil
		}
		switch v := args[0].(type) {
		case string:
			// Characters, not bytes, so CJK text measures sensibly.
			return int64(utf8.RuneCountInString(v)), nil
		case []interface{}:
			return int64(len(v)), nil
		case map[string]interface{}:
			return int64(len(v)), nil
		}
		return nil, fmt.Errorf("len() requires a string or collection, got %s (line %d)", typeName(args[0]), loc.Line)

	case "str":
		if len(args) == 0 {
			return "", nil
		}
		return stringify(args[0]), nil

	case "int":
		if len(args) == 0 {
			return int64(0), nil
		}
		return toInt(args[0], loc)

	case "float":
		if len(args) == 0 {
			return float64(0), nil
		}
		return toFloat(args[0], loc)
	}

	return "", nil
}

func toInt(v interface{}, loc ast.SourceLocation) (interface{}, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case bool:
		if n {
			return int64(1), nil
		}
		return int64(0), nil
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("int() cannot convert %q (line %d)", n, loc.Line)
		}
		return parsed, nil
	}
	return nil, fmt.Errorf("int() cannot convert %s (line %d)", typeName(v), loc.Line)
}

func toFloat(v interface{}, loc ast.SourceLocation) (interface{}, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case bool:
		if n {
			return float64(1), nil
		}
		return float64(0), nil
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil, fmt.Errorf("float() cannot convert %q (line %d)", n, loc.Line)
		}
		return parsed, nil
	}
	return nil, fmt.Errorf("float() cannot convert %s (line %d)", typeName(v), loc.Line)
}
