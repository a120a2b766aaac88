package interpreter

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"

	"github.com/parley-lang/parley/internal/compiler/ast"
	"github.com/parley-lang/parley/internal/session"
)

// eval computes an expression against the session's variables. Values are a
// small dynamic union: string, int64, float64, bool, plus whatever opaque
// lists and maps service calls put into variables. A type error fails the
// evaluation, which in turn moves the session to ERROR.
func (i *Interpreter) eval(sctx *session.Context, expr ast.Expression) (interface{}, error) {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		return e.Value, nil

	case *ast.VariableExpr:
		// An unset variable reads as the empty string.
		if value, ok := sctx.Variables[e.Name]; ok {
			return value, nil
		}
		return "", nil

	case *ast.ParenExpr:
		return i.eval(sctx, e.Expr)

	case *ast.BinaryExpr:
		left, err := i.eval(sctx, e.Left)
		if err != nil {
			return nil, err
		}
		right, err := i.eval(sctx, e.Right)
		if err != nil {
			return nil, err
		}
		return evalBinary(e.Operator, left, right, e.Loc)

	case *ast.LogicalExpr:
		left, err := i.eval(sctx, e.Left)
		if err != nil {
			return nil, err
		}
		// Short-circuit; the result is always a boolean, never the
		// operand itself.
		if e.Operator == "and" {
			if !truthy(left) {
				return false, nil
			}
		} else {
			if truthy(left) {
				return true, nil
			}
		}
		right, err := i.eval(sctx, e.Right)
		if err != nil {
			return nil, err
		}
		return truthy(right), nil

	case *ast.UnaryExpr:
		operand, err := i.eval(sctx, e.Operand)
		if err != nil {
			return nil, err
		}
		if e.Operator == "not" {
			return !truthy(operand), nil
		}
		switch n := operand.(type) {
		case int64:
			return -n, nil
		case float64:
			return -n, nil
		case int:
			return int64(-n), nil
		}
		return nil, fmt.Errorf("unary '-' requires a numeric operand, got %s (line %d)", typeName(operand), e.Loc.Line)

	case *ast.CallExpr:
		args := make([]interface{}, len(e.Args))
		for idx, arg := range e.Args {
			value, err := i.eval(sctx, arg)
			if err != nil {
				return nil, err
			}
			args[idx] = value
		}
		return callBuiltin(e.Name, args, e.Loc)
	}

	return nil, fmt.Errorf("cannot evaluate expression at line %d", expr.Location().Line)
}

func evalBinary(op string, left, right interface{}, loc ast.SourceLocation) (interface{}, error) {
	switch op {
	case "+":
		// A string on either side makes + concatenation.
		if _, ok := left.(string); ok {
			return left.(string) + stringify(right), nil
		}
		if _, ok := right.(string); ok {
			return stringify(left) + right.(string), nil
		}
		if l, r, ok := intPair(left, right); ok {
			return l + r, nil
		}
		l, r, err := numericPair(op, left, right, loc)
		if err != nil {
			return nil, err
		}
		return l + r, nil

	case "-":
		if l, r, ok := intPair(left, right); ok {
			return l - r, nil
		}
		l, r, err := numericPair(op, left, right, loc)
		if err != nil {
			return nil, err
		}
		return l - r, nil

	case "*":
		if l, r, ok := intPair(left, right); ok {
			return l * r, nil
		}
		l, r, err := numericPair(op, left, right, loc)
		if err != nil {
			return nil, err
		}
		return l * r, nil

	case "/":
		// Division always yields a float; dividing by zero yields 0.
		l, r, err := numericPair(op, left, right, loc)
		if err != nil {
			return nil, err
		}
		if r == 0 {
			return float64(0), nil
		}
		return l / r, nil

	case "==":
		return valuesEqual(left, right), nil
	case "!=":
		return !valuesEqual(left, right), nil

	case "<", ">", "<=", ">=":
		l, r, err := numericPair(op, left, right, loc)
		if err != nil {
			return nil, err
		}
		switch op {
		case "<":
			return l < r, nil
		case ">":
			return l > r, nil
		case "<=":
			return l <= r, nil
		default:
			return l >= r, nil
		}
	}

	return nil, fmt.Errorf("unknown operator '%s' (line %d)", op, loc.Line)
}

// intPair extracts both operands as int64 when both are integers, so
// integer arithmetic stays integral.
func intPair(left, right interface{}) (int64, int64, bool) {
	l, lok := intValue(left)
	r, rok := intValue(right)
	return l, r, lok && rok
}

func intValue(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	}
	return 0, false
}

// numericPair extracts both operands as float64 or reports a type error.
func numericPair(op string, left, right interface{}, loc ast.SourceLocation) (float64, float64, error) {
	l, lok := numericValue(left)
	r, rok := numericValue(right)
	if !lok || !rok {
		return 0, 0, fmt.Errorf("operator '%s' requires numeric operands, got %s and %s (line %d)",
			op, typeName(left), typeName(right), loc.Line)
	}
	return l, r, nil
}

func numericValue(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

// valuesEqual compares by value: numbers numerically regardless of integer
// or float representation, strings byte-wise. A numeric compared against a
// non-numeric is never equal.
func valuesEqual(left, right interface{}) bool {
	lf, lok := numericValue(left)
	rf, rok := numericValue(right)
	if lok && rok {
		return lf == rf
	}
	if lok != rok {
		return false
	}

	switch l := left.(type) {
	case string:
		r, ok := right.(string)
		return ok && l == r
	case bool:
		r, ok := right.(bool)
		return ok && l == r
	case nil:
		return right == nil
	}

	return reflect.DeepEqual(left, right)
}

// truthy follows the script language's notion of truth: nonzero numbers,
// non-empty strings and non-empty collections are true; false, zero, empty
// and nil are false. Opaque non-empty values count as true.
func truthy(v interface{}) bool {
	switch n := v.(type) {
	case nil:
		return false
	case bool:
		return n
	case int64:
		return n != 0
	case int:
		return n != 0
	case float64:
		return n != 0
	case string:
		return n != ""
	case []interface{}:
		return len(n) > 0
	case map[string]interface{}:
		return len(n) > 0
	}
	return true
}

// stringify renders a value the way Speak emits it: integers in decimal,
// floats in their shortest form, lists and maps as JSON, nil as empty.
func stringify(v interface{}) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return n
	case bool:
		if n {
			return "true"
		}
		return "false"
	case int64:
		return strconv.FormatInt(n, 10)
	case int:
		return strconv.Itoa(n)
	case float64:
		return strconv.FormatFloat(n, 'g', -1, 64)
	}

	if data, err := json.Marshal(v); err == nil {
		return string(data)
	}
	return fmt.Sprintf("%v", v)
}

// typeName describes a value's kind for error messages.
func typeName(v interface{}) string {
	switch v.(type) {
	case nil:
		return "nil"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int64, int:
		return "integer"
	case float64:
		return "float"
	case []interface{}:
		return "list"
	case map[string]interface{}:
		return "map"
	}
	return "value"
}
