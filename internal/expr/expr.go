//
// Copyright (C) 2025 AIFlowForge.  All rights reserved.
//
// AIFlowForge is licensed under the Apache License Version 2.0.
//
//

// Package expr evaluates the small boolean expressions used by condition
// nodes and edge guards: a bare literal, a bare key lookup, or a single
// comparison of the form "left op right" where op is one of
// ==, !=, >, >=, <, <=.
package expr

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Eval evaluates the expression against the given context map. Operands
// are either literals (numbers, single- or double-quoted strings, true,
// false) or keys resolved in the context; dotted keys descend into
// nested maps. A missing key resolves to nil, which is falsey and
// compares equal only to nil.
func Eval(expression string, ctx map[string]any) (bool, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return true, nil
	}
	left, op, right, found := splitComparison(expression)
	if !found {
		return truthy(resolve(expression, ctx)), nil
	}
	lv := resolve(left, ctx)
	rv := resolve(right, ctx)
	return compare(lv, op, rv)
}

// comparison operators, longest first so ">=" is not read as ">".
var operators = []string{"==", "!=", ">=", "<=", ">", "<"}

func splitComparison(expression string) (left, op, right string, found bool) {
	inQuote := byte(0)
	for i := 0; i < len(expression); i++ {
		c := expression[i]
		if inQuote != 0 {
			if c == inQuote {
				inQuote = 0
			}
			continue
		}
		if c == '\'' || c == '"' {
			inQuote = c
			continue
		}
		for _, candidate := range operators {
			if strings.HasPrefix(expression[i:], candidate) {
				left = strings.TrimSpace(expression[:i])
				right = strings.TrimSpace(expression[i+len(candidate):])
				return left, candidate, right, true
			}
		}
	}
	return "", "", "", false
}

// resolve turns an operand into a value: a literal if it parses as one,
// otherwise a context lookup.
func resolve(operand string, ctx map[string]any) any {
	operand = strings.TrimSpace(operand)
	if len(operand) >= 2 {
		if q := operand[0]; (q == '\'' || q == '"') && operand[len(operand)-1] == q {
			return operand[1 : len(operand)-1]
		}
	}
	switch operand {
	case "true":
		return true
	case "false":
		return false
	case "nil", "null":
		return nil
	}
	if f, err := strconv.ParseFloat(operand, 64); err == nil {
		return f
	}
	return lookup(operand, ctx)
}

func lookup(key string, ctx map[string]any) any {
	current := any(ctx)
	for _, part := range strings.Split(key, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = m[part]
		if !ok {
			return nil
		}
	}
	return current
}

func compare(left any, op string, right any) (bool, error) {
	switch op {
	case "==":
		return equal(left, op, right)
	case "!=":
		eq, err := equal(left, op, right)
		return !eq && err == nil, err
	}
	lf, lok := asFloat(left)
	rf, rok := asFloat(right)
	if lok && rok {
		switch op {
		case ">":
			return lf > rf, nil
		case ">=":
			return lf >= rf, nil
		case "<":
			return lf < rf, nil
		case "<=":
			return lf <= rf, nil
		}
	}
	ls, lok := left.(string)
	rs, rok := right.(string)
	if lok && rok {
		switch op {
		case ">":
			return ls > rs, nil
		case ">=":
			return ls >= rs, nil
		case "<":
			return ls < rs, nil
		case "<=":
			return ls <= rs, nil
		}
	}
	return false, fmt.Errorf("cannot compare %T and %T with %q", left, right, op)
}

func equal(left any, op string, right any) (bool, error) {
	if lf, ok := asFloat(left); ok {
		if rf, ok := asFloat(right); ok {
			return lf == rf, nil
		}
	}
	// Maps and slices are not comparable; Go's == on such interface
	// values panics instead of returning false.
	if !isComparable(left) || !isComparable(right) {
		return false, fmt.Errorf("cannot compare %T and %T with %q", left, right, op)
	}
	return left == right, nil
}

func isComparable(v any) bool {
	if v == nil {
		return true
	}
	return reflect.TypeOf(v).Comparable()
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != "" && t != "false"
	case float64:
		return t != 0
	case int:
		return t != 0
	default:
		return true
	}
}
