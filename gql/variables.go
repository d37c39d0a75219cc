package gql

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
)

// checkVariables rejects variable values whose type does not match the
// declared scalar type. graphql-go coerces any value to a String or an
// Int so a variable of 1234 would otherwise be used as "1234".
//
// Documents that do not parse are left for graphql.Do to report.
func checkVariables(req *Request) error {
	doc, err := parser.Parse(parser.ParseParams{Source: req.Query})
	if err != nil {
		return nil
	}
	for _, def := range doc.Definitions {
		op, ok := def.(*ast.OperationDefinition)
		if !ok {
			continue
		}
		if req.OperationName != "" && (op.Name == nil || op.Name.Value != req.OperationName) {
			continue
		}
		for _, v := range op.VariableDefinitions {
			if v.Variable == nil || v.Variable.Name == nil {
				continue
			}
			name := v.Variable.Name.Value
			val, ok := req.Variables[name]
			if !ok {
				continue
			}
			if !validValue(v.Type, val) {
				return fmt.Errorf(
					`Variable "$%s" got invalid value %s; Expected type %s.`,
					name, jsonValue(val), typeName(v.Type))
			}
		}
	}
	return nil
}

func validValue(t ast.Type, val interface{}) bool {
	if val == nil {
		// missing non-null values are reported by graphql-go
		return true
	}
	switch t := t.(type) {
	case *ast.NonNull:
		return validValue(t.Type, val)
	case *ast.List:
		items, ok := val.([]interface{})
		if !ok {
			// a single value is coerced to a list of one
			return validValue(t.Type, val)
		}
		for _, item := range items {
			if !validValue(t.Type, item) {
				return false
			}
		}
		return true
	case *ast.Named:
		if t.Name == nil {
			return true
		}
		return validScalar(t.Name.Value, val)
	}
	return true
}

func validScalar(name string, val interface{}) bool {
	switch name {
	case "String":
		_, ok := val.(string)
		return ok
	case "ID":
		switch val.(type) {
		case string:
			return true
		}
		return isInt(val)
	case "Int":
		return isInt(val)
	case "Float":
		switch val.(type) {
		case float32, float64, json.Number:
			return true
		}
		return isInt(val)
	case "Boolean":
		_, ok := val.(bool)
		return ok
	default:
		// input objects and enums are checked by graphql-go
		return true
	}
}

func isInt(val interface{}) bool {
	switch v := val.(type) {
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		return true
	case float64:
		return v == math.Trunc(v) && v >= math.MinInt32 && v <= math.MaxInt32
	case json.Number:
		_, err := v.Int64()
		return err == nil
	}
	return false
}

func typeName(t ast.Type) string {
	switch t := t.(type) {
	case *ast.NonNull:
		return typeName(t.Type) + "!"
	case *ast.List:
		return "[" + typeName(t.Type) + "]"
	case *ast.Named:
		if t.Name != nil {
			return t.Name.Value
		}
	}
	return "?"
}

func jsonValue(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
