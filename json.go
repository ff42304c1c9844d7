package symforms

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// ============================================================
// JSON tree codec
// ============================================================

// The wire shape mirrors the AST: {"type":"number","value":2},
// {"type":"variable","name":"x"}, {"type":"function","name":"sin",
// "arg":{...}}, {"type":"binary","op":"add","left":{...},
// "right":{...}}.

var opNames = map[Op]string{
	OpAdd:      "add",
	OpSubtract: "subtract",
	OpMultiply: "multiply",
	OpDivide:   "divide",
	OpPower:    "power",
}

var opsByName = map[string]Op{
	"add":      OpAdd,
	"subtract": OpSubtract,
	"multiply": OpMultiply,
	"divide":   OpDivide,
	"power":    OpPower,
}

// MarshalExpr encodes an expression tree as JSON.
func MarshalExpr(e Expr) ([]byte, error) {
	if e == nil {
		return nil, errors.New("marshal: nil expression")
	}
	return json.Marshal(exprToJSON(e))
}

func exprToJSON(e Expr) map[string]interface{} {
	switch v := e.(type) {
	case *Number:
		return map[string]interface{}{"type": "number", "value": v.Value}
	case *Variable:
		return map[string]interface{}{"type": "variable", "name": v.Name}
	case *Function:
		return map[string]interface{}{"type": "function", "name": v.Name, "arg": exprToJSON(v.Arg)}
	case *BinaryOp:
		return map[string]interface{}{
			"type":  "binary",
			"op":    opNames[v.Op],
			"left":  exprToJSON(v.Left),
			"right": exprToJSON(v.Right),
		}
	}
	return nil
}

// UnmarshalExpr decodes an expression tree from JSON.
func UnmarshalExpr(data []byte) (Expr, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "unmarshal expression")
	}
	return exprFromJSON(raw)
}

func exprFromJSON(data map[string]interface{}) (Expr, error) {
	if data == nil {
		return nil, errors.New("expression must be an object")
	}
	typ, ok := data["type"].(string)
	if !ok || typ == "" {
		return nil, errors.New("field 'type' must be a non-empty string")
	}

	subObj := func(field string) (map[string]interface{}, error) {
		v, ok := data[field]
		if !ok {
			return nil, errors.Errorf("%s: missing %q", typ, field)
		}
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, errors.Errorf("%s: %q must be an object", typ, field)
		}
		return m, nil
	}
	subString := func(field string) (string, error) {
		v, ok := data[field]
		if !ok {
			return "", errors.Errorf("%s: missing %q", typ, field)
		}
		s, ok := v.(string)
		if !ok || s == "" {
			return "", errors.Errorf("%s: %q must be a non-empty string", typ, field)
		}
		return s, nil
	}

	switch typ {
	case "number":
		v, ok := data["value"].(float64)
		if !ok {
			return nil, errors.New("number: 'value' must be a number")
		}
		return Num(v), nil

	case "variable":
		name, err := subString("name")
		if err != nil {
			return nil, err
		}
		return Var(name), nil

	case "function":
		name, err := subString("name")
		if err != nil {
			return nil, err
		}
		argM, err := subObj("arg")
		if err != nil {
			return nil, err
		}
		arg, err := exprFromJSON(argM)
		if err != nil {
			return nil, errors.Wrap(err, "function: arg")
		}
		return Fn(name, arg), nil

	case "binary":
		opName, err := subString("op")
		if err != nil {
			return nil, err
		}
		op, ok := opsByName[opName]
		if !ok {
			return nil, errors.Errorf("binary: unknown operator %q", opName)
		}
		leftM, err := subObj("left")
		if err != nil {
			return nil, err
		}
		rightM, err := subObj("right")
		if err != nil {
			return nil, err
		}
		left, err := exprFromJSON(leftM)
		if err != nil {
			return nil, errors.Wrap(err, "binary: left")
		}
		right, err := exprFromJSON(rightM)
		if err != nil {
			return nil, errors.Wrap(err, "binary: right")
		}
		return &BinaryOp{Op: op, Left: left, Right: right}, nil
	}
	return nil, errors.Errorf("unknown expression type: %s", typ)
}
