package trail_filter

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/types/known/structpb"
)

// the external form of an expression is a nested list:
//
//	[[{"field": "a", "value": "a1", "op": "equal"}, ...], [false], ...]
//
// "op" is optional and defaults to "equal"; this is the only place the
// default is applied
const (
	keyField = "field"
	keyValue = "value"
	keyOp    = "op"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ParseExpressionJSON decode the external JSON form of an expression
func ParseExpressionJSON(data []byte) (Expression, error) {
	var tree interface{}
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, errors.Wrapf(ErrInvalidFilter, "decode json: %v", err)
	}
	return ExpressionFromAny(tree)
}

// MarshalExpressionJSON encode expr into its external JSON form
func MarshalExpressionJSON(expr Expression) ([]byte, error) {
	return json.Marshal(ExpressionToAny(expr))
}

// ExpressionFromListValue decode an expression carried as a protobuf ListValue
func ExpressionFromListValue(list *structpb.ListValue) (Expression, error) {
	if list == nil {
		return Expression{}, nil
	}
	return ExpressionFromAny(list.AsSlice())
}

// ExpressionToListValue encode expr as a protobuf ListValue
func ExpressionToListValue(expr Expression) (*structpb.ListValue, error) {
	return structpb.NewList(ExpressionToAny(expr))
}

// ExpressionFromAny build an expression from a generic tree made of
// []interface{}, map[string]interface{}, string and bool, as produced by the
// json, yaml and structpb decoders
func ExpressionFromAny(tree interface{}) (Expression, error) {
	if tree == nil {
		return Expression{}, nil
	}
	clauses, ok := tree.([]interface{})
	if !ok {
		return nil, errors.Wrapf(ErrInvalidFilter, "expression must be a list of clauses, got %T", tree)
	}

	expr := make(Expression, 0, len(clauses))
	for ci, c := range clauses {
		terms, ok := c.([]interface{})
		if !ok {
			return nil, errors.Wrapf(ErrInvalidFilter, "clause %d must be a list of terms, got %T", ci, c)
		}
		clause := make(Clause, 0, len(terms))
		for ti, t := range terms {
			term, err := termFromAny(t)
			if err != nil {
				return nil, errors.Wrapf(err, "clause %d term %d", ci, ti)
			}
			clause = append(clause, term)
		}
		expr = append(expr, clause)
	}
	if err := expr.Validate(); err != nil {
		return nil, err
	}
	return expr, nil
}

func termFromAny(t interface{}) (Term, error) {
	switch v := t.(type) {
	case bool:
		return Bool(v), nil
	case map[string]interface{}:
		field, _, err := stringKey(v, keyField, true)
		if err != nil {
			return Term{}, err
		}
		value, _, err := stringKey(v, keyValue, true)
		if err != nil {
			return Term{}, err
		}
		opName, hasOp, err := stringKey(v, keyOp, false)
		if err != nil {
			return Term{}, err
		}
		op := OpEqual
		if hasOp {
			if op, err = ParseOp(opName); err != nil {
				return Term{}, err
			}
		}
		for key := range v {
			if key != keyField && key != keyValue && key != keyOp {
				return Term{}, errors.Wrapf(ErrInvalidFilter, "unknown key %q", key)
			}
		}
		return Compare(field, op, value), nil
	}
	return Term{}, errors.Wrapf(ErrInvalidFilter, "term must be an object or a boolean, got %T", t)
}

// stringKey the string under key and whether key is present at all
func stringKey(m map[string]interface{}, key string, required bool) (string, bool, error) {
	v, ok := m[key]
	if !ok {
		if required {
			return "", false, errors.Wrapf(ErrInvalidFilter, "missing %q", key)
		}
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", true, errors.Wrapf(ErrInvalidFilter, "%q must be a string, got %T", key, v)
	}
	return s, true, nil
}

// ExpressionToAny the generic tree form of expr, the inverse of ExpressionFromAny
func ExpressionToAny(expr Expression) []interface{} {
	tree := make([]interface{}, 0, len(expr))
	for _, clause := range expr {
		terms := make([]interface{}, 0, len(clause))
		for _, term := range clause {
			if term.IsLiteral() {
				terms = append(terms, term.Literal())
				continue
			}
			terms = append(terms, map[string]interface{}{
				keyField: term.Field,
				keyValue: term.Value,
				keyOp:    term.Op.String(),
			})
		}
		tree = append(tree, terms)
	}
	return tree
}
