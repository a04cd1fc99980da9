package trail_filter

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

const (
	OpEqual Op = iota
	OpNotEqual
)

const (
	termComparison termKind = iota
	termLiteral
)

type (
	// Op comparison operator of a filter term
	Op uint8

	termKind uint8

	// Term either a comparison `field op value` or a literal boolean
	Term struct {
		kind    termKind
		Field   string
		Value   string
		Op      Op
		literal bool
	}

	// Clause terms combined by OR
	Clause []Term

	// Expression clauses combined by AND; an empty expression admits everything
	Expression []Clause
)

func (op Op) String() string {
	switch op {
	case OpEqual:
		return "equal"
	case OpNotEqual:
		return "notequal"
	default:
		return fmt.Sprintf("op(%d)", uint8(op))
	}
}

func (op Op) Valid() bool {
	return op == OpEqual || op == OpNotEqual
}

// ParseOp the inverse of Op.String
func ParseOp(s string) (Op, error) {
	switch s {
	case "equal":
		return OpEqual, nil
	case "notequal":
		return OpNotEqual, nil
	}
	return OpEqual, errors.Wrapf(ErrInvalidFilter, "unknown op %q", s)
}

func Equal(field, value string) Term {
	return Compare(field, OpEqual, value)
}

func NotEqual(field, value string) Term {
	return Compare(field, OpNotEqual, value)
}

func Compare(field string, op Op, value string) Term {
	return Term{kind: termComparison, Field: field, Value: value, Op: op}
}

// Bool a literal term
func Bool(b bool) Term {
	return Term{kind: termLiteral, literal: b}
}

func (t Term) IsLiteral() bool {
	return t.kind == termLiteral
}

// Literal the value of a literal term, false for comparisons
func (t Term) Literal() bool {
	return t.kind == termLiteral && t.literal
}

func (t Term) String() string {
	if t.IsLiteral() {
		return fmt.Sprintf("%t", t.literal)
	}
	switch t.Op {
	case OpEqual:
		return fmt.Sprintf("%s == %q", t.Field, t.Value)
	case OpNotEqual:
		return fmt.Sprintf("%s != %q", t.Field, t.Value)
	}
	return fmt.Sprintf("%s %s %q", t.Field, t.Op, t.Value)
}

// Or build a clause
func Or(terms ...Term) Clause {
	return Clause(terms)
}

// And build an expression
func And(clauses ...Clause) Expression {
	return Expression(clauses)
}

func (c Clause) String() string {
	parts := make([]string, 0, len(c))
	for _, t := range c {
		parts = append(parts, t.String())
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

func (e Expression) String() string {
	if len(e) == 0 {
		return "<all>"
	}
	parts := make([]string, 0, len(e))
	for _, c := range e {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, " AND ")
}

// Validate check the shape of the expression: no empty clause, a literal is
// the only term of its clause, every op is known
func (e Expression) Validate() error {
	for ci, clause := range e {
		if len(clause) == 0 {
			return errors.Wrapf(ErrInvalidFilter, "clause %d is empty", ci)
		}
		for ti, term := range clause {
			if term.IsLiteral() {
				if len(clause) != 1 {
					return errors.Wrapf(ErrInvalidFilter,
						"clause %d: literal term %d must be the only term of its clause", ci, ti)
				}
				continue
			}
			if !term.Op.Valid() {
				return errors.Wrapf(ErrInvalidFilter, "clause %d term %d: unknown op %s", ci, ti, term.Op)
			}
		}
	}
	return nil
}
