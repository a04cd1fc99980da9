package trail_filter

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/echoface/trail_filter/util"
)

type (
	// CompiledTerm a term after dictionary resolution, one of Comparison or Literal
	CompiledTerm interface {
		eval(resolved []ValueID) bool

		compiledTerm()
	}

	// Comparison tests the resolved value of one field
	Comparison struct {
		Field FieldID
		Op    Op
		Value ValueID
	}

	// Literal a term decided at compile time
	Literal bool

	CompiledClause []CompiledTerm

	// CompiledFilter is immutable once compiled, it can be shared by any
	// number of cursors
	CompiledFilter struct {
		clauses []CompiledClause
		// names keep the field names for Decompile
		names []string
	}

	// Compiler translate filter expressions against one store dictionary
	Compiler struct {
		dict Dictionary
	}

	// staticResult outcome of compiling a single term
	staticResult uint8
)

const (
	dynamicTerm staticResult = iota
	alwaysTrue
	alwaysFalse
)

func (c Comparison) eval(resolved []ValueID) bool {
	if c.Op == OpEqual {
		return resolved[c.Field] == c.Value
	}
	return resolved[c.Field] != c.Value
}

func (Comparison) compiledTerm() {}

func (l Literal) eval([]ValueID) bool {
	return bool(l)
}

func (Literal) compiledTerm() {}

func NewCompiler(dict Dictionary) *Compiler {
	return &Compiler{dict: dict}
}

// Compile resolve every term of expr against the dictionary.
//
// a term referencing an unknown field, or a value missing from a known field's
// lexicon, is decided statically; clauses holding an always-true term are
// dropped, and a clause whose terms are all false turns the whole filter into
// the unsatisfiable [[false]]. the only error is a malformed expression
func (c *Compiler) Compile(expr Expression) (*CompiledFilter, error) {
	if err := expr.Validate(); err != nil {
		return nil, err
	}

	filter := &CompiledFilter{names: c.dict.Fields()}

	for _, clause := range expr {
		compiled := make(CompiledClause, 0, len(clause))
		tautology := false

		for _, term := range clause {
			cmp, result, err := c.compileTerm(term)
			if err != nil {
				return nil, err
			}
			if result == alwaysTrue {
				tautology = true
				break
			}
			if result == dynamicTerm {
				compiled = append(compiled, cmp)
			}
		}

		if tautology {
			continue
		}
		if len(compiled) == 0 {
			filter.clauses = []CompiledClause{{Literal(false)}}
			return filter, nil
		}
		filter.clauses = append(filter.clauses, compiled)
	}
	return filter, nil
}

func (c *Compiler) compileTerm(term Term) (Comparison, staticResult, error) {
	if term.IsLiteral() {
		if term.Literal() {
			return Comparison{}, alwaysTrue, nil
		}
		return Comparison{}, alwaysFalse, nil
	}

	fieldID, ok := c.dict.FieldID(term.Field)
	if !ok {
		// an unknown field is empty for every event
		if (term.Value == "") == (term.Op == OpEqual) {
			return Comparison{}, alwaysTrue, nil
		}
		return Comparison{}, alwaysFalse, nil
	}

	lex, err := c.dict.Lexicon(fieldID)
	if err != nil {
		return Comparison{}, dynamicTerm, errors.Wrapf(err, "lexicon of field %s", term.Field)
	}
	id, found := lex.Lookup(term.Value)
	if !found {
		// no event can carry a value the lexicon doesn't know
		if term.Op == OpEqual {
			return Comparison{}, alwaysFalse, nil
		}
		return Comparison{}, alwaysTrue, nil
	}
	return Comparison{Field: fieldID, Op: term.Op, Value: ValueID(id)}, dynamicTerm, nil
}

// Decompile rebuild the expression form of filter; statically decided terms
// surface as literal booleans
func (c *Compiler) Decompile(filter *CompiledFilter) Expression {
	if filter.IsEmpty() {
		return Expression{}
	}
	expr := make(Expression, 0, len(filter.clauses))
	for _, clause := range filter.clauses {
		terms := make(Clause, 0, len(clause))
		for _, term := range clause {
			switch t := term.(type) {
			case Literal:
				terms = append(terms, Bool(bool(t)))
			case Comparison:
				text, err := TextOf(c.dict, t.Field, t.Value)
				// the value id came from the same dictionary
				util.PanicIfErr(err, "decompile field %s", filter.fieldName(t.Field))
				terms = append(terms, Compare(filter.fieldName(t.Field), t.Op, text))
			}
		}
		expr = append(expr, terms)
	}
	return expr
}

// IsEmpty an empty filter admits every event
func (f *CompiledFilter) IsEmpty() bool {
	return f == nil || len(f.clauses) == 0
}

// Unsatisfiable report whether the filter was reduced to [[false]]
func (f *CompiledFilter) Unsatisfiable() bool {
	if f.IsEmpty() || len(f.clauses) != 1 || len(f.clauses[0]) != 1 {
		return false
	}
	lit, ok := f.clauses[0][0].(Literal)
	return ok && !bool(lit)
}

// Clauses a copy of the compiled clauses
func (f *CompiledFilter) Clauses() []CompiledClause {
	if f == nil || f.clauses == nil {
		return nil
	}
	res := make([]CompiledClause, len(f.clauses))
	for idx, clause := range f.clauses {
		res[idx] = append(CompiledClause(nil), clause...)
	}
	return res
}

func (f *CompiledFilter) fieldName(field FieldID) string {
	if int(field) < len(f.names) {
		return f.names[field]
	}
	return fmt.Sprintf("#%d", field)
}

func (f *CompiledFilter) String() string {
	if f.IsEmpty() {
		return "<all>"
	}
	sb := &strings.Builder{}
	for ci, clause := range f.clauses {
		if ci > 0 {
			sb.WriteString(" AND ")
		}
		sb.WriteString("(")
		for ti, term := range clause {
			if ti > 0 {
				sb.WriteString(" OR ")
			}
			switch t := term.(type) {
			case Literal:
				fmt.Fprintf(sb, "%t", bool(t))
			case Comparison:
				fmt.Fprintf(sb, "%s %s %d", f.fieldName(t.Field), t.Op, t.Value)
			}
		}
		sb.WriteString(")")
	}
	return sb.String()
}
