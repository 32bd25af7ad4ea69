package gokeyset

import (
	"database/sql/driver"
	"fmt"
	"math/big"
	"strings"

	"gorm.io/gorm/clause"
)

type (
	// tConjunct compares one ordering column with the marker value of that
	// column: "author = ?" for a leading column, "id > ?" for the deciding one.
	tConjunct struct {
		Column   string
		Value    any
		Operator Operator
	}

	// tDisjunct is the row comparison deciding on its last column: the
	// columns before it are equal to the marker, the last one is past it.
	tDisjunct []tConjunct

	// tDNF is the keyset condition in disjunctive normal form: disjuncts are
	// joined by OR, the conjuncts of a disjunct by AND. For a marker
	// (v1, v2, v3) on an ascending ordering (c1, c2, c3):
	//
	//	(c1 > v1)
	//	OR (c1 = v1 AND c2 > v2)
	//	OR (c1 = v1 AND c2 = v2 AND c3 > v3)
	tDNF []tDisjunct
)

// toGORMExpression returns the conjunct as clause.Expr "Column Operator ?"
// so GORM renders the dialect's placeholder:
//
//	{Column: "author", Operator: "=", Value: "Joseph Heller"} -> author = ?
func (c tConjunct) toGORMExpression() clause.Expression {
	sqlClause, arg := c.toSQLClause()

	return clause.Expr{
		SQL:  sqlClause,
		Vars: []any{arg},
	}
}

// toSQLClause returns the conjunct as "Column Operator ?" and its bind value:
//
//	{Column: "id", Operator: ">", Value: 123} -> ("id > ?", 123)
func (c tConjunct) toSQLClause() (string, driver.Value) {
	return fmt.Sprintf("%s %s ?", c.Column, c.Operator), bindValue(c.Value)
}

// bindValue converts marker values that database drivers cannot bind.
// Arbitrary precision integers become int64 when they fit and decimal strings
// otherwise.
func bindValue(v any) any {
	switch vt := v.(type) {
	case *big.Int:
		if vt == nil {
			return nil
		}
		if vt.IsInt64() {
			return vt.Int64()
		}
		return vt.String()
	default:
		return v
	}
}

// toGORMExpression joins the conjuncts with AND. A single conjunct is
// returned as is, an empty disjunct yields nil.
func (d tDisjunct) toGORMExpression() clause.Expression {
	andExpressions := make([]clause.Expression, 0, len(d))
	for _, conjunct := range d {
		andExpressions = append(andExpressions, conjunct.toGORMExpression())
	}

	if len(andExpressions) == 1 {
		return andExpressions[0]
	} else if len(andExpressions) > 1 {
		return clause.And(andExpressions...)
	}

	return nil
}

// toSQLClause renders the disjunct in parentheses:
//
//	{{author = "Joseph Heller"}, {id > 123}} -> ("(author = ? AND id > ?)", ["Joseph Heller", 123])
func (d tDisjunct) toSQLClause() (string, []driver.Value) {
	andClauses := make([]string, 0, len(d))
	andValues := make([]driver.Value, 0, len(d))

	for _, conjunct := range d {
		andClause, andValue := conjunct.toSQLClause()
		andClauses = append(andClauses, andClause)
		andValues = append(andValues, andValue)
	}

	if len(andClauses) >= 1 {
		return fmt.Sprintf("(%s)", strings.Join(andClauses, " AND ")), andValues
	}

	return "", nil
}

// toGORMExpression joins the disjuncts with OR, skipping empty ones. An
// empty DNF yields nil: the sentinel marker pages without a condition.
func (d tDNF) toGORMExpression() clause.Expression {
	orExpressions := make([]clause.Expression, 0, len(d))

	for _, disjunct := range d {
		andExpressions := disjunct.toGORMExpression()
		if andExpressions == nil {
			continue
		}

		orExpressions = append(orExpressions, andExpressions)
	}

	if len(orExpressions) == 1 {
		return orExpressions[0]
	} else if len(orExpressions) > 1 {
		return clause.Or(orExpressions...)
	}

	return nil
}

// toSQLClause renders the condition with "?" placeholders, for logs and
// for callers building raw SQL. A marker (10, 'abc') on "score DESC, title"
// gives:
//
//	("((score < ?) OR (score = ? AND title > ?))", [10, 10, "abc"])
//
// An empty DNF renders as TRUE.
func (d tDNF) toSQLClause() (string, []driver.Value) {
	orClauses := make([]string, 0, len(d))
	values := make([]driver.Value, 0, len(d))

	for _, disjunct := range d {
		orClause, orValues := disjunct.toSQLClause()
		if orClause == "" {
			continue
		}

		orClauses = append(orClauses, orClause)
		values = append(values, orValues...)
	}

	if len(orClauses) >= 1 {
		return fmt.Sprintf("(%s)", strings.Join(orClauses, " OR ")), values
	}

	return "TRUE", nil
}
