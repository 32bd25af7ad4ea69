package gokeyset

import (
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Direction defines the sort direction for the requested dataset.
type Direction string

const (
	DirectionASC  Direction = "ASC"
	DirectionDESC Direction = "DESC"
)

func (o Direction) Valid() bool {
	return o == DirectionASC || o == DirectionDESC
}

// ForOperator returns the strict comparison operator that selects rows
// placed after a value in this direction.
func (o Direction) ForOperator() Operator {
	switch o {
	case DirectionASC:
		return OperatorGT
	case DirectionDESC:
		return OperatorLT
	default:
		panic(fmt.Errorf("cannot map direction '%s' to operator", o))
	}
}

// Reversed returns the opposite direction.
func (o Direction) Reversed() Direction {
	switch o {
	case DirectionASC:
		return DirectionDESC
	case DirectionDESC:
		return DirectionASC
	default:
		panic(fmt.Errorf("cannot reverse direction '%s'", o))
	}
}

type (
	// Orderings is an ordered list of ordering columns. The position of a
	// column defines its precedence in the lexicographic row order.
	Orderings []OrderBy

	// OrderBy is a single ordering column: a column name or an SQL
	// expression together with its sort direction.
	OrderBy struct {
		Column    string
		Direction Direction
	}

	ColumnAlias = string

	// ColumnMapping maps external column aliases to fully qualified column names.
	// Use it when bare column names could cause an "ambiguous column name" error.
	// Key is an external alias, value is an internal column name.
	ColumnMapping = map[ColumnAlias]string
)

var _availableColumnNameSymbols = append([]rune("_.'`\""), lo.AlphanumericCharset...)

func (o OrderBy) validate() error {
	if !o.Direction.Valid() {
		return fmt.Errorf("%w: invalid ordering direction '%s'", ErrOrdering, o.Direction)
	}

	column := strings.TrimSpace(o.Column)
	if column == "" {
		return fmt.Errorf("%w: empty ordering column", ErrOrdering)
	}

	// Ordering columns may be expressions, but never statement fragments.
	if strings.Contains(column, ";") || strings.Contains(column, "--") || strings.Contains(column, "/*") {
		return fmt.Errorf("%w: ordering column contains forbidden symbols '%s'", ErrOrdering, o.Column)
	}
	if parts, err := splitTopLevel(column, ','); err != nil || len(parts) != 1 {
		return fmt.Errorf("%w: ordering column is not a single expression '%s'", ErrOrdering, o.Column)
	}

	return nil
}

// Reversed returns the ordering column with its direction reversed.
func (o OrderBy) Reversed() OrderBy {
	return OrderBy{Column: o.Column, Direction: o.Direction.Reversed()}
}

// ToSQLSlice converts Orderings to a slice of strings in the form
// "<order_column> <order_direction>" suitable for SQL query builders.
//
// Example: for Orderings: [{"a", "ASC"}, {"b", "DESC"}] returns ["a ASC", "b DESC"].
func (o Orderings) ToSQLSlice() []string {
	ret := make([]string, 0, len(o))
	for _, ordering := range o {
		ret = append(ret, fmt.Sprintf("%s %s", ordering.Column, ordering.Direction))
	}

	return ret
}

// ToSQL converts Orderings to a single string
// "<order_column_1> <order_direction_1>, <order_column_2> <order_direction_2>"
// suitable for embedding into an SQL query.
//
// Usage:
//
//	query := fmt.Sprintf("SELECT * FROM table ORDER BY %s", orderings.ToSQL())
func (o Orderings) ToSQL() string {
	return strings.Join(o.ToSQLSlice(), ", ")
}

// Apply applies the ordering to a gorm query.
func (o Orderings) Apply(db *gorm.DB) *gorm.DB {
	return db.Order(o.ToSQL())
}

// Reversed returns a copy of the orderings with every direction reversed.
// Paging backwards runs the query in this order.
func (o Orderings) Reversed() Orderings {
	return lo.Map(o, func(item OrderBy, _ int) OrderBy {
		return item.Reversed()
	})
}

// Columns returns the ordering column expressions in precedence order.
func (o Orderings) Columns() []string {
	return lo.Map(o, func(item OrderBy, _ int) string {
		return item.Column
	})
}

func (o Orderings) validate() error {
	if len(o) == 0 {
		return fmt.Errorf("%w: empty ordering list", ErrOrdering)
	}

	var err error
	for _, ordering := range o {
		err = ordering.validate()
		if err != nil {
			return err
		}
	}

	return nil
}

// ParseSort builds Orderings from a list of strings in the format
// "column asc|desc". Column aliases are resolved via ColumnMapping.
// Returns an error if an alias is not found in the mapping.
func ParseSort(stringsOrderings []string, columnMapping ColumnMapping) (Orderings, error) {
	ret := make([]OrderBy, 0, len(stringsOrderings))
	aliases := lo.Keys(columnMapping)

	for _, stringOrdering := range stringsOrderings {
		cutStringOrdering := strings.Fields(stringOrdering)
		if len(cutStringOrdering) != 2 {
			return nil, fmt.Errorf("%w: invalid ordering string format '%s'", ErrOrdering, stringOrdering)
		}

		columnAlias := cutStringOrdering[0]
		if !lo.Every(_availableColumnNameSymbols, []rune(columnAlias)) {
			return nil, fmt.Errorf("%w: ordering alias contains forbidden symbols '%s'", ErrOrdering, columnAlias)
		}

		direction := Direction(strings.ToUpper(cutStringOrdering[1]))
		if !direction.Valid() {
			return nil, fmt.Errorf("%w: invalid ordering direction '%s'", ErrOrdering, cutStringOrdering[1])
		}

		columnName := columnMapping[columnAlias]
		if columnName == "" {
			return nil, fmt.Errorf("%w: invalid column alias. closest: '%s'", ErrOrdering, closestAlias(columnAlias, aliases))
		}

		ret = append(ret, OrderBy{
			Column:    columnName,
			Direction: direction,
		})
	}

	return ret, nil
}

func closestAlias(input ColumnAlias, dataSet []ColumnAlias) ColumnAlias {
	minDist := math.MaxInt
	closest := ""

	for _, dataSetAlias := range dataSet {
		dist := levenshtein([]rune(dataSetAlias), []rune(input))
		if dist < minDist || (dist == minDist && dataSetAlias < closest) {
			minDist = dist
			closest = dataSetAlias
		}
	}

	return closest
}

// OrderingsFromQuery derives the ordering columns from the ORDER BY clause
// of a gorm statement, in declaration order.
//
// Raw order strings are split on top-level commas, so expressions such as
// "COALESCE(a, 0) DESC" are kept whole. A term without a direction is
// ascending. NULLS FIRST and NULLS LAST are not supported.
func OrderingsFromQuery(db *gorm.DB) (Orderings, error) {
	if db == nil || db.Statement == nil {
		return nil, fmt.Errorf("%w: no statement to read ordering from", ErrOrdering)
	}

	orderClause, ok := db.Statement.Clauses["ORDER BY"]
	if !ok {
		return nil, fmt.Errorf("%w: query has no ORDER BY clause", ErrOrdering)
	}

	var orderBy clause.OrderBy
	switch expr := orderClause.Expression.(type) {
	case clause.OrderBy:
		orderBy = expr
	case *clause.OrderBy:
		orderBy = *expr
	default:
		return nil, fmt.Errorf("%w: unsupported ORDER BY expression %T", ErrOrdering, orderClause.Expression)
	}

	if orderBy.Expression != nil {
		return nil, fmt.Errorf("%w: ORDER BY given as an opaque expression", ErrOrdering)
	}

	ret := make(Orderings, 0, len(orderBy.Columns))
	for _, column := range orderBy.Columns {
		if column.Column.Raw {
			parsed, err := parseOrderClause(column.Column.Name)
			if err != nil {
				return nil, err
			}
			if column.Desc {
				// db.Order(clause.OrderByColumn{Column: clause.Column{Name: "x", Raw: true}, Desc: true})
				if len(parsed) != 1 {
					return nil, fmt.Errorf("%w: descending raw ordering with several terms '%s'", ErrOrdering, column.Column.Name)
				}
				parsed[0].Direction = DirectionDESC
			}
			ret = append(ret, parsed...)

			continue
		}

		name, err := structuredColumnName(db.Statement, column.Column)
		if err != nil {
			return nil, err
		}
		ret = append(ret, OrderBy{
			Column:    name,
			Direction: lo.Ternary(column.Desc, DirectionDESC, DirectionASC),
		})
	}

	if err := ret.validate(); err != nil {
		return nil, err
	}

	return ret, nil
}

func structuredColumnName(stmt *gorm.Statement, column clause.Column) (string, error) {
	if column.Name == "" || column.Name == clause.PrimaryKey || column.Name == clause.Associations {
		return "", fmt.Errorf("%w: cannot resolve ordering column '%s'", ErrOrdering, column.Name)
	}

	table := column.Table
	if table == clause.CurrentTable {
		table = stmt.Table
	}
	if table == "" {
		return column.Name, nil
	}

	return table + "." + column.Name, nil
}

// parseOrderClause parses a raw ORDER BY list such as "a DESC, b".
func parseOrderClause(raw string) (Orderings, error) {
	terms, err := splitTopLevel(raw, ',')
	if err != nil {
		return nil, err
	}

	ret := make(Orderings, 0, len(terms))
	for _, term := range terms {
		orderBy, err := parseOrderTerm(term)
		if err != nil {
			return nil, err
		}
		ret = append(ret, orderBy)
	}

	return ret, nil
}

func parseOrderTerm(term string) (OrderBy, error) {
	term = strings.TrimSpace(term)
	fields := strings.Fields(term)
	if len(fields) == 0 {
		return OrderBy{}, fmt.Errorf("%w: empty ordering term", ErrOrdering)
	}

	last := strings.ToUpper(fields[len(fields)-1])
	if len(fields) >= 2 && strings.ToUpper(fields[len(fields)-2]) == "NULLS" {
		return OrderBy{}, fmt.Errorf("%w: NULLS %s is not supported in '%s'", ErrOrdering, last, term)
	}

	direction := Direction(last)
	if !direction.Valid() {
		if len(fields) >= 2 && isTrailingModifier(fields[len(fields)-2], fields[len(fields)-1]) {
			return OrderBy{}, fmt.Errorf("%w: unrecognised ordering modifier '%s' in '%s'", ErrOrdering, fields[len(fields)-1], term)
		}
		return OrderBy{Column: term, Direction: DirectionASC}, nil
	}
	if len(fields) == 1 {
		return OrderBy{}, fmt.Errorf("%w: ordering term without column '%s'", ErrOrdering, term)
	}

	column := strings.TrimSpace(term[:len(term)-len(fields[len(fields)-1])])

	return OrderBy{Column: column, Direction: direction}, nil
}

// isTrailingModifier reports whether word follows an operand without an
// operator in between ("id ASCENDING"), which in an ordering term can only
// be a modifier. Keywords closing an expression are not modifiers.
func isTrailingModifier(prev, word string) bool {
	switch strings.ToUpper(word) {
	case "END", "NULL", "TRUE", "FALSE":
		return false
	}

	for _, r := range word {
		if !(r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return false
		}
	}

	last, _ := utf8.DecodeLastRuneInString(prev)

	return last == '_' || last == ')' || last == '"' || last == '`' || last == ']' ||
		unicode.IsLetter(last) || unicode.IsDigit(last)
}

// splitTopLevel splits s on sep, ignoring separators nested in parentheses
// or quoted with ', " or `.
func splitTopLevel(s string, sep rune) ([]string, error) {
	var (
		parts []string
		depth int
		quote rune
		start int
	)

	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"' || r == '`':
			quote = r
		case r == '(':
			depth++
		case r == ')':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("%w: unbalanced parentheses in '%s'", ErrOrdering, s)
			}
		case r == sep && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}

	if quote != 0 || depth != 0 {
		return nil, fmt.Errorf("%w: unterminated expression in '%s'", ErrOrdering, s)
	}

	return append(parts, s[start:]), nil
}
