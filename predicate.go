package gokeyset

import (
	"database/sql/driver"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Predicate is the paging condition selecting the rows strictly after a
// marker in the marker's paging direction.
//
// IMPORTANT:
// The ordering MUST be unique per row (end it with a unique column),
// otherwise rows sharing a key with the marker are skipped.
type Predicate struct {
	dnf tDNF
}

// CompilePredicate builds the paging condition for marker under orderings.
//
// The row-value comparison (c1, ..., cn) > (v1, ..., vn) is expanded into
//
//	(c1 > v1) OR (c1 = v1 AND c2 > v2) OR ... OR (c1 = v1 AND ... AND cn > vn)
//
// where each ">" is "<" for a descending column. A backwards marker inverts
// every comparison. The sentinel marker compiles to an empty predicate.
func CompilePredicate(orderings Orderings, marker Marker) (*Predicate, error) {
	return compilePredicate(orderings, marker, _defaultRegistry)
}

func compilePredicate(orderings Orderings, marker Marker, registry *TypeRegistry) (*Predicate, error) {
	if err := orderings.validate(); err != nil {
		return nil, err
	}

	if marker.IsSentinel() {
		return &Predicate{}, nil
	}

	if len(marker.Values) != len(orderings) {
		return nil, fmt.Errorf(
			"%w: page marker has %d values, query is ordered by %d columns",
			ErrPredicate, len(marker.Values), len(orderings),
		)
	}

	for i, v := range marker.Values {
		if !registry.comparable(v) {
			return nil, fmt.Errorf("%w: value %v (%T) is not comparable with column '%s'", ErrPredicate, v, v, orderings[i].Column)
		}
	}

	effective := orderings
	if marker.Backwards {
		effective = orderings.Reversed()
	}

	dnf := make(tDNF, 0, len(effective))
	for k := range effective {
		disjunct := make(tDisjunct, 0, k+1)
		for i := 0; i < k; i++ {
			disjunct = append(disjunct, tConjunct{
				Column:   effective[i].Column,
				Value:    marker.Values[i],
				Operator: operatorEq,
			})
		}
		disjunct = append(disjunct, tConjunct{
			Column:   effective[k].Column,
			Value:    marker.Values[k],
			Operator: effective[k].Direction.ForOperator(),
		})

		dnf = append(dnf, disjunct)
	}

	return &Predicate{dnf: dnf}, nil
}

// IsEmpty reports whether the predicate filters nothing.
func (p *Predicate) IsEmpty() bool {
	return p == nil || len(p.dnf) == 0
}

// Expression returns the predicate as a gorm clause expression, or nil when
// the predicate is empty.
func (p *Predicate) Expression() clause.Expression {
	if p.IsEmpty() {
		return nil
	}

	return p.dnf.toGORMExpression()
}

// ToSQL returns the predicate as an SQL condition with "?" placeholders.
// An empty predicate is "TRUE".
//
// Usage:
//
//	cond, args := p.ToSQL()
//	query := fmt.Sprintf("SELECT * FROM books WHERE %s ORDER BY %s", cond, orderings.ToSQL())
func (p *Predicate) ToSQL() (string, []driver.Value) {
	if p.IsEmpty() {
		return "TRUE", nil
	}

	return p.dnf.toSQLClause()
}

// Apply ANDs the predicate into the WHERE clause of db, or into HAVING when
// the statement is grouped, so the condition applies after aggregation.
func (p *Predicate) Apply(db *gorm.DB) *gorm.DB {
	exp := p.Expression()
	if exp == nil {
		return db
	}

	if _, grouped := db.Statement.Clauses["GROUP BY"]; grouped {
		return db.Having(exp)
	}

	return db.Clauses(exp)
}
