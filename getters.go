package gokeyset

import (
	"context"
	"database/sql/driver"
	"fmt"
	"math/big"
	"reflect"
	"strings"
	"sync"

	"gorm.io/gorm/schema"
)

// Getters maps ordering columns to accessors returning the column value of a
// row. Specify every column the pagination is ordered by.
// Example:
//
//	gokeyset.Getters[models.Book]{
//		"author": func(b models.Book) any { return b.Author },
//		"id":     func(b models.Book) any { return b.ID },
//	}
type Getters[T any] map[string]func(T) any

// MarkerFromRow builds a marker positioned at row by reading every ordering
// column through getters. Values are extracted as is; whether their types
// can be serialized is checked only when a bookmark is requested.
func MarkerFromRow[T any](row T, orderings Orderings, getters Getters[T], backwards bool) (Marker, error) {
	values, err := keysetOf(row, orderings, getters)
	if err != nil {
		return Marker{}, err
	}

	return Marker{Values: values, Backwards: backwards}, nil
}

func keysetOf[T any](row T, orderings Orderings, getters Getters[T]) ([]any, error) {
	if len(orderings) == 0 {
		return nil, fmt.Errorf("%w: empty ordering list", ErrMarker)
	}

	values := make([]any, 0, len(orderings))
	for _, orderBy := range orderings {
		getter, ok := getters[orderBy.Column]
		if !ok || getter == nil {
			return nil, fmt.Errorf("%w: cannot find getter for column '%s' met in ordering", ErrMarker, orderBy.Column)
		}
		values = append(values, getter(row))
	}

	return values, nil
}

// MapGetters returns getters for rows scanned into map[string]any. A column
// is looked up by its full text first, then by its unqualified, unquoted name
// ("users.id" is also found as "id"). Values are unwrapped like StructGetters
// does.
func MapGetters(orderings Orderings) Getters[map[string]any] {
	ret := make(Getters[map[string]any], len(orderings))
	for _, orderBy := range orderings {
		full := orderBy.Column
		short := unqualifiedName(full)
		ret[full] = func(row map[string]any) any {
			if v, ok := row[full]; ok {
				return columnValue(v)
			}
			return columnValue(row[short])
		}
	}

	return ret
}

var _schemaCache = &sync.Map{}

// StructGetters returns getters for GORM models, resolving ordering columns
// to model fields by their database column name. T may be a struct or a
// pointer to a struct. Columns that are expressions rather than model fields
// need explicit getters.
//
// Nullable fields are unwrapped: pointers are dereferenced (a nil pointer
// yields nil) and database/sql wrappers such as sql.NullInt64 yield their
// driver value.
func StructGetters[T any](orderings Orderings, namer schema.Namer) (Getters[T], error) {
	if namer == nil {
		namer = schema.NamingStrategy{}
	}

	s, err := schema.Parse(new(T), _schemaCache, namer)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot parse model %T: %w", ErrMarker, *new(T), err)
	}

	ret := make(Getters[T], len(orderings))
	for _, orderBy := range orderings {
		name := unqualifiedName(orderBy.Column)
		field := s.LookUpField(name)
		if field == nil {
			return nil, fmt.Errorf("%w: model %s has no field for column '%s'", ErrMarker, s.Name, orderBy.Column)
		}

		ret[orderBy.Column] = func(row T) any {
			rv := reflect.ValueOf(row)
			for rv.Kind() == reflect.Ptr {
				if rv.IsNil() {
					return nil
				}
				rv = rv.Elem()
			}

			value, _ := field.ValueOf(context.Background(), rv)

			return columnValue(value)
		}
	}

	return ret, nil
}

// columnValue unwraps a column value to the form markers hold. *big.Int is
// kept as is, it is a value kind of its own.
func columnValue(v any) any {
	if b, ok := v.(*big.Int); ok {
		if b == nil {
			return nil
		}
		return b
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}

	v = rv.Interface()
	if valuer, ok := v.(driver.Valuer); ok && rv.Type().PkgPath() == "database/sql" {
		value, err := valuer.Value()
		if err != nil {
			return v
		}
		return value
	}

	return v
}

// unqualifiedName strips the table qualifier and identifier quotes:
// `"public"."users"."id"` becomes id.
func unqualifiedName(column string) string {
	column = strings.TrimSpace(column)
	if idx := strings.LastIndex(column, "."); idx >= 0 {
		column = column[idx+1:]
	}

	return strings.Trim(column, "`\"[]")
}
