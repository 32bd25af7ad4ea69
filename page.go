package gokeyset

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"slices"

	"gorm.io/gorm"
)

// Page is a bounded slice of result rows in declared order together with
// its paging information.
type Page[T any] struct {
	Rows   []T
	Paging *Paging
}

// Len returns the number of rows on the page.
func (p *Page[T]) Len() int {
	if p == nil {
		return 0
	}

	return len(p.Rows)
}

// One returns the single row of a page fetched with a page size of 1.
func (p *Page[T]) One() (T, error) {
	var zero T
	switch p.Len() {
	case 0:
		return zero, fmt.Errorf("tried to select one but zero rows returned")
	case 1:
		return p.Rows[0], nil
	default:
		return zero, fmt.Errorf("too many rows returned")
	}
}

// Items iterates over the rows of the page together with their markers.
func (p *Page[T]) Items() iter.Seq2[Marker, T] {
	return func(yield func(Marker, T) bool) {
		for i, row := range p.Rows {
			m, err := p.Paging.MarkerAt(i)
			if err != nil {
				return
			}
			if !yield(m, row) {
				return
			}
		}
	}
}

// GetPage fetches one page of db.
//
// The ordering is the pager's sort or, when none is set, the query's ORDER
// BY. getters extract the ordering column values from every fetched row; they
// become the page's markers. Errors of the query itself are returned
// unmodified, pager and marker errors are detected before any query is sent.
//
// Usage:
//
//	pager, err := gokeyset.DecodeKeysetPager(req.Limit, req.Bookmark)
//	...
//	page, err := gokeyset.GetPage(ctx, db.Model(&Book{}).Order("author, title, id"), pager, getters)
//	...
//	next, err := page.Paging.BookmarkNext()
func GetPage[T any](ctx context.Context, db *gorm.DB, pager *KeysetPager, getters Getters[T]) (*Page[T], error) {
	orderings, err := pager.resolve(db)
	if err != nil {
		return nil, fmt.Errorf("cannot paginate: %w", err)
	}

	return getPage(ctx, db, pager, orderings, getters)
}

// Select is GetPage with getters derived from the row type: MapGetters for
// map[string]any rows, StructGetters for GORM models.
func Select[T any](ctx context.Context, db *gorm.DB, pager *KeysetPager) (*Page[T], error) {
	orderings, err := pager.resolve(db)
	if err != nil {
		return nil, fmt.Errorf("cannot paginate: %w", err)
	}

	getters, err := autoGetters[T](db, orderings)
	if err != nil {
		return nil, fmt.Errorf("cannot paginate: %w", err)
	}

	return getPage(ctx, db, pager, orderings, getters)
}

func autoGetters[T any](db *gorm.DB, orderings Orderings) (Getters[T], error) {
	if getters, ok := any(MapGetters(orderings)).(Getters[T]); ok {
		return getters, nil
	}

	return StructGetters[T](orderings, db.NamingStrategy)
}

func getPage[T any](ctx context.Context, db *gorm.DB, pager *KeysetPager, orderings Orderings, getters Getters[T]) (*Page[T], error) {
	for _, orderBy := range orderings {
		if getters[orderBy.Column] == nil {
			return nil, fmt.Errorf("cannot paginate: %w: cannot find getter for column '%s' met in ordering", ErrMarker, orderBy.Column)
		}
	}

	marker := pager.GetMarker()
	perPage := pager.GetLimit()

	rows, err := fetch[T](ctx, db, pager, orderings, marker, perPage+1)
	if err != nil {
		return nil, err
	}

	places := make([][]any, 0, len(rows))
	for _, row := range rows {
		keyset, err := keysetOf(row, orderings, getters)
		if err != nil {
			return nil, err
		}
		places = append(places, keyset)
	}

	paging := newPaging(pager.getCodec(), perPage, marker.Backwards, marker.Values, places)

	rows = rows[:min(len(rows), perPage)]
	if marker.Backwards {
		slices.Reverse(rows)
	}

	if pager.IsStrictFlags() {
		if err = verifyOppositeFlag[T](ctx, db, pager, orderings, paging); err != nil {
			return nil, err
		}
	}

	pager.getLogger().DebugContext(ctx, "keyset page fetched",
		orderingAttr(orderings),
		markerAttr(marker),
		slog.Int("per_page", perPage),
		slog.Int("rows", len(rows)),
		slog.Bool("has_next", paging.HasNext()),
		slog.Bool("has_previous", paging.HasPrevious()),
	)

	return &Page[T]{Rows: rows, Paging: paging}, nil
}

// verifyOppositeFlag replaces the flag trusted from the input marker with the
// result of a LIMIT 1 query past the page boundary.
func verifyOppositeFlag[T any](ctx context.Context, db *gorm.DB, pager *KeysetPager, orderings Orderings, paging *Paging) error {
	if paging.backwards {
		if !paging.hasNext {
			return nil
		}

		edge := Marker{Values: firstNonEmpty(paging.last, paging.beyond)}
		rows, err := fetch[T](ctx, db, pager, orderings, edge, 1)
		if err != nil {
			return err
		}
		paging.hasNext = len(rows) > 0

		return nil
	}

	if !paging.hasPrevious {
		return nil
	}

	edge := Marker{Values: firstNonEmpty(paging.first, paging.before), Backwards: true}
	rows, err := fetch[T](ctx, db, pager, orderings, edge, 1)
	if err != nil {
		return err
	}
	paging.hasPrevious = len(rows) > 0

	return nil
}

func fetch[T any](ctx context.Context, db *gorm.DB, pager *KeysetPager, orderings Orderings, marker Marker, limit int) ([]T, error) {
	tx, err := pager.rewrite(db.WithContext(ctx), orderings, marker, limit)
	if err != nil {
		return nil, fmt.Errorf("cannot paginate: %w", err)
	}

	var rows []T
	if err = tx.Find(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}
