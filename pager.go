package gokeyset

import (
	"fmt"
	"log/slog"
	"slices"

	"gorm.io/gorm"
)

// RawKeysetPager is intended for API payloads. For proper code generation, inline it:
//
//	type MyFilter struct {
//	    Paging RawKeysetPager `json:",inline"`
//	}
type RawKeysetPager struct {
	// Limit - maximum number of records to return in the response.
	Limit int `json:"limit"`
	// Bookmark - page bookmark obtained from Paging (BookmarkNext,
	// BookmarkPrevious...). If empty, the first page is returned.
	Bookmark string `json:"bookmark"`
}

// Decode converts RawKeysetPager into *KeysetPager, parsing Bookmark. A zero
// Limit means DefaultLimit.
func (p RawKeysetPager) Decode(orderBy ...OrderBy) (*KeysetPager, error) {
	return DecodeKeysetPager(p.Limit, p.Bookmark, orderBy...)
}

// KeysetPager describes one page request: page size, ordering and the marker
// to start from. It is a value object; the same pager can be applied to many
// queries.
type KeysetPager struct {
	perPage     int
	maxPerPage  int
	marker      Marker
	sort        Orderings
	strictFlags bool
	codec       *Codec
	logger      *slog.Logger

	// err keeps a bookmark decoding failure until the pager is used.
	err error
}

func NewKeysetPager() *KeysetPager {
	return new(KeysetPager).WithLimit(DefaultLimit)
}

// DecodeKeysetPager builds a pager from a page size and a bookmark string.
// When orderings are given, the bookmark must carry one value per ordering
// column. A zero limit, an unset API field, means DefaultLimit; any other
// value is kept and checked when the pager is used.
func DecodeKeysetPager(limit int, bookmark string, orderBy ...OrderBy) (*KeysetPager, error) {
	marker, err := DeserializeMarker(bookmark, len(orderBy))
	if err != nil {
		return nil, err
	}

	if limit == 0 {
		limit = DefaultLimit
	}

	return (&KeysetPager{
		marker: marker,
	}).WithSubstitutedSort(orderBy...).WithLimit(limit), nil
}

// WithLimit sets the page size. The value is kept as given: NoLimit, a
// non-positive size or one above the cap (see WithMaxLimit) make the pager
// fail with ErrPageSize when used. Use NormalizeLimit to clamp untrusted input
// instead.
func (p *KeysetPager) WithLimit(limit int) *KeysetPager {
	if p == nil {
		p = new(KeysetPager)
	}

	p.perPage = limit

	return p
}

// WithMaxLimit sets the largest accepted page size. Defaults to MaxLimit.
func (p *KeysetPager) WithMaxLimit(maxLimit int) *KeysetPager {
	if p == nil {
		p = new(KeysetPager)
	}

	p.maxPerPage = maxLimit

	return p
}

// WithMarker sets the page marker explicitly.
func (p *KeysetPager) WithMarker(marker Marker) *KeysetPager {
	if p == nil {
		p = new(KeysetPager)
	}

	p.marker = marker
	p.err = nil

	return p
}

// WithBookmark sets the page marker from its bookmark form, decoded with the
// pager's current codec (call WithCodec first when using a custom registry).
// A malformed bookmark makes every later use of the pager fail before any
// query is sent.
func (p *KeysetPager) WithBookmark(bookmark string) *KeysetPager {
	if p == nil {
		p = new(KeysetPager)
	}

	marker, err := p.getCodec().Deserialize(bookmark, 0)
	if err != nil {
		p.marker, p.err = Marker{}, err
		return p
	}

	return p.WithMarker(marker)
}

// WithSubstitutedSort resets previous orderings and applies the provided ones.
func (p *KeysetPager) WithSubstitutedSort(orderBy ...OrderBy) *KeysetPager {
	if p == nil {
		p = new(KeysetPager)
	}

	p.sort = nil

	return p.WithSort(orderBy...)
}

// WithSort appends sort orderings without overwriting existing ones.
// Order is preserved as if calling:
//
//	OrderBy(o1).ThenBy(o2).ThenBy(o3)...
//
// When no sort is set, the ordering is read from the query's ORDER BY.
func (p *KeysetPager) WithSort(orderBy ...OrderBy) *KeysetPager {
	if p == nil {
		p = new(KeysetPager)
	}

	for _, o := range orderBy {
		idx := slices.IndexFunc(p.sort, func(processed OrderBy) bool {
			return processed.Column == o.Column
		})

		// Remove previous occurrence (avoid duplication).
		if idx != -1 {
			p.sort = slices.Delete(p.sort, idx, idx+1)
		}

		p.sort = append(p.sort, o)
	}

	return p
}

// WithStrictFlags makes the pager verify the "has more" flag of the direction
// opposite to the fetch with one extra LIMIT 1 query, instead of trusting the
// input marker. Use it when rows before the marker may have been deleted.
func (p *KeysetPager) WithStrictFlags() *KeysetPager {
	if p == nil {
		p = new(KeysetPager)
	}

	p.strictFlags = true

	return p
}

// WithCodec sets the codec used for bookmarks. The default codec uses the
// default type registry.
func (p *KeysetPager) WithCodec(codec *Codec) *KeysetPager {
	if p == nil {
		p = new(KeysetPager)
	}

	p.codec = codec

	return p
}

// WithLogger sets the logger receiving debug records about fetched pages.
func (p *KeysetPager) WithLogger(logger *slog.Logger) *KeysetPager {
	if p == nil {
		p = new(KeysetPager)
	}

	p.logger = logger

	return p
}

// Paginate rewrites the query for the requested page: the ORDER BY is
// replaced with the pager's ordering (reversed for backward markers), the
// paging predicate is ANDed into WHERE (HAVING for grouped queries) and the
// limit is set to the page size plus one lookahead row.
//
// The passed query is not modified. Returns the rewritten query and the
// declared ordering.
func (p *KeysetPager) Paginate(db *gorm.DB) (*gorm.DB, Orderings, error) {
	orderings, err := p.resolve(db)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot paginate: %w", err)
	}

	tx, err := p.rewrite(db, orderings, p.marker, p.GetDatasetLimit())
	if err != nil {
		return nil, nil, fmt.Errorf("cannot paginate: %w", err)
	}

	return tx, orderings, nil
}

// GetSort returns orderings that will be applied to the dataset.
func (p *KeysetPager) GetSort() Orderings {
	if p == nil {
		return nil
	}

	return p.sort
}

// GetLimit returns the page size as set.
func (p *KeysetPager) GetLimit() int {
	if p == nil {
		return 0
	}

	return p.perPage
}

// GetMarker returns the page marker as-is.
func (p *KeysetPager) GetMarker() Marker {
	if p == nil {
		return Marker{}
	}

	return p.marker
}

// GetDatasetLimit returns the number of rows requested from the database:
// the page size plus one lookahead row.
func (p *KeysetPager) GetDatasetLimit() int {
	return p.GetLimit() + 1
}

// IsStrictFlags returns true if opposite-direction flags are verified.
func (p *KeysetPager) IsStrictFlags() bool {
	if p == nil {
		return false
	}

	return p.strictFlags
}

func (p *KeysetPager) getCodec() *Codec {
	if p == nil || p.codec == nil {
		return _defaultCodec
	}

	return p.codec
}

func (p *KeysetPager) getLogger() *slog.Logger {
	if p == nil || p.logger == nil {
		return _discardLogger
	}

	return p.logger
}

func (p *KeysetPager) validate() error {
	if p == nil {
		return fmt.Errorf("keyset pager is nil")
	}

	if p.err != nil {
		return p.err
	}

	return validatePerPage(p.perPage, p.maxPerPage)
}

// resolve validates the pager and returns the ordering to page by: the
// pager's sort, or the query's ORDER BY when no sort is set.
func (p *KeysetPager) resolve(db *gorm.DB) (Orderings, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	orderings := p.sort
	if len(orderings) == 0 {
		var err error
		if orderings, err = OrderingsFromQuery(db); err != nil {
			return nil, err
		}
	}

	if err := orderings.validate(); err != nil {
		return nil, err
	}

	if !p.marker.IsSentinel() && len(p.marker.Values) != len(orderings) {
		return nil, fmt.Errorf(
			"%w: page marker has %d values, query is ordered by %d columns",
			ErrPredicate, len(p.marker.Values), len(orderings),
		)
	}

	return orderings, nil
}

// rewrite applies marker, ordering and limit to a copy of db.
func (p *KeysetPager) rewrite(db *gorm.DB, orderings Orderings, marker Marker, limit int) (*gorm.DB, error) {
	predicate, err := compilePredicate(orderings, marker, p.getCodec().registry)
	if err != nil {
		return nil, err
	}

	effective := orderings
	if marker.Backwards {
		effective = orderings.Reversed()
	}

	// The session clones the statement on the next chained call, so the
	// caller's query keeps its clauses.
	tx := db.Session(&gorm.Session{}).Limit(limit)
	delete(tx.Statement.Clauses, "ORDER BY")

	tx = effective.Apply(tx)
	tx = predicate.Apply(tx)

	return tx, nil
}
