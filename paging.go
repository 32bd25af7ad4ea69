package gokeyset

import (
	"fmt"
	"slices"
)

// Paging describes how a page relates to the whole result set. Marker
// accessors have Bookmark counterparts returning the serialized marker.
//
// Paging is read-only; obtain it from a Page.
type Paging struct {
	perPage   int
	backwards bool
	codec     *Codec

	// Keysets around the page in declared order: before is the place the
	// page starts after, beyond the first place past its end.
	before, first, last, beyond []any

	// places holds the keyset of every row of the page.
	places [][]any

	hasNext, hasPrevious bool
}

// newPaging builds the paging of fetched rows. places are the keysets of the
// fetched rows in fetch order, including the lookahead row; current is the
// keyset of the input marker.
func newPaging(codec *Codec, perPage int, backwards bool, current []any, places [][]any) *Paging {
	n := min(len(places), perPage)

	p := &Paging{
		perPage:   perPage,
		backwards: backwards,
		codec:     codec,
		places:    slices.Clone(places[:n]),
	}

	var first, last, beyond []any
	if n > 0 {
		first, last = places[0], places[n-1]
	}
	if len(places) > n {
		beyond = places[n]
	}

	four := [][]any{current, first, last, beyond}
	if backwards {
		slices.Reverse(p.places)
		slices.Reverse(four)
	}
	p.before, p.first, p.last, p.beyond = four[0], four[1], four[2], four[3]

	p.hasNext = len(p.beyond) > 0
	p.hasPrevious = len(p.before) > 0

	return p
}

// PerPage returns the requested page size.
func (p *Paging) PerPage() int {
	return p.perPage
}

// Backwards reports whether the page was fetched backwards.
func (p *Paging) Backwards() bool {
	return p.backwards
}

// Len returns the number of rows on the page.
func (p *Paging) Len() int {
	return len(p.places)
}

// IsFull reports whether the page holds as many rows as requested.
func (p *Paging) IsFull() bool {
	return len(p.places) == p.perPage
}

// HasNext reports whether rows follow this page in declared order.
func (p *Paging) HasNext() bool {
	return p.hasNext
}

// HasPrevious reports whether rows precede this page in declared order.
func (p *Paging) HasPrevious() bool {
	return p.hasPrevious
}

// HasFurther reports whether more rows exist in the paging direction.
func (p *Paging) HasFurther() bool {
	if p.backwards {
		return p.HasPrevious()
	}

	return p.HasNext()
}

// Next returns the marker of the page after this one in declared order.
func (p *Paging) Next() Marker {
	return Marker{Values: firstNonEmpty(p.last, p.before)}
}

// Previous returns the marker of the page before this one in declared order.
func (p *Paging) Previous() Marker {
	return Marker{Values: firstNonEmpty(p.first, p.beyond), Backwards: true}
}

// CurrentForwards returns the marker fetching this page forwards.
func (p *Paging) CurrentForwards() Marker {
	return Marker{Values: p.before}
}

// CurrentBackwards returns the marker fetching this page backwards.
func (p *Paging) CurrentBackwards() Marker {
	return Marker{Values: p.beyond, Backwards: true}
}

// Current returns the marker fetching this page again in its own direction.
// The marker of the last row actually returned, the place to continue from,
// is Last (forward pages) or Next.
func (p *Paging) Current() Marker {
	if p.backwards {
		return p.CurrentBackwards()
	}

	return p.CurrentForwards()
}

// CurrentOpposite returns the marker fetching this page in the opposite
// direction.
func (p *Paging) CurrentOpposite() Marker {
	if p.backwards {
		return p.CurrentForwards()
	}

	return p.CurrentBackwards()
}

// Further returns the marker of the following page in the paging direction.
func (p *Paging) Further() Marker {
	if p.backwards {
		return p.Previous()
	}

	return p.Next()
}

// First returns the marker positioned at the first row of the page, or the
// sentinel for an empty page.
func (p *Paging) First() Marker {
	return Marker{Values: p.first, Backwards: p.backwards}
}

// Last returns the marker positioned at the last row of the page, or the
// sentinel for an empty page.
func (p *Paging) Last() Marker {
	return Marker{Values: p.last, Backwards: p.backwards}
}

// MarkerAt returns the marker positioned at the i-th row of the page.
func (p *Paging) MarkerAt(i int) (Marker, error) {
	if i < 0 || i >= len(p.places) {
		return Marker{}, fmt.Errorf("row index %d out of range [0, %d)", i, len(p.places))
	}

	return Marker{Values: p.places[i], Backwards: p.backwards}, nil
}

func (p *Paging) BookmarkNext() (string, error) {
	return p.codec.Serialize(p.Next())
}

func (p *Paging) BookmarkPrevious() (string, error) {
	return p.codec.Serialize(p.Previous())
}

func (p *Paging) BookmarkCurrent() (string, error) {
	return p.codec.Serialize(p.Current())
}

func (p *Paging) BookmarkCurrentForwards() (string, error) {
	return p.codec.Serialize(p.CurrentForwards())
}

func (p *Paging) BookmarkCurrentBackwards() (string, error) {
	return p.codec.Serialize(p.CurrentBackwards())
}

func (p *Paging) BookmarkCurrentOpposite() (string, error) {
	return p.codec.Serialize(p.CurrentOpposite())
}

func (p *Paging) BookmarkFurther() (string, error) {
	return p.codec.Serialize(p.Further())
}

func (p *Paging) BookmarkFirst() (string, error) {
	return p.codec.Serialize(p.First())
}

func (p *Paging) BookmarkLast() (string, error) {
	return p.codec.Serialize(p.Last())
}

// BookmarkAt returns the bookmark of the i-th row of the page.
func (p *Paging) BookmarkAt(i int) (string, error) {
	m, err := p.MarkerAt(i)
	if err != nil {
		return "", err
	}

	return p.codec.Serialize(m)
}

func firstNonEmpty(keysets ...[]any) []any {
	for _, keyset := range keysets {
		if len(keyset) > 0 {
			return keyset
		}
	}

	return nil
}
