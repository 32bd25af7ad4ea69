package gokeyset

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the pager, the predicate compiler and the
// bookmark codec. Use errors.Is to check them; returned errors wrap them with
// details.
var (
	// ErrOrdering is returned when a query's ordering is missing or cannot be
	// used for keyset paging.
	ErrOrdering = errors.New("invalid ordering")

	// ErrMarker is returned when a marker cannot be built from a row.
	ErrMarker = errors.New("invalid marker")

	// ErrInvalidPage is returned when a page request (its size, or its marker
	// in either marker or bookmark form) does not fit the query being paged.
	ErrInvalidPage = errors.New("invalid page marker")

	// ErrPredicate is returned when a marker cannot be compiled into a paging
	// condition.
	ErrPredicate = fmt.Errorf("%w: cannot compile predicate", ErrInvalidPage)

	// ErrPageSize is returned for a page size that is not positive or exceeds
	// the pager's cap.
	ErrPageSize = fmt.Errorf("%w: invalid page size", ErrInvalidPage)

	// ErrBadBookmark is returned when a bookmark string fails to parse.
	ErrBadBookmark = fmt.Errorf("%w: bad bookmark", ErrInvalidPage)

	// ErrUnregisteredType is returned when serializing a value whose type has
	// no registered bookmark codec.
	ErrUnregisteredType = errors.New("unregistered bookmark type")

	// ErrSerialization is returned when a custom serializer fails.
	ErrSerialization = errors.New("bookmark serialization failed")

	// ErrConfiguration is returned when registering bookmark types fails.
	ErrConfiguration = errors.New("bookmark type configuration error")
)
